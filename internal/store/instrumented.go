package store

import (
	"sync/atomic"
	"time"

	"github.com/armon/go-metrics"
	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// Operation names tracked by InstrumentedStore.
var trackedOps = []string{
	"set", "get", "mset", "mget",
	"hset", "hget", "hgetall", "hkeys", "hdel",
	"incrby", "exists", "del", "type", "dbsize", "flushdb",
}

// opMetrics holds timing statistics for one operation.
// Uses atomic operations for thread-safe updates without locks.
type opMetrics struct {
	count     atomic.Uint64
	errors    atomic.Uint64
	latencyNs atomic.Uint64
}

// InstrumentedStore wraps any kv.Store implementation with timing metrics.
// This pattern works for in-memory, Raft-backed and Redis-backed stores.
type InstrumentedStore struct {
	store kv.Store
	ops   map[string]*opMetrics // fixed after construction
}

// Compile-time check to ensure InstrumentedStore implements kv.Store.
var _ kv.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps a store with instrumentation.
func NewInstrumentedStore(store kv.Store) *InstrumentedStore {
	ops := make(map[string]*opMetrics, len(trackedOps))
	for _, op := range trackedOps {
		ops[op] = &opMetrics{}
	}
	return &InstrumentedStore{
		store: store,
		ops:   ops,
	}
}

// Unwrap returns the wrapped store.
func (s *InstrumentedStore) Unwrap() kv.Store {
	return s.store
}

func (s *InstrumentedStore) record(op string, start time.Time, err error) {
	m := s.ops[op]
	m.count.Add(1)
	m.latencyNs.Add(uint64(time.Since(start).Nanoseconds()))
	if err != nil {
		m.errors.Add(1)
	}
	metrics.MeasureSince([]string{"store", op}, start)
}

func (s *InstrumentedStore) Set(key, value string, mode kv.SetMode) (bool, error) {
	start := time.Now()
	ok, err := s.store.Set(key, value, mode)
	s.record("set", start, err)
	return ok, err
}

func (s *InstrumentedStore) Get(key string) (string, bool, error) {
	start := time.Now()
	v, found, err := s.store.Get(key)
	s.record("get", start, err)
	return v, found, err
}

func (s *InstrumentedStore) MSet(pairs []kv.Pair) error {
	start := time.Now()
	err := s.store.MSet(pairs)
	s.record("mset", start, err)
	return err
}

func (s *InstrumentedStore) MGet(keys ...string) ([]kv.Entry, error) {
	start := time.Now()
	out, err := s.store.MGet(keys...)
	s.record("mget", start, err)
	return out, err
}

func (s *InstrumentedStore) HSet(key, field, value string) (int, error) {
	start := time.Now()
	n, err := s.store.HSet(key, field, value)
	s.record("hset", start, err)
	return n, err
}

func (s *InstrumentedStore) HGet(key, field string) (string, bool, error) {
	start := time.Now()
	v, found, err := s.store.HGet(key, field)
	s.record("hget", start, err)
	return v, found, err
}

func (s *InstrumentedStore) HGetAll(key string) ([]kv.FieldValue, error) {
	start := time.Now()
	out, err := s.store.HGetAll(key)
	s.record("hgetall", start, err)
	return out, err
}

func (s *InstrumentedStore) HKeys(key string) ([]string, error) {
	start := time.Now()
	out, err := s.store.HKeys(key)
	s.record("hkeys", start, err)
	return out, err
}

func (s *InstrumentedStore) HDel(key string, fields ...string) (int, error) {
	start := time.Now()
	n, err := s.store.HDel(key, fields...)
	s.record("hdel", start, err)
	return n, err
}

// Incr, Decr and DecrBy are all recorded as incrby.
func (s *InstrumentedStore) Incr(key string) (int64, error) {
	start := time.Now()
	n, err := s.store.Incr(key)
	s.record("incrby", start, err)
	return n, err
}

func (s *InstrumentedStore) IncrBy(key string, delta int64) (int64, error) {
	start := time.Now()
	n, err := s.store.IncrBy(key, delta)
	s.record("incrby", start, err)
	return n, err
}

func (s *InstrumentedStore) Decr(key string) (int64, error) {
	start := time.Now()
	n, err := s.store.Decr(key)
	s.record("incrby", start, err)
	return n, err
}

func (s *InstrumentedStore) DecrBy(key string, amount int64) (int64, error) {
	start := time.Now()
	n, err := s.store.DecrBy(key, amount)
	s.record("incrby", start, err)
	return n, err
}

func (s *InstrumentedStore) Exists(key string) (bool, error) {
	start := time.Now()
	ok, err := s.store.Exists(key)
	s.record("exists", start, err)
	return ok, err
}

func (s *InstrumentedStore) Del(keys ...string) (int, error) {
	start := time.Now()
	n, err := s.store.Del(keys...)
	s.record("del", start, err)
	return n, err
}

func (s *InstrumentedStore) Type(key string) (kv.ValueType, error) {
	start := time.Now()
	t, err := s.store.Type(key)
	s.record("type", start, err)
	return t, err
}

func (s *InstrumentedStore) DBSize() (int, error) {
	start := time.Now()
	n, err := s.store.DBSize()
	s.record("dbsize", start, err)
	return n, err
}

func (s *InstrumentedStore) FlushDB() error {
	start := time.Now()
	err := s.store.FlushDB()
	s.record("flushdb", start, err)
	return err
}

// GetMetrics returns a snapshot of current metrics, keyed by operation.
func (s *InstrumentedStore) GetMetrics() MetricsSnapshot {
	snap := make(MetricsSnapshot, len(s.ops))
	for op, m := range s.ops {
		count := m.count.Load()
		snap[op] = OpSnapshot{
			Count:      count,
			Errors:     m.errors.Load(),
			AvgLatency: avgLatency(m.latencyNs.Load(), count),
		}
	}
	return snap
}

// ResetMetrics clears all metrics counters.
func (s *InstrumentedStore) ResetMetrics() {
	for _, m := range s.ops {
		m.count.Store(0)
		m.errors.Store(0)
		m.latencyNs.Store(0)
	}
}

func avgLatency(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// OpSnapshot is a point-in-time view of one operation's metrics.
type OpSnapshot struct {
	Count      uint64
	Errors     uint64
	AvgLatency time.Duration
}

// MetricsSnapshot maps operation name to its metrics.
type MetricsSnapshot map[string]OpSnapshot
