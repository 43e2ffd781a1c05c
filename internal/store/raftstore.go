package store

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hashicorp/raft"
	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// applyTimeout bounds how long a write waits to be enqueued in the raft log.
const applyTimeout = 5 * time.Second

// FSM applies committed raft log entries to a local MemStore.
type FSM struct {
	store *MemStore
}

// Compile-time check to ensure FSM implements raft.FSM.
var _ raft.FSM = (*FSM)(nil)

func NewFSM(store *MemStore) *FSM {
	return &FSM{store: store}
}

// Apply applies a Raft log entry to the local store.
// The returned Result is handed back to the leader's ApplyFuture.
func (f *FSM) Apply(log *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return Result{Err: fmt.Errorf("decode command at index %d: %w", log.Index, err)}
	}
	return f.store.Apply(cmd)
}

// Snapshot captures the dataset under the read lock; Persist runs outside it.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	return &fsmSnapshot{records: f.store.dump()}, nil
}

// Restore replaces the local dataset with a snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	return f.store.Restore(rc)
}

type fsmSnapshot struct {
	records []snapshotRecord
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	if err := writeSnapshot(sink, s.records); err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *fsmSnapshot) Release() {}

// RaftStore implements kv.Store on top of a raft group.
// Writes are submitted to the raft log; reads are served from the local store.
type RaftStore struct {
	store *MemStore
	raft  *raft.Raft
}

// Compile-time check to ensure RaftStore implements kv.Store.
var _ kv.Store = (*RaftStore)(nil)

// NewRaftStore wraps the store that r's FSM applies to.
func NewRaftStore(store *MemStore, r *raft.Raft) *RaftStore {
	return &RaftStore{store: store, raft: r}
}

// GetRaft returns the underlying raft.Raft pointer (for API layer leader checks)
func (rs *RaftStore) GetRaft() *raft.Raft {
	return rs.raft
}

// Local returns the store this node's FSM applies to.
func (rs *RaftStore) Local() *MemStore {
	return rs.store
}

func (rs *RaftStore) apply(cmd Command) Result {
	data, err := json.Marshal(cmd)
	if err != nil {
		return Result{Err: fmt.Errorf("encode %s command: %w", cmd.Op, err)}
	}
	f := rs.raft.Apply(data, applyTimeout)
	if err := f.Error(); err != nil {
		return Result{Err: fmt.Errorf("raft apply %s: %w", cmd.Op, err)}
	}
	res, ok := f.Response().(Result)
	if !ok {
		return Result{Err: fmt.Errorf("raft apply %s: unexpected response %T", cmd.Op, f.Response())}
	}
	return res
}

// Set submits a set command to Raft.
func (rs *RaftStore) Set(key, value string, mode kv.SetMode) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	res := rs.apply(Command{Op: OpSet, Key: key, Value: value, Mode: mode})
	return res.Written, res.Err
}

// MSet submits the whole batch as one log entry.
func (rs *RaftStore) MSet(pairs []kv.Pair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: mset needs at least one pair", kv.ErrInvalidArgument)
	}
	for _, p := range pairs {
		if err := validateKey(p.Key); err != nil {
			return err
		}
	}
	return rs.apply(Command{Op: OpMSet, Pairs: pairs}).Err
}

// HSet submits an hset command to Raft.
func (rs *RaftStore) HSet(key, field, value string) (int, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	res := rs.apply(Command{Op: OpHSet, Key: key, Field: field, Value: value})
	return int(res.Int), res.Err
}

// HDel submits an hdel command to Raft.
func (rs *RaftStore) HDel(key string, fields ...string) (int, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	res := rs.apply(Command{Op: OpHDel, Key: key, Fields: fields})
	return int(res.Int), res.Err
}

func (rs *RaftStore) Incr(key string) (int64, error) {
	return rs.IncrBy(key, 1)
}

func (rs *RaftStore) Decr(key string) (int64, error) {
	return rs.IncrBy(key, -1)
}

func (rs *RaftStore) DecrBy(key string, amount int64) (int64, error) {
	if amount == math.MinInt64 {
		return 0, fmt.Errorf("%w: decrement of %d", kv.ErrOverflow, amount)
	}
	return rs.IncrBy(key, -amount)
}

// IncrBy submits the delta; the read-modify-write happens inside the FSM.
func (rs *RaftStore) IncrBy(key string, delta int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	res := rs.apply(Command{Op: OpIncrBy, Key: key, Delta: delta})
	return res.Int, res.Err
}

// Del submits a delete command to Raft.
func (rs *RaftStore) Del(keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, fmt.Errorf("%w: del needs at least one key", kv.ErrInvalidArgument)
	}
	if err := validateKeys(keys); err != nil {
		return 0, err
	}
	res := rs.apply(Command{Op: OpDel, Keys: keys})
	return int(res.Int), res.Err
}

// FlushDB submits a flush command to Raft.
func (rs *RaftStore) FlushDB() error {
	return rs.apply(Command{Op: OpFlush}).Err
}

// Get reads directly from the local store.
func (rs *RaftStore) Get(key string) (string, bool, error) {
	return rs.store.Get(key)
}

func (rs *RaftStore) MGet(keys ...string) ([]kv.Entry, error) {
	return rs.store.MGet(keys...)
}

func (rs *RaftStore) HGet(key, field string) (string, bool, error) {
	return rs.store.HGet(key, field)
}

func (rs *RaftStore) HGetAll(key string) ([]kv.FieldValue, error) {
	return rs.store.HGetAll(key)
}

func (rs *RaftStore) HKeys(key string) ([]string, error) {
	return rs.store.HKeys(key)
}

func (rs *RaftStore) Exists(key string) (bool, error) {
	return rs.store.Exists(key)
}

func (rs *RaftStore) Type(key string) (kv.ValueType, error) {
	return rs.store.Type(key)
}

func (rs *RaftStore) DBSize() (int, error) {
	return rs.store.DBSize()
}

// UsedBytes reports the local dataset size.
func (rs *RaftStore) UsedBytes() uint64 {
	return rs.store.UsedBytes()
}
