package store

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// entry is the value stored under a key: either a string or a hash.
type entry struct {
	typ  kv.ValueType
	str  string
	hash *orderedHash
}

// MemStore is an in-memory implementation of the kv.Store interface.
// It uses a map protected by a RWMutex; every command holds the lock for
// its whole duration, so commands are applied in a single serial order.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]*entry
}

// Compile-time check to ensure MemStore implements kv.Store.
var _ kv.Store = (*MemStore)(nil)

// NewMemStore creates and returns a new MemStore instance.
func NewMemStore() *MemStore {
	return &MemStore{
		data: make(map[string]*entry),
	}
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", kv.ErrInvalidArgument)
	}
	return nil
}

func validateKeys(keys []string) error {
	for _, key := range keys {
		if err := validateKey(key); err != nil {
			return err
		}
	}
	return nil
}

// Set stores a string under key according to mode.
func (s *MemStore) Set(key, value string, mode kv.SetMode) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setLocked(key, value, mode), nil
}

func (s *MemStore) setLocked(key, value string, mode kv.SetMode) bool {
	_, exists := s.data[key]
	switch mode {
	case kv.SetModeNX:
		if exists {
			return false
		}
	case kv.SetModeXX:
		if !exists {
			return false
		}
	}
	s.data[key] = &entry{typ: kv.TypeString, str: value}
	return true
}

// Get retrieves the string value stored at key.
func (s *MemStore) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return "", false, nil
	}
	if e.typ != kv.TypeString {
		return "", false, kv.ErrWrongType
	}
	return e.str, true, nil
}

// MSet writes all pairs in one critical section.
// Keys are validated up front so a bad pair leaves the store untouched.
func (s *MemStore) MSet(pairs []kv.Pair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: mset needs at least one pair", kv.ErrInvalidArgument)
	}
	for _, p := range pairs {
		if err := validateKey(p.Key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pairs {
		s.setLocked(p.Key, p.Value, kv.SetModeNone)
	}
	return nil
}

// MGet returns the string values of keys in input order.
func (s *MemStore) MGet(keys ...string) ([]kv.Entry, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: mget needs at least one key", kv.ErrInvalidArgument)
	}
	if err := validateKeys(keys); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]kv.Entry, len(keys))
	for i, key := range keys {
		if e, ok := s.data[key]; ok && e.typ == kv.TypeString {
			out[i] = kv.Entry{Value: e.str, Found: true}
		}
	}
	return out, nil
}

// hashLocked returns the hash at key, or nil if the key is absent.
func (s *MemStore) hashLocked(key string) (*orderedHash, error) {
	e, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	if e.typ != kv.TypeHash {
		return nil, kv.ErrWrongType
	}
	return e.hash, nil
}

// HSet sets a single hash field.
func (s *MemStore) HSet(key, field, value string) (int, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hashLocked(key)
	if err != nil {
		return 0, err
	}
	if h == nil {
		h = newOrderedHash()
		s.data[key] = &entry{typ: kv.TypeHash, hash: h}
	}
	if h.set(field, value) {
		return 1, nil
	}
	return 0, nil
}

// HGet retrieves a single hash field.
func (s *MemStore) HGet(key, field string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := s.hashLocked(key)
	if err != nil || h == nil {
		return "", false, err
	}
	v, ok := h.get(field)
	return v, ok, nil
}

// HGetAll returns all fields of the hash in insertion order.
func (s *MemStore) HGetAll(key string) ([]kv.FieldValue, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := s.hashLocked(key)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return []kv.FieldValue{}, nil
	}
	return h.pairs(), nil
}

// HKeys returns the field names of the hash in insertion order.
func (s *MemStore) HKeys(key string) ([]string, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := s.hashLocked(key)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return []string{}, nil
	}
	return h.keys(), nil
}

// HDel removes fields from the hash, dropping the key when it becomes empty.
func (s *MemStore) HDel(key string, fields ...string) (int, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hashLocked(key)
	if err != nil || h == nil {
		return 0, err
	}
	removed := 0
	for _, f := range fields {
		if h.del(f) {
			removed++
		}
	}
	if h.len() == 0 {
		delete(s.data, key)
	}
	return removed, nil
}

// Incr adds one to the integer at key.
func (s *MemStore) Incr(key string) (int64, error) {
	return s.IncrBy(key, 1)
}

// Decr subtracts one from the integer at key.
func (s *MemStore) Decr(key string) (int64, error) {
	return s.IncrBy(key, -1)
}

// DecrBy subtracts amount from the integer at key.
func (s *MemStore) DecrBy(key string, amount int64) (int64, error) {
	if amount == math.MinInt64 {
		return 0, fmt.Errorf("%w: decrement of %d", kv.ErrOverflow, amount)
	}
	return s.IncrBy(key, -amount)
}

// IncrBy atomically adds delta to the integer value stored at key.
// Absent keys are treated as 0. Values must be decimal ASCII int64.
func (s *MemStore) IncrBy(key string, delta int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if e, ok := s.data[key]; ok {
		if e.typ != kv.TypeString {
			return 0, kv.ErrWrongType
		}
		v, err := parseInteger(e.str)
		if err != nil {
			return 0, err
		}
		current = v
	}

	if (delta > 0 && current > math.MaxInt64-delta) || (delta < 0 && current < math.MinInt64-delta) {
		return 0, kv.ErrOverflow
	}
	current += delta
	s.data[key] = &entry{typ: kv.TypeString, str: strconv.FormatInt(current, 10)}

	return current, nil
}

// parseInteger accepts the canonical decimal form only: an optional minus
// sign followed by digits.
func parseInteger(s string) (int64, error) {
	if s == "" || s[0] == '+' {
		return 0, kv.ErrNotInteger
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, kv.ErrNotInteger
	}
	return v, nil
}

// Exists reports whether key is present.
func (s *MemStore) Exists(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[key]
	return ok, nil
}

// Del removes keys from the store.
// Keys that don't exist are skipped without error.
func (s *MemStore) Del(keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, fmt.Errorf("%w: del needs at least one key", kv.ErrInvalidArgument)
	}
	if err := validateKeys(keys); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if _, ok := s.data[key]; ok {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}

// Type reports what key holds.
func (s *MemStore) Type(key string) (kv.ValueType, error) {
	if err := validateKey(key); err != nil {
		return kv.TypeNone, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.data[key]; ok {
		return e.typ, nil
	}
	return kv.TypeNone, nil
}

// DBSize returns the number of keys.
func (s *MemStore) DBSize() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data), nil
}

// FlushDB swaps in an empty map under the write lock.
func (s *MemStore) FlushDB() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*entry)
	return nil
}

// UsedBytes approximates the payload size of the dataset: key, value and
// field bytes, without map or struct overhead.
func (s *MemStore) UsedBytes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n uint64
	for key, e := range s.data {
		n += uint64(len(key))
		switch e.typ {
		case kv.TypeString:
			n += uint64(len(e.str))
		case kv.TypeHash:
			for f, v := range e.hash.values {
				n += uint64(len(f) + len(v))
			}
		}
	}
	return n
}
