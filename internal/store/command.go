package store

import (
	"fmt"

	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// Op names a write command carried through the replicated log.
type Op string

const (
	OpSet    Op = "set"
	OpMSet   Op = "mset"
	OpHSet   Op = "hset"
	OpHDel   Op = "hdel"
	OpIncrBy Op = "incrby"
	OpDel    Op = "del"
	OpFlush  Op = "flushdb"
)

// Command is a write applied to a MemStore. Reads never go through a Command.
type Command struct {
	Op     Op         `json:"op"`
	Key    string     `json:"key,omitempty"`
	Keys   []string   `json:"keys,omitempty"`
	Field  string     `json:"field,omitempty"`
	Fields []string   `json:"fields,omitempty"`
	Value  string     `json:"value,omitempty"`
	Mode   kv.SetMode `json:"mode,omitempty"`
	Delta  int64      `json:"delta,omitempty"`
	Pairs  []kv.Pair  `json:"pairs,omitempty"`
}

// Result is what applying a Command produced.
// Written reports Set's outcome, Int carries counts and counter values.
type Result struct {
	Written bool
	Int     int64
	Err     error
}

// Apply executes cmd against the store. The outcome depends only on the
// store contents and cmd, so every replica applying the same log converges.
func (s *MemStore) Apply(cmd Command) Result {
	switch cmd.Op {
	case OpSet:
		ok, err := s.Set(cmd.Key, cmd.Value, cmd.Mode)
		return Result{Written: ok, Err: err}
	case OpMSet:
		return Result{Written: true, Err: s.MSet(cmd.Pairs)}
	case OpHSet:
		n, err := s.HSet(cmd.Key, cmd.Field, cmd.Value)
		return Result{Int: int64(n), Err: err}
	case OpHDel:
		n, err := s.HDel(cmd.Key, cmd.Fields...)
		return Result{Int: int64(n), Err: err}
	case OpIncrBy:
		n, err := s.IncrBy(cmd.Key, cmd.Delta)
		return Result{Int: n, Err: err}
	case OpDel:
		n, err := s.Del(cmd.Keys...)
		return Result{Int: int64(n), Err: err}
	case OpFlush:
		return Result{Written: true, Err: s.FlushDB()}
	}
	return Result{Err: fmt.Errorf("%w: unknown op %q", kv.ErrInvalidArgument, cmd.Op)}
}
