// Package command turns argument vectors such as ["SET", "k", "v", "NX"]
// into kv.Store calls and their replies.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/heysubinoy/pyazkv/pkg/kv"
)

var (
	// ErrUnknownCommand is returned for a command name the dispatcher doesn't know.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrArity is returned when a command gets the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrSyntax is returned for malformed arguments.
	ErrSyntax = errors.New("syntax error")

	// ErrBadReply is returned when a wire reply can't be decoded.
	ErrBadReply = errors.New("malformed reply")
)

type handler func(s kv.Store, args []string) (Reply, error)

// commandDef describes a command. Arity counts the command name itself:
// a positive arity is exact, a negative one is a minimum.
type commandDef struct {
	arity int
	run   handler
}

var commands = map[string]commandDef{
	"PING":    {-1, ping},
	"SET":     {-3, set},
	"GET":     {2, get},
	"MSET":    {-3, mset},
	"MGET":    {-2, mget},
	"HSET":    {-4, hset},
	"HGET":    {3, hget},
	"HGETALL": {2, hgetall},
	"HKEYS":   {2, hkeys},
	"HDEL":    {-3, hdel},
	"INCR":    {2, incr},
	"DECR":    {2, decr},
	"INCRBY":  {3, incrby},
	"DECRBY":  {3, decrby},
	"EXISTS":  {2, exists},
	"DEL":     {-2, del},
	"TYPE":    {2, typ},
	"DBSIZE":  {1, dbsize},
	"FLUSHDB": {1, flushdb},
}

// Dispatcher executes commands against a store.
type Dispatcher struct {
	store kv.Store
}

func NewDispatcher(store kv.Store) *Dispatcher {
	return &Dispatcher{store: store}
}

// Exec runs a single command. args[0] is the case-insensitive command name.
func (d *Dispatcher) Exec(args []string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, fmt.Errorf("%w: empty command", ErrSyntax)
	}
	name := strings.ToUpper(args[0])
	c, ok := commands[name]
	if !ok {
		return Reply{}, fmt.Errorf("%w '%s'", ErrUnknownCommand, args[0])
	}
	if (c.arity > 0 && len(args) != c.arity) || (c.arity < 0 && len(args) < -c.arity) {
		return Reply{}, fmt.Errorf("%w for '%s' command", ErrArity, strings.ToLower(name))
	}
	return c.run(d.store, args[1:])
}

// Names lists the supported commands.
func Names() []string {
	out := make([]string, 0, len(commands))
	for name := range commands {
		out = append(out, name)
	}
	return out
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, kv.ErrNotInteger
	}
	return n, nil
}

func ping(_ kv.Store, args []string) (Reply, error) {
	switch len(args) {
	case 0:
		return Status("PONG"), nil
	case 1:
		return String(args[0]), nil
	}
	return Reply{}, fmt.Errorf("%w for 'ping' command", ErrArity)
}

func set(s kv.Store, args []string) (Reply, error) {
	mode := kv.SetModeNone
	for _, opt := range args[2:] {
		m, err := kv.ParseSetMode(opt)
		if err != nil || m == kv.SetModeNone {
			return Reply{}, fmt.Errorf("%w: unsupported option %q", ErrSyntax, opt)
		}
		if mode != kv.SetModeNone && mode != m {
			return Reply{}, fmt.Errorf("%w: NX and XX are mutually exclusive", ErrSyntax)
		}
		mode = m
	}
	written, err := s.Set(args[0], args[1], mode)
	if err != nil {
		return Reply{}, err
	}
	if !written {
		return Nil, nil
	}
	return OK, nil
}

func get(s kv.Store, args []string) (Reply, error) {
	v, found, err := s.Get(args[0])
	if err != nil || !found {
		return Nil, err
	}
	return String(v), nil
}

func mset(s kv.Store, args []string) (Reply, error) {
	if len(args)%2 != 0 {
		return Reply{}, fmt.Errorf("%w for 'mset' command", ErrArity)
	}
	pairs := make([]kv.Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, kv.Pair{Key: args[i], Value: args[i+1]})
	}
	if err := s.MSet(pairs); err != nil {
		return Reply{}, err
	}
	return OK, nil
}

func mget(s kv.Store, args []string) (Reply, error) {
	entries, err := s.MGet(args...)
	if err != nil {
		return Reply{}, err
	}
	return Array(entries), nil
}

// hset accepts one or more field/value pairs; each pair is one HSet call
// and the reply counts the fields that were new.
func hset(s kv.Store, args []string) (Reply, error) {
	if len(args)%2 != 1 {
		return Reply{}, fmt.Errorf("%w for 'hset' command", ErrArity)
	}
	added := 0
	for i := 1; i < len(args); i += 2 {
		n, err := s.HSet(args[0], args[i], args[i+1])
		if err != nil {
			return Reply{}, err
		}
		added += n
	}
	return Integer(int64(added)), nil
}

func hget(s kv.Store, args []string) (Reply, error) {
	v, found, err := s.HGet(args[0], args[1])
	if err != nil || !found {
		return Nil, err
	}
	return String(v), nil
}

// hgetall replies with a flat field, value, field, value... array.
func hgetall(s kv.Store, args []string) (Reply, error) {
	fields, err := s.HGetAll(args[0])
	if err != nil {
		return Reply{}, err
	}
	flat := make([]string, 0, 2*len(fields))
	for _, fv := range fields {
		flat = append(flat, fv.Field, fv.Value)
	}
	return Strings(flat), nil
}

func hkeys(s kv.Store, args []string) (Reply, error) {
	fields, err := s.HKeys(args[0])
	if err != nil {
		return Reply{}, err
	}
	return Strings(fields), nil
}

func hdel(s kv.Store, args []string) (Reply, error) {
	n, err := s.HDel(args[0], args[1:]...)
	if err != nil {
		return Reply{}, err
	}
	return Integer(int64(n)), nil
}

func incr(s kv.Store, args []string) (Reply, error) {
	n, err := s.Incr(args[0])
	if err != nil {
		return Reply{}, err
	}
	return Integer(n), nil
}

func decr(s kv.Store, args []string) (Reply, error) {
	n, err := s.Decr(args[0])
	if err != nil {
		return Reply{}, err
	}
	return Integer(n), nil
}

func incrby(s kv.Store, args []string) (Reply, error) {
	delta, err := parseInt(args[1])
	if err != nil {
		return Reply{}, err
	}
	n, err := s.IncrBy(args[0], delta)
	if err != nil {
		return Reply{}, err
	}
	return Integer(n), nil
}

func decrby(s kv.Store, args []string) (Reply, error) {
	amount, err := parseInt(args[1])
	if err != nil {
		return Reply{}, err
	}
	n, err := s.DecrBy(args[0], amount)
	if err != nil {
		return Reply{}, err
	}
	return Integer(n), nil
}

func exists(s kv.Store, args []string) (Reply, error) {
	ok, err := s.Exists(args[0])
	if err != nil {
		return Reply{}, err
	}
	if ok {
		return Integer(1), nil
	}
	return Integer(0), nil
}

func del(s kv.Store, args []string) (Reply, error) {
	n, err := s.Del(args...)
	if err != nil {
		return Reply{}, err
	}
	return Integer(int64(n)), nil
}

func typ(s kv.Store, args []string) (Reply, error) {
	t, err := s.Type(args[0])
	if err != nil {
		return Reply{}, err
	}
	return Status(t.String()), nil
}

func dbsize(s kv.Store, _ []string) (Reply, error) {
	n, err := s.DBSize()
	if err != nil {
		return Reply{}, err
	}
	return Integer(int64(n)), nil
}

func flushdb(s kv.Store, _ []string) (Reply, error) {
	if err := s.FlushDB(); err != nil {
		return Reply{}, err
	}
	return OK, nil
}
