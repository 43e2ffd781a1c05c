package kv

import "errors"

var (
	// ErrWrongType is returned when a command is applied to a key holding the other value type.
	ErrWrongType = errors.New("WRONGTYPE operation against a key holding the wrong kind of value")

	// ErrNotInteger is returned when an increment targets a value that is not a base-10 int64.
	ErrNotInteger = errors.New("value is not an integer or out of range")

	// ErrOverflow is returned when an increment or decrement would overflow int64.
	ErrOverflow = errors.New("increment or decrement would overflow")

	// ErrInvalidArgument is returned for malformed input such as an empty key.
	ErrInvalidArgument = errors.New("invalid argument")
)
