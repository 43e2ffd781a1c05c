package kv

import (
	"fmt"
	"strings"
)

// SetMode selects the write condition of Set.
type SetMode uint8

const (
	// SetModeNone writes unconditionally.
	SetModeNone SetMode = iota
	// SetModeNX writes only if the key does not exist.
	SetModeNX
	// SetModeXX writes only if the key already exists.
	SetModeXX
)

func (m SetMode) String() string {
	switch m {
	case SetModeNX:
		return "NX"
	case SetModeXX:
		return "XX"
	default:
		return ""
	}
}

// ParseSetMode parses the NX / XX modifiers. The empty string is SetModeNone.
func ParseSetMode(s string) (SetMode, error) {
	switch strings.ToUpper(s) {
	case "":
		return SetModeNone, nil
	case "NX":
		return SetModeNX, nil
	case "XX":
		return SetModeXX, nil
	}
	return SetModeNone, fmt.Errorf("%w: unknown set mode %q", ErrInvalidArgument, s)
}

// ValueType identifies what a key currently holds.
type ValueType uint8

const (
	TypeNone ValueType = iota
	TypeString
	TypeHash
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	default:
		return "none"
	}
}

// Pair is a single key/value assignment of an MSet batch.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entry is one slot of an MGet result.
type Entry struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// FieldValue is one field of a hash.
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}
