package store

import "github.com/heysubinoy/pyazkv/pkg/kv"

// orderedHash is a field map that remembers first-insertion order.
// Updating an existing field keeps its position.
type orderedHash struct {
	fields []string
	values map[string]string
}

func newOrderedHash() *orderedHash {
	return &orderedHash{values: make(map[string]string)}
}

// set returns true if field was not present before.
func (h *orderedHash) set(field, value string) bool {
	_, exists := h.values[field]
	if !exists {
		h.fields = append(h.fields, field)
	}
	h.values[field] = value
	return !exists
}

func (h *orderedHash) get(field string) (string, bool) {
	v, ok := h.values[field]
	return v, ok
}

func (h *orderedHash) del(field string) bool {
	if _, ok := h.values[field]; !ok {
		return false
	}
	delete(h.values, field)
	for i, f := range h.fields {
		if f == field {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			break
		}
	}
	return true
}

func (h *orderedHash) len() int {
	return len(h.fields)
}

func (h *orderedHash) keys() []string {
	out := make([]string, len(h.fields))
	copy(out, h.fields)
	return out
}

func (h *orderedHash) pairs() []kv.FieldValue {
	out := make([]kv.FieldValue, 0, len(h.fields))
	for _, f := range h.fields {
		out = append(out, kv.FieldValue{Field: f, Value: h.values[f]})
	}
	return out
}
