package store

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// snapshotRecord is the serialized form of one key.
type snapshotRecord struct {
	Key    string          `json:"key"`
	Type   string          `json:"type"`
	Value  string          `json:"value,omitempty"`
	Fields []kv.FieldValue `json:"fields,omitempty"`
}

// dump copies the dataset into records sorted by key.
func (s *MemStore) dump() []snapshotRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]snapshotRecord, 0, len(s.data))
	for key, e := range s.data {
		rec := snapshotRecord{Key: key, Type: e.typ.String()}
		if e.typ == kv.TypeHash {
			rec.Fields = e.hash.pairs()
		} else {
			rec.Value = e.str
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records
}

// writeSnapshot encodes records as a JSON stream, one record per line.
func writeSnapshot(w io.Writer, records []snapshotRecord) error {
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("encode snapshot record %q: %w", records[i].Key, err)
		}
	}
	return nil
}

// Restore replaces the whole dataset with the records read from r.
// On a decode error the store keeps its previous contents.
func (s *MemStore) Restore(r io.Reader) error {
	data := make(map[string]*entry)
	dec := json.NewDecoder(r)
	for {
		var rec snapshotRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		switch rec.Type {
		case kv.TypeString.String():
			data[rec.Key] = &entry{typ: kv.TypeString, str: rec.Value}
		case kv.TypeHash.String():
			h := newOrderedHash()
			for _, fv := range rec.Fields {
				h.set(fv.Field, fv.Value)
			}
			data[rec.Key] = &entry{typ: kv.TypeHash, hash: h}
		default:
			return fmt.Errorf("decode snapshot: key %q has unknown type %q", rec.Key, rec.Type)
		}
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}
