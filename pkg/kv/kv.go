package kv

// Store defines the command set of a typed key-value store.
// Implementations of this interface can be swapped out,
// allowing for different storage backends (e.g., in-memory, Raft-replicated, Redis).
//
// Every method is atomic: it either fully applies or has no visible effect.
// "Not found" results are reported through booleans and Entry.Found, never as errors.
type Store interface {
	// Set stores value under key as a string, subject to mode.
	// Returns true if the value was written, false if the NX/XX condition was not met.
	Set(key, value string, mode SetMode) (bool, error)

	// Get retrieves the string stored at key.
	// Returns ErrWrongType if the key holds a hash.
	Get(key string) (string, bool, error)

	// MSet writes every pair as a plain set in one atomic batch.
	MSet(pairs []Pair) error

	// MGet returns one Entry per key, in the order the keys were given.
	// Missing keys and keys holding a hash come back with Found set to false.
	MGet(keys ...string) ([]Entry, error)

	// HSet sets field in the hash stored at key, creating the hash if needed.
	// Returns 1 if the field is new and 0 if an existing field was updated.
	HSet(key, field, value string) (int, error)

	// HGet retrieves a single hash field.
	HGet(key, field string) (string, bool, error)

	// HGetAll returns every field of the hash in first-insertion order.
	HGetAll(key string) ([]FieldValue, error)

	// HKeys returns the field names of the hash in first-insertion order.
	// An absent key yields an empty slice. The Redis backend keeps this order
	// only while the hash is listpack-encoded (hash-max-listpack-entries, 128
	// by default); past that Redis returns fields in its own order.
	HKeys(key string) ([]string, error)

	// HDel removes fields from the hash and returns how many existed.
	// The key itself is removed once its last field is gone.
	HDel(key string, fields ...string) (int, error)

	// Incr adds one to the integer stored at key.
	Incr(key string) (int64, error)

	// IncrBy adds delta to the integer stored at key, treating an absent key as 0.
	IncrBy(key string, delta int64) (int64, error)

	// Decr subtracts one from the integer stored at key.
	Decr(key string) (int64, error)

	// DecrBy subtracts amount from the integer stored at key.
	DecrBy(key string, amount int64) (int64, error)

	// Exists reports whether key holds a value of any type.
	Exists(key string) (bool, error)

	// Del removes the given keys and returns how many of them existed.
	Del(keys ...string) (int, error)

	// Type reports the type of the value stored at key.
	Type(key string) (ValueType, error)

	// DBSize returns the number of keys.
	DBSize() (int, error)

	// FlushDB removes every key.
	FlushDB() error
}
