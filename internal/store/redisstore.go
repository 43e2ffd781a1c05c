package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements kv.Store against an external Redis server.
// FlushDB clears the whole selected database, so give it a dedicated DB.
//
// Hash field order is Redis' own: insertion order while the hash is small
// enough to stay listpack-encoded.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

// Ensure RedisStore implements kv.Store
var _ kv.Store = (*RedisStore)(nil)

// RedisConfig for creating a Redis store
type RedisConfig struct {
	Addr     string // Redis address (e.g., "localhost:6379")
	Password string // Redis password (empty for no auth)
	DB       int    // Redis database number
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(config RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		ctx:    context.Background(),
	}
}

// redisError maps server replies onto the kv error taxonomy.
func redisError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "WRONGTYPE"):
		return kv.ErrWrongType
	case strings.Contains(msg, "not an integer"):
		return kv.ErrNotInteger
	case strings.Contains(msg, "would overflow"):
		return kv.ErrOverflow
	}
	return fmt.Errorf("redis: %w", err)
}

func (s *RedisStore) Set(key, value string, mode kv.SetMode) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	switch mode {
	case kv.SetModeNX:
		ok, err := s.client.SetNX(s.ctx, key, value, 0).Result()
		return ok, redisError(err)
	case kv.SetModeXX:
		ok, err := s.client.SetXX(s.ctx, key, value, 0).Result()
		return ok, redisError(err)
	}
	if err := s.client.Set(s.ctx, key, value, 0).Err(); err != nil {
		return false, redisError(err)
	}
	return true, nil
}

func (s *RedisStore) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	val, err := s.client.Get(s.ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, redisError(err)
	}
	return val, true, nil
}

func (s *RedisStore) MSet(pairs []kv.Pair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: mset needs at least one pair", kv.ErrInvalidArgument)
	}
	args := make([]interface{}, 0, 2*len(pairs))
	for _, p := range pairs {
		if err := validateKey(p.Key); err != nil {
			return err
		}
		args = append(args, p.Key, p.Value)
	}
	return redisError(s.client.MSet(s.ctx, args...).Err())
}

func (s *RedisStore) MGet(keys ...string) ([]kv.Entry, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: mget needs at least one key", kv.ErrInvalidArgument)
	}
	if err := validateKeys(keys); err != nil {
		return nil, err
	}
	vals, err := s.client.MGet(s.ctx, keys...).Result()
	if err != nil {
		return nil, redisError(err)
	}
	out := make([]kv.Entry, len(vals))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[i] = kv.Entry{Value: str, Found: true}
		}
	}
	return out, nil
}

func (s *RedisStore) HSet(key, field, value string) (int, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	n, err := s.client.HSet(s.ctx, key, field, value).Result()
	return int(n), redisError(err)
}

func (s *RedisStore) HGet(key, field string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	val, err := s.client.HGet(s.ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, redisError(err)
	}
	return val, true, nil
}

// HGetAll reads HKEYS and HVALS inside one MULTI/EXEC so both walk the
// same hash in the same order.
func (s *RedisStore) HGetAll(key string) ([]kv.FieldValue, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var keysCmd, valsCmd *redis.StringSliceCmd
	_, err := s.client.TxPipelined(s.ctx, func(pipe redis.Pipeliner) error {
		keysCmd = pipe.HKeys(s.ctx, key)
		valsCmd = pipe.HVals(s.ctx, key)
		return nil
	})
	if err != nil {
		return nil, redisError(err)
	}
	fields, vals := keysCmd.Val(), valsCmd.Val()
	if len(fields) != len(vals) {
		return nil, fmt.Errorf("redis: hgetall %q: %d fields but %d values", key, len(fields), len(vals))
	}
	out := make([]kv.FieldValue, len(fields))
	for i := range fields {
		out[i] = kv.FieldValue{Field: fields[i], Value: vals[i]}
	}
	return out, nil
}

func (s *RedisStore) HKeys(key string) ([]string, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	fields, err := s.client.HKeys(s.ctx, key).Result()
	if err != nil {
		return nil, redisError(err)
	}
	return fields, nil
}

func (s *RedisStore) HDel(key string, fields ...string) (int, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	n, err := s.client.HDel(s.ctx, key, fields...).Result()
	return int(n), redisError(err)
}

func (s *RedisStore) Incr(key string) (int64, error) {
	return s.IncrBy(key, 1)
}

func (s *RedisStore) IncrBy(key string, delta int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	n, err := s.client.IncrBy(s.ctx, key, delta).Result()
	return n, redisError(err)
}

func (s *RedisStore) Decr(key string) (int64, error) {
	return s.DecrBy(key, 1)
}

func (s *RedisStore) DecrBy(key string, amount int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	n, err := s.client.DecrBy(s.ctx, key, amount).Result()
	return n, redisError(err)
}

func (s *RedisStore) Exists(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	n, err := s.client.Exists(s.ctx, key).Result()
	return n == 1, redisError(err)
}

func (s *RedisStore) Del(keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, fmt.Errorf("%w: del needs at least one key", kv.ErrInvalidArgument)
	}
	if err := validateKeys(keys); err != nil {
		return 0, err
	}
	n, err := s.client.Del(s.ctx, keys...).Result()
	return int(n), redisError(err)
}

func (s *RedisStore) Type(key string) (kv.ValueType, error) {
	if err := validateKey(key); err != nil {
		return kv.TypeNone, err
	}
	t, err := s.client.Type(s.ctx, key).Result()
	if err != nil {
		return kv.TypeNone, redisError(err)
	}
	switch t {
	case "none":
		return kv.TypeNone, nil
	case "string":
		return kv.TypeString, nil
	case "hash":
		return kv.TypeHash, nil
	}
	return kv.TypeNone, fmt.Errorf("%w: redis type %q", kv.ErrWrongType, t)
}

func (s *RedisStore) DBSize() (int, error) {
	n, err := s.client.DBSize(s.ctx).Result()
	return int(n), redisError(err)
}

func (s *RedisStore) FlushDB() error {
	return redisError(s.client.FlushDB(s.ctx).Err())
}

// Ping checks if Redis connection is alive
func (s *RedisStore) Ping() error {
	return s.client.Ping(s.ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
