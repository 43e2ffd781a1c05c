package store

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite checks the kv.Store contract. newStore must return an
// empty store that is not shared with any other subtest.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) kv.Store) {
	t.Run("SetGet", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.Set("string key", "string val", kv.SetModeNone)
		require.NoError(t, err)
		assert.True(t, ok)

		v, found, err := s.Get("string key")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "string val", v)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		v, found, err := s.Get("missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, v)
	})

	t.Run("SetNX", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.Set("nx", "first", kv.SetModeNX)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Set("nx", "second", kv.SetModeNX)
		require.NoError(t, err)
		assert.False(t, ok)

		v, _, err := s.Get("nx")
		require.NoError(t, err)
		assert.Equal(t, "first", v)
	})

	t.Run("SetXX", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.Set("xx", "value", kv.SetModeXX)
		require.NoError(t, err)
		assert.False(t, ok)

		exists, err := s.Exists("xx")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = s.Set("xx", "value", kv.SetModeNone)
		require.NoError(t, err)
		ok, err = s.Set("xx", "updated", kv.SetModeXX)
		require.NoError(t, err)
		assert.True(t, ok)

		v, _, err := s.Get("xx")
		require.NoError(t, err)
		assert.Equal(t, "updated", v)
	})

	t.Run("SetOverwritesHash", func(t *testing.T) {
		s := newStore(t)
		_, err := s.HSet("k", "f", "v")
		require.NoError(t, err)
		ok, err := s.Set("k", "plain", kv.SetModeNone)
		require.NoError(t, err)
		assert.True(t, ok)

		typ, err := s.Type("k")
		require.NoError(t, err)
		assert.Equal(t, kv.TypeString, typ)
	})

	t.Run("HSetHKeysOrder", func(t *testing.T) {
		s := newStore(t)
		n, err := s.HSet("hash key", "hashtest 1", "some value")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = s.HSet("hash key", "hashtest 2", "some other value")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = s.HSet("hash key", "hashtest 1", "changed")
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		fields, err := s.HKeys("hash key")
		require.NoError(t, err)
		assert.Equal(t, []string{"hashtest 1", "hashtest 2"}, fields)

		all, err := s.HGetAll("hash key")
		require.NoError(t, err)
		assert.Equal(t, []kv.FieldValue{
			{Field: "hashtest 1", Value: "changed"},
			{Field: "hashtest 2", Value: "some other value"},
		}, all)
	})

	t.Run("HKeysMissing", func(t *testing.T) {
		s := newStore(t)
		fields, err := s.HKeys("nothing")
		require.NoError(t, err)
		assert.Empty(t, fields)
	})

	t.Run("HGetHDel", func(t *testing.T) {
		s := newStore(t)
		_, err := s.HSet("h", "a", "1")
		require.NoError(t, err)
		_, err = s.HSet("h", "b", "2")
		require.NoError(t, err)

		v, found, err := s.HGet("h", "b")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "2", v)

		_, found, err = s.HGet("h", "zz")
		require.NoError(t, err)
		assert.False(t, found)

		n, err := s.HDel("h", "a", "zz")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = s.HDel("h", "b")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		exists, err := s.Exists("h")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("WrongType", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set("str", "v", kv.SetModeNone)
		require.NoError(t, err)
		_, err = s.HSet("hash", "f", "v")
		require.NoError(t, err)

		_, err = s.HSet("str", "f", "v")
		assert.ErrorIs(t, err, kv.ErrWrongType)
		_, err = s.HKeys("str")
		assert.ErrorIs(t, err, kv.ErrWrongType)
		_, _, err = s.Get("hash")
		assert.ErrorIs(t, err, kv.ErrWrongType)
		_, err = s.Incr("hash")
		assert.ErrorIs(t, err, kv.ErrWrongType)

		v, _, err := s.Get("str")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("MSetMGet", func(t *testing.T) {
		s := newStore(t)
		err := s.MSet([]kv.Pair{
			{Key: "multiset key 1", Value: "multiset value 1"},
			{Key: "multiset key 2", Value: "multiset value 2"},
		})
		require.NoError(t, err)
		_, err = s.HSet("hash", "f", "v")
		require.NoError(t, err)

		entries, err := s.MGet("multiset key 1", "multiset key 2", "multiset key 3", "hash", "multiset key 1")
		require.NoError(t, err)
		assert.Equal(t, []kv.Entry{
			{Value: "multiset value 1", Found: true},
			{Value: "multiset value 2", Found: true},
			{},
			{},
			{Value: "multiset value 1", Found: true},
		}, entries)
	})

	t.Run("IncrementSequence", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set("number key", "6", kv.SetModeNone)
		require.NoError(t, err)

		n, err := s.Incr("number key")
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
		n, err = s.IncrBy("number key", 56)
		require.NoError(t, err)
		assert.Equal(t, int64(63), n)
		n, err = s.DecrBy("number key", 2)
		require.NoError(t, err)
		assert.Equal(t, int64(61), n)
		n, err = s.Decr("number key")
		require.NoError(t, err)
		assert.Equal(t, int64(60), n)

		v, _, err := s.Get("number key")
		require.NoError(t, err)
		assert.Equal(t, "60", v)
	})

	t.Run("IncrAbsentStartsAtZero", func(t *testing.T) {
		s := newStore(t)
		n, err := s.IncrBy("counter", 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})

	t.Run("IncrNotInteger", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set("word", "abc", kv.SetModeNone)
		require.NoError(t, err)
		_, err = s.Incr("word")
		assert.ErrorIs(t, err, kv.ErrNotInteger)

		v, _, err := s.Get("word")
		require.NoError(t, err)
		assert.Equal(t, "abc", v)
	})

	t.Run("ExistsDel", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set("some key", "some val", kv.SetModeNone)
		require.NoError(t, err)

		exists, err := s.Exists("some key")
		require.NoError(t, err)
		assert.True(t, exists)

		n, err := s.Del("some key")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		exists, err = s.Exists("some key")
		require.NoError(t, err)
		assert.False(t, exists)

		n, err = s.Del("some key")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		s := newStore(t)
		obj := map[string]interface{}{
			"name":   "json test",
			"nested": map[string]interface{}{"list": []int{1, 2, 3}, "ok": true},
			"quote":  "he said \"hi\" é",
		}
		payload, err := json.Marshal(obj)
		require.NoError(t, err)

		_, err = s.Set("json key", string(payload), kv.SetModeNone)
		require.NoError(t, err)
		v, found, err := s.Get("json key")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, string(payload), v)

		var back map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(v), &back))
		assert.Equal(t, "json test", back["name"])
	})

	t.Run("ConcurrentIncr", func(t *testing.T) {
		s := newStore(t)
		const workers = 50
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := s.Incr("shared")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		v, _, err := s.Get("shared")
		require.NoError(t, err)
		assert.Equal(t, "50", v)
	})

	t.Run("FlushDB", func(t *testing.T) {
		s := newStore(t)
		keys := []string{"a", "b", "c"}
		for _, k := range keys {
			_, err := s.Set(k, "v", kv.SetModeNone)
			require.NoError(t, err)
		}
		_, err := s.HSet("h", "f", "v")
		require.NoError(t, err)

		require.NoError(t, s.FlushDB())
		for _, k := range append(keys, "h") {
			exists, err := s.Exists(k)
			require.NoError(t, err)
			assert.False(t, exists, k)
		}
		n, err := s.DBSize()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Set("", "v", kv.SetModeNone)
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		_, err = s.HSet("", "f", "v")
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		err = s.MSet([]kv.Pair{{Key: "ok", Value: "v"}, {Key: "", Value: "v"}})
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		_, _, err = s.Get("")
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		_, err = s.MGet("ok", "")
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		_, err = s.Exists("")
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		_, err = s.IncrBy("", 1)
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		_, err = s.HKeys("")
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)

		_, err = s.Set("kept", "v", kv.SetModeNone)
		require.NoError(t, err)
		n, err := s.Del("kept", "")
		assert.ErrorIs(t, err, kv.ErrInvalidArgument)
		assert.Zero(t, n)
		exists, err := s.Exists("kept")
		require.NoError(t, err)
		assert.True(t, exists, "a rejected DEL must not remove the valid keys")

		exists, err = s.Exists("ok")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestMemStoreSuite(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) kv.Store {
		return NewMemStore()
	})
}

func TestInstrumentedStoreSuite(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) kv.Store {
		return NewInstrumentedStore(NewMemStore())
	})
}

func TestRaftStoreSuite(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) kv.Store {
		return newTestRaftStore(t)
	})
}
