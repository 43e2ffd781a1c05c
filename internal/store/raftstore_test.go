package store

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRaftStore bootstraps a single-voter raft group on in-memory
// transport and storage and waits for it to become leader.
func newTestRaftStore(t *testing.T) *RaftStore {
	t.Helper()

	mem := NewMemStore()
	conf := raft.DefaultConfig()
	conf.LocalID = raft.ServerID("node1")
	conf.HeartbeatTimeout = 50 * time.Millisecond
	conf.ElectionTimeout = 50 * time.Millisecond
	conf.LeaderLeaseTimeout = 50 * time.Millisecond
	conf.CommitTimeout = 5 * time.Millisecond
	conf.Logger = hclog.NewNullLogger()

	addr, trans := raft.NewInmemTransport("")
	logs := raft.NewInmemStore()
	r, err := raft.NewRaft(conf, NewFSM(mem), logs, logs, raft.NewInmemSnapshotStore(), trans)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown().Error() })

	err = r.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: conf.LocalID, Address: addr}},
	}).Error()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.State() == raft.Leader }, 5*time.Second, 10*time.Millisecond)

	return NewRaftStore(mem, r)
}

type bufferSink struct {
	bytes.Buffer
	cancelled bool
	closed    bool
}

func (s *bufferSink) ID() string    { return "test" }
func (s *bufferSink) Cancel() error { s.cancelled = true; return nil }
func (s *bufferSink) Close() error  { s.closed = true; return nil }

func TestFSMSnapshotRestore(t *testing.T) {
	mem := NewMemStore()
	fsm := NewFSM(mem)
	require.NoError(t, mem.MSet([]kv.Pair{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}))
	_, err := mem.HSet("h", "second", "2")
	require.NoError(t, err)
	_, err = mem.HSet("h", "first", "1")
	require.NoError(t, err)

	snap, err := fsm.Snapshot()
	require.NoError(t, err)
	defer snap.Release()

	// Writes after Snapshot must not leak into the persisted image.
	_, err = mem.Set("late", "x", kv.SetModeNone)
	require.NoError(t, err)

	sink := &bufferSink{}
	require.NoError(t, snap.Persist(sink))
	assert.True(t, sink.closed)
	assert.False(t, sink.cancelled)

	restored := NewMemStore()
	require.NoError(t, NewFSM(restored).Restore(io.NopCloser(&sink.Buffer)))

	fields, err := restored.HKeys("h")
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, fields)
	exists, err := restored.Exists("late")
	require.NoError(t, err)
	assert.False(t, exists)
	n, err := restored.DBSize()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFSMApplyBadPayload(t *testing.T) {
	fsm := NewFSM(NewMemStore())
	res, ok := fsm.Apply(&raft.Log{Index: 7, Data: []byte("not json")}).(Result)
	require.True(t, ok)
	assert.Error(t, res.Err)
}

func TestRaftStoreReplicatesToLocal(t *testing.T) {
	rs := newTestRaftStore(t)

	n, err := rs.IncrBy("counter", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	v, found, err := rs.Local().Get("counter")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "10", v)
	assert.Equal(t, raft.Leader, rs.GetRaft().State())
}

func TestRaftStoreSnapshotThenWrite(t *testing.T) {
	rs := newTestRaftStore(t)
	_, err := rs.Set("before", "1", kv.SetModeNone)
	require.NoError(t, err)

	require.NoError(t, rs.GetRaft().Snapshot().Error())

	_, err = rs.Set("after", "2", kv.SetModeNone)
	require.NoError(t, err)
	entries, err := rs.MGet("before", "after")
	require.NoError(t, err)
	assert.Equal(t, []kv.Entry{{Value: "1", Found: true}, {Value: "2", Found: true}}, entries)
}

func TestRaftStoreRejectsEmptyKeysBeforeApply(t *testing.T) {
	rs := newTestRaftStore(t)
	_, err := rs.Set("k", "v", kv.SetModeNone)
	require.NoError(t, err)
	last := rs.GetRaft().LastIndex()

	_, err = rs.Del("k", "")
	assert.ErrorIs(t, err, kv.ErrInvalidArgument)
	_, err = rs.Del()
	assert.ErrorIs(t, err, kv.ErrInvalidArgument)
	err = rs.MSet([]kv.Pair{{Key: "", Value: "v"}})
	assert.ErrorIs(t, err, kv.ErrInvalidArgument)

	assert.Equal(t, last, rs.GetRaft().LastIndex())
	v, found, err := rs.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
}
