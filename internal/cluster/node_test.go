package cluster

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *raft.Config {
	conf := raft.DefaultConfig()
	conf.HeartbeatTimeout = 50 * time.Millisecond
	conf.ElectionTimeout = 50 * time.Millisecond
	conf.LeaderLeaseTimeout = 50 * time.Millisecond
	conf.CommitTimeout = 5 * time.Millisecond
	return conf
}

func waitLeader(t *testing.T, r *raft.Raft) {
	t.Helper()
	require.Eventually(t, func() bool { return r.State() == raft.Leader }, 10*time.Second, 10*time.Millisecond)
}

func TestNewNodeRequiresFields(t *testing.T) {
	_, err := NewNode(NodeConfig{ID: "n1"}, store.NewFSM(store.NewMemStore()), hclog.NewNullLogger())
	assert.Error(t, err)
}

func TestNodeSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := NodeConfig{ID: "node1", RaftAddr: "127.0.0.1:0", DataDir: dir, Bootstrap: true, Raft: fastConfig()}

	mem := store.NewMemStore()
	node, err := NewNode(cfg, store.NewFSM(mem), hclog.NewNullLogger())
	require.NoError(t, err)
	waitLeader(t, node.Raft)

	rs := store.NewRaftStore(mem, node.Raft)
	_, err = rs.Set("greeting", "hello", kv.SetModeNone)
	require.NoError(t, err)
	_, err = rs.HSet("user:1", "name", "ada")
	require.NoError(t, err)
	_, err = rs.IncrBy("visits", 41)
	require.NoError(t, err)
	require.NoError(t, node.Close())

	// The second start finds existing state and must not bootstrap again;
	// the committed log is replayed into a fresh store.
	mem = store.NewMemStore()
	node, err = NewNode(cfg, store.NewFSM(mem), hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })
	waitLeader(t, node.Raft)

	require.Eventually(t, func() bool {
		n, _, _ := mem.Get("visits")
		return n == "41"
	}, 10*time.Second, 10*time.Millisecond)

	v, ok, err := mem.Get("greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	name, ok, err := mem.HGet("user:1", "name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada", name)
}
