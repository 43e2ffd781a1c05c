package cluster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	"github.com/heysubinoy/pyazkv/internal/discovery"
	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInmemRaft(t *testing.T, id string) (*raft.Raft, raft.ServerAddress, *raft.InmemTransport) {
	t.Helper()
	conf := fastConfig()
	conf.LocalID = raft.ServerID(id)
	conf.Logger = hclog.NewNullLogger()

	addr, trans := raft.NewInmemTransport(raft.ServerAddress(id))
	logs := raft.NewInmemStore()
	r, err := raft.NewRaft(conf, store.NewFSM(store.NewMemStore()), logs, logs, raft.NewInmemSnapshotStore(), trans)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown().Error() })
	return r, addr, trans
}

func newRegistryClient(t *testing.T) *discovery.Client {
	t.Helper()
	mux := http.NewServeMux()
	discovery.NewRegistry(zap.NewNop()).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return discovery.NewClient(srv.URL)
}

func TestAnnouncerLeaderAdmitsJoiner(t *testing.T) {
	ctx := context.Background()
	client := newRegistryClient(t)

	r1, addr1, trans1 := newInmemRaft(t, "node1")
	r2, addr2, trans2 := newInmemRaft(t, "node2")
	trans1.Connect(addr2, trans2)
	trans2.Connect(addr1, trans1)

	require.NoError(t, r1.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: "node1", Address: addr1}},
	}).Error())
	waitLeader(t, r1)

	leader := &Announcer{
		Raft:     r1,
		Registry: client,
		Self:     discovery.LeaderInfo{ID: "node1", Addr: string(addr1), GRPCAddr: ":9090"},
		Logger:   zap.NewNop(),
	}
	joiner := &Announcer{
		Raft:     r2,
		Registry: client,
		Self:     discovery.LeaderInfo{ID: "node2", Addr: string(addr2)},
		Logger:   zap.NewNop(),
	}

	joiner.Tick(ctx)
	reqs, err := client.JoinRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "node2", reqs[0].ID)

	leader.Tick(ctx)

	info, err := client.Leader(ctx)
	require.NoError(t, err)
	assert.Equal(t, "node1", info.ID)
	assert.NotZero(t, info.Term)

	reqs, err = client.JoinRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)

	require.Eventually(t, joiner.inConfiguration, 10*time.Second, 10*time.Millisecond)

	// A member no longer asks to join.
	joiner.Tick(ctx)
	reqs, err = client.JoinRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestAnnouncerRunStops(t *testing.T) {
	r, _, _ := newInmemRaft(t, "solo")
	a := &Announcer{
		Raft:     r,
		Registry: newRegistryClient(t),
		Self:     discovery.LeaderInfo{ID: "solo", Addr: "solo"},
		Interval: 5 * time.Millisecond,
		Logger:   zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
