package cluster

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/hashicorp/raft"
	"github.com/heysubinoy/pyazkv/internal/discovery"
	"go.uber.org/zap"
)

const addVoterTimeout = 10 * time.Second

// Announcer keeps the discovery registry in sync with raft state. While this
// node leads, it refreshes the leader entry and admits pending join requests
// as voters. While it is outside the configuration, it asks to join.
type Announcer struct {
	Raft     *raft.Raft
	Registry *discovery.Client
	Self     discovery.LeaderInfo
	Interval time.Duration
	Logger   *zap.Logger
}

func (a *Announcer) Run(ctx context.Context) {
	interval := a.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.Tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick performs a single announce/join round.
func (a *Announcer) Tick(ctx context.Context) {
	if a.Raft.State() == raft.Leader {
		info := a.Self
		info.Term = a.term()
		if err := a.Registry.AnnounceLeader(ctx, info); err != nil {
			a.Logger.Warn("announce leader failed", zap.Error(err))
			return
		}
		a.admitJoins(ctx)
		return
	}

	if a.inConfiguration() {
		return
	}
	err := a.Registry.RequestJoin(ctx, discovery.JoinRequest{ID: a.Self.ID, Addr: a.Self.Addr})
	if err != nil {
		a.Logger.Warn("join request failed", zap.Error(err))
	}
}

func (a *Announcer) term() uint64 {
	term, _ := strconv.ParseUint(a.Raft.Stats()["term"], 10, 64)
	return term
}

func (a *Announcer) inConfiguration() bool {
	f := a.Raft.GetConfiguration()
	if err := f.Error(); err != nil {
		return false
	}
	for _, srv := range f.Configuration().Servers {
		if srv.ID == raft.ServerID(a.Self.ID) {
			return true
		}
	}
	return false
}

func (a *Announcer) admitJoins(ctx context.Context) {
	reqs, err := a.Registry.JoinRequests(ctx)
	if err != nil {
		a.Logger.Warn("list join requests failed", zap.Error(err))
		return
	}

	for _, jr := range reqs {
		if jr.ID != a.Self.ID {
			f := a.Raft.AddVoter(raft.ServerID(jr.ID), raft.ServerAddress(jr.Addr), 0, addVoterTimeout)
			if err := f.Error(); err != nil {
				if errors.Is(err, raft.ErrNotLeader) {
					return
				}
				a.Logger.Warn("add voter failed", zap.String("id", jr.ID), zap.Error(err))
				continue
			}
			a.Logger.Info("added voter", zap.String("id", jr.ID), zap.String("addr", jr.Addr))
		}
		if err := a.Registry.DeleteJoinRequest(ctx, jr.ID); err != nil {
			a.Logger.Warn("delete join request failed", zap.String("id", jr.ID), zap.Error(err))
		}
	}
}
