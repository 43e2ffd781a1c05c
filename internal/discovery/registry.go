// Package discovery is a soft-state registry that lets raft nodes find the
// current leader and ask to join. It is NOT authoritative and NOT part of
// raft correctness: entries expire unless refreshed.
package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultLeaderTTL      = 10 * time.Second
	DefaultJoinRequestTTL = 30 * time.Second
	DefaultCleanupEvery   = 5 * time.Second
)

type LeaderInfo struct {
	ID        string    `json:"id"`
	Addr      string    `json:"addr"`
	HTTPAddr  string    `json:"http_addr"`
	GRPCAddr  string    `json:"grpc_addr"`
	Term      uint64    `json:"term"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GRPCTarget returns the leader's gRPC address, filling in localhost when
// the advertised address has no host part (":9090").
func (l LeaderInfo) GRPCTarget() string {
	if len(l.GRPCAddr) > 0 && l.GRPCAddr[0] == ':' {
		return "localhost" + l.GRPCAddr
	}
	return l.GRPCAddr
}

type JoinRequest struct {
	ID        string    `json:"id"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
}

// Registry holds the announced leader and pending join requests.
type Registry struct {
	mu           sync.Mutex
	leader       *LeaderInfo
	joinRequests map[string]JoinRequest

	leaderTTL      time.Duration
	joinRequestTTL time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for TTL bookkeeping (useful in tests).
func WithClock(fn func() time.Time) Option {
	return func(r *Registry) {
		if fn != nil {
			r.now = fn
		}
	}
}

// WithTTLs overrides how long leader and join-request entries live.
func WithTTLs(leader, joinRequest time.Duration) Option {
	return func(r *Registry) {
		r.leaderTTL = leader
		r.joinRequestTTL = joinRequest
	}
}

func NewRegistry(logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		joinRequests:   make(map[string]JoinRequest),
		leaderTTL:      DefaultLeaderTTL,
		joinRequestTTL: DefaultJoinRequestTTL,
		now:            time.Now,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterRoutes registers the registry endpoints on mux.
func (s *Registry) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/leader", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.getLeader(w, r)
		case http.MethodPut:
			s.putLeader(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/join-requests", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.postJoinRequest(w, r)
		case http.MethodGet:
			s.listJoinRequests(w, r)
		case http.MethodDelete:
			s.deleteJoinRequest(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Registry) getLeader(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.leader == nil || s.now().Sub(s.leader.UpdatedAt) > s.leaderTTL {
		http.Error(w, "leader not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.leader)
}

func (s *Registry) putLeader(w http.ResponseWriter, r *http.Request) {
	var info LeaderInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if info.ID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	info.UpdatedAt = s.now()
	// A stale leader from an older term must not replace a newer one.
	if s.leader != nil && s.leader.ID != info.ID && info.Term < s.leader.Term &&
		s.now().Sub(s.leader.UpdatedAt) <= s.leaderTTL {
		s.mu.Unlock()
		http.Error(w, "stale term", http.StatusConflict)
		return
	}
	changed := s.leader == nil || s.leader.ID != info.ID
	s.leader = &info
	s.mu.Unlock()

	if changed {
		s.logger.Info("leader announced", zap.String("id", info.ID), zap.Uint64("term", info.Term))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Registry) postJoinRequest(w http.ResponseWriter, r *http.Request) {
	var jr JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&jr); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if jr.ID == "" || jr.Addr == "" {
		http.Error(w, "missing id or addr", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	jr.StartedAt = s.now()
	s.joinRequests[jr.ID] = jr
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Registry) listJoinRequests(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	list := make([]JoinRequest, 0, len(s.joinRequests))
	for _, jr := range s.joinRequests {
		list = append(list, jr)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (s *Registry) deleteJoinRequest(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	delete(s.joinRequests, id)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// Cleanup drops the leader and join requests whose TTL has passed.
func (s *Registry) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.leader != nil && now.Sub(s.leader.UpdatedAt) > s.leaderTTL {
		s.logger.Info("leader expired", zap.String("id", s.leader.ID))
		s.leader = nil
	}
	for id, jr := range s.joinRequests {
		if now.Sub(jr.StartedAt) > s.joinRequestTTL {
			delete(s.joinRequests, id)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (s *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}
