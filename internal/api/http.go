package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/hashicorp/raft"
	"github.com/heysubinoy/pyazkv/internal/command"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"go.uber.org/zap"
)

// Server wraps a kv.Store and exposes HTTP endpoints for KV operations.
// When Raft is set, requests reaching a follower are redirected to the leader.
type Server struct {
	Store kv.Store
	Raft  *raft.Raft

	// HTTPPort is the port leaders serve HTTP on, used to build redirects.
	HTTPPort string

	dispatcher *command.Dispatcher
	logger     *zap.Logger
}

// NewServer creates a new HTTP server with the given store.
func NewServer(store kv.Store, raftNode *raft.Raft, logger *zap.Logger) *Server {
	return &Server{
		Store:      store,
		Raft:       raftNode,
		HTTPPort:   "8080",
		dispatcher: command.NewDispatcher(store),
		logger:     logger,
	}
}

// RegisterRoutes registers all HTTP handlers on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/get", s.handleGet)
	mux.HandleFunc("/set", s.handleSet)
	mux.HandleFunc("/delete", s.handleDelete)
	mux.HandleFunc("/cmd", s.handleCmd)
}

// redirectToLeader answers the request with a redirect when this node is
// a raft follower. It reports whether the request was handled.
func (s *Server) redirectToLeader(w http.ResponseWriter, r *http.Request) bool {
	if s.Raft == nil || s.Raft.State() == raft.Leader {
		return false
	}

	leader, _ := s.Raft.LeaderWithID()
	if leader == "" {
		http.Error(w, "Not leader and no leader known", http.StatusServiceUnavailable)
		return true
	}
	host, _, err := net.SplitHostPort(string(leader))
	if err != nil {
		host = string(leader)
	}
	target := "http://" + net.JoinHostPort(host, s.HTTPPort) + r.URL.RequestURI()
	w.Header().Set("Location", target)
	http.Error(w, "Not leader. Redirect to leader.", http.StatusTemporaryRedirect)
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	http.Error(w, errorMessage(err), code)
}

// handleGet handles GET /get?key=foo requests.
// Returns the value as plain text or appropriate error codes.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.redirectToLeader(w, r) {
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	value, ok, err := s.Store.Get(key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(value))
}

// handleSet handles POST /set requests with JSON body.
// Expects: {"key": "foo", "value": "bar", "mode": "NX"}; mode is optional.
// Replies 204 when written and 412 when the NX/XX condition was not met.
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.redirectToLeader(w, r) {
		return
	}

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
		Mode  string `json:"mode"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Key == "" {
		http.Error(w, "Missing key field", http.StatusBadRequest)
		return
	}

	mode, err := kv.ParseSetMode(req.Mode)
	if err != nil {
		s.writeError(w, err)
		return
	}

	written, err := s.Store.Set(req.Key, req.Value, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !written {
		http.Error(w, "Condition not met", http.StatusPreconditionFailed)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDelete handles POST /delete requests with JSON body.
// Expects: {"key": "foo"}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.redirectToLeader(w, r) {
		return
	}

	var req struct {
		Key string `json:"key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Key == "" {
		http.Error(w, "Missing key field", http.StatusBadRequest)
		return
	}

	if _, err := s.Store.Del(req.Key); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCmd handles POST /cmd requests with JSON body.
// Expects: {"args": ["HSET", "h", "f", "v"]}
// Replies: {"reply": <null | string | integer | array>}
func (s *Server) handleCmd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.redirectToLeader(w, r) {
		return
	}

	var req struct {
		Args []string `json:"args"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	reply, err := s.dispatcher.Exec(req.Args)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"reply": reply.JSON()})
}
