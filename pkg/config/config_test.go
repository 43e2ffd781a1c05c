package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// can't leak into a test.
func clearEnv(t *testing.T) {
	for _, name := range []string{
		"NODE_ID", "RAFT_ADDR", "RAFT_DATA", "RAFT_LEADER", "GRPC_ADDR", "HTTP_ADDR",
		"MANDI_ADDR", "BACKEND", "REDIS_ADDR", "REDIS_DB", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "http://127.0.0.1:7000", cfg.MandiAddr)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RaftData)
	assert.Error(t, cfg.ValidateNode())
}

func TestLoadConfigFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
node_id: node1
raft_addr: 127.0.0.1:7001
raft_leader: true
grpc_addr: :9091
http_addr: :8081
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "node1", cfg.NodeID)
	assert.True(t, cfg.RaftLeader)
	assert.Equal(t, "./pyaz/node1", cfg.RaftData)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.ValidateNode())
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "node_id: from-file\nbackend: memory\n")
	t.Setenv("NODE_ID", "from-env")
	t.Setenv("BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RAFT_LEADER", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.NodeID)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.RaftLeader)
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "node_id: [unterminated"))
	assert.Error(t, err)

	t.Setenv("RAFT_LEADER", "maybe")
	_, err = LoadConfig("")
	assert.Error(t, err)

	t.Setenv("RAFT_LEADER", "")
	t.Setenv("BACKEND", "etcd")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestValidateNodeRejectsRedisBackend(t *testing.T) {
	cfg := &Config{NodeID: "n", RaftAddr: "a", GRPCAddr: "g", HTTPAddr: "h", Backend: BackendRedis}
	assert.Error(t, cfg.ValidateNode())
}
