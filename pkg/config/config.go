package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Backends selectable for a single-process server.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	NodeID     string `yaml:"node_id"`
	RaftAddr   string `yaml:"raft_addr"`
	RaftData   string `yaml:"raft_data"`
	RaftLeader bool   `yaml:"raft_leader"`
	GRPCAddr   string `yaml:"grpc_addr"`
	HTTPAddr   string `yaml:"http_addr"`
	MandiAddr  string `yaml:"mandi_addr"`

	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// LoadConfig loads configuration from a YAML file if path is provided,
// otherwise it falls back to environment variables.
// Environment variables always override values from the file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			// If path was explicitly provided but file doesn't exist, return error
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	switch cfg.Backend {
	case BackendMemory, BackendRedis:
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", cfg.Backend, BackendMemory, BackendRedis)
	}

	return &cfg, nil
}

// ValidateNode checks the fields a raft cluster node cannot run without.
func (c *Config) ValidateNode() error {
	if c.NodeID == "" {
		return fmt.Errorf("NODE_ID is required (set via environment or config file)")
	}
	if c.RaftAddr == "" {
		return fmt.Errorf("RAFT_ADDR is required (set via environment or config file)")
	}
	if c.GRPCAddr == "" {
		return fmt.Errorf("GRPC_ADDR is required (set via environment or config file)")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required (set via environment or config file)")
	}
	if c.Backend != BackendMemory {
		return fmt.Errorf("raft nodes replicate the memory backend, got %q", c.Backend)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.RaftData == "" && cfg.NodeID != "" {
		cfg.RaftData = fmt.Sprintf("./pyaz/%s", cfg.NodeID)
	}
	if cfg.GRPCAddr == "" {
		cfg.GRPCAddr = ":9090"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.MandiAddr == "" {
		cfg.MandiAddr = "http://127.0.0.1:7000"
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applyEnvOverrides allows environment variables to override YAML config values
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("NODE_ID"); v != "" {
		cfg.NodeID = v
	}
	if v := os.Getenv("RAFT_ADDR"); v != "" {
		cfg.RaftAddr = v
	}
	if v := os.Getenv("RAFT_DATA"); v != "" {
		cfg.RaftData = v
	}
	if v := os.Getenv("GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("MANDI_ADDR"); v != "" {
		cfg.MandiAddr = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	// Parse RAFT_LEADER as boolean
	if v := os.Getenv("RAFT_LEADER"); v != "" {
		leader, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RAFT_LEADER value: %w", err)
		}
		cfg.RaftLeader = leader
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %w", err)
		}
		cfg.RedisDB = db
	}
	return nil
}
