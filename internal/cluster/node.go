// Package cluster starts a raft node backed by bolt storage and keeps the
// discovery registry informed about who leads the group.
package cluster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

const (
	retainSnapshots  = 2
	maxPool          = 3
	transportTimeout = 10 * time.Second
)

type NodeConfig struct {
	ID        string
	RaftAddr  string
	DataDir   string
	Bootstrap bool

	// Raft overrides the raft tuning; LocalID and Logger are always set
	// from the fields above.
	Raft *raft.Config
}

// Node is a running raft instance together with the resources it owns.
type Node struct {
	Raft      *raft.Raft
	Transport *raft.NetworkTransport

	boltStore *raftboltdb.BoltStore
}

// NewNode opens (or creates) the raft log under cfg.DataDir and starts raft.
// A fresh node with Bootstrap set forms a single-voter cluster; a node that
// already has state never bootstraps again.
func NewNode(cfg NodeConfig, fsm raft.FSM, logger hclog.Logger) (*Node, error) {
	if cfg.ID == "" || cfg.RaftAddr == "" || cfg.DataDir == "" {
		return nil, errors.New("node id, raft address and data dir are required")
	}

	conf := raft.DefaultConfig()
	if cfg.Raft != nil {
		c := *cfg.Raft
		conf = &c
	}
	conf.LocalID = raft.ServerID(cfg.ID)
	conf.Logger = logger

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create raft data dir: %w", err)
	}

	boltStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft.db"))
	if err != nil {
		return nil, fmt.Errorf("open raft log: %w", err)
	}

	snaps, err := raft.NewFileSnapshotStoreWithLogger(cfg.DataDir, retainSnapshots, logger)
	if err != nil {
		boltStore.Close()
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	trans, err := raft.NewTCPTransportWithLogger(cfg.RaftAddr, nil, maxPool, transportTimeout, logger)
	if err != nil {
		boltStore.Close()
		return nil, fmt.Errorf("raft transport: %w", err)
	}

	r, err := raft.NewRaft(conf, fsm, boltStore, boltStore, snaps, trans)
	if err != nil {
		trans.Close()
		boltStore.Close()
		return nil, fmt.Errorf("start raft: %w", err)
	}

	n := &Node{Raft: r, Transport: trans, boltStore: boltStore}

	if cfg.Bootstrap {
		hasState, err := raft.HasExistingState(boltStore, boltStore, snaps)
		if err != nil {
			n.Close()
			return nil, err
		}
		if !hasState {
			f := r.BootstrapCluster(raft.Configuration{
				Servers: []raft.Server{{ID: conf.LocalID, Address: trans.LocalAddr()}},
			})
			if err := f.Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
				n.Close()
				return nil, fmt.Errorf("bootstrap: %w", err)
			}
		}
	}

	return n, nil
}

// Addr is the address peers reach this node's raft transport on.
func (n *Node) Addr() raft.ServerAddress {
	return n.Transport.LocalAddr()
}

// Close shuts raft down and releases the transport and the log file.
func (n *Node) Close() error {
	err := n.Raft.Shutdown().Error()
	if cerr := n.Transport.Close(); err == nil {
		err = cerr
	}
	if cerr := n.boltStore.Close(); err == nil {
		err = cerr
	}
	return err
}
