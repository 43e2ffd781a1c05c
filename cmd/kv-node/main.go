package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/armon/go-metrics"
	"github.com/heysubinoy/pyazkv/api/proto"
	"github.com/heysubinoy/pyazkv/internal/api"
	"github.com/heysubinoy/pyazkv/internal/cluster"
	"github.com/heysubinoy/pyazkv/internal/discovery"
	"github.com/heysubinoy/pyazkv/internal/logging"
	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/heysubinoy/pyazkv/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateNode(); err != nil {
		panic(err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("node", cfg.NodeID))

	inm := metrics.NewInmemSink(10*time.Second, time.Minute)
	if _, err := metrics.NewGlobal(metrics.DefaultConfig("pyazkv"), inm); err != nil {
		logger.Fatal("failed to set up metrics", zap.Error(err))
	}

	mem := store.NewMemStore()
	node, err := cluster.NewNode(cluster.NodeConfig{
		ID:        cfg.NodeID,
		RaftAddr:  cfg.RaftAddr,
		DataDir:   cfg.RaftData,
		Bootstrap: cfg.RaftLeader,
	}, store.NewFSM(mem), logging.RaftLogger(logger, cfg.LogLevel))
	if err != nil {
		logger.Fatal("failed to start raft", zap.Error(err))
	}
	defer node.Close()

	instrumented := store.NewInstrumentedStore(store.NewRaftStore(mem, node.Raft))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	announcer := &cluster.Announcer{
		Raft:     node.Raft,
		Registry: discovery.NewClient(cfg.MandiAddr),
		Self: discovery.LeaderInfo{
			ID:       cfg.NodeID,
			Addr:     string(node.Addr()),
			HTTPAddr: cfg.HTTPAddr,
			GRPCAddr: cfg.GRPCAddr,
		},
		Logger: logger,
	}
	go announcer.Run(ctx)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	proto.RegisterKVServiceServer(grpcServer, api.NewGRPCServer(instrumented, logger))
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	srv := api.NewServer(instrumented, node.Raft, logger)
	if _, port, err := net.SplitHostPort(cfg.HTTPAddr); err == nil && port != "" {
		srv.HTTPPort = port
	}
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	mux.HandleFunc("/metrics", api.MetricsHandler(instrumented))
	mux.HandleFunc("/debug/metrics", func(w http.ResponseWriter, r *http.Request) {
		data, err := inm.DisplayMetrics(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(data)
	})

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.String("raft", string(node.Addr())))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
