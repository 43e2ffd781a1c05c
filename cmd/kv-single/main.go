package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heysubinoy/pyazkv/api/proto"
	"github.com/heysubinoy/pyazkv/internal/api"
	"github.com/heysubinoy/pyazkv/internal/logging"
	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/heysubinoy/pyazkv/pkg/config"
	"github.com/heysubinoy/pyazkv/pkg/kv"
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

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	backend, closeBackend, err := openBackend(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closeBackend()

	// Wrap the backend to collect per-operation metrics
	instrumented := store.NewInstrumentedStore(backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start gRPC server in a goroutine
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

	// Create the HTTP server with the store
	srv := api.NewServer(instrumented, nil, logger)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	mux.HandleFunc("/metrics", api.MetricsHandler(instrumented))

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.String("backend", cfg.Backend))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}

func openBackend(cfg *config.Config, logger *zap.Logger) (kv.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		rs := store.NewRedisStore(store.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := rs.Ping(); err != nil {
			rs.Close()
			return nil, nil, err
		}
		logger.Info("using redis backend", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		return rs, func() { _ = rs.Close() }, nil
	default:
		return store.NewMemStore(), func() {}, nil
	}
}
