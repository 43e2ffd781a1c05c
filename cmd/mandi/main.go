package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heysubinoy/pyazkv/internal/discovery"
	"github.com/heysubinoy/pyazkv/internal/logging"
	"go.uber.org/zap"
)

/*
mandi is a soft-state discovery service for Raft joins.
It is NOT authoritative and NOT part of Raft correctness.
*/

func main() {
	addr := ":7000"
	if v := os.Getenv("MANDI_LISTEN"); v != "" {
		addr = v
	}

	logger, err := logging.New(logging.Options{
		Level: os.Getenv("LOG_LEVEL"),
		File:  os.Getenv("LOG_FILE"),
	})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := discovery.NewRegistry(logger)
	go registry.Run(ctx, discovery.DefaultCleanupEvery)

	mux := http.NewServeMux()
	registry.RegisterRoutes(mux)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mandi listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("mandi server failed", zap.Error(err))
	}
}
