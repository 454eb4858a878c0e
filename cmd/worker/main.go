package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"classhelper/internal/config"
	"classhelper/internal/logging"
	"classhelper/internal/session"
	"classhelper/internal/store"
)

// Worker deletes expired sessions from Postgres. Redis expires its own keys
// and the memory store is per process, so only the postgres backend needs it.
func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.Production(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.SessionBackend != "postgres" {
		logger.Info("session backend needs no sweeping, exiting", zap.String("backend", cfg.SessionBackend))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	sessions := session.NewPostgresStore(db.Client)
	ticker := time.NewTicker(cfg.SessionPurgeInterval)
	defer ticker.Stop()

	logger.Info("session sweeper started", zap.Duration("interval", cfg.SessionPurgeInterval))
	for {
		n, err := sessions.Purge(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Warn("purge failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("expired sessions purged", zap.Int64("count", n))
		}

		select {
		case <-ctx.Done():
			logger.Info("worker stopped")
			return
		case <-ticker.C:
		}
	}
}
