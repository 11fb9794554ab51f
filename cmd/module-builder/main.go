package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/divu-hq/module-builder/internal/api"
	"github.com/divu-hq/module-builder/internal/blueprints"
	"github.com/divu-hq/module-builder/internal/builder"
	"github.com/divu-hq/module-builder/internal/cleanup"
	"github.com/divu-hq/module-builder/internal/config"
	"github.com/divu-hq/module-builder/internal/notify"
	"github.com/divu-hq/module-builder/internal/revision"
	"github.com/divu-hq/module-builder/internal/storage"
	"github.com/divu-hq/module-builder/internal/uploads"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting module-builder",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Stale-write tracking: Redis when available, in-process otherwise
	var tracker revision.Tracker
	if cfg.Redis.Enabled {
		redisTracker, err := revision.NewRedisTracker(cfg.Redis.Address, cfg.Redis.Password)
		if err != nil {
			slog.Warn("redis unavailable, falling back to in-memory revision tracking", "error", err)
			tracker = revision.NewMemoryTracker()
		} else {
			tracker = redisTracker
			slog.Info("redis connected successfully", "address", cfg.Redis.Address)
		}
	} else {
		tracker = revision.NewMemoryTracker()
	}

	// Notices go out over websocket, with the structured log as fallback
	hub := notify.NewHub(notify.LogNotifier{})

	// Media upload store
	uploadStore, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		slog.Error("failed to create upload store", "error", err)
		os.Exit(1)
	}

	// Load blueprints
	blueprintLoader := blueprints.NewLoader()
	if err := blueprintLoader.LoadFromDir(cfg.Blueprints.Dir); err != nil {
		slog.Warn("failed to load blueprints from dir", "dir", cfg.Blueprints.Dir, "error", err)
	}

	// Initialize the builder service
	svc := builder.NewService(repo, tracker, hub, blueprintLoader)

	// Initialize the stale-draft reaper
	reaper := cleanup.NewReaper(repo, tracker, cfg.Cleanup.Interval, cfg.Cleanup.Retention)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the reaper
	reaper.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, svc, repo, blueprintLoader, uploadStore, hub)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := hub.Close(); err != nil {
		slog.Error("websocket hub close error", "error", err)
	}

	if err := tracker.Close(); err != nil {
		slog.Error("revision tracker close error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("module-builder stopped")
}
