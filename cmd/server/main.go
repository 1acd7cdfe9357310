// Package main is the entrypoint for the ReportPipe API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresmv/reportpipe/internal/api"
	"github.com/andresmv/reportpipe/internal/api/handler"
	"github.com/andresmv/reportpipe/internal/api/response"
	"github.com/andresmv/reportpipe/internal/blob"
	"github.com/andresmv/reportpipe/internal/cache"
	"github.com/andresmv/reportpipe/internal/config"
	"github.com/andresmv/reportpipe/internal/render"
	"github.com/andresmv/reportpipe/internal/report"
	"github.com/andresmv/reportpipe/internal/store"
	"github.com/andresmv/reportpipe/internal/synth"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"storage_backend", cfg.Storage.Backend,
		"env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create artifact store
	artifacts, err := newArtifactStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("create artifact store: %w", err)
	}
	slog.Info("artifact store initialized", "backend", artifacts.Backend())

	// 6. Create synthesizer and renderer
	synthesizer, err := synth.NewSynthesizer(cfg.AI)
	if err != nil {
		return fmt.Errorf("create synthesizer: %w", err)
	}
	slog.Info("synthesizer initialized", "provider", synthesizer.Name())

	renderer := render.NewLaTeX(cfg.Renderer.Command, cfg.Renderer.Timeout)
	if renderer.Available() {
		slog.Info("renderer available", "command", cfg.Renderer.Command)
	} else {
		slog.Warn("renderer unavailable, reports will be tex-only", "command", cfg.Renderer.Command)
	}

	// 7. Create store and report service
	pgStore := store.NewPostgresStore(pool)
	svc := report.NewService(synthesizer, renderer, artifacts,
		pgStore, redisCache, cfg.Storage.Prefix, cfg.AI.SynthesisTimeout)

	// 8. Build router with dependencies
	deps := api.Dependencies{
		HealthHandler:   healthHandler(pgStore, redisCache, cfg.Storage, renderer),
		GenerateHandler: handler.NewGenerateHandler(svc),
		MetadataHandler: handler.NewMetadataHandler(pgStore),
		StatusHandler:   handler.NewStatusHandler(pgStore, redisCache),
		DownloadHandler: handler.NewDownloadHandler(pgStore, artifacts),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newArtifactStore builds the configured blob backend. With dual-write
// enabled, GCS stays the primary and the local store mirrors every Put.
func newArtifactStore(ctx context.Context, cfg config.StorageConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "local":
		return blob.NewLocal(cfg.LocalRoot)
	case "gcs":
		gcs, err := blob.NewGCS(ctx, cfg.Bucket, cfg.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		if !cfg.DualWrite {
			return gcs, nil
		}
		mirror, err := blob.NewLocal(cfg.LocalRoot)
		if err != nil {
			return nil, err
		}
		return blob.NewDualWrite(gcs, mirror), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// healthHandler checks database and cache connectivity and reports the
// storage and renderer configuration.
func healthHandler(s store.Store, c cache.Cache, storageCfg config.StorageConfig, r render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(req.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(req.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		storage := map[string]any{
			"backend":    storageCfg.Backend,
			"prefix":     storageCfg.Prefix,
			"dual_write": storageCfg.DualWrite,
		}
		if storageCfg.Backend == "gcs" {
			storage["bucket"] = storageCfg.Bucket
		} else {
			storage["root"] = storageCfg.LocalRoot
		}

		response.JSON(w, map[string]any{
			"status":             "ok",
			"services":           checks,
			"storage":            storage,
			"renderer_available": r.Available(),
		})
	}
}
