package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"velocity-dashboard/internal/config"
	"velocity-dashboard/internal/middleware"
	"velocity-dashboard/internal/observability"
	"velocity-dashboard/internal/server"
	"velocity-dashboard/internal/services"
	"velocity-dashboard/internal/store"
)

const version = "1.0.0"

// loadStore reads the fixture at path, or the embedded fixture when path is
// empty.
func loadStore(path string) (*store.Store, error) {
	if path == "" {
		return store.Default()
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load fixture %s: %w", path, err)
	}
	return s, nil
}

func newAnalytics(cfg *config.Config, logger *slog.Logger) (*services.Analytics, error) {
	s, err := loadStore(cfg.Analytics.FixtureFile)
	if err != nil {
		return nil, err
	}
	return services.NewAnalytics(s,
		services.WithCache(cfg.Analytics.CacheEnabled),
		services.WithLogger(logger),
		services.WithSnapshotWorkers(cfg.Analytics.SnapshotWorkers),
		services.WithLeaderboardSize(cfg.Analytics.LeaderboardSize),
	), nil
}

func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, logger, server.Options{
		DefaultRange:    cfg.Range(),
		LeaderboardSize: cfg.Analytics.LeaderboardSize,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)
	return chain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"default_range", cfg.Analytics.DefaultRange,
		"cache_enabled", cfg.Analytics.CacheEnabled,
	)

	start := time.Now()
	analytics, err := newAnalytics(cfg, logger)
	if err != nil {
		logger.Error("failed to load sales data", "error", err)
		os.Exit(1)
	}
	stats := analytics.Stats()
	logger.Info("sales data loaded",
		"duration", time.Since(start),
		"regions", stats["regions"],
		"models", stats["models"],
		"dealers", stats["dealers"],
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterReloadHook(func(ctx context.Context) error {
		s, err := loadStore(cfg.Analytics.FixtureFile)
		if err != nil {
			return err
		}
		analytics.SetStore(s)
		logger.Info("sales data reloaded", "fixture", cfg.Analytics.FixtureFile)
		return nil
	})

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("analytics service stopped", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
