package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"velocity-dashboard/internal/config"
)

const hookTimeout = 10 * time.Second

type Hook func(ctx context.Context) error

// GracefulServer serves until SIGINT/SIGTERM, then runs shutdown hooks next to
// http.Server.Shutdown. SIGHUP runs the reload hooks and keeps serving.
type GracefulServer struct {
	server   *http.Server
	logger   *slog.Logger
	cfg      config.ServerConfig
	shutdown []Hook
	reload   []Hook
	mu       sync.RWMutex
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		cfg:    cfg,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(fn Hook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.shutdown = append(gs.shutdown, fn)
}

// RegisterReloadHook adds fn to the hooks run on SIGHUP, e.g. re-reading the
// fixture file.
func (gs *GracefulServer) RegisterReloadHook(fn Hook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.reload = append(gs.reload, fn)
}

func (gs *GracefulServer) hooks(reload bool) []Hook {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	if reload {
		return append([]Hook(nil), gs.reload...)
	}
	return append([]Hook(nil), gs.shutdown...)
}

func (gs *GracefulServer) ListenAndServe() error {
	serverErrors := make(chan error, 1)

	go func() {
		gs.logger.Info("starting server",
			"addr", gs.server.Addr,
			"read_timeout", gs.cfg.ReadTimeout,
			"write_timeout", gs.cfg.WriteTimeout,
		)
		serverErrors <- gs.server.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	for {
		select {
		case err := <-serverErrors:
			if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil

		case sig := <-signals:
			if sig == syscall.SIGHUP {
				gs.Reload(context.Background())
				continue
			}
			gs.logger.Info("shutdown signal received", "signal", sig)

			ctx, cancel := context.WithTimeout(context.Background(), gs.cfg.ShutdownTimeout)
			defer cancel()

			return gs.Shutdown(ctx)
		}
	}
}

// Reload runs every reload hook in registration order. Failures are logged and
// the server keeps its current state.
func (gs *GracefulServer) Reload(ctx context.Context) {
	for i, hook := range gs.hooks(true) {
		hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
		err := hook(hookCtx)
		cancel()
		if err != nil {
			gs.logger.Error("reload hook failed", "hook_index", i, "error", err)
			continue
		}
		gs.logger.Info("reload hook completed", "hook_index", i)
	}
}

// Shutdown stops the HTTP server and runs shutdown hooks concurrently. It
// returns the first failure, or ctx.Err() if they do not finish in time.
func (gs *GracefulServer) Shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.cfg.ShutdownTimeout)

	hooks := gs.hooks(false)

	var wg sync.WaitGroup
	errChan := make(chan error, len(hooks)+1)

	for i, hook := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			if err := hook(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed", "hook_index", i, "error", err)
				errChan <- fmt.Errorf("shutdown hook %d failed: %w", i, err)
				return
			}
			gs.logger.Debug("shutdown hook completed", "hook_index", i)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		gs.logger.Info("stopping HTTP server")
		if err := gs.server.Shutdown(ctx); err != nil {
			errChan <- fmt.Errorf("HTTP server shutdown failed: %w", err)
			return
		}
		gs.logger.Info("HTTP server stopped gracefully")
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		gs.logger.Info("graceful shutdown completed")
		select {
		case err := <-errChan:
			return err
		default:
			return nil
		}

	case <-ctx.Done():
		gs.logger.Warn("shutdown timeout exceeded, forcing exit")
		return ctx.Err()
	}
}
