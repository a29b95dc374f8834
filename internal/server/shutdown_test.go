package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"velocity-dashboard/internal/config"
)

func newTestGracefulServer() *GracefulServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGracefulServer(&http.Server{Addr: "127.0.0.1:0"}, logger, config.ServerConfig{ShutdownTimeout: time.Second})
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	gs := newTestGracefulServer()

	var calls atomic.Int32
	for range 3 {
		gs.RegisterShutdownHook(func(ctx context.Context) error {
			calls.Add(1)
			return nil
		})
	}

	if err := gs.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("hooks run = %d, want 3", got)
	}
}

func TestGracefulServer_ShutdownReportsHookError(t *testing.T) {
	gs := newTestGracefulServer()
	boom := errors.New("boom")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return boom })

	if err := gs.Shutdown(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Shutdown() error = %v, want %v", err, boom)
	}
}

func TestGracefulServer_ReloadContinuesAfterFailure(t *testing.T) {
	gs := newTestGracefulServer()

	var order []int
	gs.RegisterReloadHook(func(ctx context.Context) error {
		order = append(order, 1)
		return errors.New("bad fixture")
	})
	gs.RegisterReloadHook(func(ctx context.Context) error {
		order = append(order, 2)
		return nil
	})

	gs.Reload(context.Background())

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("reload order = %v, want [1 2]", order)
	}
}
