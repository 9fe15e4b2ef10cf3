package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clubfund/internal/config"
	applog "clubfund/internal/log"
)

func TestOpenBackend(t *testing.T) {
	logger := applog.New(applog.Config{Component: applog.ComponentApp, Output: &bytes.Buffer{}})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.DataBackend = "sqlite"
		cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "club.db")

		result, err := openBackend(context.Background(), logger, cfg)
		if err != nil {
			t.Fatalf("openBackend() error = %v", err)
		}
		defer result.Cleanup()
		if err := result.Backend.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.DataBackend = "sheets"
		if _, err := openBackend(context.Background(), logger, cfg); err == nil {
			t.Error("expected error for unknown backend")
		}
	})
}

func TestSetupLoggerUsesConfiguredFormat(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"
	logger := SetupLogger(cfg, applog.ComponentWorker)
	if logger.Component() != applog.ComponentWorker {
		t.Errorf("Component() = %q", logger.Component())
	}
	if logger.Enabled(context.Background(), applog.ParseLevel("info")) {
		t.Error("info should be disabled at warn level")
	}
}

func TestGracefulShutdownRunsCleanupWhenParentEnds(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Component: applog.ComponentApp, Output: &buf})

	parent, stop := context.WithCancel(context.Background())
	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(parent, logger, time.Second, func(context.Context) { close(cleaned) })

	stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	WaitForShutdown(ctx, done)

	select {
	case <-cleaned:
	default:
		t.Error("cleanup was not called")
	}
	if !strings.Contains(buf.String(), "Shutdown complete") {
		t.Errorf("log = %q", buf.String())
	}
}
