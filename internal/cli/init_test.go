package cli

import (
	"context"
	"log/slog"
	"testing"

	"finledger/internal/config"
	"finledger/internal/joblock"
	"finledger/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentWorker)
	if logger.Component() != log.ComponentWorker {
		t.Errorf("Component() = %q, want %q", logger.Component(), log.ComponentWorker)
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}

	logger = SetupLogger(&config.Config{LogLevel: "loud"}, log.ComponentApp)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}

func TestOptionalIntegrationsDisabled(t *testing.T) {
	ctx := context.Background()
	logger := log.New(log.DefaultConfig())
	cfg := &config.Config{}

	if exp := InitExporter(ctx, logger, cfg); exp != nil {
		t.Errorf("InitExporter() = %T, want nil without a spreadsheet", exp)
	}

	locker, closeLocker := InitLocker(ctx, logger, cfg)
	defer closeLocker()
	if _, ok := locker.(joblock.Noop); !ok {
		t.Errorf("InitLocker() = %T, want joblock.Noop", locker)
	}

	cfg.RedisURL = "not a url"
	locker, closeLocker = InitLocker(ctx, logger, cfg)
	defer closeLocker()
	if _, ok := locker.(joblock.Noop); !ok {
		t.Errorf("InitLocker() with a bad URL = %T, want joblock.Noop", locker)
	}
}
