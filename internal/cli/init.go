// Package cli provides common initialization for cmd/ledger,
// cmd/ledger-worker and cmd/ledgerctl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finledger/internal/config"
	"finledger/internal/joblock"
	"finledger/internal/log"
	"finledger/internal/sheets"
	gsheet "finledger/internal/sheets/google"
	"finledger/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logCfg := log.DefaultConfig()
	logCfg.Component = component
	if cfg != nil {
		logCfg.Format = cfg.LogFormat
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			logCfg.Level = level
		}
	}
	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		// The configured logger does not exist yet.
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.WithComponent(log.ComponentStorage).Error("Failed to initialize SQLite repository",
			log.FieldOperation, log.OpStartup, log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return sqliteRepo
}

// InitExporter returns the Sheets snapshot exporter, or nil when export is
// not configured or the client cannot be built. Export is optional, so a
// failure here only disables it.
func InitExporter(ctx context.Context, logger *log.Logger, cfg *config.Config) sheets.SnapshotExporter {
	logger = logger.WithComponent(log.ComponentSheets)
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.SnapshotSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Warn("Failed to initialize Google Sheets client, export disabled",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		return nil
	}
	return client
}

// InitLocker returns a Redis job locker, or a no-op locker without
// REDIS_URL. The close func is always safe to call.
func InitLocker(ctx context.Context, logger *log.Logger, cfg *config.Config) (joblock.Locker, func()) {
	if cfg.RedisURL == "" {
		logger.Info("Job locks disabled - no REDIS_URL provided")
		return joblock.Noop{}, func() {}
	}
	locker, err := joblock.NewRedisLocker(ctx, cfg.RedisURL, cfg.JobLockTTL)
	if err != nil {
		logger.Warn("Failed to connect to Redis, running without job locks", log.FieldError, err)
		return joblock.Noop{}, func() {}
	}
	logger.Info("Job locks enabled", "ttl", cfg.JobLockTTL)
	return locker, func() { locker.Close() }
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
