package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finledger/internal/core"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Database
	SQLiteDBPath string

	// Ledger
	OwnerID  string
	Currency string

	// AMQP (optional; in-process task queue when empty)
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPNotifyQueue string

	// In-process task queue
	TaskWorkers   int
	TaskQueueSize int

	// Scheduled jobs
	JobInterval       time.Duration
	ReminderDaysAhead int

	// Redis job lock (optional)
	RedisURL   string
	JobLockTTL time.Duration

	// Google Sheets snapshot export (optional)
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	SnapshotSheetName        string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		OwnerID:  getEnv("OWNER_ID", core.DefaultOwner),
		Currency: strings.ToUpper(getEnv("CURRENCY", core.DefaultCurrency)),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:       getEnv("AMQP_QUEUE", "ledger_tasks"),
		AMQPNotifyQueue: getEnv("AMQP_NOTIFY_QUEUE", "ledger_notifications"),

		TaskWorkers:   getEnvInt("TASK_WORKERS", 2),
		TaskQueueSize: getEnvInt("TASK_QUEUE_SIZE", 256),

		JobInterval:       getEnvDuration("JOB_INTERVAL", time.Hour),
		ReminderDaysAhead: getEnvInt("REMINDER_DAYS_AHEAD", 2),

		RedisURL:   getEnv("REDIS_URL", ""),
		JobLockTTL: getEnvDuration("JOB_LOCK_TTL", 5*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		SnapshotSheetName:        getEnv("SNAPSHOT_SHEET_NAME", "Snapshots"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	return cfg
}

// SheetsEnabled reports whether snapshots are exported to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if strings.TrimSpace(c.OwnerID) == "" {
		errors = append(errors, "owner id cannot be empty")
	}
	if len(c.Currency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be an ISO 4217 code", c.Currency))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.TaskWorkers < 1 || c.TaskWorkers > 64 {
		errors = append(errors, fmt.Sprintf("invalid task workers %d: must be between 1 and 64", c.TaskWorkers))
	}
	if c.TaskQueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid task queue size %d: must be at least 1", c.TaskQueueSize))
	}

	if c.JobInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid job interval %v: must be at least 1 minute", c.JobInterval))
	} else if c.JobInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid job interval %v: must be at most 24 hours", c.JobInterval))
	}
	if c.ReminderDaysAhead < 1 || c.ReminderDaysAhead > 28 {
		errors = append(errors, fmt.Sprintf("invalid reminder days ahead %d: must be between 1 and 28", c.ReminderDaysAhead))
	}

	if c.RedisURL != "" {
		if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
		if c.JobLockTTL < time.Second {
			errors = append(errors, fmt.Sprintf("invalid job lock TTL %v: must be at least 1 second", c.JobLockTTL))
		}
	}

	if c.SheetsEnabled() {
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for snapshot export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.SnapshotSheetName == "" {
			errors = append(errors, "snapshot sheet name cannot be empty when snapshot export is enabled")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
