package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Logging
	LogLevel string

	// Supervisor
	PollInterval      time.Duration
	RestartBackoff    time.Duration
	RestartBackoffMax time.Duration
	MaxRestarts       int

	// Parser
	DateFallback string

	// Archive backend selection
	ArchiveBackend string

	// SQLite archive
	SQLiteDBPath string

	// AMQP alert transport
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets archive
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PollInterval:      getEnvDuration("POLL_INTERVAL", 60*time.Second),
		RestartBackoff:    getEnvDuration("RESTART_BACKOFF", 1*time.Second),
		RestartBackoffMax: getEnvDuration("RESTART_BACKOFF_MAX", 30*time.Second),
		MaxRestarts:       getEnvInt("MAX_RESTARTS", 0),

		DateFallback: getEnv("DATE_FALLBACK", "unknown"),

		ArchiveBackend: getEnv("ARCHIVE_BACKEND", "none"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/ledgerfeed.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgerfeed"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "bank_alerts"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate log level
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Validate supervisor timings
	if c.PollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at least 1 second", c.PollInterval))
	} else if c.PollInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at most 24 hours", c.PollInterval))
	}

	if c.RestartBackoff <= 0 {
		errors = append(errors, fmt.Sprintf("invalid restart backoff %v: must be positive", c.RestartBackoff))
	}
	if c.RestartBackoffMax < c.RestartBackoff {
		errors = append(errors, fmt.Sprintf("invalid restart backoff cap %v: must be at least the base backoff %v", c.RestartBackoffMax, c.RestartBackoff))
	}
	if c.MaxRestarts < 0 {
		errors = append(errors, fmt.Sprintf("invalid max restarts %d: must be zero (unbounded) or positive", c.MaxRestarts))
	}

	// Validate date fallback policy
	if c.DateFallback != "unknown" && c.DateFallback != "today" {
		errors = append(errors, fmt.Sprintf("invalid date fallback '%s': must be 'unknown' or 'today'", c.DateFallback))
	}

	// Validate archive backend
	validBackends := []string{"none", "sqlite", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.ArchiveBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid archive backend '%s': must be one of %v", c.ArchiveBackend, validBackends))
	}

	// Validate SQLite configuration if archive is sqlite
	if c.ArchiveBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite archive")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate Sheets configuration if archive is sheets
	if c.ArchiveBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets archive")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets archive")
		}
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
