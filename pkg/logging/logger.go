// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// File, when set, receives the logs instead of Output. The terminal UI
	// owns the screen, so it logs here or nowhere.
	File string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// SetupFile is Setup for configurations that may name a log file. The
// returned closer releases the file; it is a no-op when File is empty.
func SetupFile(cfg Config) (zerolog.Logger, io.Closer, error) {
	if cfg.File == "" {
		if cfg.Output == nil {
			cfg.Output = os.Stderr
		}
		return Setup(cfg), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	cfg.Output = f
	cfg.Pretty = false
	return Setup(cfg), f, nil
}

// Discard silences the global logger.
func Discard() zerolog.Logger {
	return Setup(Config{Level: LevelError, Output: io.Discard})
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Revalidation store operations (hit/miss, key, TTL)
//   - Request flow (conditional requests, ETags)
//   - Page walks (page visited, cursor)
//
// Info: Normal operation events
//   - Bulk selections collected
//   - Selected IDs when the options panel is closed
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Catalog 4xx/5xx responses
//   - Store errors (request proceeds without validators)
//   - Walks stopped at a page limit
//
// Error: Error conditions requiring attention
//   - Failed page fetches
//   - Failed bulk selections (partial results kept)
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package (artic-client, table, walker, tui)
//   - endpoint: catalog endpoint path
//   - page: one-based catalog page
//   - status: HTTP status code
//   - error_class: error classification (client, server, network, decode)
//   - etag: ETag value for conditional requests
//   - selected_ids: selection reported by Done
