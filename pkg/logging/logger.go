// Package logging configures the zerolog logger shared by the scraper packages.
//
// Progress reporting for a retrieval (initial page size, page attempts,
// per-page counts, retries, exhaustion, final totals) is emitted as
// structured events through the loggers created here. It is observational
// only and can be silenced by raising the level or replaced by redirecting
// Output.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"

	// LevelDisabled suppresses all output, including progress events.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON lines.
	Pretty bool

	// Output defaults to os.Stderr so stdout stays free for scrape results.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel normalizes a user supplied level name. Unknown names fall back
// to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "disabled", "off", "none":
		return LevelDisabled
	default:
		return LevelInfo
	}
}

func parseLevel(level LogLevel) zerolog.Level {
	switch ParseLevel(string(level)) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelDisabled:
		return zerolog.Disabled
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
// Debug: request flow details
//   - Built listing URLs, cursor values
//   - Breaker state transitions, store key lookups
//
// Info: normal progress
//   - Initial page size, page attempts, per-page review counts
//   - Pagination finish reason and total
//   - Server startup/shutdown
//
// Warn: recoverable conditions
//   - Retry attempts (transport, decode, empty batch)
//   - Page fetch exhausted, result returned partially
//   - Store errors (result still returned to the caller)
//
// Error: the retrieval could not produce a result
//   - First page failure
//   - Configuration errors
//
// Context Fields:
//   - component: package emitting the event
//   - place_id: location being scraped
//   - page: 1-indexed page number
//   - reviews: records on the page, total: records accumulated
//   - attempt, delay, cause: retry bookkeeping
//   - reason: pagination stop reason
//   - error_class: transport error classification
