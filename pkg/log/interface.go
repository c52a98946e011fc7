// Package log provides structured logging for prepro's preprocessing and
// model-selection operations.
//
// The Logger interface is slog-compatible and implementation-agnostic: the
// library ships a zerolog backend and a buffer-backed TestLogger, and any
// other structured logger can be adapted. Standard attribute keys in
// attributes.go keep transform/fit/search logs uniform and filterable.
//
// Example:
//
//	logger := log.GetLogger().With(
//	    log.TransformerKey, "StandardScaler",
//	)
//	logger.Info("fit complete",
//	    log.OperationKey, "fit",
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger is a minimal structured logging interface compatible with
// log/slog's key-value field convention. With returns a derived logger
// carrying pre-populated fields.
type Logger interface {
	// Debug logs a debug-level message with optional key-value fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional key-value fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional key-value fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error,
	// backends may attach stack trace information.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip expensive field construction.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values are compatible with slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
