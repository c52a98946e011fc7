package log

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	preproerrors "github.com/takara-ml/prepro/pkg/errors"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger returns a Logger backed by zerolog writing to w.
// Warning types and error types from pkg/errors implement
// zerolog.LogObjectMarshaler, so they are emitted as structured objects.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	event := z.zl.Error()
	// An error in the leading position gets zerolog's error treatment,
	// including the marshaled object form for pkg/errors types.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			event = event.Err(err)
			if obj, ok := err.(zerolog.LogObjectMarshaler); ok {
				event = event.EmbedObject(obj)
			}
			fields = fields[1:]
		}
	}
	z.emit(event, msg, fields)
}

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

func (z *zerologLogger) emit(event *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, fields[i+1])
	}
	event.Msg(msg)
}

var (
	defaultLogger Logger
	loggerOnce    sync.Once
	loggerMu      sync.RWMutex
)

// GetLogger returns the library-wide default Logger. The first call
// initializes a zerolog backend writing JSON to stderr at info level and
// registers it as the sink for pkg/errors warnings.
func GetLogger() Logger {
	loggerOnce.Do(func() {
		loggerMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewZerologLogger(os.Stderr, LevelInfo)
		}
		loggerMu.Unlock()
		registerWarningSink()
	})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the library-wide default Logger.
func SetLogger(logger Logger) {
	loggerMu.Lock()
	defaultLogger = logger
	loggerMu.Unlock()
}

// registerWarningSink routes pkg/errors warnings through the default
// logger. Registered from here to avoid an import cycle.
func registerWarningSink() {
	preproerrors.SetZerologWarnFunc(func(warning error) {
		GetLogger().Warn(warning.Error())
	})
}
