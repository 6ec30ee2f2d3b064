package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields holds structured log context as key/value pairs
type Fields map[string]any

// Logger is the structured logging interface used across the application.
// All methods accept optional field maps that are merged into the entry.
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

type zapLogger struct {
	base *zap.Logger
}

// NewDefaultLogger creates a production logger writing JSON to stderr at info level
func NewDefaultLogger() Logger {
	return NewLogger("info")
}

// NewLogger creates a logger at the given level (debug, info, warn, error)
func NewLogger(level string) Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.Lock(os.Stderr),
		parseLevel(level),
	)

	return &zapLogger{base: zap.New(core)}
}

// NewNopLogger creates a logger that discards everything (for tests)
func NewNopLogger() Logger {
	return &zapLogger{base: zap.NewNop()}
}

// WithFields returns a logger with the given fields attached to every entry
func WithFields(fields Fields) Logger {
	return NewDefaultLogger().WithFields(fields)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.base.Debug(msg, flatten(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.base.Info(msg, flatten(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.base.Warn(msg, flatten(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...Fields) {
	l.base.Error(msg, flatten(fields)...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{base: l.base.With(flatten([]Fields{fields})...)}
}

func flatten(fieldMaps []Fields) []zap.Field {
	var out []zap.Field
	for _, fields := range fieldMaps {
		for k, v := range fields {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
