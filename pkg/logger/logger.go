// Package logger provides a simple, clean logging interface.
//
// A Logger is an explicit handle created once in main and passed to (or held
// by) each component, so its lifecycle is scoped to the process run.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Named returns a child logger grouped under name.
	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field     { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

// slogLogger implements Logger using slog.
type slogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// New creates a Logger writing text records to w at info level.
func New(w io.Writer) Logger {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelInfo)
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	return &slogLogger{logger: slog.New(h), level: lv}
}

func (l *slogLogger) Named(name string) Logger {
	return &slogLogger{logger: l.logger.WithGroup(name), level: l.level}
}

func (l *slogLogger) Debug(msg string, fields ...Field) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, convertFields(fields)...)
}

func (l *slogLogger) Info(msg string, fields ...Field) {
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, convertFields(fields)...)
}

func (l *slogLogger) Warn(msg string, fields ...Field) {
	l.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, convertFields(fields)...)
}

func (l *slogLogger) Error(msg string, fields ...Field) {
	l.logger.LogAttrs(context.Background(), slog.LevelError, msg, convertFields(fields)...)
}

// convertFields converts our Field type to slog.Attr.
func convertFields(fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	return attrs
}

// SetLevelString parses and applies the logging level on a Logger created by
// New. Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(l Logger, level string) error {
	sl, ok := l.(*slogLogger)
	if !ok {
		return fmt.Errorf("unsupported logger implementation")
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		sl.level.Set(slog.LevelDebug)
	case "", "info":
		sl.level.Set(slog.LevelInfo)
	case "warn", "warning":
		sl.level.Set(slog.LevelWarn)
	case "error":
		sl.level.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
