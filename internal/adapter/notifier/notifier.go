// Package notifier delivers user-facing messages to the process log and to
// any connected change-feed clients.
package notifier

import (
	"context"
	"log/slog"
)

// Sink receives every message after it is logged, e.g. the WebSocket hub.
type Sink interface {
	Notify(ctx context.Context, level, msg string)
}

// Logger implements port/notifier.Notifier on slog.
type Logger struct {
	logger *slog.Logger
	sinks  []Sink
}

func NewLogger(logger *slog.Logger, sinks ...Sink) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, sinks: sinks}
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.emit(ctx, slog.LevelInfo, "info", msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	l.emit(ctx, slog.LevelWarn, "warn", msg)
}

func (l *Logger) Error(ctx context.Context, msg string) {
	l.emit(ctx, slog.LevelError, "error", msg)
}

func (l *Logger) emit(ctx context.Context, level slog.Level, name, msg string) {
	l.logger.Log(ctx, level, msg, "source", "notifier")
	for _, s := range l.sinks {
		s.Notify(ctx, name, msg)
	}
}
