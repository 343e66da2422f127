// Package obs provides a context-carried structured logger for the
// conversation MCTS engine, grounded on the teacher framework's o11y package:
// a thin wrapper around log/slog with context.Context plumbing so the engine
// never reaches for a process-wide logger singleton.
package obs

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type loggerKey struct{}

// Logger wraps slog.Logger with context-aware convenience methods.
type Logger struct {
	inner *slog.Logger
}

// Option configures a Logger created by New.
type Option func(*config)

type config struct {
	level   slog.Level
	handler slog.Handler
}

// WithLevel sets the minimum log level. Accepted values: "debug", "info",
// "warn", "error". Unrecognised values are ignored (level stays at the
// current default).
func WithLevel(level string) Option {
	return func(cfg *config) {
		switch level {
		case "debug":
			cfg.level = slog.LevelDebug
		case "info":
			cfg.level = slog.LevelInfo
		case "warn":
			cfg.level = slog.LevelWarn
		case "error":
			cfg.level = slog.LevelError
		}
	}
}

// WithJSON configures the logger to emit JSON-formatted output.
func WithJSON() Option {
	return func(cfg *config) {
		cfg.handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.level})
	}
}

// New creates a Logger with the given options. Without options it defaults
// to info-level text output on stdout.
func New(opts ...Option) *Logger {
	cfg := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.handler == nil {
		cfg.handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.level})
	}
	return &Logger{inner: slog.New(cfg.handler)}
}

// Noop returns a Logger that discards everything. Useful as a safe default
// in tests and in engines constructed without an explicit logger.
func Noop() *Logger {
	return &Logger{inner: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...any)  { l.inner.InfoContext(ctx, msg, attrs...) }
func (l *Logger) Warn(ctx context.Context, msg string, attrs ...any)  { l.inner.WarnContext(ctx, msg, attrs...) }
func (l *Logger) Error(ctx context.Context, msg string, attrs ...any) { l.inner.ErrorContext(ctx, msg, attrs...) }
func (l *Logger) Debug(ctx context.Context, msg string, attrs ...any) { l.inner.DebugContext(ctx, msg, attrs...) }

// With returns a new Logger carrying the given key-value attributes on every
// subsequent log entry.
func (l *Logger) With(attrs ...any) *Logger {
	return &Logger{inner: l.inner.With(attrs...)}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the Logger from ctx, or a default info-level text
// logger if none was attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return New()
}
