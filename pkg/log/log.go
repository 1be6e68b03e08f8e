package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = newLogger(os.Stderr)
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     &defaultLogLevel,
	}))
}

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger from the context. If no logger is found, it returns the default logger.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithRun returns a context whose logger tags every record with the report
// run id.
func WithRun(ctx context.Context, runID string) context.Context {
	return With(ctx, Ctx(ctx).With(slog.String("runID", runID)))
}

// SetDefaultLogLevel changes the level of the default logger.
func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}

// SetOutput replaces the default logger with one writing JSON to w. Log
// records go to stderr unless changed so command output on stdout stays
// clean.
func SetOutput(w io.Writer) {
	defaultLogger = newLogger(w)
}
