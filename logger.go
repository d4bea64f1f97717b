package pixmatch

import (
	"context"
	"log/slog"
	"os"

	"github.com/pixmatch/pixmatch/model"
)

// Logger wraps slog.Logger with pixmatch-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithArtifact adds the cache artifact name to the logger.
func (l *Logger) WithArtifact(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("artifact", name),
	}
}

// WithQuery adds a query identifier to the logger.
func (l *Logger) WithQuery(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("query", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogBuild logs a cache build operation.
func (l *Logger) LogBuild(ctx context.Context, entries, skipped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache build failed",
			"error", err,
		)
	} else if skipped > 0 {
		l.WarnContext(ctx, "cache build completed with skips",
			"entries", entries,
			"skipped", skipped,
		)
	} else {
		l.InfoContext(ctx, "cache build completed",
			"entries", entries,
		)
	}
}

// LogMatch logs a match search operation.
func (l *Logger) LogMatch(ctx context.Context, m model.Match, found bool, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "match search failed",
			"error", err,
		)
	case found:
		l.DebugContext(ctx, "match found",
			"ref", m.Ref,
			"inliers", m.Inliers,
		)
	default:
		l.DebugContext(ctx, "no match")
	}
}

// LogArtifact logs a cache artifact save or load operation.
func (l *Logger) LogArtifact(ctx context.Context, op, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact "+op+" failed",
			"artifact", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "artifact "+op+" completed",
			"artifact", name,
		)
	}
}
