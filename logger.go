package facetcount

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with facetcount-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithFacet adds a facet name field to the logger.
func (l *Logger) WithFacet(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("facet", name),
	}
}

// WithSegment adds a segment id field to the logger.
func (l *Logger) WithSegment(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", id),
	}
}

// LogFacet logs a facet computation.
func (l *Logger) LogFacet(ctx context.Context, name, strategy string, count uint64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "facet failed",
			"facet", name,
			"strategy", strategy,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "facet completed",
			"facet", name,
			"strategy", strategy,
			"count", count,
			"elapsed", elapsed,
		)
	}
}

// LogFallback logs a global count that fell back to segment scanning.
func (l *Logger) LogFallback(ctx context.Context, name string) {
	l.WarnContext(ctx, "global facet count unavailable, used segment scan",
		"facet", name,
	)
}

// LogLoad logs loading segments from storage.
func (l *Logger) LogLoad(ctx context.Context, prefix string, segments int, docs uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "segment load failed",
			"prefix", prefix,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "segments loaded",
			"prefix", prefix,
			"segments", segments,
			"docs", docs,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, segment uint64, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"segment", segment,
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"segment", segment,
			"rows", rows,
		)
	}
}
