package numtree

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/numtree/rangetree"
)

// Logger wraps slog.Logger with numtree-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithField adds a field name to the logger.
func (l *Logger) WithField(field string) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", field),
	}
}

// WithTreeID adds a tree id to the logger.
func (l *Logger) WithTreeID(id rangetree.TreeID) *Logger {
	return &Logger{
		Logger: l.Logger.With("tree_id", uint32(id)),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, field string, doc uint64, value float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"field", field,
			"doc", doc,
			"value", value,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"field", field,
			"doc", doc,
		)
	}
}

// LogBatchAdd logs a batch add operation.
func (l *Logger) LogBatchAdd(ctx context.Context, field string, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch add completed with failures",
			"field", field,
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.DebugContext(ctx, "batch add completed",
			"field", field,
			"count", count,
		)
	}
}

// LogSplit logs a structural change of a field's tree.
func (l *Logger) LogSplit(ctx context.Context, field string, id rangetree.TreeID, leaves int, height uint32) {
	l.DebugContext(ctx, "range split",
		"field", field,
		"tree_id", uint32(id),
		"leaves", leaves,
		"height", height,
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, doc uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"doc", doc,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"doc", doc,
		)
	}
}

// LogQuery logs a range query.
func (l *Logger) LogQuery(ctx context.Context, field string, hits int, partial bool, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "query failed",
			"field", field,
			"error", err,
		)
	case partial:
		l.WarnContext(ctx, "query returned partial results",
			"field", field,
			"hits", hits,
		)
	default:
		l.DebugContext(ctx, "query completed",
			"field", field,
			"hits", hits,
		)
	}
}

// LogGCBudget logs a field scan that stopped on its GC budget.
func (l *Logger) LogGCBudget(ctx context.Context, field, reason string, visits int64, elapsed time.Duration) {
	l.DebugContext(ctx, "gc scan budget exhausted",
		"field", field,
		"reason", reason,
		"visits", visits,
		"elapsed", elapsed,
	)
}

// LogGC logs a garbage collection pass.
func (l *Logger) LogGC(ctx context.Context, stats GCStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "gc failed",
			"entries_removed", stats.EntriesRemoved,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "gc completed",
		"fields", stats.Fields,
		"nodes_scanned", stats.NodesScanned,
		"entries_removed", stats.EntriesRemoved,
		"bytes_reclaimed", stats.BytesReclaimed,
		"stale", stats.Stale,
		"incomplete", stats.Incomplete,
	)
}
