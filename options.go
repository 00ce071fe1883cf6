package numtree

import (
	"log/slog"
	"time"

	"github.com/hupe1980/numtree/internal/budget"
	"github.com/hupe1980/numtree/rangetree"
)

// BudgetConfig bounds a tree walk by wall-clock time and visited nodes.
// Zero fields are unlimited.
type BudgetConfig = budget.Config

// DefaultGCBudget bounds the scan phase of a single GC pass.
var DefaultGCBudget = BudgetConfig{
	MaxDuration: 50 * time.Millisecond,
}

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	treeOptions      []rangetree.Option
	compressFloats   bool
	maxDepthRange    int
	memoryLimit      int64
	gcInterval       time.Duration
	gcBudget         BudgetConfig
	gcWorkers        int64
	gcRate           float64
	queryBudget      BudgetConfig
}

// Option configures an Index.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &numtree.BasicMetricsCollector{}
//	ix := numtree.New(numtree.WithMetricsCollector(metrics))
//	// ... use ix ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, splits: %d\n", stats.AddCount, stats.SplitCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
//	logger := numtree.NewJSONLogger(slog.LevelInfo)
//	ix := numtree.New(numtree.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCompressFloats stores values as float32 when the rounding error is
// below 0.01. Queries then compare against the stored values.
func WithCompressFloats(enabled bool) Option {
	return func(o *options) {
		o.compressFloats = enabled
	}
}

// WithMaxDepthRange keeps a copy of the postings on internal nodes whose
// subtree height is at most depth. Wide queries that cover such a node read
// one range instead of walking to its leaves, at the cost of memory.
// 0 (the default) keeps postings on leaves only.
func WithMaxDepthRange(depth int) Option {
	return func(o *options) {
		if depth >= 0 {
			o.maxDepthRange = depth
		}
	}
}

// WithTreeOptions passes tuning options to every field tree.
func WithTreeOptions(opts ...rangetree.Option) Option {
	return func(o *options) {
		o.treeOptions = append(o.treeOptions, opts...)
	}
}

// WithMemoryLimit rejects adds once posting memory reaches limit bytes.
// 0 disables the limit.
func WithMemoryLimit(limit int64) Option {
	return func(o *options) {
		o.memoryLimit = limit
	}
}

// WithGCInterval sets the period of the background GC loop started by
// StartGC.
func WithGCInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.gcInterval = d
		}
	}
}

// WithGCBudget bounds the scan phase of each GC pass. The visit limit is
// divided evenly across fields. A field that runs out of budget resumes where
// it stopped on the next GC call.
func WithGCBudget(cfg BudgetConfig) Option {
	return func(o *options) {
		o.gcBudget = cfg
	}
}

// WithGCWorkers sets how many fields are collected concurrently.
func WithGCWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.gcWorkers = int64(n)
		}
	}
}

// WithGCRate limits the number of GC deltas applied per second across all
// fields. 0 means unlimited.
func WithGCRate(deltasPerSec float64) Option {
	return func(o *options) {
		if deltasPerSec >= 0 {
			o.gcRate = deltasPerSec
		}
	}
}

// WithQueryBudget bounds the tree walk of every query. Queries that exceed it
// return partial results. A context deadline tightens it further.
func WithQueryBudget(cfg BudgetConfig) Option {
	return func(o *options) {
		o.queryBudget = cfg
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		gcInterval:       time.Second,
		gcBudget:         DefaultGCBudget,
		gcWorkers:        1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
