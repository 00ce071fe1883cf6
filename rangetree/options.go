package rangetree

import "github.com/hupe1980/numtree/internal/cardinality"

type config struct {
	compressFloats bool
	minRangeCard   int
	maxRangeCard   int
	maxRangeSize   int
	maxSplitDepth  int
	newEstimator   func() CardinalityEstimator
}

func defaultConfig() config {
	return config{
		minRangeCard:  MinRangeCardinality,
		maxRangeCard:  MaxRangeCardinality,
		maxRangeSize:  MaxRangeSize,
		maxSplitDepth: DefaultMaxSplitDepth,
		newEstimator: func() CardinalityEstimator {
			return cardinality.New()
		},
	}
}

// Option configures a Tree.
type Option func(*config)

// WithCompressFloats stores values as float32 when the rounding error is
// below the posting compression tolerance.
func WithCompressFloats(enabled bool) Option {
	return func(c *config) {
		c.compressFloats = enabled
	}
}

// WithSplitCardinality sets the split threshold at depth 0 and its cap.
// Non-positive values keep the defaults.
func WithSplitCardinality(minCard, maxCard int) Option {
	return func(c *config) {
		if minCard > 0 {
			c.minRangeCard = minCard
		}
		if maxCard > 0 {
			c.maxRangeCard = maxCard
		}
		if c.maxRangeCard < c.minRangeCard {
			c.maxRangeCard = c.minRangeCard
		}
	}
}

// WithMaxRangeSize sets the entry count that forces a split.
func WithMaxRangeSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRangeSize = n
		}
	}
}

// WithMaxSplitDepth stops splitting leaves at or below the given depth.
func WithMaxSplitDepth(depth int) Option {
	return func(c *config) {
		if depth >= 0 {
			c.maxSplitDepth = depth
		}
	}
}

// WithEstimatorFactory replaces the cardinality estimator used by new ranges.
func WithEstimatorFactory(fn func() CardinalityEstimator) Option {
	return func(c *config) {
		if fn != nil {
			c.newEstimator = fn
		}
	}
}
