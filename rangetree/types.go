package rangetree

import (
	"sync/atomic"

	"github.com/hupe1980/numtree/internal/posting"
)

// DocID is a 64-bit document identifier.
type DocID = uint64

// Entry is a single (document, value) posting.
type Entry = posting.Entry

// NodeIndex is a handle into a tree's node arena.
// It is meaningful only for the tree that produced it.
type NodeIndex uint32

// InvalidNodeIndex marks an absent child.
const InvalidNodeIndex = ^NodeIndex(0)

// TreeID identifies a tree instance within the process.
type TreeID uint32

var lastTreeID atomic.Uint32

// NewTreeID allocates the next process-wide tree identifier. The first id is 1.
func NewTreeID() TreeID {
	return TreeID(lastTreeID.Add(1))
}

// CardinalityEstimator approximates the number of distinct 64-bit patterns
// inserted. Estimates never decrease.
type CardinalityEstimator interface {
	Insert(bits uint64)
	Estimate() uint64
}

const (
	// MinRangeCardinality is the split threshold of a leaf at depth 0.
	MinRangeCardinality = 16

	// MaxRangeCardinality caps the split threshold at any depth.
	MaxRangeCardinality = 2500

	// MaxRangeSize is the entry count above which a leaf splits regardless of
	// its threshold, as long as it holds more than one distinct value.
	MaxRangeSize = 10000

	// DefaultMaxSplitDepth is the depth at or below which leaves stop splitting.
	DefaultMaxSplitDepth = 64
)
