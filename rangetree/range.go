package rangetree

import (
	"iter"
	"math"

	"github.com/hupe1980/numtree/internal/cardinality"
	"github.com/hupe1980/numtree/internal/posting"
)

// Range is the payload of a leaf (or a retained internal node): the observed
// value bounds, a cardinality estimator and the posting list.
//
// A fresh Range has the empty bounds [+Inf, -Inf] and widens as values
// arrive. Which values a leaf receives is decided by the split values of its
// ancestors, not by its bounds.
type Range struct {
	min      float64
	max      float64
	card     CardinalityEstimator
	postings *posting.List
}

func newRange(compress bool, est CardinalityEstimator) *Range {
	if est == nil {
		est = cardinality.New()
	}
	return &Range{
		min:      math.Inf(1),
		max:      math.Inf(-1),
		card:     est,
		postings: posting.New(compress),
	}
}

// add appends a posting for an already quantized value and returns its
// accounted size.
func (r *Range) add(doc DocID, v float64, deleted bool) int64 {
	_, size := r.postings.Add(doc, v, deleted)
	r.card.Insert(math.Float64bits(v))
	if v < r.min {
		r.min = v
	}
	if v > r.max {
		r.max = v
	}
	return size
}

// Min returns the smallest observed value (+Inf when empty).
func (r *Range) Min() float64 { return r.min }

// Max returns the largest observed value (-Inf when empty).
func (r *Range) Max() float64 { return r.max }

// IsEmpty reports whether the range holds no entries.
func (r *Range) IsEmpty() bool { return r.postings.Len() == 0 }

// Cardinality returns the estimated number of distinct values ever inserted.
func (r *Range) Cardinality() uint64 { return r.card.Estimate() }

// NumEntries returns the number of postings, including deleted-on-arrival ones.
func (r *Range) NumEntries() int { return r.postings.Len() }

// NumDeleted returns the number of deleted-on-arrival postings.
func (r *Range) NumDeleted() int { return r.postings.NumDeleted() }

// MemoryUsage returns the accounted size of the postings.
func (r *Range) MemoryUsage() int64 { return r.postings.Bytes() }

// Entries iterates over all postings in insertion order.
func (r *Range) Entries() iter.Seq[Entry] {
	return r.postings.All()
}

// Match iterates over postings whose value satisfies f, skipping entries
// that were deleted on arrival.
func (r *Range) Match(f *Filter) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for e := range r.postings.All() {
			if e.Deleted || !f.Match(e.Value) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// splitValue returns the median distinct value. ok is false when the range
// has fewer than two distinct values and cannot be split.
func (r *Range) splitValue() (float64, bool) {
	distinct := r.postings.DistinctValues()
	if len(distinct) < 2 {
		return 0, false
	}
	return distinct[len(distinct)/2], true
}

// recomputeBounds tightens the bounds to the surviving entries.
// Bounds of an emptied range are left untouched.
func (r *Range) recomputeBounds() bool {
	lo, hi, ok := r.postings.Bounds()
	if !ok || (lo == r.min && hi == r.max) {
		return false
	}
	r.min, r.max = lo, hi
	return true
}
