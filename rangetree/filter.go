package rangetree

import "math"

// Filter describes a numeric range predicate.
//
// Only Min, Max and the inclusivity flags drive tree pruning. Ascending,
// Limit, Offset, Field and Geo are carried for the caller that consumes the
// candidate ranges.
type Filter struct {
	Min          float64
	Max          float64
	MinInclusive bool
	MaxInclusive bool

	Ascending bool
	Limit     int
	Offset    int

	Field string
	Geo   any
}

// NewFilter returns an ascending filter over the closed interval [min, max].
func NewFilter(min, max float64) *Filter {
	return &Filter{
		Min:          min,
		Max:          max,
		MinInclusive: true,
		MaxInclusive: true,
		Ascending:    true,
	}
}

// Valid reports whether the bounds are comparable (not NaN).
func (f *Filter) Valid() bool {
	return !math.IsNaN(f.Min) && !math.IsNaN(f.Max)
}

// Empty reports whether no value can satisfy the filter.
func (f *Filter) Empty() bool {
	if !f.Valid() {
		return true
	}
	if f.Min < f.Max {
		return false
	}
	return f.Min > f.Max || !f.MinInclusive || !f.MaxInclusive
}

// Match reports whether v satisfies the bound predicate.
func (f *Filter) Match(v float64) bool {
	if v < f.Min || (v == f.Min && !f.MinInclusive) {
		return false
	}
	if v > f.Max || (v == f.Max && !f.MaxInclusive) {
		return false
	}
	return !math.IsNaN(v)
}

// Overlaps reports whether some value in [lo, hi] satisfies the filter.
func (f *Filter) Overlaps(lo, hi float64) bool {
	if lo > hi || f.Empty() {
		return false
	}
	if hi < f.Min || (hi == f.Min && !f.MinInclusive) {
		return false
	}
	if lo > f.Max || (lo == f.Max && !f.MaxInclusive) {
		return false
	}
	return true
}

// Contains reports whether every value in [lo, hi] satisfies the filter.
func (f *Filter) Contains(lo, hi float64) bool {
	if lo > hi {
		return false
	}
	return f.Match(lo) && f.Match(hi)
}

// reachesBelow reports whether some matching value is < split.
func (f *Filter) reachesBelow(split float64) bool {
	return f.Min < split
}

// reachesAtOrAbove reports whether some matching value is >= split.
func (f *Filter) reachesAtOrAbove(split float64) bool {
	return f.Max > split || (f.Max == split && f.MaxInclusive)
}
