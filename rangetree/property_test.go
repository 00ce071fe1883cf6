package rangetree

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/numtree/internal/doctable"
	"github.com/hupe1980/numtree/internal/posting"
	"github.com/hupe1980/numtree/testutil"
)

func randomFilter(rng *testutil.RNG, lo, hi float64) *Filter {
	a, b := rng.Float64Range(lo, hi), rng.Float64Range(lo, hi)
	if a > b {
		a, b = b, a
	}
	f := &Filter{
		Min:          a,
		Max:          b,
		MinInclusive: rng.Intn(2) == 0,
		MaxInclusive: rng.Intn(2) == 0,
		Ascending:    rng.Intn(2) == 0,
	}
	switch rng.Intn(8) {
	case 0:
		f.Min = math.Inf(-1)
	case 1:
		f.Max = math.Inf(1)
	}
	return f
}

func TestProperty_RangeCorrectness(t *testing.T) {
	tests := []struct {
		name          string
		opts          []Option
		maxDepthRange int
		workload      func(rng *testutil.RNG) []testutil.Posting
	}{
		{
			name:     "continuous",
			opts:     []Option{WithSplitCardinality(2, 8)},
			workload: func(rng *testutil.RNG) []testutil.Posting { return rng.Postings(2000, 0, -500, 500) },
		},
		{
			name:     "few distinct values",
			opts:     []Option{WithSplitCardinality(2, 8), WithMaxRangeSize(64)},
			workload: func(rng *testutil.RNG) []testutil.Posting { return rng.Postings(2000, 12, -500, 500) },
		},
		{
			name:     "zipf skew",
			opts:     []Option{WithSplitCardinality(4, 16)},
			workload: func(rng *testutil.RNG) []testutil.Posting { return rng.ZipfPostings(3000, 200, 1.2, -500, 500) },
		},
		{
			name:          "retained ranges",
			opts:          []Option{WithSplitCardinality(2, 8)},
			maxDepthRange: 2,
			workload:      func(rng *testutil.RNG) []testutil.Posting { return rng.Postings(2000, 300, -500, 500) },
		},
		{
			name:     "default thresholds",
			workload: func(rng *testutil.RNG) []testutil.Posting { return rng.Postings(20000, 0, -500, 500) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := testutil.NewRNG(4711)
			ps := tt.workload(rng)

			tree := New(tt.opts...)
			load(tree, ps, tt.maxDepthRange)
			checkInvariants(t, tree)

			dt := doctable.New()
			for _, p := range ps {
				if rng.Intn(10) == 0 {
					dt.MarkDeleted(p.Doc)
				}
			}
			isDeleted := func(doc uint64) bool { return dt.IsDeleted(doc) }

			for i := range 200 {
				f := randomFilter(rng, -550, 550)
				want := testutil.BruteForceRange(ps, isDeleted, f.Match)
				assert.Equal(t, want, query(tree, f, dt), "filter %d: %+v", i, *f)
			}

			_, done := tree.Sweep(nil, dt, nil)
			assert.True(t, done)
			checkInvariants(t, tree)

			for i := range 100 {
				f := randomFilter(rng, -550, 550)
				want := testutil.BruteForceRange(ps, isDeleted, f.Match)
				assert.Equal(t, want, query(tree, f, nil), "after gc, filter %d: %+v", i, *f)
			}
		})
	}
}

func TestProperty_InsertionOrderIndependent(t *testing.T) {
	rng := testutil.NewRNG(99)
	ps := rng.Postings(1500, 0, 0, 1000)

	for round := range 3 {
		t.Run(fmt.Sprintf("shuffle-%d", round), func(t *testing.T) {
			rng.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })

			tree := New(WithSplitCardinality(2, 8))
			load(tree, ps, 0)
			checkInvariants(t, tree)

			for range 50 {
				f := randomFilter(rng, -10, 1010)
				assert.Equal(t, testutil.BruteForceRange(ps, nil, f.Match), query(tree, f, nil))
			}
		})
	}
}

func TestProperty_CompressedValues(t *testing.T) {
	rng := testutil.NewRNG(7)
	ps := rng.Postings(2000, 0, -100, 100)

	tree := New(WithCompressFloats(true), WithSplitCardinality(2, 8))
	load(tree, ps, 0)
	checkInvariants(t, tree)

	// Compare against the values as stored.
	stored := make([]testutil.Posting, len(ps))
	for i, p := range ps {
		v, _ := posting.Quantize(p.Value, true)
		stored[i] = testutil.Posting{Doc: p.Doc, Value: v}
	}

	for range 100 {
		f := randomFilter(rng, -110, 110)
		assert.Equal(t, testutil.BruteForceRange(stored, nil, f.Match), query(tree, f, nil))
	}
}
