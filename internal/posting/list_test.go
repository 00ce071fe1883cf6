package posting

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		name           string
		value          float64
		compress       bool
		wantCompressed bool
	}{
		{"disabled", 1.5, false, false},
		{"exact float32", 1.5, true, true},
		{"small rounding", 3.14159265358979, true, true},
		{"large magnitude", 1e300, true, false},
		{"precise large", 123456789.123, true, false},
		{"positive infinity", math.Inf(1), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, compressed := Quantize(tt.value, tt.compress)
			assert.Equal(t, tt.wantCompressed, compressed)
			if !compressed {
				assert.Equal(t, tt.value, stored)
			} else {
				assert.Less(t, math.Abs(stored-tt.value), CompressTolerance)
			}
		})
	}
}

func TestQuantize_Idempotent(t *testing.T) {
	for _, v := range []float64{0.1, 2.71828, -42.4242, 1e6 + 0.3} {
		once, _ := Quantize(v, true)
		twice, _ := Quantize(once, true)
		assert.Equal(t, once, twice)
	}
}

func TestList_AddAndAccounting(t *testing.T) {
	l := New(false)
	_, size := l.Add(1, 10, false)
	assert.Equal(t, int64(DocBytes+Float64Bytes), size)

	l.Add(2, 20, true)
	l.Add(3, 30, false)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 1, l.NumDeleted())
	assert.Equal(t, int64(3*(DocBytes+Float64Bytes)), l.Bytes())
	assert.Equal(t, Entry{Doc: 2, Value: 20, Deleted: true}, slices.Collect(l.All())[1])

	c := New(true)
	_, size = c.Add(1, 0.5, false)
	assert.Equal(t, int64(DocBytes+Float32Bytes), size)
}

func TestList_Bounds(t *testing.T) {
	l := New(false)
	_, _, ok := l.Bounds()
	assert.False(t, ok)

	for i, v := range []float64{5, -3, 12, 7} {
		l.Add(uint64(i), v, false)
	}
	lo, hi, ok := l.Bounds()
	require.True(t, ok)
	assert.Equal(t, -3.0, lo)
	assert.Equal(t, 12.0, hi)
}

func TestList_DistinctValues(t *testing.T) {
	l := New(false)
	for i, v := range []float64{3, 1, 3, 2, 1, 3} {
		l.Add(uint64(i), v, false)
	}
	assert.Equal(t, []float64{1, 2, 3}, l.DistinctValues())
}

func TestList_Compact(t *testing.T) {
	l := New(false)
	for i := uint64(1); i <= 6; i++ {
		l.Add(i, float64(i), i == 4)
	}

	removed, reclaimed := l.Compact(func(e Entry) bool { return e.Doc%2 == 0 })
	assert.Equal(t, 3, removed)
	assert.Equal(t, int64(3*(DocBytes+Float64Bytes)), reclaimed)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 0, l.NumDeleted())

	var docs []uint64
	for e := range l.All() {
		docs = append(docs, e.Doc)
	}
	assert.Equal(t, []uint64{1, 3, 5}, docs)

	removed, reclaimed = l.Compact(func(Entry) bool { return false })
	assert.Zero(t, removed)
	assert.Zero(t, reclaimed)
}

func TestList_CompactReleasesMemory(t *testing.T) {
	l := New(false)
	for i := uint64(0); i < 1000; i++ {
		l.Add(i, float64(i), false)
	}
	l.Compact(func(e Entry) bool { return e.Doc >= 10 })

	assert.Equal(t, 10, l.Len())
	assert.LessOrEqual(t, cap(l.entries), 64)

	var values []float64
	for e := range l.All() {
		values = append(values, e.Value)
	}
	assert.True(t, slices.IsSorted(values))
}
