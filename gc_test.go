package numtree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCField_RateLimitErrorRestartsScan(t *testing.T) {
	ctx := context.Background()

	build := func(opts ...Option) *Index {
		ix := New(opts...)
		t.Cleanup(func() { _ = ix.Close() })
		for i := 1; i <= 1000; i++ {
			require.NoError(t, ix.Add(ctx, "a", uint64(i), float64(i)))
			require.NoError(t, ix.Delete(ctx, uint64(i)))
		}
		return ix
	}

	nodes := build().Stats().Fields["a"].NumNodes
	require.GreaterOrEqual(t, nodes, 5)

	// The scan stops one node short and the second delta cannot get a token
	// before the deadline.
	ix := build(
		WithGCRate(1),
		WithGCBudget(BudgetConfig{MaxVisits: int64(nodes - 1)}),
	)

	gctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	stats, err := ix.GC(gctx)
	require.Error(t, err)
	assert.Equal(t, 1, stats.Deltas)
	assert.Equal(t, 1, stats.Incomplete)

	f, ok := ix.field("a")
	require.True(t, ok)
	assert.False(t, f.cursor.Active(), "next pass starts from the root")
}
