package rangetree

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/numtree/testutil"
)

// checkInvariants verifies the structural properties every tree must hold
// after any sequence of adds and GC passes.
func checkInvariants(t *testing.T, tree *Tree) {
	t.Helper()

	var (
		leaves, internals, ranges int
		entries                   int
		mem                       int64
	)

	var walk func(idx NodeIndex, lo, hi float64) int
	walk = func(idx NodeIndex, lo, hi float64) int {
		n := tree.Node(idx)
		if n.HasRange() {
			ranges++
			mem += n.Range().MemoryUsage()
		}

		if n.IsLeaf() {
			leaves++
			require.True(t, n.HasRange(), "leaf %d without range", idx)
			assert.Equal(t, InvalidNodeIndex, n.Right())
			assert.Zero(t, n.MaxDepth())
			assert.Zero(t, n.SplitValue())
			entries += n.Range().NumEntries()
			for e := range n.Range().Entries() {
				assert.GreaterOrEqual(t, e.Value, lo, "leaf %d value below routing bound", idx)
				if !math.IsInf(hi, 1) {
					assert.Less(t, e.Value, hi, "leaf %d value above routing bound", idx)
				}
			}
			return 0
		}

		internals++
		require.NotEqual(t, InvalidNodeIndex, n.Right(), "internal %d missing child", idx)
		hl := walk(n.Left(), lo, min(hi, n.SplitValue()))
		hr := walk(n.Right(), max(lo, n.SplitValue()), hi)

		assert.LessOrEqual(t, abs(hl-hr), 1, "node %d unbalanced: %d vs %d", idx, hl, hr)
		h := 1 + max(hl, hr)
		assert.Equal(t, uint32(h), n.MaxDepth(), "node %d height", idx)
		return h
	}
	walk(tree.RootIndex(), math.Inf(-1), math.Inf(1))

	assert.Equal(t, internals+1, leaves, "leaves == internals + 1")
	assert.Equal(t, tree.NumLeaves(), leaves)
	assert.Equal(t, tree.NumNodes(), leaves+internals)
	assert.Equal(t, tree.NumRanges(), ranges)
	assert.Equal(t, tree.NumEntries(), entries)
	assert.Equal(t, tree.MemoryUsage(), mem)

	// In-order leaves partition the line.
	var prev *Range
	for _, n := range tree.Leaves() {
		r := n.Range()
		if r.IsEmpty() {
			continue
		}
		assert.LessOrEqual(t, r.Min(), r.Max())
		if prev != nil {
			assert.LessOrEqual(t, prev.Max(), r.Min())
		}
		prev = r
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// query runs Find and filters the candidates exactly, the way an owning
// index does.
func query(tree *Tree, f *Filter, dt DocTable) []uint64 {
	var docs []uint64
	for _, r := range tree.Find(f) {
		for e := range r.Match(f) {
			if dt != nil && dt.IsDeleted(e.Doc) {
				continue
			}
			docs = append(docs, e.Doc)
		}
	}
	slices.Sort(docs)
	return slices.Compact(docs)
}

func load(tree *Tree, ps []testutil.Posting, maxDepthRange int) {
	for _, p := range ps {
		tree.Add(p.Doc, p.Value, false, maxDepthRange)
	}
}

func docsOf(r *Range) []uint64 {
	var docs []uint64
	for e := range r.Entries() {
		docs = append(docs, e.Doc)
	}
	slices.Sort(docs)
	return docs
}
