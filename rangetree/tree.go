package rangetree

import (
	"fmt"
	"math"

	"github.com/hupe1980/numtree/internal/posting"
)

// AddResult describes the effect of a single Add.
type AddResult struct {
	// MemoryDelta is the change in accounted posting memory. It can be
	// negative when a split trims a retained range.
	MemoryDelta int64

	// NumRecords is the number of ranges the posting was written to.
	NumRecords int

	// Changed reports whether a leaf was split.
	Changed bool

	// NumRangesDelta is the change in range-bearing nodes.
	NumRangesDelta int
}

// Tree is a numeric range tree.
// Not safe for concurrent mutation; see the package documentation.
type Tree struct {
	nodes      []Node
	root       NodeIndex
	numLeaves  int
	numEntries int
	numRanges  int
	memUsage   int64
	revision   uint64
	id         TreeID
	cfg        config
}

// New creates a tree holding a single empty root leaf.
func New(opts ...Option) *Tree {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree{
		nodes:     make([]Node, 0, 16),
		id:        NewTreeID(),
		cfg:       cfg,
		numLeaves: 1,
		numRanges: 1,
	}
	t.root = t.alloc(newLeaf(t.newRange()))
	return t
}

func (t *Tree) newRange() *Range {
	return newRange(t.cfg.compressFloats, t.cfg.newEstimator())
}

// alloc appends a node to the arena. Pointers into the arena are invalid
// after a call to alloc.
func (t *Tree) alloc(n Node) NodeIndex {
	if len(t.nodes) >= int(InvalidNodeIndex) {
		panic("rangetree: node arena exhausted")
	}
	idx := NodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return idx
}

// ID returns the tree's process-unique identifier.
func (t *Tree) ID() TreeID { return t.id }

// NumLeaves returns the number of leaves.
func (t *Tree) NumLeaves() int { return t.numLeaves }

// NumEntries returns the number of postings held by the leaves.
func (t *Tree) NumEntries() int { return t.numEntries }

// NumRanges returns the number of range-bearing nodes (leaves plus retained
// internal ranges).
func (t *Tree) NumRanges() int { return t.numRanges }

// NumNodes returns the number of nodes in the arena.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// MemoryUsage returns the accounted posting memory across all ranges.
func (t *Tree) MemoryUsage() int64 { return t.memUsage }

// Revision is incremented by every structural change. NodeIndex values and
// GC deltas obtained at one revision must not be used at another.
func (t *Tree) Revision() uint64 { return t.revision }

// CompressFloats reports whether postings store compressed values.
func (t *Tree) CompressFloats() bool { return t.cfg.compressFloats }

// RootIndex returns the handle of the root node.
func (t *Tree) RootIndex() NodeIndex { return t.root }

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.nodes[t.root] }

// Height returns the height of the tree (0 for a single leaf).
func (t *Tree) Height() uint32 { return t.nodes[t.root].maxDepth }

// Node returns the node at idx. Panics if idx is out of range.
func (t *Tree) Node(idx NodeIndex) *Node {
	if int(idx) >= len(t.nodes) {
		panic(fmt.Sprintf("rangetree: node index %d out of range [0, %d)", idx, len(t.nodes)))
	}
	return &t.nodes[idx]
}

// SplitCardinality returns the split threshold of a leaf at depth.
// The threshold grows fourfold per level up to the configured cap.
func (t *Tree) SplitCardinality(depth int) int {
	shift := 2 * depth
	if shift >= 31 {
		return t.cfg.maxRangeCard
	}
	c := t.cfg.minRangeCard << shift
	if c <= 0 || c > t.cfg.maxRangeCard {
		return t.cfg.maxRangeCard
	}
	return c
}

// Add inserts (doc, value) and splits and rebalances as needed.
//
// deleted marks a posting whose document is already gone; it is stored for
// accounting and collected by GC but never matched. Internal nodes with a
// subtree height <= maxDepthRange retain a copy of their postings.
// maxDepthRange does not gate splitting: a leaf splits on its distinct value
// count (see SplitCardinality) and size alone, down to the depth set by
// WithMaxSplitDepth.
//
// value must not be NaN; ±Inf are ordered normally.
func (t *Tree) Add(doc DocID, value float64, deleted bool, maxDepthRange int) AddResult {
	if math.IsNaN(value) {
		panic("rangetree: NaN value")
	}

	stored, _ := posting.Quantize(value, t.cfg.compressFloats)

	var rv AddResult
	t.root = t.add(t.root, 0, doc, stored, deleted, maxDepthRange, &rv)

	t.numEntries++
	t.numRanges += rv.NumRangesDelta
	t.memUsage += rv.MemoryDelta
	if rv.Changed {
		t.numLeaves++
		t.revision++
	}
	return rv
}

// add inserts into the subtree rooted at idx and returns the subtree's
// (possibly new) root after rebalancing.
func (t *Tree) add(idx NodeIndex, depth int, doc DocID, v float64, deleted bool, maxDepthRange int, rv *AddResult) NodeIndex {
	n := &t.nodes[idx]

	if n.IsLeaf() {
		rv.MemoryDelta += n.rng.add(doc, v, deleted)
		rv.NumRecords++
		if t.shouldSplit(n.rng, depth) {
			t.split(idx, maxDepthRange, rv)
		}
		return idx
	}

	if n.rng != nil {
		rv.MemoryDelta += n.rng.add(doc, v, deleted)
		rv.NumRecords++
	}

	// n is invalid once the recursion allocates.
	if v < n.value {
		left := t.add(n.left, depth+1, doc, v, deleted, maxDepthRange, rv)
		t.nodes[idx].left = left
	} else {
		right := t.add(n.right, depth+1, doc, v, deleted, maxDepthRange, rv)
		t.nodes[idx].right = right
	}

	if !rv.Changed {
		return idx
	}
	return t.rebalance(idx, maxDepthRange, rv)
}

func (t *Tree) shouldSplit(r *Range, depth int) bool {
	if depth >= t.cfg.maxSplitDepth {
		return false
	}
	card := r.Cardinality()
	if card > uint64(t.SplitCardinality(depth)) {
		return true
	}
	return r.NumEntries() > t.cfg.maxRangeSize && card > 1
}

// split turns the leaf at idx into an internal node with two fresh leaves,
// partitioning the postings at the median distinct value.
func (t *Tree) split(idx NodeIndex, maxDepthRange int, rv *AddResult) {
	old := t.nodes[idx].rng
	splitValue, ok := old.splitValue()
	if !ok {
		return
	}

	left, right := t.newRange(), t.newRange()
	for e := range old.Entries() {
		if e.Value < splitValue {
			rv.MemoryDelta += left.add(e.Doc, e.Value, e.Deleted)
		} else {
			rv.MemoryDelta += right.add(e.Doc, e.Value, e.Deleted)
		}
	}

	li := t.alloc(newLeaf(left))
	ri := t.alloc(newLeaf(right))

	n := &t.nodes[idx]
	n.value = splitValue
	n.left = li
	n.right = ri
	n.maxDepth = 1

	rv.Changed = true
	rv.NumRangesDelta += 2
	t.trim(idx, maxDepthRange, rv)
}

// trim drops the retained range of an internal node taller than maxDepthRange.
func (t *Tree) trim(idx NodeIndex, maxDepthRange int, rv *AddResult) {
	n := &t.nodes[idx]
	if n.IsLeaf() || n.rng == nil {
		return
	}
	if int64(n.maxDepth) > int64(maxDepthRange) {
		t.dropRange(idx, rv)
	}
}

func (t *Tree) dropRange(idx NodeIndex, rv *AddResult) {
	n := &t.nodes[idx]
	if n.IsLeaf() || n.rng == nil {
		return
	}
	rv.MemoryDelta -= n.rng.MemoryUsage()
	rv.NumRangesDelta--
	n.rng = nil
}

func (t *Tree) height(idx NodeIndex) int {
	return int(t.nodes[idx].maxDepth)
}

func (t *Tree) updateHeight(idx NodeIndex) {
	n := &t.nodes[idx]
	n.maxDepth = uint32(1 + max(t.height(n.left), t.height(n.right)))
}

// balance returns height(left) - height(right), 0 for a leaf.
func (t *Tree) balance(idx NodeIndex) int {
	n := &t.nodes[idx]
	if n.IsLeaf() {
		return 0
	}
	return t.height(n.left) - t.height(n.right)
}

// rebalance restores the AVL property at idx and returns the subtree root.
func (t *Tree) rebalance(idx NodeIndex, maxDepthRange int, rv *AddResult) NodeIndex {
	t.updateHeight(idx)

	switch bal := t.balance(idx); {
	case bal > 1:
		if left := t.nodes[idx].left; t.balance(left) < 0 {
			t.nodes[idx].left = t.rotateLeft(left, rv)
		}
		idx = t.rotateRight(idx, rv)
	case bal < -1:
		if right := t.nodes[idx].right; t.balance(right) > 0 {
			t.nodes[idx].right = t.rotateRight(right, rv)
		}
		idx = t.rotateLeft(idx, rv)
	}

	t.trim(idx, maxDepthRange, rv)
	return idx
}

// rotateRight lifts the left child of idx and returns it.
//
//	    idx            l
//	   /   \          / \
//	  l     c   =>   a   idx
//	 / \                /   \
//	a   b              b     c
//
// Both nodes change their subtree contents, so their retained ranges are
// dropped.
func (t *Tree) rotateRight(idx NodeIndex, rv *AddResult) NodeIndex {
	l := t.nodes[idx].left
	t.nodes[idx].left = t.nodes[l].right
	t.nodes[l].right = idx

	t.updateHeight(idx)
	t.updateHeight(l)
	t.dropRange(idx, rv)
	t.dropRange(l, rv)
	t.revision++
	return l
}

// rotateLeft is the mirror of rotateRight.
func (t *Tree) rotateLeft(idx NodeIndex, rv *AddResult) NodeIndex {
	r := t.nodes[idx].right
	t.nodes[idx].right = t.nodes[r].left
	t.nodes[r].left = idx

	t.updateHeight(idx)
	t.updateHeight(r)
	t.dropRange(idx, rv)
	t.dropRange(r, rv)
	t.revision++
	return r
}
