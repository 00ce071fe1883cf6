package rangetree

// Node is either a leaf or an internal node of the tree.
//
// A leaf has no children and always carries a Range. An internal node has
// exactly two children and a split value: values < split live in the left
// subtree, values >= split in the right one. It carries a Range only while
// its retained copy has not been trimmed.
type Node struct {
	value    float64
	left     NodeIndex
	right    NodeIndex
	maxDepth uint32
	rng      *Range
}

// NewLeaf returns a fresh leaf with an empty range.
func NewLeaf(compressFloats bool) Node {
	return newLeaf(newRange(compressFloats, nil))
}

func newLeaf(r *Range) Node {
	return Node{
		left:  InvalidNodeIndex,
		right: InvalidNodeIndex,
		rng:   r,
	}
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.left == InvalidNodeIndex
}

// HasRange reports whether the node carries a Range. Always true for leaves.
func (n *Node) HasRange() bool {
	return n.rng != nil
}

// Range returns the node's range, or nil for an internal node whose retained
// copy has been trimmed. The pointer is valid until the next mutation of the
// tree and must not be used to modify it.
func (n *Node) Range() *Range {
	return n.rng
}

// MaxDepth returns the height of the subtree rooted at n (0 for a leaf).
func (n *Node) MaxDepth() uint32 {
	return n.maxDepth
}

// SplitValue returns the split value of an internal node, 0 for a leaf.
func (n *Node) SplitValue() float64 {
	if n.IsLeaf() {
		return 0
	}
	return n.value
}

// Left returns the left child, InvalidNodeIndex for a leaf.
func (n *Node) Left() NodeIndex {
	return n.left
}

// Right returns the right child, InvalidNodeIndex for a leaf.
func (n *Node) Right() NodeIndex {
	return n.right
}
