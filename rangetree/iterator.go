package rangetree

import "iter"

// Iterator walks the tree depth-first in pre-order without recursion.
//
// An iterator observes the tree it was created from and must not outlive a
// mutation of it. Once exhausted, Next keeps returning false.
type Iterator struct {
	t     *Tree
	stack []NodeIndex
}

// Iterator returns a fresh pre-order iterator starting at the root.
func (t *Tree) Iterator() *Iterator {
	stack := make([]NodeIndex, 1, 2*int(t.Height())+2)
	stack[0] = t.root
	return &Iterator{t: t, stack: stack}
}

// NextIndex returns the handle of the next node in pre-order.
func (it *Iterator) NextIndex() (NodeIndex, bool) {
	if len(it.stack) == 0 {
		return InvalidNodeIndex, false
	}

	idx := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]

	n := &it.t.nodes[idx]
	if !n.IsLeaf() {
		// Right first so the left child is popped next.
		it.stack = append(it.stack, n.right, n.left)
	}
	return idx, true
}

// Next returns the next node in pre-order.
func (it *Iterator) Next() (*Node, bool) {
	idx, ok := it.NextIndex()
	if !ok {
		return nil, false
	}
	return &it.t.nodes[idx], true
}

// All yields every reachable node in pre-order with its handle.
func (t *Tree) All() iter.Seq2[NodeIndex, *Node] {
	return func(yield func(NodeIndex, *Node) bool) {
		it := t.Iterator()
		for {
			idx, ok := it.NextIndex()
			if !ok || !yield(idx, &t.nodes[idx]) {
				return
			}
		}
	}
}

// Leaves yields the leaves in ascending value order.
func (t *Tree) Leaves() iter.Seq2[NodeIndex, *Node] {
	return func(yield func(NodeIndex, *Node) bool) {
		for idx, n := range t.All() {
			if n.IsLeaf() && !yield(idx, n) {
				return
			}
		}
	}
}
