package rangetree

import (
	"slices"

	"github.com/hupe1980/numtree/internal/budget"
)

// Find returns the candidate ranges that may hold values matching f, in
// ascending value order (descending when f.Ascending is false).
//
// Candidates are never missed but may contain non-matching entries; use
// Range.Match to filter them exactly. Find does not modify the tree.
func (t *Tree) Find(f *Filter) []*Range {
	out, _ := t.FindBudget(f, nil)
	return out
}

// FindBudget is Find bounded by b. Every visited node costs one tick; when the
// budget is exhausted the walk stops and complete is false. A nil budget is
// unlimited.
func (t *Tree) FindBudget(f *Filter, b *budget.Budget) (ranges []*Range, complete bool) {
	if f == nil || f.Empty() {
		return nil, true
	}

	// Pre-order walk, right pushed before left, yields ranges left to right.
	stack := make([]NodeIndex, 0, 2*int(t.Height())+2)
	stack = append(stack, t.root)
	complete = true

walk:
	for len(stack) > 0 {
		if !b.Tick() {
			complete = false
			break walk
		}

		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[idx]

		if n.IsLeaf() {
			if !n.rng.IsEmpty() && f.Overlaps(n.rng.min, n.rng.max) {
				ranges = append(ranges, n.rng)
			}
			continue
		}

		if r := n.rng; r != nil {
			if r.IsEmpty() || !f.Overlaps(r.min, r.max) {
				continue
			}
			if f.Contains(r.min, r.max) {
				ranges = append(ranges, r)
				continue
			}
		}

		if f.reachesAtOrAbove(n.value) {
			stack = append(stack, n.right)
		}
		if f.reachesBelow(n.value) {
			stack = append(stack, n.left)
		}
	}

	if !f.Ascending {
		slices.Reverse(ranges)
	}
	return ranges, complete
}
