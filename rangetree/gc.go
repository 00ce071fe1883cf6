package rangetree

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/numtree/internal/budget"
	"github.com/hupe1980/numtree/internal/posting"
)

// DocTable reports which documents have been deleted.
type DocTable interface {
	IsDeleted(doc DocID) bool
}

// NodeGCDelta describes the postings of one range that can be reclaimed.
// It is produced by a read-only scan and consumed by ApplyGC.
type NodeGCDelta struct {
	// Node is the range-bearing node the delta was computed for.
	Node NodeIndex

	// Revision is the tree revision at scan time.
	Revision uint64

	// Docs holds the documents whose postings are removed.
	Docs *roaring64.Bitmap

	// NumEntries is the number of postings to remove.
	NumEntries int

	// BytesReclaimed is the accounted size of those postings.
	BytesReclaimed int64

	// BoundsChanged reports whether the survivors have tighter bounds.
	// NewMin and NewMax are meaningful only when it is set.
	BoundsChanged bool
	NewMin        float64
	NewMax        float64
}

// GCResult describes the effect of applying one delta.
type GCResult struct {
	EntriesRemoved int
	BytesReclaimed int64
	BoundsChanged  bool

	// Stale is set when the delta no longer matches the tree and was skipped.
	Stale bool
}

// GCStats aggregates the results of a sweep.
type GCStats struct {
	NodesScanned   int
	Deltas         int
	EntriesRemoved int
	BytesReclaimed int64
	BoundsChanged  int
	Stale          int
}

// Add folds r into s.
func (s *GCStats) Add(r GCResult) {
	s.Deltas++
	if r.Stale {
		s.Stale++
		return
	}
	s.EntriesRemoved += r.EntriesRemoved
	s.BytesReclaimed += r.BytesReclaimed
	if r.BoundsChanged {
		s.BoundsChanged++
	}
}

// Merge folds o into s.
func (s *GCStats) Merge(o GCStats) {
	s.NodesScanned += o.NodesScanned
	s.Deltas += o.Deltas
	s.EntriesRemoved += o.EntriesRemoved
	s.BytesReclaimed += o.BytesReclaimed
	s.BoundsChanged += o.BoundsChanged
	s.Stale += o.Stale
}

// ScanNode computes the delta for the range at idx. Postings are collectable
// when they were deleted on arrival or their document is deleted in dt.
// Returns nil when the node has no range or nothing to collect.
func (t *Tree) ScanNode(idx NodeIndex, dt DocTable) *NodeGCDelta {
	r := t.Node(idx).rng
	if r == nil || r.IsEmpty() {
		return nil
	}

	var (
		d      *NodeGCDelta
		lo, hi float64
		alive  bool
	)
	for e := range r.Entries() {
		if e.Deleted || (dt != nil && dt.IsDeleted(e.Doc)) {
			if d == nil {
				d = &NodeGCDelta{
					Node:     idx,
					Revision: t.revision,
					Docs:     roaring64.New(),
				}
			}
			d.Docs.Add(e.Doc)
			d.NumEntries++
			d.BytesReclaimed += posting.EntrySize(e.Value, t.cfg.compressFloats)
			continue
		}
		if !alive {
			lo, hi, alive = e.Value, e.Value, true
			continue
		}
		lo = min(lo, e.Value)
		hi = max(hi, e.Value)
	}

	if d != nil && alive && (lo != r.min || hi != r.max) {
		d.BoundsChanged = true
		d.NewMin, d.NewMax = lo, hi
	}
	return d
}

// ApplyGC compacts the range named by d. A delta whose revision differs from
// the tree's, or whose node no longer carries a range, is skipped as stale.
// Documents in d that are absent from the range are ignored.
func (t *Tree) ApplyGC(d *NodeGCDelta) GCResult {
	if d == nil {
		return GCResult{}
	}
	if d.Revision != t.revision || int(d.Node) >= len(t.nodes) {
		return GCResult{Stale: true}
	}

	n := &t.nodes[d.Node]
	r := n.rng
	if r == nil {
		return GCResult{Stale: true}
	}

	removed, reclaimed := r.postings.Compact(func(e Entry) bool {
		return e.Deleted || d.Docs.Contains(e.Doc)
	})
	if removed == 0 {
		return GCResult{}
	}

	res := GCResult{
		EntriesRemoved: removed,
		BytesReclaimed: reclaimed,
		BoundsChanged:  r.recomputeBounds(),
	}

	t.memUsage -= reclaimed
	if n.IsLeaf() {
		t.numEntries -= removed
	}
	return res
}

// GCCursor keeps the position of an incremental collection across calls.
// A cursor restarts from the root when used with a different tree or after
// the tree's revision changed.
type GCCursor struct {
	treeID   TreeID
	revision uint64
	stack    []NodeIndex
	active   bool
	scanned  int
}

// NewGCCursor returns an idle cursor.
func NewGCCursor() *GCCursor {
	return &GCCursor{}
}

// Reset makes the next collection start from the root.
func (c *GCCursor) Reset() {
	c.active = false
	c.stack = c.stack[:0]
}

// Scanned returns the number of nodes visited through this cursor.
func (c *GCCursor) Scanned() int { return c.scanned }

// Active reports whether a collection is in progress.
func (c *GCCursor) Active() bool { return c.active }

func (c *GCCursor) start(t *Tree) {
	c.treeID = t.id
	c.revision = t.revision
	c.stack = append(c.stack[:0], t.root)
	c.active = true
}

// CollectGC scans range-bearing nodes read-only, resuming where cursor left
// off, until the walk completes or b is exhausted. It returns the deltas
// found in this call and whether the walk finished.
func (t *Tree) CollectGC(cursor *GCCursor, dt DocTable, b *budget.Budget) ([]*NodeGCDelta, bool) {
	if cursor == nil {
		cursor = NewGCCursor()
	}
	if !cursor.active || cursor.treeID != t.id || cursor.revision != t.revision {
		cursor.start(t)
	}

	var deltas []*NodeGCDelta
	for len(cursor.stack) > 0 {
		if !b.Tick() {
			return deltas, false
		}

		idx := cursor.stack[len(cursor.stack)-1]
		cursor.stack = cursor.stack[:len(cursor.stack)-1]
		cursor.scanned++

		n := &t.nodes[idx]
		if n.rng != nil {
			if d := t.ScanNode(idx, dt); d != nil {
				deltas = append(deltas, d)
			}
		}
		if !n.IsLeaf() {
			cursor.stack = append(cursor.stack, n.right, n.left)
		}
	}

	cursor.active = false
	return deltas, true
}

// Sweep collects and applies deltas in one step. It is meant for the single
// mutator; owners that want to scan under a shared lock use CollectGC and
// ApplyGC separately.
func (t *Tree) Sweep(cursor *GCCursor, dt DocTable, b *budget.Budget) (GCStats, bool) {
	if cursor == nil {
		cursor = NewGCCursor()
	}

	before := cursor.Scanned()
	deltas, done := t.CollectGC(cursor, dt, b)

	stats := GCStats{NodesScanned: cursor.Scanned() - before}
	for _, d := range deltas {
		stats.Add(t.ApplyGC(d))
	}
	return stats, done
}
