// Package rangetree implements the numeric range tree: an adaptively
// splitting, height-balanced binary tree whose leaves own disjoint intervals
// of numeric values.
//
// # Architecture
//
//	             ┌────────────── Tree ──────────────┐
//	             │ arena []Node     root NodeIndex  │
//	             └──────────────────────────────────┘
//	                           │
//	                 Internal{split=50, h=2}
//	                 /                     \
//	     Internal{split=20, h=1}          Leaf[50, 97]
//	      /               \
//	 Leaf[1, 19]      Leaf[20, 48]
//
// Nodes live in a flat arena and reference each other through NodeIndex
// handles. Every leaf carries a Range: observed bounds, a cardinality
// sketch and a posting list of (document, value) entries.
//
// # Insertion
//
// Add routes a value to its leaf (left when value < split, right otherwise),
// appends the posting and feeds the sketch. A leaf whose estimated distinct
// count exceeds a depth-dependent threshold is split at the median of its
// distinct values. A split is followed by AVL rebalancing of the ancestor
// chain, so for every internal node the child heights differ by at most one.
//
// Internal nodes whose subtree height is within the caller's maxDepthRange
// keep a retained copy of their subtree's postings. Find returns such a
// range directly when the filter covers it entirely, saving the walk to the
// leaves. Rotations and growth beyond maxDepthRange trim the copy.
//
// # Queries
//
// Find prunes by split values and range bounds and returns candidate ranges
// in ascending value order. Entries inside a candidate are filtered exactly
// with Range.Match.
//
// # Garbage Collection
//
// GC is two-phase. ScanNode (or the incremental CollectGC) is read-only and
// produces a NodeGCDelta per range holding deleted documents. ApplyGC
// compacts the posting list and tightens the bounds. Cardinality sketches are
// never decremented and the tree shape never changes during GC.
//
// # Concurrency
//
// A Tree performs no internal synchronization. Any number of readers (Find,
// iteration, CollectGC) may run concurrently, but never alongside Add or
// ApplyGC on the same tree. Owners serialize access with an external
// sync.RWMutex.
package rangetree
