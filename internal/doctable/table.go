// Package doctable tracks document deletions for posting garbage collection.
//
// Deletions are permanent: a document id is never resurrected, so postings
// that reference it can be reclaimed at any later point without further
// coordination.
package doctable

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Table is the set of deleted documents.
//
// Reads take a shared lock and may run concurrently with each other.
type Table struct {
	mu      sync.RWMutex
	deleted *roaring64.Bitmap
}

// New creates an empty table.
func New() *Table {
	return &Table{deleted: roaring64.New()}
}

// MarkDeleted records doc as deleted. Returns false if it already was.
func (t *Table) MarkDeleted(doc uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleted.CheckedAdd(doc)
}

// IsDeleted reports whether doc has been deleted.
func (t *Table) IsDeleted(doc uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deleted.Contains(doc)
}

// Len returns the number of deleted documents.
func (t *Table) Len() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deleted.GetCardinality()
}
