package numtree

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/numtree/internal/doctable"
	"github.com/hupe1980/numtree/internal/resource"
	"github.com/hupe1980/numtree/rangetree"
)

// Index is a multi-field numeric index with one range tree per field.
//
// Index is safe for concurrent use. Each tree has a single mutator at a time:
// adds and GC applies take the field's write lock, queries and GC scans take
// its read lock.
type Index struct {
	opts    options
	logger  *Logger
	metrics MetricsCollector
	rc      *resource.Controller
	docs    *doctable.Table

	mu     sync.RWMutex
	fields map[string]*field
	byID   map[rangetree.TreeID]*field

	closed    atomic.Bool
	closeOnce sync.Once
	gcOnce    sync.Once
	stopGC    chan struct{}
	gcDone    chan struct{}
}

type field struct {
	name string

	mu      sync.RWMutex
	tree    *rangetree.Tree
	dropped bool

	// gcMu serializes GC passes on this field and guards cursor.
	gcMu   sync.Mutex
	cursor *rangetree.GCCursor
}

// New creates an empty index.
func New(optFns ...Option) *Index {
	opts := applyOptions(optFns)

	return &Index{
		opts:    opts,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:     opts.memoryLimit,
			MaxBackgroundWorkers: opts.gcWorkers,
			GCDeltasPerSec:       opts.gcRate,
		}),
		docs:   doctable.New(),
		fields: make(map[string]*field),
		byID:   make(map[rangetree.TreeID]*field),
		stopGC: make(chan struct{}),
		gcDone: make(chan struct{}),
	}
}

func (ix *Index) treeOptions() []rangetree.Option {
	opts := make([]rangetree.Option, 0, len(ix.opts.treeOptions)+1)
	opts = append(opts, rangetree.WithCompressFloats(ix.opts.compressFloats))
	return append(opts, ix.opts.treeOptions...)
}

func (ix *Index) field(name string) (*field, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	f, ok := ix.fields[name]
	return f, ok
}

func (ix *Index) fieldOrCreate(name string) *field {
	if f, ok := ix.field(name); ok {
		return f
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if f, ok := ix.fields[name]; ok {
		return f
	}

	f := &field{
		name:   name,
		tree:   rangetree.New(ix.treeOptions()...),
		cursor: rangetree.NewGCCursor(),
	}
	ix.fields[name] = f
	ix.byID[f.tree.ID()] = f
	ix.logger.WithField(name).WithTreeID(f.tree.ID()).DebugContext(context.Background(), "field created")
	return f
}

func (ix *Index) lookup(name string) (*field, error) {
	f, ok := ix.field(name)
	if !ok {
		return nil, &FieldNotFoundError{Field: name}
	}
	return f, nil
}

// Item is a single (document, value) pair for AddBatch.
type Item struct {
	Doc   uint64
	Value float64
}

// Add indexes value for doc under field.
//
// NaN is rejected with ErrInvalidValue. Adding for a document that was
// already deleted stores a posting that is never returned and is reclaimed
// by the next GC.
func (ix *Index) Add(ctx context.Context, fieldName string, doc uint64, value float64) error {
	start := time.Now()
	split, err := ix.add(ctx, fieldName, doc, value)
	ix.metrics.RecordAdd(time.Since(start), split, err)
	ix.logger.LogAdd(ctx, fieldName, doc, value, err)
	return err
}

func (ix *Index) add(ctx context.Context, fieldName string, doc uint64, value float64) (bool, error) {
	if ix.closed.Load() {
		return false, ErrClosed
	}
	if err := validateValue(fieldName, value); err != nil {
		return false, err
	}
	if err := ix.rc.CheckMemory(); err != nil {
		return false, translateError(err)
	}

	f := ix.fieldOrCreate(fieldName)
	deleted := ix.docs.IsDeleted(doc)

	f.mu.Lock()
	if f.dropped {
		f.mu.Unlock()
		return false, &FieldNotFoundError{Field: fieldName}
	}
	rv := f.tree.Add(doc, value, deleted, ix.opts.maxDepthRange)
	ix.rc.TrackMemory(rv.MemoryDelta)
	leaves, height, id := f.tree.NumLeaves(), f.tree.Height(), f.tree.ID()
	f.mu.Unlock()

	if rv.Changed {
		ix.logger.LogSplit(ctx, fieldName, id, leaves, height)
	}
	return rv.Changed, nil
}

// BatchAddResult reports the outcome of AddBatch.
type BatchAddResult struct {
	Added  int
	Errors []error // Errors for failed items (nil for successful)
}

// AddBatch indexes items under field, holding the field's write lock once.
// Invalid items are reported individually; the memory limit is checked once
// up front.
func (ix *Index) AddBatch(ctx context.Context, fieldName string, items []Item) BatchAddResult {
	start := time.Now()
	result := BatchAddResult{Errors: make([]error, len(items))}

	fail := func(err error) BatchAddResult {
		for i := range result.Errors {
			result.Errors[i] = err
		}
		ix.metrics.RecordAdd(time.Since(start), false, err)
		ix.logger.LogBatchAdd(ctx, fieldName, len(items), len(items))
		return result
	}

	if ix.closed.Load() {
		return fail(ErrClosed)
	}
	if err := ix.rc.CheckMemory(); err != nil {
		return fail(translateError(err))
	}

	f := ix.fieldOrCreate(fieldName)

	var (
		mem    int64
		splits int
	)
	f.mu.Lock()
	if f.dropped {
		f.mu.Unlock()
		return fail(&FieldNotFoundError{Field: fieldName})
	}
	for i, it := range items {
		if err := validateValue(fieldName, it.Value); err != nil {
			result.Errors[i] = err
			continue
		}
		rv := f.tree.Add(it.Doc, it.Value, ix.docs.IsDeleted(it.Doc), ix.opts.maxDepthRange)
		mem += rv.MemoryDelta
		if rv.Changed {
			splits++
		}
		result.Added++
	}
	ix.rc.TrackMemory(mem)
	leaves, height, id := f.tree.NumLeaves(), f.tree.Height(), f.tree.ID()
	f.mu.Unlock()

	if splits > 0 {
		ix.logger.LogSplit(ctx, fieldName, id, leaves, height)
	}

	failed := len(items) - result.Added
	ix.metrics.RecordAdd(time.Since(start), splits > 0, nil)
	ix.logger.LogBatchAdd(ctx, fieldName, len(items), failed)
	return result
}

// Delete marks doc as deleted in every field. Its postings stop matching
// immediately and are reclaimed by GC.
func (ix *Index) Delete(ctx context.Context, doc uint64) error {
	start := time.Now()
	var err error
	if ix.closed.Load() {
		err = ErrClosed
	} else {
		ix.docs.MarkDeleted(doc)
	}
	ix.metrics.RecordDelete(time.Since(start), err)
	ix.logger.LogDelete(ctx, doc, err)
	return err
}

// IsDeleted reports whether doc has been deleted.
func (ix *Index) IsDeleted(doc uint64) bool {
	return ix.docs.IsDeleted(doc)
}

// DropField removes field and releases its posting memory.
//
// Memory of a field is only tracked while holding its write lock, so adds
// and GC applies racing with DropField never account for a dropped tree.
func (ix *Index) DropField(name string) error {
	if ix.closed.Load() {
		return ErrClosed
	}

	ix.mu.Lock()
	f, ok := ix.fields[name]
	if !ok {
		ix.mu.Unlock()
		return &FieldNotFoundError{Field: name}
	}
	delete(ix.fields, name)
	delete(ix.byID, f.tree.ID())
	ix.mu.Unlock()

	f.mu.Lock()
	f.dropped = true
	ix.rc.TrackMemory(-f.tree.MemoryUsage())
	f.mu.Unlock()
	return nil
}

// Fields returns the indexed field names in sorted order.
func (ix *Index) Fields() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names := make([]string, 0, len(ix.fields))
	for name := range ix.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TreeID returns the id of the tree backing field.
func (ix *Index) TreeID(name string) (rangetree.TreeID, bool) {
	f, ok := ix.field(name)
	if !ok {
		return 0, false
	}
	return f.tree.ID(), true
}

// FieldByTreeID returns the field backed by the tree with id.
func (ix *Index) FieldByTreeID(id rangetree.TreeID) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	f, ok := ix.byID[id]
	if !ok {
		return "", false
	}
	return f.name, true
}

// View calls fn with read-only access to field's tree. fn must not retain
// the tree, its nodes or ranges after returning.
func (ix *Index) View(name string, fn func(*rangetree.Tree) error) error {
	if ix.closed.Load() {
		return ErrClosed
	}
	f, err := ix.lookup(name)
	if err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return fn(f.tree)
}

// FieldStats describes one field's tree.
type FieldStats struct {
	TreeID      rangetree.TreeID
	NumLeaves   int
	NumEntries  int
	NumRanges   int
	NumNodes    int
	Height      uint32
	MemoryUsage int64
	Revision    uint64
}

// Stats describes the whole index.
type Stats struct {
	Fields      map[string]FieldStats
	DeletedDocs uint64
	MemoryUsage int64
	MemoryLimit int64
}

// Stats returns a snapshot of index statistics.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	fields := make([]*field, 0, len(ix.fields))
	for _, f := range ix.fields {
		fields = append(fields, f)
	}
	ix.mu.RUnlock()

	s := Stats{
		Fields:      make(map[string]FieldStats, len(fields)),
		DeletedDocs: ix.docs.Len(),
		MemoryUsage: ix.rc.MemoryUsage(),
		MemoryLimit: ix.rc.MemoryLimit(),
	}
	for _, f := range fields {
		f.mu.RLock()
		s.Fields[f.name] = FieldStats{
			TreeID:      f.tree.ID(),
			NumLeaves:   f.tree.NumLeaves(),
			NumEntries:  f.tree.NumEntries(),
			NumRanges:   f.tree.NumRanges(),
			NumNodes:    f.tree.NumNodes(),
			Height:      f.tree.Height(),
			MemoryUsage: f.tree.MemoryUsage(),
			Revision:    f.tree.Revision(),
		}
		f.mu.RUnlock()
	}
	return s
}

// Close stops the background GC loop. Later calls return ErrClosed.
func (ix *Index) Close() error {
	if ix == nil {
		return nil
	}

	err := ErrClosed
	ix.closeOnce.Do(func() {
		err = nil
		ix.closed.Store(true)
		close(ix.stopGC)

		// Without a running loop nobody else closes gcDone.
		ix.gcOnce.Do(func() { close(ix.gcDone) })
		<-ix.gcDone
	})
	return err
}
