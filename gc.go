package numtree

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/numtree/internal/budget"
	"github.com/hupe1980/numtree/rangetree"
)

// GCStats summarizes a garbage collection pass over all fields.
type GCStats struct {
	Fields         int
	NodesScanned   int
	Deltas         int
	EntriesRemoved int
	BytesReclaimed int64
	BoundsChanged  int
	Stale          int

	// Incomplete counts fields whose scan ran out of budget. They resume
	// where they stopped on the next pass.
	Incomplete int
}

// GC reclaims postings of deleted documents in every field.
//
// Fields are collected concurrently, bounded by WithGCWorkers. The GC budget
// covers the whole pass and each field scans, under its read lock, within an
// equal share of it. Deltas are then applied one at a time under the write
// lock, paced by WithGCRate.
func (ix *Index) GC(ctx context.Context) (GCStats, error) {
	if ix.closed.Load() {
		return GCStats{}, ErrClosed
	}
	return ix.gc(ctx)
}

func (ix *Index) gc(ctx context.Context) (GCStats, error) {
	start := time.Now()

	ix.mu.RLock()
	fields := make([]*field, 0, len(ix.fields))
	for _, f := range ix.fields {
		fields = append(fields, f)
	}
	ix.mu.RUnlock()

	var (
		mu    sync.Mutex
		total = GCStats{Fields: len(fields)}
	)

	shares := budget.ForContext(ctx, ix.opts.gcBudget).Split(len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fields {
		fctx := gctx
		if shares[i] != nil {
			fctx = budget.WithBudget(gctx, shares[i])
		}
		g.Go(func() error {
			if err := ix.rc.AcquireBackground(fctx); err != nil {
				return err
			}
			defer ix.rc.ReleaseBackground()

			st, err := ix.gcField(fctx, f)

			mu.Lock()
			total.merge(st)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()

	ix.metrics.RecordGC(total.EntriesRemoved, total.BytesReclaimed, time.Since(start), err)
	ix.logger.LogGC(ctx, total, err)
	return total, err
}

func (ix *Index) gcField(ctx context.Context, f *field) (st GCStats, err error) {
	f.gcMu.Lock()
	defer f.gcMu.Unlock()

	b := budget.ForContext(ctx, ix.opts.gcBudget)

	f.mu.RLock()
	if f.dropped {
		f.mu.RUnlock()
		return st, nil
	}
	before := f.cursor.Scanned()
	deltas, done := f.tree.CollectGC(f.cursor, ix.docs, b)
	st.NodesScanned = f.cursor.Scanned() - before
	f.mu.RUnlock()

	if !done {
		st.Incomplete++
		if b.Exhausted() {
			bs := b.Stats()
			ix.logger.LogGCBudget(ctx, f.name, b.Reason(), bs.Visits, bs.Elapsed)
		}
	}

	var applied rangetree.GCStats
	defer func() {
		st.Deltas = applied.Deltas
		st.EntriesRemoved = applied.EntriesRemoved
		st.BytesReclaimed = applied.BytesReclaimed
		st.BoundsChanged = applied.BoundsChanged
		st.Stale = applied.Stale
	}()

	for _, d := range deltas {
		if err := ix.rc.AcquireGC(ctx, 1); err != nil {
			// The cursor already moved past the remaining deltas.
			f.cursor.Reset()
			return st, err
		}

		f.mu.Lock()
		if f.dropped {
			f.mu.Unlock()
			return st, nil
		}
		res := f.tree.ApplyGC(d)
		// Tracked under the field lock so DropField releases each byte once.
		ix.rc.TrackMemory(-res.BytesReclaimed)
		f.mu.Unlock()

		applied.Add(res)
	}
	return st, nil
}

func (s *GCStats) merge(o GCStats) {
	s.NodesScanned += o.NodesScanned
	s.Deltas += o.Deltas
	s.EntriesRemoved += o.EntriesRemoved
	s.BytesReclaimed += o.BytesReclaimed
	s.BoundsChanged += o.BoundsChanged
	s.Stale += o.Stale
	s.Incomplete += o.Incomplete
}

// StartGC runs GC every WithGCInterval in the background until Close.
// Calling it more than once has no effect.
func (ix *Index) StartGC() error {
	if ix.closed.Load() {
		return ErrClosed
	}
	ix.gcOnce.Do(func() {
		go ix.gcLoop()
	})
	return nil
}

func (ix *Index) gcLoop() {
	defer close(ix.gcDone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-ix.stopGC:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(ix.opts.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ix.stopGC:
			return
		case <-ticker.C:
			// Failures are logged and recorded by gc; the next tick retries.
			_, _ = ix.gc(ctx)
		}
	}
}
