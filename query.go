package numtree

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/numtree/internal/budget"
	"github.com/hupe1980/numtree/rangetree"
)

// Filter is the numeric range predicate accepted by Query.
type Filter = rangetree.Filter

// NewFilter returns an ascending filter over the closed interval [min, max].
func NewFilter(min, max float64) *Filter {
	return rangetree.NewFilter(min, max)
}

// Hit is a single matching posting.
type Hit struct {
	Doc   uint64
	Value float64
}

// Result holds the matches of a range query.
type Result struct {
	// Hits are ordered by value (then document), ascending unless the filter
	// asks otherwise, after Offset and Limit were applied.
	Hits []Hit

	// Docs is the set of documents in Hits.
	Docs *roaring64.Bitmap

	// Total is the number of matches before Offset and Limit.
	Total int

	// Partial reports that the query budget or the context deadline cut
	// the tree walk short. Hits then cover a subset of the matches.
	Partial bool

	// RangesScanned is the number of candidate ranges read.
	RangesScanned int
}

// Query returns the live postings of field that satisfy filter.
//
// Exhausting the query budget or the context deadline is not an error: the
// result is marked Partial.
func (ix *Index) Query(ctx context.Context, fieldName string, filter *Filter) (*Result, error) {
	start := time.Now()
	res, err := ix.query(ctx, fieldName, filter)

	var (
		hits    int
		partial bool
	)
	if res != nil {
		hits, partial = len(res.Hits), res.Partial
	}
	ix.metrics.RecordQuery(time.Since(start), hits, partial, err)
	ix.logger.LogQuery(ctx, fieldName, hits, partial, err)
	return res, err
}

func (ix *Index) query(ctx context.Context, fieldName string, filter *Filter) (*Result, error) {
	if ix.closed.Load() {
		return nil, ErrClosed
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	// An expired deadline yields a partial result through the budget.
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, err
	}

	f, err := ix.lookup(fieldName)
	if err != nil {
		return nil, err
	}

	b := budget.ForContext(ctx, ix.opts.queryBudget)

	var hits []Hit
	f.mu.RLock()
	ranges, complete := f.tree.FindBudget(filter, b)
	for _, r := range ranges {
		for e := range r.Match(filter) {
			if ix.docs.IsDeleted(e.Doc) {
				continue
			}
			hits = append(hits, Hit{Doc: e.Doc, Value: e.Value})
		}
	}
	f.mu.RUnlock()

	sortHits(hits, filter.Ascending)

	res := &Result{
		Total:         len(hits),
		Partial:       !complete,
		RangesScanned: len(ranges),
		Docs:          roaring64.New(),
	}
	res.Hits = page(hits, filter.Offset, filter.Limit)
	for _, h := range res.Hits {
		res.Docs.Add(h.Doc)
	}
	return res, nil
}

func validateFilter(f *Filter) error {
	switch {
	case f == nil:
		return fmt.Errorf("%w: nil filter", ErrInvalidFilter)
	case !f.Valid():
		return fmt.Errorf("%w: NaN bound", ErrInvalidFilter)
	case f.Offset < 0 || f.Limit < 0:
		return fmt.Errorf("%w: negative offset or limit", ErrInvalidFilter)
	}
	return nil
}

func sortHits(hits []Hit, ascending bool) {
	slices.SortFunc(hits, func(a, b Hit) int {
		c := cmp.Compare(a.Value, b.Value)
		if !ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Doc, b.Doc)
	})
}

// page applies offset and limit; limit 0 is unlimited.
func page(hits []Hit, offset, limit int) []Hit {
	if offset >= len(hits) {
		return nil
	}
	hits = hits[offset:]
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}
