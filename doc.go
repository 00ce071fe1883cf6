// Package numtree indexes numeric field values so that range queries
// (min <= v <= max, with independent inclusive or exclusive bounds) are
// answered without scanning every document.
//
// Every field is backed by a rangetree.Tree: an adaptively splitting,
// height-balanced binary tree whose leaves own disjoint value intervals.
// The Index adds the pieces around the trees: a deleted-document table,
// exact per-entry filtering, ordering and paging, garbage collection of
// deleted postings, memory accounting, logging and metrics.
//
// # Quick Start
//
//	ix := numtree.New()
//	defer ix.Close()
//
//	_ = ix.Add(ctx, "price", 1, 9.99)
//	_ = ix.Add(ctx, "price", 2, 24.50)
//	_ = ix.Add(ctx, "price", 3, 120)
//
//	res, _ := ix.Query(ctx, "price", numtree.NewFilter(10, 100))
//	for _, h := range res.Hits {
//	    fmt.Println(h.Doc, h.Value) // 2 24.5
//	}
//
// # Filters
//
// Filter bounds are inclusive by default. Exclusive bounds, descending order
// and paging are set on the filter:
//
//	f := numtree.NewFilter(0, 100)
//	f.MaxInclusive = false
//	f.Ascending = false
//	f.Offset, f.Limit = 20, 10
//
// # Deletion and GC
//
// Delete marks a document deleted in all fields. Its postings stop matching
// at once and are physically removed by GC, either on demand or by the
// background loop:
//
//	_ = ix.Delete(ctx, 2)
//	stats, _ := ix.GC(ctx)  // one pass over all fields
//	_ = ix.StartGC()        // or every WithGCInterval until Close
//
// GC passes are bounded by WithGCBudget and resume where they stopped.
//
// # Budgets
//
// Queries are bounded by WithQueryBudget and by the context deadline. Running
// out of budget yields a Partial result, not an error.
//
// # Observability
//
//	ix := numtree.New(
//	    numtree.WithLogger(numtree.NewJSONLogger(slog.LevelInfo)),
//	    numtree.WithMetricsCollector(&numtree.BasicMetricsCollector{}),
//	)
//
// See promcollector for a Prometheus collector.
package numtree
