package numtree_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/numtree"
)

// Example_query demonstrates indexing values and running a range query.
func Example_query() {
	ctx := context.Background()
	ix := numtree.New()
	defer ix.Close()

	prices := map[uint64]float64{1: 9.99, 2: 24.50, 3: 120, 4: 42}
	for doc, price := range prices {
		if err := ix.Add(ctx, "price", doc, price); err != nil {
			log.Fatal(err)
		}
	}

	res, err := ix.Query(ctx, "price", numtree.NewFilter(10, 100))
	if err != nil {
		log.Fatal(err)
	}
	for _, h := range res.Hits {
		fmt.Printf("doc=%d price=%.2f\n", h.Doc, h.Value)
	}
	// Output:
	// doc=2 price=24.50
	// doc=4 price=42.00
}

// Example_descendingPage demonstrates ordering and paging.
func Example_descendingPage() {
	ctx := context.Background()
	ix := numtree.New()
	defer ix.Close()

	for doc := uint64(1); doc <= 10; doc++ {
		_ = ix.Add(ctx, "rank", doc, float64(doc))
	}

	res, _ := ix.Query(ctx, "rank", &numtree.Filter{
		Min:          1,
		Max:          10,
		MinInclusive: true,
		MaxInclusive: true,
		Offset:       1,
		Limit:        3,
	})
	fmt.Println(res.Docs.ToArray(), res.Total)
	// Output: [7 8 9] 10
}

// Example_deleteAndGC demonstrates deletion and reclamation.
func Example_deleteAndGC() {
	ctx := context.Background()
	ix := numtree.New()
	defer ix.Close()

	for doc := uint64(1); doc <= 3; doc++ {
		_ = ix.Add(ctx, "age", doc, float64(20+doc))
	}
	_ = ix.Delete(ctx, 2)

	res, _ := ix.Query(ctx, "age", numtree.NewFilter(0, 100))
	fmt.Println("live:", res.Docs.ToArray())

	stats, _ := ix.GC(ctx)
	fmt.Println("removed:", stats.EntriesRemoved)
	// Output:
	// live: [1 3]
	// removed: 1
}
