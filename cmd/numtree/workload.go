package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/hupe1980/numtree"
	"github.com/hupe1980/numtree/rangetree"
	"github.com/hupe1980/numtree/testutil"
)

// workload describes a synthetic data set loaded into a single field.
type workload struct {
	field       string
	docs        int
	distinct    int
	zipf        float64
	min, max    float64
	deleteRatio float64
	seed        int64

	maxDepthRange  int
	compressFloats bool
	minCard        int
	maxCard        int
}

func (w *workload) bindFlags(fs *pflag.FlagSet, docs int) {
	fs.StringVar(&w.field, "field", "value", "Field name")
	fs.IntVar(&w.docs, "docs", docs, "Number of documents")
	fs.IntVar(&w.distinct, "distinct", 1000, "Distinct values (0 = continuous)")
	fs.Float64Var(&w.zipf, "zipf", 0, "Zipf skew of value popularity (> 1 enables)")
	fs.Float64Var(&w.min, "min", 0, "Smallest value")
	fs.Float64Var(&w.max, "max", 1000, "Largest value")
	fs.Float64Var(&w.deleteRatio, "delete-ratio", 0.1, "Fraction of documents to delete")
	fs.Int64Var(&w.seed, "seed", 42, "Random seed")
	fs.IntVar(&w.maxDepthRange, "max-depth-range", 0, "Height up to which internal nodes keep their ranges")
	fs.BoolVar(&w.compressFloats, "compress-floats", false, "Store values as float32 where precise enough")
	fs.IntVar(&w.minCard, "min-card", rangetree.MinRangeCardinality, "Split cardinality at depth 0")
	fs.IntVar(&w.maxCard, "max-card", rangetree.MaxRangeCardinality, "Split cardinality cap")
}

func (w *workload) validate() error {
	switch {
	case w.docs <= 0:
		return fmt.Errorf("--docs must be positive")
	case w.max < w.min:
		return fmt.Errorf("--max must not be smaller than --min")
	case w.deleteRatio < 0 || w.deleteRatio > 1:
		return fmt.Errorf("--delete-ratio must be within [0, 1]")
	case w.zipf != 0 && w.zipf <= 1:
		return fmt.Errorf("--zipf must be greater than 1")
	case w.zipf > 1 && w.distinct <= 0:
		return fmt.Errorf("--zipf requires --distinct")
	}
	return nil
}

func (w *workload) options() []numtree.Option {
	return []numtree.Option{
		numtree.WithMaxDepthRange(w.maxDepthRange),
		numtree.WithCompressFloats(w.compressFloats),
		numtree.WithTreeOptions(rangetree.WithSplitCardinality(w.minCard, w.maxCard)),
	}
}

// load generates the postings, indexes them and deletes a random subset.
func (w *workload) load(ctx context.Context, ix *numtree.Index, rng *testutil.RNG) ([]testutil.Posting, error) {
	var ps []testutil.Posting
	if w.zipf > 1 {
		ps = rng.ZipfPostings(w.docs, w.distinct, w.zipf, w.min, w.max)
	} else {
		ps = rng.Postings(w.docs, w.distinct, w.min, w.max)
	}

	const batchSize = 1024
	items := make([]numtree.Item, 0, batchSize)
	flush := func() error {
		res := ix.AddBatch(ctx, w.field, items)
		for _, err := range res.Errors {
			if err != nil {
				return err
			}
		}
		items = items[:0]
		return nil
	}
	for _, p := range ps {
		items = append(items, numtree.Item{Doc: p.Doc, Value: p.Value})
		if len(items) == batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	for _, p := range ps {
		if rng.Float64() < w.deleteRatio {
			if err := ix.Delete(ctx, p.Doc); err != nil {
				return nil, err
			}
		}
	}
	return ps, nil
}
