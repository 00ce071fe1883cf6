package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/numtree"
	"github.com/hupe1980/numtree/promcollector"
	"github.com/hupe1980/numtree/testutil"
)

type benchFlags struct {
	workload

	queries     int
	width       float64
	verify      bool
	gcWorkers   int
	queryVisits int64
	metricsAddr string
}

func newBenchCmd(rf *rootFlags) *cobra.Command {
	var bf benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load a synthetic workload and measure range queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bf.validate(); err != nil {
				return err
			}
			if bf.queries < 0 || bf.width < 0 {
				return errors.New("--queries and --width must not be negative")
			}
			logger, err := rf.logger(cmd)
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), logger, &bf)
		},
	}

	fs := cmd.Flags()
	bf.bindFlags(fs, 100_000)
	fs.IntVar(&bf.queries, "queries", 1000, "Number of random range queries")
	fs.Float64Var(&bf.width, "width", 0.05, "Query width as a fraction of the value span")
	fs.BoolVar(&bf.verify, "verify", true, "Check every query against a linear scan")
	fs.IntVar(&bf.gcWorkers, "gc-workers", 1, "Concurrent GC workers")
	fs.Int64Var(&bf.queryVisits, "query-visits", 0, "Node visits allowed per query (0 = unlimited)")
	fs.StringVar(&bf.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	return cmd
}

type queryStats struct {
	n          int
	hits       int
	partial    int
	mismatches int
	elapsed    time.Duration
}

func runBench(ctx context.Context, out io.Writer, logger *numtree.Logger, bf *benchFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reg := prometheus.NewRegistry()
	metrics, err := promcollector.New(reg, "numtree")
	if err != nil {
		return err
	}
	if bf.metricsAddr != "" {
		stop, err := serveMetrics(bf.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
		fmt.Fprintf(out, "metrics: http://%s/metrics\n", bf.metricsAddr)
	}

	opts := append(bf.options(),
		numtree.WithLogger(logger),
		numtree.WithMetricsCollector(metrics),
		numtree.WithGCWorkers(bf.gcWorkers),
		numtree.WithGCBudget(numtree.BudgetConfig{}),
		numtree.WithQueryBudget(numtree.BudgetConfig{MaxVisits: bf.queryVisits}),
	)
	ix := numtree.New(opts...)
	defer ix.Close()

	rng := testutil.NewRNG(bf.seed)

	start := time.Now()
	ps, err := bf.load(ctx, ix, rng)
	if err != nil {
		return err
	}
	st := ix.Stats()
	fmt.Fprintf(out, "loaded %d postings into %q in %v\n", len(ps), bf.field, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "deleted %d documents\n", st.DeletedDocs)
	printTree(out, st.Fields[bf.field])

	// Queries are drawn once so both passes see the same workload.
	filters := make([]*numtree.Filter, bf.queries)
	span := bf.max - bf.min
	for i := range filters {
		lo := rng.Float64Range(bf.min, bf.max)
		filters[i] = numtree.NewFilter(lo, lo+span*bf.width)
	}

	before, err := runQueries(ctx, ix, bf, ps, filters)
	if err != nil {
		return err
	}
	printQueries(out, "queries", before)

	gcStart := time.Now()
	gst, err := ix.GC(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "gc: removed=%d reclaimed=%dB nodes=%d stale=%d in %v\n",
		gst.EntriesRemoved, gst.BytesReclaimed, gst.NodesScanned, gst.Stale, time.Since(gcStart).Round(time.Microsecond))
	printTree(out, ix.Stats().Fields[bf.field])

	after, err := runQueries(ctx, ix, bf, ps, filters)
	if err != nil {
		return err
	}
	printQueries(out, "queries after gc", after)

	if before.hits != after.hits && before.partial == 0 && after.partial == 0 {
		return fmt.Errorf("gc changed results: %d hits before, %d after", before.hits, after.hits)
	}
	if n := before.mismatches + after.mismatches; n > 0 {
		return fmt.Errorf("verification failed: %d mismatching queries", n)
	}
	if bf.verify {
		fmt.Fprintln(out, "verified: ok")
	}
	return nil
}

func runQueries(ctx context.Context, ix *numtree.Index, bf *benchFlags, ps []testutil.Posting, filters []*numtree.Filter) (queryStats, error) {
	var qs queryStats
	for _, f := range filters {
		start := time.Now()
		res, err := ix.Query(ctx, bf.field, f)
		qs.elapsed += time.Since(start)
		if err != nil {
			return qs, err
		}

		qs.n++
		qs.hits += res.Total
		if res.Partial {
			qs.partial++
			continue
		}
		if bf.verify {
			want := testutil.BruteForceRange(ps, ix.IsDeleted, f.Match)
			if !slices.Equal(want, res.Docs.ToArray()) {
				qs.mismatches++
			}
		}
	}
	return qs, nil
}

func printTree(out io.Writer, fs numtree.FieldStats) {
	fmt.Fprintf(out, "tree: leaves=%d height=%d ranges=%d entries=%d memory=%dB\n",
		fs.NumLeaves, fs.Height, fs.NumRanges, fs.NumEntries, fs.MemoryUsage)
}

func printQueries(out io.Writer, label string, qs queryStats) {
	var avg time.Duration
	if qs.n > 0 {
		avg = qs.elapsed / time.Duration(qs.n)
	}
	fmt.Fprintf(out, "%s: n=%d hits=%d partial=%d avg=%v\n", label, qs.n, qs.hits, qs.partial, avg)
}

func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
