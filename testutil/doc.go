// Package testutil provides helpers for tests and benchmarks only.
//
// # Random Workloads
//
//	rng := testutil.NewRNG(seed)
//	ps := rng.Postings(1000, 64, -100, 100) // 1000 docs over 64 distinct values
//	rng.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
//
// # Ground Truth
//
//	want := testutil.BruteForceRange(ps, isDeleted, match)
package testutil
