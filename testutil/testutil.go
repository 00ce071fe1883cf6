package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"
)

// Posting is a (document, value) pair used to drive workloads.
type Posting struct {
	Doc   uint64
	Value float64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Float64Range returns a pseudo-random number in [lo, hi).
func (r *RNG) Float64Range(lo, hi float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rand.Float64()*(hi-lo)
}

// Shuffle pseudo-randomizes the order of n elements.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(n, swap)
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s; s=1.5 concentrates most draws on a few values.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Postings generates n postings for documents 1..n whose values are drawn
// from `distinct` evenly spaced values in [lo, hi]. distinct <= 0 draws
// continuous values instead.
func (r *RNG) Postings(n, distinct int, lo, hi float64) []Posting {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Posting, n)
	for i := range n {
		var v float64
		if distinct <= 0 {
			v = lo + r.rand.Float64()*(hi-lo)
		} else {
			v = bucketValue(r.rand.Intn(distinct), distinct, lo, hi)
		}
		out[i] = Posting{Doc: uint64(i + 1), Value: v}
	}
	return out
}

// ZipfPostings is like Postings with Zipf-skewed value popularity.
func (r *RNG) ZipfPostings(n, distinct int, s, lo, hi float64) []Posting {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Posting, n)
	for i := range n {
		out[i] = Posting{
			Doc:   uint64(i + 1),
			Value: bucketValue(r.zipfLocked(distinct, s), distinct, lo, hi),
		}
	}
	return out
}

func bucketValue(k, distinct int, lo, hi float64) float64 {
	if distinct <= 1 {
		return lo
	}
	return lo + float64(k)*(hi-lo)/float64(distinct-1)
}

// Sequential returns postings for documents 1..n with values 1..n.
func Sequential(n int) []Posting {
	out := make([]Posting, n)
	for i := range n {
		out[i] = Posting{Doc: uint64(i + 1), Value: float64(i + 1)}
	}
	return out
}

// BruteForceRange returns the sorted documents whose value satisfies match
// and which are not deleted. deleted may be nil.
func BruteForceRange(ps []Posting, deleted func(uint64) bool, match func(float64) bool) []uint64 {
	var out []uint64
	for _, p := range ps {
		if deleted != nil && deleted(p.Doc) {
			continue
		}
		if match(p.Value) {
			out = append(out, p.Doc)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
