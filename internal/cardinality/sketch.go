// Package cardinality provides the approximate distinct-value counter used to
// drive range splits.
//
// Sketch wraps a HyperLogLog sketch from github.com/axiomhq/hyperloglog.
// Small cardinalities are counted in the sparse representation and are close
// to exact; large cardinalities carry the usual HyperLogLog relative error,
// which split thresholds are tuned to tolerate.
//
// There is no removal operation. Estimates only grow.
package cardinality

import (
	"encoding/binary"
	"sync"

	"github.com/axiomhq/hyperloglog"
)

// Sketch is an approximate distinct counter over 64-bit patterns.
//
// Estimate merges buffered sparse inserts and therefore writes; mu lets
// concurrent readers of a tree call it safely.
type Sketch struct {
	mu  sync.Mutex
	hll *hyperloglog.Sketch
}

// New creates an empty sketch.
func New() *Sketch {
	return &Sketch{hll: hyperloglog.New()}
}

// Insert records a 64-bit pattern.
func (s *Sketch) Insert(bits uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], bits)
	s.mu.Lock()
	s.hll.Insert(buf[:])
	s.mu.Unlock()
}

// Estimate returns the approximate number of distinct patterns inserted.
func (s *Sketch) Estimate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hll.Estimate()
}
