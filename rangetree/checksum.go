package rangetree

import (
	"encoding/binary"
	"math"

	"github.com/hupe1980/numtree/internal/hash"
)

// Checksum returns a CRC32C fingerprint of the tree's shape and contents:
// every reachable node in pre-order with its split value, height, bounds and
// postings. Two trees with equal checksums are structurally identical with
// overwhelming probability.
func (t *Tree) Checksum() uint32 {
	h := hash.NewCRC32C()
	var buf [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	putF64 := func(v float64) { putU64(math.Float64bits(v)) }

	for idx, n := range t.All() {
		putU64(uint64(idx))
		putU64(uint64(n.maxDepth))
		if !n.IsLeaf() {
			putF64(n.value)
		}
		if n.rng == nil {
			putU64(0)
			continue
		}
		putU64(uint64(n.rng.NumEntries()) + 1)
		putF64(n.rng.min)
		putF64(n.rng.max)
		for e := range n.rng.Entries() {
			putU64(e.Doc)
			putF64(e.Value)
			if e.Deleted {
				putU64(1)
			} else {
				putU64(0)
			}
		}
	}
	return h.Sum32()
}
