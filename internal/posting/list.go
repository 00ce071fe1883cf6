package posting

import (
	"iter"
	"math"
	"slices"
)

const (
	// DocBytes is the accounted size of a document identifier.
	DocBytes = 8

	// Float32Bytes is the accounted size of a compressed value.
	Float32Bytes = 4

	// Float64Bytes is the accounted size of a full-precision value.
	Float64Bytes = 8

	// CompressTolerance is the maximum absolute error accepted when a value
	// is stored as float32.
	CompressTolerance = 0.01
)

// Entry is a single posting.
type Entry struct {
	Doc   uint64
	Value float64

	// Deleted marks an entry whose document was already deleted when the
	// entry arrived. It is kept for accounting and skipped by readers.
	Deleted bool
}

// Quantize returns the value as it is stored, and whether it fits the
// compressed representation.
func Quantize(v float64, compress bool) (float64, bool) {
	if !compress {
		return v, false
	}
	f32 := float64(float32(v))
	if math.Abs(f32-v) < CompressTolerance {
		return f32, true
	}
	return v, false
}

// EntrySize returns the accounted size of an entry holding v.
func EntrySize(v float64, compress bool) int64 {
	if _, ok := Quantize(v, compress); ok {
		return DocBytes + Float32Bytes
	}
	return DocBytes + Float64Bytes
}

// List is an append-only posting list.
// Not safe for concurrent mutation.
type List struct {
	entries    []Entry
	compress   bool
	bytes      int64
	numDeleted int
}

// New creates an empty list.
func New(compress bool) *List {
	return &List{compress: compress}
}

// Add appends an entry and returns the stored value and the accounted size.
func (l *List) Add(doc uint64, value float64, deleted bool) (float64, int64) {
	stored, _ := Quantize(value, l.compress)
	size := EntrySize(stored, l.compress)

	l.entries = append(l.entries, Entry{Doc: doc, Value: stored, Deleted: deleted})
	l.bytes += size
	if deleted {
		l.numDeleted++
	}
	return stored, size
}

// Len returns the number of entries, including deleted-on-arrival entries.
func (l *List) Len() int {
	return len(l.entries)
}

// NumDeleted returns the number of deleted-on-arrival entries.
func (l *List) NumDeleted() int {
	return l.numDeleted
}

// Bytes returns the accounted size of all entries.
func (l *List) Bytes() int64 {
	return l.bytes
}

// All iterates over all entries in insertion order.
func (l *List) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range l.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Bounds returns the minimum and maximum stored value.
// ok is false for an empty list.
func (l *List) Bounds() (lo, hi float64, ok bool) {
	if len(l.entries) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, e := range l.entries {
		if e.Value < lo {
			lo = e.Value
		}
		if e.Value > hi {
			hi = e.Value
		}
	}
	return lo, hi, true
}

// DistinctValues returns the distinct stored values in ascending order.
func (l *List) DistinctValues() []float64 {
	values := make([]float64, len(l.entries))
	for i, e := range l.entries {
		values[i] = e.Value
	}
	slices.Sort(values)
	return slices.Compact(values)
}

// Compact removes every entry for which remove returns true.
// Surviving entries keep their relative order. Returns the number of removed
// entries and the reclaimed size.
func (l *List) Compact(remove func(Entry) bool) (int, int64) {
	writeIdx := 0
	var reclaimed int64
	for readIdx := 0; readIdx < len(l.entries); readIdx++ {
		e := l.entries[readIdx]
		if remove(e) {
			reclaimed += EntrySize(e.Value, l.compress)
			if e.Deleted {
				l.numDeleted--
			}
			continue
		}
		if writeIdx != readIdx {
			l.entries[writeIdx] = e
		}
		writeIdx++
	}

	removed := len(l.entries) - writeIdx
	if removed == 0 {
		return 0, 0
	}

	clear(l.entries[writeIdx:])
	l.entries = l.entries[:writeIdx]
	// Release the backing array once it is mostly empty.
	if cap(l.entries) > 64 && len(l.entries) < cap(l.entries)/4 {
		l.entries = slices.Clip(slices.Clone(l.entries))
	}
	l.bytes -= reclaimed
	return removed, reclaimed
}
