// Package posting implements the in-memory posting list held by every
// numeric range.
//
// A posting list is an append-only column of (document, value) entries.
// Entries are never reordered on insert; compaction after document deletion
// keeps the relative order of the surviving entries.
//
// # Float Compression
//
// When compression is enabled, values that survive a float32 round trip
// within CompressTolerance are stored at reduced precision:
//
//	stored, compressed := posting.Quantize(3.14159265, true)
//	// stored == float64(float32(3.14159265)), compressed == true
//
// Callers must route, bound and filter on the stored value so that every
// layer above the list agrees on what was indexed.
//
// # Size Accounting
//
// Each entry is accounted as DocBytes plus either Float32Bytes or
// Float64Bytes for its value. Sizes are reported on Add and on Compact so
// owners can keep a running memory total without rescanning.
package posting
