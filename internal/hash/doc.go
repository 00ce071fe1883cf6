// Package hash provides the CRC32-Castagnoli checksum used for structural
// fingerprints of range trees.
//
// One-shot:
//
//	sum := hash.CRC32C(data)
//
// Streaming:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	sum := h.Sum32()
//
// The table is computed once at init; the standard library uses SSE4.2 or
// the ARM CRC extension when available.
package hash
