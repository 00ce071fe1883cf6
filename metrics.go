package numtree

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// promcollector for a Prometheus implementation.
type MetricsCollector interface {
	// RecordAdd is called after each add. split reports whether the add
	// changed the tree structure.
	RecordAdd(duration time.Duration, split bool, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordQuery is called after each range query.
	RecordQuery(duration time.Duration, hits int, partial bool, err error)

	// RecordGC is called after each garbage collection pass.
	RecordGC(entriesRemoved int, bytesReclaimed int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, bool, error)        {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)           {}
func (NoopMetricsCollector) RecordQuery(time.Duration, int, bool, error) {}
func (NoopMetricsCollector) RecordGC(int, int64, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddErrors        atomic.Int64
	AddTotalNanos    atomic.Int64
	SplitCount       atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryPartial     atomic.Int64
	QueryHits        atomic.Int64
	QueryTotalNanos  atomic.Int64
	GCCount          atomic.Int64
	GCErrors         atomic.Int64
	GCEntriesRemoved atomic.Int64
	GCBytesReclaimed atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, split bool, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if split {
		b.SplitCount.Add(1)
	}
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(duration time.Duration, hits int, partial bool, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.QueryHits.Add(int64(hits))
	if partial {
		b.QueryPartial.Add(1)
	}
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordGC implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGC(entriesRemoved int, bytesReclaimed int64, _ time.Duration, err error) {
	b.GCCount.Add(1)
	b.GCEntriesRemoved.Add(int64(entriesRemoved))
	b.GCBytesReclaimed.Add(bytesReclaimed)
	if err != nil {
		b.GCErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:         b.AddCount.Load(),
		AddErrors:        b.AddErrors.Load(),
		AddAvgNanos:      avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		SplitCount:       b.SplitCount.Load(),
		DeleteCount:      b.DeleteCount.Load(),
		DeleteErrors:     b.DeleteErrors.Load(),
		QueryCount:       b.QueryCount.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		QueryPartial:     b.QueryPartial.Load(),
		QueryHits:        b.QueryHits.Load(),
		QueryAvgNanos:    avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		GCCount:          b.GCCount.Load(),
		GCErrors:         b.GCErrors.Load(),
		GCEntriesRemoved: b.GCEntriesRemoved.Load(),
		GCBytesReclaimed: b.GCBytesReclaimed.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount         int64
	AddErrors        int64
	AddAvgNanos      int64
	SplitCount       int64
	DeleteCount      int64
	DeleteErrors     int64
	QueryCount       int64
	QueryErrors      int64
	QueryPartial     int64
	QueryHits        int64
	QueryAvgNanos    int64
	GCCount          int64
	GCErrors         int64
	GCEntriesRemoved int64
	GCBytesReclaimed int64
}
