package numtree_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/numtree"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &numtree.BasicMetricsCollector{}
	boom := errors.New("boom")

	m.RecordAdd(10*time.Nanosecond, false, nil)
	m.RecordAdd(30*time.Nanosecond, true, boom)
	m.RecordDelete(time.Microsecond, nil)
	m.RecordQuery(100*time.Nanosecond, 5, false, nil)
	m.RecordQuery(300*time.Nanosecond, 2, true, nil)
	m.RecordQuery(0, 0, false, boom)
	m.RecordGC(4, 64, time.Millisecond, nil)
	m.RecordGC(1, 16, time.Millisecond, boom)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.AddCount)
	assert.Equal(t, int64(1), stats.AddErrors)
	assert.Equal(t, int64(20), stats.AddAvgNanos)
	assert.Equal(t, int64(1), stats.SplitCount)
	assert.Equal(t, int64(1), stats.DeleteCount)
	assert.Zero(t, stats.DeleteErrors)
	assert.Equal(t, int64(3), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryErrors)
	assert.Equal(t, int64(1), stats.QueryPartial)
	assert.Equal(t, int64(7), stats.QueryHits)
	assert.Equal(t, int64(133), stats.QueryAvgNanos)
	assert.Equal(t, int64(2), stats.GCCount)
	assert.Equal(t, int64(1), stats.GCErrors)
	assert.Equal(t, int64(5), stats.GCEntriesRemoved)
	assert.Equal(t, int64(80), stats.GCBytesReclaimed)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	stats := (&numtree.BasicMetricsCollector{}).GetStats()
	assert.Zero(t, stats.AddAvgNanos)
	assert.Zero(t, stats.QueryAvgNanos)
}

func TestNoopMetricsCollector(t *testing.T) {
	var m numtree.MetricsCollector = numtree.NoopMetricsCollector{}
	m.RecordAdd(0, true, nil)
	m.RecordDelete(0, nil)
	m.RecordQuery(0, 0, false, nil)
	m.RecordGC(0, 0, 0, nil)
}
