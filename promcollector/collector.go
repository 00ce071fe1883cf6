// Package promcollector exports numtree metrics to Prometheus.
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/numtree"
)

// Collector implements numtree.MetricsCollector on top of Prometheus metrics.
type Collector struct {
	opLatency    *prometheus.HistogramVec
	splits       prometheus.Counter
	queryHits    prometheus.Counter
	queryPartial prometheus.Counter
	gcRemoved    prometheus.Counter
	gcReclaimed  prometheus.Counter
}

var _ numtree.MetricsCollector = (*Collector)(nil)

// New creates a collector and registers its metrics with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of index operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Total adds that split a leaf",
		}),
		queryHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_hits_total",
			Help:      "Total postings returned by queries",
		}),
		queryPartial: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_partial_total",
			Help:      "Total queries cut short by their budget",
		}),
		gcRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_entries_removed_total",
			Help:      "Total postings reclaimed by GC",
		}),
		gcReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_bytes_reclaimed_total",
			Help:      "Total posting bytes reclaimed by GC",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.opLatency, c.splits, c.queryHits, c.queryPartial, c.gcRemoved, c.gcReclaimed,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordAdd implements numtree.MetricsCollector.
func (c *Collector) RecordAdd(d time.Duration, split bool, err error) {
	c.opLatency.WithLabelValues("add", status(err)).Observe(d.Seconds())
	if split {
		c.splits.Inc()
	}
}

// RecordDelete implements numtree.MetricsCollector.
func (c *Collector) RecordDelete(d time.Duration, err error) {
	c.opLatency.WithLabelValues("delete", status(err)).Observe(d.Seconds())
}

// RecordQuery implements numtree.MetricsCollector.
func (c *Collector) RecordQuery(d time.Duration, hits int, partial bool, err error) {
	c.opLatency.WithLabelValues("query", status(err)).Observe(d.Seconds())
	c.queryHits.Add(float64(hits))
	if partial {
		c.queryPartial.Inc()
	}
}

// RecordGC implements numtree.MetricsCollector.
func (c *Collector) RecordGC(removed int, reclaimed int64, d time.Duration, err error) {
	c.opLatency.WithLabelValues("gc", status(err)).Observe(d.Seconds())
	c.gcRemoved.Add(float64(removed))
	c.gcReclaimed.Add(float64(reclaimed))
}
