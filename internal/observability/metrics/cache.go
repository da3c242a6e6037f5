package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics contains Prometheus metrics for the loading caches, labeled by cache name.
type CacheMetrics struct {
	hits         *prometheus.CounterVec
	misses       *prometheus.CounterVec
	loads        *prometheus.CounterVec
	loadErrors   *prometheus.CounterVec
	staleServed  *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
}

// NewCacheMetrics creates and registers the cache collectors.
func NewCacheMetrics(registry prometheus.Registerer) (*CacheMetrics, error) {
	m := &CacheMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register cache metrics: %w", err)
	}
	return m, nil
}

func (m *CacheMetrics) initMetrics() {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{"cache"})
	}
	m.hits = counter("cache_hits_total", "Total number of fresh cache hits")
	m.misses = counter("cache_misses_total", "Total number of cache misses")
	m.loads = counter("cache_loads_total", "Total number of loader executions")
	m.loadErrors = counter("cache_load_errors_total", "Total number of failed loader executions")
	m.staleServed = counter("cache_stale_served_total", "Total number of expired values served after a failed load")
	m.loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_load_duration_seconds",
			Help:    "Duration of loader executions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cache"},
	)
}

// RecordHit records a fresh hit.
func (m *CacheMetrics) RecordHit(cache string) {
	if m != nil {
		m.hits.WithLabelValues(cache).Inc()
	}
}

// RecordMiss records a miss that triggers or joins a load.
func (m *CacheMetrics) RecordMiss(cache string) {
	if m != nil {
		m.misses.WithLabelValues(cache).Inc()
	}
}

// RecordLoad records one loader execution, successful or not.
func (m *CacheMetrics) RecordLoad(cache string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(cache).Inc()
	m.loadDuration.WithLabelValues(cache).Observe(seconds)
	if err != nil {
		m.loadErrors.WithLabelValues(cache).Inc()
	}
}

// RecordStale records a stale value served in place of a failed load.
func (m *CacheMetrics) RecordStale(cache string) {
	if m != nil {
		m.staleServed.WithLabelValues(cache).Inc()
	}
}

// Describe implements the prometheus.Collector interface.
func (m *CacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.hits.Describe(ch)
	m.misses.Describe(ch)
	m.loads.Describe(ch)
	m.loadErrors.Describe(ch)
	m.staleServed.Describe(ch)
	m.loadDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *CacheMetrics) Collect(ch chan<- prometheus.Metric) {
	m.hits.Collect(ch)
	m.misses.Collect(ch)
	m.loads.Collect(ch)
	m.loadErrors.Collect(ch)
	m.staleServed.Collect(ch)
	m.loadDuration.Collect(ch)
}
