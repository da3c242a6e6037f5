package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics contains Prometheus metrics for the verified project catalog client.
type CatalogMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	markersIndexed  prometheus.Gauge
	pagesFetched    prometheus.Histogram
}

// NewCatalogMetrics creates and registers the catalog collectors.
func NewCatalogMetrics(registry prometheus.Registerer) (*CatalogMetrics, error) {
	m := &CatalogMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register catalog metrics: %w", err)
	}
	return m, nil
}

func (m *CatalogMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of catalog API requests",
		},
		[]string{"operation", "status"},
	)
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests including retries",
			Buckets: prometheus.ExponentialBuckets(0.025, 2, 10),
		},
		[]string{"operation"},
	)
	m.retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_request_retries_total",
			Help: "Total number of retried catalog API requests",
		},
		[]string{"operation"},
	)
	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_errors_total",
			Help: "Total number of catalog errors by category",
		},
		[]string{"operation", "category"},
	)
	m.markersIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_markers_indexed",
		Help: "Number of project markers in the current marker index",
	})
	m.pagesFetched = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_marker_pages_fetched",
		Help:    "Pages walked per marker index rebuild",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})
}

// RecordRequest records one logical request (after retries) and its duration.
func (m *CatalogMetrics) RecordRequest(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, status).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordRetry records a retry attempt.
func (m *CatalogMetrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(operation).Inc()
}

// RecordError records a failed request by error category.
func (m *CatalogMetrics) RecordError(operation, category string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(operation, category).Inc()
}

// RecordMarkerRebuild records the size of a rebuilt marker index.
func (m *CatalogMetrics) RecordMarkerRebuild(markers, pages int) {
	if m == nil {
		return
	}
	m.markersIndexed.Set(float64(markers))
	m.pagesFetched.Observe(float64(pages))
}

// Describe implements the prometheus.Collector interface.
func (m *CatalogMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.retriesTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	ch <- m.markersIndexed.Desc()
	ch <- m.pagesFetched.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *CatalogMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.retriesTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	ch <- m.markersIndexed
	ch <- m.pagesFetched
}
