// Package observability owns the Prometheus registry of the service and exposes it over HTTP.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/estatehub/listingguard/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Catalog   *metrics.CatalogMetrics
	Cache     *metrics.CacheMetrics
	Matching  *metrics.MatchingMetrics
	Lifecycle *metrics.LifecycleMetrics
	HTTP      *metrics.HTTPMetrics
}

// NewMetrics creates a private registry with process and Go runtime collectors
// plus every service collector.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	catalogMetrics, err := metrics.NewCatalogMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog metrics: %w", err)
	}

	cacheMetrics, err := metrics.NewCacheMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache metrics: %w", err)
	}

	matchingMetrics, err := metrics.NewMatchingMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create matching metrics: %w", err)
	}

	lifecycleMetrics, err := metrics.NewLifecycleMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifecycle metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Catalog:   catalogMetrics,
		Cache:     cacheMetrics,
		Matching:  matchingMetrics,
		Lifecycle: lifecycleMetrics,
		HTTP:      httpMetrics,
	}, nil
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
		Registry:      m.registry,
	})
}
