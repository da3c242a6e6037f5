package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics contains Prometheus metrics for listing state transitions.
type LifecycleMetrics struct {
	transitionsTotal *prometheus.CounterVec
	overridesTotal   prometheus.Counter
	conflictsTotal   prometheus.Counter
}

// NewLifecycleMetrics creates and registers the lifecycle collectors.
func NewLifecycleMetrics(registry prometheus.Registerer) (*LifecycleMetrics, error) {
	m := &LifecycleMetrics{
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_transitions_total",
				Help: "Total number of attempted listing transitions by event and outcome",
			},
			[]string{"event", "outcome"}, // outcome: success, validation, conflict, error
		),
		overridesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listing_duplicate_overrides_total",
			Help: "Total number of submissions that confirmed a strong duplicate warning",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listing_concurrent_modifications_total",
			Help: "Total number of updates rejected by the optimistic version check",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register lifecycle metrics: %w", err)
	}
	return m, nil
}

// RecordTransition records the outcome of a lifecycle operation.
func (m *LifecycleMetrics) RecordTransition(event, outcome string) {
	if m != nil {
		m.transitionsTotal.WithLabelValues(event, outcome).Inc()
	}
}

// RecordOverride records a confirmed duplicate override.
func (m *LifecycleMetrics) RecordOverride() {
	if m != nil {
		m.overridesTotal.Inc()
	}
}

// RecordVersionConflict records a lost optimistic update race.
func (m *LifecycleMetrics) RecordVersionConflict() {
	if m != nil {
		m.conflictsTotal.Inc()
	}
}

// Describe implements the prometheus.Collector interface.
func (m *LifecycleMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.transitionsTotal.Describe(ch)
	ch <- m.overridesTotal.Desc()
	ch <- m.conflictsTotal.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *LifecycleMetrics) Collect(ch chan<- prometheus.Metric) {
	m.transitionsTotal.Collect(ch)
	ch <- m.overridesTotal
	ch <- m.conflictsTotal
}
