package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MatchingMetrics contains Prometheus metrics for duplicate checks.
type MatchingMetrics struct {
	checksTotal        *prometheus.CounterVec
	checkDuration      prometheus.Histogram
	detailFetches      *prometheus.CounterVec
	degradedCandidates prometheus.Counter
	bestScore          prometheus.Histogram
}

// NewMatchingMetrics creates and registers the matching collectors.
func NewMatchingMetrics(registry prometheus.Registerer) (*MatchingMetrics, error) {
	m := &MatchingMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register matching metrics: %w", err)
	}
	return m, nil
}

func (m *MatchingMetrics) initMetrics() {
	m.checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicate_checks_total",
			Help: "Total number of duplicate checks by resulting level",
		},
		[]string{"level"}, // none, soft, strong, error
	)
	m.checkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "duplicate_check_duration_seconds",
		Help:    "Duration of duplicate checks",
		Buckets: prometheus.DefBuckets,
	})
	m.detailFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicate_check_detail_fetches_total",
			Help: "Total number of candidate detail fetches",
		},
		[]string{"status"}, // success, error, skipped
	)
	m.degradedCandidates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_check_degraded_candidates_total",
		Help: "Total number of candidates scored without project detail after a failed fetch",
	})
	m.bestScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "duplicate_check_best_score",
		Help:    "Distribution of best candidate scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
}

// RecordCheck records a completed check.
func (m *MatchingMetrics) RecordCheck(level string, score int, seconds float64) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(level).Inc()
	m.checkDuration.Observe(seconds)
	m.bestScore.Observe(float64(score))
}

// RecordCheckError records a check that could not run.
func (m *MatchingMetrics) RecordCheckError(seconds float64) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(StatusError).Inc()
	m.checkDuration.Observe(seconds)
}

// RecordDetailFetch records the outcome of one candidate detail lookup.
func (m *MatchingMetrics) RecordDetailFetch(status string) {
	if m == nil {
		return
	}
	m.detailFetches.WithLabelValues(status).Inc()
	if status == StatusError {
		m.degradedCandidates.Inc()
	}
}

// Describe implements the prometheus.Collector interface.
func (m *MatchingMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.checksTotal.Describe(ch)
	ch <- m.checkDuration.Desc()
	m.detailFetches.Describe(ch)
	ch <- m.degradedCandidates.Desc()
	ch <- m.bestScore.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *MatchingMetrics) Collect(ch chan<- prometheus.Metric) {
	m.checksTotal.Collect(ch)
	ch <- m.checkDuration
	m.detailFetches.Collect(ch)
	ch <- m.degradedCandidates
	ch <- m.bestScore
}
