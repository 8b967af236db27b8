package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by metric and request counters.
const (
	OutcomeSuccess           = "success"
	OutcomeUnknownMetric     = "unknown_metric"
	OutcomeTimeout           = "timeout"
	OutcomeDependencyMissing = "dependency_missing"
	OutcomeFailed            = "failed"
	OutcomeCancelled         = "cancelled"
	OutcomeInvalid           = "invalid"
)

// Metrics tracks evaluation traffic.
//
// Usage:
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	defer metrics.ObserveEvaluation("summac", observability.OutcomeSuccess, time.Now())
type Metrics struct {
	// EvaluationCounter counts metric evaluations.
	// Labels: metric, outcome
	EvaluationCounter *prometheus.CounterVec

	// EvaluationDuration measures how long the caller waited for a metric in seconds.
	// Labels: metric
	// Buckets: 0.01s, 0.05s, 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s
	EvaluationDuration *prometheus.HistogramVec

	// RequestCounter counts /evaluate requests by final outcome.
	// Labels: outcome
	RequestCounter *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Call it once per registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalservice_metric_evaluations_total",
				Help: "Total number of metric evaluations by metric and outcome",
			},
			[]string{"metric", "outcome"},
		),

		EvaluationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evalservice_metric_duration_seconds",
				Help:    "Time spent waiting for a metric evaluation in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"metric"},
		),

		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalservice_requests_total",
				Help: "Total number of evaluation requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveEvaluation records one metric evaluation that started at start.
// A nil receiver is a no-op.
func (m *Metrics) ObserveEvaluation(metric, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.EvaluationCounter.WithLabelValues(metric, outcome).Inc()
	m.EvaluationDuration.WithLabelValues(metric).Observe(time.Since(start).Seconds())
}

// ObserveRequest records the outcome of one evaluation request.
// A nil receiver is a no-op.
func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(outcome).Inc()
}
