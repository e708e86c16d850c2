// Package middleware provides cross-cutting concerns for the scoring engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-triage/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It exposes scoring throughput, latency, failure rates, and
// run-level aggregation gauges for the triage engine.
type PrometheusMetrics struct {
	scoringCalls   *prometheus.CounterVec
	scoringLatency *prometheus.HistogramVec
	scoreValues    *prometheus.HistogramVec
	runGauges      *prometheus.GaugeVec
	runCounters    *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		scoringCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_scoring_calls_total",
				Help: "Total number of model scoring calls, by model and outcome.",
			},
			[]string{"model", "status"},
		),
		scoringLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_scoring_duration_seconds",
				Help:    "Latency of individual model scoring calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "model"},
		),
		scoreValues: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_score_values",
				Help:    "Distribution of priority scores returned by the model.",
				Buckets: prometheus.LinearBuckets(0.0, 0.1, 11),
			},
			[]string{"model"},
		),
		runGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "triage_run_state",
				Help: "Aggregation metrics of the most recent published run.",
			},
			[]string{"metric"},
		),
		runCounters: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_run_operations_total",
				Help: "Total pipeline operations, by operation and outcome.",
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	model, ok := labels["model"]
	if !ok {
		model = "unknown"
	}
	pm.scoringLatency.WithLabelValues(operation, model).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	status, ok := labels["status"]
	if !ok {
		status = "success"
	}

	switch metric {
	case "scoring_calls_total":
		model, ok := labels["model"]
		if !ok {
			model = "unknown"
		}
		pm.scoringCalls.WithLabelValues(model, status).Add(value)
	default:
		pm.runCounters.WithLabelValues(metric, status).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.runGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	model, ok := labels["model"]
	if !ok {
		model = "unknown"
	}

	switch metric {
	case "scoring_score":
		pm.scoreValues.WithLabelValues(model).Observe(value)
	default:
		pm.scoringLatency.WithLabelValues(metric, model).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
