package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-triage/internal/ports"
)

// testPrometheusMetrics provides a global instance to avoid duplicate metric
// registration issues across tests in the same package.
var testPrometheusMetrics *PrometheusMetrics

func init() {
	testPrometheusMetrics = NewPrometheusMetrics()
}

func TestNewPrometheusMetrics(t *testing.T) {
	pm := testPrometheusMetrics

	assert.NotNil(t, pm)
	assert.NotNil(t, pm.scoringCalls)
	assert.NotNil(t, pm.scoringLatency)
	assert.NotNil(t, pm.scoreValues)
	assert.NotNil(t, pm.runGauges)
	assert.NotNil(t, pm.runCounters)

	var _ ports.MetricsCollector = pm
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := testPrometheusMetrics

	pm.RecordCounter("scoring_calls_total", 1, map[string]string{
		"model":  "lexical-v1",
		"status": "success",
	})
	pm.RecordCounter("scoring_calls_total", 2, map[string]string{
		"model":  "lexical-v1",
		"status": "success",
	})

	got := testutil.ToFloat64(pm.scoringCalls.WithLabelValues("lexical-v1", "success"))
	assert.Equal(t, 3.0, got)
}

func TestPrometheusMetrics_RecordCounterDefaultsStatus(t *testing.T) {
	pm := testPrometheusMetrics

	pm.RecordCounter("pipeline_runs_total", 1, map[string]string{})

	got := testutil.ToFloat64(pm.runCounters.WithLabelValues("pipeline_runs_total", "success"))
	assert.GreaterOrEqual(t, got, 1.0)
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm := testPrometheusMetrics

	pm.RecordGauge("unique_issues", 42, nil)
	assert.Equal(t, 42.0, testutil.ToFloat64(pm.runGauges.WithLabelValues("unique_issues")))

	pm.RecordGauge("unique_issues", 7, nil)
	assert.Equal(t, 7.0, testutil.ToFloat64(pm.runGauges.WithLabelValues("unique_issues")))
}

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	pm := testPrometheusMetrics

	// Histograms cannot be read back as a single value; the assertion is
	// simply that recording with and without a model label does not panic.
	pm.RecordLatency("score", 15*time.Millisecond, map[string]string{"model": "lexical-v1"})
	pm.RecordLatency("score", 15*time.Millisecond, nil)
}

func TestPrometheusMetrics_RecordHistogram(t *testing.T) {
	pm := testPrometheusMetrics

	pm.RecordHistogram("scoring_score", 0.85, map[string]string{"model": "lexical-v1"})
	pm.RecordHistogram("other_metric", 0.1, map[string]string{"model": "lexical-v1"})
}
