package model

import (
	"context"
	"time"

	"github.com/ahrav/go-triage/internal/ports"
)

// metricsModel collects scoring call metrics: latency, call counts, error
// rates, and the score distribution.
type metricsModel struct {
	next      CoreModel
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that records scoring metrics through
// the given collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreModel) CoreModel {
		return &metricsModel{next: next, collector: collector}
	}
}

// Classify executes the scoring call while recording latency, status, and
// the resulting score.
func (m *metricsModel) Classify(ctx context.Context, text string) (float64, error) {
	start := time.Now()
	score, err := m.next.Classify(ctx, text)

	labels := map[string]string{
		"model":  m.next.ModelID(),
		"status": "success",
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			labels["status"] = "timeout"
		} else {
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordLatency("score", time.Since(start), labels)
		m.collector.RecordCounter("scoring_calls_total", 1, labels)
		if err == nil {
			m.collector.RecordHistogram("scoring_score", score, labels)
		}
	}

	return score, err
}

// ModelID returns the model identifier from the wrapped implementation.
func (m *metricsModel) ModelID() string { return m.next.ModelID() }
