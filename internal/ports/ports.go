// Package ports defines the interfaces that form the contract between the
// triage engine's domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
	"time"
)

// Scorer assigns a priority score to a piece of issue text.
// Implementations wrap a pretrained text-classification model behind a
// stable contract: identical input always yields the same output for a
// fixed model version, and results are clamped to [0.0, 1.0].
//
// The aggregator invokes Score at most once per unique normalized key per
// run; implementations must be safe for concurrent calls since unique-key
// scoring is dispatched across a bounded worker pool.
type Scorer interface {
	// Score returns the priority score for text in [0.0, 1.0].
	// Per-call failures (malformed input, transport errors, timeouts)
	// return an error wrapping domain.ErrScoringFailed and must not be
	// treated as fatal by callers.
	//
	// The context parameter allows cancellation and deadline propagation;
	// implementations should return promptly when it is done.
	Score(ctx context.Context, text string) (float64, error)

	// ModelID returns the identifier of the loaded model version.
	// It is used for logging, reproducibility checks, and debugging.
	ModelID() string
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like scoring calls and errors.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like snapshot sizes.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like score values.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
