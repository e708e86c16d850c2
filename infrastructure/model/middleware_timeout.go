package model

import (
	"context"
	"time"
)

// timeoutModel enforces a per-call inference deadline.
// A slow model on a large batch is the primary latency risk; bounding each
// call converts a hung key into a recoverable scoring failure instead of a
// stalled run.
type timeoutModel struct {
	next    CoreModel
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-call scoring
// timeout. A call exceeding the deadline fails only for its own key; the
// batch continues.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreModel) CoreModel {
		return &timeoutModel{next: next, timeout: timeout}
	}
}

// Classify runs the inference call with a timeout context.
func (t *timeoutModel) Classify(ctx context.Context, text string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Classify(ctx, text)
}

// ModelID returns the model identifier from the wrapped implementation.
func (t *timeoutModel) ModelID() string { return t.next.ModelID() }
