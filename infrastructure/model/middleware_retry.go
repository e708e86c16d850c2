package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// retryModel implements automatic retry with exponential backoff for
// transient provider failures.
type retryModel struct {
	next       CoreModel
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that retries failed scoring calls with
// exponential backoff and jitter. Non-retryable provider errors (bad
// requests, authentication) fail immediately.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreModel) CoreModel {
		return &retryModel{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

// Classify executes the scoring call with automatic retry logic, respecting
// context cancellation between attempts.
func (r *retryModel) Classify(ctx context.Context, text string) (float64, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		score, err := r.next.Classify(ctx, text)
		if err == nil {
			return score, nil
		}

		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			break
		}
		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
		}
	}

	return 0, fmt.Errorf("scoring failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retryModel) calculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	// #nosec G115 - attempt is bounded between 0 and 30
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Jitter (±25%) spreads retries from concurrent workers.
	// #nosec G404 - weak RNG is acceptable for jitter
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

// isRetryable reports whether an error is worth retrying. Classified
// provider errors expose retryability directly; anything unclassified is
// treated as transient.
func isRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}
	return true
}

// ModelID returns the model identifier from the wrapped implementation.
func (r *retryModel) ModelID() string { return r.next.ModelID() }
