package model

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedModel paces scoring calls with a token bucket so concurrent
// unique-key workers stay under remote provider rate limits.
type rateLimitedModel struct {
	next    CoreModel
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces rate limiting using
// a token bucket algorithm. The limit parameter sets calls per second,
// while burst allows temporary spikes above the sustained rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next CoreModel) CoreModel {
		return &rateLimitedModel{next: next, limiter: limiter}
	}
}

// Classify waits for rate limit permission before forwarding the call.
func (r *rateLimitedModel) Classify(ctx context.Context, text string) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Classify(ctx, text)
}

// ModelID returns the model identifier from the wrapped implementation.
func (r *rateLimitedModel) ModelID() string { return r.next.ModelID() }
