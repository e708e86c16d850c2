package model

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowModel blocks until its context is done, simulating a hung backend.
type slowModel struct{}

func (slowModel) Classify(ctx context.Context, text string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (slowModel) ModelID() string { return "slow-v1" }

// flakyModel fails a fixed number of times before succeeding.
type flakyModel struct {
	mu       sync.Mutex
	failures int
	failErr  error
	calls    int
	score    float64
}

func (f *flakyModel) Classify(ctx context.Context, text string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return 0, f.failErr
	}
	return f.score, nil
}

func (f *flakyModel) ModelID() string { return "flaky-v1" }

func (f *flakyModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestTimeoutMiddleware_BoundsCall(t *testing.T) {
	wrapped := TimeoutMiddleware(20 * time.Millisecond)(slowModel{})

	start := time.Now()
	_, err := wrapped.Classify(context.Background(), "test")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestTimeoutMiddleware_FastCallSucceeds(t *testing.T) {
	wrapped := TimeoutMiddleware(time.Second)(&stubModel{score: 0.6})

	score, err := wrapped.Classify(context.Background(), "test")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestRetryMiddleware_RetriesTransientFailures(t *testing.T) {
	flaky := &flakyModel{
		failures: 2,
		failErr:  &ProviderError{Type: ErrorTypeServerError, Provider: "test"},
		score:    0.7,
	}
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(flaky)

	score, err := wrapped.Classify(context.Background(), "test")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, score, 1e-9)
	assert.Equal(t, 3, flaky.callCount())
}

func TestRetryMiddleware_ExhaustsRetries(t *testing.T) {
	flaky := &flakyModel{
		failures: 10,
		failErr:  &ProviderError{Type: ErrorTypeServerError, Provider: "test"},
	}
	wrapped := RetryMiddleware(2, time.Millisecond, 10*time.Millisecond)(flaky)

	_, err := wrapped.Classify(context.Background(), "test")
	require.Error(t, err)
	assert.Equal(t, 3, flaky.callCount(), "initial attempt plus two retries")
}

func TestRetryMiddleware_NonRetryableFailsFast(t *testing.T) {
	flaky := &flakyModel{
		failures: 10,
		failErr:  &ProviderError{Type: ErrorTypeAuthentication, Provider: "test"},
	}
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(flaky)

	_, err := wrapped.Classify(context.Background(), "test")
	require.Error(t, err)
	assert.Equal(t, 1, flaky.callCount(), "authentication failures are not retried")
}

func TestRetryMiddleware_UnclassifiedErrorsAreRetried(t *testing.T) {
	flaky := &flakyModel{
		failures: 1,
		failErr:  errors.New("connection reset"),
		score:    0.5,
	}
	wrapped := RetryMiddleware(2, time.Millisecond, 10*time.Millisecond)(flaky)

	_, err := wrapped.Classify(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 2, flaky.callCount())
}

func TestRetryMiddleware_StopsOnContextCancellation(t *testing.T) {
	flaky := &flakyModel{
		failures: 10,
		failErr:  &ProviderError{Type: ErrorTypeServerError, Provider: "test"},
	}
	wrapped := RetryMiddleware(5, 50*time.Millisecond, time.Second)(flaky)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := wrapped.Classify(ctx, "test")
	require.Error(t, err)
	assert.LessOrEqual(t, flaky.callCount(), 2)
}

func TestRateLimitMiddleware_DelaysCalls(t *testing.T) {
	stub := &stubModel{score: 0.5}
	wrapped := RateLimitMiddleware(10, 1)(stub) // 10 per second, burst 1

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := wrapped.Classify(context.Background(), "test")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// Burst covers the first call; the next two wait ~100ms each.
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Equal(t, 3, stub.callCount())
}

func TestRateLimitMiddleware_RespectsContext(t *testing.T) {
	wrapped := RateLimitMiddleware(0.1, 1)(&stubModel{score: 0.5})

	// First call consumes the burst token.
	_, err := wrapped.Classify(context.Background(), "test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = wrapped.Classify(ctx, "test")
	require.Error(t, err)
}

func TestMiddleware_PreservesModelID(t *testing.T) {
	stub := &stubModel{score: 0.5}

	chained := TimeoutMiddleware(time.Second)(
		RetryMiddleware(1, time.Millisecond, time.Millisecond)(
			RateLimitMiddleware(100, 10)(stub)))

	assert.Equal(t, "stub-v1", chained.ModelID())
}
