package domain

import (
	"errors"
	"fmt"
)

// Common domain errors returned by the triage engine.
var (
	// ErrModelUnavailable indicates that the scoring model could not be
	// loaded or initialized. It is fatal at adapter construction time;
	// the engine never retries model loading itself.
	ErrModelUnavailable = errors.New("scoring model unavailable")

	// ErrScoringFailed indicates that scoring a single unique key failed.
	// The failure is local: the aggregator assigns the 0.0 fallback score,
	// flags the issue, and the batch continues.
	ErrScoringFailed = errors.New("scoring failed")

	// ErrInvalidFilterParams indicates out-of-range filter parameters.
	// The ranker rejects them outright rather than clamping, leaving any
	// previously published result set untouched.
	ErrInvalidFilterParams = errors.New("invalid filter parameters")
)

// ScoringError reports a per-key scoring failure with the key that failed.
// It wraps ErrScoringFailed so callers can match it with errors.Is.
type ScoringError struct {
	// Key is the normalized key whose scoring call failed.
	Key NormalizedKey

	// Err is the underlying provider or transport error.
	Err error
}

// Error implements the error interface for ScoringError.
func (e *ScoringError) Error() string {
	return fmt.Sprintf("%v: key=%q: %v", ErrScoringFailed, string(e.Key), e.Err)
}

// Unwrap returns the underlying error.
func (e *ScoringError) Unwrap() error { return e.Err }

// Is matches ScoringError against the ErrScoringFailed sentinel.
func (e *ScoringError) Is(target error) bool { return target == ErrScoringFailed }

// NewScoringError creates a ScoringError for the given key.
func NewScoringError(key NormalizedKey, err error) *ScoringError {
	return &ScoringError{Key: key, Err: err}
}
