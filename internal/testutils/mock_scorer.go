// Package testutils provides deterministic test doubles for the triage
// pipeline, most importantly a call-counting mock scorer for verifying
// scoring invariants without a real model.
package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahrav/go-triage/internal/domain"
	"github.com/ahrav/go-triage/internal/ports"
)

// MockScorer implements the Scorer interface with deterministic,
// pre-configured scores per text. It counts scoring calls per text so
// tests can assert that each unique key is scored exactly once, and it
// can inject failures to exercise the fallback path.
type MockScorer struct {
	mu sync.Mutex

	// model is the mock model identifier.
	model string
	// scores maps exact input text to the score returned for it.
	scores map[string]float64
	// failures holds inputs whose scoring call returns an error.
	failures map[string]error
	// calls counts scoring invocations per input text.
	calls map[string]int
	// defaultScore is returned for inputs with no configured score.
	defaultScore float64
}

// NewMockScorer creates a MockScorer that answers defaultScore for any
// text not explicitly configured.
func NewMockScorer(defaultScore float64) *MockScorer {
	return &MockScorer{
		model:        "mock-scorer",
		scores:       make(map[string]float64),
		failures:     make(map[string]error),
		calls:        make(map[string]int),
		defaultScore: defaultScore,
	}
}

// SetScore configures the score returned for an exact input text.
func (m *MockScorer) SetScore(text string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[text] = score
}

// FailOn makes scoring calls for the given text return an error wrapping
// the scoring-failed sentinel, mirroring the real adapter's behavior.
func (m *MockScorer) FailOn(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[text] = fmt.Errorf("%w: mock failure for %q", domain.ErrScoringFailed, text)
}

// Score implements the Scorer interface with the configured responses.
// It respects context cancellation so pipeline abort paths are testable.
func (m *MockScorer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[text]++

	if err, ok := m.failures[text]; ok {
		return 0, err
	}
	if score, ok := m.scores[text]; ok {
		return score, nil
	}
	return m.defaultScore, nil
}

// ModelID implements the Scorer interface.
func (m *MockScorer) ModelID() string { return m.model }

// CallCount returns how many times the given text was scored.
func (m *MockScorer) CallCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[text]
}

// TotalCalls returns the number of scoring calls across all inputs.
func (m *MockScorer) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Compile-time verification that MockScorer implements Scorer.
var _ ports.Scorer = (*MockScorer)(nil)
