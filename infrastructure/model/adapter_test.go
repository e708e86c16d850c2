package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-triage/internal/domain"
)

// stubModel is a minimal CoreModel for adapter and middleware tests.
type stubModel struct {
	mu       sync.Mutex
	score    float64
	err      error
	calls    int
	lastText string
}

func (s *stubModel) Classify(ctx context.Context, text string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastText = text
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}

func (s *stubModel) ModelID() string { return "stub-v1" }

func (s *stubModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewAdapter_UnknownProvider(t *testing.T) {
	_, err := NewAdapter(AdapterConfig{Provider: "no-such-backend"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestNewAdapter_FactoryFailureIsFatal(t *testing.T) {
	RegisterProviderFactory("broken-test-backend", func(AdapterConfig) (CoreModel, error) {
		return nil, errors.New("weights file missing")
	})

	_, err := NewAdapter(AdapterConfig{Provider: "broken-test-backend"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "weights file missing")
}

func TestAdapter_ScoreTruncatesInput(t *testing.T) {
	stub := &stubModel{score: 0.5}
	adapter := &Adapter{core: stub}

	long := strings.Repeat("a", MaxTextRunes+100)
	_, err := adapter.Score(context.Background(), long)
	require.NoError(t, err)

	assert.Len(t, []rune(stub.lastText), MaxTextRunes)
}

func TestAdapter_ScoreClampsResult(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"above one clamps down", 1.7, 1.0},
		{"below zero clamps up", -0.3, 0.0},
		{"in range passes through", 0.42, 0.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &Adapter{core: &stubModel{score: tt.raw}}
			got, err := adapter.Score(context.Background(), "test issue")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAdapter_ScoreFailureWrapsSentinel(t *testing.T) {
	cause := errors.New("inference failed")
	adapter := &Adapter{core: &stubModel{err: cause}}

	_, err := adapter.Score(context.Background(), "test issue")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScoringFailed)
	assert.ErrorIs(t, err, cause)
}

func TestAdapter_MiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CoreModel) CoreModel {
			return classifyFunc{fn: func(ctx context.Context, text string) (float64, error) {
				order = append(order, name)
				return next.Classify(ctx, text)
			}, id: next.ModelID}
		}
	}

	RegisterProviderFactory("order-test-backend", func(AdapterConfig) (CoreModel, error) {
		return &stubModel{score: 0.5}, nil
	})

	adapter, err := NewAdapter(AdapterConfig{
		Provider:   "order-test-backend",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = adapter.Score(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

// classifyFunc adapts a function to the CoreModel interface for tests.
type classifyFunc struct {
	fn func(ctx context.Context, text string) (float64, error)
	id func() string
}

func (c classifyFunc) Classify(ctx context.Context, text string) (float64, error) {
	return c.fn(ctx, text)
}

func (c classifyFunc) ModelID() string { return c.id() }

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     string
	}{
		{"shorter than limit", "short", 10, "short"},
		{"exactly at limit", "12345", 5, "12345"},
		{"truncated", "1234567890", 5, "12345"},
		{"multibyte runes preserved", "héllo wörld", 7, "héllo w"},
		{"zero limit disables truncation", "anything", 0, "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.text, tt.maxRunes))
		})
	}
}
