package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicalProvider_Classify(t *testing.T) {
	provider, err := newLexicalProvider(AdapterConfig{})
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"no indicator terms", "please add dark mode", lexicalBaseScore},
		{"single term", "app crash on startup", lexicalBaseScore + 0.45},
		{"case folded match", "CRASH when saving", lexicalBaseScore + 0.45},
		{"multiple terms accumulate", "crash with data loss", lexicalBaseScore + 0.45 + 0.55},
		{"multiword term", "we observed data loss overnight", lexicalBaseScore + 0.55},
		{"empty text", "", lexicalBaseScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLexicalProvider_Deterministic(t *testing.T) {
	provider, err := newLexicalProvider(AdapterConfig{})
	require.NoError(t, err)

	// Many matched terms means many float additions; the score must be
	// bit-identical on every call, not merely close.
	text := "urgent: crash and outage, data loss, security vulnerability, " +
		"broken login, error, timeout, cannot save, blocked, slow, leak"

	first, err := provider.Classify(context.Background(), text)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		again, err := provider.Classify(context.Background(), text)
		require.NoError(t, err)
		require.Equal(t, first, again, "score diverged on call %d", i)
	}
}

func TestLexicalProvider_RespectsContext(t *testing.T) {
	provider, err := newLexicalProvider(AdapterConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = provider.Classify(ctx, "crash")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLexicalProvider_ThroughAdapterClampsHighScores(t *testing.T) {
	adapter, err := NewAdapter(AdapterConfig{Provider: "lexical"})
	require.NoError(t, err)

	// Enough stacked terms push the raw sum past 1.0; the adapter clamps.
	score, err := adapter.Score(context.Background(),
		"urgent: crash, outage, data loss, security vulnerability, broken, error")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}
