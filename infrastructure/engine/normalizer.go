package engine

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ahrav/go-triage/internal/domain"
)

// foldCaser is a package-level Unicode case folder.
// This avoids creating a new caser for each normalization.
var foldCaser = cases.Fold()

// NormalizerConfig controls which characters are stripped while deriving
// grouping keys. Configuration is immutable after normalizer creation.
type NormalizerConfig struct {
	// Punctuation is the set of characters removed from issue text before
	// grouping. Characters outside this set are preserved.
	Punctuation string `yaml:"punctuation" json:"punctuation"`
}

// DefaultNormalizerConfig returns the punctuation set used by the engine
// unless overridden: common ASCII punctuation plus typographic quotes.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Punctuation: "!?.,:;\"'`~@#$%^&*()[]{}<>+=|\\/‐–—“”‘’",
	}
}

// Normalizer canonicalizes raw issue text into grouping keys.
// It is a pure, deterministic transform: two records with equal keys are
// the same issue. The normalizer is stateless apart from its configuration
// and safe for reuse across runs.
type Normalizer struct {
	strip map[rune]struct{}
}

// NewNormalizer creates a Normalizer with the given configuration.
func NewNormalizer(config NormalizerConfig) *Normalizer {
	strip := make(map[rune]struct{}, len(config.Punctuation))
	for _, r := range config.Punctuation {
		strip[r] = struct{}{}
	}
	return &Normalizer{strip: strip}
}

// Key derives the canonical grouping key for raw issue text: NFKC Unicode
// normalization, Unicode case folding, configured punctuation stripped, and
// whitespace runs collapsed to single spaces. Empty or whitespace-only
// input yields domain.EmptyKey. Key never fails.
func (n *Normalizer) Key(raw string) domain.NormalizedKey {
	s := norm.NFKC.String(raw)
	s = foldCaser.String(s)

	s = strings.Map(func(r rune) rune {
		if _, ok := n.strip[r]; ok {
			return -1
		}
		return r
	}, s)

	// Fields both collapses internal whitespace runs and trims the ends.
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return domain.EmptyKey
	}
	return domain.NormalizedKey(strings.Join(fields, " "))
}
