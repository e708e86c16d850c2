package model

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// LexicalModelID identifies the built-in lexical classifier version.
	// Bump when the term table changes; scores must be reproducible for a
	// fixed model identifier.
	LexicalModelID = "lexical-v1"

	// lexicalBaseScore is the score of an issue matching no weighted terms.
	lexicalBaseScore = 0.15
)

func init() {
	RegisterProviderFactory("lexical", newLexicalProvider)
}

// lexicalProvider is a deterministic, dependency-free scoring backend.
// It assigns urgency from a fixed table of weighted terms, which makes it
// the default for air-gapped runs, smoke tests, and CI where no model
// weights or API credentials are available.
type lexicalProvider struct {
	folder cases.Caser
}

// lexicalTerm pairs a case-folded indicator term with its additive
// urgency weight.
type lexicalTerm struct {
	term   string
	weight float64
}

// lexicalTerms lists indicator terms in a fixed order so the floating-point
// sum is identical on every call. The table is fixed per LexicalModelID.
var lexicalTerms = []lexicalTerm{
	{"blocked", 0.25},
	{"broken", 0.3},
	{"cannot", 0.2},
	{"crash", 0.45},
	{"data loss", 0.55},
	{"down", 0.35},
	{"error", 0.25},
	{"fail", 0.3},
	{"leak", 0.4},
	{"outage", 0.55},
	{"security", 0.45},
	{"slow", 0.15},
	{"timeout", 0.25},
	{"typo", 0.05},
	{"urgent", 0.35},
	{"vulnerability", 0.5},
}

func newLexicalProvider(config AdapterConfig) (CoreModel, error) {
	return &lexicalProvider{folder: cases.Fold()}, nil
}

// Classify scores text by summing the weights of matched indicator terms
// on top of the base score. Matching is Unicode case-folded substring
// matching; the result may exceed 1.0 and relies on the adapter's clamp.
func (p *lexicalProvider) Classify(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	folded := p.folder.String(text)
	score := lexicalBaseScore
	for _, entry := range lexicalTerms {
		if strings.Contains(folded, entry.term) {
			score += entry.weight
		}
	}
	return score, nil
}

// ModelID returns the lexical classifier version identifier.
func (p *lexicalProvider) ModelID() string { return LexicalModelID }
