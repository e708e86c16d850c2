package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/ahrav/go-triage/internal/domain"
)

// FilterParams are the threshold filters applied to ranked issues.
// Invalid values are rejected outright rather than clamped, so a caller
// who filters with minScore 1.5 gets an error instead of silently
// different semantics.
type FilterParams struct {
	// MinScore keeps only issues whose score is greater than or equal to
	// this value. Must lie within [0.0, 1.0].
	MinScore float64 `yaml:"min_score" json:"min_score"`

	// MinOccurrences keeps only issues seen at least this many times.
	// Must be at least 1.
	MinOccurrences int `yaml:"min_occurrences" json:"min_occurrences"`
}

// DefaultFilterParams returns pass-through filters: every issue with at
// least one occurrence survives.
func DefaultFilterParams() FilterParams {
	return FilterParams{MinScore: 0.0, MinOccurrences: 1}
}

// Validate checks the filter thresholds, wrapping failures in the
// invalid-filter sentinel so callers can match with errors.Is.
func (p FilterParams) Validate() error {
	// NaN compares false against any bound, so it needs its own check.
	if math.IsNaN(p.MinScore) || p.MinScore < 0.0 || p.MinScore > 1.0 {
		return fmt.Errorf("%w: min score %.3f outside [0.0, 1.0]",
			domain.ErrInvalidFilterParams, p.MinScore)
	}
	if p.MinOccurrences < 1 {
		return fmt.Errorf("%w: min occurrences %d below 1",
			domain.ErrInvalidFilterParams, p.MinOccurrences)
	}
	return nil
}

// RankAndFilter sorts issues by score descending and drops those below the
// filter thresholds. Ties on score break by occurrence count descending,
// then by first-seen row ascending, so the output order is deterministic
// for identical inputs. The input slice is not modified.
func RankAndFilter(issues []domain.ScoredIssue, params FilterParams) (domain.ResultSet, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ranked := make(domain.ResultSet, 0, len(issues))
	for _, issue := range issues {
		if issue.Score >= params.MinScore && issue.Occurrences >= params.MinOccurrences {
			ranked = append(ranked, issue)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Occurrences != ranked[j].Occurrences {
			return ranked[i].Occurrences > ranked[j].Occurrences
		}
		return ranked[i].FirstSeen < ranked[j].FirstSeen
	})

	return ranked, nil
}
