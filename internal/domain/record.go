// Package domain defines the core entities of the issue triage engine:
// raw issue records, normalized keys, scored issues, ranked result sets,
// and the metrics derived from a completed ingestion run.
package domain

// NormalizedKey is the canonical string form of an issue's text, used as
// the dedup/grouping key. Two IssueRecords with equal keys are the same issue.
type NormalizedKey string

// EmptyKey is the dedicated key for records whose text is empty or
// whitespace-only after normalization. Empty records are grouped separately,
// never scored, and excluded from the default view while still counting
// toward the total-record metric.
const EmptyKey NormalizedKey = ""

// IsEmpty reports whether the key is the dedicated empty-record key.
func (k NormalizedKey) IsEmpty() bool { return k == EmptyKey }

// IssueRecord is the raw input unit handed to the engine by the ingestion
// boundary. Records are immutable and discarded after normalization.
type IssueRecord struct {
	// RawText is the free-text issue description as uploaded.
	RawText string `json:"raw_text"`

	// SourceRow is the zero-based provenance index of the record in the
	// uploaded batch. Input order feeds first-seen tie-breaking, so the
	// ingestion boundary must preserve it.
	SourceRow int `json:"source_row"`
}

// PriorityLevel is the coarse label derived from a priority score for
// presentation purposes.
type PriorityLevel string

// Priority level bands. Thresholds are fixed: high at 0.8, medium at 0.5.
const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

// LevelForScore maps a priority score to its presentation label.
func LevelForScore(score float64) PriorityLevel {
	switch {
	case score >= 0.8:
		return PriorityHigh
	case score >= 0.5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ScoredIssue is one entry per unique normalized key: the representative
// text, the model-assigned priority score, and the number of raw records
// that collapsed into it. Instances are immutable once the aggregation
// pass completes.
type ScoredIssue struct {
	// Key is the normalized grouping key for this issue.
	Key NormalizedKey `json:"key"`

	// DisplayText is the first-seen raw text for the key, kept verbatim
	// for presentation.
	DisplayText string `json:"display_text"`

	// Score is the model-assigned priority in [0.0, 1.0].
	Score float64 `json:"score"`

	// Occurrences counts the raw records sharing this key (>= 1).
	Occurrences int `json:"occurrences"`

	// FirstSeen is the SourceRow of the first record with this key.
	// It is the final tie-break in ranking.
	FirstSeen int `json:"first_seen"`

	// Level is the presentation label derived from Score.
	Level PriorityLevel `json:"level"`

	// ScoreFailed marks issues whose scoring call failed and whose Score
	// was assigned the 0.0 fallback. Failed scores never abort a run.
	ScoreFailed bool `json:"score_failed,omitempty"`
}

// ResultSet is the ranked, filtered, deduplicated issue list exposed to the
// presentation and export collaborators. It is sorted by descending score,
// ties broken by descending occurrences, then by first-seen input order.
// A ResultSet is built once per ingestion run and read-only afterward.
type ResultSet []ScoredIssue

// RunMetrics holds the derived metrics for one ingestion run.
// All fields are zero on an empty batch; AvgScore is defined as 0.0 when
// there are no unique issues to avoid division by zero.
type RunMetrics struct {
	// UniqueCount is the number of unique issues in the result set.
	UniqueCount int `json:"unique_count"`

	// TotalRecords is the number of raw records ingested, including
	// empty-text records that never reach scoring.
	TotalRecords int `json:"total_records"`

	// MaxScore is the highest priority score in the result set.
	MaxScore float64 `json:"max_score"`

	// AvgScore is the arithmetic mean score across unique issues.
	AvgScore float64 `json:"avg_score"`
}

// ComputeMetrics derives RunMetrics from a result set and the raw record
// count of the run that produced it.
func ComputeMetrics(rs ResultSet, totalRecords int) RunMetrics {
	m := RunMetrics{
		UniqueCount:  len(rs),
		TotalRecords: totalRecords,
	}
	if len(rs) == 0 {
		return m
	}

	var sum float64
	for _, issue := range rs {
		sum += issue.Score
		if issue.Score > m.MaxScore {
			m.MaxScore = issue.Score
		}
	}
	m.AvgScore = sum / float64(len(rs))
	return m
}
