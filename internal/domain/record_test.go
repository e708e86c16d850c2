package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedKey_IsEmpty(t *testing.T) {
	assert.True(t, EmptyKey.IsEmpty())
	assert.True(t, NormalizedKey("").IsEmpty())
	assert.False(t, NormalizedKey("login fails").IsEmpty())
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  PriorityLevel
	}{
		{"high at threshold", 0.8, PriorityHigh},
		{"high above threshold", 0.95, PriorityHigh},
		{"medium at threshold", 0.5, PriorityMedium},
		{"medium below high", 0.79, PriorityMedium},
		{"low below medium", 0.49, PriorityLow},
		{"low at zero", 0.0, PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelForScore(tt.score))
		})
	}
}

func TestComputeMetrics(t *testing.T) {
	tests := []struct {
		name         string
		results      ResultSet
		totalRecords int
		want         RunMetrics
	}{
		{
			name:         "empty result set yields zeroed metrics",
			results:      ResultSet{},
			totalRecords: 0,
			want:         RunMetrics{},
		},
		{
			name:         "empty results still report total records",
			results:      ResultSet{},
			totalRecords: 3,
			want:         RunMetrics{TotalRecords: 3},
		},
		{
			name: "two issues",
			results: ResultSet{
				{Key: "login fails", Score: 0.9, Occurrences: 3},
				{Key: "crash on save", Score: 0.4, Occurrences: 1},
			},
			totalRecords: 4,
			want: RunMetrics{
				UniqueCount:  2,
				TotalRecords: 4,
				MaxScore:     0.9,
				AvgScore:     0.65,
			},
		},
		{
			name: "single issue",
			results: ResultSet{
				{Key: "outage", Score: 0.7, Occurrences: 5},
			},
			totalRecords: 5,
			want: RunMetrics{
				UniqueCount:  1,
				TotalRecords: 5,
				MaxScore:     0.7,
				AvgScore:     0.7,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMetrics(tt.results, tt.totalRecords)
			assert.Equal(t, tt.want.UniqueCount, got.UniqueCount)
			assert.Equal(t, tt.want.TotalRecords, got.TotalRecords)
			assert.InDelta(t, tt.want.MaxScore, got.MaxScore, 1e-9)
			assert.InDelta(t, tt.want.AvgScore, got.AvgScore, 1e-9)
		})
	}
}

func TestComputeMetrics_FallbackScoresCountTowardAverage(t *testing.T) {
	results := ResultSet{
		{Key: "a", Score: 1.0},
		{Key: "b", Score: 0.0, ScoreFailed: true},
	}

	got := ComputeMetrics(results, 2)
	require.Equal(t, 2, got.UniqueCount)
	assert.InDelta(t, 0.5, got.AvgScore, 1e-9)
	assert.InDelta(t, 1.0, got.MaxScore, 1e-9)
}
