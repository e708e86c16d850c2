package engine

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/ahrav/go-triage/internal/domain"
)

// snapshot pairs a ranked result set with the metrics derived from it.
// A snapshot is immutable once published.
type snapshot struct {
	results    domain.ResultSet
	metrics    domain.RunMetrics
	replacedAt time.Time
}

// ResultStore holds the latest published result set. Publication is an
// atomic whole-snapshot swap: readers see either the previous run or the
// new one in full, never a partially updated state. Reads never block
// writes and writes never block reads.
type ResultStore struct {
	current atomic.Pointer[snapshot]
}

// NewResultStore creates a store holding an empty result set with zeroed
// metrics, which is what readers see before the first run publishes.
func NewResultStore() *ResultStore {
	s := &ResultStore{}
	s.current.Store(&snapshot{results: domain.ResultSet{}})
	return s
}

// Replace publishes a new result set and its metrics, discarding the
// previous snapshot. The results are copied so later mutation of the
// caller's slice cannot leak into published state.
func (s *ResultStore) Replace(results domain.ResultSet, metrics domain.RunMetrics) {
	copied := make(domain.ResultSet, len(results))
	copy(copied, results)

	s.current.Store(&snapshot{
		results:    copied,
		metrics:    metrics,
		replacedAt: time.Now(),
	})
}

// All returns a copy of the current result set in ranked order.
func (s *ResultStore) All() domain.ResultSet {
	snap := s.current.Load()
	out := make(domain.ResultSet, len(snap.results))
	copy(out, snap.results)
	return out
}

// Metrics returns the metrics of the current snapshot.
func (s *ResultStore) Metrics() domain.RunMetrics {
	return s.current.Load().metrics
}

// ReplacedAt returns when the current snapshot was published. The zero
// time indicates no run has published yet.
func (s *ResultStore) ReplacedAt() time.Time {
	return s.current.Load().replacedAt
}

// Search returns the issues whose display text contains the query,
// case-insensitively, preserving ranked order. An empty query matches
// everything.
func (s *ResultStore) Search(query string) domain.ResultSet {
	snap := s.current.Load()
	needle := strings.ToLower(query)

	out := make(domain.ResultSet, 0, len(snap.results))
	for _, issue := range snap.results {
		if strings.Contains(strings.ToLower(issue.DisplayText), needle) {
			out = append(out, issue)
		}
	}
	return out
}
