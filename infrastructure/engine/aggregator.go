package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-triage/internal/domain"
	"github.com/ahrav/go-triage/internal/ports"
)

// DefaultScoreConcurrency is the default number of concurrent scoring
// calls. Inference latency dominates a run, so unique keys are scored in
// parallel; the bound keeps local models within memory limits and remote
// providers under their rate limits.
const DefaultScoreConcurrency = 4

// AggregatorConfig controls grouping and scoring behavior.
// Configuration is immutable after aggregator creation.
type AggregatorConfig struct {
	// MaxConcurrency limits concurrent scoring calls across unique keys.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"min=1,max=64"`

	// NearDuplicateDistance folds a new key into an existing one when
	// their Levenshtein distance is within this bound. Zero (the default)
	// keeps grouping strictly exact on normalized keys.
	NearDuplicateDistance int `yaml:"near_duplicate_distance" json:"near_duplicate_distance" validate:"min=0,max=8"`
}

// DefaultAggregatorConfig returns production defaults: moderate scoring
// parallelism and exact-key grouping only.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		MaxConcurrency:        DefaultScoreConcurrency,
		NearDuplicateDistance: 0,
	}
}

// AggregateResult is the output of one aggregation pass: the unique issues
// in first-seen order plus the counts the metrics derivation needs.
// Ranking is applied later by RankAndFilter; the order here is not the
// presentation order.
type AggregateResult struct {
	// Issues holds one entry per unique non-empty key, in first-seen order.
	Issues []domain.ScoredIssue

	// TotalRecords is the number of raw records ingested, including empty ones.
	TotalRecords int

	// EmptyRecords counts records whose text normalized to the empty key.
	// They are excluded from Issues but retained in TotalRecords.
	EmptyRecords int

	// FailedScores counts unique keys whose scoring call failed and
	// received the 0.0 fallback.
	FailedScores int
}

// Aggregator groups records by normalized key and scores each unique key
// exactly once. It guarantees one scoring invocation per unique non-empty
// key regardless of how many duplicate raw records exist.
type Aggregator struct {
	normalizer *Normalizer
	config     AggregatorConfig
	tracer     trace.Tracer
}

// NewAggregator creates an Aggregator with validated configuration.
func NewAggregator(normalizer *Normalizer, config AggregatorConfig) (*Aggregator, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &Aggregator{
		normalizer: normalizer,
		config:     config,
		tracer:     otel.Tracer("triage-aggregator"),
	}, nil
}

// Aggregate runs the two-phase aggregation pass.
//
// Phase one walks records sequentially in input order, normalizing each to
// a key and counting occurrences per unique key (first-seen order, first
// raw text kept as the display text). Occurrence counting is strictly
// accumulative and finishes before any scoring starts.
//
// Phase two scores each unique non-empty key exactly once, dispatching
// calls across a bounded worker pool since they are side-effect-free and
// order-independent. A failed scoring call is recovered by assigning the
// 0.0 fallback and flagging the issue; it never aborts the batch. Context
// cancellation aborts the run between scoring calls.
//
// An empty input batch is not an error and yields an empty result.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	records []domain.IssueRecord,
	scorer ports.Scorer,
) (AggregateResult, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.Aggregate",
		trace.WithAttributes(
			attribute.Int("triage.records", len(records)),
			attribute.Int("config.max_concurrency", a.config.MaxConcurrency),
			attribute.Int("config.near_duplicate_distance", a.config.NearDuplicateDistance),
		),
	)
	defer span.End()

	if scorer == nil {
		return AggregateResult{}, fmt.Errorf("scorer cannot be nil")
	}

	result := AggregateResult{TotalRecords: len(records)}
	keyIndex := make(map[domain.NormalizedKey]int)

	for _, rec := range records {
		key := a.normalizer.Key(rec.RawText)
		if key.IsEmpty() {
			result.EmptyRecords++
			continue
		}

		if i, ok := keyIndex[key]; ok {
			result.Issues[i].Occurrences++
			continue
		}

		if a.config.NearDuplicateDistance > 0 {
			if i, ok := a.nearestGroup(key, result.Issues); ok {
				result.Issues[i].Occurrences++
				continue
			}
		}

		keyIndex[key] = len(result.Issues)
		result.Issues = append(result.Issues, domain.ScoredIssue{
			Key:         key,
			DisplayText: rec.RawText,
			Occurrences: 1,
			FirstSeen:   rec.SourceRow,
		})
	}

	if err := a.scoreUnique(ctx, result.Issues, scorer, &result.FailedScores); err != nil {
		span.RecordError(err)
		return AggregateResult{}, err
	}

	for i := range result.Issues {
		result.Issues[i].Level = domain.LevelForScore(result.Issues[i].Score)
	}

	span.SetAttributes(
		attribute.Int("triage.unique_issues", len(result.Issues)),
		attribute.Int("triage.empty_records", result.EmptyRecords),
		attribute.Int("triage.failed_scores", result.FailedScores),
	)

	return result, nil
}

// scoreUnique dispatches one scoring call per unique issue across a bounded
// worker pool. Each worker writes a distinct slice element, so no further
// synchronization is needed for the issues themselves.
func (a *Aggregator) scoreUnique(
	ctx context.Context,
	issues []domain.ScoredIssue,
	scorer ports.Scorer,
	failed *int,
) error {
	maxConcurrency := a.config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultScoreConcurrency
	}

	var failedCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i := range issues {
		g.Go(func() error {
			// Best-effort cancellation between scoring calls.
			if err := gctx.Err(); err != nil {
				return err
			}

			score, err := scorer.Score(gctx, issues[i].DisplayText)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// Recoverable per-key failure: fallback score, flag, continue.
				issues[i].Score = 0.0
				issues[i].ScoreFailed = true
				failedCount.Add(1)
				return nil
			}

			issues[i].Score = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("scoring pass aborted: %w", err)
	}

	*failed = int(failedCount.Load())
	return nil
}

// nearestGroup scans existing groups in first-seen order and returns the
// index of the first key within the configured edit distance. Scanning in
// first-seen order keeps folding deterministic when several groups are
// within range.
func (a *Aggregator) nearestGroup(key domain.NormalizedKey, issues []domain.ScoredIssue) (int, bool) {
	for i := range issues {
		if levenshtein.ComputeDistance(string(key), string(issues[i].Key)) <= a.config.NearDuplicateDistance {
			return i, true
		}
	}
	return 0, false
}
