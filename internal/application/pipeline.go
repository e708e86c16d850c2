package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-triage/infrastructure/engine"
	"github.com/ahrav/go-triage/internal/domain"
	"github.com/ahrav/go-triage/internal/ports"
)

// Pipeline runs the full triage pass: aggregate records by normalized key,
// score each unique key once, rank and filter, derive metrics, and publish
// the result atomically. A Pipeline is safe for repeated runs; each run
// replaces the previous snapshot in full.
type Pipeline struct {
	aggregator *engine.Aggregator
	scorer     ports.Scorer
	store      *engine.ResultStore
	filters    engine.FilterParams
	metrics    ports.MetricsCollector
	tracer     trace.Tracer
}

// NewPipeline wires the aggregation engine, scorer, and result store into
// a runnable pipeline. Filter parameters are validated up front so a
// misconfigured pipeline fails at construction rather than mid-run. The
// metrics collector may be nil when observability is not wanted.
func NewPipeline(
	aggregator *engine.Aggregator,
	scorer ports.Scorer,
	store *engine.ResultStore,
	filters engine.FilterParams,
	metrics ports.MetricsCollector,
) (*Pipeline, error) {
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator cannot be nil")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("result store cannot be nil")
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		aggregator: aggregator,
		scorer:     scorer,
		store:      store,
		filters:    filters,
		metrics:    metrics,
		tracer:     otel.Tracer("triage-pipeline"),
	}, nil
}

// Run processes one batch of records end to end and publishes the outcome.
// An empty batch is a valid input: it publishes an empty result set with
// zeroed metrics. On error nothing is published and the previous snapshot
// stays visible.
func (p *Pipeline) Run(ctx context.Context, records []domain.IssueRecord) (domain.ResultSet, domain.RunMetrics, error) {
	ctx, span := p.tracer.Start(ctx, "Pipeline.Run",
		trace.WithAttributes(attribute.Int("triage.records", len(records))),
	)
	defer span.End()

	agg, err := p.aggregator.Aggregate(ctx, records, p.scorer)
	if err != nil {
		span.RecordError(err)
		p.recordRunCounter("failure")
		return nil, domain.RunMetrics{}, fmt.Errorf("aggregation failed: %w", err)
	}

	ranked, err := engine.RankAndFilter(agg.Issues, p.filters)
	if err != nil {
		span.RecordError(err)
		p.recordRunCounter("failure")
		return nil, domain.RunMetrics{}, err
	}

	metrics := domain.ComputeMetrics(ranked, agg.TotalRecords)
	p.store.Replace(ranked, metrics)

	p.recordRunCounter("success")
	p.recordRunGauges(metrics, agg.FailedScores)

	span.SetAttributes(
		attribute.Int("triage.unique_issues", metrics.UniqueCount),
		attribute.Int("triage.failed_scores", agg.FailedScores),
		attribute.Float64("triage.max_score", metrics.MaxScore),
	)

	return ranked, metrics, nil
}

func (p *Pipeline) recordRunCounter(status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordCounter("pipeline_runs_total", 1, map[string]string{"status": status})
}

func (p *Pipeline) recordRunGauges(m domain.RunMetrics, failedScores int) {
	if p.metrics == nil {
		return
	}
	labels := map[string]string{}
	p.metrics.RecordGauge("unique_issues", float64(m.UniqueCount), labels)
	p.metrics.RecordGauge("total_records", float64(m.TotalRecords), labels)
	p.metrics.RecordGauge("max_score", m.MaxScore, labels)
	p.metrics.RecordGauge("avg_score", m.AvgScore, labels)
	p.metrics.RecordGauge("failed_scores", float64(failedScores), labels)
}
