package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-triage/infrastructure/engine"
	"github.com/ahrav/go-triage/infrastructure/middleware"
	"github.com/ahrav/go-triage/infrastructure/model"
	"github.com/ahrav/go-triage/internal/application"
	"github.com/ahrav/go-triage/internal/domain"
	"github.com/ahrav/go-triage/internal/ports"
)

var runFlags struct {
	configPath     string
	column         string
	outputPath     string
	provider       string
	modelName      string
	minScore       float64
	minOccurrences int
	withMetrics    bool
}

var runCmd = &cobra.Command{
	Use:   "run <input.csv|input.zip>",
	Short: "Score and rank issues from a CSV or zipped CSV file",
	Long: `Run the triage pipeline on a batch of issue reports.

The input is a CSV file (or a .zip archive containing one) with a header
row; the issue text is read from the "issue" column unless --column names
another one. Duplicate reports are grouped case-insensitively, each unique
issue is scored once, and the ranked result is printed as a table.

Usage:
  triage run issues.csv
  triage run issues.zip --min-score 0.5 --min-occurrences 2
  triage run issues.csv --config triage.yaml --output ranked.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runTriage,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.configPath, "config", "c", "", "Path to YAML run configuration")
	f.StringVar(&runFlags.column, "column", "", "CSV column holding the issue text (default: issue)")
	f.StringVarP(&runFlags.outputPath, "output", "o", "", "Write the ranked result set to this CSV file")
	f.StringVar(&runFlags.provider, "provider", "", "Model provider override (onnx, openai, anthropic, google, lexical)")
	f.StringVar(&runFlags.modelName, "model", "", "Model identifier override")
	f.Float64Var(&runFlags.minScore, "min-score", 0, "Keep issues scoring at least this value (0.0 to 1.0)")
	f.IntVar(&runFlags.minOccurrences, "min-occurrences", 1, "Keep issues seen at least this many times")
	f.BoolVar(&runFlags.withMetrics, "metrics", false, "Register Prometheus metrics for the run")
}

func runTriage(cmd *cobra.Command, args []string) error {
	cfg := application.DefaultRunConfig()
	if runFlags.configPath != "" {
		loaded, err := application.LoadRunConfig(runFlags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Flags override file configuration.
	if runFlags.provider != "" {
		cfg.Model.Provider = runFlags.provider
	}
	if runFlags.modelName != "" {
		cfg.Model.Model = runFlags.modelName
	}
	// Explicitly set flags pass through as-is, invalid values included,
	// so out-of-range thresholds are rejected rather than coerced.
	if cmd.Flags().Changed("min-score") {
		cfg.Filters.MinScore = runFlags.minScore
	}
	if cmd.Flags().Changed("min-occurrences") {
		cfg.Filters.MinOccurrences = runFlags.minOccurrences
	}

	records, err := application.LoadRecords(args[0], runFlags.column)
	if err != nil {
		return err
	}

	adapter, err := model.NewAdapter(cfg.AdapterConfig())
	if err != nil {
		return err
	}

	normalizer := engine.NewNormalizer(cfg.NormalizerConfigEngine())
	aggregator, err := engine.NewAggregator(normalizer, cfg.AggregatorConfig())
	if err != nil {
		return err
	}

	var collector ports.MetricsCollector
	if runFlags.withMetrics {
		collector = middleware.NewPrometheusMetrics()
	}

	store := engine.NewResultStore()
	pipeline, err := application.NewPipeline(aggregator, adapter, store, cfg.FilterParams(), collector)
	if err != nil {
		return err
	}

	ranked, metrics, err := pipeline.Run(cmd.Context(), records)
	if err != nil {
		return err
	}

	printResults(ranked, metrics)

	if runFlags.outputPath != "" {
		if err := writeResultCSV(runFlags.outputPath, ranked); err != nil {
			return err
		}
		fmt.Printf("\nWrote %d issues to %s\n", len(ranked), runFlags.outputPath)
	}

	return nil
}

func printResults(ranked domain.ResultSet, metrics domain.RunMetrics) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tISSUE\tSCORE\tLEVEL\tOCCURRENCES")
	for i, issue := range ranked {
		flag := ""
		if issue.ScoreFailed {
			flag = " (scoring failed)"
		}
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%s%s\t%d\n",
			i+1, issue.DisplayText, issue.Score, issue.Level, flag, issue.Occurrences)
	}
	w.Flush()

	fmt.Printf("\nUnique issues: %d  Total records: %d  Max score: %.3f  Avg score: %.3f\n",
		metrics.UniqueCount, metrics.TotalRecords, metrics.MaxScore, metrics.AvgScore)
}

func writeResultCSV(path string, ranked domain.ResultSet) error {
	f, err := os.Create(path) // #nosec G304 -- path is operator-supplied
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	return engine.WriteCSV(f, ranked)
}
