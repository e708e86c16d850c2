// Package application orchestrates the triage pipeline: it loads run
// configuration, wires the model adapter to the aggregation engine, and
// publishes ranked results to the store.
package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-triage/infrastructure/engine"
	"github.com/ahrav/go-triage/infrastructure/model"
)

// validate is the shared validator instance for configuration structs.
var validate = validator.New()

// RunConfig is the complete specification of one triage run and serves as
// the primary configuration entry point for the system. It covers the
// model provider, grouping behavior, and result filters.
type RunConfig struct {
	// Model selects and configures the scoring model provider.
	Model ModelConfig `yaml:"model" validate:"required"`
	// Aggregation controls grouping concurrency and near-duplicate folding.
	Aggregation AggregationConfig `yaml:"aggregation"`
	// Filters are the thresholds applied to the ranked result set.
	Filters FilterConfig `yaml:"filters"`
	// Normalizer overrides the punctuation set stripped during key
	// normalization. Leave empty for the default set.
	Normalizer NormalizerConfig `yaml:"normalizer"`
}

// ModelConfig selects a scoring model provider and its credentials.
type ModelConfig struct {
	// Provider names the registered provider implementation, such as
	// "onnx", "openai", "anthropic", "google", or "lexical".
	Provider string `yaml:"provider" validate:"required,oneof=onnx openai anthropic google lexical"`
	// Model is the provider-specific model identifier. When empty the
	// provider's default model is used.
	Model string `yaml:"model,omitempty"`
	// APIKeyEnv names the environment variable holding the provider API
	// key. Keys are never stored in configuration files directly.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	// BaseURL overrides the provider endpoint, for proxies or
	// self-hosted gateways.
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`
	// ModelPath is the filesystem path to the ONNX model file. Required
	// for the onnx provider, ignored otherwise.
	ModelPath string `yaml:"model_path,omitempty"`
	// TokenizerPath is the filesystem path to the tokenizer JSON file
	// accompanying the ONNX model.
	TokenizerPath string `yaml:"tokenizer_path,omitempty"`
	// LibraryPath locates the ONNX runtime shared library. When empty
	// the platform default is used.
	LibraryPath string `yaml:"library_path,omitempty"`
	// MaxSeqLen caps the tokenized sequence length for local inference.
	MaxSeqLen int `yaml:"max_seq_len,omitempty" validate:"omitempty,min=8,max=8192"`
	// TimeoutSeconds bounds each individual scoring call. Zero disables
	// the per-call timeout.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=600"`
	// MaxRetries is the number of retry attempts for transient provider
	// failures. Zero disables retries.
	MaxRetries int `yaml:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
	// RequestsPerSecond rate-limits outbound scoring calls. Zero
	// disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" validate:"omitempty,gt=0"`
}

// AggregationConfig mirrors engine.AggregatorConfig in the YAML schema.
type AggregationConfig struct {
	// MaxConcurrency bounds concurrent scoring calls.
	MaxConcurrency int `yaml:"max_concurrency" validate:"omitempty,min=1,max=64"`
	// NearDuplicateDistance folds keys within this edit distance into one
	// group. Zero keeps grouping exact.
	NearDuplicateDistance int `yaml:"near_duplicate_distance" validate:"min=0,max=8"`
}

// FilterConfig mirrors engine.FilterParams in the YAML schema.
type FilterConfig struct {
	// MinScore drops issues scoring below this threshold.
	MinScore float64 `yaml:"min_score"`
	// MinOccurrences drops issues seen fewer times than this.
	MinOccurrences int `yaml:"min_occurrences"`
}

// NormalizerConfig mirrors engine.NormalizerConfig in the YAML schema.
type NormalizerConfig struct {
	// Punctuation is the set of characters stripped during normalization.
	Punctuation string `yaml:"punctuation,omitempty"`
}

// DefaultRunConfig returns a runnable configuration: the lexical provider
// with pass-through filters and default aggregation. It needs no
// credentials, which makes it the safe starting point for local use.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Model: ModelConfig{
			Provider:       "lexical",
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Aggregation: AggregationConfig{
			MaxConcurrency:        engine.DefaultScoreConcurrency,
			NearDuplicateDistance: 0,
		},
		Filters: FilterConfig{
			MinScore:       0.0,
			MinOccurrences: 1,
		},
	}
}

// LoadRunConfig reads and validates a YAML run configuration from path.
// Fields absent from the file keep their defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied
	if err != nil {
		return RunConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// AdapterConfig converts the model section into the adapter's
// configuration, resolving the API key from the environment and wiring
// the timeout, retry, and rate-limit middleware implied by the settings.
func (c RunConfig) AdapterConfig() model.AdapterConfig {
	var apiKey string
	if c.Model.APIKeyEnv != "" {
		apiKey = os.Getenv(c.Model.APIKeyEnv)
	}

	timeout := time.Duration(c.Model.TimeoutSeconds) * time.Second

	cfg := model.AdapterConfig{
		Provider:      c.Model.Provider,
		Model:         c.Model.Model,
		APIKey:        apiKey,
		BaseURL:       c.Model.BaseURL,
		ModelPath:     c.Model.ModelPath,
		TokenizerPath: c.Model.TokenizerPath,
		LibraryPath:   c.Model.LibraryPath,
		MaxSeqLen:     c.Model.MaxSeqLen,
		Timeout:       timeout,
	}

	// Order matters: rate limiting gates retries, and the timeout bounds
	// each individual attempt inside them.
	if c.Model.RequestsPerSecond > 0 {
		cfg.Middleware = append(cfg.Middleware,
			model.RateLimitMiddleware(rate.Limit(c.Model.RequestsPerSecond), 1))
	}
	if c.Model.MaxRetries > 0 {
		cfg.Middleware = append(cfg.Middleware,
			model.RetryMiddleware(c.Model.MaxRetries, 500*time.Millisecond, 10*time.Second))
	}
	if timeout > 0 {
		cfg.Middleware = append(cfg.Middleware, model.TimeoutMiddleware(timeout))
	}

	return cfg
}

// AggregatorConfig converts the aggregation section into the engine's
// configuration, applying defaults for unset fields.
func (c RunConfig) AggregatorConfig() engine.AggregatorConfig {
	cfg := engine.DefaultAggregatorConfig()
	if c.Aggregation.MaxConcurrency > 0 {
		cfg.MaxConcurrency = c.Aggregation.MaxConcurrency
	}
	cfg.NearDuplicateDistance = c.Aggregation.NearDuplicateDistance
	return cfg
}

// FilterParams converts the filter section into the engine's filter
// parameters. Zero means unset and keeps the default; any other value,
// including an invalid one, flows through so FilterParams.Validate can
// reject it instead of this layer silently coercing it.
func (c RunConfig) FilterParams() engine.FilterParams {
	params := engine.DefaultFilterParams()
	params.MinScore = c.Filters.MinScore
	if c.Filters.MinOccurrences != 0 {
		params.MinOccurrences = c.Filters.MinOccurrences
	}
	return params
}

// NormalizerConfigEngine converts the normalizer section into the engine's
// configuration, keeping the default punctuation set unless overridden.
func (c RunConfig) NormalizerConfigEngine() engine.NormalizerConfig {
	cfg := engine.DefaultNormalizerConfig()
	if c.Normalizer.Punctuation != "" {
		cfg.Punctuation = c.Normalizer.Punctuation
	}
	return cfg
}
