// Package model wraps pretrained text-classification models behind a stable
// scoring contract for the triage engine, with built-in support for
// timeouts, retries, rate limiting, and metrics.
//
// The package abstracts multiple scoring backends (a local ONNX classifier,
// OpenAI, Anthropic, and Google LLM classifiers, and a deterministic lexical
// classifier) behind a common interface while adding cross-cutting concerns
// through a middleware pattern. This allows the pipeline to switch backends
// or add operational features without changing caller code.
//
// Basic usage:
//
//	scorer, err := model.NewAdapter(model.AdapterConfig{
//	    Provider: "openai",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    Model:    "gpt-4o-mini",
//	})
//	score, err := scorer.Score(ctx, "App crashes when saving a draft")
//
// Advanced usage with middleware:
//
//	scorer, err := model.NewAdapter(model.AdapterConfig{
//	    Provider: "anthropic",
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	    Middleware: []model.Middleware{
//	        model.TimeoutMiddleware(10 * time.Second),
//	        model.RateLimitMiddleware(20, 40),
//	        model.MetricsMiddleware(collector),
//	    },
//	})
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-triage/internal/domain"
	"github.com/ahrav/go-triage/internal/ports"
)

// MaxTextRunes is the maximum input length forwarded to the underlying
// model. Longer text is truncated before inference; classification quality
// on issue reports is driven by the opening sentences, and oversized inputs
// are the main source of per-call failures.
const MaxTextRunes = 512

// CoreModel defines the minimal interface that scoring backends must
// implement. It abstracts the inference call so the middleware system can
// wrap any conforming implementation.
type CoreModel interface {
	// Classify runs the model on text and returns a raw priority score.
	// Implementations report their native confidence; the Adapter clamps
	// the result to [0.0, 1.0].
	Classify(ctx context.Context, text string) (float64, error)

	// ModelID returns the identifier of the loaded model version.
	ModelID() string
}

// Middleware wraps a CoreModel implementation to add cross-cutting
// functionality such as timeouts, retries, rate limiting, or metrics
// without modifying backend logic.
type Middleware func(CoreModel) CoreModel

// AdapterConfig holds all configuration options for constructing a scoring
// adapter. Provider selects the backend; the remaining fields are consumed
// by the matching provider factory.
type AdapterConfig struct {
	// Provider selects the scoring backend: "onnx", "openai", "anthropic",
	// "google", or "lexical".
	Provider string

	// Model specifies the model identifier/version. Fixed per process;
	// the adapter never reloads a model mid-run.
	Model string

	// APIKey authenticates requests to remote providers.
	APIKey string

	// BaseURL overrides the default API endpoint for remote providers.
	// Leave empty to use the provider's default endpoint.
	BaseURL string

	// ModelPath is the path to the ONNX model weights (onnx provider).
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file (onnx provider).
	TokenizerPath string

	// LibraryPath optionally points at the onnxruntime shared library
	// (onnx provider). Empty uses the platform default.
	LibraryPath string

	// MaxSeqLen caps the token sequence length for local inference.
	// Zero uses the provider default.
	MaxSeqLen int

	// Timeout sets the maximum duration for individual remote requests.
	// Zero value means no timeout.
	Timeout time.Duration

	// Middleware allows custom middleware insertion, applied in the order
	// specified (first entry is outermost).
	Middleware []Middleware
}

// Adapter implements ports.Scorer on top of a middleware-wrapped CoreModel.
// Construction fails fast with domain.ErrModelUnavailable if the backend
// cannot be initialized; a successfully constructed Adapter holds the
// process-wide model handle for its lifetime.
type Adapter struct {
	core CoreModel
}

// ProviderFactory creates a CoreModel implementation from configuration.
type ProviderFactory func(AdapterConfig) (CoreModel, error)

// Provider factory registry. Providers register themselves in init so the
// adapter can create backends without knowing their implementation details.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom scoring backend factory,
// enabling extension without modifying the core package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// NewAdapter creates a scoring adapter for the configured provider.
// The model handle is initialized here, once, so that callers never attempt
// scoring without a loadable model: any initialization failure is returned
// immediately wrapping domain.ErrModelUnavailable.
func NewAdapter(config AdapterConfig) (*Adapter, error) {
	factory, ok := providerFactories[config.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrModelUnavailable, config.Provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("%w: provider %q: %w", domain.ErrModelUnavailable, config.Provider, err)
	}

	// Apply middleware in reverse order so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Adapter{core: core}, nil
}

// Score classifies text and returns a priority score in [0.0, 1.0].
// Input is truncated to MaxTextRunes before inference. Per-call failures
// wrap domain.ErrScoringFailed and are recoverable: the caller assigns the
// fallback score and continues the batch.
func (a *Adapter) Score(ctx context.Context, text string) (float64, error) {
	score, err := a.core.Classify(ctx, TruncateText(text, MaxTextRunes))
	if err != nil {
		return 0, fmt.Errorf("%w: model %s: %w", domain.ErrScoringFailed, a.core.ModelID(), err)
	}
	return ClampFloat64(score, 0.0, 1.0), nil
}

// ModelID returns the identifier of the loaded model version.
func (a *Adapter) ModelID() string { return a.core.ModelID() }

// TruncateText limits text to maxRunes runes without splitting a UTF-8
// sequence mid-character.
func TruncateText(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}

// Compile-time verification that Adapter satisfies the scoring port.
var _ ports.Scorer = (*Adapter)(nil)
