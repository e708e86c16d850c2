package model

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// AnthropicDefaultModel is the default model for the Anthropic provider.
	AnthropicDefaultModel = "claude-3-5-haiku-20241022"
)

func init() {
	RegisterProviderFactory("anthropic", newAnthropicProvider)
}

// anthropicProvider implements CoreModel by prompting Claude to act as a
// fixed urgency classifier. Temperature is pinned at zero for deterministic
// scoring of identical input under a fixed model version.
type anthropicProvider struct {
	client          anthropic.Client
	model           string
	errorClassifier *ErrorClassifier
}

func newAnthropicProvider(config AdapterConfig) (CoreModel, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithBaseURL(validatedURL))
	}

	return &anthropicProvider{
		client:          anthropic.NewClient(opts...),
		model:           model,
		errorClassifier: &ErrorClassifier{Provider: "anthropic"},
	}, nil
}

// Classify sends the issue text to the Messages API with the fixed
// classifier instruction and parses the returned score.
func (p *anthropicProvider) Classify(ctx context.Context, text string) (float64, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   classifierMaxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: classifierSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return 0, p.handleError(err)
	}

	var responseText strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			responseText.WriteString(content.Text)
		}
	}

	response := responseText.String()
	if response == "" {
		return 0, ErrEmptyResponse
	}

	return parseScoreResponse(response)
}

// ModelID returns the configured model identifier.
func (p *anthropicProvider) ModelID() string { return p.model }

// handleError classifies and wraps errors from the Anthropic API.
func (p *anthropicProvider) handleError(err error) error {
	if isContextError(err) {
		return p.errorClassifier.ClassifyContextError(err)
	}
	return NewProviderError("anthropic", ErrorTypeUnknown, 0, "request failed", err)
}
