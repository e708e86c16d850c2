package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// OpenAIDefaultModel is the default model for the OpenAI provider.
	OpenAIDefaultModel = "gpt-4o-mini"

	// classifierMaxTokens bounds the completion; the response is a single
	// small JSON object.
	classifierMaxTokens = 32
)

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
}

// openAIProvider implements CoreModel by prompting an OpenAI chat model to
// act as a fixed urgency classifier. Temperature is pinned at zero so that
// identical input text yields the same score for a given model version.
type openAIProvider struct {
	client          *openai.Client
	model           string
	errorClassifier *ErrorClassifier
}

func newOpenAIProvider(config AdapterConfig) (CoreModel, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		clientConfig.BaseURL = validatedURL
	}

	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: ValidateTimeout(config.Timeout)}
	}

	return &openAIProvider{
		client:          openai.NewClientWithConfig(clientConfig),
		model:           model,
		errorClassifier: &ErrorClassifier{Provider: "openai"},
	}, nil
}

// Classify sends the issue text to the chat completions API with the fixed
// classifier instruction and parses the returned score.
func (p *openAIProvider) Classify(ctx context.Context, text string) (float64, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		MaxTokens:   classifierMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	// GPT models support structured JSON output; request it to cut down
	// on prose around the score.
	if strings.Contains(strings.ToLower(p.model), "gpt") {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return 0, p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return 0, ErrEmptyResponse
	}

	return parseScoreResponse(resp.Choices[0].Message.Content)
}

// ModelID returns the configured model identifier.
func (p *openAIProvider) ModelID() string { return p.model }

// handleError classifies and wraps errors from the OpenAI API.
func (p *openAIProvider) handleError(err error) error {
	if isContextError(err) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}

	return NewProviderError("openai", ErrorTypeUnknown, 0, "request failed", err)
}
