package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	// GoogleDefaultModel is the default model for the Google provider.
	GoogleDefaultModel = "gemini-2.0-flash-exp"
)

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements CoreModel using Google's Gemini API as a fixed
// urgency classifier. Gemini has no separate system role, so the classifier
// instruction is prepended to the user text.
type googleProvider struct {
	client          *genai.Client
	model           string
	errorClassifier *ErrorClassifier
}

func newGoogleProvider(config AdapterConfig) (CoreModel, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &googleProvider{
		client:          client,
		model:           model,
		errorClassifier: &ErrorClassifier{Provider: "google"},
	}, nil
}

// Classify sends the issue text to the Gemini API with the fixed classifier
// instruction and parses the returned score.
func (p *googleProvider) Classify(ctx context.Context, text string) (float64, error) {
	prompt := fmt.Sprintf("System: %s\n\nIssue: %s", classifierSystemPrompt, text)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	generationConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0)),
		MaxOutputTokens: classifierMaxTokens,
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, generationConfig)
	if err != nil {
		return 0, p.handleError(err)
	}

	response := resp.Text()
	if response == "" {
		return 0, ErrEmptyResponse
	}

	return parseScoreResponse(response)
}

// ModelID returns the configured model identifier.
func (p *googleProvider) ModelID() string { return p.model }

// handleError classifies and wraps errors from the Google API.
func (p *googleProvider) handleError(err error) error {
	if isContextError(err) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}

		if containsContentPolicyError(apiErr) {
			return NewProviderError("google", ErrorTypeContentPolicy, apiErr.Code,
				"request blocked by safety filters", err)
		}

		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}

// containsContentPolicyError checks whether a Google API error is related
// to content policy violations.
func containsContentPolicyError(apiErr *googleapi.Error) bool {
	if apiErr.Message != "" {
		lower := strings.ToLower(apiErr.Message)
		if strings.Contains(lower, "safety") ||
			strings.Contains(lower, "policy") ||
			strings.Contains(lower, "blocked") {
			return true
		}
	}

	for _, e := range apiErr.Errors {
		if e.Reason == "SAFETY" || e.Reason == "BLOCKED" {
			return true
		}
	}

	return false
}
