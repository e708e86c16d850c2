package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// classifierSystemPrompt instructs an LLM backend to behave as a fixed
// text-classification model: a single urgency score, JSON only. Keeping the
// instruction constant per process preserves the adapter's determinism
// contract for a fixed model version.
const classifierSystemPrompt = "You are a strict issue-triage classifier. " +
	"Rate the urgency of the issue report you are given as a single number " +
	"between 0.0 (trivial) and 1.0 (critical outage). Respond with JSON in " +
	`exactly this format and nothing else: {"score": <number>}`

// classifierResponse is the expected JSON structure from LLM backends.
type classifierResponse struct {
	// Score is the urgency score in [0.0, 1.0].
	Score float64 `json:"score"`
}

// parseScoreResponse extracts the score from a model response.
// It tolerates surrounding prose and markdown code fences, and falls back
// to parsing a bare number for models that ignore the JSON instruction.
func parseScoreResponse(response string) (float64, error) {
	jsonStr := extractJSON(response)
	if jsonStr != "" {
		var parsed classifierResponse
		if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
			return 0, fmt.Errorf("malformed score JSON (%d chars): %w", len(jsonStr), err)
		}
		return parsed.Score, nil
	}

	// Some models answer with the bare number despite the JSON instruction.
	if val, err := strconv.ParseFloat(strings.TrimSpace(response), 64); err == nil {
		return val, nil
	}

	return 0, fmt.Errorf("%w (response length: %d chars)", ErrNoScore, len(response))
}

// extractJSON pulls a JSON object out of a response that may contain
// additional text or markdown code fences around it.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Find the matching closing brace, tracking strings and escapes so
	// braces inside quoted values don't terminate the scan early.
	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(response); i++ {
		char := response[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if char == '\\' {
			escapeNext = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch char {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				return response[start : i+1]
			}
		}
	}

	return ""
}
