package generate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// extractJSON pulls the JSON object out of a model response, tolerating
// fenced code blocks and leading or trailing prose.
func extractJSON(response string) (string, bool) {
	if m := jsonFence.FindStringSubmatch(response); m != nil {
		return m[1], true
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return response[start : end+1], true
}

// parseResult decodes and validates a model response. Markup and the digital
// summary are required; change log and suggestions are defaulted when absent
// so downstream consumers never deal with nil slices.
func parseResult(response string) (*models.RefinementResult, error) {
	raw, ok := extractJSON(response)
	if !ok {
		return nil, &GenerationError{Op: "parse", Reason: "no JSON object in response"}
	}

	var result models.RefinementResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &GenerationError{Op: "parse", Reason: "malformed JSON", Err: err}
	}

	if result.Markup == "" {
		return nil, &GenerationError{Op: "parse", Reason: "response missing markup"}
	}
	if result.DigitalSummary == "" {
		return nil, &GenerationError{Op: "parse", Reason: "response missing digital summary"}
	}

	if result.ChangeLog == nil {
		result.ChangeLog = []string{"Document updated"}
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{
			"Consider adding more quantifiable metrics to achievements",
			"Review the tone against your target industry",
		}
	}
	return &result, nil
}
