package ai

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const verdictSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["winner", "summary", "reasoning"],
  "properties": {
    "winner": {"type": "string", "enum": ["side_a", "side_b", "tie"]},
    "summary": {"type": "string", "minLength": 1},
    "reasoning": {"type": "string", "minLength": 1},
    "confidence": {"type": "integer", "minimum": 0, "maximum": 100}
  }
}`

var verdictSchema = jsonschema.MustCompileString("verdict.json", verdictSchemaJSON)

const (
	fallbackSummary   = "The court could not reach a structured decision from the model response."
	fallbackReasoning = "The model reply did not contain a valid verdict object. The raw response is preserved for review."
)

// fallbackVerdict is the fixed object substituted when the model reply cannot
// be parsed into a valid verdict.
func fallbackVerdict(raw string) VerdictResult {
	return VerdictResult{
		Winner:       "undecided",
		Summary:      fallbackSummary,
		Reasoning:    fallbackReasoning,
		Confidence:   0,
		FullResponse: raw,
		Fallback:     true,
	}
}

// parseVerdictResponse extracts a verdict object from free-form model text.
// Parsing is best effort: any failure yields the fixed fallback verdict.
func parseVerdictResponse(content string) VerdictResult {
	raw := strings.TrimSpace(content)

	candidate := extractJSON(raw)
	if candidate == "" {
		return fallbackVerdict(raw)
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return fallbackVerdict(raw)
	}
	if err := verdictSchema.Validate(doc); err != nil {
		return fallbackVerdict(raw)
	}

	var result VerdictResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return fallbackVerdict(raw)
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 100 {
		result.Confidence = 100
	}
	result.FullResponse = raw

	return result
}

// extractJSON returns the outermost brace-delimited slice of text, so verdicts
// survive models that wrap JSON in prose or code fences.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
