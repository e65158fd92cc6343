package comparison

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// NamedText is one document as it is embedded in the prompt.
type NamedText struct {
	Name string
	Text string
}

// Source is one side of a contradiction.
type Source struct {
	DocumentName string `json:"documentName"`
	Statement    string `json:"statement"`
}

// Contradiction is a conflict the model found between two or more documents.
type Contradiction struct {
	ID          string   `json:"id"`
	Explanation string   `json:"explanation"`
	Severity    string   `json:"severity"`
	Sources     []Source `json:"sources"`
}

// AIAnalysisResult is the cleaned model output. Contradictions is never nil.
type AIAnalysisResult struct {
	Summary        string          `json:"summary"`
	Contradictions []Contradiction `json:"contradictions"`
}

// NormalizeSeverity maps anything outside low/medium/high to medium.
func NormalizeSeverity(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return v
	default:
		return SeverityMedium
	}
}

// DecodeStoredResult reads a persisted result. Older rows stored the result
// as a JSON string holding the object; both forms decode to the same value.
func DecodeStoredResult(raw []byte) (AIAnalysisResult, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return AIAnalysisResult{Contradictions: []Contradiction{}}, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return AIAnalysisResult{}, fmt.Errorf("decode legacy result: %w", err)
		}
		trimmed = inner
	}
	var out AIAnalysisResult
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return AIAnalysisResult{}, fmt.Errorf("decode result: %w", err)
	}
	if out.Contradictions == nil {
		out.Contradictions = []Contradiction{}
	}
	return out, nil
}
