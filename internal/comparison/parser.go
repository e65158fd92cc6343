package comparison

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseResponse extracts the JSON object from raw model output, validates its
// shape and drops contradictions that cannot be shown to a user.
func ParseResponse(raw string) (AIAnalysisResult, error) {
	span, ok := locateObject(raw)
	if !ok {
		return AIAnalysisResult{}, ErrNoJSONFound
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &top); err != nil {
		return AIAnalysisResult{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var out AIAnalysisResult
	summary, ok := top["summary"]
	if !ok || !hasPrefix(summary, '"') || json.Unmarshal(summary, &out.Summary) != nil {
		return AIAnalysisResult{}, fmt.Errorf("%w: summary must be a string", ErrMalformedSchema)
	}
	var entries []json.RawMessage
	list, ok := top["contradictions"]
	if !ok || !hasPrefix(list, '[') || json.Unmarshal(list, &entries) != nil {
		return AIAnalysisResult{}, fmt.Errorf("%w: contradictions must be an array", ErrMalformedSchema)
	}

	out.Contradictions = make([]Contradiction, 0, len(entries))
	for _, e := range entries {
		if c, ok := cleanContradiction(e, len(out.Contradictions)+1); ok {
			out.Contradictions = append(out.Contradictions, c)
		}
	}
	return out, nil
}

type rawContradiction struct {
	ID          any             `json:"id"`
	Explanation any             `json:"explanation"`
	Severity    any             `json:"severity"`
	Sources     json.RawMessage `json:"sources"`
}

type rawSource struct {
	DocumentName any `json:"documentName"`
	Statement    any `json:"statement"`
}

func cleanContradiction(raw json.RawMessage, ordinal int) (Contradiction, bool) {
	var rc rawContradiction
	if err := json.Unmarshal(raw, &rc); err != nil {
		return Contradiction{}, false
	}
	explanation := nonEmptyString(rc.Explanation)
	if explanation == "" {
		return Contradiction{}, false
	}

	var rawSources []json.RawMessage
	if json.Unmarshal(rc.Sources, &rawSources) != nil {
		return Contradiction{}, false
	}
	sources := make([]Source, 0, len(rawSources))
	for _, rs := range rawSources {
		var s rawSource
		if json.Unmarshal(rs, &s) != nil {
			continue
		}
		name, stmt := nonEmptyString(s.DocumentName), nonEmptyString(s.Statement)
		if name == "" || stmt == "" {
			continue
		}
		sources = append(sources, Source{DocumentName: name, Statement: stmt})
	}
	if len(sources) < 2 {
		return Contradiction{}, false
	}

	id := idString(rc.ID)
	if id == "" {
		id = "contradiction_" + strconv.Itoa(ordinal)
	}
	severity, _ := rc.Severity.(string)
	return Contradiction{
		ID:          id,
		Explanation: explanation,
		Severity:    NormalizeSeverity(severity),
		Sources:     sources,
	}, true
}

func nonEmptyString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func hasPrefix(raw json.RawMessage, c byte) bool {
	s := strings.TrimSpace(string(raw))
	return len(s) > 0 && s[0] == c
}

// locateObject returns the first balanced top-level {...} span that is valid
// JSON, scanning with string literals and escapes respected. When no span
// parses, the first balanced span is returned so the caller reports the
// syntax error. With no balanced span at all it falls back to the text from
// the first '{' to the last '}'.
func locateObject(raw string) (string, bool) {
	var first string
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		end, ok := matchBrace(raw, start)
		if !ok {
			break
		}
		candidate := raw[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
		if first == "" {
			first = candidate
		}
		next := strings.IndexByte(raw[end+1:], '{')
		if next < 0 {
			break
		}
		start = end + 1 + next
	}
	if first != "" {
		return first, true
	}

	open := strings.IndexByte(raw, '{')
	closing := strings.LastIndexByte(raw, '}')
	if open < 0 || closing <= open {
		return "", false
	}
	return raw[open : closing+1], true
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
