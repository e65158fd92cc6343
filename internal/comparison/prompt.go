package comparison

import (
	"fmt"
	"strings"
)

// MinDocuments is the smallest set a comparison accepts.
const MinDocuments = 2

const promptContract = `Return your findings as a valid JSON object with "summary" and "contradictions" keys.
- "summary": A brief, neutral, one-paragraph summary of the key differences or similarities. If the documents are consistent, state that.
- "contradictions": An array of objects. Each object MUST have:
  - "id": a unique string identifier (e.g. "contradiction_1").
  - "explanation": a clear and concise explanation of why the statements conflict.
  - "severity": one of "low", "medium" or "high".
  - "sources": an array of at least two objects, each with "documentName" (the document name exactly as given above) and "statement" (the exact quote from that document).
- If there are NO contradictions, you MUST return an empty array: [].

Respond ONLY with the raw JSON object and nothing else. Ensure all strings in the JSON are properly escaped.`

// BuildComparisonPrompt embeds every document in a labeled block and appends
// the output contract. minCount below MinDocuments is raised to it.
func BuildComparisonPrompt(docs []NamedText, minCount int) (string, error) {
	if minCount < MinDocuments {
		minCount = MinDocuments
	}
	if len(docs) < minCount {
		return "", fmt.Errorf("%w: need at least %d, got %d", ErrInsufficientDocuments, minCount, len(docs))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert document analyzer. Compare the %d documents below and identify any contradictions, discrepancies or conflicting statements between them.\n\n", len(docs))
	for i, d := range docs {
		fmt.Fprintf(&b, "DOCUMENT %d (%q):\n---\n%s\n---\n\n", i+1, d.Name, d.Text)
	}
	b.WriteString(promptContract)
	return b.String(), nil
}
