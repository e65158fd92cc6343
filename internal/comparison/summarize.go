package comparison

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/shared/telemetry"
)

const (
	// Texts shorter than this are not sent to the model.
	minSummaryChars        = 20
	maxConcurrentSummaries = 4

	ShortTextSummary = "The document appears to be empty or has very little content."
)

// DocumentSummary is the short model-written digest of one document.
type DocumentSummary struct {
	DocumentID string `json:"documentId"`
	FileName   string `json:"fileName"`
	Summary    string `json:"summary"`
}

// BuildSummaryPrompt asks for a two to three line digest of a single text.
func BuildSummaryPrompt(text string) string {
	return "Summarize the following document text in 2-3 concise lines, capturing its main points:\n\n---\n\n" + text
}

// Summarize writes a digest for each of the owner's documents, in request
// order. The first failing document aborts the batch and is named in the
// error. Summaries are not charged and leave no history.
func (s *Service) Summarize(ctx context.Context, ownerID string, documentIDs []string) ([]DocumentSummary, error) {
	start := time.Now()
	ids := dedupe(documentIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no document ids given", ErrInsufficientDocuments)
	}
	names := s.resolveNames(ctx, ownerID, ids)

	out := make([]DocumentSummary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSummaries)
	for i, id := range ids {
		g.Go(func() error {
			summary, err := s.summarizeOne(gctx, ownerID, id)
			if err != nil {
				return &documentError{ID: id, Name: names[i], Err: err}
			}
			out[i] = DocumentSummary{DocumentID: id, FileName: names[i], Summary: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.Warn("summary.failed", map[string]any{
			"user_id":  ownerID,
			"document": DocumentName(err),
			"error":    err,
		})
		return nil, err
	}

	telemetry.Info("summary.completed", map[string]any{
		"user_id":     ownerID,
		"documents":   len(ids),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, nil
}

func (s *Service) summarizeOne(ctx context.Context, ownerID, id string) (string, error) {
	text, err := s.Texts.Text(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minSummaryChars || trimmed == extract.EmptyPlaceholder {
		return ShortTextSummary, nil
	}

	raw, err := s.callModel(ctx, BuildSummaryPrompt(text))
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrModelCallFailed)
	}
	return summary, nil
}
