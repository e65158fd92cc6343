package comparison

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"smartdoc-backend/internal/credits"
	"smartdoc-backend/internal/llm"
	"smartdoc-backend/internal/shared/metrics"
	"smartdoc-backend/internal/shared/telemetry"
)

const (
	defaultCost         = 1
	defaultModelTimeout = 45 * time.Second
)

// TextSource returns the saved text of an owner's document.
type TextSource interface {
	Text(ctx context.Context, documentID, ownerID string) (string, error)
}

// Documents resolves display names and flags compared documents.
type Documents interface {
	Names(ctx context.Context, userID string, ids []string) (map[string]string, error)
	MarkCompared(ctx context.Context, userID string, ids []string) error
}

// Ledger is the credit check and debit used around a comparison.
type Ledger interface {
	CheckBalance(ctx context.Context, userID string, cost int) error
	Debit(ctx context.Context, userID, operation string, cost int) (int, error)
}

// HistoryWriter records a completed comparison.
type HistoryWriter interface {
	Record(ctx context.Context, userID string, ids, names []string, result AIAnalysisResult) (string, error)
}

// Notifier tells the user a comparison finished.
type Notifier interface {
	NotifyComparison(ctx context.Context, userID string, names []string, contradictions int) error
}

// Service runs comparisons end to end.
type Service struct {
	Texts    TextSource
	Docs     Documents
	Ledger   Ledger
	Model    llm.Client
	History  HistoryWriter
	Notifier Notifier

	Cost         int
	ModelTimeout time.Duration
}

func (s *Service) cost() int {
	if s.Cost <= 0 {
		return defaultCost
	}
	return s.Cost
}

func (s *Service) modelTimeout() time.Duration {
	if s.ModelTimeout <= 0 {
		return defaultModelTimeout
	}
	return s.ModelTimeout
}

// Run compares the owner's documents. Any failure up to and including
// parsing leaves no history row and no debit. The bookkeeping after a
// successful parse is best effort and never changes the returned result.
func (s *Service) Run(ctx context.Context, ownerID string, documentIDs []string, minCount int) (AIAnalysisResult, error) {
	start := time.Now()
	metrics.IncComparisonStarted()

	if minCount < MinDocuments {
		minCount = MinDocuments
	}
	ids := dedupe(documentIDs)
	if len(ids) < minCount {
		metrics.IncComparisonFailed("validate")
		return AIAnalysisResult{}, fmt.Errorf("%w: need at least %d distinct documents, got %d", ErrInsufficientDocuments, minCount, len(ids))
	}

	cost := s.cost()
	if err := s.Ledger.CheckBalance(ctx, ownerID, cost); err != nil {
		metrics.IncComparisonFailed("credits")
		if errors.Is(err, ErrInsufficientCredits) {
			return AIAnalysisResult{}, err
		}
		return AIAnalysisResult{}, fmt.Errorf("check balance: %w", err)
	}

	texts, err := s.extractAll(ctx, ownerID, ids)
	if err != nil {
		metrics.IncComparisonFailed("extract")
		return AIAnalysisResult{}, err
	}

	names := s.resolveNames(ctx, ownerID, ids)
	docs := make([]NamedText, len(ids))
	for i := range ids {
		docs[i] = NamedText{Name: names[i], Text: texts[i]}
	}
	prompt, err := BuildComparisonPrompt(docs, minCount)
	if err != nil {
		metrics.IncComparisonFailed("prompt")
		return AIAnalysisResult{}, err
	}

	raw, err := s.callModel(ctx, prompt)
	if err != nil {
		metrics.IncComparisonFailed("model")
		return AIAnalysisResult{}, err
	}

	result, err := ParseResponse(raw)
	if err != nil {
		metrics.IncComparisonFailed("parse")
		telemetry.Warn("comparison.parse_failed", map[string]any{
			"user_id":    ownerID,
			"error":      err,
			"output_len": len(raw),
		})
		return AIAnalysisResult{}, err
	}

	s.afterSuccess(context.WithoutCancel(ctx), ownerID, ids, names, result, cost)

	metrics.IncComparisonCompleted(len(result.Contradictions))
	metrics.ObserveComparisonDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Info("comparison.completed", map[string]any{
		"user_id":        ownerID,
		"documents":      len(ids),
		"contradictions": len(result.Contradictions),
		"duration_ms":    time.Since(start).Milliseconds(),
	})
	return result, nil
}

// extractAll fetches every text concurrently. The first failure cancels the
// rest and is reported against the document's name.
func (s *Service) extractAll(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	texts := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			text, err := s.Texts.Text(gctx, id, ownerID)
			if err != nil {
				return &documentError{ID: id, Err: err}
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var de *documentError
		if errors.As(err, &de) {
			de.Name = s.resolveNames(ctx, ownerID, []string{de.ID})[0]
		}
		return nil, err
	}
	return texts, nil
}

type documentError struct {
	ID   string
	Name string
	Err  error
}

func (e *documentError) Error() string {
	label := e.Name
	if label == "" {
		label = e.ID
	}
	return fmt.Sprintf("document %q: %v", label, e.Err)
}

func (e *documentError) Unwrap() error { return e.Err }

// DocumentName returns the display name of the document that failed, if any.
func DocumentName(err error) string {
	var de *documentError
	if errors.As(err, &de) {
		if de.Name != "" {
			return de.Name
		}
		return de.ID
	}
	return ""
}

// resolveNames returns names parallel to ids. Ids without a name, or all of
// them when the lookup fails, are named by their id.
func (s *Service) resolveNames(ctx context.Context, ownerID string, ids []string) []string {
	found, err := s.Docs.Names(ctx, ownerID, ids)
	if err != nil {
		telemetry.Warn("comparison.names_failed", map[string]any{"user_id": ownerID, "error": err})
		found = nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if name := found[id]; name != "" {
			out[i] = name
		} else {
			out[i] = id
		}
	}
	return out
}

func (s *Service) callModel(ctx context.Context, prompt string) (string, error) {
	mctx, cancel := context.WithTimeout(ctx, s.modelTimeout())
	defer cancel()

	raw, err := s.Model.Generate(mctx, prompt)
	if err == nil {
		return raw, nil
	}
	switch {
	case errors.Is(err, ErrModelOverloaded), errors.Is(err, ErrModelCallFailed):
		return "", err
	case ctx.Err() != nil:
		return "", fmt.Errorf("%w: %v", ErrModelCallFailed, ctx.Err())
	case errors.Is(mctx.Err(), context.DeadlineExceeded):
		return "", fmt.Errorf("%w: model call timed out after %s", ErrModelOverloaded, s.modelTimeout())
	default:
		return "", fmt.Errorf("%w: %v", ErrModelCallFailed, err)
	}
}

type sideEffect struct {
	name string
	run  func(ctx context.Context) error
}

// afterSuccess runs the post-parse bookkeeping. Each step is independent; a
// failure is logged and counted, then the next step runs.
func (s *Service) afterSuccess(ctx context.Context, ownerID string, ids, names []string, result AIAnalysisResult, cost int) {
	effects := []sideEffect{
		{"mark_compared", func(ctx context.Context) error {
			return s.Docs.MarkCompared(ctx, ownerID, ids)
		}},
		{"debit", func(ctx context.Context) error {
			_, err := s.Ledger.Debit(ctx, ownerID, credits.OperationComparison, cost)
			return err
		}},
		{"history", func(ctx context.Context) error {
			if s.History == nil {
				return nil
			}
			_, err := s.History.Record(ctx, ownerID, ids, names, result)
			return err
		}},
		{"notify", func(ctx context.Context) error {
			if s.Notifier == nil {
				return nil
			}
			return s.Notifier.NotifyComparison(ctx, ownerID, names, len(result.Contradictions))
		}},
	}

	for _, e := range effects {
		err := e.run(ctx)
		if err == nil {
			continue
		}
		metrics.IncSideEffectFailed(e.name)
		fields := map[string]any{
			"user_id":      ownerID,
			"document_ids": ids,
			"error":        fmt.Errorf("%w: %w", ErrPersistenceFailed, err),
		}
		if e.name == "debit" {
			fields["cost"] = cost
			telemetry.Error("credits.debit_failed", fields)
			continue
		}
		fields["action"] = e.name
		telemetry.Warn("comparison.side_effect_failed", fields)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
