package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartdoc-backend/internal/shared/telemetry"
)

// Service creates, lists and expires notifications.
type Service struct {
	Repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: time.Now}
}

// NotifyComparison records that a comparison over names finished.
func (s *Service) NotifyComparison(ctx context.Context, userID string, names []string, contradictions int) error {
	desc := fmt.Sprintf("Your comparison of %s is complete.", strings.Join(names, ", "))
	if contradictions > 0 {
		desc = fmt.Sprintf("Your comparison of %s found %d contradiction(s).", strings.Join(names, ", "), contradictions)
	}
	return s.Repo.Insert(ctx, Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Category:    CategoryAnalysis,
		Title:       "Analysis Complete",
		Description: desc,
		CreatedAt:   s.now().UTC(),
	})
}

func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.Repo.Delete(ctx, userID, id)
}

// Purge removes notifications older than retention.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-retention)
	n, err := s.Repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	telemetry.Info("notifications.purged", map[string]any{"removed": n, "cutoff": cutoff.Format(time.RFC3339)})
	return n, nil
}
