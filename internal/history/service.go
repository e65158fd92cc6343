package history

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"smartdoc-backend/internal/comparison"
	"smartdoc-backend/internal/shared/telemetry"
)

// NameResolver looks up current display names for an owner's documents.
type NameResolver interface {
	Names(ctx context.Context, userID string, ids []string) (map[string]string, error)
}

type Service struct {
	repo  Repo
	names NameResolver
	now   func() time.Time
	newID func() string
}

func NewService(repo Repo, names NameResolver) *Service {
	return &Service{
		repo:  repo,
		names: names,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// Record stores a completed comparison and returns its id.
func (s *Service) Record(ctx context.Context, userID string, ids, names []string, result comparison.AIAnalysisResult) (string, error) {
	if result.Contradictions == nil {
		result.Contradictions = []comparison.Contradiction{}
	}
	job := ComparisonJob{
		ID:            s.newID(),
		UserID:        userID,
		Status:        StatusCompleted,
		DocumentIDs:   append([]string(nil), ids...),
		DocumentNames: append([]string(nil), names...),
		Results:       &result,
		CreatedAt:     s.now(),
	}
	if err := s.repo.Insert(ctx, job); err != nil {
		return "", err
	}
	telemetry.Info("history.recorded", map[string]any{
		"user_id":        userID,
		"comparison_id":  job.ID,
		"documents":      len(ids),
		"contradictions": len(result.Contradictions),
	})
	return job.ID, nil
}

// List returns completed comparisons newest first, naming each document by
// its current file name.
func (s *Service) List(ctx context.Context, userID string) ([]ComparisonJob, error) {
	jobs, err := s.repo.List(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	s.resolve(ctx, userID, jobs)
	return jobs, nil
}

// Reports returns every comparison job with the names stored at run time.
func (s *Service) Reports(ctx context.Context, userID string) ([]ComparisonJob, error) {
	return s.repo.List(ctx, userID, false)
}

func (s *Service) Get(ctx context.Context, userID, id string) (ComparisonJob, error) {
	job, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return ComparisonJob{}, err
	}
	jobs := []ComparisonJob{job}
	s.resolve(ctx, userID, jobs)
	return jobs[0], nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// resolve rewrites DocumentNames from the live documents. On lookup failure
// the stored names are kept.
func (s *Service) resolve(ctx context.Context, userID string, jobs []ComparisonJob) {
	if s.names == nil || len(jobs) == 0 {
		return
	}
	var ids []string
	seen := map[string]struct{}{}
	for _, job := range jobs {
		for _, id := range job.DocumentIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	current, err := s.names.Names(ctx, userID, ids)
	if err != nil {
		telemetry.Warn("history.names_failed", map[string]any{"user_id": userID, "error": err})
		return
	}
	for i := range jobs {
		names := make([]string, len(jobs[i].DocumentIDs))
		for k, id := range jobs[i].DocumentIDs {
			if name, ok := current[id]; ok {
				names[k] = name
			} else {
				names[k] = DeletedDocumentName
			}
		}
		jobs[i].DocumentNames = names
	}
}

// Summary aggregates the owner's completed comparisons by UTC day.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	jobs, err := s.repo.List(ctx, userID, true)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{ComparisonsOverTime: []DayCount{}}
	if len(jobs) == 0 {
		return out, nil
	}

	byDate := map[string]int{}
	withConflicts := 0
	for _, job := range jobs {
		byDate[job.CreatedAt.UTC().Format(time.DateOnly)]++
		if job.Results != nil && len(job.Results.Contradictions) > 0 {
			out.TotalConflicts += len(job.Results.Contradictions)
			withConflicts++
		}
	}
	for date, n := range byDate {
		out.ComparisonsOverTime = append(out.ComparisonsOverTime, DayCount{Date: date, Comparisons: n})
	}
	sort.Slice(out.ComparisonsOverTime, func(i, j int) bool {
		return out.ComparisonsOverTime[i].Date < out.ComparisonsOverTime[j].Date
	})
	out.TotalComparisons = len(jobs)
	out.ConflictPercentage = int(math.Round(float64(withConflicts) / float64(len(jobs)) * 100))
	return out, nil
}

var _ comparison.HistoryWriter = (*Service)(nil)
