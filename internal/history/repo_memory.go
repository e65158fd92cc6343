package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo.
type MemoryRepo struct {
	mu   sync.Mutex
	jobs map[string]ComparisonJob
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{jobs: make(map[string]ComparisonJob)}
}

func (r *MemoryRepo) Insert(ctx context.Context, job ComparisonJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := job.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = clone(job)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, completedOnly bool) ([]ComparisonJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	out := []ComparisonJob{}
	for _, job := range r.jobs {
		if job.UserID != userID {
			continue
		}
		if completedOnly && job.Status != StatusCompleted {
			continue
		}
		out = append(out, clone(job))
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (ComparisonJob, error) {
	if err := ctx.Err(); err != nil {
		return ComparisonJob{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.UserID != userID {
		return ComparisonJob{}, ErrNotFound
	}
	return clone(job), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.UserID != userID {
		return ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

func clone(job ComparisonJob) ComparisonJob {
	job.DocumentIDs = append([]string(nil), job.DocumentIDs...)
	job.DocumentNames = append([]string(nil), job.DocumentNames...)
	if job.Results != nil {
		res := *job.Results
		res.Contradictions = append(res.Contradictions[:0:0], res.Contradictions...)
		job.Results = &res
	}
	return job
}

var _ Repo = (*MemoryRepo)(nil)
