package history

import "context"

// Repo persists comparison jobs. Every read is scoped to the owner.
type Repo interface {
	Insert(ctx context.Context, job ComparisonJob) error
	// List returns the owner's jobs newest first. When completedOnly is set,
	// jobs in any other status are skipped.
	List(ctx context.Context, userID string, completedOnly bool) ([]ComparisonJob, error)
	Get(ctx context.Context, userID, id string) (ComparisonJob, error)
	Delete(ctx context.Context, userID, id string) error
}
