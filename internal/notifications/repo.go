package notifications

import (
	"context"
	"time"
)

// Repo persists notifications.
type Repo interface {
	Insert(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	Delete(ctx context.Context, userID, id string) error
	// PurgeOlderThan removes notifications created before cutoff for all users.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
