package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents. Every lookup is
// scoped to the owner; foreign ids behave like missing ones.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// Names returns file names for the ids that still exist. Missing ids are
	// absent from the map.
	Names(ctx context.Context, userID string, ids []string) (map[string]string, error)
	UpdateExtraction(ctx context.Context, userID, documentID, extractedKey string, extractedAt time.Time) error
	MarkCompared(ctx context.Context, userID string, ids []string) error
	Delete(ctx context.Context, userID, documentID string) error
}
