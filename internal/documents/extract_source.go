package documents

import (
	"context"
	"errors"
	"time"

	"smartdoc-backend/internal/extract"
)

// ExtractSource adapts a DocumentsRepo to the extractor's view of documents.
type ExtractSource struct {
	Repo DocumentsRepo
}

func (s ExtractSource) GetDocument(ctx context.Context, documentID, ownerID string) (extract.Document, error) {
	doc, err := s.Repo.GetByID(ctx, ownerID, documentID)
	if errors.Is(err, ErrNotFound) {
		return extract.Document{}, extract.ErrNotFoundOrForbidden
	}
	if err != nil {
		return extract.Document{}, err
	}
	return extract.Document{
		ID:         doc.ID,
		OwnerID:    doc.UserID,
		FileName:   doc.FileName,
		MimeType:   doc.MimeType,
		StorageKey: doc.StorageKey,
		TextKey:    doc.ExtractedTextKey,
	}, nil
}

func (s ExtractSource) SetTextKey(ctx context.Context, documentID, ownerID, textKey string, extractedAt time.Time) error {
	err := s.Repo.UpdateExtraction(ctx, ownerID, documentID, textKey, extractedAt)
	if errors.Is(err, ErrNotFound) {
		return extract.ErrNotFoundOrForbidden
	}
	return err
}

var _ extract.DocumentStore = ExtractSource{}
