package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/queue"
	"smartdoc-backend/internal/shared/metrics"
	"smartdoc-backend/internal/shared/storage/object"
	"smartdoc-backend/internal/shared/telemetry"
)

// UploadCounter tracks how many documents a user holds.
type UploadCounter interface {
	DocumentUploaded(ctx context.Context, userID string) error
	DocumentDeleted(ctx context.Context, userID string) error
}

// Upload is one file of a multipart upload.
type Upload struct {
	FileName string
	Body     io.Reader
}

// Service contains business logic for documents.
type Service struct {
	Store     object.ObjectStore
	Repo      DocumentsRepo
	Extractor *extract.Extractor
	Counter   UploadCounter
	// Queue receives extraction jobs. When nil, uploads are extracted inline.
	Queue   queue.Client
	ViewTTL time.Duration
}

// Upload saves each file to object storage and records the documents. A
// failure stops the batch; files already stored stay recorded.
func (s *Service) Upload(ctx context.Context, userID string, files []Upload) ([]Document, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}
	out := make([]Document, 0, len(files))
	for _, f := range files {
		doc, err := s.uploadOne(ctx, userID, f)
		if err != nil {
			return out, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Service) uploadOne(ctx context.Context, userID string, f Upload) (Document, error) {
	name := strings.TrimSpace(f.FileName)
	if name == "" {
		return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, name, f.Body)
	if err != nil {
		return Document{}, fmt.Errorf("store %s: %w", name, err)
	}

	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileName:   name,
		MimeType:   extract.NormalizeMimeType(mimeType, name, nil),
		SizeBytes:  size,
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		_ = s.Store.Delete(ctx, storageKey)
		return Document{}, fmt.Errorf("record %s: %w", name, err)
	}

	if s.Counter != nil {
		if err := s.Counter.DocumentUploaded(ctx, userID); err != nil {
			telemetry.Warn("documents.counter_failed", map[string]any{"user_id": userID, "error": err})
		}
	}

	telemetry.Info("documents.uploaded", map[string]any{
		"document_id": doc.ID,
		"user_id":     userID,
		"mime_type":   doc.MimeType,
		"size_bytes":  size,
	})
	return s.scheduleExtraction(ctx, doc), nil
}

// scheduleExtraction hands the document to the queue, or extracts it inline.
// Either way a failure leaves the document uploaded without text.
func (s *Service) scheduleExtraction(ctx context.Context, doc Document) Document {
	if !extract.Supported(doc.MimeType, doc.FileName) || s.Extractor == nil {
		return doc
	}
	if s.Queue != nil {
		err := s.Queue.Send(ctx, queue.Message{
			DocumentID: doc.ID,
			UserID:     doc.UserID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    queue.MessageVersion,
		})
		if err != nil {
			metrics.IncExtractionJob("enqueue_failed")
			telemetry.Warn("documents.enqueue_failed", map[string]any{"document_id": doc.ID, "error": err})
		} else {
			metrics.IncExtractionJob("enqueued")
		}
		return doc
	}

	if _, err := s.Extractor.ExtractAndSave(ctx, doc.ID, doc.UserID); err != nil {
		metrics.IncExtractionJob("failed")
		telemetry.Warn("documents.inline_extract_failed", map[string]any{"document_id": doc.ID, "error": err})
		return doc
	}
	metrics.IncExtractionJob("succeeded")
	if refreshed, err := s.Repo.GetByID(ctx, doc.UserID, doc.ID); err == nil {
		return refreshed
	}
	return doc
}

// List returns the user's documents newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Get returns one document owned by the user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	return s.Repo.GetByID(ctx, userID, documentID)
}

// Delete removes the original and text blobs, the row, and decrements the
// upload counter. Blob removal failures are logged, not returned.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return err
	}

	keys := []string{doc.StorageKey}
	if doc.ExtractedTextKey != "" {
		keys = append(keys, doc.ExtractedTextKey)
	}
	if err := s.Store.Delete(ctx, keys...); err != nil {
		telemetry.Warn("documents.blob_delete_failed", map[string]any{"document_id": doc.ID, "error": err})
	}
	if s.Extractor != nil {
		s.Extractor.Forget(doc.ExtractedTextKey)
	}

	if err := s.Repo.Delete(ctx, userID, documentID); err != nil {
		return err
	}
	if s.Counter != nil {
		if err := s.Counter.DocumentDeleted(ctx, userID); err != nil {
			telemetry.Warn("documents.counter_failed", map[string]any{"user_id": userID, "error": err})
		}
	}
	telemetry.Info("documents.deleted", map[string]any{"document_id": doc.ID, "user_id": userID})
	return nil
}

// ViewURL returns a short-lived download URL for the original file.
func (s *Service) ViewURL(ctx context.Context, userID, documentID string) (string, time.Duration, error) {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return "", 0, err
	}
	ttl := s.ViewTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	url, err := s.Store.SignedURL(ctx, doc.StorageKey, ttl)
	if err != nil {
		return "", 0, fmt.Errorf("sign url: %w", err)
	}
	return url, ttl, nil
}

// ExtractAndSave runs extraction now and stores the text. Re-running it
// overwrites the earlier text.
func (s *Service) ExtractAndSave(ctx context.Context, userID, documentID string) (string, error) {
	if s.Extractor == nil {
		return "", errors.New("extractor not configured")
	}
	return s.Extractor.ExtractAndSave(ctx, documentID, userID)
}

// Text returns the saved text of a document.
func (s *Service) Text(ctx context.Context, userID, documentID string) (string, error) {
	if s.Extractor == nil {
		return "", errors.New("extractor not configured")
	}
	return s.Extractor.Text(ctx, documentID, userID)
}
