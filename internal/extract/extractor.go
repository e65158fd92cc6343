package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"smartdoc-backend/internal/shared/storage/object"
	"smartdoc-backend/internal/shared/telemetry"
)

const textContentType = "text/plain; charset=utf-8"

// Document is the slice of a stored document the extractor needs.
type Document struct {
	ID         string
	OwnerID    string
	FileName   string
	MimeType   string
	StorageKey string
	TextKey    string
}

// DocumentStore resolves owner-scoped documents and records saved text.
// GetDocument must return ErrNotFoundOrForbidden for unknown or foreign ids.
type DocumentStore interface {
	GetDocument(ctx context.Context, documentID, ownerID string) (Document, error)
	SetTextKey(ctx context.Context, documentID, ownerID, textKey string, extractedAt time.Time) error
}

// Extractor turns stored documents into plain text.
type Extractor struct {
	Docs  DocumentStore
	Store object.ObjectStore
	cache *lru.Cache[string, string]
	now   func() time.Time
}

// New builds an Extractor. cacheSize <= 0 disables the saved-text cache.
func New(docs DocumentStore, store object.ObjectStore, cacheSize int) *Extractor {
	e := &Extractor{Docs: docs, Store: store, now: time.Now}
	if cacheSize > 0 {
		cache, err := lru.New[string, string](cacheSize)
		if err == nil {
			e.cache = cache
		}
	}
	return e
}

// Extract downloads and decodes the original bytes of a document. It never
// writes anything.
func (e *Extractor) Extract(ctx context.Context, documentID, ownerID string) (string, error) {
	doc, err := e.Docs.GetDocument(ctx, documentID, ownerID)
	if err != nil {
		return "", err
	}
	return e.decode(ctx, doc)
}

// ExtractAndSave extracts a document and writes the text to its companion key,
// overwriting any earlier copy, then records the key on the document.
func (e *Extractor) ExtractAndSave(ctx context.Context, documentID, ownerID string) (string, error) {
	doc, err := e.Docs.GetDocument(ctx, documentID, ownerID)
	if err != nil {
		return "", err
	}
	text, err := e.decode(ctx, doc)
	if err != nil {
		return "", err
	}

	textKey := object.ExtractedTextKey(doc.StorageKey)
	if _, err := e.Store.Put(ctx, textKey, textContentType, strings.NewReader(text)); err != nil {
		return "", fmt.Errorf("save extracted text %s: %w", doc.FileName, err)
	}
	if err := e.Docs.SetTextKey(ctx, doc.ID, ownerID, textKey, e.now().UTC()); err != nil {
		return "", fmt.Errorf("record extracted text %s: %w", doc.FileName, err)
	}
	if e.cache != nil {
		e.cache.Add(textKey, text)
	}

	telemetry.Info("extract.saved", map[string]any{
		"document_id": doc.ID,
		"user_id":     ownerID,
		"chars":       len(text),
	})
	return text, nil
}

// Text returns the saved text of a document. Documents without a text key
// fail with ErrUnsupportedType when their media type cannot be decoded and
// with ErrNotExtracted otherwise. A missing companion blob falls back to decoding.
func (e *Extractor) Text(ctx context.Context, documentID, ownerID string) (string, error) {
	doc, err := e.Docs.GetDocument(ctx, documentID, ownerID)
	if err != nil {
		return "", err
	}
	if doc.TextKey == "" {
		if !Supported(doc.MimeType, doc.FileName) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, doc.MimeType)
		}
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, ErrNotExtracted)
	}
	if e.cache != nil {
		if text, ok := e.cache.Get(doc.TextKey); ok {
			return text, nil
		}
	}

	text, err := e.readSaved(ctx, doc.TextKey)
	if errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("extract.saved_text_missing", map[string]any{
			"document_id": doc.ID,
			"text_key":    doc.TextKey,
		})
		return e.decode(ctx, doc)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read saved text: %v", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		text = EmptyPlaceholder
	}
	if e.cache != nil {
		e.cache.Add(doc.TextKey, text)
	}
	return text, nil
}

// Forget drops a cached text entry, used when a document is deleted.
func (e *Extractor) Forget(textKey string) {
	if e.cache != nil && textKey != "" {
		e.cache.Remove(textKey)
	}
}

func (e *Extractor) decode(ctx context.Context, doc Document) (string, error) {
	if !Supported(doc.MimeType, doc.FileName) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, doc.MimeType)
	}
	body, err := e.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrExtractionFailed, doc.FileName, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtractionFailed, doc.FileName, err)
	}
	return FromBytes(ctx, raw, doc.MimeType, doc.FileName)
}

func (e *Extractor) readSaved(ctx context.Context, textKey string) (string, error) {
	body, err := e.Store.Open(ctx, textKey)
	if err != nil {
		return "", err
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
