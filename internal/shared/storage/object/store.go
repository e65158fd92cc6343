package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a storage key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving document blobs.
type ObjectStore interface {
	// Save stores an upload under the owner's namespace and sniffs its media type.
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// Put writes r at an exact key, replacing any existing object.
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes every key. Missing keys are not an error.
	Delete(ctx context.Context, storageKeys ...string) error
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}
