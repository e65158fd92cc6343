package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

const extractedTextSuffix = ".extracted.txt"

// HashOwnerKey returns a path-safe namespace for an owner id.
func HashOwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// NewUploadKey builds "<owner hash>/<random>_<file name>" for a fresh upload.
func NewUploadKey(ownerID, fileName string) (string, error) {
	clean, err := SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(HashOwnerKey(ownerID), strings.ReplaceAll(uuid.NewString(), "-", "")+"_"+clean), nil
}

// ExtractedTextKey is the companion key holding a document's extracted text.
// It is a pure function of the original key so re-extraction overwrites.
func ExtractedTextKey(storageKey string) string {
	return storageKey + extractedTextSuffix
}

// SniffContentType detects a media type from the first bytes of a payload.
func SniffContentType(head []byte) string {
	return http.DetectContentType(head)
}
