package documents

import "time"

// Document represents an uploaded document owned by a user.
type Document struct {
	ID               string
	UserID           string
	FileName         string
	MimeType         string
	SizeBytes        int64
	StorageKey       string
	ExtractedTextKey string
	ExtractedAt      *time.Time
	Compared         bool
	CreatedAt        time.Time
}

// Extracted reports whether the document has saved text.
func (d Document) Extracted() bool {
	return d.ExtractedTextKey != ""
}
