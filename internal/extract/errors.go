package extract

import "errors"

var (
	// ErrNotFoundOrForbidden covers both a missing document and one owned by someone else.
	ErrNotFoundOrForbidden = errors.New("document not found")
	ErrUnsupportedType     = errors.New("unsupported media type")
	ErrExtractionFailed    = errors.New("text extraction failed")
	// ErrNotExtracted is returned by Text for documents whose text has not been saved yet.
	ErrNotExtracted = errors.New("document text has not been extracted yet")
)
