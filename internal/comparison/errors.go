package comparison

import (
	"errors"

	"smartdoc-backend/internal/credits"
	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/llm"
)

var (
	ErrInsufficientDocuments = errors.New("insufficient documents")
	ErrNoJSONFound           = errors.New("no JSON object found in model output")
	ErrInvalidJSON           = errors.New("model output is not valid JSON")
	ErrMalformedSchema       = errors.New("model output does not match the result schema")
	ErrPersistenceFailed     = errors.New("persistence failed")
)

// Errors raised by collaborators, re-exported so callers can match every
// comparison failure against this package.
var (
	ErrNotFoundOrForbidden = extract.ErrNotFoundOrForbidden
	ErrUnsupportedType     = extract.ErrUnsupportedType
	ErrExtractionFailed    = extract.ErrExtractionFailed
	ErrInsufficientCredits = credits.ErrInsufficientCredits
	ErrModelOverloaded     = llm.ErrModelOverloaded
	ErrModelCallFailed     = llm.ErrModelCallFailed
)
