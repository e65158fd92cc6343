package history

import (
	"errors"
	"time"

	"smartdoc-backend/internal/comparison"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DeletedDocumentName labels ids whose document no longer exists.
const DeletedDocumentName = "Deleted Document"

var (
	ErrNotFound     = errors.New("comparison not found")
	ErrInvalidInput = errors.New("invalid comparison job")
)

// ComparisonJob is an immutable record of one comparison run. Results is
// only set when Status is completed.
type ComparisonJob struct {
	ID            string                       `json:"id"`
	UserID        string                       `json:"-"`
	Status        string                       `json:"status"`
	DocumentIDs   []string                     `json:"documentIds"`
	DocumentNames []string                     `json:"documentNames"`
	Results       *comparison.AIAnalysisResult `json:"results"`
	CreatedAt     time.Time                    `json:"createdAt"`
}

func (j ComparisonJob) validate() error {
	if j.ID == "" || j.UserID == "" {
		return ErrInvalidInput
	}
	if j.Results != nil && j.Status != StatusCompleted {
		return ErrInvalidInput
	}
	return nil
}

// DayCount is the number of comparisons on one UTC date.
type DayCount struct {
	Date        string `json:"date"`
	Comparisons int    `json:"comparisons"`
}

// Summary aggregates a user's completed comparisons.
type Summary struct {
	TotalComparisons    int        `json:"totalComparisons"`
	TotalConflicts      int        `json:"totalConflicts"`
	ComparisonsOverTime []DayCount `json:"comparisonsOverTime"`
	ConflictPercentage  int        `json:"conflictPercentage"`
}
