package notifications

import (
	"errors"
	"time"
)

// CategoryAnalysis marks notifications produced by finished comparisons.
const CategoryAnalysis = "analysis"

var ErrNotFound = errors.New("notification not found")

// Notification is a per-user message shown in the app's inbox.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}
