package credits

import "time"

const (
	TierFree = "free"

	// OperationComparison is the audit-log name for a document comparison.
	OperationComparison = "document_comparison"
)

// Account is a user's credit balance and counters.
type Account struct {
	UserID            string
	Credits           int
	SubscriptionTier  string
	DocumentsUploaded int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OperationLog is one audit row written together with a debit.
type OperationLog struct {
	ID           string
	UserID       string
	Operation    string
	Cost         int
	BalanceAfter int
	CreatedAt    time.Time
}

// Usage is the account summary returned by GET /usage.
type Usage struct {
	Credits             int    `json:"credits"`
	SubscriptionTier    string `json:"subscriptionTier"`
	DocumentsUploaded   int    `json:"documentsUploaded"`
	OperationsPerformed int    `json:"operationsPerformed"`
}
