package credits

import "context"

// Store persists credit accounts and the operation audit log.
type Store interface {
	// Ensure returns the account, creating it with initialCredits when absent.
	Ensure(ctx context.Context, userID string, initialCredits int) (Account, error)
	// Debit subtracts cost only if the balance covers it and appends an audit
	// row in the same transaction. A short balance yields ErrInsufficientCredits.
	Debit(ctx context.Context, userID, operation string, cost int) (int, error)
	// AdjustDocuments adds delta to documents_uploaded, never going below zero.
	AdjustDocuments(ctx context.Context, userID string, delta int) error
	CountOperations(ctx context.Context, userID string) (int, error)
}
