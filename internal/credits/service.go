package credits

import (
	"context"
	"fmt"

	"smartdoc-backend/internal/shared/telemetry"
)

// Service is the credit ledger: balance checks, debits and usage counters.
type Service struct {
	store          Store
	initialCredits int
}

// NewService constructs a ledger. initialCredits seeds new accounts.
func NewService(store Store, initialCredits int) *Service {
	if initialCredits < 0 {
		initialCredits = 0
	}
	return &Service{store: store, initialCredits: initialCredits}
}

// Account returns the user's account, provisioning it on first sight.
func (s *Service) Account(ctx context.Context, userID string) (Account, error) {
	return s.store.Ensure(ctx, userID, s.initialCredits)
}

// Balance returns the current credit balance.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	acct, err := s.Account(ctx, userID)
	if err != nil {
		return 0, err
	}
	return acct.Credits, nil
}

// CheckBalance fails with ErrInsufficientCredits when the balance is below cost.
// It reserves nothing; Debit re-checks atomically.
func (s *Service) CheckBalance(ctx context.Context, userID string, cost int) error {
	if cost <= 0 {
		return ErrInvalidCost
	}
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance < cost {
		return ErrInsufficientCredits
	}
	return nil
}

// Debit subtracts cost and records operation in the audit log atomically.
func (s *Service) Debit(ctx context.Context, userID, operation string, cost int) (int, error) {
	if cost <= 0 {
		return 0, ErrInvalidCost
	}
	balance, err := s.store.Debit(ctx, userID, operation, cost)
	if err != nil {
		return 0, err
	}
	telemetry.Info("credits.debited", map[string]any{
		"user_id":   userID,
		"operation": operation,
		"cost":      cost,
		"balance":   balance,
	})
	return balance, nil
}

// DocumentUploaded increments the upload counter.
func (s *Service) DocumentUploaded(ctx context.Context, userID string) error {
	if _, err := s.Account(ctx, userID); err != nil {
		return err
	}
	return s.store.AdjustDocuments(ctx, userID, 1)
}

// DocumentDeleted decrements the upload counter, flooring at zero.
func (s *Service) DocumentDeleted(ctx context.Context, userID string) error {
	return s.store.AdjustDocuments(ctx, userID, -1)
}

// Usage summarizes the account for display.
func (s *Service) Usage(ctx context.Context, userID string) (Usage, error) {
	acct, err := s.Account(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	ops, err := s.store.CountOperations(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	return Usage{
		Credits:             acct.Credits,
		SubscriptionTier:    acct.SubscriptionTier,
		DocumentsUploaded:   acct.DocumentsUploaded,
		OperationsPerformed: ops,
	}, nil
}
