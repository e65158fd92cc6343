package credits

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed credit store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

func (s *pgStore) Ensure(ctx context.Context, userID string, initialCredits int) (Account, error) {
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO credit_accounts (user_id, credits, subscription_tier)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING`, userID, initialCredits, TierFree); err != nil {
		return Account{}, err
	}

	var a Account
	err := s.DB.QueryRowContext(ctx, `
SELECT user_id, credits, subscription_tier, documents_uploaded, created_at, updated_at
FROM credit_accounts WHERE user_id = $1`, userID).
		Scan(&a.UserID, &a.Credits, &a.SubscriptionTier, &a.DocumentsUploaded, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *pgStore) Debit(ctx context.Context, userID, operation string, cost int) (balance int, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// The WHERE clause is the floor: concurrent debits cannot overdraw.
	err = tx.QueryRowContext(ctx, `
UPDATE credit_accounts SET credits = credits - $2, updated_at = NOW()
WHERE user_id = $1 AND credits >= $2
RETURNING credits`, userID, cost).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrInsufficientCredits
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx, `
INSERT INTO operation_logs (id, user_id, operation, cost, balance_after)
VALUES ($1, $2, $3, $4, $5)`, uuid.NewString(), userID, operation, cost, balance); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *pgStore) AdjustDocuments(ctx context.Context, userID string, delta int) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE credit_accounts
SET documents_uploaded = GREATEST(documents_uploaded + $2, 0), updated_at = NOW()
WHERE user_id = $1`, userID, delta)
	return err
}

func (s *pgStore) CountOperations(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM operation_logs WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
