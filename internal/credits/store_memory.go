package credits

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	logs     []OperationLog
}

// NewMemoryStore returns an in-process Store for dev mode and tests.
func NewMemoryStore() Store {
	return &memoryStore{accounts: make(map[string]Account)}
}

func (s *memoryStore) Ensure(ctx context.Context, userID string, initialCredits int) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(userID, initialCredits), nil
}

func (s *memoryStore) ensureLocked(userID string, initialCredits int) Account {
	acct, ok := s.accounts[userID]
	if !ok {
		now := time.Now().UTC()
		acct = Account{
			UserID:           userID,
			Credits:          initialCredits,
			SubscriptionTier: TierFree,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		s.accounts[userID] = acct
	}
	return acct
}

func (s *memoryStore) Debit(ctx context.Context, userID, operation string, cost int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok || acct.Credits < cost {
		return 0, ErrInsufficientCredits
	}
	acct.Credits -= cost
	acct.UpdatedAt = time.Now().UTC()
	s.accounts[userID] = acct
	s.logs = append(s.logs, OperationLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		Operation:    operation,
		Cost:         cost,
		BalanceAfter: acct.Credits,
		CreatedAt:    acct.UpdatedAt,
	})
	return acct.Credits, nil
}

func (s *memoryStore) AdjustDocuments(ctx context.Context, userID string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return nil
	}
	acct.DocumentsUploaded += delta
	if acct.DocumentsUploaded < 0 {
		acct.DocumentsUploaded = 0
	}
	s.accounts[userID] = acct
	return nil
}

func (s *memoryStore) CountOperations(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.logs {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}
