package credits

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCheckBalance(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 1)

	if err := svc.CheckBalance(ctx, "u1", 1); err != nil {
		t.Fatalf("expected balance to cover cost: %v", err)
	}
	if err := svc.CheckBalance(ctx, "u1", 2); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
}

func TestDebitWritesAuditAndCountsOperations(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 3)
	if _, err := svc.Account(ctx, "u1"); err != nil {
		t.Fatalf("Account: %v", err)
	}

	balance, err := svc.Debit(ctx, "u1", OperationComparison, 1)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if balance != 2 {
		t.Fatalf("expected 2, got %d", balance)
	}
	u, err := svc.Usage(ctx, "u1")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.Credits != 2 || u.OperationsPerformed != 1 || u.SubscriptionTier != TierFree {
		t.Fatalf("unexpected usage %+v", u)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 5)
	if _, err := svc.Account(ctx, "u1"); err != nil {
		t.Fatalf("Account: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, short := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Debit(ctx, "u1", OperationComparison, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientCredits):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 5 || short != 15 {
		t.Fatalf("expected 5 debits and 15 rejections, got %d/%d", ok, short)
	}
	if b, _ := svc.Balance(ctx, "u1"); b != 0 {
		t.Fatalf("expected zero balance, got %d", b)
	}
}

func TestDocumentCounterFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 0)
	if err := svc.DocumentUploaded(ctx, "u1"); err != nil {
		t.Fatalf("DocumentUploaded: %v", err)
	}
	_ = svc.DocumentDeleted(ctx, "u1")
	_ = svc.DocumentDeleted(ctx, "u1")
	acct, _ := svc.Account(ctx, "u1")
	if acct.DocumentsUploaded != 0 {
		t.Fatalf("expected 0, got %d", acct.DocumentsUploaded)
	}
}

func TestDebitRejectsNonPositiveCost(t *testing.T) {
	svc := NewService(NewMemoryStore(), 1)
	if _, err := svc.Debit(context.Background(), "u1", OperationComparison, 0); !errors.Is(err, ErrInvalidCost) {
		t.Fatalf("expected ErrInvalidCost, got %v", err)
	}
}
