package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"chip-table/internal/store"
)

func TestMemoryWithdrawDeposit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(100)

	if err := m.Withdraw(ctx, "alice", 30); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if err := m.Deposit(ctx, "alice", 5); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	bal, _ := m.Balance(ctx, "alice")
	if bal != 75 {
		t.Fatalf("expected 75, got %d", bal)
	}
}

func TestMemoryWithdrawInsufficient(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	if err := m.Open(ctx, "bob", 10); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := m.Withdraw(ctx, "bob", 11); !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient_balance, got %v", err)
	}
	if err := m.Withdraw(ctx, "bob", 0); !errors.Is(err, store.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	bal, _ := m.Balance(ctx, "bob")
	if bal != 10 {
		t.Fatalf("expected balance 10, got %d", bal)
	}
}

func TestMemoryOpenKeepsExistingBalance(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	_ = m.Open(ctx, "carol", 50)
	_ = m.Open(ctx, "carol", 500)
	bal, _ := m.Balance(ctx, "carol")
	if bal != 50 {
		t.Fatalf("expected 50, got %d", bal)
	}
}

func TestMemoryConcurrentWithdrawNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Withdraw(ctx, "dave", 10); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 10 {
		t.Fatalf("expected 10 successful withdrawals, got %d", ok)
	}
	bal, _ := m.Balance(ctx, "dave")
	if bal != 0 {
		t.Fatalf("expected 0, got %d", bal)
	}
}
