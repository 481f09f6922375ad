package ledger

import (
	"context"
	"sync"

	"chip-table/internal/store"
)

// Memory is an in-process bank for running without a database. Unknown
// players start with the seed balance.
type Memory struct {
	mu       sync.Mutex
	seed     int64
	balances map[string]int64
}

func NewMemory(seed int64) *Memory {
	return &Memory{seed: seed, balances: map[string]int64{}}
}

func (m *Memory) Withdraw(_ context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return store.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balanceLocked(playerID)
	if bal < amount {
		return store.ErrInsufficientBalance
	}
	m.balances[playerID] = bal - amount
	return nil
}

func (m *Memory) Deposit(_ context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return store.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] = m.balanceLocked(playerID) + amount
	return nil
}

func (m *Memory) Balance(_ context.Context, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(playerID), nil
}

func (m *Memory) Open(_ context.Context, playerID string, initial int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[playerID]; !ok {
		m.balances[playerID] = initial
	}
	return nil
}

func (m *Memory) balanceLocked(playerID string) int64 {
	if bal, ok := m.balances[playerID]; ok {
		return bal
	}
	return m.seed
}
