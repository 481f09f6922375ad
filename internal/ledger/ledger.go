package ledger

import (
	"context"

	"chip-table/internal/store"
)

const (
	entryBuyIn   = "table_buyin"
	entryCashOut = "table_cashout"
	refTypeTable = "table"
)

// Ledger is the Postgres-backed bank. Every movement is recorded as a ledger
// entry referencing the table it was made for.
type Ledger struct {
	Store   *store.Store
	TableID string
	// Seed opens unknown accounts with this many chips on first withdraw.
	// Zero leaves unknown accounts unfunded.
	Seed int64
}

func New(s *store.Store, tableID string) *Ledger {
	return &Ledger{Store: s, TableID: tableID}
}

func (l *Ledger) Withdraw(ctx context.Context, playerID string, amount int64) error {
	if l.Seed > 0 {
		if err := l.Open(ctx, playerID, l.Seed); err != nil {
			return err
		}
	}
	_, err := l.Store.Debit(ctx, playerID, amount, entryBuyIn, refTypeTable, l.TableID)
	return err
}

func (l *Ledger) Deposit(ctx context.Context, playerID string, amount int64) error {
	_, err := l.Store.Credit(ctx, playerID, amount, entryCashOut, refTypeTable, l.TableID)
	return err
}

func (l *Ledger) Balance(ctx context.Context, playerID string) (int64, error) {
	return l.Store.GetAccountBalance(ctx, playerID)
}

// Open makes sure the player has an account, seeding it with initial chips
// the first time it is seen.
func (l *Ledger) Open(ctx context.Context, playerID string, initial int64) error {
	return l.Store.EnsureAccount(ctx, playerID, initial)
}
