package store

import "time"

type Account struct {
	PlayerID  string
	BalanceCC int64
	UpdatedAt time.Time
}

type LedgerEntry struct {
	ID        string
	PlayerID  string
	Type      string
	AmountCC  int64
	RefType   string
	RefID     string
	CreatedAt time.Time
}
