package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func (s *Store) GetAccountBalance(ctx context.Context, playerID string) (int64, error) {
	var bal int64
	err := s.Pool.QueryRow(ctx, `SELECT balance_cc FROM accounts WHERE player_id = $1`, playerID).Scan(&bal)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return bal, nil
}

func (s *Store) EnsureAccount(ctx context.Context, playerID string, initial int64) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO accounts (player_id, balance_cc) VALUES ($1, $2) ON CONFLICT (player_id) DO NOTHING`, playerID, initial)
	return err
}

func (s *Store) Debit(ctx context.Context, playerID string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.adjust(ctx, playerID, -amount, entryType, refType, refID)
}

func (s *Store) Credit(ctx context.Context, playerID string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.adjust(ctx, playerID, amount, entryType, refType, refID)
}

// adjust applies delta under a row lock and records the ledger entry in the
// same transaction. A debit never drives the balance below zero.
func (s *Store) adjust(ctx context.Context, playerID string, delta int64, entryType, refType, refID string) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var bal int64
	if err := tx.QueryRow(ctx, `SELECT balance_cc FROM accounts WHERE player_id = $1 FOR UPDATE`, playerID).Scan(&bal); err != nil {
		return 0, mapNotFound(err)
	}
	newBal := bal + delta
	if newBal < 0 {
		return 0, ErrInsufficientBalance
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance_cc = $1, updated_at = now() WHERE player_id = $2`, newBal, playerID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, player_id, type, amount_cc, ref_type, ref_id) VALUES ($1,$2,$3,$4,$5,$6)`,
		NewID(), playerID, entryType, delta, refType, refID,
	); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBal, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, playerID string, limit int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, player_id, type, amount_cc, ref_type, ref_id, created_at
		 FROM ledger_entries WHERE player_id = $1 ORDER BY id DESC LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LedgerEntry, error) {
		var e LedgerEntry
		err := row.Scan(&e.ID, &e.PlayerID, &e.Type, &e.AmountCC, &e.RefType, &e.RefID, &e.CreatedAt)
		return e, err
	})
}
