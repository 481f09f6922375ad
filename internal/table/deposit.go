package table

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type pendingDeposit struct {
	playerID string
	amount   int64
	attempt  int
}

// deposit returns drained chips to the bank off the loop. The caller of
// CashOut never sees the outcome. Failures are retried with exponential
// backoff; Drain waits for every deposit to settle.
func (t *Table) deposit(d pendingDeposit) {
	t.deposits.Add(1)
	t.depositsPending.Add(1)
	go t.sendDeposit(d)
}

// Drain waits until every cash-out deposit has reached the bank or been
// given up, or until ctx ends. Call it after Close and before the bank goes
// away.
func (t *Table) Drain(ctx context.Context) error {
	settled := make(chan struct{})
	go func() {
		t.deposits.Wait()
		close(settled)
	}()
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		log.Error().
			Str("table_id", t.cfg.ID).
			Int64("pending", t.depositsPending.Load()).
			Msg("cash out deposits still pending at shutdown")
		return ctx.Err()
	}
}

func (t *Table) settleDeposit() {
	t.depositsPending.Add(-1)
	t.deposits.Done()
}

func (t *Table) sendDeposit(d pendingDeposit) {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.BankTimeout)
	defer cancel()
	err := t.bank.Deposit(ctx, d.playerID, d.amount)
	if err == nil {
		t.settleDeposit()
		return
	}
	metricDepositFailures.Add(1)
	if d.attempt >= t.cfg.DepositRetryMax {
		metricDepositDropped.Add(1)
		log.Error().
			Err(err).
			Str("table_id", t.cfg.ID).
			Str("player_id", d.playerID).
			Int64("amount", d.amount).
			Int("attempts", d.attempt+1).
			Msg("cash out deposit failed")
		t.settleDeposit()
		return
	}
	d.attempt++
	metricDepositRetries.Add(1)
	delay := t.cfg.DepositRetryBase * time.Duration(1<<(d.attempt-1))
	log.Warn().
		Err(err).
		Str("table_id", t.cfg.ID).
		Str("player_id", d.playerID).
		Int64("amount", d.amount).
		Dur("retry_in", delay).
		Msg("cash out deposit retry")
	time.AfterFunc(delay, func() { t.sendDeposit(d) })
}
