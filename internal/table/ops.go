package table

import (
	"context"

	"github.com/rs/zerolog/log"
)

func (t *Table) sit(playerID string, seat int) error {
	if seat < 1 || seat > t.cfg.SeatCount {
		return ErrSeatUnavailable
	}
	if _, taken := t.seats.bySeat(seat); taken {
		return ErrSeatTaken
	}
	// Seating is keyed by player, so one player holds at most one seat.
	if _, seated := t.seats.byPlayer(playerID); seated {
		return ErrAlreadySeated
	}
	t.seats.insert(&seatRecord{playerID: playerID, seat: seat})
	log.Info().Str("table_id", t.cfg.ID).Str("player_id", playerID).Int("seat", seat).Msg("player seated")
	t.publish(Event{Type: EventPlayerSeated, PlayerID: playerID, Seat: seat})
	return nil
}

func (t *Table) leave(playerID string) error {
	if t.active.Load() != nil {
		return ErrHandInProgress
	}
	rec, ok := t.seats.byPlayer(playerID)
	if !ok {
		return ErrNotAtTable
	}
	if rec.balance.Load() != 0 {
		return ErrPlayerHasBalance
	}
	t.seats.remove(playerID)
	log.Info().Str("table_id", t.cfg.ID).Str("player_id", playerID).Int("seat", rec.seat).Msg("player left")
	t.publish(Event{Type: EventPlayerLeft, PlayerID: playerID, Seat: rec.seat})
	return nil
}

// buyIn debits the bank before crediting the seat. A bank failure leaves the
// seat untouched and is returned as is.
func (t *Table) buyIn(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if t.active.Load() != nil {
		return ErrHandInProgress
	}
	rec, ok := t.seats.byPlayer(playerID)
	if !ok {
		return ErrNotAtTable
	}
	// No round is running, so nothing else moves the balance before the credit.
	if !rec.canCredit(amount) {
		return ErrInvalidAmount
	}
	bankCtx, cancel := context.WithTimeout(ctx, t.cfg.BankTimeout)
	defer cancel()
	if err := t.bank.Withdraw(bankCtx, playerID, amount); err != nil {
		return err
	}
	bal, ok := rec.credit(amount)
	if !ok {
		t.deposit(pendingDeposit{playerID: playerID, amount: amount})
		return ErrInvalidAmount
	}
	log.Info().Str("table_id", t.cfg.ID).Str("player_id", playerID).Int64("amount", amount).Int64("balance", bal).Msg("buy in")
	t.publish(Event{Type: EventBuyIn, PlayerID: playerID, Seat: rec.seat, Amount: amount, Balance: bal})
	return nil
}

func (t *Table) cashOut(playerID string) error {
	if t.active.Load() != nil {
		return ErrHandInProgress
	}
	rec, ok := t.seats.byPlayer(playerID)
	if !ok {
		return ErrNotAtTable
	}
	amount := rec.drain()
	if amount > 0 {
		t.deposit(pendingDeposit{playerID: playerID, amount: amount})
	}
	log.Info().Str("table_id", t.cfg.ID).Str("player_id", playerID).Int64("amount", amount).Msg("cash out")
	t.publish(Event{Type: EventCashOut, PlayerID: playerID, Seat: rec.seat, Amount: amount})
	return nil
}

func (t *Table) updateBalance(round RoundID, playerID string, delta int64) error {
	ar := t.active.Load()
	if ar == nil || round == "" || ar.id != round {
		return ErrInvalidHand
	}
	rec, ok := t.seats.byPlayer(playerID)
	if !ok {
		return ErrNotAtTable
	}
	var bal int64
	if delta >= 0 {
		next, ok := rec.credit(delta)
		if !ok {
			return ErrInvalidAmount
		}
		bal = next
	} else {
		next, ok := rec.debit(-delta)
		if !ok {
			return ErrInsufficientFunds
		}
		bal = next
	}
	log.Debug().
		Str("table_id", t.cfg.ID).
		Str("round_id", string(round)).
		Str("player_id", playerID).
		Int64("amount", delta).
		Int64("balance", bal).
		Msg("balance updated")
	t.publish(Event{Type: EventBalanceUpdated, PlayerID: playerID, Seat: rec.seat, Amount: delta, Balance: bal, RoundID: round})
	return nil
}
