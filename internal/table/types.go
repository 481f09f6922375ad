package table

import (
	"context"
	"time"
)

// RoundID is the capability issued by Deal. Only the holder of the current
// RoundID may move balances.
type RoundID string

// Bank holds player funds outside the table.
type Bank interface {
	Withdraw(ctx context.Context, playerID string, amount int64) error
	Deposit(ctx context.Context, playerID string, amount int64) error
}

// Balances is the part of the table a running round talks back to.
type Balances interface {
	UpdateBalance(ctx context.Context, round RoundID, playerID string, delta int64) error
}

// Hand is a running round. Done must be closed exactly once when the round
// is over, whether it finished or crashed.
type Hand interface {
	Done() <-chan struct{}
}

// HandStarter launches one round for the given players, ordered by seat.
// ctx only bounds the start itself.
type HandStarter interface {
	Start(ctx context.Context, table Balances, round RoundID, players []string) (Hand, error)
}

type Config struct {
	ID          string
	SeatCount   int
	MailboxSize int
	BankTimeout time.Duration
	// DepositRetryMax bounds how often a failed cash-out deposit is retried.
	// Negative disables retries.
	DepositRetryMax  int
	DepositRetryBase time.Duration
}

// Player is one entry of the seating list.
type Player struct {
	ID      string `json:"player_id"`
	Seat    int    `json:"seat"`
	Balance int64  `json:"balance"`
}

type EventType string

const (
	EventPlayerSeated   EventType = "player_seated"
	EventPlayerLeft     EventType = "player_left"
	EventBuyIn          EventType = "buy_in"
	EventCashOut        EventType = "cash_out"
	EventRoundStarted   EventType = "round_started"
	EventBalanceUpdated EventType = "balance_updated"
	EventRoundEnded     EventType = "round_ended"
)

// Event describes one completed table mutation.
type Event struct {
	Type     EventType `json:"type"`
	TableID  string    `json:"table_id"`
	PlayerID string    `json:"player_id,omitempty"`
	Seat     int       `json:"seat,omitempty"`
	Amount   int64     `json:"amount,omitempty"`
	Balance  int64     `json:"balance"`
	RoundID  RoundID   `json:"round_id,omitempty"`
	Players  []string  `json:"players,omitempty"`
	At       time.Time `json:"at"`
}
