package hand

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"chip-table/internal/table"

	"github.com/rs/zerolog/log"
)

var ErrNotEnoughPlayers = errors.New("not_enough_players")

// Ante is the built-in round: every seated player who can afford it posts the
// ante, and one of them, drawn at random, takes the pot.
type Ante struct {
	Amount int64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAnte(amount int64) *Ante {
	return &Ante{Amount: amount, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (a *Ante) Validate(players []string) error {
	if len(players) < 2 {
		return ErrNotEnoughPlayers
	}
	return nil
}

func (a *Ante) Play(ctx context.Context, tbl table.Balances, round table.RoundID, players []string) error {
	in := make([]string, 0, len(players))
	for _, p := range players {
		err := tbl.UpdateBalance(ctx, round, p, -a.Amount)
		switch {
		case err == nil:
			in = append(in, p)
		case errors.Is(err, table.ErrInsufficientFunds), errors.Is(err, table.ErrNotAtTable):
			// sits this one out
		default:
			return err
		}
	}
	if len(in) == 0 {
		return nil
	}
	winner := in[a.pick(len(in))]
	pot := a.Amount * int64(len(in))
	if err := tbl.UpdateBalance(ctx, round, winner, pot); err != nil {
		return err
	}
	log.Info().
		Str("round_id", string(round)).
		Str("winner", winner).
		Int64("pot", pot).
		Int("contributors", len(in)).
		Msg("ante round settled")
	return nil
}

func (a *Ante) pick(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rnd.Intn(n)
}
