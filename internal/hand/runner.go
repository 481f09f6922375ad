package hand

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"chip-table/internal/table"

	"github.com/rs/zerolog/log"
)

// Game is the rules for one round. Validate runs before the round starts and
// its error is returned to the dealer; Play runs on the round's goroutine.
type Game interface {
	Validate(players []string) error
	Play(ctx context.Context, tbl table.Balances, round table.RoundID, players []string) error
}

// Runner starts each round of a Game on its own goroutine.
type Runner struct {
	game Game
}

func NewRunner(game Game) *Runner {
	return &Runner{game: game}
}

func (r *Runner) Start(ctx context.Context, tbl table.Balances, round table.RoundID, players []string) (table.Hand, error) {
	if err := r.game.Validate(players); err != nil {
		return nil, err
	}
	h := &Hand{id: round, done: make(chan struct{})}
	// The round outlives the request that dealt it.
	go h.run(context.WithoutCancel(ctx), r.game, tbl, players)
	return h, nil
}

// Hand is one running round.
type Hand struct {
	id   table.RoundID
	done chan struct{}

	mu  sync.Mutex
	err error
}

func (h *Hand) ID() table.RoundID { return h.id }

func (h *Hand) Done() <-chan struct{} { return h.done }

// Err is the reason the round stopped early, or nil once it finished cleanly.
func (h *Hand) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Hand) run(ctx context.Context, game Game, tbl table.Balances, players []string) {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("round_id", string(h.id)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("round crashed")
			h.setErr(fmt.Errorf("round panicked: %v", r))
		}
	}()
	if err := game.Play(ctx, tbl, h.id, players); err != nil {
		log.Warn().Err(err).Str("round_id", string(h.id)).Msg("round aborted")
		h.setErr(err)
	}
}

func (h *Hand) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}
