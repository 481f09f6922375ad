package table

import (
	"context"
	"fmt"

	"chip-table/internal/store"

	"github.com/rs/zerolog/log"
)

func (t *Table) deal(ctx context.Context) result {
	if t.active.Load() != nil {
		return result{err: ErrHandInProgress}
	}
	recs := t.seats.load().ordered()
	players := make([]string, 0, len(recs))
	for _, rec := range recs {
		players = append(players, rec.playerID)
	}

	id := RoundID(store.NewID())
	h, err := t.hands.Start(ctx, t, id, players)
	if err != nil {
		return result{err: err}
	}
	if h == nil {
		return result{err: fmt.Errorf("%w: no round returned", ErrHandStartFailed)}
	}
	t.active.Store(&activeRound{id: id, hand: h})
	go t.watch(id, h)

	metricRoundsStarted.Add(1)
	log.Info().Str("table_id", t.cfg.ID).Str("round_id", string(id)).Strs("players", players).Msg("round started")
	t.publish(Event{Type: EventRoundStarted, RoundID: id, Players: players})
	return result{round: id}
}

// watch waits for the round to finish and hands the notice to the loop.
func (t *Table) watch(id RoundID, h Hand) {
	select {
	case <-h.Done():
	case <-t.stop:
		return
	}
	select {
	case t.requests <- request{kind: reqRoundEnded, round: id}:
	case <-t.stop:
	}
}

// roundEnded clears the active round whatever the reason it ended. Balance
// updates the round never sent are lost.
func (t *Table) roundEnded(id RoundID) {
	ar := t.active.Load()
	if ar == nil || ar.id != id {
		return
	}
	t.active.Store(nil)
	metricRoundsEnded.Add(1)

	ev := log.Info()
	if fh, ok := ar.hand.(interface{ Err() error }); ok {
		if err := fh.Err(); err != nil {
			metricRoundsCrashed.Add(1)
			ev = log.Warn().Err(err)
		}
	}
	ev.Str("table_id", t.cfg.ID).Str("round_id", string(id)).Msg("round ended")
	t.publish(Event{Type: EventRoundEnded, RoundID: id})
}
