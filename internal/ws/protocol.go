package ws

import (
	"sort"

	"chip-table/internal/table"
)

const (
	msgSnapshot        = "table_snapshot"
	msgRequestSnapshot = "snapshot"
)

// SnapshotMessage is the table as published when it was taken. It is read
// outside the table loop, so the events that follow may repeat changes it
// already shows. Events carry absolute balances; fold them in with Apply.
type SnapshotMessage struct {
	Type      string         `json:"type"`
	TableID   string         `json:"table_id"`
	SeatCount int            `json:"seat_count"`
	Players   []table.Player `json:"players"`
	RoundID   string         `json:"round_id,omitempty"`
}

// TableView is the read side of a table the stream needs.
type TableView interface {
	ID() string
	SeatCount() int
	Players() []table.Player
	ActiveRound() (table.RoundID, bool)
	Subscribe(fn func(table.Event)) (unsubscribe func())
}

func snapshotOf(tv TableView) SnapshotMessage {
	round, _ := tv.ActiveRound()
	players := tv.Players()
	if players == nil {
		players = []table.Player{}
	}
	return SnapshotMessage{
		Type:      msgSnapshot,
		TableID:   tv.ID(),
		SeatCount: tv.SeatCount(),
		Players:   players,
		RoundID:   string(round),
	}
}

// Apply folds ev into the snapshot. Applying an event whose change the
// snapshot already holds leaves it unchanged.
func (m *SnapshotMessage) Apply(ev table.Event) {
	switch ev.Type {
	case table.EventPlayerSeated:
		for _, p := range m.Players {
			if p.ID == ev.PlayerID {
				return
			}
		}
		m.Players = append(m.Players, table.Player{ID: ev.PlayerID, Seat: ev.Seat})
		sort.Slice(m.Players, func(i, j int) bool { return m.Players[i].Seat < m.Players[j].Seat })
	case table.EventPlayerLeft:
		for i, p := range m.Players {
			if p.ID == ev.PlayerID {
				m.Players = append(m.Players[:i], m.Players[i+1:]...)
				return
			}
		}
	case table.EventBuyIn, table.EventCashOut, table.EventBalanceUpdated:
		for i := range m.Players {
			if m.Players[i].ID == ev.PlayerID {
				m.Players[i].Balance = ev.Balance
				return
			}
		}
	case table.EventRoundStarted:
		m.RoundID = string(ev.RoundID)
	case table.EventRoundEnded:
		if m.RoundID == string(ev.RoundID) {
			m.RoundID = ""
		}
	}
}
