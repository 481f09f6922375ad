package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"chip-table/internal/table"
)

// TableAPI is the part of the table coordinator exposed over HTTP.
type TableAPI interface {
	ID() string
	SeatCount() int
	Sit(ctx context.Context, playerID string, seat int) error
	Leave(ctx context.Context, playerID string) error
	BuyIn(ctx context.Context, playerID string, amount int64) error
	CashOut(ctx context.Context, playerID string) error
	Deal(ctx context.Context) (table.RoundID, error)
	Players() []table.Player
	ActiveRound() (table.RoundID, bool)
}

type sitRequest struct {
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type buyInRequest struct {
	PlayerID string `json:"player_id"`
	Amount   int64  `json:"amount"`
}

type playersResponse struct {
	TableID   string         `json:"table_id"`
	SeatCount int            `json:"seat_count"`
	Players   []table.Player `json:"players"`
}

type roundResponse struct {
	RoundID table.RoundID `json:"round_id,omitempty"`
	Active  bool          `json:"active"`
}

type TableHandlers struct {
	tbl TableAPI
}

func NewTableHandlers(tbl TableAPI) *TableHandlers {
	return &TableHandlers{tbl: tbl}
}

func (h *TableHandlers) Sit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sitRequest
		if !decodeBody(w, r, &req) || !requirePlayer(w, req.PlayerID) {
			return
		}
		h.respond(w, h.tbl.Sit(r.Context(), req.PlayerID, req.Seat))
	}
}

func (h *TableHandlers) Leave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeBody(w, r, &req) || !requirePlayer(w, req.PlayerID) {
			return
		}
		h.respond(w, h.tbl.Leave(r.Context(), req.PlayerID))
	}
}

func (h *TableHandlers) BuyIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req buyInRequest
		if !decodeBody(w, r, &req) || !requirePlayer(w, req.PlayerID) {
			return
		}
		h.respond(w, h.tbl.BuyIn(r.Context(), req.PlayerID, req.Amount))
	}
}

func (h *TableHandlers) CashOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeBody(w, r, &req) || !requirePlayer(w, req.PlayerID) {
			return
		}
		h.respond(w, h.tbl.CashOut(r.Context(), req.PlayerID))
	}
}

func (h *TableHandlers) Deal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricTableRequestsTotal.Add(1)
		metricDealTotal.Add(1)
		id, err := h.tbl.Deal(r.Context())
		if err != nil {
			metricTableRequestErrors.Add(1)
			status, code := MapTableError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, roundResponse{RoundID: id, Active: true})
	}
}

func (h *TableHandlers) Players() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		players := h.tbl.Players()
		if players == nil {
			players = []table.Player{}
		}
		writeJSON(w, http.StatusOK, playersResponse{
			TableID:   h.tbl.ID(),
			SeatCount: h.tbl.SeatCount(),
			Players:   players,
		})
	}
}

func (h *TableHandlers) Round() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		id, ok := h.tbl.ActiveRound()
		writeJSON(w, http.StatusOK, roundResponse{RoundID: id, Active: ok})
	}
}

func (h *TableHandlers) respond(w http.ResponseWriter, err error) {
	metricTableRequestsTotal.Add(1)
	if err != nil {
		metricTableRequestErrors.Add(1)
		status, code := MapTableError(err)
		WriteHTTPError(w, status, code)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func requirePlayer(w http.ResponseWriter, playerID string) bool {
	if strings.TrimSpace(playerID) == "" {
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
		return false
	}
	return true
}
