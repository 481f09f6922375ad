package httptransport

import (
	"context"
	"errors"
	"net/http"

	"chip-table/internal/hand"
	"chip-table/internal/store"
	"chip-table/internal/table"
)

// MapTableError turns a table, bank or round-start error into a status code
// and the error code sent to the client.
func MapTableError(err error) (int, string) {
	switch {
	case errors.Is(err, table.ErrSeatUnavailable):
		return http.StatusBadRequest, "seat_unavailable"
	case errors.Is(err, table.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, table.ErrSeatTaken):
		return http.StatusConflict, "seat_taken"
	case errors.Is(err, table.ErrAlreadySeated):
		return http.StatusConflict, "already_seated"
	case errors.Is(err, table.ErrNotAtTable):
		return http.StatusNotFound, "not_at_table"
	case errors.Is(err, table.ErrPlayerHasBalance):
		return http.StatusConflict, "player_has_balance"
	case errors.Is(err, table.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, table.ErrInvalidHand):
		return http.StatusForbidden, "invalid_hand"
	case errors.Is(err, table.ErrHandInProgress):
		return http.StatusConflict, "hand_in_progress"
	case errors.Is(err, table.ErrHandStartFailed):
		return http.StatusInternalServerError, "hand_start_failed"
	case errors.Is(err, table.ErrTableClosed):
		return http.StatusServiceUnavailable, "table_closed"
	case errors.Is(err, hand.ErrNotEnoughPlayers):
		return http.StatusConflict, "not_enough_players"
	case errors.Is(err, store.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusPaymentRequired, "account_not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "bank_timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
