package table

import "errors"

// Error text doubles as the wire code returned to clients.
var (
	ErrSeatUnavailable   = errors.New("seat_unavailable")
	ErrSeatTaken         = errors.New("seat_taken")
	ErrAlreadySeated     = errors.New("already_seated")
	ErrNotAtTable        = errors.New("not_at_table")
	ErrPlayerHasBalance  = errors.New("player_has_balance")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidHand       = errors.New("invalid_hand")
	ErrHandInProgress    = errors.New("hand_in_progress")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrTableClosed       = errors.New("table_closed")
	ErrHandStartFailed   = errors.New("hand_start_failed")
)
