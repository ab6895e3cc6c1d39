package table

import "errors"

// UserError is an error that is safe to return in a response
// Code is a stable identifier clients can switch on
type UserError struct {
	Code    string
	Message string
}

func (u *UserError) Error() string {
	return u.Message
}

func newUserError(code, message string) *UserError {
	return &UserError{Code: code, Message: message}
}

// rejections
var (
	ErrTableFull         = newUserError("TableFull", "the table is full")
	ErrNameTaken         = newUserError("NameTaken", "that name is already in use at the table")
	ErrInvalidName       = newUserError("InvalidName", "display name must be 1-32 characters")
	ErrAlreadySeated     = newUserError("AlreadySeated", "connection is already seated at a table")
	ErrNotSeated         = newUserError("NotSeated", "connection is not seated at this table")
	ErrPlayerNotFound    = newUserError("PlayerNotFound", "no disconnected player with that name")
	ErrNotHost           = newUserError("NotHost", "only the host can start a hand")
	ErrHandInProgress    = newUserError("HandInProgress", "a hand is already in progress")
	ErrNotEnoughPlayers  = newUserError("NotEnoughPlayers", "at least two players are required")
	ErrNotYourTurn       = newUserError("NotYourTurn", "it is not your turn")
	ErrUnknownAction     = newUserError("UnknownAction", "unknown action")
	ErrIllegalCheck      = newUserError("IllegalCheck", "you cannot check when there is a bet to call")
	ErrInsufficientChips = newUserError("InsufficientChips", "you do not have enough chips")
	ErrIllegalRaise      = newUserError("IllegalRaise", "a raise must be at least double the current bet")
	ErrTableClosed       = newUserError("TableClosed", "the table is closed")
	ErrInvalidTableID    = newUserError("InvalidTableID", "table id must be 1-64 characters")
)

// ErrNoActivePlayer is an invariant violation: a betting round is open but nobody can take the turn
var ErrNoActivePlayer = errors.New("no active player can receive the turn")

// reasons a table is torn down
var (
	ErrNoConnectedPlayers = errors.New("no connected players remain")
	ErrIdleTimeout        = errors.New("table idle timeout")
)

// IsUserError returns the UserError wrapped in err, if any
func IsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}

	return nil, false
}
