package workflow

import "errors"

var (
	// ErrIllegalTransition means the move is not legal from the request's current state.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrNotAuthorized means the actor holds no authority for the move.
	ErrNotAuthorized = errors.New("actor not authorized for this transition")
	// ErrMissingRouting means a routing move lacks its destination.
	ErrMissingRouting = errors.New("routing destination is required")
)
