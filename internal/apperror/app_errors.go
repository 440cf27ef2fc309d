package apperror

import "errors"

var (
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrMatchNotFound          = errors.New("match not found")
	ErrInvalidStateTransition = errors.New("operation is invalid for the current match status")
	ErrOutOfTurn              = errors.New("it's not your turn")
	ErrIllegalMove            = errors.New("illegal move")
	ErrAgentTimeout           = errors.New("agent did not produce a move in time")
	ErrConcurrencyConflict    = errors.New("concurrent mutation detected")
)
