package service

import (
	"errors"

	"edms/internal/repository"
	"edms/internal/workflow"
)

var (
	// ErrValidation wraps malformed input.
	ErrValidation = errors.New("validation failed")

	ErrNotFound          = repository.ErrNotFound
	ErrConflict          = repository.ErrVersionConflict
	ErrIllegalTransition = workflow.ErrIllegalTransition
	ErrNotAuthorized     = workflow.ErrNotAuthorized
	ErrMissingRouting    = workflow.ErrMissingRouting
)

// IsRefusal reports whether err is the engine declining a move.
func IsRefusal(err error) bool {
	return errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrMissingRouting)
}

func refusalReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrMissingRouting):
		return "missing_routing"
	default:
		return "illegal"
	}
}
