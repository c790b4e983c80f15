package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"edms/internal/model"
	"edms/internal/repository"

	"github.com/google/uuid"
)

// loadActor resolves the authenticated subject against the roster.
func loadActor(ctx context.Context, users repository.UserRepository, actorID uuid.UUID) (*model.User, error) {
	actor, err := users.GetByID(ctx, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: actor is not on the roster", ErrNotAuthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	return actor, nil
}

// unitScope returns the unit a read runs against. Blank means the actor's
// own unit; any other unit is refused.
func unitScope(actor *model.User, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == actor.UnitUIC {
		return actor.UnitUIC, nil
	}
	return "", fmt.Errorf("%w: unit %s is outside your unit", ErrNotAuthorized, requested)
}
