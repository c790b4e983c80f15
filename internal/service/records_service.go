package service

import (
	"context"
	"fmt"
	"time"

	"edms/internal/model"
	"edms/internal/repository"
	"edms/internal/retention"

	"github.com/google/uuid"
)

// Dashboard views
const (
	ViewOriginator = "originator"
	ViewCommand    = "command"
)

// RecordsService reads filed requests through the retention schedule.
// Reads are limited to the actor's unit; a blank unit means that unit.
type RecordsService interface {
	Dashboard(ctx context.Context, actorID uuid.UUID, unitUIC, view string) ([]retention.YearGroup, error)
	DueForDisposal(ctx context.Context, actorID uuid.UUID, unitUIC string, asOf time.Time) ([]retention.Record, error)
}

type recordsService struct {
	requests repository.RequestRepository
	users    repository.UserRepository
}

func NewRecordsService(requests repository.RequestRepository, users repository.UserRepository) RecordsService {
	return &recordsService{requests: requests, users: users}
}

func (s *recordsService) filed(ctx context.Context, actorID uuid.UUID, unitUIC string) ([]model.Request, error) {
	actor, err := loadActor(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	unit, err := unitScope(actor, unitUIC)
	if err != nil {
		return nil, err
	}
	yes := true
	reqs, _, err := s.requests.List(ctx, repository.RequestFilter{UnitUIC: unit, Filed: &yes})
	if err != nil {
		return nil, fmt.Errorf("failed to load filed records: %w", err)
	}
	return reqs, nil
}

// Dashboard groups a unit's filed records by disposal year and SSIC bucket.
// The originator view lists Permanent first; the command view lists it after
// dated years. Unknown is last in both.
func (s *recordsService) Dashboard(ctx context.Context, actorID uuid.UUID, unitUIC, view string) ([]retention.YearGroup, error) {
	var order retention.YearOrder
	switch view {
	case ViewOriginator, "":
		order = retention.OriginatorOrder
	case ViewCommand:
		order = retention.CommandOrder
	default:
		return nil, fmt.Errorf("%w: unknown dashboard view %q", ErrValidation, view)
	}

	reqs, err := s.filed(ctx, actorID, unitUIC)
	if err != nil {
		return nil, err
	}
	return retention.Group(reqs, order), nil
}

func (s *recordsService) DueForDisposal(ctx context.Context, actorID uuid.UUID, unitUIC string, asOf time.Time) ([]retention.Record, error) {
	reqs, err := s.filed(ctx, actorID, unitUIC)
	if err != nil {
		return nil, err
	}
	records := retention.DueForDisposal(reqs, asOf)
	if records == nil {
		records = []retention.Record{}
	}
	return records, nil
}
