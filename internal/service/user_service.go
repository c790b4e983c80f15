package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"edms/internal/model"
	"edms/internal/repository"
	"edms/internal/reviewer"

	"github.com/google/uuid"
)

// UpsertUserRequest is a roster entry as sent by a unit admin. Scope fields
// accept the "N/A" sentinel, which is stored as empty.
type UpsertUserRequest struct {
	ID             *uuid.UUID `json:"id"`
	Name           string     `json:"name" binding:"required"`
	Email          string     `json:"email" binding:"required,email"`
	Role           string     `json:"role" binding:"required"`
	UnitUIC        string     `json:"unit_uic" binding:"required"`
	Company        *string    `json:"company"`
	Platoon        *string    `json:"platoon"`
	RoleCompany    *string    `json:"role_company"`
	RolePlatoon    *string    `json:"role_platoon"`
	IsCommandStaff bool       `json:"is_command_staff"`
	IsUnitAdmin    bool       `json:"is_unit_admin"`
}

type UserService interface {
	Upsert(ctx context.Context, actorID uuid.UUID, req UpsertUserRequest) (*model.User, error)
	Get(ctx context.Context, id, actorID uuid.UUID) (*model.User, error)
	List(ctx context.Context, actorID uuid.UUID, unitUIC string, page, limit int) ([]model.User, int64, error)
}

type userService struct {
	repo   repository.UserRepository
	audits repository.AuditRepository
	tm     repository.TransactionManager
}

// NewUserService creates a new UserService instance
func NewUserService(repo repository.UserRepository, audits repository.AuditRepository, tm repository.TransactionManager) UserService {
	return &userService{repo: repo, audits: audits, tm: tm}
}

// Upsert creates or replaces a roster entry. Only admins of the target unit may do so.
func (s *userService) Upsert(ctx context.Context, actorID uuid.UUID, req UpsertUserRequest) (*model.User, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	unit := strings.TrimSpace(req.UnitUIC)
	if !actor.IsUnitAdmin || actor.UnitUIC != unit {
		return nil, fmt.Errorf("%w: unit admin required", ErrNotAuthorized)
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user := &model.User{}
	if req.ID != nil {
		existing, err := s.repo.GetByID(ctx, *req.ID)
		if err != nil {
			return nil, err
		}
		if existing.UnitUIC != actor.UnitUIC {
			return nil, fmt.Errorf("%w: user belongs to another unit", ErrNotAuthorized)
		}
		user = existing
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.Role = role
	user.UnitUIC = unit
	user.Company = reviewer.NormalizeString(req.Company)
	user.Platoon = reviewer.NormalizeString(req.Platoon)
	user.RoleCompany = reviewer.NormalizeOptional(req.RoleCompany)
	user.RolePlatoon = reviewer.NormalizeOptional(req.RolePlatoon)
	user.IsCommandStaff = req.IsCommandStaff
	user.IsUnitAdmin = req.IsUnitAdmin

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Upsert(txCtx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		details, _ := json.Marshal(map[string]interface{}{
			"role":     user.Role,
			"unit_uic": user.UnitUIC,
			"company":  user.Company,
			"platoon":  user.Platoon,
		})
		return s.audits.Log(txCtx, &model.AuditLog{
			UserID:     &actor.ID,
			UnitUIC:    user.UnitUIC,
			Action:     model.AuditUpsertUser,
			EntityID:   user.ID.String(),
			EntityName: user.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns a roster entry of the actor's unit. Other units read as missing.
func (s *userService) Get(ctx context.Context, id, actorID uuid.UUID) (*model.User, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.UnitUIC != actor.UnitUIC {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actorID uuid.UUID, unitUIC string, page, limit int) ([]model.User, int64, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, 0, err
	}
	unit, err := unitScope(actor, unitUIC)
	if err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.List(ctx, unit, page, limit)
}
