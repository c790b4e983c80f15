package service

import (
	"context"

	"edms/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, actorID uuid.UUID, entityID string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo  repository.AuditRepository
	users repository.UserRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository, users repository.UserRepository) AuditService {
	return &auditService{repo: repo, users: users}
}

// GetAuditLogs returns the deletions, filings and roster changes of the
// actor's unit newest first, optionally for a single entity.
func (s *auditService) GetAuditLogs(ctx context.Context, actorID uuid.UUID, entityID string, page, limit int) ([]AuditLogResponse, int64, error) {
	actor, err := loadActor(ctx, s.users, actorID)
	if err != nil {
		return nil, 0, err
	}
	logs, total, err := s.repo.List(ctx, actor.UnitUIC, entityID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Name
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
