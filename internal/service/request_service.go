package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"edms/internal/model"
	"edms/internal/repository"
	"edms/internal/reviewer"
	"edms/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// --- DTOs ---

type SubmitInput struct {
	Subject     string           `json:"subject" binding:"required"`
	Notes       string           `json:"notes"`
	DueDate     *time.Time       `json:"due_date"`
	DocumentIDs []string         `json:"document_ids"`
	Retention   *model.Retention `json:"retention"`
	Comment     string           `json:"comment"`
}

type TransitionInput struct {
	Action           string           `json:"action" binding:"required"`
	Comment          string           `json:"comment"`
	Section          string           `json:"section"`
	InstallationID   string           `json:"installation_id"`
	ExternalUnitUIC  string           `json:"external_unit_uic"`
	ExternalUnitName string           `json:"external_unit_name"`
	Retention        *model.Retention `json:"retention"`
	IntentKey        string           `json:"-"` // Idempotency-Key header
}

type EditInput struct {
	Subject     *string          `json:"subject"`
	Notes       *string          `json:"notes"`
	DueDate     *time.Time       `json:"due_date"`
	DocumentIDs []string         `json:"document_ids"`
	Retention   *model.Retention `json:"retention"`
	Comment     string           `json:"comment"`
	IntentKey   string           `json:"-"`
}

type ListFilter struct {
	UnitUIC string
	Stage   string
	Mine    bool
	Filed   *bool
	Page    int
	Limit   int
}

// Permissions is the predicate snapshot the client uses to enable controls.
type Permissions struct {
	CanEdit               bool           `json:"can_edit"`
	CanDelete             bool           `json:"can_delete"`
	CanFile               bool           `json:"can_file"`
	CanReturnToLower      bool           `json:"can_return_to_lower"`
	OriginatorArchiveOnly bool           `json:"originator_archive_only"`
	CommanderApproved     bool           `json:"commander_approved"`
	Actions               []model.Action `json:"actions"`
}

// --- Interface ---

type RequestService interface {
	Submit(ctx context.Context, actorID uuid.UUID, in SubmitInput) (*model.Request, error)
	Get(ctx context.Context, id, actorID uuid.UUID) (*model.Request, error)
	List(ctx context.Context, actorID uuid.UUID, filter ListFilter) ([]model.Request, int64, error)
	Transition(ctx context.Context, id, actorID uuid.UUID, in TransitionInput) (*model.Request, error)
	Edit(ctx context.Context, id, actorID uuid.UUID, in EditInput) (*model.Request, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	Permissions(ctx context.Context, id, actorID uuid.UUID) (*Permissions, error)
}

type requestService struct {
	requests repository.RequestRepository
	users    repository.UserRepository
	audits   repository.AuditRepository
	tm       repository.TransactionManager
	engine   *workflow.Engine
	notifier Notifier
	logger   *slog.Logger
	retries  int
	backoff  time.Duration
}

// RequestServiceOption tunes a RequestService.
type RequestServiceOption func(*requestService)

// WithNotifier publishes request events to n.
func WithNotifier(n Notifier) RequestServiceOption {
	return func(s *requestService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l *slog.Logger) RequestServiceOption {
	return func(s *requestService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRetry sets how many times a write is retried after a version conflict
// and the base delay between attempts.
func WithRetry(retries int, backoff time.Duration) RequestServiceOption {
	return func(s *requestService) {
		s.retries = retries
		s.backoff = backoff
	}
}

// NewRequestService wires the routing service over its repositories and engine.
func NewRequestService(
	requests repository.RequestRepository,
	users repository.UserRepository,
	audits repository.AuditRepository,
	tm repository.TransactionManager,
	engine *workflow.Engine,
	opts ...RequestServiceOption,
) RequestService {
	s := &requestService{
		requests: requests,
		users:    users,
		audits:   audits,
		tm:       tm,
		engine:   engine,
		notifier: nopNotifier{},
		logger:   slog.Default(),
		retries:  3,
		backoff:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Implementation ---

func (s *requestService) actor(ctx context.Context, actorID uuid.UUID) (*model.User, error) {
	return loadActor(ctx, s.users, actorID)
}

func (s *requestService) Submit(ctx context.Context, actorID uuid.UUID, in SubmitInput) (*model.Request, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}

	docs := in.DocumentIDs
	if docs == nil {
		docs = []string{}
	}
	req := &model.Request{
		Subject:       subject,
		Notes:         in.Notes,
		DueDate:       in.DueDate,
		UnitUIC:       actor.UnitUIC,
		UploadedByID:  actor.ID,
		OriginCompany: reviewer.Normalize(actor.Company),
		OriginPlatoon: reviewer.Normalize(actor.Platoon),
		DocumentIDs:   datatypes.JSONSlice[string](docs),
	}
	if in.Retention != nil {
		req.Retention = *in.Retention
	}
	if err := req.Retention.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	roster, err := s.users.ListByUnit(ctx, actor.UnitUIC)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	stage := reviewer.ResolveInitialStage(roster, req.OriginCompany, req.OriginPlatoon, req.UnitUIC)
	req = workflow.ApplyTransition(req, actor, stage, model.ActionSubmit,
		"Submitted to "+workflow.Title(stage)+" review", in.Comment, workflow.Routing{}, s.engine.Now())

	if err := s.requests.Upsert(ctx, req); err != nil {
		s.logger.Error("Failed to persist new request", "actor", actor.ID, "error", err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	transitionsTotal.WithLabelValues(string(model.ActionSubmit), string(stage)).Inc()
	s.logger.Info("Request submitted", "request_id", req.ID, "to", stage, "actor", actor.ID)
	s.publish(EventRequestCreated, req, model.ActionSubmit)
	return req, nil
}

// load fetches a request the actor's unit owns. Requests of other units
// read as missing.
func (s *requestService) load(ctx context.Context, id uuid.UUID, actor *model.User) (*model.Request, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UnitUIC != actor.UnitUIC {
		return nil, fmt.Errorf("%w: request %s", ErrNotFound, id)
	}
	return req, nil
}

func (s *requestService) Get(ctx context.Context, id, actorID uuid.UUID) (*model.Request, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id, actor)
}

// List pages through the actor's unit. An explicit unit filter must name
// that same unit.
func (s *requestService) List(ctx context.Context, actorID uuid.UUID, filter ListFilter) ([]model.Request, int64, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	unit, err := unitScope(actor, filter.UnitUIC)
	if err != nil {
		return nil, 0, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	f := repository.RequestFilter{
		UnitUIC: unit,
		Filed:   filter.Filed,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}
	if filter.Stage != "" {
		stage, err := model.ParseStage(filter.Stage)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		f.Stage = stage
	}
	if filter.Mine {
		f.UploadedByID = actorID
	}
	return s.requests.List(ctx, f)
}

func (s *requestService) Transition(ctx context.Context, id, actorID uuid.UUID, in TransitionInput) (*model.Request, error) {
	action, err := model.ParseAction(in.Action)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.apply(ctx, id, actorID, workflow.Move{
		Action:           action,
		Comment:          in.Comment,
		Section:          in.Section,
		InstallationID:   in.InstallationID,
		ExternalUnitUIC:  in.ExternalUnitUIC,
		ExternalUnitName: in.ExternalUnitName,
		Retention:        in.Retention,
		IntentKey:        in.IntentKey,
	})
}

func (s *requestService) Edit(ctx context.Context, id, actorID uuid.UUID, in EditInput) (*model.Request, error) {
	if in.Subject != nil && strings.TrimSpace(*in.Subject) == "" {
		return nil, fmt.Errorf("%w: subject cannot be blank", ErrValidation)
	}
	return s.apply(ctx, id, actorID, workflow.Move{
		Action:  model.ActionEdit,
		Comment: in.Comment,
		Edit: &workflow.Edit{
			Subject:     in.Subject,
			Notes:       in.Notes,
			DueDate:     in.DueDate,
			DocumentIDs: in.DocumentIDs,
			Retention:   in.Retention,
		},
		IntentKey: in.IntentKey,
	})
}

// apply runs one move to completion, reloading and re-checking it after a
// concurrent writer wins the version race.
func (s *requestService) apply(ctx context.Context, id, actorID uuid.UUID, m workflow.Move) (*model.Request, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		req, err := s.applyOnce(ctx, id, actor, m)
		if err == nil {
			return req, nil
		}
		if !errors.Is(err, ErrConflict) || attempt >= s.retries {
			return nil, err
		}

		persistRetriesTotal.Inc()
		s.logger.Warn("Retrying transition after version conflict",
			"request_id", id, "action", m.Action, "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt+1)):
		}
	}
}

func (s *requestService) applyOnce(ctx context.Context, id uuid.UUID, actor *model.User, m workflow.Move) (*model.Request, error) {
	current, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if m.IntentKey != "" && hasIntent(current, m.IntentKey) {
		s.logger.Debug("Transition already applied", "request_id", id, "intent", m.IntentKey)
		return current, nil
	}

	roster, err := s.users.ListByUnit(ctx, current.UnitUIC)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	next, err := s.engine.Apply(current, actor, roster, m)
	if err != nil {
		if IsRefusal(err) {
			refusalsTotal.WithLabelValues(string(m.Action), refusalReason(err)).Inc()
			s.logger.Warn("Transition refused",
				"request_id", id, "action", m.Action, "stage", current.CurrentStage, "actor", actor.ID, "error", err)
			return nil, err
		}
		if errors.Is(err, model.ErrPartialRetention) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, err
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Upsert(txCtx, next); err != nil {
			return err
		}
		if m.Action != model.ActionFile {
			return nil
		}
		return s.audit(txCtx, actor, model.AuditFileRequest, next, map[string]interface{}{
			"stage":       next.CurrentStage,
			"ssic":        next.Retention.SSIC,
			"ssic_bucket": next.Retention.SSICBucket,
		})
	})
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			s.logger.Error("Failed to persist transition",
				"request_id", id, "action", m.Action, "error", err)
		}
		return nil, err
	}

	transitionsTotal.WithLabelValues(string(m.Action), string(next.CurrentStage)).Inc()
	s.logger.Info("Transition applied",
		"request_id", next.ID,
		"action", m.Action,
		"from", current.CurrentStage,
		"to", next.CurrentStage,
		"actor", actor.ID,
	)
	s.publish(EventRequestUpdated, next, m.Action)
	return next, nil
}

func hasIntent(r *model.Request, key string) bool {
	for i := range r.Activity {
		if r.Activity[i].IntentKey == key {
			return true
		}
	}
	return false
}

func (s *requestService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	req, err := s.load(ctx, id, actor)
	if err != nil {
		return err
	}
	if !workflow.CanDeleteRequest(req, actor.ID) {
		refusalsTotal.WithLabelValues("DELETE", refusalReason(ErrNotAuthorized)).Inc()
		return fmt.Errorf("%w: only the originator may delete before commander approval", ErrNotAuthorized)
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audit(txCtx, actor, model.AuditDeleteRequest, req, map[string]interface{}{
			"stage":          req.CurrentStage,
			"unit_uic":       req.UnitUIC,
			"activity_count": len(req.Activity),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Request deleted", "request_id", id, "actor", actor.ID)
	s.publish(EventRequestDeleted, req, "")
	return nil
}

func (s *requestService) Permissions(ctx context.Context, id, actorID uuid.UUID) (*Permissions, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	req, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	actions := s.engine.Available(req, actor)
	if actions == nil {
		actions = []model.Action{}
	}
	return &Permissions{
		CanEdit:               workflow.CanRequesterEdit(req, actor.ID),
		CanDelete:             workflow.CanDeleteRequest(req, actor.ID),
		CanFile:               s.engine.CanTransition(req, actor, workflow.Move{Action: model.ActionFile}),
		CanReturnToLower:      workflow.CanReturnToLowerLevel(req),
		OriginatorArchiveOnly: workflow.OriginatorArchiveOnly(req, actor.ID),
		CommanderApproved:     workflow.CommanderApproved(req),
		Actions:               actions,
	}, nil
}

func (s *requestService) audit(ctx context.Context, actor *model.User, action string, req *model.Request, details map[string]interface{}) error {
	userID := actor.ID
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     &userID,
		Action:     action,
		UnitUIC:    req.UnitUIC,
		EntityID:   req.ID.String(),
		EntityName: req.Subject,
		Details:    string(payload),
	}
	if err := s.audits.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *requestService) publish(kind string, req *model.Request, action model.Action) {
	s.notifier.Publish(req.UnitUIC, Event{
		Type:      kind,
		RequestID: req.ID,
		UnitUIC:   req.UnitUIC,
		Stage:     req.CurrentStage,
		Action:    action,
		Version:   req.Version,
		At:        s.engine.Now(),
	})
}
