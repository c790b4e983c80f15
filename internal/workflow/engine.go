package workflow

import (
	"fmt"
	"strings"
	"time"

	"edms/internal/model"
	"edms/internal/reviewer"

	"github.com/google/uuid"
)

// Move is one requested transition.
type Move struct {
	Action           model.Action
	Comment          string
	Section          string
	InstallationID   string
	ExternalUnitUIC  string
	ExternalUnitName string
	Retention        *model.Retention
	Edit             *Edit
	IntentKey        string
}

// Edit is the owner-editable part of a request.
type Edit struct {
	Subject     *string
	Notes       *string
	DueDate     *time.Time
	DocumentIDs []string
	Retention   *model.Retention
}

// Routing describes a change of route section carried by an activity entry.
type Routing struct {
	RouteSection string
	FromSection  string
	ToSection    string
}

// Engine evaluates and applies transitions.
type Engine struct {
	sections Sections
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an Engine that treats commandSections as command-group names.
func NewEngine(commandSections []string, opts ...Option) *Engine {
	e := &Engine{sections: NewSections(commandSections), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sections exposes the command-section lookup.
func (e *Engine) Sections() Sections {
	return e.sections
}

// Now reads the engine clock.
func (e *Engine) Now() time.Time {
	return e.now()
}

// legalFrom is the transition table: the stages each action may leave from.
// FILE and EDIT leave the stage unchanged and are gated by predicates instead.
var legalFrom = map[model.Action][]model.Stage{
	model.ActionResubmit:            {model.StageOriginatorReview},
	model.ActionApprove:             {model.StagePlatoonReview, model.StageCompanyReview, model.StageBattalionReview},
	model.ActionSendBack:            {model.StageCompanyReview, model.StageBattalionReview, model.StageCommanderReview},
	model.ActionReturnToOriginator:  {model.StagePlatoonReview, model.StageCompanyReview, model.StageBattalionReview, model.StageCommanderReview},
	model.ActionRouteSection:        {model.StageBattalionReview},
	model.ActionRouteCommandSection: {model.StageBattalionReview, model.StageCommanderReview},
	model.ActionCommanderApprove:    {model.StageCommanderReview},
	model.ActionCommanderEndorse:    {model.StageCommanderReview},
	model.ActionCommanderReject:     {model.StageCommanderReview},
	model.ActionRouteInstallation:   {model.StageBattalionReview, model.StageCommanderReview},
	model.ActionRouteHQMC:           {model.StageBattalionReview, model.StageCommanderReview},
	model.ActionRouteExternal:       {model.StageBattalionReview, model.StageCommanderReview},
	model.ActionReturnToUnit:        {model.StageInstallationReview, model.StageHQMCReview, model.StageExternalReview},
	model.ActionReturnToLower:       {model.StageInstallationReview, model.StageBattalionReview, model.StageCompanyReview},
	model.ActionArchive:             {model.StageBattalionReview, model.StageOriginatorReview},
}

func allowedFrom(a model.Action, s model.Stage) bool {
	for _, st := range legalFrom[a] {
		if st == s {
			return true
		}
	}
	return false
}

func scopeOf(r *model.Request) reviewer.Scope {
	return reviewer.Scope{
		Company: reviewer.Normalize(r.OriginCompany),
		Platoon: reviewer.Normalize(r.OriginPlatoon),
		UIC:     r.UnitUIC,
	}
}

func isOwner(r *model.Request, actor *model.User) bool {
	return actor != nil && actor.ID == r.UploadedByID
}

// Check reports why m is not legal for actor, or nil when it is.
func (e *Engine) Check(r *model.Request, actor *model.User, m Move) error {
	if actor == nil {
		return ErrNotAuthorized
	}
	if r.FiledAt != nil && frozenByFiling(m.Action) {
		return fmt.Errorf("%w: request is already filed", ErrIllegalTransition)
	}

	switch m.Action {
	case model.ActionEdit:
		if !CanRequesterEdit(r, actor.ID) {
			return fmt.Errorf("%w: request can no longer be edited by this actor", ErrNotAuthorized)
		}
		if m.Edit == nil {
			return fmt.Errorf("%w: nothing to edit", ErrIllegalTransition)
		}
		return nil
	case model.ActionFile:
		if !CanFileRequest(r, actor.ID) {
			return fmt.Errorf("%w: filing requires commander approval", ErrIllegalTransition)
		}
		if actor.UnitUIC != r.UnitUIC {
			return ErrNotAuthorized
		}
		return nil
	case model.ActionSubmit:
		return fmt.Errorf("%w: submit creates a new request", ErrIllegalTransition)
	}

	if !allowedFrom(m.Action, r.CurrentStage) {
		return fmt.Errorf("%w: %s from %s", ErrIllegalTransition, m.Action, r.CurrentStage)
	}

	scope := scopeOf(r)
	switch m.Action {
	case model.ActionResubmit:
		if !isOwner(r, actor) {
			return ErrNotAuthorized
		}
		if CommanderApproved(r) {
			return fmt.Errorf("%w: approved requests can only be archived by the originator", ErrIllegalTransition)
		}
	case model.ActionCommanderApprove, model.ActionCommanderEndorse, model.ActionCommanderReject:
		if actor.Role != model.RoleCommander || actor.UnitUIC != r.UnitUIC {
			return ErrNotAuthorized
		}
	case model.ActionReturnToLower:
		if !CanReturnToLowerLevel(r) {
			return fmt.Errorf("%w: only approved requests are returned down", ErrIllegalTransition)
		}
		if !reviewer.CanReviewAt(actor, r.CurrentStage, scope) {
			return ErrNotAuthorized
		}
	case model.ActionArchive:
		if r.CurrentStage == model.StageOriginatorReview {
			if !OriginatorArchiveOnly(r, actor.ID) {
				return ErrNotAuthorized
			}
			break
		}
		if _, ok := LastCommanderDecision(r); !ok && !CommanderApproved(r) {
			return fmt.Errorf("%w: archive requires a commander decision", ErrIllegalTransition)
		}
		if !reviewer.CanReviewAt(actor, r.CurrentStage, scope) {
			return ErrNotAuthorized
		}
	default:
		if !reviewer.CanReviewAt(actor, r.CurrentStage, scope) {
			return ErrNotAuthorized
		}
	}

	switch m.Action {
	case model.ActionRouteSection:
		if strings.TrimSpace(m.Section) == "" || e.sections.IsCommand(m.Section) {
			return fmt.Errorf("%w: battalion section", ErrMissingRouting)
		}
	case model.ActionRouteCommandSection:
		if !e.sections.IsCommand(m.Section) {
			return fmt.Errorf("%w: command section", ErrMissingRouting)
		}
	case model.ActionRouteInstallation:
		if strings.TrimSpace(m.InstallationID) == "" {
			return fmt.Errorf("%w: installation", ErrMissingRouting)
		}
	case model.ActionRouteHQMC:
		if strings.TrimSpace(m.Section) == "" {
			return fmt.Errorf("%w: HQMC branch", ErrMissingRouting)
		}
	case model.ActionRouteExternal:
		if strings.TrimSpace(m.ExternalUnitUIC) == "" {
			return fmt.Errorf("%w: external unit", ErrMissingRouting)
		}
	}
	return nil
}

// frozenByFiling lists the moves that would edit or re-decide a filed record.
// Routing stays open so a filed request can still reach ARCHIVED from any stage.
func frozenByFiling(a model.Action) bool {
	switch a {
	case model.ActionEdit, model.ActionResubmit, model.ActionFile,
		model.ActionCommanderApprove, model.ActionCommanderEndorse, model.ActionCommanderReject:
		return true
	}
	return false
}

// CanTransition reports whether m is legal for actor.
func (e *Engine) CanTransition(r *model.Request, actor *model.User, m Move) bool {
	return e.Check(r, actor, m) == nil
}

// Available lists every action actor may take on r right now. Routing actions
// are reported as available when a destination would make them legal.
func (e *Engine) Available(r *model.Request, actor *model.User) []model.Action {
	candidates := []Move{
		{Action: model.ActionEdit, Edit: &Edit{}},
		{Action: model.ActionResubmit},
		{Action: model.ActionApprove},
		{Action: model.ActionSendBack},
		{Action: model.ActionReturnToOriginator},
		{Action: model.ActionRouteSection, Section: "_"},
		{Action: model.ActionRouteCommandSection, Section: e.sections.first()},
		{Action: model.ActionCommanderApprove},
		{Action: model.ActionCommanderEndorse},
		{Action: model.ActionCommanderReject},
		{Action: model.ActionRouteInstallation, InstallationID: "_"},
		{Action: model.ActionRouteHQMC, Section: "_"},
		{Action: model.ActionRouteExternal, ExternalUnitUIC: "_"},
		{Action: model.ActionReturnToUnit},
		{Action: model.ActionReturnToLower},
		{Action: model.ActionArchive},
		{Action: model.ActionFile},
	}
	var out []model.Action
	for _, p := range candidates {
		if e.Check(r, actor, p) == nil {
			out = append(out, p.Action)
		}
	}
	return out
}

// Apply checks m and returns the next request value. r is not modified.
// roster is the unit roster, consulted when a move lands on an echelon that
// may have nobody to review it.
func (e *Engine) Apply(r *model.Request, actor *model.User, roster []model.User, m Move) (*model.Request, error) {
	if err := e.Check(r, actor, m); err != nil {
		return nil, err
	}

	stage := r.CurrentStage
	route := Routing{RouteSection: r.RouteSection}
	var label string

	switch m.Action {
	case model.ActionEdit:
		label = "Edited request"
	case model.ActionFile:
		label = "Filed for records management"
	case model.ActionResubmit:
		stage = reviewer.ResolveInitialStage(roster, r.OriginCompany, r.OriginPlatoon, r.UnitUIC)
		route.RouteSection = ""
		label = "Resubmitted to " + Title(stage) + " review"
	case model.ActionApprove:
		stage = e.higherStaffed(NextStage(r.CurrentStage), roster, scopeOf(r))
		if r.CurrentStage == model.StageBattalionReview {
			route.RouteSection = ""
		}
		label = "Approved at " + Title(r.CurrentStage) + " and forwarded to " + Title(stage)
	case model.ActionSendBack:
		stage = e.lowerStaffed(PrevStage(r.CurrentStage), roster, scopeOf(r))
		if r.CurrentStage == model.StageCommanderReview {
			route.RouteSection = e.sections.LastBattalionSection(r)
		} else {
			route.RouteSection = ""
		}
		label = "Sent back from " + Title(r.CurrentStage) + " to " + Title(stage)
	case model.ActionReturnToOriginator:
		stage = model.StageOriginatorReview
		route.RouteSection = ""
		label = "Returned to originator from " + Title(r.CurrentStage)
	case model.ActionRouteSection:
		route.RouteSection = strings.TrimSpace(m.Section)
		label = "Routed to section " + route.RouteSection
	case model.ActionRouteCommandSection:
		stage = model.StageCommanderReview
		route.RouteSection = strings.TrimSpace(m.Section)
		label = "Routed to command section " + route.RouteSection
	case model.ActionCommanderApprove, model.ActionCommanderEndorse, model.ActionCommanderReject:
		stage = model.StageBattalionReview
		route.RouteSection = e.sections.LastBattalionSection(r)
		label = commanderLabel(m.Action)
	case model.ActionRouteInstallation:
		stage = model.StageInstallationReview
		route.RouteSection = strings.TrimSpace(m.Section)
		label = "Routed to installation " + strings.TrimSpace(m.InstallationID)
	case model.ActionRouteHQMC:
		stage = model.StageHQMCReview
		route.RouteSection = strings.TrimSpace(m.Section)
		label = "Routed to HQMC " + route.RouteSection
	case model.ActionRouteExternal:
		stage = model.StageExternalReview
		route.RouteSection = strings.TrimSpace(m.ExternalUnitUIC)
		name := strings.TrimSpace(m.ExternalUnitName)
		if name == "" {
			name = route.RouteSection
		}
		label = "Sent to external unit " + name
	case model.ActionReturnToUnit:
		stage = model.StageBattalionReview
		route.RouteSection = e.sections.LastBattalionSection(r)
		label = "Returned to unit from " + Title(r.CurrentStage)
	case model.ActionReturnToLower:
		target, _ := ReturnTargetStage(r.CurrentStage)
		stage = e.lowerStaffed(target, roster, scopeOf(r))
		route.RouteSection = ""
		label = "Returned from " + Title(r.CurrentStage) + " to " + Title(stage)
	case model.ActionArchive:
		stage = model.StageArchived
		route.RouteSection = ""
		label = "Archived"
	}

	if route.RouteSection != r.RouteSection {
		route.FromSection = r.RouteSection
		route.ToSection = route.RouteSection
	}

	next := ApplyTransition(r, actor, stage, m.Action, label, m.Comment, route, e.now())
	last := &next.Activity[len(next.Activity)-1]
	last.IntentKey = m.IntentKey

	switch m.Action {
	case model.ActionEdit:
		applyEdit(next, m.Edit)
	case model.ActionFile:
		now := last.Timestamp
		next.FiledAt = &now
		next.FinalStatus = model.FinalStatusFiled
		if m.Retention != nil {
			next.Retention = *m.Retention
		}
	case model.ActionCommanderApprove:
		if next.CommanderApprovalDate == nil {
			now := last.Timestamp
			next.CommanderApprovalDate = &now
		}
	case model.ActionRouteInstallation:
		next.InstallationID = strings.TrimSpace(m.InstallationID)
	case model.ActionRouteExternal:
		next.ExternalPendingUnitUIC = strings.TrimSpace(m.ExternalUnitUIC)
		next.ExternalPendingUnitName = strings.TrimSpace(m.ExternalUnitName)
	case model.ActionReturnToUnit:
		next.ExternalPendingUnitUIC = ""
		next.ExternalPendingUnitName = ""
	case model.ActionArchive:
		next.FinalStatus = archiveStatus(r)
	}

	if err := next.Retention.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// lowerStaffed walks down from s past platoon/company echelons nobody can review.
func (e *Engine) lowerStaffed(s model.Stage, roster []model.User, scope reviewer.Scope) model.Stage {
	for {
		switch s {
		case model.StageCompanyReview:
			if reviewer.HasReviewer(roster, model.RoleCompanyReviewer, scope) {
				return s
			}
			s = model.StagePlatoonReview
		case model.StagePlatoonReview:
			if reviewer.HasReviewer(roster, model.RolePlatoonReviewer, scope) {
				return s
			}
			return model.StageOriginatorReview
		default:
			return s
		}
	}
}

// higherStaffed walks up from s past a company echelon nobody can review.
func (e *Engine) higherStaffed(s model.Stage, roster []model.User, scope reviewer.Scope) model.Stage {
	if s == model.StageCompanyReview && !reviewer.HasReviewer(roster, model.RoleCompanyReviewer, scope) {
		return model.StageBattalionReview
	}
	return s
}

func commanderLabel(a model.Action) string {
	switch a {
	case model.ActionCommanderApprove:
		return "Commander approved"
	case model.ActionCommanderEndorse:
		return "Commander endorsed"
	default:
		return "Commander rejected"
	}
}

func archiveStatus(r *model.Request) string {
	if r.FiledAt != nil {
		return model.FinalStatusFiled
	}
	decision, ok := LastCommanderDecision(r)
	if !ok {
		return model.FinalStatusArchived
	}
	if decision == model.ActionCommanderReject {
		return model.FinalStatusRejected
	}
	return model.FinalStatusApproved
}

func applyEdit(r *model.Request, ed *Edit) {
	if ed.Subject != nil {
		r.Subject = strings.TrimSpace(*ed.Subject)
	}
	if ed.Notes != nil {
		r.Notes = *ed.Notes
	}
	if ed.DueDate != nil {
		d := *ed.DueDate
		r.DueDate = &d
	}
	if ed.DocumentIDs != nil {
		r.DocumentIDs = append(r.DocumentIDs[:0:0], ed.DocumentIDs...)
	}
	if ed.Retention != nil {
		r.Retention = *ed.Retention
	}
}

// ApplyTransition returns a copy of r moved to stage with one activity entry
// appended. It performs no legality checks.
func ApplyTransition(r *model.Request, actor *model.User, stage model.Stage, kind model.Action, label, comment string, route Routing, at time.Time) *model.Request {
	next := r.Clone()
	next.CurrentStage = stage
	next.RouteSection = route.RouteSection

	entry := model.Activity{
		RequestID:   r.ID,
		Seq:         len(r.Activity),
		Timestamp:   at,
		Kind:        kind,
		FromStage:   r.CurrentStage,
		Action:      label,
		Comment:     strings.TrimSpace(comment),
		FromSection: route.FromSection,
		ToSection:   route.ToSection,
	}
	if actor != nil {
		entry.ActorID = actor.ID
		entry.Actor = actor.Name
		entry.ActorRole = string(actor.Role)
	}
	if entry.ActorID == uuid.Nil && entry.Actor == "" {
		entry.Actor = "system"
	}
	next.Activity = append(next.Activity, entry)
	return next
}
