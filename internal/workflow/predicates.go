package workflow

import (
	"edms/internal/model"

	"github.com/google/uuid"
)

// CommanderApproved reports whether a Commander approval or endorsement is on record.
func CommanderApproved(r *model.Request) bool {
	if r.CommanderApprovalDate != nil {
		return true
	}
	for i := range r.Activity {
		switch r.Activity[i].Kind {
		case model.ActionCommanderApprove, model.ActionCommanderEndorse:
			return true
		}
	}
	return false
}

// LastCommanderDecision returns the most recent Commander decision, if any.
func LastCommanderDecision(r *model.Request) (model.Action, bool) {
	for i := len(r.Activity) - 1; i >= 0; i-- {
		if r.Activity[i].Kind.IsCommanderDecision() {
			return r.Activity[i].Kind, true
		}
	}
	return "", false
}

// CanRequesterEdit is true for the owner until Commander approval or filing.
func CanRequesterEdit(r *model.Request, actorID uuid.UUID) bool {
	return actorID == r.UploadedByID && !CommanderApproved(r) && r.FiledAt == nil
}

// CanFileRequest is true once the Commander has approved and the request is not yet filed.
func CanFileRequest(r *model.Request, actorID uuid.UUID) bool {
	return actorID != uuid.Nil && CommanderApproved(r) && r.FiledAt == nil
}

// CanReturnToLowerLevel is true when an approved request sits at an echelon that
// may push it back down.
func CanReturnToLowerLevel(r *model.Request) bool {
	if !CommanderApproved(r) {
		return false
	}
	_, ok := ReturnTargetStage(r.CurrentStage)
	return ok
}

// CanDeleteRequest is true for the owner before Commander approval.
func CanDeleteRequest(r *model.Request, actorID uuid.UUID) bool {
	return actorID == r.UploadedByID && !CommanderApproved(r)
}

// OriginatorArchiveOnly is true when the owner holds an approved request and may
// only archive it.
func OriginatorArchiveOnly(r *model.Request, actorID uuid.UUID) bool {
	return actorID == r.UploadedByID &&
		CommanderApproved(r) &&
		r.CurrentStage == model.StageOriginatorReview
}
