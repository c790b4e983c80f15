package model

import "fmt"

// Stage is the review echelon currently holding a request.
type Stage string

const (
	StageOriginatorReview   Stage = "ORIGINATOR_REVIEW"
	StagePlatoonReview      Stage = "PLATOON_REVIEW"
	StageCompanyReview      Stage = "COMPANY_REVIEW"
	StageBattalionReview    Stage = "BATTALION_REVIEW"
	StageCommanderReview    Stage = "COMMANDER_REVIEW"
	StageInstallationReview Stage = "INSTALLATION_REVIEW"
	StageHQMCReview         Stage = "HQMC_REVIEW"
	StageExternalReview     Stage = "EXTERNAL_REVIEW"
	StageArchived           Stage = "ARCHIVED"
)

var allStages = []Stage{
	StageOriginatorReview,
	StagePlatoonReview,
	StageCompanyReview,
	StageBattalionReview,
	StageCommanderReview,
	StageInstallationReview,
	StageHQMCReview,
	StageExternalReview,
	StageArchived,
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	for _, st := range allStages {
		if s == st {
			return true
		}
	}
	return false
}

// ParseStage converts a raw value into a Stage.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", v)
	}
	return s, nil
}

// Action identifies the kind of move recorded in the activity log.
type Action string

const (
	ActionSubmit              Action = "SUBMIT"
	ActionResubmit            Action = "RESUBMIT"
	ActionApprove             Action = "APPROVE"
	ActionSendBack            Action = "SEND_BACK"
	ActionReturnToOriginator  Action = "RETURN_TO_ORIGINATOR"
	ActionRouteSection        Action = "ROUTE_SECTION"
	ActionRouteCommandSection Action = "ROUTE_COMMAND_SECTION"
	ActionCommanderApprove    Action = "COMMANDER_APPROVE"
	ActionCommanderEndorse    Action = "COMMANDER_ENDORSE"
	ActionCommanderReject     Action = "COMMANDER_REJECT"
	ActionRouteInstallation   Action = "ROUTE_INSTALLATION"
	ActionRouteHQMC           Action = "ROUTE_HQMC"
	ActionRouteExternal       Action = "ROUTE_EXTERNAL"
	ActionReturnToUnit        Action = "RETURN_TO_UNIT"
	ActionReturnToLower       Action = "RETURN_TO_LOWER"
	ActionArchive             Action = "ARCHIVE"
	ActionFile                Action = "FILE"
	ActionEdit                Action = "EDIT"
)

var allActions = []Action{
	ActionSubmit, ActionResubmit, ActionApprove, ActionSendBack, ActionReturnToOriginator,
	ActionRouteSection, ActionRouteCommandSection, ActionCommanderApprove, ActionCommanderEndorse,
	ActionCommanderReject, ActionRouteInstallation, ActionRouteHQMC, ActionRouteExternal,
	ActionReturnToUnit, ActionReturnToLower, ActionArchive, ActionFile, ActionEdit,
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	for _, act := range allActions {
		if a == act {
			return true
		}
	}
	return false
}

// ParseAction converts a raw value into an Action.
func ParseAction(v string) (Action, error) {
	a := Action(v)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", v)
	}
	return a, nil
}

// IsCommanderDecision reports whether a records a Commander decision.
func (a Action) IsCommanderDecision() bool {
	return a == ActionCommanderApprove || a == ActionCommanderEndorse || a == ActionCommanderReject
}

// Final status labels
const (
	FinalStatusFiled    = "Filed"
	FinalStatusApproved = "Approved"
	FinalStatusRejected = "Rejected"
	FinalStatusArchived = "Archived"
)
