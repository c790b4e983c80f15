// Package workflow is the request lifecycle state machine: the stage chain, the
// legal transition table, per-actor predicates, and construction of the next
// request value with its activity entry. It performs no I/O.
package workflow

import "edms/internal/model"

var linearStages = []model.Stage{
	model.StagePlatoonReview,
	model.StageCompanyReview,
	model.StageBattalionReview,
	model.StageCommanderReview,
	model.StageArchived,
}

func linearIndex(s model.Stage) int {
	for i, st := range linearStages {
		if st == s {
			return i
		}
	}
	return -1
}

// NextStage returns the stage after s on the linear chain, clamped at ARCHIVED.
// Stages off the chain are returned unchanged.
func NextStage(s model.Stage) model.Stage {
	i := linearIndex(s)
	if i < 0 {
		return s
	}
	if i+1 >= len(linearStages) {
		return linearStages[len(linearStages)-1]
	}
	return linearStages[i+1]
}

// PrevStage returns the stage before s on the linear chain, clamped at PLATOON_REVIEW.
// Stages off the chain are returned unchanged.
func PrevStage(s model.Stage) model.Stage {
	i := linearIndex(s)
	if i < 0 {
		return s
	}
	if i == 0 {
		return linearStages[0]
	}
	return linearStages[i-1]
}

// ReturnTargetStage maps a post-approval echelon to the stage it pushes a request down to.
func ReturnTargetStage(s model.Stage) (model.Stage, bool) {
	switch s {
	case model.StageBattalionReview:
		return model.StageCompanyReview, true
	case model.StageCompanyReview:
		return model.StagePlatoonReview, true
	case model.StageInstallationReview:
		return model.StageOriginatorReview, true
	default:
		return "", false
	}
}

var stageTitles = map[model.Stage]string{
	model.StageOriginatorReview:   "Originator",
	model.StagePlatoonReview:      "Platoon",
	model.StageCompanyReview:      "Company",
	model.StageBattalionReview:    "Battalion",
	model.StageCommanderReview:    "Commander",
	model.StageInstallationReview: "Installation",
	model.StageHQMCReview:         "HQMC",
	model.StageExternalReview:     "External",
	model.StageArchived:           "Archive",
}

// Title is the display name of a stage.
func Title(s model.Stage) string {
	if t, ok := stageTitles[s]; ok {
		return t
	}
	return string(s)
}
