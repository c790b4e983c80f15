// Package reviewer decides whether anyone on a unit roster can review a request
// at a given echelon, and from that where a new request enters the chain.
package reviewer

import (
	"strings"

	"edms/internal/model"
)

// NotApplicable is the roster sentinel meaning "no value".
const NotApplicable = "N/A"

// Scope is the organizational slot a request originates from.
type Scope struct {
	Company string
	Platoon string
	UIC     string
}

// NormalizeString returns "" for nil, the N/A sentinel or blank input, else the trimmed value.
func NormalizeString(v *string) string {
	if v == nil {
		return ""
	}
	return Normalize(*v)
}

// Normalize is NormalizeString for plain values.
func Normalize(v string) string {
	t := strings.TrimSpace(v)
	if t == NotApplicable {
		return ""
	}
	return t
}

// NormalizeOptional maps sentinel or blank input to nil at ingestion time.
func NormalizeOptional(v *string) *string {
	n := NormalizeString(v)
	if n == "" {
		return nil
	}
	return &n
}

// HasReviewer reports whether any roster user holds role over scope.
// Only PLATOON_REVIEWER and COMPANY_REVIEWER are meaningful here.
func HasReviewer(users []model.User, role model.Role, scope Scope) bool {
	for i := range users {
		if matches(&users[i], role, scope) {
			return true
		}
	}
	return false
}

func matches(u *model.User, role model.Role, scope Scope) bool {
	if u.Role != role {
		return false
	}
	// authorized scope overrides the member's own assignment
	if scopeValue(u.RoleCompany, u.Company) != scope.Company {
		return false
	}
	if role == model.RolePlatoonReviewer && scopeValue(u.RolePlatoon, u.Platoon) != scope.Platoon {
		return false
	}
	return u.UnitUIC == scope.UIC
}

func scopeValue(authorized *string, assigned string) string {
	if authorized != nil {
		return NormalizeString(authorized)
	}
	return Normalize(assigned)
}

// ResolveInitialStage picks the first echelon that has somebody to review it:
// platoon, then company, then battalion.
func ResolveInitialStage(users []model.User, company, platoon, uic string) model.Stage {
	scope := Scope{Company: Normalize(company), Platoon: Normalize(platoon), UIC: uic}
	if HasReviewer(users, model.RolePlatoonReviewer, scope) {
		return model.StagePlatoonReview
	}
	if HasReviewer(users, model.RoleCompanyReviewer, scope) {
		return model.StageCompanyReview
	}
	return model.StageBattalionReview
}

// CanReviewAt reports whether u holds review authority over a request from scope
// sitting at stage.
func CanReviewAt(u *model.User, stage model.Stage, scope Scope) bool {
	if u == nil {
		return false
	}
	switch stage {
	case model.StagePlatoonReview:
		return matches(u, model.RolePlatoonReviewer, scope)
	case model.StageCompanyReview:
		return matches(u, model.RoleCompanyReviewer, scope)
	case model.StageBattalionReview:
		return u.UnitUIC == scope.UIC && (u.IsCommandStaff || u.IsUnitAdmin)
	case model.StageCommanderReview:
		return u.UnitUIC == scope.UIC && (u.Role == model.RoleCommander || u.IsCommandStaff)
	case model.StageInstallationReview, model.StageHQMCReview, model.StageExternalReview:
		return u.UnitUIC == scope.UIC && (u.IsUnitAdmin || u.IsCommandStaff)
	default:
		return false
	}
}
