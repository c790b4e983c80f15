package reviewer

import (
	"testing"

	"edms/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want string
	}{
		{"nil", nil, ""},
		{"sentinel", strPtr("N/A"), ""},
		{"padded sentinel", strPtr("  N/A "), ""},
		{"blank", strPtr("   "), ""},
		{"trimmed", strPtr("  x  "), "x"},
		{"plain", strPtr("Alpha"), "Alpha"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeString(tc.in))
		})
	}
}

func TestNormalizeOptional(t *testing.T) {
	assert.Nil(t, NormalizeOptional(strPtr("N/A")))
	assert.Nil(t, NormalizeOptional(nil))
	got := NormalizeOptional(strPtr(" Bravo "))
	if assert.NotNil(t, got) {
		assert.Equal(t, "Bravo", *got)
	}
}

func platoonReviewer() model.User {
	return model.User{
		ID:      uuid.New(),
		Role:    model.RolePlatoonReviewer,
		UnitUIC: "M12345",
		Company: "Alpha",
		Platoon: "1st",
	}
}

func companyReviewer() model.User {
	return model.User{
		ID:      uuid.New(),
		Role:    model.RoleCompanyReviewer,
		UnitUIC: "M12345",
		Company: "Alpha",
		Platoon: "N/A",
	}
}

func TestHasReviewer_EmptyRoster(t *testing.T) {
	scope := Scope{Company: "Alpha", Platoon: "1st", UIC: "M12345"}
	assert.False(t, HasReviewer(nil, model.RolePlatoonReviewer, scope))
	assert.False(t, HasReviewer([]model.User{}, model.RoleCompanyReviewer, scope))
}

func TestHasReviewer_Matching(t *testing.T) {
	scope := Scope{Company: "Alpha", Platoon: "1st", UIC: "M12345"}

	tests := []struct {
		name  string
		user  func() model.User
		role  model.Role
		scope Scope
		want  bool
	}{
		{
			name:  "platoon reviewer matches",
			user:  platoonReviewer,
			role:  model.RolePlatoonReviewer,
			scope: scope,
			want:  true,
		},
		{
			name:  "wrong role",
			user:  platoonReviewer,
			role:  model.RoleCompanyReviewer,
			scope: scope,
			want:  false,
		},
		{
			name:  "other platoon",
			user:  platoonReviewer,
			role:  model.RolePlatoonReviewer,
			scope: Scope{Company: "Alpha", Platoon: "2nd", UIC: "M12345"},
			want:  false,
		},
		{
			name:  "uic compared exactly",
			user:  platoonReviewer,
			role:  model.RolePlatoonReviewer,
			scope: Scope{Company: "Alpha", Platoon: "1st", UIC: "m12345"},
			want:  false,
		},
		{
			name:  "company reviewer ignores platoon",
			user:  companyReviewer,
			role:  model.RoleCompanyReviewer,
			scope: Scope{Company: "Alpha", Platoon: "3rd", UIC: "M12345"},
			want:  true,
		},
		{
			name: "authorized scope overrides assignment",
			user: func() model.User {
				u := companyReviewer()
				u.Company = "Bravo"
				u.RoleCompany = strPtr("Alpha")
				return u
			},
			role:  model.RoleCompanyReviewer,
			scope: scope,
			want:  true,
		},
		{
			name: "authorized scope excludes own assignment",
			user: func() model.User {
				u := companyReviewer()
				u.RoleCompany = strPtr("Bravo")
				return u
			},
			role:  model.RoleCompanyReviewer,
			scope: scope,
			want:  false,
		},
		{
			name: "padded assignment is trimmed",
			user: func() model.User {
				u := platoonReviewer()
				u.Company = " Alpha "
				u.RolePlatoon = strPtr(" 1st ")
				return u
			},
			role:  model.RolePlatoonReviewer,
			scope: scope,
			want:  true,
		},
		{
			name: "sentinel platoon matches empty scope",
			user: func() model.User {
				u := platoonReviewer()
				u.Platoon = "N/A"
				return u
			},
			role:  model.RolePlatoonReviewer,
			scope: Scope{Company: "Alpha", UIC: "M12345"},
			want:  true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasReviewer([]model.User{tc.user()}, tc.role, tc.scope))
		})
	}
}

func TestResolveInitialStage_SkipsEmptyEchelons(t *testing.T) {
	plt := platoonReviewer()
	co := companyReviewer()
	member := model.User{ID: uuid.New(), Role: model.RoleMember, UnitUIC: "M12345", Company: "Alpha", Platoon: "1st"}

	roster := []model.User{member, plt, co}
	assert.Equal(t, model.StagePlatoonReview, ResolveInitialStage(roster, "Alpha", "1st", "M12345"))

	roster = []model.User{member, co}
	assert.Equal(t, model.StageCompanyReview, ResolveInitialStage(roster, "Alpha", "1st", "M12345"))

	roster = []model.User{member}
	assert.Equal(t, model.StageBattalionReview, ResolveInitialStage(roster, "Alpha", "1st", "M12345"))
}

func TestResolveInitialStage_NormalizesOrigin(t *testing.T) {
	roster := []model.User{companyReviewer()}
	assert.Equal(t, model.StageCompanyReview, ResolveInitialStage(roster, " Alpha ", "N/A", "M12345"))
}

func TestCanReviewAt(t *testing.T) {
	scope := Scope{Company: "Alpha", Platoon: "1st", UIC: "M12345"}
	plt := platoonReviewer()
	staff := model.User{ID: uuid.New(), Role: model.RoleMember, UnitUIC: "M12345", IsCommandStaff: true}
	admin := model.User{ID: uuid.New(), Role: model.RoleMember, UnitUIC: "M12345", IsUnitAdmin: true}
	co := model.User{ID: uuid.New(), Role: model.RoleCommander, UnitUIC: "M12345"}
	outsider := model.User{ID: uuid.New(), Role: model.RoleCommander, UnitUIC: "M99999", IsCommandStaff: true}

	assert.True(t, CanReviewAt(&plt, model.StagePlatoonReview, scope))
	assert.False(t, CanReviewAt(&plt, model.StageCompanyReview, scope))
	assert.True(t, CanReviewAt(&staff, model.StageBattalionReview, scope))
	assert.True(t, CanReviewAt(&admin, model.StageHQMCReview, scope))
	assert.True(t, CanReviewAt(&co, model.StageCommanderReview, scope))
	assert.False(t, CanReviewAt(&co, model.StageBattalionReview, scope))
	assert.False(t, CanReviewAt(&outsider, model.StageCommanderReview, scope))
	assert.False(t, CanReviewAt(nil, model.StageBattalionReview, scope))
	assert.False(t, CanReviewAt(&staff, model.StageArchived, scope))
}
