package repository

import (
	"context"
	"testing"

	"edms/internal/model"
	"edms/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_UpsertAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	unit := testutil.NewUnit()
	unit.Seed(t, db)

	outsider := &model.User{Name: "Other", Email: "other@example.mil", Role: model.RoleMember, UnitUIC: "M99999"}
	require.NoError(t, repo.Upsert(ctx, outsider))
	assert.NotEqual(t, uuid.Nil, outsider.ID)

	roster, err := repo.ListByUnit(ctx, testutil.UnitUIC)
	require.NoError(t, err)
	assert.Len(t, roster, 5)

	page, total, err := repo.List(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, page, 2)

	company := "Bravo"
	unit.Company.RoleCompany = &company
	require.NoError(t, repo.Upsert(ctx, &unit.Company))

	got, err := repo.GetByID(ctx, unit.Company.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RoleCompany)
	assert.Equal(t, "Bravo", *got.RoleCompany)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditRepository_LogAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	entity := uuid.NewString()
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.AuditDeleteRequest, UnitUIC: testutil.UnitUIC, EntityID: entity, Details: "{}"}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.AuditFileRequest, UnitUIC: testutil.UnitUIC, EntityID: uuid.NewString(), Details: "{}"}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.AuditFileRequest, UnitUIC: testutil.OtherUnitUIC, EntityID: entity, Details: "{}"}))

	logs, total, err := repo.List(ctx, testutil.UnitUIC, entity, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditDeleteRequest, logs[0].Action)

	_, total, err = repo.List(ctx, testutil.UnitUIC, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.List(ctx, testutil.OtherUnitUIC, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
