package repository

import (
	"context"
	"testing"
	"time"

	"edms/internal/model"
	"edms/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(owner uuid.UUID, stage model.Stage) *model.Request {
	return &model.Request{
		Subject:      "Training schedule",
		UnitUIC:      testutil.UnitUIC,
		UploadedByID: owner,
		CurrentStage: stage,
		DocumentIDs:  []string{"doc-2", "doc-1"},
		Activity: []model.Activity{
			{ActorID: owner, Actor: "Cpl Owner", Kind: model.ActionSubmit, Action: "Submitted", Timestamp: time.Now()},
		},
	}
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	req := newRequest(owner, model.StagePlatoonReview)
	years := 3
	req.Retention = model.Retention{SSIC: "1000", SSICBucket: "1000-1999", RetentionValue: &years, RetentionUnit: "years", CutoffTrigger: model.CutoffCalendarYear}
	require.NoError(t, repo.Upsert(ctx, req))
	require.NotEqual(t, uuid.Nil, req.ID)
	assert.Equal(t, 1, req.Version)

	got, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Training schedule", got.Subject)
	assert.Equal(t, model.StagePlatoonReview, got.CurrentStage)
	assert.Equal(t, []string{"doc-2", "doc-1"}, []string(got.DocumentIDs))
	require.Len(t, got.Activity, 1)
	assert.Equal(t, model.ActionSubmit, got.Activity[0].Kind)
	assert.Equal(t, owner, got.Activity[0].ActorID)
	require.NotNil(t, got.Retention.RetentionValue)
	assert.Equal(t, 3, *got.Retention.RetentionValue)
}

func TestRequestRepository_GetMissing(t *testing.T) {
	repo := NewRequestRepository(testutil.SetupTestDB(t))
	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestRepository_UpdateAppendsActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	req := newRequest(uuid.New(), model.StagePlatoonReview)
	require.NoError(t, repo.Upsert(ctx, req))

	loaded, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	loaded.CurrentStage = model.StageCompanyReview
	loaded.Activity = append(loaded.Activity, model.Activity{
		Actor: "SSgt Platoon", Kind: model.ActionApprove, Action: "Approved", Timestamp: time.Now(),
	})
	require.NoError(t, repo.Upsert(ctx, loaded))
	assert.Equal(t, 2, loaded.Version)

	got, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageCompanyReview, got.CurrentStage)
	require.Len(t, got.Activity, 2)
	assert.Equal(t, 0, got.Activity[0].Seq)
	assert.Equal(t, 1, got.Activity[1].Seq)
	assert.Equal(t, model.ActionApprove, got.Activity[1].Kind)

	var count int64
	require.NoError(t, db.Model(&model.Activity{}).Where("request_id = ?", req.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRequestRepository_VersionConflict(t *testing.T) {
	repo := NewRequestRepository(testutil.SetupTestDB(t))
	ctx := context.Background()

	req := newRequest(uuid.New(), model.StagePlatoonReview)
	require.NoError(t, repo.Upsert(ctx, req))

	first, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	second, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)

	first.Subject = "first writer"
	require.NoError(t, repo.Upsert(ctx, first))

	second.Subject = "second writer"
	err = repo.Upsert(ctx, second)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 1, second.Version)

	got, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", got.Subject)
}

func TestRequestRepository_ActivityIsAppendOnly(t *testing.T) {
	repo := NewRequestRepository(testutil.SetupTestDB(t))
	ctx := context.Background()

	req := newRequest(uuid.New(), model.StagePlatoonReview)
	req.Activity = append(req.Activity, model.Activity{Actor: "x", Kind: model.ActionEdit, Action: "Edited request", Timestamp: time.Now()})
	require.NoError(t, repo.Upsert(ctx, req))

	loaded, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	loaded.Activity = loaded.Activity[:1]
	assert.ErrorIs(t, repo.Upsert(ctx, loaded), ErrActivityRewritten)
}

func TestRequestRepository_ListFilters(t *testing.T) {
	repo := NewRequestRepository(testutil.SetupTestDB(t))
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	filedAt := time.Now()
	filed := newRequest(owner, model.StageBattalionReview)
	filed.FiledAt = &filedAt
	require.NoError(t, repo.Upsert(ctx, filed))
	require.NoError(t, repo.Upsert(ctx, newRequest(owner, model.StagePlatoonReview)))
	require.NoError(t, repo.Upsert(ctx, newRequest(other, model.StagePlatoonReview)))
	foreign := newRequest(other, model.StagePlatoonReview)
	foreign.UnitUIC = "M99999"
	require.NoError(t, repo.Upsert(ctx, foreign))

	all, total, err := repo.List(ctx, RequestFilter{UnitUIC: testutil.UnitUIC})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	mine, total, err := repo.List(ctx, RequestFilter{UploadedByID: owner})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)

	yes := true
	onlyFiled, _, err := repo.List(ctx, RequestFilter{UnitUIC: testutil.UnitUIC, Filed: &yes})
	require.NoError(t, err)
	require.Len(t, onlyFiled, 1)
	assert.Equal(t, filed.ID, onlyFiled[0].ID)
	assert.Len(t, onlyFiled[0].Activity, 1)

	platoon, total, err := repo.List(ctx, RequestFilter{Stage: model.StagePlatoonReview, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, platoon, 1)
}

func TestRequestRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	req := newRequest(uuid.New(), model.StagePlatoonReview)
	require.NoError(t, repo.Upsert(ctx, req))
	require.NoError(t, repo.Delete(ctx, req.ID))

	_, err := repo.Get(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&model.Activity{}).Where("request_id = ?", req.ID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.Delete(ctx, req.ID), ErrNotFound)
}

func TestTransactionManager_RollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewRequestRepository(db)
	tm := NewTransactionManager(db)
	ctx := context.Background()

	req := newRequest(uuid.New(), model.StagePlatoonReview)
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repo.Upsert(txCtx, req); err != nil {
			return err
		}
		return ErrVersionConflict
	})
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = repo.Get(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
