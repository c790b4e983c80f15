package service

import (
	"context"
	"testing"
	"time"

	"edms/internal/model"
	"edms/internal/repository"
	"edms/internal/retention"
	"edms/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedFiled(t *testing.T, repo repository.RequestRepository, subject string, filed *time.Time, ret model.Retention) {
	t.Helper()
	req := &model.Request{
		Subject:      subject,
		UnitUIC:      testutil.UnitUIC,
		UploadedByID: uuid.New(),
		CurrentStage: model.StageBattalionReview,
		FiledAt:      filed,
		Retention:    ret,
		Activity: []model.Activity{
			{Actor: "seed", Kind: model.ActionSubmit, Action: "Submitted", Timestamp: time.Now()},
		},
	}
	require.NoError(t, repo.Upsert(context.Background(), req))
}

func intPtr(v int) *int { return &v }

type recordsFixture struct {
	svc  RecordsService
	unit testutil.Unit
	db   *gorm.DB
}

func newRecordsFixture(t *testing.T) recordsFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	unit := testutil.NewUnit()
	unit.Seed(t, db)
	repo := repository.NewRequestRepository(db)

	march2020 := time.Date(2020, time.March, 15, 12, 0, 0, 0, time.UTC)
	june2019 := time.Date(2019, time.June, 1, 12, 0, 0, 0, time.UTC)

	seedFiled(t, repo, "permanent", &march2020, model.Retention{
		SSIC: "5000", SSICBucket: "5000-5999", SSICBucketTitle: "General Admin", IsPermanent: true,
	})
	seedFiled(t, repo, "one year", &march2020, model.Retention{
		SSIC: "1000", SSICBucket: "1000-1999", SSICBucketTitle: "Military Personnel",
		RetentionValue: intPtr(1), RetentionUnit: model.RetentionUnitYears, CutoffTrigger: model.CutoffCalendarYear,
		DisposalAction: "Destroy",
	})
	seedFiled(t, repo, "three years", &june2019, model.Retention{
		SSIC: "1000", SSICBucket: "1000-1999", SSICBucketTitle: "Military Personnel",
		RetentionValue: intPtr(3), RetentionUnit: model.RetentionUnitYears, CutoffTrigger: model.CutoffCalendarYear,
	})
	seedFiled(t, repo, "no schedule", &march2020, model.Retention{})
	seedFiled(t, repo, "in review", nil, model.Retention{})

	return recordsFixture{
		svc:  NewRecordsService(repo, repository.NewUserRepository(db)),
		unit: unit,
		db:   db,
	}
}

func years(groups []retention.YearGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Year)
	}
	return out
}

func TestRecordsService_Dashboard(t *testing.T) {
	f := newRecordsFixture(t)
	svc, staff := f.svc, f.unit.Staff.ID
	ctx := context.Background()

	originator, err := svc.Dashboard(ctx, staff, testutil.UnitUIC, ViewOriginator)
	require.NoError(t, err)
	assert.Equal(t, []string{"Permanent", "2021", "2022", "Unknown"}, years(originator))

	command, err := svc.Dashboard(ctx, staff, testutil.UnitUIC, ViewCommand)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021", "2022", "Permanent", "Unknown"}, years(command))

	unknown := command[3]
	require.Len(t, unknown.Buckets, 1)
	assert.Equal(t, "Unassigned", unknown.Buckets[0].Title)
	assert.Equal(t, "N/A", unknown.Buckets[0].Records[0].Disposal.Date)

	_, err = svc.Dashboard(ctx, staff, testutil.UnitUIC, "sideways")
	assert.ErrorIs(t, err, ErrValidation)

	own, err := svc.Dashboard(ctx, f.unit.Owner.ID, "", ViewCommand)
	require.NoError(t, err)
	assert.Equal(t, years(command), years(own))
}

func TestRecordsService_StaysInActorsUnit(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()
	outsider := testutil.SeedOutsider(t, f.db)
	asOf := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Dashboard(ctx, outsider.ID, testutil.UnitUIC, ViewCommand)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.DueForDisposal(ctx, outsider.ID, testutil.UnitUIC, asOf)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.Dashboard(ctx, f.unit.Staff.ID, testutil.OtherUnitUIC, ViewCommand)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.Dashboard(ctx, uuid.New(), "", ViewCommand)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	empty, err := f.svc.Dashboard(ctx, outsider.ID, "", ViewCommand)
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := f.svc.DueForDisposal(ctx, outsider.ID, "", asOf)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordsService_DueForDisposal(t *testing.T) {
	f := newRecordsFixture(t)
	svc, staff := f.svc, f.unit.Staff.ID

	due, err := svc.DueForDisposal(context.Background(), staff, testutil.UnitUIC, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "one year", due[0].Request.Subject)
	assert.Equal(t, "12/31/2021", due[0].Disposal.Date)
	assert.Equal(t, "Destroy", due[0].Request.Retention.DisposalAction)

	none, err := svc.DueForDisposal(context.Background(), staff, "", time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
