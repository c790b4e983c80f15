package retention

import (
	"testing"
	"time"

	"edms/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filedRequest(filed time.Time, bucket string, ret model.Retention) model.Request {
	ret.SSICBucket = bucket
	ret.SSICBucketTitle = "Bucket " + bucket
	f := filed
	return model.Request{ID: uuid.New(), FiledAt: &f, Retention: ret}
}

func dated(years int) model.Retention {
	return model.Retention{
		SSIC:           "1000",
		RetentionValue: intPtr(years),
		RetentionUnit:  model.RetentionUnitYears,
		CutoffTrigger:  model.CutoffCalendarYear,
	}
}

func TestYearOrder(t *testing.T) {
	years := []string{"2030", YearUnknown, "2026", YearPermanent}

	sorted := func(o YearOrder) []string {
		out := append([]string(nil), years...)
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && o.Less(out[j], out[j-1]); j-- {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
		return out
	}

	assert.Equal(t, []string{YearPermanent, "2026", "2030", YearUnknown}, sorted(OriginatorOrder))
	assert.Equal(t, []string{"2026", "2030", YearPermanent, YearUnknown}, sorted(CommandOrder))
}

func TestGroup(t *testing.T) {
	reqs := []model.Request{
		filedRequest(day(2023, time.June, 15), "5000-5999", dated(3)),
		filedRequest(day(2023, time.February, 1), "1000-1999", dated(3)),
		filedRequest(day(2023, time.March, 1), "5000-5999", dated(3)),
		filedRequest(day(2022, time.March, 1), "2000-2999", model.Retention{SSIC: "2000", IsPermanent: true}),
		filedRequest(day(2022, time.March, 1), "", model.Retention{}),
		{ID: uuid.New()}, // not filed
	}

	groups := Group(reqs, CommandOrder)
	require.Len(t, groups, 3)

	assert.Equal(t, "2026", groups[0].Year)
	require.Len(t, groups[0].Buckets, 2)
	assert.Equal(t, "1000-1999", groups[0].Buckets[0].Bucket)
	assert.Equal(t, "5000-5999", groups[0].Buckets[1].Bucket)
	require.Len(t, groups[0].Buckets[1].Records, 2)
	assert.True(t, groups[0].Buckets[1].Records[0].Request.FiledAt.Before(*groups[0].Buckets[1].Records[1].Request.FiledAt))

	assert.Equal(t, YearPermanent, groups[1].Year)
	assert.Equal(t, YearUnknown, groups[2].Year)
	assert.Equal(t, "Unassigned", groups[2].Buckets[0].Title)

	groups = Group(reqs, OriginatorOrder)
	assert.Equal(t, YearPermanent, groups[0].Year)
	assert.Equal(t, YearUnknown, groups[len(groups)-1].Year)
}

func TestDueForDisposal(t *testing.T) {
	reqs := []model.Request{
		filedRequest(day(2019, time.June, 1), "1000", dated(3)), // 12/31/2022
		filedRequest(day(2018, time.June, 1), "1000", dated(3)), // 12/31/2021
		filedRequest(day(2023, time.June, 1), "1000", dated(3)), // 12/31/2026
		filedRequest(day(2010, time.June, 1), "1000", model.Retention{SSIC: "1000", IsPermanent: true}),
		filedRequest(day(2010, time.June, 1), "1000", model.Retention{}),
	}

	due := DueForDisposal(reqs, day(2024, time.January, 1))
	require.Len(t, due, 2)
	assert.Equal(t, "2021", due[0].Disposal.Year)
	assert.Equal(t, "2022", due[1].Disposal.Year)
}
