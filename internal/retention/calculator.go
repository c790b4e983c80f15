// Package retention computes when a filed record becomes eligible for disposal
// and organizes filed records by disposal year and SSIC bucket.
package retention

import (
	"time"

	"edms/internal/model"
)

const (
	YearPermanent = "Permanent"
	YearUnknown   = "Unknown"
	DateNA        = "N/A"

	// DateLayout is the display format for disposal dates.
	DateLayout = "1/2/2006"
)

// Location is the records office time zone. Filing instants are converted to
// it before the cutoff is taken, so the disposal year does not depend on the
// zone the database driver returns.
var Location = time.UTC

// Policy is the part of a records-schedule entry that drives the clock.
type Policy struct {
	IsPermanent bool
	Value       *int
	Unit        string
	Trigger     string
}

// PolicyOf extracts the clock inputs from a request's retention fields.
func PolicyOf(r model.Retention) Policy {
	return Policy{
		IsPermanent: r.IsPermanent,
		Value:       r.RetentionValue,
		Unit:        r.RetentionUnit,
		Trigger:     r.CutoffTrigger,
	}
}

// Disposal is the computed outcome. At is nil unless a concrete date exists.
type Disposal struct {
	Year string     `json:"year"`
	Date string     `json:"date"`
	At   *time.Time `json:"at,omitempty"`
}

// Compute returns the disposal year and date for a record finalized at filedAt.
func Compute(p Policy, filedAt *time.Time) Disposal {
	if p.IsPermanent {
		return Disposal{Year: YearPermanent}
	}
	if p.Value == nil || p.Trigger == "" || filedAt == nil {
		return Disposal{Year: YearUnknown, Date: DateNA}
	}
	at := AddPeriod(CutoffDate(p.Trigger, *filedAt), *p.Value, p.Unit)
	return Disposal{
		Year: at.Format("2006"),
		Date: at.Format(DateLayout),
		At:   &at,
	}
}

// ComputeFor is Compute over a request's own fields.
func ComputeFor(r *model.Request) Disposal {
	return Compute(PolicyOf(r.Retention), r.FiledAt)
}

// CutoffDate rounds the finalization date up to the end of its calendar or
// fiscal year (Oct 1 - Sep 30). Other triggers cut off on the date itself.
func CutoffDate(trigger string, finalized time.Time) time.Time {
	loc := Location
	finalized = finalized.In(loc)
	switch trigger {
	case model.CutoffCalendarYear:
		return time.Date(finalized.Year(), time.December, 31, 0, 0, 0, 0, loc)
	case model.CutoffFiscalYear:
		year := finalized.Year()
		if finalized.Month() >= time.October {
			year++
		}
		return time.Date(year, time.September, 30, 0, 0, 0, 0, loc)
	default:
		return finalized
	}
}

// AddPeriod adds value units to t. Unknown units leave t unchanged.
func AddPeriod(t time.Time, value int, unit string) time.Time {
	switch unit {
	case model.RetentionUnitYears:
		return t.AddDate(value, 0, 0)
	case model.RetentionUnitMonths:
		return t.AddDate(0, value, 0)
	case model.RetentionUnitDays:
		return t.AddDate(0, 0, value)
	default:
		return t
	}
}
