package retention

import (
	"sort"
	"strconv"
	"time"

	"edms/internal/model"
)

// Record pairs a filed request with its computed disposal.
type Record struct {
	Request  *model.Request `json:"request"`
	Disposal Disposal       `json:"disposal"`
}

// BucketGroup holds the records of one SSIC bucket.
type BucketGroup struct {
	Bucket  string   `json:"bucket"`
	Title   string   `json:"title"`
	Records []Record `json:"records"`
}

// YearGroup holds the buckets disposed of in one year.
type YearGroup struct {
	Year    string        `json:"year"`
	Buckets []BucketGroup `json:"buckets"`
}

// YearOrder decides where the Permanent group sits. Unknown always sorts last.
type YearOrder struct {
	PermanentFirst bool
}

var (
	// OriginatorOrder lists Permanent before dated years.
	OriginatorOrder = YearOrder{PermanentFirst: true}
	// CommandOrder lists Permanent after dated years.
	CommandOrder = YearOrder{PermanentFirst: false}
)

func (o YearOrder) rank(year string) int {
	switch year {
	case YearUnknown:
		return 3
	case YearPermanent:
		if o.PermanentFirst {
			return 0
		}
		return 2
	default:
		return 1
	}
}

// Less orders two disposal-year labels.
func (o YearOrder) Less(a, b string) bool {
	ra, rb := o.rank(a), o.rank(b)
	if ra != rb {
		return ra < rb
	}
	ya, errA := strconv.Atoi(a)
	yb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ya < yb
	}
	return a < b
}

const unassignedBucket = "Unassigned"

// Group arranges filed requests by disposal year, then SSIC bucket.
// Requests without filedAt are skipped.
func Group(reqs []model.Request, order YearOrder) []YearGroup {
	byYear := make(map[string]map[string]*BucketGroup)
	for i := range reqs {
		r := &reqs[i]
		if r.FiledAt == nil {
			continue
		}
		d := ComputeFor(r)
		buckets, ok := byYear[d.Year]
		if !ok {
			buckets = make(map[string]*BucketGroup)
			byYear[d.Year] = buckets
		}
		key := r.Retention.SSICBucket
		g, ok := buckets[key]
		if !ok {
			title := r.Retention.SSICBucketTitle
			if key == "" {
				title = unassignedBucket
			}
			g = &BucketGroup{Bucket: key, Title: title}
			buckets[key] = g
		}
		g.Records = append(g.Records, Record{Request: r, Disposal: d})
	}

	years := make([]YearGroup, 0, len(byYear))
	for year, buckets := range byYear {
		yg := YearGroup{Year: year, Buckets: make([]BucketGroup, 0, len(buckets))}
		for _, g := range buckets {
			sort.SliceStable(g.Records, func(i, j int) bool {
				return g.Records[i].Request.FiledAt.Before(*g.Records[j].Request.FiledAt)
			})
			yg.Buckets = append(yg.Buckets, *g)
		}
		sort.Slice(yg.Buckets, func(i, j int) bool {
			return yg.Buckets[i].Bucket < yg.Buckets[j].Bucket
		})
		years = append(years, yg)
	}
	sort.Slice(years, func(i, j int) bool {
		return order.Less(years[i].Year, years[j].Year)
	})
	return years
}

// DueForDisposal returns filed, non-permanent records whose disposal date is
// on or before asOf, earliest first.
func DueForDisposal(reqs []model.Request, asOf time.Time) []Record {
	var out []Record
	for i := range reqs {
		r := &reqs[i]
		if r.FiledAt == nil || r.Retention.IsPermanent {
			continue
		}
		d := ComputeFor(r)
		if d.At == nil || d.At.After(asOf) {
			continue
		}
		out = append(out, Record{Request: r, Disposal: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Disposal.At.Before(*out[j].Disposal.At)
	})
	return out
}
