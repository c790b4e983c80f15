package pagination

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and validates page/limit from the request query
func Parse(c *gin.Context) Params {
	return FromQuery(c.Request.URL.Query())
}

// FromQuery clamps page and limit. Missing or malformed values fall back to
// the defaults.
func FromQuery(q url.Values) Params {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// HasMore reports whether rows remain past this page.
func (p Params) HasMore(total int64) bool {
	return int64(p.Offset+p.Limit) < total
}
