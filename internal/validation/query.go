package validation

import (
	"math"
	"net/url"
	"strconv"
)

// ListQuery holds the optional listing parameters shared by every
// collection endpoint.
type ListQuery struct {
	Page   string `json:"page" validate:"omitempty,page"`
	Limit  string `json:"limit" validate:"omitempty,pagesize"`
	Sort   string `json:"sort" validate:"omitempty,max=50"`
	Search string `json:"search" validate:"omitempty,max=100"`
}

// ListParams is a validated ListQuery. Only sort=asc changes the order;
// any other sort value keeps the newest-first default.
type ListParams struct {
	Page      int
	Limit     int // 0 when not requested
	Ascending bool
	Search    string
}

// Offset returns the number of items before the requested page. It
// saturates at math.MaxInt, which lists nothing.
func (p ListParams) Offset() int {
	if p.Limit <= 0 || p.Page <= 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// ParseListQuery validates listing parameters from a URL query.
func (v *Validator) ParseListQuery(values url.Values) (ListParams, error) {
	q := ListQuery{
		Page:   values.Get("page"),
		Limit:  values.Get("limit"),
		Sort:   values.Get("sort"),
		Search: values.Get("search"),
	}
	if err := v.Struct(q); err != nil {
		return ListParams{}, err
	}

	p := ListParams{Page: 1, Ascending: q.Sort == "asc", Search: q.Search}
	if q.Page != "" {
		p.Page, _ = strconv.Atoi(q.Page) //nolint:errcheck // checked by the page rule
	}
	if q.Limit != "" {
		p.Limit, _ = strconv.Atoi(q.Limit) //nolint:errcheck // checked by the pagesize rule
	}
	return p, nil
}
