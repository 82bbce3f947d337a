package schema

import (
	"net/url"
	"strconv"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
)

// ListParams are the query parameters of every list endpoint.
type ListParams struct {
	PageIndex    int    `query:"pageIndex" doc:"Zero based page number"`
	PageSize     int    `query:"pageSize" doc:"Rows per page; 15 when unset"`
	SortColumn   string `query:"sortColumn" doc:"Column to sort on; name when unset"`
	SortOrder    string `query:"sortOrder" doc:"asc or desc"`
	FilterColumn string `query:"filterColumn" doc:"Column the filter applies to"`
	FilterQuery  string `query:"filterQuery" doc:"Case-insensitive prefix to match"`
}

// Query decodes the parameters the same way clients encode them.
func (p ListParams) Query() (listquery.Query, error) {
	v := url.Values{}
	v.Set("pageIndex", strconv.Itoa(p.PageIndex))
	v.Set("pageSize", strconv.Itoa(p.PageSize))
	v.Set("sortColumn", p.SortColumn)
	v.Set("sortOrder", p.SortOrder)
	if p.FilterColumn != "" {
		v.Set("filterColumn", p.FilterColumn)
	}
	if p.FilterQuery != "" {
		v.Set("filterQuery", p.FilterQuery)
	}
	return listquery.ParseValues(v)
}
