package listquery

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is used whenever a non-positive page size is requested.
	DefaultPageSize = 15
	// DefaultSortColumn is the column every list view sorts on initially.
	DefaultSortColumn = "name"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortOrder maps user or wire input to a SortOrder. Anything that is
// not "desc" (case-insensitive) sorts ascending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Filter narrows a list to rows whose Column starts with Query. Column and
// Query travel together: a query either has a filter or it does not.
type Filter struct {
	Column string `json:"filterColumn" yaml:"filterColumn"`
	Query  string `json:"filterQuery" yaml:"filterQuery"`
}

// SubResource scopes a list to the children of a parent record, e.g. the
// cities of country 5 is {Name: "Cities", ID: "5"} on /api/Countries.
type SubResource struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
}

// Query is the request envelope shared by every list endpoint.
type Query struct {
	PageIndex   int          `json:"pageIndex" yaml:"pageIndex"`
	PageSize    int          `json:"pageSize" yaml:"pageSize"`
	SortColumn  string       `json:"sortColumn" yaml:"sortColumn"`
	SortOrder   SortOrder    `json:"sortOrder" yaml:"sortOrder"`
	Filter      *Filter      `json:"filter,omitempty" yaml:"filter,omitempty"`
	SubResource *SubResource `json:"subResource,omitempty" yaml:"subResource,omitempty"`
}

// Option customizes a Query built by Build.
type Option func(*Query)

// WithFilter sets the filter. Blank column or query leaves the query unfiltered.
func WithFilter(column, query string) Option {
	return func(q *Query) {
		column = strings.TrimSpace(column)
		if column == "" || query == "" {
			q.Filter = nil
			return
		}
		q.Filter = &Filter{Column: column, Query: query}
	}
}

// WithSubResource scopes the query to a child collection.
func WithSubResource(name, id string) Option {
	return func(q *Query) {
		name = strings.Trim(strings.TrimSpace(name), "/")
		if name == "" {
			q.SubResource = nil
			return
		}
		q.SubResource = &SubResource{Name: name, ID: strings.TrimSpace(id)}
	}
}

// Build composes a normalized Query.
func Build(pageIndex, pageSize int, sortColumn string, order SortOrder, opts ...Option) Query {
	q := Query{
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		SortColumn: sortColumn,
		SortOrder:  order,
	}
	for _, o := range opts {
		o(&q)
	}
	return q.Normalize()
}

// Default returns the query every list view starts with.
func Default() Query {
	return Build(0, DefaultPageSize, DefaultSortColumn, Asc)
}

// Normalize clamps out-of-range values to their defaults.
func (q Query) Normalize() Query {
	if q.PageIndex < 0 {
		q.PageIndex = 0
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	q.SortColumn = strings.TrimSpace(q.SortColumn)
	if q.SortColumn == "" {
		q.SortColumn = DefaultSortColumn
	}
	q.SortOrder = ParseSortOrder(string(q.SortOrder))
	if q.Filter != nil && (strings.TrimSpace(q.Filter.Column) == "" || q.Filter.Query == "") {
		q.Filter = nil
	}
	return q
}

// WithPage returns a copy with new paging fields.
func (q Query) WithPage(pageIndex, pageSize int) Query {
	q.PageIndex, q.PageSize = pageIndex, pageSize
	return q.Normalize()
}

// WithSort returns a copy with new sort fields.
func (q Query) WithSort(column string, order SortOrder) Query {
	q.SortColumn, q.SortOrder = column, order
	return q.Normalize()
}

// WithFilter returns a copy with the filter replaced and the page reset,
// since offsets computed for the old filter no longer apply.
func (q Query) WithFilter(column, query string) Query {
	WithFilter(column, query)(&q)
	q.PageIndex = 0
	return q.Normalize()
}

// FilterColumn returns the filter column or "".
func (q Query) FilterColumn() string {
	if q.Filter == nil {
		return ""
	}
	return q.Filter.Column
}

// FilterQuery returns the filter text or "".
func (q Query) FilterQuery() string {
	if q.Filter == nil {
		return ""
	}
	return q.Filter.Query
}

// Values encodes the query string parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("pageIndex", strconv.Itoa(q.PageIndex))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	v.Set("sortColumn", q.SortColumn)
	v.Set("sortOrder", string(q.SortOrder))
	if q.Filter != nil {
		v.Set("filterColumn", q.Filter.Column)
		v.Set("filterQuery", q.Filter.Query)
	}
	return v
}

// Path returns the request path for the list rooted at endpoint, including
// the sub-resource segment when one is set.
func (q Query) Path(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if q.SubResource == nil {
		return endpoint
	}
	if q.SubResource.ID != "" {
		return endpoint + "/" + url.PathEscape(q.SubResource.ID) + "/" + q.SubResource.Name
	}
	return endpoint + "/" + q.SubResource.Name
}

// ErrInvalidQuery is returned by ParseValues for malformed parameters.
var ErrInvalidQuery = errors.New("invalid list query")

// ParseValues decodes query string parameters produced by Values. Missing
// fields take their defaults. A filter column without a query (or the
// reverse) is rejected.
func ParseValues(v url.Values) (Query, error) {
	q := Query{
		SortColumn: v.Get("sortColumn"),
		SortOrder:  SortOrder(v.Get("sortOrder")),
	}
	var err error
	if s := v.Get("pageIndex"); s != "" {
		if q.PageIndex, err = strconv.Atoi(s); err != nil {
			return Query{}, fmt.Errorf("%w: pageIndex %q", ErrInvalidQuery, s)
		}
	}
	if s := v.Get("pageSize"); s != "" {
		if q.PageSize, err = strconv.Atoi(s); err != nil {
			return Query{}, fmt.Errorf("%w: pageSize %q", ErrInvalidQuery, s)
		}
	}
	col, fq := v.Get("filterColumn"), v.Get("filterQuery")
	if (col == "") != (fq == "") {
		return Query{}, fmt.Errorf("%w: filterColumn and filterQuery must be set together", ErrInvalidQuery)
	}
	if col != "" {
		q.Filter = &Filter{Column: col, Query: fq}
	}
	return q.Normalize(), nil
}
