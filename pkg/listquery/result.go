package listquery

import "fmt"

// Result is the response envelope of a list endpoint. FilterColumn and
// FilterQuery echo the request and are nil when it was unfiltered.
type Result[T any] struct {
	Data         []T       `json:"data"`
	PageIndex    int       `json:"pageIndex"`
	PageSize     int       `json:"pageSize"`
	TotalCount   int       `json:"totalCount"`
	TotalPages   int       `json:"totalPages"`
	SortColumn   string    `json:"sortColumn"`
	SortOrder    SortOrder `json:"sortOrder"`
	FilterColumn *string   `json:"filterColumn"`
	FilterQuery  *string   `json:"filterQuery"`
}

// TotalPagesFor returns ceil(totalCount/pageSize).
func TotalPagesFor(totalCount, pageSize int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalCount-1)/pageSize + 1
}

// NewResult wraps a page of data with the paging metadata echoed from q.
func NewResult[T any](data []T, q Query, totalCount int) Result[T] {
	if data == nil {
		data = []T{}
	}
	r := Result[T]{
		Data:       data,
		PageIndex:  q.PageIndex,
		PageSize:   q.PageSize,
		TotalCount: totalCount,
		TotalPages: TotalPagesFor(totalCount, q.PageSize),
		SortColumn: q.SortColumn,
		SortOrder:  q.SortOrder,
	}
	if q.Filter != nil {
		col, fq := q.Filter.Column, q.Filter.Query
		r.FilterColumn, r.FilterQuery = &col, &fq
	}
	return r
}

// Query reconstructs the query this result answers.
func (r Result[T]) Query() Query {
	q := Query{
		PageIndex:  r.PageIndex,
		PageSize:   r.PageSize,
		SortColumn: r.SortColumn,
		SortOrder:  r.SortOrder,
	}
	if r.FilterColumn != nil && r.FilterQuery != nil {
		q.Filter = &Filter{Column: *r.FilterColumn, Query: *r.FilterQuery}
	}
	return q.Normalize()
}

// HasNext reports whether a page follows this one.
func (r Result[T]) HasNext() bool { return r.PageIndex < r.TotalPages-1 }

// HasPrev reports whether a page precedes this one.
func (r Result[T]) HasPrev() bool { return r.PageIndex > 0 }

// Validate checks the envelope invariants.
func (r Result[T]) Validate() error {
	if r.PageSize <= 0 {
		return fmt.Errorf("pageSize %d must be positive", r.PageSize)
	}
	if r.TotalCount < 0 {
		return fmt.Errorf("totalCount %d must not be negative", r.TotalCount)
	}
	if len(r.Data) > r.PageSize {
		return fmt.Errorf("page holds %d rows, more than pageSize %d", len(r.Data), r.PageSize)
	}
	if want := TotalPagesFor(r.TotalCount, r.PageSize); r.TotalPages != want {
		return fmt.Errorf("totalPages %d, want %d", r.TotalPages, want)
	}
	if (r.FilterColumn == nil) != (r.FilterQuery == nil) {
		return fmt.Errorf("filterColumn and filterQuery must be set together")
	}
	return nil
}
