package listquery

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownColumn is returned when a sort or filter column does not exist.
var ErrUnknownColumn = errors.New("unknown column")

// FieldFunc returns the value of column for item. ok is false when the
// column is not part of the record.
type FieldFunc[T any] func(item T, column string) (value any, ok bool)

// Paginate evaluates q against items: filter (case-insensitive prefix match),
// stable sort, then slice out the requested page. items is not modified.
// Identical inputs always yield identical results. field is also called with
// the zero T to validate column names, so it must tolerate it.
func Paginate[T any](items []T, q Query, field FieldFunc[T]) (Result[T], error) {
	q = q.Normalize()
	var probe T
	if len(items) > 0 {
		probe = items[0]
	}
	if _, ok := field(probe, q.SortColumn); !ok {
		return Result[T]{}, fmt.Errorf("%w: sort column %q", ErrUnknownColumn, q.SortColumn)
	}

	rows := make([]T, 0, len(items))
	if q.Filter != nil {
		if _, ok := field(probe, q.Filter.Column); !ok {
			return Result[T]{}, fmt.Errorf("%w: filter column %q", ErrUnknownColumn, q.Filter.Column)
		}
		prefix := strings.ToLower(q.Filter.Query)
		for _, it := range items {
			v, _ := field(it, q.Filter.Column)
			if strings.HasPrefix(strings.ToLower(text(v)), prefix) {
				rows = append(rows, it)
			}
		}
	} else {
		rows = append(rows, items...)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := field(rows[i], q.SortColumn)
		b, _ := field(rows[j], q.SortColumn)
		c := compare(a, b)
		if q.SortOrder == Desc {
			return c > 0
		}
		return c < 0
	})

	total := len(rows)
	// compare in pages so a huge pageIndex cannot overflow the offset
	if q.PageIndex >= TotalPagesFor(total, q.PageSize) {
		return NewResult([]T{}, q, total), nil
	}
	start := q.PageIndex * q.PageSize
	end := total
	if q.PageSize < total-start {
		end = start + q.PageSize
	}
	page := make([]T, end-start)
	copy(page, rows[start:end])
	return NewResult(page, q, total), nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case *int64:
		if x == nil {
			return ""
		}
		return fmt.Sprint(*x)
	default:
		return fmt.Sprint(x)
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case *int64:
		if x == nil {
			return 0, false
		}
		return float64(*x), true
	}
	return 0, false
}

// compare orders nil first, numbers numerically, bools false<true and
// everything else as case-insensitive text.
func compare(a, b any) int {
	aNil, bNil := a == nil, b == nil
	if aNil || bNil {
		switch {
		case aNil && bNil:
			return 0
		case aNil:
			return -1
		default:
			return 1
		}
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(strings.ToLower(text(a)), strings.ToLower(text(b)))
}
