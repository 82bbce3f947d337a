package listquery

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type city struct {
	ID   int64
	Name string
	Pop  int
}

func cityField(c city, column string) (any, bool) {
	switch column {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "pop":
		return c.Pop, true
	}
	return nil, false
}

func names(cs []city) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestPaginateTestCities(t *testing.T) {
	items := []city{{3, "TestCity3", 10}, {1, "TestCity1", 30}, {2, "TestCity2", 20}}
	res, err := Paginate(items, Build(0, 2, "name", Asc), cityField)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if diff := cmp.Diff([]string{"TestCity1", "TestCity2"}, names(res.Data)); diff != "" {
		t.Fatalf("data (-want +got):\n%s", diff)
	}
	if res.TotalCount != 3 || res.TotalPages != 2 {
		t.Fatalf("totals %d/%d", res.TotalCount, res.TotalPages)
	}
	if err := res.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if items[0].Name != "TestCity3" {
		t.Fatalf("input was reordered")
	}
}

func TestPaginatePageLengths(t *testing.T) {
	for total := 0; total <= 12; total++ {
		items := make([]city, total)
		for i := range items {
			items[i] = city{ID: int64(i), Name: fmt.Sprintf("c%02d", i)}
		}
		for size := 1; size <= 5; size++ {
			for page := 0; page <= 6; page++ {
				res, err := Paginate(items, Build(page, size, "name", Asc), cityField)
				if err != nil {
					t.Fatalf("paginate: %v", err)
				}
				want := 0
				if page*size < total {
					want = min(size, total-page*size)
				}
				if len(res.Data) != want {
					t.Fatalf("total=%d size=%d page=%d: len %d, want %d", total, size, page, len(res.Data), want)
				}
				if err := res.Validate(); err != nil {
					t.Fatalf("validate: %v", err)
				}
			}
		}
	}
}

func TestPaginateIdempotent(t *testing.T) {
	items := []city{{1, "Boerne", 5}, {2, "austin", 5}, {3, "Bastrop", 5}, {4, "boston", 5}}
	q := Build(0, 3, "pop", Desc, WithFilter("name", "b"))
	a, err := Paginate(items, q, cityField)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	b, _ := Paginate(items, q, cityField)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("not idempotent:\n%s", diff)
	}
	// equal pop keeps the input order
	if diff := cmp.Diff([]string{"Boerne", "Bastrop", "boston"}, names(a.Data)); diff != "" {
		t.Fatalf("data (-want +got):\n%s", diff)
	}
	if a.FilterColumn == nil || *a.FilterColumn != "name" || *a.FilterQuery != "b" {
		t.Fatalf("filter not echoed: %+v", a)
	}
}

func TestPaginatePastTheEnd(t *testing.T) {
	items := []city{{1, "a", 1}, {2, "b", 2}, {3, "c", 3}}
	for _, idx := range []int{1, 1 << 62, math.MaxInt} {
		res, err := Paginate(items, Build(idx, 15, "name", Asc), cityField)
		if err != nil {
			t.Fatalf("pageIndex %d: %v", idx, err)
		}
		if len(res.Data) != 0 || res.TotalCount != 3 || res.TotalPages != 1 || res.PageIndex != idx {
			t.Fatalf("pageIndex %d: %+v", idx, res)
		}
		if res.HasNext() || !res.HasPrev() {
			t.Fatalf("pageIndex %d: paging flags %+v", idx, res)
		}
	}
	res, err := Paginate(items, Build(0, math.MaxInt, "name", Asc), cityField)
	if err != nil || len(res.Data) != 3 || res.TotalPages != 1 {
		t.Fatalf("huge pageSize: %+v %v", res, err)
	}
}

func TestPaginateSortsNumbersNumerically(t *testing.T) {
	items := []city{{1, "a", 100}, {2, "b", 9}, {3, "c", 20}}
	res, err := Paginate(items, Build(0, 10, "pop", Asc), cityField)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, names(res.Data)); diff != "" {
		t.Fatalf("data (-want +got):\n%s", diff)
	}
}

func TestPaginateUnknownColumn(t *testing.T) {
	items := []city{{1, "a", 1}}
	if _, err := Paginate(items, Build(0, 10, "nope", Asc), cityField); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("sort err %v", err)
	}
	if _, err := Paginate(items, Build(0, 10, "name", Asc, WithFilter("nope", "x")), cityField); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("filter err %v", err)
	}
	if _, err := Paginate(nil, Build(0, 10, "nope", Asc), cityField); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("empty err %v", err)
	}
}

func TestResultValidate(t *testing.T) {
	col := "name"
	bad := []Result[int]{
		{Data: []int{1, 2, 3}, PageSize: 2, TotalCount: 3, TotalPages: 2},
		{Data: nil, PageSize: 2, TotalCount: 3, TotalPages: 1},
		{Data: nil, PageSize: 0},
		{Data: nil, PageSize: 2, FilterColumn: &col},
	}
	for i, r := range bad {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	r := NewResult([]int{1}, Build(1, 2, "name", Asc), 3)
	if !r.HasPrev() || r.HasNext() {
		t.Fatalf("paging flags %+v", r)
	}
	if diff := cmp.Diff(Build(1, 2, "name", Asc), r.Query()); diff != "" {
		t.Fatalf("query (-want +got):\n%s", diff)
	}
}
