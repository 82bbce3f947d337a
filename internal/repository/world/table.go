package worldrepo

import (
	"slices"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// table keeps records by key in insertion order.
type table[T sdk.Record] struct {
	rows  map[string]T
	order []string
}

func newTable[T sdk.Record]() *table[T] {
	return &table[T]{rows: map[string]T{}}
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k])
	}
	return out
}

func (t *table[T]) get(key string) (T, bool) {
	r, ok := t.rows[key]
	return r, ok
}

func (t *table[T]) put(rec T) {
	k := rec.Key()
	if _, ok := t.rows[k]; !ok {
		t.order = append(t.order, k)
	}
	t.rows[k] = rec
}

func (t *table[T]) remove(key string) bool {
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	t.order = slices.DeleteFunc(t.order, func(k string) bool { return k == key })
	return true
}

func (t *table[T]) len() int { return len(t.order) }

func (t *table[T]) count(pred func(T) bool) int {
	n := 0
	for _, r := range t.rows {
		if pred(r) {
			n++
		}
	}
	return n
}

func (t *table[T]) any(pred func(T) bool) bool {
	for _, r := range t.rows {
		if pred(r) {
			return true
		}
	}
	return false
}
