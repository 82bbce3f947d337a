package listview

import (
	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
)

// State is the serializable part of a controller, kept while its view is
// detached and handed back through Restore.
type State struct {
	Query listquery.Query `json:"query"`
}

// Snapshot returns the current query state.
func (c *Controller[T]) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Query: c.view.Query}
}

// Restore replaces the query with s and re-issues it. Pending filter text
// is dropped.
func (c *Controller[T]) Restore(s State) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}
	c.debounce.Cancel()
	q := s.Query.Normalize()
	c.lastFilter = q.FilterQuery()
	c.issueLocked(q)
	return nil
}
