// Package listview drives one paginated, sortable and filterable list of
// records. A Controller owns the current query and the last rendered page,
// turns paging, sort and filter events into queries, and publishes immutable
// View snapshots.
package listview

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jlvsolutions/WorldCities-sub000/internal/notify"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
)

// Status is the controller state.
type Status int

const (
	Loading Status = iota
	Idle
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Idle:
		return "idle"
	case Error:
		return "error"
	}
	return "unknown"
}

// Fetcher loads one page for q. It is the only entity-specific piece a
// controller needs.
type Fetcher[T any] func(ctx context.Context, q listquery.Query) (listquery.Result[T], error)

// View is a snapshot of the controller. Result always holds the last page
// that loaded successfully, also while Loading or after an Error.
type View[T any] struct {
	Status Status
	Query  listquery.Query
	Result listquery.Result[T]
	Err    error
}

// Options configures a Controller.
type Options[T any] struct {
	// Query is the initial query. The zero value means listquery.Default().
	Query listquery.Query
	// Debounce is the filter text quiet period. Zero means DefaultDebounce.
	Debounce time.Duration
	// FilterColumn is the column FilterTextChange filters on. Empty means
	// the initial query's sort column.
	FilterColumn string
	Reporter     notify.Reporter
	Logger       *zap.SugaredLogger
	// OnChange receives every new View in mutation order. It runs on the
	// goroutine that caused the change and must not call back into the
	// controller.
	OnChange func(View[T])
}

// ErrDestroyed is returned by operations on a destroyed controller.
var ErrDestroyed = errors.New("list view destroyed")

// Controller is safe for concurrent use.
type Controller[T any] struct {
	fetch        Fetcher[T]
	reporter     notify.Reporter
	logger       *zap.SugaredLogger
	onChange     func(View[T])
	filterColumn string
	debounce     *Debouncer

	mu         sync.Mutex
	emitMu     sync.Mutex
	view       View[T]
	seq        uint64
	cancel     context.CancelFunc
	lastFilter string
	destroyed  bool
	wg         sync.WaitGroup
}

// New builds a controller and issues the initial request.
func New[T any](fetch Fetcher[T], opts Options[T]) *Controller[T] {
	q := opts.Query
	if q.PageSize == 0 && q.SortColumn == "" {
		q = listquery.Default()
	}
	q = q.Normalize()
	c := &Controller[T]{
		fetch:        fetch,
		reporter:     opts.Reporter,
		logger:       opts.Logger,
		onChange:     opts.OnChange,
		filterColumn: opts.FilterColumn,
		debounce:     NewDebouncer(opts.Debounce),
		lastFilter:   q.FilterQuery(),
	}
	if c.reporter == nil {
		c.reporter = notify.Nop
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	if c.filterColumn == "" {
		c.filterColumn = q.SortColumn
	}
	c.view.Result = listquery.NewResult[T](nil, q, 0)
	c.mu.Lock()
	c.issueLocked(q)
	return c
}

// View returns the current snapshot.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// PageChange replaces the paging fields and re-issues immediately.
func (c *Controller[T]) PageChange(pageIndex, pageSize int) error {
	return c.update(func(q listquery.Query) listquery.Query {
		return q.WithPage(pageIndex, pageSize)
	})
}

// SortChange replaces the sort fields and re-issues immediately.
func (c *Controller[T]) SortChange(column string, order listquery.SortOrder) error {
	return c.update(func(q listquery.Query) listquery.Query {
		return q.WithSort(column, order)
	})
}

// Reload re-issues the current query.
func (c *Controller[T]) Reload() error {
	return c.update(func(q listquery.Query) listquery.Query { return q })
}

// ClearFilter drops the filter and any pending filter text, resets the page
// and re-issues immediately.
func (c *Controller[T]) ClearFilter() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}
	c.debounce.Cancel()
	c.lastFilter = ""
	q := c.view.Query
	q.Filter = nil
	q.PageIndex = 0
	c.issueLocked(q)
	return nil
}

// FilterTextChange schedules a filtered query once text has been stable for
// the debounce window. Text equal to the filter already applied is ignored.
// Any applied change resets the page to 0.
func (c *Controller[T]) FilterTextChange(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	c.debounce.Schedule(func(ctx context.Context) {
		c.mu.Lock()
		if ctx.Err() != nil || c.destroyed || text == c.lastFilter {
			c.mu.Unlock()
			return
		}
		c.lastFilter = text
		c.issueLocked(c.view.Query.WithFilter(c.filterColumn, text))
	})
	return nil
}

func (c *Controller[T]) update(fn func(listquery.Query) listquery.Query) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}
	c.issueLocked(fn(c.view.Query))
	return nil
}

// issueLocked starts a request for q. It must be called with c.mu held and
// releases it.
func (c *Controller[T]) issueLocked(q listquery.Query) {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.view.Status = Loading
	c.view.Query = q
	c.view.Err = nil
	c.wg.Add(1)
	go c.run(ctx, seq, q)
	c.emitLocked(c.view, nil)
}

func (c *Controller[T]) run(ctx context.Context, seq uint64, q listquery.Query) {
	defer c.wg.Done()
	res, err := c.fetch(ctx, q)
	c.mu.Lock()
	if c.destroyed || seq != c.seq {
		c.mu.Unlock()
		c.logger.Debugw("discarding stale list response", "seq", seq, "err", err)
		return
	}
	c.cancel()
	c.cancel = nil
	if err != nil {
		c.view.Status = Error
		c.view.Err = err
		c.logger.Debugw("list fetch failed", "query", q.Values().Encode(), "err", err)
		c.emitLocked(c.view, err)
		return
	}
	if res.Data == nil {
		res.Data = []T{}
	}
	c.view.Status = Idle
	c.view.Result = res
	c.emitLocked(c.view, nil)
}

// emitLocked hands v to the listeners. It is called with c.mu held and
// releases it after taking the emit lock, so listeners see views in
// mutation order.
func (c *Controller[T]) emitLocked(v View[T], err error) {
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()
	if err != nil {
		c.reporter.Report(context.Background(), notify.FromError(err))
	}
	if c.onChange != nil {
		c.onChange(v)
	}
}

// Destroy cancels the in-flight request and any pending filter text. Once
// it returns no listener is called again. It is idempotent.
func (c *Controller[T]) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.debounce.Cancel()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	// wait for a listener that is already running
	c.emitMu.Lock()
	c.emitMu.Unlock()
}

// Wait blocks until every request goroutine has returned.
func (c *Controller[T]) Wait() {
	c.wg.Wait()
}
