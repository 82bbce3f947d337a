package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/jlvsolutions/WorldCities-sub000/internal/guard"
	"github.com/jlvsolutions/WorldCities-sub000/internal/listview"
	"github.com/jlvsolutions/WorldCities-sub000/internal/notify"
	"github.com/jlvsolutions/WorldCities-sub000/internal/schema"
	"github.com/jlvsolutions/WorldCities-sub000/internal/session"
	"github.com/jlvsolutions/WorldCities-sub000/internal/viewcache"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

const browseHelp = `Commands:
  n, p                 next or previous page
  size <n>             rows per page
  s <column> [asc|desc] sort
  f <text>             filter on the name column
  c                    clear the filter
  r                    reload
  open <row> [column]  follow the link of a row (default column: name)
  delete <row>         delete a row
  go <route>           open a route, e.g. /countries/3/cities
  back                 previous route
  help, q`

type routeKind int

const (
	homeRoute routeKind = iota
	listRoute
	childRoute
	recordRoute
	newRoute
	pageRoute
)

// target is a parsed route.
type target struct {
	kind   routeKind
	entity sdk.Entity
	parent sdk.Entity
	id     string
	name   string
}

func parseRoute(route string) (target, error) {
	path := route
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return target{kind: homeRoute}, nil
	}
	seg := strings.Split(path, "/")
	switch len(seg) {
	case 1:
		switch seg[0] {
		case "profile", "login", "register":
			return target{kind: pageRoute, name: seg[0]}, nil
		}
		e, err := sdk.ParseEntity(seg[0])
		if err != nil {
			return target{}, err
		}
		if strings.EqualFold(seg[0], string(e)) {
			return target{kind: listRoute, entity: e}, nil
		}
		return target{kind: newRoute, entity: e}, nil
	case 2:
		e, err := sdk.ParseEntity(seg[0])
		if err != nil {
			return target{}, err
		}
		return target{kind: recordRoute, entity: e, id: seg[1]}, nil
	case 3:
		p, err := sdk.ParseEntity(seg[0])
		if err != nil {
			return target{}, err
		}
		c, err := sdk.ParseEntity(seg[2])
		if err != nil {
			return target{}, err
		}
		return target{kind: childRoute, parent: p, id: seg[1], entity: c}, nil
	}
	return target{}, fmt.Errorf("unknown route %q", route)
}

// browser is an interactive session over the list views. Routes follow the
// web front end: list views detach into a view cache when left and are
// restored on return.
type browser struct {
	a     *app
	ctx   context.Context
	out   io.Writer
	guard *guard.Guard
	cache *viewcache.Cache

	// printMu serializes output. It is never held while calling into the
	// list controller.
	printMu sync.Mutex

	mu     sync.Mutex
	entity sdk.Entity
	table  schema.Table
	rows   []sdk.Record

	route   string
	history []string
	list    *listview.Controller[sdk.Record]
	recheck atomic.Bool
}

func newBrowseCmd() *cobra.Command {
	var (
		cacheSize int
		cacheTTL  time.Duration
		debounce  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "browse [route]",
		Short: "Page, sort and filter the dataset interactively",
		Long: "browse opens a route such as /cities or /countries/3/cities and reads\n" +
			"commands from stdin. Type help for the list of commands.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			g, err := guard.New(a.gate)
			if err != nil {
				return err
			}
			b := &browser{
				a:     a,
				ctx:   cmd.Context(),
				out:   cmd.OutOrStdout(),
				guard: g,
			}
			b.cache = viewcache.New(viewcache.Options{
				Size: cacheSize,
				TTL:  cacheTTL,
				ShouldDetach: func(route string) bool {
					t, err := parseRoute(route)
					return err == nil && (t.kind == listRoute || t.kind == childRoute)
				},
				OnDestroy: func(route string, _ []byte) {
					a.logger.Debugw("view state dropped", "route", route)
				},
			})
			unsub := a.gate.Subscribe(b.sessionChanged)
			defer unsub()
			if a.persisted {
				stop, err := session.NewWatcher(a.gate, a.store, 0, a.logger).Start(cmd.Context())
				if err != nil {
					a.logger.Warnw("profile watch disabled", "err", err)
				} else {
					defer stop()
				}
			}

			start := sdk.Cities.Route()
			if len(args) == 1 {
				start = args[0]
			}
			b.navigate(start, true, debounce)
			b.loop(cmd.InOrStdin(), debounce)
			b.leave()
			return nil
		},
	}
	cmd.Flags().IntVar(&cacheSize, "cache-size", viewcache.DefaultSize, "Number of list views kept when left")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", viewcache.DefaultTTL, "How long a left list view is kept")
	cmd.Flags().DurationVar(&debounce, "debounce", listview.DefaultDebounce, "Quiet period before filter text is applied")
	return cmd
}

func (b *browser) printf(format string, args ...any) {
	b.printMu.Lock()
	defer b.printMu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

func (b *browser) report(typ notify.Type, text string) {
	b.a.reporter.Report(b.ctx, notify.Message{Type: typ, Text: text})
}

// sessionChanged runs on the gate's goroutine: it re-resolves the table and
// leaves the route check to the input loop.
func (b *browser) sessionChanged(id session.Identity, ok bool) {
	caps := schema.Capabilities{}
	if ok && id.Token != "" {
		caps = schema.Capabilities{IsLoggedIn: true, IsAdministrator: id.IsAdministrator()}
	}
	b.mu.Lock()
	if d, found := schema.For(b.entity); found {
		b.table = schema.Resolve(d, caps)
	}
	b.mu.Unlock()
	if !ok {
		b.cache.Purge()
	}
	b.recheck.Store(true)
}

func (b *browser) render(v listview.View[sdk.Record]) {
	if v.Status != listview.Idle {
		return
	}
	b.mu.Lock()
	t := b.table
	b.rows = v.Result.Data
	b.mu.Unlock()

	b.printMu.Lock()
	defer b.printMu.Unlock()
	renderPage(b.out, t, v.Result, true)
}

// leave detaches the current list view.
func (b *browser) leave() {
	if b.list == nil {
		return
	}
	if err := b.cache.Store(b.route, b.list.Snapshot()); err != nil {
		b.a.logger.Warnw("keep view state", "route", b.route, "err", err)
	}
	b.list.Destroy()
	b.list.Wait()
	b.list = nil
	b.mu.Lock()
	b.rows = nil
	b.mu.Unlock()
}

// navigate opens route if the guard allows it. A denied route leaves the
// current view in place.
func (b *browser) navigate(route string, push bool, debounce time.Duration) {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	t, err := parseRoute(route)
	if err != nil {
		b.report(notify.Error, err.Error())
		return
	}
	if d := b.guard.Check(route); !d.Allowed {
		b.printf("%s is not available to you, see %s\n", route, d.Redirect)
		if !b.a.gate.IsAuthenticated() {
			b.printf("Log in with: worldctl login\n")
		}
		return
	}
	b.leave()
	if push && b.route != "" {
		b.history = append(b.history, b.route)
	}
	b.route = route
	b.mu.Lock()
	b.entity = t.entity
	if d, ok := schema.For(t.entity); ok {
		b.table = schema.Resolve(d, b.a.gate.Capabilities())
	}
	b.mu.Unlock()

	switch t.kind {
	case homeRoute:
		b.home()
	case pageRoute:
		b.page(t.name)
	case newRoute:
		b.printf("Create a %s with: worldctl create %s -f <file>\n", strings.ToLower(t.entity.Singular()), strings.ToLower(t.entity.Singular()))
	case recordRoute:
		b.record(t)
	case listRoute, childRoute:
		b.open(t, debounce)
	}
}

func (b *browser) home() {
	var lines []string
	for _, e := range sdk.Entities {
		if b.guard.Allowed(e.Route()) {
			lines = append(lines, "  "+e.Route())
		}
	}
	b.printf("World Cities\n%s\n", strings.Join(lines, "\n"))
}

func (b *browser) page(name string) {
	switch name {
	case "profile":
		id, _ := b.a.gate.Current()
		b.printf("%s <%s>, roles: %s\n", id.Name, id.Email, strings.Join(id.Roles, ", "))
	case "login":
		b.printf("Log in with: worldctl login\n")
	case "register":
		b.printf("Register with: worldctl register\n")
	}
}

func (b *browser) record(t target) {
	rec, err := opsFor(b.a.client, t.entity).Get(b.ctx, t.id)
	if err != nil {
		b.a.reporter.Report(b.ctx, notify.FromError(err))
		return
	}
	b.mu.Lock()
	tbl := b.table
	b.mu.Unlock()
	b.printMu.Lock()
	defer b.printMu.Unlock()
	renderRecord(b.out, tbl, rec)
}

func (b *browser) open(t target, debounce time.Duration) {
	var fetch listview.Fetcher[sdk.Record]
	if t.kind == childRoute {
		fetch = func(ctx context.Context, q listquery.Query) (page, error) {
			return children(ctx, b.a.client, t.parent, t.id, t.entity, q)
		}
	} else {
		fetch = opsFor(b.a.client, t.entity).List
	}
	var st listview.State
	if ok, err := b.cache.Retrieve(b.route, &st); err != nil || !ok {
		st = listview.State{Query: listquery.Default()}
	}
	b.list = listview.New(fetch, listview.Options[sdk.Record]{
		Query:        st.Query,
		Debounce:     debounce,
		FilterColumn: listquery.DefaultSortColumn,
		Reporter:     b.a.reporter,
		Logger:       b.a.logger,
		OnChange:     b.render,
	})
}

func (b *browser) loop(in io.Reader, debounce time.Duration) {
	r := bufio.NewReader(in)
	for {
		if b.recheck.Swap(false) {
			if d := b.guard.Check(b.route); !d.Allowed {
				b.printf("Your session no longer allows %s, see %s\n", b.route, d.Redirect)
				b.navigate("/", true, debounce)
			}
		}
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if quit := b.exec(strings.TrimSpace(line), debounce); quit {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				b.a.logger.Warnw("read command", "err", err)
			}
			return
		}
	}
}

func (b *browser) row(arg string) (sdk.Record, bool) {
	n, err := strconv.Atoi(arg)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil || n < 1 || n > len(b.rows) {
		return nil, false
	}
	return b.rows[n-1], true
}

// exec runs one command and reports whether the session should end.
func (b *browser) exec(line string, debounce time.Duration) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "q", "quit", "exit":
		return true
	case "help", "?":
		b.printf("%s\n", browseHelp)
		return false
	case "go":
		if rest == "" {
			b.report(notify.Error, "go needs a route")
			return false
		}
		b.navigate(rest, true, debounce)
		return false
	case "back":
		if len(b.history) == 0 {
			return false
		}
		prev := b.history[len(b.history)-1]
		b.history = b.history[:len(b.history)-1]
		b.navigate(prev, false, debounce)
		return false
	}

	if b.list == nil {
		b.report(notify.Error, "There is no list on this route.")
		return false
	}
	b.mu.Lock()
	t := b.table
	b.mu.Unlock()
	v := b.list.View()

	var err error
	switch cmd {
	case "n", "next":
		if !v.Result.HasNext() {
			b.report(notify.Info, "This is the last page.")
			return false
		}
		err = b.list.PageChange(v.Query.PageIndex+1, v.Query.PageSize)
	case "p", "prev":
		if !v.Result.HasPrev() {
			b.report(notify.Info, "This is the first page.")
			return false
		}
		err = b.list.PageChange(v.Query.PageIndex-1, v.Query.PageSize)
	case "size":
		n, convErr := strconv.Atoi(rest)
		if convErr != nil || n < 1 {
			b.report(notify.Error, "size needs a positive number")
			return false
		}
		err = b.list.PageChange(0, n)
	case "s", "sort":
		if len(args) == 0 || !t.Sortable(args[0]) {
			b.report(notify.Error, "Sort on one of the columns shown in parentheses.")
			return false
		}
		order := listquery.Asc
		switch {
		case len(args) > 1:
			order = listquery.ParseSortOrder(args[1])
		case args[0] == v.Query.SortColumn && v.Query.SortOrder == listquery.Asc:
			order = listquery.Desc
		}
		err = b.list.SortChange(args[0], order)
	case "f", "filter":
		err = b.list.FilterTextChange(rest)
	case "c", "clear":
		err = b.list.ClearFilter()
	case "r", "reload":
		err = b.list.Reload()
	case "open":
		b.follow(t, args, debounce)
	case "delete":
		b.remove(t, args)
	default:
		b.report(notify.Error, "Unknown command "+cmd+", type help.")
	}
	if err != nil {
		b.a.logger.Debugw("list command", "cmd", cmd, "err", err)
	}
	return false
}

func (b *browser) follow(t schema.Table, args []string, debounce time.Duration) {
	if len(args) == 0 {
		b.report(notify.Error, "open needs a row number")
		return
	}
	rec, ok := b.row(args[0])
	if !ok {
		b.report(notify.Error, "No row "+args[0]+" on this page.")
		return
	}
	key := "name"
	if len(args) > 1 {
		key = args[1]
	}
	col, _ := t.Column(key)
	if !t.Clickable(key) {
		b.report(notify.Error, "The "+key+" column is not a link for you.")
		return
	}
	route, err := col.Target(rec)
	if err != nil || route == "" {
		b.report(notify.Error, "The "+key+" column has no link on this row.")
		return
	}
	b.navigate(route, true, debounce)
}

func (b *browser) remove(t schema.Table, args []string) {
	allowed := false
	for _, c := range t.Visible() {
		if c.Key == schema.DeleteAction {
			allowed = true
		}
	}
	if !allowed {
		b.report(notify.Error, "You are not authorized to delete records.")
		return
	}
	if len(args) == 0 {
		b.report(notify.Error, "delete needs a row number")
		return
	}
	rec, ok := b.row(args[0])
	if !ok {
		b.report(notify.Error, "No row "+args[0]+" on this page.")
		return
	}
	b.mu.Lock()
	e := b.entity
	b.mu.Unlock()
	if err := opsFor(b.a.client, e).Delete(b.ctx, rec.Key()); err != nil {
		b.a.reporter.Report(b.ctx, notify.FromError(err))
		return
	}
	b.report(notify.Info, e.Singular()+" "+rec.Key()+" has been deleted.")
	if err := b.list.Reload(); err != nil {
		b.a.logger.Debugw("list command", "cmd", "reload", "err", err)
	}
}
