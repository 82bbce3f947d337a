// Package viewcache keeps the state of list views the user navigated away
// from, so returning to the route restores paging, sort and filter.
package viewcache

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 16
	DefaultTTL  = 30 * time.Minute
)

// Options configures a Cache.
type Options struct {
	Size int
	// TTL drops detached state nobody came back for. Zero means DefaultTTL.
	TTL time.Duration
	// ShouldDetach selects the routes whose state is kept. Nil keeps all.
	ShouldDetach func(route string) bool
	// OnDestroy runs whenever state leaves the cache: eviction, expiry,
	// Remove or Purge.
	OnDestroy func(route string, state []byte)
}

// Cache maps route keys to serialized view state.
type Cache struct {
	lru    *expirable.LRU[string, []byte]
	detach func(string) bool
}

func New(opts Options) *Cache {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	var onEvict expirable.EvictCallback[string, []byte]
	if opts.OnDestroy != nil {
		onEvict = func(k string, v []byte) { opts.OnDestroy(k, v) }
	}
	return &Cache{
		lru:    expirable.NewLRU[string, []byte](opts.Size, onEvict, opts.TTL),
		detach: opts.ShouldDetach,
	}
}

// Key reduces a route to its cache key: the path without query or
// fragment, without a trailing slash, lower case.
func Key(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}
	return strings.ToLower(route)
}

// ShouldDetach reports whether leaving route keeps its state.
func (c *Cache) ShouldDetach(route string) bool {
	return c.detach == nil || c.detach(Key(route))
}

// Store serializes state under route. Routes ShouldDetach rejects are
// ignored.
func (c *Cache) Store(route string, state any) error {
	if !c.ShouldDetach(route) {
		return nil
	}
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	c.lru.Add(Key(route), b)
	return nil
}

// Retrieve decodes the state stored under route into dst.
func (c *Cache) Retrieve(route string, dst any) (bool, error) {
	b, ok := c.lru.Get(Key(route))
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops the state of route.
func (c *Cache) Remove(route string) bool {
	return c.lru.Remove(Key(route))
}

// Purge drops every state, e.g. after logout.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of stored states.
func (c *Cache) Len() int { return c.lru.Len() }

// Routes lists the stored route keys from oldest to newest.
func (c *Cache) Routes() []string { return c.lru.Keys() }
