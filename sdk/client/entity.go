package client

import (
	"context"
	"net/url"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// List sends q to the list endpoint rooted at endpoint and decodes one page.
// It performs exactly one round trip and never retries.
func List[T any](ctx context.Context, c *Client, endpoint string, q listquery.Query) (listquery.Result[T], error) {
	var out listquery.Result[T]
	resp, err := c.r(ctx).
		SetQueryParamsFromValues(q.Values()).
		SetResult(&out).
		Get(c.url(q.Path(endpoint)))
	if err := check(resp, err); err != nil {
		return listquery.Result[T]{}, err
	}
	if out.Data == nil {
		out.Data = []T{}
	}
	return out, nil
}

// Entities is the CRUD surface of one collection.
type Entities[T any] struct {
	c      *Client
	entity sdk.Entity
}

// NewEntities binds a collection to c.
func NewEntities[T any](c *Client, e sdk.Entity) *Entities[T] {
	return &Entities[T]{c: c, entity: e}
}

func (c *Client) Cities() *Entities[sdk.City] { return NewEntities[sdk.City](c, sdk.Cities) }

func (c *Client) Countries() *Entities[sdk.Country] {
	return NewEntities[sdk.Country](c, sdk.Countries)
}

func (c *Client) AdminRegions() *Entities[sdk.AdminRegion] {
	return NewEntities[sdk.AdminRegion](c, sdk.AdminRegions)
}

func (c *Client) Users() *Entities[sdk.User] { return NewEntities[sdk.User](c, sdk.Users) }

// Entity returns the collection name.
func (e *Entities[T]) Entity() sdk.Entity { return e.entity }

func (e *Entities[T]) item(id string) string {
	return e.c.url(e.entity.Endpoint() + "/" + url.PathEscape(id))
}

// List fetches one page of the collection.
func (e *Entities[T]) List(ctx context.Context, q listquery.Query) (listquery.Result[T], error) {
	return List[T](ctx, e.c, e.entity.Endpoint(), q)
}

// Get fetches one record.
func (e *Entities[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	resp, err := e.c.r(ctx).SetResult(&out).Get(e.item(id))
	if err := check(resp, err); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Create posts a new record and returns it as stored.
func (e *Entities[T]) Create(ctx context.Context, rec T) (T, error) {
	var out T
	resp, err := e.c.r(ctx).SetBody(rec).SetResult(&out).Post(e.c.url(e.entity.Endpoint()))
	if err := check(resp, err); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Update replaces the record id and returns it as stored.
func (e *Entities[T]) Update(ctx context.Context, id string, rec T) (T, error) {
	var out T
	resp, err := e.c.r(ctx).SetBody(rec).SetResult(&out).Put(e.item(id))
	if err := check(resp, err); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Delete removes the record id.
func (e *Entities[T]) Delete(ctx context.Context, id string) error {
	resp, err := e.c.r(ctx).Delete(e.item(id))
	return check(resp, err)
}

// IsDupe asks the server whether rec collides with another record.
func (e *Entities[T]) IsDupe(ctx context.Context, rec T) (bool, error) {
	var dupe bool
	resp, err := e.c.r(ctx).SetBody(rec).SetResult(&dupe).Post(e.c.url(e.entity.DupePath()))
	if err := check(resp, err); err != nil {
		return false, err
	}
	return dupe, nil
}
