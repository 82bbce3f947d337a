package main

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
	"github.com/jlvsolutions/WorldCities-sub000/sdk/client"
)

// page is one list result with the records behind the Record interface.
type page = listquery.Result[sdk.Record]

// entityOps is the CRUD surface of one collection with the record type
// erased, so commands can pick the entity at run time.
type entityOps interface {
	Entity() sdk.Entity
	List(ctx context.Context, q listquery.Query) (page, error)
	Get(ctx context.Context, id string) (sdk.Record, error)
	Create(ctx context.Context, raw []byte) (sdk.Record, error)
	Update(ctx context.Context, id string, raw []byte) (sdk.Record, error)
	Delete(ctx context.Context, id string) error
}

type ops[T sdk.Record] struct {
	es *client.Entities[T]
}

func opsFor(c *client.Client, e sdk.Entity) entityOps {
	switch e {
	case sdk.Cities:
		return ops[sdk.City]{c.Cities()}
	case sdk.Countries:
		return ops[sdk.Country]{c.Countries()}
	case sdk.AdminRegions:
		return ops[sdk.AdminRegion]{c.AdminRegions()}
	case sdk.Users:
		return ops[sdk.User]{c.Users()}
	}
	return nil
}

func erase[T sdk.Record](r listquery.Result[T]) page {
	out := page{
		Data:         make([]sdk.Record, len(r.Data)),
		PageIndex:    r.PageIndex,
		PageSize:     r.PageSize,
		TotalCount:   r.TotalCount,
		TotalPages:   r.TotalPages,
		SortColumn:   r.SortColumn,
		SortOrder:    r.SortOrder,
		FilterColumn: r.FilterColumn,
		FilterQuery:  r.FilterQuery,
	}
	for i, rec := range r.Data {
		out.Data[i] = rec
	}
	return out
}

func (o ops[T]) Entity() sdk.Entity { return o.es.Entity() }

func (o ops[T]) List(ctx context.Context, q listquery.Query) (page, error) {
	res, err := o.es.List(ctx, q)
	if err != nil {
		return page{}, err
	}
	return erase(res), nil
}

// children lists a sub-resource of the record id, e.g. the cities of a
// country.
func children(ctx context.Context, c *client.Client, parent sdk.Entity, id string, child sdk.Entity, q listquery.Query) (page, error) {
	listquery.WithSubResource(string(child), id)(&q)
	switch child {
	case sdk.Cities:
		res, err := client.List[sdk.City](ctx, c, parent.Endpoint(), q)
		return erase(res), err
	case sdk.AdminRegions:
		res, err := client.List[sdk.AdminRegion](ctx, c, parent.Endpoint(), q)
		return erase(res), err
	}
	return page{}, fmt.Errorf("%s have no %s", parent, child)
}

func (o ops[T]) Get(ctx context.Context, id string) (sdk.Record, error) {
	return stored[T](o.es.Get(ctx, id))
}

func stored[T sdk.Record](rec T, err error) (sdk.Record, error) {
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (o ops[T]) duplicate() error {
	return sdk.Errorf(sdk.ErrDuplicate, "A %s with the same values already exists.", strings.ToLower(o.Entity().Singular()))
}

// Create decodes raw (YAML or JSON) and posts it after the duplicate check.
func (o ops[T]) Create(ctx context.Context, raw []byte) (sdk.Record, error) {
	var rec T
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", o.Entity().Singular(), err)
	}
	dupe, err := o.es.IsDupe(ctx, rec)
	if err != nil {
		return nil, err
	}
	if dupe {
		return nil, o.duplicate()
	}
	return stored[T](o.es.Create(ctx, rec))
}

// Update applies raw over the stored record, so only changed fields need
// to be given, and puts the result after the duplicate check.
func (o ops[T]) Update(ctx context.Context, id string, raw []byte) (sdk.Record, error) {
	rec, err := o.es.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", o.Entity().Singular(), err)
	}
	if rec.Key() != id {
		return nil, fmt.Errorf("the record id %s does not match %s", rec.Key(), id)
	}
	dupe, err := o.es.IsDupe(ctx, rec)
	if err != nil {
		return nil, err
	}
	if dupe {
		return nil, o.duplicate()
	}
	return stored[T](o.es.Update(ctx, id, rec))
}

func (o ops[T]) Delete(ctx context.Context, id string) error {
	return o.es.Delete(ctx, id)
}
