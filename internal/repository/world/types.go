// Package worldrepo keeps the world cities dataset served by the reference
// API. Records live in memory behind a single RWMutex; derived columns
// (country names, totals) are computed on read.
package worldrepo

import (
	"context"
	"errors"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Repo is the CRUD surface of one collection.
type Repo[T sdk.Record] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, rec T) (T, error)
	Delete(ctx context.Context, id string) error
	// IsDupe reports whether rec collides with a record other than itself.
	IsDupe(ctx context.Context, rec T) (bool, error)
}

// ErrBadCredentials is returned by Authenticate for an unknown email or a
// wrong password.
var ErrBadCredentials = errors.New("invalid email or password")
