package huma

import (
	"context"
	"errors"
	"net/http"

	base "github.com/danielgtaylor/huma/v2"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

type (
	API         = base.API
	Operation   = base.Operation
	StatusError = base.StatusError
	ErrorDetail = base.ErrorDetail
)

var (
	Error400BadRequest   = base.Error400BadRequest
	Error401Unauthorized = base.Error401Unauthorized
	Error404NotFound     = base.Error404NotFound
	Error409Conflict     = base.Error409Conflict
	NewError             = base.NewError
)

// Register wraps huma.Register to expose through this package.
func Register[I, O any](api API, op Operation, handler func(context.Context, *I) (*O, error)) {
	base.Register[I, O](api, op, handler)
}

// Error422 returns a 422 status error with field location information.
func Error422(field, msg string) StatusError {
	return base.NewError(http.StatusUnprocessableEntity, msg, &ErrorDetail{Location: field, Message: msg})
}

// FromError maps repository and query errors to status errors carrying the
// error text as detail. Unknown errors pass through and become a 500.
func FromError(err error) error {
	var se StatusError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return err
	case errors.Is(err, sdk.ErrNotFound):
		return base.Error404NotFound(err.Error())
	case errors.Is(err, sdk.ErrDuplicate), errors.Is(err, sdk.ErrInUse):
		return base.Error409Conflict(err.Error())
	case errors.Is(err, sdk.ErrInvalid),
		errors.Is(err, listquery.ErrInvalidQuery),
		errors.Is(err, listquery.ErrUnknownColumn):
		return base.Error400BadRequest(err.Error())
	}
	return err
}
