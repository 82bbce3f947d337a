package auth

import (
	"context"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Users is the account store the handlers authenticate against.
type Users interface {
	Authenticate(ctx context.Context, email, password string) (sdk.User, error)
	UserByID(ctx context.Context, id string) (sdk.User, error)
	Register(ctx context.Context, req sdk.RegisterRequest) (sdk.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}
