// Package session holds the signed-in identity and answers capability
// checks for route guards and table schemas.
package session

import (
	"slices"
	"time"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Identity is an immutable snapshot of the signed-in user.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Roles        []string  `json:"roles"`
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"tokenExpiry"`
}

// HasRole reports whether role is in the identity's role set.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IsAdministrator reports whether the identity has the Administrator role.
func (i Identity) IsAdministrator() bool { return i.HasRole(sdk.RoleAdministrator) }

// Expired reports whether the token is past its expiry at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.TokenExpiry.IsZero() && !now.Before(i.TokenExpiry)
}

func (i Identity) clone() Identity {
	i.Roles = slices.Clone(i.Roles)
	return i
}

// identityFrom builds an identity from a login or refresh result. The token
// expiry comes from the token itself and falls back to the result.
func identityFrom(res sdk.LoginResult) Identity {
	id := Identity{
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
		TokenExpiry:  res.ExpiresAt,
	}
	if res.User != nil {
		id.ID = res.User.ID
		id.Name = res.User.Name
		id.Email = res.User.Email
		id.Roles = slices.Clone(res.User.Roles)
	}
	if c, err := ParseClaims(res.Token); err == nil {
		if !c.Expiry.IsZero() {
			id.TokenExpiry = c.Expiry
		}
		if id.ID == "" {
			id.ID = c.Subject
		}
		if id.Name == "" {
			id.Name = c.Name
		}
		if id.Email == "" {
			id.Email = c.Email
		}
		if len(id.Roles) == 0 {
			id.Roles = c.Roles
		}
	}
	return id
}
