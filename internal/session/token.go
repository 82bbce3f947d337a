package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned for tokens without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// Claims are the token fields the front end reads. The signature is not
// verified; the API does that on every call.
type Claims struct {
	Subject string
	Name    string
	Email   string
	Roles   []string
	Expiry  time.Time
}

type tokenClaims struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token without verifying it.
func ParseClaims(token string) (Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	c := Claims{Subject: tc.Subject, Name: tc.Name, Email: tc.Email, Roles: tc.Roles}
	if tc.ExpiresAt != nil {
		c.Expiry = tc.ExpiresAt.Time
	}
	return c, nil
}

// Expiry returns the exp claim of token.
func Expiry(token string) (time.Time, error) {
	c, err := ParseClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	if c.Expiry.IsZero() {
		return time.Time{}, ErrNoExpiry
	}
	return c.Expiry, nil
}
