package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// JWT handles token generation and validation.
type JWT struct {
	secret []byte
	exp    time.Duration
	now    func() time.Time
}

// Claims represents the JWT claims used by this service. Name, email and
// roles are carried so clients can render without another round trip.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// NewJWT returns a new JWT handler.
func NewJWT(secret string, exp time.Duration) *JWT {
	return &JWT{secret: []byte(secret), exp: exp, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (j *JWT) TTL() time.Duration { return j.exp }

// Generate creates a signed token for u and returns its expiry.
func (j *JWT) Generate(u sdk.User) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.exp)
	claims := Claims{
		Name:  u.Name,
		Email: u.Email,
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp.Truncate(time.Second), nil
}

// Validate parses and validates the token returning its claims.
func (j *JWT) Validate(tok string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
