package middleware

import (
	"context"
	"slices"
)

// ctxKey is used for storing values in request context.
type ctxKey string

const (
	userKey   ctxKey = "user"
	rolesKey  ctxKey = "roles"
	claimsKey ctxKey = "claims"
)

// ClaimsKey returns the context key used to store JWT claims.
func ClaimsKey() any { return claimsKey }

// WithUser stores the authenticated subject and its roles.
func WithUser(ctx context.Context, sub string, roles []string) context.Context {
	ctx = context.WithValue(ctx, userKey, sub)
	return context.WithValue(ctx, rolesKey, slices.Clone(roles))
}

// UserFromContext returns the user subject stored in the context, or "" for
// anonymous requests.
func UserFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userKey).(string); ok {
		return v
	}
	return ""
}

// RolesFromContext returns the roles of the authenticated subject.
func RolesFromContext(ctx context.Context) []string {
	if v, ok := ctx.Value(rolesKey).([]string); ok {
		return slices.Clone(v)
	}
	return nil
}

// HasRole reports whether the request was made by a subject holding role.
func HasRole(ctx context.Context, role string) bool {
	v, _ := ctx.Value(rolesKey).([]string)
	return slices.Contains(v, role)
}
