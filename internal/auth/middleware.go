package auth

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	sm "github.com/jlvsolutions/WorldCities-sub000/internal/server/middleware"
)

// Middleware validates bearer tokens and stores the subject, roles and
// claims in context. Requests without a valid bearer token continue as
// anonymous, so a stale token still reaches the public refresh endpoint.
func Middleware(j *JWT) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)
		authHdr := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHdr, "Bearer ") {
			next(ctx)
			return
		}
		token := strings.TrimPrefix(authHdr, "Bearer ")
		claims, err := j.Validate(token)
		if err != nil {
			next(ctx)
			return
		}
		c := sm.WithUser(r.Context(), claims.Subject, claims.Roles)
		c = context.WithValue(c, sm.ClaimsKey(), claims)
		r = r.WithContext(c)
		next(humachi.NewContext(ctx.Operation(), r, w))
	}
}

// UserFromContext returns the user subject stored in the context.
func UserFromContext(ctx context.Context) string { return sm.UserFromContext(ctx) }

// ClaimsFromContext returns the JWT claims stored in context, if any.
func ClaimsFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(sm.ClaimsKey()).(*Claims); ok {
		return c
	}
	return nil
}
