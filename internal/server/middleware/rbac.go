package middleware

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
)

// Subjects every request is checked as, besides the caller's own roles.
const (
	Anonymous     = "anonymous"
	Authenticated = "authenticated"
)

// RBAC enforces access where any of the caller's subjects is allowed.
// Anonymous callers that are denied get 401, signed in callers 403.
func RBAC(api huma.API, enf *casbin.Enforcer) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, _ := humachi.Unwrap(ctx)
		obj := r.URL.Path
		act := r.Method

		sub := UserFromContext(r.Context())
		subjects := []string{Anonymous}
		if sub != "" {
			subjects = append(RolesFromContext(r.Context()), Authenticated)
		}

		for _, s := range subjects {
			if ok, _ := enf.Enforce(s, obj, act); ok {
				next(ctx)
				return
			}
		}
		if sub == "" {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "You must be logged in to access this resource.")
			return
		}
		_ = huma.WriteErr(api, ctx, http.StatusForbidden, "You are not authorized to access this resource.")
	}
}
