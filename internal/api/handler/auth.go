package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"

	huma "github.com/jlvsolutions/WorldCities-sub000/internal/huma"
	"github.com/jlvsolutions/WorldCities-sub000/internal/server/middleware"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

type AuthHandler struct {
	Enforcer *casbin.Enforcer
}

type capsOutput struct {
	Body sdk.MeCapabilities
}

type capability struct{ Path, Method string }

// capMatrix probes one representative request per entity action.
func capMatrix() map[string]capability {
	m := map[string]capability{}
	for _, e := range sdk.Entities {
		name := strings.ToLower(string(e))
		m[name+":list"] = capability{e.Endpoint(), http.MethodGet}
		m[name+":create"] = capability{e.Endpoint(), http.MethodPost}
		m[name+":update"] = capability{e.Endpoint() + "/1", http.MethodPut}
		m[name+":delete"] = capability{e.Endpoint() + "/1", http.MethodDelete}
	}
	return m
}

func RegisterAuth(api huma.API, h *AuthHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "meCapabilities",
		Method:      http.MethodGet,
		Path:        sdk.Users.Endpoint() + "/me/capabilities",
		Summary:     "Get current user's capabilities",
		Tags:        []string{"Auth"},
	}, h.meCapabilities)
}

func (h *AuthHandler) meCapabilities(ctx context.Context, _ *struct{}) (*capsOutput, error) {
	sub := middleware.UserFromContext(ctx)
	roles := middleware.RolesFromContext(ctx)
	subjects := []string{middleware.Anonymous}
	if sub != "" {
		subjects = append(append([]string(nil), roles...), middleware.Authenticated)
	}

	caps := map[string]bool{}
	for key, v := range capMatrix() {
		allow := false
		for _, s := range subjects {
			if ok, _ := h.Enforcer.Enforce(s, v.Path, v.Method); ok {
				allow = true
				break
			}
		}
		caps[key] = allow
	}
	if roles == nil {
		roles = []string{}
	}
	return &capsOutput{Body: sdk.MeCapabilities{Subject: sub, Roles: roles, Capabilities: caps}}, nil
}
