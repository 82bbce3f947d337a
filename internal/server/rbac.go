package server

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/jlvsolutions/WorldCities-sub000/internal/server/middleware"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

type policy struct{ sub, obj, act string }

// policies grants anonymous reads of the geographic data and the auth
// endpoints, signed in users the duplicate checks and token revocation, and
// administrators everything.
func policies() []policy {
	users := sdk.Users.Endpoint()
	ps := []policy{
		{middleware.Anonymous, users + "/Login", http.MethodPost},
		{middleware.Anonymous, users + "/Register", http.MethodPost},
		{middleware.Anonymous, users + "/refresh-token", http.MethodPost},
		{middleware.Anonymous, users + "/IsDupeEmail", http.MethodPost},
		{middleware.Anonymous, users + "/me/capabilities", http.MethodGet},
		{middleware.Authenticated, users + "/revoke-token", http.MethodPost},
		{sdk.RoleAdministrator, "/api/*", "*"},
	}
	for _, e := range []sdk.Entity{sdk.Cities, sdk.Countries, sdk.AdminRegions} {
		ps = append(ps,
			policy{middleware.Anonymous, e.Endpoint(), http.MethodGet},
			policy{middleware.Anonymous, e.Endpoint() + "/*", http.MethodGet},
			policy{middleware.Authenticated, e.DupePath(), http.MethodPost},
		)
	}
	return ps
}

// initEnforcer creates a Casbin enforcer holding the route policies.
func initEnforcer() (*casbin.Enforcer, error) {
	m := model.NewModel()
	m.AddDef("r", "r", "sub, obj, act")
	m.AddDef("p", "p", "sub, obj, act")
	m.AddDef("g", "g", "_, _")
	m.AddDef("e", "e", "some(where (p.eft == allow))")
	m.AddDef("m", "m", "g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == \"*\")")
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for _, p := range policies() {
		if _, err := e.AddPolicy(p.sub, p.obj, p.act); err != nil {
			return nil, err
		}
	}
	for _, g := range [][2]string{
		{sdk.RoleAdministrator, middleware.Authenticated},
		{sdk.RoleRegisteredUser, middleware.Authenticated},
		{middleware.Authenticated, middleware.Anonymous},
	} {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}
	return e, nil
}
