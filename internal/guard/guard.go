// Package guard decides which front end routes the current session may
// open. Rules are casbin policies over route patterns.
package guard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Subjects every session is mapped onto.
const (
	Anonymous     = "anonymous"
	Authenticated = "authenticated"
	Administrator = sdk.RoleAdministrator
)

// LoginRoute is where denied navigations are sent.
const LoginRoute = "/login"

const act = "open"

// Session is read on every Check. *session.Gate implements it.
type Session interface {
	IsAuthenticated() bool
	IsAdministrator() bool
}

// Rule allows Subject to open routes matching Pattern (keyMatch2 syntax,
// e.g. /city/:id).
type Rule struct {
	Subject string
	Pattern string
}

// DefaultRules is the route table of worldctl.
var DefaultRules = []Rule{
	{Anonymous, "/"},
	{Anonymous, LoginRoute},
	{Anonymous, "/register"},
	{Anonymous, "/cities"},
	{Anonymous, "/countries"},
	{Anonymous, "/adminregions"},
	{Anonymous, "/countries/:id/cities"},
	{Anonymous, "/countries/:id/adminregions"},
	{Anonymous, "/adminregions/:id/cities"},
	{Authenticated, "/profile"},
	{Administrator, "/city"},
	{Administrator, "/city/:id"},
	{Administrator, "/country"},
	{Administrator, "/country/:id"},
	{Administrator, "/adminregion"},
	{Administrator, "/adminregion/:id"},
	{Administrator, "/users"},
	{Administrator, "/user"},
	{Administrator, "/user/:id"},
}

// Decision is the outcome of Check. Redirect is set when the route is
// denied.
type Decision struct {
	Allowed  bool
	Redirect string
}

type Guard struct {
	enf     *casbin.Enforcer
	session Session
}

// New builds a guard over s. With no rules DefaultRules apply.
func New(s Session, rules ...Rule) (*Guard, error) {
	m := model.NewModel()
	m.AddDef("r", "r", "sub, obj, act")
	m.AddDef("p", "p", "sub, obj, act")
	m.AddDef("g", "g", "_, _")
	m.AddDef("e", "e", "some(where (p.eft == allow))")
	m.AddDef("m", "m", "g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && r.act == p.act")
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	for _, r := range rules {
		if _, err := e.AddPolicy(r.Subject, strings.ToLower(r.Pattern), act); err != nil {
			return nil, err
		}
	}
	// an administrator may open everything an authenticated user may, who
	// may open everything an anonymous one may
	if _, err := e.AddGroupingPolicy(Authenticated, Anonymous); err != nil {
		return nil, err
	}
	if _, err := e.AddGroupingPolicy(Administrator, Authenticated); err != nil {
		return nil, err
	}
	return &Guard{enf: e, session: s}, nil
}

func (g *Guard) subject() string {
	switch {
	case g.session == nil || !g.session.IsAuthenticated():
		return Anonymous
	case g.session.IsAdministrator():
		return Administrator
	}
	return Authenticated
}

// Check decides whether the session may open route. Routes match case
// insensitively; query strings are ignored for matching and kept in the
// return URL.
func (g *Guard) Check(route string) Decision {
	path := route
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	path = strings.ToLower(path)
	if ok, err := g.enf.Enforce(g.subject(), path, act); err == nil && ok {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: LoginRoute + "?returnUrl=" + url.QueryEscape(route)}
}

// Allowed is Check(route).Allowed.
func (g *Guard) Allowed(route string) bool { return g.Check(route).Allowed }
