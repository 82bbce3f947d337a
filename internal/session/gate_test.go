package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/jlvsolutions/WorldCities-sub000/internal/schema"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
	"github.com/jlvsolutions/WorldCities-sub000/sdk/client"
)

func signed(t *testing.T, sub string, roles []string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name:  "admin",
		Email: "admin@email.com",
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

type fakeAuth struct {
	mu         sync.Mutex
	login      func(sdk.LoginRequest) (sdk.LoginResult, error)
	refresh    func(string) (sdk.LoginResult, error)
	revokeErr  error
	revoked    []string
	refreshed  int
	refreshHit chan struct{}
}

func (f *fakeAuth) Login(_ context.Context, req sdk.LoginRequest) (sdk.LoginResult, error) {
	return f.login(req)
}

func (f *fakeAuth) Refresh(_ context.Context, rt string) (sdk.LoginResult, error) {
	f.mu.Lock()
	f.refreshed++
	f.mu.Unlock()
	defer func() {
		if f.refreshHit != nil {
			f.refreshHit <- struct{}{}
		}
	}()
	return f.refresh(rt)
}

func (f *fakeAuth) Revoke(_ context.Context, access, rt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, access+"|"+rt)
	return f.revokeErr
}

func loginOK(tok string, roles ...string) func(sdk.LoginRequest) (sdk.LoginResult, error) {
	return func(req sdk.LoginRequest) (sdk.LoginResult, error) {
		return sdk.LoginResult{
			Success:      true,
			Token:        tok,
			RefreshToken: "rt-1",
			User:         &sdk.User{ID: "u1", Name: "admin", Email: req.Email, Roles: roles},
		}, nil
	}
}

func TestLogin(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, "u1", []string{sdk.RoleAdministrator}, exp)
	auth := &fakeAuth{login: loginOK(tok, sdk.RoleRegisteredUser, sdk.RoleAdministrator)}
	g := NewGate(auth)
	defer g.Close()

	if g.IsAuthenticated() || g.Capabilities() != (schema.Capabilities{}) {
		t.Fatalf("fresh gate is signed in")
	}
	id, err := g.Login(context.Background(), "admin@email.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !id.TokenExpiry.Equal(exp) || id.Token != tok || id.RefreshToken != "rt-1" {
		t.Fatalf("identity %+v", id)
	}
	if !g.IsAuthenticated() || !g.IsAdministrator() {
		t.Fatalf("capabilities after login")
	}
	if got := g.Capabilities(); got != (schema.Capabilities{IsLoggedIn: true, IsAdministrator: true}) {
		t.Fatalf("caps %+v", got)
	}
	want := exp.Add(-DefaultRefreshLead)
	if d := g.NextRefresh().Sub(want); d < -2*time.Second || d > 2*time.Second {
		t.Fatalf("next refresh %v, want about %v", g.NextRefresh(), want)
	}
}

func TestLoginFailureLeavesNoIdentity(t *testing.T) {
	tok := signed(t, "u1", nil, time.Now().Add(time.Hour))
	auth := &fakeAuth{login: loginOK(tok)}
	g := NewGate(auth)
	defer g.Close()
	if _, err := g.Login(context.Background(), "a@b.c", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}

	auth.login = func(sdk.LoginRequest) (sdk.LoginResult, error) {
		return sdk.LoginResult{Success: false, Message: "Invalid Email or Password."}, nil
	}
	if _, err := g.Login(context.Background(), "a@b.c", "bad"); !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("err %v", err)
	}
	if g.IsAuthenticated() {
		t.Fatalf("identity kept after failed login")
	}

	boom := &client.TransportError{Err: errors.New("refused")}
	auth.login = func(sdk.LoginRequest) (sdk.LoginResult, error) { return sdk.LoginResult{}, boom }
	if _, err := g.Login(context.Background(), "a@b.c", "x"); !errors.Is(err, boom) {
		t.Fatalf("err %v", err)
	}
	if _, ok := g.Current(); ok {
		t.Fatalf("identity after transport failure")
	}
}

func TestLogoutRevokesInBackground(t *testing.T) {
	tok := signed(t, "u1", nil, time.Now().Add(time.Hour))
	auth := &fakeAuth{login: loginOK(tok), revokeErr: errors.New("server down")}
	g := NewGate(auth)
	if _, err := g.Login(context.Background(), "a@b.c", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.Logout(ctx)
	cancel()
	if g.IsAuthenticated() || !g.NextRefresh().IsZero() {
		t.Fatalf("session survived logout")
	}
	g.Close()
	auth.mu.Lock()
	defer auth.mu.Unlock()
	if diff := cmp.Diff([]string{tok + "|rt-1"}, auth.revoked); diff != "" {
		t.Fatalf("revoked (-want +got):\n%s", diff)
	}
}

func TestRefreshTimer(t *testing.T) {
	first := signed(t, "u1", nil, time.Now().Add(time.Hour))
	second := signed(t, "u1", nil, time.Now().Add(2*time.Hour))
	auth := &fakeAuth{
		login:      loginOK(first, sdk.RoleRegisteredUser),
		refreshHit: make(chan struct{}, 4),
		refresh: func(rt string) (sdk.LoginResult, error) {
			if rt != "rt-1" {
				return sdk.LoginResult{}, errors.New("bad refresh token " + rt)
			}
			return sdk.LoginResult{Success: true, Token: second, RefreshToken: "rt-2"}, nil
		},
	}
	g := NewGate(auth, WithRefreshLead(time.Hour-20*time.Millisecond), WithMinRefreshDelay(time.Millisecond))
	defer g.Close()

	changed := make(chan Identity, 4)
	g.Subscribe(func(id Identity, ok bool) {
		if ok {
			changed <- id
		}
	})
	if _, err := g.Login(context.Background(), "a@b.c", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}
	<-changed
	select {
	case id := <-changed:
		if id.Token != second || id.RefreshToken != "rt-2" || id.Name != "admin" {
			t.Fatalf("refreshed identity %+v", id)
		}
		if !id.HasRole(sdk.RoleRegisteredUser) {
			t.Fatalf("roles lost on refresh: %v", id.Roles)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("refresh did not fire")
	}
	if g.NextRefresh().IsZero() {
		t.Fatalf("refresh not rescheduled")
	}
}

func TestRefreshFailureKeepsStaleIdentity(t *testing.T) {
	tok := signed(t, "u1", nil, time.Now().Add(time.Hour))
	auth := &fakeAuth{
		login:      loginOK(tok),
		refreshHit: make(chan struct{}, 4),
		refresh: func(string) (sdk.LoginResult, error) {
			return sdk.LoginResult{}, &client.TransportError{Err: errors.New("offline")}
		},
	}
	g := NewGate(auth, WithRefreshLead(time.Hour), WithMinRefreshDelay(10*time.Millisecond))
	defer g.Close()
	if _, err := g.Login(context.Background(), "a@b.c", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}
	select {
	case <-auth.refreshHit:
	case <-time.After(2 * time.Second):
		t.Fatalf("refresh did not fire")
	}
	time.Sleep(20 * time.Millisecond)
	if g.Token() != tok {
		t.Fatalf("stale identity dropped after failed refresh")
	}
	g.HandleUnauthorized(401)
	if g.IsAuthenticated() {
		t.Fatalf("identity kept after 401")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	tok := signed(t, "u1", nil, time.Now().Add(time.Hour))
	g := NewGate(&fakeAuth{login: loginOK(tok, sdk.RoleAdministrator)})
	defer g.Close()
	id, _ := g.Login(context.Background(), "a@b.c", "x")
	id.Roles[0] = "Nobody"
	cur, _ := g.Current()
	cur.Roles[0] = "Nobody"
	if !g.IsAdministrator() {
		t.Fatalf("snapshot mutation leaked into the gate")
	}
}

func TestSubscribe(t *testing.T) {
	tok := signed(t, "u1", nil, time.Now().Add(time.Hour))
	g := NewGate(&fakeAuth{login: loginOK(tok)})
	defer g.Close()
	var events []bool
	unsub := g.Subscribe(func(_ Identity, ok bool) { events = append(events, ok) })
	_, _ = g.Login(context.Background(), "a@b.c", "x")
	g.HandleUnauthorized(403)
	g.HandleUnauthorized(403)
	unsub()
	g.Adopt(Identity{Token: tok})
	if diff := cmp.Diff([]bool{true, false}, events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
}

func TestAdoptReadsExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	g := NewGate(nil)
	defer g.Close()
	g.Adopt(Identity{Name: "x", Token: signed(t, "u9", nil, exp)})
	id, ok := g.Current()
	if !ok || !id.TokenExpiry.Equal(exp) {
		t.Fatalf("adopted %+v", id)
	}
	g.Adopt(Identity{})
	if g.IsAuthenticated() {
		t.Fatalf("empty identity adopted")
	}
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Minute).Truncate(time.Second)
	c, err := ParseClaims(signed(t, "u1", []string{"Administrator"}, exp))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Subject != "u1" || c.Email != "admin@email.com" || !c.Expiry.Equal(exp) {
		t.Fatalf("claims %+v", c)
	}
	if _, err := Expiry("not-a-token"); err == nil {
		t.Fatalf("garbage token accepted")
	}
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	if _, err := Expiry(noExp); !errors.Is(err, ErrNoExpiry) {
		t.Fatalf("err %v", err)
	}
}
