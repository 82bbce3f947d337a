package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jlvsolutions/WorldCities-sub000/internal/schema"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Authenticator is the part of the API the gate talks to.
// *client.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, req sdk.LoginRequest) (sdk.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (sdk.LoginResult, error)
	Revoke(ctx context.Context, accessToken, refreshToken string) error
}

const (
	// DefaultRefreshLead is how long before expiry the token is refreshed.
	DefaultRefreshLead = 60 * time.Second
	// DefaultMinRefreshDelay keeps short lived tokens from refreshing in a
	// tight loop.
	DefaultMinRefreshDelay = time.Second
	// DefaultCallTimeout bounds background refresh and revoke calls.
	DefaultCallTimeout = 10 * time.Second
)

var (
	ErrLoginFailed  = errors.New("login failed")
	ErrNoSession    = errors.New("not logged in")
	ErrRefreshToken = errors.New("no refresh token")
)

// Listener is told about every identity change. ok is false once the
// session ended.
type Listener func(id Identity, ok bool)

// Gate owns the current identity. It is the only writer; everybody else
// reads snapshots through its accessors.
type Gate struct {
	auth        Authenticator
	logger      *zap.SugaredLogger
	lead        time.Duration
	minDelay    time.Duration
	callTimeout time.Duration
	now         func() time.Time

	mu        sync.RWMutex
	id        *Identity
	gen       uint64
	timer     *time.Timer
	refreshAt time.Time
	subs      map[int]Listener
	nextSub   int

	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

type Option func(*Gate)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRefreshLead sets how long before expiry the refresh fires.
func WithRefreshLead(d time.Duration) Option {
	return func(g *Gate) { g.lead = d }
}

// WithMinRefreshDelay sets the shortest refresh delay.
func WithMinRefreshDelay(d time.Duration) Option {
	return func(g *Gate) { g.minDelay = d }
}

// WithCallTimeout bounds background refresh and revoke calls.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Gate) { g.callTimeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(auth Authenticator, opts ...Option) *Gate {
	g := &Gate{
		auth:        auth,
		logger:      zap.NewNop().Sugar(),
		lead:        DefaultRefreshLead,
		minDelay:    DefaultMinRefreshDelay,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		subs:        map[int]Listener{},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Login signs in. On failure no identity is held and the error is returned.
func (g *Gate) Login(ctx context.Context, email, password string) (Identity, error) {
	g.clear("login")
	res, err := g.auth.Login(ctx, sdk.LoginRequest{Email: email, Password: password})
	if err != nil {
		return Identity{}, err
	}
	if !res.Success || res.Token == "" {
		msg := res.Message
		if msg == "" {
			msg = "invalid email or password"
		}
		return Identity{}, fmt.Errorf("%w: %s", ErrLoginFailed, msg)
	}
	id := identityFrom(res)
	g.set(id)
	g.logger.Infow("logged in", "user", id.Name, "roles", id.Roles, "expires", id.TokenExpiry)
	return id.clone(), nil
}

// Adopt installs an identity restored from storage and schedules its
// refresh.
func (g *Gate) Adopt(id Identity) {
	if id.Token == "" {
		g.clear("adopt")
		return
	}
	if id.TokenExpiry.IsZero() {
		if exp, err := Expiry(id.Token); err == nil {
			id.TokenExpiry = exp
		}
	}
	g.set(id.clone())
}

// Logout clears the identity and cancels the refresh. The server side
// revocation runs in the background; its failure is only logged.
func (g *Gate) Logout(ctx context.Context) {
	id, ok := g.Current()
	g.clear("logout")
	if !ok || g.auth == nil {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.callTimeout)
		defer cancel()
		if err := g.auth.Revoke(rctx, id.Token, id.RefreshToken); err != nil {
			g.logger.Warnw("token revocation failed", "user", id.Name, "err", err)
			return
		}
		g.logger.Debugw("token revoked", "user", id.Name)
	}()
}

// HandleUnauthorized drops the identity after the API rejected it.
func (g *Gate) HandleUnauthorized(status int) {
	if !g.IsAuthenticated() {
		return
	}
	g.logger.Infow("session rejected by the API", "status", status)
	g.clear("unauthorized")
}

// Refresh trades the refresh token for a new token now. On failure the
// current identity is kept.
func (g *Gate) Refresh(ctx context.Context) error {
	g.mu.RLock()
	gen := g.gen
	var id Identity
	if g.id != nil {
		id = *g.id
	}
	g.mu.RUnlock()
	if id.Token == "" {
		return ErrNoSession
	}
	return g.refresh(ctx, gen, id)
}

func (g *Gate) refresh(ctx context.Context, gen uint64, id Identity) error {
	if id.RefreshToken == "" {
		return ErrRefreshToken
	}
	res, err := g.auth.Refresh(ctx, id.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if res.Token == "" {
		return fmt.Errorf("refresh token: %w: %s", ErrLoginFailed, res.Message)
	}
	next := identityFrom(res)
	// the refresh answer may omit the user
	if res.User == nil {
		next.ID, next.Name, next.Email, next.Roles = id.ID, id.Name, id.Email, slices.Clone(id.Roles)
	}
	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		return ErrNoSession
	}
	g.installLocked(&next)
	return nil
}

func (g *Gate) onTimer(gen uint64) {
	g.mu.RLock()
	if g.gen != gen || g.id == nil {
		g.mu.RUnlock()
		return
	}
	id := *g.id
	g.mu.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), g.callTimeout)
	defer cancel()
	if err := g.refresh(ctx, gen, id); err != nil {
		g.logger.Warnw("token refresh failed", "user", id.Name, "err", err)
		return
	}
	g.logger.Debugw("token refreshed", "user", id.Name)
}

func (g *Gate) set(id Identity) {
	g.mu.Lock()
	g.installLocked(&id)
}

func (g *Gate) clear(reason string) {
	g.mu.Lock()
	if g.id == nil {
		g.mu.Unlock()
		return
	}
	g.logger.Debugw("session cleared", "reason", reason)
	g.installLocked(nil)
}

// installLocked replaces the identity, reschedules the refresh timer and
// notifies listeners. It is called with g.mu held and releases it.
func (g *Gate) installLocked(id *Identity) {
	g.gen++
	g.id = id
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.refreshAt = time.Time{}
	if id != nil && !id.TokenExpiry.IsZero() && id.RefreshToken != "" && g.auth != nil {
		d := id.TokenExpiry.Sub(g.now()) - g.lead
		if d < g.minDelay {
			d = g.minDelay
		}
		gen := g.gen
		g.refreshAt = g.now().Add(d)
		g.timer = time.AfterFunc(d, func() { g.onTimer(gen) })
	}
	var snap Identity
	if id != nil {
		snap = id.clone()
	}
	subs := make([]Listener, 0, len(g.subs))
	for _, l := range g.subs {
		subs = append(subs, l)
	}
	g.notifyMu.Lock()
	g.mu.Unlock()
	defer g.notifyMu.Unlock()
	for _, l := range subs {
		l(snap, id != nil)
	}
}

// Current returns a snapshot of the identity.
func (g *Gate) Current() (Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.id == nil {
		return Identity{}, false
	}
	return g.id.clone(), true
}

// Token returns the bearer token or "". It fits client.TokenSource.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.id == nil {
		return ""
	}
	return g.id.Token
}

// IsAuthenticated reports whether an identity with a token is held.
func (g *Gate) IsAuthenticated() bool { return g.Token() != "" }

// IsAdministrator reports whether the identity has the Administrator role.
func (g *Gate) IsAdministrator() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.id != nil && g.id.Token != "" && g.id.IsAdministrator()
}

// Capabilities returns the facts schemas are gated on.
func (g *Gate) Capabilities() schema.Capabilities {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.id == nil || g.id.Token == "" {
		return schema.Capabilities{}
	}
	return schema.Capabilities{IsLoggedIn: true, IsAdministrator: g.id.IsAdministrator()}
}

// NextRefresh returns when the refresh timer fires, or the zero time.
func (g *Gate) NextRefresh() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.refreshAt
}

// Subscribe registers l and returns a function removing it. Listeners run
// synchronously in change order and must not call back into the gate.
func (g *Gate) Subscribe(l Listener) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.nextSub
	g.nextSub++
	g.subs[n] = l
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, n)
	}
}

// Close stops the refresh timer and waits for background revocations.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
	g.mu.Unlock()
	g.wg.Wait()
}
