package client

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource returns the bearer token to attach to the next request, or ""
// when no session is active. It is called on every request.
type TokenSource func() string

// Client provides REST access to the world cities API.
type Client struct {
	base     string
	http     *resty.Client
	tokens   TokenSource
	onUnauth func(status int)
	limiter  *rate.Limiter
	logger   *zap.SugaredLogger
}

type Option func(*Client)

// WithToken attaches a fixed bearer token.
func WithToken(tok string) Option {
	return func(c *Client) {
		c.tokens = func() string { return tok }
	}
}

// WithTokenSource attaches the token returned by src at request time.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithUnauthorizedHandler registers fn to be called after any 401 or 403
// response, except those answering Login, Refresh and Revoke.
func WithUnauthorizedHandler(fn func(status int)) Option {
	return func(c *Client) {
		c.onUnauth = fn
	}
}

// WithRateLimit paces outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithInsecure disables TLS certificate verification. Only meant for local
// development servers with self-signed certificates.
func WithInsecure() Option {
	return func(c *Client) {
		c.http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402
	}
}

// New returns a Client for the given base URL, e.g. https://host:port.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimSuffix(strings.TrimSpace(base), "/"),
		http:   resty.New(),
		logger: zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(c)
	}
	c.http.OnBeforeRequest(c.beforeRequest)
	c.http.OnAfterResponse(c.afterResponse)
	return c
}

// Base returns the configured API base URL.
func (c *Client) Base() string { return c.base }

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path
}

// underBase reports whether u targets the configured API.
func (c *Client) underBase(u string) bool {
	return c.base != "" && (u == c.base || strings.HasPrefix(u, c.base+"/") || strings.HasPrefix(u, c.base+"?"))
}

func (c *Client) beforeRequest(_ *resty.Client, r *resty.Request) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(r.Context()); err != nil {
			return err
		}
	}
	if c.tokens == nil || r.Header.Get("Authorization") != "" || !c.underBase(r.URL) {
		return nil
	}
	if tok := c.tokens(); tok != "" {
		r.SetHeader("Authorization", "Bearer "+tok)
	}
	return nil
}

type sessionCallKey struct{}

// sessionCall marks a request that negotiates the session itself. Its 401
// and 403 answers go back to the caller and never reach the unauthorized
// handler.
func sessionCall(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionCallKey{}, true)
}

func (c *Client) afterResponse(_ *resty.Client, resp *resty.Response) error {
	c.logger.Debugw("api request", "method", resp.Request.Method, "url", resp.Request.URL, "status", resp.StatusCode(), "took", resp.Time())
	if resp.Request.Context().Value(sessionCallKey{}) != nil {
		return nil
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		if c.onUnauth != nil {
			c.onUnauth(resp.StatusCode())
		}
	}
	return nil
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).ExpectContentType("application/json")
}

// check turns a resty outcome into the package error taxonomy.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return &TransportError{Err: err}
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}
