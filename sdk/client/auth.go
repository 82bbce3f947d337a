package client

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

const usersBase = "/api/Users"

func refreshCookie(resp *resty.Response) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == sdk.RefreshCookie {
			return ck.Value
		}
	}
	return ""
}

// Login exchanges credentials for a bearer token. The refresh token set by
// the server as a cookie is returned in LoginResult.RefreshToken.
func (c *Client) Login(ctx context.Context, req sdk.LoginRequest) (sdk.LoginResult, error) {
	var out sdk.LoginResult
	resp, err := c.r(sessionCall(ctx)).SetBody(req).SetResult(&out).Post(c.url(usersBase + "/Login"))
	if err := check(resp, err); err != nil {
		return sdk.LoginResult{}, err
	}
	out.RefreshToken = refreshCookie(resp)
	return out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req sdk.RegisterRequest) (sdk.RegisterResult, error) {
	var out sdk.RegisterResult
	resp, err := c.r(ctx).SetBody(req).SetResult(&out).Post(c.url(usersBase + "/Register"))
	if err := check(resp, err); err != nil {
		return sdk.RegisterResult{}, err
	}
	return out, nil
}

// Refresh trades the refresh cookie for a new token pair. An empty
// refreshToken relies on the cookie jar of the underlying client.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (sdk.LoginResult, error) {
	var out sdk.LoginResult
	r := c.r(sessionCall(ctx)).SetResult(&out)
	if refreshToken != "" {
		r.SetCookie(&http.Cookie{Name: sdk.RefreshCookie, Value: refreshToken})
	}
	resp, err := r.Post(c.url(usersBase + "/refresh-token"))
	if err := check(resp, err); err != nil {
		return sdk.LoginResult{}, err
	}
	out.RefreshToken = refreshCookie(resp)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

// Revoke invalidates refreshToken on the server. accessToken authenticates
// the call explicitly so it still works after the local session is gone.
func (c *Client) Revoke(ctx context.Context, accessToken, refreshToken string) error {
	r := c.r(sessionCall(ctx)).SetBody(sdk.RevokeRequest{Token: refreshToken})
	if accessToken != "" {
		r.SetHeader("Authorization", "Bearer "+accessToken)
	}
	if refreshToken != "" {
		r.SetCookie(&http.Cookie{Name: sdk.RefreshCookie, Value: refreshToken})
	}
	resp, err := r.Post(c.url(usersBase + "/revoke-token"))
	return check(resp, err)
}

// IsDupeEmail reports whether email is already registered.
func (c *Client) IsDupeEmail(ctx context.Context, email string) (bool, error) {
	var dupe bool
	resp, err := c.r(ctx).SetBody(sdk.DupeEmailRequest{Email: email}).SetResult(&dupe).Post(c.url(usersBase + "/IsDupeEmail"))
	if err := check(resp, err); err != nil {
		return false, err
	}
	return dupe, nil
}

// Capabilities asks the server what the current session may do.
func (c *Client) Capabilities(ctx context.Context) (sdk.MeCapabilities, error) {
	var out sdk.MeCapabilities
	resp, err := c.r(ctx).SetResult(&out).Get(c.url(usersBase + "/me/capabilities"))
	if err := check(resp, err); err != nil {
		return sdk.MeCapabilities{}, err
	}
	return out, nil
}
