package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	huma "github.com/jlvsolutions/WorldCities-sub000/internal/huma"
	sm "github.com/jlvsolutions/WorldCities-sub000/internal/server/middleware"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/metrics"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Messages shown to the user unchanged by the clients.
const (
	MsgBadCredentials = "Invalid Email or Password."
	MsgInvalidToken   = "Invalid token."
)

type Handler struct {
	Users        Users
	JWT          *JWT
	Refresh      *RefreshStore
	SecureCookie bool
	Logger       *zap.SugaredLogger
}

type loginInput struct {
	Body sdk.LoginRequest
}

type tokenOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      sdk.LoginResult
}

type refreshInput struct {
	RefreshToken string `cookie:"refreshToken"`
}

type revokeInput struct {
	RefreshToken string `cookie:"refreshToken"`
	Body         *sdk.RevokeRequest
}

type revokeOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Message string `json:"message"`
	}
}

type registerInput struct {
	Body sdk.RegisterRequest
}

type registerOutput struct {
	Body sdk.RegisterResult
}

type dupeEmailInput struct {
	Body sdk.DupeEmailRequest
}

type dupeOutput struct {
	Body bool
}

func Register(api huma.API, h *Handler) {
	if h.Logger == nil {
		h.Logger = zap.NewNop().Sugar()
	}
	base := sdk.Users.Endpoint()
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        base + "/Login",
		Summary:     "Login",
		Tags:        []string{"Auth"},
	}, h.login)

	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        base + "/Register",
		Summary:     "Register a new account",
		Tags:        []string{"Auth"},
	}, h.register)

	huma.Register(api, huma.Operation{
		OperationID: "refreshToken",
		Method:      http.MethodPost,
		Path:        base + "/refresh-token",
		Summary:     "Trade the refresh cookie for a new token pair",
		Tags:        []string{"Auth"},
	}, h.refresh)

	huma.Register(api, huma.Operation{
		OperationID: "revokeToken",
		Method:      http.MethodPost,
		Path:        base + "/revoke-token",
		Summary:     "Revoke a refresh token",
		Tags:        []string{"Auth"},
	}, h.revoke)

	huma.Register(api, huma.Operation{
		OperationID: "isDupeEmail",
		Method:      http.MethodPost,
		Path:        base + "/IsDupeEmail",
		Summary:     "Check whether an email is registered",
		Tags:        []string{"Auth"},
	}, h.isDupeEmail)
}

func (h *Handler) cookie(tok string, exp time.Time) http.Cookie {
	c := http.Cookie{
		Name:     sdk.RefreshCookie,
		Value:    tok,
		Path:     sdk.Users.Endpoint(),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	if tok == "" {
		c.MaxAge = -1
	} else {
		c.Expires = exp.UTC()
	}
	return c
}

func (h *Handler) issue(u sdk.User, rt string, rtExp time.Time, msg string) (*tokenOutput, error) {
	tok, exp, err := h.JWT.Generate(u)
	if err != nil {
		return nil, err
	}
	return &tokenOutput{
		SetCookie: h.cookie(rt, rtExp),
		Body: sdk.LoginResult{
			Success:   true,
			Message:   msg,
			Token:     tok,
			ExpiresAt: exp,
			User:      &u,
		},
	}, nil
}

func (h *Handler) login(ctx context.Context, in *loginInput) (*tokenOutput, error) {
	u, err := h.Users.Authenticate(ctx, in.Body.Email, in.Body.Password)
	if err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		h.Logger.Infow("login rejected", "email", in.Body.Email)
		return nil, huma.Error401Unauthorized(MsgBadCredentials)
	}
	metrics.Logins.WithLabelValues("success").Inc()
	rt, rtExp := h.Refresh.Issue(u.ID)
	return h.issue(u, rt, rtExp, "Login successful")
}

func (h *Handler) refresh(ctx context.Context, in *refreshInput) (*tokenOutput, error) {
	if in.RefreshToken == "" {
		return nil, huma.Error401Unauthorized(MsgInvalidToken)
	}
	uid, rt, rtExp, err := h.Refresh.Rotate(in.RefreshToken)
	if err != nil {
		return nil, huma.Error401Unauthorized(MsgInvalidToken)
	}
	u, err := h.Users.UserByID(ctx, uid)
	if err != nil {
		h.Refresh.Revoke(rt)
		if errors.Is(err, sdk.ErrNotFound) {
			return nil, huma.Error401Unauthorized(MsgInvalidToken)
		}
		return nil, err
	}
	return h.issue(u, rt, rtExp, "Token refreshed")
}

func (h *Handler) revoke(ctx context.Context, in *revokeInput) (*revokeOutput, error) {
	tok := in.RefreshToken
	if in.Body != nil && in.Body.Token != "" {
		tok = in.Body.Token
	}
	if tok == "" {
		return nil, huma.Error400BadRequest("Token is required.")
	}
	owner, ok := h.Refresh.Owner(tok)
	// someone else's token is reported as missing
	if !ok || (owner != sm.UserFromContext(ctx) && !sm.HasRole(ctx, sdk.RoleAdministrator)) {
		return nil, huma.Error404NotFound("Token not found.")
	}
	h.Refresh.Revoke(tok)
	out := &revokeOutput{SetCookie: h.cookie("", time.Time{})}
	out.Body.Message = "Token revoked"
	return out, nil
}

func (h *Handler) register(ctx context.Context, in *registerInput) (*registerOutput, error) {
	req := in.Body
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, huma.Error400BadRequest("Name, email and password are required.")
	}
	u, err := h.Users.Register(ctx, req)
	if err != nil {
		return nil, huma.FromError(err)
	}
	h.Logger.Infow("user registered", "user", u.Name, "email", u.Email)
	return &registerOutput{Body: sdk.RegisterResult{Success: true, Message: "Registration successful"}}, nil
}

func (h *Handler) isDupeEmail(ctx context.Context, in *dupeEmailInput) (*dupeOutput, error) {
	taken, err := h.Users.EmailTaken(ctx, in.Body.Email)
	if err != nil {
		return nil, err
	}
	return &dupeOutput{Body: taken}, nil
}
