package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/jlvsolutions/WorldCities-sub000/internal/server"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
	"github.com/jlvsolutions/WorldCities-sub000/sdk/client"
)

const (
	adminEmail = "admin@email.com"
	userEmail  = "user@email.com"
	password   = "MySecr3t$"
)

func testConfig() server.Config {
	return server.Config{
		JWTSecret:      "test",
		JWTTTL:         time.Minute,
		RefreshTTL:     time.Hour,
		AllowedOrigins: []string{"*"},
		PasswordCost:   bcrypt.MinCost,
		PurgeEvery:     time.Hour,
		GaugeEvery:     time.Hour,
	}
}

func newServer(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()
	s, err := server.New(testConfig())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(s.Close)
	return s, ts
}

func login(t *testing.T, base, email string) (*client.Client, sdk.LoginResult) {
	t.Helper()
	res, err := client.New(base).Login(context.Background(), sdk.LoginRequest{Email: email, Password: password})
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return client.New(base, client.WithToken(res.Token)), res
}

func status(err error) int {
	var ae *client.APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func message(err error) string {
	var ae *client.APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return ""
}

func names[T sdk.Record](rows []T) []string {
	var out []string
	for _, r := range rows {
		v, _ := r.Field("name")
		out = append(out, v.(string))
	}
	return out
}

func sub(name sdk.Entity, id string) listquery.Query {
	return listquery.Build(0, listquery.DefaultPageSize, "name", listquery.Asc, listquery.WithSubResource(string(name), id))
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	if _, err := server.New(cfg); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("missing secret: %v", err)
	}
	cfg = testConfig()
	cfg.RefreshTTL = time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("refresh shorter than jwt accepted")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newServer(t)
	if _, err := client.New(ts.URL).Cities().List(context.Background(), listquery.Default()); err != nil {
		t.Fatalf("list: %v", err)
	}
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	for _, m := range []string{"wc_records_total", "wc_api_requests_total"} {
		if !strings.Contains(string(body), m) {
			t.Fatalf("metric %s missing", m)
		}
	}
}

func TestListCities(t *testing.T) {
	_, ts := newServer(t)
	ctx := context.Background()
	cities := client.New(ts.URL).Cities()

	res, err := cities.List(ctx, listquery.Default())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalCount != 13 || res.TotalPages != 1 || len(res.Data) != 13 || res.Data[0].Name != "Austin" {
		t.Fatalf("default page %+v", res)
	}

	res, _ = cities.List(ctx, listquery.Build(2, 5, "name", listquery.Asc))
	if res.TotalPages != 3 || len(res.Data) != 3 || res.PageIndex != 2 {
		t.Fatalf("last page %+v", res)
	}

	res, _ = cities.List(ctx, listquery.Build(0, 15, "name", listquery.Desc))
	if res.Data[0].Name != "Tokyo" {
		t.Fatalf("desc first %q", res.Data[0].Name)
	}

	res, err = cities.List(ctx, listquery.Default().WithFilter("name", "b"))
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if diff := cmp.Diff([]string{"Bandera", "Berlin", "Boerne"}, names(res.Data)); diff != "" {
		t.Fatalf("filtered (-want +got):\n%s", diff)
	}
	if res.FilterColumn == nil || *res.FilterColumn != "name" {
		t.Fatalf("filter echo %+v", res)
	}

	res, err = cities.List(ctx, listquery.Build(1<<62, 15, "name", listquery.Asc))
	if err != nil {
		t.Fatalf("far page: %v", err)
	}
	if len(res.Data) != 0 || res.TotalCount != 13 {
		t.Fatalf("far page %+v", res)
	}

	_, err = cities.List(ctx, listquery.Build(0, 15, "bogus", listquery.Asc))
	if status(err) != http.StatusBadRequest {
		t.Fatalf("unknown column: %v", err)
	}
}

func TestSubResources(t *testing.T) {
	_, ts := newServer(t)
	ctx := context.Background()
	c := client.New(ts.URL)

	res, err := client.List[sdk.City](ctx, c, sdk.Countries.Endpoint(), sub(sdk.Cities, "3"))
	if err != nil {
		t.Fatalf("cities of country: %v", err)
	}
	if diff := cmp.Diff([]string{"Berlin", "Munich", "Nuremberg"}, names(res.Data)); diff != "" {
		t.Fatalf("cities of Germany (-want +got):\n%s", diff)
	}
	regions, err := client.List[sdk.AdminRegion](ctx, c, sdk.Countries.Endpoint(), sub(sdk.AdminRegions, "1"))
	if err != nil || regions.TotalCount != 2 {
		t.Fatalf("regions of US %+v %v", regions, err)
	}
	tx, err := client.List[sdk.City](ctx, c, sdk.AdminRegions.Endpoint(), sub(sdk.Cities, "1"))
	if err != nil || tx.TotalCount != 4 {
		t.Fatalf("cities of Texas %+v %v", tx, err)
	}
	_, err = client.List[sdk.City](ctx, c, sdk.Countries.Endpoint(), sub(sdk.Cities, "99"))
	if !client.IsNotFound(err) {
		t.Fatalf("missing country: %v", err)
	}
}

func TestAuthorization(t *testing.T) {
	_, ts := newServer(t)
	ctx := context.Background()
	city := sdk.City{Name: "TestCity1", Lat: 1, Lon: 1, CountryID: 1}

	_, err := client.New(ts.URL).Cities().Create(ctx, city)
	if status(err) != http.StatusUnauthorized || message(err) != "You must be logged in to access this resource." {
		t.Fatalf("anonymous create: %v", err)
	}
	_, err = client.New(ts.URL).Users().List(ctx, listquery.Default())
	if status(err) != http.StatusUnauthorized {
		t.Fatalf("anonymous users: %v", err)
	}

	user, _ := login(t, ts.URL, userEmail)
	_, err = user.Cities().Create(ctx, city)
	if status(err) != http.StatusForbidden || message(err) != "You are not authorized to access this resource." {
		t.Fatalf("user create: %v", err)
	}
	if dupe, err := user.Cities().IsDupe(ctx, city); err != nil || dupe {
		t.Fatalf("user dupe check %v %v", dupe, err)
	}

	_, err = client.New(ts.URL, client.WithToken("garbage")).Cities().Create(ctx, city)
	if status(err) != http.StatusUnauthorized {
		t.Fatalf("bad token: %v", err)
	}
	if _, err := client.New(ts.URL, client.WithToken("garbage")).Cities().List(ctx, listquery.Default()); err != nil {
		t.Fatalf("bad token on public list: %v", err)
	}
}

func TestAdminCRUD(t *testing.T) {
	s, ts := newServer(t)
	ctx := context.Background()
	admin, _ := login(t, ts.URL, adminEmail)
	cities := admin.Cities()

	in := sdk.City{Name: "TestCity1", Lat: 29.8, Lon: -98.7, Population: 100, CountryID: 1, AdminRegionID: 1}
	c, err := cities.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID != 14 || c.CountryName != "United States" || c.AdminRegionName != "Texas" {
		t.Fatalf("created %+v", c)
	}
	if dupe, _ := cities.IsDupe(ctx, in); !dupe {
		t.Fatalf("duplicate not reported")
	}
	if _, err := cities.Create(ctx, in); status(err) != http.StatusConflict {
		t.Fatalf("duplicate create: %v", err)
	}

	c.Name = "TestCity2"
	up, err := cities.Update(ctx, c.Key(), c)
	if err != nil || up.Name != "TestCity2" {
		t.Fatalf("update %+v %v", up, err)
	}
	if _, err := cities.Update(ctx, "1", c); status(err) != http.StatusBadRequest {
		t.Fatalf("id mismatch: %v", err)
	}
	if err := cities.Delete(ctx, c.Key()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cities.Get(ctx, c.Key()); !client.IsNotFound(err) || message(err) != "City 14 was not found." {
		t.Fatalf("get deleted: %v", err)
	}

	err = admin.Countries().Delete(ctx, "3")
	if status(err) != http.StatusConflict || message(err) != "The country Germany cannot be deleted: 3 cities and 1 admin regions reference it." {
		t.Fatalf("guarded delete: %v", err)
	}
	if _, err := admin.Countries().Create(ctx, sdk.Country{Name: "France", ISO2: "F"}); status(err) != http.StatusBadRequest {
		t.Fatalf("invalid country: %v", err)
	}

	users, err := admin.Users().List(ctx, listquery.Default())
	if err != nil || users.TotalCount != 2 {
		t.Fatalf("users %+v %v", users, err)
	}
	for _, u := range users.Data {
		if u.Password != "" {
			t.Fatalf("password leaked for %s", u.Name)
		}
	}
	if n, _ := s.Store.CountRecords(ctx); n["Cities"] != 13 {
		t.Fatalf("counts %v", n)
	}
}

func TestLoginRefreshRevoke(t *testing.T) {
	s, ts := newServer(t)
	ctx := context.Background()
	anon := client.New(ts.URL)

	_, err := anon.Login(ctx, sdk.LoginRequest{Email: adminEmail, Password: "wrong"})
	if status(err) != http.StatusUnauthorized || message(err) != "Invalid Email or Password." {
		t.Fatalf("bad login: %v", err)
	}

	_, res := login(t, ts.URL, userEmail)
	if !res.Success || res.Token == "" || res.RefreshToken == "" || res.User == nil || res.User.Email != userEmail {
		t.Fatalf("login result %+v", res)
	}

	next, err := anon.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == res.RefreshToken || next.Token == "" {
		t.Fatalf("refresh did not rotate %+v", next)
	}
	if _, err := anon.Refresh(ctx, res.RefreshToken); status(err) != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: %v", err)
	}

	_, other := login(t, ts.URL, adminEmail)
	if err := anon.Revoke(ctx, next.Token, other.RefreshToken); !client.IsNotFound(err) {
		t.Fatalf("revoke foreign token: %v", err)
	}
	if err := anon.Revoke(ctx, "", next.RefreshToken); status(err) != http.StatusUnauthorized {
		t.Fatalf("anonymous revoke: %v", err)
	}
	if err := anon.Revoke(ctx, next.Token, next.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := anon.Refresh(ctx, next.RefreshToken); status(err) != http.StatusUnauthorized {
		t.Fatalf("refresh revoked: %v", err)
	}
	if s.Tokens.Len() != 1 {
		t.Fatalf("live tokens %d", s.Tokens.Len())
	}
}

func TestRegister(t *testing.T) {
	_, ts := newServer(t)
	ctx := context.Background()
	anon := client.New(ts.URL)

	if dupe, err := anon.IsDupeEmail(ctx, "ADMIN@email.com"); err != nil || !dupe {
		t.Fatalf("dupe email %v %v", dupe, err)
	}
	res, err := anon.Register(ctx, sdk.RegisterRequest{Name: "ann", Email: "ann@email.com", Password: password})
	if err != nil || !res.Success {
		t.Fatalf("register %+v %v", res, err)
	}
	_, lr := login(t, ts.URL, "ann@email.com")
	if diff := cmp.Diff([]string{sdk.RoleRegisteredUser}, lr.User.Roles); diff != "" {
		t.Fatalf("roles (-want +got):\n%s", diff)
	}
	if _, err := anon.Register(ctx, sdk.RegisterRequest{Name: "ann", Email: "ann@email.com", Password: password}); status(err) != http.StatusConflict {
		t.Fatalf("register twice: %v", err)
	}
	if _, err := anon.Register(ctx, sdk.RegisterRequest{Email: "bob@email.com", Password: password}); status(err) != http.StatusBadRequest {
		t.Fatalf("register without name: %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	_, ts := newServer(t)
	ctx := context.Background()

	caps, err := client.New(ts.URL).Capabilities(ctx)
	if err != nil {
		t.Fatalf("anonymous caps: %v", err)
	}
	if caps.Subject != "" || !caps.Capabilities["cities:list"] || caps.Capabilities["cities:create"] || caps.Capabilities["users:list"] {
		t.Fatalf("anonymous caps %+v", caps)
	}

	admin, res := login(t, ts.URL, adminEmail)
	caps, err = admin.Capabilities(ctx)
	if err != nil {
		t.Fatalf("admin caps: %v", err)
	}
	if caps.Subject != res.User.ID || !caps.Capabilities["users:delete"] || !caps.Capabilities["countries:update"] {
		t.Fatalf("admin caps %+v", caps)
	}
}

func TestPurgeJob(t *testing.T) {
	s, _ := newServer(t)
	sched, err := s.StartJobs(time.Hour)
	if err != nil {
		t.Fatalf("start jobs: %v", err)
	}
	defer sched.Stop()
	if len(sched.Jobs()) != 1 {
		t.Fatalf("jobs %d", len(sched.Jobs()))
	}
}
