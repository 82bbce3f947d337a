package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListSendsQuery(t *testing.T) {
	var (
		gotQuery url.Values
		gotAuth  string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Countries/5/Cities", func(w http.ResponseWriter, r *http.Request) {
		gotQuery, gotAuth = r.URL.Query(), r.Header.Get("Authorization")
		q, err := listquery.ParseValues(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, listquery.NewResult([]sdk.City{{ID: 1, Name: "TestCity1"}}, q, 3))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	q := listquery.Build(1, 2, "name", listquery.Desc,
		listquery.WithFilter("name", "Test"),
		listquery.WithSubResource("Cities", "5"))
	res, err := List[sdk.City](context.Background(), c, sdk.Countries.Endpoint(), q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	v := gotQuery
	if v.Get("pageIndex") != "1" || v.Get("pageSize") != "2" || v.Get("sortOrder") != "desc" || v.Get("filterQuery") != "Test" {
		t.Fatalf("query params %v", v)
	}
	if gotAuth != "" {
		t.Fatalf("unexpected auth header without a session")
	}
	if res.TotalCount != 3 || res.TotalPages != 2 || len(res.Data) != 1 || res.Data[0].Name != "TestCity1" {
		t.Fatalf("result %+v", res)
	}
	if diff := cmp.Diff(q.Filter, res.Query().Filter); diff != "" {
		t.Fatalf("echoed filter (-want +got):\n%s", diff)
	}
}

func TestBearerFromTokenSource(t *testing.T) {
	var (
		mu    sync.Mutex
		auths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, sdk.City{ID: 1})
	}))
	defer srv.Close()

	tok := "t1"
	c := New(srv.URL, WithTokenSource(func() string { return tok }))
	ctx := context.Background()
	if _, err := c.Cities().Get(ctx, "1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	tok = ""
	if _, err := c.Cities().Get(ctx, "1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	tok = "t2"
	if _, err := c.Cities().Get(ctx, "1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"Bearer t1", "", "Bearer t2"}, auths); diff != "" {
		t.Fatalf("auth headers (-want +got):\n%s", diff)
	}
}

func TestUnderBase(t *testing.T) {
	c := New("https://api.example.com/")
	for u, want := range map[string]bool{
		"https://api.example.com":                 true,
		"https://api.example.com/api/Cities":      true,
		"https://api.example.com?x=1":             true,
		"https://api.example.com.evil.io/api":     false,
		"https://maps.example.com/embed?q=Boerne": false,
	} {
		if got := c.underBase(u); got != want {
			t.Fatalf("underBase(%q) = %v", u, got)
		}
	}
}

func TestUnauthorizedHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"title": "Forbidden", "status": 403, "detail": "forbidden"})
	}))
	defer srv.Close()

	var status int
	c := New(srv.URL, WithToken("x"), WithUnauthorizedHandler(func(s int) { status = s }))
	err := c.Cities().Delete(context.Background(), "1")
	if !IsUnauthorized(err) {
		t.Fatalf("err %v", err)
	}
	if status != http.StatusForbidden {
		t.Fatalf("handler status %d", status)
	}
}

func TestSessionCallsSkipUnauthorizedHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"title": "Unauthorized", "status": 401, "detail": "Invalid refresh token."})
	}))
	defer srv.Close()

	calls := 0
	c := New(srv.URL, WithToken("x"), WithUnauthorizedHandler(func(int) { calls++ }))
	ctx := context.Background()
	if _, err := c.Login(ctx, sdk.LoginRequest{Email: "a@b.c", Password: "x"}); !IsUnauthorized(err) {
		t.Fatalf("login err %v", err)
	}
	if _, err := c.Refresh(ctx, "rt"); !IsUnauthorized(err) {
		t.Fatalf("refresh err %v", err)
	}
	if err := c.Revoke(ctx, "x", "rt"); !IsUnauthorized(err) {
		t.Fatalf("revoke err %v", err)
	}
	if calls != 0 {
		t.Fatalf("handler called %d times for session calls", calls)
	}
	if _, err := c.Cities().Get(ctx, "1"); !IsUnauthorized(err) {
		t.Fatalf("get err %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler called %d times", calls)
	}
}

func TestAPIErrorKeepsServerText(t *testing.T) {
	const msg = "The country cannot be deleted: 12 cities reference it."
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"title": "Conflict", "status": 409, "detail": msg})
	}))
	defer srv.Close()

	err := New(srv.URL).Countries().Delete(context.Background(), "1")
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("err %T %v", err, err)
	}
	if ae.Status != http.StatusConflict || ae.Message != msg {
		t.Fatalf("api error %+v", ae)
	}
	if IsTransport(err) || IsUnauthorized(err) {
		t.Fatalf("misclassified %v", err)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base).Cities().List(context.Background(), listquery.Default())
	if !IsTransport(err) {
		t.Fatalf("err %T %v", err, err)
	}
}

func TestEntityCRUD(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	count := func(k string) {
		mu.Lock()
		calls[k]++
		mu.Unlock()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Countries", func(w http.ResponseWriter, r *http.Request) {
		count(r.Method + " list")
		var c sdk.Country
		_ = json.NewDecoder(r.Body).Decode(&c)
		c.ID = 9
		writeJSON(w, http.StatusCreated, c)
	})
	mux.HandleFunc("/api/Countries/9", func(w http.ResponseWriter, r *http.Request) {
		count(r.Method + " item")
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPut:
			var c sdk.Country
			_ = json.NewDecoder(r.Body).Decode(&c)
			writeJSON(w, http.StatusOK, c)
		default:
			writeJSON(w, http.StatusOK, sdk.Country{ID: 9, Name: "Italy"})
		}
	})
	mux.HandleFunc("/api/Countries/IsDupeCountry", func(w http.ResponseWriter, r *http.Request) {
		count("dupe")
		var c sdk.Country
		_ = json.NewDecoder(r.Body).Decode(&c)
		writeJSON(w, http.StatusOK, c.Name == "Italy")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	countries := New(srv.URL).Countries()
	created, err := countries.Create(ctx, sdk.Country{Name: "Italy", ISO2: "IT", ISO3: "ITA"})
	if err != nil || created.ID != 9 {
		t.Fatalf("create %+v %v", created, err)
	}
	got, err := countries.Get(ctx, "9")
	if err != nil || got.Name != "Italy" {
		t.Fatalf("get %+v %v", got, err)
	}
	got.Name = "Italia"
	updated, err := countries.Update(ctx, "9", got)
	if err != nil || updated.Name != "Italia" {
		t.Fatalf("update %+v %v", updated, err)
	}
	dupe, err := countries.IsDupe(ctx, sdk.Country{Name: "Italy"})
	if err != nil || !dupe {
		t.Fatalf("dupe %v %v", dupe, err)
	}
	if err := countries.Delete(ctx, "9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	want := map[string]int{"POST list": 1, "GET item": 1, "PUT item": 1, "DELETE item": 1, "dupe": 1}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
}
