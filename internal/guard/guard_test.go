package guard

import "testing"

type fakeSession struct{ authed, admin bool }

func (f *fakeSession) IsAuthenticated() bool { return f.authed }
func (f *fakeSession) IsAdministrator() bool { return f.admin }

func TestCheck(t *testing.T) {
	s := &fakeSession{}
	g, err := New(s)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cases := []struct {
		route               string
		anon, authed, admin bool
	}{
		{"/", true, true, true},
		{"/cities", true, true, true},
		{"/cities/", true, true, true},
		{"/Cities", true, true, true},
		{"/Countries/12/Cities", true, true, true},
		{"/City/7", false, false, true},
		{"/countries/12/cities?pageIndex=2", true, true, true},
		{"/profile", false, true, true},
		{"/city/7", false, false, true},
		{"/users", false, false, true},
		{"/nowhere", false, false, false},
	}
	for _, tc := range cases {
		for _, sess := range []struct {
			name        string
			authed, adm bool
			want        bool
		}{
			{"anonymous", false, false, tc.anon},
			{"authenticated", true, false, tc.authed},
			{"administrator", true, true, tc.admin},
		} {
			// the session is re-read on every check
			s.authed, s.admin = sess.authed, sess.adm
			if got := g.Allowed(tc.route); got != sess.want {
				t.Fatalf("%s %s: allowed=%v", sess.name, tc.route, got)
			}
		}
	}
}

func TestRedirectKeepsReturnURL(t *testing.T) {
	g, err := New(&fakeSession{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	d := g.Check("/city/7?tab=map")
	if d.Allowed || d.Redirect != "/login?returnUrl=%2Fcity%2F7%3Ftab%3Dmap" {
		t.Fatalf("decision %+v", d)
	}
	if d := g.Check("/login"); !d.Allowed || d.Redirect != "" {
		t.Fatalf("login route denied: %+v", d)
	}
}

func TestCustomRules(t *testing.T) {
	g, err := New(nil, Rule{Anonymous, "/Maps/*"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !g.Allowed("/maps/Boerne") || !g.Allowed("/MAPS/boerne") || g.Allowed("/cities") {
		t.Fatalf("custom rules not applied")
	}
}
