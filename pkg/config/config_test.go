package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("WORLDCTL_HOME", "")

	cfg := &File{
		Active: "p1",
		Profiles: map[string]Profile{
			"p1": {
				Name: "p1", APIURL: "http://api", Token: "tok", RefreshToken: "rt",
				TokenExpiry: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
				User:        &User{ID: "u1", Name: "admin", Email: "admin@email.com", Roles: []string{"Administrator"}},
				Insecure:    true,
				Notify:      Notify{RedisURL: "redis://localhost:6379/0"},
			},
		},
		Version: 1,
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := Path()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v", info.Mode().Perm())
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("cfg diff (-want +got)\n%s", diff)
	}
}

func TestUpdateClearSession(t *testing.T) {
	t.Setenv("WORLDCTL_HOME", t.TempDir())

	if err := Update("", func(p *Profile) {
		p.APIURL = "http://api"
		p.Token = "tok"
		p.User = &User{Name: "x"}
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	f, _ := Load()
	if got := f.Profiles[DefaultProfile]; !got.LoggedIn() || got.Name != DefaultProfile {
		t.Fatalf("profile %+v", got)
	}
	if err := Update(DefaultProfile, (*Profile).ClearSession); err != nil {
		t.Fatalf("clear: %v", err)
	}
	f, _ = Load()
	got := f.Profiles[DefaultProfile]
	if got.LoggedIn() || got.User != nil || got.APIURL != "http://api" {
		t.Fatalf("cleared profile %+v", got)
	}
}
