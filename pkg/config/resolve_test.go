package config

import (
	"testing"

	"github.com/spf13/cobra"
)

func newRoot() *cobra.Command {
	cmd := &cobra.Command{Use: "root"}
	cmd.PersistentFlags().String("api-url", "", "")
	cmd.PersistentFlags().String("token", "", "")
	cmd.PersistentFlags().String("profile", "", "")
	cmd.PersistentFlags().Bool("insecure", false, "")
	return cmd
}

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("WORLDCTL_HOME", t.TempDir())

	cfg := &File{Active: "default", Profiles: map[string]Profile{"default": {Name: "default", APIURL: "cfg", Token: "cfgtok"}}, Version: 1}
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Run("config", func(t *testing.T) {
		root := newRoot()
		r, err := Resolve(root)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if r.APIURL != "cfg" || r.Token != "cfgtok" {
			t.Fatalf("unexpected %+v", r)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("WORLDCTL_API_URL", "env")
		t.Setenv("WORLDCTL_TOKEN", "envtok")
		defer t.Setenv("WORLDCTL_API_URL", "")
		defer t.Setenv("WORLDCTL_TOKEN", "")
		root := newRoot()
		r, err := Resolve(root)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if r.APIURL != "env" || r.Token != "envtok" {
			t.Fatalf("unexpected %+v", r)
		}
	})

	t.Run("flag", func(t *testing.T) {
		root := newRoot()
		if err := root.PersistentFlags().Set("api-url", "flag"); err != nil {
			t.Fatalf("set api-url: %v", err)
		}
		if err := root.PersistentFlags().Set("token", "flagtok"); err != nil {
			t.Fatalf("set token: %v", err)
		}
		r, err := Resolve(root)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if r.APIURL != "flag" || r.Token != "flagtok" {
			t.Fatalf("unexpected %+v", r)
		}
	})

	t.Run("profile flag", func(t *testing.T) {
		cfg.Profiles["p2"] = Profile{Name: "p2", APIURL: "p2", Token: "p2tok"}
		if err := Save(cfg); err != nil {
			t.Fatalf("save: %v", err)
		}
		root := newRoot()
		if err := root.PersistentFlags().Set("profile", "p2"); err != nil {
			t.Fatalf("set profile: %v", err)
		}
		r, err := Resolve(root)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if r.APIURL != "p2" || r.Token != "p2tok" || r.Profile != "p2" {
			t.Fatalf("unexpected %+v", r)
		}
	})
}

func TestResolveWithoutToken(t *testing.T) {
	t.Setenv("WORLDCTL_HOME", t.TempDir())
	t.Setenv("WORLDCTL_API_URL", "")
	t.Setenv("WORLDCTL_TOKEN", "")

	root := newRoot()
	if _, err := Resolve(root); err == nil {
		t.Fatalf("expected error without API URL")
	}
	if err := root.PersistentFlags().Set("api-url", "https://localhost:40443/"); err != nil {
		t.Fatalf("set api-url: %v", err)
	}
	r, err := Resolve(root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.APIURL != "https://localhost:40443" || r.Token != "" || r.Profile != DefaultProfile {
		t.Fatalf("unexpected %+v", r)
	}
}
