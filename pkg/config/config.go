package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// DefaultProfile is used when no profile is active.
const DefaultProfile = "default"

// User is the identity cached with a session.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}

// Notify mirrors status messages to Redis when RedisURL is set.
type Notify struct {
	RedisURL string `json:"redisUrl,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

type Profile struct {
	Name         string    `json:"name"`
	APIURL       string    `json:"apiUrl"`
	Token        string    `json:"token,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenExpiry  time.Time `json:"tokenExpiry"`
	User         *User     `json:"user,omitempty"`
	Insecure     bool      `json:"insecure"`
	RateLimit    float64   `json:"rateLimit,omitempty"`
	Notify       Notify    `json:"notify"`
}

// LoggedIn reports whether the profile holds a session.
func (p Profile) LoggedIn() bool { return p.Token != "" }

// ClearSession drops the cached session and keeps the endpoint settings.
func (p *Profile) ClearSession() {
	p.Token = ""
	p.RefreshToken = ""
	p.TokenExpiry = time.Time{}
	p.User = nil
}

type File struct {
	Active   string             `json:"active"`
	Profiles map[string]Profile `json:"profiles"`
	Version  int                `json:"version"`
}

// Dir is the configuration directory, ~/.worldctl unless WORLDCTL_HOME is
// set.
func Dir() (string, error) {
	if d := os.Getenv("WORLDCTL_HOME"); d != "" {
		return d, os.MkdirAll(d, 0o700)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".worldctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func Load() (*File, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{Active: DefaultProfile, Profiles: map[string]Profile{}, Version: 1}, nil
		}
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Profiles == nil {
		f.Profiles = map[string]Profile{}
	}
	if f.Active == "" {
		f.Active = DefaultProfile
	}
	if f.Version == 0 {
		f.Version = 1
	}
	return &f, nil
}

func Save(f *File) error {
	p, err := Path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Update loads the file, applies fn to the named profile and saves it.
// An empty name selects the active profile.
func Update(name string, fn func(*Profile)) error {
	f, err := Load()
	if err != nil {
		return err
	}
	if name == "" {
		name = f.Active
	}
	p := f.Profiles[name]
	p.Name = name
	fn(&p)
	f.Profiles[name] = p
	return Save(f)
}
