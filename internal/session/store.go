package session

import (
	"slices"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/config"
)

// ProfileStore keeps an identity in a worldctl profile so the next command
// starts signed in.
type ProfileStore struct {
	// Profile is the profile name; empty means the active profile.
	Profile string
}

// Load returns the identity stored in the profile.
func (s ProfileStore) Load() (Identity, bool, error) {
	f, err := config.Load()
	if err != nil {
		return Identity{}, false, err
	}
	name := s.Profile
	if name == "" {
		name = f.Active
	}
	p, ok := f.Profiles[name]
	if !ok || !p.LoggedIn() {
		return Identity{}, false, nil
	}
	return fromProfile(p), true, nil
}

// Save writes id to the profile, or clears the session when ok is false.
func (s ProfileStore) Save(id Identity, ok bool) error {
	return config.Update(s.Profile, func(p *config.Profile) {
		if !ok {
			p.ClearSession()
			return
		}
		p.Token = id.Token
		p.RefreshToken = id.RefreshToken
		p.TokenExpiry = id.TokenExpiry
		p.User = &config.User{ID: id.ID, Name: id.Name, Email: id.Email, Roles: slices.Clone(id.Roles)}
	})
}

func fromProfile(p config.Profile) Identity {
	id := Identity{Token: p.Token, RefreshToken: p.RefreshToken, TokenExpiry: p.TokenExpiry}
	if p.User != nil {
		id.ID, id.Name, id.Email = p.User.ID, p.User.Name, p.User.Email
		id.Roles = slices.Clone(p.User.Roles)
	}
	return id
}

// Persist saves every identity change of g into s. Errors go to g's logger.
// It returns the unsubscribe function.
func Persist(g *Gate, s ProfileStore) func() {
	return g.Subscribe(func(id Identity, ok bool) {
		if err := s.Save(id, ok); err != nil {
			g.logger.Warnw("persist session failed", "err", err)
		}
	})
}
