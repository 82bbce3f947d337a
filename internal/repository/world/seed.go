package worldrepo

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial dataset. Users carry plain passwords that are hashed
// on load.
type Seed struct {
	Countries    []sdk.Country     `yaml:"countries"`
	AdminRegions []sdk.AdminRegion `yaml:"adminRegions"`
	Cities       []sdk.City        `yaml:"cities"`
	Users        []sdk.User        `yaml:"users"`
}

// LoadSeed reads a seed file, or the built-in dataset when path is empty.
func LoadSeed(path string) (Seed, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Seed{}, fmt.Errorf("read seed: %w", err)
		}
		data = b
	}
	var sd Seed
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return sd, nil
}

// Load inserts sd keeping its ids. Records are validated in dependency
// order so references must point backwards.
func (s *Store) Load(sd Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range sd.Countries {
		if err := s.checkCountry(&c); err != nil {
			return fmt.Errorf("seed country %d: %w", c.ID, err)
		}
		if c.ID <= 0 || s.dupeCountry(c) {
			return fmt.Errorf("seed country %d: %w", c.ID, sdk.ErrDuplicate)
		}
		s.seen(sdk.Countries, c.ID)
		s.countries.put(c)
	}
	for _, a := range sd.AdminRegions {
		if err := s.checkRegion(&a); err != nil {
			return fmt.Errorf("seed admin region %d: %w", a.ID, err)
		}
		if a.ID <= 0 || s.dupeRegion(a) {
			return fmt.Errorf("seed admin region %d: %w", a.ID, sdk.ErrDuplicate)
		}
		s.seen(sdk.AdminRegions, a.ID)
		s.regions.put(a)
	}
	for _, c := range sd.Cities {
		if err := s.checkCity(&c); err != nil {
			return fmt.Errorf("seed city %d: %w", c.ID, err)
		}
		if c.ID <= 0 || s.dupeCity(c) {
			return fmt.Errorf("seed city %d: %w", c.ID, sdk.ErrDuplicate)
		}
		s.seen(sdk.Cities, c.ID)
		s.cities.put(c)
	}
	for _, u := range sd.Users {
		if _, err := s.createUser(u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return nil
}
