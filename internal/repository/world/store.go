package worldrepo

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// account is a user with its password hash.
type account struct {
	sdk.User
	hash []byte
}

func (a account) public() sdk.User {
	u := a.User
	u.Password = ""
	u.Roles = append([]string(nil), a.Roles...)
	return u
}

// Store holds the whole dataset. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	cost      int
	cities    *table[sdk.City]
	countries *table[sdk.Country]
	regions   *table[sdk.AdminRegion]
	users     *table[account]
	lastID    map[sdk.Entity]int64
	newUserID func() string
}

type Option func(*Store)

// WithPasswordCost sets the bcrypt cost used for new passwords.
func WithPasswordCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// WithUserIDs replaces the generator of user ids.
func WithUserIDs(fn func() string) Option {
	return func(s *Store) { s.newUserID = fn }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		cost:      bcrypt.DefaultCost,
		cities:    newTable[sdk.City](),
		countries: newTable[sdk.Country](),
		regions:   newTable[sdk.AdminRegion](),
		users:     newTable[account](),
		lastID:    map[sdk.Entity]int64{},
		newUserID: newUUID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func key(id int64) string { return strconv.FormatInt(id, 10) }

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	return n, err == nil && n > 0
}

func (s *Store) nextID(e sdk.Entity) int64 {
	s.lastID[e]++
	return s.lastID[e]
}

func (s *Store) seen(e sdk.Entity, id int64) {
	if id > s.lastID[e] {
		s.lastID[e] = id
	}
}

// CountRecords returns the number of records per collection.
func (s *Store) CountRecords(context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		string(sdk.Cities):       s.cities.len(),
		string(sdk.Countries):    s.countries.len(),
		string(sdk.AdminRegions): s.regions.len(),
		string(sdk.Users):        s.users.len(),
	}, nil
}

// ---- enrichment, called with s.mu held ----

func (s *Store) cityView(c sdk.City) sdk.City {
	if co, ok := s.countries.get(key(c.CountryID)); ok {
		c.CountryName = co.Name
	}
	if c.AdminRegionID != 0 {
		if r, ok := s.regions.get(key(c.AdminRegionID)); ok {
			c.AdminRegionName = r.Name
		}
	}
	return c
}

func (s *Store) countryView(c sdk.Country) sdk.Country {
	c.TotCities = s.cities.count(func(x sdk.City) bool { return x.CountryID == c.ID })
	c.TotAdminRegions = s.regions.count(func(x sdk.AdminRegion) bool { return x.CountryID == c.ID })
	return c
}

func (s *Store) regionView(r sdk.AdminRegion) sdk.AdminRegion {
	if co, ok := s.countries.get(key(r.CountryID)); ok {
		r.CountryName = co.Name
	}
	r.TotCities = s.cities.count(func(x sdk.City) bool { return x.AdminRegionID == r.ID })
	return r
}

// ---- validation, called with s.mu held ----

func (s *Store) checkCity(c *sdk.City) error {
	c.Name = strings.TrimSpace(c.Name)
	c.CountryName, c.AdminRegionName = "", ""
	if c.Name == "" {
		return sdk.Errorf(sdk.ErrInvalid, "The city name is required.")
	}
	if math.Abs(c.Lat) > 90 || math.Abs(c.Lon) > 180 {
		return sdk.Errorf(sdk.ErrInvalid, "The coordinates %v, %v are out of range.", c.Lat, c.Lon)
	}
	if c.Population < 0 {
		return sdk.Errorf(sdk.ErrInvalid, "The population cannot be negative.")
	}
	if _, ok := s.countries.get(key(c.CountryID)); !ok {
		return sdk.Errorf(sdk.ErrInvalid, "Country %d does not exist.", c.CountryID)
	}
	if c.AdminRegionID != 0 {
		r, ok := s.regions.get(key(c.AdminRegionID))
		if !ok {
			return sdk.Errorf(sdk.ErrInvalid, "Admin region %d does not exist.", c.AdminRegionID)
		}
		if r.CountryID != c.CountryID {
			return sdk.Errorf(sdk.ErrInvalid, "Admin region %s does not belong to country %d.", r.Name, c.CountryID)
		}
	}
	return nil
}

func (s *Store) checkCountry(c *sdk.Country) error {
	c.Name = strings.TrimSpace(c.Name)
	c.ISO2 = strings.ToUpper(strings.TrimSpace(c.ISO2))
	c.ISO3 = strings.ToUpper(strings.TrimSpace(c.ISO3))
	c.TotCities, c.TotAdminRegions = 0, 0
	switch {
	case c.Name == "":
		return sdk.Errorf(sdk.ErrInvalid, "The country name is required.")
	case len(c.ISO2) != 2:
		return sdk.Errorf(sdk.ErrInvalid, "ISO2 must have 2 letters.")
	case len(c.ISO3) != 3:
		return sdk.Errorf(sdk.ErrInvalid, "ISO3 must have 3 letters.")
	}
	return nil
}

func (s *Store) checkRegion(r *sdk.AdminRegion) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)
	r.CountryName, r.TotCities = "", 0
	if r.Name == "" {
		return sdk.Errorf(sdk.ErrInvalid, "The admin region name is required.")
	}
	if _, ok := s.countries.get(key(r.CountryID)); !ok {
		return sdk.Errorf(sdk.ErrInvalid, "Country %d does not exist.", r.CountryID)
	}
	return nil
}

func (s *Store) checkUser(u *sdk.User, create bool) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	switch {
	case u.Name == "":
		return sdk.Errorf(sdk.ErrInvalid, "The user name is required.")
	case !strings.Contains(u.Email, "@"):
		return sdk.Errorf(sdk.ErrInvalid, "%q is not a valid email address.", u.Email)
	case create && u.Password == "":
		return sdk.Errorf(sdk.ErrInvalid, "A password is required.")
	}
	return nil
}

// ---- duplicate rules, called with s.mu held ----

func (s *Store) dupeCity(c sdk.City) bool {
	return s.cities.any(func(x sdk.City) bool {
		return x.ID != c.ID && strings.EqualFold(x.Name, strings.TrimSpace(c.Name)) &&
			x.Lat == c.Lat && x.Lon == c.Lon && x.CountryID == c.CountryID
	})
}

func (s *Store) dupeCountry(c sdk.Country) bool {
	name, iso2, iso3 := strings.TrimSpace(c.Name), strings.TrimSpace(c.ISO2), strings.TrimSpace(c.ISO3)
	return s.countries.any(func(x sdk.Country) bool {
		if x.ID == c.ID {
			return false
		}
		return (name != "" && strings.EqualFold(x.Name, name)) ||
			(iso2 != "" && strings.EqualFold(x.ISO2, iso2)) ||
			(iso3 != "" && strings.EqualFold(x.ISO3, iso3))
	})
}

func (s *Store) dupeRegion(r sdk.AdminRegion) bool {
	return s.regions.any(func(x sdk.AdminRegion) bool {
		return x.ID != r.ID && x.CountryID == r.CountryID && strings.EqualFold(x.Name, strings.TrimSpace(r.Name))
	})
}

func (s *Store) dupeUser(u sdk.User) bool {
	name, email := strings.TrimSpace(u.Name), strings.TrimSpace(u.Email)
	return s.users.any(func(x account) bool {
		if x.ID == u.ID {
			return false
		}
		return (email != "" && strings.EqualFold(x.Email, email)) || (name != "" && strings.EqualFold(x.Name, name))
	})
}

func (s *Store) hash(pw string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

func isAdmin(roles []string) bool {
	for _, r := range roles {
		if r == sdk.RoleAdministrator {
			return true
		}
	}
	return false
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles)+1)
	seen := map[string]bool{}
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	if !seen[sdk.RoleRegisteredUser] {
		out = append([]string{sdk.RoleRegisteredUser}, out...)
	}
	return out
}
