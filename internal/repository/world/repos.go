package worldrepo

import (
	"context"

	"github.com/google/uuid"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func newUUID() string { return uuid.NewString() }

type (
	cityRepo    struct{ s *Store }
	countryRepo struct{ s *Store }
	regionRepo  struct{ s *Store }
	userRepo    struct{ s *Store }
)

func (s *Store) Cities() Repo[sdk.City]              { return cityRepo{s} }
func (s *Store) Countries() Repo[sdk.Country]        { return countryRepo{s} }
func (s *Store) AdminRegions() Repo[sdk.AdminRegion] { return regionRepo{s} }
func (s *Store) Users() Repo[sdk.User]               { return userRepo{s} }

func notFound(e sdk.Entity, id string) error {
	return sdk.Errorf(sdk.ErrNotFound, "%s %s was not found.", e.Singular(), id)
}

// ---- cities ----

func (r cityRepo) List(context.Context) ([]sdk.City, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.cityList(func(sdk.City) bool { return true }), nil
}

func (s *Store) cityList(keep func(sdk.City) bool) []sdk.City {
	out := []sdk.City{}
	for _, c := range s.cities.all() {
		if keep(c) {
			out = append(out, s.cityView(c))
		}
	}
	return out
}

func (r cityRepo) Get(_ context.Context, id string) (sdk.City, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.cities.get(id)
	if !ok {
		return sdk.City{}, notFound(sdk.Cities, id)
	}
	return r.s.cityView(c), nil
}

func (r cityRepo) Create(_ context.Context, c sdk.City) (sdk.City, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = 0
	if err := r.s.checkCity(&c); err != nil {
		return sdk.City{}, err
	}
	if r.s.dupeCity(c) {
		return sdk.City{}, sdk.Errorf(sdk.ErrDuplicate, "The city %s already exists at these coordinates.", c.Name)
	}
	c.ID = r.s.nextID(sdk.Cities)
	r.s.cities.put(c)
	return r.s.cityView(c), nil
}

func (r cityRepo) Update(_ context.Context, id string, c sdk.City) (sdk.City, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := parseID(id)
	if _, exists := r.s.cities.get(id); !ok || !exists {
		return sdk.City{}, notFound(sdk.Cities, id)
	}
	c.ID = n
	if err := r.s.checkCity(&c); err != nil {
		return sdk.City{}, err
	}
	if r.s.dupeCity(c) {
		return sdk.City{}, sdk.Errorf(sdk.ErrDuplicate, "The city %s already exists at these coordinates.", c.Name)
	}
	r.s.cities.put(c)
	return r.s.cityView(c), nil
}

func (r cityRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.cities.remove(id) {
		return notFound(sdk.Cities, id)
	}
	return nil
}

func (r cityRepo) IsDupe(_ context.Context, c sdk.City) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.dupeCity(c), nil
}

// CitiesOfCountry lists the cities of country id.
func (s *Store) CitiesOfCountry(_ context.Context, id string) ([]sdk.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	co, ok := s.countries.get(id)
	if !ok {
		return nil, notFound(sdk.Countries, id)
	}
	return s.cityList(func(c sdk.City) bool { return c.CountryID == co.ID }), nil
}

// CitiesOfRegion lists the cities of admin region id.
func (s *Store) CitiesOfRegion(_ context.Context, id string) ([]sdk.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.regions.get(id)
	if !ok {
		return nil, notFound(sdk.AdminRegions, id)
	}
	return s.cityList(func(c sdk.City) bool { return c.AdminRegionID == reg.ID }), nil
}

// ---- countries ----

func (r countryRepo) List(context.Context) ([]sdk.Country, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.s.countries.all()
	for i := range rows {
		rows[i] = r.s.countryView(rows[i])
	}
	return rows, nil
}

func (r countryRepo) Get(_ context.Context, id string) (sdk.Country, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.countries.get(id)
	if !ok {
		return sdk.Country{}, notFound(sdk.Countries, id)
	}
	return r.s.countryView(c), nil
}

func (r countryRepo) Create(_ context.Context, c sdk.Country) (sdk.Country, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = 0
	if err := r.s.checkCountry(&c); err != nil {
		return sdk.Country{}, err
	}
	if r.s.dupeCountry(c) {
		return sdk.Country{}, sdk.Errorf(sdk.ErrDuplicate, "A country named %s or coded %s/%s already exists.", c.Name, c.ISO2, c.ISO3)
	}
	c.ID = r.s.nextID(sdk.Countries)
	r.s.countries.put(c)
	return r.s.countryView(c), nil
}

func (r countryRepo) Update(_ context.Context, id string, c sdk.Country) (sdk.Country, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := parseID(id)
	if _, exists := r.s.countries.get(id); !ok || !exists {
		return sdk.Country{}, notFound(sdk.Countries, id)
	}
	c.ID = n
	if err := r.s.checkCountry(&c); err != nil {
		return sdk.Country{}, err
	}
	if r.s.dupeCountry(c) {
		return sdk.Country{}, sdk.Errorf(sdk.ErrDuplicate, "A country named %s or coded %s/%s already exists.", c.Name, c.ISO2, c.ISO3)
	}
	r.s.countries.put(c)
	return r.s.countryView(c), nil
}

func (r countryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.countries.get(id)
	if !ok {
		return notFound(sdk.Countries, id)
	}
	v := r.s.countryView(c)
	if v.TotCities > 0 || v.TotAdminRegions > 0 {
		return sdk.Errorf(sdk.ErrInUse, "The country %s cannot be deleted: %d cities and %d admin regions reference it.",
			c.Name, v.TotCities, v.TotAdminRegions)
	}
	r.s.countries.remove(id)
	return nil
}

func (r countryRepo) IsDupe(_ context.Context, c sdk.Country) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.dupeCountry(c), nil
}

// ---- admin regions ----

func (r regionRepo) List(context.Context) ([]sdk.AdminRegion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.regionList(func(sdk.AdminRegion) bool { return true }), nil
}

func (s *Store) regionList(keep func(sdk.AdminRegion) bool) []sdk.AdminRegion {
	out := []sdk.AdminRegion{}
	for _, a := range s.regions.all() {
		if keep(a) {
			out = append(out, s.regionView(a))
		}
	}
	return out
}

func (r regionRepo) Get(_ context.Context, id string) (sdk.AdminRegion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.regions.get(id)
	if !ok {
		return sdk.AdminRegion{}, notFound(sdk.AdminRegions, id)
	}
	return r.s.regionView(a), nil
}

func (r regionRepo) Create(_ context.Context, a sdk.AdminRegion) (sdk.AdminRegion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = 0
	if err := r.s.checkRegion(&a); err != nil {
		return sdk.AdminRegion{}, err
	}
	if r.s.dupeRegion(a) {
		return sdk.AdminRegion{}, sdk.Errorf(sdk.ErrDuplicate, "The admin region %s already exists in this country.", a.Name)
	}
	a.ID = r.s.nextID(sdk.AdminRegions)
	r.s.regions.put(a)
	return r.s.regionView(a), nil
}

func (r regionRepo) Update(_ context.Context, id string, a sdk.AdminRegion) (sdk.AdminRegion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := parseID(id)
	prev, exists := r.s.regions.get(id)
	if !ok || !exists {
		return sdk.AdminRegion{}, notFound(sdk.AdminRegions, id)
	}
	a.ID = n
	if err := r.s.checkRegion(&a); err != nil {
		return sdk.AdminRegion{}, err
	}
	if a.CountryID != prev.CountryID && r.s.cities.any(func(c sdk.City) bool { return c.AdminRegionID == n }) {
		return sdk.AdminRegion{}, sdk.Errorf(sdk.ErrInUse, "The admin region %s has cities and cannot move to another country.", prev.Name)
	}
	if r.s.dupeRegion(a) {
		return sdk.AdminRegion{}, sdk.Errorf(sdk.ErrDuplicate, "The admin region %s already exists in this country.", a.Name)
	}
	r.s.regions.put(a)
	return r.s.regionView(a), nil
}

func (r regionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.regions.get(id)
	if !ok {
		return notFound(sdk.AdminRegions, id)
	}
	if n := r.s.cities.count(func(c sdk.City) bool { return c.AdminRegionID == a.ID }); n > 0 {
		return sdk.Errorf(sdk.ErrInUse, "The admin region %s cannot be deleted: %d cities reference it.", a.Name, n)
	}
	r.s.regions.remove(id)
	return nil
}

func (r regionRepo) IsDupe(_ context.Context, a sdk.AdminRegion) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.dupeRegion(a), nil
}

// RegionsOfCountry lists the admin regions of country id.
func (s *Store) RegionsOfCountry(_ context.Context, id string) ([]sdk.AdminRegion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	co, ok := s.countries.get(id)
	if !ok {
		return nil, notFound(sdk.Countries, id)
	}
	return s.regionList(func(a sdk.AdminRegion) bool { return a.CountryID == co.ID }), nil
}

// ---- users ----

func (r userRepo) List(context.Context) ([]sdk.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]sdk.User, 0, r.s.users.len())
	for _, a := range r.s.users.all() {
		out = append(out, a.public())
	}
	return out, nil
}

func (r userRepo) Get(_ context.Context, id string) (sdk.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.users.get(id)
	if !ok {
		return sdk.User{}, notFound(sdk.Users, id)
	}
	return a.public(), nil
}

func (r userRepo) Create(_ context.Context, u sdk.User) (sdk.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createUser(u)
}

func (s *Store) createUser(u sdk.User) (sdk.User, error) {
	if err := s.checkUser(&u, true); err != nil {
		return sdk.User{}, err
	}
	if u.ID == "" {
		u.ID = s.newUserID()
	}
	if _, taken := s.users.get(u.ID); taken || s.dupeUser(u) {
		return sdk.User{}, sdk.Errorf(sdk.ErrDuplicate, "The user %s or email %s is already registered.", u.Name, u.Email)
	}
	h, err := s.hash(u.Password)
	if err != nil {
		return sdk.User{}, err
	}
	u.Roles = normalizeRoles(u.Roles)
	a := account{User: u, hash: h}
	a.Password = ""
	s.users.put(a)
	return a.public(), nil
}

func (r userRepo) Update(_ context.Context, id string, u sdk.User) (sdk.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.users.get(id)
	if !ok {
		return sdk.User{}, notFound(sdk.Users, id)
	}
	u.ID = id
	if err := r.s.checkUser(&u, false); err != nil {
		return sdk.User{}, err
	}
	if r.s.dupeUser(u) {
		return sdk.User{}, sdk.Errorf(sdk.ErrDuplicate, "The user %s or email %s is already registered.", u.Name, u.Email)
	}
	next := account{User: u, hash: prev.hash}
	if u.Roles == nil {
		next.Roles = prev.Roles
	}
	next.Roles = normalizeRoles(next.Roles)
	if isAdmin(prev.Roles) && !isAdmin(next.Roles) && r.s.admins() == 1 {
		return sdk.User{}, sdk.Errorf(sdk.ErrInUse, "The last administrator cannot lose the %s role.", sdk.RoleAdministrator)
	}
	if u.Password != "" {
		h, err := r.s.hash(u.Password)
		if err != nil {
			return sdk.User{}, err
		}
		next.hash = h
	}
	next.Password = ""
	r.s.users.put(next)
	return next.public(), nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.users.get(id)
	if !ok {
		return notFound(sdk.Users, id)
	}
	if isAdmin(a.Roles) && r.s.admins() == 1 {
		return sdk.Errorf(sdk.ErrInUse, "The last administrator cannot be deleted.")
	}
	r.s.users.remove(id)
	return nil
}

func (r userRepo) IsDupe(_ context.Context, u sdk.User) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.dupeUser(u), nil
}

func (s *Store) admins() int {
	return s.users.count(func(a account) bool { return isAdmin(a.Roles) })
}
