package sdk

import (
	"strconv"
	"strings"
	"time"
)

// Record is implemented by every entity the API lists. Field returns the
// value of a wire column (json name) and is what sorting, filtering and
// table rendering read.
type Record interface {
	Key() string
	Field(column string) (any, bool)
}

// City is a populated place.
type City struct {
	ID              int64   `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Lat             float64 `json:"lat" yaml:"lat"`
	Lon             float64 `json:"lon" yaml:"lon"`
	Population      int64   `json:"population" yaml:"population"`
	CountryID       int64   `json:"countryId" yaml:"countryId"`
	CountryName     string  `json:"countryName,omitempty" yaml:"countryName,omitempty"`
	AdminRegionID   int64   `json:"adminRegionId,omitempty" yaml:"adminRegionId,omitempty"`
	AdminRegionName string  `json:"adminRegionName,omitempty" yaml:"adminRegionName,omitempty"`
}

func (c City) Key() string { return strconv.FormatInt(c.ID, 10) }

func (c City) Field(column string) (any, bool) {
	switch column {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "lat":
		return c.Lat, true
	case "lon":
		return c.Lon, true
	case "population":
		return c.Population, true
	case "countryId":
		return c.CountryID, true
	case "countryName":
		return c.CountryName, true
	case "adminRegionId":
		return c.AdminRegionID, true
	case "adminRegionName":
		return c.AdminRegionName, true
	}
	return nil, false
}

// Country is a sovereign state with its ISO 3166 codes.
type Country struct {
	ID              int64  `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	ISO2            string `json:"iso2" yaml:"iso2"`
	ISO3            string `json:"iso3" yaml:"iso3"`
	TotCities       int    `json:"totCities" yaml:"totCities"`
	TotAdminRegions int    `json:"totAdminRegions" yaml:"totAdminRegions"`
}

func (c Country) Key() string { return strconv.FormatInt(c.ID, 10) }

func (c Country) Field(column string) (any, bool) {
	switch column {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "iso2":
		return c.ISO2, true
	case "iso3":
		return c.ISO3, true
	case "totCities":
		return c.TotCities, true
	case "totAdminRegions":
		return c.TotAdminRegions, true
	}
	return nil, false
}

// AdminRegion is a first level administrative division of a country.
type AdminRegion struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Code        string `json:"code" yaml:"code"`
	CountryID   int64  `json:"countryId" yaml:"countryId"`
	CountryName string `json:"countryName,omitempty" yaml:"countryName,omitempty"`
	TotCities   int    `json:"totCities" yaml:"totCities"`
}

func (a AdminRegion) Key() string { return strconv.FormatInt(a.ID, 10) }

func (a AdminRegion) Field(column string) (any, bool) {
	switch column {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	case "code":
		return a.Code, true
	case "countryId":
		return a.CountryID, true
	case "countryName":
		return a.CountryName, true
	case "totCities":
		return a.TotCities, true
	}
	return nil, false
}

// User is an account of the API. Password is only sent, never returned.
type User struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Email    string   `json:"email" yaml:"email"`
	Roles    []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
}

func (u User) Key() string { return u.ID }

func (u User) Field(column string) (any, bool) {
	switch column {
	case "id":
		return u.ID, true
	case "name":
		return u.Name, true
	case "email":
		return u.Email, true
	case "roles":
		return strings.Join(u.Roles, ", "), true
	}
	return nil, false
}

// RoleAdministrator grants write access to every entity.
const (
	RoleAdministrator  = "Administrator"
	RoleRegisteredUser = "RegisteredUser"
)

// RefreshCookie is the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by login and refresh. RefreshToken is read from
// the refresh cookie, not from the body.
type LoginResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Token        string    `json:"token,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
	User         *User     `json:"user,omitempty"`
	RefreshToken string    `json:"-"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RevokeRequest struct {
	Token string `json:"token,omitempty"`
}

type DupeEmailRequest struct {
	Email string `json:"email"`
}

// MeCapabilities lists what the caller may do, keyed "<entity>:<action>",
// e.g. "cities:delete".
type MeCapabilities struct {
	Subject      string          `json:"subject"`
	Roles        []string        `json:"roles"`
	Capabilities map[string]bool `json:"capabilities"`
}
