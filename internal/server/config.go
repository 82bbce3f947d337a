package server

import (
	"errors"
	"time"
)

// Config holds the API server settings.
type Config struct {
	Addr           string
	JWTSecret      string
	JWTTTL         time.Duration
	RefreshTTL     time.Duration
	AllowedOrigins []string
	// SeedFile replaces the embedded dataset when set.
	SeedFile     string
	PasswordCost int
	SecureCookie bool
	// PurgeEvery is the interval of the expired refresh token purge.
	PurgeEvery   time.Duration
	GaugeEvery   time.Duration
	EventsConfig string
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is not set"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.RefreshTTL <= c.JWTTTL {
		errs = append(errs, errors.New("REFRESH_TTL must exceed JWT_TTL"))
	}
	if c.PurgeEvery <= 0 || c.GaugeEvery <= 0 {
		errs = append(errs, errors.New("job intervals must be positive"))
	}
	return errors.Join(errs...)
}
