package server

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgutil "github.com/jlvsolutions/WorldCities-sub000/pkg/util"
)

// ConfigFromEnv reads Config from the environment, filling defaults.
func ConfigFromEnv() Config {
	return Config{
		Addr:           pkgutil.GetEnv("ADDR", ":8080"),
		JWTSecret:      pkgutil.GetEnv("JWT_SECRET", ""),
		JWTTTL:         pkgutil.GetDuration("JWT_TTL", 15*time.Minute),
		RefreshTTL:     pkgutil.GetDuration("REFRESH_TTL", 7*24*time.Hour),
		AllowedOrigins: allowedOrigins(),
		SeedFile:       pkgutil.GetEnv("SEED_FILE", ""),
		PasswordCost:   pkgutil.GetInt("PASSWORD_COST", bcrypt.DefaultCost),
		SecureCookie:   pkgutil.GetBool("SECURE_COOKIE", true),
		PurgeEvery:     pkgutil.GetDuration("REFRESH_PURGE_EVERY", time.Hour),
		GaugeEvery:     pkgutil.GetDuration("RECORD_GAUGE_EVERY", time.Minute),
		EventsConfig:   pkgutil.GetEnv("EVENTS_CONFIG", ""),
	}
}

// allowedOrigins returns the list of origins allowed for CORS.
func allowedOrigins() []string {
	return pkgutil.SplitCSV(pkgutil.GetEnv("ALLOWED_ORIGINS", "http://localhost:4200"))
}
