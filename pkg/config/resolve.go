package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables read by Resolve.
const (
	EnvAPIURL   = "WORLDCTL_API_URL"
	EnvToken    = "WORLDCTL_TOKEN"
	EnvInsecure = "WORLDCTL_INSECURE"
)

type Resolved struct {
	APIURL    string
	Token     string
	Profile   string
	Insecure  bool
	RateLimit float64
	Settings  Profile
}

var dotenv sync.Once

// LoadDotEnv reads ./.env once. Variables already set win.
func LoadDotEnv() {
	dotenv.Do(func() { _ = godotenv.Load() })
}

// Resolve merges flags, environment and the selected profile, in that
// order of precedence. The token may be empty; only the API URL is
// required.
func Resolve(cmd *cobra.Command) (Resolved, error) {
	LoadDotEnv()
	flagURL, _ := cmd.Root().PersistentFlags().GetString("api-url")
	flagToken, _ := cmd.Root().PersistentFlags().GetString("token")
	flagInsecure, _ := cmd.Root().PersistentFlags().GetBool("insecure")

	envURL := os.Getenv(EnvAPIURL)
	envToken := os.Getenv(EnvToken)
	envInsecure, _ := strconv.ParseBool(os.Getenv(EnvInsecure))

	cfg, err := Load()
	if err != nil {
		return Resolved{}, err
	}
	prof := cfg.Active
	if p, _ := cmd.Root().PersistentFlags().GetString("profile"); p != "" {
		prof = p
	}
	cp := cfg.Profiles[prof]

	url := firstNonEmpty(flagURL, envURL, cp.APIURL)
	tok := firstNonEmpty(flagToken, envToken, cp.Token)
	if url == "" {
		return Resolved{}, fmt.Errorf("API URL not set (flag/env/config)")
	}

	return Resolved{
		APIURL:    strings.TrimSuffix(url, "/"),
		Token:     tok,
		Profile:   prof,
		Insecure:  flagInsecure || envInsecure || cp.Insecure,
		RateLimit: cp.RateLimit,
		Settings:  cp,
	}, nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
