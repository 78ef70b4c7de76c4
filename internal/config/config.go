package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the operator-supplied runtime configuration, sourced from the
// environment. The signing secret is never embedded in the repository.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string
	// DatabaseDSN is the PostgreSQL connection string. Empty disables
	// persistence-backed endpoints (useful for smoke runs).
	DatabaseDSN string
	// AuthSecret signs identity tokens.
	AuthSecret string
	// TokenLifetime bounds issued token validity.
	TokenLifetime time.Duration
	// Environment is development, staging or production.
	Environment string
}

const (
	envListenAddr    = "PSA_LISTEN_ADDR"
	envDatabaseDSN   = "PSA_PG_DSN"
	envAuthSecret    = "PSA_AUTH_SECRET"
	envTokenLifetime = "PSA_TOKEN_LIFETIME_HOURS"
	envEnvironment   = "PSA_ENVIRONMENT"
)

// FromEnv loads configuration from environment variables with development
// defaults. The auth secret has no default: token issuance and validation are
// impossible without it.
func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:    getenv(envListenAddr, ":8080"),
		DatabaseDSN:   strings.TrimSpace(os.Getenv(envDatabaseDSN)),
		AuthSecret:    strings.TrimSpace(os.Getenv(envAuthSecret)),
		TokenLifetime: 24 * time.Hour,
		Environment:   getenv(envEnvironment, "development"),
	}
	if cfg.AuthSecret == "" {
		return Config{}, errors.New("config: " + envAuthSecret + " is required")
	}
	if raw := strings.TrimSpace(os.Getenv(envTokenLifetime)); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, errors.New("config: " + envTokenLifetime + " must be a positive integer")
		}
		cfg.TokenLifetime = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
