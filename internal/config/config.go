// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
)

// Config carries everything cmd/api needs to wire the service.
type Config struct {
	ListenAddr string

	// Remote verifier settings. Issuer enables JWKS verification; JWKSURL
	// overrides the Okta-style default of <issuer>/v1/keys.
	Issuer   string
	Audience string
	JWKSURL  string

	// DevSecret enables the local HS256 issuer/verifier when no remote
	// issuer is configured.
	DevSecret string

	// AdminGroup is the identity-provider group required by admin routes.
	AdminGroup string

	// PostgresDSN switches the repositories from memory to Postgres.
	PostgresDSN string

	RateBurst     int
	RatePerSecond int
}

// Load reads configuration from AUTHGATE_* environment variables, applying
// defaults for everything optional.
func Load() *Config {
	return &Config{
		ListenAddr:    getEnv("AUTHGATE_LISTEN_ADDR", ":8080"),
		Issuer:        os.Getenv("AUTHGATE_ISSUER"),
		Audience:      getEnv("AUTHGATE_AUDIENCE", "api://default"),
		JWKSURL:       os.Getenv("AUTHGATE_JWKS_URL"),
		DevSecret:     os.Getenv("AUTHGATE_DEV_SECRET"),
		AdminGroup:    getEnv("AUTHGATE_ADMIN_GROUP", "Mi casa - Admin"),
		PostgresDSN:   os.Getenv("AUTHGATE_PG_DSN"),
		RateBurst:     getEnvAsInt("AUTHGATE_RATE_BURST", 20),
		RatePerSecond: getEnvAsInt("AUTHGATE_RATE_PER_SECOND", 10),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
