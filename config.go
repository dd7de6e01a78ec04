package cloudauth

import (
	"encoding/json"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the service configuration, loaded once at process start.
type Config struct {
	Port    string `env:"PORT" envDefault:"3000"`
	DevMode bool   `env:"DEV_MODE" envDefault:"false"`

	// JWTSecret has no default: startup fails without it.
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"cloudauth"`

	// Google OAuth. Absence disables the OAuth routes, it never crashes them.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI"`

	// AllowedOrigins feed both CORS and the callback postMessage target.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5500,http://127.0.0.1:5500,http://localhost:3000,http://localhost:8080"`

	// Store selection: PostgresDSN wins, then DatastoreProject, else memory.
	PostgresDSN      string `env:"POSTGRES_DSN"`
	DatastoreProject string `env:"DATASTORE_PROJECT"`

	// AdminSeedsJSON is a JSON list of {email, password, role} bootstrap
	// admin accounts. Passwords are hashed before storage.
	AdminSeedsJSON string `env:"ADMIN_SEEDS"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on configuration the process must not run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set; refusing to start with a default signing key")
	}
	return nil
}

// GoogleConfigured reports whether the OAuth routes can be enabled.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// AdminSeeds decodes the configured bootstrap admin accounts.
func (c *Config) AdminSeeds() ([]AdminSeed, error) {
	if c.AdminSeedsJSON == "" {
		return nil, nil
	}
	var seeds []AdminSeed
	if err := json.Unmarshal([]byte(c.AdminSeedsJSON), &seeds); err != nil {
		return nil, fmt.Errorf("parse ADMIN_SEEDS: %w", err)
	}
	return seeds, nil
}
