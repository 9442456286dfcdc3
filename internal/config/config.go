// Package config loads the process configuration. Layering, lowest to
// highest priority: built-in defaults, an optional TOML file, environment
// variables. The result is an immutable struct constructed once at startup
// and passed by reference to the components that need it — there are no
// ambient globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	GitHub   GitHubConfig   `toml:"github"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int    `toml:"port"`
	FrontendURL string `toml:"frontend_url"`
}

// AuthConfig contains token signing settings. SecretKey is required; a
// process without it must not start.
type AuthConfig struct {
	SecretKey string        `toml:"secret_key"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

// GitHubConfig contains the OAuth app credentials. CallbackURL defaults to
// this server's /auth/callback derived from the port.
type GitHubConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	CallbackURL  string `toml:"callback_url"`
}

// DatabaseConfig contains the connection string. A postgres:// or
// postgresql:// URL selects the Postgres backend; anything else is treated
// as a SQLite path (optionally prefixed sqlite://).
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			FrontendURL: "http://localhost:3000",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file, and
// the environment, then validates it. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing required setting at once, so a broken
// deployment is fixed in one pass rather than one restart per variable.
func (c *Config) Validate() error {
	var missing []string
	if c.Auth.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.GitHub.ClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}
	if c.GitHub.ClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: required settings missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsPostgres reports whether the database URL selects the Postgres
// backend.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.Database.URL, "postgres://") ||
		strings.HasPrefix(c.Database.URL, "postgresql://")
}

// SQLitePath returns the on-disk path for the SQLite backend, stripping an
// optional sqlite:// scheme prefix.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.Database.URL, "sqlite://")
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.FrontendURL = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.SecretKey = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Auth.TokenTTL = d
		}
	}
	if v := os.Getenv("GITHUB_CLIENT_ID"); v != "" {
		cfg.GitHub.ClientID = v
	}
	if v := os.Getenv("GITHUB_CLIENT_SECRET"); v != "" {
		cfg.GitHub.ClientSecret = v
	}
	if v := os.Getenv("GITHUB_CALLBACK_URL"); v != "" {
		cfg.GitHub.CallbackURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
