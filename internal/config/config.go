// Package config handles application configuration from environment variables
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all gateway configuration.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	API   APIConfig
	Cache CacheConfig

	// RedisAddr serves both the job queue and the redis cache backend.
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// AdminToken guards the cache maintenance endpoints. Empty disables them.
	AdminToken string `env:"ADMIN_TOKEN"`
}

// APIConfig points at the bulletin backend.
type APIConfig struct {
	URL          string `env:"TIANGGE_API_URL" envDefault:"https://api.tiangge.ph/v1"`
	TokenURL     string `env:"TIANGGE_API_TOKEN_URL"`
	ClientID     string `env:"TIANGGE_API_CLIENT_ID"`
	ClientSecret string `env:"TIANGGE_API_CLIENT_SECRET"`
}

// CacheConfig selects and parameterizes the cache store backend.
type CacheConfig struct {
	Backend string `env:"CACHE_BACKEND" envDefault:"file"`
	Dir     string `env:"CACHE_DIR"`
	DSN     string `env:"CACHE_DSN"`
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// HasAPICredentials returns true if client-credential auth to the bulletin
// API is fully configured
func (c Config) HasAPICredentials() bool {
	return c.API.TokenURL != "" && c.API.ClientID != "" && c.API.ClientSecret != ""
}

// Validate ensures required settings are present for the selected backends
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "sqlite", "postgres":
		if c.Cache.DSN == "" {
			return fmt.Errorf("CACHE_DSN is required for the %s cache backend", c.Cache.Backend)
		}
	}

	partial := c.API.TokenURL != "" || c.API.ClientID != "" || c.API.ClientSecret != ""
	if partial && !c.HasAPICredentials() {
		return fmt.Errorf("partial API credentials - set TIANGGE_API_TOKEN_URL, TIANGGE_API_CLIENT_ID and TIANGGE_API_CLIENT_SECRET together")
	}
	return nil
}
