package config

import (
	"os"
	"testing"
)

var configVars = []string{
	"PORT",
	"BASE_URL",
	"LOG_LEVEL",
	"REDIS_ADDR",
	"ADMIN_TOKEN",
	"TIANGGE_API_URL",
	"TIANGGE_API_TOKEN_URL",
	"TIANGGE_API_CLIENT_ID",
	"TIANGGE_API_CLIENT_SECRET",
	"CACHE_BACKEND",
	"CACHE_DIR",
	"CACHE_DSN",
}

// clearConfigEnv unsets every config variable and restores the originals
// when the test ends.
func clearConfigEnv(t *testing.T) {
	t.Helper()

	original := map[string]string{}
	for _, key := range configVars {
		original[key] = os.Getenv(key)
		_ = os.Unsetenv(key)
	}

	t.Cleanup(func() {
		for key, value := range original {
			if value == "" {
				_ = os.Unsetenv(key)
			} else {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port '8080', got '%s'", cfg.Port)
	}
	if cfg.API.URL != "https://api.tiangge.ph/v1" {
		t.Errorf("Expected default API URL, got '%s'", cfg.API.URL)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Expected default cache backend 'file', got '%s'", cfg.Cache.Backend)
	}
	if cfg.HasAPICredentials() {
		t.Error("Should not have API credentials by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearConfigEnv(t)

	_ = os.Setenv("PORT", "9000")
	_ = os.Setenv("CACHE_BACKEND", "redis")
	_ = os.Setenv("REDIS_ADDR", "redis.internal:6379")
	_ = os.Setenv("TIANGGE_API_TOKEN_URL", "https://auth.tiangge.ph/token")
	_ = os.Setenv("TIANGGE_API_CLIENT_ID", "web-gateway")
	_ = os.Setenv("TIANGGE_API_CLIENT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected port '9000', got '%s'", cfg.Port)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Expected cache backend 'redis', got '%s'", cfg.Cache.Backend)
	}
	if cfg.RedisAddr != "redis.internal:6379" {
		t.Errorf("Expected redis addr override, got '%s'", cfg.RedisAddr)
	}
	if !cfg.HasAPICredentials() {
		t.Error("Should have API credentials configured")
	}
}

func TestValidate(t *testing.T) {
	// SQL backends need a DSN
	cfg := Config{Cache: CacheConfig{Backend: "sqlite"}}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for sqlite backend without CACHE_DSN")
	}

	cfg.Cache.DSN = "/var/lib/tiangge/cache.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Should not error with DSN set: %v", err)
	}

	// Partial API credentials are a misconfiguration, not a fallback
	cfg = Config{API: APIConfig{ClientID: "web-gateway"}}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for partial API credentials")
	}

	cfg.API.TokenURL = "https://auth.tiangge.ph/token"
	cfg.API.ClientSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Should not error with full credentials: %v", err)
	}

	// No credentials at all is fine; the API may be open for reads
	cfg = Config{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Should not error with no credentials: %v", err)
	}
}
