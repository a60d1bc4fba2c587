// Package config loads the server's environment-driven configuration per
// spec.md §6: listen address, body limit, token TTL/secret, invocation
// deadline/memory cap, persisted-state paths, and identity-provider
// endpoints.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinTokenSecretLength is the minimum length required for TOKEN_SECRET
// whenever it is set, in any environment; HMAC-SHA256 wants at least 256
// bits of key material.
const MinTokenSecretLength = 32

// insecureDevSecret is used only when AppEnv is not "production" and no
// TOKEN_SECRET is set, per spec.md §6 ("REQUIRED in production; no
// default" implies optional elsewhere).
const insecureDevSecret = "noops-development-only-secret-do-not-use-in-prod"

// Config holds every environment-driven setting the server needs.
type Config struct {
	AppEnv string // "development" (default) or "production"

	ListenAddr string

	// PublicBaseURL is prepended to a handler's id to build its invocation
	// link in GetHandler DTOs (spec.md §4.7's "per-handler invocation URL
	// computed from a configured base URL + handler id").
	PublicBaseURL string

	DBPath      string
	BlobPrefix  string
	AdapterPath string

	BodyLimitBytes int64

	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration

	InvocationDeadline     time.Duration
	InvocationMemoryCapMiB int

	// GitHubAPIBaseURL overrides GitHub's production API host; used in
	// tests against a local httptest server. Empty means production.
	GitHubAPIBaseURL string
}

// Load reads configuration from the environment, applying spec.md §6's
// defaults and aggregating every missing required variable into one
// error rather than failing on the first.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.AppEnv = getEnvOrDefault("APP_ENV", "development")
	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", "0.0.0.0:8080")
	cfg.PublicBaseURL = getEnvOrDefault("NOOPS_PUBLIC_BASE_URL", "http://localhost:8080")
	cfg.DBPath = getEnvOrDefault("NOOPS_DB_PATH", "./noops.sqlite")
	cfg.BlobPrefix = getEnvOrDefault("NOOPS_BLOB_PREFIX", "./wasmstore")
	cfg.AdapterPath = getEnvOrDefault("NOOPS_ADAPTER_PATH", "./wit/wasi_snapshot_preview1.wasm")
	cfg.BodyLimitBytes = getEnvOrDefaultInt64("NOOPS_BODY_LIMIT_BYTES", 10*1024*1024)
	cfg.TokenIssuer = getEnvOrDefault("TOKEN_ISSUER", "noops")
	cfg.TokenTTL = getEnvOrDefaultDuration("TOKEN_TTL_SECONDS", 3600*time.Second)
	cfg.InvocationDeadline = getEnvOrDefaultDuration("INVOCATION_DEADLINE_SECONDS", 5*time.Second)
	cfg.InvocationMemoryCapMiB = getEnvOrDefaultInt("INVOCATION_MEMORY_CAP_MIB", 64)
	cfg.GitHubAPIBaseURL = os.Getenv("GITHUB_API_BASE_URL")

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		if cfg.AppEnv == "production" {
			missing = append(missing, "TOKEN_SECRET")
		} else {
			cfg.TokenSecret = insecureDevSecret
		}
	} else if len(cfg.TokenSecret) < MinTokenSecretLength {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least %d characters (got %d)", MinTokenSecretLength, len(cfg.TokenSecret))
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// IsProduction reports whether the server is configured for production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvOrDefaultInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}
