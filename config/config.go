// ABOUTME: Application configuration from .env, environment and XDG defaults
// ABOUTME: Backend selection, data paths, log level, web address and Sentry settings

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Backends a Config can select.
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
	BackendBadger = "badger"
)

const appDir = "dealflow"

type Config struct {
	Backend     string
	DBPath      string
	KVPath      string
	CharmHost   string
	LogLevel    string
	WebAddr     string
	SentryDSN   string
	Environment string
}

// Load reads a .env file from the working directory when present, then
// the XDG config dir, then the process environment. Real environment
// variables always win over file values.
func Load() (*Config, error) {
	for _, path := range []string{".env", filepath.Join(xdg.ConfigHome, appDir, ".env")} {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{
		Backend:     strings.ToLower(getEnv("DEALFLOW_BACKEND", BackendSQLite)),
		DBPath:      getEnv("DEALFLOW_DB_PATH", filepath.Join(xdg.DataHome, appDir, "dealflow.db")),
		KVPath:      getEnv("DEALFLOW_KV_PATH", filepath.Join(xdg.DataHome, appDir, "kv")),
		CharmHost:   getEnv("DEALFLOW_CHARM_HOST", ""),
		LogLevel:    getEnv("DEALFLOW_LOG_LEVEL", "info"),
		WebAddr:     getEnv("DEALFLOW_WEB_ADDR", "127.0.0.1:8080"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		Environment: getEnv("DEALFLOW_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend name.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendCharm, BackendBadger:
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, charm or badger)", c.Backend)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
