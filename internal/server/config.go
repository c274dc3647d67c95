// Package server implements the gridbase HTTP API: collection and item
// persistence, file uploads, spreadsheet export, import validation, and the
// websocket refresh feed consumed by open tables.
package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridbase/gridbase/internal/storage"
)

// Config is the server configuration, loaded from YAML with environment
// overrides applied by the caller.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`
	// JWTSecret signs admin tokens. Required unless admin auth is disabled.
	JWTSecret []byte `yaml:"-"`
	// JWTSecretString is the YAML-facing form of JWTSecret.
	JWTSecretString string `yaml:"jwtSecret"`
	// AdminPasswordHash is the bcrypt hash of the admin password. When empty
	// the login endpoint always fails and admin routes are unreachable.
	AdminPasswordHash string `yaml:"adminPasswordHash"`
	// TokenTTL bounds the lifetime of issued admin tokens.
	TokenTTL time.Duration `yaml:"tokenTTL"`
	// MaxRequestBodyBytes limits request bodies, uploads included.
	MaxRequestBodyBytes int64 `yaml:"maxRequestBodyBytes"`
	// RateRPS and RateBurst configure the per-client request rate limit.
	// A zero RateRPS disables limiting.
	RateRPS   float64 `yaml:"rateRPS"`
	RateBurst int     `yaml:"rateBurst"`
	// Storage selects and configures the persistence backend.
	Storage storage.Config `yaml:"storage"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Addr:                ":8080",
		TokenTTL:            12 * time.Hour,
		MaxRequestBodyBytes: 32 << 20,
		RateRPS:             50,
		RateBurst:           100,
		Storage:             storage.Config{Backend: "file", Root: "data"},
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.JWTSecret = []byte(cfg.JWTSecretString)
	return cfg, nil
}
