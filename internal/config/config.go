// Package config defines service configuration and loading.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Sentinel errors for configuration problems.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file holding marketplace entities, events and
	// custody balances.
	DBPath string `koanf:"db_path"`

	// JWTSecret signs identity tokens. Required.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTLHours is how long issued tokens remain valid.
	TokenTTLHours int `koanf:"token_ttl_hours"`

	// ArbiterID is the single account allowed to resolve disputes. Required.
	ArbiterID string `koanf:"arbiter_id"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:          ":8080",
		DBPath:        "./data/taskbay.db",
		TokenTTLHours: 24,
		LogLevel:      "info",
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TASKBAY_CONFIG is set
//  3. env (prefix TASKBAY_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TASKBAY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Join(ErrLoadConfig, err)
		}
	}

	// Environment variables: TASKBAY_ADDR, TASKBAY_JWT_SECRET, ...
	// Map env keys like TASKBAY_DB_PATH -> db_path (flat keys, underscores
	// preserved to match the koanf tags on the struct).
	envProvider := env.Provider("TASKBAY_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "taskbay_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.Join(ErrInvalidConfig, errors.New("addr must not be empty"))
	case c.JWTSecret == "":
		return errors.Join(ErrInvalidConfig, errors.New("jwt_secret is required"))
	case c.ArbiterID == "":
		return errors.Join(ErrInvalidConfig, errors.New("arbiter_id is required"))
	case c.TokenTTLHours <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("token_ttl_hours must be positive"))
	}
	return nil
}
