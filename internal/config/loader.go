package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BULLSEYE_CONFIG is set
//  3. env (prefix BULLSEYE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("BULLSEYE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// BULLSEYE_BACKEND_URL -> backend_url (flat keys, underscores preserved)
	envProvider := env.Provider("BULLSEYE_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "bullseye_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that would otherwise fail late.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.BackendURL) == "":
		return fmt.Errorf("%w: backend_url must not be empty", ErrInvalidConfig)
	case c.DebounceMS < 0:
		return fmt.Errorf("%w: debounce_ms must not be negative", ErrInvalidConfig)
	case strings.TrimSpace(c.FilterKey) == "":
		return fmt.Errorf("%w: filter_key must not be empty", ErrInvalidConfig)
	}
	switch c.FilterStore {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres filter store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown filter_store %q", ErrInvalidConfig, c.FilterStore)
	}
	return nil
}
