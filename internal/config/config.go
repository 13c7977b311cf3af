// Package config defines service configuration and its loading hooks.
package config

import (
	"fmt"

	"github.com/okian/apest/internal/domain/invite"
	"github.com/okian/apest/internal/domain/profile"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the member and invite-code backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseURL is the Postgres connection string when Store is postgres.
	DatabaseURL string `koanf:"database_url"`

	// DBMaxConns caps the Postgres pool.
	DBMaxConns int `koanf:"db_max_conns"`

	// DedupeSize bounds the remembered submission IDs.
	DedupeSize int `koanf:"dedupe_size"`

	// BalancedBelow and SpecializedAbove are the profile dominance thresholds.
	BalancedBelow    float64 `koanf:"balanced_below"`
	SpecializedAbove float64 `koanf:"specialized_above"`

	// FuzzyThreshold is the minimum similarity score for a fuzzy invite-code
	// match, in (0, invite.MaxSimilarity]; identical ten-character codes score 1.3.
	FuzzyThreshold float64 `koanf:"fuzzy_threshold"`

	// MaxTeamSize caps the size of a suggested team.
	MaxTeamSize int `koanf:"max_team_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Store:            StoreMemory,
		DBMaxConns:       10,
		DedupeSize:       100_000,
		BalancedBelow:    profile.DefaultBalancedBelow,
		SpecializedAbove: profile.DefaultSpecializedAbove,
		FuzzyThreshold:   invite.DefaultThreshold,
		MaxTeamSize:      50,
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
	case c.BalancedBelow <= 0 || c.BalancedBelow > c.SpecializedAbove || c.SpecializedAbove >= 1:
		return fmt.Errorf("%w: thresholds must satisfy 0 < balanced_below <= specialized_above < 1, got %v and %v",
			ErrInvalidConfig, c.BalancedBelow, c.SpecializedAbove)
	case c.FuzzyThreshold <= 0 || c.FuzzyThreshold > invite.MaxSimilarity:
		return fmt.Errorf("%w: fuzzy_threshold must be in (0, %v], got %v", ErrInvalidConfig, invite.MaxSimilarity, c.FuzzyThreshold)
	case c.MaxTeamSize < 1:
		return fmt.Errorf("%w: max_team_size must be positive", ErrInvalidConfig)
	}
	return nil
}
