// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/navigator"
	"github.com/tomtom215/staynav/internal/scoring"
	"github.com/tomtom215/staynav/internal/source"
	"github.com/tomtom215/staynav/internal/trust"
)

// Auth modes.
const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig     `koanf:"server"`
	Database    DatabaseConfig   `koanf:"database"`
	Logging     LoggingConfig    `koanf:"logging"`
	Security    SecurityConfig   `koanf:"security"`
	Sources     SourcesConfig    `koanf:"sources"`
	Aggregation aggregate.Config `koanf:"aggregation"`
	Trust       trust.Config     `koanf:"trust"`
	Scoring     scoring.Config   `koanf:"scoring"`
	Navigator   navigator.Config `koanf:"navigator"`
	Events      EventsConfig     `koanf:"events"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = NumCPU
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SeedMockData           bool   `koanf:"seed_mock_data"`
}

// LoggingConfig holds zerolog settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds bearer-token verification and authorization
// settings. Tokens are issued elsewhere; this service only verifies them.
type SecurityConfig struct {
	AuthMode  string        `koanf:"auth_mode"`
	JWTSecret string        `koanf:"jwt_secret"`
	Issuer    string        `koanf:"issuer"`
	Audience  string        `koanf:"audience"`
	ClockSkew time.Duration `koanf:"clock_skew"`

	// DefaultRole applies to tokens without a roles claim.
	DefaultRole string `koanf:"default_role"`

	// PolicyPath overrides the built-in Casbin policy with a CSV file.
	PolicyPath    string        `koanf:"policy_path"`
	AuthzCacheTTL time.Duration `koanf:"authz_cache_ttl"`
}

// SourcesConfig declares the listing sources.
type SourcesConfig struct {
	Catalog CatalogSourceConfig `koanf:"catalog"`
	Feeds   []source.FeedConfig `koanf:"feeds"`
}

// CatalogSourceConfig configures the first-party catalog adapter.
type CatalogSourceConfig struct {
	Enabled    bool    `koanf:"enabled"`
	TrustLevel float64 `koanf:"trust_level"`
	PullLimit  int     `koanf:"pull_limit"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	Enabled        bool          `koanf:"enabled"`
	NATSURL        string        `koanf:"nats_url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	StreamName     string        `koanf:"stream_name"`
	SubjectPrefix  string        `koanf:"subject_prefix"`
	StreamMaxAge   time.Duration `koanf:"stream_max_age"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
	Record         bool          `koanf:"record"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
