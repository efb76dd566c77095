// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/navigator"
	"github.com/tomtom215/staynav/internal/scoring"
	"github.com/tomtom215/staynav/internal/trust"
)

// DefaultConfigPaths lists the config file locations, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/staynav/config.yaml",
	"/etc/staynav/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:                   "/data/staynav.duckdb",
			MaxMemory:              "1GB",
			PreserveInsertionOrder: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			AuthMode:    AuthModeJWT,
			ClockSkew:     30 * time.Second,
			DefaultRole:   "traveler",
			AuthzCacheTTL: time.Minute,
		},
		Sources: SourcesConfig{
			Catalog: CatalogSourceConfig{
				Enabled:    true,
				TrustLevel: 1.0,
				PullLimit:  1000,
			},
		},
		Aggregation: aggregate.DefaultConfig(),
		Trust:       trust.DefaultConfig(),
		Scoring:     scoring.DefaultConfig(),
		Navigator:   navigator.DefaultConfig(),
		Events: EventsConfig{
			Enabled:        true,
			StoreDir:       "/data/nats",
			StreamName:     "STAYNAV_EVENTS",
			SubjectPrefix:  "staynav",
			StreamMaxAge:   7 * 24 * time.Hour,
			PublishTimeout: 5 * time.Second,
			Record:         true,
		},
	}
}

// LoadWithKoanf loads configuration: defaults, then the YAML file, then
// environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"scoring.quiet_amenities",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"environment":         "server.environment",
	"cors_origins":        "server.cors_origins",
	"rate_limit_reqs":     "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"rate_limit_disabled": "server.rate_limit_disabled",

	// Database
	"duckdb_path":                     "database.path",
	"duckdb_max_memory":               "database.max_memory",
	"duckdb_threads":                  "database.threads",
	"duckdb_preserve_insertion_order": "database.preserve_insertion_order",
	"seed_mock_data":                  "database.seed_mock_data",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Security
	"auth_mode":          "security.auth_mode",
	"jwt_secret":         "security.jwt_secret",
	"jwt_issuer":         "security.issuer",
	"jwt_audience":       "security.audience",
	"jwt_clock_skew":     "security.clock_skew",
	"auth_default_role":  "security.default_role",
	"casbin_policy_path": "security.policy_path",
	"authz_cache_ttl":    "security.authz_cache_ttl",

	// Sources
	"catalog_enabled":    "sources.catalog.enabled",
	"catalog_trust":      "sources.catalog.trust_level",
	"catalog_pull_limit": "sources.catalog.pull_limit",

	// Aggregation
	"aggregation_source_timeout": "aggregation.source_timeout",
	"aggregation_deadline":       "aggregation.deadline",
	"aggregation_upsert_workers": "aggregation.upsert_workers",
	"sync_interval":              "aggregation.sync_interval",
	"checkpoint_dir":             "aggregation.checkpoint_dir",
	"reevaluate_on_sync":         "aggregation.reevaluate_on_sync",

	// Trust
	"trust_owner_cache_ttl":        "trust.owner_cache_ttl",
	"trust_suspicious_below":       "trust.suspicious_below",
	"trust_quality_suppress_below": "trust.quality_suppress_below",
	"trust_owner_suppress_below":   "trust.owner_suppress_below",
	"trust_default_multiplier":     "trust.default_multiplier",
	"trust_reevaluate_page_size":   "trust.reevaluate_page_size",

	// Scoring and navigator
	"scoring_default_radius_km":       "scoring.default_radius_km",
	"scoring_workers":                 "scoring.workers",
	"scoring_quiet_amenities":         "scoring.quiet_amenities",
	"navigator_mode":                  "navigator.mode",
	"navigator_alternatives":          "navigator.alternatives",
	"navigator_candidate_limit":       "navigator.candidate_limit",
	"navigator_request_timeout":       "navigator.request_timeout",
	"navigator_preference_history":    "navigator.history_limit",
	"scoring_weight_price":            "scoring.weights.price",
	"scoring_weight_location":         "scoring.weights.location",
	"scoring_weight_rating":           "scoring.weights.rating",
	"scoring_weight_completeness":     "scoring.weights.completeness",
	"scoring_weight_trust":            "scoring.weights.trust",
	"scoring_weight_preference":       "scoring.weights.preference",
	"scoring_explain_excellent_above": "scoring.excellent_above",
	"scoring_explain_average_above":   "scoring.average_above",

	// Events
	"events_enabled":         "events.enabled",
	"events_record":          "events.record",
	"nats_url":               "events.nats_url",
	"nats_embedded":          "events.embedded_server",
	"nats_store_dir":         "events.store_dir",
	"nats_stream":            "events.stream_name",
	"events_subject_prefix":  "events.subject_prefix",
	"events_publish_timeout": "events.publish_timeout",
}

// envTransformFunc maps an environment variable to its koanf path.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
