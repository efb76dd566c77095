// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/staynav/internal/normalize"
)

// minJWTSecretLength is the shortest accepted HS256 secret.
const minJWTSecretLength = 32

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(c.validateServer())
	add(c.validateDatabase())
	add(c.validateLogging())
	add(c.validateSecurity())
	add(c.validateSources())
	add(c.Aggregation.Validate())
	add(c.Trust.Validate())
	add(c.Scoring.Validate())
	add(c.Navigator.Validate())
	add(c.validateEvents())

	return errors.Join(errs...)
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("server.rate_limit_reqs must be at least 1, got %d", c.Server.RateLimitReqs)
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive, got %v", c.Server.RateLimitWindow)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("server.environment must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case AuthModeNone:
		if c.IsProduction() {
			return errors.New("security.auth_mode=none is not allowed in production")
		}
	case AuthModeJWT:
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("security.jwt_secret must be at least %d characters when auth_mode=jwt", minJWTSecretLength)
		}
	default:
		return fmt.Errorf("security.auth_mode must be %q or %q, got %q", AuthModeNone, AuthModeJWT, c.Security.AuthMode)
	}
	if c.Security.ClockSkew < 0 {
		return fmt.Errorf("security.clock_skew must not be negative, got %v", c.Security.ClockSkew)
	}
	if c.Security.DefaultRole == "" {
		return errors.New("security.default_role is required")
	}
	return nil
}

func (c *Config) validateSources() error {
	var errs []error
	cat := c.Sources.Catalog
	if cat.TrustLevel < 0 || cat.TrustLevel > 1 {
		errs = append(errs, fmt.Errorf("sources.catalog.trust_level must be within [0,1], got %v", cat.TrustLevel))
	}

	seen := map[string]bool{}
	if cat.Enabled {
		seen["catalog"] = true
	}
	for i, f := range c.Sources.Feeds {
		path := fmt.Sprintf("sources.feeds[%d]", i)
		if f.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", path))
			continue
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Errorf("%s.id %q is declared twice", path, f.ID))
		}
		seen[f.ID] = true
		if err := validateHTTPURL(f.URL); err != nil {
			errs = append(errs, fmt.Errorf("%s.url: %w", path, err))
		}
		if f.TrustLevel < 0 || f.TrustLevel > 1 {
			errs = append(errs, fmt.Errorf("%s.trust_level must be within [0,1], got %v", path, f.TrustLevel))
		}
		if f.MaxRetries < 0 || f.MaxRetries > 10 {
			errs = append(errs, fmt.Errorf("%s.max_retries must be within [0,10], got %d", path, f.MaxRetries))
		}
		if _, ok := normalize.Formats[f.Format]; f.Format != "" && !ok {
			errs = append(errs, fmt.Errorf("%s.format %q is not a known feed format", path, f.Format))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.SubjectPrefix == "" || strings.ContainsAny(c.Events.SubjectPrefix, " *>") {
		return fmt.Errorf("events.subject_prefix must be a plain subject token, got %q", c.Events.SubjectPrefix)
	}
	if c.Events.NATSURL != "" {
		u, err := url.Parse(c.Events.NATSURL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") || u.Host == "" {
			return fmt.Errorf("events.nats_url must be nats://host:port, got %q", c.Events.NATSURL)
		}
	}
	if c.Events.PublishTimeout <= 0 {
		return fmt.Errorf("events.publish_timeout must be positive, got %v", c.Events.PublishTimeout)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
