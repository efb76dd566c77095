// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package config loads StayNav configuration with Koanf v2.

# Loading Order

  1. Defaults from defaultConfig() (structs provider)
  2. Optional YAML file: $CONFIG_PATH, then config.yaml / config.yml, then
     /etc/staynav/config.yaml
  3. Environment variables, mapped explicitly in envTransformFunc.
     Unmapped variables are ignored.

Comma-separated env values are split for the slice paths listed in
sliceConfigPaths. Partner feeds, maps and tiers only come from YAML.

# Sections

  - server: listen address, timeouts, CORS origins, rate limit
  - database: DuckDB path, memory, threads, demo seeding
  - logging: zerolog level and format
  - security: auth mode (none, jwt), JWT verification, default role
  - sources: first-party catalog and partner feeds
  - aggregation, trust, scoring, navigator: the core engine settings,
    declared by their own packages
  - events: domain event transport

# Example YAML

	server:
	  port: 8080
	sources:
	  feeds:
	    - id: partner-a
	      url: https://feeds.partner-a.example/v1
	      trust_level: 0.7
	      breaker: true
	      max_retries: 2
	scoring:
	  weights:
	    price: 0.3

Config is immutable after Load and safe for concurrent reads.
*/
package config
