// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
database_schema.go - Database Schema Management

Tables:
  - listings: first-party catalog, filterable columns plus a JSON details payload
  - bookings: catalog bookings, read for availability and owner trust signals
  - aggregated_records: deduplicated cross-source listings keyed by fingerprint
  - search_sessions, recommendations: navigator runs and their results
  - user_preferences, user_preference_history: profiles and their prior states
  - domain_events: events persisted by the event recorder

Timestamps are stored as UTC TIMESTAMP values so that no ICU functions are
needed at runtime. JSON payloads are stored as TEXT.

aggregated_records carries no secondary index: DuckDB rewrites indexed rows
on UPDATE as delete plus insert, which conflicts with ON CONFLICT upserts.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		owner_id TEXT,
		housing_type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		street TEXT NOT NULL DEFAULT '',
		full_address TEXT NOT NULL DEFAULT '',
		latitude DOUBLE,
		longitude DOUBLE,
		geo_accuracy DOUBLE,
		price_per_day DOUBLE NOT NULL DEFAULT 0,
		price_per_week DOUBLE NOT NULL DEFAULT 0,
		price_per_month DOUBLE NOT NULL DEFAULT 0,
		daily_price DOUBLE NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		rating DOUBLE,
		review_count INTEGER NOT NULL DEFAULT 0,
		capacity INTEGER NOT NULL DEFAULT 0,
		details TEXT NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL,
		owner_id TEXT,
		user_id TEXT,
		status TEXT NOT NULL,
		check_in TIMESTAMP NOT NULL,
		check_out TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS aggregated_records (
		fingerprint TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		listing_id TEXT NOT NULL,
		source TEXT NOT NULL,
		external_id TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		listing TEXT NOT NULL,
		trust_score DOUBLE NOT NULL,
		is_suspicious BOOLEAN NOT NULL DEFAULT FALSE,
		is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
		last_source_update TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS search_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		intent TEXT NOT NULL,
		status TEXT NOT NULL,
		result_count INTEGER NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL DEFAULT FALSE,
		selected_listing_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS recommendations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		listing_ids TEXT NOT NULL,
		explanation TEXT NOT NULL,
		score DOUBLE NOT NULL,
		feedback TEXT,
		created_at TIMESTAMP NOT NULL,
		feedback_at TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		profile TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,

	`CREATE SEQUENCE IF NOT EXISTS user_preference_history_seq START 1;`,

	`CREATE TABLE IF NOT EXISTS user_preference_history (
		seq BIGINT PRIMARY KEY DEFAULT nextval('user_preference_history_seq'),
		user_id TEXT NOT NULL,
		snapshot TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS domain_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		occurred_at TIMESTAMP NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	);`,
}

// createIndexes creates database indexes for query optimization
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);`,
	`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_listing ON bookings(listing_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_owner ON bookings(owner_id);`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_session ON recommendations(session_id);`,
	`CREATE INDEX IF NOT EXISTS idx_pref_history_user ON user_preference_history(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_domain_events_type ON domain_events(event_type);`,
}
