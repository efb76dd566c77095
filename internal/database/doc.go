// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package database is the DuckDB persistence layer.
//
// # Overview
//
// One embedded DuckDB file holds both the first-party catalog that the
// navigator reads and the state the service owns:
//
//   - database.go: connection lifecycle, pool settings, context helpers
//   - database_schema.go: table and index creation
//   - migrations.go: versioned, append-only schema migrations
//   - catalog.go: catalog listings, bookings, availability and owner signals
//   - aggregated.go: aggregated records keyed by fingerprint
//   - sessions.go: search sessions, recommendations and feedback
//   - preferences.go: preference profiles and their history
//   - events.go: the domain event log written by the event recorder
//   - seed.go: deterministic demo catalog
//
// # Store Interfaces
//
// *DB satisfies the narrow store interfaces declared by its consumers:
// source.CatalogStore, navigator.Catalog, navigator.Store,
// aggregate.Store, trust.SignalStore and trust.RecordStore. Missing rows
// are reported with errors wrapping ErrNotFound, which is
// models.ErrNotFound.
//
// # Concurrency
//
// database/sql pools connections. DuckDB uses optimistic concurrency, so
// UpsertAggregated retries a small number of times on a transaction
// conflict. Callers still serialize upserts of the same fingerprint.
//
// # Metrics
//
// Every store call records staynav_db_query_duration_seconds and
// staynav_db_query_errors_total by operation and table.
package database
