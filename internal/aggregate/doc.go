// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package aggregate merges listings from every registered source into one
aggregated record per physical unit.

An aggregation run fans out to all available adapters concurrently. Each call
runs under its own timeout and the whole set under an overall deadline; a
source that fails, reports itself unavailable or misses the deadline simply
contributes nothing. Raw records are normalized, trust-scored and reduced to
one listing per fingerprint (higher trust wins, ties keep the first seen,
and sources are visited in descending trust order). Survivors are upserted
under a per-fingerprint lock.

SyncSources is the incremental path: it pulls changes since each source's
checkpoint and runs the same normalize and upsert steps.
*/
package aggregate
