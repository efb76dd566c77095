// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package logging provides centralized zerolog-based logging for StayNav.
//
// One process-wide logger is configured from main via Init. Core packages
// take a zerolog.Logger at construction, usually WithComponent(name), and
// request-scoped code logs through Ctx(ctx) so request, correlation and
// session IDs are attached automatically.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Msg("Server starting")
//	logging.Ctx(ctx).Warn().Str("source", id).Msg("Source unavailable")
//
// SlogHandler bridges zerolog into log/slog for sutureslog.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event is dropped.
package logging
