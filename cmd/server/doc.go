// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Command server runs the StayNav API.
//
// # Startup
//
//  1. Configuration: defaults, optional config.yaml, then environment (koanf)
//  2. DuckDB: schema migrations, optional demo catalog (SEED_MOCK_DATA=true)
//  3. BadgerDB sync checkpoints (aggregation.checkpoint_dir)
//  4. Event transport: in-process GoChannel, or NATS JetStream when
//     NATS_URL or NATS_EMBEDDED is set (build tag nats)
//  5. Source registry: the catalog adapter plus every configured partner feed
//  6. Trust evaluator, aggregation engine, scorer and navigator
//  7. Authentication (AUTH_MODE=jwt|none) and Casbin authorization
//  8. Supervisor tree: HTTP server, scheduled sync, event recorder,
//     checkpoint GC
//
// # Example
//
//	export AUTH_MODE=none        # development only: every caller is admin
//	export SEED_MOCK_DATA=true
//	./staynav
//
// Production:
//
//	export AUTH_MODE=jwt
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export JWT_ISSUER=https://accounts.example.com
//	./staynav
//
// SIGINT and SIGTERM cancel the tree; the HTTP server drains for
// server.shutdown_timeout before the stores are closed.
package main
