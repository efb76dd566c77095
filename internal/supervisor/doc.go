// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package supervisor runs the long-lived StayNav services under a suture v4
supervisor tree.

# Layout

	staynav
	├── storage-layer
	│   └── checkpoint-gc      (BadgerDB value log GC)
	├── ingest-layer
	│   ├── source-sync        (scheduled SyncSources + trust re-evaluation)
	│   └── event-recorder     (if events.record)
	└── api-layer
	    └── http-server

Each layer is its own supervisor, so failures are counted per layer. A
sync loop that keeps crashing backs off without restarting the HTTP
server.

# Restart Policy

TreeConfig maps directly onto suture.Spec. Zero fields take suture's
defaults: threshold 5, decay 30s, backoff 15s, shutdown timeout 10s.

Services return nil only when they finished for good; any error, or an
unexpected nil from a Runner, triggers a restart. On shutdown services
return ctx.Err().

# Logging

Supervisor events go through sutureslog. Pass logging.NewSlogLogger so
they end up in the zerolog stream:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), cfg)

# Not Supervised

DuckDB is an embedded library opened once in main. Its connection pool
has no goroutine to restart.

See internal/supervisor/services for the service wrappers.
*/
package supervisor
