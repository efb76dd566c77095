// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package source defines the listing provider capability and its implementations.

Every provider implements Adapter: a static source id, a static a priori
trust level, a Fetch over a listing filter and a cheap IsAvailable probe.
Providers that can report changes since a point in time also implement
UpdatePuller, which the incremental sync uses. A Pull says whether it
returned every change; a capped catalog pull also names the point it got
through, so the next sync resumes there instead of skipping the rest.

Providers:
  - CatalogAdapter: the first-party catalog held in DuckDB (trust 1.0)
  - FeedAdapter: a partner JSON-over-HTTP feed (trust from configuration)

Decorators:
  - WithBreaker wraps an adapter in a sony/gobreaker circuit breaker so a
    failing feed is skipped quickly instead of timing out every run
  - WithRateLimit throttles calls with golang.org/x/time/rate

Both decorators keep the UpdatePuller capability of the wrapped adapter.

The Registry is built once at startup from an explicit adapter list and is
immutable afterwards. Adapters are ordered by trust level, highest first,
with registration order breaking ties. That order is what makes in-batch
deduplication deterministic.
*/
package source
