// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

/*
Package cache provides a thread-safe, generic in-memory cache with TTL support.

Uses:
  - Owner trust evaluations (trust package), keyed by owner id
  - Visible listing pages served by the API, keyed with GenerateKey

Expiration is checked lazily on Get and by an optional background sweep,
which runs until Close is called.

Example:

	c := cache.New[trust.OwnerTrust](10*time.Minute, 5*time.Minute)
	defer c.Close()
	v, err := c.GetOrLoad("owner:42", loadOwnerTrust)
*/
package cache
