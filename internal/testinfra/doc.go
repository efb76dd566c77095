// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package testinfra starts Docker containers for integration tests.
//
// Everything here sits behind the integration build tag. StartNATS skips the
// test when no Docker daemon answers and terminates the container in
// t.Cleanup, so callers need no teardown of their own.
//
//	func TestJetStreamPublish(t *testing.T) {
//	    ctx := context.Background()
//	    nc := testinfra.StartNATS(ctx, t)
//	    // connect to nc.URL
//	}
//
// The first run pulls the image; later runs use the local cache.
package testinfra
