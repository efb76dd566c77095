// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package services adapts StayNav components to suture.Service.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown
//   - SyncLoopService: ticker-driven SyncSources, then trust re-evaluation
//   - CheckpointGCService: periodic BadgerDB value log GC
//   - RunnerService: any blocking Run(ctx), used for the event recorder
//
// Each wrapper implements fmt.Stringer so supervisor logs name it.
package services
