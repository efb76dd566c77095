// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

//go:build !nats

package eventprocessor

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
)

func openNATS(_ context.Context, _ Config, _ watermill.LoggerAdapter) (*PubSub, error) {
	return nil, ErrNATSUnavailable
}
