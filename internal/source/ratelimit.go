// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package source

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/staynav/internal/models"
)

// RateLimitedAdapter spaces out calls to a provider.
// Fetch and PullUpdates wait for a token; IsAvailable does not.
type RateLimitedAdapter struct {
	inner   Adapter
	limiter *rate.Limiter
}

type rateLimitedPuller struct {
	*RateLimitedAdapter
	puller UpdatePuller
}

// WithRateLimit wraps a so that at most perSecond calls start per second,
// with bursts up to burst. A non-positive perSecond returns a unchanged.
func WithRateLimit(a Adapter, perSecond float64, burst int) Adapter {
	if perSecond <= 0 {
		return a
	}
	if burst < 1 {
		burst = 1
	}
	r := &RateLimitedAdapter{inner: a, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
	if p, ok := a.(UpdatePuller); ok {
		return &rateLimitedPuller{RateLimitedAdapter: r, puller: p}
	}
	return r
}

// SourceID implements Adapter.
func (r *RateLimitedAdapter) SourceID() string { return r.inner.SourceID() }

// TrustLevel implements Adapter.
func (r *RateLimitedAdapter) TrustLevel() float64 { return r.inner.TrustLevel() }

// IsAvailable implements Adapter.
func (r *RateLimitedAdapter) IsAvailable(ctx context.Context) bool {
	return r.inner.IsAvailable(ctx)
}

// Fetch implements Adapter.
func (r *RateLimitedAdapter) Fetch(ctx context.Context, filter models.ListingFilter) ([]models.RawRecord, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", r.inner.SourceID(), err)
	}
	return r.inner.Fetch(ctx, filter)
}

func (p *rateLimitedPuller) PullUpdates(ctx context.Context, since time.Time) (Pull, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Pull{}, fmt.Errorf("rate limit wait for %s: %w", p.inner.SourceID(), err)
	}
	return p.puller.PullUpdates(ctx, since)
}
