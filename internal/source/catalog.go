// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/logging"
	"github.com/tomtom215/staynav/internal/models"
)

// CatalogSourceID is the source tag of the first-party catalog.
const CatalogSourceID = "catalog"

// CatalogStore is the read side of the first-party listing catalog.
type CatalogStore interface {
	FindActiveByFilter(ctx context.Context, filter models.ListingFilter) ([]models.CanonicalListing, error)
	ListingsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]models.CanonicalListing, error)
	Ping(ctx context.Context) error
}

// CatalogAdapter exposes the first-party catalog as a source.
// Each listing is emitted as a raw record whose payload is the listing JSON.
type CatalogAdapter struct {
	store      CatalogStore
	trustLevel float64
	pullLimit  int
	now        func() time.Time
}

// NewCatalogAdapter creates the catalog adapter. trustLevel is normally 1.0.
func NewCatalogAdapter(store CatalogStore, trustLevel float64, pullLimit int) *CatalogAdapter {
	if pullLimit <= 0 {
		pullLimit = 5000
	}
	return &CatalogAdapter{
		store:      store,
		trustLevel: trustLevel,
		pullLimit:  pullLimit,
		now:        time.Now,
	}
}

// SourceID implements Adapter.
func (c *CatalogAdapter) SourceID() string { return CatalogSourceID }

// TrustLevel implements Adapter.
func (c *CatalogAdapter) TrustLevel() float64 { return c.trustLevel }

// IsAvailable pings the catalog database.
func (c *CatalogAdapter) IsAvailable(ctx context.Context) bool {
	return c.store.Ping(ctx) == nil
}

// Fetch implements Adapter.
func (c *CatalogAdapter) Fetch(ctx context.Context, filter models.ListingFilter) ([]models.RawRecord, error) {
	listings, err := c.store.FindActiveByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	return c.toRaw(listings), nil
}

// PullUpdates implements UpdatePuller. At most pullLimit changes are
// returned, oldest first. When more are waiting the pull is incomplete and
// Through is the last change time whose rows were all returned.
func (c *CatalogAdapter) PullUpdates(ctx context.Context, since time.Time) (Pull, error) {
	listings, err := c.store.ListingsUpdatedSince(ctx, since, c.pullLimit+1)
	if err != nil {
		return Pull{}, fmt.Errorf("catalog updates since %s: %w", since.Format(time.RFC3339), err)
	}
	if len(listings) <= c.pullLimit {
		return Pull{Records: c.toRaw(listings), Complete: true}, nil
	}

	next := listings[c.pullLimit].SourceUpdatedAt
	listings = listings[:c.pullLimit]
	var through time.Time
	for i := len(listings) - 1; i >= 0; i-- {
		if listings[i].SourceUpdatedAt.Before(next) {
			through = listings[i].SourceUpdatedAt
			break
		}
	}
	if through.IsZero() {
		logging.Warn().Str("source", CatalogSourceID).Time("updated_at", next).Int("pull_limit", c.pullLimit).
			Msg("More catalog changes share one timestamp than fit in a pull")
	}
	return Pull{Records: c.toRaw(listings), Through: through}, nil
}

func (c *CatalogAdapter) toRaw(listings []models.CanonicalListing) []models.RawRecord {
	fetchedAt := c.now().UTC()
	out := make([]models.RawRecord, 0, len(listings))
	for i := range listings {
		payload, err := json.Marshal(&listings[i])
		if err != nil {
			logging.Warn().Err(err).Str("source", CatalogSourceID).Str("external_id", listings[i].ExternalID).Msg("Skipping catalog listing that failed to encode")
			continue
		}
		out = append(out, models.RawRecord{
			Source:     CatalogSourceID,
			ExternalID: listings[i].ExternalID,
			Payload:    payload,
			FetchedAt:  fetchedAt,
		})
	}
	return out
}
