// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/models"
)

type mockCatalogStore struct {
	listings []models.CanonicalListing
	err      error
	pingErr  error
	filter   models.ListingFilter
	since    time.Time
	limit    int
}

func (m *mockCatalogStore) FindActiveByFilter(_ context.Context, f models.ListingFilter) ([]models.CanonicalListing, error) {
	m.filter = f
	return m.listings, m.err
}

func (m *mockCatalogStore) ListingsUpdatedSince(_ context.Context, since time.Time, limit int) ([]models.CanonicalListing, error) {
	m.since = since
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.listings) > limit {
		return m.listings[:limit], nil
	}
	return m.listings, nil
}

func (m *mockCatalogStore) Ping(context.Context) error { return m.pingErr }

func TestCatalogAdapter_Fetch(t *testing.T) {
	t.Parallel()

	store := &mockCatalogStore{listings: []models.CanonicalListing{
		{ExternalID: "1", Title: "Loft by the river", HousingType: models.HousingLoft},
		{ExternalID: "2", Title: "Studio", HousingType: models.HousingStudio},
	}}
	c := NewCatalogAdapter(store, 1.0, 0)
	c.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	recs, err := c.Fetch(context.Background(), models.ListingFilter{City: "Kazan"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if store.filter.City != "Kazan" {
		t.Errorf("filter not passed through: %+v", store.filter)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}

	var decoded models.CanonicalListing
	if err := json.Unmarshal(recs[0].Payload, &decoded); err != nil {
		t.Fatalf("payload is not listing JSON: %v", err)
	}
	if decoded.Title != "Loft by the river" || recs[0].Source != CatalogSourceID || recs[0].ExternalID != "1" {
		t.Errorf("unexpected record %+v", recs[0])
	}
	if !recs[0].FetchedAt.Equal(c.now()) {
		t.Errorf("FetchedAt = %v", recs[0].FetchedAt)
	}
}

func TestCatalogAdapter_ErrorsAndAvailability(t *testing.T) {
	t.Parallel()

	store := &mockCatalogStore{err: errors.New("db closed"), pingErr: errors.New("db closed")}
	c := NewCatalogAdapter(store, 1.0, 10)

	if _, err := c.Fetch(context.Background(), models.ListingFilter{}); err == nil {
		t.Error("Fetch() should surface store errors")
	}
	if c.IsAvailable(context.Background()) {
		t.Error("IsAvailable() should be false when ping fails")
	}
	if c.SourceID() != "catalog" || c.TrustLevel() != 1.0 {
		t.Errorf("SourceID/TrustLevel = %s/%v", c.SourceID(), c.TrustLevel())
	}
}

func TestCatalogAdapter_PullUpdates(t *testing.T) {
	t.Parallel()

	store := &mockCatalogStore{listings: []models.CanonicalListing{{ExternalID: "9"}}}
	c := NewCatalogAdapter(store, 1.0, 10)
	since := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	pull, err := c.PullUpdates(context.Background(), since)
	if err != nil || len(pull.Records) != 1 {
		t.Fatalf("PullUpdates() = (%+v, %v)", pull, err)
	}
	if !pull.Complete {
		t.Error("pull under the limit should be complete")
	}
	if !store.since.Equal(since) {
		t.Errorf("since = %v, want %v", store.since, since)
	}
	if store.limit != 11 {
		t.Errorf("store limit = %d, want pull limit + 1", store.limit)
	}
}

func TestCatalogAdapter_PullUpdatesTruncated(t *testing.T) {
	t.Parallel()

	at := func(min int) time.Time { return time.Date(2026, 4, 1, 10, min, 0, 0, time.UTC) }
	changed := func(id string, min int) models.CanonicalListing {
		return models.CanonicalListing{ExternalID: id, HousingType: models.HousingStudio, SourceUpdatedAt: at(min)}
	}

	tests := []struct {
		name        string
		listings    []models.CanonicalListing
		wantRecords int
		wantThrough time.Time
	}{
		{
			name:        "resumes after last returned change",
			listings:    []models.CanonicalListing{changed("1", 1), changed("2", 2), changed("3", 3)},
			wantRecords: 2,
			wantThrough: at(2),
		},
		{
			name:        "tie at the cut steps back",
			listings:    []models.CanonicalListing{changed("1", 1), changed("2", 2), changed("3", 2)},
			wantRecords: 2,
			wantThrough: at(1),
		},
		{
			name:        "all rows share the cut time",
			listings:    []models.CanonicalListing{changed("1", 5), changed("2", 5), changed("3", 5)},
			wantRecords: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewCatalogAdapter(&mockCatalogStore{listings: tt.listings}, 1.0, 2)
			pull, err := c.PullUpdates(context.Background(), time.Time{})
			if err != nil {
				t.Fatal(err)
			}
			if pull.Complete {
				t.Error("truncated pull reported complete")
			}
			if len(pull.Records) != tt.wantRecords {
				t.Errorf("len(Records) = %d, want %d", len(pull.Records), tt.wantRecords)
			}
			if !pull.Through.Equal(tt.wantThrough) {
				t.Errorf("Through = %v, want %v", pull.Through, tt.wantThrough)
			}
		})
	}
}
