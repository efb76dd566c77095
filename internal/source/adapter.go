// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/staynav/internal/models"
)

// ErrSourceUnavailable is reported when an adapter cannot serve requests.
var ErrSourceUnavailable = errors.New("source unavailable")

// Adapter is the uniform capability over one listing provider.
//
// Fetch returns whatever it could retrieve. A failure of a single item is
// never an error; the item is skipped.
type Adapter interface {
	SourceID() string
	TrustLevel() float64
	Fetch(ctx context.Context, filter models.ListingFilter) ([]models.RawRecord, error)
	IsAvailable(ctx context.Context) bool
}

// UpdatePuller is implemented by adapters that can return only the records
// changed since a point in time. The zero time means every record.
type UpdatePuller interface {
	PullUpdates(ctx context.Context, since time.Time) (Pull, error)
}

// Pull is the outcome of one incremental pull.
type Pull struct {
	Records []models.RawRecord

	// Complete is set when every change after since was returned.
	Complete bool

	// Through is the resume point of an incomplete pull: every change at or
	// before it was returned. Zero when the source cannot name one.
	Through time.Time
}

// Checkpoint returns the value to store after the pull. A complete pull
// moves to started, the time taken before pulling. An incomplete pull moves
// to Through when that is past since, otherwise ok is false and the
// checkpoint must stay.
func (p Pull) Checkpoint(since, started time.Time) (at time.Time, ok bool) {
	if p.Complete {
		return started, true
	}
	if !p.Through.IsZero() && p.Through.After(since) {
		return p.Through, true
	}
	return time.Time{}, false
}

// Registry is the immutable set of adapters known to the process.
type Registry struct {
	adapters []Adapter
	byID     map[string]Adapter
}

// NewRegistry builds a registry. Adapter ids must be unique and trust
// levels must be within [0,1].
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{
		adapters: make([]Adapter, 0, len(adapters)),
		byID:     make(map[string]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		id := a.SourceID()
		if id == "" {
			return nil, errors.New("source adapter with empty id")
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate source adapter %q", id)
		}
		if tl := a.TrustLevel(); tl < 0 || tl > 1 {
			return nil, fmt.Errorf("source %q: trust level %v outside [0,1]", id, tl)
		}
		r.byID[id] = a
		r.adapters = append(r.adapters, a)
	}

	sort.SliceStable(r.adapters, func(i, j int) bool {
		return r.adapters[i].TrustLevel() > r.adapters[j].TrustLevel()
	})
	return r, nil
}

// Adapters returns the adapters in trust-descending order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Get returns the adapter registered under id.
func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// TrustLevel returns the declared trust level of a registered source.
func (r *Registry) TrustLevel(id string) (float64, bool) {
	a, ok := r.byID[id]
	if !ok {
		return 0, false
	}
	return a.TrustLevel(), true
}

// Pullers returns the adapters that also implement UpdatePuller, in registry order.
func (r *Registry) Pullers() []Adapter {
	var out []Adapter
	for _, a := range r.adapters {
		if _, ok := a.(UpdatePuller); ok {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.adapters)
}

// IDs returns the registered source ids in registry order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		ids[i] = a.SourceID()
	}
	return ids
}
