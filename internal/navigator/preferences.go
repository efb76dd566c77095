// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package navigator

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/validation"
)

// GetPreferences returns the profile of userID.
func (n *Navigator) GetPreferences(ctx context.Context, userID string) (*models.UserPreferenceProfile, error) {
	p, err := n.store.GetPreferences(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	return p, err
}

// SavePreferences validates and stores a profile. The previous state, if
// any, is appended to the history log.
func (n *Navigator) SavePreferences(ctx context.Context, p *models.UserPreferenceProfile) (*models.UserPreferenceProfile, error) {
	if verr := validation.ValidateStruct(p); verr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, verr)
	}

	var previous *models.PreferenceSnapshot
	existing, err := n.store.GetPreferences(ctx, p.UserID)
	switch {
	case err == nil:
		snap := existing.Snapshot(existing.UpdatedAt)
		previous = &snap
	case errors.Is(err, models.ErrNotFound):
	default:
		return nil, fmt.Errorf("load current preferences: %w", err)
	}

	p.UpdatedAt = n.now().UTC()
	p.History = nil
	if err := n.store.SavePreferences(ctx, p, previous); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	n.emit(ctx, EventPreferencesUpdated, p.UserID, map[string]any{"priorities": p.Priorities})
	return p, nil
}

// PreferenceHistory returns past profile states, newest first.
func (n *Navigator) PreferenceHistory(ctx context.Context, userID string) ([]models.PreferenceSnapshot, error) {
	return n.store.PreferenceHistory(ctx, userID, n.cfg.HistoryLimit)
}
