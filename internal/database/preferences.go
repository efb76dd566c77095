// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/models"
)

// GetPreferences returns the stored profile of a user, without history.
func (db *DB) GetPreferences(ctx context.Context, userID string) (p *models.UserPreferenceProfile, err error) {
	start := time.Now()
	defer func() { observeLookup("select", "user_preferences", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var payload string
	err = db.conn.QueryRowContext(ctx, `SELECT profile FROM user_preferences WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preferences of %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences of %s: %w", userID, err)
	}

	var profile models.UserPreferenceProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, fmt.Errorf("decode preferences of %s: %w", userID, err)
	}
	profile.History = nil
	return &profile, nil
}

// SavePreferences writes the profile and, when previous is set, appends it
// to the history log in the same transaction.
func (db *DB) SavePreferences(ctx context.Context, p *models.UserPreferenceProfile, previous *models.PreferenceSnapshot) (err error) {
	start := time.Now()
	defer func() { observe("upsert", "user_preferences", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stored := *p
	stored.History = nil
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = db.now().UTC()
	}
	payload, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encode preferences of %s: %w", p.UserID, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save preferences: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, profile, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		p.UserID, string(payload), stored.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save preferences of %s: %w", p.UserID, err)
	}

	if previous != nil {
		snap, err := json.Marshal(previous)
		if err != nil {
			return fmt.Errorf("encode preference snapshot: %w", err)
		}
		recordedAt := previous.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = stored.UpdatedAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_preference_history (user_id, snapshot, recorded_at) VALUES (?, ?, ?)`,
			p.UserID, string(snap), recordedAt.UTC())
		if err != nil {
			return fmt.Errorf("append preference history of %s: %w", p.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences of %s: %w", p.UserID, err)
	}
	return nil
}

// PreferenceHistory returns up to limit prior profile states, newest first.
func (db *DB) PreferenceHistory(ctx context.Context, userID string, limit int) (out []models.PreferenceSnapshot, err error) {
	start := time.Now()
	defer func() { observe("select", "user_preference_history", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT snapshot FROM user_preference_history
		WHERE user_id = ? ORDER BY seq DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query preference history of %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan preference snapshot: %w", err)
		}
		var snap models.PreferenceSnapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("decode preference snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
