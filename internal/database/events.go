// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package database

import (
	"context"
	"fmt"
	"time"
)

// StoredEvent is one row of the domain event log.
type StoredEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	Payload     []byte    `json:"payload"`
	OccurredAt  time.Time `json:"occurred_at"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// RecordEvent appends an event to the log. Redelivered events with an id
// already present are ignored.
func (db *DB) RecordEvent(ctx context.Context, e *StoredEvent) (err error) {
	start := time.Now()
	defer func() { observe("insert", "domain_events", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	payload := string(e.Payload)
	if payload == "" {
		payload = "{}"
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = db.now()
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO domain_events (id, event_type, aggregate_id, payload, occurred_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Type, e.AggregateID, payload, occurred.UTC(), db.now().UTC())
	if err != nil {
		return fmt.Errorf("record event %s: %w", e.ID, err)
	}
	return nil
}

// ListEvents returns up to limit events, newest first. An empty eventType
// matches every type.
func (db *DB) ListEvents(ctx context.Context, eventType string, limit int) ([]StoredEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := `SELECT id, event_type, aggregate_id, payload, occurred_at, recorded_at FROM domain_events`
	args := []any{}
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY occurred_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var (
			e       StoredEvent
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.AggregateID, &payload, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = []byte(payload)
		e.OccurredAt = e.OccurredAt.UTC()
		e.RecordedAt = e.RecordedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
