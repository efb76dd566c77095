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
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/staynav/internal/models"
	"github.com/tomtom215/staynav/internal/trust"
)

// upsertRetries bounds retries of an upsert that lost an optimistic
// concurrency race inside DuckDB.
const upsertRetries = 3

const aggregatedColumns = `id, fingerprint, source, external_id, listing, trust_score,
	is_suspicious, is_hidden, last_source_update, created_at, updated_at`

// UpsertAggregated inserts or overwrites the record keyed by rec.Fingerprint.
// New records start with isSuspicious and isHidden false. Existing records
// keep their id, created time and hidden/suspicious flags; payload, trust
// score and last source update are overwritten in place.
func (db *DB) UpsertAggregated(ctx context.Context, rec *models.AggregatedRecord) (inserted bool, err error) {
	start := time.Now()
	defer func() { observe("upsert", "aggregated_records", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	payload, err := json.Marshal(&rec.Listing)
	if err != nil {
		return false, fmt.Errorf("encode listing %s: %w", rec.Listing.ID, err)
	}

	for attempt := 0; ; attempt++ {
		inserted, err = db.upsertAggregatedOnce(ctx, rec, string(payload))
		if err == nil || !isTransactionConflict(err) || attempt+1 >= upsertRetries {
			return inserted, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
}

func (db *DB) upsertAggregatedOnce(ctx context.Context, rec *models.AggregatedRecord, payload string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := db.now().UTC()
	var existingID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM aggregated_records WHERE fingerprint = ?`, rec.Fingerprint).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO aggregated_records (fingerprint, id, listing_id, source, external_id, city, daily_price,
				listing, trust_score, is_suspicious, is_hidden, last_source_update, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, FALSE, ?, ?, ?)`,
			rec.Fingerprint, id, rec.Listing.ID, rec.Source, rec.ExternalID, rec.Listing.Address.City,
			rec.Listing.Price.DailyPrice(), payload, rec.TrustScore, nullTime(rec.LastSourceUpdate), now, now)
		if err != nil {
			return false, fmt.Errorf("insert aggregated record %s: %w", rec.Fingerprint, err)
		}
		rec.ID = id
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("commit upsert: %w", err)
		}
		return true, nil

	case err != nil:
		return false, fmt.Errorf("lookup aggregated record %s: %w", rec.Fingerprint, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE aggregated_records
		SET listing_id = ?, source = ?, external_id = ?, city = ?, daily_price = ?,
			listing = ?, trust_score = ?, last_source_update = ?, updated_at = ?
		WHERE fingerprint = ?`,
		rec.Listing.ID, rec.Source, rec.ExternalID, rec.Listing.Address.City, rec.Listing.Price.DailyPrice(),
		payload, rec.TrustScore, nullTime(rec.LastSourceUpdate), now, rec.Fingerprint)
	if err != nil {
		return false, fmt.Errorf("update aggregated record %s: %w", rec.Fingerprint, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit upsert: %w", err)
	}
	rec.ID = existingID
	rec.UpdatedAt = now
	return false, nil
}

// GetAggregated returns one record by fingerprint.
func (db *DB) GetAggregated(ctx context.Context, fingerprint string) (*models.AggregatedRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, "SELECT "+aggregatedColumns+" FROM aggregated_records WHERE fingerprint = ?", fingerprint)
	rec, err := scanAggregated(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("aggregated record %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAggregatedPage returns up to limit records with fingerprint > after,
// ordered by fingerprint.
func (db *DB) ListAggregatedPage(ctx context.Context, after string, limit int) (out []models.AggregatedRecord, err error) {
	start := time.Now()
	defer func() { observe("page", "aggregated_records", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+aggregatedColumns+" FROM aggregated_records WHERE fingerprint > ? ORDER BY fingerprint LIMIT ?",
		after, limit)
	if err != nil {
		return nil, fmt.Errorf("page aggregated records: %w", err)
	}
	defer rows.Close()
	return collectAggregated(rows)
}

// UpdateTrustState writes the outcome of a trust re-evaluation.
func (db *DB) UpdateTrustState(ctx context.Context, fingerprint string, state trust.TrustState) (err error) {
	start := time.Now()
	defer func() { observe("update_trust", "aggregated_records", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE aggregated_records
		SET trust_score = ?, is_suspicious = ?, is_hidden = ?, updated_at = ?
		WHERE fingerprint = ?`,
		state.TrustScore, state.IsSuspicious, state.IsHidden, db.now().UTC(), fingerprint)
	if err != nil {
		return fmt.Errorf("update trust state of %s: %w", fingerprint, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("aggregated record %s: %w", fingerprint, ErrNotFound)
	}
	return nil
}

// AggregatedQuery selects visible aggregated records.
type AggregatedQuery struct {
	City       string
	Source     string
	MinTrust   float64
	PriceMax   float64
	Suspicious *bool
	Limit      int
	Offset     int
}

// ListVisibleAggregated returns records that are not hidden, highest trust
// first, then by fingerprint.
func (db *DB) ListVisibleAggregated(ctx context.Context, q AggregatedQuery) (out []models.AggregatedRecord, err error) {
	start := time.Now()
	defer func() { observe("list_visible", "aggregated_records", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where := []string{"NOT is_hidden"}
	var args []any
	if c := strings.TrimSpace(q.City); c != "" {
		where = append(where, "lower(city) = lower(?)")
		args = append(args, c)
	}
	if q.Source != "" {
		where = append(where, "source = ?")
		args = append(args, q.Source)
	}
	if q.MinTrust > 0 {
		where = append(where, "trust_score >= ?")
		args = append(args, q.MinTrust)
	}
	if q.PriceMax > 0 {
		where = append(where, "daily_price <= ?")
		args = append(args, q.PriceMax)
	}
	if q.Suspicious != nil {
		where = append(where, "is_suspicious = ?")
		args = append(args, *q.Suspicious)
	}

	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, max(q.Offset, 0))

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+aggregatedColumns+" FROM aggregated_records WHERE "+strings.Join(where, " AND ")+
			" ORDER BY trust_score DESC, fingerprint LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("list visible aggregated records: %w", err)
	}
	defer rows.Close()
	return collectAggregated(rows)
}

// CountAggregated returns total, suspicious and hidden record counts.
func (db *DB) CountAggregated(ctx context.Context) (total, suspicious, hidden int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_suspicious),
		       COUNT(*) FILTER (WHERE is_hidden)
		FROM aggregated_records`).Scan(&total, &suspicious, &hidden)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("count aggregated records: %w", err)
	}
	return total, suspicious, hidden, nil
}

func collectAggregated(rows *sql.Rows) ([]models.AggregatedRecord, error) {
	var out []models.AggregatedRecord
	for rows.Next() {
		rec, err := scanAggregated(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanAggregated(row rowScanner) (models.AggregatedRecord, error) {
	var (
		rec     models.AggregatedRecord
		payload string
		last    sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.Fingerprint, &rec.Source, &rec.ExternalID, &payload, &rec.TrustScore,
		&rec.IsSuspicious, &rec.IsHidden, &last, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan aggregated record: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.Listing); err != nil {
		return rec, fmt.Errorf("decode aggregated record %s: %w", rec.Fingerprint, err)
	}
	if last.Valid {
		rec.LastSourceUpdate = last.Time.UTC()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.Listing.TrustScore = rec.TrustScore
	return rec, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
