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

// CreateSession inserts a new search session.
func (db *DB) CreateSession(ctx context.Context, s *models.SearchSession) (err error) {
	start := time.Now()
	defer func() { observe("insert", "search_sessions", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	intent := string(s.Intent)
	if intent == "" {
		intent = "{}"
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = db.now()
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO search_sessions (id, user_id, intent, status, result_count, success, selected_listing_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, nullString(s.UserID), intent, string(s.Status), s.ResultCount, s.Success,
		nullString(s.SelectedListingID), created.UTC(), updated.UTC())
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

// CompleteSession records the terminal state of a session. A matched
// session is marked successful.
func (db *DB) CompleteSession(ctx context.Context, id string, status models.SessionStatus, resultCount int, selectedListingID string) (err error) {
	start := time.Now()
	defer func() { observe("update", "search_sessions", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE search_sessions
		SET status = ?, result_count = ?, success = ?, selected_listing_id = ?, updated_at = ?
		WHERE id = ?`,
		string(status), resultCount, status == models.SessionMatched, nullString(selectedListingID), db.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetSession returns one session by id.
func (db *DB) GetSession(ctx context.Context, id string) (*models.SearchSession, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		s        models.SearchSession
		userID   sql.NullString
		selected sql.NullString
		intent   string
		status   string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, intent, status, result_count, success, selected_listing_id, created_at, updated_at
		FROM search_sessions WHERE id = ?`, id,
	).Scan(&s.ID, &userID, &intent, &status, &s.ResultCount, &s.Success, &selected, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	s.UserID = userID.String
	s.SelectedListingID = selected.String
	s.Intent = json.RawMessage(intent)
	s.Status = models.SessionStatus(status)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// CreateRecommendation inserts a recommendation.
func (db *DB) CreateRecommendation(ctx context.Context, r *models.Recommendation) (err error) {
	start := time.Now()
	defer func() { observe("insert", "recommendations", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ids, err := json.Marshal(r.ListingIDs)
	if err != nil {
		return fmt.Errorf("encode listing ids: %w", err)
	}
	explanation, err := json.Marshal(r.Explanation)
	if err != nil {
		return fmt.Errorf("encode explanation: %w", err)
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = db.now()
	}
	var feedbackAt sql.NullTime
	if r.FeedbackAt != nil {
		feedbackAt = sql.NullTime{Time: r.FeedbackAt.UTC(), Valid: true}
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO recommendations (id, session_id, listing_ids, explanation, score, feedback, created_at, feedback_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, string(ids), string(explanation), r.Score, nullString(string(r.Feedback)),
		created.UTC(), feedbackAt)
	if err != nil {
		return fmt.Errorf("insert recommendation %s: %w", r.ID, err)
	}
	return nil
}

// GetRecommendation returns one recommendation by id.
func (db *DB) GetRecommendation(ctx context.Context, id string) (rec *models.Recommendation, err error) {
	start := time.Now()
	defer func() { observeLookup("select", "recommendations", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		r           models.Recommendation
		ids         string
		explanation string
		feedback    sql.NullString
		feedbackAt  sql.NullTime
	)
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, session_id, listing_ids, explanation, score, feedback, created_at, feedback_at
		FROM recommendations WHERE id = ?`, id,
	).Scan(&r.ID, &r.SessionID, &ids, &explanation, &r.Score, &feedback, &r.CreatedAt, &feedbackAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(ids), &r.ListingIDs); err != nil {
		return nil, fmt.Errorf("decode listing ids of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(explanation), &r.Explanation); err != nil {
		return nil, fmt.Errorf("decode explanation of %s: %w", id, err)
	}
	r.Feedback = models.Feedback(feedback.String)
	r.CreatedAt = r.CreatedAt.UTC()
	if feedbackAt.Valid {
		t := feedbackAt.Time.UTC()
		r.FeedbackAt = &t
	}
	return &r, nil
}

// SetFeedback attaches user feedback to a recommendation, replacing any
// earlier feedback.
func (db *DB) SetFeedback(ctx context.Context, id string, fb models.Feedback, at time.Time) (err error) {
	start := time.Now()
	defer func() { observe("update", "recommendations", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE recommendations SET feedback = ?, feedback_at = ? WHERE id = ?`,
		string(fb), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("set feedback on %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
	}
	return nil
}
