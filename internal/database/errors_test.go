// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/staynav/internal/models"
)

type mockCloser struct {
	closed bool
	err    error
}

func (m *mockCloser) Close() error {
	m.closed = true
	return m.err
}

func TestCloseHelpers(t *testing.T) {
	t.Parallel()

	closeWithLog(nil, "nil")
	closeQuietly(nil)

	ok := &mockCloser{}
	closeWithLog(ok, "ok")
	if !ok.closed {
		t.Error("closeWithLog did not close")
	}

	failing := &mockCloser{err: errors.New("boom")}
	closeQuietly(failing)
	if !failing.closed {
		t.Error("closeQuietly did not close")
	}
}

func TestErrNotFound_IsShared(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("recommendation x: %w", ErrNotFound)
	if !errors.Is(err, models.ErrNotFound) {
		t.Error("database.ErrNotFound should match models.ErrNotFound")
	}
}

func TestIsTransactionConflict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("TransactionContext Error: Transaction conflict: cannot update"), true},
		{errors.New("Conflict on update!"), true},
		{errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		if got := isTransactionConflict(tt.err); got != tt.want {
			t.Errorf("isTransactionConflict(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
