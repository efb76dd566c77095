// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package checkpoint

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_MissingIsZero(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	at, err := s.Get("partner-a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !at.IsZero() {
		t.Errorf("Get() = %v, want zero time", at)
	}
}

func TestStore_SetGetMonotonic(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	t1 := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(15 * time.Minute)

	if err := s.Set("partner-a", t2); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set("partner-a", t1); err != nil {
		t.Fatalf("Set(older) error = %v", err)
	}

	got, err := s.Get("partner-a")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(t2) {
		t.Errorf("Get() = %v, want %v (older time ignored)", got, t2)
	}
}

func TestStore_ListAndReset(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	at := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"partner-b", "catalog", "partner-a"} {
		if err := s.Set(id, at); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 || list[0].SourceID != "catalog" || list[2].SourceID != "partner-b" {
		t.Errorf("List() = %+v, want 3 sorted checkpoints", list)
	}

	if err := s.Reset("catalog"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := s.Reset("never-set"); err != nil {
		t.Errorf("Reset(never-set) error = %v", err)
	}
	got, err := s.Get("catalog")
	if err != nil || !got.IsZero() {
		t.Errorf("Get() after Reset = %v, %v; want zero", got, err)
	}
}

func TestStore_EmptySource(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	if _, err := s.Get(""); !errors.Is(err, ErrEmptySource) {
		t.Errorf("Get(\"\") error = %v, want ErrEmptySource", err)
	}
	if err := s.Set("", time.Now()); !errors.Is(err, ErrEmptySource) {
		t.Errorf("Set(\"\") error = %v, want ErrEmptySource", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	at := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set("partner-a", at); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("partner-a")
	if err != nil || !got.Equal(at) {
		t.Errorf("Get() after reopen = %v, %v; want %v", got, err, at)
	}
	if err := reopened.RunGC(0.5); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
}
