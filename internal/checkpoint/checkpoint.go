// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package checkpoint stores the last successful sync time of every source
// in BadgerDB, so incremental syncs survive restarts.
package checkpoint

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/staynav/internal/logging"
)

const keyPrefix = "checkpoint:"

// ErrEmptySource is returned for an empty source id.
var ErrEmptySource = errors.New("checkpoint: empty source id")

// Checkpoint is the stored state of one source.
type Checkpoint struct {
	SourceID string    `json:"source_id"`
	SyncedAt time.Time `json:"synced_at"`
}

// Store is a BadgerDB-backed checkpoint store.
type Store struct {
	db *badger.DB
}

// Options configure Open.
type Options struct {
	// Dir is the BadgerDB directory. Ignored when InMemory is set.
	Dir        string
	InMemory   bool
	SyncWrites bool
}

// Open opens (or creates) the checkpoint database.
func Open(o Options) (*Store, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if o.Dir == "" {
			return nil, errors.New("checkpoint: directory is required")
		}
		opts = badger.DefaultOptions(o.Dir)
	}
	opts.SyncWrites = o.SyncWrites
	opts.NumCompactors = 2
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	logging.Info().
		Str("path", o.Dir).
		Bool("in_memory", o.InMemory).
		Msg("Checkpoint store opened")
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the checkpoint of a source. A missing checkpoint is the zero
// time, which means "pull everything".
func (s *Store) Get(sourceID string) (time.Time, error) {
	if sourceID == "" {
		return time.Time{}, ErrEmptySource
	}

	var cp Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + sourceID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get checkpoint: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cp)
		})
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("checkpoint %s: %w", sourceID, err)
	}
	return cp.SyncedAt, nil
}

// Set stores the checkpoint of a source. Checkpoints never move backwards;
// an older time than the stored one is ignored.
func (s *Store) Set(sourceID string, at time.Time) error {
	if sourceID == "" {
		return ErrEmptySource
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + sourceID)

		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get checkpoint: %w", err)
		default:
			var cur Checkpoint
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &cur) }); err != nil {
				return fmt.Errorf("decode checkpoint: %w", err)
			}
			if !at.After(cur.SyncedAt) {
				return nil
			}
		}

		data, err := json.Marshal(Checkpoint{SourceID: sourceID, SyncedAt: at.UTC()})
		if err != nil {
			return fmt.Errorf("marshal checkpoint: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Reset removes the checkpoint of a source so the next sync pulls everything.
func (s *Store) Reset(sourceID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyPrefix + sourceID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete checkpoint: %w", err)
		}
		return nil
	})
}

// List returns every stored checkpoint ordered by source id.
func (s *Store) List() ([]Checkpoint, error) {
	var out []Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var cp Checkpoint
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cp)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if cp.SourceID == "" {
				cp.SourceID = strings.TrimPrefix(string(it.Item().KeyCopy(nil)), keyPrefix)
			}
			out = append(out, cp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out, nil
}

// RunGC reclaims value log space. It returns nil when there was nothing to
// collect.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}
