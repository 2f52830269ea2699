// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/ayourtch/hashmem/services/stash/token"
)

// hitsBucket is the single logical table mapping context keys to encoded
// successor tables.
var hitsBucket = []byte("token_hits")

// BoltStore is the production variant: a single bbolt file at <dir>/db.
// Puts stage in memory and Flush commits every staged key in one write
// transaction, so a whole training run becomes durable atomically. bbolt
// serializes writers at the process level via a file lock.
type BoltStore struct {
	db      *bolt.DB
	pending map[string]token.Hits
}

// NewBoltStore opens (creating if needed) the database file under dir.
func NewBoltStore(dir string) (*BoltStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", dir, err)
	}
	path := filepath.Join(dir, "db")
	db, err := bolt.Open(path, 0640, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}
	return &BoltStore{
		db:      db,
		pending: make(map[string]token.Hits),
	}, nil
}

// Get returns the staged table for hash when one exists (read-your-writes),
// otherwise the committed table, otherwise an empty table.
func (s *BoltStore) Get(hash string) (token.Hits, error) {
	if hits, ok := s.pending[hash]; ok {
		return hits.Clone(), nil
	}
	var hits token.Hits
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(hitsBucket)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(hash))
		if raw == nil {
			return nil
		}
		decoded, err := token.DecodeHits(raw)
		if err != nil {
			return fmt.Errorf("decode context %s: %w", hash, err)
		}
		hits = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Put stages the table; nothing reaches disk until Flush.
func (s *BoltStore) Put(hash string, hits token.Hits) error {
	s.pending[hash] = hits.Clone()
	return nil
}

// Flush commits all staged tables in one write transaction. Either every
// staged key becomes durable or none does.
func (s *BoltStore) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(hitsBucket)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		for hash, hits := range s.pending {
			if err := b.Put([]byte(hash), token.EncodeHits(hits)); err != nil {
				return fmt.Errorf("put context %s: %w", hash, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.pending = make(map[string]token.Hits)
	return nil
}

// Close flushes staged writes and closes the database.
func (s *BoltStore) Close() error {
	flushErr := s.Flush()
	closeErr := s.db.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

var _ Backend = (*BoltStore)(nil)
