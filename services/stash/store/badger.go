// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"errors"
	"fmt"

	dgbadger "github.com/dgraph-io/badger/v4"

	storagebadger "github.com/ayourtch/hashmem/services/stash/storage/badger"
	"github.com/ayourtch/hashmem/services/stash/token"
)

// BadgerStore persists tables in a BadgerDB database. Structurally identical
// to the bolt variant but each Put is its own transaction with no multi-key
// grouping; Flush only syncs the value log. Illustrates backend
// substitutability behind the common contract.
type BadgerStore struct {
	db       *dgbadger.DB
	inMemory bool
}

// NewBadgerStore opens a BadgerDB with the given configuration.
func NewBadgerStore(cfg storagebadger.Config) (*BadgerStore, error) {
	db, err := storagebadger.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, inMemory: cfg.InMemory}, nil
}

// Get returns the stored table for hash, or an empty table when the key has
// never been written.
func (s *BadgerStore) Get(hash string) (token.Hits, error) {
	var hits token.Hits
	err := s.db.View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(hash))
		if err != nil {
			if errors.Is(err, dgbadger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("read context %s: %w", hash, err)
		}
		return item.Value(func(val []byte) error {
			decoded, err := token.DecodeHits(val)
			if err != nil {
				return fmt.Errorf("decode context %s: %w", hash, err)
			}
			hits = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Put writes the table in its own transaction.
func (s *BadgerStore) Put(hash string, hits token.Hits) error {
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		return txn.Set([]byte(hash), token.EncodeHits(hits))
	})
	if err != nil {
		return fmt.Errorf("write context %s: %w", hash, err)
	}
	return nil
}

// Flush syncs the value log to disk. No-op for in-memory databases.
func (s *BadgerStore) Flush() error {
	if s.inMemory {
		return nil
	}
	return s.db.Sync()
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Backend = (*BadgerStore)(nil)
