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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ayourtch/hashmem/services/stash/token"
)

// ShardStore groups all contexts sharing a hash prefix into one bucket file
// at <root>/<prefix>/hash-<prefix>.bin, amortizing file I/O across many
// contexts. Touched buckets live in an in-memory write-back cache: Get loads
// a bucket at most once per run, Put mutates the cached copy and marks it
// dirty, and Flush serializes each dirty bucket exactly once.
//
// The cache is unbounded and never evicts; a run processes one bounded
// training corpus and exits. Mutations buffered but not flushed are lost if
// the process dies, a documented tradeoff of this variant.
type ShardStore struct {
	root  string
	cache map[string]token.Bucket
	dirty map[string]struct{}
}

// NewShardStore creates the root directory if needed.
func NewShardStore(root string) (*ShardStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", root, err)
	}
	return &ShardStore{
		root:  root,
		cache: make(map[string]token.Bucket),
		dirty: make(map[string]struct{}),
	}, nil
}

func (s *ShardStore) bucketPath(prefix string) string {
	return filepath.Join(s.root, prefix, "hash-"+prefix+".bin")
}

// load materializes the bucket for a prefix: cache first, then disk, then an
// empty bucket when the file has never been written.
func (s *ShardStore) load(prefix string) (token.Bucket, error) {
	if bk, ok := s.cache[prefix]; ok {
		return bk, nil
	}
	raw, err := os.ReadFile(s.bucketPath(prefix))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read bucket %s: %w", prefix, err)
		}
		bk := make(token.Bucket)
		s.cache[prefix] = bk
		return bk, nil
	}
	bk, err := token.DecodeBucket(raw)
	if err != nil {
		return nil, fmt.Errorf("decode bucket %s: %w", prefix, err)
	}
	s.cache[prefix] = bk
	return bk, nil
}

// Get returns the stored table for hash, or an empty table. The result is a
// copy; mutating it does not touch the cached bucket until Put.
func (s *ShardStore) Get(hash string) (token.Hits, error) {
	prefix, _, err := splitHash(hash)
	if err != nil {
		return nil, err
	}
	bk, err := s.load(prefix)
	if err != nil {
		return nil, err
	}
	return bk[hash].Clone(), nil
}

// Put updates the cached bucket and defers the disk write to Flush.
func (s *ShardStore) Put(hash string, hits token.Hits) error {
	prefix, _, err := splitHash(hash)
	if err != nil {
		return err
	}
	bk, err := s.load(prefix)
	if err != nil {
		return err
	}
	bk[hash] = hits.Clone()
	s.dirty[prefix] = struct{}{}
	return nil
}

// Flush writes every dirty bucket back to its file.
func (s *ShardStore) Flush() error {
	for prefix := range s.dirty {
		bk := s.cache[prefix]
		path := s.bucketPath(prefix)
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return fmt.Errorf("create bucket directory %s: %w", prefix, err)
		}
		if err := os.WriteFile(path, token.EncodeBucket(bk), 0640); err != nil {
			return fmt.Errorf("write bucket %s: %w", prefix, err)
		}
		delete(s.dirty, prefix)
	}
	return nil
}

// Close flushes any remaining dirty buckets.
func (s *ShardStore) Close() error {
	return s.Flush()
}

var _ Backend = (*ShardStore)(nil)
