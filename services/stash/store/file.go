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

// FileStore persists one encoded successor table per context at
// <root>/<hash[0:3]>/<hash[3:]>. Every Put is an immediate write, so there
// is nothing to flush and nothing is lost on a crash, at the cost of one
// file per observed context and no atomicity across contexts.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(hash string) (string, error) {
	prefix, rest, err := splitHash(hash)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, prefix, rest), nil
}

// Get reads and decodes the context's table. A missing file is an empty
// table; any other read or decode error propagates.
func (s *FileStore) Get(hash string) (token.Hits, error) {
	path, err := s.path(hash)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read context %s: %w", hash, err)
	}
	hits, err := token.DecodeHits(raw)
	if err != nil {
		return nil, fmt.Errorf("decode context %s: %w", hash, err)
	}
	return hits, nil
}

// Put writes the encoded table, creating the prefix directory on first use.
func (s *FileStore) Put(hash string, hits token.Hits) error {
	path, err := s.path(hash)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create prefix directory for %s: %w", hash, err)
	}
	if err := os.WriteFile(path, token.EncodeHits(hits), 0640); err != nil {
		return fmt.Errorf("write context %s: %w", hash, err)
	}
	return nil
}

// Flush is a no-op; every Put is already durable.
func (s *FileStore) Flush() error { return nil }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

var _ Backend = (*FileStore)(nil)
