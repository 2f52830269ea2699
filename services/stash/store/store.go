// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store implements the durable mapping from context keys to
// successor tables behind a single Backend interface, with four
// interchangeable strategies:
//
//   - FileStore: one file per context, immediate read-modify-write.
//   - ShardStore: one bucket file per hash prefix, write-back cached.
//   - BoltStore: single transactional bbolt file, batched commits (default).
//   - BadgerStore: BadgerDB key-value store, per-key puts.
//
// All four preserve identical external behavior: a key that was never
// written reads back as an empty table, and everything buffered becomes
// durable after Flush. The variants differ only in batching and crash
// safety, documented on each constructor.
//
// None of the backends is safe for concurrent use or for concurrent
// processes sharing a data directory; the store is owned by one
// single-threaded session at a time.
package store

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ayourtch/hashmem/services/stash/config"
	storagebadger "github.com/ayourtch/hashmem/services/stash/storage/badger"
	"github.com/ayourtch/hashmem/services/stash/token"
)

// Backend is the capability set every storage strategy implements.
//
// Get returns the stored successor table for a context key, or an empty
// table if the key has never been written. Absence is never an error; any
// other read or decode failure is, and must abort the caller's operation.
//
// Put associates the table with the key. Batching backends may buffer the
// write; Flush makes all buffered mutations durable, atomically where the
// backend supports it. Close flushes and releases the backend.
type Backend interface {
	Get(hash string) (token.Hits, error)
	Put(hash string, hits token.Hits) error
	Flush() error
	Close() error
}

// Open builds the backend selected by cfg.Backend, rooted at cfg.DataDir.
func Open(cfg config.Config, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.DataDir)
	case config.BackendShard:
		return NewShardStore(cfg.DataDir)
	case config.BackendBolt:
		return NewBoltStore(cfg.DataDir)
	case config.BackendBadger:
		bcfg := storagebadger.DefaultConfig(filepath.Join(cfg.DataDir, "badger"))
		bcfg.SyncWrites = cfg.SyncWrites
		bcfg.Logger = logger
		return NewBadgerStore(bcfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// splitHash validates a context key and returns its directory prefix and
// remainder. Keys are hex sha256 digests, so anything shorter than the
// prefix indicates a caller bug rather than missing data.
func splitHash(hash string) (prefix, rest string, err error) {
	if len(hash) <= token.HashPrefixLen {
		return "", "", fmt.Errorf("context key %q too short", hash)
	}
	return hash[:token.HashPrefixLen], hash[token.HashPrefixLen:], nil
}
