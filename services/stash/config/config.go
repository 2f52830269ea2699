// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the hashmem configuration from a YAML file with
// sensible defaults for every field.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by the store factory.
const (
	BackendFile   = "file"   // one file per context
	BackendShard  = "shard"  // one bucket file per hash prefix
	BackendBolt   = "bolt"   // single transactional bbolt file (default)
	BackendBadger = "badger" // badger key-value store
)

// Config holds the runtime settings for the store and CLI.
type Config struct {
	// DataDir is the root directory for persisted state.
	DataDir string `yaml:"data_dir"`

	// Backend selects the storage strategy: file, shard, bolt or badger.
	Backend string `yaml:"backend"`

	// Context is the maximum context length L used when noting and
	// predicting. Must be at least 1.
	Context int `yaml:"context"`

	// SyncWrites enables synchronous writes on the badger backend.
	// The other backends ignore it.
	SyncWrites bool `yaml:"sync_writes"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogJSON switches stderr logging to JSON format.
	LogJSON bool `yaml:"log_json"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DataDir:    "data",
		Backend:    BackendBolt,
		Context:    32,
		SyncWrites: true,
		LogLevel:   "info",
	}
}

// Load reads the configuration from path. A missing file is not an error;
// defaults are returned. Unreadable or malformed files are.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values after defaults and overrides are applied.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendShard, BackendBolt, BackendBadger:
	default:
		return fmt.Errorf("unknown backend %q (want file, shard, bolt or badger)", c.Backend)
	}
	if c.Context < 1 {
		return fmt.Errorf("context must be at least 1, got %d", c.Context)
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	return nil
}
