// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ayourtch/hashmem/pkg/logging"
	"github.com/ayourtch/hashmem/services/stash"
	"github.com/ayourtch/hashmem/services/stash/config"
	"github.com/ayourtch/hashmem/services/stash/store"
)

// session bundles the configuration, logger and model store for one command
// invocation. The stash exclusively owns the backend; Close flushes and
// releases everything.
type session struct {
	cfg    config.Config
	logger *logging.Logger
	stash  *stash.Stash
}

// openSession loads configuration, applies flag overrides, and opens the
// configured backend.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = flagBackend
	}
	if cmd.Flags().Changed("context") {
		cfg.Context = flagContext
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if flagDebug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		JSON:    cfg.LogJSON,
		Service: "hashmem",
	})

	backend, err := store.Open(cfg, logger.Slog())
	if err != nil {
		logger.Close()
		return nil, err
	}
	st, err := stash.New(backend,
		stash.WithContextLength(cfg.Context),
		stash.WithLogger(logger.Slog()),
	)
	if err != nil {
		backend.Close()
		logger.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, stash: st}, nil
}

// Close flushes and closes the store, then the logger.
func (s *session) Close() error {
	err := s.stash.Close()
	if cerr := s.logger.Close(); err == nil {
		err = cerr
	}
	return err
}

// run opens a session, executes fn, and closes the session on every path.
// The first error wins; a clean fn still fails if the final flush does, and
// a close failure behind a command error is logged so it stays visible.
func run(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if runErr := fn(s); runErr != nil {
		if closeErr := s.Close(); closeErr != nil {
			s.logger.Warn("close failed after command error", "error", closeErr)
		}
		return runErr
	}
	return s.Close()
}
