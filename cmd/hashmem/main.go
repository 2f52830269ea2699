// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command hashmem maintains a disk-backed character-level frequency model
// and predicts or generates text from it.
//
// Usage:
//
//	hashmem note "some training text"
//	hashmem note-file corpus.txt
//	hashmem predict "the quick bro"
//	hashmem generate "once upon a"
//
// Settings come from config.yaml (see --config) with flag overrides for the
// data directory, storage backend and context length.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagDataDir string
	flagBackend string
	flagContext int
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:           "hashmem",
	Short:         "Disk-backed character-level frequency model",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml",
		"path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "data",
		"root directory for persisted state")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "bolt",
		"storage backend: file, shard, bolt or badger")
	rootCmd.PersistentFlags().IntVar(&flagContext, "context", 32,
		"maximum context length")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"enable debug logging")

	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(noteFileCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
