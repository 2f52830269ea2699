// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command in-process with the given arguments, with
// usage and error output silenced.
func execute(args ...string) error {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// storeFlags points every command at an isolated data directory and a config
// path that does not exist, so the built-in defaults apply.
func storeFlags(dir string, extra ...string) []string {
	args := []string{
		"--config", filepath.Join(dir, "no-such-config.yaml"),
		"--data-dir", dir,
		"--backend", "bolt",
		"--context", "2",
	}
	return append(args, extra...)
}

// captureStdout collects everything fn prints to stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

// TestCLIUsageErrors verifies invalid invocations fail at argument parsing,
// before any store is touched.
func TestCLIUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"note without text", []string{"note"}},
		{"note with extra args", []string{"note", "abc", "def"}},
		{"note-file without path", []string{"note-file"}},
		{"predict without text", []string{"predict"}},
		{"generate without seed", []string{"generate"}},
		{"unknown subcommand", []string{"summarize", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, execute(tt.args...))
		})
	}
}

// TestCLIUnknownBackend verifies a bad --backend value surfaces as a command
// error instead of a silent default.
func TestCLIUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	err := execute("note", "ab",
		"--config", filepath.Join(dir, "no-such-config.yaml"),
		"--data-dir", dir,
		"--backend", "postgres",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

// TestCLINotePredictRoundTrip trains in one invocation and predicts in a
// second. The second only sees the data because the first flushed and closed
// its store on exit.
func TestCLINotePredictRoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, execute(storeFlags(dir, "note", "abab")...))

	out := captureStdout(t, func() {
		require.NoError(t, execute(storeFlags(dir, "predict", "a")...))
	})
	assert.Contains(t, out, `"b"`)
	assert.Contains(t, out, "2")
}

// TestCLIGenerateUntrainedSeed verifies generate on an empty store prints
// the seed alone and exits cleanly.
func TestCLIGenerateUntrainedSeed(t *testing.T) {
	dir := t.TempDir()

	out := captureStdout(t, func() {
		require.NoError(t, execute(storeFlags(dir, "generate", "zzz")...))
	})
	assert.Equal(t, "zzz\n", out)
}

// TestCLICommandErrorPropagates verifies a failing command reaches the exit
// path as its own error, not a close-time artifact.
func TestCLICommandErrorPropagates(t *testing.T) {
	dir := t.TempDir()

	err := execute(storeFlags(dir, "note-file", filepath.Join(dir, "missing.txt"))...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read training file")
}
