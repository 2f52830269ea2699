// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"), "unknown strings map to info")
}

func TestDefault(t *testing.T) {
	logger := Default()
	require.NotNil(t, logger)
	defer logger.Close()

	// Must not panic and must support structured args.
	logger.Info("test message", "key", "value")
	logger.Debug("filtered at info level")
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "test",
		Quiet:   true,
	})
	logger.Info("written to file", "n", 1)
	require.NoError(t, logger.Close())

	entries, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "written to file")
	assert.Contains(t, string(raw), `"service":"test"`)
}

func TestWith(t *testing.T) {
	logger := New(Config{Quiet: true})
	child := logger.With("request", "abc")
	require.NotNil(t, child)
	child.Info("no panic")
	assert.NoError(t, logger.Close())
}
