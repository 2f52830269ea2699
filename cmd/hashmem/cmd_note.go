// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:   "note <text>",
	Short: "Train the model on a literal string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(s *session) error {
			return s.stash.NoteText(args[0], newProgress())
		})
	},
}

var noteFileCmd = &cobra.Command{
	Use:   "note-file <path>",
	Short: "Train the model on a file's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(s *session) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read training file: %w", err)
			}
			s.logger.Info("noting file", "path", args[0], "bytes", len(data))
			return s.stash.NoteText(string(data), newProgress())
		})
	},
}

// newProgress returns a progress callback writing a carriage-return status
// line, or nil when stderr is not a terminal (piped/redirected runs stay
// quiet).
func newProgress() func(done, total int) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return func(done, total int) {
		if total == 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "\rProgress: %d/%d symbols noted (%d%%)",
			done, total, done*100/total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
