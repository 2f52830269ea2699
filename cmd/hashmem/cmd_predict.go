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

	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict <text>",
	Short: "Print candidate next symbols for a string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(s *session) error {
			hits, err := s.stash.Predict(args[0])
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Fprintln(os.Stderr, "no candidates")
				return nil
			}
			for _, e := range hits {
				fmt.Printf("%q\t%d\n", e.Value.String(), e.Count)
			}
			return nil
		})
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <seed>",
	Short: "Print a seed and a generated continuation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(s *session) error {
			fmt.Print(args[0])
			gen := s.stash.Generator(args[0])
			for {
				tok, ok, err := gen.Next()
				if err != nil {
					fmt.Println()
					return err
				}
				if !ok {
					// No successors known at any context length.
					fmt.Println()
					return nil
				}
				fmt.Print(tok.String())
			}
		})
	},
}
