// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command pathprobe runs symbolic path analysis over small typed
// source programs.
//
// Usage:
//
//	# Start the HTTP API server
//	pathprobe serve -p 8080
//
//	# Analyze a single file from the command line
//	pathprobe analyze testdata/branches.ts --warnings
//
// Example request against the server:
//
//	curl -X POST http://localhost:8080/v1/analyzer/analyze \
//	  -H "Content-Type: application/json" \
//	  -d '{"sourceText": "function test(a: number) { if (a > 0) { if (a < 0) { return 1; } } }"}'
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathprobe/pkg/logging"
	"github.com/AleutianAI/pathprobe/pkg/ux"
)

var (
	flagDebug bool
	logger    *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pathprobe",
	Short: "Symbolic path analysis for small typed programs",
	Long: `Pathprobe parses a small statically-typed imperative program,
enumerates every control-flow path through its conditionals, and asks
an SMT solver which paths are reachable. Unreachable branches are
reported with their source line ranges.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if flagDebug {
			level = logging.LevelDebug
		}
		logger = logging.New(logging.Config{Level: level, Service: "pathprobe"})
		logger.SetDefault()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		ux.PrintError(err.Error())
		os.Exit(1)
	}
}
