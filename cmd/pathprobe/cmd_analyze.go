// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathprobe/pkg/ux"
	"github.com/AleutianAI/pathprobe/services/analyzer"
)

var (
	flagWarnings bool
	flagTrace    bool
	flagJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze one source file and report unreachable branches",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagWarnings, "warnings", false, "Include non-fatal warnings")
	analyzeCmd.Flags().BoolVar(&flagTrace, "trace", false, "Include the per-stage trace")
	analyzeCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the raw JSON response")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	svc := analyzer.NewService(analyzer.DefaultServiceConfig())
	resp, err := svc.Analyze(cmd.Context(), &analyzer.AnalyzeRequest{
		SourceText: string(source),
		Warnings:   flagWarnings,
		Logging:    flagTrace,
	})
	if err != nil {
		var analysisErr *analyzer.AnalysisError
		if errors.As(err, &analysisErr) && len(analysisErr.Diagnostics) > 0 {
			ux.PrintError(analysisErr.Message)
			for _, diag := range analysisErr.Diagnostics {
				ux.PrintMuted("  " + diag)
			}
			return fmt.Errorf("%s", analysisErr.Category)
		}
		return err
	}

	if flagJSON {
		encoded, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	renderResponse(args[0], resp)
	return nil
}

// renderResponse prints the human-readable report.
func renderResponse(path string, resp *analyzer.AnalyzeResponse) {
	ux.PrintTitle(fmt.Sprintf("Pathprobe — %s", path))
	ux.PrintMuted(fmt.Sprintf("%d path(s) analyzed in %d ms of solver time", resp.PathsAnalyzed, resp.SolveTimeMs))

	if len(resp.Notes) == 0 {
		ux.PrintSuccess("all paths reachable")
	}
	for _, note := range resp.Notes {
		lines := fmt.Sprintf("lines %d-%d", note.StartLine, note.EndLine)
		switch {
		case !note.Reachable:
			fmt.Println(ux.Styles.Unreachable.Render("✗ unreachable ") + lines)
		case note.Explanation != "":
			ux.PrintWarning(fmt.Sprintf("%s reachable (%s)", lines, note.Explanation))
		default:
			ux.PrintSuccess(lines + " reachable")
		}
	}

	for _, warning := range resp.Warnings {
		if warning.Line > 0 {
			ux.PrintWarning(fmt.Sprintf("line %d: %s", warning.Line, warning.Message))
		} else {
			ux.PrintWarning(warning.Message)
		}
	}

	for _, stage := range resp.Trace {
		ux.PrintMuted(fmt.Sprintf("  %-10s %6d µs  %d item(s)", stage.Stage, stage.DurationMicros, stage.Items))
	}
}
