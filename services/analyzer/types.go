// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/pathprobe/services/analyzer/ast"
)

// requestValidate checks the option bounds of incoming requests.
var requestValidate = validator.New()

// AnalyzeRequest is the request body for POST /v1/analyzer/analyze.
type AnalyzeRequest struct {
	// SourceText is the program to analyze. Required.
	SourceText string `json:"sourceText" binding:"required"`

	// Warnings includes non-fatal warnings in the response.
	Warnings bool `json:"warnings"`

	// Logging includes the per-stage trace in the response.
	Logging bool `json:"logging"`

	// AnalysisTimeoutMs bounds the whole analysis. 0 selects the
	// service default.
	AnalysisTimeoutMs int `json:"analysisTimeoutMs" validate:"omitempty,min=1,max=600000"`

	// PathSolverTimeoutMs bounds each per-path solver check. 0 selects
	// the service default.
	PathSolverTimeoutMs int `json:"pathSolverTimeoutMs" validate:"omitempty,min=1,max=600000"`
}

// Validate checks the option bounds.
func (r *AnalyzeRequest) Validate() error {
	return requestValidate.Struct(r)
}

// PathNote annotates a source line range with a reachability verdict.
type PathNote struct {
	// StartLine and EndLine delimit the originating if statement,
	// 1-indexed and inclusive.
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`

	// Reachable is false when the path's constraints contradict.
	Reachable bool `json:"reachable"`

	// Explanation qualifies non-definitive verdicts.
	Explanation string `json:"explanation,omitempty"`
}

// StageTrace records one pipeline stage for the logging option.
type StageTrace struct {
	// Stage is the pipeline stage name.
	Stage string `json:"stage"`

	// DurationMicros is the stage's wall-clock duration.
	DurationMicros int64 `json:"durationMicros"`

	// Items counts the stage's units: diagnostics (precheck), warnings
	// (adapt), declared symbols (build), paths (enumerate, solve).
	Items int `json:"items"`
}

// AnalyzeResponse is the success response for POST /v1/analyzer/analyze.
type AnalyzeResponse struct {
	// Notes holds the path notes in path-enumeration order, duplicates
	// removed.
	Notes []PathNote `json:"notes"`

	// PathsAnalyzed counts the enumerated paths.
	PathsAnalyzed int `json:"pathsAnalyzed"`

	// SolveTimeMs is the cumulative solver time.
	SolveTimeMs int64 `json:"solveTimeMs"`

	// Warnings holds the non-fatal warnings, present when the request
	// set the warnings option.
	Warnings []ast.Warning `json:"warnings,omitempty"`

	// Trace holds the per-stage trace, present when the request set the
	// logging option.
	Trace []StageTrace `json:"trace,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	// Error is the human-readable message.
	Error string `json:"error"`

	// Category is the fatal error kind.
	Category string `json:"category,omitempty"`

	// Diagnostics holds precheck findings, when applicable.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ReadyResponse reports service readiness.
type ReadyResponse struct {
	Ready bool `json:"ready"`
}
