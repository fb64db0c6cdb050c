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
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AleutianAI/pathprobe/services/analyzer/symbolic"
)

// Sentinel errors for request-level failures. Check with errors.Is().
var (
	// ErrPrecheckFailed indicates the source was rejected by the
	// validator; the wrapping AnalysisError carries the diagnostics.
	ErrPrecheckFailed = errors.New("precheck failed")

	// ErrInternal indicates a bug; it is surfaced as a generic message.
	ErrInternal = errors.New("internal error")
)

// Category names the fatal error kinds of the analysis pipeline. They
// appear verbatim in the error response envelope.
type Category string

const (
	CategoryPrecheck        Category = "PrecheckFailed"
	CategoryUnknownSymbol   Category = "UnknownSymbol"
	CategoryUnsupportedType Category = "UnsupportedType"
	CategorySolver          Category = "SolverError"
	CategoryInternal        Category = "Internal"
)

// AnalysisError is the fatal failure envelope of one analysis request.
//
// It wraps the underlying cause and carries the category plus any
// precheck diagnostics. No partial results accompany an AnalysisError.
type AnalysisError struct {
	// Category is the fatal error kind.
	Category Category

	// Message is the human-readable summary.
	Message string

	// Diagnostics holds the validator's findings for precheck failures.
	Diagnostics []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if len(e.Diagnostics) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Diagnostics, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the category onto the response status: client-side
// rejections are 4xx, solver and internal failures 5xx.
func (e *AnalysisError) HTTPStatus() int {
	switch e.Category {
	case CategoryPrecheck:
		return http.StatusBadRequest
	case CategoryUnknownSymbol, CategoryUnsupportedType:
		return http.StatusUnprocessableEntity
	case CategorySolver:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// precheckError builds the AnalysisError for a rejected source.
func precheckError(diagnostics []string) *AnalysisError {
	return &AnalysisError{
		Category:    CategoryPrecheck,
		Message:     "source rejected by precheck",
		Diagnostics: diagnostics,
		Err:         ErrPrecheckFailed,
	}
}

// classify wraps a pipeline error into its AnalysisError envelope.
func classify(err error) *AnalysisError {
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr
	}

	switch {
	case errors.Is(err, symbolic.ErrUnknownSymbol):
		return &AnalysisError{Category: CategoryUnknownSymbol, Message: "undeclared identifier", Err: err}
	case errors.Is(err, symbolic.ErrUnsupportedType):
		return &AnalysisError{Category: CategoryUnsupportedType, Message: "declared type outside the supported scalars", Err: err}
	case errors.Is(err, symbolic.ErrTypeMismatch):
		// A sort error means the source was not type-correct in the
		// accepted dialect; that is a precheck-class rejection even
		// though it surfaces during evaluation.
		return &AnalysisError{Category: CategoryPrecheck, Message: "source is not type-correct", Err: err}
	case errors.Is(err, symbolic.ErrSolver), errors.Is(err, symbolic.ErrSolverTimeout):
		return &AnalysisError{Category: CategorySolver, Message: "solver failure", Err: err}
	default:
		return &AnalysisError{Category: CategoryInternal, Message: "internal analyzer error", Err: errors.Join(ErrInternal, err)}
	}
}
