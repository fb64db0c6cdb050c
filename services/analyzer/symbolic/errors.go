// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symbolic

import "errors"

// Sentinel errors raised while evaluating conditions and driving the
// solver. Check with errors.Is().
var (
	// ErrUnknownSymbol indicates an identifier used without a prior
	// declaration reachable from the path's root context.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrUnsupportedType indicates a declared type outside the integer
	// and boolean scalars the solver theory covers.
	ErrUnsupportedType = errors.New("unsupported declared type")

	// ErrTypeMismatch indicates an operator applied to operands of the
	// wrong sort (the source was not type-correct in the dialect).
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrSolver indicates a solver failure, timeout, or setup failure.
	ErrSolver = errors.New("solver error")

	// ErrSolverTimeout is the per-path deadline case of ErrSolver.
	ErrSolverTimeout = errors.New("solver timeout")
)
