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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeSource(t *testing.T, source string) (*AnalyzeResponse, error) {
	t.Helper()
	svc := NewService(DefaultServiceConfig())
	return svc.Analyze(context.Background(), &AnalyzeRequest{SourceText: source})
}

func TestAnalyze_BothBranchesReachable(t *testing.T) {
	resp, err := analyzeSource(t, `function test(a: number, b: number) {
  if (a > b) { return 1; } else { return 2; }
}`)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.PathsAnalyzed)
	assert.Empty(t, resp.Notes)
}

func TestAnalyze_NestedContradiction(t *testing.T) {
	resp, err := analyzeSource(t, `function test(a: number) {
  if (a > 0) {
    if (a < 0) {
      return 1;
    }
  }
}`)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.PathsAnalyzed)

	require.Len(t, resp.Notes, 1)
	note := resp.Notes[0]
	assert.False(t, note.Reachable)
	// Attributed to the inner if statement.
	assert.Equal(t, 3, note.StartLine)
	assert.Equal(t, 5, note.EndLine)
}

func TestAnalyze_ConstantPropagatesIntoBranches(t *testing.T) {
	resp, err := analyzeSource(t, `function test(a: number) {
  const x = 5;
  if (a == x) {
    if (a != 5) {
      return 1;
    }
  }
}`)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.PathsAnalyzed)

	require.Len(t, resp.Notes, 1)
	note := resp.Notes[0]
	assert.False(t, note.Reachable)
	assert.Equal(t, 4, note.StartLine)
}

func TestAnalyze_UndeclaredIdentifier(t *testing.T) {
	_, err := analyzeSource(t, `function test(a: number) {
  if (z > 0) { return 1; }
}`)
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, CategoryUnknownSymbol, analysisErr.Category)
}

func TestAnalyze_UnsupportedOperatorStaysPermissive(t *testing.T) {
	resp, err := analyzeSource(t, `function test(a: number) {
  if (a & 1) { return 1; }
}`)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.PathsAnalyzed)
	assert.Empty(t, resp.Notes, "unknown operators must not manufacture unreachability")
}

func TestAnalyze_SyntaxErrorFailsPrecheck(t *testing.T) {
	_, err := analyzeSource(t, `function test(a: number) { if (a > `)
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, CategoryPrecheck, analysisErr.Category)
	assert.NotEmpty(t, analysisErr.Diagnostics)
}

func TestAnalyze_UnsupportedDeclaredType(t *testing.T) {
	_, err := analyzeSource(t, `function test(s: string) {
  if (s == s) { return 1; }
}`)
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, CategoryUnsupportedType, analysisErr.Category)
}

func TestAnalyze_EmptyBody(t *testing.T) {
	resp, err := analyzeSource(t, `function test(a: number) {
}`)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.PathsAnalyzed)
	assert.Empty(t, resp.Notes)
}

func TestAnalyze_IfWithoutElse(t *testing.T) {
	resp, err := analyzeSource(t, `function test(a: number) {
  if (a > 0) { return 1; }
}`)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.PathsAnalyzed)
	assert.Empty(t, resp.Notes)
}

func TestAnalyze_Deterministic(t *testing.T) {
	source := `function test(a: number, b: number) {
  const limit = 10;
  if (a > limit) {
    if (a < limit) {
      return 1;
    }
  }
  if (b > a) {
    return 2;
  }
}`
	first, err := analyzeSource(t, source)
	require.NoError(t, err)
	second, err := analyzeSource(t, source)
	require.NoError(t, err)

	assert.Equal(t, first.Notes, second.Notes)
	assert.Equal(t, first.PathsAnalyzed, second.PathsAnalyzed)
}

func TestAnalyze_DuplicateNotesDeduplicated(t *testing.T) {
	// Both nested paths under a == 1 ∧ a == 2 are contradictions
	// attributed to the same innermost if: one note survives.
	resp, err := analyzeSource(t, `function test(a: number) {
  if (a == 1) {
    if (a == 2) {
      if (a > 0) { return 1; } else { return 2; }
    }
  }
}`)
	require.NoError(t, err)

	seen := make(map[PathNote]int)
	for _, note := range resp.Notes {
		seen[note]++
		assert.Equal(t, 1, seen[note], "duplicate note %+v", note)
	}
}

func TestAnalyze_WarningsOnlyWhenRequested(t *testing.T) {
	source := `function test(a: number) {
  if (a & 1) { return 1; }
}`
	svc := NewService(DefaultServiceConfig())

	quiet, err := svc.Analyze(context.Background(), &AnalyzeRequest{SourceText: source})
	require.NoError(t, err)
	assert.Empty(t, quiet.Warnings)

	verbose, err := svc.Analyze(context.Background(), &AnalyzeRequest{SourceText: source, Warnings: true})
	require.NoError(t, err)
	assert.NotEmpty(t, verbose.Warnings)
}

func TestAnalyze_TraceOnlyWhenRequested(t *testing.T) {
	source := `function test(a: number) {
  if (a > 0) { return 1; }
}`
	svc := NewService(DefaultServiceConfig())

	quiet, err := svc.Analyze(context.Background(), &AnalyzeRequest{SourceText: source})
	require.NoError(t, err)
	assert.Empty(t, quiet.Trace)

	traced, err := svc.Analyze(context.Background(), &AnalyzeRequest{SourceText: source, Logging: true})
	require.NoError(t, err)
	require.NotEmpty(t, traced.Trace)

	stages := make([]string, 0, len(traced.Trace))
	for _, stage := range traced.Trace {
		stages = append(stages, stage.Stage)
	}
	assert.Equal(t, []string{"precheck", "adapt", "build", "enumerate", "solve"}, stages)
}

func TestAnalyze_NoteLineRangesWellFormed(t *testing.T) {
	resp, err := analyzeSource(t, `function test(a: number) {
  if (a > 0) {
    if (a < 0) { return 1; }
  }
}`)
	require.NoError(t, err)
	for _, note := range resp.Notes {
		assert.LessOrEqual(t, note.StartLine, note.EndLine)
		assert.Greater(t, note.StartLine, 0)
	}
}

func TestAnalyzeRequest_ValidateBounds(t *testing.T) {
	valid := &AnalyzeRequest{SourceText: "x", AnalysisTimeoutMs: 5000}
	assert.NoError(t, valid.Validate())

	invalid := &AnalyzeRequest{SourceText: "x", PathSolverTimeoutMs: -1}
	assert.Error(t, invalid.Validate())

	tooLarge := &AnalyzeRequest{SourceText: "x", AnalysisTimeoutMs: 10_000_000}
	assert.Error(t, tooLarge.Validate())
}
