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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathprobe/services/analyzer/ast"
	"github.com/AleutianAI/pathprobe/services/analyzer/contexttree"
)

var testSymbols = map[string]string{
	"a":    TypeNumber,
	"b":    TypeNumber,
	"flag": TypeBoolean,
	"x":    "",
}

func solve(t *testing.T, steps []contexttree.Step) (PathResult, []ast.Warning, error) {
	t.Helper()
	solver := NewSolver(testSymbols)
	conds := BuildConditions(contexttree.Path{Steps: steps})
	return solver.SolvePath(context.Background(), conds)
}

func TestSolvePath_SatisfiableComparison(t *testing.T) {
	branch := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpGreat, ident("a"), ident("b")),
		StartLine: 2, EndLine: 2,
	}
	result, warnings, err := solve(t, []contexttree.Step{{Context: branch, Polarity: true}})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, VerdictSat, result.Verdict)
	assert.True(t, result.HasBranch)
}

func TestSolvePath_NegatedPolarityAlsoSatisfiable(t *testing.T) {
	branch := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpGreat, ident("a"), ident("b")),
	}
	result, _, err := solve(t, []contexttree.Step{{Context: branch, Polarity: false}})
	require.NoError(t, err)
	assert.Equal(t, VerdictSat, result.Verdict)
}

func TestSolvePath_ContradictionIsUnsat(t *testing.T) {
	outer := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpGreat, ident("a"), intLit("0")),
		StartLine: 2, EndLine: 2,
	}
	inner := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpLess, ident("a"), intLit("0")),
		StartLine: 3, EndLine: 3,
	}
	result, _, err := solve(t, []contexttree.Step{
		{Context: outer, Polarity: true},
		{Context: inner, Polarity: true},
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictUnsat, result.Verdict)

	// Attribution goes to the innermost conditional.
	assert.Equal(t, 3, result.StartLine)
	assert.Equal(t, 3, result.EndLine)
}

func TestSolvePath_AssignmentSubstitutes(t *testing.T) {
	// x = 5; a == x && a != 5 is a contradiction only because the
	// assignment substitutes into the equality.
	assign := &contexttree.AssignmentContext{VarName: "x", Expr: intLit("5")}
	outer := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpEqual, ident("a"), ident("x")),
		StartLine: 3, EndLine: 3,
	}
	inner := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpNotEq, ident("a"), intLit("5")),
		StartLine: 4, EndLine: 4,
	}
	result, _, err := solve(t, []contexttree.Step{
		{Context: assign},
		{Context: outer, Polarity: true},
		{Context: inner, Polarity: true},
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictUnsat, result.Verdict)
	assert.Equal(t, 4, result.StartLine)
}

func TestSolvePath_ReassignmentUsesLatestValue(t *testing.T) {
	// x = 5; x = 6; a == x ∧ a == 6 must be satisfiable.
	first := &contexttree.AssignmentContext{VarName: "x", Expr: intLit("5")}
	second := &contexttree.AssignmentContext{VarName: "x", Expr: intLit("6")}
	eqX := &contexttree.ConditionalContext{Predicate: binary(ast.OpEqual, ident("a"), ident("x"))}
	eqSix := &contexttree.ConditionalContext{Predicate: binary(ast.OpEqual, ident("a"), intLit("6"))}

	result, _, err := solve(t, []contexttree.Step{
		{Context: first},
		{Context: second},
		{Context: eqX, Polarity: true},
		{Context: eqSix, Polarity: true},
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictSat, result.Verdict)
}

func TestSolvePath_SelfReferencingAssignment(t *testing.T) {
	// a = a + 1; a > 0 is satisfiable; the substitution must not
	// recurse forever.
	assign := &contexttree.AssignmentContext{
		VarName: "a",
		Expr:    binary(ast.OpAdd, ident("a"), intLit("1")),
	}
	branch := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpGreat, ident("a"), intLit("0")),
	}
	result, _, err := solve(t, []contexttree.Step{
		{Context: assign},
		{Context: branch, Polarity: true},
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictSat, result.Verdict)
}

func TestSolvePath_BooleanParameter(t *testing.T) {
	branch := &contexttree.ConditionalContext{Predicate: ident("flag")}
	result, _, err := solve(t, []contexttree.Step{{Context: branch, Polarity: true}})
	require.NoError(t, err)
	assert.Equal(t, VerdictSat, result.Verdict)
}

func TestSolvePath_BooleanContradiction(t *testing.T) {
	// flag && !flag is unsat.
	branch := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpAnd,
			ident("flag"),
			&ast.Node{Kind: ast.KindPrefixUnaryExpression, Op: ast.OpNot, Children: []*ast.Node{ident("flag")}}),
	}
	result, _, err := solve(t, []contexttree.Step{{Context: branch, Polarity: true}})
	require.NoError(t, err)
	assert.Equal(t, VerdictUnsat, result.Verdict)
}

func TestSolvePath_UnknownSymbol(t *testing.T) {
	branch := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpGreat, ident("z"), intLit("0")),
	}
	_, _, err := solve(t, []contexttree.Step{{Context: branch, Polarity: true}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSolvePath_AssignToUndeclared(t *testing.T) {
	assign := &contexttree.AssignmentContext{VarName: "ghost", Expr: intLit("1")}
	_, _, err := solve(t, []contexttree.Step{{Context: assign}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSolvePath_UnsupportedDeclaredType(t *testing.T) {
	solver := NewSolver(map[string]string{"s": "string"})
	branch := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpGreat, ident("s"), intLit("0")),
	}
	conds := BuildConditions(contexttree.Path{Steps: []contexttree.Step{{Context: branch, Polarity: true}}})
	_, _, err := solver.SolvePath(context.Background(), conds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSolvePath_UnknownOperatorPermissive(t *testing.T) {
	// A bitwise operator is outside the theory: the predicate becomes
	// true and the path stays reachable, with a warning.
	branch := &contexttree.ConditionalContext{
		Predicate: binary("&", ident("a"), intLit("1")),
		StartLine: 2, EndLine: 2,
	}
	result, warnings, err := solve(t, []contexttree.Step{{Context: branch, Polarity: true}})
	require.NoError(t, err)
	assert.Equal(t, VerdictSat, result.Verdict)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Message, "unrecognized operator")
}

func TestSolvePath_BranchlessPathTriviallySat(t *testing.T) {
	assign := &contexttree.AssignmentContext{VarName: "x", Expr: intLit("5")}
	result, _, err := solve(t, []contexttree.Step{{Context: assign}})
	require.NoError(t, err)
	assert.Equal(t, VerdictSat, result.Verdict)
	assert.False(t, result.HasBranch)
}

func TestSolvePath_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := NewSolver(testSymbols)
	branch := &contexttree.ConditionalContext{
		Predicate: binary(ast.OpGreat, ident("a"), intLit("0")),
	}
	conds := BuildConditions(contexttree.Path{Steps: []contexttree.Step{{Context: branch, Polarity: true}}})
	_, _, err := solver.SolvePath(ctx, conds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolver)
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "sat", VerdictSat.String())
	assert.Equal(t, "unsat", VerdictUnsat.String())
	assert.Equal(t, "unknown", VerdictUnknown.String())
}
