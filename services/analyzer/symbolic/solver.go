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
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mitchellh/go-z3"

	"github.com/AleutianAI/pathprobe/services/analyzer/ast"
)

// Declared type names the solver theory covers.
const (
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// DefaultPathTimeout bounds a single satisfiability check.
const DefaultPathTimeout = 2 * time.Second

// Verdict is the solver's answer for one path.
type Verdict int

const (
	// VerdictSat means the path is reachable.
	VerdictSat Verdict = iota

	// VerdictUnsat means the path constraints contradict: dead code.
	VerdictUnsat

	// VerdictUnknown means the solver gave up; the path is reported
	// reachable with an explanation.
	VerdictUnknown
)

// String returns the lowercase solver-style name of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictSat:
		return "sat"
	case VerdictUnsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// PathResult is the outcome of checking one path.
type PathResult struct {
	Verdict Verdict

	// HasBranch reports whether the path carried any branch predicate.
	// Branchless paths are trivially reachable and produce no note.
	HasBranch bool

	// StartLine and EndLine attribute the verdict to the innermost
	// conditional on the path. Valid only when HasBranch is true.
	StartLine int
	EndLine   int

	// SolveTime is the wall-clock duration of the satisfiability check.
	SolveTime time.Duration
}

// Solver checks path condition lists against the Z3 theory of integers
// and booleans.
//
// Each SolvePath call owns a fresh Z3 context; nothing is shared across
// paths or requests, so a Solver is safe for concurrent use.
type Solver struct {
	symbols     map[string]string
	pathTimeout time.Duration
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithPathTimeout bounds each per-path satisfiability check.
func WithPathTimeout(d time.Duration) SolverOption {
	return func(s *Solver) {
		if d > 0 {
			s.pathTimeout = d
		}
	}
}

// NewSolver creates a Solver resolving identifiers against the given
// root symbol table (name to declared type).
func NewSolver(symbols map[string]string, opts ...SolverOption) *Solver {
	s := &Solver{
		symbols:     symbols,
		pathTimeout: DefaultPathTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SolvePath declares the path's free variables, processes assignments
// as substitutions, conjoins the branch predicates, and asks Z3 whether
// the conjunction is satisfiable.
//
// Outputs:
//   - PathResult: The verdict with its line attribution.
//   - []ast.Warning: Non-fatal observations (unrecognized operators,
//     non-boolean predicates treated as true).
//   - error: Fatal failures: ErrUnknownSymbol, ErrUnsupportedType,
//     ErrTypeMismatch, ErrSolver (including ErrSolverTimeout and
//     cancellation).
func (s *Solver) SolvePath(ctx context.Context, conds ConditionList) (PathResult, []ast.Warning, error) {
	if err := ctx.Err(); err != nil {
		return PathResult{}, nil, fmt.Errorf("%w: %v", ErrSolver, err)
	}

	run := newPathRun(s.symbols)
	asserted, result, err := run.assertConditions(conds)
	if err != nil {
		run.close()
		return PathResult{}, run.warnings, err
	}
	if !result.HasBranch || asserted == 0 {
		// Nothing to contradict: the path is trivially reachable.
		run.close()
		result.Verdict = VerdictSat
		return result, run.warnings, nil
	}

	start := time.Now()
	verdict, err := run.check(ctx, s.pathTimeout)
	result.SolveTime = time.Since(start)
	if err != nil {
		return PathResult{}, run.warnings, err
	}
	result.Verdict = verdict
	return result, run.warnings, nil
}

// exprSort tags evaluated expressions with their theory sort.
type exprSort int

const (
	sortInt exprSort = iota
	sortBool
)

// typedExpr pairs a Z3 AST with its sort so the evaluator can reject
// ill-sorted operator applications before they reach the solver.
//
// top marks the permissive sentinel produced for unrecognized
// constructs: it absorbs any enclosing operator and asserts nothing, so
// unknown syntax never manufactures unreachability.
type typedExpr struct {
	ast  *z3.AST
	sort exprSort
	top  bool
}

// pathRun owns the Z3 objects for one path check.
type pathRun struct {
	symbols  map[string]string
	config   *z3.Config
	zctx     *z3.Context
	solver   *z3.Solver
	env      map[string]typedExpr
	warnings []ast.Warning
	closed   bool
}

func newPathRun(symbols map[string]string) *pathRun {
	config := z3.NewConfig()
	zctx := z3.NewContext(config)
	return &pathRun{
		symbols: symbols,
		config:  config,
		zctx:    zctx,
		solver:  zctx.NewSolver(),
		env:     make(map[string]typedExpr),
	}
}

func (r *pathRun) close() {
	if r.closed {
		return
	}
	r.closed = true
	r.solver.Close()
	r.zctx.Close()
	r.config.Close()
}

func (r *pathRun) warnf(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, ast.Warning{Message: msg, Line: line})
	slog.Debug("solver warning", slog.String("message", msg), slog.Int("line", line))
}

// assertConditions processes the list in order: assignments substitute
// into the environment, branches assert their (possibly negated)
// predicates. Returns the number of asserted constraints and the
// line-attributed partial result.
func (r *pathRun) assertConditions(conds ConditionList) (int, PathResult, error) {
	var result PathResult
	asserted := 0
	for _, cond := range conds.Conditions {
		switch cond.Kind {
		case CondAssign:
			if _, declared := r.symbols[cond.Variable]; !declared {
				return 0, result, fmt.Errorf("%w: assignment to undeclared variable %q", ErrUnknownSymbol, cond.Variable)
			}
			value, err := r.eval(cond.Expr)
			if err != nil {
				return 0, result, err
			}
			r.env[cond.Variable] = value

		case CondBranch:
			// The innermost conditional wins the attribution.
			result.HasBranch = true
			result.StartLine = cond.StartLine
			result.EndLine = cond.EndLine

			predicate, err := r.eval(cond.Expr)
			if err != nil {
				return 0, result, err
			}
			if predicate.top {
				continue
			}
			if predicate.sort != sortBool {
				r.warnf(cond.StartLine, "non-boolean branch predicate treated as true")
				continue
			}
			p := predicate.ast
			if !cond.Polarity {
				p = p.Not()
			}
			r.solver.Assert(p)
			asserted++
		}
	}
	return asserted, result, nil
}

// check runs the satisfiability query under the per-path deadline.
//
// Z3's check cannot be interrupted from Go once started: on timeout or
// cancellation the query is abandoned and a reaper goroutine releases
// the Z3 context after the check eventually returns.
func (r *pathRun) check(ctx context.Context, timeout time.Duration) (Verdict, error) {
	done := make(chan z3.LBool, 1)
	go func() {
		done <- r.solver.Check()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case lb := <-done:
		defer r.close()
		switch lb {
		case z3.True:
			return VerdictSat, nil
		case z3.False:
			return VerdictUnsat, nil
		default:
			return VerdictUnknown, nil
		}
	case <-timer.C:
		r.abandon(done)
		return 0, fmt.Errorf("%w: %w after %s", ErrSolver, ErrSolverTimeout, timeout)
	case <-ctx.Done():
		r.abandon(done)
		return 0, fmt.Errorf("%w: %v", ErrSolver, ctx.Err())
	}
}

// abandon leaves the in-flight check to finish in the background and
// releases the Z3 objects afterwards.
func (r *pathRun) abandon(done <-chan z3.LBool) {
	go func() {
		<-done
		r.close()
	}()
}

// eval translates an expression node into a typed Z3 expression,
// resolving identifiers through the path environment.
func (r *pathRun) eval(n *ast.Node) (typedExpr, error) {
	n = n.Unwrap()
	if n == nil {
		return typedExpr{}, fmt.Errorf("%w: empty expression", ErrTypeMismatch)
	}

	switch n.Kind {
	case ast.KindNumericLiteral:
		value, err := strconv.Atoi(n.Text)
		if err != nil {
			return typedExpr{}, fmt.Errorf("%w: numeric literal %q", ErrTypeMismatch, n.Text)
		}
		return typedExpr{ast: r.zctx.Int(value, r.zctx.IntSort()), sort: sortInt}, nil

	case ast.KindTrueKeyword:
		return typedExpr{ast: r.zctx.True(), sort: sortBool}, nil

	case ast.KindFalseKeyword:
		return typedExpr{ast: r.zctx.False(), sort: sortBool}, nil

	case ast.KindIdentifier:
		return r.resolve(n)

	case ast.KindBinaryExpression:
		return r.evalBinary(n)

	case ast.KindPrefixUnaryExpression:
		return r.evalUnary(n)

	default:
		r.warnf(n.StartLine, "unrecognized expression kind %q treated as true", n.Kind)
		return r.topExpr(), nil
	}
}

// topExpr is the permissive sentinel for unrecognized constructs.
func (r *pathRun) topExpr() typedExpr {
	return typedExpr{ast: r.zctx.True(), sort: sortBool, top: true}
}

// resolve looks an identifier up in the path environment, materializing
// a fresh symbolic constant for declared-but-unassigned variables.
func (r *pathRun) resolve(n *ast.Node) (typedExpr, error) {
	if bound, ok := r.env[n.Text]; ok {
		return bound, nil
	}
	declaredType, declared := r.symbols[n.Text]
	if !declared {
		return typedExpr{}, fmt.Errorf("%w: %q at line %d", ErrUnknownSymbol, n.Text, n.StartLine)
	}

	var fresh typedExpr
	switch declaredType {
	case TypeNumber:
		fresh = typedExpr{ast: r.zctx.Const(r.zctx.Symbol(n.Text), r.zctx.IntSort()), sort: sortInt}
	case TypeBoolean:
		fresh = typedExpr{ast: r.zctx.Const(r.zctx.Symbol(n.Text), r.zctx.BoolSort()), sort: sortBool}
	default:
		return typedExpr{}, fmt.Errorf("%w: %q declared as %q", ErrUnsupportedType, n.Text, declaredType)
	}
	r.env[n.Text] = fresh
	return fresh, nil
}

func (r *pathRun) evalBinary(n *ast.Node) (typedExpr, error) {
	left, err := r.eval(n.Left())
	if err != nil {
		return typedExpr{}, err
	}
	right, err := r.eval(n.Right())
	if err != nil {
		return typedExpr{}, err
	}
	if left.top || right.top {
		return r.topExpr(), nil
	}

	switch n.Op {
	case ast.OpLess, ast.OpLessEq, ast.OpGreat, ast.OpGreatEq:
		if left.sort != sortInt || right.sort != sortInt {
			return typedExpr{}, fmt.Errorf("%w: comparison %q on non-numeric operands at line %d", ErrTypeMismatch, n.Op, n.StartLine)
		}
		var out *z3.AST
		switch n.Op {
		case ast.OpLess:
			out = left.ast.Lt(right.ast)
		case ast.OpLessEq:
			out = left.ast.Le(right.ast)
		case ast.OpGreat:
			out = left.ast.Gt(right.ast)
		case ast.OpGreatEq:
			out = left.ast.Ge(right.ast)
		}
		return typedExpr{ast: out, sort: sortBool}, nil

	case ast.OpEqual, ast.OpNotEq:
		if left.sort != right.sort {
			return typedExpr{}, fmt.Errorf("%w: equality between different sorts at line %d", ErrTypeMismatch, n.StartLine)
		}
		eq := left.ast.Eq(right.ast)
		if n.Op == ast.OpNotEq {
			eq = eq.Not()
		}
		return typedExpr{ast: eq, sort: sortBool}, nil

	case ast.OpAnd, ast.OpOr:
		if left.sort != sortBool || right.sort != sortBool {
			return typedExpr{}, fmt.Errorf("%w: connective %q on non-boolean operands at line %d", ErrTypeMismatch, n.Op, n.StartLine)
		}
		if n.Op == ast.OpAnd {
			return typedExpr{ast: left.ast.And(right.ast), sort: sortBool}, nil
		}
		return typedExpr{ast: left.ast.Or(right.ast), sort: sortBool}, nil

	case ast.OpAdd, ast.OpSub, ast.OpMul:
		if left.sort != sortInt || right.sort != sortInt {
			return typedExpr{}, fmt.Errorf("%w: arithmetic %q on non-numeric operands at line %d", ErrTypeMismatch, n.Op, n.StartLine)
		}
		var out *z3.AST
		switch n.Op {
		case ast.OpAdd:
			out = left.ast.Add(right.ast)
		case ast.OpSub:
			out = left.ast.Sub(right.ast)
		case ast.OpMul:
			out = left.ast.Mul(right.ast)
		}
		return typedExpr{ast: out, sort: sortInt}, nil

	default:
		// Unknown operators are permissive: the predicate becomes true
		// so unsupported constructs never manufacture unreachability.
		r.warnf(n.StartLine, "unrecognized operator %q treated as true", n.Op)
		return r.topExpr(), nil
	}
}

func (r *pathRun) evalUnary(n *ast.Node) (typedExpr, error) {
	if len(n.Children) == 0 {
		return typedExpr{}, fmt.Errorf("%w: empty expression", ErrTypeMismatch)
	}
	operand, err := r.eval(n.Children[0])
	if err != nil {
		return typedExpr{}, err
	}
	if operand.top {
		return r.topExpr(), nil
	}

	switch n.Op {
	case ast.OpNot:
		if operand.sort != sortBool {
			return typedExpr{}, fmt.Errorf("%w: negation of non-boolean operand at line %d", ErrTypeMismatch, n.StartLine)
		}
		return typedExpr{ast: operand.ast.Not(), sort: sortBool}, nil

	case ast.OpSub:
		if operand.sort != sortInt {
			return typedExpr{}, fmt.Errorf("%w: arithmetic negation of non-numeric operand at line %d", ErrTypeMismatch, n.StartLine)
		}
		zero := r.zctx.Int(0, r.zctx.IntSort())
		return typedExpr{ast: zero.Sub(operand.ast), sort: sortInt}, nil

	default:
		r.warnf(n.StartLine, "unrecognized unary operator %q treated as true", n.Op)
		return r.topExpr(), nil
	}
}
