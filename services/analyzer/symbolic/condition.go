// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symbolic turns enumerated context-tree paths into constraint
// lists and decides their satisfiability with the Z3 solver.
package symbolic

import (
	"sort"

	"github.com/AleutianAI/pathprobe/services/analyzer/ast"
	"github.com/AleutianAI/pathprobe/services/analyzer/contexttree"
)

// ConditionKind distinguishes the two condition forms of a path.
type ConditionKind int

const (
	// CondAssign is a variable store: Variable takes Expr's value.
	CondAssign ConditionKind = iota

	// CondBranch is a polarity-tagged branch predicate.
	CondBranch
)

// Condition is the per-path normalized form of one Assignment or
// Conditional context, ready for SMT translation.
type Condition struct {
	Kind ConditionKind

	// Variable is the assigned name. Set for CondAssign only.
	Variable string

	// Expr is the right-hand side (CondAssign) or the branch predicate
	// (CondBranch).
	Expr *ast.Node

	// Polarity is the branch side this path takes. The effective
	// predicate is Expr when true, its logical negation when false.
	// Set for CondBranch only.
	Polarity bool

	// StartLine and EndLine delimit the originating if statement.
	// Set for CondBranch only.
	StartLine int
	EndLine   int

	// Refs holds every identifier referenced by Expr.
	Refs map[string]struct{}
}

// ConditionList is the flat constraint view of one path.
type ConditionList struct {
	// Conditions in path order.
	Conditions []Condition

	// FreeVars are the symbolic parameters of the path: every
	// identifier referenced before it is assigned on this path, sorted
	// for deterministic output.
	FreeVars []string
}

// BuildConditions converts one enumerated path into its ConditionList.
//
// Assignment semantics are SSA-at-usage: a reference to a variable in a
// later condition resolves to the most recent assignment's right-hand
// side until re-assigned. The solver realizes this by substitution when
// it processes the list in order; this stage only normalizes and
// collects references.
func BuildConditions(path contexttree.Path) ConditionList {
	var list ConditionList
	assigned := make(map[string]struct{})
	free := make(map[string]struct{})

	record := func(refs map[string]struct{}) {
		for name := range refs {
			if _, ok := assigned[name]; !ok {
				free[name] = struct{}{}
			}
		}
	}

	for _, step := range path.Steps {
		switch c := step.Context.(type) {
		case *contexttree.AssignmentContext:
			cond := Condition{
				Kind:     CondAssign,
				Variable: c.VarName,
				Expr:     c.Expr,
				Refs:     collectRefs(c.Expr),
			}
			record(cond.Refs)
			assigned[c.VarName] = struct{}{}
			list.Conditions = append(list.Conditions, cond)

		case *contexttree.ConditionalContext:
			cond := Condition{
				Kind:      CondBranch,
				Expr:      c.Predicate,
				Polarity:  step.Polarity,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Refs:      collectRefs(c.Predicate),
			}
			record(cond.Refs)
			list.Conditions = append(list.Conditions, cond)
		}
	}

	list.FreeVars = make([]string, 0, len(free))
	for name := range free {
		list.FreeVars = append(list.FreeVars, name)
	}
	sort.Strings(list.FreeVars)
	return list
}

// collectRefs gathers the identifiers referenced by an expression.
func collectRefs(n *ast.Node) map[string]struct{} {
	refs := make(map[string]struct{})
	var walk func(*ast.Node)
	walk = func(n *ast.Node) {
		if n == nil {
			return
		}
		if n.Kind == ast.KindIdentifier {
			refs[n.Text] = struct{}{}
			return
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(n)
	return refs
}
