// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package contexttree

import (
	"fmt"
	"log/slog"

	"github.com/AleutianAI/pathprobe/services/analyzer/ast"
)

// Builder walks a tagged AST depth-first and emits the context tree.
//
// The builder never fails fatally: unknown node kinds produce a warning
// and are skipped. Unresolvable identifiers are deliberately not checked
// here; they surface as fatal errors during condition evaluation.
type Builder struct {
	root     *RootContext
	warnings []ast.Warning
}

// Build constructs the context tree for the given source file root.
//
// Outputs:
//   - *RootContext: The tree root with its populated symbol table.
//   - []ast.Warning: Non-fatal observations made during the walk.
func Build(root *ast.Node) (*RootContext, []ast.Warning) {
	b := &Builder{
		root: &RootContext{Symbols: make(map[string]string)},
	}
	b.visit(root, &b.root.Children)
	return b.root, b.warnings
}

func (b *Builder) warnf(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.warnings = append(b.warnings, ast.Warning{Message: msg, Line: line})
	slog.Debug("context tree warning", slog.String("message", msg), slog.Int("line", line))
}

// visit dispatches one node. attach points at the child list of the
// context the walk is currently inside; new contexts append there.
func (b *Builder) visit(n *ast.Node, attach *[]Context) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindParameter:
		b.declare(n)

	case ast.KindVariableDeclaration:
		b.declare(n)
		if init := n.Initializer(); init != nil {
			assign := &AssignmentContext{VarName: n.Text, Expr: init}
			*attach = append(*attach, assign)
			// The initializer cannot introduce contexts in the accepted
			// dialect, but the traversal is preserved.
			b.visit(init, &assign.Children)
		}

	case ast.KindBinaryExpression:
		if n.Op == ast.OpAssign {
			b.visitAssignment(n, attach)
			return
		}
		b.visit(n.Left(), attach)
		b.visit(n.Right(), attach)

	case ast.KindIfStatement:
		b.visitIf(n, attach)

	case ast.KindPrefixUnaryExpression,
		ast.KindParenthesizedExpression,
		ast.KindNonNullExpression,
		ast.KindBlock,
		ast.KindSyntaxList,
		ast.KindSourceFile,
		ast.KindFunctionDeclaration,
		ast.KindArrowFunction,
		ast.KindClassDeclaration,
		ast.KindPropertyDeclaration,
		ast.KindVariableStatement,
		ast.KindVariableDeclarationList,
		ast.KindExpressionStatement,
		ast.KindPropertyAccessExpression,
		ast.KindReturnStatement:
		for _, child := range n.Children {
			b.visit(child, attach)
		}

	case ast.KindIdentifier,
		ast.KindThisKeyword,
		ast.KindNumericLiteral,
		ast.KindStringLiteral,
		ast.KindTrueKeyword,
		ast.KindFalseKeyword:
		// Observed only.

	case ast.KindConditionalExpression:
		// The precheck rejects ternaries; one reaching this point came
		// through a degraded parse. Skip it like unknown syntax.
		b.warnf(n.StartLine, "conditional expression not supported; skipped")

	default:
		b.warnf(n.StartLine, "unrecognized node kind %q skipped", n.Kind)
	}
}

// declare registers a typed name in the root symbol table. Declarations
// without a type annotation are registered with an empty type; the SMT
// driver takes their sort from the assigned value and rejects them only
// when a path references them before any assignment.
func (b *Builder) declare(n *ast.Node) {
	if n.Text == "" {
		b.warnf(n.StartLine, "declaration with no name skipped")
		return
	}
	b.root.Symbols[n.Text] = n.TypeName
}

// visitAssignment handles the binary "=" form. The left side and the
// operator token are not recursed into.
func (b *Builder) visitAssignment(n *ast.Node, attach *[]Context) {
	left := n.Left().Unwrap()
	if left == nil || left.Kind != ast.KindIdentifier {
		b.warnf(n.StartLine, "assignment to non-identifier skipped")
		return
	}
	assign := &AssignmentContext{VarName: left.Text, Expr: n.Right()}
	*attach = append(*attach, assign)
	b.visit(n.Right(), &assign.Children)
}

// visitIf creates a Conditional context and recurses into the predicate
// and both branches. Branch polarity is not builder state: the then and
// else subtrees land in separate child lists and the path enumerator
// materializes the polarities.
func (b *Builder) visitIf(n *ast.Node, attach *[]Context) {
	predicate := n.Predicate()
	if predicate == nil {
		b.warnf(n.StartLine, "if statement with no predicate skipped")
		return
	}
	cond := &ConditionalContext{
		Predicate: predicate.Unwrap(),
		StartLine: n.StartLine,
		EndLine:   n.EndLine,
	}
	*attach = append(*attach, cond)

	// Predicate traversal is preserved for symmetry; expressions add no
	// contexts in the accepted dialect.
	b.visit(cond.Predicate, &cond.ThenChildren)
	b.visit(n.Then(), &cond.ThenChildren)

	if elseBranch := n.Else(); elseBranch != nil {
		cond.HasElse = true
		b.visit(elseBranch, &cond.ElseChildren)
	}
}
