// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast adapts tree-sitter parse trees of the accepted TypeScript
// dialect into the tagged Node view consumed by the path analyzer, and
// prechecks source text against the dialect before analysis starts.
package ast

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Input size limits, mirroring the parser guards used across Aleutian
// services.
const (
	// DefaultMaxSourceSize is the maximum source size the adapter will
	// accept (1MB). Analyzer inputs are single functions; anything near
	// this limit is almost certainly not a valid request.
	DefaultMaxSourceSize = 1 * 1024 * 1024
)

// Adapter converts source text into the tagged Node tree.
//
// Thread Safety: Adapter instances are safe for concurrent use. Each
// Adapt call creates its own tree-sitter parser and collects warnings
// into the returned slice, never into shared state.
type Adapter struct {
	maxSourceSize int64
}

// AdapterOption configures an Adapter instance.
type AdapterOption func(*Adapter)

// WithMaxSourceSize sets the maximum source size the adapter will accept.
func WithMaxSourceSize(bytes int64) AdapterOption {
	return func(a *Adapter) {
		if bytes > 0 {
			a.maxSourceSize = bytes
		}
	}
}

// NewAdapter creates an Adapter with the given options.
func NewAdapter(opts ...AdapterOption) *Adapter {
	a := &Adapter{maxSourceSize: DefaultMaxSourceSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adapt parses source text and returns the tagged root Node.
//
// Description:
//
//	Adapt runs tree-sitter with the TypeScript grammar and translates
//	the resulting tree into Nodes via a per-kind dispatch table.
//	Unrecognized syntax produces a non-fatal warning and is skipped;
//	the caller decides whether to surface warnings.
//
// Inputs:
//   - ctx: Context for cancellation. Tree-sitter parsing itself cannot
//     be interrupted mid-parse; the context is checked before and after.
//   - source: Raw source bytes. Must be valid UTF-8.
//
// Outputs:
//   - *Node: Root of the tagged tree (KindSourceFile). Nil only on error.
//   - []Warning: Non-fatal observations, in source order.
//   - error: Non-nil for complete failures (oversized input, invalid
//     UTF-8, tree-sitter failure, canceled context).
func (a *Adapter) Adapt(ctx context.Context, source []byte) (*Node, []Warning, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("adapt canceled before start: %w", err)
	}
	if int64(len(source)) > a.maxSourceSize {
		return nil, nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrSourceTooLarge, len(source), a.maxSourceSize)
	}
	if !utf8.Valid(source) {
		return nil, nil, fmt.Errorf("%w: source is not valid UTF-8", ErrInvalidSource)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("adapt canceled after parse: %w", err)
	}

	w := &adaptWalk{source: source}
	root := w.adapt(tree.RootNode())
	if root == nil {
		return nil, w.warnings, fmt.Errorf("%w: no source file node", ErrInvalidSource)
	}
	return root, w.warnings, nil
}

// adaptWalk carries the per-call adaptation state.
type adaptWalk struct {
	source   []byte
	warnings []Warning
}

func (w *adaptWalk) warnf(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.warnings = append(w.warnings, Warning{Message: msg, Line: line})
	slog.Debug("adapter warning", slog.String("message", msg), slog.Int("line", line))
}

// adaptHandlers dispatches on the tree-sitter node type. Node types
// absent from this table are unrecognized: they warn and translate to
// nil, which drops them from the tagged tree.
var adaptHandlers map[string]func(*adaptWalk, *sitter.Node) *Node

func init() {
	adaptHandlers = map[string]func(*adaptWalk, *sitter.Node) *Node{
		"program":                  (*adaptWalk).adaptContainerSourceFile,
		"function_declaration":     (*adaptWalk).adaptFunction,
		"arrow_function":           (*adaptWalk).adaptArrowFunction,
		"class_declaration":        (*adaptWalk).adaptClass,
		"class_body":               (*adaptWalk).adaptSyntaxList,
		"public_field_definition":  (*adaptWalk).adaptFieldDefinition,
		"statement_block":          (*adaptWalk).adaptBlock,
		"expression_statement":     (*adaptWalk).adaptExpressionStatement,
		"lexical_declaration":      (*adaptWalk).adaptDeclarationList,
		"variable_declaration":     (*adaptWalk).adaptDeclarationList,
		"variable_declarator":      (*adaptWalk).adaptDeclarator,
		"if_statement":             (*adaptWalk).adaptIf,
		"ternary_expression":       (*adaptWalk).adaptTernary,
		"binary_expression":        (*adaptWalk).adaptBinary,
		"assignment_expression":    (*adaptWalk).adaptAssignment,
		"unary_expression":         (*adaptWalk).adaptUnary,
		"parenthesized_expression": (*adaptWalk).adaptParenthesized,
		"non_null_expression":      (*adaptWalk).adaptNonNull,
		"member_expression":        (*adaptWalk).adaptMember,
		"identifier":               (*adaptWalk).adaptIdentifier,
		"property_identifier":      (*adaptWalk).adaptIdentifier,
		"this":                     (*adaptWalk).adaptThis,
		"number":                   (*adaptWalk).adaptNumber,
		"string":                   (*adaptWalk).adaptString,
		"true":                     (*adaptWalk).adaptTrue,
		"false":                    (*adaptWalk).adaptFalse,
		"return_statement":         (*adaptWalk).adaptReturn,
	}
}

// adapt translates one tree-sitter node. Returns nil for nodes that do
// not participate in the tagged tree (comments, unrecognized syntax).
func (w *adaptWalk) adapt(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	typ := n.Type()
	switch typ {
	case "comment":
		return nil
	case "ERROR":
		// Precheck rejects malformed source before the adapter runs;
		// a stray error node here is tolerated like unknown syntax.
		w.warnf(line(n), "malformed syntax skipped")
		return nil
	}
	if handler, ok := adaptHandlers[typ]; ok {
		return handler(w, n)
	}
	w.warnf(line(n), "unrecognized syntax node kind %q skipped", typ)
	return nil
}

// adaptChildren adapts all named children of n, dropping nils.
func (w *adaptWalk) adaptChildren(n *sitter.Node) []*Node {
	count := int(n.NamedChildCount())
	children := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if child := w.adapt(n.NamedChild(i)); child != nil {
			children = append(children, child)
		}
	}
	return children
}

func (w *adaptWalk) newNode(kind Kind, n *sitter.Node) *Node {
	return &Node{
		Kind:      kind,
		StartLine: line(n),
		EndLine:   int(n.EndPoint().Row) + 1,
	}
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func (w *adaptWalk) text(n *sitter.Node) string {
	return n.Content(w.source)
}

func (w *adaptWalk) adaptContainerSourceFile(n *sitter.Node) *Node {
	node := w.newNode(KindSourceFile, n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptSyntaxList(n *sitter.Node) *Node {
	node := w.newNode(KindSyntaxList, n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptFunction(n *sitter.Node) *Node {
	node := w.newNode(KindFunctionDeclaration, n)
	if name := n.ChildByFieldName("name"); name != nil {
		node.Text = w.text(name)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		node.Children = append(node.Children, w.adaptParameters(params)...)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if b := w.adapt(body); b != nil {
			node.Children = append(node.Children, b)
		}
	}
	return node
}

func (w *adaptWalk) adaptArrowFunction(n *sitter.Node) *Node {
	node := w.newNode(KindArrowFunction, n)
	if params := n.ChildByFieldName("parameters"); params != nil {
		node.Children = append(node.Children, w.adaptParameters(params)...)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if b := w.adapt(body); b != nil {
			node.Children = append(node.Children, b)
		}
	}
	return node
}

// adaptParameters flattens a formal_parameters list into Parameter nodes.
func (w *adaptWalk) adaptParameters(params *sitter.Node) []*Node {
	count := int(params.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			node := w.newNode(KindParameter, p)
			if pattern := p.ChildByFieldName("pattern"); pattern != nil {
				node.Text = w.text(pattern)
			}
			node.TypeName = w.typeAnnotation(p)
			out = append(out, node)
		default:
			w.warnf(line(p), "unrecognized parameter form %q skipped", p.Type())
		}
	}
	return out
}

// typeAnnotation extracts the declared type name from a node's type
// annotation, or "" when there is none.
func (w *adaptWalk) typeAnnotation(n *sitter.Node) string {
	ann := n.ChildByFieldName("type")
	if ann == nil {
		return ""
	}
	// type_annotation wraps the actual type node after the ":".
	if ann.NamedChildCount() > 0 {
		return w.text(ann.NamedChild(0))
	}
	return w.text(ann)
}

func (w *adaptWalk) adaptClass(n *sitter.Node) *Node {
	node := w.newNode(KindClassDeclaration, n)
	if name := n.ChildByFieldName("name"); name != nil {
		node.Text = w.text(name)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		node.Children = w.adaptChildren(body)
	}
	return node
}

func (w *adaptWalk) adaptFieldDefinition(n *sitter.Node) *Node {
	node := w.newNode(KindPropertyDeclaration, n)
	if name := n.ChildByFieldName("name"); name != nil {
		node.Text = w.text(name)
	}
	node.TypeName = w.typeAnnotation(n)
	if value := n.ChildByFieldName("value"); value != nil {
		if v := w.adapt(value); v != nil {
			node.Children = append(node.Children, v)
		}
	}
	return node
}

func (w *adaptWalk) adaptBlock(n *sitter.Node) *Node {
	node := w.newNode(KindBlock, n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptExpressionStatement(n *sitter.Node) *Node {
	node := w.newNode(KindExpressionStatement, n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptDeclarationList(n *sitter.Node) *Node {
	node := w.newNode(KindVariableDeclarationList, n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptDeclarator(n *sitter.Node) *Node {
	node := w.newNode(KindVariableDeclaration, n)
	if name := n.ChildByFieldName("name"); name != nil {
		node.Text = w.text(name)
	}
	node.TypeName = w.typeAnnotation(n)
	if value := n.ChildByFieldName("value"); value != nil {
		if v := w.adapt(value); v != nil {
			node.Children = append(node.Children, v)
		}
	}
	return node
}

func (w *adaptWalk) adaptIf(n *sitter.Node) *Node {
	node := w.newNode(KindIfStatement, n)
	cond := w.adapt(n.ChildByFieldName("condition"))
	if cond == nil {
		w.warnf(line(n), "if statement with no usable condition skipped")
		return nil
	}
	node.Children = append(node.Children, cond)

	then := w.adapt(n.ChildByFieldName("consequence"))
	if then == nil {
		// A branch whose body was entirely unrecognized still exists
		// as an empty block for path purposes.
		then = &Node{Kind: KindBlock, StartLine: node.StartLine, EndLine: node.EndLine}
	}
	node.Children = append(node.Children, then)

	if alt := n.ChildByFieldName("alternative"); alt != nil {
		// alternative is an else_clause wrapping the actual statement.
		var elseNode *Node
		if alt.NamedChildCount() > 0 {
			elseNode = w.adapt(alt.NamedChild(0))
		}
		if elseNode != nil {
			node.Children = append(node.Children, elseNode)
		}
	}
	return node
}

func (w *adaptWalk) adaptTernary(n *sitter.Node) *Node {
	node := w.newNode(KindConditionalExpression, n)
	for _, field := range []string{"condition", "consequence", "alternative"} {
		if c := w.adapt(n.ChildByFieldName(field)); c != nil {
			node.Children = append(node.Children, c)
		}
	}
	return node
}

func (w *adaptWalk) adaptBinary(n *sitter.Node) *Node {
	left := w.adapt(n.ChildByFieldName("left"))
	right := w.adapt(n.ChildByFieldName("right"))
	if left == nil || right == nil {
		w.warnf(line(n), "binary expression with unrecognized operand skipped")
		return nil
	}
	node := w.newNode(KindBinaryExpression, n)
	if op := n.ChildByFieldName("operator"); op != nil {
		node.Op = normalizeOperator(w.text(op))
	}
	node.Children = []*Node{left, right}
	return node
}

// adaptAssignment maps `x = expr` onto a BinaryExpression with the "="
// operator, matching the view the context tree builder dispatches on.
func (w *adaptWalk) adaptAssignment(n *sitter.Node) *Node {
	left := w.adapt(n.ChildByFieldName("left"))
	right := w.adapt(n.ChildByFieldName("right"))
	if left == nil || right == nil {
		w.warnf(line(n), "assignment with unrecognized operand skipped")
		return nil
	}
	node := w.newNode(KindBinaryExpression, n)
	node.Op = OpAssign
	node.Children = []*Node{left, right}
	return node
}

func (w *adaptWalk) adaptUnary(n *sitter.Node) *Node {
	operand := w.adapt(n.ChildByFieldName("argument"))
	if operand == nil {
		w.warnf(line(n), "unary expression with unrecognized operand skipped")
		return nil
	}
	node := w.newNode(KindPrefixUnaryExpression, n)
	if op := n.ChildByFieldName("operator"); op != nil {
		node.Op = w.text(op)
	}
	node.Children = []*Node{operand}
	return node
}

func (w *adaptWalk) adaptParenthesized(n *sitter.Node) *Node {
	node := w.newNode(KindParenthesizedExpression, n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptNonNull(n *sitter.Node) *Node {
	node := w.newNode(KindNonNullExpression, n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptMember(n *sitter.Node) *Node {
	node := w.newNode(KindPropertyAccessExpression, n)
	node.Text = w.text(n)
	node.Children = w.adaptChildren(n)
	return node
}

func (w *adaptWalk) adaptIdentifier(n *sitter.Node) *Node {
	node := w.newNode(KindIdentifier, n)
	node.Text = w.text(n)
	return node
}

func (w *adaptWalk) adaptThis(n *sitter.Node) *Node {
	return w.newNode(KindThisKeyword, n)
}

func (w *adaptWalk) adaptNumber(n *sitter.Node) *Node {
	node := w.newNode(KindNumericLiteral, n)
	node.Text = w.text(n)
	return node
}

func (w *adaptWalk) adaptString(n *sitter.Node) *Node {
	node := w.newNode(KindStringLiteral, n)
	node.Text = w.text(n)
	return node
}

func (w *adaptWalk) adaptTrue(n *sitter.Node) *Node {
	return w.newNode(KindTrueKeyword, n)
}

func (w *adaptWalk) adaptFalse(n *sitter.Node) *Node {
	return w.newNode(KindFalseKeyword, n)
}

func (w *adaptWalk) adaptReturn(n *sitter.Node) *Node {
	node := w.newNode(KindReturnStatement, n)
	node.Children = w.adaptChildren(n)
	return node
}
