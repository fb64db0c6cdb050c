// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adapterTestSource = `function test(a: number, flag: boolean) {
  const x = 5;
  let y: number = 0;
  if (a > x) {
    y = a;
  } else {
    y = 0;
  }
  return y;
}`

// findFirst returns the first node of the given kind in pre-order.
func findFirst(n *Node, kind Kind) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, child := range n.Children {
		if found := findFirst(child, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestAdapter_Adapt_BasicProgram(t *testing.T) {
	adapter := NewAdapter()
	root, warnings, err := adapter.Adapt(context.Background(), []byte(adapterTestSource))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.NotNil(t, root)
	assert.Equal(t, KindSourceFile, root.Kind)

	fn := findFirst(root, KindFunctionDeclaration)
	require.NotNil(t, fn)
	assert.Equal(t, "test", fn.Text)

	// Two parameters with their declared types.
	var params []*Node
	for _, child := range fn.Children {
		if child.Kind == KindParameter {
			params = append(params, child)
		}
	}
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].Text)
	assert.Equal(t, "number", params[0].TypeName)
	assert.Equal(t, "flag", params[1].Text)
	assert.Equal(t, "boolean", params[1].TypeName)
}

func TestAdapter_Adapt_Declarations(t *testing.T) {
	adapter := NewAdapter()
	root, _, err := adapter.Adapt(context.Background(), []byte(adapterTestSource))
	require.NoError(t, err)

	decl := findFirst(root, KindVariableDeclaration)
	require.NotNil(t, decl)
	assert.Equal(t, "x", decl.Text)
	assert.Equal(t, "", decl.TypeName)
	require.NotNil(t, decl.Initializer())
	assert.Equal(t, KindNumericLiteral, decl.Initializer().Kind)
	assert.Equal(t, "5", decl.Initializer().Text)
	assert.Equal(t, 2, decl.StartLine)
}

func TestAdapter_Adapt_IfStatement(t *testing.T) {
	adapter := NewAdapter()
	root, _, err := adapter.Adapt(context.Background(), []byte(adapterTestSource))
	require.NoError(t, err)

	ifNode := findFirst(root, KindIfStatement)
	require.NotNil(t, ifNode)
	assert.Equal(t, 4, ifNode.StartLine)
	assert.Equal(t, 8, ifNode.EndLine)

	predicate := ifNode.Predicate().Unwrap()
	require.NotNil(t, predicate)
	assert.Equal(t, KindBinaryExpression, predicate.Kind)
	assert.Equal(t, OpGreat, predicate.Op)
	assert.Equal(t, "a", predicate.Left().Text)
	assert.Equal(t, "x", predicate.Right().Text)

	require.NotNil(t, ifNode.Then())
	require.NotNil(t, ifNode.Else())

	// The then-branch assignment shows up as a "=" binary expression.
	assign := findFirst(ifNode.Then(), KindBinaryExpression)
	require.NotNil(t, assign)
	assert.Equal(t, OpAssign, assign.Op)
	assert.Equal(t, "y", assign.Left().Text)
}

func TestAdapter_Adapt_NormalizesStrictEquality(t *testing.T) {
	source := `function test(a: number) {
  if (a === 1) { return 1; }
  if (a !== 2) { return 2; }
}`
	adapter := NewAdapter()
	root, warnings, err := adapter.Adapt(context.Background(), []byte(source))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	var ops []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Kind == KindBinaryExpression {
			ops = append(ops, n.Op)
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	assert.Contains(t, ops, OpEqual)
	assert.Contains(t, ops, OpNotEq)
	assert.NotContains(t, ops, "===")
	assert.NotContains(t, ops, "!==")
}

func TestAdapter_Adapt_UnknownSyntaxWarnsAndSkips(t *testing.T) {
	source := `function test(a: number) {
  const xs = [1, 2];
  if (a > 0) { return 1; }
}`
	adapter := NewAdapter()
	root, warnings, err := adapter.Adapt(context.Background(), []byte(source))
	require.NoError(t, err)
	require.NotNil(t, root)

	require.NotEmpty(t, warnings)
	found := false
	for _, w := range warnings {
		if strings.Contains(w.Message, "unrecognized") {
			found = true
		}
	}
	assert.True(t, found, "expected an unrecognized-syntax warning, got %v", warnings)

	// The if statement survives the unknown sibling.
	assert.NotNil(t, findFirst(root, KindIfStatement))
}

func TestAdapter_Adapt_RejectsOversizedInput(t *testing.T) {
	adapter := NewAdapter(WithMaxSourceSize(16))
	_, _, err := adapter.Adapt(context.Background(), []byte(adapterTestSource))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceTooLarge)
}

func TestAdapter_Adapt_RejectsInvalidUTF8(t *testing.T) {
	adapter := NewAdapter()
	_, _, err := adapter.Adapt(context.Background(), []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestAdapter_Adapt_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	adapter := NewAdapter()
	_, _, err := adapter.Adapt(ctx, []byte(adapterTestSource))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
