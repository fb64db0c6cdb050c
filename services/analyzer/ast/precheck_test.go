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

func TestPrecheck_AcceptsDialect(t *testing.T) {
	source := `function test(a: number, b: number) {
  const x = 5;
  if (a > b) { return 1; } else { return 2; }
}
test(1, 2);`
	diags, err := Precheck(context.Background(), []byte(source))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestPrecheck_SyntaxError(t *testing.T) {
	source := `function test(a: number) { if (a > `
	diags, err := Precheck(context.Background(), []byte(source))
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Contains(t, strings.Join(diags, "; "), "syntax error")
}

func TestPrecheck_EmptySource(t *testing.T) {
	diags, err := Precheck(context.Background(), []byte("   \n  "))
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0], "empty")
}

func TestPrecheck_ForbiddenConstructs(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "for loop",
			source: `function test(a: number) { for (let i = 0; i < a; i = i + 1) { } }`,
			want:   "for loop",
		},
		{
			name:   "while loop",
			source: `function test(a: number) { while (a > 0) { } }`,
			want:   "while loop",
		},
		{
			name:   "import",
			source: `import { x } from "./x"; function test(a: number) { }`,
			want:   "import",
		},
		{
			name:   "throw",
			source: `function test(a: number) { throw a; }`,
			want:   "throw",
		},
		{
			name:   "ternary",
			source: `function test(a: number) { const x = a > 0 ? 1 : 2; }`,
			want:   "ternary",
		},
		{
			name:   "nested call",
			source: `function test(a: number) { const x = helper(a); }`,
			want:   "function call",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags, err := Precheck(context.Background(), []byte(tt.source))
			require.NoError(t, err)
			require.NotEmpty(t, diags, "expected a diagnostic for %s", tt.name)
			assert.Contains(t, strings.Join(diags, "; "), tt.want)
		})
	}
}

func TestPrecheck_TopLevelCallAllowed(t *testing.T) {
	source := `function test(a: number) { if (a > 0) { return 1; } }
test(3);`
	diags, err := Precheck(context.Background(), []byte(source))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestPrecheck_NonIntegerLiteral(t *testing.T) {
	source := `function test(a: number) { if (a > 1.5) { return 1; } }`
	diags, err := Precheck(context.Background(), []byte(source))
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0], "non-integer")
}

func TestPrecheck_DiagnosticsCarryLines(t *testing.T) {
	source := `function test(a: number) {
  while (a > 0) { }
}`
	diags, err := Precheck(context.Background(), []byte(source))
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0], "line 2")
}
