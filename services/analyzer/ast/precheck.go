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
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// forbiddenConstructs maps tree-sitter node types outside the accepted
// dialect to the wording used in diagnostics. The dialect is
// straight-line and if/else control flow over scalar parameters: no
// loops, no imports, no exceptions, no user-defined types beyond the
// parameter-type scalars.
var forbiddenConstructs = map[string]string{
	"for_statement":          "for loop",
	"for_in_statement":       "for-in loop",
	"while_statement":        "while loop",
	"do_statement":           "do-while loop",
	"switch_statement":       "switch statement",
	"import_statement":       "import",
	"export_statement":       "export",
	"try_statement":          "try/catch",
	"throw_statement":        "throw",
	"new_expression":         "object construction",
	"template_string":        "template string",
	"await_expression":       "await",
	"ternary_expression":     "conditional (ternary) expression",
	"labeled_statement":      "labeled statement",
	"break_statement":        "break",
	"continue_statement":     "continue",
	"interface_declaration":  "interface declaration",
	"enum_declaration":       "enum declaration",
	"type_alias_declaration": "type alias",
}

// Precheck validates source text against the accepted dialect.
//
// Description:
//
//	Precheck parses the text under the strict dialect rules and returns
//	one diagnostic string per violation. An empty slice means the source
//	is acceptable and analysis may proceed. Any parse error, unsupported
//	construct, or malformed literal produces a diagnostic; the caller
//	turns a non-empty list into a precheck failure.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - source: Raw source bytes.
//
// Outputs:
//   - []string: Diagnostics in source order, empty on success.
//   - error: Non-nil only when the checker itself cannot run (canceled
//     context, tree-sitter failure). Dialect violations are diagnostics,
//     not errors.
func Precheck(ctx context.Context, source []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("precheck canceled: %w", err)
	}

	var diags []string
	if int64(len(source)) > DefaultMaxSourceSize {
		diags = append(diags, fmt.Sprintf("source exceeds maximum size of %d bytes", DefaultMaxSourceSize))
		return diags, nil
	}
	if !utf8.Valid(source) {
		diags = append(diags, "source is not valid UTF-8")
		return diags, nil
	}
	if len(strings.TrimSpace(string(source))) == 0 {
		diags = append(diags, "source is empty")
		return diags, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		diags = append(diags, "parser produced no syntax tree")
		return diags, nil
	}

	c := &prechecker{source: source}
	c.walk(root)
	return c.diags, nil
}

type prechecker struct {
	source []byte
	diags  []string
}

func (c *prechecker) addf(line int, format string, args ...any) {
	c.diags = append(c.diags, fmt.Sprintf("line %d: %s", line, fmt.Sprintf(format, args...)))
}

func (c *prechecker) walk(n *sitter.Node) {
	typ := n.Type()

	switch {
	case n.IsMissing():
		c.addf(line(n), "syntax error: missing %q", typ)
		return
	case typ == "ERROR":
		c.addf(line(n), "syntax error near %q", truncate(n.Content(c.source), 40))
		return
	}

	if desc, ok := forbiddenConstructs[typ]; ok {
		c.addf(line(n), "unsupported construct: %s", desc)
		return
	}

	switch typ {
	case "call_expression":
		// A single call site is tolerated at the top level of the
		// source file (the conventional driver invocation); calls
		// anywhere else are outside the dialect.
		if !c.isTopLevelCall(n) {
			c.addf(line(n), "unsupported construct: function call")
			return
		}
	case "number":
		// Only the named literal node; the anonymous "number" keyword of
		// a type annotation shares the node type.
		text := n.Content(c.source)
		if n.IsNamed() && strings.ContainsAny(text, ".eExXbBoO") {
			c.addf(line(n), "non-integer numeric literal %q", text)
		}
	}

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c.walk(n.Child(i))
	}
}

// isTopLevelCall reports whether the call expression sits directly in a
// top-level expression statement of the source file.
func (c *prechecker) isTopLevelCall(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil || parent.Type() != "expression_statement" {
		return false
	}
	grand := parent.Parent()
	return grand != nil && grand.Type() == "program"
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
