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

// Step is one context occurrence on a path. For a ConditionalContext
// the Polarity records which side of the branch the path takes; for
// other contexts it is meaningless and always false.
type Step struct {
	Context  Context
	Polarity bool
}

// Path is one root-to-leaf trajectory through the context tree, in tree
// order. Paths are immutable once enumerated.
type Path struct {
	Steps []Step
}

// EnumeratePaths extracts every root-to-leaf path of the tree.
//
// Description:
//
//	Depth-first enumeration in pre-order. At each Conditional the walk
//	forks: the true-polarity continuation is emitted before the
//	false-polarity one, and the false continuation exists even when the
//	source had no else branch (it carries only the negated predicate).
//	Assignments that precede a fork accumulate onto every continuation,
//	so each path sees the stores that control flow would have executed
//	before reaching its branch points.
//
//	The output order is the DFS pre-order enumeration and is part of
//	the external contract: callers rely on it for deterministic,
//	ordered verdicts.
//
// Outputs:
//   - []Path: One path per leaf of the tree; never empty (a tree with
//     no contexts yields a single empty path).
func EnumeratePaths(root *RootContext) []Path {
	var out []Path
	walkSequence(root.Children, nil, &out)
	return out
}

// walkSequence walks one sibling sequence with the accumulated prefix.
func walkSequence(children []Context, prefix []Step, out *[]Path) {
	if len(children) == 0 {
		*out = append(*out, Path{Steps: cloneSteps(prefix)})
		return
	}
	acc := cloneSteps(prefix)
	for _, child := range children {
		switch c := child.(type) {
		case *AssignmentContext:
			// The assignment terminates a path of its own and joins the
			// prefix of every sibling that follows it.
			leaf := append(cloneSteps(acc), Step{Context: c})
			*out = append(*out, Path{Steps: leaf})
			acc = append(acc, Step{Context: c})

		case *ConditionalContext:
			truePrefix := append(cloneSteps(acc), Step{Context: c, Polarity: true})
			walkSequence(c.ThenChildren, truePrefix, out)

			falsePrefix := append(cloneSteps(acc), Step{Context: c, Polarity: false})
			walkSequence(c.ElseChildren, falsePrefix, out)
		}
	}
}

func cloneSteps(steps []Step) []Step {
	if len(steps) == 0 {
		return nil
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}
