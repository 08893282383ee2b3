// Package analysis is the reusable pass library behind the script rules.
// Every pass follows the same contract: traverse an immutable AST, match a
// structural shape, and return typed results with fragment-relative lines.
// Passes hold no state and are safe to run concurrently over shared trees.
package analysis

import (
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// topLevelFunctions returns the function declarations that are direct
// children of the program node.
func topLevelFunctions(prog *ast.Node) []*ast.Node {
	var fns []*ast.Node
	for _, stmt := range prog.Children {
		if stmt.Kind == ast.KindFuncDecl {
			fns = append(fns, stmt)
		}
	}
	return fns
}

// allFunctions returns every function node in the tree, outermost first.
func allFunctions(prog *ast.Node) []*ast.Node {
	var fns []*ast.Node
	ast.Walk(prog, func(n *ast.Node) bool {
		if n.IsFunction() {
			fns = append(fns, n)
		}
		return true
	})
	return fns
}

// functionLabel names a function unit for reporting. Anonymous functions
// and arrows are labelled by their line.
func functionLabel(fn *ast.Node) string {
	if fn.Value != "" {
		return fn.Value
	}
	return "(anonymous)"
}

// Identifiers returns every identifier referenced in the tree. Member
// property names and object keys never appear as Ident nodes (they live in
// the owning node's Value), so a plain walk collects exactly the reference
// surface. Rules use this for cross-fragment call-site scans; it
// deliberately includes call callees and assignment targets.
func Identifiers(prog *ast.Node) map[string]bool {
	refs := make(map[string]bool)
	ast.Walk(prog, func(n *ast.Node) bool {
		if n.Kind == ast.KindIdent {
			refs[n.Value] = true
		}
		return true
	})
	return refs
}
