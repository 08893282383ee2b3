package analysis

import (
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// NestingResult is the deepest lexical nesting found in a fragment, with
// the line of the first node at that depth.
type NestingResult struct {
	Depth int
	Line  int
}

// NestingDepth measures the maximum depth of lexically nested `if`, `for`,
// `while`, and function bodies. The top level is depth 0; each nesting
// construct entered adds one. The reported line points at the construct
// that first reaches the maximum.
func NestingDepth(prog *ast.Node) NestingResult {
	max := NestingResult{}
	var walk func(n *ast.Node, depth int)
	walk = func(n *ast.Node, depth int) {
		if n == nil {
			return
		}
		entered := depth
		switch {
		case n.Kind == ast.KindIf, n.Kind == ast.KindFor, n.Kind == ast.KindForIn, n.Kind == ast.KindWhile:
			entered = depth + 1
		case n.IsFunction():
			entered = depth + 1
		}
		if entered > max.Depth {
			max.Depth = entered
			max.Line = n.Line()
		}
		for _, c := range n.Children {
			walk(c, entered)
		}
	}
	// The program node itself is not a nesting level.
	for _, c := range prog.Children {
		walk(c, 0)
	}
	return max
}
