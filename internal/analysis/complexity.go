package analysis

import (
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// ComplexityScore is the cyclomatic complexity of one analyzed unit: a
// function body, or, for scripts declaring no functions, the whole block,
// labelled "(script)".
type ComplexityScore struct {
	Unit  string
	Line  int
	Score int
}

// Complexity scores a script fragment. The base score of a unit is 1; each
// `if` (including `else if`), ternary, `for`, `while`, `case`, and each
// short-circuit boolean operator adds 1. Nested function bodies are scored
// as their own units, never folded into the enclosing one.
//
// Known limitation, preserved deliberately: a script mixing top-level
// functions and top-level procedural statements is scored functions-only;
// the procedural remainder goes unscored whenever at least one function
// exists. Callers relying on whole-block scores must ensure the fragment
// declares no functions.
func Complexity(prog *ast.Node) []ComplexityScore {
	fns := allFunctions(prog)
	if len(fns) == 0 {
		return []ComplexityScore{{
			Unit:  "(script)",
			Line:  prog.Line(),
			Score: 1 + countDecisionPoints(prog, prog),
		}}
	}
	scores := make([]ComplexityScore, 0, len(fns))
	for _, fn := range fns {
		scores = append(scores, ComplexityScore{
			Unit:  functionLabel(fn),
			Line:  fn.Line(),
			Score: 1 + countDecisionPoints(fn.Body(), fn),
		})
	}
	return scores
}

// countDecisionPoints counts branch points below root, pruning at nested
// function boundaries. owner is the unit whose score is being computed.
func countDecisionPoints(root, owner *ast.Node) int {
	count := 0
	ast.Walk(root, func(n *ast.Node) bool {
		if n != owner && n.IsFunction() {
			return false
		}
		switch n.Kind {
		case ast.KindIf, ast.KindTernary, ast.KindFor, ast.KindForIn, ast.KindWhile:
			count++
		case ast.KindCase:
			if n.Value != "default" {
				count++
			}
		case ast.KindLogical:
			if n.Value == "&&" || n.Value == "||" {
				count++
			}
		}
		return true
	})
	return count
}
