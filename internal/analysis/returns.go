package analysis

import (
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// ReturnIssueKind separates the two findings the return pass produces.
type ReturnIssueKind int

const (
	// ReturnInconsistent: some exit paths of the function return a value
	// path and others fall off the end.
	ReturnInconsistent ReturnIssueKind = iota
	// ReturnUnreachable: code after an unconditional return in the same
	// block.
	ReturnUnreachable
)

// ReturnIssue is one return-path problem in a function.
type ReturnIssue struct {
	Unit string
	Line int
	Kind ReturnIssueKind
}

// ReturnPaths checks every function in the fragment for return-path
// consistency and unreachable trailing code.
//
// The consistency contract recognizes the guard-clause shape: an `if`
// without `else` whose branch returns early is fine as long as the code it
// guards continues into a main body that itself ends in a return. A
// function with no return statements at all is a procedure and is never
// flagged.
func ReturnPaths(prog *ast.Node) []ReturnIssue {
	var issues []ReturnIssue
	for _, fn := range allFunctions(prog) {
		body := fn.Body()
		if body == nil {
			continue
		}
		label := functionLabel(fn)

		// Unreachable code is flagged independently of consistency.
		collectUnreachable(body, label, &issues)

		if !hasOwnReturn(body, fn) {
			continue
		}
		if !blockTerminates(body) {
			issues = append(issues, ReturnIssue{Unit: label, Line: fn.Line(), Kind: ReturnInconsistent})
		}
	}
	return issues
}

// hasOwnReturn reports whether the unit contains a return statement outside
// any nested function.
func hasOwnReturn(body *ast.Node, owner *ast.Node) bool {
	found := false
	ast.Walk(body, func(n *ast.Node) bool {
		if n != owner && n.IsFunction() {
			return false
		}
		if n.Kind == ast.KindReturn {
			found = true
		}
		return !found
	})
	return found
}

// blockTerminates reports whether every path through the block ends in a
// return before falling off the end.
func blockTerminates(block *ast.Node) bool {
	for _, stmt := range block.Children {
		if stmtTerminates(stmt) {
			return true
		}
	}
	return false
}

func stmtTerminates(stmt *ast.Node) bool {
	switch stmt.Kind {
	case ast.KindReturn:
		return true
	case ast.KindBlock:
		return blockTerminates(stmt)
	case ast.KindIf:
		then, alt := stmt.Child(1), stmt.Child(2)
		if alt == nil {
			// Guard clause: the early return covers only one path; the
			// block after the if must terminate on its own.
			return false
		}
		return stmtTerminates(then) && stmtTerminates(alt)
	default:
		// Loops may execute zero times; switch fallthrough paths are not
		// tracked. Both stay conservative.
		return false
	}
}

// collectUnreachable flags statements following a terminating statement in
// the same block, pruning at nested functions (they are visited as their
// own units).
func collectUnreachable(block *ast.Node, unit string, issues *[]ReturnIssue) {
	terminated := false
	for _, stmt := range block.Children {
		if terminated {
			*issues = append(*issues, ReturnIssue{Unit: unit, Line: stmt.Line(), Kind: ReturnUnreachable})
			break // One report per block is enough.
		}
		descendUnreachable(stmt, unit, issues)
		if stmtTerminates(stmt) {
			terminated = true
		}
	}
}

func descendUnreachable(stmt *ast.Node, unit string, issues *[]ReturnIssue) {
	ast.Walk(stmt, func(n *ast.Node) bool {
		if n.IsFunction() {
			return false
		}
		if n != stmt && n.Kind == ast.KindBlock {
			collectUnreachable(n, unit, issues)
			return false
		}
		return true
	})
}
