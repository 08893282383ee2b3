package analysis

import (
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// outerIterators are the functional methods whose callbacks establish a
// per-item context; innerSearches are the linear scans that turn the loop
// quadratic when they target something outside that context.
var outerIterators = map[string]bool{"map": true, "forEach": true, "filter": true}
var innerSearches = map[string]bool{"find": true, "filter": true}

// NestedSearches flags a find or filter call inside the callback of an
// outer map, forEach, or filter when the searched collection is not owned
// by the outer callback's item. `users.map(u => u.roles.find(...))` scans
// data each item carries and passes; `users.map(u => roles.find(...))`
// rescans an unrelated array per item and is flagged.
func NestedSearches(prog *ast.Node) []Occurrence {
	var out []Occurrence
	ast.Walk(prog, func(n *ast.Node) bool {
		method, cb := functionalCall(n)
		if cb == nil || !outerIterators[method] {
			return true
		}
		bound := map[string]bool{}
		for _, p := range cb.Params() {
			bound[p.Value] = true
		}
		collectNestedSearches(cb.Body(), bound, &out)
		return true
	})
	return out
}

func collectNestedSearches(body *ast.Node, bound map[string]bool, out *[]Occurrence) {
	ast.Walk(body, func(n *ast.Node) bool {
		if n.Kind == ast.KindCall {
			if callee := n.Child(0); callee != nil && callee.Kind == ast.KindMember {
				if innerSearches[callee.Value] && !rootedIn(callee.Child(0), bound) {
					*out = append(*out, Occurrence{Line: n.Line(), Detail: callee.Value})
				}
			}
		}
		// A deeper functional callback binds its own parameters; iterator
		// callbacks are revisited by the top-level walk with the right
		// bound set, and search callbacks are left alone.
		if _, cb := functionalCall(n); cb != nil {
			return false
		}
		return true
	})
}

// rootedIn reports whether the receiver expression bottoms out at one of
// the bound parameter names through member or index access.
func rootedIn(n *ast.Node, bound map[string]bool) bool {
	for n != nil {
		switch n.Kind {
		case ast.KindIdent:
			return bound[n.Value]
		case ast.KindMember, ast.KindIndex:
			n = n.Child(0)
		case ast.KindCall:
			// Chained calls like u.roles.filter(...).find(...): follow the
			// callee's receiver.
			if callee := n.Child(0); callee != nil && callee.Kind == ast.KindMember {
				n = callee.Child(0)
				continue
			}
			return false
		default:
			return false
		}
	}
	return false
}
