package analysis

import (
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// Exports returns the names published by the fragment's trailing export
// object, in source order. Component scripts end with an object literal
// whose properties map public names to local functions; the literal may
// appear as a bare expression statement, a return value, or the right side
// of an assignment. The last such object in the program wins. A fragment
// with no export object returns nil.
func Exports(prog *ast.Node) []string {
	obj := exportObject(prog)
	if obj == nil {
		return nil
	}
	var names []string
	for _, prop := range obj.Children {
		if prop.Kind == ast.KindProperty {
			names = append(names, prop.Value)
		}
	}
	return names
}

func exportObject(prog *ast.Node) *ast.Node {
	var last *ast.Node
	for _, stmt := range prog.Children {
		switch stmt.Kind {
		case ast.KindExprStmt:
			if obj := objectLiteral(stmt.Child(0)); obj != nil {
				last = obj
			}
		case ast.KindReturn:
			if obj := objectLiteral(stmt.Child(0)); obj != nil {
				last = obj
			}
		case ast.KindBlock:
			// A bare `{...}` at statement level parses as a block; an
			// export object written that way shows up as a block of
			// labeled-looking statements, which the parser rejects, so
			// nothing to recover here.
		}
	}
	return last
}

func objectLiteral(expr *ast.Node) *ast.Node {
	if expr == nil {
		return nil
	}
	if expr.Kind == ast.KindObject {
		return expr
	}
	if expr.Kind == ast.KindAssign {
		return objectLiteral(expr.Child(1))
	}
	return nil
}

// DeadExports finds top-level functions unreachable from the fragment's
// roots. Roots are the exported names plus every top-level statement that
// is not itself a function declaration (initialization code runs
// unconditionally). Reachability is transitive: a function referenced only
// by another dead function is dead too.
//
// externallyUsed names are cleared before the walk; the caller supplies
// identifiers observed in sibling fragments so cross-fragment calls do not
// produce false positives.
func DeadExports(prog *ast.Node, externallyUsed map[string]bool) []UnusedIdent {
	fns := map[string]*ast.Node{}
	for _, stmt := range prog.Children {
		if stmt.Kind == ast.KindFuncDecl && stmt.Value != "" {
			fns[stmt.Value] = stmt
		}
	}
	if len(fns) == 0 {
		return nil
	}

	exportObj := exportObject(prog)
	live := map[string]bool{}
	var mark func(name string)
	mark = func(name string) {
		if live[name] {
			return
		}
		fn, ok := fns[name]
		if !ok {
			return
		}
		live[name] = true
		for ref := range referencedNames(fn) {
			mark(ref)
		}
	}

	for _, name := range Exports(prog) {
		mark(name)
	}
	// Property values may alias a function under a different public name.
	if exportObj != nil {
		for ref := range referencedNames(exportObj) {
			mark(ref)
		}
	}
	for _, stmt := range prog.Children {
		if stmt.Kind == ast.KindFuncDecl {
			continue
		}
		if objectLiteral(stmtExpr(stmt)) == exportObj && exportObj != nil {
			continue
		}
		for ref := range referencedNames(stmt) {
			mark(ref)
		}
	}
	for name := range externallyUsed {
		mark(name)
	}

	var dead []UnusedIdent
	for _, stmt := range prog.Children {
		if stmt.Kind != ast.KindFuncDecl || stmt.Value == "" {
			continue
		}
		if !live[stmt.Value] {
			dead = append(dead, UnusedIdent{Name: stmt.Value, Kind: UnusedFunc, Line: stmt.Line()})
		}
	}
	return dead
}

func stmtExpr(stmt *ast.Node) *ast.Node {
	switch stmt.Kind {
	case ast.KindExprStmt, ast.KindReturn:
		return stmt.Child(0)
	}
	return nil
}

// referencedNames collects every identifier read inside the subtree. Member
// property names are not Ident nodes, so they never pollute the set.
func referencedNames(n *ast.Node) map[string]bool {
	refs := map[string]bool{}
	ast.Walk(n, func(node *ast.Node) bool {
		if node.Kind == ast.KindIdent {
			refs[node.Value] = true
		}
		return true
	})
	return refs
}
