package analysis

import (
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// UnusedKind distinguishes the three independently reported categories of
// unused identifier.
type UnusedKind int

const (
	UnusedParam UnusedKind = iota
	UnusedVar
	UnusedFunc
)

// UnusedIdent is one identifier that is declared but never referenced from
// any expression position reachable from its scope.
type UnusedIdent struct {
	Name string
	Kind UnusedKind
	Line int
}

// DeclInfo describes one declaration site; the naming-convention rule
// consumes these.
type DeclInfo struct {
	Name    string
	IsParam bool
	Line    int
}

// scope is one lexical scope. `var` declarations hoist to the nearest
// function scope; `let`/`const` bind to the block that declares them.
type scope struct {
	parent     *scope
	isFunction bool
	decls      map[string]*declaration
}

type declaration struct {
	name string
	kind UnusedKind
	line int
	used bool
	// topLevel marks declarations directly under the program node; unused
	// top-level functions are reported separately because they need a
	// cross-fragment call-site scan before becoming findings.
	topLevel bool
}

type reference struct {
	name string
	in   *scope
}

func newScope(parent *scope, isFunction bool) *scope {
	return &scope{parent: parent, isFunction: isFunction, decls: make(map[string]*declaration)}
}

func (s *scope) functionScope() *scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.isFunction {
			return cur
		}
	}
	return s
}

func (s *scope) declare(d *declaration) {
	// Redeclaration keeps the first site; the second spelling still
	// resolves to the same entry.
	if _, exists := s.decls[d.name]; !exists {
		s.decls[d.name] = d
	}
}

func (s *scope) resolve(name string) *declaration {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.decls[name]; ok {
			return d
		}
	}
	return nil
}

// scopeAnalysis builds the scope tree and reference list in one walk, then
// resolves references afterwards so hoisted and forward declarations are
// visible from earlier code.
type scopeAnalysis struct {
	all  []*declaration
	refs []reference
}

// analyzeScopes runs the scope pass over a fragment.
func analyzeScopes(prog *ast.Node) *scopeAnalysis {
	sa := &scopeAnalysis{}
	root := newScope(nil, true)
	for _, stmt := range prog.Children {
		sa.walkStatement(stmt, root, true)
	}
	for _, ref := range sa.refs {
		if d := ref.in.resolve(ref.name); d != nil {
			d.used = true
		}
	}
	return sa
}

func (sa *scopeAnalysis) declare(s *scope, d *declaration) {
	s.declare(d)
	sa.all = append(sa.all, d)
}

func (sa *scopeAnalysis) walkStatement(n *ast.Node, s *scope, topLevel bool) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindVarDecl:
		target := s
		if n.Value == "var" {
			target = s.functionScope()
		}
		for _, d := range n.Children {
			sa.declare(target, &declaration{
				name: d.Value, kind: UnusedVar, line: d.Line(), topLevel: topLevel,
			})
			if init := d.Child(0); init != nil {
				sa.walkExpression(init, s)
			}
		}
	case ast.KindFuncDecl:
		sa.declare(s.functionScope(), &declaration{
			name: n.Value, kind: UnusedFunc, line: n.Line(), topLevel: topLevel,
		})
		sa.walkFunction(n, s)
	case ast.KindBlock:
		inner := newScope(s, false)
		for _, stmt := range n.Children {
			sa.walkStatement(stmt, inner, false)
		}
	case ast.KindIf:
		sa.walkExpression(n.Child(0), s)
		sa.walkStatement(n.Child(1), s, false)
		sa.walkStatement(n.Child(2), s, false)
	case ast.KindFor:
		inner := newScope(s, false)
		sa.walkStatement(n.Child(0), inner, false)
		sa.walkExpression(n.Child(1), inner)
		sa.walkExpression(n.Child(2), inner)
		sa.walkStatement(n.Child(3), inner, false)
	case ast.KindForIn:
		inner := newScope(s, false)
		sa.declare(inner, &declaration{name: n.Value, kind: UnusedVar, line: n.Line()})
		sa.walkExpression(n.Child(0), s)
		sa.walkStatement(n.Child(1), inner, false)
	case ast.KindWhile:
		sa.walkExpression(n.Child(0), s)
		sa.walkStatement(n.Child(1), s, false)
	case ast.KindSwitch:
		sa.walkExpression(n.Child(0), s)
		inner := newScope(s, false)
		for _, c := range n.Children[1:] {
			for i, part := range c.Children {
				if i == 0 && c.Value != "default" {
					sa.walkExpression(part, s)
					continue
				}
				sa.walkStatement(part, inner, false)
			}
		}
	case ast.KindReturn, ast.KindExprStmt:
		sa.walkExpression(n.Child(0), s)
	case ast.KindBreak, ast.KindContinue, ast.KindEmpty:
		// No identifiers.
	default:
		sa.walkExpression(n, s)
	}
}

func (sa *scopeAnalysis) walkFunction(fn *ast.Node, outer *scope) {
	inner := newScope(outer, true)
	for _, p := range fn.Params() {
		sa.declare(inner, &declaration{name: p.Value, kind: UnusedParam, line: p.Line()})
	}
	body := fn.Body()
	if body == nil {
		return
	}
	for _, stmt := range body.Children {
		sa.walkStatement(stmt, inner, false)
	}
}

func (sa *scopeAnalysis) walkExpression(n *ast.Node, s *scope) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindIdent:
		sa.refs = append(sa.refs, reference{name: n.Value, in: s})
	case ast.KindFuncExpr, ast.KindArrowFunc:
		sa.walkFunction(n, s)
	case ast.KindMember:
		// Only the object side is an identifier reference; the property
		// name is not a scoped identifier.
		sa.walkExpression(n.Child(0), s)
	case ast.KindProperty:
		sa.walkExpression(n.Child(0), s)
	default:
		for _, c := range n.Children {
			sa.walkExpression(c, s)
		}
	}
}

// UnusedIdentifiers reports unused parameters and unused local variables.
// Unused top-level functions are excluded here: they require the
// cross-fragment call-site scan that UnusedTopLevelFunctions supports.
func UnusedIdentifiers(prog *ast.Node) []UnusedIdent {
	sa := analyzeScopes(prog)
	var out []UnusedIdent
	for _, d := range sa.all {
		if d.used || d.kind == UnusedFunc {
			continue
		}
		out = append(out, UnusedIdent{Name: d.name, Kind: d.kind, Line: d.line})
	}
	return out
}

// UnusedTopLevelFunctions reports top-level function declarations with no
// reference inside their own fragment. The caller must still clear each
// candidate against the identifier sets of the file's other script-bearing
// fields before reporting it.
func UnusedTopLevelFunctions(prog *ast.Node) []UnusedIdent {
	sa := analyzeScopes(prog)
	var out []UnusedIdent
	for _, d := range sa.all {
		if d.used || d.kind != UnusedFunc || !d.topLevel {
			continue
		}
		out = append(out, UnusedIdent{Name: d.name, Kind: UnusedFunc, Line: d.line})
	}
	return out
}

// Declarations lists every parameter and variable declaration site for
// naming checks.
func Declarations(prog *ast.Node) []DeclInfo {
	sa := analyzeScopes(prog)
	var out []DeclInfo
	for _, d := range sa.all {
		if d.kind == UnusedFunc {
			continue
		}
		out = append(out, DeclInfo{Name: d.name, IsParam: d.kind == UnusedParam, Line: d.line})
	}
	return out
}
