// Package ast defines the abstract syntax tree for the embedded scripting
// language. Every node follows one uniform shape (a kind tag, an optional
// value, ordered children, and a fragment-relative span) so analysis passes
// can traverse any construct with the same code.
package ast

// Kind tags a node with its syntactic construct.
type Kind int

const (
	KindInvalid Kind = iota

	KindProgram

	// Statements. Child layout per kind is documented on the constants.
	KindVarDecl    // Value: "var"|"let"|"const"; children: declarators
	KindDeclarator // Value: name; children: [init?]
	KindFuncDecl   // Value: name; children: [params, body]
	KindParamList  // children: params
	KindParam      // Value: name
	KindBlock      // children: statements
	KindIf         // children: [cond, then, else?]
	KindFor        // children: [init, cond, post, body] (missing parts are KindEmpty)
	KindForIn      // Value: loop variable name; children: [iterable, body]
	KindWhile      // children: [cond, body]
	KindReturn     // children: [expr?]
	KindBreak
	KindContinue
	KindExprStmt // children: [expr]
	KindSwitch   // children: [subject, cases...]
	KindCase     // children: [test?, statements...]; Value "default" for the default clause
	KindEmpty

	// Expressions.
	KindIdent         // Value: name
	KindNumber        // Value: literal spelling
	KindString        // Value: decoded literal
	KindBool          // Value: "true"|"false"
	KindNull
	KindTemplate      // children: alternating text chunks and interpolations
	KindTemplateChunk // Value: raw text
	KindArray         // children: elements
	KindObject        // children: properties
	KindProperty      // Value: key; children: [value]
	KindFuncExpr      // Value: optional name; children: [params, body]
	KindArrowFunc     // children: [params, body]
	KindCall          // children: [callee, args...]
	KindNamespaceCall // Value: "ns:fn"; children: args
	KindNew           // children: [callee] (argument lists fold into a call child)
	KindMember        // Value: property name; children: [object]
	KindIndex         // children: [object, index]
	KindBinary        // Value: operator; children: [lhs, rhs]
	KindLogical       // Value: "&&"|"||"|"??"; children: [lhs, rhs]
	KindTernary       // children: [cond, then, else]
	KindAssign        // Value: "="|"+="|"-="; children: [target, value]
	KindUnary         // Value: operator; children: [operand]
	KindUpdate        // Value: "++"|"--"; children: [operand]
)

// Span is a fragment-relative source range. Lines and columns are 1-based.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Node is one AST node. Trees are immutable once the parser returns them;
// the AST cache hands the same tree to every interested rule, so nothing may
// write to a node after construction.
type Node struct {
	Kind     Kind
	Value    string
	Children []*Node
	Span     Span
}

// Child returns the i-th child, or nil when the index is out of range.
// Optional children (an else branch, a declarator initializer) make this the
// safer accessor for pass code.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Line returns the node's starting line within its fragment.
func (n *Node) Line() int {
	if n == nil {
		return 0
	}
	return n.Span.StartLine
}

// IsFunction reports whether the node introduces a function body of any
// flavor (declaration, expression, or arrow).
func (n *Node) IsFunction() bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindFuncDecl, KindFuncExpr, KindArrowFunc:
		return true
	}
	return false
}

// Params returns the parameter nodes of a function node, or nil for
// non-function nodes.
func (n *Node) Params() []*Node {
	if !n.IsFunction() {
		return nil
	}
	if list := n.Child(0); list != nil && list.Kind == KindParamList {
		return list.Children
	}
	return nil
}

// Body returns the body block of a function node, or nil.
func (n *Node) Body() *Node {
	if !n.IsFunction() {
		return nil
	}
	return n.Child(1)
}

// Walk visits n and every descendant depth-first in document order. The
// visitor returns false to prune the subtree below the current node.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// WalkWithParents is Walk with the ancestor chain (outermost first) passed
// alongside each node. Pattern detectors that care about enclosing callbacks
// use this instead of maintaining their own stacks.
func WalkWithParents(n *Node, visit func(node *Node, parents []*Node) bool) {
	var stack []*Node
	var rec func(*Node)
	rec = func(cur *Node) {
		if cur == nil {
			return
		}
		if !visit(cur, stack) {
			return
		}
		stack = append(stack, cur)
		for _, c := range cur.Children {
			rec(c)
		}
		stack = stack[:len(stack)-1]
	}
	rec(n)
}
