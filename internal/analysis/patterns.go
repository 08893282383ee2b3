package analysis

import (
	"strconv"
	"strings"

	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// Occurrence is one structural match from a single-purpose detector. Detail
// carries the matched token or name so the rule layer can word its message.
type Occurrence struct {
	Line   int
	Detail string
}

// MagicNumbers flags numeric literals outside the allowed set. Numbers that
// initialize a declaration are exempt: naming the value is exactly the fix
// this detector asks for.
func MagicNumbers(prog *ast.Node, allowed map[string]bool) []Occurrence {
	var out []Occurrence
	ast.WalkWithParents(prog, func(n *ast.Node, parents []*ast.Node) bool {
		if n.Kind != ast.KindNumber {
			return true
		}
		if allowed[n.Value] {
			return true
		}
		if len(parents) > 0 {
			switch p := parents[len(parents)-1]; p.Kind {
			case ast.KindDeclarator, ast.KindProperty:
				return true
			case ast.KindUnary:
				// Negated literal: judge the signed form.
				if p.Value == "-" && allowed["-"+n.Value] {
					return true
				}
			}
		}
		out = append(out, Occurrence{Line: n.Line(), Detail: n.Value})
		return true
	})
	return out
}

// StringConcat flags `+` chains that mix string literals with other
// operands, where template syntax would read better. Only the outermost
// node of a chain is reported.
func StringConcat(prog *ast.Node) []Occurrence {
	var out []Occurrence
	ast.WalkWithParents(prog, func(n *ast.Node, parents []*ast.Node) bool {
		if !isPlus(n) {
			return true
		}
		if len(parents) > 0 && isPlus(parents[len(parents)-1]) {
			return true
		}
		if chainHasString(n) && !chainAllStrings(n) {
			out = append(out, Occurrence{Line: n.Line()})
		}
		return true
	})
	return out
}

func isPlus(n *ast.Node) bool {
	return n != nil && n.Kind == ast.KindBinary && n.Value == "+"
}

func chainHasString(n *ast.Node) bool {
	if isPlus(n) {
		return chainHasString(n.Child(0)) || chainHasString(n.Child(1))
	}
	return n != nil && n.Kind == ast.KindString
}

func chainAllStrings(n *ast.Node) bool {
	if isPlus(n) {
		return chainAllStrings(n.Child(0)) && chainAllStrings(n.Child(1))
	}
	return n != nil && (n.Kind == ast.KindString || n.Kind == ast.KindTemplate)
}

// VerboseBooleans flags comparisons against boolean literals
// (`x === true`, `y != false`) and the `cond ? true : false` ternary.
func VerboseBooleans(prog *ast.Node) []Occurrence {
	var out []Occurrence
	ast.Walk(prog, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindBinary:
			switch n.Value {
			case "==", "===", "!=", "!==":
				if isBool(n.Child(0)) || isBool(n.Child(1)) {
					out = append(out, Occurrence{Line: n.Line(), Detail: n.Value})
				}
			}
		case ast.KindTernary:
			if isBool(n.Child(1)) && isBool(n.Child(2)) {
				out = append(out, Occurrence{Line: n.Line(), Detail: "?:"})
			}
		}
		return true
	})
	return out
}

func isBool(n *ast.Node) bool {
	return n != nil && n.Kind == ast.KindBool
}

// EmptyFunctions flags functions whose body contains no statements.
func EmptyFunctions(prog *ast.Node) []Occurrence {
	var out []Occurrence
	for _, fn := range allFunctions(prog) {
		body := fn.Body()
		if body != nil && len(body.Children) == 0 {
			out = append(out, Occurrence{Line: fn.Line(), Detail: functionLabel(fn)})
		}
	}
	return out
}

// ParameterCounts flags functions declaring more than max parameters.
func ParameterCounts(prog *ast.Node, max int) []Occurrence {
	var out []Occurrence
	for _, fn := range allFunctions(prog) {
		if n := len(fn.Params()); n > max {
			out = append(out, Occurrence{
				Line:   fn.Line(),
				Detail: functionLabel(fn) + " has " + strconv.Itoa(n) + " parameters",
			})
		}
	}
	return out
}

// functionalMethods are the array higher-order calls whose callbacks the
// short-parameter and nested-search detectors care about.
var functionalMethods = map[string]bool{
	"map":     true,
	"filter":  true,
	"forEach": true,
	"find":    true,
	"some":    true,
	"every":   true,
	"reduce":  true,
}

// ShortCallbackParams flags single-letter parameter names in callbacks
// passed to array functional methods. `i` and `j` pass as index names when
// they are not the first parameter.
func ShortCallbackParams(prog *ast.Node) []Occurrence {
	var out []Occurrence
	ast.Walk(prog, func(n *ast.Node) bool {
		method, cb := functionalCall(n)
		if cb == nil {
			return true
		}
		for i, param := range cb.Params() {
			name := param.Value
			if len(name) != 1 {
				continue
			}
			if i > 0 && (name == "i" || name == "j") {
				continue
			}
			out = append(out, Occurrence{Line: param.Line(), Detail: name + " in ." + method})
		}
		return true
	})
	return out
}

// functionalCall matches `expr.method(callback, ...)` for a functional
// method, returning the method name and the callback function node.
func functionalCall(n *ast.Node) (string, *ast.Node) {
	if n == nil || n.Kind != ast.KindCall {
		return "", nil
	}
	callee := n.Child(0)
	if callee == nil || callee.Kind != ast.KindMember {
		return "", nil
	}
	// A member node carries its property name in Value; the only child is
	// the receiver.
	if !functionalMethods[callee.Value] {
		return "", nil
	}
	if len(n.Children) < 2 {
		return "", nil
	}
	if cb := n.Children[1]; cb.IsFunction() {
		return callee.Value, cb
	}
	return "", nil
}

// ConsoleStatements flags direct console member calls left in scripts.
func ConsoleStatements(prog *ast.Node) []Occurrence {
	var out []Occurrence
	ast.Walk(prog, func(n *ast.Node) bool {
		if n.Kind != ast.KindCall {
			return true
		}
		callee := n.Child(0)
		if callee == nil || callee.Kind != ast.KindMember {
			return true
		}
		obj := callee.Child(0)
		if obj != nil && obj.Kind == ast.KindIdent && obj.Value == "console" {
			out = append(out, Occurrence{Line: n.Line(), Detail: "console." + callee.Value})
		}
		return true
	})
	return out
}

// VarKeywords flags `var` declarations; block-scoped let/const are the
// expected forms.
func VarKeywords(prog *ast.Node) []Occurrence {
	var out []Occurrence
	ast.Walk(prog, func(n *ast.Node) bool {
		if n.Kind == ast.KindVarDecl && n.Value == "var" {
			out = append(out, Occurrence{Line: n.Line()})
		}
		return true
	})
	return out
}

// BadNames flags parameters and local variables that are not lowerCamelCase.
// A leading underscore marks a deliberately unused binding and is accepted.
func BadNames(prog *ast.Node) []Occurrence {
	var out []Occurrence
	for _, decl := range Declarations(prog) {
		name := strings.TrimPrefix(decl.Name, "_")
		if name == "" || isCamelCase(name) {
			continue
		}
		out = append(out, Occurrence{Line: decl.Line, Detail: decl.Name})
	}
	return out
}

func isCamelCase(name string) bool {
	if name[0] < 'a' || name[0] > 'z' {
		return false
	}
	return !strings.ContainsAny(name, "_-$")
}
