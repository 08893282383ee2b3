// Package token defines the lexical vocabulary of the embedded scripting
// language. The lexer produces these; the parser consumes them.
package token

import "fmt"

// Kind identifies a token class.
type Kind int

const (
	Invalid Kind = iota
	EOF

	// Literals and identifiers.
	Ident
	Number
	String
	TemplateText  // raw text chunk inside a template literal
	TemplateStart // opening backtick
	TemplateEnd   // closing backtick
	InterpStart   // ${
	InterpEnd     // } closing an interpolation

	// Keywords.
	KwVar
	KwLet
	KwConst
	KwFunction
	KwReturn
	KwIf
	KwElse
	KwFor
	KwWhile
	KwBreak
	KwContinue
	KwIn
	KwTrue
	KwFalse
	KwNull
	KwTypeof
	KwNew
	KwSwitch
	KwCase
	KwDefault

	// Punctuation.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Dot
	Semicolon
	Colon
	Question
	Arrow // =>

	// Operators.
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	Plus
	Minus
	Star
	Slash
	Percent
	Not        // !
	Eq         // ==
	StrictEq   // ===
	NotEq      // !=
	StrictNotEq // !==
	Lt
	Gt
	LtEq
	GtEq
	AndAnd
	OrOr
	Coalesce // ??
	Inc      // ++
	Dec      // --
)

var names = map[Kind]string{
	Invalid: "invalid", EOF: "eof",
	Ident: "identifier", Number: "number", String: "string",
	TemplateText: "template text", TemplateStart: "`", TemplateEnd: "`",
	InterpStart: "${", InterpEnd: "}",
	KwVar: "var", KwLet: "let", KwConst: "const", KwFunction: "function",
	KwReturn: "return", KwIf: "if", KwElse: "else", KwFor: "for",
	KwWhile: "while", KwBreak: "break", KwContinue: "continue", KwIn: "in",
	KwTrue: "true", KwFalse: "false", KwNull: "null", KwTypeof: "typeof",
	KwNew: "new", KwSwitch: "switch", KwCase: "case", KwDefault: "default",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Comma: ",", Dot: ".", Semicolon: ";",
	Colon: ":", Question: "?", Arrow: "=>",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Not: "!", Eq: "==", StrictEq: "===", NotEq: "!=", StrictNotEq: "!==",
	Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=",
	AndAnd: "&&", OrOr: "||", Coalesce: "??", Inc: "++", Dec: "--",
}

// String returns a human-readable description of the kind, suitable for
// parse error messages.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// keywords maps identifier spellings that are reserved words.
var keywords = map[string]Kind{
	"var": KwVar, "let": KwLet, "const": KwConst,
	"function": KwFunction, "return": KwReturn,
	"if": KwIf, "else": KwElse, "for": KwFor, "while": KwWhile,
	"break": KwBreak, "continue": KwContinue, "in": KwIn,
	"true": KwTrue, "false": KwFalse, "null": KwNull,
	"typeof": KwTypeof, "new": KwNew,
	"switch": KwSwitch, "case": KwCase, "default": KwDefault,
}

// Lookup classifies an identifier spelling, returning the keyword kind when
// the spelling is reserved and Ident otherwise.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// Pos is a position inside one script fragment. Lines and columns are
// 1-based and relative to the fragment, not the owning document.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is one lexical unit with its fragment-relative position. Text holds
// the raw spelling for identifiers and literals; for string literals it is
// the decoded value.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}
