// Package lexer turns script source into a token stream. The lexer is
// hand-written because the language is a DSL, not JavaScript proper: it has
// namespaced built-in calls (`ns:fn(...)`) and is embedded in delimited
// document fields, so positions must stay fragment-relative.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fenwicklabs/canvaslint/internal/script/token"
)

// mode tracks whether the lexer is scanning ordinary code or the inside of a
// template literal. Interpolations push code mode back onto the stack.
type mode int

const (
	modeCode mode = iota
	modeTemplate
)

// Error is a lexical fault at a known fragment-relative position.
type Error struct {
	Msg string
	Pos token.Pos
}

// Lexer scans one script fragment. It is single-use: create one per Parse
// call. The parser drives it through Next and Peek.
type Lexer struct {
	src  string
	off  int // byte offset of the next rune
	line int
	col  int

	// modes is a stack: template literals and their interpolations nest.
	modes []mode
	// braceDepth counts unbalanced '{' inside each interpolation so the
	// closing '}' of the interpolation itself can be recognized.
	braceDepth []int

	peekBuf []token.Token
	errs    []Error
}

// New creates a lexer over one fragment of script source.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1, modes: []mode{modeCode}}
}

// Errors returns the lexical errors encountered so far, in source order.
func (l *Lexer) Errors() []Error { return l.errs }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() token.Token { return l.PeekN(1) }

// PeekN returns the n-th upcoming token (1-based) without consuming
// anything. The parser needs three tokens of lookahead to tell a namespaced
// call `ns:fn(` apart from a ternary branch.
func (l *Lexer) PeekN(n int) token.Token {
	for len(l.peekBuf) < n {
		l.peekBuf = append(l.peekBuf, l.scan())
	}
	return l.peekBuf[n-1]
}

// Next consumes and returns the next token.
func (l *Lexer) Next() token.Token {
	if len(l.peekBuf) > 0 {
		t := l.peekBuf[0]
		l.peekBuf = l.peekBuf[1:]
		return t
	}
	return l.scan()
}

func (l *Lexer) errorf(pos token.Pos, msg string) {
	l.errs = append(l.errs, Error{Msg: msg, Pos: pos})
}

func (l *Lexer) pos() token.Pos {
	return token.Pos{Line: l.line, Col: l.col}
}

func (l *Lexer) cur() mode { return l.modes[len(l.modes)-1] }

func (l *Lexer) peekRune() (rune, int) {
	if l.off >= len(l.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.src[l.off:])
}

func (l *Lexer) advance() rune {
	r, size := l.peekRune()
	if size == 0 {
		return 0
	}
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// match consumes the next rune iff it equals want.
func (l *Lexer) match(want rune) bool {
	r, size := l.peekRune()
	if size != 0 && r == want {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) scan() token.Token {
	if l.cur() == modeTemplate {
		return l.scanTemplate()
	}
	l.skipTrivia()
	start := l.pos()
	r, size := l.peekRune()
	if size == 0 {
		return token.Token{Kind: token.EOF, Pos: start}
	}

	switch {
	case isIdentStart(r):
		return l.scanIdent(start)
	case unicode.IsDigit(r):
		return l.scanNumber(start)
	}

	l.advance()
	switch r {
	case '\'', '"':
		return l.scanString(start, r)
	case '`':
		l.modes = append(l.modes, modeTemplate)
		return token.Token{Kind: token.TemplateStart, Pos: start}
	case '(':
		return token.Token{Kind: token.LParen, Pos: start}
	case ')':
		return token.Token{Kind: token.RParen, Pos: start}
	case '{':
		if n := len(l.braceDepth); n > 0 {
			l.braceDepth[n-1]++
		}
		return token.Token{Kind: token.LBrace, Pos: start}
	case '}':
		if n := len(l.braceDepth); n > 0 {
			if l.braceDepth[n-1] == 0 {
				// Closes the ${ } interpolation; resume template scanning.
				l.braceDepth = l.braceDepth[:n-1]
				l.modes = l.modes[:len(l.modes)-1]
				return token.Token{Kind: token.InterpEnd, Pos: start}
			}
			l.braceDepth[n-1]--
		}
		return token.Token{Kind: token.RBrace, Pos: start}
	case '[':
		return token.Token{Kind: token.LBracket, Pos: start}
	case ']':
		return token.Token{Kind: token.RBracket, Pos: start}
	case ',':
		return token.Token{Kind: token.Comma, Pos: start}
	case '.':
		return token.Token{Kind: token.Dot, Pos: start}
	case ';':
		return token.Token{Kind: token.Semicolon, Pos: start}
	case ':':
		return token.Token{Kind: token.Colon, Pos: start}
	case '?':
		if l.match('?') {
			return token.Token{Kind: token.Coalesce, Pos: start}
		}
		return token.Token{Kind: token.Question, Pos: start}
	case '+':
		if l.match('+') {
			return token.Token{Kind: token.Inc, Pos: start}
		}
		if l.match('=') {
			return token.Token{Kind: token.PlusAssign, Pos: start}
		}
		return token.Token{Kind: token.Plus, Pos: start}
	case '-':
		if l.match('-') {
			return token.Token{Kind: token.Dec, Pos: start}
		}
		if l.match('=') {
			return token.Token{Kind: token.MinusAssign, Pos: start}
		}
		return token.Token{Kind: token.Minus, Pos: start}
	case '*':
		return token.Token{Kind: token.Star, Pos: start}
	case '/':
		return token.Token{Kind: token.Slash, Pos: start}
	case '%':
		return token.Token{Kind: token.Percent, Pos: start}
	case '!':
		if l.match('=') {
			if l.match('=') {
				return token.Token{Kind: token.StrictNotEq, Pos: start}
			}
			return token.Token{Kind: token.NotEq, Pos: start}
		}
		return token.Token{Kind: token.Not, Pos: start}
	case '=':
		if l.match('=') {
			if l.match('=') {
				return token.Token{Kind: token.StrictEq, Pos: start}
			}
			return token.Token{Kind: token.Eq, Pos: start}
		}
		if l.match('>') {
			return token.Token{Kind: token.Arrow, Pos: start}
		}
		return token.Token{Kind: token.Assign, Pos: start}
	case '<':
		if l.match('=') {
			return token.Token{Kind: token.LtEq, Pos: start}
		}
		return token.Token{Kind: token.Lt, Pos: start}
	case '>':
		if l.match('=') {
			return token.Token{Kind: token.GtEq, Pos: start}
		}
		return token.Token{Kind: token.Gt, Pos: start}
	case '&':
		if l.match('&') {
			return token.Token{Kind: token.AndAnd, Pos: start}
		}
	case '|':
		if l.match('|') {
			return token.Token{Kind: token.OrOr, Pos: start}
		}
	}

	l.errorf(start, "unexpected character "+string(r))
	return token.Token{Kind: token.Invalid, Text: string(r), Pos: start}
}

// skipTrivia consumes whitespace and both comment forms.
func (l *Lexer) skipTrivia() {
	for {
		r, size := l.peekRune()
		if size == 0 {
			return
		}
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '/' && strings.HasPrefix(l.src[l.off:], "//"):
			for {
				r, size = l.peekRune()
				if size == 0 || r == '\n' {
					break
				}
				l.advance()
			}
		case r == '/' && strings.HasPrefix(l.src[l.off:], "/*"):
			start := l.pos()
			l.advance()
			l.advance()
			closed := false
			for {
				r, size = l.peekRune()
				if size == 0 {
					break
				}
				if r == '*' && strings.HasPrefix(l.src[l.off:], "*/") {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				l.errorf(start, "unterminated block comment")
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanIdent(start token.Pos) token.Token {
	var sb strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 || !isIdentPart(r) {
			break
		}
		sb.WriteRune(l.advance())
	}
	text := sb.String()
	return token.Token{Kind: token.Lookup(text), Text: text, Pos: start}
}

func (l *Lexer) scanNumber(start token.Pos) token.Token {
	var sb strings.Builder
	seenDot := false
	for {
		r, size := l.peekRune()
		if size == 0 {
			break
		}
		if r == '.' && !seenDot {
			// Only part of the number when a digit follows; otherwise it is
			// a member access on a numeric literal.
			if next, ok := l.runeAfterDot(); !ok || !unicode.IsDigit(next) {
				break
			}
			seenDot = true
		} else if !unicode.IsDigit(r) {
			break
		}
		sb.WriteRune(l.advance())
	}
	return token.Token{Kind: token.Number, Text: sb.String(), Pos: start}
}

func (l *Lexer) runeAfterDot() (rune, bool) {
	rest := l.src[l.off:]
	if len(rest) < 2 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(rest[1:])
	return r, true
}

func (l *Lexer) scanString(start token.Pos, quote rune) token.Token {
	var sb strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 || r == '\n' {
			l.errorf(start, "unterminated string literal")
			break
		}
		l.advance()
		if r == quote {
			break
		}
		if r == '\\' {
			esc, esize := l.peekRune()
			if esize == 0 {
				l.errorf(start, "unterminated string literal")
				break
			}
			l.advance()
			sb.WriteRune(unescape(esc))
			continue
		}
		sb.WriteRune(r)
	}
	return token.Token{Kind: token.String, Text: sb.String(), Pos: start}
}

// scanTemplate produces the next token inside a template literal: a raw text
// chunk, the start of an interpolation, or the closing backtick.
func (l *Lexer) scanTemplate() token.Token {
	start := l.pos()
	r, size := l.peekRune()
	if size == 0 {
		l.errorf(start, "unterminated template literal")
		l.modes = l.modes[:len(l.modes)-1]
		return token.Token{Kind: token.TemplateEnd, Pos: start}
	}
	if r == '`' {
		l.advance()
		l.modes = l.modes[:len(l.modes)-1]
		return token.Token{Kind: token.TemplateEnd, Pos: start}
	}
	if r == '$' && strings.HasPrefix(l.src[l.off:], "${") {
		l.advance()
		l.advance()
		l.modes = append(l.modes, modeCode)
		l.braceDepth = append(l.braceDepth, 0)
		return token.Token{Kind: token.InterpStart, Pos: start}
	}

	var sb strings.Builder
	for {
		r, size = l.peekRune()
		if size == 0 {
			break
		}
		if r == '`' || (r == '$' && strings.HasPrefix(l.src[l.off:], "${")) {
			break
		}
		if r == '\\' {
			l.advance()
			esc, esize := l.peekRune()
			if esize == 0 {
				break
			}
			l.advance()
			sb.WriteRune(unescape(esc))
			continue
		}
		sb.WriteRune(l.advance())
	}
	return token.Token{Kind: token.TemplateText, Text: sb.String(), Pos: start}
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return r
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
