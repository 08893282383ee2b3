// Package parser builds the script AST. Parsing never raises into the
// caller's control flow: the result of Parse is either a tree or a Failure
// value, and a Failure is cacheable exactly like a tree so a known-bad
// fragment is not re-parsed.
package parser

import (
	"fmt"

	"github.com/fenwicklabs/canvaslint/internal/script/ast"
	"github.com/fenwicklabs/canvaslint/internal/script/lexer"
	"github.com/fenwicklabs/canvaslint/internal/script/token"
)

// Failure is a structured parse failure. Line and column are relative to the
// fragment that was parsed.
type Failure struct {
	Message string
	Line    int
	Col     int
}

// Error implements the error interface so a Failure can flow through error
// plumbing when a collaborator wants it to, without the parser itself ever
// returning a Go error.
func (f *Failure) Error() string {
	return fmt.Sprintf("parse failure at %d:%d: %s", f.Line, f.Col, f.Message)
}

// bailout aborts parsing on the first syntax error. It is recovered at the
// Parse boundary; it never escapes the package.
type bailout struct{ failure *Failure }

// Parse turns one script fragment into an AST. The parser is pure: the same
// text always yields a structurally identical tree, which is what makes the
// result safe to share through the AST cache. Exactly one of the results is
// non-nil.
func Parse(src string) (prog *ast.Node, failure *Failure) {
	defer func() {
		if r := recover(); r != nil {
			prog = nil
			if b, ok := r.(bailout); ok {
				failure = b.failure
				return
			}
			// An unexpected fault inside the parser is still a value to the
			// caller, not a crash.
			failure = &Failure{Message: fmt.Sprintf("internal parser fault: %v", r), Line: 1, Col: 1}
		}
	}()

	p := &parser{lx: lexer.New(src)}
	prog = p.parseProgram()
	if errs := p.lx.Errors(); len(errs) > 0 {
		return nil, &Failure{Message: errs[0].Msg, Line: errs[0].Pos.Line, Col: errs[0].Pos.Col}
	}
	return prog, nil
}

type parser struct {
	lx *lexer.Lexer
}

func (p *parser) fail(pos token.Pos, format string, args ...any) {
	panic(bailout{failure: &Failure{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Col:     pos.Col,
	}})
}

func (p *parser) at(k token.Kind) bool { return p.lx.Peek().Kind == k }

func (p *parser) expect(k token.Kind) token.Token {
	t := p.lx.Next()
	if t.Kind != k {
		p.fail(t.Pos, "expected %s, found %s", k, describe(t))
	}
	return t
}

// accept consumes the next token iff it has the wanted kind.
func (p *parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.lx.Next()
		return true
	}
	return false
}

func describe(t token.Token) string {
	switch t.Kind {
	case token.Ident, token.Number:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

func spanFrom(pos token.Pos) ast.Span {
	return ast.Span{StartLine: pos.Line, StartCol: pos.Col, EndLine: pos.Line, EndCol: pos.Col}
}

// cover widens a span to include the given end node.
func cover(s ast.Span, end *ast.Node) ast.Span {
	if end == nil {
		return s
	}
	s.EndLine = end.Span.EndLine
	s.EndCol = end.Span.EndCol
	return s
}

func (p *parser) node(kind ast.Kind, value string, pos token.Pos, children ...*ast.Node) *ast.Node {
	n := &ast.Node{Kind: kind, Value: value, Span: spanFrom(pos), Children: children}
	if len(children) > 0 {
		n.Span = cover(n.Span, children[len(children)-1])
	}
	return n
}

// -- Statements --

func (p *parser) parseProgram() *ast.Node {
	start := p.lx.Peek().Pos
	prog := &ast.Node{Kind: ast.KindProgram, Span: spanFrom(start)}
	for !p.at(token.EOF) {
		prog.Children = append(prog.Children, p.parseStatement())
	}
	if len(prog.Children) > 0 {
		prog.Span = cover(prog.Span, prog.Children[len(prog.Children)-1])
	}
	return prog
}

func (p *parser) parseStatement() *ast.Node {
	t := p.lx.Peek()
	switch t.Kind {
	case token.KwVar, token.KwLet, token.KwConst:
		return p.parseVarDecl()
	case token.KwFunction:
		return p.parseFunction(true)
	case token.KwIf:
		return p.parseIf()
	case token.KwFor:
		return p.parseFor()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwReturn:
		p.lx.Next()
		ret := p.node(ast.KindReturn, "", t.Pos)
		if !p.at(token.Semicolon) && !p.at(token.RBrace) && !p.at(token.EOF) {
			expr := p.parseExpression()
			ret.Children = append(ret.Children, expr)
			ret.Span = cover(ret.Span, expr)
		}
		p.accept(token.Semicolon)
		return ret
	case token.KwBreak:
		p.lx.Next()
		p.accept(token.Semicolon)
		return p.node(ast.KindBreak, "", t.Pos)
	case token.KwContinue:
		p.lx.Next()
		p.accept(token.Semicolon)
		return p.node(ast.KindContinue, "", t.Pos)
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.lx.Next()
		return p.node(ast.KindEmpty, "", t.Pos)
	default:
		expr := p.parseExpression()
		p.accept(token.Semicolon)
		return p.node(ast.KindExprStmt, "", t.Pos, expr)
	}
}

func (p *parser) parseVarDecl() *ast.Node {
	kw := p.lx.Next()
	decl := p.node(ast.KindVarDecl, kw.Kind.String(), kw.Pos)
	for {
		name := p.expect(token.Ident)
		d := p.node(ast.KindDeclarator, name.Text, name.Pos)
		if p.accept(token.Assign) {
			init := p.parseAssignment()
			d.Children = append(d.Children, init)
			d.Span = cover(d.Span, init)
		}
		decl.Children = append(decl.Children, d)
		decl.Span = cover(decl.Span, d)
		if !p.accept(token.Comma) {
			break
		}
	}
	p.accept(token.Semicolon)
	return decl
}

// parseFunction parses both declarations and expressions. Declarations must
// be named; expressions may be anonymous.
func (p *parser) parseFunction(isDecl bool) *ast.Node {
	kw := p.expect(token.KwFunction)
	name := ""
	if p.at(token.Ident) {
		name = p.lx.Next().Text
	} else if isDecl {
		p.fail(p.lx.Peek().Pos, "function declaration requires a name")
	}
	params := p.parseParamList()
	body := p.parseBlock()
	kind := ast.KindFuncExpr
	if isDecl {
		kind = ast.KindFuncDecl
	}
	return p.node(kind, name, kw.Pos, params, body)
}

func (p *parser) parseParamList() *ast.Node {
	open := p.expect(token.LParen)
	list := p.node(ast.KindParamList, "", open.Pos)
	for !p.at(token.RParen) {
		name := p.expect(token.Ident)
		list.Children = append(list.Children, p.node(ast.KindParam, name.Text, name.Pos))
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return list
}

func (p *parser) parseBlock() *ast.Node {
	open := p.expect(token.LBrace)
	block := p.node(ast.KindBlock, "", open.Pos)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmt := p.parseStatement()
		block.Children = append(block.Children, stmt)
		block.Span = cover(block.Span, stmt)
	}
	p.expect(token.RBrace)
	return block
}

func (p *parser) parseIf() *ast.Node {
	kw := p.expect(token.KwIf)
	p.expect(token.LParen)
	cond := p.parseExpression()
	p.expect(token.RParen)
	then := p.parseStatementAsBlock()
	n := p.node(ast.KindIf, "", kw.Pos, cond, then)
	if p.accept(token.KwElse) {
		var alt *ast.Node
		if p.at(token.KwIf) {
			alt = p.parseIf()
		} else {
			alt = p.parseStatementAsBlock()
		}
		n.Children = append(n.Children, alt)
		n.Span = cover(n.Span, alt)
	}
	return n
}

// parseStatementAsBlock normalizes single-statement bodies into blocks so
// pass code never special-cases braceless control flow.
func (p *parser) parseStatementAsBlock() *ast.Node {
	if p.at(token.LBrace) {
		return p.parseBlock()
	}
	stmt := p.parseStatement()
	block := &ast.Node{Kind: ast.KindBlock, Span: stmt.Span, Children: []*ast.Node{stmt}}
	return block
}

func (p *parser) parseFor() *ast.Node {
	kw := p.expect(token.KwFor)
	p.expect(token.LParen)

	// Detect for..in: `for (var x in e)` or `for (x in e)`.
	if loopVar, ok := p.tryForIn(); ok {
		iterable := p.parseExpression()
		p.expect(token.RParen)
		body := p.parseStatementAsBlock()
		return p.node(ast.KindForIn, loopVar, kw.Pos, iterable, body)
	}

	init := p.emptyOr(token.Semicolon, func() *ast.Node {
		if p.at(token.KwVar) || p.at(token.KwLet) || p.at(token.KwConst) {
			return p.parseVarDecl() // consumes the trailing semicolon
		}
		e := p.parseExpression()
		p.expect(token.Semicolon)
		return p.node(ast.KindExprStmt, "", token.Pos{Line: e.Span.StartLine, Col: e.Span.StartCol}, e)
	})
	cond := p.emptyOr(token.Semicolon, func() *ast.Node {
		e := p.parseExpression()
		p.expect(token.Semicolon)
		return e
	})
	post := p.emptyOr(token.RParen, func() *ast.Node {
		return p.parseExpression()
	})
	p.expect(token.RParen)
	body := p.parseStatementAsBlock()
	return p.node(ast.KindFor, "", kw.Pos, init, cond, post, body)
}

// emptyOr returns KindEmpty when the next token is the section terminator
// (consuming it for semicolon-terminated sections), otherwise the parsed part.
func (p *parser) emptyOr(terminator token.Kind, parse func() *ast.Node) *ast.Node {
	if p.at(terminator) {
		pos := p.lx.Peek().Pos
		if terminator == token.Semicolon {
			p.lx.Next()
		}
		return p.node(ast.KindEmpty, "", pos)
	}
	return parse()
}

func (p *parser) tryForIn() (string, bool) {
	// Lookahead shapes: [var|let|const] Ident in ...  |  Ident in ...
	first := p.lx.Peek()
	switch first.Kind {
	case token.KwVar, token.KwLet, token.KwConst:
		if p.lx.PeekN(2).Kind == token.Ident && p.lx.PeekN(3).Kind == token.KwIn {
			p.lx.Next()
			name := p.lx.Next().Text
			p.lx.Next() // in
			return name, true
		}
	case token.Ident:
		if p.lx.PeekN(2).Kind == token.KwIn {
			name := p.lx.Next().Text
			p.lx.Next() // in
			return name, true
		}
	}
	return "", false
}

func (p *parser) parseWhile() *ast.Node {
	kw := p.expect(token.KwWhile)
	p.expect(token.LParen)
	cond := p.parseExpression()
	p.expect(token.RParen)
	body := p.parseStatementAsBlock()
	return p.node(ast.KindWhile, "", kw.Pos, cond, body)
}

func (p *parser) parseSwitch() *ast.Node {
	kw := p.expect(token.KwSwitch)
	p.expect(token.LParen)
	subject := p.parseExpression()
	p.expect(token.RParen)
	p.expect(token.LBrace)
	n := p.node(ast.KindSwitch, "", kw.Pos, subject)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		n.Children = append(n.Children, p.parseCase())
	}
	p.expect(token.RBrace)
	return n
}

func (p *parser) parseCase() *ast.Node {
	t := p.lx.Peek()
	var c *ast.Node
	switch t.Kind {
	case token.KwCase:
		p.lx.Next()
		test := p.parseExpression()
		c = p.node(ast.KindCase, "", t.Pos, test)
	case token.KwDefault:
		p.lx.Next()
		c = p.node(ast.KindCase, "default", t.Pos)
	default:
		p.fail(t.Pos, "expected case or default, found %s", describe(t))
	}
	p.expect(token.Colon)
	for !p.at(token.KwCase) && !p.at(token.KwDefault) && !p.at(token.RBrace) && !p.at(token.EOF) {
		stmt := p.parseStatement()
		c.Children = append(c.Children, stmt)
		c.Span = cover(c.Span, stmt)
	}
	return c
}
