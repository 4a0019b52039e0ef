// Package ast defines a diagnostic-only syntax tree for Kriolu source, built
// solely to satisfy the -ast dump flag. spec.md §4.2 is explicit that no AST
// is persisted for execution: internal/compiler parses and emits bytecode in
// a single pass and never constructs these types. This package exists only
// so a user can ask "what did the parser see" without it being load-bearing
// for compilation, following the shape of the teacher's pkg/ast.Node but
// without expression/statement marker interfaces the compiler never needs.
package ast

import (
	"fmt"
	"strings"

	"github.com/7amdev/kriolu-go/internal/lexer"
	"github.com/7amdev/kriolu-go/internal/token"
)

// Node is any tree node; Dump renders it indented for the -ast flag.
type Node interface {
	Dump(indent int) string
}

// Program is the root node: a flat list of top-level statements.
type Program struct {
	Statements []Node
}

func (p *Program) Dump(indent int) string {
	var b strings.Builder
	for _, s := range p.Statements {
		b.WriteString(s.Dump(indent))
	}
	return b.String()
}

type VarDecl struct {
	Name string
	Init Node // nil if uninitialized
}

func (n *VarDecl) Dump(indent int) string {
	if n.Init == nil {
		return pad(indent) + fmt.Sprintf("VarDecl %s\n", n.Name)
	}
	return pad(indent) + fmt.Sprintf("VarDecl %s =\n", n.Name) + n.Init.Dump(indent+1)
}

type FuncDecl struct {
	Name   string
	Params []string
	Body   []Node
}

func (n *FuncDecl) Dump(indent int) string {
	b := pad(indent) + fmt.Sprintf("FuncDecl %s(%s)\n", n.Name, strings.Join(n.Params, ", "))
	for _, s := range n.Body {
		b += s.Dump(indent + 1)
	}
	return b
}

type ClassDecl struct {
	Name       string
	SuperClass string
	Methods    []*FuncDecl
}

func (n *ClassDecl) Dump(indent int) string {
	header := n.Name
	if n.SuperClass != "" {
		header += " < " + n.SuperClass
	}
	b := pad(indent) + fmt.Sprintf("ClassDecl %s\n", header)
	for _, m := range n.Methods {
		b += m.Dump(indent + 1)
	}
	return b
}

type If struct {
	Cond Node
	Then []Node
	Else []Node
}

func (n *If) Dump(indent int) string {
	b := pad(indent) + "If\n" + n.Cond.Dump(indent+1)
	b += pad(indent) + "Then\n"
	for _, s := range n.Then {
		b += s.Dump(indent + 1)
	}
	if len(n.Else) > 0 {
		b += pad(indent) + "Else\n"
		for _, s := range n.Else {
			b += s.Dump(indent + 1)
		}
	}
	return b
}

type While struct {
	Cond Node
	Body []Node
}

func (n *While) Dump(indent int) string {
	b := pad(indent) + "While\n" + n.Cond.Dump(indent+1)
	for _, s := range n.Body {
		b += s.Dump(indent + 1)
	}
	return b
}

type Return struct{ Value Node }

func (n *Return) Dump(indent int) string {
	if n.Value == nil {
		return pad(indent) + "Return\n"
	}
	return pad(indent) + "Return\n" + n.Value.Dump(indent+1)
}

type Print struct{ Value Node }

func (n *Print) Dump(indent int) string {
	return pad(indent) + "Print\n" + n.Value.Dump(indent+1)
}

type ExprStmt struct{ Expr Node }

func (n *ExprStmt) Dump(indent int) string { return n.Expr.Dump(indent) }

type Block struct{ Statements []Node }

func (n *Block) Dump(indent int) string {
	b := pad(indent) + "Block\n"
	for _, s := range n.Statements {
		b += s.Dump(indent + 1)
	}
	return b
}

type Binary struct {
	Op          string
	Left, Right Node
}

func (n *Binary) Dump(indent int) string {
	return pad(indent) + fmt.Sprintf("Binary %s\n", n.Op) + n.Left.Dump(indent+1) + n.Right.Dump(indent+1)
}

type Unary struct {
	Op      string
	Operand Node
}

func (n *Unary) Dump(indent int) string {
	return pad(indent) + fmt.Sprintf("Unary %s\n", n.Op) + n.Operand.Dump(indent+1)
}

type Call struct {
	Callee Node
	Args   []Node
}

func (n *Call) Dump(indent int) string {
	b := pad(indent) + "Call\n" + n.Callee.Dump(indent+1)
	for _, a := range n.Args {
		b += a.Dump(indent + 1)
	}
	return b
}

type Literal struct{ Text string }

func (n *Literal) Dump(indent int) string { return pad(indent) + "Literal " + n.Text + "\n" }

type Identifier struct{ Name string }

func (n *Identifier) Dump(indent int) string { return pad(indent) + "Identifier " + n.Name + "\n" }

func pad(indent int) string { return strings.Repeat("  ", indent) }

// Parse runs a small recursive-descent reader over the same token stream
// internal/compiler consumes, solely to produce a Program for dumping. It
// does not need to agree with the compiler's error-recovery behavior: a
// malformed program simply stops early with whatever it built.
func Parse(source string) *Program {
	p := &parser{lx: lexer.New(source)}
	p.advance()
	prog := &Program{}
	for p.cur.Kind != token.EOF {
		prog.Statements = append(prog.Statements, p.declaration())
	}
	return prog
}

type parser struct {
	lx   *lexer.Lexer
	cur  token.Token
	prev token.Token
}

func (p *parser) advance() {
	p.prev = p.cur
	p.cur = p.lx.NextToken()
}

func (p *parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) declaration() Node {
	switch {
	case p.match(token.Mimoria):
		name := p.cur.Lexeme
		p.advance()
		var init Node
		if p.match(token.Equal) {
			init = p.expression()
		}
		p.match(token.Semicolon)
		return &VarDecl{Name: name, Init: init}
	case p.match(token.Funson):
		return p.funcDecl()
	case p.match(token.Klasi):
		return p.classDecl()
	default:
		return p.statement()
	}
}

func (p *parser) funcDecl() Node {
	name := p.cur.Lexeme
	p.advance()
	p.match(token.LeftParen)
	var params []string
	for !p.check(token.RightParen) && !p.check(token.EOF) {
		params = append(params, p.cur.Lexeme)
		p.advance()
		if !p.match(token.Comma) {
			break
		}
	}
	p.match(token.RightParen)
	body := p.blockStatements()
	return &FuncDecl{Name: name, Params: params, Body: body}
}

func (p *parser) classDecl() Node {
	name := p.cur.Lexeme
	p.advance()
	super := ""
	if p.match(token.Less) {
		super = p.cur.Lexeme
		p.advance()
	}
	p.match(token.LeftBrace)
	var methods []*FuncDecl
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		methods = append(methods, p.funcDecl().(*FuncDecl))
	}
	p.match(token.RightBrace)
	return &ClassDecl{Name: name, SuperClass: super, Methods: methods}
}

func (p *parser) statement() Node {
	switch {
	case p.match(token.Si):
		return p.ifStatement()
	case p.match(token.Timenti):
		return p.whileStatement()
	case p.match(token.Divolvi):
		var v Node
		if !p.check(token.Semicolon) {
			v = p.expression()
		}
		p.match(token.Semicolon)
		return &Return{Value: v}
	case p.match(token.Imprimi):
		v := p.expression()
		p.match(token.Semicolon)
		return &Print{Value: v}
	case p.match(token.LeftBrace):
		return &Block{Statements: p.restOfBlock()}
	default:
		e := p.expression()
		p.match(token.Semicolon)
		return &ExprStmt{Expr: e}
	}
}

func (p *parser) ifStatement() Node {
	p.match(token.LeftParen)
	cond := p.expression()
	p.match(token.RightParen)
	then := p.blockStatements()
	var els []Node
	if p.match(token.Sinou) {
		els = p.blockStatements()
	}
	return &If{Cond: cond, Then: then, Else: els}
}

func (p *parser) whileStatement() Node {
	p.match(token.LeftParen)
	cond := p.expression()
	p.match(token.RightParen)
	return &While{Cond: cond, Body: p.blockStatements()}
}

func (p *parser) blockStatements() []Node {
	p.match(token.LeftBrace)
	return p.restOfBlock()
}

func (p *parser) restOfBlock() []Node {
	var stmts []Node
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		stmts = append(stmts, p.declaration())
	}
	p.match(token.RightBrace)
	return stmts
}

// expression implements a minimal precedence climb: equality, comparison,
// additive, multiplicative, unary, call, primary. Logical e/ou bind loosest.
func (p *parser) expression() Node { return p.or() }

func (p *parser) or() Node {
	left := p.and()
	for p.match(token.Ou) {
		left = &Binary{Op: "ou", Left: left, Right: p.and()}
	}
	return left
}

func (p *parser) and() Node {
	left := p.equality()
	for p.match(token.E) {
		left = &Binary{Op: "e", Left: left, Right: p.equality()}
	}
	return left
}

func (p *parser) equality() Node {
	left := p.comparison()
	for p.check(token.EqualEqual) || p.check(token.BangEqual) {
		op := p.cur.Lexeme
		p.advance()
		left = &Binary{Op: op, Left: left, Right: p.comparison()}
	}
	return left
}

func (p *parser) comparison() Node {
	left := p.term()
	for p.check(token.Greater) || p.check(token.GreaterEqual) || p.check(token.Less) || p.check(token.LessEqual) {
		op := p.cur.Lexeme
		p.advance()
		left = &Binary{Op: op, Left: left, Right: p.term()}
	}
	return left
}

func (p *parser) term() Node {
	left := p.factor()
	for p.check(token.Plus) || p.check(token.Minus) {
		op := p.cur.Lexeme
		p.advance()
		left = &Binary{Op: op, Left: left, Right: p.factor()}
	}
	return left
}

func (p *parser) factor() Node {
	left := p.unary()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Caret) {
		op := p.cur.Lexeme
		p.advance()
		left = &Binary{Op: op, Left: left, Right: p.unary()}
	}
	return left
}

func (p *parser) unary() Node {
	if p.check(token.Minus) || p.check(token.Ka) {
		op := p.cur.Lexeme
		p.advance()
		return &Unary{Op: op, Operand: p.unary()}
	}
	return p.call()
}

func (p *parser) call() Node {
	expr := p.primary()
	for p.match(token.LeftParen) {
		var args []Node
		for !p.check(token.RightParen) && !p.check(token.EOF) {
			args = append(args, p.expression())
			if !p.match(token.Comma) {
				break
			}
		}
		p.match(token.RightParen)
		expr = &Call{Callee: expr, Args: args}
	}
	return expr
}

func (p *parser) primary() Node {
	tok := p.cur
	switch tok.Kind {
	case token.Number, token.String, token.Verdadi, token.Falsu, token.Nulo, token.Keli, token.Riba:
		p.advance()
		return &Literal{Text: tok.Lexeme}
	case token.Identifier:
		p.advance()
		return &Identifier{Name: tok.Lexeme}
	case token.LeftParen:
		p.advance()
		e := p.expression()
		p.match(token.RightParen)
		return e
	default:
		p.advance()
		return &Literal{Text: tok.Lexeme}
	}
}
