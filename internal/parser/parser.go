// Package parser is a hand-written, single-pass, error-accumulating
// recursive-descent parser that turns a token slice into an AST.
package parser

import (
	"fmt"

	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/lexer"
)

// Parser consumes a token slice and builds an ast.Node tree.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []error
}

// New creates a Parser over tokens (as produced by lexer.Tokenize).
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Errors returns parse errors accumulated during ParseProgram.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) cur() lexer.Token  { return p.tokens[p.pos] }
func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lexer.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind, what string) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	t := p.cur()
	p.errorf(t.Line, t.Col, "expected %s, got %v", what, tokenDesc(t))
	return t
}

func (p *Parser) errorf(line, col int, format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...)))
}

func tokenDesc(t lexer.Token) string {
	if t.Ident != "" {
		return fmt.Sprintf("%q", t.Ident)
	}
	return fmt.Sprintf("token %d", t.Kind)
}

func (p *Parser) syncPastSemicolon() {
	for !p.at(lexer.EOF) && !p.at(lexer.Semicolon) {
		p.advance()
	}
	if p.at(lexer.Semicolon) {
		p.advance()
	}
}

// ParseProgram parses a complete source file into a Prog node holding
// a DeclVars child (global declarations) and a DeclFoncts child
// (function declarations).
func (p *Parser) ParseProgram() *ast.Node {
	prog := ast.New(ast.Prog, 1, 1)

	globals := ast.New(ast.DeclVars, 1, 1)
	funcs := ast.New(ast.DeclFoncts, 1, 1)

	for !p.at(lexer.EOF) {
		if p.isTypeStart() && p.lookaheadIsVarDecl() {
			globals.AddChild(p.parseVarDeclLine())
		} else {
			break
		}
	}

	for !p.at(lexer.EOF) {
		funcs.AddChild(p.parseFuncDecl())
	}

	prog.AddChild(globals)
	prog.AddChild(funcs)
	return prog
}

func (p *Parser) isTypeStart() bool {
	return p.at(lexer.KwInt) || p.at(lexer.KwChar)
}

// lookaheadIsVarDecl distinguishes "int x;" (global var) from
// "int f() {" (function) by peeking past the identifier for '('.
func (p *Parser) lookaheadIsVarDecl() bool {
	save := p.pos
	defer func() { p.pos = save }()
	p.advance() // type keyword
	if !p.at(lexer.Ident) {
		return false
	}
	p.advance()
	return !p.at(lexer.LParen)
}

// parseVarDeclLine parses "Type declarator (',' declarator)* ';'" into
// a Type node (spelled int/char) holding one or more Ident declarator
// children.
func (p *Parser) parseVarDeclLine() *ast.Node {
	typeTok := p.advance() // KwInt or KwChar
	typeNode := ast.NewIdent(ast.TypeNode, typeTok.Line, typeTok.Col, keywordSpelling(typeTok.Kind))

	typeNode.AddChild(p.parseDeclarator())
	for p.at(lexer.Comma) {
		p.advance()
		typeNode.AddChild(p.parseDeclarator())
	}
	p.expect(lexer.Semicolon, "';'")
	return typeNode
}

func keywordSpelling(k lexer.Kind) string {
	switch k {
	case lexer.KwInt:
		return "int"
	case lexer.KwChar:
		return "char"
	case lexer.KwVoid:
		return "void"
	}
	return "?"
}

// parseDeclarator parses "Ident ('[' Num ']')?" into an Ident node with
// an optional Num child whose value is the array length.
func (p *Parser) parseDeclarator() *ast.Node {
	tok := p.expect(lexer.Ident, "identifier")
	id := ast.NewIdent(ast.Ident, tok.Line, tok.Col, tok.Ident)
	if p.at(lexer.LBracket) {
		p.advance()
		numTok := p.expect(lexer.Num, "array length")
		id.AddChild(ast.NewNum(numTok.Line, numTok.Col, numTok.NumVal))
		p.expect(lexer.RBracket, "']'")
	}
	return id
}

// parseFuncDecl parses "DeclFonct | EnTeteFonct, Corps".
func (p *Parser) parseFuncDecl() *ast.Node {
	startLine, startCol := p.cur().Line, p.cur().Col
	fn := ast.New(ast.DeclFonct, startLine, startCol)
	fn.AddChild(p.parseFuncHeader())
	fn.AddChild(p.parseFuncBody())
	return fn
}

// parseFuncHeader parses "EnTeteFonct | return-type node, Ident (name),
// (Parametres -> ListTypVar -> Type..., or NoParametres)".
func (p *Parser) parseFuncHeader() *ast.Node {
	typeTok := p.advance() // int/char/void
	header := ast.New(ast.EnTeteFonct, typeTok.Line, typeTok.Col)

	retType := ast.NewIdent(ast.TypeNode, typeTok.Line, typeTok.Col, keywordSpelling(typeTok.Kind))
	header.AddChild(retType)

	nameTok := p.expect(lexer.Ident, "function name")
	header.AddChild(ast.NewIdent(ast.Ident, nameTok.Line, nameTok.Col, nameTok.Ident))

	p.expect(lexer.LParen, "'('")
	if p.at(lexer.RParen) {
		header.AddChild(ast.New(ast.NoParametres, p.cur().Line, p.cur().Col))
	} else {
		params := ast.New(ast.Parametres, p.cur().Line, p.cur().Col)
		listTypVar := ast.New(ast.ListTypVar, p.cur().Line, p.cur().Col)
		listTypVar.AddChild(p.parseParamType())
		for p.at(lexer.Comma) {
			p.advance()
			listTypVar.AddChild(p.parseParamType())
		}
		params.AddChild(listTypVar)
		header.AddChild(params)
	}
	p.expect(lexer.RParen, "')'")
	return header
}

// parseParamType parses one formal parameter as a Type node holding a
// single Ident declarator (optionally array-shaped via trailing '[]').
func (p *Parser) parseParamType() *ast.Node {
	typeTok := p.advance() // int/char
	typeNode := ast.NewIdent(ast.TypeNode, typeTok.Line, typeTok.Col, keywordSpelling(typeTok.Kind))
	nameTok := p.expect(lexer.Ident, "parameter name")
	id := ast.NewIdent(ast.Ident, nameTok.Line, nameTok.Col, nameTok.Ident)
	if p.at(lexer.LBracket) {
		p.advance()
		p.expect(lexer.RBracket, "']'")
		id.AddChild(ast.New(ast.Num, nameTok.Line, nameTok.Col)) // array marker, length unknown at call site
	}
	typeNode.AddChild(id)
	return typeNode
}

// parseFuncBody parses "Corps | DeclVars, SuiteInstr".
func (p *Parser) parseFuncBody() *ast.Node {
	lb := p.expect(lexer.LBrace, "'{'")
	corps := ast.New(ast.Corps, lb.Line, lb.Col)

	locals := ast.New(ast.DeclVars, lb.Line, lb.Col)
	for p.isTypeStart() {
		locals.AddChild(p.parseVarDeclLine())
	}
	corps.AddChild(locals)

	suite := ast.New(ast.SuiteInstr, lb.Line, lb.Col)
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		suite.AddChild(p.parseStmt())
	}
	corps.AddChild(suite)

	p.expect(lexer.RBrace, "'}'")
	return corps
}

// parseStmt parses one statement into an Instr node wrapping one of
// If | While | Return | Assignation | Ident(call) | EmptyInstr | a
// nested SuiteInstr (brace block).
func (p *Parser) parseStmt() *ast.Node {
	tok := p.cur()
	instr := ast.New(ast.Instr, tok.Line, tok.Col)

	switch {
	case p.at(lexer.LBrace):
		p.advance()
		suite := ast.New(ast.SuiteInstr, tok.Line, tok.Col)
		for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
			suite.AddChild(p.parseStmt())
		}
		p.expect(lexer.RBrace, "'}'")
		instr.AddChild(suite)

	case p.at(lexer.Semicolon):
		p.advance()
		instr.AddChild(ast.New(ast.EmptyInstr, tok.Line, tok.Col))

	case p.at(lexer.KwIf):
		instr.AddChild(p.parseIf())

	case p.at(lexer.KwWhile):
		instr.AddChild(p.parseWhile())

	case p.at(lexer.KwReturn):
		instr.AddChild(p.parseReturn())

	case p.at(lexer.Ident):
		instr.AddChild(p.parseIdentStmt())

	default:
		p.errorf(tok.Line, tok.Col, "unexpected %v at start of statement", tokenDesc(tok))
		p.syncPastSemicolon()
		instr.AddChild(ast.New(ast.EmptyInstr, tok.Line, tok.Col))
	}
	return instr
}

func (p *Parser) parseIf() *ast.Node {
	tok := p.advance() // 'if'
	n := ast.New(ast.If, tok.Line, tok.Col)
	p.expect(lexer.LParen, "'('")
	n.AddChild(p.parseExp())
	p.expect(lexer.RParen, "')'")
	n.AddChild(p.parseStmt())
	if p.at(lexer.KwElse) {
		elseTok := p.advance()
		elseNode := ast.New(ast.Else, elseTok.Line, elseTok.Col)
		elseNode.AddChild(p.parseStmt())
		n.AddChild(elseNode)
	}
	return n
}

func (p *Parser) parseWhile() *ast.Node {
	tok := p.advance() // 'while'
	n := ast.New(ast.While, tok.Line, tok.Col)
	p.expect(lexer.LParen, "'('")
	n.AddChild(p.parseExp())
	p.expect(lexer.RParen, "')'")
	n.AddChild(p.parseStmt())
	return n
}

func (p *Parser) parseReturn() *ast.Node {
	tok := p.advance() // 'return'
	n := ast.New(ast.Return, tok.Line, tok.Col)
	if !p.at(lexer.Semicolon) {
		n.AddChild(p.parseExp())
	}
	p.expect(lexer.Semicolon, "';'")
	return n
}

// parseIdentStmt disambiguates "ident = exp ;" (Assignation), optionally
// with an array index LValue, from "ident ( args ) ;" (call statement).
func (p *Parser) parseIdentStmt() *ast.Node {
	tok := p.advance() // Ident
	id := ast.NewIdent(ast.Ident, tok.Line, tok.Col, tok.Ident)

	if p.at(lexer.LBracket) {
		p.advance()
		idx := p.parseExp()
		p.expect(lexer.RBracket, "']'")
		id.AddChild(idx)
	}

	if p.at(lexer.Assign) {
		p.advance()
		assign := ast.New(ast.Assignation, tok.Line, tok.Col)
		lvalue := ast.New(ast.LValue, tok.Line, tok.Col)
		lvalue.AddChild(id)
		assign.AddChild(lvalue)
		assign.AddChild(p.parseExp())
		p.expect(lexer.Semicolon, "';'")
		return assign
	}

	// Call statement: ident(...) ;
	p.expect(lexer.LParen, "'(' or '='")
	if p.at(lexer.RParen) {
		id.AddChild(ast.New(ast.NoParametres, tok.Line, tok.Col))
	} else {
		listExp := ast.New(ast.ListExp, tok.Line, tok.Col)
		listExp.AddChild(p.parseExp())
		for p.at(lexer.Comma) {
			p.advance()
			listExp.AddChild(p.parseExp())
		}
		id.AddChild(listExp)
	}
	p.expect(lexer.RParen, "')'")
	p.expect(lexer.Semicolon, "';'")
	return id
}

// --- Expression grammar, precedence climbing top-down ---

func (p *Parser) parseExp() *ast.Node { return p.parseOr() }

func (p *Parser) parseOr() *ast.Node {
	left := p.parseAnd()
	for p.at(lexer.OrOr) {
		tok := p.advance()
		n := ast.NewIdent(ast.Or, tok.Line, tok.Col, "||")
		n.AddChild(left)
		n.AddChild(p.parseAnd())
		left = n
	}
	return left
}

func (p *Parser) parseAnd() *ast.Node {
	left := p.parseEq()
	for p.at(lexer.AndAnd) {
		tok := p.advance()
		n := ast.NewIdent(ast.And, tok.Line, tok.Col, "&&")
		n.AddChild(left)
		n.AddChild(p.parseEq())
		left = n
	}
	return left
}

func (p *Parser) parseEq() *ast.Node {
	left := p.parseOrder()
	for p.at(lexer.Eq) || p.at(lexer.Neq) {
		tok := p.advance()
		sym := "=="
		if tok.Kind == lexer.Neq {
			sym = "!="
		}
		n := ast.NewIdent(ast.Eq, tok.Line, tok.Col, sym)
		n.AddChild(left)
		n.AddChild(p.parseOrder())
		left = n
	}
	return left
}

func (p *Parser) parseOrder() *ast.Node {
	left := p.parseAddSub()
	for p.at(lexer.Lt) || p.at(lexer.Leq) || p.at(lexer.Gt) || p.at(lexer.Geq) {
		tok := p.advance()
		n := ast.NewIdent(ast.Order, tok.Line, tok.Col, orderSymbol(tok.Kind))
		n.AddChild(left)
		n.AddChild(p.parseAddSub())
		left = n
	}
	return left
}

func orderSymbol(k lexer.Kind) string {
	switch k {
	case lexer.Lt:
		return "<"
	case lexer.Leq:
		return "<="
	case lexer.Gt:
		return ">"
	case lexer.Geq:
		return ">="
	}
	return "?"
}

func (p *Parser) parseAddSub() *ast.Node {
	left := p.parseDivStar()
	for p.at(lexer.Plus) || p.at(lexer.Minus) {
		tok := p.advance()
		sym := "+"
		if tok.Kind == lexer.Minus {
			sym = "-"
		}
		n := ast.NewIdent(ast.AddSub, tok.Line, tok.Col, sym)
		n.AddChild(left)
		n.AddChild(p.parseDivStar())
		left = n
	}
	return left
}

func (p *Parser) parseDivStar() *ast.Node {
	left := p.parseUnary()
	for p.at(lexer.Star) || p.at(lexer.Slash) || p.at(lexer.Percent) {
		tok := p.advance()
		sym := map[lexer.Kind]string{lexer.Star: "*", lexer.Slash: "/", lexer.Percent: "%"}[tok.Kind]
		n := ast.NewIdent(ast.DivStar, tok.Line, tok.Col, sym)
		n.AddChild(left)
		n.AddChild(p.parseUnary())
		left = n
	}
	return left
}

func (p *Parser) parseUnary() *ast.Node {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Minus, lexer.Plus:
		p.advance()
		sym := "+"
		if tok.Kind == lexer.Minus {
			sym = "-"
		}
		n := ast.NewIdent(ast.AddSub, tok.Line, tok.Col, sym)
		n.AddChild(p.parseUnary())
		return n
	case lexer.Bang:
		p.advance()
		n := ast.New(ast.Negation, tok.Line, tok.Col)
		n.AddChild(p.parseUnary())
		return n
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() *ast.Node {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Num:
		p.advance()
		return ast.NewNum(tok.Line, tok.Col, tok.NumVal)

	case lexer.Character:
		p.advance()
		return &ast.Node{Label: ast.Character, Line: tok.Line, Col: tok.Col, Ident: tok.Ident, NumVal: tok.NumVal}

	case lexer.LParen:
		p.advance()
		e := p.parseExp()
		p.expect(lexer.RParen, "')'")
		return e

	case lexer.Ident:
		p.advance()
		id := ast.NewIdent(ast.Ident, tok.Line, tok.Col, tok.Ident)
		if p.at(lexer.LBracket) {
			p.advance()
			idx := p.parseExp()
			p.expect(lexer.RBracket, "']'")
			id.AddChild(idx)
		} else if p.at(lexer.LParen) {
			p.advance()
			if p.at(lexer.RParen) {
				id.AddChild(ast.New(ast.NoParametres, tok.Line, tok.Col))
			} else {
				listExp := ast.New(ast.ListExp, tok.Line, tok.Col)
				listExp.AddChild(p.parseExp())
				for p.at(lexer.Comma) {
					p.advance()
					listExp.AddChild(p.parseExp())
				}
				id.AddChild(listExp)
			}
			p.expect(lexer.RParen, "')'")
		}
		return id

	default:
		p.errorf(tok.Line, tok.Col, "unexpected %v in expression", tokenDesc(tok))
		p.advance()
		return ast.NewNum(tok.Line, tok.Col, 0)
	}
}
