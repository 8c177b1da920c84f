// Copyright the peryan contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package parser implements the recursive-descent Parser of spec.md §4.3:
// an infinite-lookahead speculation mechanism over a lazily-filled token
// buffer, statement and expression grammars, and the disambiguation of
// constructor calls from ordinary calls via speculative TypeSpec parsing.
//
// The parser never creates Scope objects itself -- unlike the scope
// pointers spec.md §4.3 describes being attached during parsing, this
// implementation leaves every node's Scope field nil and defers scope
// construction to the Symbol Register pass (pkg/sema). This keeps
// speculative (discarded) parses free of side effects without needing an
// explicit transactional scope stack, which the mark/release token
// buffer alone cannot provide.
package parser

import (
	"fmt"

	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/lexer"
	"github.com/peryaudo/peryan/pkg/token"
)

// Parser holds the lazily-filled token buffer and the speculation-mark
// stack (spec.md §4.3: "lookahead is buffered in a deque of tokens").
type Parser struct {
	lex  *lexer.Lexer
	toks []token.Token
	pos  int

	marks []int

	hspCompat bool
}

// New constructs a Parser reading tokens from lex. hspCompat is recorded
// but does not change what the parser accepts: label syntax is always
// parsed, and outside HSP-compatibility mode label declarations are
// rejected by the Symbol Register pass (spec.md §4.4/§4.5) rather than by
// the parser itself.
func New(lex *lexer.Lexer, hspCompat bool) *Parser {
	return &Parser{lex: lex, hspCompat: hspCompat}
}

// Parse consumes the entire token stream and returns the translation
// unit's statement list. It does not run the semantic passes; callers
// invoke pkg/sema explicitly (spec.md §4.3's "the parser runs the three
// semantic passes in order" is honored one layer up, by the CLI driver,
// so pkg/parser stays usable standalone in tests).
func (p *Parser) Parse() (*ast.TransUnit, *diag.Error) {
	stmts, err := p.parseStmtList(token.END)
	if err != nil {
		return nil, err
	}
	return &ast.TransUnit{Stmts: stmts}, nil
}

// --- token buffer -----------------------------------------------------

// fill ensures the buffer holds at least n+1 tokens past pos. lexer.Next
// returns END forever once the source is exhausted, so this naturally
// stops growing once every lookahead slot holds END.
func (p *Parser) fill(n int) *diag.Error {
	for len(p.toks)-p.pos <= n {
		tok, err := p.lex.Next()
		if err != nil {
			return err
		}
		p.toks = append(p.toks, tok)
	}
	return nil
}

func (p *Parser) cur() token.Token {
	p.fill(0)
	return p.toks[p.pos]
}

func (p *Parser) peek(n int) token.Token {
	p.fill(n)
	return p.toks[p.pos+n]
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if tok.Kind != token.END {
		p.pos++
	}
	return tok
}

// mark pushes the current position onto the speculation stack.
func (p *Parser) mark() {
	p.marks = append(p.marks, p.pos)
}

// backtrack restores the most recently marked position (a failed
// speculative parse).
func (p *Parser) backtrack() {
	n := len(p.marks) - 1
	p.pos = p.marks[n]
	p.marks = p.marks[:n]
}

// commit discards the most recently marked position without moving pos
// (a successful speculative parse).
func (p *Parser) commit() {
	p.marks = p.marks[:len(p.marks)-1]
}

// stmtBaseOf/exprBaseOf build the exported embeddable base structs
// (ast.StmtBase/ast.ExprBase are exported specifically so this package
// can populate them in node composite literals).
func stmtBaseOf(tok token.Token) ast.StmtBase { return ast.StmtBase{Token: tok} }
func exprBaseOf(tok token.Token) ast.ExprBase { return ast.ExprBase{Token: tok} }

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) *diag.Error {
	return diag.NewParserError(pos, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(kind token.Kind) (token.Token, *diag.Error) {
	tok := p.cur()
	if tok.Kind != kind {
		return tok, p.errorf(tok.Position, "expected %s, got %s", kind, tok.Kind)
	}
	return p.advance(), nil
}

// expectIdentLike accepts ID or TYPEID (used for member names, which may
// be capitalized builtin members like String.length's "length" is
// lower-case, but type member specs such as Namespace.Type are upper).
func (p *Parser) expectIdentLike() (string, *diag.Error) {
	tok := p.cur()
	if tok.Kind != token.ID && tok.Kind != token.TYPEID {
		return "", p.errorf(tok.Position, "expected identifier, got %s", tok.Kind)
	}
	p.advance()
	return tok.Text, nil
}

// --- statement-separator handling --------------------------------------

// skipSeparators consumes zero or more TERM/COLON tokens.
func (p *Parser) skipSeparators() {
	for p.cur().Kind == token.TERM || p.cur().Kind == token.COLON {
		p.advance()
	}
}

func (p *Parser) atBlockEnd() bool {
	k := p.cur().Kind
	return k == token.RBRACE || k == token.END
}

// parseStmtList parses statements (separated by TERM/COLON) until `until`
// is seen (not consumed).
func (p *Parser) parseStmtList(until token.Kind) ([]ast.Stmt, *diag.Error) {
	var stmts []ast.Stmt
	p.skipSeparators()
	for p.cur().Kind != until && !(until != token.END && p.atBlockEnd()) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.skipSeparators()
	}
	return stmts, nil
}

// --- statements ---------------------------------------------------------

func (p *Parser) parseStmt() (ast.Stmt, *diag.Error) {
	tok := p.cur()
	switch tok.Kind {
	case token.VAR:
		return p.parseVarDef()
	case token.FUNC:
		return p.parseFuncDef()
	case token.EXTERN:
		return p.parseExternStmt()
	case token.NAMESPACE:
		return p.parseNamespaceStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.REPEAT:
		return p.parseRepeatStmt()
	case token.GOTO:
		return p.parseGotoStmt()
	case token.GOSUB:
		return p.parseGosubStmt()
	case token.CONTINUE:
		p.advance()
		return &ast.ContinueStmt{stmtBaseOf(tok)}, nil
	case token.BREAK:
		p.advance()
		return &ast.BreakStmt{stmtBaseOf(tok)}, nil
	case token.RETURN:
		return p.parseReturnStmt()
	case token.LBRACE:
		return p.parseCompStmt()
	case token.STAR:
		if tok.HasTrailingAlphabet {
			return p.parseLabelStmt()
		}
	}
	return p.parseInstOrAssignStmt()
}

func (p *Parser) parseCompStmt() (*ast.CompStmt, *diag.Error) {
	lbrace, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtList(token.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.CompStmt{stmtBaseOf(lbrace), stmts, nil}, nil
}

// parseBranchBody parses either a `{ ... }` block or a one-line `: stmt`
// body, used by IfStmt's then/else arms (spec.md §4.3).
func (p *Parser) parseBranchBody() (*ast.CompStmt, *diag.Error) {
	if p.cur().Kind == token.LBRACE {
		return p.parseCompStmt()
	}
	colon, err := p.expect(token.COLON)
	if err != nil {
		return nil, err
	}
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.CompStmt{stmtBaseOf(colon), []ast.Stmt{stmt}, nil}, nil
}

func (p *Parser) parseVarDef() (ast.Stmt, *diag.Error) {
	varTok, _ := p.expect(token.VAR)
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	var ts ast.TypeSpec
	if p.cur().Kind == token.DCOLON {
		p.advance()
		if ts, err = p.parseTypeSpec(); err != nil {
			return nil, err
		}
	}
	var init ast.Expr
	if p.cur().Kind == token.EQ {
		p.advance()
		if init, err = p.parseExpr(true); err != nil {
			return nil, err
		}
	}
	return &ast.VarDefStmt{stmtBaseOf(varTok), name, ts, init, nil}, nil
}

func (p *Parser) parseParamList() ([]*ast.Identifier, []ast.TypeSpec, []ast.Expr, *diag.Error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, nil, nil, err
	}
	var params []*ast.Identifier
	var types []ast.TypeSpec
	var defaults []ast.Expr
	for p.cur().Kind != token.RPAREN {
		nameTok, err := p.expect(token.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		var ts ast.TypeSpec
		if p.cur().Kind == token.DCOLON {
			p.advance()
			if ts, err = p.parseTypeSpec(); err != nil {
				return nil, nil, nil, err
			}
		}
		var def ast.Expr
		if p.cur().Kind == token.EQ {
			p.advance()
			if def, err = p.parseExpr(true); err != nil {
				return nil, nil, nil, err
			}
		}
		id := &ast.Identifier{exprBaseOf(nameTok), nameTok.Text, nil, ts}
		params = append(params, id)
		types = append(types, ts)
		defaults = append(defaults, def)
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, nil, nil, err
	}
	return params, types, defaults, nil
}

func (p *Parser) parseFuncDef() (ast.Stmt, *diag.Error) {
	funcTok, _ := p.expect(token.FUNC)
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	params, types, defaults, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	var ret ast.TypeSpec
	if p.cur().Kind == token.DCOLON {
		p.advance()
		if ret, err = p.parseTypeSpec(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseCompStmt()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDefStmt{stmtBaseOf(funcTok), name, params, types, defaults, ret, body, nil, false}, nil
}

func (p *Parser) parseExternStmt() (ast.Stmt, *diag.Error) {
	externTok, _ := p.expect(token.EXTERN)
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DCOLON); err != nil {
		return nil, err
	}
	ts, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	var params []ast.TypeSpec
	var ret ast.TypeSpec
	if fts, ok := ts.(*ast.FuncTypeSpec); ok {
		params, ret = fts.Params, fts.Ret
	} else {
		ret = ts
	}
	var defaults []ast.Expr
	if p.cur().Kind == token.EQ {
		p.advance()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		for p.cur().Kind != token.RPAREN {
			d, err := p.parseExpr(true)
			if err != nil {
				return nil, err
			}
			defaults = append(defaults, d)
			if p.cur().Kind == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}
	return &ast.ExternStmt{stmtBaseOf(externTok), name, params, ret, defaults, nil}, nil
}

func (p *Parser) parseNamespaceStmt() (ast.Stmt, *diag.Error) {
	nsTok, _ := p.expect(token.NAMESPACE)
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtList(token.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.NamespaceStmt{stmtBaseOf(nsTok), name, stmts, nil}, nil
}

func (p *Parser) parseIfStmt() (ast.Stmt, *diag.Error) {
	ifTok, _ := p.expect(token.IF)
	var conds []ast.Expr
	var thens []*ast.CompStmt
	cond, err := p.parseExpr(false)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBranchBody()
	if err != nil {
		return nil, err
	}
	conds, thens = append(conds, cond), append(thens, then)
	var elseBranch *ast.CompStmt
	for p.cur().Kind == token.ELSE {
		p.advance()
		if p.cur().Kind == token.IF {
			p.advance()
			cond, err := p.parseExpr(false)
			if err != nil {
				return nil, err
			}
			then, err := p.parseBranchBody()
			if err != nil {
				return nil, err
			}
			conds, thens = append(conds, cond), append(thens, then)
			continue
		}
		if elseBranch, err = p.parseBranchBody(); err != nil {
			return nil, err
		}
		break
	}
	return &ast.IfStmt{stmtBaseOf(ifTok), conds, thens, elseBranch}, nil
}

func (p *Parser) parseRepeatStmt() (ast.Stmt, *diag.Error) {
	repTok, _ := p.expect(token.REPEAT)
	var count ast.Expr
	if p.cur().Kind != token.LBRACE {
		var err *diag.Error
		if count, err = p.parseExpr(false); err != nil {
			return nil, err
		}
	}
	body, err := p.parseCompStmt()
	if err != nil {
		return nil, err
	}
	return &ast.RepeatStmt{stmtBaseOf(repTok), count, body, nil}, nil
}

func (p *Parser) parseLabelRef() (*ast.Label, *diag.Error) {
	starTok, err := p.expect(token.STAR)
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	return &ast.Label{exprBaseOf(starTok), name, nil}, nil
}

func (p *Parser) parseLabelStmt() (ast.Stmt, *diag.Error) {
	starTok, _ := p.expect(token.STAR)
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	return &ast.LabelStmt{stmtBaseOf(starTok), name, nil}, nil
}

func (p *Parser) parseGotoStmt() (ast.Stmt, *diag.Error) {
	gotoTok, _ := p.expect(token.GOTO)
	target, err := p.parseLabelRef()
	if err != nil {
		return nil, err
	}
	return &ast.GotoStmt{stmtBaseOf(gotoTok), target}, nil
}

func (p *Parser) parseGosubStmt() (ast.Stmt, *diag.Error) {
	gosubTok, _ := p.expect(token.GOSUB)
	target, err := p.parseLabelRef()
	if err != nil {
		return nil, err
	}
	return &ast.GosubStmt{stmtBaseOf(gosubTok), target}, nil
}

func (p *Parser) parseReturnStmt() (ast.Stmt, *diag.Error) {
	retTok, _ := p.expect(token.RETURN)
	var value ast.Expr
	k := p.cur().Kind
	if k != token.TERM && k != token.COLON && k != token.RBRACE && k != token.END {
		var err *diag.Error
		if value, err = p.parseExpr(true); err != nil {
			return nil, err
		}
	}
	return &ast.ReturnStmt{stmtBaseOf(retTok), value}, nil
}

// assignOps is the set of tokens that make the already-parsed expression
// the LHS of an AssignStmt rather than a standalone expression/Inst.
var assignOps = map[token.Kind]bool{
	token.EQ: true, token.PLUSEQ: true, token.MINUSEQ: true, token.STAREQ: true, token.SLASHEQ: true,
}

// parseInstOrAssignStmt disambiguates assignment, the bare "instruction
// call" form (`mes "hi"`, no parens), and a standalone call/expression
// statement, per spec.md §4.3.
func (p *Parser) parseInstOrAssignStmt() (ast.Stmt, *diag.Error) {
	startTok := p.cur()
	expr, err := p.parseExpr(false)
	if err != nil {
		return nil, err
	}
	switch {
	case assignOps[p.cur().Kind]:
		op := p.advance()
		rhs, err := p.parseExpr(true)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{stmtBaseOf(startTok), expr, op.Kind, rhs}, nil
	case p.cur().Kind == token.INCR || p.cur().Kind == token.DECR:
		op := p.advance()
		return &ast.AssignStmt{stmtBaseOf(startTok), expr, op.Kind, nil}, nil
	}
	switch k := p.cur().Kind; k {
	case token.TERM, token.COLON, token.RBRACE, token.END, token.ELSE:
		if call, ok := expr.(*ast.FuncCallExpr); ok {
			return &ast.InstStmt{stmtBaseOf(startTok), call.Callee, call.Args}, nil
		}
		return &ast.InstStmt{stmtBaseOf(startTok), expr, nil}, nil
	default:
		// `expr` is the instruction name; what follows is a bare,
		// unparenthesized argument list (the source language's command
		// syntax, e.g. `mes "hi", x`).
		var args []ast.Expr
		for {
			arg, err := p.parseExpr(true)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur().Kind == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		return &ast.InstStmt{stmtBaseOf(startTok), expr, args}, nil
	}
}
