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

package parser

import (
	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/token"
)

// parseExpr is the entry point of the precedence chain (spec.md §4.3,
// low to high: ^, |, &, {= == !=}, {< <= > >=}, {<< >>}, {+ -}, {* / %},
// unary, postfix). allowTopEql threads down to the `=` tier and to the
// postfix tier (see parsePostfix): it is false while deciding between an assignment statement and an
// instruction call, true everywhere else (parenthesized subexpressions,
// RHS of assignment, call arguments).
func (p *Parser) parseExpr(allowTopEql bool) (ast.Expr, *diag.Error) {
	return p.parseXor(allowTopEql)
}

func (p *Parser) parseXor(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseBitOr(allowTopEql)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.CARET {
		op := p.advance()
		rhs, err := p.parseBitOr(allowTopEql)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
	}
	return lhs, nil
}

func (p *Parser) parseBitOr(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseBitAnd(allowTopEql)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.PIPE {
		op := p.advance()
		rhs, err := p.parseBitAnd(allowTopEql)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
	}
	return lhs, nil
}

func (p *Parser) parseBitAnd(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseEquality(allowTopEql)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.AMP {
		op := p.advance()
		rhs, err := p.parseEquality(allowTopEql)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
	}
	return lhs, nil
}

func (p *Parser) parseEquality(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseRelational(allowTopEql)
	if err != nil {
		return nil, err
	}
	for {
		k := p.cur().Kind
		if k == token.EQEQ || k == token.NEQ || (k == token.EQ && allowTopEql) {
			op := p.advance()
			rhs, err := p.parseRelational(allowTopEql)
			if err != nil {
				return nil, err
			}
			lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
			continue
		}
		return lhs, nil
	}
}

func (p *Parser) parseRelational(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseShift(allowTopEql)
	if err != nil {
		return nil, err
	}
	for {
		k := p.cur().Kind
		if k == token.LT || k == token.LE || k == token.GT || k == token.GE {
			op := p.advance()
			rhs, err := p.parseShift(allowTopEql)
			if err != nil {
				return nil, err
			}
			lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
			continue
		}
		return lhs, nil
	}
}

func (p *Parser) parseShift(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseAdd(allowTopEql)
	if err != nil {
		return nil, err
	}
	for {
		k := p.cur().Kind
		if k == token.SHL || k == token.SHR {
			op := p.advance()
			rhs, err := p.parseAdd(allowTopEql)
			if err != nil {
				return nil, err
			}
			lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
			continue
		}
		return lhs, nil
	}
}

func (p *Parser) parseAdd(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseMul(allowTopEql)
	if err != nil {
		return nil, err
	}
	for {
		k := p.cur().Kind
		if k == token.PLUS || k == token.MINUS {
			op := p.advance()
			rhs, err := p.parseMul(allowTopEql)
			if err != nil {
				return nil, err
			}
			lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
			continue
		}
		return lhs, nil
	}
}

func (p *Parser) parseMul(allowTopEql bool) (ast.Expr, *diag.Error) {
	lhs, err := p.parseUnary(allowTopEql)
	if err != nil {
		return nil, err
	}
	for {
		k := p.cur().Kind
		if k == token.STAR || k == token.SLASH || k == token.PERCENT {
			// A STAR with a trailing alphabetic character is a label
			// sigil, never multiplication (spec.md §3).
			if k == token.STAR && p.cur().HasTrailingAlphabet {
				return lhs, nil
			}
			op := p.advance()
			rhs, err := p.parseUnary(allowTopEql)
			if err != nil {
				return nil, err
			}
			lhs = &ast.BinaryExpr{exprBaseOf(op), op.Kind, lhs, rhs}
			continue
		}
		return lhs, nil
	}
}

// parseUnary handles prefix `! + -`, right-to-left associative.
func (p *Parser) parseUnary(allowTopEql bool) (ast.Expr, *diag.Error) {
	k := p.cur().Kind
	if k == token.BANG || k == token.PLUS || k == token.MINUS {
		op := p.advance()
		rhs, err := p.parseUnary(allowTopEql)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{exprBaseOf(op), op.Kind, rhs}, nil
	}
	return p.parsePostfix(allowTopEql)
}

// parsePostfix handles `[...]`, `(...)`, and `.id`, left-to-right. The
// subscript/call forms only bind when the bracket/paren carries no
// leading whitespace, unless allowTopEql is set (we are already inside a
// parenthesized/argument context where that ambiguity cannot arise).
func (p *Parser) parsePostfix(allowTopEql bool) (ast.Expr, *diag.Error) {
	recv, err := p.parsePrimary(allowTopEql)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		switch {
		case tok.Kind == token.LBRACK && (!tok.HasWSBefore || allowTopEql):
			p.advance()
			idx, err := p.parseExpr(true)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACK); err != nil {
				return nil, err
			}
			recv = &ast.SubscrExpr{exprBaseOf(tok), recv, idx}
		case tok.Kind == token.LPAREN && (!tok.HasWSBefore || allowTopEql):
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			recv = &ast.FuncCallExpr{exprBaseOf(tok), recv, args, false}
		case tok.Kind == token.DOT:
			p.advance()
			member, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			recv = &ast.MemberExpr{exprBaseOf(tok), recv, member}
		default:
			return recv, nil
		}
	}
}

// parseCallArgs parses a parenthesized, comma-separated argument list.
func (p *Parser) parseCallArgs() ([]ast.Expr, *diag.Error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.cur().Kind != token.RPAREN {
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
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary(allowTopEql bool) (ast.Expr, *diag.Error) {
	tok := p.cur()
	switch tok.Kind {
	case token.INTEGER:
		p.advance()
		return &ast.IntLiteralExpr{exprBaseOf(tok), tok.IntVal}, nil
	case token.FLOAT:
		p.advance()
		return &ast.FloatLiteralExpr{exprBaseOf(tok), tok.FloatVal}, nil
	case token.STRING:
		p.advance()
		return &ast.StrLiteralExpr{exprBaseOf(tok), tok.Text}, nil
	case token.CHAR:
		p.advance()
		return &ast.CharLiteralExpr{exprBaseOf(tok), tok.CharVal}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLiteralExpr{exprBaseOf(tok), true}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLiteralExpr{exprBaseOf(tok), false}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpr(true)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case token.STAR:
		return p.parseLabelRef()
	case token.FUNC:
		return p.parseFuncExpr()
	case token.PARTIAL:
		p.advance()
		inner, err := p.parsePostfix(allowTopEql)
		if err != nil {
			return nil, err
		}
		if call, ok := inner.(*ast.FuncCallExpr); ok {
			call.Partial = true
			return call, nil
		}
		return nil, p.errorf(tok.Position, "partial must be applied to a function call")
	case token.ID:
		p.advance()
		return &ast.Identifier{exprBaseOf(tok), tok.Text, nil, nil}, nil
	case token.TYPEID, token.LBRACK:
		return p.parseConstructorOrArrayLit(tok)
	}
	return nil, p.errorf(tok.Position, "unexpected token %s in expression", tok.Kind)
}

// parseConstructorOrArrayLit disambiguates `TypeId(args)`/`[T](args)`
// constructor calls from a plain identifier reference or an array
// literal `[e1, e2, ...]`, by speculatively parsing a TypeSpec and
// checking it is immediately followed by an unspaced `(` (spec.md §4.3's
// "speculateTypeSpec before postfix-expression parsing").
func (p *Parser) parseConstructorOrArrayLit(tok token.Token) (ast.Expr, *diag.Error) {
	p.mark()
	ts, tsErr := p.parseTypeSpec()
	if tsErr == nil && p.cur().Kind == token.LPAREN && !p.cur().HasWSBefore {
		p.commit()
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.ConstructorExpr{exprBaseOf(tok), ts, args}, nil
	}
	p.backtrack()
	//
	if tok.Kind == token.TYPEID {
		p.advance()
		return &ast.Identifier{exprBaseOf(tok), tok.Text, nil, nil}, nil
	}
	// LBRACK that didn't resolve to a constructor: an array literal.
	p.advance()
	var elems []ast.Expr
	for p.cur().Kind != token.RBRACK {
		elem, err := p.parseExpr(true)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACK); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteralExpr{exprBaseOf(tok), elems}, nil
}

func (p *Parser) parseFuncExpr() (ast.Expr, *diag.Error) {
	funcTok, _ := p.expect(token.FUNC)
	params, types, _, err := p.parseParamList()
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
	return &ast.FuncExpr{exprBaseOf(funcTok), params, types, ret, body}, nil
}

// --- TypeSpec grammar ---------------------------------------------------

// parseTypeSpec parses the full arrow-associative grammar: a comma list
// of atoms optionally followed by `-> TypeSpec` (right-associative),
// e.g. `String`, `const ref [Int]`, `Int, Int -> Int`.
func (p *Parser) parseTypeSpec() (ast.TypeSpec, *diag.Error) {
	first, err := p.parseAtomTypeSpec()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.COMMA && p.cur().Kind != token.ARROW {
		return first, nil
	}
	params := []ast.TypeSpec{first}
	for p.cur().Kind == token.COMMA {
		p.advance()
		next, err := p.parseAtomTypeSpec()
		if err != nil {
			return nil, err
		}
		params = append(params, next)
	}
	arrowTok, err := p.expect(token.ARROW)
	if err != nil {
		return nil, err
	}
	ret, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	return &ast.FuncTypeSpec{typeSpecBaseOf(arrowTok), false, false, params, ret, nil}, nil
}

func (p *Parser) parseAtomTypeSpec() (ast.TypeSpec, *diag.Error) {
	startTok := p.cur()
	var isConst, isRef bool
	for {
		switch p.cur().Kind {
		case token.CONST:
			isConst = true
			p.advance()
			continue
		case token.REF:
			isRef = true
			p.advance()
			continue
		}
		break
	}
	//
	var base ast.TypeSpec
	var err *diag.Error
	switch p.cur().Kind {
	case token.LBRACK:
		p.advance()
		elem, e := p.parseTypeSpec()
		if e != nil {
			return nil, e
		}
		if _, e := p.expect(token.RBRACK); e != nil {
			return nil, e
		}
		base = &ast.ArrayTypeSpec{typeSpecBaseOf(startTok), false, false, elem, nil}
	case token.LPAREN:
		p.advance()
		inner, e := p.parseTypeSpec()
		if e != nil {
			return nil, e
		}
		if _, e := p.expect(token.RPAREN); e != nil {
			return nil, e
		}
		base = inner
	case token.TYPEID:
		nameTok := p.advance()
		base = &ast.SimpleTypeSpec{typeSpecBaseOf(nameTok), nameTok.Text, false, false, nil}
	default:
		return nil, p.errorf(p.cur().Position, "expected a type, got %s", p.cur().Kind)
	}
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.DOT {
		dotTok := p.advance()
		member, e := p.expectIdentLike()
		if e != nil {
			return nil, e
		}
		base = &ast.MemberTypeSpec{typeSpecBaseOf(dotTok), false, false, base, member, nil}
	}
	setConstRef(base, isConst, isRef)
	return base, nil
}

// setConstRef applies parsed const/ref prefixes to whichever concrete
// TypeSpec node the atom grammar produced.
func setConstRef(ts ast.TypeSpec, isConst, isRef bool) {
	switch t := ts.(type) {
	case *ast.SimpleTypeSpec:
		t.Const, t.Ref = isConst, isRef
	case *ast.ArrayTypeSpec:
		t.Const, t.Ref = isConst, isRef
	case *ast.FuncTypeSpec:
		t.Const, t.Ref = isConst, isRef
	case *ast.MemberTypeSpec:
		t.Const, t.Ref = isConst, isRef
	}
}

// typeSpecBaseOf builds the exported embeddable TypeSpec base, exposed
// for the same reason as stmtBaseOf/exprBaseOf.
func typeSpecBaseOf(tok token.Token) ast.TypeSpecBase { return ast.TypeSpecBase{Token: tok} }
