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

package sema

import (
	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/symtab"
	"github.com/peryaudo/peryan/pkg/token"
	"github.com/peryaudo/peryan/pkg/types"
)

// constOf returns the const-wrapped form of a builtin type, the type every
// literal expression carries (spec.md §4.6 "Specific node rules").
func constOf(b types.Type) types.Type {
	return types.NewModifier(true, false, b)
}

// resolveExpr is the entry point for every "value" position: a variable
// load is immediately wrapped in a Deref (spec.md §4.6: "Identifier loads
// synthesize a ref Modifier on the result... VarDef/Assign insert a Deref
// when the sink type is non-ref"), then the result is promoted against
// expected. resolveAddr is the narrower entry point for the handful of
// "address" positions (an assignment LHS, a subscript receiver) that need
// the raw ref-typed node instead.
//
// If e.Type() is already set (a previous fixpoint iteration got this far
// before some sibling forced a retry), resolveRaw skips straight back to
// the caller: re-walking an already-typed subtree would double-apply any
// wrap insertPromoter already made, and the node stored back into its
// parent slot on a prior pass already reflects any deref/promotion that
// belongs there.
func (tr *typeResolver) resolveExpr(e ast.Expr, expected types.Type, isFuncParam bool) (ast.Expr, *diag.Error) {
	resolved, err := tr.resolveRaw(e)
	if err != nil {
		return nil, err
	}
	resolved = tr.derefed(resolved)
	return tr.promote(resolved, expected, isFuncParam)
}

// resolveAddr resolves e without forcing a Deref, for positions that need
// the address (ref-typed) form: an assignment LHS, or a subscript/member
// receiver that finishSubscr may itself need to ref-wrap.
func (tr *typeResolver) resolveAddr(e ast.Expr) (ast.Expr, *diag.Error) {
	return tr.resolveRaw(e)
}

func (tr *typeResolver) resolveRaw(e ast.Expr) (ast.Expr, *diag.Error) {
	if e.Type() != nil {
		return e, nil
	}
	return tr.resolveExprOnce(e)
}

// derefed strips a ref Modifier off an already-typed expression by
// inserting a DerefExpr, the "every read of a variable appears inside
// exactly one Deref" invariant (spec.md §8 property 9). A no-op for
// anything that isn't ref-typed.
func (tr *typeResolver) derefed(e ast.Expr) ast.Expr {
	if !types.IsRef(e.Type()) {
		return e
	}
	return tr.insertPromoter(e, types.Unmodify(e.Type()))
}

// resolveExprOnce computes e's natural (un-promoted) type the first time it
// is visited. Composite nodes resolve their own children through
// resolveExpr (with whatever expected type applies to that child slot), so
// only the outermost promotion against the caller's expected type is left
// to the wrapper above.
func (tr *typeResolver) resolveExprOnce(e ast.Expr) (ast.Expr, *diag.Error) {
	switch v := e.(type) {
	case *ast.Identifier:
		symT := v.Symbol.Type()
		if symT == nil {
			return nil, retry(v.Pos())
		}
		if _, isVar := v.Symbol.(*symtab.VarSymbol); isVar {
			// Every variable load is an lvalue reference; the caller (via
			// resolveExpr) derefs it back to a value unless it's an
			// address position that called resolveAddr directly.
			v.SetType(types.NewModifier(false, true, symT))
		} else {
			v.SetType(symT)
		}
		return v, nil

	case *ast.Label:
		v.SetType(types.LabelType)
		return v, nil

	case *ast.IntLiteralExpr:
		v.SetType(constOf(types.Int))
		return v, nil

	case *ast.StrLiteralExpr:
		v.SetType(constOf(types.StringT))
		return v, nil

	case *ast.CharLiteralExpr:
		v.SetType(constOf(types.Char))
		return v, nil

	case *ast.BoolLiteralExpr:
		v.SetType(constOf(types.Bool))
		return v, nil

	case *ast.FloatLiteralExpr:
		// The lexer only ever produces untyped float literals; absent an
		// explicit Float annotation or constructor wrap, they default to
		// Double (spec.md §4.6).
		v.SetType(constOf(types.Double))
		return v, nil

	case *ast.ArrayLiteralExpr:
		return tr.resolveArrayLiteral(v)

	case *ast.BinaryExpr:
		return tr.resolveBinary(v)

	case *ast.UnaryExpr:
		return tr.resolveUnary(v)

	case *ast.FuncCallExpr:
		return tr.resolveFuncCall(v)

	case *ast.ConstructorExpr:
		return tr.resolveConstructor(v)

	case *ast.SubscrExpr:
		recv, err := tr.resolveAddr(v.Recv)
		if err != nil {
			return nil, err
		}
		idx, err := tr.resolveExpr(v.Index, nil, false)
		if err != nil {
			return nil, err
		}
		return tr.finishSubscr(v.Pos(), recv, idx)

	case *ast.MemberExpr:
		return tr.resolveMemberExpr(v)

	case *ast.StaticMemberExpr:
		return tr.resolveStaticMember(v)

	case *ast.FuncExpr:
		return tr.resolveFuncExpr(v)

	case *ast.RefExpr, *ast.DerefExpr:
		// Only ever synthesized by insertPromoter, already typed; reaching
		// resolveExprOnce on one of these would mean a promoter wrap was
		// handed back into resolution, which never happens.
		return e, nil
	}
	return nil, diag.NewSemanticsError(e.Pos(), "unresolvable expression")
}

func (tr *typeResolver) resolveArrayLiteral(v *ast.ArrayLiteralExpr) (ast.Expr, *diag.Error) {
	if len(v.Elems) == 0 {
		return nil, diag.NewSemanticsError(v.Pos(), "array literal must have at least one element")
	}
	first, err := tr.resolveExpr(v.Elems[0], nil, false)
	if err != nil {
		return nil, err
	}
	elemT := types.Unmodify(first.Type())
	elems := make([]ast.Expr, len(v.Elems))
	elems[0] = first
	for i := 1; i < len(v.Elems); i++ {
		el, err := tr.resolveExpr(v.Elems[i], elemT, false)
		if err != nil {
			return nil, err
		}
		elems[i] = el
	}
	v.Elems = elems
	v.SetType(constOf(&types.Array{Elem: elemT}))
	return v, nil
}

func (tr *typeResolver) resolveBinary(v *ast.BinaryExpr) (ast.Expr, *diag.Error) {
	lhs, err := tr.resolveExpr(v.Lhs, nil, false)
	if err != nil {
		return nil, err
	}
	rhs, err := tr.resolveExpr(v.Rhs, nil, false)
	if err != nil {
		return nil, err
	}
	// group's type is the unexported types.binaryOp; it can only be named
	// via type inference from one of the exported Op* constants, so the
	// dispatch lives here rather than in a helper with an explicit
	// signature.
	group := types.OpArith
	switch v.Op {
	case token.CARET, token.PIPE, token.AMP:
		group = types.OpBitwise
	case token.EQ, token.EQEQ, token.NEQ:
		group = types.OpEquality
	case token.LT, token.LE, token.GT, token.GE:
		group = types.OpRelation
	case token.SHL, token.SHR:
		group = types.OpShift
	case token.PLUS, token.MINUS, token.STAR, token.SLASH:
		group = types.OpArith
	case token.PERCENT:
		group = types.OpMod
	default:
		return nil, diag.NewSemanticsError(v.Pos(), "unsupported binary operator")
	}
	result := types.CanPromoteBinary(lhs.Type(), group, rhs.Type(), tr.hspCompat)
	if result == nil {
		return nil, diag.NewSemanticsError(v.Pos(), "incompatible operand types for \""+v.Op.String()+"\"")
	}
	// Equality/relational operators compare their (already-resolved)
	// operands as-is and produce Bool; every other group promotes both
	// sides to the table's operand type before the result is computed
	// (spec.md §4.6: "both sides are promoted to the operand type").
	if group != types.OpEquality && group != types.OpRelation {
		lhs, err = tr.promote(lhs, result, false)
		if err != nil {
			return nil, err
		}
		rhs, err = tr.promote(rhs, result, false)
		if err != nil {
			return nil, err
		}
	}
	v.Lhs, v.Rhs = lhs, rhs
	v.SetType(constOf(result))
	return v, nil
}

func (tr *typeResolver) resolveUnary(v *ast.UnaryExpr) (ast.Expr, *diag.Error) {
	rhs, err := tr.resolveExpr(v.Rhs, nil, false)
	if err != nil {
		return nil, err
	}
	b, ok := types.Unmodify(rhs.Type()).(*types.Builtin)
	if !ok {
		return nil, diag.NewSemanticsError(v.Pos(), "unary operator requires a builtin operand")
	}
	var resultT types.Type
	switch v.Op {
	case token.BANG:
		if b.Name != "Bool" {
			return nil, diag.NewSemanticsError(v.Pos(), "\"!\" requires a Bool operand")
		}
		resultT = types.Bool
	case token.PLUS, token.MINUS:
		if !b.IsNumeric() {
			return nil, diag.NewSemanticsError(v.Pos(), "unary +/- requires a numeric operand")
		}
		resultT = b
	default:
		return nil, diag.NewSemanticsError(v.Pos(), "unsupported unary operator")
	}
	v.Rhs = rhs
	v.SetType(constOf(resultT))
	return v, nil
}

// funcDefaults extracts the default-argument list owned by the symbol e
// ultimately names, if any (only plain Identifier callees -- FuncSymbol and
// ExternSymbol -- carry defaults; lambdas and member functions never do).
func funcDefaults(e ast.Expr) []interface{} {
	id, ok := e.(*ast.Identifier)
	if !ok {
		return nil
	}
	switch sym := id.Symbol.(type) {
	case *symtab.FuncSymbol:
		return sym.Defaults
	case *symtab.ExternSymbol:
		return sym.Defaults
	}
	return nil
}

// zipArgs resolves and promotes args against ft's parameter list, filling
// any missing trailing parameters from defaults (boxed ast.Expr values set
// by the Symbol Register pass). A partial call consumes only the given
// prefix of ft's parameters and returns the remainder as a curried
// types.Func rather than ft's own return type.
func (tr *typeResolver) zipArgs(pos token.Position, args []ast.Expr, ft *types.Func, defaults []interface{}, partial bool) ([]ast.Expr, types.Type, *diag.Error) {
	params := ft.Params()
	if len(args) > len(params) {
		return nil, nil, diag.NewSemanticsError(pos, "too many arguments")
	}
	resolved := make([]ast.Expr, 0, len(params))
	for i, a := range args {
		r, err := tr.resolveExpr(a, nil, true)
		if err != nil {
			return nil, nil, err
		}
		p, err := tr.promote(r, params[i], true)
		if err != nil {
			return nil, nil, err
		}
		resolved = append(resolved, p)
	}
	if partial {
		remainder := types.NewFunc(params[len(args):], ft.Return())
		return resolved, remainder, nil
	}
	for i := len(args); i < len(params); i++ {
		var def ast.Expr
		if i < len(defaults) {
			def, _ = defaults[i].(ast.Expr)
		}
		if def == nil {
			return nil, nil, diag.NewSemanticsError(pos, "missing argument and no default value")
		}
		dr, err := tr.resolveExpr(def, nil, true)
		if err != nil {
			return nil, nil, err
		}
		dp, err := tr.promote(dr, params[i], true)
		if err != nil {
			return nil, nil, err
		}
		resolved = append(resolved, dp)
	}
	return resolved, ft.Return(), nil
}

func (tr *typeResolver) resolveFuncCall(v *ast.FuncCallExpr) (ast.Expr, *diag.Error) {
	// Array.member(...) is ordinary member access (length, resize) unless
	// member is neither -- then, in HSP-compat mode, `a.foo(i)` rewrites to
	// `a[i]` (spec.md §4.6's subscript-rewrite peephole), which only this
	// call site can detect since it needs the call's single argument.
	if me, ok := v.Callee.(*ast.MemberExpr); ok && me.Type() == nil {
		recv, err := tr.resolveAddr(me.Recv)
		if err != nil {
			return nil, err
		}
		if _, isArr := types.Unmodify(recv.Type()).(*types.Array); isArr && me.Member != "length" && me.Member != "resize" {
			if !tr.hspCompat {
				return nil, diag.NewSemanticsError(v.Pos(), "array has no member \""+me.Member+"\"")
			}
			if len(v.Args) != 1 {
				return nil, diag.NewSemanticsError(v.Pos(), "array subscript rewrite takes exactly one argument")
			}
			idx, err := tr.resolveExpr(v.Args[0], nil, false)
			if err != nil {
				return nil, err
			}
			return tr.finishSubscr(v.Pos(), recv, idx)
		}
		me.Recv = tr.derefed(recv)
	}

	calleeResolved, err := tr.resolveExpr(v.Callee, nil, false)
	if err != nil {
		return nil, err
	}
	ft, ok := types.Unmodify(calleeResolved.Type()).(*types.Func)
	if !ok {
		return nil, diag.NewSemanticsError(v.Pos(), "callee is not a function")
	}
	args, retT, err := tr.zipArgs(v.Pos(), v.Args, ft, funcDefaults(calleeResolved), v.Partial)
	if err != nil {
		return nil, err
	}
	v.Callee = calleeResolved
	v.Args = args
	v.SetType(retT)
	return v, nil
}

// specResolved reads the types.Type a TypeSpec node elaborated to during
// the Symbol Resolver pass off its own Resolved field (TypeSpec has no
// generic accessor since the four concrete kinds don't share a base beyond
// TypeSpecBase's token/position).
func specResolved(ts ast.TypeSpec) types.Type {
	switch v := ts.(type) {
	case *ast.SimpleTypeSpec:
		return v.Resolved
	case *ast.ArrayTypeSpec:
		return v.Resolved
	case *ast.FuncTypeSpec:
		return v.Resolved
	case *ast.MemberTypeSpec:
		return v.Resolved
	}
	return nil
}

func (tr *typeResolver) resolveConstructor(v *ast.ConstructorExpr) (ast.Expr, *diag.Error) {
	targetT := specResolved(v.TypeSpec)
	if targetT == nil {
		return nil, retry(v.Pos())
	}
	targetU := types.Unmodify(targetT)

	if arr, ok := targetU.(*types.Array); ok {
		if len(v.Args) < 1 || len(v.Args) > 2 {
			return nil, diag.NewSemanticsError(v.Pos(), "array constructor takes 1 or 2 arguments")
		}
		n, err := tr.resolveExpr(v.Args[0], types.Int, false)
		if err != nil {
			return nil, err
		}
		args := []ast.Expr{n}
		if len(v.Args) == 2 {
			init, err := tr.resolveExpr(v.Args[1], arr.Elem, false)
			if err != nil {
				return nil, err
			}
			args = append(args, init)
		}
		v.Args = args
		v.SetType(targetT)
		return v, nil
	}

	if _, ok := targetU.(*types.Builtin); ok {
		if len(v.Args) != 1 {
			return nil, diag.NewSemanticsError(v.Pos(), "type conversion takes exactly one argument")
		}
		argResolved, err := tr.resolveExpr(v.Args[0], nil, false)
		if err != nil {
			return nil, err
		}
		// T(x:T) is a redundant wrap: the argument itself replaces the
		// constructor node, and the caller's promotion adjusts modifiers.
		if types.Unmodify(argResolved.Type()).Equal(targetU) {
			return argResolved, nil
		}
		// T(x:U) goes through the same promote/insertPromoter machinery
		// that handles ordinary implicit promotion, producing a genuine
		// conversion the same way a promotable argument slot would.
		promoted, perr := tr.promote(argResolved, targetU, false)
		if perr != nil {
			promoted = tr.insertPromoter(argResolved, targetU)
		}
		v.Args = []ast.Expr{promoted}
		v.SetType(targetT)
		return v, nil
	}

	return nil, diag.NewSemanticsError(v.Pos(), "not a constructible type")
}

// finishSubscr builds (or rewrites into) a typed SubscrExpr over an
// already-resolved array receiver and index, ref-wrapping the receiver
// first if it isn't already ref (spec.md §4.6: subscripting always needs an
// addressable array). Shared by the plain SubscrExpr case and the
// FuncCallExpr Array-member rewrite.
func (tr *typeResolver) finishSubscr(pos token.Position, recv, index ast.Expr) (ast.Expr, *diag.Error) {
	arr, ok := types.Unmodify(recv.Type()).(*types.Array)
	if !ok {
		return nil, diag.NewSemanticsError(pos, "subscript receiver is not an array")
	}
	if !types.IsRef(recv.Type()) {
		recv = tr.insertPromoter(recv, types.NewModifier(types.IsConst(recv.Type()), true, types.Unmodify(recv.Type())))
	}
	idx, err := tr.promote(index, types.Int, false)
	if err != nil {
		return nil, err
	}
	result := &ast.SubscrExpr{
		ExprBase: ast.ExprBase{Token: token.Token{Position: pos}, Typ: types.NewModifier(false, true, arr.Elem)},
		Recv:     recv,
		Index:    idx,
	}
	return result, nil
}

func (tr *typeResolver) resolveMemberExpr(v *ast.MemberExpr) (ast.Expr, *diag.Error) {
	recv, err := tr.resolveExpr(v.Recv, nil, false)
	if err != nil {
		return nil, err
	}
	v.Recv = recv
	switch b := types.Unmodify(recv.Type()).(type) {
	case *types.Builtin:
		if b.Name == "String" && v.Member == "length" {
			v.SetType(types.NewModifier(true, false, types.Int))
			return v, nil
		}
	case *types.Array:
		switch v.Member {
		case "length":
			v.SetType(types.NewModifier(true, true, types.Int))
			return v, nil
		case "resize":
			v.SetType(types.NewFunc([]types.Type{types.Int}, types.Void))
			return v, nil
		}
	}
	return nil, diag.NewSemanticsError(v.Pos(), "no such member \""+v.Member+"\"")
}

func (tr *typeResolver) resolveStaticMember(v *ast.StaticMemberExpr) (ast.Expr, *diag.Error) {
	nsResolved, err := tr.resolveExpr(v.NamespaceExpr, nil, false)
	if err != nil {
		return nil, err
	}
	v.NamespaceExpr = nsResolved
	ns, ok := types.Unmodify(nsResolved.Type()).(*types.Namespace)
	if !ok {
		return nil, diag.NewSemanticsError(v.Pos(), "the left side of \".\" must be a namespace")
	}
	member, ok := ns.Handle.ResolveMember(v.Member.Name)
	if !ok {
		return nil, diag.NewSemanticsError(v.Pos(), "namespace \""+ns.Handle.Name()+"\" has no member \""+v.Member.Name+"\"")
	}
	v.Member.SetType(member)
	v.SetType(member)
	return v, nil
}

func (tr *typeResolver) resolveFuncExpr(v *ast.FuncExpr) (ast.Expr, *diag.Error) {
	params := make([]types.Type, len(v.Params))
	for i, p := range v.Params {
		t := p.Symbol.Type()
		if t == nil {
			return nil, retry(v.Pos())
		}
		params[i] = t
	}
	var known bool
	var retT types.Type
	if v.ReturnType != nil {
		retT = specResolved(v.ReturnType)
		if retT == nil {
			return nil, retry(v.Pos())
		}
		known = true
	}
	fctx := &funcCtx{RetType: retT, Known: known}
	if err := tr.resolveBlock(v.Body.Stmts, fctx); err != nil {
		return nil, err
	}
	if !known {
		retT = fctx.Inferred
		if retT == nil {
			retT = types.Void
		}
	}
	v.SetType(types.NewFunc(params, retT))
	return v, nil
}

// promote reconciles e's already-resolved type against expected, inserting
// a wrap via insertPromoter when a genuine conversion or ref/deref bridge
// is needed, and emitting the HSP-compat widening warning CanPromote
// surfaces. expected == nil means "no particular type is required here":
// common for a bare statement-position call or the Recv/Callee slot of a
// composite expression, where the composite's own logic decides what to do
// with whatever type comes back.
func (tr *typeResolver) promote(e ast.Expr, expected types.Type, isFuncParam bool) (ast.Expr, *diag.Error) {
	if expected == nil || e.Type().Equal(expected) {
		return e, nil
	}
	ok, warn := types.CanPromote(e.Type(), expected, tr.hspCompat, isFuncParam)
	if !ok {
		return nil, diag.NewSemanticsError(e.Pos(), "cannot promote "+e.Type().String()+" to "+expected.String())
	}
	if warn != "" {
		tr.sink.Add(e.Pos(), warn)
	}
	return tr.insertPromoter(e, expected), nil
}

// insertPromoter synthesizes the wrapper nodes that carry e's value from
// its own type to toType: a ConstructorExpr when the unmodified types
// differ structurally, then a RefExpr or DerefExpr when the two sides
// disagree on ref-ness. Mirrors the original TypeResolver::insertPromoter;
// never itself reports an error, since promote has already established the
// conversion is legal.
func (tr *typeResolver) insertPromoter(e ast.Expr, toType types.Type) ast.Expr {
	fromU, toU := types.Unmodify(e.Type()), types.Unmodify(toType)
	result := e
	if !fromU.Equal(toU) {
		result = &ast.ConstructorExpr{
			ExprBase: ast.ExprBase{Token: token.Token{Position: e.Pos()}, Typ: toU},
			Args:     []ast.Expr{result},
		}
	}
	fromRef, toRef := types.IsRef(e.Type()), types.IsRef(toType)
	switch {
	case toRef && !fromRef:
		result = &ast.RefExpr{ExprBase: ast.ExprBase{Token: token.Token{Position: e.Pos()}, Typ: toType}, Inner: result}
	case !toRef && fromRef:
		result = &ast.DerefExpr{ExprBase: ast.ExprBase{Token: token.Token{Position: e.Pos()}, Typ: toU}, Inner: result}
	}
	return result
}
