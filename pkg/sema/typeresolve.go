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

// retryKind is a private diag.Kind value used only as an internal sentinel
// meaning "this node depends on a not-yet-resolved function signature or
// variable type; retry the enclosing top-level statement next iteration".
// It never escapes ResolveTypes: every *diag.Error this package hands back
// to its caller carries one of the genuine diag.Kind values.
const retryKind diag.Kind = 100

func retry(pos token.Position) *diag.Error {
	return &diag.Error{Kind: retryKind, Position: pos}
}

func isRetry(err *diag.Error) bool {
	return err != nil && err.Kind == retryKind
}

// typeResolver walks statements and expressions bottom-up, filling in
// every Expr's Typ and rewriting the tree in place (Deref/Ref insertion,
// promotion wraps) by returning a replacement node that the caller assigns
// back into the parent slot it came from.
//
// Unlike the literal pointer-identity constraint store of spec.md §4.6,
// unresolved slots here are tracked at the granularity of a whole
// FuncSymbol's parameter/return list or a VarSymbol's declared type (see
// DESIGN.md): a node whose type cannot yet be inferred is retried as part
// of its enclosing top-level statement on the next iteration, rather than
// via a per-expression pointer-keyed constraint map. This sacrifices the
// fine-grained partial-progress-within-one-statement precision of the
// original algorithm for an implementation an order of magnitude smaller.
// No type flows from a call site back into the callee: a function
// parameter without a TypeSpec is never given a type, so that function and
// every statement calling it stay unresolved and the pass ends with the
// convergence error.
type typeResolver struct {
	hspCompat bool
	sink      *diag.Sink
}

// ResolveTypes is the Type Resolver pass. It repeatedly walks the
// translation unit's top-level statements until a full pass produces no
// retry, or no statement makes further progress, matching spec.md §4.6's
// "re-runs until no unresolved slot remains or no progress was made".
func ResolveTypes(tu *ast.TransUnit, hspCompat bool, sink *diag.Sink) *diag.Error {
	tr := &typeResolver{hspCompat: hspCompat, sink: sink}

	pending := tu.Stmts
	for {
		var next []ast.Stmt
		progressed := false
		firstRetryPos := token.NoPosition
		for _, s := range pending {
			if err := tr.resolveStmt(s, nil); err != nil {
				if isRetry(err) {
					next = append(next, s)
					if firstRetryPos == token.NoPosition {
						firstRetryPos = err.Position
					}
					continue
				}
				return err
			}
			progressed = true
		}
		if len(next) == 0 {
			break
		}
		if !progressed {
			return diag.NewSemanticsError(firstRetryPos,
				"cannot resolve the type of the expression, variable or function")
		}
		pending = next
	}

	liftImplicitGlobals(tu)
	return nil
}

// funcCtx carries the enclosing function's return-type state through a
// statement walk: Known distinguishes "the signature fully declared its
// return type" (ReturnStmt must match it) from "the return type is being
// inferred from the function's own return statements" (Inferred accumulates
// it, and every return must agree). A nil *funcCtx means "not inside a
// function body" -- a ReturnStmt there may not carry a value.
type funcCtx struct {
	RetType  types.Type
	Known    bool
	Inferred types.Type
}

func (tr *typeResolver) resolveStmt(s ast.Stmt, ctx *funcCtx) *diag.Error {
	switch v := s.(type) {
	case *ast.CompStmt:
		return tr.resolveBlock(v.Stmts, ctx)

	case *ast.VarDefStmt:
		return tr.resolveVarDef(v)

	case *ast.FuncDefStmt:
		return tr.resolveFuncDef(v)

	case *ast.ExternStmt:
		// Extern signatures are fully annotated by construction (the
		// Symbol Resolver rejects any outermost const/ref and always
		// elaborates every parameter); nothing left to infer here.
		return nil

	case *ast.NamespaceStmt:
		return tr.resolveBlock(v.Stmts, ctx)

	case *ast.RepeatStmt:
		return tr.resolveRepeat(v, ctx)

	case *ast.IfStmt:
		return tr.resolveIf(v, ctx)

	case *ast.AssignStmt:
		return tr.resolveAssign(v)

	case *ast.InstStmt:
		return tr.resolveInstStmt(v)

	case *ast.ReturnStmt:
		return tr.resolveReturn(v, ctx)

	case *ast.LabelStmt, *ast.GotoStmt, *ast.GosubStmt, *ast.ContinueStmt, *ast.BreakStmt:
		return nil
	}
	return nil
}

func (tr *typeResolver) resolveBlock(stmts []ast.Stmt, ctx *funcCtx) *diag.Error {
	for _, s := range stmts {
		if err := tr.resolveStmt(s, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (tr *typeResolver) resolveVarDef(v *ast.VarDefStmt) *diag.Error {
	if v.Init == nil {
		if declared := v.Symbol.Type(); declared != nil && types.IsRef(declared) {
			return diag.NewSemanticsError(v.Pos(), "reference should be initialized at first")
		}
		return nil
	}
	if declared := v.Symbol.Type(); declared != nil {
		resolved, err := tr.resolveExpr(v.Init, declared, false)
		if err != nil {
			return err
		}
		v.Init = resolved
		return nil
	}
	resolved, err := tr.resolveExpr(v.Init, nil, false)
	if err != nil {
		return err
	}
	v.Symbol.SetType(types.Unmodify(resolved.Type()))
	v.Init = resolved
	return nil
}

func (tr *typeResolver) resolveFuncDef(v *ast.FuncDefStmt) *diag.Error {
	if v.TypesResolved {
		return nil
	}
	params := make([]types.Type, len(v.Params))
	for i, p := range v.Params {
		t := p.Symbol.Type()
		if t == nil {
			return retry(v.Pos())
		}
		params[i] = t
	}
	known := v.Symbol.Type() != nil
	var retT types.Type
	if known {
		retT = v.Symbol.Type().(*types.Func).Return()
	}
	fctx := &funcCtx{RetType: retT, Known: known}
	if v.Body != nil {
		if err := tr.resolveBlock(v.Body.Stmts, fctx); err != nil {
			return err
		}
	}
	if !known {
		inferred := fctx.Inferred
		if inferred == nil {
			inferred = types.Void
		}
		v.Symbol.SetType(types.NewFunc(params, inferred))
	}
	v.TypesResolved = true
	return nil
}

func (tr *typeResolver) resolveRepeat(v *ast.RepeatStmt, ctx *funcCtx) *diag.Error {
	if v.Count != nil {
		resolved, err := tr.resolveExpr(v.Count, types.Int, false)
		if err != nil {
			return err
		}
		v.Count = resolved
	}
	if v.Body == nil {
		return nil
	}
	return tr.resolveBlock(v.Body.Stmts, ctx)
}

func (tr *typeResolver) resolveIf(v *ast.IfStmt, ctx *funcCtx) *diag.Error {
	for i, c := range v.Conds {
		resolved, err := tr.resolveExpr(c, types.Bool, false)
		if err != nil {
			return err
		}
		v.Conds[i] = resolved
	}
	for _, th := range v.Thens {
		if err := tr.resolveBlock(th.Stmts, ctx); err != nil {
			return err
		}
	}
	if v.Else != nil {
		return tr.resolveBlock(v.Else.Stmts, ctx)
	}
	return nil
}

// resolveAssign handles the HSP-compat implicit-global inference rule
// (an unresolved `x = 5` on the LHS of a plain `=` assigns x's type from
// the RHS) alongside ordinary assignment/compound-assignment/increment
// type checking.
func (tr *typeResolver) resolveAssign(v *ast.AssignStmt) *diag.Error {
	if id, ok := v.Lhs.(*ast.Identifier); ok {
		if vs, ok2 := id.Symbol.(*symtab.VarSymbol); ok2 && vs.Implicit && vs.Type() == nil {
			if v.Op != token.EQ || v.Rhs == nil {
				return retry(v.Pos())
			}
			rhsResolved, err := tr.resolveExpr(v.Rhs, nil, false)
			if err != nil {
				return err
			}
			vs.SetType(types.Unmodify(rhsResolved.Type()))
			v.Rhs = rhsResolved
		}
	}

	lhsResolved, err := tr.resolveAddr(v.Lhs)
	if err != nil {
		return err
	}
	if !types.IsRef(lhsResolved.Type()) {
		return diag.NewSemanticsError(v.Pos(), "non-ref LHS of assignment")
	}
	v.Lhs = lhsResolved

	if v.Op == token.INCR || v.Op == token.DECR {
		b, ok := types.Unmodify(lhsResolved.Type()).(*types.Builtin)
		if !ok || !b.IsNumeric() {
			return diag.NewSemanticsError(v.Pos(), "++/-- requires a numeric operand")
		}
		return nil
	}
	if v.Rhs == nil {
		return nil
	}

	target := types.Unmodify(lhsResolved.Type())
	rhsResolved, err := tr.resolveExpr(v.Rhs, target, false)
	if err != nil {
		return err
	}
	if v.Op != token.EQ && !(v.Op == token.PLUSEQ && target.Equal(types.StringT)) {
		if types.CanPromoteBinary(target, types.OpArith, rhsResolved.Type(), tr.hspCompat) == nil {
			return diag.NewSemanticsError(v.Pos(), "incompatible operand types for compound assignment")
		}
	}
	v.Rhs = rhsResolved
	return nil
}

func (tr *typeResolver) resolveInstStmt(v *ast.InstStmt) *diag.Error {
	calleeResolved, err := tr.resolveExpr(v.Inst, nil, false)
	if err != nil {
		return err
	}
	ft, ok := types.Unmodify(calleeResolved.Type()).(*types.Func)
	if !ok {
		return diag.NewSemanticsError(v.Pos(), "instruction callee is not a function")
	}
	args, _, err := tr.zipArgs(v.Pos(), v.Args, ft, funcDefaults(calleeResolved), false)
	if err != nil {
		return err
	}
	v.Inst = calleeResolved
	v.Args = args
	return nil
}

func (tr *typeResolver) resolveReturn(v *ast.ReturnStmt, ctx *funcCtx) *diag.Error {
	if ctx == nil {
		if v.Value != nil {
			return diag.NewSemanticsError(v.Pos(), "return at global scope may not carry a value")
		}
		return nil
	}
	if v.Value == nil {
		if ctx.Known && !ctx.RetType.Equal(types.Void) {
			return diag.NewSemanticsError(v.Pos(), "function must return a value")
		}
		return nil
	}
	if ctx.Known {
		resolved, err := tr.resolveExpr(v.Value, ctx.RetType, false)
		if err != nil {
			return err
		}
		v.Value = resolved
		return nil
	}
	resolved, err := tr.resolveExpr(v.Value, nil, false)
	if err != nil {
		return err
	}
	v.Value = resolved
	inferred := types.Unmodify(resolved.Type())
	if ctx.Inferred == nil {
		ctx.Inferred = inferred
	} else if !ctx.Inferred.Equal(inferred) {
		return diag.NewSemanticsError(v.Pos(), "inconsistent inferred return type across return statements")
	}
	return nil
}

// liftImplicitGlobals is the spec's one "cheap rewrite": every HSP-compat
// implicit global discovered during symbol resolution gets an explicit,
// synthesized VarDefStmt prepended to the translation unit, in declaration
// order, so later passes (and the code generator) never need to special-case
// an undeclared global again.
func liftImplicitGlobals(tu *ast.TransUnit) {
	var lifted []ast.Stmt
	for _, sym := range tu.Scope.Entries() {
		vs, ok := sym.(*symtab.VarSymbol)
		if !ok || !vs.Implicit {
			continue
		}
		lifted = append(lifted, &ast.VarDefStmt{
			StmtBase: ast.StmtBase{Token: token.Token{Position: token.NoPosition}},
			Name:     vs.Name(),
			Symbol:   vs,
		})
	}
	if len(lifted) == 0 {
		return
	}
	tu.Stmts = append(lifted, tu.Stmts...)
}
