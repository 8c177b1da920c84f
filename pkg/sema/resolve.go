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
	"github.com/peryaudo/peryan/pkg/types"
)

type resolver struct {
	hspCompat bool
	sink      *diag.Sink
	global    *symtab.GlobalScope
}

// ResolveSymbols is the Symbol Resolver pass: a single walk that resolves
// every Identifier/Label reference against the scope attached by Register,
// and elaborates every parsed TypeSpec into a concrete types.Type.
func ResolveSymbols(tu *ast.TransUnit, hspCompat bool, sink *diag.Sink) *diag.Error {
	r := &resolver{hspCompat: hspCompat, sink: sink, global: tu.Scope}
	return r.stmts(tu.Stmts, tu.Scope)
}

func (r *resolver) stmts(stmts []ast.Stmt, scope symtab.Scope) *diag.Error {
	for _, s := range stmts {
		if err := r.stmt(s, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) stmt(s ast.Stmt, scope symtab.Scope) *diag.Error {
	switch v := s.(type) {
	case *ast.VarDefStmt:
		if v.TypeSpec != nil {
			t, err := r.typeSpec(v.TypeSpec, scope)
			if err != nil {
				return err
			}
			v.Symbol.SetType(t)
		}
		if v.Init != nil {
			return r.expr(v.Init, scope)
		}
		return nil

	case *ast.FuncDefStmt:
		return r.funcSignature(v.Params, v.ParamTypes, v.ReturnType, v.Symbol.Scope, false, func(t types.Type) { v.Symbol.SetType(t) },
			func() *diag.Error {
				if v.Body == nil {
					return nil
				}
				return r.stmts(v.Body.Stmts, v.Body.Scope)
			})

	case *ast.ExternStmt:
		return r.funcSignature(nil, v.ParamTypes, v.ReturnType, scope, true, func(t types.Type) { v.Symbol.SetType(t) },
			func() *diag.Error { return nil })

	case *ast.NamespaceStmt:
		return r.stmts(v.Stmts, v.Symbol.Scope)

	case *ast.CompStmt:
		return r.stmts(v.Stmts, v.Scope)

	case *ast.RepeatStmt:
		if v.Count != nil {
			if err := r.expr(v.Count, scope); err != nil {
				return err
			}
		}
		if v.Body == nil {
			return nil
		}
		return r.stmts(v.Body.Stmts, v.Body.Scope)

	case *ast.IfStmt:
		for _, c := range v.Conds {
			if err := r.expr(c, scope); err != nil {
				return err
			}
		}
		for _, th := range v.Thens {
			if err := r.stmts(th.Stmts, th.Scope); err != nil {
				return err
			}
		}
		if v.Else != nil {
			return r.stmts(v.Else.Stmts, v.Else.Scope)
		}
		return nil

	case *ast.AssignStmt:
		if err := r.expr(v.Lhs, scope); err != nil {
			return err
		}
		if v.Rhs != nil {
			return r.expr(v.Rhs, scope)
		}
		return nil

	case *ast.InstStmt:
		if err := r.expr(v.Inst, scope); err != nil {
			return err
		}
		for _, a := range v.Args {
			if err := r.expr(a, scope); err != nil {
				return err
			}
		}
		return nil

	case *ast.ReturnStmt:
		if v.Value != nil {
			return r.expr(v.Value, scope)
		}
		return nil

	case *ast.LabelStmt, *ast.ContinueStmt, *ast.BreakStmt:
		return nil

	case *ast.GotoStmt:
		sym, ok := scope.Resolve("*"+v.Target.Name, v.Pos())
		if !ok {
			return diag.NewSemanticsError(v.Pos(), "no such label \"*"+v.Target.Name+"\"")
		}
		v.Target.Symbol = sym.(*symtab.LabelSymbol)
		return nil

	case *ast.GosubStmt:
		sym, ok := scope.Resolve("*"+v.Target.Name, v.Pos())
		if !ok {
			return diag.NewSemanticsError(v.Pos(), "no such label \"*"+v.Target.Name+"\"")
		}
		v.Target.Symbol = sym.(*symtab.LabelSymbol)
		return nil
	}
	return nil
}

// funcSignature elaborates a possibly-partially-annotated parameter/return
// TypeSpec list shared by FuncDefStmt and ExternStmt: set, assigns a
// concrete types.Func only when every slot is annotated, and always
// resolves annotated parameter symbols' types before running body.
func (r *resolver) funcSignature(params []*ast.Identifier, paramTypes []ast.TypeSpec, retSpec ast.TypeSpec, bodyScope symtab.Scope,
	forbidOutermostModifier bool, setType func(types.Type), runBody func() *diag.Error) *diag.Error {
	resolved := make([]types.Type, len(paramTypes))
	complete := true
	for i, pt := range paramTypes {
		if pt == nil {
			complete = false
			continue
		}
		if forbidOutermostModifier {
			if c, rf := specConstRef(pt); c || rf {
				return diag.NewSemanticsError(pt.Pos(), "an extern parameter type may not carry const or ref")
			}
		}
		t, err := r.typeSpec(pt, bodyScope)
		if err != nil {
			return err
		}
		if isNamespaceType(t) {
			return diag.NewSemanticsError(pt.Pos(), "a namespace cannot be used as a parameter type")
		}
		resolved[i] = t
		if i < len(params) && params[i] != nil {
			params[i].Symbol.SetType(t)
		}
	}
	var retT types.Type
	if retSpec != nil {
		if forbidOutermostModifier {
			if c, rf := specConstRef(retSpec); c || rf {
				return diag.NewSemanticsError(retSpec.Pos(), "an extern return type may not carry const or ref")
			}
		}
		t, err := r.typeSpec(retSpec, bodyScope)
		if err != nil {
			return err
		}
		if isNamespaceType(t) {
			return diag.NewSemanticsError(retSpec.Pos(), "a namespace cannot be used as a return type")
		}
		retT = t
	} else {
		complete = false
	}
	if complete {
		setType(types.NewFunc(resolved, retT))
	}
	return runBody()
}

func isNamespaceType(t types.Type) bool {
	_, ok := types.Unmodify(t).(*types.Namespace)
	return ok
}

// specConstRef extracts the outer const/ref flags directly off a parsed
// TypeSpec node, used by the extern "no outermost modifier" check before
// the node is even elaborated into a types.Type.
func specConstRef(ts ast.TypeSpec) (isConst, isRef bool) {
	switch v := ts.(type) {
	case *ast.SimpleTypeSpec:
		return v.Const, v.Ref
	case *ast.ArrayTypeSpec:
		return v.Const, v.Ref
	case *ast.FuncTypeSpec:
		return v.Const, v.Ref
	case *ast.MemberTypeSpec:
		return v.Const, v.Ref
	}
	return false, false
}

func (r *resolver) expr(e ast.Expr, scope symtab.Scope) *diag.Error {
	switch v := e.(type) {
	case *ast.Identifier:
		if v.TypeSpec != nil {
			if _, err := r.typeSpec(v.TypeSpec, scope); err != nil {
				return err
			}
		}
		sym, ok := scope.Resolve(v.Name, v.Pos())
		if ok {
			v.Symbol = sym
			return nil
		}
		if r.hspCompat {
			implicit := symtab.NewVarSymbol(v.Name, v.Pos(), r.global)
			implicit.Implicit = true
			r.global.Define(implicit)
			r.sink.Add(v.Pos(), "implicit global variable \""+v.Name+"\" (HSP-compatibility mode)")
			v.Symbol = implicit
			return nil
		}
		return diag.NewSemanticsError(v.Pos(), "unknown identifier \""+v.Name+"\"")

	case *ast.Label:
		sym, ok := scope.Resolve("*"+v.Name, v.Pos())
		if !ok {
			return diag.NewSemanticsError(v.Pos(), "no such label \"*"+v.Name+"\"")
		}
		v.Symbol = sym.(*symtab.LabelSymbol)
		return nil

	case *ast.BinaryExpr:
		if err := r.expr(v.Lhs, scope); err != nil {
			return err
		}
		return r.expr(v.Rhs, scope)

	case *ast.UnaryExpr:
		return r.expr(v.Rhs, scope)

	case *ast.ArrayLiteralExpr:
		for _, el := range v.Elems {
			if err := r.expr(el, scope); err != nil {
				return err
			}
		}
		return nil

	case *ast.ConstructorExpr:
		if _, err := r.typeSpec(v.TypeSpec, scope); err != nil {
			return err
		}
		for _, a := range v.Args {
			if err := r.expr(a, scope); err != nil {
				return err
			}
		}
		return nil

	case *ast.FuncCallExpr:
		if err := r.expr(v.Callee, scope); err != nil {
			return err
		}
		for _, a := range v.Args {
			if err := r.expr(a, scope); err != nil {
				return err
			}
		}
		return nil

	case *ast.SubscrExpr:
		if err := r.expr(v.Recv, scope); err != nil {
			return err
		}
		return r.expr(v.Index, scope)

	case *ast.MemberExpr:
		return r.expr(v.Recv, scope)

	case *ast.StaticMemberExpr:
		return r.expr(v.NamespaceExpr, scope)

	case *ast.FuncExpr:
		return r.funcSignature(v.Params, v.ParamTypes, v.ReturnType, v.Body.Scope, false, func(types.Type) {}, func() *diag.Error {
			return r.stmts(v.Body.Stmts, v.Body.Scope)
		})
	}
	return nil
}

// typeSpec elaborates a parsed TypeSpec tree into a concrete types.Type,
// caching the result on the node's Resolved field (spec.md §4.5).
func (r *resolver) typeSpec(ts ast.TypeSpec, scope symtab.Scope) (types.Type, *diag.Error) {
	switch v := ts.(type) {
	case *ast.SimpleTypeSpec:
		sym, ok := scope.Resolve(v.Name, v.Pos())
		if !ok {
			return nil, diag.NewSemanticsError(v.Pos(), "unknown type \""+v.Name+"\"")
		}
		base := sym.Type()
		if base == nil {
			return nil, diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" does not name a type")
		}
		t := applyModifier(v.Const, v.Ref, base)
		v.Resolved = t
		return t, nil

	case *ast.ArrayTypeSpec:
		elem, err := r.typeSpec(v.Elem, scope)
		if err != nil {
			return nil, err
		}
		t := applyModifier(v.Const, v.Ref, &types.Array{Elem: elem})
		v.Resolved = t
		return t, nil

	case *ast.FuncTypeSpec:
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			pt, err := r.typeSpec(p, scope)
			if err != nil {
				return nil, err
			}
			params[i] = pt
		}
		ret, err := r.typeSpec(v.Ret, scope)
		if err != nil {
			return nil, err
		}
		t := applyModifier(v.Const, v.Ref, types.NewFunc(params, ret))
		v.Resolved = t
		return t, nil

	case *ast.MemberTypeSpec:
		left, err := r.typeSpec(v.Left, scope)
		if err != nil {
			return nil, err
		}
		ns, ok := types.Unmodify(left).(*types.Namespace)
		if !ok {
			return nil, diag.NewSemanticsError(v.Pos(), "the left side of \".\" must be a namespace (classes are reserved but unimplemented)")
		}
		member, ok := ns.Handle.ResolveMember(v.Member)
		if !ok {
			return nil, diag.NewSemanticsError(v.Pos(), "namespace \""+ns.Handle.Name()+"\" has no member \""+v.Member+"\"")
		}
		t := applyModifier(v.Const, v.Ref, member)
		v.Resolved = t
		return t, nil
	}
	return nil, diag.NewSemanticsError(ts.Pos(), "unresolvable type specifier")
}

func applyModifier(isConst, isRef bool, t types.Type) types.Type {
	if !isConst && !isRef {
		return t
	}
	return types.NewModifier(isConst, isRef, t)
}
