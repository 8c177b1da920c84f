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

// Package sema implements the three semantic passes of spec.md §4.4-4.6:
// Symbol Register, Symbol Resolver, and Type Resolver, run in that fixed
// order by Run.
package sema

import (
	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/symtab"
	"github.com/peryaudo/peryan/pkg/types"
)

// reserved is the closed set of identifiers a user program may not declare
// (spec.md §4.4/§6).
var reserved = map[string]bool{
	"Int": true, "String": true, "Char": true, "Float": true, "Double": true,
	"Bool": true, "Void": true, "Label": true, "cnt": true,
}

// register carries the state this pass threads through the walk: whether
// HSP-compat label declarations are permitted, and the sink that receives
// the warning each permitted label declaration produces.
type register struct {
	hspCompat bool
	sink      *diag.Sink
}

// RegisterSymbols is the Symbol Register pass: it creates and attaches a
// Scope at every scope-introducing node and declares every named entity in
// the scope current at that point. It computes no types.
func RegisterSymbols(tu *ast.TransUnit, hspCompat bool, sink *diag.Sink) *diag.Error {
	r := &register{hspCompat: hspCompat, sink: sink}
	tu.Scope = symtab.NewGlobalScope()
	return r.stmts(tu.Stmts, tu.Scope)
}

func (r *register) stmts(stmts []ast.Stmt, scope symtab.Scope) *diag.Error {
	for _, s := range stmts {
		if err := r.stmt(s, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r *register) stmt(s ast.Stmt, scope symtab.Scope) *diag.Error {
	switch v := s.(type) {
	case *ast.VarDefStmt:
		if reserved[v.Name] {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is a reserved identifier and cannot be declared")
		}
		v.Symbol = symtab.NewVarSymbol(v.Name, v.Pos(), scope)
		if !scope.Define(v.Symbol) {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is already declared in this scope")
		}
		if v.Init != nil {
			return r.expr(v.Init, scope)
		}
		return nil

	case *ast.FuncDefStmt:
		if reserved[v.Name] {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is a reserved identifier and cannot be declared")
		}
		v.Symbol = symtab.NewFuncSymbol(v.Name, v.Pos(), scope)
		v.Symbol.Defaults = toIfaceSlice(v.Defaults)
		if !scope.Define(v.Symbol) {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is already declared in this scope")
		}
		for _, p := range v.Params {
			if reserved[p.Name] {
				return diag.NewSemanticsError(p.Pos(), "\""+p.Name+"\" is a reserved identifier and cannot be declared")
			}
			psym := symtab.NewVarSymbol(p.Name, p.Pos(), v.Symbol.Scope)
			p.Symbol = psym
			if !v.Symbol.Scope.Define(psym) {
				return diag.NewSemanticsError(p.Pos(), "\""+p.Name+"\" is already declared in this scope")
			}
		}
		if v.Body != nil {
			v.Body.Scope = symtab.NewLocalScope(v.Symbol.Scope)
			return r.stmts(v.Body.Stmts, v.Body.Scope)
		}
		return nil

	case *ast.ExternStmt:
		if reserved[v.Name] {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is a reserved identifier and cannot be declared")
		}
		v.Symbol = symtab.NewExternSymbol(v.Name, v.Pos(), scope)
		v.Symbol.Defaults = toIfaceSlice(v.Defaults)
		if !scope.Define(v.Symbol) {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is already declared in this scope")
		}
		return nil

	case *ast.NamespaceStmt:
		if reserved[v.Name] {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is a reserved identifier and cannot be declared")
		}
		v.Symbol = symtab.NewNamespaceSymbol(v.Name, v.Pos(), scope)
		if !scope.Define(v.Symbol) {
			return diag.NewSemanticsError(v.Pos(), "\""+v.Name+"\" is already declared in this scope")
		}
		return r.stmts(v.Stmts, v.Symbol.Scope)

	case *ast.LabelStmt:
		if !r.hspCompat {
			return diag.NewSemanticsError(v.Pos(), "labels require HSP-compatibility mode")
		}
		r.sink.Add(v.Pos(), "label declarations are an HSP-compatibility extension")
		v.Symbol = symtab.NewLabelSymbol("*"+v.Name, v.Pos(), scope)
		if !scope.Define(v.Symbol) {
			return diag.NewSemanticsError(v.Pos(), "label \""+v.Name+"\" is already declared in this scope")
		}
		return nil

	case *ast.CompStmt:
		v.Scope = symtab.NewLocalScope(scope)
		return r.stmts(v.Stmts, v.Scope)

	case *ast.RepeatStmt:
		v.Scope = symtab.NewLocalScope(scope)
		cnt := symtab.NewVarSymbol("cnt", v.Pos(), v.Scope)
		cnt.SetType(types.Int)
		v.Scope.Define(cnt)
		if v.Count != nil {
			if err := r.expr(v.Count, scope); err != nil {
				return err
			}
		}
		if v.Body != nil {
			v.Body.Scope = symtab.NewLocalScope(v.Scope)
			return r.stmts(v.Body.Stmts, v.Body.Scope)
		}
		return nil

	case *ast.IfStmt:
		for _, c := range v.Conds {
			if err := r.expr(c, scope); err != nil {
				return err
			}
		}
		for _, th := range v.Thens {
			th.Scope = symtab.NewLocalScope(scope)
			if err := r.stmts(th.Stmts, th.Scope); err != nil {
				return err
			}
		}
		if v.Else != nil {
			v.Else.Scope = symtab.NewLocalScope(scope)
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

	case *ast.GotoStmt, *ast.GosubStmt, *ast.ContinueStmt, *ast.BreakStmt:
		return nil
	}
	return nil
}

// expr recurses only to find nested FuncExpr lambdas (which introduce their
// own scope and parameter declarations); it never declares anything else.
func (r *register) expr(e ast.Expr, scope symtab.Scope) *diag.Error {
	switch v := e.(type) {
	case *ast.FuncExpr:
		ls := symtab.NewLocalScope(scope)
		v.Body.Scope = ls
		for _, p := range v.Params {
			if reserved[p.Name] {
				return diag.NewSemanticsError(p.Pos(), "\""+p.Name+"\" is a reserved identifier and cannot be declared")
			}
			psym := symtab.NewVarSymbol(p.Name, p.Pos(), ls)
			p.Symbol = psym
			if !ls.Define(psym) {
				return diag.NewSemanticsError(p.Pos(), "\""+p.Name+"\" is already declared in this scope")
			}
		}
		return r.stmts(v.Body.Stmts, ls)
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
	}
	return nil
}

func toIfaceSlice(exprs []ast.Expr) []interface{} {
	if len(exprs) == 0 {
		return nil
	}
	out := make([]interface{}, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}
