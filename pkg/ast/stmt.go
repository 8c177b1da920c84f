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

package ast

import (
	"github.com/peryaudo/peryan/pkg/symtab"
	"github.com/peryaudo/peryan/pkg/token"
)

// CompStmt is a `{ ... }` block. It owns its LocalScope.
type CompStmt struct {
	StmtBase
	Stmts []Stmt
	Scope *symtab.LocalScope
}

// FuncDefStmt declares a named function. Params may be partially (or not
// at all) annotated with a TypeSpec. The Type Resolver infers an omitted
// return type from the body's return statements; it does not infer the
// type of an un-annotated parameter, so a function with one never
// resolves (see pkg/sema/typeresolve.go).
type FuncDefStmt struct {
	StmtBase
	Name       string
	Params     []*Identifier
	ParamTypes []TypeSpec // parallel to Params; nil entry means un-annotated
	Defaults   []Expr     // parallel to Params, trailing entries may be nil
	ReturnType TypeSpec   // nil if omitted (inferred from body)
	Body       *CompStmt
	Symbol     *symtab.FuncSymbol
	// TypesResolved marks that the Type Resolver has already finished this
	// function's body once; it guards against re-walking an already-typed
	// body on a later fixpoint iteration triggered by some other,
	// still-unresolved top-level declaration (see pkg/sema/typeresolve.go).
	TypesResolved bool
}

// VarDefStmt declares one variable, with an optional TypeSpec and/or
// initializer (spec.md §4.6 VarDefStmt four-branch case analysis).
type VarDefStmt struct {
	StmtBase
	Name     string
	TypeSpec TypeSpec // nil if omitted
	Init     Expr     // nil if omitted
	Symbol   *symtab.VarSymbol
}

// InstStmt is a bare function-call statement: `mes "hi"` rather than
// `mes("hi")`, the source language's instruction-call syntax.
type InstStmt struct {
	StmtBase
	Inst Expr // Identifier or StaticMemberExpr naming the callee
	Args []Expr
}

// AssignStmt covers `=`, `+=`, `-=`, `*=`, `/=`, `++`, `--`. Rhs is nil for
// the increment/decrement operators.
type AssignStmt struct {
	StmtBase
	Lhs Expr
	Op  token.Kind
	Rhs Expr
}

// IfStmt models the brace form and the one-line `if c : s : else : s` form
// uniformly, and folds `else if` chains into parallel Conds/Thens slices
// (see DESIGN.md for why this differs from the original AST.h, which
// carried separate elseIf fields inconsistent with its own parser).
type IfStmt struct {
	StmtBase
	Conds []Expr
	Thens []*CompStmt
	Else  *CompStmt // nil if no else branch
}

// RepeatStmt is the `repeat count { ... }` loop. It implicitly declares
// `cnt :: Int` in Scope (spec.md §4.6).
type RepeatStmt struct {
	StmtBase
	Count Expr // nil means "repeat forever"
	Body  *CompStmt
	Scope *symtab.LocalScope
}

// LabelStmt declares an HSP-compat label (`*name` at statement position).
type LabelStmt struct {
	StmtBase
	Name   string
	Symbol *symtab.LabelSymbol
}

// GotoStmt is `goto *name`.
type GotoStmt struct {
	StmtBase
	Target *Label
}

// GosubStmt is `gosub *name`.
type GosubStmt struct {
	StmtBase
	Target *Label
}

// ContinueStmt is `continue`.
type ContinueStmt struct {
	StmtBase
}

// BreakStmt is `break`.
type BreakStmt struct {
	StmtBase
}

// ReturnStmt is `return` or `return expr`; at global scope (outside any
// function) it must carry no value.
type ReturnStmt struct {
	StmtBase
	Value Expr // nil for a bare `return`
}

// ExternStmt declares a function implemented outside the translation
// unit; its outermost parameter/return types may not carry const or ref
// (spec.md §4.5).
type ExternStmt struct {
	StmtBase
	Name       string
	ParamTypes []TypeSpec
	ReturnType TypeSpec
	Defaults   []Expr
	Symbol     *symtab.ExternSymbol
}

// NamespaceStmt groups declarations under a qualified name; it owns its
// NamespaceScope, which (unlike every other scope) never falls through to
// its parent on member lookup.
type NamespaceStmt struct {
	StmtBase
	Name   string
	Stmts  []Stmt
	Symbol *symtab.NamespaceSymbol
}
