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

// Identifier is a name reference, resolved to its Symbol by the Symbol
// Resolver (spec.md invariant 3). May also carry a TypeSpec when it
// appears as a function parameter name with an inline annotation.
type Identifier struct {
	ExprBase
	Name     string
	Symbol   symtab.Symbol
	TypeSpec TypeSpec // non-nil only for annotated function parameters
}

// Label is a `*name` reference, either a goto/gosub target or (rarely) a
// value in its own right. Resolved against the "*"-prefixed name, per
// spec.md §4.5.
type Label struct {
	ExprBase
	Name   string
	Symbol *symtab.LabelSymbol
}

// BinaryExpr is a binary operator application; Op is one of the operator
// Kinds from the precedence table in spec.md §4.3.
type BinaryExpr struct {
	ExprBase
	Op       token.Kind
	Lhs, Rhs Expr
}

// UnaryExpr is `!`, unary `+`, or unary `-`.
type UnaryExpr struct {
	ExprBase
	Op  token.Kind
	Rhs Expr
}

// StrLiteralExpr is a string or here-document literal.
type StrLiteralExpr struct {
	ExprBase
	Value string
}

// IntLiteralExpr is an integer literal ($HEX, 0xHEX, 0bBIN, or decimal).
type IntLiteralExpr struct {
	ExprBase
	Value int64
}

// FloatLiteralExpr is a floating-point literal. Per spec.md §4.6, the
// lexer only ever produces FLOAT tokens that the Type Resolver wraps as
// Double -- a literal Float only ever arises via an explicit type
// annotation or constructor.
type FloatLiteralExpr struct {
	ExprBase
	Value float64
}

// CharLiteralExpr is a `'c'` literal.
type CharLiteralExpr struct {
	ExprBase
	Value rune
}

// BoolLiteralExpr is `true` or `false`.
type BoolLiteralExpr struct {
	ExprBase
	Value bool
}

// ArrayLiteralExpr is `[e1, e2, ...]`; the first element determines the
// element type, and every other element must promote to it.
type ArrayLiteralExpr struct {
	ExprBase
	Elems []Expr
}

// FuncCallExpr is `callee(args...)`. Partial marks a `partial callee(...)`
// application.
type FuncCallExpr struct {
	ExprBase
	Callee  Expr
	Args    []Expr
	Partial bool
}

// ConstructorExpr is `TypeId(args...)` or `[T](args...)`, disambiguated
// from FuncCallExpr by the parser's speculative lookahead (spec.md §4.3).
type ConstructorExpr struct {
	ExprBase
	TypeSpec TypeSpec
	Args     []Expr
}

// SubscrExpr is `recv[index]`.
type SubscrExpr struct {
	ExprBase
	Recv  Expr
	Index Expr
}

// MemberExpr is `recv.member`, used for builtin members (String.length,
// Array.length, Array.resize) and, in HSP-compat mode, rewritten to a
// SubscrExpr for any other Array member access.
type MemberExpr struct {
	ExprBase
	Recv   Expr
	Member string
}

// StaticMemberExpr is `Namespace.member`, resolved against the
// namespace's own scope with no parent fall-through.
type StaticMemberExpr struct {
	ExprBase
	NamespaceExpr Expr
	Member        *Identifier
}

// RefExpr wraps an expression to make it reference-typed; synthesized
// only by the Type Resolver's promoter, never produced by the parser.
type RefExpr struct {
	ExprBase
	Inner Expr
}

// DerefExpr wraps a reference-typed expression to load its value;
// synthesized only by the Type Resolver's promoter. Every variable load
// ends up wrapped this way (spec.md invariant 5).
type DerefExpr struct {
	ExprBase
	Inner Expr
}

// FuncExpr is a lambda: `func (params...) :: T { ... }`. Unlike
// FuncDefStmt it declares no Symbol of its own.
type FuncExpr struct {
	ExprBase
	Params     []*Identifier
	ParamTypes []TypeSpec
	ReturnType TypeSpec
	Body       *CompStmt
}
