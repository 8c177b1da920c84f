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

// Package ast defines the tagged tree of statements, expressions, and type
// specifiers produced by the parser (spec.md §3/§4.3). Each node carries a
// token Position for diagnostics. Passes dispatch on concrete node type via
// ordinary Go type switches rather than a virtual-dispatch visitor, per
// the "Visitor over inheritance" design note in spec.md §9.
package ast

import (
	"github.com/peryaudo/peryan/pkg/symtab"
	"github.com/peryaudo/peryan/pkg/token"
	"github.com/peryaudo/peryan/pkg/types"
)

// Node is implemented by every AST node; Pos anchors it to the source
// text for diagnostics.
type Node interface {
	Pos() token.Position
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node. Every expression carries a
// back-reference to its resolved type, nil until the Type Resolver fills
// it in (spec.md invariant 1/2).
type Expr interface {
	Node
	exprNode()
	Type() types.Type
	SetType(types.Type)
}

// TypeSpec is implemented by every parsed type-specifier node (as opposed
// to types.Type, which is the resolved type it elaborates into).
type TypeSpec interface {
	Node
	typeSpecNode()
}

// ExprBase factors out the token and resolved-type back-reference shared
// by every Expr. It is exported (rather than the usual unexported-base
// convention) purely so that pkg/parser, which lives outside this
// package, can populate it in a composite literal -- Go forbids setting
// an unexported field of another package's struct even positionally.
type ExprBase struct {
	Token token.Token
	Typ   types.Type
}

func (e *ExprBase) Pos() token.Position  { return e.Token.Position }
func (e *ExprBase) exprNode()            {}
func (e *ExprBase) Type() types.Type     { return e.Typ }
func (e *ExprBase) SetType(t types.Type) { e.Typ = t }

// StmtBase factors out the token every Stmt carries; exported for the
// same reason as ExprBase.
type StmtBase struct {
	Token token.Token
}

func (s *StmtBase) Pos() token.Position { return s.Token.Position }
func (s *StmtBase) stmtNode()           {}

// TypeSpecBase factors out the token every TypeSpec carries; exported
// for the same reason as ExprBase.
type TypeSpecBase struct {
	Token token.Token
}

func (t *TypeSpecBase) Pos() token.Position { return t.Token.Position }
func (t *TypeSpecBase) typeSpecNode()       {}

// TransUnit is the root of the tree: the whole translation unit after
// source concatenation and import resolution. It owns the global scope.
type TransUnit struct {
	StmtBase
	Stmts []Stmt
	Scope *symtab.GlobalScope
}
