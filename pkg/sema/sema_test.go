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
	"strings"
	"testing"

	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/lexer"
	"github.com/peryaudo/peryan/pkg/parser"
	"github.com/peryaudo/peryan/pkg/source"
)

func mustRun(t *testing.T, src string, hspCompat bool) (*ast.TransUnit, *diag.Sink) {
	t.Helper()
	lex, derr := lexer.New(source.NewStringReader(src), true)
	if derr != nil {
		t.Fatalf("lexer.New: %v", derr)
	}
	tu, perr := parser.New(lex, hspCompat).Parse()
	if perr != nil {
		t.Fatalf("Parse(%q): %v", src, perr)
	}
	sink := &diag.Sink{}
	if err := Run(tu, hspCompat, sink); err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return tu, sink
}

func runExpectErr(t *testing.T, src string, hspCompat bool) *diag.Error {
	t.Helper()
	lex, derr := lexer.New(source.NewStringReader(src), true)
	if derr != nil {
		t.Fatalf("lexer.New: %v", derr)
	}
	tu, perr := parser.New(lex, hspCompat).Parse()
	if perr != nil {
		t.Fatalf("Parse(%q): %v", src, perr)
	}
	sink := &diag.Sink{}
	err := Run(tu, hspCompat, sink)
	if err == nil {
		t.Fatalf("Run(%q): expected error, got none", src)
	}
	return err
}

// E1: var x :: Int = 1 + 2 * 3 -- every expression in the initializer is
// const Int, and the nested Binary(*) is the RHS of the outer Binary(+).
func TestVarDefArithmeticIsConstInt(t *testing.T) {
	tu, _ := mustRun(t, `var x :: Int = 1 + 2 * 3`, false)
	vd := tu.Stmts[0].(*ast.VarDefStmt)
	plus, ok := vd.Init.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("initializer is %T, want *ast.BinaryExpr", vd.Init)
	}
	if plus.Type().String() != "const Int" {
		t.Errorf("outer Binary(+) type = %s, want const Int", plus.Type().String())
	}
	star, ok := plus.Rhs.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("outer Binary(+)'s RHS is %T, want *ast.BinaryExpr", plus.Rhs)
	}
	if star.Type().String() != "const Int" {
		t.Errorf("inner Binary(*) type = %s, want const Int", star.Type().String())
	}
	if plus.Lhs.Type().String() != "const Int" {
		t.Errorf("outer Binary(+)'s LHS type = %s, want const Int", plus.Lhs.Type().String())
	}
}

// E2: mes "Hello" + " World" with extern mes :: String -> Void -- the
// InstStmt's single argument is a Binary(+) of type const String.
func TestInstStmtStringConcatIsConstString(t *testing.T) {
	tu, _ := mustRun(t, "extern mes :: String -> Void\nmes \"Hello\" + \" World\"", false)
	inst := tu.Stmts[1].(*ast.InstStmt)
	bin, ok := inst.Args[0].(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("InstStmt's argument is %T, want *ast.BinaryExpr", inst.Args[0])
	}
	if bin.Type().String() != "const String" {
		t.Errorf("Binary(+) type = %s, want const String", bin.Type().String())
	}
}

// E3: func f(x) { return x * x }  var y = f(7) -- f's inferred signature
// is (Int) -> Int, x :: Int, y :: Int.
func TestFuncInferredSignature(t *testing.T) {
	tu, _ := mustRun(t, "func f(x) {\n  return x * x\n}\nvar y = f(7)", false)
	fd := tu.Stmts[0].(*ast.FuncDefStmt)
	if got := fd.Symbol.Type().String(); got != "(Int) -> Int" {
		t.Errorf("f's type = %s, want (Int) -> Int", got)
	}
	if got := fd.Params[0].Symbol.Type().String(); got != "Int" {
		t.Errorf("x's type = %s, want Int", got)
	}
	vd := tu.Stmts[1].(*ast.VarDefStmt)
	if got := vd.Symbol.Type().String(); got != "Int" {
		t.Errorf("y's type = %s, want Int", got)
	}
}

// E4: var a :: [Int] = [3,1,4,1,5]  var r = a[2] -- a :: Array(Int), the
// subscript expression is ref Int, and r :: Int.
func TestArraySubscriptIsRefElem(t *testing.T) {
	tu, _ := mustRun(t, "var a :: [Int] = [3,1,4,1,5]\nvar r = a[2]", false)
	a := tu.Stmts[0].(*ast.VarDefStmt)
	if got := a.Symbol.Type().String(); got != "[Int]" {
		t.Errorf("a's type = %s, want [Int]", got)
	}
	r := tu.Stmts[1].(*ast.VarDefStmt)
	if got := r.Symbol.Type().String(); got != "Int" {
		t.Errorf("r's type = %s, want Int", got)
	}
	// The subscript's ref-typed node was deref'd away by resolveExpr before
	// landing as r's initializer; dig it back out through the synthesized
	// DerefExpr to check the ref Int invariant held along the way.
	deref, ok := r.Init.(*ast.DerefExpr)
	if !ok {
		t.Fatalf("r's initializer is %T, want *ast.DerefExpr wrapping the subscript", r.Init)
	}
	subscr, ok := deref.Inner.(*ast.SubscrExpr)
	if !ok {
		t.Fatalf("DerefExpr's inner is %T, want *ast.SubscrExpr", deref.Inner)
	}
	if got := subscr.Type().String(); got != "ref Int" {
		t.Errorf("a[2]'s type = %s, want ref Int", got)
	}
}

// E5: a label declaration and goto require HSP-compatibility mode; outside
// it, declaring the label itself is rejected.
func TestLabelRequiresHSPCompat(t *testing.T) {
	mustRun(t, "*L\ngoto *L", true)

	err := runExpectErr(t, "*L\ngoto *L", false)
	if err.Kind != diag.Semantics {
		t.Fatalf("label decl outside HSP-compat: got Kind=%v, want Semantics", err.Kind)
	}
}

// E6: a ref-typed variable declared without an initializer is rejected
// with the exact wording spec.md gives.
func TestRefVarRequiresInitializer(t *testing.T) {
	err := runExpectErr(t, "var x :: ref Int", false)
	if !strings.Contains(err.Message, "reference should be initialized at first") {
		t.Errorf("message = %q, want it to contain %q", err.Message, "reference should be initialized at first")
	}
}

// Property 9: every read of a variable appears inside exactly one Deref;
// every assignment LHS is ref-typed.
func TestRefDerefInsertion(t *testing.T) {
	tu, _ := mustRun(t, "var x :: Int = 1\nx = x + 1", false)
	assign := tu.Stmts[1].(*ast.AssignStmt)
	if !strings.HasPrefix(assign.Lhs.Type().String(), "ref ") {
		t.Errorf("assignment LHS type = %s, want a ref-typed node", assign.Lhs.Type().String())
	}
	bin := assign.Rhs.(*ast.BinaryExpr)
	deref, ok := bin.Lhs.(*ast.DerefExpr)
	if !ok {
		t.Fatalf("RHS's x load is %T, want *ast.DerefExpr", bin.Lhs)
	}
	if _, ok := deref.Inner.(*ast.Identifier); !ok {
		t.Fatalf("DerefExpr's inner is %T, want *ast.Identifier", deref.Inner)
	}
}

// Property 10: a constructor call that converts a value to its own type
// is a no-op peephole -- String("hi") and "hi" resolve to the same shape.
func TestConstructorPeephole(t *testing.T) {
	tu, _ := mustRun(t, `var s :: String = String("hi")`, false)
	vd := tu.Stmts[0].(*ast.VarDefStmt)
	if _, ok := vd.Init.(*ast.StrLiteralExpr); !ok {
		t.Errorf("var s's initializer after resolution is %T, want it collapsed to *ast.StrLiteralExpr", vd.Init)
	}
}

// Non-ref LHS of assignment (a failure mode named explicitly in spec.md
// §4.6) is rejected: a bare length accessor produces a const (non-ref)
// Int, which cannot be assigned into at global scope.
func TestNonRefAssignmentLHSRejected(t *testing.T) {
	err := runExpectErr(t, "var s :: String = \"hi\"\ns.length = 3", false)
	if err.Kind != diag.Semantics {
		t.Fatalf("got Kind=%v, want Semantics", err.Kind)
	}
}

// Implicit-global HSP-compat assignment: the first plain `=` to an
// undeclared name infers its type from the RHS and lifts it to an
// explicit VarDefStmt at the front of the translation unit.
func TestImplicitGlobalLifted(t *testing.T) {
	tu, _ := mustRun(t, "extern mes :: Int -> Void\nx = 5\nmes x", true)
	lifted, ok := tu.Stmts[0].(*ast.VarDefStmt)
	if !ok {
		t.Fatalf("Stmts[0] is %T, want the lifted *ast.VarDefStmt for x", tu.Stmts[0])
	}
	if lifted.Name != "x" {
		t.Errorf("lifted var's name = %q, want x", lifted.Name)
	}
	if got := lifted.Symbol.Type().String(); got != "Int" {
		t.Errorf("x's inferred type = %s, want Int", got)
	}
}
