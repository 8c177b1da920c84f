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
	"fmt"
	"testing"

	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/lexer"
	"github.com/peryaudo/peryan/pkg/source"
)

func mustParse(t *testing.T, src string) *ast.TransUnit {
	t.Helper()
	lex, derr := lexer.New(source.NewStringReader(src), true)
	if derr != nil {
		t.Fatalf("lexer.New: %v", derr)
	}
	tu, perr := New(lex, true).Parse()
	if perr != nil {
		t.Fatalf("Parse(%q): %v", src, perr)
	}
	return tu
}

// dumpExpr renders a pointer-address-free structural summary of e, used
// to compare two independently-parsed trees for equality (spec.md §8
// property #4, "parser determinism").
func dumpExpr(e ast.Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch v := e.(type) {
	case *ast.BinaryExpr:
		return fmt.Sprintf("Binary(%s %s %s)", v.Op, dumpExpr(v.Lhs), dumpExpr(v.Rhs))
	case *ast.UnaryExpr:
		return fmt.Sprintf("Unary(%s %s)", v.Op, dumpExpr(v.Rhs))
	case *ast.IntLiteralExpr:
		return fmt.Sprintf("Int(%d)", v.Value)
	case *ast.FloatLiteralExpr:
		return fmt.Sprintf("Float(%v)", v.Value)
	case *ast.StrLiteralExpr:
		return fmt.Sprintf("Str(%q)", v.Value)
	case *ast.BoolLiteralExpr:
		return fmt.Sprintf("Bool(%v)", v.Value)
	case *ast.Identifier:
		return fmt.Sprintf("Id(%s)", v.Name)
	case *ast.ArrayLiteralExpr:
		s := "ArrayLit("
		for i, el := range v.Elems {
			if i > 0 {
				s += ","
			}
			s += dumpExpr(el)
		}
		return s + ")"
	case *ast.ConstructorExpr:
		s := "Ctor("
		for i, a := range v.Args {
			if i > 0 {
				s += ","
			}
			s += dumpExpr(a)
		}
		return s + ")"
	case *ast.FuncCallExpr:
		s := fmt.Sprintf("Call(%s", dumpExpr(v.Callee))
		for _, a := range v.Args {
			s += "," + dumpExpr(a)
		}
		return s + ")"
	case *ast.SubscrExpr:
		return fmt.Sprintf("Subscr(%s,%s)", dumpExpr(v.Recv), dumpExpr(v.Index))
	case *ast.MemberExpr:
		return fmt.Sprintf("Member(%s.%s)", dumpExpr(v.Recv), v.Member)
	case *ast.Label:
		return fmt.Sprintf("Label(*%s)", v.Name)
	}
	return fmt.Sprintf("%T", e)
}

func dumpStmt(s ast.Stmt) string {
	switch v := s.(type) {
	case *ast.VarDefStmt:
		return fmt.Sprintf("VarDef(%s=%s)", v.Name, dumpExpr(v.Init))
	case *ast.AssignStmt:
		return fmt.Sprintf("Assign(%s %s %s)", dumpExpr(v.Lhs), v.Op, dumpExpr(v.Rhs))
	case *ast.InstStmt:
		s := fmt.Sprintf("Inst(%s", dumpExpr(v.Inst))
		for _, a := range v.Args {
			s += "," + dumpExpr(a)
		}
		return s + ")"
	case *ast.IfStmt:
		s := "If("
		for i, c := range v.Conds {
			if i > 0 {
				s += ";"
			}
			s += dumpExpr(c) + "=>" + dumpBlock(v.Thens[i])
		}
		if v.Else != nil {
			s += ";else=>" + dumpBlock(v.Else)
		}
		return s + ")"
	case *ast.LabelStmt:
		return fmt.Sprintf("LabelDecl(*%s)", v.Name)
	case *ast.GotoStmt:
		return fmt.Sprintf("Goto(*%s)", v.Target.Name)
	case *ast.GosubStmt:
		return fmt.Sprintf("Gosub(*%s)", v.Target.Name)
	case *ast.ReturnStmt:
		return fmt.Sprintf("Return(%s)", dumpExpr(v.Value))
	}
	return fmt.Sprintf("%T", s)
}

func dumpBlock(c *ast.CompStmt) string {
	s := "{"
	for i, st := range c.Stmts {
		if i > 0 {
			s += ";"
		}
		s += dumpStmt(st)
	}
	return s + "}"
}

func dumpTransUnit(tu *ast.TransUnit) string {
	s := ""
	for i, st := range tu.Stmts {
		if i > 0 {
			s += "\n"
		}
		s += dumpStmt(st)
	}
	return s
}

func TestOperatorPrecedence(t *testing.T) {
	tu := mustParse(t, "var x :: Int = 1 + 2 * 3")
	got := dumpTransUnit(tu)
	want := "VarDef(x=Binary(+ Int(1) Binary(* Int(2) Int(3))))"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParserDeterminism(t *testing.T) {
	const src = `func f(x) { return x * x }
var y = f(7)
var a :: [Int] = [3,1,4,1,5]
var r = a[2]`
	first := dumpTransUnit(mustParse(t, src))
	second := dumpTransUnit(mustParse(t, src))
	if first != second {
		t.Errorf("two parses of the same input diverged:\n%s\n%s", first, second)
	}
}

func TestConstructorVsArrayLiteral(t *testing.T) {
	tu := mustParse(t, "var a = [Int](5)\nvar b = [1,2,3]")
	va := tu.Stmts[0].(*ast.VarDefStmt)
	if _, ok := va.Init.(*ast.ConstructorExpr); !ok {
		t.Errorf("[Int](5): got %T, want *ast.ConstructorExpr", va.Init)
	}
	vb := tu.Stmts[1].(*ast.VarDefStmt)
	if _, ok := vb.Init.(*ast.ArrayLiteralExpr); !ok {
		t.Errorf("[1,2,3]: got %T, want *ast.ArrayLiteralExpr", vb.Init)
	}
}

func TestInstructionCallSyntax(t *testing.T) {
	tu := mustParse(t, `mes "hi", 1`)
	inst, ok := tu.Stmts[0].(*ast.InstStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.InstStmt", tu.Stmts[0])
	}
	if len(inst.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(inst.Args))
	}
}

func TestIfElseIfChain(t *testing.T) {
	tu := mustParse(t, `if a { x } else if b { y } else { z }`)
	ifs, ok := tu.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.IfStmt", tu.Stmts[0])
	}
	if len(ifs.Conds) != 2 {
		t.Fatalf("got %d conds, want 2 (one per if/else-if)", len(ifs.Conds))
	}
	if ifs.Else == nil {
		t.Fatalf("expected a non-nil Else branch")
	}
}

func TestLabelDeclAndGoto(t *testing.T) {
	tu := mustParse(t, "*L\ngoto *L")
	label, ok := tu.Stmts[0].(*ast.LabelStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LabelStmt", tu.Stmts[0])
	}
	if label.Name != "L" {
		t.Errorf("got label name %q, want %q", label.Name, "L")
	}
	g, ok := tu.Stmts[1].(*ast.GotoStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.GotoStmt", tu.Stmts[1])
	}
	if g.Target.Name != "L" {
		t.Errorf("got goto target %q, want %q", g.Target.Name, "L")
	}
}

func TestExternFuncTypeSpec(t *testing.T) {
	tu := mustParse(t, `extern mes :: String -> Void`)
	ext, ok := tu.Stmts[0].(*ast.ExternStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ExternStmt", tu.Stmts[0])
	}
	if len(ext.ParamTypes) != 1 {
		t.Fatalf("got %d param types, want 1", len(ext.ParamTypes))
	}
	pt, ok := ext.ParamTypes[0].(*ast.SimpleTypeSpec)
	if !ok || pt.Name != "String" {
		t.Errorf("got param type %#v, want SimpleTypeSpec(String)", ext.ParamTypes[0])
	}
	rt, ok := ext.ReturnType.(*ast.SimpleTypeSpec)
	if !ok || rt.Name != "Void" {
		t.Errorf("got return type %#v, want SimpleTypeSpec(Void)", ext.ReturnType)
	}
}
