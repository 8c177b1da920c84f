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
	"fmt"
	"strings"
)

// Dump renders tu as an indented S-expression-like tree, one line per
// node, with resolved types shown in brackets once the Type Resolver has
// run. This backs the --dump-ast flag (spec.md §6, "emit a printed AST to
// the diagnostic stream").
func Dump(tu *TransUnit) string {
	var b strings.Builder
	for _, s := range tu.Stmts {
		dumpStmt(&b, s, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func typeSuffix(e Expr) string {
	if e == nil || e.Type() == nil {
		return ""
	}
	return fmt.Sprintf(" :: %s", e.Type().String())
}

func dumpStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch v := s.(type) {
	case *VarDefStmt:
		fmt.Fprintf(b, "VarDef %s\n", v.Name)
		if v.Init != nil {
			dumpExpr(b, v.Init, depth+1)
		}
	case *FuncDefStmt:
		fmt.Fprintf(b, "FuncDef %s(", v.Name)
		for i, p := range v.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
		}
		b.WriteString(")\n")
		dumpStmt(b, v.Body, depth+1)
	case *ExternStmt:
		fmt.Fprintf(b, "Extern %s\n", v.Name)
	case *InstStmt:
		b.WriteString("Inst\n")
		dumpExpr(b, v.Inst, depth+1)
		for _, a := range v.Args {
			dumpExpr(b, a, depth+1)
		}
	case *AssignStmt:
		fmt.Fprintf(b, "Assign %s\n", v.Op)
		dumpExpr(b, v.Lhs, depth+1)
		if v.Rhs != nil {
			dumpExpr(b, v.Rhs, depth+1)
		}
	case *IfStmt:
		b.WriteString("If\n")
		for i, c := range v.Conds {
			indent(b, depth+1)
			fmt.Fprintf(b, "cond[%d]\n", i)
			dumpExpr(b, c, depth+2)
			dumpStmt(b, v.Thens[i], depth+2)
		}
		if v.Else != nil {
			indent(b, depth+1)
			b.WriteString("else\n")
			dumpStmt(b, v.Else, depth+2)
		}
	case *CompStmt:
		b.WriteString("Comp\n")
		for _, st := range v.Stmts {
			dumpStmt(b, st, depth+1)
		}
	case *RepeatStmt:
		b.WriteString("Repeat\n")
		if v.Count != nil {
			dumpExpr(b, v.Count, depth+1)
		}
		dumpStmt(b, v.Body, depth+1)
	case *LabelStmt:
		fmt.Fprintf(b, "Label *%s\n", v.Name)
	case *GotoStmt:
		fmt.Fprintf(b, "Goto *%s\n", v.Target.Name)
	case *GosubStmt:
		fmt.Fprintf(b, "Gosub *%s\n", v.Target.Name)
	case *ContinueStmt:
		b.WriteString("Continue\n")
	case *BreakStmt:
		b.WriteString("Break\n")
	case *ReturnStmt:
		b.WriteString("Return\n")
		if v.Value != nil {
			dumpExpr(b, v.Value, depth+1)
		}
	case *NamespaceStmt:
		fmt.Fprintf(b, "Namespace %s\n", v.Name)
		for _, st := range v.Stmts {
			dumpStmt(b, st, depth+1)
		}
	default:
		fmt.Fprintf(b, "%T\n", s)
	}
}

func dumpExpr(b *strings.Builder, e Expr, depth int) {
	indent(b, depth)
	switch v := e.(type) {
	case *Identifier:
		fmt.Fprintf(b, "Id %s%s\n", v.Name, typeSuffix(e))
	case *Label:
		fmt.Fprintf(b, "Label *%s%s\n", v.Name, typeSuffix(e))
	case *BinaryExpr:
		fmt.Fprintf(b, "Binary %s%s\n", v.Op, typeSuffix(e))
		dumpExpr(b, v.Lhs, depth+1)
		dumpExpr(b, v.Rhs, depth+1)
	case *UnaryExpr:
		fmt.Fprintf(b, "Unary %s%s\n", v.Op, typeSuffix(e))
		dumpExpr(b, v.Rhs, depth+1)
	case *StrLiteralExpr:
		fmt.Fprintf(b, "Str %q%s\n", v.Value, typeSuffix(e))
	case *IntLiteralExpr:
		fmt.Fprintf(b, "Int %d%s\n", v.Value, typeSuffix(e))
	case *FloatLiteralExpr:
		fmt.Fprintf(b, "Float %v%s\n", v.Value, typeSuffix(e))
	case *CharLiteralExpr:
		fmt.Fprintf(b, "Char %q%s\n", v.Value, typeSuffix(e))
	case *BoolLiteralExpr:
		fmt.Fprintf(b, "Bool %v%s\n", v.Value, typeSuffix(e))
	case *ArrayLiteralExpr:
		fmt.Fprintf(b, "ArrayLit%s\n", typeSuffix(e))
		for _, el := range v.Elems {
			dumpExpr(b, el, depth+1)
		}
	case *FuncCallExpr:
		fmt.Fprintf(b, "Call%s\n", typeSuffix(e))
		dumpExpr(b, v.Callee, depth+1)
		for _, a := range v.Args {
			dumpExpr(b, a, depth+1)
		}
	case *ConstructorExpr:
		fmt.Fprintf(b, "Ctor%s\n", typeSuffix(e))
		for _, a := range v.Args {
			dumpExpr(b, a, depth+1)
		}
	case *SubscrExpr:
		fmt.Fprintf(b, "Subscr%s\n", typeSuffix(e))
		dumpExpr(b, v.Recv, depth+1)
		dumpExpr(b, v.Index, depth+1)
	case *MemberExpr:
		fmt.Fprintf(b, "Member .%s%s\n", v.Member, typeSuffix(e))
		dumpExpr(b, v.Recv, depth+1)
	case *StaticMemberExpr:
		fmt.Fprintf(b, "StaticMember%s\n", typeSuffix(e))
		dumpExpr(b, v.NamespaceExpr, depth+1)
	case *RefExpr:
		fmt.Fprintf(b, "Ref%s\n", typeSuffix(e))
		dumpExpr(b, v.Inner, depth+1)
	case *DerefExpr:
		fmt.Fprintf(b, "Deref%s\n", typeSuffix(e))
		dumpExpr(b, v.Inner, depth+1)
	case *FuncExpr:
		fmt.Fprintf(b, "Func%s\n", typeSuffix(e))
		dumpStmt(b, v.Body, depth+1)
	default:
		fmt.Fprintf(b, "%T\n", e)
	}
}
