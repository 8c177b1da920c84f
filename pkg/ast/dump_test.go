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

// Package ast_test exercises Dump from outside pkg/ast, since it needs
// pkg/parser (which itself imports pkg/ast) to produce a tree to dump.
package ast_test

import (
	"strings"
	"testing"

	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/lexer"
	"github.com/peryaudo/peryan/pkg/parser"
	"github.com/peryaudo/peryan/pkg/sema"
	"github.com/peryaudo/peryan/pkg/source"
)

func TestDumpShowsStructureBeforeTypes(t *testing.T) {
	lex, derr := lexer.New(source.NewStringReader("var x :: Int = 1 + 2"), true)
	if derr != nil {
		t.Fatalf("lexer.New: %v", derr)
	}
	tu, perr := parser.New(lex, false).Parse()
	if perr != nil {
		t.Fatalf("Parse: %v", perr)
	}
	out := ast.Dump(tu)
	if !strings.Contains(out, "VarDef x") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "VarDef x")
	}
	if !strings.Contains(out, "Binary +") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "Binary +")
	}
	// Before type resolution, no node carries a " :: " type suffix.
	if strings.Contains(out, "::") {
		t.Errorf("Dump() before sema.Run contains a type suffix: %q", out)
	}
}

func TestDumpAnnotatesResolvedTypes(t *testing.T) {
	lex, derr := lexer.New(source.NewStringReader("var x :: Int = 1 + 2"), true)
	if derr != nil {
		t.Fatalf("lexer.New: %v", derr)
	}
	tu, perr := parser.New(lex, false).Parse()
	if perr != nil {
		t.Fatalf("Parse: %v", perr)
	}
	if serr := sema.Run(tu, false, &diag.Sink{}); serr != nil {
		t.Fatalf("sema.Run: %v", serr)
	}
	out := ast.Dump(tu)
	if !strings.Contains(out, "const Int") {
		t.Errorf("Dump() after sema.Run = %q, want a %q type suffix", out, "const Int")
	}
}
