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

package lexer

import (
	"testing"

	"github.com/peryaudo/peryan/pkg/source"
	"github.com/peryaudo/peryan/pkg/token"
)

func scanAll(t *testing.T, l *Lexer) []token.Token {
	t.Helper()
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lexer error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.END {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestBasicTokens(t *testing.T) {
	r := source.NewStringReader(`a = 1 + 2.5`)
	l, derr := New(r, true)
	if derr != nil {
		t.Fatalf("New: %v", derr)
	}
	got := kinds(scanAll(t, l))
	want := []token.Kind{token.ID, token.EQ, token.INTEGER, token.PLUS, token.FLOAT, token.END}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestKeywordLongestMatch(t *testing.T) {
	r := source.NewStringReader(`iffy`)
	l, _ := New(r, true)
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != token.ID || tok.Text != "iffy" {
		t.Errorf("got %+v, want ID \"iffy\" (keyword prefix must not shadow a longer identifier)", tok)
	}
}

func TestNewlineRunCollapsesToSingleTerm(t *testing.T) {
	r := source.NewStringReader("a\n\n\nb")
	l, _ := New(r, true)
	got := kinds(scanAll(t, l))
	want := []token.Kind{token.ID, token.TERM, token.ID, token.END}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLineCommentAndBlockComment(t *testing.T) {
	r := source.NewStringReader("a // comment\nb /* block\ncomment */ c")
	l, _ := New(r, true)
	got := kinds(scanAll(t, l))
	want := []token.Kind{token.ID, token.TERM, token.ID, token.ID, token.END}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestUnterminatedBlockCommentErrors(t *testing.T) {
	r := source.NewStringReader("a /* never closed")
	l, _ := New(r, true)
	if _, err := l.Next(); err != nil {
		t.Fatalf("unexpected error on first token: %v", err)
	}
	if _, err := l.Next(); err == nil {
		t.Fatalf("expected unterminated comment error")
	}
}

func TestStarTrailingAlphabetFlag(t *testing.T) {
	r := source.NewStringReader(`a*b a * b *label`)
	l, _ := New(r, true)
	toks := scanAll(t, l)
	var stars []token.Token
	for _, tok := range toks {
		if tok.Kind == token.STAR {
			stars = append(stars, tok)
		}
	}
	if len(stars) < 2 {
		t.Fatalf("expected at least two STAR tokens, got %d", len(stars))
	}
	if !stars[0].HasTrailingAlphabet {
		t.Errorf("a*b: expected HasTrailingAlphabet on the STAR")
	}
	if stars[1].HasTrailingAlphabet {
		t.Errorf("a * b: expected no HasTrailingAlphabet (separated by whitespace)")
	}
}

func TestLbrackWSBeforeFlag(t *testing.T) {
	r := source.NewStringReader(`a[0] a [0]`)
	l, _ := New(r, true)
	toks := scanAll(t, l)
	var bracks []token.Token
	for _, tok := range toks {
		if tok.Kind == token.LBRACK {
			bracks = append(bracks, tok)
		}
	}
	if len(bracks) != 2 {
		t.Fatalf("expected 2 LBRACK tokens, got %d", len(bracks))
	}
	if bracks[0].HasWSBefore {
		t.Errorf("a[0]: expected no HasWSBefore")
	}
	if !bracks[1].HasWSBefore {
		t.Errorf("a [0]: expected HasWSBefore")
	}
}

func TestImportIsDeduplicated(t *testing.T) {
	r := source.NewStringReader("#import \"lib\"\n#import \"lib\"\na").Add("lib", "x")
	l, derr := New(r, true)
	if derr != nil {
		t.Fatalf("New: %v", derr)
	}
	got := kinds(scanAll(t, l))
	want := []token.Kind{token.ID, token.TERM, token.ID, token.END}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v (second #import must be a no-op)", got, want)
	}
}

func TestIncludeIsNotDeduplicated(t *testing.T) {
	r := source.NewStringReader("#include \"lib\"\n#include \"lib\"\n").Add("lib", "x\n")
	l, derr := New(r, true)
	if derr != nil {
		t.Fatalf("New: %v", derr)
	}
	got := kinds(scanAll(t, l))
	want := []token.Kind{token.ID, token.TERM, token.ID, token.TERM, token.END}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v (#include must splice every time)", got, want)
	}
}

func TestPrettyPrintPointsIntoImportedFile(t *testing.T) {
	r := source.NewStringReader("#import \"lib\"\n").Add("lib", "a = 1\nb = @\n")
	l, derr := New(r, true)
	if derr != nil {
		t.Fatalf("New: %v", derr)
	}
	var badPos token.Position
	for {
		tok, err := l.Next()
		if err != nil {
			badPos = err.Position
			break
		}
		if tok.Kind == token.END {
			t.Fatalf("expected a lexer error on the '@' character")
		}
	}
	out := l.PrettyPrint(badPos, "unexpected character")
	if want := "lib:2:5:"; len(out) < len(want) || out[:len(want)] != want {
		t.Errorf("PrettyPrint = %q, want prefix %q", out, want)
	}
}

func TestStringEscapes(t *testing.T) {
	r := source.NewStringReader(`"a\tb\n\"c\""`)
	l, _ := New(r, true)
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != token.STRING {
		t.Fatalf("got %s, want STRING", tok.Kind)
	}
	if want := "a\tb\n\"c\""; tok.Text != want {
		t.Errorf("got %q, want %q", tok.Text, want)
	}
}

func TestHexAndBinaryIntegerLiterals(t *testing.T) {
	r := source.NewStringReader(`$ff 0x10 0b101`)
	l, _ := New(r, true)
	toks := scanAll(t, l)
	want := []int64{255, 16, 5}
	var got []int64
	for _, tok := range toks {
		if tok.Kind == token.INTEGER {
			got = append(got, tok.IntVal)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("literal %d: got %d, want %d", i, got[i], want[i])
		}
	}
}
