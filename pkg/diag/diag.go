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

// Package diag implements the three user-facing error kinds (spec.md §7)
// and the buffered warning sink, grounded on the teacher's
// pkg/sexp.SyntaxError (a structured, position-carrying error type) and
// extended with the breadcrumb-aware three-line renderer from spec.md
// §4.2/§6.
package diag

import (
	"fmt"

	"github.com/peryaudo/peryan/pkg/token"
)

// Renderer locates the enclosing source line for a position and produces
// the three-line "<file>:<line>:<col>: message / source line / caret"
// format. Implemented by *lexer.Lexer, which owns the aggregated buffer
// and breadcrumb table this requires.
type Renderer interface {
	PrettyPrint(pos token.Position, message string) string
}

// Kind distinguishes the phase that detected an error (spec.md §7).
type Kind int

// The three user-facing error kinds.
const (
	Lexer Kind = iota
	Parser
	Semantics
)

func (k Kind) String() string {
	switch k {
	case Lexer:
		return "LexerError"
	case Parser:
		return "ParserError"
	case Semantics:
		return "SemanticsError"
	}
	return "Error"
}

// Error is the single error type shared by all three phases; Kind
// distinguishes them for callers that care (e.g. the CLI's exit-code
// logic treats all three identically, per spec.md §7's "all three abort
// compilation on first occurrence").
type Error struct {
	Kind     Kind
	Position token.Position
	Message  string
}

// NewLexerError constructs a LexerError.
func NewLexerError(pos token.Position, message string) *Error {
	return &Error{Lexer, pos, message}
}

// NewParserError constructs a ParserError.
func NewParserError(pos token.Position, message string) *Error {
	return &Error{Parser, pos, message}
}

// NewSemanticsError constructs a SemanticsError.
func NewSemanticsError(pos token.Position, message string) *Error {
	return &Error{Semantics, pos, message}
}

// Error implements the error interface with a position-only rendering;
// callers that have a Renderer available should prefer Render for the
// full three-line form.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Position, e.Message)
}

// Render produces the full diagnostic text via r, falling back to a
// one-line "<Kind>: <message>" when the position is synthetic (no source
// text to point at).
func (e *Error) Render(r Renderer) string {
	if !e.Position.IsValid() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return r.PrettyPrint(e.Position, fmt.Sprintf("%s: %s", e.Kind, e.Message))
}

// Warning is a non-fatal diagnostic; warnings never abort compilation and
// are buffered until the end of a successful compile (spec.md §7).
type Warning struct {
	Position token.Position
	Message  string
}

// Sink is the append-only warning collector (Warning/Diagnostic sink of
// spec.md §4, "§2 component table").
type Sink struct {
	warnings []Warning
}

// Add appends a warning at pos.
func (s *Sink) Add(pos token.Position, message string) {
	s.warnings = append(s.warnings, Warning{pos, message})
}

// Warnings returns all buffered warnings in the order they were added.
func (s *Sink) Warnings() []Warning {
	return s.warnings
}

// Flush renders every buffered warning through r and returns one rendered
// string per warning, in order, then clears the sink.
func (s *Sink) Flush(r Renderer) []string {
	out := make([]string, len(s.warnings))
	for i, w := range s.warnings {
		out[i] = r.PrettyPrint(w.Position, "warning: "+w.Message)
	}
	s.warnings = nil
	return out
}
