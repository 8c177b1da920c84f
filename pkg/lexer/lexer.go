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

// Package lexer implements the Lexer of spec.md §4.2: eager multi-file
// source concatenation (#import deduplicated, #include always spliced)
// with breadcrumb position tracking, followed by token-at-a-time
// scanning and the breadcrumb-aware diagnostic pretty-printer.
package lexer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/source"
	"github.com/peryaudo/peryan/pkg/token"
)

// PreludeName is the logical name of the runtime prelude, spliced ahead of
// the main file when the source Reader can provide it (spec.md §4.2).
const PreludeName = "peryandefs"

// Lexer scans the aggregated source buffer produced by eagerly splicing
// together the prelude, the main file, and every #import/#include target
// they reference.
type Lexer struct {
	reader      source.Reader
	buf         []rune
	breadcrumbs []source.Breadcrumb
	imported    map[string]bool

	pos int // current scan position, an index into buf
}

// New constructs a Lexer over reader, eagerly reading and splicing every
// reachable source file. preludeOptional, if true, tolerates the prelude
// being absent (tests rarely register one).
func New(reader source.Reader, preludeOptional bool) (*Lexer, *diag.Error) {
	l := &Lexer{reader: reader, imported: make(map[string]bool)}
	if _, err := reader.Open(PreludeName); err == nil {
		if derr := l.splice(PreludeName, false); derr != nil {
			return nil, derr
		}
	} else if !preludeOptional {
		return nil, diag.NewLexerError(token.NoPosition, err.Error())
	}
	if derr := l.splice(reader.MainName(), false); derr != nil {
		return nil, derr
	}
	return l, nil
}

// splice appends name's contents (recursively resolving its own
// #import/#include directives) to the aggregated buffer, pushing a
// Breadcrumb to mark the transition. dedupOnly is true for files entered
// via #import: if name was already imported anywhere in the build, this
// is a silent no-op.
func (l *Lexer) splice(name string, dedupOnly bool) *diag.Error {
	if dedupOnly && l.imported[name] {
		return nil
	}
	l.imported[name] = true
	//
	contents, err := l.reader.Open(name)
	if err != nil {
		return diag.NewLexerError(token.NoPosition, err.Error())
	}
	//
	l.breadcrumbs = append(l.breadcrumbs, source.Breadcrumb{
		TotalOffset: len(l.buf), OriginalOffset: 0, LineInOriginal: 0, SourceName: name,
	})
	//
	lines := splitKeepEnds(contents)
	origOffset := 0
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if directive, argName, ok := parseDirective(trimmed); ok {
			if argName == "" {
				return diag.NewLexerError(token.NoPosition, fmt.Sprintf("malformed #%s directive", directive))
			}
			if derr := l.splice(argName, directive == "import"); derr != nil {
				return derr
			}
			// Keep the directive line's terminator so the spliced file's
			// last line never runs into the line after the directive.
			l.buf = append(l.buf, []rune(line[len(strings.TrimRight(line, "\r\n")):])...)
			l.breadcrumbs = append(l.breadcrumbs, source.Breadcrumb{
				TotalOffset: len(l.buf), OriginalOffset: origOffset + len(line), LineInOriginal: i + 1, SourceName: name,
			})
		} else {
			l.buf = append(l.buf, []rune(line)...)
		}
		origOffset += len(line)
	}
	return nil
}

// splitKeepEnds splits s into lines, keeping each line's terminator
// attached (so re-joining the slice reproduces s exactly).
func splitKeepEnds(s string) []string {
	var lines []string
	start := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\n' {
			lines = append(lines, string(runes[start:i+1]))
			start = i + 1
		} else if runes[i] == '\r' {
			end := i + 1
			if end < len(runes) && runes[end] == '\n' {
				end++
			}
			lines = append(lines, string(runes[start:end]))
			i = end - 1
			start = end
		}
	}
	if start < len(runes) {
		lines = append(lines, string(runes[start:]))
	}
	return lines
}

// parseDirective recognizes a `#import "name"` or `#include "name"` line.
// ok is false when the line is not a directive at all; argName is ""
// (with ok true) when the line looks like a directive but is malformed.
func parseDirective(line string) (directive, argName string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	for _, d := range []string{"import", "include"} {
		prefix := "#" + d
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := strings.TrimSpace(line[len(prefix):])
		if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
			return d, "", true
		}
		return d, rest[1 : len(rest)-1], true
	}
	return "", "", false
}

// PrettyPrint implements diag.Renderer: locates the Breadcrumb enclosing
// pos, derives (fileName, lineNumber, columnInLine), and renders the
// three-line "<file>:<line>:<col>: message / source line / caret" format
// (spec.md §4.2/§6). Tabs count as 8 columns when placing the caret.
func (l *Lexer) PrettyPrint(pos token.Position, message string) string {
	idx := int(pos)
	if idx < 0 || idx > len(l.buf) {
		return message
	}
	//
	bc := l.enclosingBreadcrumb(idx)
	lineStart, lineEnd, lineNo := l.lineBounds(bc, idx)
	line := string(l.buf[lineStart:lineEnd])
	line = strings.TrimRight(line, "\r\n")
	//
	col := 0
	for _, r := range l.buf[lineStart:idx] {
		if r == '\t' {
			col += 8 - (col % 8)
		} else {
			col++
		}
	}
	//
	header := fmt.Sprintf("%s:%d:%d: %s", bc.SourceName, lineNo+1, col+1, message)
	caret := strings.Repeat(" ", col) + "^"
	return header + "\n\t" + line + "\n\t" + caret + "\n"
}

// Locate resolves pos to its originating file name and a 0-indexed
// (line, column) pair, the form pkg/lspserver needs for an LSP Position
// (testable property 12, LSP diagnostic parity: this is PrettyPrint's
// 1-indexed line/column minus one, computed the same way).
func (l *Lexer) Locate(pos token.Position) (file string, line, col int) {
	idx := int(pos)
	if idx < 0 || idx > len(l.buf) {
		return "", 0, 0
	}
	bc := l.enclosingBreadcrumb(idx)
	_, _, lineNo := l.lineBounds(bc, idx)
	lineStart := idx
	for lineStart > bc.TotalOffset && l.buf[lineStart-1] != '\n' {
		lineStart--
	}
	for _, r := range l.buf[lineStart:idx] {
		if r == '\t' {
			col += 8 - (col % 8)
		} else {
			col++
		}
	}
	return bc.SourceName, lineNo, col
}

// enclosingBreadcrumb returns the last breadcrumb whose TotalOffset <=
// idx, found by binary search (breadcrumbs are appended in non-decreasing
// TotalOffset order as splice() runs depth-first).
func (l *Lexer) enclosingBreadcrumb(idx int) source.Breadcrumb {
	i := sort.Search(len(l.breadcrumbs), func(i int) bool {
		return l.breadcrumbs[i].TotalOffset > idx
	})
	if i == 0 {
		return source.Breadcrumb{}
	}
	return l.breadcrumbs[i-1]
}

// lineBounds returns [start,end) of the line containing idx, and the
// 0-indexed line number within the breadcrumb's originating file.
func (l *Lexer) lineBounds(bc source.Breadcrumb, idx int) (start, end, lineNo int) {
	lineNo = bc.LineInOriginal
	start = bc.TotalOffset
	for i := bc.TotalOffset; i < idx; i++ {
		if l.buf[i] == '\n' {
			start = i + 1
			lineNo++
		}
	}
	end = idx
	for end < len(l.buf) && l.buf[end] != '\n' {
		end++
	}
	if end < len(l.buf) {
		end++
	}
	return
}

// isIdentStart / isIdentCont classify identifier characters (spec.md
// §4.2: `[A-Za-z_][A-Za-z0-9_]*`).
func isIdentStart(r rune) bool { return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_' }
func isIdentCont(r rune) bool  { return isIdentStart(r) || (r >= '0' && r <= '9') }

func (l *Lexer) peek(n int) rune {
	if l.pos+n >= len(l.buf) {
		return 0
	}
	return l.buf[l.pos+n]
}

func (l *Lexer) at(n int) bool {
	return l.pos+n < len(l.buf)
}

// Next scans and returns the next token, or a LexerError for an
// unterminated comment/string, a malformed char literal, or an unexpected
// character (directives are handled earlier, by New). Once the buffer is exhausted, Next returns an
// END token forever (spec.md §4.2).
func (l *Lexer) Next() (token.Token, *diag.Error) {
	hasWS := false
	for {
		if !l.at(0) {
			break
		}
		c := l.buf[l.pos]
		switch {
		case c == ' ' || c == '\t':
			l.pos++
			hasWS = true
		case c == '/' && l.peek(1) == '*':
			begin := l.pos
			l.pos += 2
			closed := false
			for l.at(0) {
				if l.buf[l.pos] == '*' && l.peek(1) == '/' {
					l.pos += 2
					closed = true
					break
				}
				l.pos++
			}
			if !closed {
				return token.Token{}, diag.NewLexerError(token.Position(begin), "unterminated comment")
			}
			hasWS = true
		case c == '/' && l.peek(1) == '/':
			for l.at(0) && l.buf[l.pos] != '\n' && l.buf[l.pos] != '\r' {
				l.pos++
			}
			hasWS = true
		case c == ';':
			for l.at(0) && l.buf[l.pos] != '\n' && l.buf[l.pos] != '\r' {
				l.pos++
			}
			hasWS = true
		case c == '\\' && (l.peek(1) == '\n' || l.peek(1) == '\r'):
			l.pos++
			if l.buf[l.pos] == '\r' && l.peek(1) == '\n' {
				l.pos++
			}
			l.pos++
			hasWS = true
		default:
			goto scan
		}
	}
scan:
	start := l.pos
	if !l.at(0) {
		return token.Token{Kind: token.END, Position: token.Position(start)}, nil
	}
	//
	c := l.buf[l.pos]
	//
	if c == '\n' || c == '\r' {
		for l.at(0) && (l.buf[l.pos] == '\n' || l.buf[l.pos] == '\r') {
			l.pos++
		}
		return token.Token{Kind: token.TERM, Position: token.Position(start)}, nil
	}
	//
	if isIdentStart(c) {
		return l.scanIdentifier(start), nil
	}
	if unicode.IsDigit(c) || (c == '$') {
		return l.scanNumber(start)
	}
	if c == '"' {
		return l.scanString(start, '"', false)
	}
	if c == '\'' {
		return l.scanChar(start)
	}
	if c == '{' && l.peek(1) == '"' {
		l.pos++
		return l.scanString(start, '"', true)
	}
	//
	tok, err := l.scanPunct(start, hasWS)
	return tok, err
}

func (l *Lexer) scanIdentifier(start int) token.Token {
	l.pos++
	for l.at(0) && isIdentCont(l.buf[l.pos]) {
		l.pos++
	}
	text := string(l.buf[start:l.pos])
	if kw, ok := token.Keywords[text]; ok {
		return token.Token{Kind: kw, Position: token.Position(start), Text: text}
	}
	kind := token.ID
	if unicode.IsUpper(rune(text[0])) {
		kind = token.TYPEID
	}
	return token.Token{Kind: kind, Position: token.Position(start), Text: text}
}

func (l *Lexer) scanNumber(start int) (token.Token, *diag.Error) {
	if l.buf[l.pos] == '$' {
		l.pos++
		s := l.pos
		for l.at(0) && isHex(l.buf[l.pos]) {
			l.pos++
		}
		v, _ := strconv.ParseInt(string(l.buf[s:l.pos]), 16, 64)
		return token.Token{Kind: token.INTEGER, Position: token.Position(start), Text: string(l.buf[start:l.pos]), IntVal: v}, nil
	}
	if l.buf[l.pos] == '0' && (l.peek(1) == 'x' || l.peek(1) == 'X') {
		l.pos += 2
		s := l.pos
		for l.at(0) && isHex(l.buf[l.pos]) {
			l.pos++
		}
		v, _ := strconv.ParseInt(string(l.buf[s:l.pos]), 16, 64)
		return token.Token{Kind: token.INTEGER, Position: token.Position(start), Text: string(l.buf[start:l.pos]), IntVal: v}, nil
	}
	if l.buf[l.pos] == '0' && (l.peek(1) == 'b' || l.peek(1) == 'B') {
		l.pos += 2
		s := l.pos
		for l.at(0) && (l.buf[l.pos] == '0' || l.buf[l.pos] == '1') {
			l.pos++
		}
		v, _ := strconv.ParseInt(string(l.buf[s:l.pos]), 2, 64)
		return token.Token{Kind: token.INTEGER, Position: token.Position(start), Text: string(l.buf[start:l.pos]), IntVal: v}, nil
	}
	//
	for l.at(0) && unicode.IsDigit(l.buf[l.pos]) {
		l.pos++
	}
	if l.at(0) && l.buf[l.pos] == '.' && l.at(1) && unicode.IsDigit(l.peek(1)) {
		l.pos++
		for l.at(0) && unicode.IsDigit(l.buf[l.pos]) {
			l.pos++
		}
		text := string(l.buf[start:l.pos])
		v, _ := strconv.ParseFloat(text, 64)
		return token.Token{Kind: token.FLOAT, Position: token.Position(start), Text: text, FloatVal: v}, nil
	}
	text := string(l.buf[start:l.pos])
	v, _ := strconv.ParseInt(text, 10, 64)
	return token.Token{Kind: token.INTEGER, Position: token.Position(start), Text: text, IntVal: v}, nil
}

func isHex(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// escapeRune implements the fixed escape set from spec.md §4.2:
// \t \n \r \e \\ \" with fallback \<c> -> c.
func escapeRune(c rune) rune {
	switch c {
	case 't':
		return '\t'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 'e':
		return 0x1b
	default:
		return c
	}
}

func (l *Lexer) scanString(start int, quote rune, hereDoc bool) (token.Token, *diag.Error) {
	l.pos++ // consume opening quote
	var sb strings.Builder
	for {
		if !l.at(0) {
			return token.Token{}, diag.NewLexerError(token.Position(start), "unterminated string")
		}
		c := l.buf[l.pos]
		if hereDoc && c == quote && l.peek(1) == '}' {
			l.pos += 2
			break
		}
		if !hereDoc && c == quote {
			l.pos++
			break
		}
		if c == '\\' && l.at(1) {
			sb.WriteRune(escapeRune(l.peek(1)))
			l.pos += 2
			continue
		}
		sb.WriteRune(c)
		l.pos++
	}
	return token.Token{Kind: token.STRING, Position: token.Position(start), Text: sb.String()}, nil
}

func (l *Lexer) scanChar(start int) (token.Token, *diag.Error) {
	l.pos++ // consume opening quote
	if !l.at(0) {
		return token.Token{}, diag.NewLexerError(token.Position(start), "unterminated char literal")
	}
	var value rune
	if l.buf[l.pos] == '\\' && l.at(1) {
		value = escapeRune(l.peek(1))
		l.pos += 2
	} else {
		value = l.buf[l.pos]
		l.pos++
	}
	if !l.at(0) || l.buf[l.pos] != '\'' {
		return token.Token{}, diag.NewLexerError(token.Position(start), "multi-character char literal")
	}
	l.pos++
	return token.Token{Kind: token.CHAR, Position: token.Position(start), CharVal: value}, nil
}

// punct2/punct1 are checked longest-first so e.g. "==" is never
// split into two "=" tokens.
var punct2 = map[string]token.Kind{
	"==": token.EQEQ, "!=": token.NEQ, "<=": token.LE, ">=": token.GE,
	"<<": token.SHL, ">>": token.SHR, "::": token.DCOLON, "->": token.ARROW,
	"++": token.INCR, "--": token.DECR, "+=": token.PLUSEQ, "-=": token.MINUSEQ,
	"*=": token.STAREQ, "/=": token.SLASHEQ,
}

var punct1 = map[rune]token.Kind{
	'(': token.LPAREN, ')': token.RPAREN, '[': token.LBRACK, ']': token.RBRACK,
	'{': token.LBRACE, '}': token.RBRACE, ',': token.COMMA, ':': token.COLON,
	'.': token.DOT, '^': token.CARET, '|': token.PIPE, '&': token.AMP,
	'=': token.EQ, '!': token.BANG, '<': token.LT, '>': token.GT,
	'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH, '%': token.PERCENT,
}

func (l *Lexer) scanPunct(start int, hasWS bool) (token.Token, *diag.Error) {
	if l.at(1) {
		two := string([]rune{l.buf[l.pos], l.peek(1)})
		if kind, ok := punct2[two]; ok {
			l.pos += 2
			return token.Token{Kind: kind, Position: token.Position(start), Text: two}, nil
		}
	}
	c := l.buf[l.pos]
	kind, ok := punct1[c]
	if !ok {
		l.pos++
		return token.Token{}, diag.NewLexerError(token.Position(start), fmt.Sprintf("unexpected character %q", c))
	}
	l.pos++
	tok := token.Token{Kind: kind, Position: token.Position(start), Text: string(c)}
	switch kind {
	case token.STAR:
		tok.HasTrailingAlphabet = l.at(0) && isIdentStart(l.buf[l.pos])
	case token.LBRACK, token.LPAREN:
		tok.HasWSBefore = hasWS
	}
	return tok, nil
}
