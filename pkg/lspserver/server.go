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

// Package lspserver implements spec.md SPEC_FULL.md §4.10's opt-in
// editor-integration mode: a single-threaded textDocument/didOpen,
// textDocument/didChange -> textDocument/publishDiagnostics stdio
// JSON-RPC server. Every notification triggers one full synchronous
// recompile of the affected document (no incremental reparse, matching
// spec.md's Non-goal "incremental recompilation"); concurrent edits
// queue behind jsonrpc2's single dispatch goroutine.
//
// Wire types (protocol.Diagnostic, protocol.PublishDiagnosticsParams) are
// grounded on other_examples' bufbuild/buf buflsp package, a real
// go.lsp.dev/protocol consumer. go.lsp.dev/jsonrpc2 itself is not
// exercised anywhere in the example pack; its stdio Stream/Conn/Handler
// wiring here follows the library's own published constructors.
package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/peryaudo/peryan/pkg/config"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/lexer"
	"github.com/peryaudo/peryan/pkg/parser"
	"github.com/peryaudo/peryan/pkg/sema"
	"github.com/peryaudo/peryan/pkg/source"
	"github.com/peryaudo/peryan/pkg/token"
)

// stdrwc adapts os.Stdin/os.Stdout to the single io.ReadWriteCloser
// jsonrpc2.NewStream wants.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error {
	_ = os.Stdin.Close()
	return os.Stdout.Close()
}

// Server holds the one piece of state an LSP session carries: the
// in-memory text of whichever document the editor currently has open.
// Everything else (the compiler config) is immutable for the session's
// lifetime, threaded in at construction rather than read from a global
// (spec.md §9).
type Server struct {
	cfg  *config.CompilerConfig
	mu   sync.Mutex
	text map[string]string // by document URI
}

// Run starts the server on stdio and blocks until the client sends
// "exit" or the connection closes.
func Run(cfg *config.CompilerConfig) error {
	s := &Server{cfg: cfg, text: make(map[string]string)}
	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)
	ctx := context.Background()
	conn.Go(ctx, s.handle(conn))
	<-conn.Done()
	return conn.Err()
}

func (s *Server) handle(conn jsonrpc2.Conn) jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case "initialize":
			return reply(ctx, protocol.InitializeResult{
				Capabilities: protocol.ServerCapabilities{
					TextDocumentSync: protocol.TextDocumentSyncKindFull,
				},
			}, nil)
		case "initialized", "$/cancelRequest":
			return reply(ctx, nil, nil)
		case "shutdown":
			return reply(ctx, nil, nil)
		case "exit":
			return conn.Close()
		case "textDocument/didOpen":
			var params protocol.DidOpenTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return err
			}
			s.setText(params.TextDocument.URI, params.TextDocument.Text)
			return s.publish(ctx, conn, params.TextDocument.URI)
		case "textDocument/didChange":
			var params protocol.DidChangeTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return err
			}
			if len(params.ContentChanges) == 0 {
				return nil
			}
			// TextDocumentSyncKindFull: the last change event carries the
			// whole new document text.
			full := params.ContentChanges[len(params.ContentChanges)-1].Text
			s.setText(params.TextDocument.URI, full)
			return s.publish(ctx, conn, params.TextDocument.URI)
		case "textDocument/didClose":
			var params protocol.DidCloseTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return err
			}
			s.clearText(params.TextDocument.URI)
			return nil
		default:
			if req.IsNotify() {
				return nil
			}
			return reply(ctx, nil, fmt.Errorf("peryan-lsp: unhandled method %q", req.Method()))
		}
	}
}

func (s *Server) setText(u protocol.URI, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text[string(u)] = text
}

func (s *Server) clearText(u protocol.URI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.text, string(u))
}

// publish recompiles the document named by u from scratch and sends its
// diagnostics (empty slice included, to clear a previously-reported
// error once it's fixed).
func (s *Server) publish(ctx context.Context, conn jsonrpc2.Conn, u protocol.URI) error {
	s.mu.Lock()
	text := s.text[string(u)]
	s.mu.Unlock()

	mainName, err := mainNameOf(u)
	if err != nil {
		log.WithError(err).Warn("peryan-lsp: cannot resolve document URI")
		return nil
	}

	diags := s.compile(mainName, text)
	return conn.Notify(ctx, "textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         u,
		Diagnostics: diags,
	})
}

func mainNameOf(u protocol.URI) (string, error) {
	parsed, err := uri.Parse(string(u))
	if err != nil {
		return "", err
	}
	return parsed.Filename(), nil
}

// compile runs the same Source Reader -> Lexer -> Parser -> sema.Run
// pipeline cmd/peryan's compile path runs, stopping at the first error
// (spec.md §7) and converting it into a single LSP diagnostic; only a
// successful compile reports its buffered warnings, one diagnostic each. Position conversion goes through (*lexer.Lexer).Locate,
// which returns the same 0-indexed line/column PrettyPrint derives minus
// one (testable property 12).
func (s *Server) compile(mainName, text string) []protocol.Diagnostic {
	reader := newOverlayReader(mainName, text, s.cfg.IncludePaths)
	lex, derr := lexer.New(reader, false)
	if derr != nil {
		return []protocol.Diagnostic{diagnosticFor(derr, nil)}
	}
	tu, perr := parser.New(lex, s.cfg.HSPCompat).Parse()
	if perr != nil {
		return []protocol.Diagnostic{diagnosticFor(perr, lex)}
	}
	sink := &diag.Sink{}
	if serr := sema.Run(tu, s.cfg.HSPCompat, sink); serr != nil {
		return []protocol.Diagnostic{diagnosticFor(serr, lex)}
	}
	out := make([]protocol.Diagnostic, 0, len(sink.Warnings()))
	for _, w := range sink.Warnings() {
		out = append(out, protocol.Diagnostic{
			Range:    rangeAt(lex, w.Position),
			Severity: protocol.DiagnosticSeverityWarning,
			Source:   "peryan",
			Message:  w.Message,
		})
	}
	return out
}

func diagnosticFor(e *diag.Error, lex *lexer.Lexer) protocol.Diagnostic {
	d := protocol.Diagnostic{
		Severity: protocol.DiagnosticSeverityError,
		Source:   "peryan",
		Message:  fmt.Sprintf("%s: %s", e.Kind, e.Message),
	}
	if lex != nil {
		d.Range = rangeAt(lex, e.Position)
	}
	return d
}

// rangeAt converts a token.Position into a zero-width LSP Range at its
// 0-indexed (line, column), via (*lexer.Lexer).Locate.
func rangeAt(lex *lexer.Lexer, pos token.Position) protocol.Range {
	_, line, col := lex.Locate(pos)
	p := protocol.Position{Line: uint32(line), Character: uint32(col)}
	return protocol.Range{Start: p, End: p}
}

var _ io.Closer = stdrwc{}
var _ source.Reader = (*overlayReader)(nil)
