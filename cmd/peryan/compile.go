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

package main

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/config"
	"github.com/peryaudo/peryan/pkg/diag"
	"github.com/peryaudo/peryan/pkg/lexer"
	"github.com/peryaudo/peryan/pkg/parser"
	"github.com/peryaudo/peryan/pkg/sema"
	"github.com/peryaudo/peryan/pkg/source"
)

// buildConfig assembles a *config.CompilerConfig for the compile path from
// flags and the two required environment variables (spec.md §6), which it
// reads through config.FromEnv; every downstream call receives the
// resulting struct, or fields of it, rather than reading flags or the
// environment itself (testable property 11, config threading).
func buildConfig(cmd *cobra.Command, args []string) (*config.CompilerConfig, error) {
	runtimePath, tempDir, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	cfg := &config.CompilerConfig{
		MainFile:     args[0],
		IncludePaths: append(GetStringArray(cmd, "include"), runtimePath),
		HSPCompat:    GetFlag(cmd, "hsp-compatible"),
		Strict:       GetFlag(cmd, "strict"),
		Verbose:      GetFlag(cmd, "verbose"),
		DumpAST:      GetFlag(cmd, "dump-ast"),
		RuntimePath:  runtimePath,
		TempDir:      tempDir,
	}
	cfg.OutputFile = GetString(cmd, "output")
	if cfg.OutputFile == "" && len(args) > 1 {
		cfg.OutputFile = args[1]
	}
	if cfg.OutputFile == "" && !cfg.DumpAST {
		return nil, fmt.Errorf("an <output> file is required unless --dump-ast is given")
	}
	return cfg, nil
}

// runCompile drives Source Reader -> Lexer -> Parser -> Register ->
// Resolver -> Type Resolver (spec.md §5's fixed pass order), then dumps
// the resolved AST to stderr when DumpAST is set and, independently,
// writes it to OutputFile for the external code generator when an output
// file was given.
func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	reader := source.NewFileReader(cfg.MainFile, cfg.IncludePaths)

	start := time.Now()
	lex, derr := lexer.New(reader, false)
	if derr != nil {
		return reportDiag(derr, nil)
	}
	log.WithField("pass", "lex").Debugf("lexed in %s", time.Since(start))

	start = time.Now()
	tu, perr := parser.New(lex, cfg.HSPCompat).Parse()
	if perr != nil {
		return reportDiag(perr, lex)
	}
	log.WithField("pass", "parse").Debugf("parsed in %s", time.Since(start))

	sink := &diag.Sink{}
	start = time.Now()
	if serr := sema.Run(tu, cfg.HSPCompat, sink); serr != nil {
		return reportDiag(serr, lex)
	}
	log.WithField("pass", "sema").Debugf("resolved in %s", time.Since(start))

	if cfg.Strict && len(sink.Warnings()) > 0 {
		w := sink.Warnings()[0]
		return reportDiag(diag.NewSemanticsError(w.Position, w.Message), lex)
	}
	for _, line := range sink.Flush(lex) {
		fmt.Fprintln(os.Stderr, line)
	}

	dump := ast.Dump(tu)
	if cfg.DumpAST {
		fmt.Fprint(os.Stderr, dump)
	}
	if cfg.OutputFile != "" {
		// No IR/codegen package is in scope (spec.md's "Deliberately out
		// of scope" list); the typed-AST dump is this front end's half
		// of the handoff contract with that external collaborator.
		if err := os.WriteFile(cfg.OutputFile, []byte(dump), 0644); err != nil {
			return err
		}
	}
	return nil
}

// reportDiag renders err through r (nil when no breadcrumb table exists
// yet, i.e. a LexerError raised during source ingest) into the error
// Execute prints, colored only when stderr is an interactive terminal.
func reportDiag(err *diag.Error, r diag.Renderer) error {
	var text string
	if r != nil {
		text = err.Render(r)
	} else {
		text = err.Error()
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		text = "\x1b[31m" + text + "\x1b[0m"
	}
	return fmt.Errorf("%s", text)
}
