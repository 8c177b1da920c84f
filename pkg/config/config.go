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

// Package config defines CompilerConfig, the single struct that carries
// every option the compiler needs. spec.md §9's "Global mutable state"
// design note calls out the original's reliance on process-wide
// environment variables and a global Options object; this package is the
// rewrite's answer -- one value, read once at the process entry point
// (cmd/peryan) and threaded explicitly into the source reader, lexer,
// and every pkg/sema pass. No package outside cmd/peryan may read an
// environment variable or a package-level mutable directly.
//
// Grounded on the teacher's pkg/corset.CompilationConfig, a plain,
// field-only struct passed by value into the compilation pipeline.
package config

import (
	"fmt"
	"os"
)

// Environment variable names spec.md §6 requires: "one giving the
// directory of the runtime prelude and standard library definitions, and
// one giving a temporary directory for intermediate files".
const (
	RuntimePathEnv = "PERYAN_RUNTIME_PATH"
	TempDirEnv     = "TMPDIR"
)

// CompilerConfig is the rewrite's replacement for the original's global
// Options object and ambient environment lookups (spec.md §9).
type CompilerConfig struct {
	// MainFile is the <input> positional argument: the translation
	// unit's entry source file.
	MainFile string
	// OutputFile is the <output> positional argument, or the argument
	// to -o/--output.
	OutputFile string
	// IncludePaths accumulates every -I<path> flag, in the order given;
	// #import/#include directives are resolved against it in order
	// (spec.md §6).
	IncludePaths []string
	// HSPCompat toggles the legacy-dialect compatibility mode (wider
	// numeric promotion, implicit globals, labels, array member
	// rewrite) -- the --hsp-compatible flag.
	HSPCompat bool
	// Strict, when set, makes the compile driver fail with the first
	// warning buffered in the diagnostic sink (label declarations,
	// implicit globals, widening promotions), reported as a
	// SemanticsError, instead of printing the warnings. The --strict flag.
	Strict bool
	// Verbose enables per-pass timing/progress traces on the logger
	// (spec.md §4.8), the --verbose flag.
	Verbose bool
	// DumpAST emits a printed AST to the diagnostic stream after a
	// successful compile; OutputFile is still written when one is given.
	// The --dump-ast flag.
	DumpAST bool
	// RuntimePath is the directory holding the runtime prelude
	// (pkg/lexer.PreludeName) and standard library definitions, read
	// once from PERYAN_RUNTIME_PATH.
	RuntimePath string
	// TempDir holds intermediate files, read once from TMPDIR.
	TempDir string
}

// FromEnv fills RuntimePath and TempDir from the two environment
// variables spec.md §6 requires. It is the only function in this module
// that reads the process environment; every other component receives a
// *CompilerConfig by value or reference and never consults os.Getenv
// itself (testable property 11, config threading).
func FromEnv() (runtimePath, tempDir string, err error) {
	runtimePath = os.Getenv(RuntimePathEnv)
	if runtimePath == "" {
		return "", "", fmt.Errorf("%s is not set; it must name the directory holding the runtime prelude and standard library", RuntimePathEnv)
	}
	tempDir = os.Getenv(TempDirEnv)
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return runtimePath, tempDir, nil
}
