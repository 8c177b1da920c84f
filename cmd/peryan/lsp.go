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
	"github.com/spf13/cobra"

	"github.com/peryaudo/peryan/pkg/config"
	"github.com/peryaudo/peryan/pkg/lspserver"
)

// runLSP starts the --lsp editor-integration mode (spec.md SPEC_FULL.md
// §4.10). Unlike runCompile it takes no positional <input>/<output>;
// the document set comes entirely from textDocument/didOpen.
func runLSP(cmd *cobra.Command) error {
	runtimePath, tempDir, err := config.FromEnv()
	if err != nil {
		return err
	}
	cfg := &config.CompilerConfig{
		IncludePaths: append(GetStringArray(cmd, "include"), runtimePath),
		HSPCompat:    GetFlag(cmd, "hsp-compatible"),
		Strict:       GetFlag(cmd, "strict"),
		Verbose:      GetFlag(cmd, "verbose"),
		RuntimePath:  runtimePath,
		TempDir:      tempDir,
	}
	return lspserver.Run(cfg)
}
