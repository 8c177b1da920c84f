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

package lspserver

import "github.com/peryaudo/peryan/pkg/source"

// overlayReader is a source.Reader that serves the editor's in-memory
// buffer for the open document and falls back to disk (through an
// embedded source.FileReader) for every #import/#include target,
// including the runtime prelude. Grounded on pkg/source.StringReader's
// map-backed Open, generalized to overlay exactly one live document atop
// a real filesystem search path instead of replacing the filesystem
// entirely (a language server edits one file at a time; everything it
// imports still lives on disk).
type overlayReader struct {
	mainName string
	text     string
	fallback *source.FileReader
}

func newOverlayReader(mainName, text string, includePaths []string) *overlayReader {
	return &overlayReader{mainName, text, source.NewFileReader(mainName, includePaths)}
}

func (r *overlayReader) MainName() string { return r.mainName }

func (r *overlayReader) Open(name string) (string, error) {
	if name == r.mainName {
		return r.text, nil
	}
	return r.fallback.Open(name)
}
