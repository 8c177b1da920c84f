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

// Package source maps logical file names to input streams along a
// configured search path, memoizing opens. This is the Source Reader
// component of spec.md §4.1.
package source

import (
	"fmt"
	"os"
	"path/filepath"
)

// Reader maps a logical file name to its textual contents, searching a
// configured ordered list of include directories. Opens are memoized by
// name so a file #import-ed from multiple places is read from disk once.
type Reader interface {
	// MainName returns the logical name of the entry-point file.
	MainName() string
	// Open returns the full contents of name, searching IncludePaths in
	// order. Returns an error when name cannot be found anywhere.
	Open(name string) (string, error)
}

// FileReader is the production Reader, backed by the local filesystem.
type FileReader struct {
	mainName     string
	includePaths []string
	cache        map[string]string
}

// NewFileReader constructs a FileReader rooted at mainName, searching
// includePaths (in order) for #import/#include targets and for mainName
// itself.
func NewFileReader(mainName string, includePaths []string) *FileReader {
	return &FileReader{mainName, includePaths, make(map[string]string)}
}

// MainName returns the entry-point file's logical name.
func (r *FileReader) MainName() string {
	return r.mainName
}

// Open returns the contents of name, memoizing successful reads.
func (r *FileReader) Open(name string) (string, error) {
	if contents, ok := r.cache[name]; ok {
		return contents, nil
	}
	//
	for _, dir := range r.includePaths {
		path := filepath.Join(dir, name)
		bytes, err := os.ReadFile(path)
		if err == nil {
			contents := string(bytes)
			r.cache[name] = contents
			return contents, nil
		}
	}
	// Also try name verbatim (covers absolute paths and cwd-relative
	// invocations of the main file).
	if bytes, err := os.ReadFile(name); err == nil {
		contents := string(bytes)
		r.cache[name] = contents
		return contents, nil
	}
	//
	return "", fmt.Errorf("cannot find a file %s in the include paths", name)
}

// StringReader is an in-memory Reader used by tests, grounded on the
// teacher's approach of feeding synthetic sources directly to a parser
// (pkg/sexp.SourceFile) rather than round-tripping through the filesystem.
type StringReader struct {
	mainName string
	files    map[string]string
}

// NewStringReader constructs a StringReader whose main file has the given
// contents; additional files may be registered with Add before lexing.
func NewStringReader(mainContents string) *StringReader {
	return &StringReader{"main", map[string]string{"main": mainContents}}
}

// Add registers an additional named source, reachable via #import/#include.
func (r *StringReader) Add(name, contents string) *StringReader {
	r.files[name] = contents
	return r
}

// MainName returns "main", the fixed logical name of the primary source.
func (r *StringReader) MainName() string {
	return r.mainName
}

// Open returns the registered contents for name, or an error if unknown.
func (r *StringReader) Open(name string) (string, error) {
	if contents, ok := r.files[name]; ok {
		return contents, nil
	}
	return "", fmt.Errorf("cannot find a file %s in the include paths", name)
}

// Breadcrumb records, for a byte range of the lexer's aggregated source
// buffer, which original file and line it came from. Breadcrumbs are kept
// in ascending TotalOffset order so PrettyPrint can binary-search them.
type Breadcrumb struct {
	// TotalOffset is the offset into the aggregated buffer where this
	// breadcrumb's range begins.
	TotalOffset int
	// OriginalOffset is the corresponding offset within SourceName's own
	// contents at the point of splice (0 for the start of a file).
	OriginalOffset int
	// LineInOriginal is the 0-indexed line number within SourceName at
	// the point of splice.
	LineInOriginal int
	// SourceName is the logical file name this range came from.
	SourceName string
}
