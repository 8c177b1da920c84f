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

package sema

import (
	"github.com/peryaudo/peryan/pkg/ast"
	"github.com/peryaudo/peryan/pkg/diag"
)

// Run drives the three semantic passes over tu in the fixed order spec.md
// §4.4-4.6 requires: Symbol Register, Symbol Resolver, Type Resolver. Each
// pass's *diag.Error is fatal; warnings collected along the way (HSP-compat
// widening, deprecated label syntax) land in sink.
func Run(tu *ast.TransUnit, hspCompat bool, sink *diag.Sink) *diag.Error {
	if err := RegisterSymbols(tu, hspCompat, sink); err != nil {
		return err
	}
	if err := ResolveSymbols(tu, hspCompat, sink); err != nil {
		return err
	}
	return ResolveTypes(tu, hspCompat, sink)
}
