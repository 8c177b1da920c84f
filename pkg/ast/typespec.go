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

package ast

import "github.com/peryaudo/peryan/pkg/types"

// SimpleTypeSpec names a builtin or namespace type by identifier, with
// optional const/ref prefixes.
type SimpleTypeSpec struct {
	TypeSpecBase
	Name     string
	Const    bool
	Ref      bool
	Resolved types.Type // filled in by the Symbol Resolver
}

// ArrayTypeSpec is `[T]`, with optional const/ref prefixes on the array
// type itself.
type ArrayTypeSpec struct {
	TypeSpecBase
	Const    bool
	Ref      bool
	Elem     TypeSpec
	Resolved types.Type
}

// FuncTypeSpec is `T1, T2 -> R` (right-associative arrow), with optional
// const/ref prefixes on the function type itself.
type FuncTypeSpec struct {
	TypeSpecBase
	Const    bool
	Ref      bool
	Params   []TypeSpec
	Ret      TypeSpec
	Resolved types.Type
}

// MemberTypeSpec is `Namespace.Id`; the left side must resolve to a
// Namespace (classes are reserved but unimplemented, see SPEC_FULL.md §9).
type MemberTypeSpec struct {
	TypeSpecBase
	Const    bool
	Ref      bool
	Left     TypeSpec
	Member   string
	Resolved types.Type
}
