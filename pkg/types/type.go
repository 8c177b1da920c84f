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

// Package types implements the Type Model of spec.md §3/§4.6: builtin
// types, the const/ref modifier algebra, parametric arrays, curried
// function types, and namespace types, plus the promotion algebra that
// drives the Type Resolver.
package types

import "fmt"

// Type is the sum of all type variants in the language: Builtin, Modifier,
// Array, Func (curried) and Namespace. Equality between two Types is
// always structural (Equal), never pointer identity.
type Type interface {
	fmt.Stringer
	// Equal reports whether this type is structurally identical to other.
	Equal(other Type) bool
	isType()
}

// Builtin is one of the eight primitive types named in spec.md §3.
type Builtin struct {
	Name string
}

// The eight builtin types, shared singletons: comparing two Builtins by
// Name is always equivalent to comparing by pointer, but we keep Builtin a
// plain struct (no pointer identity games) per spec.md §9's guidance on
// not representing the type lattice via pointer identity.
var (
	Int       = &Builtin{"Int"}
	StringT   = &Builtin{"String"}
	Char      = &Builtin{"Char"}
	Float     = &Builtin{"Float"}
	Double    = &Builtin{"Double"}
	Bool      = &Builtin{"Bool"}
	Void      = &Builtin{"Void"}
	LabelType = &Builtin{"Label"}
)

func (b *Builtin) isType() {}
func (b *Builtin) String() string {
	return b.Name
}

// Equal reports whether other is the same builtin.
func (b *Builtin) Equal(other Type) bool {
	o, ok := other.(*Builtin)
	return ok && o.Name == b.Name
}

// IsNumeric reports whether b is one of the arithmetic builtins eligible
// for the unary +/-/++/-- operators and the binary arithmetic table.
func (b *Builtin) IsNumeric() bool {
	switch b.Name {
	case "Int", "Char", "Float", "Double":
		return true
	}
	return false
}

// Modifier wraps an unmodified type with const and/or ref flags. At least
// one of Const/Ref must be true (spec.md invariant 4: a Modifier never
// wraps another Modifier directly).
type Modifier struct {
	ConstFlag bool
	RefFlag   bool
	Inner     Type
}

// NewModifier constructs a Modifier, peeling any Modifier already present
// on inner so the invariant (no Modifier directly wraps a Modifier) always
// holds, merging flags if inner was itself modified.
func NewModifier(isConst, isRef bool, inner Type) *Modifier {
	if m, ok := inner.(*Modifier); ok {
		isConst = isConst || m.ConstFlag
		isRef = isRef || m.RefFlag
		inner = m.Inner
	}
	return &Modifier{isConst, isRef, inner}
}

func (m *Modifier) isType() {}

func (m *Modifier) String() string {
	prefix := ""
	if m.ConstFlag {
		prefix += "const "
	}
	if m.RefFlag {
		prefix += "ref "
	}
	return prefix + m.Inner.String()
}

// Equal reports whether other is a Modifier with the same flags and inner
// type.
func (m *Modifier) Equal(other Type) bool {
	o, ok := other.(*Modifier)
	return ok && o.ConstFlag == m.ConstFlag && o.RefFlag == m.RefFlag && m.Inner.Equal(o.Inner)
}

// Array is a homogeneous parametric array type.
type Array struct {
	Elem Type
}

func (a *Array) isType() {}
func (a *Array) String() string {
	return "[" + a.Elem.String() + "]"
}

// Equal reports whether other is an Array of an equal element type.
func (a *Array) Equal(other Type) bool {
	o, ok := other.(*Array)
	return ok && a.Elem.Equal(o.Elem)
}

// Func is one link of a curried function type: Car is this parameter's
// type, Cdr is the rest of the curry chain (another *Func, or the return
// type once parameters are exhausted is represented by Cdr being a
// non-Func type -- see NewFunc/Params/Return).
//
// A nullary function is encoded as Func(Void, ret): the leading Void
// sentinel occupies the one parameter slot that would otherwise be empty,
// per spec.md invariant 6. Iteration via Params() always skips it.
type Func struct {
	Car Type
	Cdr Type
}

func (f *Func) isType() {}

func (f *Func) String() string {
	params := f.Params()
	s := "("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ") -> " + f.Return().String()
}

// Equal reports whether other is a Func with an equal parameter/return
// chain.
func (f *Func) Equal(other Type) bool {
	o, ok := other.(*Func)
	if !ok {
		return false
	}
	return f.Car.Equal(o.Car) && f.Cdr.Equal(o.Cdr)
}

// NewFunc builds a curried Func type from a parameter list and return
// type, inserting the Void sentinel for a zero-parameter function.
func NewFunc(params []Type, ret Type) *Func {
	if len(params) == 0 {
		return &Func{Void, ret}
	}
	//
	cdr := ret
	for i := len(params) - 1; i > 0; i-- {
		cdr = &Func{params[i], cdr}
	}
	return &Func{params[0], cdr}
}

// Params returns the parameter types in declaration order, skipping the
// Void sentinel used to encode nullary functions.
func (f *Func) Params() []Type {
	var params []Type
	if !(f.Car.Equal(Void)) {
		params = append(params, f.Car)
	}
	cur := f.Cdr
	for {
		next, ok := cur.(*Func)
		if !ok {
			break
		}
		params = append(params, next.Car)
		cur = next.Cdr
	}
	return params
}

// Return returns the function's ultimate return type, i.e. the first
// non-Func link at the end of the curry chain.
func (f *Func) Return() Type {
	cur := Type(f)
	for {
		next, ok := cur.(*Func)
		if !ok {
			return cur
		}
		cur = next.Cdr
	}
}

// NamespaceHandle is the narrow view of a namespace symbol that the type
// system needs: its qualified name, and member lookup for MemberTypeSpec
// resolution (spec.md §4.5). Implemented by *symtab.NamespaceSymbol; kept
// as an interface here so package types never imports package symtab
// (avoiding the cycle that a literal multiple-inheritance port of the
// original NamespaceSymbol : Symbol, Type would create).
type NamespaceHandle interface {
	Name() string
	// ResolveMember looks up name directly in this namespace, with no
	// fall-through to an enclosing scope (spec.md §3 resolution rule).
	ResolveMember(name string) (Type, bool)
}

// Namespace is the namespace type variant: a namespace symbol doubling as
// a type for TypeSpec lookup (spec.md §3).
type Namespace struct {
	Handle NamespaceHandle
}

func (n *Namespace) isType() {}
func (n *Namespace) String() string {
	return n.Handle.Name()
}

// Equal reports whether other is a Namespace with the same underlying
// handle.
func (n *Namespace) Equal(other Type) bool {
	o, ok := other.(*Namespace)
	return ok && o.Handle.Name() == n.Handle.Name()
}

// Unmodify peels one Modifier layer, returning t unchanged if it is not a
// Modifier.
func Unmodify(t Type) Type {
	if m, ok := t.(*Modifier); ok {
		return m.Inner
	}
	return t
}

// IsConst reports whether t is a Modifier with the const flag set.
func IsConst(t Type) bool {
	m, ok := t.(*Modifier)
	return ok && m.ConstFlag
}

// IsRef reports whether t is a Modifier with the ref flag set.
func IsRef(t Type) bool {
	m, ok := t.(*Modifier)
	return ok && m.RefFlag
}
