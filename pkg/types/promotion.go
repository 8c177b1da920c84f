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

package types

// IsSubtypeOf implements the `<:` relation of spec.md §3: identity on all
// types, plus Float <: Double. Both sides are unmodified first.
func IsSubtypeOf(sub, super Type) bool {
	sub, super = Unmodify(sub), Unmodify(super)
	if sub.Equal(super) {
		return true
	}
	subB, subOk := sub.(*Builtin)
	superB, superOk := super.(*Builtin)
	return subOk && superOk && subB.Name == "Float" && superB.Name == "Double"
}

// promotionPairs is the HSP-compat-only numeric/string widening table from
// spec.md §4.6, grounded on the original TypeResolver::initPromotionTable.
// Outside HSP-compat mode only the subtype relation and modifier rules
// apply.
var promotionPairs = map[[2]string]bool{
	{"Bool", "Bool"}: true, {"Bool", "Char"}: true, {"Bool", "Int"}: true,
	{"Bool", "Float"}: true, {"Bool", "Double"}: true, {"Bool", "String"}: true,
	{"Char", "Char"}: true, {"Char", "Int"}: true, {"Char", "Float"}: true,
	{"Char", "Double"}: true, {"Char", "String"}: true,
	{"Int", "Bool"}: true, {"Int", "Char"}: true, {"Int", "Int"}: true,
	{"Int", "Float"}: true, {"Int", "Double"}: true, {"Int", "String"}: true,
	{"Float", "Float"}: true, {"Float", "Double"}: true,
	{"Double", "Int"}: true, {"Double", "Double"}: true,
	{"String", "Int"}: true, {"String", "String"}: true,
}

// CanConvertModifier implements the modifier-compatibility rule of
// spec.md §4.6: const{ref}->ref is rejected; unmodified->ref is rejected
// except in function-parameter context; everything else is accepted.
func CanConvertModifier(from, to Type, isFuncParam bool) bool {
	fromMod, fromIsMod := from.(*Modifier)
	toMod, toIsMod := to.(*Modifier)
	//
	if !toIsMod {
		// Destination carries no modifier at all: always fine, since any
		// modifier on the source is simply dropped by unmodification
		// elsewhere.
		return true
	}
	if !fromIsMod {
		// unmodified -> {const,}ref: rejected unless this is a function
		// parameter slot (where passing an rvalue by value is allowed).
		if toMod.RefFlag && !isFuncParam {
			return false
		}
		return true
	}
	// Modifier -> Modifier: reject (const or const-ref) -> ref-only.
	if toMod.RefFlag && !toMod.ConstFlag && fromMod.ConstFlag {
		return false
	}
	return true
}

// CanPromote implements spec.md §4.6 canPromote: the subtype rule, plus
// (in HSP-compat mode) the widened numeric/string table with a warning,
// plus the modifier-compatibility check. warn is non-empty when the
// promotion succeeded only because of the HSP-compat widening and a
// warning should be emitted by the caller.
func CanPromote(from, to Type, hspCompat, isFuncParam bool) (ok bool, warn string) {
	if IsSubtypeOf(from, to) {
		return CanConvertModifier(from, to, isFuncParam), ""
	}
	//
	fromU, toU := Unmodify(from), Unmodify(to)
	fromB, fromOk := fromU.(*Builtin)
	toB, toOk := toU.(*Builtin)
	//
	if hspCompat && fromOk && toOk {
		if promotionPairs[[2]string{fromB.Name, toB.Name}] {
			if !CanConvertModifier(from, to, isFuncParam) {
				return false, ""
			}
			return true, "implicit conversion from " + fromB.Name + " to " + toB.Name + " is deprecated"
		}
	}
	return false, ""
}

// binaryOp groups the operator classes of spec.md §4.6's binary-promotion
// table.
type binaryOp int

const (
	opBitwise  binaryOp = iota // ^ | &
	opEquality                 // = == != !
	opRelation                 // < <= > >=
	opShift                    // << >>
	opArith                    // + - * /
	opMod                      // %
)

type binaryKey struct {
	lhs, rhs string
	op       binaryOp
}

var binaryTable = map[binaryKey]*Builtin{}

func reg(op binaryOp, lhs, rhs string, result *Builtin) {
	binaryTable[binaryKey{lhs, rhs, op}] = result
}

func init() {
	for _, n := range []string{"Bool", "Int"} {
		reg(opBitwise, n, n, boolOrInt(n))
	}
	for _, n := range []string{"Bool", "Char", "Int", "Float", "Double", "String"} {
		reg(opEquality, n, n, Bool)
	}
	for _, n := range []string{"Char", "Int", "Float", "Double"} {
		reg(opRelation, n, n, Bool)
	}
	reg(opRelation, "Float", "Double", Bool)
	reg(opRelation, "Double", "Float", Bool)
	reg(opShift, "Int", "Int", Int)
	for _, n := range []string{"Char", "Int", "Float", "Double"} {
		reg(opArith, n, n, builtinByName(n))
	}
	reg(opArith, "String", "String", StringT)
	reg(opMod, "Int", "Int", Int)
}

func boolOrInt(n string) *Builtin {
	if n == "Bool" {
		return Bool
	}
	return Int
}

func builtinByName(n string) *Builtin {
	switch n {
	case "Char":
		return Char
	case "Int":
		return Int
	case "Float":
		return Float
	case "Double":
		return Double
	}
	return nil
}

// hspNumeric is the set of builtins the HSP-compat widened arithmetic
// table accepts as either operand.
var hspNumeric = map[string]bool{"Bool": true, "Char": true, "Int": true, "Float": true, "Double": true}

// hspArithResult implements the HSP-compat-only "LHS type dominates"
// widened arithmetic rule of spec.md §4.6: any numeric pair is accepted,
// yielding Int for a Bool/Int LHS, Char for a Char LHS, Float for a Float
// LHS (Double if the RHS is Double), and Double for a Double LHS.
func hspArithResult(lhs, rhs string) *Builtin {
	if !hspNumeric[lhs] || !hspNumeric[rhs] {
		return nil
	}
	switch lhs {
	case "Bool", "Int":
		return Int
	case "Char":
		return Char
	case "Float":
		if rhs == "Double" {
			return Double
		}
		return Float
	case "Double":
		return Double
	}
	return nil
}

// CanPromoteBinary implements spec.md §4.6 canPromoteBinary: looks up the
// operator-group table by (lhsUnmodified, rhsUnmodified); in HSP-compat
// mode the arithmetic group additionally accepts any numeric pair (LHS
// dominates) and String+Int in addition to String+String.
func CanPromoteBinary(lhs Type, op binaryOp, rhs Type, hspCompat bool) Type {
	lhsU, rhsU := Unmodify(lhs), Unmodify(rhs)
	lhsB, lhsOk := lhsU.(*Builtin)
	rhsB, rhsOk := rhsU.(*Builtin)
	if !lhsOk || !rhsOk {
		return nil
	}
	if t, ok := binaryTable[binaryKey{lhsB.Name, rhsB.Name, op}]; ok {
		return t
	}
	if !hspCompat {
		return nil
	}
	switch op {
	case opArith:
		if r := hspArithResult(lhsB.Name, rhsB.Name); r != nil {
			return r
		}
		if lhsB.Name == "String" && rhsB.Name == "Int" {
			return StringT
		}
	}
	return nil
}

// BinaryOpGroup classifiers, exported for callers (the Type Resolver) that
// need to map a token kind onto one of the six operator-group constants.
const (
	OpBitwise  = opBitwise
	OpEquality = opEquality
	OpRelation = opRelation
	OpShift    = opShift
	OpArith    = opArith
	OpMod      = opMod
)
