// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package ast

import "strings"

// Type is the closed set of §3 types: Int, Long, and Function, plus Void
// for a `void` return type. Structural equality; Int != Long.
type Type struct {
	Kind       TypeKind
	Params     []*Type // only set when Kind == TypeFunction
	ReturnType *Type   // only set when Kind == TypeFunction
}

type TypeKind int32

const (
	TypeInt TypeKind = iota
	TypeLong
	TypeVoid
	TypeFunction
)

var IntType = &Type{Kind: TypeInt}
var LongType = &Type{Kind: TypeLong}
var VoidType = &Type{Kind: TypeVoid}

func FunctionType(params []*Type, ret *Type) *Type {
	return &Type{Kind: TypeFunction, Params: params, ReturnType: ret}
}

// Equal is structural equality per §3.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind != TypeFunction {
		return true
	}
	if len(t.Params) != len(o.Params) || !t.ReturnType.Equal(o.ReturnType) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

func (t *Type) String() string {
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeVoid:
		return "void"
	case TypeFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return "(" + strings.Join(parts, ", ") + ") -> " + t.ReturnType.String()
	default:
		return "?"
	}
}

// Size returns the width in bytes of a scalar type, used by the backend's
// Longword/Quadword assembly type selection (§3).
func (t *Type) Size() int {
	if t.Kind == TypeLong {
		return 8
	}
	return 4
}

// CommonType implements "the common type of int and long is long" (§4.3.2).
func CommonType(a, b *Type) *Type {
	if a.Kind == TypeLong || b.Kind == TypeLong {
		return LongType
	}
	return IntType
}
