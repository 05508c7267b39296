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
//
// Package ir is the flat, linear three-address representation of §3: no
// phi nodes, no basic-block graph — just an ordered instruction slice with
// explicit Jump/Label. This is a deliberate structural departure from the
// teacher's compile/ssa package (graph SSA with phis); see DESIGN.md.
package ir

import (
	"fmt"

	"minic/ast"
	"minic/sema"
)

type ValueKind int32

const (
	ValConstant ValueKind = iota
	ValVariable
)

type Value struct {
	Kind  ValueKind
	Const ast.Constant
	Name  string
}

func ConstValue(c ast.Constant) Value { return Value{Kind: ValConstant, Const: c} }
func VarValue(name string) Value      { return Value{Kind: ValVariable, Name: name} }

func (v Value) String() string {
	if v.Kind == ValConstant {
		return fmt.Sprintf("%d", v.Const.AsInt64())
	}
	return v.Name
}

func (v Value) IsConstant() bool { return v.Kind == ValConstant }

// Instr is the IR instruction tagged sum (§3): one interface, a fixed set
// of concrete structs, switched over directly — no visitor.
type Instr interface {
	isInstr()
	String() string
}

type Return struct{ Value Value }
type SignExtend struct{ Src, Dst Value }
type Truncate struct{ Src, Dst Value }
type Unary struct {
	Op       ast.UnaryOp
	Src, Dst Value
}
type Binary struct {
	Op         ast.BinaryOp
	Src1, Src2 Value
	Dst        Value
}
type Copy struct{ Src, Dst Value }
type Jump struct{ Label string }
type JumpIfZero struct {
	Cond  Value
	Label string
}
type JumpIfNotZero struct {
	Cond  Value
	Label string
}
type LabelInstr struct{ Name string }
type FunctionCall struct {
	Name string
	Args []Value
	Dst  Value
}

func (*Return) isInstr()        {}
func (*SignExtend) isInstr()    {}
func (*Truncate) isInstr()      {}
func (*Unary) isInstr()         {}
func (*Binary) isInstr()        {}
func (*Copy) isInstr()          {}
func (*Jump) isInstr()          {}
func (*JumpIfZero) isInstr()    {}
func (*JumpIfNotZero) isInstr() {}
func (*LabelInstr) isInstr()    {}
func (*FunctionCall) isInstr()  {}

func (i *Return) String() string     { return fmt.Sprintf("return %s", i.Value) }
func (i *SignExtend) String() string { return fmt.Sprintf("%s = sext %s", i.Dst, i.Src) }
func (i *Truncate) String() string   { return fmt.Sprintf("%s = trunc %s", i.Dst, i.Src) }
func (i *Unary) String() string      { return fmt.Sprintf("%s = %v %s", i.Dst, i.Op, i.Src) }
func (i *Binary) String() string {
	return fmt.Sprintf("%s = %s %v %s", i.Dst, i.Src1, i.Op, i.Src2)
}
func (i *Copy) String() string          { return fmt.Sprintf("%s = %s", i.Dst, i.Src) }
func (i *Jump) String() string          { return fmt.Sprintf("jump %s", i.Label) }
func (i *JumpIfZero) String() string    { return fmt.Sprintf("jz %s, %s", i.Cond, i.Label) }
func (i *JumpIfNotZero) String() string { return fmt.Sprintf("jnz %s, %s", i.Cond, i.Label) }
func (i *LabelInstr) String() string    { return fmt.Sprintf("%s:", i.Name) }
func (i *FunctionCall) String() string  { return fmt.Sprintf("%s = call %s(...)", i.Dst, i.Name) }

// TopLevel is either a FunctionDefinition or a StaticVariable.
type TopLevel interface {
	isTopLevel()
}

type FunctionDefinition struct {
	Name       string
	Global     bool
	Parameters []string
	Body       []Instr
}

type StaticVariable struct {
	Name    string
	Global  bool
	VarType *ast.Type
	Initial sema.StaticInit
}

func (*FunctionDefinition) isTopLevel() {}
func (*StaticVariable) isTopLevel()     {}

type Program struct {
	Items []TopLevel
	// TempTypes records the type of every synthetic temporary the
	// generator created (named variables carry their type in the
	// semantic analyzer's symbol table instead).
	TempTypes map[string]*ast.Type
}
