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
package backend

import (
	"minic/ast"
	"minic/sema"
)

// frameBuilder assigns each distinct local Pseudo a stack slot below
// %rbp, growing downward and respecting each slot's natural alignment
// (§4.7).
type frameBuilder struct {
	offsets map[string]int
	next    int // magnitude of the lowest offset assigned so far
}

func newFrameBuilder() *frameBuilder {
	return &frameBuilder{offsets: map[string]int{}}
}

func (fb *frameBuilder) slot(name string, size int) int {
	if off, ok := fb.offsets[name]; ok {
		return off
	}
	fb.next = roundUp(fb.next, size) + size
	off := -fb.next
	fb.offsets[name] = off
	return off
}

func roundUp(n, align int) int {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}

// ResolvePseudos rewrites every Pseudo operand in fn to either a Data
// reference (static-storage symbols) or a Stack slot (everything else),
// and records the resulting frame size on fn (§4.7).
func ResolvePseudos(fn *FunctionDef, symtab *sema.SymbolTable, temps map[string]*ast.Type) {
	fb := newFrameBuilder()

	resolve := func(op Operand) Operand {
		p, ok := op.(Pseudo)
		if !ok {
			return op
		}
		if sym, ok := symtab.Lookup(p.Name); ok && sym.Attr.Kind == sema.AttrStatic {
			return Data{Name: p.Name}
		}
		size := 4
		if pseudoType(symtab, temps, p.Name) == Quadword {
			size = 8
		}
		return Stack{Offset: fb.slot(p.Name, size)}
	}

	for _, instr := range fn.Instructions {
		resolveInstrOperands(instr, resolve)
	}
	fn.StackSize = fb.next
}

func resolveInstrOperands(instr Instr, resolve func(Operand) Operand) {
	switch in := instr.(type) {
	case *Mov:
		in.Src, in.Dst = resolve(in.Src), resolve(in.Dst)
	case *Movsx:
		in.Src, in.Dst = resolve(in.Src), resolve(in.Dst)
	case *Unary:
		in.Dst = resolve(in.Dst)
	case *Binary:
		in.Src, in.Dst = resolve(in.Src), resolve(in.Dst)
	case *Cmp:
		in.Src, in.Dst = resolve(in.Src), resolve(in.Dst)
	case *Idiv:
		in.Operand = resolve(in.Operand)
	case *SetCC:
		in.Dst = resolve(in.Dst)
	case *Push:
		in.Operand = resolve(in.Operand)
	}
}
