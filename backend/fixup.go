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

import "minic/utils"

const (
	int32Min = -2147483648
	int32Max = 2147483647
	u32Max   = 4294967295
)

func isMemory(op Operand) bool {
	switch op.(type) {
	case Stack, Data:
		return true
	default:
		return false
	}
}

func isImm(op Operand) (int64, bool) {
	if i, ok := op.(Imm); ok {
		return i.Value, true
	}
	return 0, false
}

func fitsInt32(v int64) bool { return v >= int32Min && v <= int32Max }
func fitsU32(v int64) bool   { return v >= 0 && v <= u32Max }

// Fixup legalizes every instruction whose operand form x86-64 rejects, and
// prepends the function-entry stack allocation (§4.8).
func Fixup(fn *FunctionDef) {
	n := utils.Align16(fn.StackSize)
	prologue := []Instr{&AllocateStack{Bytes: n}}

	var out []Instr
	out = append(out, prologue...)
	for _, in := range fn.Instructions {
		out = append(out, fixupInstr(in)...)
	}
	fn.Instructions = out
}

func fixupInstr(instr Instr) []Instr {
	switch in := instr.(type) {
	case *Mov:
		return fixupMov(in)
	case *Movsx:
		return fixupMovsx(in)
	case *Binary:
		return fixupBinary(in)
	case *Cmp:
		return fixupCmp(in)
	case *Idiv:
		return fixupIdiv(in)
	case *Push:
		return fixupPush(in)
	default:
		return []Instr{instr}
	}
}

func fixupMov(in *Mov) []Instr {
	if v, ok := isImm(in.Src); ok {
		if in.Type == Quadword && !fitsInt32(v) && isMemory(in.Dst) {
			return []Instr{
				&Mov{Type: Quadword, Src: Imm{Value: v}, Dst: Register{Reg: ScratchR10}},
				&Mov{Type: Quadword, Src: Register{Reg: ScratchR10}, Dst: in.Dst},
			}
		}
		if in.Type == Longword && !fitsU32(v) {
			in.Src = Imm{Value: int64(int32(v))}
		}
	}
	if isMemory(in.Src) && isMemory(in.Dst) {
		return []Instr{
			&Mov{Type: in.Type, Src: in.Src, Dst: Register{Reg: ScratchR10}},
			&Mov{Type: in.Type, Src: Register{Reg: ScratchR10}, Dst: in.Dst},
		}
	}
	return []Instr{in}
}

func fixupMovsx(in *Movsx) []Instr {
	src, dst := in.Src, in.Dst
	_, srcIsImm := isImm(src)
	srcOK, dstOK := !srcIsImm, !isMemory(dst)
	if srcOK && dstOK {
		return []Instr{in}
	}
	var out []Instr
	actualSrc := src
	if srcIsImm {
		out = append(out, &Mov{Type: Longword, Src: src, Dst: Register{Reg: ScratchR10}})
		actualSrc = Register{Reg: ScratchR10}
	}
	if isMemory(dst) {
		out = append(out, &Movsx{Src: actualSrc, Dst: Register{Reg: ScratchR11}})
		out = append(out, &Mov{Type: Quadword, Src: Register{Reg: ScratchR11}, Dst: dst})
		return out
	}
	out = append(out, &Movsx{Src: actualSrc, Dst: dst})
	return out
}

func fixupBinary(in *Binary) []Instr {
	if v, ok := isImm(in.Src); ok && in.Type == Quadword && !fitsInt32(v) {
		return []Instr{
			&Mov{Type: Quadword, Src: Imm{Value: v}, Dst: Register{Reg: ScratchR10}},
			&Binary{Op: in.Op, Type: in.Type, Src: Register{Reg: ScratchR10}, Dst: in.Dst},
		}
	}

	switch in.Op {
	case BinAdd, BinSub:
		if isMemory(in.Src) && isMemory(in.Dst) {
			return []Instr{
				&Mov{Type: in.Type, Src: in.Src, Dst: Register{Reg: ScratchR10}},
				&Binary{Op: in.Op, Type: in.Type, Src: Register{Reg: ScratchR10}, Dst: in.Dst},
			}
		}
	case BinMul:
		if isMemory(in.Dst) {
			return []Instr{
				&Mov{Type: in.Type, Src: in.Dst, Dst: Register{Reg: ScratchR11}},
				&Binary{Op: BinMul, Type: in.Type, Src: in.Src, Dst: Register{Reg: ScratchR11}},
				&Mov{Type: in.Type, Src: Register{Reg: ScratchR11}, Dst: in.Dst},
			}
		}
	}
	return []Instr{in}
}

func fixupCmp(in *Cmp) []Instr {
	if v, ok := isImm(in.Src); ok && in.Type == Quadword && !fitsInt32(v) {
		return []Instr{
			&Mov{Type: Quadword, Src: Imm{Value: v}, Dst: Register{Reg: ScratchR10}},
			&Cmp{Type: in.Type, Src: Register{Reg: ScratchR10}, Dst: in.Dst},
		}
	}
	if isMemory(in.Src) && isMemory(in.Dst) {
		return []Instr{
			&Mov{Type: in.Type, Src: in.Src, Dst: Register{Reg: ScratchR10}},
			&Cmp{Type: in.Type, Src: Register{Reg: ScratchR10}, Dst: in.Dst},
		}
	}
	if _, ok := isImm(in.Dst); ok {
		return []Instr{
			&Mov{Type: in.Type, Src: in.Dst, Dst: Register{Reg: ScratchR11}},
			&Cmp{Type: in.Type, Src: in.Src, Dst: Register{Reg: ScratchR11}},
		}
	}
	return []Instr{in}
}

func fixupIdiv(in *Idiv) []Instr {
	if _, ok := isImm(in.Operand); ok {
		return []Instr{
			&Mov{Type: in.Type, Src: in.Operand, Dst: Register{Reg: ScratchR10}},
			&Idiv{Type: in.Type, Operand: Register{Reg: ScratchR10}},
		}
	}
	return []Instr{in}
}

func fixupPush(in *Push) []Instr {
	if v, ok := isImm(in.Operand); ok && !fitsInt32(v) {
		return []Instr{
			&Mov{Type: Quadword, Src: in.Operand, Dst: Register{Reg: ScratchR10}},
			&Push{Operand: Register{Reg: ScratchR10}},
		}
	}
	return []Instr{in}
}
