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

// ScratchR10 and ScratchR11 are the two registers the fixup pass (§4.8)
// uses to legalize illegal operand combinations; neither is ever used to
// hold a live pseudo value by codegen, so fixup can clobber them freely.
const (
	ScratchR10 = RegR10
	ScratchR11 = RegR11
)

// regNames holds, per Reg, the 4-/8-byte AT&T register name; used by the
// emitter (§4.9) to pick the width-appropriate spelling.
var regNames = map[Reg][2]string{
	RegAX: {"%eax", "%rax"},
	RegCX: {"%ecx", "%rcx"},
	RegDX: {"%edx", "%rdx"},
	RegDI: {"%edi", "%rdi"},
	RegSI: {"%esi", "%rsi"},
	RegR8: {"%r8d", "%r8"},
	RegR9: {"%r9d", "%r9"},
	RegR10: {"%r10d", "%r10"},
	RegR11: {"%r11d", "%r11"},
	RegSP:  {"%esp", "%rsp"},
	RegBP:  {"%ebp", "%rbp"},
}

// regNameByte holds the 1-byte spelling used by SetCC destinations, which
// always write a byte regardless of the comparison's operand width.
var regNameByte = map[Reg]string{
	RegAX:  "%al",
	RegCX:  "%cl",
	RegDX:  "%dl",
	RegDI:  "%dil",
	RegSI:  "%sil",
	RegR8:  "%r8b",
	RegR9:  "%r9b",
	RegR10: "%r10b",
	RegR11: "%r11b",
}

func regName(r Reg, t AsmType) string {
	names := regNames[r]
	if t == Quadword {
		return names[1]
	}
	return names[0]
}
