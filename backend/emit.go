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
	"fmt"
	"strings"
)

// Platform selects the two flavors of AT&T syntax this emitter produces
// (§4.9): symbol mangling, PLT suffixing, and alignment-directive spelling
// all differ between a Linux (System V/ELF) and a macOS (Mach-O) target.
type Platform int32

const (
	PlatformLinux Platform = iota
	PlatformDarwin
)

type Emitter struct {
	Platform Platform
	buf      strings.Builder
}

func NewEmitter(p Platform) *Emitter { return &Emitter{Platform: p} }

func (e *Emitter) Emit(prog *Program) string {
	e.buf.Reset()
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *FunctionDef:
			e.emitFunction(it)
		case *StaticVar:
			e.emitStaticVar(it)
		}
	}
	if e.Platform == PlatformLinux {
		e.buf.WriteString("\t.section .note.GNU-stack,\"\",@progbits\n")
	}
	return e.buf.String()
}

func (e *Emitter) symbol(name string) string {
	if e.Platform == PlatformDarwin {
		return "_" + name
	}
	return name
}

func (e *Emitter) line(format string, args ...interface{}) {
	e.buf.WriteString("\t")
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteString("\n")
}

func (e *Emitter) emitFunction(fn *FunctionDef) {
	sym := e.symbol(fn.Name)
	e.buf.WriteString("\t.text\n")
	if fn.Global {
		e.line(".globl %s", sym)
	}
	e.buf.WriteString(sym + ":\n")
	e.line("pushq %%rbp")
	e.line("movq %%rsp, %%rbp")
	for _, in := range fn.Instructions {
		e.emitInstr(in)
	}
}

func (e *Emitter) emitStaticVar(sv *StaticVar) {
	sym := e.symbol(sv.Name)
	isZero := sv.Init.IntVal == 0 && sv.Init.LongVal == 0
	if isZero {
		e.buf.WriteString("\t.bss\n")
	} else {
		e.buf.WriteString("\t.data\n")
	}
	if sv.Global {
		e.line(".globl %s", sym)
	}
	e.emitAlign(sv.Alignment)
	e.buf.WriteString(sym + ":\n")
	switch {
	case isZero:
		e.line(".zero %d", sv.Alignment)
	case sv.Init.IsLong:
		e.line(".quad %d", sv.Init.LongVal)
	default:
		e.line(".long %d", sv.Init.IntVal)
	}
}

func (e *Emitter) emitAlign(bytes int) {
	if e.Platform == PlatformDarwin {
		log2 := 2
		if bytes == 8 {
			log2 = 3
		}
		e.line(".align %d", log2)
		return
	}
	e.line(".balign %d", bytes)
}

func (e *Emitter) emitInstr(in Instr) {
	switch i := in.(type) {
	case *Mov:
		e.line("%s %s, %s", movMnemonic(i.Type), e.operand(i.Src, i.Type), e.operand(i.Dst, i.Type))
	case *Movsx:
		e.line("movslq %s, %s", e.operand(i.Src, Longword), e.operand(i.Dst, Quadword))
	case *Unary:
		e.line("%s %s", unaryMnemonic(i.Op, i.Type), e.operand(i.Dst, i.Type))
	case *Binary:
		e.line("%s %s, %s", binaryMnemonic(i.Op, i.Type), e.operand(i.Src, i.Type), e.operand(i.Dst, i.Type))
	case *Cmp:
		e.line("%s %s, %s", cmpMnemonic(i.Type), e.operand(i.Src, i.Type), e.operand(i.Dst, i.Type))
	case *Idiv:
		e.line("%s %s", idivMnemonic(i.Type), e.operand(i.Operand, i.Type))
	case *Cdq:
		if i.Type == Quadword {
			e.line("cqto")
		} else {
			e.line("cltd")
		}
	case *Jmp:
		e.line("jmp %s", e.localLabel(i.Label))
	case *JmpCC:
		e.line("j%s %s", condSuffix(i.Cond), e.localLabel(i.Label))
	case *SetCC:
		e.line("set%s %s", condSuffix(i.Cond), e.byteOperand(i.Dst))
	case *LabelInstr:
		e.buf.WriteString(e.localLabel(i.Name) + ":\n")
	case *AllocateStack:
		if i.Bytes != 0 {
			e.line("subq $%d, %%rsp", i.Bytes)
		}
	case *DeallocateStack:
		if i.Bytes != 0 {
			e.line("addq $%d, %%rsp", i.Bytes)
		}
	case *Push:
		e.line("pushq %s", e.operand(i.Operand, Quadword))
	case *Call:
		e.line("call %s", e.callTarget(i.Name))
	case *Ret:
		e.line("movq %%rbp, %%rsp")
		e.line("popq %%rbp")
		e.line("ret")
	}
}

// localLabel prefixes every jump/branch target with ".L" so it never
// collides with an externally-visible symbol.
func (e *Emitter) localLabel(name string) string {
	return ".L" + name
}

func (e *Emitter) callTarget(name string) string {
	sym := e.symbol(name)
	if e.Platform == PlatformLinux {
		return sym + "@PLT"
	}
	return sym
}

func movMnemonic(t AsmType) string {
	if t == Quadword {
		return "movq"
	}
	return "movl"
}

func cmpMnemonic(t AsmType) string {
	if t == Quadword {
		return "cmpq"
	}
	return "cmpl"
}

func idivMnemonic(t AsmType) string {
	if t == Quadword {
		return "idivq"
	}
	return "idivl"
}

func unaryMnemonic(op UnaryOp, t AsmType) string {
	suffix := "l"
	if t == Quadword {
		suffix = "q"
	}
	if op == UnaryNeg {
		return "neg" + suffix
	}
	return "not" + suffix
}

func binaryMnemonic(op BinaryOp, t AsmType) string {
	suffix := "l"
	if t == Quadword {
		suffix = "q"
	}
	switch op {
	case BinAdd:
		return "add" + suffix
	case BinSub:
		return "sub" + suffix
	case BinMul:
		return "imul" + suffix
	}
	return "?" + suffix
}

func condSuffix(c CondCode) string {
	switch c {
	case CondE:
		return "e"
	case CondNE:
		return "ne"
	case CondG:
		return "g"
	case CondGE:
		return "ge"
	case CondL:
		return "l"
	case CondLE:
		return "le"
	}
	return "e"
}

func (e *Emitter) operand(op Operand, t AsmType) string {
	switch o := op.(type) {
	case Imm:
		return fmt.Sprintf("$%d", o.Value)
	case Register:
		return regName(o.Reg, t)
	case Stack:
		return fmt.Sprintf("%d(%%rbp)", o.Offset)
	case Data:
		return e.symbol(o.Name) + "(%rip)"
	case Pseudo:
		return "<unresolved:" + o.Name + ">"
	default:
		return "?"
	}
}

func (e *Emitter) byteOperand(op Operand) string {
	if r, ok := op.(Register); ok {
		return regNameByte[r.Reg]
	}
	return e.operand(op, Longword)
}
