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
	"minic/ir"
	"minic/sema"
)

// Codegen lowers linear IR into the pseudo-assembly tree (§4.6). Operands
// are still Pseudo at this point; pseudo2stack and fixup run afterward.
type Codegen struct {
	symtab *sema.SymbolTable
	temps  map[string]*ast.Type
}

func Generate(prog *ir.Program, symtab *sema.SymbolTable) *Program {
	cg := &Codegen{symtab: symtab, temps: prog.TempTypes}
	out := &Program{}
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ir.FunctionDefinition:
			out.Items = append(out.Items, cg.genFunction(it))
		case *ir.StaticVariable:
			out.Items = append(out.Items, &StaticVar{
				Name: it.Name, Global: it.Global,
				Alignment: it.VarType.Size(),
				Init:      it.Initial,
			})
		}
	}
	return out
}

func (cg *Codegen) typeOf(name string) AsmType {
	return pseudoType(cg.symtab, cg.temps, name)
}

// pseudoType resolves a Pseudo operand's width: named variables carry
// their type in the semantic analyzer's symbol table, synthetic
// temporaries carry it in the IR generator's side table.
func pseudoType(symtab *sema.SymbolTable, temps map[string]*ast.Type, name string) AsmType {
	if sym, ok := symtab.Lookup(name); ok {
		return asmType(sym.Type)
	}
	if t, ok := temps[name]; ok {
		return asmType(t)
	}
	return Longword
}

func asmType(t *ast.Type) AsmType {
	if t.Kind == ast.TypeLong {
		return Quadword
	}
	return Longword
}

func (cg *Codegen) valueType(v ir.Value) AsmType {
	if v.IsConstant() {
		if v.Const.Kind == ast.ConstLong {
			return Quadword
		}
		return Longword
	}
	return cg.typeOf(v.Name)
}

func operand(v ir.Value) Operand {
	if v.IsConstant() {
		return Imm{Value: v.Const.AsInt64()}
	}
	return Pseudo{Name: v.Name}
}

func (cg *Codegen) genFunction(fn *ir.FunctionDefinition) *FunctionDef {
	out := &FunctionDef{Name: fn.Name, Global: fn.Global}

	for i, p := range fn.Parameters {
		t := cg.typeOf(p)
		if i < 6 {
			out.Instructions = append(out.Instructions, &Mov{Type: t, Src: Register{Reg: ParamRegs[i]}, Dst: Pseudo{Name: p}})
		} else {
			offset := 8 * (i - 6 + 2)
			out.Instructions = append(out.Instructions, &Mov{Type: t, Src: Stack{Offset: offset}, Dst: Pseudo{Name: p}})
		}
	}

	for _, in := range fn.Body {
		out.Instructions = append(out.Instructions, cg.genInstr(in)...)
	}
	return out
}

func (cg *Codegen) genInstr(in ir.Instr) []Instr {
	switch i := in.(type) {
	case *ir.Return:
		t := cg.valueType(i.Value)
		return []Instr{
			&Mov{Type: t, Src: operand(i.Value), Dst: Register{Reg: RegAX}},
			&Ret{},
		}

	case *ir.SignExtend:
		return []Instr{&Movsx{Src: operand(i.Src), Dst: operand(i.Dst)}}

	case *ir.Truncate:
		return []Instr{&Mov{Type: Longword, Src: operand(i.Src), Dst: operand(i.Dst)}}

	case *ir.Unary:
		dst := operand(i.Dst)
		if i.Op == ast.UnaryNot {
			srcType := cg.valueType(i.Src)
			return []Instr{
				&Cmp{Type: srcType, Src: Imm{Value: 0}, Dst: operand(i.Src)},
				&Mov{Type: Longword, Src: Imm{Value: 0}, Dst: dst},
				&SetCC{Cond: CondE, Dst: dst},
			}
		}
		t := cg.valueType(i.Dst)
		op := UnaryNeg
		if i.Op == ast.UnaryComplement {
			op = UnaryNot
		}
		return []Instr{
			&Mov{Type: t, Src: operand(i.Src), Dst: dst},
			&Unary{Op: op, Type: t, Dst: dst},
		}

	case *ir.Binary:
		return cg.genBinary(i)

	case *ir.Copy:
		return []Instr{&Mov{Type: cg.valueType(i.Dst), Src: operand(i.Src), Dst: operand(i.Dst)}}

	case *ir.Jump:
		return []Instr{&Jmp{Label: i.Label}}

	case *ir.JumpIfZero:
		t := cg.valueType(i.Cond)
		return []Instr{
			&Cmp{Type: t, Src: Imm{Value: 0}, Dst: operand(i.Cond)},
			&JmpCC{Cond: CondE, Label: i.Label},
		}

	case *ir.JumpIfNotZero:
		t := cg.valueType(i.Cond)
		return []Instr{
			&Cmp{Type: t, Src: Imm{Value: 0}, Dst: operand(i.Cond)},
			&JmpCC{Cond: CondNE, Label: i.Label},
		}

	case *ir.LabelInstr:
		return []Instr{&LabelInstr{Name: i.Name}}

	case *ir.FunctionCall:
		return cg.genCall(i)

	default:
		return nil
	}
}

func (cg *Codegen) genBinary(i *ir.Binary) []Instr {
	dst := operand(i.Dst)
	t := cg.valueType(i.Src1)

	if i.Op.IsRelational() {
		cond := condFor(i.Op)
		return []Instr{
			&Cmp{Type: t, Src: operand(i.Src2), Dst: operand(i.Src1)},
			&Mov{Type: Longword, Src: Imm{Value: 0}, Dst: dst},
			&SetCC{Cond: cond, Dst: dst},
		}
	}

	switch i.Op {
	case ast.BinDiv, ast.BinMod:
		resultReg := RegAX
		if i.Op == ast.BinMod {
			resultReg = RegDX
		}
		return []Instr{
			&Mov{Type: t, Src: operand(i.Src1), Dst: Register{Reg: RegAX}},
			&Cdq{Type: t},
			&Idiv{Type: t, Operand: operand(i.Src2)},
			&Mov{Type: t, Src: Register{Reg: resultReg}, Dst: dst},
		}
	default:
		op := binOpFor(i.Op)
		return []Instr{
			&Mov{Type: t, Src: operand(i.Src1), Dst: dst},
			&Binary{Op: op, Type: t, Src: operand(i.Src2), Dst: dst},
		}
	}
}

func condFor(op ast.BinaryOp) CondCode {
	switch op {
	case ast.BinEq:
		return CondE
	case ast.BinNe:
		return CondNE
	case ast.BinLt:
		return CondL
	case ast.BinLe:
		return CondLE
	case ast.BinGt:
		return CondG
	case ast.BinGe:
		return CondGE
	}
	return CondE
}

func binOpFor(op ast.BinaryOp) BinaryOp {
	switch op {
	case ast.BinAdd:
		return BinAdd
	case ast.BinSub:
		return BinSub
	case ast.BinMul:
		return BinMul
	}
	return BinAdd
}

// genCall implements the Call ABI of §4.6: register args, stack args
// pushed in reverse order with 16-byte-alignment padding, then the call
// itself and result retrieval.
func (cg *Codegen) genCall(i *ir.FunctionCall) []Instr {
	var out []Instr

	regArgs := i.Args
	var stackArgs []ir.Value
	if len(i.Args) > 6 {
		regArgs = i.Args[:6]
		stackArgs = i.Args[6:]
	}

	padding := 0
	if len(stackArgs)%2 != 0 {
		padding = 8
		out = append(out, &AllocateStack{Bytes: 8})
	}

	for idx, a := range regArgs {
		out = append(out, &Mov{Type: cg.valueType(a), Src: operand(a), Dst: Register{Reg: ParamRegs[idx]}})
	}

	for idx := len(stackArgs) - 1; idx >= 0; idx-- {
		a := stackArgs[idx]
		op := operand(a)
		switch op.(type) {
		case Register, Imm:
			out = append(out, &Push{Operand: op})
		default:
			if cg.valueType(a) == Quadword {
				out = append(out, &Mov{Type: Quadword, Src: op, Dst: Register{Reg: RegAX}}, &Push{Operand: Register{Reg: RegAX}})
			} else {
				// Push always moves 8 bytes; widen a 4-byte pseudo through
				// %eax first, then push the full 8-byte register.
				out = append(out, &Mov{Type: Longword, Src: op, Dst: Register{Reg: RegAX}}, &Push{Operand: Register{Reg: RegAX}})
			}
		}
	}

	out = append(out, &Call{Name: i.Name})

	bytesToRemove := 8*len(stackArgs) + padding
	if bytesToRemove != 0 {
		out = append(out, &DeallocateStack{Bytes: bytesToRemove})
	}

	out = append(out, &Mov{Type: cg.valueType(i.Dst), Src: Register{Reg: RegAX}, Dst: operand(i.Dst)})
	return out
}
