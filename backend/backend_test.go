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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minic/ast"
	"minic/ir"
	"minic/sema"
)

func compileToAsm(t *testing.T, source string, platform Platform) string {
	t.Helper()
	prog, err := ast.ParseSource(source)
	require.NoError(t, err)
	counter, err := sema.Resolve(prog, 0)
	require.NoError(t, err)
	counter, err = sema.LabelLoops(prog, counter)
	require.NoError(t, err)
	symtab, err := sema.TypeCheck(prog)
	require.NoError(t, err)
	irProg, _, err := ir.Generate(prog, symtab, counter)
	require.NoError(t, err)

	asmProg := Generate(irProg, symtab)
	for _, item := range asmProg.Items {
		if fn, ok := item.(*FunctionDef); ok {
			ResolvePseudos(fn, symtab, irProg.TempTypes)
			Fixup(fn)
		}
	}
	return NewEmitter(platform).Emit(asmProg)
}

func TestCodegenSimpleReturn(t *testing.T) {
	asm := compileToAsm(t, "int main(void) { return 2; }", PlatformLinux)
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "movl $2, %eax")
	assert.Contains(t, asm, "ret")
}

func TestCodegenNoUnresolvedPseudosRemain(t *testing.T) {
	asm := compileToAsm(t, `
	int add(int a, int b) { return a + b; }
	int main(void) { return add(1, 2) - add(3, 4); }
	`, PlatformLinux)
	assert.NotContains(t, asm, "<unresolved:")
}

func TestCodegenFunctionPrologueAllocatesStack(t *testing.T) {
	asm := compileToAsm(t, "int main(void) { int a = 1; int b = 2; int c = 3; return a + b + c; }", PlatformLinux)
	assert.Contains(t, asm, "subq $")
}

func TestCodegenLongMultiplyUsesQuadword(t *testing.T) {
	asm := compileToAsm(t, "long main(void) { long x = 6; long y = 7; return x * y; }", PlatformLinux)
	assert.Contains(t, asm, "imulq")
}

func TestCodegenDarwinManglesSymbols(t *testing.T) {
	asm := compileToAsm(t, "int main(void) { return 0; }", PlatformDarwin)
	assert.Contains(t, asm, "_main:")
}

func TestCodegenLinuxCallSitesUsePLT(t *testing.T) {
	asm := compileToAsm(t, `
	int helper(void) { return 1; }
	int main(void) { return helper(); }
	`, PlatformLinux)
	assert.Contains(t, asm, "call helper@PLT")
}

func TestCodegenDarwinCallSitesHaveNoPLT(t *testing.T) {
	asm := compileToAsm(t, `
	int helper(void) { return 1; }
	int main(void) { return helper(); }
	`, PlatformDarwin)
	assert.Contains(t, asm, "call _helper")
	assert.NotContains(t, asm, "@PLT")
}

func TestCodegenStackSpilledParametersUseCorrectOffset(t *testing.T) {
	asm := compileToAsm(t, `
	int sum7(int a, int b, int c, int d, int e, int f, int g) {
		return a + b + c + d + e + f + g;
	}
	int main(void) { return sum7(1, 2, 3, 4, 5, 6, 7); }
	`, PlatformLinux)
	assert.Contains(t, asm, "16(%rbp)")
}

func TestFixupRewritesMemToMemMov(t *testing.T) {
	fn := &FunctionDef{Instructions: []Instr{
		&Mov{Type: Longword, Src: Stack{Offset: -4}, Dst: Stack{Offset: -8}},
	}}
	Fixup(fn)
	var sawScratch bool
	for _, in := range fn.Instructions {
		if mov, ok := in.(*Mov); ok {
			if reg, ok := mov.Dst.(Register); ok && reg.Reg == ScratchR10 {
				sawScratch = true
			}
		}
	}
	assert.True(t, sawScratch, "a memory-to-memory Mov must be split through %r10")
}

func TestFixupAddsPrologueAllocateStack(t *testing.T) {
	fn := &FunctionDef{StackSize: 20, Instructions: []Instr{&Ret{}}}
	Fixup(fn)
	alloc, ok := fn.Instructions[0].(*AllocateStack)
	require.True(t, ok)
	assert.Equal(t, 32, alloc.Bytes)
}

func TestFixupIdivRejectsImmediateOperand(t *testing.T) {
	fn := &FunctionDef{Instructions: []Instr{
		&Idiv{Type: Longword, Operand: Imm{Value: 3}},
	}}
	Fixup(fn)
	for _, in := range fn.Instructions {
		if idiv, ok := in.(*Idiv); ok {
			_, isImm := idiv.Operand.(Imm)
			assert.False(t, isImm, "idiv can never take an immediate operand")
		}
	}
}

func TestEmitLinuxTrailerPresent(t *testing.T) {
	e := NewEmitter(PlatformLinux)
	out := e.Emit(&Program{Items: []TopLevel{&FunctionDef{Name: "main", Global: true, Instructions: []Instr{&Ret{}}}}})
	assert.True(t, strings.Contains(out, ".note.GNU-stack"))
}

func TestEmitDarwinNoTrailer(t *testing.T) {
	e := NewEmitter(PlatformDarwin)
	out := e.Emit(&Program{Items: []TopLevel{&FunctionDef{Name: "main", Global: true, Instructions: []Instr{&Ret{}}}}})
	assert.False(t, strings.Contains(out, ".note.GNU-stack"))
}
