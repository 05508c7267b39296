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
package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minic/ast"
	"minic/sema"
)

func genProgram(t *testing.T, source string) *Program {
	t.Helper()
	prog, err := ast.ParseSource(source)
	require.NoError(t, err)
	counter, err := sema.Resolve(prog, 0)
	require.NoError(t, err)
	counter, err = sema.LabelLoops(prog, counter)
	require.NoError(t, err)
	symtab, err := sema.TypeCheck(prog)
	require.NoError(t, err)
	irProg, _, err := Generate(prog, symtab, counter)
	require.NoError(t, err)
	return irProg
}

func findFunction(t *testing.T, prog *Program, name string) *FunctionDefinition {
	t.Helper()
	for _, item := range prog.Items {
		if fn, ok := item.(*FunctionDefinition); ok && fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestGenerateImplicitTrailingReturn(t *testing.T) {
	prog := genProgram(t, "int main(void) { int x = 1; }")
	fn := findFunction(t, prog, "main")
	last := fn.Body[len(fn.Body)-1]
	ret, ok := last.(*Return)
	require.True(t, ok)
	assert.True(t, ret.Value.IsConstant())
	assert.Equal(t, int64(0), ret.Value.Const.AsInt64())
}

func TestGenerateBinaryExprLowersToOneInstr(t *testing.T) {
	prog := genProgram(t, "int main(void) { return 2 + 3; }")
	fn := findFunction(t, prog, "main")
	found := false
	count := 0
	for _, instr := range fn.Body {
		if b, ok := instr.(*Binary); ok {
			assert.Equal(t, ast.BinAdd, b.Op)
			found = true
			count++
		}
	}
	assert.True(t, found)
	assert.Equal(t, 1, count)
}

func TestGenerateReturnConvertsIntToLong(t *testing.T) {
	prog := genProgram(t, "long f(void) { int x = 5; return x; }")
	fn := findFunction(t, prog, "f")
	found := false
	for _, instr := range fn.Body {
		if _, ok := instr.(*SignExtend); ok {
			found = true
		}
	}
	assert.True(t, found, "expected a SignExtend inserted at the return")
}

func TestGenerateCallArgumentConvertedToParamType(t *testing.T) {
	prog := genProgram(t, `
	long twice(long x) { return x + x; }
	int main(void) { int y = 3; return twice(y); }
	`)
	fn := findFunction(t, prog, "main")
	sawSext := false
	for _, instr := range fn.Body {
		if _, ok := instr.(*SignExtend); ok {
			sawSext = true
		}
	}
	assert.True(t, sawSext, "argument of type int passed where long expected should be sign-extended")
}

func TestGenerateLogicalAndShortCircuits(t *testing.T) {
	prog := genProgram(t, "int main(void) { return 1 && 0; }")
	fn := findFunction(t, prog, "main")
	sawJumpIfZero := false
	for _, instr := range fn.Body {
		if _, ok := instr.(*JumpIfZero); ok {
			sawJumpIfZero = true
		}
	}
	assert.True(t, sawJumpIfZero)
}

func TestGenerateStaticVariableTentativeIsZero(t *testing.T) {
	prog := genProgram(t, "static int counter; int main(void) { return counter; }")
	var sv *StaticVariable
	for _, item := range prog.Items {
		if s, ok := item.(*StaticVariable); ok && s.Name == "counter" {
			sv = s
		}
	}
	require.NotNil(t, sv)
	assert.Equal(t, int32(0), sv.Initial.IntVal)
}

func TestGenerateFunctionCallLowersArgsInOrder(t *testing.T) {
	prog := genProgram(t, `
	int add(int a, int b) { return a + b; }
	int main(void) { return add(1, 2); }
	`)
	fn := findFunction(t, prog, "main")
	var call *FunctionCall
	for _, instr := range fn.Body {
		if c, ok := instr.(*FunctionCall); ok {
			call = c
		}
	}
	require.NotNil(t, call)
	require.Len(t, call.Args, 2)
	assert.Equal(t, int64(1), call.Args[0].Const.AsInt64())
	assert.Equal(t, int64(2), call.Args[1].Const.AsInt64())
}
