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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOneFunc(t *testing.T, source string) *FunctionDecl {
	t.Helper()
	prog, err := ParseSource(source)
	require.NoError(t, err)
	require.Len(t, prog.Decls, 1)
	fn, ok := prog.Decls[0].(*FunctionDecl)
	require.True(t, ok)
	return fn
}

func TestParseMinimalFunction(t *testing.T) {
	fn := parseOneFunc(t, "int main(void) { return 2; }")
	assert.Equal(t, "main", fn.Name)
	assert.Equal(t, TypeInt, fn.FnType.ReturnType.Kind)
	require.Len(t, fn.Body.Items, 1)
	ret, ok := fn.Body.Items[0].(*ReturnStmt)
	require.True(t, ok)
	c, ok := ret.Value.(*ConstantExpr)
	require.True(t, ok)
	assert.Equal(t, int32(2), c.Value.IntVal)
}

func TestParseBinaryPrecedence(t *testing.T) {
	fn := parseOneFunc(t, "int main(void) { return 2 + 3 * 4; }")
	ret := fn.Body.Items[0].(*ReturnStmt)
	top, ok := ret.Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BinAdd, top.Op)
	_, leftIsConst := top.Left.(*ConstantExpr)
	assert.True(t, leftIsConst)
	mul, ok := top.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BinMul, mul.Op)
}

func TestParseFunctionCallArgs(t *testing.T) {
	fn := parseOneFunc(t, "int main(void) { return add(1, 2); }")
	ret := fn.Body.Items[0].(*ReturnStmt)
	call, ok := ret.Value.(*CallExpr)
	require.True(t, ok)
	assert.Equal(t, "add", call.Callee)
	assert.Len(t, call.Args, 2)
}

func TestParseForLoop(t *testing.T) {
	fn := parseOneFunc(t, `int main(void) {
		int sum = 0;
		for (int i = 0; i < 5; i = i + 1) sum = sum + i;
		return sum;
	}`)
	require.Len(t, fn.Body.Items, 3)
	forStmt, ok := fn.Body.Items[1].(*ForStmt)
	require.True(t, ok)
	require.NotNil(t, forStmt.Init.Decl)
	assert.Equal(t, "i", forStmt.Init.Decl.Name)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Post)
}

func TestParseCompoundAssignmentDesugars(t *testing.T) {
	fn := parseOneFunc(t, "int main(void) { int x = 1; x += 2; return x; }")
	stmt, ok := fn.Body.Items[1].(*ExprStmt)
	require.True(t, ok)
	assign, ok := stmt.Value.(*AssignExpr)
	require.True(t, ok)
	rhs, ok := assign.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BinAdd, rhs.Op)
}

func TestParseTernary(t *testing.T) {
	fn := parseOneFunc(t, "int main(void) { return 1 ? 2 : 3; }")
	ret := fn.Body.Items[0].(*ReturnStmt)
	_, ok := ret.Value.(*TernaryExpr)
	assert.True(t, ok)
}

func TestParseInvalidAssignmentTargetIsRejected(t *testing.T) {
	_, err := ParseSource("int main(void) { 1 = 2; return 0; }")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, InvalidLvalue, perr.Kind)
}

func TestParseMultipleStorageClassesRejected(t *testing.T) {
	_, err := ParseSource("static extern int x;")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, InvalidStorageClass, perr.Kind)
}

func TestParseLongDeclaration(t *testing.T) {
	fn := parseOneFunc(t, "long main(void) { long x = 42l; return x; }")
	assert.Equal(t, TypeLong, fn.FnType.ReturnType.Kind)
	vd, ok := fn.Body.Items[0].(*VariableDecl)
	require.True(t, ok)
	assert.Equal(t, TypeLong, vd.VarType.Kind)
}
