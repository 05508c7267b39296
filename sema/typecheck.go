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
package sema

import "minic/ast"

// TypeChecker builds the flat symbol table in a single walk (§4.3.2). A
// flat table (no per-scope nesting) is sound here because the resolver has
// already made every non-linked identifier globally unique; linked
// identifiers (file-scope vars, functions) keep one name throughout the
// translation unit.
type TypeChecker struct {
	symtab *SymbolTable
}

func TypeCheck(prog *ast.Program) (*SymbolTable, error) {
	tc := &TypeChecker{symtab: NewSymbolTable()}
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			if err := tc.checkFunctionDecl(d, true); err != nil {
				return nil, err
			}
		case *ast.VariableDecl:
			if err := tc.checkFileVarDecl(d); err != nil {
				return nil, err
			}
		}
	}
	return tc.symtab, nil
}

func (tc *TypeChecker) checkFunctionDecl(fn *ast.FunctionDecl, atFileScope bool) error {
	line, col := fn.Pos()
	global := fn.Storage != ast.StorageStatic

	if existing, ok := tc.symtab.Lookup(fn.Name); ok {
		if existing.Attr.Kind != AttrFunction || !existing.Type.Equal(fn.FnType) {
			return incompatibleRedeclaration(line, col, fn.Name)
		}
		if fn.Body != nil && existing.Attr.Defined {
			return functionRedefined(line, col, fn.Name)
		}
		if fn.Storage == ast.StorageStatic && existing.Attr.Global {
			return linkageConflict(line, col, fn.Name)
		}
		// A non-static redeclaration inherits whatever linkage was
		// established earlier; a static one keeps global=false (already
		// validated above not to follow a non-static declaration).
		global = existing.Attr.Global
		if fn.Storage == ast.StorageStatic {
			global = false
		}
		defined := existing.Attr.Defined || fn.Body != nil
		tc.symtab.Set(fn.Name, &Symbol{Type: fn.FnType, Attr: IdentifierAttribute{Kind: AttrFunction, Defined: defined, Global: global}})
	} else {
		tc.symtab.Set(fn.Name, &Symbol{Type: fn.FnType, Attr: IdentifierAttribute{Kind: AttrFunction, Defined: fn.Body != nil, Global: global}})
	}

	if fn.Body == nil {
		return nil
	}
	for i, param := range fn.Params {
		tc.symtab.Set(param, &Symbol{Type: fn.FnType.Params[i], Attr: IdentifierAttribute{Kind: AttrLocal}})
	}
	return tc.checkBlock(fn.Body, fn.FnType.ReturnType)
}

func (tc *TypeChecker) checkBlock(block *ast.Block, returnType *ast.Type) error {
	for _, item := range block.Items {
		switch it := item.(type) {
		case *ast.VariableDecl:
			if err := tc.checkLocalVarDecl(it); err != nil {
				return err
			}
		case *ast.FunctionDecl:
			if err := tc.checkFunctionDecl(it, false); err != nil {
				return err
			}
		case ast.Stmt:
			if err := tc.checkStmt(it, returnType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tc *TypeChecker) checkLocalVarDecl(vd *ast.VariableDecl) error {
	line, col := vd.Pos()
	switch vd.Storage {
	case ast.StorageExtern:
		if vd.Init != nil {
			return externLocalInitializer(line, col, vd.Name)
		}
		if existing, ok := tc.symtab.Lookup(vd.Name); ok {
			if !existing.Type.Equal(vd.VarType) {
				return incompatibleRedeclaration(line, col, vd.Name)
			}
			return nil
		}
		tc.symtab.Set(vd.Name, &Symbol{Type: vd.VarType, Attr: IdentifierAttribute{
			Kind: AttrStatic, Global: true, Initial: InitialValue{Kind: NoInitializer},
		}})
		return nil

	case ast.StorageStatic:
		init := InitialValue{Kind: Initial, Const: StaticInit{}}
		if vd.Init != nil {
			c, ok := constantOf(vd.Init)
			if !ok {
				return nonConstantStaticInit(line, col, vd.Name)
			}
			init.Const = StaticInitFromConstant(widenConstant(c, vd.VarType))
		}
		tc.symtab.Set(vd.Name, &Symbol{Type: vd.VarType, Attr: IdentifierAttribute{
			Kind: AttrStatic, Global: false, Initial: init,
		}})
		if vd.Init != nil {
			return tc.checkExpr(vd.Init)
		}
		return nil

	default:
		tc.symtab.Set(vd.Name, &Symbol{Type: vd.VarType, Attr: IdentifierAttribute{Kind: AttrLocal}})
		if vd.Init != nil {
			return tc.checkExpr(vd.Init)
		}
		return nil
	}
}

func (tc *TypeChecker) checkFileVarDecl(vd *ast.VariableDecl) error {
	line, col := vd.Pos()
	var newInit InitialValue
	if vd.Init != nil {
		c, ok := constantOf(vd.Init)
		if !ok {
			return nonConstantStaticInit(line, col, vd.Name)
		}
		newInit = InitialValue{Kind: Initial, Const: StaticInitFromConstant(widenConstant(c, vd.VarType))}
	} else if vd.Storage == ast.StorageExtern {
		newInit = InitialValue{Kind: NoInitializer}
	} else {
		newInit = InitialValue{Kind: Tentative}
	}
	global := vd.Storage != ast.StorageStatic

	if existing, ok := tc.symtab.Lookup(vd.Name); ok {
		if existing.Attr.Kind != AttrStatic || !existing.Type.Equal(vd.VarType) {
			return incompatibleRedeclaration(line, col, vd.Name)
		}
		if vd.Storage == ast.StorageExtern {
			global = existing.Attr.Global
		} else if global != existing.Attr.Global {
			return linkageConflict(line, col, vd.Name)
		}
		exInit := existing.Attr.Initial
		switch {
		case exInit.Kind == Initial && newInit.Kind == Initial:
			return conflictingInitializer(line, col, vd.Name)
		case exInit.Kind == Initial:
			newInit = exInit
		case newInit.Kind == Initial:
			// keep newInit
		case exInit.Kind == Tentative || newInit.Kind == Tentative:
			newInit = InitialValue{Kind: Tentative}
		}
	}

	tc.symtab.Set(vd.Name, &Symbol{Type: vd.VarType, Attr: IdentifierAttribute{
		Kind: AttrStatic, Global: global, Initial: newInit,
	}})
	return nil
}

func (tc *TypeChecker) checkStmt(s ast.Stmt, returnType *ast.Type) error {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return tc.checkExpr(st.Value)
	case *ast.ExprStmt:
		return tc.checkExpr(st.Value)
	case *ast.IfStmt:
		if err := tc.checkExpr(st.Cond); err != nil {
			return err
		}
		if err := tc.checkStmt(st.Then, returnType); err != nil {
			return err
		}
		if st.Else != nil {
			return tc.checkStmt(st.Else, returnType)
		}
		return nil
	case *ast.CompoundStmt:
		return tc.checkBlock(st.Body, returnType)
	case *ast.BreakStmt, *ast.ContinueStmt, *ast.NullStmt:
		return nil
	case *ast.WhileStmt:
		if err := tc.checkExpr(st.Cond); err != nil {
			return err
		}
		return tc.checkStmt(st.Body, returnType)
	case *ast.DoWhileStmt:
		if err := tc.checkStmt(st.Body, returnType); err != nil {
			return err
		}
		return tc.checkExpr(st.Cond)
	case *ast.ForStmt:
		if st.Init.Decl != nil {
			line, col := st.Init.Decl.Pos()
			if st.Init.Decl.Storage != ast.StorageNone {
				return storageClassInForInit(line, col)
			}
			if err := tc.checkLocalVarDecl(st.Init.Decl); err != nil {
				return err
			}
		} else if st.Init.Expr != nil {
			if err := tc.checkExpr(st.Init.Expr); err != nil {
				return err
			}
		}
		if st.Cond != nil {
			if err := tc.checkExpr(st.Cond); err != nil {
				return err
			}
		}
		if st.Post != nil {
			if err := tc.checkExpr(st.Post); err != nil {
				return err
			}
		}
		return tc.checkStmt(st.Body, returnType)
	default:
		return nil
	}
}

func (tc *TypeChecker) checkExpr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.ConstantExpr:
		ex.SetExprType(ex.Value.Type())
		return nil

	case *ast.VariableExpr:
		line, col := ex.Pos()
		sym, ok := tc.symtab.Lookup(ex.Name)
		if !ok {
			return undeclared(line, col, ex.Name)
		}
		if sym.Attr.Kind == AttrFunction {
			return functionUsedAsVariable(line, col, ex.Name)
		}
		ex.SetExprType(sym.Type)
		return nil

	case *ast.CastExpr:
		if err := tc.checkExpr(ex.Inner); err != nil {
			return err
		}
		ex.SetExprType(ex.Target)
		return nil

	case *ast.UnaryExpr:
		if err := tc.checkExpr(ex.Inner); err != nil {
			return err
		}
		if ex.Op == ast.UnaryNot {
			ex.SetExprType(ast.IntType)
		} else {
			ex.SetExprType(ex.Inner.ExprType())
		}
		return nil

	case *ast.BinaryExpr:
		if err := tc.checkExpr(ex.Left); err != nil {
			return err
		}
		if err := tc.checkExpr(ex.Right); err != nil {
			return err
		}
		if ex.Op.IsRelational() || ex.Op == ast.BinAnd || ex.Op == ast.BinOr {
			ex.SetExprType(ast.IntType)
		} else {
			ex.SetExprType(ast.CommonType(ex.Left.ExprType(), ex.Right.ExprType()))
		}
		return nil

	case *ast.AssignExpr:
		if err := tc.checkExpr(ex.Left); err != nil {
			return err
		}
		if err := tc.checkExpr(ex.Right); err != nil {
			return err
		}
		ex.SetExprType(ex.Left.ExprType())
		return nil

	case *ast.TernaryExpr:
		if err := tc.checkExpr(ex.Cond); err != nil {
			return err
		}
		if err := tc.checkExpr(ex.Then); err != nil {
			return err
		}
		if err := tc.checkExpr(ex.Else); err != nil {
			return err
		}
		ex.SetExprType(ast.CommonType(ex.Then.ExprType(), ex.Else.ExprType()))
		return nil

	case *ast.CallExpr:
		line, col := ex.Pos()
		sym, ok := tc.symtab.Lookup(ex.Callee)
		if !ok {
			return undeclared(line, col, ex.Callee)
		}
		if sym.Attr.Kind != AttrFunction {
			return variableUsedAsFunction(line, col, ex.Callee)
		}
		if len(ex.Args) != len(sym.Type.Params) {
			return badArgumentCount(line, col, ex.Callee, len(sym.Type.Params), len(ex.Args))
		}
		for _, arg := range ex.Args {
			if err := tc.checkExpr(arg); err != nil {
				return err
			}
		}
		ex.SetExprType(sym.Type.ReturnType)
		return nil

	default:
		return nil
	}
}

// constantOf implements SPEC_FULL.md supplemented feature 5: a constant
// expression for static-initializer purposes is a possibly-negated integer
// constant, nothing richer.
func constantOf(e ast.Expr) (ast.Constant, bool) {
	switch ex := e.(type) {
	case *ast.ConstantExpr:
		return ex.Value, true
	case *ast.UnaryExpr:
		if ex.Op != ast.UnaryNegate {
			return ast.Constant{}, false
		}
		inner, ok := constantOf(ex.Inner)
		if !ok {
			return ast.Constant{}, false
		}
		if inner.Kind == ast.ConstLong {
			return ast.Constant{Kind: ast.ConstLong, LongVal: -inner.LongVal}, true
		}
		return ast.Constant{Kind: ast.ConstInt, IntVal: -inner.IntVal}, true
	default:
		return ast.Constant{}, false
	}
}

func widenConstant(c ast.Constant, target *ast.Type) ast.Constant {
	if target.Kind == ast.TypeLong {
		if c.Kind == ast.ConstLong {
			return c
		}
		return ast.Constant{Kind: ast.ConstLong, LongVal: int64(c.IntVal)}
	}
	if c.Kind == ast.ConstInt {
		return c
	}
	return ast.Constant{Kind: ast.ConstInt, IntVal: int32(c.LongVal)}
}
