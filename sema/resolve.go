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

import (
	"fmt"

	"minic/ast"
)

// scopeEntry is the per-identifier resolver record (§4.3.1).
type scopeEntry struct {
	newName          string
	fromCurrentScope bool
	hasLinkage       bool
}

type scope map[string]scopeEntry

func (s scope) clone() scope {
	child := make(scope, len(s))
	for name, e := range s {
		e.fromCurrentScope = false
		child[name] = e
	}
	return child
}

// Resolver threads the variable-resolution counter explicitly (§5, §9)
// rather than keeping it as package state.
type Resolver struct {
	counter int
}

// Resolve renames every identifier in prog for global uniqueness, seeded
// from counterSeed, and returns the final counter value so the IR
// generator can continue the same monotonic sequence without collisions
// (§5: "the resolver's final counter seeds the IR generator").
func Resolve(prog *ast.Program, counterSeed int) (int, error) {
	r := &Resolver{counter: counterSeed}
	fileScope := scope{}
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			if err := r.resolveFunctionDecl(d, fileScope, true); err != nil {
				return r.counter, err
			}
		case *ast.VariableDecl:
			if err := r.resolveFileVarDecl(d, fileScope); err != nil {
				return r.counter, err
			}
		}
	}
	return r.counter, nil
}

// declare registers name in sc, applying the redeclaration rule shared by
// every identifier kind: a redeclaration in the current scope is only
// legal when both the earlier and the new declaration carry linkage.
func (r *Resolver) declare(sc scope, name string, hasLinkage bool, line, col int32) (string, error) {
	if existing, ok := sc[name]; ok && existing.fromCurrentScope {
		if !(existing.hasLinkage && hasLinkage) {
			return "", conflicting(line, col, name)
		}
		sc[name] = scopeEntry{newName: existing.newName, fromCurrentScope: true, hasLinkage: true}
		return existing.newName, nil
	}
	newName := name
	if !hasLinkage {
		r.counter++
		newName = fmt.Sprintf("%s.%d", name, r.counter)
	}
	sc[name] = scopeEntry{newName: newName, fromCurrentScope: true, hasLinkage: hasLinkage}
	return newName, nil
}

func (r *Resolver) resolveFileVarDecl(vd *ast.VariableDecl, sc scope) error {
	line, col := vd.Pos()
	newName, err := r.declare(sc, vd.Name, true, line, col)
	if err != nil {
		return err
	}
	vd.Name = newName
	if vd.Init != nil {
		return r.resolveExpr(vd.Init, sc)
	}
	return nil
}

func (r *Resolver) resolveFunctionDecl(fn *ast.FunctionDecl, sc scope, atFileScope bool) error {
	line, col := fn.Pos()
	if !atFileScope {
		if fn.Body != nil {
			return nestedFunctionDefinition(line, col, fn.Name)
		}
		if fn.Storage == ast.StorageStatic {
			return staticOnNestedFunction(line, col, fn.Name)
		}
	}

	newName, err := r.declare(sc, fn.Name, true, line, col)
	if err != nil {
		return err
	}
	fn.Name = newName

	if fn.Body == nil {
		return nil
	}

	fnScope := sc.clone()
	seen := map[string]bool{}
	for i, param := range fn.Params {
		if seen[param] {
			return duplicateParameter(line, col, param)
		}
		seen[param] = true
		paramName, err := r.declare(fnScope, param, false, line, col)
		if err != nil {
			return err
		}
		fn.Params[i] = paramName
	}
	return r.resolveBlockItems(fn.Body.Items, fnScope)
}

func (r *Resolver) resolveBlockItems(items []ast.BlockItem, sc scope) error {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.VariableDecl:
			if err := r.resolveLocalVarDecl(it, sc); err != nil {
				return err
			}
		case *ast.FunctionDecl:
			if err := r.resolveFunctionDecl(it, sc, false); err != nil {
				return err
			}
		case ast.Stmt:
			if err := r.resolveStmt(it, sc); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveLocalVarDecl implements the per-storage-class rules of §4.3.1.
// extern/static local legality (e.g. "extern with initializer") is a
// TypeError checked in §4.3.2, not here.
func (r *Resolver) resolveLocalVarDecl(vd *ast.VariableDecl, sc scope) error {
	line, col := vd.Pos()
	hasLinkage := vd.Storage == ast.StorageExtern
	newName, err := r.declare(sc, vd.Name, hasLinkage, line, col)
	if err != nil {
		return err
	}
	vd.Name = newName
	if vd.Init != nil {
		return r.resolveExpr(vd.Init, sc)
	}
	return nil
}

func (r *Resolver) resolveStmt(s ast.Stmt, sc scope) error {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return r.resolveExpr(st.Value, sc)
	case *ast.ExprStmt:
		return r.resolveExpr(st.Value, sc)
	case *ast.IfStmt:
		if err := r.resolveExpr(st.Cond, sc); err != nil {
			return err
		}
		if err := r.resolveStmt(st.Then, sc); err != nil {
			return err
		}
		if st.Else != nil {
			return r.resolveStmt(st.Else, sc)
		}
		return nil
	case *ast.CompoundStmt:
		return r.resolveBlockItems(st.Body.Items, sc.clone())
	case *ast.BreakStmt, *ast.ContinueStmt, *ast.NullStmt:
		return nil
	case *ast.WhileStmt:
		if err := r.resolveExpr(st.Cond, sc); err != nil {
			return err
		}
		return r.resolveStmt(st.Body, sc)
	case *ast.DoWhileStmt:
		if err := r.resolveStmt(st.Body, sc); err != nil {
			return err
		}
		return r.resolveExpr(st.Cond, sc)
	case *ast.ForStmt:
		loopScope := sc.clone()
		if st.Init.Decl != nil {
			if err := r.resolveLocalVarDecl(st.Init.Decl, loopScope); err != nil {
				return err
			}
		} else if st.Init.Expr != nil {
			if err := r.resolveExpr(st.Init.Expr, loopScope); err != nil {
				return err
			}
		}
		if st.Cond != nil {
			if err := r.resolveExpr(st.Cond, loopScope); err != nil {
				return err
			}
		}
		if st.Post != nil {
			if err := r.resolveExpr(st.Post, loopScope); err != nil {
				return err
			}
		}
		return r.resolveStmt(st.Body, loopScope)
	default:
		return nil
	}
}

func (r *Resolver) resolveExpr(e ast.Expr, sc scope) error {
	switch ex := e.(type) {
	case *ast.ConstantExpr:
		return nil
	case *ast.VariableExpr:
		line, col := ex.Pos()
		entry, ok := sc[ex.Name]
		if !ok {
			return undeclared(line, col, ex.Name)
		}
		ex.Name = entry.newName
		return nil
	case *ast.CastExpr:
		return r.resolveExpr(ex.Inner, sc)
	case *ast.UnaryExpr:
		return r.resolveExpr(ex.Inner, sc)
	case *ast.BinaryExpr:
		if err := r.resolveExpr(ex.Left, sc); err != nil {
			return err
		}
		return r.resolveExpr(ex.Right, sc)
	case *ast.AssignExpr:
		// SPEC_FULL.md supplemented feature 1: the lvalue check the parser
		// may defer lands here.
		if _, ok := ex.Left.(*ast.VariableExpr); !ok {
			line, col := ex.Left.Pos()
			return invalidLvalueResolution(line, col)
		}
		if err := r.resolveExpr(ex.Left, sc); err != nil {
			return err
		}
		return r.resolveExpr(ex.Right, sc)
	case *ast.TernaryExpr:
		if err := r.resolveExpr(ex.Cond, sc); err != nil {
			return err
		}
		if err := r.resolveExpr(ex.Then, sc); err != nil {
			return err
		}
		return r.resolveExpr(ex.Else, sc)
	case *ast.CallExpr:
		line, col := ex.Pos()
		entry, ok := sc[ex.Callee]
		if !ok {
			return undeclared(line, col, ex.Callee)
		}
		ex.Callee = entry.newName
		for _, arg := range ex.Args {
			if err := r.resolveExpr(arg, sc); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
