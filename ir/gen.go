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
	"fmt"
	"sort"

	"minic/ast"
	"minic/sema"
)

// Generator lowers the typed, labeled AST into linear IR (§4.4). Its
// temporary counter is seeded from the resolver's final counter (§5, §9)
// so that IR temporaries (`tmp.<n>`) and resolver-renamed locals never
// collide.
type Generator struct {
	symtab     *sema.SymbolTable
	counter    int
	tempTypes  map[string]*ast.Type
	returnType *ast.Type
}

// Generate runs the IR generator over every function definition in prog
// and appends a StaticVariable item for each Static symbol in symtab
// (§4.4's "Static variables" paragraph).
func Generate(prog *ast.Program, symtab *sema.SymbolTable, counterSeed int) (*Program, int, error) {
	g := &Generator{symtab: symtab, counter: counterSeed, tempTypes: map[string]*ast.Type{}}
	irProg := &Program{}

	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		fnDef, err := g.genFunction(fn)
		if err != nil {
			return nil, g.counter, err
		}
		irProg.Items = append(irProg.Items, fnDef)
	}

	names := symtab.Names()
	sort.Strings(names)
	for _, name := range names {
		sym, _ := symtab.Lookup(name)
		if sym.Attr.Kind != sema.AttrStatic {
			continue
		}
		switch sym.Attr.Initial.Kind {
		case sema.NoInitializer:
			continue // extern, defined elsewhere
		case sema.Tentative:
			irProg.Items = append(irProg.Items, &StaticVariable{
				Name: name, Global: sym.Attr.Global, VarType: sym.Type, Initial: sema.StaticInit{IsLong: sym.Type.Kind == ast.TypeLong},
			})
		case sema.Initial:
			irProg.Items = append(irProg.Items, &StaticVariable{
				Name: name, Global: sym.Attr.Global, VarType: sym.Type, Initial: sym.Attr.Initial.Const,
			})
		}
	}

	irProg.TempTypes = g.tempTypes
	return irProg, g.counter, nil
}

func (g *Generator) freshTemp(t *ast.Type) Value {
	g.counter++
	name := fmt.Sprintf("tmp.%d", g.counter)
	g.tempTypes[name] = t
	return VarValue(name)
}

// convert emits the implicit SignExtend/Truncate §3 "assignment and return
// convert to the target type" requires whenever from and to disagree; the
// spec's instruction-synthesis rules assume matching-width operands by the
// time a Binary/Return/Copy/FunctionCall reaches the IR, so the generator
// inserts the conversion itself rather than relying on an explicit AST
// CastExpr.
func (g *Generator) convert(v Value, from, to *ast.Type, out *[]Instr) Value {
	if from == nil || to == nil || from.Kind == to.Kind {
		return v
	}
	dst := g.freshTemp(to)
	if to.Kind == ast.TypeLong && from.Kind == ast.TypeInt {
		*out = append(*out, &SignExtend{Src: v, Dst: dst})
	} else {
		*out = append(*out, &Truncate{Src: v, Dst: dst})
	}
	return dst
}

func (g *Generator) freshLabel(prefix string) string {
	g.counter++
	return fmt.Sprintf("%s.%d", prefix, g.counter)
}

func (g *Generator) genFunction(fn *ast.FunctionDecl) (*FunctionDefinition, error) {
	sym, _ := g.symtab.Lookup(fn.Name)
	g.returnType = fn.FnType.ReturnType
	var body []Instr
	for _, item := range fn.Body.Items {
		if err := g.genBlockItem(item, &body); err != nil {
			return nil, err
		}
	}
	// Every function falls through to an implicit `return 0` if control
	// reaches the closing brace, matching the undefined-but-conventional
	// behavior gcc/clang emit for a missing return; this also guarantees
	// the backend always sees a well-formed terminator.
	zero := ConstValue(zeroOf(fn.FnType.ReturnType))
	body = append(body, &Return{Value: zero})

	return &FunctionDefinition{Name: fn.Name, Global: sym.Attr.Global, Parameters: fn.Params, Body: body}, nil
}

func zeroOf(t *ast.Type) ast.Constant {
	if t.Kind == ast.TypeLong {
		return ast.Constant{Kind: ast.ConstLong}
	}
	return ast.Constant{Kind: ast.ConstInt}
}

func (g *Generator) genBlockItem(item ast.BlockItem, out *[]Instr) error {
	switch it := item.(type) {
	case *ast.VariableDecl:
		return g.genLocalVarDecl(it, out)
	case *ast.FunctionDecl:
		return nil // nested prototype: nothing to lower
	case ast.Stmt:
		return g.genStmt(it, out)
	default:
		return nil
	}
}

// genLocalVarDecl only emits code for automatic-storage locals; static
// locals are initialized once at program load via the StaticVariable item
// emitted in Generate, and extern locals have no definition in this
// translation unit.
func (g *Generator) genLocalVarDecl(vd *ast.VariableDecl, out *[]Instr) error {
	sym, _ := g.symtab.Lookup(vd.Name)
	if sym.Attr.Kind != sema.AttrLocal || vd.Init == nil {
		return nil
	}
	v, err := g.genExpr(vd.Init, out)
	if err != nil {
		return err
	}
	v = g.convert(v, vd.Init.ExprType(), vd.VarType, out)
	*out = append(*out, &Copy{Src: v, Dst: VarValue(vd.Name)})
	return nil
}

func (g *Generator) genStmt(s ast.Stmt, out *[]Instr) error {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		v, err := g.genExpr(st.Value, out)
		if err != nil {
			return err
		}
		v = g.convert(v, st.Value.ExprType(), g.returnType, out)
		*out = append(*out, &Return{Value: v})
		return nil

	case *ast.ExprStmt:
		_, err := g.genExpr(st.Value, out)
		return err

	case *ast.IfStmt:
		cond, err := g.genExpr(st.Cond, out)
		if err != nil {
			return err
		}
		if st.Else == nil {
			endLbl := g.freshLabel("if_end")
			*out = append(*out, &JumpIfZero{Cond: cond, Label: endLbl})
			if err := g.genStmt(st.Then, out); err != nil {
				return err
			}
			*out = append(*out, &LabelInstr{Name: endLbl})
			return nil
		}
		elseLbl := g.freshLabel("if_else")
		endLbl := g.freshLabel("if_end")
		*out = append(*out, &JumpIfZero{Cond: cond, Label: elseLbl})
		if err := g.genStmt(st.Then, out); err != nil {
			return err
		}
		*out = append(*out, &Jump{Label: endLbl}, &LabelInstr{Name: elseLbl})
		if err := g.genStmt(st.Else, out); err != nil {
			return err
		}
		*out = append(*out, &LabelInstr{Name: endLbl})
		return nil

	case *ast.CompoundStmt:
		for _, item := range st.Body.Items {
			if err := g.genBlockItem(item, out); err != nil {
				return err
			}
		}
		return nil

	case *ast.BreakStmt:
		*out = append(*out, &Jump{Label: "break_" + st.Label})
		return nil

	case *ast.ContinueStmt:
		*out = append(*out, &Jump{Label: "continue_" + st.Label})
		return nil

	case *ast.NullStmt:
		return nil

	case *ast.WhileStmt:
		contLbl := "continue_" + st.Label
		breakLbl := "break_" + st.Label
		*out = append(*out, &LabelInstr{Name: contLbl})
		cond, err := g.genExpr(st.Cond, out)
		if err != nil {
			return err
		}
		*out = append(*out, &JumpIfZero{Cond: cond, Label: breakLbl})
		if err := g.genStmt(st.Body, out); err != nil {
			return err
		}
		*out = append(*out, &Jump{Label: contLbl}, &LabelInstr{Name: breakLbl})
		return nil

	case *ast.DoWhileStmt:
		startLbl := "start_" + st.Label
		contLbl := "continue_" + st.Label
		breakLbl := "break_" + st.Label
		*out = append(*out, &LabelInstr{Name: startLbl})
		if err := g.genStmt(st.Body, out); err != nil {
			return err
		}
		*out = append(*out, &LabelInstr{Name: contLbl})
		cond, err := g.genExpr(st.Cond, out)
		if err != nil {
			return err
		}
		*out = append(*out, &JumpIfNotZero{Cond: cond, Label: startLbl}, &LabelInstr{Name: breakLbl})
		return nil

	case *ast.ForStmt:
		startLbl := "start_" + st.Label
		contLbl := "continue_" + st.Label
		breakLbl := "break_" + st.Label
		if st.Init.Decl != nil {
			if err := g.genLocalVarDecl(st.Init.Decl, out); err != nil {
				return err
			}
		} else if st.Init.Expr != nil {
			if _, err := g.genExpr(st.Init.Expr, out); err != nil {
				return err
			}
		}
		*out = append(*out, &LabelInstr{Name: startLbl})
		if st.Cond != nil {
			cond, err := g.genExpr(st.Cond, out)
			if err != nil {
				return err
			}
			*out = append(*out, &JumpIfZero{Cond: cond, Label: breakLbl})
		}
		if err := g.genStmt(st.Body, out); err != nil {
			return err
		}
		*out = append(*out, &LabelInstr{Name: contLbl})
		if st.Post != nil {
			if _, err := g.genExpr(st.Post, out); err != nil {
				return err
			}
		}
		*out = append(*out, &Jump{Label: startLbl}, &LabelInstr{Name: breakLbl})
		return nil

	default:
		return nil
	}
}

func (g *Generator) genExpr(e ast.Expr, out *[]Instr) (Value, error) {
	switch ex := e.(type) {
	case *ast.ConstantExpr:
		return ConstValue(ex.Value), nil

	case *ast.VariableExpr:
		return VarValue(ex.Name), nil

	case *ast.CastExpr:
		src, err := g.genExpr(ex.Inner, out)
		if err != nil {
			return Value{}, err
		}
		dst := g.freshTemp(ex.Target)
		srcType := ex.Inner.ExprType()
		switch {
		case ex.Target.Kind == ast.TypeLong && srcType.Kind == ast.TypeInt:
			*out = append(*out, &SignExtend{Src: src, Dst: dst})
		case ex.Target.Kind == ast.TypeInt && srcType.Kind == ast.TypeLong:
			*out = append(*out, &Truncate{Src: src, Dst: dst})
		default:
			*out = append(*out, &Copy{Src: src, Dst: dst})
		}
		return dst, nil

	case *ast.UnaryExpr:
		src, err := g.genExpr(ex.Inner, out)
		if err != nil {
			return Value{}, err
		}
		dst := g.freshTemp(ex.ExprType())
		*out = append(*out, &Unary{Op: ex.Op, Src: src, Dst: dst})
		return dst, nil

	case *ast.BinaryExpr:
		if ex.Op == ast.BinAnd {
			return g.genLogicalAnd(ex, out)
		}
		if ex.Op == ast.BinOr {
			return g.genLogicalOr(ex, out)
		}
		l, err := g.genExpr(ex.Left, out)
		if err != nil {
			return Value{}, err
		}
		r, err := g.genExpr(ex.Right, out)
		if err != nil {
			return Value{}, err
		}
		common := ast.CommonType(ex.Left.ExprType(), ex.Right.ExprType())
		l = g.convert(l, ex.Left.ExprType(), common, out)
		r = g.convert(r, ex.Right.ExprType(), common, out)
		dst := g.freshTemp(ex.ExprType())
		*out = append(*out, &Binary{Op: ex.Op, Src1: l, Src2: r, Dst: dst})
		return dst, nil

	case *ast.AssignExpr:
		lhs := ex.Left.(*ast.VariableExpr)
		v := VarValue(lhs.Name)
		s, err := g.genExpr(ex.Right, out)
		if err != nil {
			return Value{}, err
		}
		s = g.convert(s, ex.Right.ExprType(), ex.Left.ExprType(), out)
		*out = append(*out, &Copy{Src: s, Dst: v})
		return v, nil

	case *ast.TernaryExpr:
		elseLbl := g.freshLabel("tern_else")
		endLbl := g.freshLabel("tern_end")
		dst := g.freshTemp(ex.ExprType())
		cond, err := g.genExpr(ex.Cond, out)
		if err != nil {
			return Value{}, err
		}
		*out = append(*out, &JumpIfZero{Cond: cond, Label: elseLbl})
		thenVal, err := g.genExpr(ex.Then, out)
		if err != nil {
			return Value{}, err
		}
		thenVal = g.convert(thenVal, ex.Then.ExprType(), ex.ExprType(), out)
		*out = append(*out, &Copy{Src: thenVal, Dst: dst}, &Jump{Label: endLbl}, &LabelInstr{Name: elseLbl})
		elseVal, err := g.genExpr(ex.Else, out)
		if err != nil {
			return Value{}, err
		}
		elseVal = g.convert(elseVal, ex.Else.ExprType(), ex.ExprType(), out)
		*out = append(*out, &Copy{Src: elseVal, Dst: dst}, &LabelInstr{Name: endLbl})
		return dst, nil

	case *ast.CallExpr:
		calleeSym, _ := g.symtab.Lookup(ex.Callee)
		args := make([]Value, len(ex.Args))
		for i, a := range ex.Args {
			v, err := g.genExpr(a, out)
			if err != nil {
				return Value{}, err
			}
			if calleeSym != nil && i < len(calleeSym.Type.Params) {
				v = g.convert(v, a.ExprType(), calleeSym.Type.Params[i], out)
			}
			args[i] = v
		}
		dst := g.freshTemp(ex.ExprType())
		*out = append(*out, &FunctionCall{Name: ex.Callee, Args: args, Dst: dst})
		return dst, nil

	default:
		return Value{}, fmt.Errorf("ir: unreachable expression kind %T", e)
	}
}

func (g *Generator) genLogicalAnd(ex *ast.BinaryExpr, out *[]Instr) (Value, error) {
	falseLbl := g.freshLabel("and_false")
	endLbl := g.freshLabel("and_end")
	r := g.freshTemp(ast.IntType)
	l, err := g.genExpr(ex.Left, out)
	if err != nil {
		return Value{}, err
	}
	*out = append(*out, &JumpIfZero{Cond: l, Label: falseLbl})
	right, err := g.genExpr(ex.Right, out)
	if err != nil {
		return Value{}, err
	}
	*out = append(*out, &JumpIfZero{Cond: right, Label: falseLbl})
	*out = append(*out, &Copy{Src: ConstValue(ast.Constant{Kind: ast.ConstInt, IntVal: 1}), Dst: r})
	*out = append(*out, &Jump{Label: endLbl}, &LabelInstr{Name: falseLbl})
	*out = append(*out, &Copy{Src: ConstValue(ast.Constant{Kind: ast.ConstInt}), Dst: r})
	*out = append(*out, &LabelInstr{Name: endLbl})
	return r, nil
}

func (g *Generator) genLogicalOr(ex *ast.BinaryExpr, out *[]Instr) (Value, error) {
	trueLbl := g.freshLabel("or_true")
	endLbl := g.freshLabel("or_end")
	r := g.freshTemp(ast.IntType)
	l, err := g.genExpr(ex.Left, out)
	if err != nil {
		return Value{}, err
	}
	*out = append(*out, &JumpIfNotZero{Cond: l, Label: trueLbl})
	right, err := g.genExpr(ex.Right, out)
	if err != nil {
		return Value{}, err
	}
	*out = append(*out, &JumpIfNotZero{Cond: right, Label: trueLbl})
	*out = append(*out, &Copy{Src: ConstValue(ast.Constant{Kind: ast.ConstInt}), Dst: r})
	*out = append(*out, &Jump{Label: endLbl}, &LabelInstr{Name: trueLbl})
	*out = append(*out, &Copy{Src: ConstValue(ast.Constant{Kind: ast.ConstInt, IntVal: 1}), Dst: r})
	*out = append(*out, &LabelInstr{Name: endLbl})
	return r, nil
}
