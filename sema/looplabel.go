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

// LoopLabeler attaches a unique label to every loop and to every break/
// continue inside it (§4.3.3).
type LoopLabeler struct {
	counter int
}

func LabelLoops(prog *ast.Program, counterSeed int) (int, error) {
	ll := &LoopLabeler{counter: counterSeed}
	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		if err := ll.labelBlock(fn.Body, ""); err != nil {
			return ll.counter, err
		}
	}
	return ll.counter, nil
}

func (ll *LoopLabeler) labelBlock(block *ast.Block, current string) error {
	for _, item := range block.Items {
		stmt, ok := item.(ast.Stmt)
		if !ok {
			continue
		}
		if err := ll.labelStmt(stmt, current); err != nil {
			return err
		}
	}
	return nil
}

func (ll *LoopLabeler) freshLabel() string {
	ll.counter++
	return fmt.Sprintf("loop%d", ll.counter)
}

func (ll *LoopLabeler) labelStmt(s ast.Stmt, current string) error {
	switch st := s.(type) {
	case *ast.IfStmt:
		if err := ll.labelStmt(st.Then, current); err != nil {
			return err
		}
		if st.Else != nil {
			return ll.labelStmt(st.Else, current)
		}
		return nil

	case *ast.CompoundStmt:
		return ll.labelBlock(st.Body, current)

	case *ast.BreakStmt:
		if current == "" {
			line, col := st.Pos()
			return breakOutsideLoop(line, col)
		}
		st.Label = current
		return nil

	case *ast.ContinueStmt:
		if current == "" {
			line, col := st.Pos()
			return continueOutsideLoop(line, col)
		}
		st.Label = current
		return nil

	case *ast.WhileStmt:
		label := ll.freshLabel()
		st.Label = label
		return ll.labelStmt(st.Body, label)

	case *ast.DoWhileStmt:
		label := ll.freshLabel()
		st.Label = label
		return ll.labelStmt(st.Body, label)

	case *ast.ForStmt:
		label := ll.freshLabel()
		st.Label = label
		return ll.labelStmt(st.Body, label)

	default:
		return nil
	}
}
