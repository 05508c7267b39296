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

import "fmt"

// ResolutionError covers §4.3.1's failure modes.
type ResolutionError struct {
	Line, Column int32
	Reason       string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Reason)
}

func undeclared(line, col int32, name string) error {
	return &ResolutionError{line, col, fmt.Sprintf("undeclared identifier %q", name)}
}

func conflicting(line, col int32, name string) error {
	return &ResolutionError{line, col, fmt.Sprintf("conflicting local declaration of %q", name)}
}

func duplicateParameter(line, col int32, name string) error {
	return &ResolutionError{line, col, fmt.Sprintf("duplicate parameter name %q", name)}
}

func nestedFunctionDefinition(line, col int32, name string) error {
	return &ResolutionError{line, col, fmt.Sprintf("nested definition of function %q is not permitted", name)}
}

func staticOnNestedFunction(line, col int32, name string) error {
	return &ResolutionError{line, col, fmt.Sprintf("nested function declaration %q may not be static", name)}
}

func invalidLvalueResolution(line, col int32) error {
	return &ResolutionError{line, col, "invalid assignment target"}
}

// TypeError covers §4.3.2's failure modes.
type TypeError struct {
	Line, Column int32
	Reason       string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Reason)
}

func incompatibleRedeclaration(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("incompatible redeclaration of %q", name)}
}

func functionRedefined(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("function %q redefined", name)}
}

func linkageConflict(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("conflicting linkage for %q", name)}
}

func conflictingInitializer(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("conflicting initializers for %q", name)}
}

func nonConstantStaticInit(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("non-constant initializer for static variable %q", name)}
}

func functionUsedAsVariable(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("function %q used as a variable", name)}
}

func variableUsedAsFunction(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("variable %q used as a function", name)}
}

func badArgumentCount(line, col int32, name string, want, got int) error {
	return &TypeError{line, col, fmt.Sprintf("function %q expects %d argument(s), got %d", name, want, got)}
}

func externLocalInitializer(line, col int32, name string) error {
	return &TypeError{line, col, fmt.Sprintf("extern local variable %q may not have an initializer", name)}
}

func storageClassInForInit(line, col int32) error {
	return &TypeError{line, col, "a for-loop init declaration may not have a storage class"}
}

// LabelError covers §4.3.3's failure modes.
type LabelError struct {
	Line, Column int32
	Reason       string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Reason)
}

func breakOutsideLoop(line, col int32) error {
	return &LabelError{line, col, "'break' outside of a loop"}
}

func continueOutsideLoop(line, col int32) error {
	return &LabelError{line, col, "'continue' outside of a loop"}
}
