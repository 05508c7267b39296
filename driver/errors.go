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
package driver

import "fmt"

// DriverErrorKind enumerates the driver-level failures of §7; unlike the
// per-pass error structs, these are wrapped with errors.WithStack from
// github.com/pkg/errors at the point they're returned, which records a stack
// trace; Execute prints only the error message.
type DriverErrorKind int32

const (
	MissingSourceFile DriverErrorKind = iota
	BadExtension
	ToolFailed
	ToolMissing
)

type DriverError struct {
	Kind DriverErrorKind
	Path string
	Tool string
	Out  string
}

func (e *DriverError) Error() string {
	switch e.Kind {
	case MissingSourceFile:
		return fmt.Sprintf("driver: no such source file: %s", e.Path)
	case BadExtension:
		return fmt.Sprintf("driver: source file must end in .c: %s", e.Path)
	case ToolFailed:
		return fmt.Sprintf("driver: %s failed: %s", e.Tool, e.Out)
	case ToolMissing:
		return fmt.Sprintf("driver: %s not found on PATH", e.Tool)
	default:
		return "driver: unknown error"
	}
}

func errMissingSourceFile(path string) error {
	return &DriverError{Kind: MissingSourceFile, Path: path}
}

func errBadExtension(path string) error {
	return &DriverError{Kind: BadExtension, Path: path}
}

func errToolFailed(tool, out string) error {
	return &DriverError{Kind: ToolFailed, Tool: tool, Out: out}
}

func errToolMissing(tool string) error {
	return &DriverError{Kind: ToolMissing, Tool: tool}
}
