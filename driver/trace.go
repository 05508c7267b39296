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

import (
	"fmt"
	"io"
)

// Trace generalizes the teacher's DebugPrintTypedAst/DebugPrintAst boolean
// gates into a runtime-settable sink, flipped on by -v/--verbose instead
// of being compiled in.
type Trace struct {
	Enabled bool
	Out     io.Writer
}

func (t *Trace) Stage(name string, v interface{}) {
	if !t.Enabled {
		return
	}
	fmt.Fprintf(t.Out, "=== %s ===\n%v\n", name, v)
}

func (t *Trace) Printf(format string, args ...interface{}) {
	if !t.Enabled {
		return
	}
	fmt.Fprintf(t.Out, format, args...)
}
