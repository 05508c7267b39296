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
	"runtime"

	"github.com/pkg/errors"
	"modernc.org/cc/v4"
)

// Precheck runs the preprocessed source through a full ISO C front end
// before handing it to this compiler's own lexer/parser. It exists purely
// as a diagnostic: a source file this compiler's restricted grammar can't
// handle may still be valid C, and a modernc.org/cc/v4 parse failure is
// strong evidence the input is malformed C rather than merely outside the
// supported subset. Off by default (--precheck).
func Precheck(source, name string) error {
	cfg, err := cc.NewConfig(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return errors.Wrap(err, "precheck: building cc config")
	}
	_, err = cc.Parse(cfg, []cc.Source{
		{Name: "<predefined>", Value: cfg.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
		{Name: name, Value: source},
	})
	if err != nil {
		return errors.Wrap(err, "precheck: source is not valid C")
	}
	return nil
}
