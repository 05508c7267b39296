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
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"minic/ast"
	"minic/backend"
	"minic/ir"
	"minic/sema"
	"minic/utils"
)

// Options mirrors the CLI surface of §6, plus -o/--precheck/-v which sit
// outside the specified core.
type Options struct {
	Source string
	Output string

	Lex      bool
	Parse    bool
	Validate bool
	Tacky    bool
	Codegen  bool
	AsmOnly  bool // -S / -s
	ObjOnly  bool // -c

	FoldConstants              bool
	PropagateCopies            bool
	EliminateUnreachableCode   bool
	EliminateDeadStores        bool
	Optimize                   bool

	Precheck bool
	Verbose  bool
}

func (o *Options) stageRequested() bool {
	return o.Lex || o.Parse || o.Validate || o.Tacky || o.Codegen
}

func (o *Options) optimizationsEnabled() (fold, prop, unreachable, dead bool) {
	if o.Optimize {
		return true, true, true, true
	}
	return o.FoldConstants, o.PropagateCopies, o.EliminateUnreachableCode, o.EliminateDeadStores
}

// Run drives the full pipeline: preprocess, compile, (optionally) assemble
// and link, honoring whichever stage the caller asked to stop at.
func Run(opts Options) error {
	trace := &Trace{Enabled: opts.Verbose, Out: os.Stderr}

	// -S/-c override any stage flag; among stage flags the latest stage wins.
	if opts.AsmOnly || opts.ObjOnly {
		opts.Lex, opts.Parse, opts.Validate, opts.Tacky, opts.Codegen = false, false, false, false, false
	}
	opts.Lex = opts.Lex && !opts.Parse && !opts.Validate && !opts.Tacky && !opts.Codegen
	opts.Parse = opts.Parse && !opts.Validate && !opts.Tacky && !opts.Codegen
	opts.Validate = opts.Validate && !opts.Tacky && !opts.Codegen
	opts.Tacky = opts.Tacky && !opts.Codegen

	if _, err := os.Stat(opts.Source); err != nil {
		return errors.WithStack(errMissingSourceFile(opts.Source))
	}
	if !strings.HasSuffix(opts.Source, ".c") {
		return errors.WithStack(errBadExtension(opts.Source))
	}
	if !utils.CommandExists("gcc") {
		return errors.WithStack(errToolMissing("gcc"))
	}

	base := strings.TrimSuffix(opts.Source, ".c")
	wd := filepath.Dir(opts.Source)
	if wd == "" {
		wd = "."
	}

	preprocessed := base + ".i"
	if out, err := utils.RunTool(wd, "gcc", "-E", "-P", opts.Source, "-o", preprocessed); err != nil {
		return errors.WithStack(errToolFailed("gcc -E", out))
	}
	defer os.Remove(preprocessed)

	src, err := os.ReadFile(preprocessed)
	if err != nil {
		return errors.Wrap(err, "driver: reading preprocessed source")
	}

	if opts.Precheck {
		if err := Precheck(string(src), opts.Source); err != nil {
			return err
		}
	}

	tokens, err := ast.Tokenize(string(src))
	if err != nil {
		return err
	}
	trace.Stage("lex", tokens)
	if opts.Lex {
		return nil
	}

	prog, err := ast.ParseSource(string(src))
	if err != nil {
		return err
	}
	trace.Stage("parse", prog)
	if opts.Parse {
		return nil
	}

	resolveCounter, err := sema.Resolve(prog, 0)
	if err != nil {
		return err
	}
	labelCounter, err := sema.LabelLoops(prog, resolveCounter)
	if err != nil {
		return err
	}
	symtab, err := sema.TypeCheck(prog)
	if err != nil {
		return err
	}
	trace.Stage("validate", symtab)
	if opts.Validate {
		return nil
	}

	irProg, _, err := ir.Generate(prog, symtab, labelCounter)
	if err != nil {
		return err
	}

	fold, prop, unreachable, dead := opts.optimizationsEnabled()
	for _, item := range irProg.Items {
		fn, ok := item.(*ir.FunctionDefinition)
		if !ok {
			continue
		}
		applyOptimizations(fn, fold, prop, unreachable, dead)
	}
	trace.Stage("tacky", irProg)
	if opts.Tacky {
		return nil
	}

	asmProg := backend.Generate(irProg, symtab)
	for _, item := range asmProg.Items {
		fn, ok := item.(*backend.FunctionDef)
		if !ok {
			continue
		}
		backend.ResolvePseudos(fn, symtab, irProg.TempTypes)
		backend.Fixup(fn)
	}
	trace.Stage("codegen", asmProg)
	if opts.Codegen {
		return nil
	}

	platform := backend.PlatformLinux
	if runtime.GOOS == "darwin" {
		platform = backend.PlatformDarwin
	}
	assembly := backend.NewEmitter(platform).Emit(asmProg)

	asmPath := base + ".s"
	if err := os.WriteFile(asmPath, []byte(assembly), 0644); err != nil {
		return errors.Wrap(err, "driver: writing assembly")
	}
	if opts.AsmOnly {
		if opts.Output != "" {
			return os.Rename(asmPath, opts.Output)
		}
		return nil
	}
	defer os.Remove(asmPath)

	objPath := base + ".o"
	if out, err := utils.RunTool(wd, "gcc", "-c", asmPath, "-o", objPath); err != nil {
		return errors.WithStack(errToolFailed("gcc -c", out))
	}
	if opts.ObjOnly {
		if opts.Output != "" {
			return os.Rename(objPath, opts.Output)
		}
		return nil
	}
	defer os.Remove(objPath)

	exePath := opts.Output
	if exePath == "" {
		exePath = base
	}
	if out, err := utils.RunTool(wd, "gcc", objPath, "-o", exePath, "-lc"); err != nil {
		return errors.WithStack(errToolFailed("gcc (link)", out))
	}
	return nil
}

func applyOptimizations(fn *ir.FunctionDefinition, fold, prop, unreachable, dead bool) {
	if !(fold || prop || unreachable || dead) {
		return
	}
	for {
		before := len(fn.Body)
		if fold {
			ir.FoldConstants(fn)
		}
		if unreachable {
			ir.EliminateUnreachableCode(fn)
		}
		if prop {
			ir.PropagateCopies(fn)
		}
		if dead {
			ir.EliminateDeadStores(fn)
		}
		if len(fn.Body) == before {
			break
		}
	}
}
