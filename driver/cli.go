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
	"os"

	"github.com/spf13/cobra"
)

var command = &cobra.Command{
	Use:  "minic <source.c> [flags]",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := Options{Source: args[0]}
		opts.Output, _ = cmd.Flags().GetString("output")
		opts.Lex, _ = cmd.Flags().GetBool("lex")
		opts.Parse, _ = cmd.Flags().GetBool("parse")
		opts.Validate, _ = cmd.Flags().GetBool("validate")
		opts.Tacky, _ = cmd.Flags().GetBool("tacky")
		opts.Codegen, _ = cmd.Flags().GetBool("codegen")
		s1, _ := cmd.Flags().GetBool("S")
		s2, _ := cmd.Flags().GetBool("s")
		opts.AsmOnly = s1 || s2
		opts.ObjOnly, _ = cmd.Flags().GetBool("c")
		opts.FoldConstants, _ = cmd.Flags().GetBool("fold-constants")
		opts.PropagateCopies, _ = cmd.Flags().GetBool("propagate-copies")
		opts.EliminateUnreachableCode, _ = cmd.Flags().GetBool("eliminate-unreachable-code")
		opts.EliminateDeadStores, _ = cmd.Flags().GetBool("eliminate-dead-stores")
		opts.Optimize, _ = cmd.Flags().GetBool("optimize")
		opts.Precheck, _ = cmd.Flags().GetBool("precheck")
		opts.Verbose, _ = cmd.Flags().GetBool("verbose")
		return Run(opts)
	},
}

func init() {
	flags := command.Flags()
	flags.StringP("output", "o", "", "output path for the final artifact")
	flags.Bool("lex", false, "run the lexer only")
	flags.Bool("parse", false, "run through the parser only")
	flags.Bool("validate", false, "run through semantic analysis only")
	flags.Bool("tacky", false, "run through IR generation only")
	flags.Bool("codegen", false, "run through codegen, no emission")
	flags.Bool("S", false, "emit assembly, do not assemble")
	flags.Bool("s", false, "emit assembly, do not assemble")
	flags.Bool("c", false, "produce an object file, do not link")
	flags.Bool("fold-constants", false, "enable constant folding")
	flags.Bool("propagate-copies", false, "enable copy propagation")
	flags.Bool("eliminate-unreachable-code", false, "enable unreachable-code elimination")
	flags.Bool("eliminate-dead-stores", false, "enable dead-store elimination")
	flags.Bool("optimize", false, "enable all four IR optimizations")
	flags.Bool("precheck", false, "validate the source against a full ISO C front end first")
	flags.BoolP("verbose", "v", false, "dump every pipeline stage to stderr")
}

// Execute runs the root command and translates a returned error into a
// process exit code (§6, §7: the process prints the error and exits
// non-zero); main.go's only job is to call this.
func Execute() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
