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
	"strings"

	"minic/utils"
)

// EliminateDeadStores implements --eliminate-dead-stores (§4.5): a
// backward liveness dataflow over the function's basic blocks decides,
// for each instruction that writes a destination variable, whether that
// write is ever read before being overwritten again. FunctionCall is
// never removed even when its Dst is dead, since the call may have
// observable side effects the optimizer knows nothing about.
func EliminateDeadStores(fn *FunctionDefinition) {
	blocks := splitBlocks(fn.Body)
	if len(blocks) == 0 {
		return
	}

	varIndex := map[string]int{}
	indexVar := func(name string) {
		if _, ok := varIndex[name]; !ok {
			varIndex[name] = len(varIndex)
		}
	}
	for _, b := range blocks {
		for _, in := range b.instrs {
			walkVars(in, indexVar)
		}
	}
	n := len(varIndex)

	labelIndex := map[string]int{}
	for i, b := range blocks {
		if len(b.instrs) > 0 {
			if l, ok := b.instrs[0].(*LabelInstr); ok {
				labelIndex[l.Name] = i
			}
		}
	}
	succs := make([][]int, len(blocks))
	for i, b := range blocks {
		if len(b.instrs) == 0 {
			succs[i] = []int{i + 1}
			continue
		}
		switch last := b.instrs[len(b.instrs)-1].(type) {
		case *Jump:
			succs[i] = []int{labelIndex[last.Label]}
		case *JumpIfZero:
			succs[i] = []int{labelIndex[last.Label], i + 1}
		case *JumpIfNotZero:
			succs[i] = []int{labelIndex[last.Label], i + 1}
		case *Return:
			succs[i] = nil
		default:
			if i+1 < len(blocks) {
				succs[i] = []int{i + 1}
			}
		}
	}

	liveOut := make([]*utils.BitMap, len(blocks))
	liveIn := make([]*utils.BitMap, len(blocks))
	for i := range blocks {
		liveOut[i] = utils.NewBitMap(n)
		liveIn[i] = utils.NewBitMap(n)
	}

	changed := true
	for changed {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			out := utils.NewBitMap(n)
			for _, s := range succs[i] {
				if s >= 0 && s < len(blocks) {
					out.Unite(liveIn[s])
				}
			}
			in := out.Copy()
			for k := len(blocks[i].instrs) - 1; k >= 0; k-- {
				applyTransfer(blocks[i].instrs[k], in, varIndex)
			}
			if liveOut[i].SetFrom(out) {
				changed = true
			}
			if liveIn[i].SetFrom(in) {
				changed = true
			}
		}
	}

	var result []Instr
	for i, b := range blocks {
		live := liveOut[i].Copy()
		kept := make([]Instr, len(b.instrs))
		keep := make([]bool, len(b.instrs))
		for k := len(b.instrs) - 1; k >= 0; k-- {
			instr := b.instrs[k]
			kept[k] = instr
			if dst, ok := destOf(instr); ok {
				_, isCall := instr.(*FunctionCall)
				if !isCall && isTemp(dst) {
					if idx, found := varIndex[dst]; found && !live.IsSet(idx) {
						keep[k] = false
						continue
					}
				}
			}
			keep[k] = true
			applyTransfer(instr, live, varIndex)
		}
		for k, in := range kept {
			if keep[k] {
				result = append(result, in)
			}
		}
	}
	fn.Body = result
}

// isTemp reports whether name is an IR-generated temporary (`tmp.<n>`,
// never registered in the symbol table, per §3's "after IR generation"
// invariant) rather than a surface-level Local or Static variable. §4.5
// restricts dead-store elimination to "a non-aliased temporary": a write to
// a named Local or Static must survive even when this function's own
// liveness analysis sees no later read, since §5 requires writes to
// Static-linkage variables to stay observable to other functions that this
// per-function analysis has no visibility into.
func isTemp(name string) bool {
	return strings.HasPrefix(name, "tmp.")
}

// destOf reports the variable an instruction writes, if any.
func destOf(instr Instr) (string, bool) {
	switch in := instr.(type) {
	case *SignExtend:
		return in.Dst.Name, true
	case *Truncate:
		return in.Dst.Name, true
	case *Unary:
		return in.Dst.Name, true
	case *Binary:
		return in.Dst.Name, true
	case *Copy:
		return in.Dst.Name, true
	case *FunctionCall:
		return in.Dst.Name, true
	default:
		return "", false
	}
}

// applyTransfer updates live (already holding the live-set *after* instr)
// in place to become the live-set *before* instr: kill the destination,
// then gen every variable instr reads.
func applyTransfer(instr Instr, live *utils.BitMap, idx map[string]int) {
	if dst, ok := destOf(instr); ok {
		if i, found := idx[dst]; found {
			live.Reset(i)
		}
	}
	gen := func(v Value) {
		if v.Kind == ValVariable {
			if i, found := idx[v.Name]; found {
				live.Set(i)
			}
		}
	}
	switch in := instr.(type) {
	case *SignExtend:
		gen(in.Src)
	case *Truncate:
		gen(in.Src)
	case *Unary:
		gen(in.Src)
	case *Binary:
		gen(in.Src1)
		gen(in.Src2)
	case *Copy:
		gen(in.Src)
	case *Return:
		gen(in.Value)
	case *JumpIfZero:
		gen(in.Cond)
	case *JumpIfNotZero:
		gen(in.Cond)
	case *FunctionCall:
		for _, a := range in.Args {
			gen(a)
		}
	}
}

func walkVars(instr Instr, indexVar func(string)) {
	note := func(v Value) {
		if v.Kind == ValVariable {
			indexVar(v.Name)
		}
	}
	switch in := instr.(type) {
	case *SignExtend:
		note(in.Src)
		note(in.Dst)
	case *Truncate:
		note(in.Src)
		note(in.Dst)
	case *Unary:
		note(in.Src)
		note(in.Dst)
	case *Binary:
		note(in.Src1)
		note(in.Src2)
		note(in.Dst)
	case *Copy:
		note(in.Src)
		note(in.Dst)
	case *Return:
		note(in.Value)
	case *JumpIfZero:
		note(in.Cond)
	case *JumpIfNotZero:
		note(in.Cond)
	case *FunctionCall:
		for _, a := range in.Args {
			note(a)
		}
		note(in.Dst)
	}
}
