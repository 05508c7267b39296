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

// PropagateCopies implements --propagate-copies (§4.5) as a real dataflow
// pass, not the documented no-op skeleton: for each basic block, a set of
// copies known to reach the current instruction is tracked and used to
// replace operand reads with the copy's source, provided the copy is still
// live (neither side has been redefined since). Propagation never crosses
// a block boundary: each block starts with no known copies, which keeps the
// analysis a simple forward scan per block instead of a full fixpoint
// dataflow over the CFG.
func PropagateCopies(fn *FunctionDefinition) {
	blocks := splitBlocks(fn.Body)
	var out []Instr
	for _, b := range blocks {
		out = append(out, propagateBlock(b.instrs)...)
	}
	fn.Body = out
}

// copyEnv maps a variable name to the Value last copied into it, valid
// until either side of the copy is redefined.
type copyEnv map[string]Value

func (env copyEnv) resolve(v Value) Value {
	if v.Kind != ValVariable {
		return v
	}
	if src, ok := env[v.Name]; ok {
		return src
	}
	return v
}

// kill drops any binding that reads or writes name, since either direction
// invalidates the recorded equivalence.
func (env copyEnv) kill(name string) {
	delete(env, name)
	for k, v := range env {
		if v.Kind == ValVariable && v.Name == name {
			delete(env, k)
		}
	}
}

func propagateBlock(instrs []Instr) []Instr {
	env := copyEnv{}
	out := make([]Instr, 0, len(instrs))
	for _, instr := range instrs {
		out = append(out, rewriteInstr(instr, env))
	}
	return out
}

func rewriteInstr(instr Instr, env copyEnv) Instr {
	switch in := instr.(type) {
	case *SignExtend:
		in.Src = env.resolve(in.Src)
		env.kill(in.Dst.Name)
		return in
	case *Truncate:
		in.Src = env.resolve(in.Src)
		env.kill(in.Dst.Name)
		return in
	case *Unary:
		in.Src = env.resolve(in.Src)
		env.kill(in.Dst.Name)
		return in
	case *Binary:
		in.Src1 = env.resolve(in.Src1)
		in.Src2 = env.resolve(in.Src2)
		env.kill(in.Dst.Name)
		return in
	case *Copy:
		in.Src = env.resolve(in.Src)
		env.kill(in.Dst.Name)
		if in.Src.Kind != ValVariable || in.Src.Name != in.Dst.Name {
			env[in.Dst.Name] = in.Src
		}
		return in
	case *JumpIfZero:
		in.Cond = env.resolve(in.Cond)
		return in
	case *JumpIfNotZero:
		in.Cond = env.resolve(in.Cond)
		return in
	case *Return:
		in.Value = env.resolve(in.Value)
		return in
	case *FunctionCall:
		for i, a := range in.Args {
			in.Args[i] = env.resolve(a)
		}
		// A call may write any variable with Static linkage (§5), so every
		// binding must be dropped here, not just in.Dst: a copy recorded
		// before the call could otherwise be propagated past it and read
		// the callee's post-call value instead of the pre-call snapshot.
		for k := range env {
			delete(env, k)
		}
		return in
	case *LabelInstr:
		// A label may be reached from outside this block; the
		// equivalences recorded so far could be invalid for that other
		// predecessor, so propagation restarts here.
		for k := range env {
			delete(env, k)
		}
		return in
	default:
		return instr
	}
}
