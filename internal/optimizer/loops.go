package optimizer

import (
	"strconv"

	"github.com/hassan/ccompiler/internal/ir"
)

// A loop is a span that starts at a LABEL and ends at the first
// unconditional GOTO back to that label.

// backEdge returns the index of the first GOTO to the label at start, or -1.
func backEdge(prog ir.Program, start int) int {
	label := prog[start].Arg1
	for j := start + 1; j < len(prog); j++ {
		if prog[j].Op == ir.OpGoto && prog[j].Arg1 == label {
			return j
		}
	}
	return -1
}

func splice(prog ir.Program, from, to int, with ir.Program) ir.Program {
	out := make(ir.Program, 0, len(prog)-(to-from)+len(with))
	out = append(out, prog[:from]...)
	out = append(out, with...)
	return append(out, prog[to:]...)
}

// LoopInvariantPass moves computations that give the same value on every
// iteration in front of the loop's LABEL and leaves a HOISTED marker.
//
// An instruction is invariant when it is a pure computation other than
// division, it is the only definition of its target in the loop, no
// operand is assigned anywhere in the loop, the target is not read earlier
// in the loop, and the target is not read outside it. Loops that call
// functions or store through pointers are left alone.
type LoopInvariantPass struct{}

func (l *LoopInvariantPass) Name() string { return "LoopInvariant" }
func (l *LoopInvariantPass) Level() int   { return 3 }

func (l *LoopInvariantPass) Run(prog ir.Program, ctx *Context) ir.Program {
	for i := 0; i < len(prog); i++ {
		if prog[i].Op != ir.OpLabel {
			continue
		}
		end := backEdge(prog, i)
		if end < 0 {
			continue
		}
		hoist := invariants(prog, i, end)
		if len(hoist) == 0 {
			continue
		}
		moved := make(ir.Program, 0, len(hoist))
		for _, k := range hoist {
			moved = append(moved, prog[k])
			ctx.Record("Loop invariant hoisting: %s", prog[k])
			prog[k] = ir.Comment("HOISTED: " + prog[k].String())
		}
		prog = splice(prog, i, i, moved)
		i += len(moved)
	}
	return prog
}

func invariants(prog ir.Program, start, end int) []int {
	defs := make(map[string]int)
	for k := start + 1; k < end; k++ {
		in := prog[k]
		if clobbersMemory(in) {
			return nil
		}
		if d := in.Defines(); d != "" {
			defs[d]++
		}
		if in.Op == ir.OpAddr {
			defs[in.Arg1]++
		}
	}

	var out []int
	for k := start + 1; k < end; k++ {
		in := prog[k]
		if !pure(in) || in.Op == ir.OpDiv || in.Op == ir.OpMod || in.Op == ir.OpAddr {
			continue
		}
		d := in.Result
		if defs[d] != 1 || readOutside(prog, d, k, end) {
			continue
		}
		invariant := true
		for _, u := range in.Uses() {
			if defs[u] > 0 {
				invariant = false
				break
			}
		}
		if invariant {
			out = append(out, k)
		}
	}
	return out
}

// readOutside reports whether name is read anywhere except in [def, end].
func readOutside(prog ir.Program, name string, def, end int) bool {
	for k, in := range prog {
		if k >= def && k <= end || in.Op == ir.OpComment {
			continue
		}
		if contains(in.Uses(), name) {
			return true
		}
	}
	return false
}

// LoopUnrollPass replaces a three-iteration counted loop with three copies
// of its body. It is a narrow pattern match, not general unrolling: the
// loop must look exactly like
//
//	v = 0
//	LABEL start
//	t = v < 3            (or v <= 2)
//	IF_FALSE_GOTO t, exit
//	...body, with the single update v = v + 1...
//	GOTO start
//	LABEL exit
//
// with no other jumps or returns inside and no jumps to labels inside. In
// each copy reads of v become 0, 1 and 2; v is set to 3 afterwards.
type LoopUnrollPass struct{}

func (l *LoopUnrollPass) Name() string { return "LoopUnroll" }
func (l *LoopUnrollPass) Level() int   { return 3 }

func (l *LoopUnrollPass) Run(prog ir.Program, ctx *Context) ir.Program {
	for i := 0; i < len(prog); i++ {
		if prog[i].Op != ir.OpLabel {
			continue
		}
		end := backEdge(prog, i)
		if end < 0 {
			continue
		}
		unrolled, ok := unroll(prog, i, end)
		if !ok {
			continue
		}
		prog = splice(prog, i, end+1, unrolled)
		ctx.Record("Loop unrolling applied")
		i += len(unrolled) - 1
	}
	return prog
}

func unroll(prog ir.Program, start, end int) (ir.Program, bool) {
	next := func(k int) int {
		for k < end && prog[k].Op == ir.OpComment {
			k++
		}
		return k
	}

	c := next(start + 1)
	test := prog[c]
	bounded := test.Op == ir.OpLt && test.Arg2 == "3" || test.Op == ir.OpLe && test.Arg2 == "2"
	if !bounded || !ir.IsName(test.Arg1) || ir.IsTemp(test.Arg1) {
		return nil, false
	}
	v := test.Arg1

	j := next(c + 1)
	exit := prog[j]
	if exit.Op != ir.OpIfFalseGoto || exit.Arg1 != test.Result {
		return nil, false
	}
	if end+1 >= len(prog) || prog[end+1].Op != ir.OpLabel || prog[end+1].Arg1 != exit.Arg2 {
		return nil, false
	}
	if !startsAtZero(prog, start, v) {
		return nil, false
	}

	var body ir.Program
	updates := 0
	for k := j + 1; k < end; k++ {
		in := prog[k]
		switch {
		case in.Op == ir.OpComment:
			continue
		case in.Op == ir.OpLabel:
			if targeted(prog, in.Arg1) {
				return nil, false
			}
			continue
		case in.EndsBlock():
			return nil, false
		case in.Op == ir.OpAdd && in.Result == v && in.Arg1 == v && in.Arg2 == "1":
			updates++
			continue
		case in.Defines() == v:
			return nil, false
		}
		body = append(body, in)
	}
	if updates != 1 {
		return nil, false
	}

	out := make(ir.Program, 0, 3*len(body)+1)
	for iter := 0; iter < 3; iter++ {
		for _, in := range body {
			copied, _ := in.ReplaceUses(v, strconv.Itoa(iter))
			out = append(out, copied)
		}
	}
	return append(out, ir.Assign(v, "3")), true
}

// startsAtZero reports whether the last instruction before the loop label,
// ignoring comments and declarations, sets v to 0.
func startsAtZero(prog ir.Program, start int, v string) bool {
	for k := start - 1; k >= 0; k-- {
		in := prog[k]
		if in.Op == ir.OpComment || in.Op == ir.OpDecl {
			continue
		}
		return in.Op == ir.OpAssign && in.Result == v && in.Arg1 == "0"
	}
	return false
}

func targeted(prog ir.Program, label string) bool {
	for _, in := range prog {
		if in.IsJump() && in.Target() == label {
			return true
		}
	}
	return false
}

// TailCallPass annotates a recursive call whose result is returned
// directly, or that is followed only by the end of the function, with
// "TAIL-RECURSIVE CALL". The call itself is kept.
type TailCallPass struct{}

func (t *TailCallPass) Name() string { return "TailCall" }
func (t *TailCallPass) Level() int   { return 3 }

// TailCallNote is the comment attached to a tail-recursive call.
const TailCallNote = "TAIL-RECURSIVE CALL"

func (t *TailCallPass) Run(prog ir.Program, ctx *Context) ir.Program {
	fn := ""
	marked := false
	for i, in := range prog {
		switch in.Op {
		case ir.OpFuncBegin:
			fn, marked = in.Arg1, false
		case ir.OpFuncEnd:
			fn = ""
		case ir.OpCall:
			if fn == "" || in.Arg1 != fn || !inTailPosition(prog, i) {
				continue
			}
			prog[i].Comment = TailCallNote
			if !marked {
				ctx.Record("Identified tail recursion in %s", fn)
				marked = true
			}
		}
	}
	return prog
}

func inTailPosition(prog ir.Program, call int) bool {
	result := prog[call].Result
	for k := call + 1; k < len(prog); k++ {
		in := prog[k]
		switch in.Op {
		case ir.OpComment:
			continue
		case ir.OpFuncEnd:
			return true
		case ir.OpReturn:
			return in.Arg1 == "" || in.Arg1 == result && result != ""
		}
		return false
	}
	return false
}
