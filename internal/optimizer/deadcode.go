package optimizer

import (
	"github.com/hassan/ccompiler/internal/ir"
)

// UnreachableCodePass marks everything between an unconditional GOTO and
// the next LABEL as removed.
//
//	Before:  GOTO L1          After:  GOTO L1
//	         x = 1                    # REMOVED (UNREACHABLE): x = 1
//	         LABEL L1                 LABEL L1
//
// Function boundaries stop the sweep too, so FUNC_END markers survive.
type UnreachableCodePass struct{}

func (u *UnreachableCodePass) Name() string { return "UnreachableCode" }
func (u *UnreachableCodePass) Level() int   { return 1 }

func (u *UnreachableCodePass) Run(prog ir.Program, ctx *Context) ir.Program {
	for i := 0; i < len(prog); i++ {
		if prog[i].Op != ir.OpGoto {
			continue
		}
		j := i + 1
		for ; j < len(prog); j++ {
			in := prog[j]
			if in.Op == ir.OpLabel || in.Op == ir.OpFuncBegin || in.Op == ir.OpFuncEnd {
				break
			}
			if in.Op == ir.OpComment {
				continue
			}
			prog[j] = removed("REMOVED (UNREACHABLE)", in)
			ctx.Record("Removed unreachable code after GOTO")
		}
		i = j - 1
	}
	return prog
}

// DeadAssignmentPass marks assignments to names that nothing reads.
//
// A single use set is built from every operand read anywhere in the
// program, conditions included; an assignment whose target is not in it is
// dead. Calls are never removed, and neither are globals: names with a DECL
// outside every FUNC_BEGIN/FUNC_END span. With
// Options.ExemptTemporaries, temporaries are kept as well.
type DeadAssignmentPass struct{}

func (d *DeadAssignmentPass) Name() string { return "DeadAssignment" }
func (d *DeadAssignmentPass) Level() int   { return 1 }

func (d *DeadAssignmentPass) Run(prog ir.Program, ctx *Context) ir.Program {
	used := make(map[string]bool)
	for _, in := range prog {
		if in.Op == ir.OpComment {
			continue
		}
		for _, name := range in.Uses() {
			used[name] = true
		}
	}
	globals := globalNames(prog)

	for i, in := range prog {
		name := in.Defines()
		switch {
		case name == "", in.Op == ir.OpCall, used[name], globals[name]:
			continue
		case ctx.ExemptTemporaries && ir.IsTemp(name):
			continue
		}
		prog[i] = removed("REMOVED (DEAD CODE)", in)
		ctx.Record("Eliminated dead code: %s is never used", name)
	}
	return prog
}

// globalNames returns the names with a DECL outside every function.
func globalNames(prog ir.Program) map[string]bool {
	out := make(map[string]bool)
	depth := 0
	for _, in := range prog {
		switch in.Op {
		case ir.OpFuncBegin:
			depth++
		case ir.OpFuncEnd:
			if depth > 0 {
				depth--
			}
		case ir.OpDecl:
			if depth == 0 {
				out[in.Arg2] = true
			}
		}
	}
	return out
}
