package optimizer

import (
	"strconv"

	"github.com/hassan/ccompiler/internal/ir"
)

// Level 2 passes work on straight-line runs: what they know is forgotten at
// every LABEL and function boundary, since control can arrive there from
// elsewhere.

func isJoin(in ir.Instruction) bool {
	return in.Op == ir.OpLabel || in.Op == ir.OpFuncBegin || in.Op == ir.OpFuncEnd
}

// clobbersMemory reports whether the instruction may change variables it
// does not name: calls and stores through a pointer.
func clobbersMemory(in ir.Instruction) bool {
	return in.Op == ir.OpCall || in.Op == ir.OpStore
}

// CommonSubexpressionPass reuses the target of an earlier instruction that
// computed the same right-hand side.
//
//	Before:  t0 = a * b        After:  t0 = a * b
//	         t1 = a * b                t1 = t0
//
// An entry dies when its target or one of its operands is reassigned.
type CommonSubexpressionPass struct{}

func (c *CommonSubexpressionPass) Name() string { return "CommonSubexpression" }
func (c *CommonSubexpressionPass) Level() int   { return 2 }

type available struct {
	holder   string
	operands []string
}

func (c *CommonSubexpressionPass) Run(prog ir.Program, ctx *Context) ir.Program {
	avail := make(map[string]available)
	for i, in := range prog {
		if isJoin(in) {
			avail = make(map[string]available)
			continue
		}
		if clobbersMemory(in) {
			avail = make(map[string]available)
		}

		key := ""
		if pure(in) {
			key = in.RHS()
		}
		reused := false
		if e, ok := avail[key]; ok && key != "" && e.holder != in.Result {
			ctx.Record("Common subexpression elimination: %s -> %s", key, e.holder)
			repl := ir.Assign(in.Result, e.holder)
			repl.Comment = in.Comment
			prog[i] = repl
			reused = true
		}

		if d := prog[i].Defines(); d != "" {
			for k, e := range avail {
				if e.holder == d || contains(e.operands, d) {
					delete(avail, k)
				}
			}
		}
		if key != "" && !reused && !contains(in.Uses(), in.Result) {
			if _, ok := avail[key]; !ok {
				avail[key] = available{holder: in.Result, operands: in.Uses()}
			}
		}
	}
	return prog
}

// pure reports whether the instruction computes its result from its
// operands alone.
func pure(in ir.Instruction) bool {
	switch {
	case in.Op.IsBinary():
		return true
	case in.Op.IsUnary():
		return in.Op != ir.OpDeref
	}
	return in.Op == ir.OpCast || in.Op == ir.OpSizeof
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ConstantPropagationPass replaces reads of a variable whose value is a
// known literal with the literal.
//
//	Before:  x = 5             After:  x = 5
//	         t0 = x + y                t0 = 5 + y
//
// A mapping ends when the variable is reassigned or its address is taken.
// Calls and pointer stores end every mapping for a non-temporary.
type ConstantPropagationPass struct{}

func (c *ConstantPropagationPass) Name() string { return "ConstantPropagation" }
func (c *ConstantPropagationPass) Level() int   { return 2 }

func (c *ConstantPropagationPass) Run(prog ir.Program, ctx *Context) ir.Program {
	consts := make(map[string]string)
	for i := range prog {
		in := prog[i]
		if isJoin(in) {
			consts = make(map[string]string)
			continue
		}

		if in.Op == ir.OpAddr {
			delete(consts, in.Arg1)
		} else {
			for _, name := range in.Uses() {
				v, ok := consts[name]
				if !ok {
					continue
				}
				if out, changed := in.ReplaceUses(name, v); changed {
					in = out
					ctx.Record("Constant propagation: %s -> %s", name, v)
				}
			}
			prog[i] = in
		}

		if clobbersMemory(in) {
			for name := range consts {
				if !ir.IsTemp(name) {
					delete(consts, name)
				}
			}
		}
		if d := in.Defines(); d != "" {
			delete(consts, d)
			if in.Op == ir.OpAssign && ir.IsConstant(in.Arg1) {
				consts[d] = in.Arg1
			}
		}
	}
	return prog
}

// StrengthReductionPass replaces multiplication and division by a literal
// power of two, 2 to 512, with cheaper operations:
//
//	x * 2   ->  x + x
//	x * 2^k ->  x << k
//	x / 2^k ->  x >> k
//
// The literal must be the right operand and the left a name.
type StrengthReductionPass struct{}

func (s *StrengthReductionPass) Name() string { return "StrengthReduction" }
func (s *StrengthReductionPass) Level() int   { return 2 }

func (s *StrengthReductionPass) Run(prog ir.Program, ctx *Context) ir.Program {
	for i, in := range prog {
		if in.Op != ir.OpMul && in.Op != ir.OpDiv {
			continue
		}
		if !ir.IsName(in.Arg1) || !ir.IsIntegerLiteral(in.Arg2) {
			continue
		}
		k := powerOfTwo(in.Arg2)
		if k == 0 {
			continue
		}

		x, lit := in.Arg1, in.Arg2
		var repl ir.Instruction
		switch {
		case in.Op == ir.OpMul && k == 1:
			repl = ir.Binary(ir.OpAdd, in.Result, x, x)
			ctx.Record("Strength reduction: %s * %s -> %s + %s", x, lit, x, x)
		case in.Op == ir.OpMul:
			repl = ir.Binary(ir.OpShl, in.Result, x, strconv.Itoa(k))
			ctx.Record("Strength reduction: %s * %s -> %s << %d", x, lit, x, k)
		default:
			repl = ir.Binary(ir.OpShr, in.Result, x, strconv.Itoa(k))
			ctx.Record("Strength reduction: %s / %s -> %s >> %d", x, lit, x, k)
		}
		repl.Comment = in.Comment
		prog[i] = repl
	}
	return prog
}

// powerOfTwo returns k when lit is 2^k for k in 1..9, and 0 otherwise.
func powerOfTwo(lit string) int {
	v, ok := ir.NumericValue(lit)
	if !ok {
		return 0
	}
	for k := 1; k <= 9; k++ {
		if v == float64(int(1)<<k) {
			return k
		}
	}
	return 0
}
