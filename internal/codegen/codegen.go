package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/ir"
)

// CodeUnsupportedTarget marks the diagnostic for an unknown architecture.
const CodeUnsupportedTarget = "unsupported-target"

// TrapLabel is where a failed division check jumps.
const TrapLabel = "__divzero_trap"

// Result is the outcome of lowering one program.
type Result struct {
	Arch     Arch
	Assembly string

	// RegisterMap holds the final register assignments in binding order.
	RegisterMap []Binding

	// StackFrame holds every spill slot in the order it was created.
	StackFrame []Slot

	Diags diag.List
}

// Success reports whether assembly was produced without errors.
func (r *Result) Success() bool {
	return r.Assembly != "" && !r.Diags.HasErrors()
}

// Generate lowers prog for arch. An unsupported architecture produces no
// assembly and a single error.
func Generate(prog ir.Program, arch Arch) *Result {
	t, ok := targets[arch]
	if !ok {
		d := diag.Errorf(diag.KindCodegen, 0, 0, "unsupported target architecture '%s'", arch).
			WithCode(CodeUnsupportedTarget).
			WithSuggestion("use one of x86, x86_64, ARM")
		return &Result{Arch: arch, Diags: diag.List{d}}
	}
	return newGenerator(t).run(prog)
}

// GenerateText parses TAC text and lowers it. Lines that do not parse are
// reported and skipped; the rest is still lowered.
func GenerateText(text string, arch Arch) *Result {
	prog, diags := ir.Parse(text)
	res := Generate(prog, arch)
	res.Diags = append(diags, res.Diags...)
	return res
}

type generator struct {
	t     *target
	alloc *Allocator
	out   []string
	data  []string

	trap     bool
	returned bool
}

func newGenerator(t *target) *generator {
	g := &generator{t: t, alloc: NewAllocator(t.pool, t.wordBytes)}
	g.alloc.OnSpill = func(reg string, off int) {
		g.emit("STORE", "src", reg, "mem", t.slot(off))
	}
	g.alloc.OnReload = func(reg string, off int) {
		g.emit("LOAD", "dest", reg, "mem", t.slot(off))
	}
	return g
}

// run lays the program out as entry code, the exit sequence, then the
// functions. Instructions outside every function run from _start, which
// sets up a frame for its spill slots and calls main when there is one.
func (g *generator) run(prog ir.Program) *Result {
	top, funcs := split(prog)

	g.out = append(g.out, g.t.header...)
	g.out = append(g.out, "", "_start:")
	g.emit("PROLOGUE", "frame", strconv.Itoa(FrameSize))
	for _, in := range top {
		g.lower(in)
	}
	if defines(funcs, "main") {
		g.emit("CALL", "func", "main")
	}
	g.lines(g.t.exit)

	for _, in := range funcs {
		g.lower(in)
	}

	if g.trap {
		g.out = append(g.out, "", TrapLabel+":")
		g.lines(g.t.trap)
	}
	if len(g.data) > 0 {
		g.out = append(g.out, "", g.t.data)
		g.out = append(g.out, g.data...)
	}

	return &Result{
		Arch:        g.t.arch,
		Assembly:    strings.Join(g.out, "\n"),
		RegisterMap: g.alloc.Bindings(),
		StackFrame:  g.alloc.Frame(),
	}
}

func (g *generator) emit(op string, kv ...string) {
	g.lines(g.t.render(op, kv...))
}

func (g *generator) lines(ls []string) {
	for _, l := range ls {
		g.out = append(g.out, "\t"+l)
	}
}

func (g *generator) note(text string) {
	g.out = append(g.out, "\t"+g.t.comment+" "+text)
}

func (g *generator) lower(in ir.Instruction) {
	g.alloc.Begin()

	switch in.Op {
	case ir.OpComment:
		g.note(in.Arg1)
		return
	case ir.OpLabel:
		if strings.HasPrefix(in.Arg1, "func_") {
			g.out = append(g.out, "")
		}
		g.out = append(g.out, in.Arg1+":")
		g.returned = false
		return
	}

	// Every instruction is echoed as a comment; DECL needs nothing else.
	g.note(in.String())
	switch in.Op {
	case ir.OpAssign, ir.OpCast:
		src := g.operand(in.Arg1)
		g.move(g.alloc.Def(in.Result), src)

	case ir.OpSizeof:
		size := strconv.Itoa(g.t.sizeOf(in.Arg1))
		g.move(g.alloc.Def(in.Result), g.t.imm(size))

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpAnd, ir.OpOr,
		ir.OpBitAnd, ir.OpBitOr, ir.OpBitXor, ir.OpShl, ir.OpShr:
		g.arith(in)

	case ir.OpDiv, ir.OpMod:
		g.divide(in)

	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		g.compare(in.Op, in.Result, in.Arg1, in.Arg2)

	case ir.OpNot:
		g.compare(ir.OpEq, in.Result, in.Arg1, "0")

	case ir.OpNeg, ir.OpBitNot:
		src := g.operand(in.Arg1)
		dest := g.alloc.Def(in.Result)
		g.move(dest, src)
		if in.Op == ir.OpNeg {
			g.emit("NEG", "dest", dest)
		} else {
			g.emit("NOT", "dest", dest)
		}

	case ir.OpAddr:
		off := g.alloc.Home(in.Arg1)
		dest := g.alloc.Def(in.Result)
		g.emit("LEA", "dest", dest, "mem", g.t.slot(off), "offset", strconv.Itoa(off))

	case ir.OpDeref:
		p := g.register(in.Arg1, g.t.acc)
		g.emit("LOAD", "dest", g.alloc.Def(in.Result), "mem", g.t.deref(p))

	case ir.OpIndex:
		base := g.register(in.Arg1, g.t.acc)
		idx := g.index(in.Arg2)
		g.emit("LOAD", "dest", g.alloc.Def(in.Result), "mem", g.t.indexed(base, idx))

	case ir.OpMember, ir.OpPtrMember:
		obj := g.register(in.Arg1, g.t.acc)
		g.emit("LOAD", "dest", g.alloc.Def(in.Result), "mem", g.t.field(obj, in.Arg2))

	case ir.OpString:
		name := fmt.Sprintf("str%d", len(g.data))
		g.data = append(g.data, g.t.stringData(name, in.Arg1))
		g.emit("ADDRESS", "dest", g.alloc.Def(in.Result), "label", name)

	case ir.OpStore:
		p := g.register(in.Result, g.t.acc)
		v := g.register(in.Arg1, g.t.aux)
		g.emit("STORE", "src", v, "mem", g.t.deref(p))

	case ir.OpIndexStore:
		base := g.register(in.Result, g.t.acc)
		idx := g.index(in.Arg1)
		v := g.register(in.Arg2, g.t.aux)
		g.emit("STORE", "src", v, "mem", g.t.indexed(base, idx))

	case ir.OpMemberStore, ir.OpPtrMemberStore:
		obj := g.register(in.Result, g.t.acc)
		v := g.register(in.Arg2, g.t.aux)
		g.emit("STORE", "src", v, "mem", g.t.field(obj, in.Arg1))

	case ir.OpGoto:
		g.emit("JMP", "label", in.Arg1)

	case ir.OpIfFalseGoto, ir.OpIfTrueGoto:
		g.branch(in.Arg1, in.Arg2, in.Op == ir.OpIfFalseGoto)

	case ir.OpCheckDivZero:
		g.checkDivisor(in.Arg1)

	case ir.OpParam:
		if g.t.arch == ARM {
			g.emit("PUSH", "src", g.register(in.Arg1, g.t.acc))
		} else {
			g.emit("PUSH", "src", g.operand(in.Arg1))
		}

	case ir.OpCall:
		g.emit("CALL", "func", in.Arg1)
		if n, err := strconv.Atoi(in.Arg2); err == nil && n > 0 {
			g.emit("DROP", "n", strconv.Itoa(n*g.t.wordBytes))
		}
		if in.Result != "" {
			g.move(g.alloc.Def(in.Result), g.t.acc)
		}

	case ir.OpReturn:
		if in.Arg1 != "" {
			g.move(g.t.acc, g.operand(in.Arg1))
		}
		g.emit("EPILOGUE")
		g.emit("RET")

	case ir.OpFuncBegin:
		g.out = append(g.out, in.Arg1+":")
		g.emit("PROLOGUE", "frame", strconv.Itoa(FrameSize))

	case ir.OpFuncEnd:
		if !g.returned {
			g.emit("EPILOGUE")
			g.emit("RET")
		}
	}
	g.returned = in.Op == ir.OpReturn
}

// operand returns an immediate for a literal and a register otherwise.
func (g *generator) operand(v string) string {
	if ir.IsConstant(v) {
		return g.t.imm(v)
	}
	return g.alloc.Use(v)
}

// register returns a register holding v, loading a literal into scratch.
func (g *generator) register(v, scratch string) string {
	if ir.IsConstant(v) {
		g.move(scratch, g.t.imm(v))
		return scratch
	}
	return g.alloc.Use(v)
}

// index returns an array index operand. Integer literals stay literal so
// the offset can be folded into the address.
func (g *generator) index(v string) string {
	if ir.IsIntegerLiteral(v) {
		return v
	}
	return g.register(v, g.t.aux)
}

func (g *generator) move(dest, src string) {
	if dest != src {
		g.emit("ASSIGN", "dest", dest, "src", src)
	}
}

var arithTemplates = map[ir.Opcode]string{
	ir.OpAdd:    "ADD",
	ir.OpSub:    "SUB",
	ir.OpMul:    "MUL",
	ir.OpAnd:    "AND",
	ir.OpBitAnd: "AND",
	ir.OpOr:     "OR",
	ir.OpBitOr:  "OR",
	ir.OpBitXor: "XOR",
	ir.OpShl:    "SHL",
	ir.OpShr:    "SHR",
}

// arith loads the left operand into the destination and applies the
// operator with the right operand.
func (g *generator) arith(in ir.Instruction) {
	op := arithTemplates[in.Op]
	left := g.operand(in.Arg1)
	right := g.operand(in.Arg2)
	if g.t.arch == ARM && in.Op == ir.OpMul && ir.IsConstant(in.Arg2) {
		g.move(g.t.aux, right)
		right = g.t.aux
	}
	dest := g.alloc.Def(in.Result)

	if right == dest && left != dest {
		g.move(g.t.acc, left)
		g.emit(op, "dest", g.t.acc, "src", right)
		g.move(dest, g.t.acc)
		return
	}
	g.move(dest, left)
	g.emit(op, "dest", dest, "src", right)
}

// divide uses the fixed dividend and remainder registers on x86: the left
// operand is sign-extended into acc:aux, the quotient comes back in acc and
// the remainder in aux. ARM divides directly.
func (g *generator) divide(in ir.Instruction) {
	t := g.t
	if t.arch == ARM {
		left := g.register(in.Arg1, t.acc)
		right := g.register(in.Arg2, t.aux)
		op := "DIV"
		if in.Op == ir.OpMod {
			op = "MOD"
		}
		g.emit(op, "dest", g.alloc.Def(in.Result), "left", left, "right", right)
		return
	}

	g.move(t.acc, g.operand(in.Arg1))
	g.emit("SIGNEXT")
	if ir.IsConstant(in.Arg2) {
		g.emit("PUSH", "src", in.Arg2)
		g.emit("IDIV", "src", t.deref(t.sp))
		g.emit("DROP", "n", strconv.Itoa(t.wordBytes))
	} else {
		g.emit("IDIV", "src", g.alloc.Use(in.Arg2))
	}
	result := t.acc
	if in.Op == ir.OpMod {
		result = t.aux
	}
	g.move(g.alloc.Def(in.Result), result)
}

// compare sets result to 0 or 1 without branching: a compare followed by a
// conditional move.
func (g *generator) compare(op ir.Opcode, result, a, b string) {
	left := g.register(a, g.t.acc)
	right := g.operand(b)
	dest := g.alloc.Def(result)
	g.emit("CMP", "left", left, "right", right)
	g.emit("SET", "dest", dest, "cc", g.t.cc[op], "scratch", g.t.aux)
}

// branch jumps to label when cond is zero (ifZero) or non-zero. A literal
// condition is decided here.
func (g *generator) branch(cond, label string, ifZero bool) {
	if ir.IsConstant(cond) {
		v, ok := ir.NumericValue(cond)
		if zero := ok && v == 0; zero == ifZero {
			g.emit("JMP", "label", label)
		}
		return
	}
	g.emit("CMP", "left", g.alloc.Use(cond), "right", g.t.imm("0"))
	if ifZero {
		g.emit("JZ", "label", label)
	} else {
		g.emit("JNZ", "label", label)
	}
}

func (g *generator) checkDivisor(v string) {
	if ir.IsConstant(v) {
		if n, ok := ir.NumericValue(v); ok && n != 0 {
			return
		}
		g.trap = true
		g.emit("JMP", "label", TrapLabel)
		return
	}
	g.trap = true
	g.emit("CMP", "left", g.alloc.Use(v), "right", g.t.imm("0"))
	g.emit("JZ", "label", TrapLabel)
}

// split separates instructions outside every function from the functions
// themselves. The LABEL that introduces a function goes with it.
func split(prog ir.Program) (top, funcs ir.Program) {
	depth := 0
	for i, in := range prog {
		switch {
		case in.Op == ir.OpFuncBegin:
			depth++
			funcs = append(funcs, in)
		case in.Op == ir.OpFuncEnd:
			if depth > 0 {
				depth--
			}
			funcs = append(funcs, in)
		case depth > 0, in.Op == ir.OpLabel && opensFunction(prog, i):
			funcs = append(funcs, in)
		default:
			top = append(top, in)
		}
	}
	return top, funcs
}

func opensFunction(prog ir.Program, label int) bool {
	for k := label + 1; k < len(prog); k++ {
		if prog[k].Op != ir.OpComment {
			return prog[k].Op == ir.OpFuncBegin
		}
	}
	return false
}

func defines(funcs ir.Program, name string) bool {
	for _, in := range funcs {
		if in.Op == ir.OpFuncBegin && in.Arg1 == name {
			return true
		}
	}
	return false
}
