// Package optimizer rewrites three-address code in level-gated passes.
//
// Passes run once each, in a fixed order:
//
//	level 1: constant folding, unreachable-code removal, dead-assignment elimination
//	level 2: common subexpression elimination, constant propagation, strength reduction
//	level 3: loop-invariant hoisting, small-loop unrolling, tail-call marking
//
// Removed instructions are not deleted. They become comment lines such as
// "# REMOVED (DEAD CODE): x = 1" so the optimized listing still lines up
// with the original. Every rewrite is described in Result.Applied.
package optimizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/ir"
)

// MaxLevel is the highest optimization level.
const MaxLevel = 3

// Options configure a run.
type Options struct {
	// Level gates the passes, 0 to MaxLevel. Out-of-range values are
	// clamped.
	Level int

	// ExemptTemporaries keeps assignments to compiler temporaries (t0,
	// t1, ...) out of dead-assignment elimination.
	ExemptTemporaries bool
}

// Pass is one rewrite over a whole program.
type Pass interface {
	// Name returns a human-readable name for this pass.
	Name() string

	// Level is the lowest optimization level that runs the pass.
	Level() int

	// Run rewrites prog and returns the result. It may modify prog in place.
	Run(prog ir.Program, ctx *Context) ir.Program
}

// Context is handed to every pass of a run.
type Context struct {
	Options

	applied []string
	stats   *Stats
	pass    string
}

// Record logs one applied rewrite.
func (c *Context) Record(format string, args ...any) {
	c.applied = append(c.applied, fmt.Sprintf(format, args...))
	c.stats.Rewrites[c.pass]++
}

// Result is the outcome of a run.
type Result struct {
	Code    ir.Program
	Applied []string
	Stats   *Stats
}

// Optimizer runs its passes in order.
type Optimizer struct {
	passes []Pass
	opts   Options
}

// New returns an optimizer with the standard passes.
func New(opts Options) *Optimizer {
	if opts.Level < 0 {
		opts.Level = 0
	}
	if opts.Level > MaxLevel {
		opts.Level = MaxLevel
	}
	return &Optimizer{
		opts: opts,
		passes: []Pass{
			&ConstantFoldingPass{},
			&UnreachableCodePass{},
			&DeadAssignmentPass{},
			&CommonSubexpressionPass{},
			&ConstantPropagationPass{},
			&StrengthReductionPass{},
			&LoopInvariantPass{},
			&LoopUnrollPass{},
			&TailCallPass{},
		},
	}
}

// Passes returns the names of the passes the configured level runs.
func (o *Optimizer) Passes() []string {
	var out []string
	for _, p := range o.passes {
		if p.Level() <= o.opts.Level {
			out = append(out, p.Name())
		}
	}
	return out
}

// Optimize runs the passes over a copy of prog.
func (o *Optimizer) Optimize(prog ir.Program) *Result {
	code := append(ir.Program(nil), prog...)
	ctx := &Context{Options: o.opts, stats: NewStats()}
	for _, p := range o.passes {
		if p.Level() > o.opts.Level {
			continue
		}
		ctx.pass = p.Name()
		ctx.stats.PassExecutions[p.Name()]++
		code = p.Run(code, ctx)
	}
	ctx.stats.count(prog, code)
	return &Result{Code: code, Applied: ctx.applied, Stats: ctx.stats}
}

// Optimize runs the standard passes at opts.Level.
func Optimize(prog ir.Program, opts Options) *Result {
	return New(opts).Optimize(prog)
}

// OptimizeText parses text, optimizes it and renders the result. Lines
// that do not parse are reported and dropped.
func OptimizeText(text string, opts Options) (string, []string, diag.List) {
	prog, diags := ir.Parse(text)
	res := Optimize(prog, opts)
	return res.Code.String(), res.Applied, diags
}

// Stats summarises a run.
type Stats struct {
	// InstructionsRemoved counts instructions turned into REMOVED or
	// HOISTED markers, net of instructions added.
	InstructionsRemoved int

	// Rewrites counts applied rewrites per pass.
	Rewrites map[string]int

	// PassExecutions tracks how many times each pass ran.
	PassExecutions map[string]int
}

// NewStats creates an empty tracker.
func NewStats() *Stats {
	return &Stats{
		Rewrites:       make(map[string]int),
		PassExecutions: make(map[string]int),
	}
}

func (s *Stats) count(before, after ir.Program) {
	live := func(p ir.Program) int {
		n := 0
		for _, in := range p {
			if in.Op != ir.OpComment {
				n++
			}
		}
		return n
	}
	s.InstructionsRemoved = live(before) - live(after)
}

// String returns a human-readable summary.
func (s *Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Optimization Stats:\n  Instructions removed: %d\n", s.InstructionsRemoved)
	names := make([]string, 0, len(s.Rewrites))
	for n := range s.Rewrites {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&sb, "  %s: %d\n", n, s.Rewrites[n])
	}
	return sb.String()
}

// removed returns the marker that replaces an eliminated instruction.
func removed(reason string, in ir.Instruction) ir.Instruction {
	return ir.Comment(fmt.Sprintf("%s: %s", reason, in))
}
