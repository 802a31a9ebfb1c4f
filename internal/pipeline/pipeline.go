// Package pipeline drives a source text through every compiler stage.
//
// Each stage takes the previous stage's result and returns its own, so a
// caller can stop anywhere and show partial output. A stage whose input is
// missing, or whose predecessor failed while StopOnError is set, does not
// run: it returns a failed result carrying one diagnostic of the form
// "<stage> skipped because <prior> failed".
package pipeline

import (
	"fmt"
	"strings"

	"github.com/hassan/ccompiler/internal/codegen"
	"github.com/hassan/ccompiler/internal/config"
	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/graph"
	"github.com/hassan/ccompiler/internal/ir"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/optimizer"
	"github.com/hassan/ccompiler/internal/parser"
	"github.com/hassan/ccompiler/internal/parser/ast"
	"github.com/hassan/ccompiler/internal/semantic"
)

// Stage names a pipeline stage as it appears in messages.
type Stage string

const (
	StageLexer     Stage = "lexer"
	StageParser    Stage = "parser"
	StageSemantic  Stage = "semantic analyzer"
	StageIR        Stage = "intermediate code generator"
	StageOptimizer Stage = "optimizer"
	StageCodegen   Stage = "code generator"
)

// Stages lists the stages in execution order.
func Stages() []Stage {
	return []Stage{StageLexer, StageParser, StageSemantic, StageIR, StageOptimizer, StageCodegen}
}

// CodeSkipped marks the diagnostic of a stage that did not run.
const CodeSkipped = "stage-skipped"

// Result is the part of every stage result a presentation layer needs.
type Result struct {
	Stage   Stage
	Success bool
	Skipped bool

	// Output is the stage's product rendered as text: the token list, the
	// element summary, the symbol table, TAC or assembly.
	Output string

	Diags diag.List
}

func (r *Result) base() *Result { return r }

// Ok reports whether the stage ran and succeeded. A nil result is not ok.
func (r *Result) Ok() bool {
	return r != nil && r.Success
}

// Tokens is the lexer's result.
type Tokens struct {
	Result
	Tokens []lexer.Token
}

// Syntax is the parser's result. File is set in grammar mode, Program in
// interactive mode.
type Syntax struct {
	Result
	File     *ast.File
	Program  *semantic.GraphProgram
	Elements graph.Elements
}

// Semantics is the semantic analyzer's result.
type Semantics struct {
	Result
	Analysis *semantic.Result
}

// Intermediate is the intermediate code generator's result.
type Intermediate struct {
	Result
	IR *ir.Result
}

// Optimized is the optimizer's result.
type Optimized struct {
	Result
	Optimization *optimizer.Result
}

// Assembly is the code generator's result.
type Assembly struct {
	Result
	Codegen *codegen.Result
}

// Pipeline compiles one source text. It holds no state besides its inputs,
// so separate Pipelines may run concurrently.
type Pipeline struct {
	source   string
	filename string
	cfg      *config.Config
}

// New creates a pipeline for source. A nil cfg means config.Default().
func New(source, filename string, cfg *config.Config) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Pipeline{source: source, filename: filename, cfg: cfg}
}

// blocked decides whether stage may run on the result of the stage before
// it. It returns the skip result when it may not.
func (p *Pipeline) blocked(stage, before Stage, prior *Result) (Result, bool) {
	if prior != nil && !prior.Skipped && (prior.Success || !p.cfg.StopOnError) {
		return Result{}, false
	}
	d := diag.Errorf(diag.KindPipeline, 0, 0, "%s skipped because %s failed", stage, before).WithCode(CodeSkipped)
	return Result{Stage: stage, Skipped: true, Diags: diag.List{d}}, true
}

// Lex tokenizes the source.
func (p *Pipeline) Lex() *Tokens {
	tokens, diags := lexer.New(p.source, p.filename).Tokenize()

	var b strings.Builder
	for _, tok := range tokens {
		if tok.Type == lexer.TokenEOF {
			continue
		}
		b.WriteString(tok.String())
		b.WriteByte('\n')
	}
	return &Tokens{
		Result: Result{
			Stage:   StageLexer,
			Success: !diags.HasErrors(),
			Output:  b.String(),
			Diags:   diags,
		},
		Tokens: tokens,
	}
}

// Parse builds the AST in grammar mode or the program graph in interactive
// mode.
func (p *Pipeline) Parse(prev *Tokens) *Syntax {
	if skip, ok := p.blocked(StageParser, StageLexer, baseOf(prev)); ok {
		return &Syntax{Result: skip}
	}

	out := &Syntax{Result: Result{Stage: StageParser}}
	if p.cfg.Mode == config.ModeInteractive {
		res := parser.ParseProgram(prev.Tokens, p.source)
		out.Program = &semantic.GraphProgram{Graph: res.Graph, Elements: res.Elements, Tokens: prev.Tokens}
		out.Elements = res.Elements
		out.Diags = res.Diags
	} else {
		file, diags := parser.Parse(prev.Tokens, p.source)
		out.File = file
		out.Elements = ast.Summarize(file)
		out.Diags = diags
	}
	out.Success = !out.Diags.HasErrors()
	out.Output = renderElements(out.Elements)
	return out
}

// Analyze builds the symbol table and runs the type and verification
// passes.
func (p *Pipeline) Analyze(prev *Syntax) *Semantics {
	if skip, ok := p.blocked(StageSemantic, StageParser, baseOf(prev)); ok {
		return &Semantics{Result: skip}
	}

	an := semantic.New(p.source)
	var res *semantic.Result
	if prev.Program != nil {
		res = an.RunGraph(prev.Program)
	} else {
		res = an.Run(prev.File)
	}

	var b strings.Builder
	for _, sym := range res.Symbols() {
		b.WriteString(sym.String())
		b.WriteByte('\n')
	}
	return &Semantics{
		Result: Result{
			Stage:   StageSemantic,
			Success: res.Success(),
			Output:  b.String(),
			Diags:   res.Diags,
		},
		Analysis: res,
	}
}

// Generate lowers the syntax to three-address code. It needs both the
// syntax and the analysis; the analysis gates whether it runs.
func (p *Pipeline) Generate(syn *Syntax, sem *Semantics) *Intermediate {
	if skip, ok := p.blocked(StageIR, StageSemantic, baseOf(sem)); ok {
		return &Intermediate{Result: skip}
	}
	if skip, ok := p.blocked(StageIR, StageParser, baseOf(syn)); ok {
		return &Intermediate{Result: skip}
	}

	var res *ir.Result
	if syn.Program != nil {
		res = ir.GenerateGraph(syn.Program, sem.Analysis)
	} else {
		res = ir.Generate(syn.File, sem.Analysis)
	}
	return &Intermediate{
		Result: Result{
			Stage:   StageIR,
			Success: res.Success(),
			Output:  res.Code.String(),
			Diags:   res.Diags,
		},
		IR: res,
	}
}

// Optimize runs the passes of the configured level and checks that the
// optimized code still has a sound control-flow graph.
func (p *Pipeline) Optimize(prev *Intermediate) *Optimized {
	if skip, ok := p.blocked(StageOptimizer, StageIR, baseOf(prev)); ok {
		return &Optimized{Result: skip}
	}

	var code ir.Program
	if prev.IR != nil {
		code = prev.IR.Code
	}
	res := optimizer.Optimize(code, p.cfg.OptimizerOptions())
	diags := ir.BuildCFG(res.Code).Verify()
	return &Optimized{
		Result: Result{
			Stage:   StageOptimizer,
			Success: !diags.HasErrors(),
			Output:  res.Code.String(),
			Diags:   diags,
		},
		Optimization: res,
	}
}

// Emit lowers the optimized code to assembly for the configured target.
func (p *Pipeline) Emit(prev *Optimized) *Assembly {
	if skip, ok := p.blocked(StageCodegen, StageOptimizer, baseOf(prev)); ok {
		return &Assembly{Result: skip}
	}

	var code ir.Program
	if prev.Optimization != nil {
		code = prev.Optimization.Code
	}
	res := codegen.Generate(code, p.cfg.Arch())
	return &Assembly{
		Result: Result{
			Stage:   StageCodegen,
			Success: res.Success(),
			Output:  res.Assembly,
			Diags:   res.Diags,
		},
		Codegen: res,
	}
}

// Report holds the result of every stage of one run.
type Report struct {
	Tokens       *Tokens
	Syntax       *Syntax
	Semantics    *Semantics
	Intermediate *Intermediate
	Optimized    *Optimized
	Assembly     *Assembly
}

// Run runs every stage in order.
func (p *Pipeline) Run() *Report {
	r := &Report{}
	r.Tokens = p.Lex()
	r.Syntax = p.Parse(r.Tokens)
	r.Semantics = p.Analyze(r.Syntax)
	r.Intermediate = p.Generate(r.Syntax, r.Semantics)
	r.Optimized = p.Optimize(r.Intermediate)
	r.Assembly = p.Emit(r.Optimized)
	return r
}

// Run compiles source with cfg. A nil cfg means config.Default().
func Run(source string, cfg *config.Config) *Report {
	return New(source, "", cfg).Run()
}

// Results returns the stage results in execution order.
func (r *Report) Results() []*Result {
	return []*Result{
		baseOf(r.Tokens),
		baseOf(r.Syntax),
		baseOf(r.Semantics),
		baseOf(r.Intermediate),
		baseOf(r.Optimized),
		baseOf(r.Assembly),
	}
}

// Success reports whether every stage succeeded.
func (r *Report) Success() bool {
	for _, res := range r.Results() {
		if !res.Ok() {
			return false
		}
	}
	return true
}

// Diags returns the diagnostics of every stage in execution order.
func (r *Report) Diags() diag.List {
	var out diag.List
	for _, res := range r.Results() {
		if res != nil {
			out = append(out, res.Diags...)
		}
	}
	return out
}

// Summary renders one row per stage: name, status and diagnostic counts.
func (r *Report) Summary() [][]string {
	rows := make([][]string, 0, len(Stages()))
	for i, res := range r.Results() {
		status := "ok"
		switch {
		case res == nil || res.Skipped:
			status = "skipped"
		case !res.Success:
			status = "failed"
		}
		var errs, warns int
		if res != nil {
			errs, warns = len(res.Diags.Errors()), len(res.Diags.Warnings())
		}
		rows = append(rows, []string{
			string(Stages()[i]), status, fmt.Sprint(errs), fmt.Sprint(warns),
		})
	}
	return rows
}

type staged interface{ base() *Result }

// baseOf returns the embedded Result, or nil for a nil stage result.
func baseOf[T staged](s T) *Result {
	var zero T
	if any(s) == any(zero) {
		return nil
	}
	return s.base()
}

func renderElements(es graph.Elements) string {
	var b strings.Builder
	for _, e := range es {
		if e.Nested {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%s: %s\n", e.Type, e.Value)
	}
	return b.String()
}
