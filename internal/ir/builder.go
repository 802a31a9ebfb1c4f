package ir

import (
	"strconv"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/parser/ast"
	"github.com/hassan/ccompiler/internal/semantic"
	"github.com/hassan/ccompiler/internal/semantic/types"
	"github.com/hassan/ccompiler/internal/symtab"
)

// Result is the outcome of lowering: the instruction list, the control-flow
// graph grown alongside it, and any diagnostics.
type Result struct {
	Code  Program
	CFG   *CFG
	Diags diag.List
}

// Success reports whether lowering produced code without errors.
func (r *Result) Success() bool {
	return r != nil && r.CFG != nil && !r.Diags.HasErrors()
}

// Builder lowers a syntax tree to three-address code.
//
// Every instruction goes through emit, which appends it to the program and
// feeds it to a CFGBuilder, so the graph is complete the moment the last
// instruction is written. Temporaries are t0, t1, ... and compiler labels
// L0, L1, ...; both counters run across the whole program.
type Builder struct {
	// res supplies callee symbols for deciding whether a call yields a value.
	res *semantic.Result

	code  Program
	cfg   *CFGBuilder
	diags diag.List

	temps  int
	labels int

	// breakTarget and continueTarget are the labels of the innermost
	// enclosing loop or switch. continueTarget is "" inside a switch that
	// is not within a loop.
	breakTarget    string
	continueTarget string
}

// NewBuilder creates a builder. res may be nil.
func NewBuilder(res *semantic.Result) *Builder {
	return &Builder{res: res, cfg: NewCFGBuilder()}
}

// Generate lowers file. A nil file yields a result with no code and a
// single error.
func Generate(file *ast.File, res *semantic.Result) *Result {
	if file == nil {
		return &Result{Diags: diag.List{
			diag.Errorf(diag.KindPipeline, 0, 0, "no syntax tree to lower"),
		}}
	}
	b := NewBuilder(res)
	for _, decl := range file.Decls {
		b.buildDecl(decl)
	}
	return b.Finish()
}

// Finish closes the graph, cross-checks it against the leader-based
// construction and returns the result.
func (b *Builder) Finish() *Result {
	cfg := b.cfg.Finish()
	if !cfg.Equal(BuildCFG(b.code)) {
		b.diags = append(b.diags, diag.Errorf(diag.KindInternal, 0, 0,
			"incremental and leader-based control-flow graphs disagree").WithCode("cfg-mismatch"))
	}
	b.diags = append(b.diags, cfg.Verify()...)
	return &Result{Code: b.code, CFG: cfg, Diags: b.diags}
}

func (b *Builder) emit(in Instruction) {
	b.code = append(b.code, in)
	b.cfg.Add(in)
}

func (b *Builder) newTemp() string {
	t := "t" + strconv.Itoa(b.temps)
	b.temps++
	return t
}

func (b *Builder) newLabel() string {
	l := "L" + strconv.Itoa(b.labels)
	b.labels++
	return l
}

func (b *Builder) errorAt(pos lexer.Position, format string, args ...any) {
	b.diags = append(b.diags, diag.Errorf(diag.KindCodegen, pos.Line, pos.Column, format, args...))
}

// buildDecl lowers a top-level declaration.
func (b *Builder) buildDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		b.buildFunction(d)
	case *ast.VarDecl:
		b.buildVar(d)
	}
}

// buildFunction lowers a function definition. Prototypes emit nothing.
func (b *Builder) buildFunction(fn *ast.FuncDecl) {
	if fn.Body == nil {
		return
	}
	name := fn.Name.Name
	b.emit(Label("func_" + name))
	b.emit(Instruction{Op: OpFuncBegin, Arg1: name})

	b.buildStmt(fn.Body)

	if n := len(b.code); n == 0 || b.code[n-1].Op != OpReturn {
		b.emit(Return(""))
	}
	b.emit(Instruction{Op: OpFuncEnd, Arg1: name})
}

// buildVar lowers a declaration, global or local, to DECL lines followed
// by the initializers.
func (b *Builder) buildVar(d *ast.VarDecl) {
	for _, spec := range d.Specs {
		name := spec.Name.Name
		b.emit(Instruction{Op: OpDecl, Arg1: declType(spec), Arg2: name})
		switch {
		case spec.Init != nil:
			b.emit(Assign(name, b.buildExpr(spec.Init)))
		case len(spec.InitList) > 0:
			for i, e := range spec.InitList {
				v := b.buildExpr(e)
				b.emit(Instruction{Op: OpIndexStore, Result: name, Arg1: strconv.Itoa(i), Arg2: v})
			}
		}
	}
}

func declType(spec *ast.VarSpec) string {
	t := spec.Type.String()
	if !spec.Array {
		return t
	}
	n := ""
	if spec.ArrayLen != nil {
		n = strings.ReplaceAll(ast.ExprString(spec.ArrayLen), " ", "")
	} else if len(spec.InitList) > 0 {
		n = strconv.Itoa(len(spec.InitList))
	}
	return t + "[" + n + "]"
}

// buildStmt lowers a statement.
func (b *Builder) buildStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if call, ok := s.Expression.(*ast.CallExpr); ok {
			b.buildCall(call, false)
			return
		}
		b.buildExpr(s.Expression)

	case *ast.BlockStmt:
		for _, inner := range s.Statements {
			b.buildStmt(inner)
		}

	case *ast.VarDecl:
		b.buildVar(s)

	case *ast.IfStmt:
		b.buildIf(s)

	case *ast.WhileStmt:
		b.buildWhile(s)

	case *ast.DoWhileStmt:
		b.buildDoWhile(s)

	case *ast.ForStmt:
		b.buildFor(s)

	case *ast.SwitchStmt:
		b.buildSwitch(s)

	case *ast.ReturnStmt:
		v := ""
		if s.Value != nil {
			v = b.buildExpr(s.Value)
		}
		b.emit(Return(v))

	case *ast.BreakStmt:
		if b.breakTarget != "" {
			b.emit(Goto(b.breakTarget))
		}

	case *ast.ContinueStmt:
		if b.continueTarget != "" {
			b.emit(Goto(b.continueTarget))
		}

	case *ast.GotoStmt:
		b.emit(Goto("label_" + s.Label.Name))

	case *ast.LabeledStmt:
		b.emit(Label("label_" + s.Label.Name))
		b.buildStmt(s.Stmt)
	}
}

// buildIf lowers
//
//	cond; IF_FALSE_GOTO c, else; then; GOTO end; LABEL else; else; LABEL end
//
// and drops the else part when there is none.
func (b *Builder) buildIf(s *ast.IfStmt) {
	elseLabel := b.newLabel()
	endLabel := elseLabel
	if s.Else != nil {
		endLabel = b.newLabel()
	}

	cond := b.buildExpr(s.Cond)
	b.emit(IfFalseGoto(cond, elseLabel))
	b.buildStmt(s.Then)

	if s.Else != nil {
		b.emit(Goto(endLabel))
		b.emit(Label(elseLabel))
		b.buildStmt(s.Else)
	}
	b.emit(Label(endLabel))
}

func (b *Builder) buildWhile(s *ast.WhileStmt) {
	start, end := b.newLabel(), b.newLabel()

	oldBreak, oldContinue := b.breakTarget, b.continueTarget
	b.breakTarget, b.continueTarget = end, start

	b.emit(Label(start))
	cond := b.buildExpr(s.Cond)
	b.emit(IfFalseGoto(cond, end))
	b.buildStmt(s.Body)
	b.emit(Goto(start))
	b.emit(Label(end))

	b.breakTarget, b.continueTarget = oldBreak, oldContinue
}

func (b *Builder) buildDoWhile(s *ast.DoWhileStmt) {
	start, cont, end := b.newLabel(), b.newLabel(), b.newLabel()

	oldBreak, oldContinue := b.breakTarget, b.continueTarget
	b.breakTarget, b.continueTarget = end, cont

	b.emit(Label(start))
	b.buildStmt(s.Body)
	b.emit(Label(cont))
	cond := b.buildExpr(s.Cond)
	b.emit(IfTrueGoto(cond, start))
	b.emit(Label(end))

	b.breakTarget, b.continueTarget = oldBreak, oldContinue
}

func (b *Builder) buildFor(s *ast.ForStmt) {
	if s.Init != nil {
		b.buildStmt(s.Init)
	}
	start, cont, end := b.newLabel(), b.newLabel(), b.newLabel()

	oldBreak, oldContinue := b.breakTarget, b.continueTarget
	b.breakTarget, b.continueTarget = end, cont

	b.emit(Label(start))
	if s.Cond != nil {
		cond := b.buildExpr(s.Cond)
		b.emit(IfFalseGoto(cond, end))
	}
	b.buildStmt(s.Body)
	b.emit(Label(cont))
	if s.Post != nil {
		b.buildExpr(s.Post)
	}
	b.emit(Goto(start))
	b.emit(Label(end))

	b.breakTarget, b.continueTarget = oldBreak, oldContinue
}

// buildSwitch lowers a switch to a chain of equality tests, one
// IF_TRUE_GOTO per case, followed by the case bodies in source order so
// that control falls from one case into the next.
func (b *Builder) buildSwitch(s *ast.SwitchStmt) {
	tag := b.buildExpr(s.Tag)
	end := b.newLabel()

	caseLabels := make([]string, len(s.Cases))
	fallback := end
	for i, c := range s.Cases {
		caseLabels[i] = b.newLabel()
		if c.Value == nil {
			fallback = caseLabels[i]
			continue
		}
		v := b.buildExpr(c.Value)
		t := b.newTemp()
		b.emit(Binary(OpEq, t, tag, v))
		b.emit(IfTrueGoto(t, caseLabels[i]))
	}
	b.emit(Goto(fallback))

	oldBreak := b.breakTarget
	b.breakTarget = end
	for i, c := range s.Cases {
		b.emit(Label(caseLabels[i]))
		for _, st := range c.Body {
			b.buildStmt(st)
		}
	}
	b.breakTarget = oldBreak

	b.emit(Label(end))
}

// buildExpr lowers an expression and returns the operand holding its
// value: a name, a literal or a temporary.
func (b *Builder) buildExpr(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		switch e.Name {
		case "true":
			return "1"
		case "false", "NULL", "nullptr":
			return "0"
		}
		return e.Name

	case *ast.Literal:
		return b.buildLiteral(e)

	case *ast.BinaryExpr:
		return b.buildBinary(e)

	case *ast.UnaryExpr:
		return b.buildUnary(e)

	case *ast.AssignExpr:
		return b.buildAssign(e)

	case *ast.CondExpr:
		r := b.newTemp()
		elseLabel, end := b.newLabel(), b.newLabel()
		cond := b.buildExpr(e.Cond)
		b.emit(IfFalseGoto(cond, elseLabel))
		b.emit(Assign(r, b.buildExpr(e.Then)))
		b.emit(Goto(end))
		b.emit(Label(elseLabel))
		b.emit(Assign(r, b.buildExpr(e.Else)))
		b.emit(Label(end))
		return r

	case *ast.CommaExpr:
		v := "0"
		for _, x := range e.List {
			v = b.buildExpr(x)
		}
		return v

	case *ast.CallExpr:
		return b.buildCall(e, true)

	case *ast.IndexExpr:
		obj := b.buildExpr(e.Object)
		idx := b.buildExpr(e.Index)
		t := b.newTemp()
		b.emit(Instruction{Op: OpIndex, Result: t, Arg1: obj, Arg2: idx})
		return t

	case *ast.MemberExpr:
		obj := b.buildExpr(e.Object)
		op := OpMember
		if e.Arrow {
			op = OpPtrMember
		}
		t := b.newTemp()
		b.emit(Instruction{Op: op, Result: t, Arg1: obj, Arg2: e.Member.Name})
		return t

	case *ast.CastExpr:
		v := b.buildExpr(e.Operand)
		t := b.newTemp()
		b.emit(Instruction{Op: OpCast, Result: t, Arg1: v, Arg2: e.Type.String()})
		return t

	case *ast.SizeofExpr:
		var of string
		if e.Type != nil {
			of = e.Type.String()
		} else {
			of = ast.ExprString(e.Operand)
		}
		t := b.newTemp()
		b.emit(Instruction{Op: OpSizeof, Result: t, Arg1: strings.ReplaceAll(of, " ", "")})
		return t
	}
	return "0"
}

func (b *Builder) buildLiteral(lit *ast.Literal) string {
	switch lit.Kind {
	case ast.LitBool:
		if lit.Value == "true" {
			return "1"
		}
		return "0"
	case ast.LitNull:
		return "0"
	case ast.LitString:
		t := b.newTemp()
		b.emit(Instruction{Op: OpString, Result: t, Arg1: lit.Value})
		return t
	}
	return lit.Value
}

// buildBinary lowers a binary operator into a fresh temporary. && and ||
// are lowered with short-circuit jumps.
func (b *Builder) buildBinary(e *ast.BinaryExpr) string {
	switch e.Operator.Type {
	case lexer.TokenLAnd:
		return b.buildLogical(e, "0", "1", IfFalseGoto)
	case lexer.TokenLOr:
		return b.buildLogical(e, "1", "0", IfTrueGoto)
	}

	left := b.buildExpr(e.Left)
	right := b.buildExpr(e.Right)
	op, ok := BinaryOp(e.Op())
	if !ok {
		b.errorAt(e.Operator.Position, "operator '%s' has no intermediate form", e.Op())
		return "0"
	}
	if op == OpDiv || op == OpMod {
		b.guardDivisor(right, e.Operator.Position)
	}
	t := b.newTemp()
	b.emit(Binary(op, t, left, right))
	return t
}

// buildLogical evaluates the left operand and jumps to the end as soon as
// the result is decided; the right operand runs only when it matters.
//
//	r = short; c = left; jump(c, end); c = right; jump(c, end); r = full; LABEL end
func (b *Builder) buildLogical(e *ast.BinaryExpr, short, full string, jump func(cond, label string) Instruction) string {
	r := b.newTemp()
	end := b.newLabel()
	b.emit(Assign(r, short))
	left := b.buildExpr(e.Left)
	b.emit(jump(left, end))
	right := b.buildExpr(e.Right)
	b.emit(jump(right, end))
	b.emit(Assign(r, full))
	b.emit(Label(end))
	return r
}

// guardDivisor emits CHECK_DIVZERO ahead of a division unless the divisor
// is a non-zero literal. A literal zero is also reported.
func (b *Builder) guardDivisor(divisor string, pos lexer.Position) {
	if v, ok := NumericValue(divisor); ok {
		if v != 0 {
			return
		}
		b.emit(Comment("error: division by zero"))
		b.diags = append(b.diags, diag.Warnf(diag.KindSemantic, pos.Line, pos.Column,
			"division by zero").WithCode(semantic.CodeDivisionByZero))
	}
	b.emit(Instruction{Op: OpCheckDivZero, Arg1: divisor})
}

func (b *Builder) buildUnary(e *ast.UnaryExpr) string {
	switch op := e.Op(); op {
	case "++", "--":
		return b.buildIncDec(e)
	case "+":
		return b.buildExpr(e.Operand)
	default:
		v := b.buildExpr(e.Operand)
		uop, ok := UnaryOp(op)
		if !ok {
			b.errorAt(e.Operator.Position, "operator '%s' has no intermediate form", op)
			return "0"
		}
		t := b.newTemp()
		b.emit(Unary(uop, t, v))
		return t
	}
}

// buildIncDec lowers ++ and --. A prefix form yields the updated value and
// a postfix form the value before the update.
func (b *Builder) buildIncDec(e *ast.UnaryExpr) string {
	op := OpAdd
	if e.Op() == "--" {
		op = OpSub
	}
	cur := b.buildExpr(e.Operand)

	old := ""
	if e.IsPostfix {
		old = b.newTemp()
		b.emit(Assign(old, cur))
	}

	if id, ok := e.Operand.(*ast.Ident); ok {
		b.emit(Binary(op, id.Name, id.Name, "1"))
		if e.IsPostfix {
			return old
		}
		return id.Name
	}

	t := b.newTemp()
	b.emit(Binary(op, t, cur, "1"))
	b.store(e.Operand, t)
	if e.IsPostfix {
		return old
	}
	return t
}

func (b *Builder) buildAssign(e *ast.AssignExpr) string {
	if !e.IsCompound() {
		v := b.buildExpr(e.Value)
		return b.store(e.Target, v)
	}

	cur := b.buildExpr(e.Target)
	rhs := b.buildExpr(e.Value)
	op, ok := BinaryOp(e.BaseOp())
	if !ok {
		b.errorAt(e.Operator.Position, "operator '%s' has no intermediate form", e.Op())
		return "0"
	}
	if op == OpDiv || op == OpMod {
		b.guardDivisor(rhs, e.Operator.Position)
	}
	if id, ok := e.Target.(*ast.Ident); ok {
		b.emit(Binary(op, id.Name, cur, rhs))
		return id.Name
	}
	t := b.newTemp()
	b.emit(Binary(op, t, cur, rhs))
	return b.store(e.Target, t)
}

// store writes v to target and returns the operand that now holds the
// assigned value.
func (b *Builder) store(target ast.Expr, v string) string {
	switch t := target.(type) {
	case *ast.Ident:
		b.emit(Assign(t.Name, v))
		return t.Name
	case *ast.IndexExpr:
		obj := b.buildExpr(t.Object)
		idx := b.buildExpr(t.Index)
		b.emit(Instruction{Op: OpIndexStore, Result: obj, Arg1: idx, Arg2: v})
	case *ast.MemberExpr:
		obj := b.buildExpr(t.Object)
		op := OpMemberStore
		if t.Arrow {
			op = OpPtrMemberStore
		}
		b.emit(Instruction{Op: op, Result: obj, Arg1: t.Member.Name, Arg2: v})
	case *ast.UnaryExpr:
		if t.Op() != "*" {
			b.errorAt(t.Pos(), "cannot assign to '%s'", ast.ExprString(target))
			break
		}
		p := b.buildExpr(t.Operand)
		b.emit(Instruction{Op: OpStore, Result: p, Arg1: v})
	default:
		b.errorAt(target.Pos(), "cannot assign to '%s'", ast.ExprString(target))
	}
	return v
}

// buildCall evaluates the arguments left to right, passes them with PARAM
// and emits the call. The result is bound to a temporary only when want is
// set and the callee returns a value.
func (b *Builder) buildCall(c *ast.CallExpr, want bool) string {
	callee := ""
	var id *ast.Ident
	if ident, ok := c.Callee.(*ast.Ident); ok {
		id, callee = ident, ident.Name
	} else {
		callee = b.buildExpr(c.Callee)
	}

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = b.buildExpr(a)
	}
	for _, a := range args {
		b.emit(Instruction{Op: OpParam, Arg1: a})
	}

	in := Instruction{Op: OpCall, Arg1: callee, Arg2: strconv.Itoa(len(args))}
	if !want || !b.returnsValue(id) {
		b.emit(in)
		return "0"
	}
	in.Result = b.newTemp()
	b.emit(in)
	return in.Result
}

func (b *Builder) returnsValue(id *ast.Ident) bool {
	if id == nil {
		return true
	}
	if sym := b.lookupFunc(id); sym != nil {
		return sym.Type != types.Void
	}
	if semantic.IsLibraryFunction(id.Name) {
		return semantic.LibraryReturn(id.Name) != types.Void
	}
	return true
}

func (b *Builder) lookupFunc(id *ast.Ident) *symtab.Symbol {
	if b.res == nil {
		return nil
	}
	if sym := b.res.Resolved[id]; sym != nil {
		return sym
	}
	if b.res.Table == nil {
		return nil
	}
	if sym := b.res.Table.Global().LookupLocal(id.Name); sym != nil && sym.Kind == symtab.SymbolFunction {
		return sym
	}
	return nil
}
