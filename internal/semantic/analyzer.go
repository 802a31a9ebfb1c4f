// Package semantic implements semantic analysis for the compiler.
//
// Analysis runs in separate passes over the same tree:
//
//   - Analyze builds the symbol table and resolves every name. It reports
//     undeclared and redeclared names, misplaced break/continue, call arity
//     and unused variables.
//   - TypeCheck computes expression types from the resolved names and tests
//     every operator against the compatibility table in package types.
//   - VerifyExpressions and VerifyControlFlow look for likely mistakes that
//     are legal C: division by a literal zero, overflow-prone constants,
//     self-assignment, constant conditions and '=' used as a condition.
//
// Every pass collects diagnostics and keeps going; none of them stops at the
// first problem. The graph-mode variants (AnalyzeGraph and friends) run the
// same checks over the interactive parser's program graph.
package semantic

import (
	"fmt"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/parser/ast"
	"github.com/hassan/ccompiler/internal/semantic/types"
	"github.com/hassan/ccompiler/internal/symtab"
)

// Diagnostic codes reported by this package.
const (
	CodeUndeclared       = "undeclared-identifier"
	CodeRedeclared       = "redeclaration"
	CodeUnused           = "unused-variable"
	CodeNotFunction      = "not-a-function"
	CodeArgumentCount    = "argument-count"
	CodeMisplacedJump    = "misplaced-jump"
	CodeTypeMismatch     = "type-mismatch"
	CodeTypeWarning      = "type-warning"
	CodeReturnType       = "return-type"
	CodeDivisionByZero   = "division-by-zero"
	CodeOverflow         = "overflow-risk"
	CodeSelfAssignment   = "self-assignment"
	CodeConstantCond     = "constant-condition"
	CodeAssignmentInCond = "assignment-in-condition"
	CodeNoInput          = "no-input"
)

// Result is the outcome of analysis: the symbol table, the diagnostics of
// every pass run so far, and what each identifier resolved to.
type Result struct {
	Table *symtab.Table
	Diags diag.List

	// Resolved maps each identifier read or written in the tree to its
	// declaration. Ambient names and library functions are absent.
	Resolved map[*ast.Ident]*symtab.Symbol

	// Types holds the type TypeCheck computed for each expression.
	Types map[ast.Expr]types.Type

	graph *graphScopes
}

// Success reports whether no pass found an error.
func (r *Result) Success() bool {
	return r != nil && r.Table != nil && !r.Diags.HasErrors()
}

// Symbols returns every declared symbol in declaration order.
func (r *Result) Symbols() []*symtab.Symbol {
	if r == nil || r.Table == nil {
		return nil
	}
	return r.Table.Symbols()
}

// Analyzer performs semantic analysis. One Analyzer serves one source text;
// it holds no state between calls other than the source used for excerpts.
type Analyzer struct {
	src *diag.Source

	table    *symtab.Table
	diags    diag.List
	resolved map[*ast.Ident]*symtab.Symbol

	// prototypes records functions declared without a body, so a later
	// definition is not a redeclaration.
	prototypes map[string]bool
}

// New creates an analyzer for source, which is used only for diagnostic
// excerpts and may be empty.
func New(source string) *Analyzer {
	return &Analyzer{src: diag.NewSource(source)}
}

// Run performs every pass over file and returns the combined result.
func (a *Analyzer) Run(file *ast.File) *Result {
	res := a.Analyze(file)
	if res.Table == nil {
		return res
	}
	res.Diags = append(res.Diags, a.TypeCheck(file, res)...)
	res.Diags = append(res.Diags, a.VerifyExpressions(file)...)
	res.Diags = append(res.Diags, a.VerifyControlFlow(file)...)
	return res
}

// Analyze builds the symbol table for file and resolves every name.
// A nil file yields a result with no table and a single error.
func (a *Analyzer) Analyze(file *ast.File) *Result {
	if file == nil {
		return &Result{Diags: diag.List{
			diag.Errorf(diag.KindPipeline, 0, 0, "no syntax tree to analyze").WithCode(CodeNoInput),
		}}
	}

	a.table = symtab.NewTable()
	a.diags = nil
	a.resolved = make(map[*ast.Ident]*symtab.Symbol)
	a.prototypes = make(map[string]bool)

	// Functions are visible from every body, whatever their order.
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			a.declareFunc(fn)
		}
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			a.varDecl(d)
		case *ast.FuncDecl:
			a.funcBody(d)
		}
	}

	for _, s := range a.table.Unused() {
		a.warn(s.Pos, CodeUnused, "variable '%s' is declared but never used", s.Name).
			suggest("remove the declaration or use the variable")
	}

	return &Result{
		Table:    a.table,
		Diags:    a.diags,
		Resolved: a.resolved,
		Types:    make(map[ast.Expr]types.Type),
	}
}

// Declarations

func (a *Analyzer) declareFunc(fn *ast.FuncDecl) {
	if fn.Name == nil {
		return
	}
	name := fn.Name.Name
	sym := &symtab.Symbol{
		Name:        name,
		Kind:        symtab.SymbolFunction,
		Type:        typeOf(fn.ReturnType),
		Pos:         fn.Name.Pos(),
		Variadic:    fn.Variadic,
		Initialized: true,
	}
	for _, p := range fn.Params {
		ps := &symtab.Symbol{Kind: symtab.SymbolParameter, Type: typeOf(p.Type), Pos: p.Pos(), Initialized: true}
		if p.Name != nil {
			ps.Name = p.Name.Name
			ps.Pos = p.Name.Pos()
		}
		sym.Params = append(sym.Params, ps)
	}

	if existing := a.table.Global().LookupLocal(name); existing != nil && existing.Kind == symtab.SymbolFunction {
		switch {
		case fn.Body == nil:
			// another prototype, or a prototype after the definition
			return
		case a.prototypes[name]:
			delete(a.prototypes, name)
			existing.Params = sym.Params
			existing.Variadic = sym.Variadic
			return
		}
	}
	if err := a.table.Define(sym); err != nil {
		a.redeclared(fn.Name, err)
		return
	}
	if fn.Body == nil {
		a.prototypes[name] = true
	}
}

func (a *Analyzer) funcBody(fn *ast.FuncDecl) {
	if fn.Body == nil || fn.Name == nil {
		return
	}
	a.table.Push(symtab.ScopeFunction, fn.Name.Name)
	for _, p := range fn.Params {
		if p.Name == nil {
			continue
		}
		ps := &symtab.Symbol{Name: p.Name.Name, Kind: symtab.SymbolParameter, Type: typeOf(p.Type), Pos: p.Name.Pos(), Initialized: true}
		if err := a.table.Define(ps); err != nil {
			a.redeclared(p.Name, err)
			continue
		}
		a.resolved[p.Name] = ps
	}
	// The outermost block shares the function scope with the parameters.
	for _, s := range fn.Body.Statements {
		a.stmt(s)
	}
	a.table.Pop()
}

func (a *Analyzer) varDecl(d *ast.VarDecl) {
	for _, spec := range d.Specs {
		if spec.ArrayLen != nil {
			a.expr(spec.ArrayLen)
		}
		if spec.Init != nil {
			a.expr(spec.Init)
		}
		for _, e := range spec.InitList {
			a.expr(e)
		}
		if spec.Name == nil {
			continue
		}
		sym := &symtab.Symbol{
			Name:        spec.Name.Name,
			Kind:        symtab.SymbolVariable,
			Type:        specType(spec),
			Pos:         spec.Name.Pos(),
			Initialized: spec.Init != nil || spec.InitList != nil,
			Constant:    hasQualifier(spec.Type, "const"),
		}
		if err := a.table.Define(sym); err != nil {
			a.redeclared(spec.Name, err)
			continue
		}
		a.resolved[spec.Name] = sym
	}
}

func (a *Analyzer) redeclared(id *ast.Ident, err error) {
	first := a.table.Current().LookupLocal(id.Name)
	d := a.errorAt(id.Pos(), CodeRedeclared, "redeclaration of '%s'", id.Name)
	if first != nil {
		d.suggest(fmt.Sprintf("'%s' was first declared at line %d in %s scope; rename one of them", id.Name, first.Line(), first.ScopeName()))
	} else {
		d.suggest(err.Error())
	}
}

// Statements

func (a *Analyzer) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case nil:
	case *ast.VarDecl:
		a.varDecl(n)
	case *ast.BlockStmt:
		a.table.Push(symtab.ScopeBlock, "")
		for _, st := range n.Statements {
			a.stmt(st)
		}
		a.table.Pop()
	case *ast.ExprStmt:
		if n.Expression != nil {
			a.expr(n.Expression)
		}
	case *ast.IfStmt:
		a.expr(n.Cond)
		a.stmt(n.Then)
		a.stmt(n.Else)
	case *ast.WhileStmt:
		a.expr(n.Cond)
		a.loopBody(n.Body)
	case *ast.DoWhileStmt:
		a.loopBody(n.Body)
		a.expr(n.Cond)
	case *ast.ForStmt:
		a.table.Push(symtab.ScopeLoop, "")
		a.stmt(n.Init)
		a.expr(n.Cond)
		a.expr(n.Post)
		a.blockContents(n.Body)
		a.table.Pop()
	case *ast.SwitchStmt:
		a.expr(n.Tag)
		a.table.Push(symtab.ScopeSwitch, "")
		for _, c := range n.Cases {
			a.expr(c.Value)
			for _, st := range c.Body {
				a.stmt(st)
			}
		}
		a.table.Pop()
	case *ast.ReturnStmt:
		a.expr(n.Value)
	case *ast.BreakStmt:
		if a.table.Current().FindEnclosingLoopOrSwitch() == nil {
			a.errorAt(n.Pos(), CodeMisplacedJump, "'break' outside of a loop or switch").
				suggest("use 'break' only inside while, do, for or switch")
		}
	case *ast.ContinueStmt:
		if a.table.Current().FindEnclosingLoop() == nil {
			a.errorAt(n.Pos(), CodeMisplacedJump, "'continue' outside of a loop").
				suggest("use 'continue' only inside while, do or for")
		}
	case *ast.LabeledStmt:
		a.stmt(n.Stmt)
	case *ast.GotoStmt, *ast.BadStmt:
	}
}

// loopBody walks a loop body in a loop scope.
func (a *Analyzer) loopBody(body ast.Stmt) {
	a.table.Push(symtab.ScopeLoop, "")
	a.blockContents(body)
	a.table.Pop()
}

// blockContents walks a braced body without opening another scope.
func (a *Analyzer) blockContents(body ast.Stmt) {
	if b, ok := body.(*ast.BlockStmt); ok {
		for _, st := range b.Statements {
			a.stmt(st)
		}
		return
	}
	a.stmt(body)
}

// Expressions

func (a *Analyzer) expr(e ast.Expr) {
	switch n := e.(type) {
	case nil:
	case *ast.Ident:
		if sym := a.resolve(n); sym != nil {
			sym.MarkUsed()
		}
	case *ast.Literal, *ast.BadExpr:
	case *ast.BinaryExpr:
		a.expr(n.Left)
		a.expr(n.Right)
	case *ast.UnaryExpr:
		a.expr(n.Operand)
	case *ast.AssignExpr:
		if id, ok := n.Target.(*ast.Ident); ok && !n.IsCompound() {
			// a plain store is not a read
			a.resolve(id)
		} else {
			a.expr(n.Target)
		}
		a.expr(n.Value)
	case *ast.CondExpr:
		a.expr(n.Cond)
		a.expr(n.Then)
		a.expr(n.Else)
	case *ast.CommaExpr:
		for _, x := range n.List {
			a.expr(x)
		}
	case *ast.CallExpr:
		a.call(n)
	case *ast.IndexExpr:
		a.expr(n.Object)
		a.expr(n.Index)
	case *ast.MemberExpr:
		a.expr(n.Object)
	case *ast.CastExpr:
		a.expr(n.Operand)
	case *ast.SizeofExpr:
		a.expr(n.Operand)
	}
}

func (a *Analyzer) call(c *ast.CallExpr) {
	for _, arg := range c.Args {
		a.expr(arg)
	}
	id, ok := c.Callee.(*ast.Ident)
	if !ok {
		a.expr(c.Callee)
		return
	}
	if ambient[id.Name] {
		return
	}
	sym := a.table.Lookup(id.Name)
	if sym == nil {
		if IsLibraryFunction(id.Name) {
			return
		}
		d := a.errorAt(id.Pos(), CodeUndeclared, "call to undeclared function '%s'", id.Name)
		if s := suggestName(id.Name, a.functionNames()); s != "" {
			d.suggest(fmt.Sprintf("did you mean '%s'?", s))
		} else {
			d.suggest("declare or define the function before calling it")
		}
		return
	}
	a.resolved[id] = sym
	sym.MarkUsed()
	if sym.Kind != symtab.SymbolFunction {
		a.errorAt(id.Pos(), CodeNotFunction, "'%s' is a %s, not a function", id.Name, sym.Kind).
			suggest(fmt.Sprintf("'%s' is declared at line %d", id.Name, sym.Line()))
		return
	}
	want := len(sym.Params)
	if got := len(c.Args); got != want && !(sym.Variadic && got > want) {
		a.errorAt(c.LeftParen.Position, CodeArgumentCount,
			"function '%s' expects %d argument%s but %d %s given", id.Name, want, plural(want), got, wasWere(got)).
			suggest(fmt.Sprintf("'%s' is declared at line %d", id.Name, sym.Line()))
	}
}

// resolve looks a name up, reporting it when undeclared. It returns nil for
// undeclared, ambient and library names.
func (a *Analyzer) resolve(id *ast.Ident) *symtab.Symbol {
	if ambient[id.Name] {
		return nil
	}
	if sym := a.table.Lookup(id.Name); sym != nil {
		a.resolved[id] = sym
		return sym
	}
	if IsLibraryFunction(id.Name) {
		return nil
	}
	d := a.errorAt(id.Pos(), CodeUndeclared, "undeclared identifier '%s'", id.Name)
	if s := suggestName(id.Name, visibleNames(a.table.Current())); s != "" {
		d.suggest(fmt.Sprintf("did you mean '%s'?", s))
	} else {
		d.suggest(fmt.Sprintf("declare '%s' before using it", id.Name))
	}
	return nil
}

func (a *Analyzer) functionNames() []string {
	var names []string
	for _, s := range a.table.Global().LocalSymbols() {
		if s.Kind == symtab.SymbolFunction {
			names = append(names, s.Name)
		}
	}
	return names
}

// visibleNames lists the names a lookup from scope can reach.
func visibleNames(scope *symtab.Scope) []string {
	var names []string
	for s := scope; s != nil; s = s.Parent {
		for _, sym := range s.LocalSymbols() {
			names = append(names, sym.Name)
		}
	}
	return names
}

// Diagnostics

// pending is a diagnostic already appended to a list, so a suggestion can
// be attached after the fact.
type pending struct {
	list *diag.List
	i    int
}

func (p pending) suggest(s string) {
	(*p.list)[p.i].Suggestion = s
}

func (a *Analyzer) errorAt(pos lexer.Position, code, format string, args ...any) pending {
	return a.add(diag.Errorf(diag.KindSemantic, pos.Line, pos.Column, format, args...).WithCode(code))
}

func (a *Analyzer) warn(pos lexer.Position, code, format string, args ...any) pending {
	return a.add(diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, format, args...).WithCode(code))
}

func (a *Analyzer) add(d diag.Diagnostic) pending {
	a.diags = append(a.diags, d.WithExcerpt(a.src))
	return pending{list: &a.diags, i: len(a.diags) - 1}
}

// Helpers

func typeOf(t *ast.TypeSpec) types.Type {
	if t == nil {
		return types.Unknown
	}
	return types.Normalize(t.String())
}

func specType(spec *ast.VarSpec) types.Type {
	t := typeOf(spec.Type)
	if spec.Array && t.Known() {
		t = types.Normalize(string(t) + "[]")
	}
	return t
}

func hasQualifier(t *ast.TypeSpec, q string) bool {
	if t == nil {
		return false
	}
	for _, x := range t.Qualifiers {
		if x == q {
			return true
		}
	}
	return false
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func wasWere(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}
