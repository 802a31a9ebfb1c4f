package semantic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/graph"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/semantic/types"
	"github.com/hassan/ccompiler/internal/symtab"
)

// GraphProgram is the output of the interactive parser together with the
// tokens its element spans index into.
type GraphProgram struct {
	Graph    *graph.Graph
	Elements graph.Elements
	Tokens   []lexer.Token
}

// graphScopes remembers where graph-mode scopes begin and end so later
// passes can resolve a name as seen from any token.
type graphScopes struct {
	containers []container

	// declAt is the token index of each declared name; declSym is the
	// reverse map.
	declAt  map[*symtab.Symbol]int
	declSym map[int]*symtab.Symbol
}

// container is the token span of a method or class and the scope opened
// for it.
type container struct {
	start, end int
	scope      *symtab.Scope
	owner      *symtab.Symbol
}

// scopeAt returns the innermost scope covering token index k.
func (gs *graphScopes) scopeAt(global *symtab.Scope, k int) *symtab.Scope {
	scope := global
	for _, c := range gs.containers {
		if c.start <= k && k < c.end && c.scope.Depth > scope.Depth {
			scope = c.scope
		}
	}
	return scope
}

// inClass reports whether token k lies inside a class body. Locals of
// member functions are not scanned, so names there are left unresolved.
func (gs *graphScopes) inClass(k int) bool {
	for _, c := range gs.containers {
		if c.scope.Kind == symtab.ScopeClass && c.start <= k && k < c.end {
			return true
		}
	}
	return false
}

// lookup resolves name as seen from token k: a variable is visible only
// after its declaration.
func (gs *graphScopes) lookup(global *symtab.Scope, name string, k int) *symtab.Symbol {
	for s := gs.scopeAt(global, k); s != nil; s = s.Parent {
		sym := s.LookupLocal(name)
		if sym == nil {
			continue
		}
		if at, ok := gs.declAt[sym]; ok && sym.Kind == symtab.SymbolVariable && at > k {
			continue
		}
		return sym
	}
	return nil
}

// RunGraph performs every pass over an interactive-mode program.
func (a *Analyzer) RunGraph(p *GraphProgram) *Result {
	res := a.AnalyzeGraph(p)
	if res.Table == nil {
		return res
	}
	res.Diags = append(res.Diags, a.TypeCheckGraph(p, res)...)
	res.Diags = append(res.Diags, a.VerifyExpressionsGraph(p)...)
	res.Diags = append(res.Diags, a.VerifyControlFlowGraph(p)...)
	return res
}

// AnalyzeGraph builds the symbol table from a program graph. Classes,
// attributes, methods with their parameters and variables become symbols
// in scopes "global", "class:<name>" and "function:<name>"; a name declared
// twice in one scope is an error. Names read in expressions, conditions
// and initializers are resolved, and variables never read are reported.
func (a *Analyzer) AnalyzeGraph(p *GraphProgram) *Result {
	if p == nil || p.Graph == nil {
		return &Result{Diags: diag.List{
			diag.Errorf(diag.KindPipeline, 0, 0, "no program graph to analyze").WithCode(CodeNoInput),
		}}
	}
	a.table = symtab.NewTable()
	a.diags = nil
	gs := &graphScopes{
		declAt:  make(map[*symtab.Symbol]int),
		declSym: make(map[int]*symtab.Symbol),
	}

	var open []container
	for _, e := range sortedElements(p.Elements) {
		for len(open) > 0 && e.Start >= open[len(open)-1].end {
			open = open[:len(open)-1]
			a.table.Pop()
		}
		node := p.Graph.Node(e.Node)
		if node == nil {
			continue
		}
		switch e.Type {
		case graph.ElementClass:
			at := p.nameIndex(e, node.Key)
			sym := &symtab.Symbol{Name: node.Key, Kind: symtab.SymbolClass, Type: types.Type(node.Key), Pos: p.pos(at), Initialized: true}
			a.defineGraph(gs, sym, at)
			c := container{start: e.Start, end: e.End, scope: a.table.Push(symtab.ScopeClass, node.Key), owner: sym}
			open = append(open, c)
			gs.containers = append(gs.containers, c)

		case graph.ElementAttribute:
			at := p.nameIndex(e, node.Name)
			sym := &symtab.Symbol{Name: node.Name, Kind: symtab.SymbolAttribute, Type: types.Normalize(node.DataType), Pos: p.pos(at)}
			if a.defineGraph(gs, sym, at) && len(open) > 0 && open[len(open)-1].owner.Kind == symtab.SymbolClass {
				owner := open[len(open)-1].owner
				owner.Attributes = append(owner.Attributes, sym)
			}

		case graph.ElementMethod:
			at := p.nameIndex(e, node.Key)
			sym := &symtab.Symbol{Name: node.Key, Kind: symtab.SymbolFunction, Type: types.Normalize(node.DataType), Pos: p.pos(at), Initialized: true}
			a.defineGraph(gs, sym, at)
			c := container{start: e.Start, end: e.End, scope: a.table.Push(symtab.ScopeFunction, node.Key), owner: sym}
			for _, pn := range p.Graph.Children(e.Node, graph.LabelParameter) {
				ps := &symtab.Symbol{Name: pn.Name, Kind: symtab.SymbolParameter, Type: types.Normalize(pn.DataType), Initialized: true}
				sym.Params = append(sym.Params, ps)
				if pn.Name == "" {
					continue
				}
				pat := p.nameIndex(e, pn.Name)
				ps.Pos = p.pos(pat)
				a.defineGraph(gs, ps, pat)
			}
			open = append(open, c)
			gs.containers = append(gs.containers, c)

		case graph.ElementVariable:
			name := node.Key
			at := p.nameIndex(e, name)
			sym := &symtab.Symbol{
				Name:        name,
				Kind:        symtab.SymbolVariable,
				Type:        types.Normalize(declaredType(e.Value, name)),
				Pos:         p.pos(at),
				Initialized: strings.Contains(e.Value, " = "),
			}
			a.defineGraph(gs, sym, at)
		}
	}
	for range open {
		a.table.Pop()
	}

	a.resolveGraphRefs(p, gs)

	for _, s := range a.table.Unused() {
		a.warn(s.Pos, CodeUnused, "variable '%s' is declared but never used", s.Name).
			suggest("remove the declaration or use the variable")
	}
	return &Result{Table: a.table, Diags: a.diags, graph: gs}
}

// defineGraph declares sym in the current scope, reporting a duplicate
// (name, scope) pair. It reports whether the symbol was added.
func (a *Analyzer) defineGraph(gs *graphScopes, sym *symtab.Symbol, at int) bool {
	if err := a.table.Define(sym); err != nil {
		first := a.table.Current().LookupLocal(sym.Name)
		d := a.errorAt(sym.Pos, CodeRedeclared, "redeclaration of '%s' in scope '%s'", sym.Name, a.table.Current().Name())
		if first != nil {
			d.suggest(fmt.Sprintf("'%s' was first declared at line %d; rename one of them", sym.Name, first.Line()))
		} else {
			d.suggest(err.Error())
		}
		return false
	}
	if at >= 0 {
		gs.declAt[sym] = at
		gs.declSym[at] = sym
	}
	return true
}

// resolveGraphRefs resolves every identifier read or written inside
// expression regions of the elements.
func (a *Analyzer) resolveGraphRefs(p *GraphProgram, gs *graphScopes) {
	refs := make(map[int]bool) // token index -> is a plain store
	for _, e := range p.Elements {
		from, to := p.region(e)
		for k := from; k < to; k++ {
			if _, declared := gs.declSym[k]; declared || !p.isReference(k) {
				continue
			}
			store := e.Type == graph.ElementAssignment && k == e.Start &&
				k+1 < len(p.Tokens) && p.Tokens[k+1].Type == lexer.TokenEquals
			if prev, seen := refs[k]; seen {
				store = store || prev
			}
			refs[k] = store
		}
	}
	order := make([]int, 0, len(refs))
	for k := range refs {
		order = append(order, k)
	}
	sort.Ints(order)

	global := a.table.Global()
	for _, k := range order {
		tok := p.Tokens[k]
		if ambient[tok.Lexeme] || gs.inClass(k) {
			continue
		}
		sym := gs.lookup(global, tok.Lexeme, k)
		if sym == nil {
			d := a.errorAt(tok.Position, CodeUndeclared, "undeclared identifier '%s'", tok.Lexeme)
			if s := suggestName(tok.Lexeme, visibleNames(gs.scopeAt(global, k))); s != "" {
				d.suggest("did you mean '" + s + "'?")
			} else {
				d.suggest("declare '" + tok.Lexeme + "' before using it")
			}
			continue
		}
		if !refs[k] {
			sym.MarkUsed()
		}
	}
}

// region returns the token range of e that holds expressions: the whole
// span for expressions, the initializer of a declaration, the parenthesised
// header of a control statement and the value of a case label.
func (p *GraphProgram) region(e graph.Element) (from, to int) {
	toks := p.Tokens
	end := e.End
	if end > len(toks) {
		end = len(toks)
	}
	switch e.Type {
	case graph.ElementAssignment, graph.ElementBinary, graph.ElementUnary:
		return e.Start, end
	case graph.ElementVariable:
		for k := e.Start; k < end; k++ {
			if toks[k].Type == lexer.TokenEquals {
				return k + 1, end
			}
		}
	case graph.ElementIf, graph.ElementWhile, graph.ElementFor, graph.ElementSwitch:
		for k := e.Start; k < end; k++ {
			if toks[k].Type == lexer.TokenLParen {
				return k + 1, matchParen(toks, k, end)
			}
		}
	case graph.ElementDoWhile:
		k := end - 1
		for k > e.Start && toks[k].Type != lexer.TokenRParen {
			k--
		}
		close := k
		for depth := 0; k > e.Start; k-- {
			switch toks[k].Type {
			case lexer.TokenRParen:
				depth++
			case lexer.TokenLParen:
				depth--
			}
			if depth == 0 {
				return k + 1, close
			}
		}
	case graph.ElementCase:
		for k := e.Start + 1; k < end; k++ {
			if toks[k].Type == lexer.TokenColon {
				return e.Start + 1, k
			}
		}
	}
	return 0, 0
}

// matchParen returns the index of the ')' closing the '(' at open, or
// limit when it is not closed before limit.
func matchParen(toks []lexer.Token, open, limit int) int {
	depth := 0
	for k := open; k < limit; k++ {
		switch toks[k].Type {
		case lexer.TokenLParen:
			depth++
		case lexer.TokenRParen:
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return limit
}

// isReference reports whether token k names a variable: an identifier that
// is not a member name, a callee or a type name.
func (p *GraphProgram) isReference(k int) bool {
	toks := p.Tokens
	if k < 0 || k >= len(toks) || toks[k].Type != lexer.TokenID {
		return false
	}
	if k > 0 && (toks[k-1].Type == lexer.TokenPeriod || toks[k-1].Type == lexer.TokenArrow) {
		return false
	}
	if k+1 < len(toks) && (toks[k+1].Type == lexer.TokenLParen || toks[k+1].Type == lexer.TokenID) {
		return false
	}
	return true
}

// nameIndex returns the index of the first identifier token spelled name
// inside e's span, or -1.
func (p *GraphProgram) nameIndex(e graph.Element, name string) int {
	for k := e.Start; k < e.End && k < len(p.Tokens); k++ {
		if p.Tokens[k].Type == lexer.TokenID && p.Tokens[k].Lexeme == name {
			return k
		}
	}
	return -1
}

func (p *GraphProgram) pos(k int) lexer.Position {
	if k < 0 || k >= len(p.Tokens) {
		return lexer.Position{}
	}
	return p.Tokens[k].Position
}

// declaredType recovers the declared type from a variable element value
// "<type> <name>[ = <init>]".
func declaredType(value, name string) string {
	if i := strings.Index(value, " = "); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSuffix(value, " "+name)
}

func sortedElements(es graph.Elements) graph.Elements {
	out := append(graph.Elements(nil), es...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// TypeCheckGraph checks initializers, assignments and binary expressions
// of an interactive-mode program against the compatibility table.
// Expression types are inferred from their tokens: a comparison or logical
// operator makes a bool; otherwise literal and variable operands are
// combined under the arithmetic rules.
func (a *Analyzer) TypeCheckGraph(p *GraphProgram, res *Result) diag.List {
	if p == nil || p.Graph == nil || res == nil || res.Table == nil || res.graph == nil {
		return diag.List{diag.Errorf(diag.KindPipeline, 0, 0, "no symbol table to type check against").WithCode(CodeNoInput)}
	}
	gs, global := res.graph, res.Table.Global()
	typeAt := func(k int) types.Type {
		tok := p.Tokens[k]
		if t := types.InferLiteral(tok.Lexeme); t.Known() {
			return t
		}
		if tok.Type == lexer.TokenID {
			if sym := gs.lookup(global, tok.Lexeme, k); sym != nil {
				return sym.Type
			}
		}
		return types.Unknown
	}

	tc := &typeChecker{a: a, res: res}
	for _, e := range sortedElements(p.Elements) {
		switch e.Type {
		case graph.ElementVariable:
			node := p.Graph.Node(e.Node)
			if node == nil {
				continue
			}
			sym := gs.declSym[p.nameIndex(e, node.Key)]
			from, to := p.region(e)
			if sym == nil || from >= to {
				continue
			}
			tc.checkGraph(p.pos(from), sym.Type, exprType(p.Tokens, from, trimSemi(p.Tokens, from, to), typeAt), "=", e.Value)

		case graph.ElementAssignment:
			if e.Start+2 >= len(p.Tokens) {
				continue
			}
			target := typeAt(e.Start)
			op := p.Tokens[e.Start+1].Lexeme
			value := exprType(p.Tokens, e.Start+2, trimSemi(p.Tokens, e.Start+2, e.End), typeAt)
			tc.checkGraph(p.pos(e.Start), target, value, op, e.Value)

		case graph.ElementBinary:
			if e.Start+2 >= len(p.Tokens) {
				continue
			}
			tc.checkGraph(p.pos(e.Start), typeAt(e.Start), typeAt(e.Start+2), p.Tokens[e.Start+1].Lexeme, e.Value)
		}
	}
	return tc.diags
}

func (tc *typeChecker) checkGraph(pos lexer.Position, left, right types.Type, op, text string) {
	c := types.Check(left, right, op)
	switch {
	case !c.OK:
		d := diag.Errorf(diag.KindSemantic, pos.Line, pos.Column, "type mismatch in '%s': '%s' %s '%s'", text, left, op, right)
		tc.diags = append(tc.diags, d.WithCode(CodeTypeMismatch).WithSuggestion(c.Details+"; "+familyHint(op)).WithExcerpt(tc.a.src))
	case c.Warning != "":
		tc.warnf(pos, CodeTypeWarning, "%s in '%s'", c.Warning, text)
	}
}

func trimSemi(toks []lexer.Token, from, to int) int {
	if to > len(toks) {
		to = len(toks)
	}
	for to > from && toks[to-1].Type == lexer.TokenSemi {
		to--
	}
	return to
}

// exprType infers the type of tokens [from, to).
func exprType(toks []lexer.Token, from, to int, typeAt func(int) types.Type) types.Type {
	if from >= to {
		return types.Unknown
	}
	for k := from; k < to; k++ {
		switch toks[k].Type {
		case lexer.TokenEQ, lexer.TokenNE, lexer.TokenLT, lexer.TokenLE, lexer.TokenGT, lexer.TokenGE,
			lexer.TokenLAnd, lexer.TokenLOr, lexer.TokenLNot:
			return types.Bool
		}
	}

	result := types.Unknown
	op := ""
	for k := from; k < to; k++ {
		tok := toks[k]
		switch {
		case tok.Type == lexer.TokenLParen || tok.Type == lexer.TokenRParen:
		case tok.Type == lexer.TokenID && k+1 < to && toks[k+1].Type == lexer.TokenLParen:
			// calls are not typed in graph mode
			return types.Unknown
		case tok.Type == lexer.TokenID || tok.Type.IsLiteral():
			t := typeAt(k)
			if !t.Known() {
				return types.Unknown
			}
			if result == types.Unknown || op == "" {
				result = t
				continue
			}
			if !types.Check(result, t, op).OK {
				return types.Unknown
			}
			if types.FamilyOf(op) == types.FamilyArithmetic {
				result = types.Arithmetic(result, t)
			} else {
				result = types.Int
			}
			op = ""
		case tok.Type.IsBinaryOperator():
			if result != types.Unknown {
				op = tok.Lexeme
			}
		}
	}
	return result
}

// VerifyExpressionsGraph applies the expression checks to the binary
// expressions and assignments of an interactive-mode program.
func (a *Analyzer) VerifyExpressionsGraph(p *GraphProgram) diag.List {
	if p == nil {
		return nil
	}
	v := &verifier{src: a.src}
	toks := p.Tokens
	number := func(k int) (float64, bool) {
		if toks[k].Type != lexer.TokenInteger && toks[k].Type != lexer.TokenFloat {
			return 0, false
		}
		return parseNumber(toks[k].Lexeme)
	}
	for _, e := range sortedElements(p.Elements) {
		if e.Start+2 >= len(toks) {
			continue
		}
		switch e.Type {
		case graph.ElementBinary:
			left, lok := number(e.Start)
			right, rok := number(e.Start + 2)
			v.binary(toks[e.Start].Position, e.Value, toks[e.Start+1].Lexeme, left, lok, right, rok)
		case graph.ElementAssignment:
			target, op := toks[e.Start], toks[e.Start+1]
			end := trimSemi(toks, e.Start+2, e.End)
			if end != e.Start+3 {
				continue
			}
			value := toks[e.Start+2]
			switch {
			case op.Type == lexer.TokenEquals && value.Type == lexer.TokenID && value.Lexeme == target.Lexeme:
				v.selfAssignment(target.Position, target.Lexeme)
			case op.Type == lexer.TokenDivEqual || op.Type == lexer.TokenModEqual:
				if n, ok := number(e.Start + 2); ok && n == 0 {
					v.divisionByZero(target.Position, e.Value)
				}
			}
		}
	}
	return v.diags
}

// VerifyControlFlowGraph applies the condition checks to the if, while,
// for and do-while elements of an interactive-mode program.
func (a *Analyzer) VerifyControlFlowGraph(p *GraphProgram) diag.List {
	if p == nil || p.Graph == nil {
		return nil
	}
	v := &verifier{src: a.src}
	keywords := map[string]string{
		graph.ElementIf:      "if",
		graph.ElementWhile:   "while",
		graph.ElementFor:     "for",
		graph.ElementDoWhile: "do-while",
	}
	for _, e := range sortedElements(p.Elements) {
		keyword, ok := keywords[e.Type]
		if !ok {
			continue
		}
		cond := p.Graph.Child(e.Node, graph.LabelCondition)
		if cond == nil || e.Start >= len(p.Tokens) {
			continue
		}
		pos := p.Tokens[e.Start].Position
		if value, ok := constantCondition(cond.Text); ok && keyword != "do-while" {
			v.constantCondition(pos, keyword, value)
			continue
		}
		if hasPlainAssignment(cond.Text) {
			v.assignInCond(pos, keyword, cond.Text)
		}
	}
	return v.diags
}

// hasPlainAssignment reports whether a condition's text contains '='
// outside of any parentheses.
func hasPlainAssignment(text string) bool {
	toks, _ := lexer.Tokenize(text)
	depth := 0
	for _, t := range toks {
		switch t.Type {
		case lexer.TokenLParen:
			depth++
		case lexer.TokenRParen:
			depth--
		case lexer.TokenEquals:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}
