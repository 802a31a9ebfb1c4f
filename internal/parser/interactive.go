package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/graph"
	"github.com/hassan/ccompiler/internal/lexer"
)

// Result is the output of an interactive-mode analysis.
type Result struct {
	Graph    *graph.Graph
	Elements graph.Elements
	Diags    diag.List
}

// Interactive runs the category scans of interactive mode. Each scan walks
// the token list once with explicit lookahead; scans share one graph, so
// running several of them on the same Interactive merges their output.
type Interactive struct {
	tokens   []lexer.Token
	src      *diag.Source
	graph    *graph.Graph
	elements graph.Elements
	diags    diag.List
}

// NewInteractive prepares an interactive analysis of tokens. A trailing EOF
// token is ignored.
func NewInteractive(tokens []lexer.Token, source string) *Interactive {
	if n := len(tokens); n > 0 && tokens[n-1].Type == lexer.TokenEOF {
		tokens = tokens[:n-1]
	}
	return &Interactive{
		tokens: tokens,
		src:    diag.NewSource(source),
		graph:  graph.New(),
	}
}

// ParseVariables finds variable declarations.
func ParseVariables(tokens []lexer.Token, source string) *Result {
	in := NewInteractive(tokens, source)
	in.ScanVariables()
	return in.Result()
}

// ParseExpressions finds assignments and binary and unary expressions.
func ParseExpressions(tokens []lexer.Token, source string) *Result {
	in := NewInteractive(tokens, source)
	in.ScanExpressions()
	return in.Result()
}

// ParseControlStructures checks delimiter balance and then finds if/else,
// loops and switch statements.
func ParseControlStructures(tokens []lexer.Token, source string) *Result {
	in := NewInteractive(tokens, source)
	in.report(CheckBraces(in.tokens, in.src)...)
	in.report(CheckParens(in.tokens, in.src)...)
	in.ScanControlStructures()
	return in.Result()
}

// ParseMethodsClasses finds function and class declarations.
func ParseMethodsClasses(tokens []lexer.Token, source string) *Result {
	in := NewInteractive(tokens, source)
	in.ScanMethodsClasses()
	return in.Result()
}

// ParseProgram runs every validator and all four category scans into one
// shared graph.
func ParseProgram(tokens []lexer.Token, source string) *Result {
	in := NewInteractive(tokens, source)
	in.report(CheckBraces(in.tokens, in.src)...)
	in.report(CheckParens(in.tokens, in.src)...)
	in.report(CheckSemicolons(in.tokens, in.src)...)
	in.report(CheckOperators(in.tokens, in.src)...)
	in.report(CheckFunctionCalls(in.tokens, in.src)...)
	in.ScanVariables()
	in.ScanExpressions()
	in.ScanControlStructures()
	in.ScanMethodsClasses()
	return in.Result()
}

// Result returns the elements in source order with nesting marked.
func (in *Interactive) Result() *Result {
	elements := append(graph.Elements(nil), in.elements...)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Start < elements[j].Start
	})
	elements.MarkNested()
	return &Result{Graph: in.graph, Elements: elements, Diags: in.diags}
}

// Tokens returns the analysed tokens, without EOF.
func (in *Interactive) Tokens() []lexer.Token {
	return in.tokens
}

// report records diagnostics, dropping repeats of a coded diagnostic already
// reported at the same place (the variable scan and the semicolon checker
// can both notice one missing ';').
func (in *Interactive) report(ds ...diag.Diagnostic) {
next:
	for _, d := range ds {
		if d.Code != "" {
			for _, seen := range in.diags {
				if seen.Code == d.Code && seen.Line == d.Line && seen.Position == d.Position {
					continue next
				}
			}
		}
		in.diags = append(in.diags, d)
	}
}

func (in *Interactive) addElement(typ, value string, node graph.NodeID, start, end int) {
	line := 0
	if start < len(in.tokens) {
		line = in.tokens[start].Line()
	}
	in.elements = append(in.elements, graph.Element{
		Type: typ, Value: value, Line: line, Node: node, Start: start, End: end,
	})
}

// ensure returns the node under key, creating it with kind if absent. An
// existing node keeps its kind, so a variable stays a variable when it is
// also seen as an operand.
func (in *Interactive) ensure(key string, kind graph.NodeKind, n graph.Node) graph.NodeID {
	if id, ok := in.graph.Lookup(key); ok {
		return id
	}
	return in.graph.AddNode(key, kind, n)
}

// Variables

// ScanVariables records every variable declaration: a variable node per
// declared name, plus a value node and an initialized_to edge for literal
// initializers.
func (in *Interactive) ScanVariables() {
	toks := in.tokens
	for i := 0; i < len(toks); {
		if toks[i].Type == lexer.TokenClass {
			i = in.skipClass(i)
			continue
		}
		if !isDeclType(toks[i].Type) {
			i++
			continue
		}

		start := i
		j, typ := in.typeWords(i)
		k := in.skipStars(j)
		if k >= len(toks) || toks[k].Type != lexer.TokenID {
			// cast, sizeof operand or a stray type word
			i = j
			continue
		}
		if k+1 < len(toks) && toks[k+1].Type == lexer.TokenLParen {
			// function header: its parameters are not variables
			i = in.afterClose(k+1, lexer.TokenLParen, lexer.TokenRParen)
			continue
		}
		i = in.declarators(start, j, typ)
	}
}

// declarators reads `name [= init] {, name [= init]}` followed by ';' and
// returns the index after the declaration.
func (in *Interactive) declarators(start, i int, typ string) int {
	toks := in.tokens
	first := true
	for {
		elemStart := i
		if first {
			elemStart = start
		}
		first = false

		k := in.skipStars(i)
		declType := typ + strings.Repeat("*", k-i)
		i = k
		if i >= len(toks) || toks[i].Type != lexer.TokenID {
			return i
		}
		name := toks[i]
		nameIdx := i
		i++
		if i < len(toks) && toks[i].Type == lexer.TokenLBracket {
			i = in.afterClose(i, lexer.TokenLBracket, lexer.TokenRBracket)
			declType += "[]"
		}

		id := in.graph.AddNode(name.Lexeme, graph.KindVariable, graph.Node{DataType: declType, Line: name.Line()})
		value := declType + " " + name.Lexeme

		if i < len(toks) && toks[i].Type == lexer.TokenEquals {
			i++
			initStart := i
			i, _ = in.expressionEnd(i)
			init := toks[initStart:i]
			text := joinTokens(init)
			value += " = " + text

			if len(init) == 1 && init[0].Type.IsLiteral() {
				vid := in.ensure(init[0].Lexeme, graph.KindValue, graph.Node{Text: init[0].Lexeme, Line: init[0].Line()})
				in.graph.AddEdge(id, vid, graph.LabelInitializedTo)
			} else if len(init) > 0 {
				eid := in.graph.AddNode(fmt.Sprintf("expr_%d", nameIdx), graph.KindExpression,
					graph.Node{Text: text, Line: name.Line()})
				in.graph.AddEdge(id, eid, graph.LabelInitializedTo)
			}
		}
		in.addElement(graph.ElementVariable, value, id, elemStart, i)

		switch {
		case i < len(toks) && toks[i].Type == lexer.TokenComma:
			i++
		case i < len(toks) && toks[i].Type == lexer.TokenSemi:
			in.elements[len(in.elements)-1].End = i + 1
			return i + 1
		default:
			in.report(errorAfter(in.src, toks[i-1], CodeMissingSemicolon,
				fmt.Sprintf("missing semicolon after declaration of variable '%s'", name.Lexeme),
				"end the declaration with ';'"))
			return i
		}
	}
}

// Expressions

// ScanExpressions records assignments, binary expressions `a op b` and
// unary expressions. Declarations are left to ScanVariables, but the
// operators inside their initializers are still reported.
func (in *Interactive) ScanExpressions() {
	toks := in.tokens
	inDecl := false
	for i := 0; i < len(toks); i++ {
		tok := toks[i]

		switch {
		case tok.Type == lexer.TokenSemi || tok.Type == lexer.TokenLBrace || tok.Type == lexer.TokenRBrace:
			inDecl = false
		case isDeclType(tok.Type) && !inDecl:
			j, _ := in.typeWords(i)
			k := in.skipStars(j)
			if k < len(toks) && toks[k].Type == lexer.TokenID &&
				(k+1 >= len(toks) || toks[k+1].Type != lexer.TokenLParen) {
				inDecl = true
			}
		}

		switch {
		case !inDecl && tok.Type == lexer.TokenID && i+1 < len(toks) && toks[i+1].Type.IsAssignment() &&
			!in.isMemberName(i):
			in.assignment(i)
		case isOperandToken(tok) && i+2 < len(toks) && isExpressionOperator(toks[i+1].Type) &&
			isOperandToken(toks[i+2]) && !in.isMemberName(i):
			in.binary(i)
		case isPrefixUnary(tok.Type) && i+1 < len(toks) && isOperandToken(toks[i+1]) &&
			(i == 0 || !endsOperand(toks[i-1])):
			in.unary(i, toks[i+1], tok.Lexeme)
		case tok.Type == lexer.TokenID && i+1 < len(toks) &&
			(toks[i+1].Type == lexer.TokenPlusPlus || toks[i+1].Type == lexer.TokenMinusMinus):
			in.unary(i, tok, toks[i+1].Lexeme)
		}
	}
}

func (in *Interactive) assignment(i int) {
	toks := in.tokens
	target, op := toks[i], toks[i+1]
	end, terminated := in.expressionEnd(i + 2)
	text := joinTokens(toks[i+2 : end])

	vid := in.graph.AddNode(target.Lexeme, graph.KindVariable, graph.Node{Line: target.Line()})
	eid := in.graph.AddNode(fmt.Sprintf("expr_%d", i), graph.KindExpression,
		graph.Node{Text: text, Line: target.Line()})
	in.graph.AddAssignEdge(vid, eid, op.Lexeme)

	spanEnd := end
	if terminated && end < len(toks) && toks[end].Type == lexer.TokenSemi {
		spanEnd = end + 1
	}
	in.addElement(graph.ElementAssignment, target.Lexeme+" "+op.Lexeme+" "+text, eid, i, spanEnd)

	if !terminated {
		last := toks[end-1]
		in.report(errorAfter(in.src, last, CodeMissingSemicolon,
			fmt.Sprintf("missing semicolon after expression '%s %s %s'", target.Lexeme, op.Lexeme, text),
			"end the statement with ';'"))
	}
}

func (in *Interactive) binary(i int) {
	toks := in.tokens
	left, op, right := toks[i], toks[i+1], toks[i+2]
	id := in.graph.AddNode(fmt.Sprintf("binexpr_%d", i), graph.KindBinaryExpr,
		graph.Node{Operator: op.Lexeme, Text: left.Lexeme + " " + op.Lexeme + " " + right.Lexeme, Line: op.Line()})
	lid := in.ensure(left.Lexeme, graph.KindOperand, graph.Node{Line: left.Line()})
	rid := in.ensure(right.Lexeme, graph.KindOperand, graph.Node{Line: right.Line()})
	in.graph.AddEdge(id, lid, graph.LabelLeft)
	in.graph.AddEdge(id, rid, graph.LabelRight)
	in.addElement(graph.ElementBinary, left.Lexeme+" "+op.Lexeme+" "+right.Lexeme, id, i, i+3)
}

// unary records the unary expression spanning tokens i and i+1, in either
// prefix or postfix order.
func (in *Interactive) unary(i int, operand lexer.Token, op string) {
	toks := in.tokens
	value := toks[i].Lexeme + toks[i+1].Lexeme
	id := in.graph.AddNode(fmt.Sprintf("unexpr_%d", i), graph.KindUnaryExpr,
		graph.Node{Operator: op, Text: value, Line: toks[i].Line()})
	oid := in.ensure(operand.Lexeme, graph.KindOperand, graph.Node{Line: operand.Line()})
	in.graph.AddEdge(id, oid, graph.LabelOperand)
	in.addElement(graph.ElementUnary, value, id, i, i+2)
}

// isMemberName reports whether token i follows '.' or '->'.
func (in *Interactive) isMemberName(i int) bool {
	return i > 0 && (in.tokens[i-1].Type == lexer.TokenPeriod || in.tokens[i-1].Type == lexer.TokenArrow)
}

// Control structures

// ScanControlStructures records if/else, for, while, do-while and switch
// statements. Bodies are scanned too, so nested structures are found and
// later marked nested.
func (in *Interactive) ScanControlStructures() {
	doTails := make(map[int]bool)
	for i, tok := range in.tokens {
		switch tok.Type {
		case lexer.TokenIf:
			in.ifStatement(i)
		case lexer.TokenFor:
			in.forLoop(i)
		case lexer.TokenWhile:
			if !doTails[i] {
				in.whileLoop(i)
			}
		case lexer.TokenDo:
			if tail := in.doWhile(i); tail >= 0 {
				doTails[tail] = true
			}
		case lexer.TokenSwitch:
			in.switchStatement(i)
		}
	}
}

// condition reads `( ... )` starting at i and returns its text and the index
// after ')'. ok is false when there is no '(' at i.
func (in *Interactive) condition(i int) (text string, next int, ok bool) {
	if i >= len(in.tokens) || in.tokens[i].Type != lexer.TokenLParen {
		return "", i, false
	}
	next = in.afterClose(i, lexer.TokenLParen, lexer.TokenRParen)
	inner := next - 1
	if inner < i+1 || in.tokens[inner].Type != lexer.TokenRParen {
		inner = next
	}
	return joinTokens(in.tokens[i+1 : inner]), next, true
}

// body returns the index after the statement starting at i: a braced block
// or a single statement up to ';'. braced reports which it was.
func (in *Interactive) body(i int) (end int, braced bool) {
	toks := in.tokens
	if i >= len(toks) {
		return i, false
	}
	if toks[i].Type == lexer.TokenLBrace {
		return in.afterClose(i, lexer.TokenLBrace, lexer.TokenRBrace), true
	}
	switch toks[i].Type {
	case lexer.TokenIf, lexer.TokenFor, lexer.TokenWhile, lexer.TokenSwitch:
		// nested structure without braces: header then its own body
		_, next, ok := in.condition(i + 1)
		if !ok {
			return i + 1, false
		}
		end, _ = in.body(next)
		if toks[i].Type == lexer.TokenIf && end < len(toks) && toks[end].Type == lexer.TokenElse {
			end, _ = in.body(end + 1)
		}
		return end, false
	}
	for depth := 0; i < len(toks); i++ {
		switch toks[i].Type {
		case lexer.TokenLParen, lexer.TokenLBrace:
			depth++
		case lexer.TokenRParen:
			depth--
		case lexer.TokenRBrace:
			if depth == 0 {
				return i, false
			}
			depth--
		case lexer.TokenSemi:
			if depth <= 0 {
				return i + 1, false
			}
		}
	}
	return i, false
}

func (in *Interactive) malformed(tok lexer.Token, message, suggestion string) {
	in.report(newError(in.src, tok, CodeMalformedControl, message, suggestion))
}

func (in *Interactive) ifStatement(i int) {
	cond, next, ok := in.condition(i + 1)
	if !ok {
		in.malformed(in.tokens[i], "expected '(' after 'if'",
			"the correct form is 'if (condition) { ... }'")
		return
	}
	id := in.graph.AddNode(fmt.Sprintf("if_%d", i), graph.KindIfStatement, graph.Node{Line: in.tokens[i].Line()})
	cid := in.graph.AddNode(fmt.Sprintf("cond_%d", i), graph.KindCondition, graph.Node{Text: cond, Line: in.tokens[i].Line()})
	in.graph.AddEdge(id, cid, graph.LabelCondition)

	end, braced := in.body(next)
	if braced {
		bid := in.graph.AddNode(fmt.Sprintf("body_%d", i), graph.KindIfBody, graph.Node{Line: in.tokens[next].Line()})
		in.graph.AddEdge(id, bid, graph.LabelThen)
	}
	elem := len(in.elements)
	in.addElement(graph.ElementIf, "if ("+cond+")", id, i, end)

	if end < len(in.tokens) && in.tokens[end].Type == lexer.TokenElse {
		elseIdx := end
		elseEnd, _ := in.body(elseIdx + 1)
		eid := in.graph.AddNode(fmt.Sprintf("else_%d", i), graph.KindElseBody, graph.Node{Line: in.tokens[elseIdx].Line()})
		in.graph.AddEdge(id, eid, graph.LabelElse)
		in.elements[elem].End = elseEnd
		in.addElement(graph.ElementElse, "else", eid, elseIdx, elseEnd)
	}
}

func (in *Interactive) forLoop(i int) {
	toks := in.tokens
	if i+1 >= len(toks) || toks[i+1].Type != lexer.TokenLParen {
		in.malformed(toks[i], "expected '(' after 'for'",
			"the correct form is 'for (initialization; condition; update) { ... }'")
		return
	}
	next := in.afterClose(i+1, lexer.TokenLParen, lexer.TokenRParen)
	inner := next - 1
	if inner <= i+1 || toks[inner].Type != lexer.TokenRParen {
		inner = next
	}
	clauses := splitTopLevel(toks[i+2:inner], lexer.TokenSemi)
	if len(clauses) != 3 {
		in.malformed(toks[i+1], fmt.Sprintf("for-loop header has %d clauses, want 3", len(clauses)),
			"separate initialization, condition and update with ';'")
		return
	}
	initText, condText, incrText := joinTokens(clauses[0]), joinTokens(clauses[1]), joinTokens(clauses[2])

	line := toks[i].Line()
	id := in.graph.AddNode(fmt.Sprintf("for_%d", i), graph.KindForLoop, graph.Node{Line: line})
	in.graph.AddEdge(id, in.graph.AddNode(fmt.Sprintf("init_%d", i), graph.KindInitialization,
		graph.Node{Text: initText, Line: line}), graph.LabelInit)
	in.graph.AddEdge(id, in.graph.AddNode(fmt.Sprintf("cond_%d", i), graph.KindCondition,
		graph.Node{Text: condText, Line: line}), graph.LabelCondition)
	in.graph.AddEdge(id, in.graph.AddNode(fmt.Sprintf("incr_%d", i), graph.KindIncrement,
		graph.Node{Text: incrText, Line: line}), graph.LabelIncrement)

	end, braced := in.body(next)
	if braced {
		bid := in.graph.AddNode(fmt.Sprintf("body_%d", i), graph.KindForBody, graph.Node{Line: toks[next].Line()})
		in.graph.AddEdge(id, bid, graph.LabelBody)
	}
	in.addElement(graph.ElementFor, "for ("+initText+"; "+condText+"; "+incrText+")", id, i, end)
}

func (in *Interactive) whileLoop(i int) {
	cond, next, ok := in.condition(i + 1)
	if !ok {
		in.malformed(in.tokens[i], "expected '(' after 'while'",
			"the correct form is 'while (condition) { ... }'")
		return
	}
	line := in.tokens[i].Line()
	id := in.graph.AddNode(fmt.Sprintf("while_%d", i), graph.KindWhileLoop, graph.Node{Line: line})
	in.graph.AddEdge(id, in.graph.AddNode(fmt.Sprintf("cond_%d", i), graph.KindCondition,
		graph.Node{Text: cond, Line: line}), graph.LabelCondition)

	end, braced := in.body(next)
	if braced {
		bid := in.graph.AddNode(fmt.Sprintf("body_%d", i), graph.KindWhileBody, graph.Node{Line: in.tokens[next].Line()})
		in.graph.AddEdge(id, bid, graph.LabelBody)
	}
	in.addElement(graph.ElementWhile, "while ("+cond+")", id, i, end)
}

// doWhile records a do-while loop and returns the index of its trailing
// 'while', or -1.
func (in *Interactive) doWhile(i int) int {
	toks := in.tokens
	line := toks[i].Line()
	id := in.graph.AddNode(fmt.Sprintf("do_%d", i), graph.KindDoWhileLoop, graph.Node{Line: line})
	elem := len(in.elements)
	in.addElement(graph.ElementDoWhile, "do", id, i, i+1)

	end, braced := in.body(i + 1)
	if braced {
		bid := in.graph.AddNode(fmt.Sprintf("body_%d", i), graph.KindDoBody, graph.Node{Line: toks[i+1].Line()})
		in.graph.AddEdge(id, bid, graph.LabelBody)
	}
	in.elements[elem].End = end

	if end >= len(toks) || toks[end].Type != lexer.TokenWhile {
		in.malformed(toks[i], "expected 'while' after the body of 'do'",
			"the correct form is 'do { ... } while (condition);'")
		return -1
	}
	cond, next, ok := in.condition(end + 1)
	if !ok {
		in.malformed(toks[end], "expected '(' after 'while' in a do-while loop",
			"the correct form is 'do { ... } while (condition);'")
		return end
	}
	in.graph.AddEdge(id, in.graph.AddNode(fmt.Sprintf("cond_%d", i), graph.KindCondition,
		graph.Node{Text: cond, Line: toks[end].Line()}), graph.LabelCondition)
	if next < len(toks) && toks[next].Type == lexer.TokenSemi {
		next++
	}
	in.elements[elem].Value = "do ... while (" + cond + ")"
	in.elements[elem].End = next
	return end
}

func (in *Interactive) switchStatement(i int) {
	toks := in.tokens
	expr, next, ok := in.condition(i + 1)
	if !ok {
		in.malformed(toks[i], "expected '(' after 'switch'",
			"the correct form is 'switch (expression) { case value: ... }'")
		return
	}
	line := toks[i].Line()
	id := in.graph.AddNode(fmt.Sprintf("switch_%d", i), graph.KindSwitchStatement, graph.Node{Line: line})
	in.graph.AddEdge(id, in.graph.AddNode(fmt.Sprintf("expr_%d", i), graph.KindExpression,
		graph.Node{Text: expr, Line: line}), graph.LabelExpression)

	if next >= len(toks) || toks[next].Type != lexer.TokenLBrace {
		in.malformed(toks[i], "expected '{' after switch expression",
			"the correct form is 'switch (expression) { case value: ... }'")
		in.addElement(graph.ElementSwitch, "switch ("+expr+")", id, i, next)
		return
	}
	end := in.afterClose(next, lexer.TokenLBrace, lexer.TokenRBrace)
	in.addElement(graph.ElementSwitch, "switch ("+expr+")", id, i, end)

	// Labels belong to this switch only at depth 1 of its body.
	bodyEnd := end - 1
	if bodyEnd <= next || toks[bodyEnd].Type != lexer.TokenRBrace {
		bodyEnd = end
	}
	open := -1
	closeLabel := func(at int) {
		if open >= 0 {
			in.elements[open].End = at
		}
	}
	depth := 0
	for j := next + 1; j < bodyEnd; j++ {
		switch toks[j].Type {
		case lexer.TokenLBrace:
			depth++
		case lexer.TokenRBrace:
			depth--
		case lexer.TokenCase:
			if depth != 0 {
				continue
			}
			colon := j + 1
			for colon < bodyEnd && toks[colon].Type != lexer.TokenColon {
				colon++
			}
			value := joinTokens(toks[j+1 : colon])
			cid := in.graph.AddNode(fmt.Sprintf("case_%d", j), graph.KindCase, graph.Node{Text: value, Line: toks[j].Line()})
			in.graph.AddEdge(id, cid, graph.LabelCase)
			closeLabel(j)
			open = len(in.elements)
			in.addElement(graph.ElementCase, "case "+value+":", cid, j, bodyEnd)
		case lexer.TokenDefault:
			if depth != 0 {
				continue
			}
			did := in.graph.AddNode(fmt.Sprintf("default_%d", j), graph.KindDefaultCase, graph.Node{Line: toks[j].Line()})
			in.graph.AddEdge(id, did, graph.LabelDefault)
			closeLabel(j)
			open = len(in.elements)
			in.addElement(graph.ElementDefault, "default:", did, j, bodyEnd)
		}
	}
}

// Methods and classes

// ScanMethodsClasses records function declarations with their parameters
// and class declarations with their parents and attributes.
func (in *Interactive) ScanMethodsClasses() {
	toks := in.tokens
	for i := 0; i < len(toks); i++ {
		switch {
		case toks[i].Type == lexer.TokenClass:
			in.class(i)
		case isDeclType(toks[i].Type) && (i == 0 || !isDeclType(toks[i-1].Type)):
			j, typ := in.typeWords(i)
			k := in.skipStars(j)
			if k+1 < len(toks) && toks[k].Type == lexer.TokenID && toks[k+1].Type == lexer.TokenLParen &&
				(i == 0 || toks[i-1].Type != lexer.TokenLParen) {
				in.method(i, typ+strings.Repeat("*", k-j), k)
			}
		}
	}
}

func (in *Interactive) method(start int, returnType string, nameIdx int) {
	toks := in.tokens
	name := toks[nameIdx]
	id := in.graph.AddNode(name.Lexeme, graph.KindMethod, graph.Node{DataType: returnType, Line: name.Line()})

	next := in.afterClose(nameIdx+1, lexer.TokenLParen, lexer.TokenRParen)
	inner := next - 1
	if inner <= nameIdx+1 || toks[inner].Type != lexer.TokenRParen {
		inner = next
	}

	var params []string
	for j, p := range splitTopLevel(toks[nameIdx+2:inner], lexer.TokenComma) {
		if len(p) == 0 || (len(p) == 1 && p[0].Type == lexer.TokenVoid) {
			continue
		}
		ptype, pname := paramParts(p)
		pid := in.graph.AddNode(fmt.Sprintf("%s_param_%d", name.Lexeme, j), graph.KindParameter,
			graph.Node{DataType: ptype, Name: pname, Line: p[0].Line()})
		in.graph.AddEdge(id, pid, graph.LabelParameter)
		params = append(params, strings.TrimSpace(ptype+" "+pname))
	}

	end := next
	if next < len(toks) && toks[next].Type == lexer.TokenLBrace {
		bid := in.graph.AddNode(name.Lexeme+"_body", graph.KindMethodBody, graph.Node{Line: toks[next].Line()})
		in.graph.AddEdge(id, bid, graph.LabelBody)
		end = in.afterClose(next, lexer.TokenLBrace, lexer.TokenRBrace)
	} else if next < len(toks) && toks[next].Type == lexer.TokenSemi {
		end = next + 1
	}
	in.addElement(graph.ElementMethod,
		returnType+" "+name.Lexeme+"("+strings.Join(params, ", ")+")", id, start, end)
}

// paramParts splits a parameter's tokens into its type and name.
func paramParts(p []lexer.Token) (typ, name string) {
	last := len(p) - 1
	if p[last].Type == lexer.TokenRBracket {
		for last > 0 && p[last].Type != lexer.TokenLBracket {
			last--
		}
		last--
		if last < 0 {
			return joinTokens(p), ""
		}
		name = p[last].Lexeme
		return joinTokens(p[:last]) + "*", name
	}
	if p[last].Type == lexer.TokenID && last > 0 {
		return compactType(p[:last]), p[last].Lexeme
	}
	return compactType(p), ""
}

// compactType renders type tokens as "const char*".
func compactType(p []lexer.Token) string {
	var b strings.Builder
	for i, t := range p {
		if i > 0 && t.Type != lexer.TokenTimes {
			b.WriteByte(' ')
		}
		b.WriteString(t.Lexeme)
	}
	return b.String()
}

func (in *Interactive) class(i int) {
	toks := in.tokens
	if i+1 >= len(toks) || toks[i+1].Type != lexer.TokenID {
		in.report(newError(in.src, toks[i], CodeMalformedClass, "expected class name after 'class'",
			"the correct form is 'class Name { ... };'"))
		return
	}
	name := toks[i+1]
	id := in.graph.AddNode(name.Lexeme, graph.KindClass, graph.Node{Line: name.Line()})

	j := i + 2
	if j < len(toks) && toks[j].Type == lexer.TokenColon {
		for j++; j < len(toks) && toks[j].Type != lexer.TokenLBrace && toks[j].Type != lexer.TokenSemi; j++ {
			if toks[j].Type == lexer.TokenID {
				pid := in.graph.AddNode(toks[j].Lexeme, graph.KindClass, graph.Node{Line: toks[j].Line()})
				in.graph.AddEdge(id, pid, graph.LabelInherits)
			}
		}
	}
	if j >= len(toks) || toks[j].Type != lexer.TokenLBrace {
		in.report(newError(in.src, name, CodeMalformedClass,
			fmt.Sprintf("expected '{' after class name '%s'", name.Lexeme),
			"the correct form is 'class Name { ... };'"))
		in.addElement(graph.ElementClass, "class "+name.Lexeme, id, i, j)
		return
	}

	end := in.afterClose(j, lexer.TokenLBrace, lexer.TokenRBrace)
	if end < len(toks) && toks[end].Type == lexer.TokenSemi {
		end++
	}
	in.addElement(graph.ElementClass, "class "+name.Lexeme, id, i, end)

	depth := 0
	for k := j + 1; k < end; k++ {
		switch toks[k].Type {
		case lexer.TokenLBrace:
			depth++
			continue
		case lexer.TokenRBrace:
			depth--
			continue
		}
		if depth != 0 || !isDeclType(toks[k].Type) || (k > 0 && isDeclType(toks[k-1].Type)) {
			continue
		}
		w, typ := in.typeWords(k)
		n := in.skipStars(w)
		if n+1 >= end || toks[n].Type != lexer.TokenID {
			continue
		}
		switch toks[n+1].Type {
		case lexer.TokenSemi, lexer.TokenComma, lexer.TokenEquals, lexer.TokenLBracket:
		default:
			continue
		}
		attrType := typ + strings.Repeat("*", n-w)
		aid := in.graph.AddNode(name.Lexeme+"_"+toks[n].Lexeme, graph.KindAttribute,
			graph.Node{DataType: attrType, Name: toks[n].Lexeme, Line: toks[n].Line()})
		in.graph.AddEdge(id, aid, graph.LabelAttribute)
		stop := n + 1
		for stop < end && toks[stop].Type != lexer.TokenSemi {
			stop++
		}
		in.addElement(graph.ElementAttribute, attrType+" "+toks[n].Lexeme, aid, k, stop+1)
	}
}

// skipClass returns the index after the class declaration starting at i.
func (in *Interactive) skipClass(i int) int {
	toks := in.tokens
	j := i + 1
	for j < len(toks) && toks[j].Type != lexer.TokenLBrace && toks[j].Type != lexer.TokenSemi {
		j++
	}
	if j >= len(toks) || toks[j].Type == lexer.TokenSemi {
		return j + 1
	}
	return in.afterClose(j, lexer.TokenLBrace, lexer.TokenRBrace)
}

// Token helpers

// isDeclType reports whether tt can start or continue a declaration's type.
func isDeclType(tt lexer.TokenType) bool {
	return tt.IsTypeSpecifier()
}

// typeWords reads consecutive type keywords from i and returns the index
// after them and their text.
func (in *Interactive) typeWords(i int) (int, string) {
	var words []string
	for i < len(in.tokens) && isDeclType(in.tokens[i].Type) {
		words = append(words, in.tokens[i].Lexeme)
		i++
	}
	return i, strings.Join(words, " ")
}

func (in *Interactive) skipStars(i int) int {
	for i < len(in.tokens) && in.tokens[i].Type == lexer.TokenTimes {
		i++
	}
	return i
}

// afterClose returns the index after the delimiter matching the open one
// at i, or len(tokens) when it is never closed.
func (in *Interactive) afterClose(i int, open, close lexer.TokenType) int {
	depth := 0
	for j := i; j < len(in.tokens); j++ {
		switch in.tokens[j].Type {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(in.tokens)
}

// expressionEnd finds where the expression starting at i stops: at ',' or
// ';' outside brackets, at a bracket closing an enclosing group, or at a line
// break after which a new statement evidently starts. terminated is false
// when the expression simply runs into the next statement or end of input.
func (in *Interactive) expressionEnd(i int) (end int, terminated bool) {
	toks := in.tokens
	depth := 0
	for j := i; j < len(toks); j++ {
		t := toks[j]
		switch t.Type {
		case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
			depth++
			continue
		case lexer.TokenRParen, lexer.TokenRBracket:
			if depth == 0 {
				return j, true
			}
			depth--
			continue
		case lexer.TokenRBrace:
			if depth == 0 {
				return j, false
			}
			depth--
			continue
		case lexer.TokenSemi, lexer.TokenComma:
			if depth == 0 {
				return j, true
			}
			continue
		}
		if depth == 0 && j > i && t.Line() > toks[j-1].Line() && endsOperand(toks[j-1]) && startsStatement(t) {
			return j, false
		}
	}
	return len(toks), false
}

// splitTopLevel splits toks at sep tokens that are not inside brackets.
func splitTopLevel(toks []lexer.Token, sep lexer.TokenType) [][]lexer.Token {
	var parts [][]lexer.Token
	depth, start := 0, 0
	for i, t := range toks {
		switch t.Type {
		case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
			depth++
		case lexer.TokenRParen, lexer.TokenRBracket, lexer.TokenRBrace:
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// isOperandToken reports whether t can be a whole operand: a name or a
// literal.
func isOperandToken(t lexer.Token) bool {
	return t.Type == lexer.TokenID || t.Type.IsLiteral() || t.Type.IsLibraryFunction() || isIdentLikeKeyword(t.Type)
}

// endsOperand reports whether an expression can end with t.
func endsOperand(t lexer.Token) bool {
	switch t.Type {
	case lexer.TokenRParen, lexer.TokenRBracket, lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		return true
	}
	return isOperandToken(t)
}

// startsStatement reports whether t plausibly begins a new statement.
func startsStatement(t lexer.Token) bool {
	return t.Type == lexer.TokenID || t.Type.IsKeyword() || t.Type == lexer.TokenRBrace
}

// isExpressionOperator lists the operators reported as binary expressions.
func isExpressionOperator(tt lexer.TokenType) bool {
	return tt.IsBinaryOperator()
}

func isPrefixUnary(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenPlusPlus, lexer.TokenMinusMinus, lexer.TokenNot, lexer.TokenLNot:
		return true
	}
	return false
}

// joinTokens renders tokens as compact source text: "a + b", "f(x, y)",
// "a[i]", "i++".
func joinTokens(toks []lexer.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && spaceBetween(toks[i-1], t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Lexeme)
	}
	return b.String()
}

func spaceBetween(prev, next lexer.Token) bool {
	switch prev.Type {
	case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenPeriod, lexer.TokenArrow,
		lexer.TokenLNot, lexer.TokenNot:
		return false
	case lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		if isOperandToken(next) {
			return false
		}
	}
	switch next.Type {
	case lexer.TokenRParen, lexer.TokenRBracket, lexer.TokenComma, lexer.TokenSemi,
		lexer.TokenPeriod, lexer.TokenArrow, lexer.TokenLBracket:
		return false
	case lexer.TokenLParen:
		return !(prev.Type == lexer.TokenID || prev.Type.IsLibraryFunction())
	case lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		return !endsOperand(prev)
	}
	return true
}
