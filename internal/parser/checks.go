package parser

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/lexer"
)

// Diagnostic codes used by the structural validators and interactive scans.
const (
	CodeUnmatchedBrace    = "unmatched-brace"
	CodeUnclosedBrace     = "unclosed-brace"
	CodeEmptyBlock        = "empty-block"
	CodeUnmatchedParen    = "unmatched-paren"
	CodeUnclosedParen     = "unclosed-paren"
	CodeEmptyCondition    = "empty-condition"
	CodeMissingSemicolon  = "missing-semicolon"
	CodeMissingOperand    = "missing-operand"
	CodeAdjacentOperators = "adjacent-operators"
	CodeUnknownFunction   = "unknown-function"
	CodeMalformedControl  = "malformed-control"
	CodeMalformedClass    = "malformed-class"
)

func newError(src *diag.Source, tok lexer.Token, code, message, suggestion string) diag.Diagnostic {
	return diag.Errorf(diag.KindSyntax, tok.Line(), tok.Column(), "%s", message).
		WithCode(code).WithSuggestion(suggestion).WithExcerpt(src)
}

func newWarning(src *diag.Source, tok lexer.Token, code, message, suggestion string) diag.Diagnostic {
	return diag.Warnf(diag.KindSyntax, tok.Line(), tok.Column(), "%s", message).
		WithCode(code).WithSuggestion(suggestion).WithExcerpt(src)
}

// errorAfter reports a problem located just past tok.
func errorAfter(src *diag.Source, tok lexer.Token, code, message, suggestion string) diag.Diagnostic {
	after := tok
	after.Position = tok.Span().End
	return newError(src, after, code, message, suggestion)
}

// headerKeyword returns the control keyword ("if", "while", ...) that owns
// the delimiter at open, or "".
func headerKeyword(tokens []lexer.Token, open int, allowed ...lexer.TokenType) string {
	if open == 0 {
		return ""
	}
	prev := tokens[open-1]
	for _, tt := range allowed {
		if prev.Type == tt {
			return prev.Lexeme
		}
	}
	return ""
}

// CheckBraces reports unmatched '}' and unclosed '{' as errors and empty
// blocks of control structures as warnings.
func CheckBraces(tokens []lexer.Token, src *diag.Source) diag.List {
	var out diag.List
	var stack []int
	for i, tok := range tokens {
		switch tok.Type {
		case lexer.TokenLBrace:
			stack = append(stack, i)
		case lexer.TokenRBrace:
			if len(stack) == 0 {
				out = append(out, newError(src, tok, CodeUnmatchedBrace,
					"closing brace '}' has no matching opening brace",
					"check that every '}' closes a '{'"))
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if i-open == 1 {
				if kw := blockOwner(tokens, open); kw != "" {
					out = append(out, newWarning(src, tokens[open], CodeEmptyBlock,
						fmt.Sprintf("empty block after '%s'", kw),
						"this block contains no code, which may be a mistake"))
				}
			}
		}
	}
	for _, open := range stack {
		msg := "opening brace '{' is never closed"
		if kw := blockOwner(tokens, open); kw != "" {
			msg = fmt.Sprintf("opening brace '{' after '%s' is never closed", kw)
		}
		out = append(out, newError(src, tokens[open], CodeUnclosedBrace, msg,
			"every '{' needs a matching '}'"))
	}
	return out
}

// blockOwner names the control keyword a block at open belongs to: the
// keyword right before it (else, do) or the one before its header parens.
func blockOwner(tokens []lexer.Token, open int) string {
	if kw := headerKeyword(tokens, open, lexer.TokenElse, lexer.TokenDo); kw != "" {
		return kw
	}
	if open == 0 || tokens[open-1].Type != lexer.TokenRParen {
		return ""
	}
	depth := 0
	for j := open - 1; j >= 0; j-- {
		switch tokens[j].Type {
		case lexer.TokenRParen:
			depth++
		case lexer.TokenLParen:
			depth--
			if depth == 0 {
				return headerKeyword(tokens, j, lexer.TokenIf, lexer.TokenFor, lexer.TokenWhile, lexer.TokenSwitch)
			}
		}
	}
	return ""
}

// CheckParens reports unmatched ')' and unclosed '(' as errors and empty
// control-structure conditions as warnings.
func CheckParens(tokens []lexer.Token, src *diag.Source) diag.List {
	var out diag.List
	var stack []int
	for i, tok := range tokens {
		switch tok.Type {
		case lexer.TokenLParen:
			stack = append(stack, i)
		case lexer.TokenRParen:
			if len(stack) == 0 {
				out = append(out, newError(src, tok, CodeUnmatchedParen,
					"closing parenthesis ')' has no matching opening parenthesis",
					"the parentheses are unbalanced; check that every ')' closes a '('"))
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if i-open == 1 {
				if kw := headerKeyword(tokens, open, lexer.TokenIf, lexer.TokenFor, lexer.TokenWhile, lexer.TokenSwitch); kw != "" {
					out = append(out, newWarning(src, tokens[open], CodeEmptyCondition,
						fmt.Sprintf("empty condition in '%s'", kw),
						"this control structure has an empty condition, which may be a mistake"))
				}
			}
		}
	}
	for _, open := range stack {
		msg := "opening parenthesis '(' is never closed"
		if kw := headerKeyword(tokens, open, lexer.TokenIf, lexer.TokenFor, lexer.TokenWhile, lexer.TokenSwitch); kw != "" {
			msg = fmt.Sprintf("opening parenthesis '(' in '%s' is never closed", kw)
		}
		out = append(out, newError(src, tokens[open], CodeUnclosedParen, msg,
			"the parentheses are unbalanced; add a closing ')'"))
	}
	return out
}

// CheckSemicolons reports lines that hold a statement needing a terminator
// (an assignment, declaration, call or jump) but do not end with ';'.
// Control-structure headers, function headers and lines continued on the
// next line are exempt.
func CheckSemicolons(tokens []lexer.Token, src *diag.Source) diag.List {
	var out diag.List
	lines := splitLines(tokens)
	for n, line := range lines {
		if !needsTerminator(line) {
			continue
		}
		last := line[len(line)-1]
		switch last.Type {
		case lexer.TokenSemi, lexer.TokenLBrace, lexer.TokenComma, lexer.TokenColon:
			continue
		case lexer.TokenRBrace:
			// `{ x = 1 }` on one line: look at what precedes the brace.
			if len(line) < 2 {
				continue
			}
			before := line[len(line)-2]
			if before.Type == lexer.TokenSemi || before.Type == lexer.TokenLBrace || before.Type == lexer.TokenRBrace {
				continue
			}
			last = before
		}
		if last.Type.IsOperator() && last.Type != lexer.TokenPlusPlus && last.Type != lexer.TokenMinusMinus {
			continue
		}
		if parenDepth(line) > 0 {
			continue
		}
		if n+1 < len(lines) && continuesLine(lines[n+1][0]) {
			continue
		}
		out = append(out, errorAfter(src, last, CodeMissingSemicolon,
			fmt.Sprintf("missing semicolon after '%s'", last.Lexeme),
			"end the statement with ';'"))
	}
	return out
}

// splitLines groups tokens by source line, skipping preprocessor lines.
func splitLines(tokens []lexer.Token) [][]lexer.Token {
	var lines [][]lexer.Token
	for i := 0; i < len(tokens); {
		j := i
		for j < len(tokens) && tokens[j].Line() == tokens[i].Line() {
			j++
		}
		if tokens[i].Type != lexer.TokenPreprocessor {
			lines = append(lines, tokens[i:j])
		}
		i = j
	}
	return lines
}

func needsTerminator(line []lexer.Token) bool {
	first := line[0]
	i := 0
	if first.Type == lexer.TokenRBrace {
		// `} while (x);` closes a do-while and needs ';', `} else {` does not
		return len(line) >= 2 && line[1].Type == lexer.TokenWhile
	}
	switch first.Type {
	case lexer.TokenIf, lexer.TokenFor, lexer.TokenWhile, lexer.TokenSwitch, lexer.TokenElse,
		lexer.TokenDo, lexer.TokenCase, lexer.TokenDefault, lexer.TokenClass, lexer.TokenStruct,
		lexer.TokenEnum, lexer.TokenUnion, lexer.TokenLBrace, lexer.TokenPublic, lexer.TokenPrivate,
		lexer.TokenProtected, lexer.TokenNamespace, lexer.TokenTemplate:
		return false
	case lexer.TokenReturn, lexer.TokenBreak, lexer.TokenContinue, lexer.TokenGoto:
		return true
	}

	for i < len(line) && isDeclType(line[i].Type) {
		i++
	}
	if i > 0 {
		k := i
		for k < len(line) && line[k].Type == lexer.TokenTimes {
			k++
		}
		if k+1 < len(line) && line[k].Type == lexer.TokenID && line[k+1].Type == lexer.TokenLParen {
			// function header or prototype
			return false
		}
		if k < len(line) && line[k].Type == lexer.TokenID {
			return true
		}
	}

	for j, t := range line {
		if t.Type.IsAssignment() {
			return true
		}
		if (t.Type == lexer.TokenID || t.Type.IsLibraryFunction()) && j+1 < len(line) && line[j+1].Type == lexer.TokenLParen {
			return true
		}
		if t.Type == lexer.TokenPlusPlus || t.Type == lexer.TokenMinusMinus {
			return true
		}
	}
	return false
}

func parenDepth(line []lexer.Token) int {
	depth := 0
	for _, t := range line {
		switch t.Type {
		case lexer.TokenLParen, lexer.TokenLBracket:
			depth++
		case lexer.TokenRParen, lexer.TokenRBracket:
			depth--
		}
	}
	return depth
}

// continuesLine reports whether a line starting with t carries on the
// previous line's expression.
func continuesLine(t lexer.Token) bool {
	if t.Type.IsOperator() && t.Type != lexer.TokenPlusPlus && t.Type != lexer.TokenMinusMinus {
		return true
	}
	switch t.Type {
	case lexer.TokenPeriod, lexer.TokenComma, lexer.TokenRParen, lexer.TokenString, lexer.TokenColon:
		return true
	}
	return false
}

// CheckOperators reports arithmetic, relational, logical and assignment
// operators that lack an operand on either side, including two operators
// written back to back.
func CheckOperators(tokens []lexer.Token, src *diag.Source) diag.List {
	var out diag.List
	reported := make(map[int]bool)
	for i, tok := range tokens {
		if !tok.Type.IsBinaryOperator() && !tok.Type.IsAssignment() {
			continue
		}
		leftOK := i > 0 && endsOperand(tokens[i-1])
		if !leftOK && canStartUnary(tok.Type) {
			// prefix use: -x, *p, &x, or a pointer declarator
			if i > 0 && isDeclType(tokens[i-1].Type) {
				continue
			}
			leftOK = true
		}
		if !leftOK && !reported[i-1] {
			reported[i] = true
			out = append(out, newError(src, tok, CodeMissingOperand,
				fmt.Sprintf("operator '%s' is missing its left operand", tok.Lexeme),
				"put a value or variable before the operator"))
			continue
		}

		if i+1 >= len(tokens) {
			reported[i] = true
			out = append(out, errorAfter(src, tok, CodeMissingOperand,
				fmt.Sprintf("operator '%s' is missing its right operand", tok.Lexeme),
				"put a value or variable after the operator"))
			continue
		}
		next := tokens[i+1]
		switch {
		case startsOperand(next):
		case next.Type == lexer.TokenLBrace && tok.Type == lexer.TokenEquals:
		case next.Type.IsBinaryOperator() || next.Type.IsAssignment():
			reported[i] = true
			out = append(out, newError(src, next, CodeAdjacentOperators,
				fmt.Sprintf("operators '%s' and '%s' appear with no operand between them", tok.Lexeme, next.Lexeme),
				"remove one operator or add the missing operand"))
		default:
			reported[i] = true
			out = append(out, errorAfter(src, tok, CodeMissingOperand,
				fmt.Sprintf("operator '%s' is missing its right operand", tok.Lexeme),
				"put a value or variable after the operator"))
		}
	}
	return out
}

// startsOperand reports whether an operand can begin with t.
func startsOperand(t lexer.Token) bool {
	if isOperandToken(t) || canStartUnary(t.Type) {
		return true
	}
	switch t.Type {
	case lexer.TokenLParen, lexer.TokenLNot, lexer.TokenNot, lexer.TokenPlusPlus, lexer.TokenMinusMinus,
		lexer.TokenSizeof, lexer.TokenNew:
		return true
	}
	return false
}

// maxCallDistance bounds the edit distance of a suggested function name.
const maxCallDistance = 2

// CheckFunctionCalls reports calls to functions that are neither library
// functions nor declared in the same token stream, suggesting the closest
// known names.
func CheckFunctionCalls(tokens []lexer.Token, src *diag.Source) diag.List {
	known := make(map[string]bool)
	for _, kw := range lexer.Keywords() {
		if lexer.LookupKeyword(kw).IsLibraryFunction() {
			known[kw] = true
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Type == lexer.TokenID && tokens[i+1].Type == lexer.TokenLParen && isDeclaredAt(tokens, i) {
			known[tokens[i].Lexeme] = true
		}
		if tokens[i].Type == lexer.TokenClass && tokens[i+1].Type == lexer.TokenID {
			known[tokens[i+1].Lexeme] = true
		}
	}
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)

	var out diag.List
	for i := 0; i+1 < len(tokens); i++ {
		tok := tokens[i]
		if tok.Type != lexer.TokenID || tokens[i+1].Type != lexer.TokenLParen || known[tok.Lexeme] {
			continue
		}
		if i > 0 && (tokens[i-1].Type == lexer.TokenPeriod || tokens[i-1].Type == lexer.TokenArrow) {
			continue
		}
		suggestion := "declare the function before calling it"
		if near := closestNames(tok.Lexeme, names); len(near) > 0 {
			suggestion = "did you mean '" + near[0] + "'?"
		}
		out = append(out, newError(src, tok, CodeUnknownFunction,
			fmt.Sprintf("call to unknown function '%s'", tok.Lexeme), suggestion))
	}
	return out
}

// isDeclaredAt reports whether the name at i is being declared: it follows
// a type, possibly through pointer stars.
func isDeclaredAt(tokens []lexer.Token, i int) bool {
	j := i - 1
	for j >= 0 && tokens[j].Type == lexer.TokenTimes {
		j--
	}
	return j >= 0 && (isDeclType(tokens[j].Type) || (j < i-1 && tokens[j].Type == lexer.TokenID))
}

// closestNames returns the candidates within maxCallDistance edits of name,
// nearest first.
func closestNames(name string, candidates []string) []string {
	type scored struct {
		name string
		dist int
	}
	var hits []scored
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(name, c); d <= maxCallDistance {
			hits = append(hits, scored{c, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}
