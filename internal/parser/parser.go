// Package parser builds syntax structures from the lexer's tokens.
//
// Grammar mode (Parser, Parse) is a recursive descent parser with Pratt-style
// expression parsing that produces an *ast.File. Interactive mode
// (Interactive) runs four independent category scans over the same tokens
// and builds a program graph. Neither mode stops at the first problem: both
// return whatever they built together with every diagnostic they collected.
package parser

import (
	"fmt"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/parser/ast"
)

// Parser is the grammar-mode parser.
type Parser struct {
	tokens []lexer.Token
	pos    int
	src    *diag.Source

	diags diag.List

	// panicMode suppresses cascading errors until the parser resynchronises.
	panicMode bool

	// typedefs records names introduced by typedef so they start declarations.
	typedefs map[string]bool
}

// New creates a parser over tokens. source is only used for excerpts and may
// be empty. A trailing EOF token is added when missing.
func New(tokens []lexer.Token, source string) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokenEOF {
		eof := lexer.Token{Type: lexer.TokenEOF}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof.Position = last.Position
			eof.Position.Column += len([]rune(last.Lexeme))
			eof.Position.Offset += last.Length
		}
		tokens = append(append([]lexer.Token(nil), tokens...), eof)
	}
	return &Parser{
		tokens:   tokens,
		src:      diag.NewSource(source),
		typedefs: make(map[string]bool),
	}
}

// Parse is shorthand for New(tokens, source).ParseFile().
func Parse(tokens []lexer.Token, source string) (*ast.File, diag.List) {
	return New(tokens, source).ParseFile()
}

// ParseFile parses a translation unit.
func (p *Parser) ParseFile() (*ast.File, diag.List) {
	file := &ast.File{Filename: p.current().Position.Filename}

	for !p.isAtEnd() {
		if p.check(lexer.TokenPreprocessor) {
			file.Directives = append(file.Directives, p.advance())
			continue
		}
		start := p.pos
		if decl := p.parseExternalDecl(); decl != nil {
			file.Decls = append(file.Decls, decl)
		}
		p.recover(start)
	}
	return file, p.diags
}

// ParseSnippet parses a run of declarations and statements, such as the
// token span of one interactive-mode element. Function definitions are
// returned as *ast.FuncDecl, everything else as ast.Stmt.
func (p *Parser) ParseSnippet() ([]ast.Node, diag.List) {
	var out []ast.Node
	for !p.isAtEnd() {
		if p.check(lexer.TokenPreprocessor) {
			p.advance()
			continue
		}
		start := p.pos
		var n ast.Node
		if p.isTypeStart() {
			n = p.parseExternalDecl()
		} else {
			n = p.parseStatement()
		}
		if n != nil && !isNilDecl(n) {
			out = append(out, n)
		}
		p.recover(start)
	}
	return out, p.diags
}

func isNilDecl(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.FuncDecl:
		return v == nil
	case *ast.VarDecl:
		return v == nil
	}
	return false
}

// recover resynchronises after an error and guarantees progress.
func (p *Parser) recover(start int) {
	if p.panicMode {
		p.synchronize()
	}
	if p.pos == start && !p.isAtEnd() {
		p.advance()
	}
}

// parseExternalDecl parses a function definition or prototype, or a global
// declaration.
func (p *Parser) parseExternalDecl() ast.Decl {
	if p.check(lexer.TokenClass) {
		p.errorAtCurrent("classes are not supported in grammar mode",
			"use the interactive mode to analyse classes")
		p.skipBalancedUntilSemi()
		return nil
	}
	if !p.isTypeStart() {
		p.errorAtCurrent(fmt.Sprintf("expected declaration or function definition, found %s", describe(p.current())),
			"statements must appear inside a function body")
		// Consume the stray statement so it is reported once.
		p.parseStatement()
		p.panicMode = false
		return nil
	}

	typ := p.parseTypeSpec()
	if typ == nil {
		return nil
	}
	if p.match(lexer.TokenSemi) {
		// `struct S { ... };` or `enum E { ... };`
		return nil
	}

	stars := p.parsePointers()
	name, ok := p.expectIdent("expected a name in declaration")
	if !ok {
		return nil
	}

	if p.check(lexer.TokenLParen) {
		return p.parseFuncDecl(typ.WithPointer(stars), name)
	}
	return p.parseVarDeclRest(typ, stars, name)
}

func (p *Parser) parseFuncDecl(ret *ast.TypeSpec, name *ast.Ident) ast.Decl {
	fn := &ast.FuncDecl{ReturnType: ret, Name: name}
	p.advance() // (

	if p.check(lexer.TokenVoid) && p.peekType(1) == lexer.TokenRParen {
		p.advance()
	}
	for !p.check(lexer.TokenRParen) && !p.isAtEnd() {
		if p.match(lexer.TokenEllipsis) {
			fn.Variadic = true
			break
		}
		if !p.isTypeStart() {
			p.errorAtCurrent(fmt.Sprintf("expected parameter type, found '%s'", p.current().Lexeme),
				"parameters are written as 'type name'")
			break
		}
		pt := p.parseTypeSpec()
		if pt == nil {
			break
		}
		param := &ast.Param{Type: pt.WithPointer(p.parsePointers())}
		if p.check(lexer.TokenID) {
			param.Name = p.identFrom(p.advance())
		}
		if p.match(lexer.TokenLBracket) {
			p.skipUntil(lexer.TokenRBracket)
			p.match(lexer.TokenRBracket)
			param.Type = param.Type.WithPointer(1)
		}
		fn.Params = append(fn.Params, param)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRParen, "expected ')' after parameters",
		"close the parameter list with ')'")

	if p.match(lexer.TokenSemi) {
		return fn
	}
	if !p.check(lexer.TokenLBrace) {
		p.errorAfterPrevious(fmt.Sprintf("expected '{' or ';' after declaration of '%s'", name.Name),
			"add a function body or end the prototype with ';'")
		return fn
	}
	fn.Body = p.parseBlock()
	return fn
}

// parseVarDeclRest parses the declarators of a declaration whose type and
// first name have already been read.
func (p *Parser) parseVarDeclRest(typ *ast.TypeSpec, stars int, name *ast.Ident) *ast.VarDecl {
	decl := &ast.VarDecl{Type: typ}
	for {
		decl.Specs = append(decl.Specs, p.parseDeclarator(typ, stars, name))
		if !p.match(lexer.TokenComma) {
			break
		}
		stars = p.parsePointers()
		var ok bool
		if name, ok = p.expectIdent("expected a variable name after ','"); !ok {
			return decl
		}
	}
	p.expectSemi(fmt.Sprintf("missing semicolon after declaration of '%s'", decl.Specs[len(decl.Specs)-1].Name.Name))

	for _, q := range typ.Qualifiers {
		if q == "typedef" {
			for _, s := range decl.Specs {
				p.typedefs[s.Name.Name] = true
			}
		}
	}
	return decl
}

func (p *Parser) parseDeclarator(typ *ast.TypeSpec, stars int, name *ast.Ident) *ast.VarSpec {
	spec := &ast.VarSpec{Name: name, Type: typ.WithPointer(stars)}
	if p.match(lexer.TokenLBracket) {
		spec.Array = true
		if !p.check(lexer.TokenRBracket) {
			spec.ArrayLen = p.parseAssignExpr()
		}
		p.expect(lexer.TokenRBracket, "expected ']' after array size", "close the array size with ']'")
	}
	if p.match(lexer.TokenEquals) {
		if p.match(lexer.TokenLBrace) {
			for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
				spec.InitList = append(spec.InitList, p.parseAssignExpr())
				if !p.match(lexer.TokenComma) {
					break
				}
			}
			p.expect(lexer.TokenRBrace, "expected '}' after initializer list", "close the initializer list with '}'")
		} else {
			spec.Init = p.parseAssignExpr()
		}
	}
	return spec
}

// parseTypeSpec reads storage classes, qualifiers and the base type.
func (p *Parser) parseTypeSpec() *ast.TypeSpec {
	spec := &ast.TypeSpec{TypePos: p.current().Position}
	var size []string
	base := ""

loop:
	for {
		tok := p.current()
		switch tok.Type {
		case lexer.TokenStatic, lexer.TokenExtern, lexer.TokenAuto, lexer.TokenRegister,
			lexer.TokenConst, lexer.TokenVolatile, lexer.TokenTypedef:
			spec.Qualifiers = append(spec.Qualifiers, tok.Lexeme)
		case lexer.TokenUnsigned, lexer.TokenSigned, lexer.TokenShort, lexer.TokenLong:
			size = append(size, tok.Lexeme)
		case lexer.TokenInt, lexer.TokenCharKw, lexer.TokenFloatKw, lexer.TokenDouble,
			lexer.TokenVoid, lexer.TokenBool:
			if base != "" {
				p.errorAtCurrent(fmt.Sprintf("two base types '%s' and '%s' in one declaration", base, tok.Lexeme),
					"remove one of the type names")
			}
			base = tok.Lexeme
		case lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum:
			p.advance()
			tag := tok.Lexeme
			if p.check(lexer.TokenID) {
				tag += " " + p.advance().Lexeme
			}
			if p.check(lexer.TokenLBrace) {
				p.skipBalanced(lexer.TokenLBrace, lexer.TokenRBrace)
			}
			base = tag
			continue
		case lexer.TokenID:
			if base != "" || len(size) > 0 || !p.typedefs[tok.Lexeme] {
				break loop
			}
			base = tok.Lexeme
		default:
			break loop
		}
		p.advance()
	}

	switch {
	case base == "" && len(size) == 0:
		if len(spec.Qualifiers) == 0 {
			p.errorAtCurrent("expected a type name", "declarations start with a type such as 'int'")
			return nil
		}
		base = "int"
	case base == "" && onlySignedness(size):
		base = "int"
	}
	if base != "" {
		size = append(size, base)
	}
	spec.Name = strings.Join(size, " ")
	return spec
}

func onlySignedness(words []string) bool {
	for _, w := range words {
		if w != "signed" && w != "unsigned" {
			return false
		}
	}
	return true
}

func (p *Parser) parsePointers() int {
	n := 0
	for p.match(lexer.TokenTimes) {
		n++
		for p.match(lexer.TokenConst, lexer.TokenVolatile) {
		}
	}
	return n
}

// isTypeStart reports whether the current token can begin a declaration.
func (p *Parser) isTypeStart() bool {
	t := p.current()
	switch t.Type {
	case lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum, lexer.TokenTypedef:
		return true
	case lexer.TokenID:
		return p.typedefs[t.Lexeme] && p.peekType(1) != lexer.TokenEquals && p.peekType(1) != lexer.TokenLParen
	}
	return t.Type.IsTypeSpecifier()
}

// Statements

func (p *Parser) parseStatement() ast.Stmt {
	tok := p.current()
	switch tok.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenSwitch:
		return p.parseSwitch()
	case lexer.TokenReturn:
		p.advance()
		ret := &ast.ReturnStmt{ReturnPos: tok.Position}
		if !p.check(lexer.TokenSemi) {
			ret.Value = p.parseExpression()
		}
		p.expectSemi("missing semicolon after return statement")
		return ret
	case lexer.TokenBreak:
		p.advance()
		p.expectSemi("missing semicolon after 'break'")
		return &ast.BreakStmt{BreakPos: tok.Position}
	case lexer.TokenContinue:
		p.advance()
		p.expectSemi("missing semicolon after 'continue'")
		return &ast.ContinueStmt{ContinuePos: tok.Position}
	case lexer.TokenGoto:
		p.advance()
		label, _ := p.expectIdent("expected a label name after 'goto'")
		p.expectSemi("missing semicolon after goto statement")
		return &ast.GotoStmt{GotoPos: tok.Position, Label: label}
	case lexer.TokenSemi:
		p.advance()
		return &ast.ExprStmt{Semi: tok}
	case lexer.TokenCase, lexer.TokenDefault:
		p.errorAtCurrent(fmt.Sprintf("'%s' label outside of a switch statement", tok.Lexeme),
			"case and default labels may only appear inside switch")
		p.skipUntil(lexer.TokenColon)
		p.match(lexer.TokenColon)
		return &ast.BadStmt{From: tok.Position}
	case lexer.TokenElse:
		p.errorAtCurrent("'else' without a matching 'if'", "check the braces of the preceding if statement")
		p.advance()
		return &ast.BadStmt{From: tok.Position}
	}

	if tok.Type == lexer.TokenID && p.peekType(1) == lexer.TokenColon {
		label := p.identFrom(p.advance())
		p.advance()
		return &ast.LabeledStmt{Label: label, Stmt: p.parseStatement()}
	}

	if p.isTypeStart() {
		typ := p.parseTypeSpec()
		if typ == nil {
			return &ast.BadStmt{From: tok.Position}
		}
		if p.match(lexer.TokenSemi) {
			return &ast.ExprStmt{Semi: p.previous()}
		}
		stars := p.parsePointers()
		name, ok := p.expectIdent("expected a variable name in declaration")
		if !ok {
			return &ast.BadStmt{From: tok.Position}
		}
		if p.check(lexer.TokenLParen) {
			p.errorAtCurrent(fmt.Sprintf("function '%s' defined inside another function", name.Name),
				"move the function definition to file scope")
			p.skipBalancedUntilSemi()
			return &ast.BadStmt{From: tok.Position}
		}
		return p.parseVarDeclRest(typ, stars, name)
	}

	expr := p.parseExpression()
	stmt := &ast.ExprStmt{Expression: expr}
	if p.check(lexer.TokenSemi) {
		stmt.Semi = p.advance()
	} else {
		p.errorAfterPrevious(fmt.Sprintf("missing semicolon after expression '%s'", ast.ExprString(expr)),
			"end the statement with ';'")
	}
	return stmt
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	block := &ast.BlockStmt{LeftBrace: p.current()}
	if !p.expect(lexer.TokenLBrace, "expected '{'", "open the block with '{'") {
		return block
	}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		start := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.recover(start)
	}
	if p.check(lexer.TokenRBrace) {
		block.RightBrace = p.advance()
	} else {
		p.panicMode = false
		p.errorAt(block.LeftBrace, "unclosed '{'", "every '{' needs a matching '}'")
	}
	return block
}

func (p *Parser) parseCondition(keyword string) ast.Expr {
	if !p.expect(lexer.TokenLParen, fmt.Sprintf("expected '(' after '%s'", keyword),
		fmt.Sprintf("the correct form is '%s (condition) { ... }'", keyword)) {
		return &ast.BadExpr{At: p.current().Position}
	}
	if p.check(lexer.TokenRParen) {
		p.errorAtCurrent(fmt.Sprintf("empty condition in '%s'", keyword), "write a condition between the parentheses")
		p.advance()
		p.panicMode = false
		return &ast.BadExpr{At: p.previous().Position}
	}
	cond := p.parseExpression()
	p.expect(lexer.TokenRParen, fmt.Sprintf("expected ')' after %s condition", keyword),
		"close the condition with ')'")
	return cond
}

func (p *Parser) parseIf() ast.Stmt {
	stmt := &ast.IfStmt{IfPos: p.advance().Position}
	stmt.Cond = p.parseCondition("if")
	stmt.Then = p.parseStatement()
	if p.match(lexer.TokenElse) {
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	stmt := &ast.WhileStmt{WhilePos: p.advance().Position}
	stmt.Cond = p.parseCondition("while")
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseDoWhile() ast.Stmt {
	stmt := &ast.DoWhileStmt{DoPos: p.advance().Position}
	stmt.Body = p.parseStatement()
	if !p.expect(lexer.TokenWhile, "expected 'while' after the body of 'do'",
		"the correct form is 'do { ... } while (condition);'") {
		return stmt
	}
	stmt.Cond = p.parseCondition("while")
	p.expectSemi("missing semicolon after do-while condition")
	return stmt
}

func (p *Parser) parseFor() ast.Stmt {
	stmt := &ast.ForStmt{ForPos: p.advance().Position}
	if !p.expect(lexer.TokenLParen, "expected '(' after 'for'",
		"the correct form is 'for (init; condition; update) { ... }'") {
		return stmt
	}

	switch {
	case p.match(lexer.TokenSemi):
	case p.isTypeStart():
		stmt.Init = p.parseStatement()
	default:
		init := &ast.ExprStmt{Expression: p.parseExpression()}
		init.Semi = p.current()
		p.expect(lexer.TokenSemi, "expected ';' after for-loop initializer", "separate the for clauses with ';'")
		stmt.Init = init
	}

	if !p.check(lexer.TokenSemi) {
		stmt.Cond = p.parseExpression()
	}
	p.expect(lexer.TokenSemi, "expected ';' after for-loop condition", "separate the for clauses with ';'")

	if !p.check(lexer.TokenRParen) {
		stmt.Post = p.parseExpression()
	}
	p.expect(lexer.TokenRParen, "expected ')' after for-loop clauses", "close the for clauses with ')'")
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseSwitch() ast.Stmt {
	stmt := &ast.SwitchStmt{SwitchPos: p.advance().Position}
	stmt.Tag = p.parseCondition("switch")
	if !p.expect(lexer.TokenLBrace, "expected '{' after switch expression",
		"the correct form is 'switch (expression) { case value: ... }'") {
		return stmt
	}

	var clause *ast.CaseClause
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		tok := p.current()
		switch tok.Type {
		case lexer.TokenCase:
			p.advance()
			clause = &ast.CaseClause{CasePos: tok.Position, Value: p.parseConditional()}
			p.expect(lexer.TokenColon, "expected ':' after case value", "write 'case value:'")
			stmt.Cases = append(stmt.Cases, clause)
			continue
		case lexer.TokenDefault:
			p.advance()
			clause = &ast.CaseClause{CasePos: tok.Position}
			p.expect(lexer.TokenColon, "expected ':' after 'default'", "write 'default:'")
			stmt.Cases = append(stmt.Cases, clause)
			continue
		}

		start := p.pos
		s := p.parseStatement()
		if clause == nil {
			p.diags = append(p.diags, diag.Warnf(diag.KindSyntax, tok.Line(), tok.Column(),
				"statement before the first case label is never executed").WithExcerpt(p.src))
		} else if s != nil {
			clause.Body = append(clause.Body, s)
		}
		p.recover(start)
	}
	p.expect(lexer.TokenRBrace, "expected '}' at the end of switch", "close the switch body with '}'")
	return stmt
}

// Expressions

// parseExpression parses a full expression including the comma operator.
func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(PrecComma)
}

// parseAssignExpr parses an expression that stops at commas, as used for
// arguments and initializers.
func (p *Parser) parseAssignExpr() ast.Expr {
	return p.parsePrecedence(PrecAssignment)
}

func (p *Parser) parseConditional() ast.Expr {
	return p.parsePrecedence(PrecConditional)
}

func (p *Parser) parsePrecedence(precedence Precedence) ast.Expr {
	left := p.parsePrefix()
	for precedence <= getPrecedence(p.current().Type) {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	tok := p.current()
	switch tok.Type {
	case lexer.TokenInteger:
		p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitInt, Value: tok.Lexeme}
	case lexer.TokenFloat:
		p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitFloat, Value: tok.Lexeme}
	case lexer.TokenChar:
		p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitChar, Value: tok.Lexeme}
	case lexer.TokenString:
		return p.parseStringLiteral()

	case lexer.TokenID:
		p.advance()
		switch tok.Lexeme {
		case "true", "false":
			return &ast.Literal{Token: tok, Kind: ast.LitBool, Value: tok.Lexeme}
		case "NULL", "nullptr":
			return &ast.Literal{Token: tok, Kind: ast.LitNull, Value: tok.Lexeme}
		}
		return p.identFrom(tok)

	case lexer.TokenLParen:
		if p.startsTypeAt(1) {
			return p.parseCast()
		}
		p.advance()
		if p.check(lexer.TokenRParen) {
			p.errorAtCurrent("empty parentheses in expression", "put an expression between the parentheses")
			p.advance()
			return &ast.BadExpr{At: tok.Position}
		}
		expr := p.parseExpression()
		p.expect(lexer.TokenRParen, "expected ')' after expression", "close the parenthesis with ')'")
		return expr

	case lexer.TokenMinus, lexer.TokenPlus, lexer.TokenLNot, lexer.TokenNot,
		lexer.TokenTimes, lexer.TokenAnd, lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		p.advance()
		return &ast.UnaryExpr{Operator: tok, Operand: p.parsePrecedence(PrecUnary)}

	case lexer.TokenSizeof:
		p.advance()
		if p.check(lexer.TokenLParen) && p.startsTypeAt(1) {
			p.advance()
			typ := p.parseTypeName()
			p.expect(lexer.TokenRParen, "expected ')' after type in sizeof", "close sizeof with ')'")
			return &ast.SizeofExpr{SizeofPos: tok.Position, Type: typ}
		}
		return &ast.SizeofExpr{SizeofPos: tok.Position, Operand: p.parsePrecedence(PrecUnary)}
	}

	if tok.Type.IsLibraryFunction() || isIdentLikeKeyword(tok.Type) {
		p.advance()
		return p.identFrom(tok)
	}

	if tok.Type.IsBinaryOperator() || tok.Type.IsAssignment() {
		p.errorAtCurrent(fmt.Sprintf("operator '%s' is missing its left operand", tok.Lexeme),
			"put a value or variable before the operator")
	} else {
		p.errorAtCurrent(fmt.Sprintf("expected expression, found %s", describe(tok)),
			"check for a missing operand or a stray token")
	}
	return &ast.BadExpr{At: tok.Position}
}

func isIdentLikeKeyword(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenCout, lexer.TokenCin, lexer.TokenEndl, lexer.TokenThis:
		return true
	}
	return false
}

// parseStringLiteral joins adjacent string literals as C does.
func (p *Parser) parseStringLiteral() ast.Expr {
	first := p.advance()
	value := first.Lexeme
	for p.check(lexer.TokenString) {
		next := p.advance().Lexeme
		value = value[:len(value)-1] + next[1:]
	}
	return &ast.Literal{Token: first, Kind: ast.LitString, Value: value}
}

func (p *Parser) parseCast() ast.Expr {
	lparen := p.advance()
	typ := p.parseTypeName()
	p.expect(lexer.TokenRParen, "expected ')' after cast type", "close the cast with ')'")
	return &ast.CastExpr{LeftParen: lparen, Type: typ, Operand: p.parsePrecedence(PrecUnary)}
}

func (p *Parser) parseTypeName() *ast.TypeSpec {
	typ := p.parseTypeSpec()
	if typ == nil {
		return &ast.TypeSpec{TypePos: p.current().Position, Name: "int"}
	}
	return typ.WithPointer(p.parsePointers())
}

func (p *Parser) startsTypeAt(offset int) bool {
	save := p.pos
	p.pos += offset
	ok := p.pos < len(p.tokens) && p.isTypeStart()
	p.pos = save
	return ok
}

func (p *Parser) parseInfix(left ast.Expr) ast.Expr {
	tok := p.current()
	switch getPrecedence(tok.Type) {
	case PrecComma:
		list := []ast.Expr{left}
		for p.match(lexer.TokenComma) {
			list = append(list, p.parseAssignExpr())
		}
		return &ast.CommaExpr{List: list}

	case PrecAssignment:
		p.advance()
		if !isAssignable(left) {
			p.errorAt(tok, fmt.Sprintf("cannot assign to '%s'", ast.ExprString(left)),
				"the left side of an assignment must be a variable")
		}
		return &ast.AssignExpr{Target: left, Operator: tok, Value: p.parsePrecedence(rightOperandPrecedence(tok.Type))}

	case PrecConditional:
		p.advance()
		then := p.parseExpression()
		p.expect(lexer.TokenColon, "expected ':' in conditional expression", "the form is 'cond ? a : b'")
		return &ast.CondExpr{Cond: left, Then: then, Else: p.parsePrecedence(rightOperandPrecedence(tok.Type))}

	case PrecPostfix:
		return p.parsePostfix(left)
	}

	p.advance()
	if next := p.current().Type; next.IsBinaryOperator() && !canStartUnary(next) {
		p.errorAtCurrent(fmt.Sprintf("operator '%s' follows '%s' with no operand between them", p.current().Lexeme, tok.Lexeme),
			"remove one operator or add the missing operand")
	}
	right := p.parsePrecedence(rightOperandPrecedence(tok.Type))
	return &ast.BinaryExpr{Left: left, Operator: tok, Right: right}
}

// rightOperandPrecedence is the minimum precedence of the right operand of
// an infix operator.
func rightOperandPrecedence(tokenType lexer.TokenType) Precedence {
	prec := getPrecedence(tokenType)
	if isRightAssociative(tokenType) {
		return prec
	}
	return prec + 1
}

func canStartUnary(tokenType lexer.TokenType) bool {
	switch tokenType {
	case lexer.TokenMinus, lexer.TokenPlus, lexer.TokenTimes, lexer.TokenAnd:
		return true
	}
	return false
}

func (p *Parser) parsePostfix(left ast.Expr) ast.Expr {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenLParen:
		call := &ast.CallExpr{Callee: left, LeftParen: tok}
		for !p.check(lexer.TokenRParen) && !p.isAtEnd() {
			call.Args = append(call.Args, p.parseAssignExpr())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.expect(lexer.TokenRParen, "expected ')' after call arguments", "close the argument list with ')'")
		return call
	case lexer.TokenLBracket:
		index := p.parseExpression()
		p.expect(lexer.TokenRBracket, "expected ']' after index", "close the index with ']'")
		return &ast.IndexExpr{Object: left, Index: index}
	case lexer.TokenPeriod, lexer.TokenArrow:
		member, _ := p.expectIdent(fmt.Sprintf("expected a member name after '%s'", tok.Lexeme))
		if member == nil {
			member = &ast.Ident{Token: tok}
		}
		return &ast.MemberExpr{Object: left, Member: member, Arrow: tok.Type == lexer.TokenArrow}
	default: // ++ --
		return &ast.UnaryExpr{Operator: tok, Operand: left, IsPostfix: true}
	}
}

func isAssignable(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Ident, *ast.IndexExpr, *ast.MemberExpr, *ast.BadExpr:
		return true
	case *ast.UnaryExpr:
		return n.Operator.Type == lexer.TokenTimes && !n.IsPostfix
	}
	return false
}

// Token helpers

func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) peekType(n int) lexer.TokenType {
	if p.pos+n >= len(p.tokens) {
		return lexer.TokenEOF
	}
	return p.tokens[p.pos+n].Type
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(tokenType lexer.TokenType) bool {
	return p.current().Type == tokenType
}

func (p *Parser) match(tokenTypes ...lexer.TokenType) bool {
	for _, tokenType := range tokenTypes {
		if p.check(tokenType) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) isAtEnd() bool {
	return p.current().Type == lexer.TokenEOF
}

// expect consumes tokenType or records an error at the current token.
func (p *Parser) expect(tokenType lexer.TokenType, message, suggestion string) bool {
	if p.match(tokenType) {
		return true
	}
	p.errorAtCurrent(message+", found "+describe(p.current()), suggestion)
	return false
}

// expectSemi consumes ';' or reports a missing terminator just after the
// previous token.
func (p *Parser) expectSemi(message string) {
	if p.match(lexer.TokenSemi) {
		return
	}
	p.errorAfterPrevious(message, "end the statement with ';'")
}

func (p *Parser) expectIdent(message string) (*ast.Ident, bool) {
	if p.check(lexer.TokenID) {
		return p.identFrom(p.advance()), true
	}
	suggestion := "names start with a letter or '_'"
	keyword := p.current().Type.IsKeyword()
	if keyword {
		suggestion = fmt.Sprintf("'%s' is a reserved word and cannot be used as a name", p.current().Lexeme)
	}
	p.errorAtCurrent(message+", found "+describe(p.current()), suggestion)
	if keyword {
		p.advance()
	}
	return nil, false
}

func (p *Parser) identFrom(tok lexer.Token) *ast.Ident {
	return &ast.Ident{Token: tok, Name: tok.Lexeme}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokenEOF {
		return "end of input"
	}
	return "'" + tok.Lexeme + "'"
}

func (p *Parser) skipUntil(types ...lexer.TokenType) {
	for !p.isAtEnd() {
		for _, t := range types {
			if p.check(t) {
				return
			}
		}
		p.advance()
	}
}

// skipBalanced skips from an opening delimiter to its matching close.
func (p *Parser) skipBalanced(open, close lexer.TokenType) {
	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Type {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipBalancedUntilSemi skips a construct that may contain a braced body,
// stopping after its closing brace or terminating ';'.
func (p *Parser) skipBalancedUntilSemi() {
	for !p.isAtEnd() {
		switch p.current().Type {
		case lexer.TokenSemi:
			p.advance()
			return
		case lexer.TokenLBrace:
			p.skipBalanced(lexer.TokenLBrace, lexer.TokenRBrace)
			p.match(lexer.TokenSemi)
			return
		}
		p.advance()
	}
	p.panicMode = false
}

// Errors

func (p *Parser) errorAtCurrent(message, suggestion string) {
	p.errorAt(p.current(), message, suggestion)
}

func (p *Parser) errorAt(tok lexer.Token, message, suggestion string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	line, col := tok.Line(), tok.Column()
	if tok.Type == lexer.TokenEOF && p.pos > 0 {
		prev := p.previous()
		line, col = prev.Line(), prev.Column()+len([]rune(prev.Lexeme))
	}
	d := diag.Errorf(diag.KindSyntax, line, col, "%s", message)
	p.diags = append(p.diags, d.WithSuggestion(suggestion).WithExcerpt(p.src))
}

// errorAfterPrevious reports a problem located just past the previous
// token, which is where a missing terminator belongs.
func (p *Parser) errorAfterPrevious(message, suggestion string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	prev := p.previous()
	d := diag.Errorf(diag.KindSyntax, prev.Line(), prev.Column()+len([]rune(prev.Lexeme)), "%s", message)
	p.diags = append(p.diags, d.WithSuggestion(suggestion).WithExcerpt(p.src))
}

// synchronize discards tokens until a likely statement boundary: the start
// of a statement or declaration, or just past a ';'.
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.isAtEnd() {
		switch p.current().Type {
		case lexer.TokenRBrace, lexer.TokenLBrace, lexer.TokenIf, lexer.TokenWhile, lexer.TokenFor,
			lexer.TokenDo, lexer.TokenSwitch, lexer.TokenReturn, lexer.TokenBreak, lexer.TokenContinue:
			return
		}
		if p.isTypeStart() {
			return
		}
		if p.advance().Type == lexer.TokenSemi {
			return
		}
	}
}
