package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/hassan/ccompiler/internal/diag"
)

// Diagnostic codes for the lexical error sub-kinds.
const (
	CodeInvalidIdentifier  = "invalid-identifier"
	CodeInvalidHex         = "invalid-hex"
	CodeInvalidOctal       = "invalid-octal"
	CodeInvalidFloat       = "invalid-float"
	CodeUnterminatedString = "unterminated-string"
	CodeUnterminatedChar   = "unterminated-char"
	CodeMalformedChar      = "malformed-char"
	CodeUnterminatedBlock  = "unterminated-comment"
	CodeIllegalCharacter   = "illegal-character"
	CodeMisspelledKeyword  = "misspelled-keyword"
)

// SegmentClass says what a consumed stretch of input became.
type SegmentClass int

const (
	SegmentToken SegmentClass = iota
	SegmentError
	SegmentTrivia // whitespace and comments
)

// Segment is a contiguous stretch of input consumed in one step.
// The segments of a run tile the input with no gaps or overlaps.
type Segment struct {
	Offset int
	Length int
	Class  SegmentClass
}

// Lexer converts C source into tokens.
//
// The lexer never stops on bad input. Malformed literals and illegal
// characters become diagnostics and scanning continues after them.
type Lexer struct {
	source   string
	filename string
	src      *diag.Source

	// start is the byte offset of the token being scanned, current the
	// offset being examined.
	start   int
	current int

	line      int
	lineStart int

	// startLine and startLineStart freeze the line state at token start so
	// multi-line tokens report where they began.
	startLine      int
	startLineStart int

	diags    diag.List
	segments []Segment
}

// New creates a Lexer for source. filename is used only in positions.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		src:      diag.NewSource(source),
		line:     1,
	}
}

// Tokenize scans source and returns its tokens and lexical diagnostics.
func Tokenize(source string) ([]Token, diag.List) {
	return New(source, "").Tokenize()
}

// Tokenize scans the whole input. The returned slice always ends with a
// TokenEOF token.
func (l *Lexer) Tokenize() ([]Token, diag.List) {
	var tokens []Token
	for {
		l.skipTrivia()
		l.mark()
		if l.isAtEnd() {
			tokens = append(tokens, l.makeToken(TokenEOF))
			break
		}
		tok, ok := l.scanToken()
		if ok {
			tokens = append(tokens, tok)
			l.segment(SegmentToken)
		} else {
			l.segment(SegmentError)
		}
	}
	return tokens, l.diags
}

// Segments returns how the input was consumed by the last Tokenize call.
func (l *Lexer) Segments() []Segment {
	return l.segments
}

// scanToken scans one token starting at l.start. It returns false when the
// consumed span was a lexical error.
func (l *Lexer) scanToken() (Token, bool) {
	ch := l.advance()

	switch {
	case isLetter(ch):
		return l.scanIdentifier(), true
	case isDigit(ch):
		return l.scanNumber()
	case ch == '.' && isDigit(l.peek()):
		return l.scanFraction()
	}

	switch ch {
	case '(':
		return l.makeToken(TokenLParen), true
	case ')':
		return l.makeToken(TokenRParen), true
	case '{':
		return l.makeToken(TokenLBrace), true
	case '}':
		return l.makeToken(TokenRBrace), true
	case '[':
		return l.makeToken(TokenLBracket), true
	case ']':
		return l.makeToken(TokenRBracket), true
	case ';':
		return l.makeToken(TokenSemi), true
	case ',':
		return l.makeToken(TokenComma), true
	case ':':
		return l.makeToken(TokenColon), true
	case '~':
		return l.makeToken(TokenNot), true
	case '?':
		return l.makeToken(TokenQuestion), true
	case '.':
		if l.peek() == '.' && l.peekNext() == '.' {
			l.advance()
			l.advance()
			return l.makeToken(TokenEllipsis), true
		}
		return l.makeToken(TokenPeriod), true
	case '+':
		return l.makeToken(l.pick2('+', TokenPlusPlus, '=', TokenPlusEqual, TokenPlus)), true
	case '-':
		if l.match('>') {
			return l.makeToken(TokenArrow), true
		}
		return l.makeToken(l.pick2('-', TokenMinusMinus, '=', TokenMinusEqual, TokenMinus)), true
	case '*':
		return l.makeToken(l.pick('=', TokenTimesEqual, TokenTimes)), true
	case '/':
		return l.makeToken(l.pick('=', TokenDivEqual, TokenDivide)), true
	case '%':
		return l.makeToken(l.pick('=', TokenModEqual, TokenModulo)), true
	case '^':
		return l.makeToken(l.pick('=', TokenXorEqual, TokenXor)), true
	case '=':
		return l.makeToken(l.pick('=', TokenEQ, TokenEquals)), true
	case '!':
		return l.makeToken(l.pick('=', TokenNE, TokenLNot)), true
	case '&':
		return l.makeToken(l.pick2('&', TokenLAnd, '=', TokenAndEqual, TokenAnd)), true
	case '|':
		return l.makeToken(l.pick2('|', TokenLOr, '=', TokenOrEqual, TokenOr)), true
	case '<':
		if l.match('<') {
			return l.makeToken(l.pick('=', TokenLShiftEqual, TokenLShift)), true
		}
		return l.makeToken(l.pick('=', TokenLE, TokenLT)), true
	case '>':
		if l.match('>') {
			return l.makeToken(l.pick('=', TokenRShiftEqual, TokenRShift)), true
		}
		return l.makeToken(l.pick('=', TokenGE, TokenGT)), true
	case '"':
		return l.scanString()
	case '\'':
		return l.scanChar()
	case '#':
		if tok, ok := l.scanDirective(); ok {
			return tok, true
		}
	}

	l.report(CodeIllegalCharacter, "illegal character '%s'", illegalCharHint(ch), string(ch))
	return Token{}, false
}

// pick consumes next if present and returns yes, otherwise no.
func (l *Lexer) pick(next rune, yes, no TokenType) TokenType {
	if l.match(next) {
		return yes
	}
	return no
}

func (l *Lexer) pick2(a rune, ta TokenType, b rune, tb TokenType, none TokenType) TokenType {
	if l.match(a) {
		return ta
	}
	return l.pick(b, tb, none)
}

func (l *Lexer) scanIdentifier() Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	text := l.lexeme()
	tok := l.makeToken(LookupKeyword(text))
	if tok.Type != TokenID {
		return tok
	}
	if kws := SuggestKeywords(text); len(kws) > 0 {
		quoted := make([]string, len(kws))
		for i, kw := range kws {
			quoted[i] = "'" + kw + "'"
		}
		l.warn(CodeMisspelledKeyword, "'%s' may be a misspelled keyword",
			"did you mean "+strings.Join(quoted, " or ")+"?", text)
	}
	return tok
}

// scanNumber scans integer and float literals plus the malformed shapes
// 2x, 0xZZ, 3.x and 2eZ.
func (l *Lexer) scanNumber() (Token, bool) {
	first := l.source[l.start]

	if first == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		if !isHexDigit(l.peek()) {
			l.skipWord()
			l.report(CodeInvalidHex, "invalid hexadecimal literal '%s'",
				"hex numbers must contain only digits 0-9 and letters A-F", l.lexeme())
			return Token{}, false
		}
		for isHexDigit(l.peek()) {
			l.advance()
		}
		return l.finishInteger()
	}

	for isDigit(l.peek()) {
		l.advance()
	}

	switch {
	case l.peek() == '.' && l.peekNext() != '.':
		l.advance()
		return l.scanFraction()
	case (l.peek() == 'e' || l.peek() == 'E') && !isLetter(l.peekNext()):
		// 2e5, 2e+5 and the malformed 2e; while 2else is an identifier error
		return l.scanExponent()
	}
	if first == '0' && strings.ContainsAny(l.lexeme(), "89") {
		l.skipWord()
		l.report(CodeInvalidOctal, "invalid octal literal '%s'",
			"numbers starting with 0 are octal and may only use digits 0-7", l.lexeme())
		return Token{}, false
	}
	return l.finishInteger()
}

// finishInteger consumes an integer suffix and rejects trailing letters.
func (l *Lexer) finishInteger() (Token, bool) {
	for strings.ContainsRune("uUlL", l.peek()) {
		l.advance()
	}
	if isLetter(l.peek()) || isDigit(l.peek()) {
		l.skipWord()
		l.report(CodeInvalidIdentifier, "invalid identifier '%s'",
			"identifiers must start with a letter or underscore, not digits", l.lexeme())
		return Token{}, false
	}
	return l.makeToken(TokenInteger), true
}

// scanFraction continues after the '.' of a float.
func (l *Lexer) scanFraction() (Token, bool) {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		return l.scanExponent()
	}
	if isLetter(l.peek()) && !strings.ContainsRune("fFlL", l.peek()) {
		l.skipWord()
		l.report(CodeInvalidFloat, "invalid float literal '%s'",
			"digits must follow the decimal point", l.lexeme())
		return Token{}, false
	}
	return l.finishFloat()
}

// scanExponent handles e[+-]digits; anything else after 'e' is malformed.
func (l *Lexer) scanExponent() (Token, bool) {
	l.advance()
	if l.peek() == '+' || l.peek() == '-' {
		l.advance()
	}
	if !isDigit(l.peek()) {
		l.skipWord()
		l.report(CodeInvalidFloat, "invalid float literal '%s'",
			"the exponent must have a numeric value", l.lexeme())
		return Token{}, false
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	return l.finishFloat()
}

func (l *Lexer) finishFloat() (Token, bool) {
	if strings.ContainsRune("fFlL", l.peek()) {
		l.advance()
	}
	if isLetter(l.peek()) || isDigit(l.peek()) {
		l.skipWord()
		l.report(CodeInvalidFloat, "invalid float literal '%s'",
			"remove the trailing characters after the number", l.lexeme())
		return Token{}, false
	}
	return l.makeToken(TokenFloat), true
}

// scanString scans a double-quoted literal. Strings may not span lines;
// an unterminated string consumes the rest of its line.
func (l *Lexer) scanString() (Token, bool) {
	for !l.isAtEnd() && l.peek() != '\n' {
		ch := l.advance()
		if ch == '"' {
			return l.makeToken(TokenString), true
		}
		if ch == '\\' && !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
	}
	l.report(CodeUnterminatedString, "unterminated string literal",
		"close the string with a double quote (\") before the end of the line")
	return Token{}, false
}

// scanChar scans 'c' or an escape like '\n'.
func (l *Lexer) scanChar() (Token, bool) {
	runes := 0
	for !l.isAtEnd() && l.peek() != '\n' {
		ch := l.advance()
		if ch == '\'' {
			if runes != 1 {
				l.report(CodeMalformedChar, "malformed character literal %s",
					"a character literal holds exactly one character", l.lexeme())
				return Token{}, false
			}
			return l.makeToken(TokenChar), true
		}
		if ch == '\\' && !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
		runes++
	}
	l.report(CodeUnterminatedChar, "unterminated character literal",
		"close the character with a single quote (') before the end of the line")
	return Token{}, false
}

// scanDirective recognises `#name ...` up to the end of the line. A '#'
// that is not followed by a directive name is left to the caller.
func (l *Lexer) scanDirective() (Token, bool) {
	save := l.current
	for l.peek() == ' ' || l.peek() == '\t' {
		l.advance()
	}
	if !isLetter(l.peek()) {
		l.current = save
		return Token{}, false
	}
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
	// trailing blanks belong to trivia
	for l.current > l.start && (l.source[l.current-1] == ' ' || l.source[l.current-1] == '\t' || l.source[l.current-1] == '\r') {
		l.current--
	}
	return l.makeToken(TokenPreprocessor), true
}

// skipTrivia consumes whitespace and comments, recording them as one
// trivia segment.
func (l *Lexer) skipTrivia() {
	l.mark()
	for !l.isAtEnd() {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			l.advance()
		case ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekNext() == '*':
			if !l.skipBlockComment() {
				return
			}
		default:
			l.segment(SegmentTrivia)
			return
		}
	}
	l.segment(SegmentTrivia)
}

// skipBlockComment consumes a /* */ comment. An unterminated comment is
// reported as an error segment covering the rest of the input.
func (l *Lexer) skipBlockComment() bool {
	l.segment(SegmentTrivia)
	l.mark()
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return true
		}
		l.advance()
	}
	l.report(CodeUnterminatedBlock, "unterminated comment", "close the comment with */")
	l.segment(SegmentError)
	return false
}

// skipWord consumes the remaining identifier characters of a malformed literal.
func (l *Lexer) skipWord() {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	if ch == '\n' {
		l.line++
		l.lineStart = l.current
	}
	return ch
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return ch
}

func (l *Lexer) peekNext() rune {
	if l.isAtEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.current:])
	if l.current+size >= len(l.source) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current+size:])
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.peek() != expected || l.isAtEnd() {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// mark starts a new token or segment at the current offset.
func (l *Lexer) mark() {
	l.start = l.current
	l.startLine = l.line
	l.startLineStart = l.lineStart
}

// segment records source[start:current] as one segment, if non-empty.
func (l *Lexer) segment(class SegmentClass) {
	if l.current > l.start {
		l.segments = append(l.segments, Segment{Offset: l.start, Length: l.current - l.start, Class: class})
	}
	l.mark()
}

func (l *Lexer) lexeme() string {
	return l.source[l.start:l.current]
}

func (l *Lexer) makeToken(tokenType TokenType) Token {
	return Token{
		Type:     tokenType,
		Lexeme:   l.lexeme(),
		Position: l.currentPosition(),
		Length:   l.current - l.start,
	}
}

func (l *Lexer) currentPosition() Position {
	return Position{
		Filename: l.filename,
		Line:     l.startLine,
		Column:   utf8.RuneCountInString(l.source[l.startLineStart:l.start]) + 1,
		Offset:   l.start,
	}
}

func (l *Lexer) report(code, format, suggestion string, args ...any) {
	pos := l.currentPosition()
	d := diag.Errorf(diag.KindLexical, pos.Line, pos.Column, format, args...)
	l.diags = append(l.diags, d.WithCode(code).WithSuggestion(suggestion).WithExcerpt(l.src))
}

func (l *Lexer) warn(code, format, suggestion string, args ...any) {
	pos := l.currentPosition()
	d := diag.Warnf(diag.KindLexical, pos.Line, pos.Column, format, args...)
	l.diags = append(l.diags, d.WithCode(code).WithSuggestion(suggestion).WithExcerpt(l.src))
}

// isLetter accepts ASCII letters and '_'. Other letters are illegal in C
// identifiers and are reported as illegal characters.
func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
