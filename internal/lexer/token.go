package lexer

import "strings"

// TokenType represents the kind of a token.
//
// Kinds are an int enum so the parser can switch on them directly. String()
// returns the upper-case names used in token listings (INT, ID, EQUALS, ...).
type TokenType int

const (
	// Special tokens

	// TokenEOF marks the end of the input.
	TokenEOF TokenType = iota

	// TokenPreprocessor is a directive stub such as `#include <stdio.h>`.
	// Directives are recognised but never expanded.
	TokenPreprocessor

	// Literals and names

	TokenID
	TokenInteger // 42, 0x1F, 017, 10UL
	TokenFloat   // 3.14, .5, 1e-3, 2.0f
	TokenChar    // 'a', '\n'
	TokenString  // "hello"

	// Operators - arithmetic
	TokenPlus   // +
	TokenMinus  // -
	TokenTimes  // *
	TokenDivide // /
	TokenModulo // %

	// Operators - bitwise
	TokenOr     // |
	TokenAnd    // &
	TokenNot    // ~
	TokenXor    // ^
	TokenLShift // <<
	TokenRShift // >>

	// Operators - logical
	TokenLOr  // ||
	TokenLAnd // &&
	TokenLNot // !

	// Operators - comparison
	TokenLT // <
	TokenLE // <=
	TokenGT // >
	TokenGE // >=
	TokenEQ // ==
	TokenNE // !=

	// Operators - assignment
	TokenEquals      // =
	TokenPlusEqual   // +=
	TokenMinusEqual  // -=
	TokenTimesEqual  // *=
	TokenDivEqual    // /=
	TokenModEqual    // %=
	TokenAndEqual    // &=
	TokenOrEqual     // |=
	TokenXorEqual    // ^=
	TokenLShiftEqual // <<=
	TokenRShiftEqual // >>=

	TokenPlusPlus   // ++
	TokenMinusMinus // --
	TokenArrow      // ->
	TokenQuestion   // ?

	// Delimiters
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
	TokenLBrace   // {
	TokenRBrace   // }
	TokenComma    // ,
	TokenPeriod   // .
	TokenSemi     // ;
	TokenColon    // :
	TokenEllipsis // ...

	// Keywords - C
	TokenAuto
	TokenBreak
	TokenCase
	TokenCharKw
	TokenConst
	TokenContinue
	TokenDefault
	TokenDo
	TokenDouble
	TokenElse
	TokenEnum
	TokenExtern
	TokenFloatKw
	TokenFor
	TokenGoto
	TokenIf
	TokenInt
	TokenLong
	TokenRegister
	TokenReturn
	TokenShort
	TokenSigned
	TokenSizeof
	TokenStatic
	TokenStruct
	TokenSwitch
	TokenTypedef
	TokenUnion
	TokenUnsigned
	TokenVoid
	TokenVolatile
	TokenWhile
	TokenBool

	// Keywords - well-known library functions
	TokenPrintf
	TokenScanf
	TokenMalloc
	TokenFree
	TokenCalloc
	TokenRealloc
	TokenFopen
	TokenFclose
	TokenFprintf
	TokenFscanf
	TokenFread
	TokenFwrite
	TokenGets
	TokenPuts
	TokenGetchar
	TokenPutchar
	TokenStrlen
	TokenStrcpy
	TokenStrcat
	TokenStrcmp
	TokenMemcpy
	TokenMemset
	TokenExit
	TokenPrint

	// Keywords - C++
	TokenClass
	TokenNew
	TokenDelete
	TokenThis
	TokenNamespace
	TokenUsing
	TokenTry
	TokenCatch
	TokenThrow
	TokenPublic
	TokenPrivate
	TokenProtected
	TokenTemplate
	TokenVirtual
	TokenCout
	TokenCin
	TokenEndl

	tokenTypeCount
)

var tokenNames = [...]string{
	TokenEOF:          "EOF",
	TokenPreprocessor: "PREPROCESSOR",
	TokenID:           "ID",
	TokenInteger:      "INTEGER",
	TokenFloat:        "FLOAT_NUM",
	TokenChar:         "CHAR_CONST",
	TokenString:       "STRING_LITERAL",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenTimes:        "TIMES",
	TokenDivide:       "DIVIDE",
	TokenModulo:       "MODULO",
	TokenOr:           "OR",
	TokenAnd:          "AND",
	TokenNot:          "NOT",
	TokenXor:          "XOR",
	TokenLShift:       "LSHIFT",
	TokenRShift:       "RSHIFT",
	TokenLOr:          "LOR",
	TokenLAnd:         "LAND",
	TokenLNot:         "LNOT",
	TokenLT:           "LT",
	TokenLE:           "LE",
	TokenGT:           "GT",
	TokenGE:           "GE",
	TokenEQ:           "EQ",
	TokenNE:           "NE",
	TokenEquals:       "EQUALS",
	TokenPlusEqual:    "PLUSEQUAL",
	TokenMinusEqual:   "MINUSEQUAL",
	TokenTimesEqual:   "TIMESEQUAL",
	TokenDivEqual:     "DIVEQUAL",
	TokenModEqual:     "MODEQUAL",
	TokenAndEqual:     "ANDEQUAL",
	TokenOrEqual:      "OREQUAL",
	TokenXorEqual:     "XOREQUAL",
	TokenLShiftEqual:  "LSHIFTEQUAL",
	TokenRShiftEqual:  "RSHIFTEQUAL",
	TokenPlusPlus:     "PLUSPLUS",
	TokenMinusMinus:   "MINUSMINUS",
	TokenArrow:        "ARROW",
	TokenQuestion:     "CONDOP",
	TokenLParen:       "LPAREN",
	TokenRParen:       "RPAREN",
	TokenLBracket:     "LBRACKET",
	TokenRBracket:     "RBRACKET",
	TokenLBrace:       "LBRACE",
	TokenRBrace:       "RBRACE",
	TokenComma:        "COMMA",
	TokenPeriod:       "PERIOD",
	TokenSemi:         "SEMI",
	TokenColon:        "COLON",
	TokenEllipsis:     "ELLIPSIS",
}

// keywords maps reserved words to their token types. The table is never
// modified after initialisation.
var keywords = map[string]TokenType{
	"auto":     TokenAuto,
	"break":    TokenBreak,
	"case":     TokenCase,
	"char":     TokenCharKw,
	"const":    TokenConst,
	"continue": TokenContinue,
	"default":  TokenDefault,
	"do":       TokenDo,
	"double":   TokenDouble,
	"else":     TokenElse,
	"enum":     TokenEnum,
	"extern":   TokenExtern,
	"float":    TokenFloatKw,
	"for":      TokenFor,
	"goto":     TokenGoto,
	"if":       TokenIf,
	"int":      TokenInt,
	"long":     TokenLong,
	"register": TokenRegister,
	"return":   TokenReturn,
	"short":    TokenShort,
	"signed":   TokenSigned,
	"sizeof":   TokenSizeof,
	"static":   TokenStatic,
	"struct":   TokenStruct,
	"switch":   TokenSwitch,
	"typedef":  TokenTypedef,
	"union":    TokenUnion,
	"unsigned": TokenUnsigned,
	"void":     TokenVoid,
	"volatile": TokenVolatile,
	"while":    TokenWhile,
	"bool":     TokenBool,

	"printf":  TokenPrintf,
	"scanf":   TokenScanf,
	"malloc":  TokenMalloc,
	"free":    TokenFree,
	"calloc":  TokenCalloc,
	"realloc": TokenRealloc,
	"fopen":   TokenFopen,
	"fclose":  TokenFclose,
	"fprintf": TokenFprintf,
	"fscanf":  TokenFscanf,
	"fread":   TokenFread,
	"fwrite":  TokenFwrite,
	"gets":    TokenGets,
	"puts":    TokenPuts,
	"getchar": TokenGetchar,
	"putchar": TokenPutchar,
	"strlen":  TokenStrlen,
	"strcpy":  TokenStrcpy,
	"strcat":  TokenStrcat,
	"strcmp":  TokenStrcmp,
	"memcpy":  TokenMemcpy,
	"memset":  TokenMemset,
	"exit":    TokenExit,
	"print":   TokenPrint,

	"class":     TokenClass,
	"new":       TokenNew,
	"delete":    TokenDelete,
	"this":      TokenThis,
	"namespace": TokenNamespace,
	"using":     TokenUsing,
	"try":       TokenTry,
	"catch":     TokenCatch,
	"throw":     TokenThrow,
	"public":    TokenPublic,
	"private":   TokenPrivate,
	"protected": TokenProtected,
	"template":  TokenTemplate,
	"virtual":   TokenVirtual,
	"cout":      TokenCout,
	"cin":       TokenCin,
	"endl":      TokenEndl,
}

// keywordSpelling is the inverse of keywords, filled in init.
var keywordSpelling = make(map[TokenType]string, len(keywords))

func init() {
	for word, tt := range keywords {
		keywordSpelling[tt] = word
	}
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType

	// Lexeme is the exact source text of the token.
	Lexeme string

	// Position is where the token starts.
	Position Position

	// Length is the token length in bytes.
	Length int
}

// String returns "TYPE(lexeme) at position", e.g. "ID(foo) at main.c:3:5".
func (t Token) String() string {
	return t.Type.String() + "(" + t.Lexeme + ") at " + t.Position.String()
}

// Span returns the source span covered by this token.
func (t Token) Span() Span {
	return Span{
		Start: t.Position,
		End: Position{
			Filename: t.Position.Filename,
			Line:     t.Position.Line,
			Column:   t.Position.Column + len([]rune(t.Lexeme)),
			Offset:   t.Position.Offset + t.Length,
		},
	}
}

// Line is shorthand for t.Position.Line.
func (t Token) Line() int { return t.Position.Line }

// Column is shorthand for t.Position.Column.
func (t Token) Column() int { return t.Position.Column }

// String returns the listing name of a token type. Keywords render as their
// upper-cased spelling (INT, WHILE, PRINTF).
func (tt TokenType) String() string {
	if word, ok := keywordSpelling[tt]; ok {
		return strings.ToUpper(word)
	}
	if int(tt) >= 0 && int(tt) < len(tokenNames) && tokenNames[tt] != "" {
		return tokenNames[tt]
	}
	return "UNKNOWN"
}

// LookupKeyword returns the keyword token type for identifier, or TokenID.
func LookupKeyword(identifier string) TokenType {
	if tokenType, ok := keywords[identifier]; ok {
		return tokenType
	}
	return TokenID
}

// Keywords returns every reserved word. The order is unspecified.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for w := range keywords {
		out = append(out, w)
	}
	return out
}

// IsKeyword reports whether the token type is a reserved word.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenAuto && tt < tokenTypeCount
}

// IsLibraryFunction reports whether the token names a well-known library
// function (printf, malloc, ...). Such tokens behave like identifiers in calls.
func (tt TokenType) IsLibraryFunction() bool {
	return tt >= TokenPrintf && tt <= TokenPrint
}

// IsTypeSpecifier reports whether the token can start a declaration.
func (tt TokenType) IsTypeSpecifier() bool {
	switch tt {
	case TokenInt, TokenCharKw, TokenFloatKw, TokenDouble, TokenVoid, TokenLong,
		TokenShort, TokenUnsigned, TokenSigned, TokenConst, TokenVolatile,
		TokenBool, TokenStatic, TokenExtern, TokenAuto, TokenRegister:
		return true
	}
	return false
}

// IsLiteral reports whether the token is a literal value. The words true,
// false and NULL lex as identifiers and are recognised by the parser.
func (tt TokenType) IsLiteral() bool {
	return tt >= TokenInteger && tt <= TokenString
}

// IsAssignment reports whether the token is `=` or a compound assignment.
func (tt TokenType) IsAssignment() bool {
	return tt >= TokenEquals && tt <= TokenRShiftEqual
}

// IsBinaryOperator reports whether the token is an arithmetic, bitwise,
// logical or comparison operator taking two operands.
func (tt TokenType) IsBinaryOperator() bool {
	return tt >= TokenPlus && tt <= TokenNE && tt != TokenNot && tt != TokenLNot
}

// IsOperator reports whether the token is any operator.
func (tt TokenType) IsOperator() bool {
	return tt >= TokenPlus && tt <= TokenQuestion
}
