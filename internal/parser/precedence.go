package parser

import (
	"github.com/hassan/ccompiler/internal/lexer"
)

// Precedence represents operator binding strength; higher binds tighter.
//
// The ladder follows C: comma, assignment, conditional, ||, &&, |, ^, &,
// equality, relational, shift, additive, multiplicative, unary/cast and
// finally postfix (call, index, member, ++/--).
type Precedence int

const (
	PrecNone        Precedence = iota
	PrecComma                  // ,
	PrecAssignment             // = += -= *= /= %= &= |= ^= <<= >>=
	PrecConditional            // ?:
	PrecOr                     // ||
	PrecAnd                    // &&
	PrecBitOr                  // |
	PrecBitXor                 // ^
	PrecBitAnd                 // &
	PrecEquality               // == !=
	PrecComparison             // < <= > >=
	PrecShift                  // << >>
	PrecTerm                   // + -
	PrecFactor                 // * / %
	PrecUnary                  // ! - + ~ * & ++ -- sizeof (cast)
	PrecPostfix                // () [] . -> postfix ++ --
)

// getPrecedence returns the precedence of tokenType used as an infix or
// postfix operator, or PrecNone if it cannot continue an expression.
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	case lexer.TokenComma:
		return PrecComma

	case lexer.TokenEquals,
		lexer.TokenPlusEqual,
		lexer.TokenMinusEqual,
		lexer.TokenTimesEqual,
		lexer.TokenDivEqual,
		lexer.TokenModEqual,
		lexer.TokenAndEqual,
		lexer.TokenOrEqual,
		lexer.TokenXorEqual,
		lexer.TokenLShiftEqual,
		lexer.TokenRShiftEqual:
		return PrecAssignment

	case lexer.TokenQuestion:
		return PrecConditional

	case lexer.TokenLOr:
		return PrecOr

	case lexer.TokenLAnd:
		return PrecAnd

	case lexer.TokenOr:
		return PrecBitOr

	case lexer.TokenXor:
		return PrecBitXor

	case lexer.TokenAnd:
		return PrecBitAnd

	case lexer.TokenEQ, lexer.TokenNE:
		return PrecEquality

	case lexer.TokenLT, lexer.TokenLE, lexer.TokenGT, lexer.TokenGE:
		return PrecComparison

	case lexer.TokenLShift, lexer.TokenRShift:
		return PrecShift

	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm

	case lexer.TokenTimes, lexer.TokenDivide, lexer.TokenModulo:
		return PrecFactor

	case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenPeriod,
		lexer.TokenArrow, lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		return PrecPostfix

	default:
		return PrecNone
	}
}

// isRightAssociative reports whether operators at tokenType's level group
// right to left (a = b = c, a ? b : c ? d : e).
func isRightAssociative(tokenType lexer.TokenType) bool {
	p := getPrecedence(tokenType)
	return p == PrecAssignment || p == PrecConditional
}
