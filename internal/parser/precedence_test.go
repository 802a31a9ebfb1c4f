package parser

import (
	"testing"

	"github.com/hassan/ccompiler/internal/lexer"
)

func TestGetPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		token    lexer.TokenType
		expected Precedence
	}{
		{"comma", lexer.TokenComma, PrecComma},

		{"assign", lexer.TokenEquals, PrecAssignment},
		{"plus equals", lexer.TokenPlusEqual, PrecAssignment},
		{"shift equals", lexer.TokenRShiftEqual, PrecAssignment},

		{"conditional", lexer.TokenQuestion, PrecConditional},

		{"logical or", lexer.TokenLOr, PrecOr},
		{"logical and", lexer.TokenLAnd, PrecAnd},

		{"bit or", lexer.TokenOr, PrecBitOr},
		{"bit xor", lexer.TokenXor, PrecBitXor},
		{"bit and", lexer.TokenAnd, PrecBitAnd},

		{"equal", lexer.TokenEQ, PrecEquality},
		{"not equal", lexer.TokenNE, PrecEquality},

		{"less than", lexer.TokenLT, PrecComparison},
		{"greater equal", lexer.TokenGE, PrecComparison},

		{"shift left", lexer.TokenLShift, PrecShift},
		{"shift right", lexer.TokenRShift, PrecShift},

		{"plus", lexer.TokenPlus, PrecTerm},
		{"minus", lexer.TokenMinus, PrecTerm},

		{"times", lexer.TokenTimes, PrecFactor},
		{"divide", lexer.TokenDivide, PrecFactor},
		{"modulo", lexer.TokenModulo, PrecFactor},

		{"call", lexer.TokenLParen, PrecPostfix},
		{"index", lexer.TokenLBracket, PrecPostfix},
		{"member", lexer.TokenPeriod, PrecPostfix},
		{"arrow", lexer.TokenArrow, PrecPostfix},
		{"increment", lexer.TokenPlusPlus, PrecPostfix},

		{"identifier", lexer.TokenID, PrecNone},
		{"integer", lexer.TokenInteger, PrecNone},
		{"semicolon", lexer.TokenSemi, PrecNone},
		{"logical not", lexer.TokenLNot, PrecNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getPrecedence(tt.token)
			if result != tt.expected {
				t.Errorf("getPrecedence(%v) = %v, want %v", tt.token, result, tt.expected)
			}
		})
	}
}

func TestIsRightAssociative(t *testing.T) {
	tests := []struct {
		name     string
		token    lexer.TokenType
		expected bool
	}{
		{"assign", lexer.TokenEquals, true},
		{"plus equals", lexer.TokenPlusEqual, true},
		{"conditional", lexer.TokenQuestion, true},

		{"plus", lexer.TokenPlus, false},
		{"minus", lexer.TokenMinus, false},
		{"times", lexer.TokenTimes, false},
		{"equal", lexer.TokenEQ, false},
		{"logical and", lexer.TokenLAnd, false},
		{"comma", lexer.TokenComma, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRightAssociative(tt.token)
			if result != tt.expected {
				t.Errorf("isRightAssociative(%v) = %v, want %v", tt.token, result, tt.expected)
			}
		})
	}
}

func TestPrecedenceOrdering(t *testing.T) {
	ladder := []struct {
		name string
		prec Precedence
	}{
		{"Comma", PrecComma},
		{"Assignment", PrecAssignment},
		{"Conditional", PrecConditional},
		{"Or", PrecOr},
		{"And", PrecAnd},
		{"BitOr", PrecBitOr},
		{"BitXor", PrecBitXor},
		{"BitAnd", PrecBitAnd},
		{"Equality", PrecEquality},
		{"Comparison", PrecComparison},
		{"Shift", PrecShift},
		{"Term", PrecTerm},
		{"Factor", PrecFactor},
		{"Unary", PrecUnary},
		{"Postfix", PrecPostfix},
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i-1].prec >= ladder[i].prec {
			t.Errorf("%s should have lower precedence than %s", ladder[i-1].name, ladder[i].name)
		}
	}
}
