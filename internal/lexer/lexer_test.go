package lexer

import (
	"strings"
	"testing"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, 0, len(tokens))
	for _, t := range tokens {
		if t.Type != TokenEOF {
			out = append(out, t.Type)
		}
	}
	return out
}

func equalTypes(a, b []TokenType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLexer_Keywords(t *testing.T) {
	source := "int char float double void if else while for do return switch case default break continue"
	tokens, diags := Tokenize(source)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}

	want := []TokenType{
		TokenInt, TokenCharKw, TokenFloatKw, TokenDouble, TokenVoid,
		TokenIf, TokenElse, TokenWhile, TokenFor, TokenDo, TokenReturn,
		TokenSwitch, TokenCase, TokenDefault, TokenBreak, TokenContinue,
	}
	if got := types(tokens); !equalTypes(got, want) {
		t.Errorf("types = %v, want %v", got, want)
	}
	if tokens[len(tokens)-1].Type != TokenEOF {
		t.Errorf("last token = %v, want EOF", tokens[len(tokens)-1].Type)
	}
}

func TestLexer_Identifiers(t *testing.T) {
	tokens, diags := Tokenize("foo bar _temp myVar123 true NULL")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}
	want := []string{"foo", "bar", "_temp", "myVar123", "true", "NULL"}
	for i, name := range want {
		if tokens[i].Type != TokenID {
			t.Errorf("token %d: type = %v, want ID", i, tokens[i].Type)
		}
		if tokens[i].Lexeme != name {
			t.Errorf("token %d: lexeme = %q, want %q", i, tokens[i].Lexeme, name)
		}
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		source string
		want   TokenType
	}{
		{"42", TokenInteger},
		{"0", TokenInteger},
		{"0x1F", TokenInteger},
		{"017", TokenInteger},
		{"10UL", TokenInteger},
		{"3.14", TokenFloat},
		{".5", TokenFloat},
		{"3.", TokenFloat},
		{"1e10", TokenFloat},
		{"2.5e-3", TokenFloat},
		{"2.0f", TokenFloat},
		{"09.5", TokenFloat},
		{"08e1", TokenFloat},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens, diags := Tokenize(tt.source)
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags.Messages())
			}
			if tokens[0].Type != tt.want {
				t.Errorf("type = %v, want %v", tokens[0].Type, tt.want)
			}
			if tokens[0].Lexeme != tt.source {
				t.Errorf("lexeme = %q, want %q", tokens[0].Lexeme, tt.source)
			}
		})
	}
}

func TestLexer_MalformedLiterals(t *testing.T) {
	tests := []struct {
		source   string
		code     string
		offender string
	}{
		{"int 2x = 5;", CodeInvalidIdentifier, "2x"},
		{"x = 2else;", CodeInvalidIdentifier, "2else"},
		{"x = 0xZZ;", CodeInvalidHex, "0xZZ"},
		{"x = 08;", CodeInvalidOctal, "08"},
		{"x = 0719u;", CodeInvalidOctal, "0719u"},
		{"x = 3.x;", CodeInvalidFloat, "3.x"},
		{"x = 2e;", CodeInvalidFloat, "2e"},
		{"x = @;", CodeIllegalCharacter, "@"},
		{"char c = 'ab';", CodeMalformedChar, "'ab'"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, diags := Tokenize(tt.source)
			if len(diags) != 1 {
				t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags.Messages())
			}
			d := diags[0]
			if d.Code != tt.code {
				t.Errorf("Code = %q, want %q", d.Code, tt.code)
			}
			if !d.IsError() {
				t.Error("diagnostic should be an error")
			}
			if !strings.Contains(d.Message, tt.offender) {
				t.Errorf("Message = %q, want it to mention %q", d.Message, tt.offender)
			}
			if want := strings.Index(tt.source, tt.offender) + 1; d.Position != want {
				t.Errorf("Position = %d, want %d", d.Position, want)
			}
			if d.Suggestion == "" {
				t.Error("Suggestion is empty")
			}
		})
	}
}

func TestLexer_InvalidIdentifierRecovery(t *testing.T) {
	tokens, diags := Tokenize("int 2x = 5;")
	want := []TokenType{TokenInt, TokenEquals, TokenInteger, TokenSemi}
	if got := types(tokens); !equalTypes(got, want) {
		t.Errorf("types = %v, want %v", got, want)
	}
	if diags[0].Suggestion != "identifiers must start with a letter or underscore, not digits" {
		t.Errorf("Suggestion = %q", diags[0].Suggestion)
	}
}

func TestLexer_Strings(t *testing.T) {
	tokens, diags := Tokenize(`"hello" "a\"b" 'x' '\n'`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}
	want := []struct {
		tt     TokenType
		lexeme string
	}{
		{TokenString, `"hello"`},
		{TokenString, `"a\"b"`},
		{TokenChar, `'x'`},
		{TokenChar, `'\n'`},
	}
	for i, w := range want {
		if tokens[i].Type != w.tt || tokens[i].Lexeme != w.lexeme {
			t.Errorf("token %d = %v %q, want %v %q", i, tokens[i].Type, tokens[i].Lexeme, w.tt, w.lexeme)
		}
	}
}

func TestLexer_UnterminatedLiteralStopsAtLineEnd(t *testing.T) {
	tests := []struct {
		source string
		code   string
	}{
		{"s = \"abc;\nint y;", CodeUnterminatedString},
		{"c = 'a;\nint y;", CodeUnterminatedChar},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			tokens, diags := Tokenize(tt.source)
			if len(diags) != 1 || diags[0].Code != tt.code {
				t.Fatalf("diagnostics = %v, want one %s", diags.Messages(), tt.code)
			}
			if diags[0].Line != 1 {
				t.Errorf("Line = %d, want 1", diags[0].Line)
			}
			want := []TokenType{TokenID, TokenEquals, TokenInt, TokenID, TokenSemi}
			if got := types(tokens); !equalTypes(got, want) {
				t.Errorf("types = %v, want %v", got, want)
			}
			if tokens[2].Line() != 2 {
				t.Errorf("int on line %d, want 2", tokens[2].Line())
			}
		})
	}
}

func TestLexer_Operators(t *testing.T) {
	tests := []struct {
		source string
		want   TokenType
	}{
		{"+", TokenPlus}, {"-", TokenMinus}, {"*", TokenTimes}, {"/", TokenDivide}, {"%", TokenModulo},
		{"|", TokenOr}, {"&", TokenAnd}, {"~", TokenNot}, {"^", TokenXor},
		{"<<", TokenLShift}, {">>", TokenRShift},
		{"||", TokenLOr}, {"&&", TokenLAnd}, {"!", TokenLNot},
		{"<", TokenLT}, {"<=", TokenLE}, {">", TokenGT}, {">=", TokenGE}, {"==", TokenEQ}, {"!=", TokenNE},
		{"=", TokenEquals}, {"+=", TokenPlusEqual}, {"-=", TokenMinusEqual}, {"*=", TokenTimesEqual},
		{"/=", TokenDivEqual}, {"%=", TokenModEqual}, {"&=", TokenAndEqual}, {"|=", TokenOrEqual},
		{"^=", TokenXorEqual}, {"<<=", TokenLShiftEqual}, {">>=", TokenRShiftEqual},
		{"++", TokenPlusPlus}, {"--", TokenMinusMinus}, {"->", TokenArrow}, {"?", TokenQuestion},
		{"...", TokenEllipsis}, {".", TokenPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens, diags := Tokenize(tt.source)
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags.Messages())
			}
			if len(tokens) != 2 {
				t.Fatalf("got %d tokens, want 1 plus EOF", len(tokens))
			}
			if tokens[0].Type != tt.want {
				t.Errorf("type = %v, want %v", tokens[0].Type, tt.want)
			}
		})
	}
}

func TestLexer_CommentsAreStripped(t *testing.T) {
	source := "int a; // trailing\n/* block\n spans */ int b;"
	tokens, diags := Tokenize(source)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}
	want := []TokenType{TokenInt, TokenID, TokenSemi, TokenInt, TokenID, TokenSemi}
	if got := types(tokens); !equalTypes(got, want) {
		t.Errorf("types = %v, want %v", got, want)
	}
	if tokens[3].Line() != 3 {
		t.Errorf("second int on line %d, want 3", tokens[3].Line())
	}
}

func TestLexer_UnterminatedComment(t *testing.T) {
	_, diags := Tokenize("int a; /* never closed")
	if len(diags) != 1 || diags[0].Code != CodeUnterminatedBlock {
		t.Errorf("diagnostics = %v, want one unterminated comment", diags.Messages())
	}
}

func TestLexer_Preprocessor(t *testing.T) {
	tokens, diags := Tokenize("#include <stdio.h>\n#define N 10  \nint x;")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}
	if tokens[0].Type != TokenPreprocessor || tokens[0].Lexeme != "#include <stdio.h>" {
		t.Errorf("token 0 = %v %q", tokens[0].Type, tokens[0].Lexeme)
	}
	if tokens[1].Type != TokenPreprocessor || tokens[1].Lexeme != "#define N 10" {
		t.Errorf("token 1 = %v %q", tokens[1].Type, tokens[1].Lexeme)
	}
	if tokens[2].Type != TokenInt || tokens[2].Line() != 3 {
		t.Errorf("token 2 = %v on line %d", tokens[2].Type, tokens[2].Line())
	}

	_, diags = Tokenize("x = # 3;")
	if len(diags) != 1 || diags[0].Code != CodeIllegalCharacter {
		t.Errorf("stray '#' diagnostics = %v", diags.Messages())
	}
}

func TestLexer_MisspelledKeywordWarning(t *testing.T) {
	tokens, diags := Tokenize("whiel (x) { retrn 1; }")
	if diags.HasErrors() {
		t.Fatalf("misspellings must only warn: %v", diags.Messages())
	}
	if len(diags) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(diags), diags.Messages())
	}
	if !strings.Contains(diags[0].Suggestion, "'while'") {
		t.Errorf("Suggestion = %q, want 'while'", diags[0].Suggestion)
	}
	if !strings.Contains(diags[1].Suggestion, "'return'") {
		t.Errorf("Suggestion = %q, want 'return'", diags[1].Suggestion)
	}
	if tokens[0].Type != TokenID {
		t.Errorf("misspelled word type = %v, want ID", tokens[0].Type)
	}
}

func TestLexer_IllegalCharacterHints(t *testing.T) {
	tests := []struct {
		source string
		hint   string
	}{
		{"a @ b", "use '*' for multiplication"},
		{"$x", "identifiers must start with a letter or '_'"},
		{"café", "accented characters"},
		{"中", "outside standard ASCII"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, diags := Tokenize(tt.source)
			errs := diags.Errors()
			if len(errs) == 0 {
				t.Fatal("expected an illegal character error")
			}
			if !strings.Contains(errs[0].Suggestion, tt.hint) {
				t.Errorf("Suggestion = %q, want %q", errs[0].Suggestion, tt.hint)
			}
		})
	}
}

func TestLexer_SegmentsCoverInput(t *testing.T) {
	inputs := []string{
		"int main() { return 0; }",
		"int 2x = 5; @ $ \"open\nchar c = 'q';",
		"  /* c */ a /* unterminated",
		"#include <stdio.h>\n\tx += 0x1F; // tail",
		"café = 1.5e;",
		"",
	}
	for _, src := range inputs {
		l := New(src, "t.c")
		l.Tokenize()
		next := 0
		for i, s := range l.Segments() {
			if s.Offset != next {
				t.Errorf("%q: segment %d starts at %d, want %d", src, i, s.Offset, next)
			}
			if s.Length <= 0 {
				t.Errorf("%q: segment %d is empty", src, i)
			}
			next = s.Offset + s.Length
		}
		if next != len(src) {
			t.Errorf("%q: segments end at %d, want %d", src, next, len(src))
		}
	}
}

func TestLexer_PositionTracking(t *testing.T) {
	tokens, _ := Tokenize("int a;\n  a = 1;")
	tests := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 1},
		{1, 1, 5},
		{3, 2, 3},
		{4, 2, 5},
	}
	for _, tt := range tests {
		tok := tokens[tt.index]
		if tok.Line() != tt.line || tok.Column() != tt.column {
			t.Errorf("token %d (%s): at %d:%d, want %d:%d",
				tt.index, tok.Lexeme, tok.Line(), tok.Column(), tt.line, tt.column)
		}
	}
}
