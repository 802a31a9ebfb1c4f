package semantic

import (
	"strings"
	"testing"

	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/parser"
	"github.com/hassan/ccompiler/internal/semantic/types"
	"github.com/hassan/ccompiler/internal/symtab"
)

func program(t *testing.T, source string) *GraphProgram {
	t.Helper()
	tokens, diags := lexer.Tokenize(source)
	if diags.HasErrors() {
		t.Fatalf("unexpected lexical errors: %v", diags.Messages())
	}
	res := parser.ParseProgram(tokens, source)
	return &GraphProgram{Graph: res.Graph, Elements: res.Elements, Tokens: tokens}
}

func TestAnalyzeGraph_Symbols(t *testing.T) {
	src := "int a = 5;\nfloat b = a + 1;\n"
	res := New(src).AnalyzeGraph(program(t, src))

	syms := res.Symbols()
	if len(syms) != 2 {
		t.Fatalf("symbols = %d, want 2", len(syms))
	}
	tests := []struct {
		name  string
		typ   types.Type
		line  int
		used  bool
		scope string
	}{
		{"a", types.Int, 1, true, "global"},
		{"b", types.Float, 2, false, "global"},
	}
	for i, tt := range tests {
		s := syms[i]
		if s.Name != tt.name {
			t.Errorf("syms[%d].Name = %q, want %q", i, s.Name, tt.name)
		}
		if s.Type != tt.typ {
			t.Errorf("%s.Type = %v, want %v", tt.name, s.Type, tt.typ)
		}
		if s.Line() != tt.line {
			t.Errorf("%s.Line() = %d, want %d", tt.name, s.Line(), tt.line)
		}
		if s.Used != tt.used {
			t.Errorf("%s.Used = %v, want %v", tt.name, s.Used, tt.used)
		}
		if s.ScopeName() != tt.scope {
			t.Errorf("%s scope = %q, want %q", tt.name, s.ScopeName(), tt.scope)
		}
	}
	if len(withCode(res.Diags, CodeUnused)) != 1 {
		t.Errorf("Expected 'b' to be reported unused: %v", res.Diags.Messages())
	}
}

func TestAnalyzeGraph_Undeclared(t *testing.T) {
	src := "int total = 1;\nint x = totl + 1;\n"
	res := New(src).AnalyzeGraph(program(t, src))

	errs := withCode(res.Diags, CodeUndeclared)
	if len(errs) != 1 {
		t.Fatalf("undeclared errors = %d, want 1: %v", len(errs), res.Diags.Messages())
	}
	if errs[0].Line != 2 {
		t.Errorf("Line = %d, want 2", errs[0].Line)
	}
	if !strings.Contains(errs[0].Suggestion, "'total'") {
		t.Errorf("Suggestion = %q, want a hint naming 'total'", errs[0].Suggestion)
	}
}

func TestAnalyzeGraph_UseBeforeDeclaration(t *testing.T) {
	src := "int x = y + 1;\nint y = 2;\n"
	res := New(src).AnalyzeGraph(program(t, src))

	if len(withCode(res.Diags, CodeUndeclared)) != 1 {
		t.Errorf("Expected 'y' to be undeclared where it is read: %v", res.Diags.Messages())
	}
}

func TestAnalyzeGraph_Duplicate(t *testing.T) {
	src := "int x = 1;\nint x = 2;\n"
	res := New(src).AnalyzeGraph(program(t, src))

	errs := withCode(res.Diags, CodeRedeclared)
	if len(errs) != 1 {
		t.Fatalf("redeclaration errors = %d, want 1: %v", len(errs), res.Diags.Messages())
	}
	if !strings.Contains(errs[0].Message, "global") {
		t.Errorf("Message = %q, want it to name the global scope", errs[0].Message)
	}
}

func TestAnalyzeGraph_MethodScopes(t *testing.T) {
	src := `int f(int n) {
    int x = n + 1;
    return x;
}
int g() {
    int x = 2;
    return x;
}`
	res := New(src).AnalyzeGraph(program(t, src))

	if errs := res.Diags.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs.Messages())
	}

	scopes := map[string]int{}
	for _, s := range res.Symbols() {
		if s.Name == "x" {
			scopes[s.ScopeName()]++
		}
		if s.Name == "f" {
			if s.Kind != symtab.SymbolFunction {
				t.Errorf("f.Kind = %v, want function", s.Kind)
			}
			if len(s.Params) != 1 || s.Params[0].Name != "n" || s.Params[0].Type != types.Int {
				t.Errorf("f.Params = %v, want [int n]", s.Params)
			}
		}
	}
	if scopes["function:f"] != 1 || scopes["function:g"] != 1 {
		t.Errorf("x declared in scopes %v, want one each in function:f and function:g", scopes)
	}
}

func TestAnalyzeGraph_Class(t *testing.T) {
	src := `class Point {
    int x;
    int y;
};`
	res := New(src).AnalyzeGraph(program(t, src))

	var class *symtab.Symbol
	for _, s := range res.Symbols() {
		if s.Kind == symtab.SymbolClass {
			class = s
		}
	}
	if class == nil {
		t.Fatal("Expected a class symbol")
	}
	if len(class.Attributes) != 2 {
		t.Fatalf("attributes = %d, want 2", len(class.Attributes))
	}
	if a := class.LookupAttribute("y"); a == nil || a.ScopeName() != "class:Point" {
		t.Errorf("Expected attribute y in scope class:Point, got %v", a)
	}
}

func TestAnalyzeGraph_Nil(t *testing.T) {
	res := New("").AnalyzeGraph(nil)
	if res.Table != nil || !res.Diags.HasErrors() {
		t.Error("Expected an error and no table for a missing graph")
	}
}

func TestTypeCheckGraph(t *testing.T) {
	tests := []struct {
		name   string
		source string
		errors int
		warns  int
	}{
		{"compatible", "int a = 1;\nint b = a + 2;\n", 0, 0},
		{"string into int", "int a = \"hello\";\n", 1, 0},
		{"assignment", "char* s = \"x\";\nint n = 1;\nn = s;\n", 1, 0},
		{"bad operands", "char* s = \"x\";\nint n = 2;\nint m = s * n;\n", 1, 0},
		{"narrowing", "float f = 2.5;\nint n = f;\n", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program(t, tt.source)
			a := New(tt.source)
			res := a.AnalyzeGraph(p)
			diags := a.TypeCheckGraph(p, res)

			if got := len(diags.Errors()); got != tt.errors {
				t.Errorf("errors = %d, want %d: %v", got, tt.errors, diags.Messages())
			}
			if got := len(diags.Warnings()); got != tt.warns {
				t.Errorf("warnings = %d, want %d: %v", got, tt.warns, diags.Messages())
			}
		})
	}
}

func TestVerifyGraph(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"division by zero", "int x = 10 / 0;\n", CodeDivisionByZero},
		{"overflow", "int x = 5000 * 5000;\n", CodeOverflow},
		{"self assignment", "int x = 1;\nx = x;\n", CodeSelfAssignment},
		{"infinite loop", "int x = 0;\nwhile (1) { x++; }\n", CodeConstantCond},
		{"assignment in condition", "int x = 0;\nif (x = 1) { x++; }\n", CodeAssignmentInCond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.source).RunGraph(program(t, tt.source))
			if len(withCode(res.Diags, tt.code)) != 1 {
				t.Errorf("Expected one %s diagnostic, got %v", tt.code, res.Diags.Messages())
			}
		})
	}
}
