package types

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected Type
	}{
		{"int", Int},
		{"  int  ", Int},
		{"static int", Int},
		{"signed int", Int},
		{"long int", Long},
		{"short int", Short},
		{"unsigned", "unsigned int"},
		{"unsigned int", "unsigned int"},
		{"unsigned long", "unsigned long"},
		{"char *", "char*"},
		{"const char *", "const char*"},
		{"const int", Int},
		{"int**", "int**"},
		{"int[]", "int[]"},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		typ      Type
		expected Category
	}{
		{Int, CatInteger},
		{Char, CatInteger},
		{"unsigned char", CatInteger},
		{Float, CatFloating},
		{Double, CatFloating},
		{Bool, CatBool},
		{String, CatString},
		{"char*", CatString},
		{"const char*", CatString},
		{"int*", CatPointer},
		{"int[]", CatPointer},
		{Pointer, CatPointer},
		{Void, CatVoid},
		{Unknown, CatUnknown},
		{"Shape", CatOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := CategoryOf(tt.typ); got != tt.expected {
				t.Errorf("CategoryOf(%q) = %v, want %v", tt.typ, got, tt.expected)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		left, right Type
		op          string
		ok          bool
		warning     bool
	}{
		// arithmetic
		{"int plus int", Int, Int, "+", true, false},
		{"int times float", Int, Float, "*", true, false},
		{"char plus int", Char, Int, "+", true, false},
		{"string concatenation", String, "char*", "+", true, false},
		{"string minus string", String, String, "-", false, false},
		{"string plus int", String, Int, "+", false, false},
		{"pointer plus int", "int*", Int, "+", true, false},
		{"bool plus int", Bool, Int, "+", false, false},

		// assignment
		{"assign same", Int, Int, "=", true, false},
		{"assign widening", Double, Int, "=", true, false},
		{"assign narrowing", Int, Float, "=", true, true},
		{"assign long to int", Int, Long, "=", true, true},
		{"assign string to int", Int, String, "=", false, false},
		{"assign string to char pointer", "const char*", String, "=", true, false},
		{"assign null to pointer", "int*", Pointer, "=", true, false},
		{"assign int to bool", Bool, Int, "=", true, false},
		{"compound plus strings", String, String, "+=", true, false},
		{"compound minus strings", String, String, "-=", false, false},
		{"compound shift float", Float, Int, "<<=", false, false},

		// comparison
		{"equal numbers", Int, Double, "==", true, false},
		{"equal strings", String, "char*", "!=", true, false},
		{"equal string and int", String, Int, "==", false, false},
		{"pointer equals null", "int*", Pointer, "==", true, false},
		{"order numbers", Int, Float, "<", true, false},
		{"order strings", String, String, "<", true, true},
		{"order string and int", String, Int, ">=", false, false},

		// logical and bitwise
		{"logical ints", Int, Bool, "&&", true, false},
		{"logical pointer", "int*", Int, "||", true, false},
		{"logical class", "Shape", Int, "&&", false, false},
		{"bitwise ints", Int, Char, "&", true, false},
		{"bitwise unsigned", "unsigned int", Int, "^", true, false},
		{"bitwise float", Float, Int, "|", false, false},
		{"shift bool", Bool, Int, "<<", false, false},

		// unresolved operands are never reported twice
		{"unknown left", Unknown, String, "*", true, false},
		{"unknown op", Int, Int, "??", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Check(tt.left, tt.right, tt.op)
			if c.OK != tt.ok {
				t.Errorf("Check(%s, %s, %q).OK = %v, want %v (%s)", tt.left, tt.right, tt.op, c.OK, tt.ok, c.Details)
			}
			if (c.Warning != "") != tt.warning {
				t.Errorf("Check(%s, %s, %q).Warning = %q, want warning %v", tt.left, tt.right, tt.op, c.Warning, tt.warning)
			}
			if !c.OK && c.Details == "" {
				t.Errorf("Check(%s, %s, %q) rejected without details", tt.left, tt.right, tt.op)
			}
		})
	}
}

func TestCheck_Details(t *testing.T) {
	c := Check(String, String, "*")
	if !strings.Contains(c.Details, "strings only support '+'") {
		t.Errorf("Details = %q, want the concatenation hint", c.Details)
	}

	c = Check(String, Int, "<")
	if !strings.Contains(c.Details, "strcmp") {
		t.Errorf("Details = %q, want the strcmp hint", c.Details)
	}

	c = Check(String, String, "-=")
	if !strings.HasPrefix(c.Details, "incompatible types for operator '-='") {
		t.Errorf("Details = %q, want the compound prefix", c.Details)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		left, right Type
		expected    Type
	}{
		{Int, Int, Int},
		{Char, Int, Int},
		{Int, Float, Float},
		{Float, Double, Double},
		{Long, Int, Long},
		{String, String, String},
		{"int*", Int, "int*"},
		{Bool, Bool, Unknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.left)+"_"+string(tt.right), func(t *testing.T) {
			if got := Arithmetic(tt.left, tt.right); got != tt.expected {
				t.Errorf("Arithmetic(%s, %s) = %s, want %s", tt.left, tt.right, got, tt.expected)
			}
		})
	}
}

func TestElemAndPointerTo(t *testing.T) {
	if got := PointerTo(Int); got != "int*" {
		t.Errorf("PointerTo(int) = %s, want int*", got)
	}
	if got := PointerTo(Unknown); got != Unknown {
		t.Errorf("PointerTo(unknown) = %s, want unknown", got)
	}
	tests := []struct {
		typ      Type
		expected Type
	}{
		{"int*", Int},
		{"char**", "char*"},
		{"int[]", Int},
		{String, Char},
		{Int, Unknown},
	}
	for _, tt := range tests {
		if got := Elem(tt.typ); got != tt.expected {
			t.Errorf("Elem(%s) = %s, want %s", tt.typ, got, tt.expected)
		}
	}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		op       string
		expected Family
	}{
		{"+", FamilyArithmetic},
		{"%", FamilyArithmetic},
		{"=", FamilyAssignment},
		{"<<=", FamilyAssignment},
		{"==", FamilyEquality},
		{"<=", FamilyOrdering},
		{"||", FamilyLogical},
		{"^", FamilyBitwise},
		{">>", FamilyBitwise},
		{",", FamilyUnknown},
	}
	for _, tt := range tests {
		if got := FamilyOf(tt.op); got != tt.expected {
			t.Errorf("FamilyOf(%q) = %v, want %v", tt.op, got, tt.expected)
		}
	}
}

func TestInferLiteral(t *testing.T) {
	tests := []struct {
		text     string
		expected Type
	}{
		{"42", Int},
		{"-7", Int},
		{"0x1F", Int},
		{"10L", Int},
		{"3.14", Float},
		{"1e5", Float},
		{"2.5f", Float},
		{`"hello"`, String},
		{"'a'", Char},
		{"true", Bool},
		{"false", Bool},
		{"NULL", Pointer},
		{"nullptr", Pointer},
		{"count", Unknown},
		{"0xZZ", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := InferLiteral(tt.text); got != tt.expected {
				t.Errorf("InferLiteral(%q) = %s, want %s", tt.text, got, tt.expected)
			}
		})
	}
}
