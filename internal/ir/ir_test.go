package ir

import (
	"testing"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		name string
		in   Instruction
		want string
	}{
		{"assign", Assign("a", "10"), "a = 10"},
		{"binary", Binary(OpAdd, "t0", "a", "b"), "t0 = a + b"},
		{"shift", Binary(OpShl, "t1", "x", "3"), "t1 = x << 3"},
		{"unary", Unary(OpNeg, "t2", "x"), "t2 = -x"},
		{"conditional jump", IfFalseGoto("t0", "L1"), "IF_FALSE_GOTO t0, L1"},
		{"void call", Instruction{Op: OpCall, Arg1: "f", Arg2: "2"}, "CALL f, 2"},
		{"call", Instruction{Op: OpCall, Result: "t3", Arg1: "f", Arg2: "0"}, "t3 = CALL f, 0"},
		{"index store", Instruction{Op: OpIndexStore, Result: "arr", Arg1: "0", Arg2: "5"}, "arr[0] = 5"},
		{"pointer member", Instruction{Op: OpPtrMember, Result: "t4", Arg1: "p", Arg2: "next"}, "t4 = p->next"},
		{"bare return", Return(""), "RETURN"},
		{"declaration", Instruction{Op: OpDecl, Arg1: "const char*", Arg2: "s"}, "DECL const char* s"},
		{"comment", Comment("REMOVED (DEAD CODE): x = 1"), "# REMOVED (DEAD CODE): x = 1"},
		{"annotated", Instruction{Op: OpCall, Result: "t5", Arg1: "fact", Arg2: "1", Comment: "TAIL-RECURSIVE CALL"},
			"t5 = CALL fact, 1  # TAIL-RECURSIVE CALL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Instruction
	}{
		{"t0 = a * b", Binary(OpMul, "t0", "a", "b")},
		{"t1 = !flag", Unary(OpNot, "t1", "flag")},
		{"x = -5", Assign("x", "-5")},
		{"t2 = STRING \"a = b # c\"", Instruction{Op: OpString, Result: "t2", Arg1: "\"a = b # c\""}},
		{"t3 = CAST n, double", Instruction{Op: OpCast, Result: "t3", Arg1: "n", Arg2: "double"}},
		{"t4 = v[i]", Instruction{Op: OpIndex, Result: "t4", Arg1: "v", Arg2: "i"}},
		{"*p = 7", Instruction{Op: OpStore, Result: "p", Arg1: "7"}},
		{"pt.x = t0", Instruction{Op: OpMemberStore, Result: "pt", Arg1: "x", Arg2: "t0"}},
		{"DECL unsigned long n", Instruction{Op: OpDecl, Arg1: "unsigned long", Arg2: "n"}},
		{"IF_TRUE_GOTO t5, L3", IfTrueGoto("t5", "L3")},
		{"RETURN t6", Return("t6")},
		{"CALL print, 1  # TAIL-RECURSIVE CALL", Instruction{Op: OpCall, Arg1: "print", Arg2: "1", Comment: "TAIL-RECURSIVE CALL"}},
		{"# HOISTED: t0 = a + b", Comment("HOISTED: t0 = a + b")},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if !ok {
				t.Fatalf("ParseLine(%q) failed", tt.line)
			}
			if got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParse_ReportsBadLines(t *testing.T) {
	text := "a = 1\nthis is not an instruction\n\nGOTO L0\n"
	prog, diags := Parse(text)

	if len(prog) != 2 {
		t.Fatalf("instructions = %d, want 2", len(prog))
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(diags))
	}
	if diags[0].Line != 2 || diags[0].Code != CodeBadInstruction {
		t.Errorf("diagnostic = line %d code %q, want line 2 code %q", diags[0].Line, diags[0].Code, CodeBadInstruction)
	}
}

func TestProgramText(t *testing.T) {
	text := `LABEL func_main
FUNC_BEGIN main
DECL int i
i = 0
LABEL L0
t0 = i < 10
IF_FALSE_GOTO t0, L1
CHECK_DIVZERO i
t1 = 100 / i
PARAM t1
CALL printf, 1
i = i + 1
GOTO L0
LABEL L1
RETURN 0
FUNC_END main`

	prog, diags := Parse(text)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}
	if got := prog.String(); got != text {
		t.Errorf("String() =\n%s\nwant\n%s", got, text)
	}
}

func TestUsesAndDefines(t *testing.T) {
	tests := []struct {
		in      Instruction
		defines string
		uses    []string
	}{
		{Binary(OpAdd, "t0", "a", "1"), "t0", []string{"a"}},
		{Assign("x", "t0"), "x", []string{"t0"}},
		{IfFalseGoto("c", "L0"), "", []string{"c"}},
		{Instruction{Op: OpIndexStore, Result: "arr", Arg1: "i", Arg2: "v"}, "", []string{"arr", "i", "v"}},
		{Instruction{Op: OpCall, Result: "t1", Arg1: "f", Arg2: "2"}, "t1", nil},
		{Instruction{Op: OpMember, Result: "t2", Arg1: "pt", Arg2: "x"}, "t2", []string{"pt"}},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := tt.in.Defines(); got != tt.defines {
				t.Errorf("Defines() = %q, want %q", got, tt.defines)
			}
			got := tt.in.Uses()
			if len(got) != len(tt.uses) {
				t.Fatalf("Uses() = %v, want %v", got, tt.uses)
			}
			for i := range got {
				if got[i] != tt.uses[i] {
					t.Errorf("Uses() = %v, want %v", got, tt.uses)
				}
			}
		})
	}
}

func TestReplaceUses(t *testing.T) {
	in := Binary(OpMul, "t0", "x", "x")
	out, changed := in.ReplaceUses("x", "4")
	if !changed {
		t.Fatal("Expected a change")
	}
	if got := out.String(); got != "t0 = 4 * 4" {
		t.Errorf("String() = %q, want %q", got, "t0 = 4 * 4")
	}
	if in.Arg1 != "x" {
		t.Error("Expected the original instruction to be unchanged")
	}

	if _, changed := Assign("x", "1").ReplaceUses("x", "2"); changed {
		t.Error("Expected the assigned name not to be replaced")
	}
}

func TestOperands(t *testing.T) {
	tests := []struct {
		s        string
		temp     bool
		name     bool
		constant bool
	}{
		{"t0", true, true, false},
		{"t12", true, true, false},
		{"total", false, true, false},
		{"42", false, false, true},
		{"-3.5", false, false, true},
		{"0x1F", false, false, true},
		{"'a'", false, false, true},
		{"\"hi\"", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if got := IsTemp(tt.s); got != tt.temp {
				t.Errorf("IsTemp(%q) = %v, want %v", tt.s, got, tt.temp)
			}
			if got := IsName(tt.s); got != tt.name {
				t.Errorf("IsName(%q) = %v, want %v", tt.s, got, tt.name)
			}
			if got := IsConstant(tt.s); got != tt.constant {
				t.Errorf("IsConstant(%q) = %v, want %v", tt.s, got, tt.constant)
			}
		})
	}
}

func TestIntegerValue(t *testing.T) {
	tests := []struct {
		s    string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"-7", -7, true},
		{"010", 8, true},
		{"0x1F", 31, true},
		{"10UL", 10, true},
		{"9007199254740993", 9007199254740993, true},
		{"9223372036854775807", 9223372036854775807, true},
		{"9223372036854775808", 0, false},
		{"08", 0, false},
		{"1.5", 0, false},
		{"x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			got, ok := IntegerValue(tt.s)
			if got != tt.want || ok != tt.ok {
				t.Errorf("IntegerValue(%q) = %d, %v, want %d, %v", tt.s, got, ok, tt.want, tt.ok)
			}
		})
	}
}
