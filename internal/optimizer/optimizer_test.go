package optimizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hassan/ccompiler/internal/ir"
)

func parse(t *testing.T, text string) ir.Program {
	t.Helper()
	prog, diags := ir.Parse(text)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}
	return prog
}

func runPass(t *testing.T, p Pass, text string, opts Options) (string, []string) {
	t.Helper()
	ctx := &Context{Options: opts, stats: NewStats(), pass: p.Name()}
	out := p.Run(parse(t, text), ctx)
	return out.String(), ctx.applied
}

func trim(s string) string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"t0 = 2 + 3", "t0 = 5"},
		{"t0 = 7 / 2", "t0 = 3"},
		{"t0 = -7 / 2", "t0 = -3"},
		{"t0 = 6 % 4", "t0 = 2"},
		{"t0 = 0x10 + 1", "t0 = 17"},
		{"t0 = 2.5 * 2", "t0 = 5.0"},
		{"t0 = 1.5 + 0.25", "t0 = 1.75"},
		{"t0 = 1 / 0", "t0 = 1 / 0"},
		{"t0 = a + 1", "t0 = a + 1"},
		{"t0 = 3 < 5", "t0 = 3 < 5"},
		{"t0 = 6 & 3", "t0 = 6 & 3"},
		{"t0 = 5.5 % 2", "t0 = 5.5 % 2"},
		{"t0 = 010 + 1", "t0 = 9"},
		{"t0 = 010 + 0.5", "t0 = 8.5"},
		{"t0 = 9007199254740993 + 0", "t0 = 9007199254740993"},
		{"t0 = 9223372036854775807 + 1", "t0 = 9223372036854775807 + 1"},
		{"t0 = -9223372036854775807 - 2", "t0 = -9223372036854775807 - 2"},
		{"t0 = 4611686018427387904 * 2", "t0 = 4611686018427387904 * 2"},
		{"t0 = 99999999999999999999 + 1", "t0 = 99999999999999999999 + 1"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, applied := runPass(t, &ConstantFoldingPass{}, tt.line, Options{})
			if got != tt.want {
				t.Errorf("folded = %q, want %q", got, tt.want)
			}
			if folded := got != tt.line; folded != (len(applied) == 1) {
				t.Errorf("applied = %v for %q", applied, got)
			}
		})
	}
}

func TestConstantFolding_IntegerPairs(t *testing.T) {
	values := []int64{-12, -1, 0, 3, 7, 250}
	ops := []struct {
		sym string
		fn  func(a, b int64) int64
	}{
		{"+", func(a, b int64) int64 { return a + b }},
		{"-", func(a, b int64) int64 { return a - b }},
		{"*", func(a, b int64) int64 { return a * b }},
	}

	for _, op := range ops {
		for _, a := range values {
			for _, b := range values {
				line := fmt.Sprintf("t0 = %d %s %d", a, op.sym, b)
				got, _ := runPass(t, &ConstantFoldingPass{}, line, Options{})
				if want := fmt.Sprintf("t0 = %d", op.fn(a, b)); got != want {
					t.Errorf("fold(%q) = %q, want %q", line, got, want)
				}
			}
		}
	}
}

func TestUnreachableCode(t *testing.T) {
	got, applied := runPass(t, &UnreachableCodePass{}, `LABEL func_f
FUNC_BEGIN f
GOTO L0
x = 1
y = 2
LABEL L0
GOTO L1
FUNC_END f`, Options{})

	want := trim(`LABEL func_f
	FUNC_BEGIN f
	GOTO L0
	# REMOVED (UNREACHABLE): x = 1
	# REMOVED (UNREACHABLE): y = 2
	LABEL L0
	GOTO L1
	FUNC_END f`)
	if got != want {
		t.Errorf("code =\n%s\nwant\n%s", got, want)
	}
	if len(applied) != 2 || applied[0] != "Removed unreachable code after GOTO" {
		t.Errorf("applied = %v, want two removals", applied)
	}
}

func TestDeadAssignment(t *testing.T) {
	const fn = `DECL int g
g = 1
LABEL func_f
FUNC_BEGIN f
x = 5
t0 = a + 1
y = t0
t1 = a * 2
c = 1
IF_FALSE_GOTO c, L0
t2 = CALL f, 0
LABEL L0
RETURN a
FUNC_END f`

	tests := []struct {
		name    string
		exempt  bool
		removed []string
	}{
		{"temporaries included", false, []string{"x", "y", "t1"}},
		{"temporaries exempt", true, []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := runPass(t, &DeadAssignmentPass{}, fn, Options{ExemptTemporaries: tt.exempt})

			if len(applied) != len(tt.removed) {
				t.Fatalf("applied = %v, want %d removals", applied, len(tt.removed))
			}
			for i, name := range tt.removed {
				if want := "Eliminated dead code: " + name + " is never used"; applied[i] != want {
					t.Errorf("applied[%d] = %q, want %q", i, applied[i], want)
				}
			}
			for _, kept := range []string{"\ng = 1\n", "\nt0 = a + 1\n", "\nc = 1\n", "\nt2 = CALL f, 0\n"} {
				if !strings.Contains(got, kept) {
					t.Errorf("Expected %q to survive:\n%s", strings.TrimSpace(kept), got)
				}
			}
			if !strings.Contains(got, "# REMOVED (DEAD CODE): x = 5") {
				t.Errorf("Expected a marker for x:\n%s", got)
			}
		})
	}
}

func TestCommonSubexpression(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"reuse", "t0 = a * b\nt1 = a * b", "t0 = a * b\nt1 = t0"},
		{"operand reassigned", "t0 = a * b\na = 1\nt1 = a * b", "t0 = a * b\na = 1\nt1 = a * b"},
		{"holder reassigned", "t0 = a * b\nt0 = 2\nt1 = a * b", "t0 = a * b\nt0 = 2\nt1 = a * b"},
		{"join point", "t0 = a * b\nLABEL L0\nt1 = a * b", "t0 = a * b\nLABEL L0\nt1 = a * b"},
		{"call", "t0 = -x\nCALL f, 0\nt1 = -x", "t0 = -x\nCALL f, 0\nt1 = -x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := runPass(t, &CommonSubexpressionPass{}, tt.code, Options{})
			if got != tt.want {
				t.Errorf("code =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}

	_, applied := runPass(t, &CommonSubexpressionPass{}, "t0 = a * b\nt1 = a * b", Options{})
	if len(applied) != 1 || applied[0] != "Common subexpression elimination: a * b -> t0" {
		t.Errorf("applied = %v", applied)
	}
}

func TestConstantPropagation(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    string
		applied int
	}{
		{"forward", "x = 5\nt0 = x + y\nx = 6\nt1 = x + 1", "x = 5\nt0 = 5 + y\nx = 6\nt1 = 6 + 1", 2},
		{"condition", "c = 0\nIF_FALSE_GOTO c, L0", "c = 0\nIF_FALSE_GOTO 0, L0", 1},
		{"reassigned from variable", "x = 5\nx = y\nt0 = x", "x = 5\nx = y\nt0 = x", 0},
		{"address taken", "x = 5\nt0 = &x\nt1 = x + 1", "x = 5\nt0 = &x\nt1 = x + 1", 0},
		{"join point", "x = 5\nLABEL L0\nt0 = x", "x = 5\nLABEL L0\nt0 = x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := runPass(t, &ConstantPropagationPass{}, tt.code, Options{})
			if got != tt.want {
				t.Errorf("code =\n%s\nwant\n%s", got, tt.want)
			}
			if len(applied) != tt.applied {
				t.Errorf("applied = %v, want %d entries", applied, tt.applied)
			}
		})
	}
}

func TestStrengthReduction(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		applied string
	}{
		{"t0 = x * 2", "t0 = x + x", "Strength reduction: x * 2 -> x + x"},
		{"t0 = x * 8", "t0 = x << 3", "Strength reduction: x * 8 -> x << 3"},
		{"t0 = x * 512", "t0 = x << 9", "Strength reduction: x * 512 -> x << 9"},
		{"t0 = x / 4", "t0 = x >> 2", "Strength reduction: x / 4 -> x >> 2"},
		{"t0 = x * 1024", "t0 = x * 1024", ""},
		{"t0 = x * 6", "t0 = x * 6", ""},
		{"t0 = 2 * x", "t0 = 2 * x", ""},
		{"t0 = x * 2.0", "t0 = x * 2.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, applied := runPass(t, &StrengthReductionPass{}, tt.line, Options{})
			if got != tt.want {
				t.Errorf("code = %q, want %q", got, tt.want)
			}
			if tt.applied == "" && len(applied) != 0 || tt.applied != "" && (len(applied) != 1 || applied[0] != tt.applied) {
				t.Errorf("applied = %v, want %q", applied, tt.applied)
			}
		})
	}
}

func TestLoopInvariant(t *testing.T) {
	got, applied := runPass(t, &LoopInvariantPass{}, `i = 0
LABEL L0
t0 = i < n
IF_FALSE_GOTO t0, L1
t1 = a * b
s = s + t1
i = i + 1
GOTO L0
LABEL L1`, Options{})

	want := trim(`i = 0
	t1 = a * b
	LABEL L0
	t0 = i < n
	IF_FALSE_GOTO t0, L1
	# HOISTED: t1 = a * b
	s = s + t1
	i = i + 1
	GOTO L0
	LABEL L1`)
	if got != want {
		t.Errorf("code =\n%s\nwant\n%s", got, want)
	}
	if len(applied) != 1 || applied[0] != "Loop invariant hoisting: t1 = a * b" {
		t.Errorf("applied = %v", applied)
	}
}

func TestLoopInvariant_KeepsVariant(t *testing.T) {
	code := `LABEL L0
t0 = i < n
IF_FALSE_GOTO t0, L1
t1 = i * 2
CALL f, 0
GOTO L0
LABEL L1`
	got, applied := runPass(t, &LoopInvariantPass{}, code, Options{})
	if got != code || len(applied) != 0 {
		t.Errorf("Expected no hoisting, got\n%s\n%v", got, applied)
	}
}

func TestLoopUnroll(t *testing.T) {
	const loop = `DECL int i
i = 0
LABEL L0
t0 = i < %s
IF_FALSE_GOTO t0, L2
t1 = i * 2
PARAM t1
CALL print, 1
LABEL L1
i = i + 1
GOTO L0
LABEL L2`

	got, applied := runPass(t, &LoopUnrollPass{}, fmt.Sprintf(loop, "3"), Options{})
	want := trim(`DECL int i
	i = 0
	t1 = 0 * 2
	PARAM t1
	CALL print, 1
	t1 = 1 * 2
	PARAM t1
	CALL print, 1
	t1 = 2 * 2
	PARAM t1
	CALL print, 1
	i = 3
	LABEL L2`)
	if got != want {
		t.Errorf("code =\n%s\nwant\n%s", got, want)
	}
	if len(applied) != 1 || applied[0] != "Loop unrolling applied" {
		t.Errorf("applied = %v", applied)
	}

	other := fmt.Sprintf(loop, "4")
	if got, applied := runPass(t, &LoopUnrollPass{}, other, Options{}); got != other || len(applied) != 0 {
		t.Errorf("Expected a four-iteration loop to stay, got\n%s", got)
	}
}

func TestTailCall(t *testing.T) {
	got, applied := runPass(t, &TailCallPass{}, `LABEL func_gcd
FUNC_BEGIN gcd
IF_FALSE_GOTO b, L0
t0 = a % b
PARAM b
PARAM t0
t1 = CALL gcd, 2
RETURN t1
LABEL L0
RETURN a
FUNC_END gcd
LABEL func_fact
FUNC_BEGIN fact
PARAM n
t2 = CALL fact, 1
t3 = n * t2
RETURN t3
FUNC_END fact`, Options{})

	if !strings.Contains(got, "t1 = CALL gcd, 2  # TAIL-RECURSIVE CALL") {
		t.Errorf("Expected the gcd call to be marked:\n%s", got)
	}
	if strings.Contains(got, "CALL fact, 1  #") {
		t.Errorf("Expected the fact call to stay unmarked:\n%s", got)
	}
	if len(applied) != 1 || applied[0] != "Identified tail recursion in gcd" {
		t.Errorf("applied = %v", applied)
	}
}

func TestOptimize_Levels(t *testing.T) {
	code := parse(t, `LABEL func_f
FUNC_BEGIN f
t0 = 2 + 3
t1 = a * 4
t2 = t0 + t1
RETURN t2
FUNC_END f`)

	tests := []struct {
		level  int
		passes int
		want   string
	}{
		{0, 0, "t0 = 2 + 3"},
		{1, 3, "t1 = a * 4"},
		{2, 6, "t1 = a << 2"},
		{3, 9, "t1 = a << 2"},
		{7, 9, "t1 = a << 2"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			o := New(Options{Level: tt.level})
			if got := len(o.Passes()); got != tt.passes {
				t.Errorf("passes = %d, want %d", got, tt.passes)
			}
			res := o.Optimize(code)
			if !strings.Contains(res.Code.String(), tt.want) {
				t.Errorf("Expected %q in:\n%s", tt.want, res.Code)
			}
			if tt.level == 0 && len(res.Applied) != 0 {
				t.Errorf("applied = %v, want none at level 0", res.Applied)
			}
		})
	}

	if code[2].String() != "t0 = 2 + 3" {
		t.Error("Expected Optimize to leave its input untouched")
	}
}

func TestOptimize_KeepsGlobalAssignments(t *testing.T) {
	text := `DECL int a
a = 10
DECL int b
b = 20
DECL int suma
t0 = a + b
suma = t0`

	res := Optimize(parse(t, text), Options{Level: 1})
	if got := res.Code.String(); got != text {
		t.Errorf("code =\n%s\nwant\n%s", got, text)
	}
	if len(res.Applied) != 0 {
		t.Errorf("applied = %v, want none", res.Applied)
	}
}

func TestOptimize_StraightLineDeadAssignments(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		gone    string
		applied string
	}{
		{"undeclared name", "x = 5\ny = 3\nz = y + 1\nRETURN z", "x = 5", "Eliminated dead code: x is never used"},
		{"temporary", "t0 = a + 1\nt1 = a * 2\nRETURN t0", "t1 = a * 2", "Eliminated dead code: t1 is never used"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, applied, diags := OptimizeText(tt.text, Options{Level: 1})
			if len(diags) != 0 {
				t.Fatalf("diagnostics = %v", diags.Messages())
			}
			if !strings.Contains(text, "# REMOVED (DEAD CODE): "+tt.gone) {
				t.Errorf("Expected %q to be removed:\n%s", tt.gone, text)
			}
			if len(applied) != 1 || applied[0] != tt.applied {
				t.Errorf("applied = %v, want [%s]", applied, tt.applied)
			}
		})
	}
}

func TestOptimizeText(t *testing.T) {
	text, applied, diags := OptimizeText("t0 = 2 + 3\nbogus line\nRETURN t0", Options{Level: 1})

	if text != "t0 = 5\nRETURN t0" {
		t.Errorf("text = %q", text)
	}
	if len(applied) != 1 || applied[0] != "Constant folding: 2 + 3 -> 5" {
		t.Errorf("applied = %v", applied)
	}
	if len(diags) != 1 {
		t.Errorf("diagnostics = %v, want one for the bad line", diags.Messages())
	}
}

func TestStats(t *testing.T) {
	res := Optimize(parse(t, "LABEL func_f\nFUNC_BEGIN f\nx = 1\nRETURN\nFUNC_END f"), Options{Level: 1})

	if res.Stats.InstructionsRemoved != 1 {
		t.Errorf("InstructionsRemoved = %d, want 1", res.Stats.InstructionsRemoved)
	}
	if res.Stats.Rewrites["DeadAssignment"] != 1 {
		t.Errorf("Rewrites = %v, want one dead assignment", res.Stats.Rewrites)
	}
	if !strings.Contains(res.Stats.String(), "Instructions removed: 1") {
		t.Errorf("String() = %q", res.Stats.String())
	}
}
