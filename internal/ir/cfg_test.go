package ir

import (
	"testing"
)

func mustParse(t *testing.T, text string) Program {
	t.Helper()
	prog, diags := Parse(text)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Messages())
	}
	return prog
}

func names(bs []*BasicBlock) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name()
	}
	return out
}

const ifElse = `LABEL func_main
FUNC_BEGIN main
t0 = a < b
IF_FALSE_GOTO t0, L0
x = 1
GOTO L1
LABEL L0
x = 2
LABEL L1
RETURN x
FUNC_END main`

func TestBuildCFG(t *testing.T) {
	cfg := BuildCFG(mustParse(t, ifElse))

	if len(cfg.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4:\n%s", len(cfg.Blocks), cfg)
	}

	tests := []struct {
		block string
		start int
		size  int
		succs []string
	}{
		{"func_main", 0, 4, []string{"B1", "L0"}},
		{"B1", 4, 2, []string{"L1"}},
		{"L0", 6, 2, []string{"L1"}},
		{"L1", 8, 3, []string{}},
	}
	for i, tt := range tests {
		b := cfg.Blocks[i]
		if b.Name() != tt.block {
			t.Errorf("Blocks[%d].Name() = %q, want %q", i, b.Name(), tt.block)
		}
		if b.Start != tt.start {
			t.Errorf("%s.Start = %d, want %d", tt.block, b.Start, tt.start)
		}
		if len(b.Instructions) != tt.size {
			t.Errorf("%s has %d instructions, want %d", tt.block, len(b.Instructions), tt.size)
		}
		got := names(b.Successors)
		if len(got) != len(tt.succs) {
			t.Errorf("%s successors = %v, want %v", tt.block, got, tt.succs)
			continue
		}
		for j := range got {
			if got[j] != tt.succs[j] {
				t.Errorf("%s successors = %v, want %v", tt.block, got, tt.succs)
			}
		}
	}

	if cfg.Entry != cfg.Blocks[0] {
		t.Error("Expected the first block to be the entry")
	}
	if cfg.Exit != cfg.Block("L1") {
		t.Errorf("Exit = %v, want L1", cfg.Exit.Name())
	}
	if len(cfg.Block("L1").Predecessors) != 2 {
		t.Errorf("L1 predecessors = %v, want 2", names(cfg.Block("L1").Predecessors))
	}
}

func TestCFGBuilders_Agree(t *testing.T) {
	programs := map[string]string{
		"if else": ifElse,
		"loop": `i = 0
LABEL L0
t0 = i < 3
IF_FALSE_GOTO t0, L1
i = i + 1
GOTO L0
LABEL L1`,
		"two functions": `LABEL func_f
FUNC_BEGIN f
RETURN 1
FUNC_END f
DECL int g
LABEL func_main
FUNC_BEGIN main
t0 = CALL f, 0
RETURN t0
FUNC_END main`,
		"do while": `LABEL L0
x = x + 1
LABEL L1
t0 = x < 10
IF_TRUE_GOTO t0, L0
LABEL L2`,
		"dead code after goto": `GOTO L0
# error: division by zero
x = 1
LABEL L0
RETURN`,
	}

	for name, text := range programs {
		t.Run(name, func(t *testing.T) {
			prog := mustParse(t, text)
			b := NewCFGBuilder()
			for _, in := range prog {
				b.Add(in)
			}
			incremental := b.Finish()
			leaders := BuildCFG(prog)

			if !incremental.Equal(leaders) {
				t.Errorf("graphs differ\nincremental:\n%s\nleaders:\n%s", incremental, leaders)
			}
			if diags := leaders.Verify(); len(diags) != 0 {
				t.Errorf("Verify() = %v, want no diagnostics", diags.Messages())
			}
		})
	}
}

func TestCFG_FuncEndStaysInBlock(t *testing.T) {
	cfg := BuildCFG(mustParse(t, "LABEL func_f\nFUNC_BEGIN f\nRETURN\nFUNC_END f\nLABEL func_g\nFUNC_BEGIN g\nRETURN\nFUNC_END g"))

	if len(cfg.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2:\n%s", len(cfg.Blocks), cfg)
	}
	for _, b := range cfg.Blocks {
		last := b.Instructions[len(b.Instructions)-1]
		if last.Op != OpFuncEnd {
			t.Errorf("%s ends with %q, want FUNC_END", b.Name(), last)
		}
		if term := b.Terminator(); term == nil || term.Op != OpReturn {
			t.Errorf("Expected %s to be terminated by its RETURN", b.Name())
		}
	}
	if len(cfg.Blocks[0].Successors) != 0 {
		t.Error("Expected no edge from one function into the next")
	}
}

func TestCFG_Reachable(t *testing.T) {
	cfg := BuildCFG(mustParse(t, "GOTO L0\nx = 1\nLABEL L0\nRETURN"))

	if len(cfg.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(cfg.Blocks))
	}
	got := names(cfg.Reachable())
	if len(got) != 2 || got[0] != "B0" || got[1] != "L0" {
		t.Errorf("Reachable() = %v, want [B0 L0]", got)
	}
}

func TestCFG_Verify(t *testing.T) {
	tests := []struct {
		name string
		text string
		code string
	}{
		{"unresolved jump", "x = 1\nGOTO nowhere", "unresolved-label"},
		{"duplicate label", "LABEL L0\nx = 1\nLABEL L0\nRETURN", "duplicate-label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := BuildCFG(mustParse(t, tt.text)).Verify()
			if len(diags) != 1 {
				t.Fatalf("Verify() = %v, want one diagnostic", diags.Messages())
			}
			if diags[0].Code != tt.code {
				t.Errorf("Code = %q, want %q", diags[0].Code, tt.code)
			}
		})
	}
}

func TestCFG_Empty(t *testing.T) {
	cfg := BuildCFG(nil)
	if len(cfg.Blocks) != 0 || cfg.Entry != nil {
		t.Error("Expected an empty graph for an empty program")
	}
	if !cfg.Equal(NewCFGBuilder().Finish()) {
		t.Error("Expected empty graphs to be equal")
	}
}
