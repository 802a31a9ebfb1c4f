package symtab

import (
	"strings"
	"testing"

	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/semantic/types"
)

// Test Symbol

func TestSymbol_String(t *testing.T) {
	symbol := &Symbol{
		Name: "x",
		Kind: SymbolVariable,
		Type: types.Int,
		Pos:  lexer.Position{Filename: "test.c", Line: 1, Column: 5},
	}

	expected := "variable x: int at test.c:1:5"
	result := symbol.String()
	if result != expected {
		t.Errorf("Symbol.String() = %q, want %q", result, expected)
	}
}

func TestSymbol_IsGlobal(t *testing.T) {
	globalScope := NewScope(ScopeGlobal, nil)
	fnScope := NewScope(ScopeFunction, globalScope)
	localScope := NewScope(ScopeBlock, fnScope)

	globalSymbol := &Symbol{Name: "x", Scope: globalScope}
	localSymbol := &Symbol{Name: "y", Scope: localScope}

	if !globalSymbol.IsGlobal() {
		t.Error("Expected global symbol to be global")
	}
	if globalSymbol.IsLocal() {
		t.Error("Expected global symbol not to be local")
	}
	if localSymbol.IsGlobal() {
		t.Error("Expected local symbol not to be global")
	}
	if !localSymbol.IsLocal() {
		t.Error("Expected local symbol to be local")
	}
}

func TestSymbol_CanAssign(t *testing.T) {
	tests := []struct {
		name     string
		symbol   *Symbol
		expected bool
	}{
		{"variable", &Symbol{Kind: SymbolVariable}, true},
		{"const variable", &Symbol{Kind: SymbolVariable, Constant: true}, false},
		{"parameter", &Symbol{Kind: SymbolParameter}, true},
		{"attribute", &Symbol{Kind: SymbolAttribute}, true},
		{"function", &Symbol{Kind: SymbolFunction}, false},
		{"class", &Symbol{Kind: SymbolClass}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.symbol.CanAssign(); got != tt.expected {
				t.Errorf("CanAssign() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSymbol_LookupAttribute(t *testing.T) {
	sides := &Symbol{Name: "sides", Kind: SymbolAttribute, Type: types.Int}
	class := &Symbol{Name: "Shape", Kind: SymbolClass, Attributes: []*Symbol{sides}}

	if got := class.LookupAttribute("sides"); got != sides {
		t.Errorf("LookupAttribute(sides) = %v, want %v", got, sides)
	}
	if got := class.LookupAttribute("area"); got != nil {
		t.Errorf("LookupAttribute(area) = %v, want nil", got)
	}
	variable := &Symbol{Name: "v", Kind: SymbolVariable}
	if got := variable.LookupAttribute("sides"); got != nil {
		t.Errorf("LookupAttribute on a variable = %v, want nil", got)
	}
}

// Test Scope

func TestNewScope(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	if global.Depth != 0 {
		t.Errorf("global depth = %d, want 0", global.Depth)
	}
	child := NewScope(ScopeFunction, global)
	if child.Depth != 1 {
		t.Errorf("child depth = %d, want 1", child.Depth)
	}
	if len(global.Children) != 1 || global.Children[0] != child {
		t.Error("Expected child to be registered with its parent")
	}
}

func TestScope_Name(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	fn := NewScope(ScopeFunction, global)
	fn.Owner = "main"
	class := NewScope(ScopeClass, global)
	class.Owner = "Shape"
	block := NewScope(ScopeBlock, fn)

	tests := []struct {
		scope    *Scope
		expected string
	}{
		{global, "global"},
		{fn, "function:main"},
		{class, "class:Shape"},
		{block, "block"},
	}
	for _, tt := range tests {
		if got := tt.scope.Name(); got != tt.expected {
			t.Errorf("Name() = %q, want %q", got, tt.expected)
		}
	}
}

func TestScope_Define(t *testing.T) {
	scope := NewScope(ScopeGlobal, nil)

	first := &Symbol{Name: "x", Kind: SymbolVariable, Pos: lexer.Position{Line: 1}}
	if err := scope.Define(first); err != nil {
		t.Fatalf("Define(x) error = %v", err)
	}
	if first.Scope != scope {
		t.Error("Expected Define to set the symbol's scope")
	}

	err := scope.Define(&Symbol{Name: "x", Kind: SymbolVariable, Pos: lexer.Position{Line: 4}})
	if err == nil {
		t.Fatal("Expected error on redeclaration")
	}
	if !strings.Contains(err.Error(), "already declared in global scope at line 1") {
		t.Errorf("error = %q", err)
	}
}

func TestScope_Lookup(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	fn := NewScope(ScopeFunction, global)
	block := NewScope(ScopeBlock, fn)

	outer := &Symbol{Name: "x", Kind: SymbolVariable, Type: types.Int}
	inner := &Symbol{Name: "x", Kind: SymbolVariable, Type: types.Float}
	y := &Symbol{Name: "y", Kind: SymbolVariable}
	_ = global.Define(outer)
	_ = block.Define(inner)
	_ = fn.Define(y)

	if got := block.Lookup("x"); got != inner {
		t.Errorf("block.Lookup(x) = %v, want the shadowing symbol", got)
	}
	if got := fn.Lookup("x"); got != outer {
		t.Errorf("fn.Lookup(x) = %v, want the global symbol", got)
	}
	if got := block.Lookup("y"); got != y {
		t.Errorf("block.Lookup(y) = %v, want %v", got, y)
	}
	if got := global.Lookup("y"); got != nil {
		t.Errorf("global.Lookup(y) = %v, want nil", got)
	}
	if y.Used {
		t.Error("Expected Lookup not to mark the symbol used")
	}
}

func TestScope_LookupLocal(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	block := NewScope(ScopeBlock, global)
	_ = global.Define(&Symbol{Name: "x"})

	if block.LookupLocal("x") != nil {
		t.Error("Expected LookupLocal not to search the parent")
	}
	if global.LookupLocal("x") == nil {
		t.Error("Expected LookupLocal to find x in its own scope")
	}
}

func TestScope_FindEnclosing(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	fn := NewScope(ScopeFunction, global)
	loop := NewScope(ScopeLoop, fn)
	sw := NewScope(ScopeSwitch, loop)
	block := NewScope(ScopeBlock, sw)

	if block.FindEnclosingFunction() != fn {
		t.Error("Expected FindEnclosingFunction to find fn")
	}
	if block.FindEnclosingLoop() != loop {
		t.Error("Expected FindEnclosingLoop to find loop")
	}
	if block.FindEnclosingLoopOrSwitch() != sw {
		t.Error("Expected FindEnclosingLoopOrSwitch to find the switch first")
	}
	if fn.FindEnclosingLoop() != nil {
		t.Error("Expected no loop around the function scope")
	}
	if global.FindEnclosingFunction() != nil {
		t.Error("Expected no function around the global scope")
	}

	// a loop in a caller never leaks into a nested function scope
	nested := NewScope(ScopeFunction, loop)
	if nested.FindEnclosingLoop() != nil {
		t.Error("Expected the loop search to stop at the function boundary")
	}
}

func TestScope_UnusedSymbols(t *testing.T) {
	scope := NewScope(ScopeFunction, nil)
	used := &Symbol{Name: "a", Kind: SymbolVariable}
	unused := &Symbol{Name: "b", Kind: SymbolVariable}
	param := &Symbol{Name: "p", Kind: SymbolParameter}
	_ = scope.Define(used)
	_ = scope.Define(unused)
	_ = scope.Define(param)
	used.MarkUsed()

	got := scope.UnusedSymbols()
	if len(got) != 1 || got[0] != unused {
		t.Errorf("UnusedSymbols() = %v, want [b]", got)
	}
}

func TestSymbolKind_String(t *testing.T) {
	tests := []struct {
		kind     SymbolKind
		expected string
	}{
		{SymbolVariable, "variable"},
		{SymbolFunction, "function"},
		{SymbolParameter, "parameter"},
		{SymbolClass, "class"},
		{SymbolAttribute, "attribute"},
		{SymbolKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("SymbolKind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}

func TestScopeKind_String(t *testing.T) {
	tests := []struct {
		kind     ScopeKind
		expected string
	}{
		{ScopeGlobal, "global"},
		{ScopeFunction, "function"},
		{ScopeBlock, "block"},
		{ScopeLoop, "loop"},
		{ScopeSwitch, "switch"},
		{ScopeClass, "class"},
		{ScopeKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("ScopeKind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}

// Test Table

func TestTable_PushPop(t *testing.T) {
	table := NewTable()
	if table.Current() != table.Global() {
		t.Fatal("Expected a new table to start in the global scope")
	}
	fn := table.Push(ScopeFunction, "main")
	if table.Current() != fn || fn.Owner != "main" {
		t.Error("Expected Push to open the function scope")
	}
	table.Pop()
	table.Pop()
	if table.Current() != table.Global() {
		t.Error("Expected extra Pop to stay at the global scope")
	}
}

func TestTable_SymbolsInDeclarationOrder(t *testing.T) {
	table := NewTable()
	_ = table.Define(&Symbol{Name: "g", Kind: SymbolVariable})
	table.Push(ScopeFunction, "f")
	_ = table.Define(&Symbol{Name: "a", Kind: SymbolVariable})
	table.Pop()
	_ = table.Define(&Symbol{Name: "h", Kind: SymbolVariable})

	got := strings.Join(table.Names(), ",")
	if got != "g,a,h" {
		t.Errorf("Names() = %q, want %q", got, "g,a,h")
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
	if len(table.Unused()) != 3 {
		t.Errorf("Unused() = %v, want all three", table.Unused())
	}
}

func TestTable_Unused(t *testing.T) {
	table := NewTable()
	g := &Symbol{Name: "g", Kind: SymbolVariable}
	_ = table.Define(g)
	table.Push(ScopeFunction, "f")
	_ = table.Define(&Symbol{Name: "p", Kind: SymbolParameter})
	a := &Symbol{Name: "a", Kind: SymbolVariable}
	_ = table.Define(a)
	table.Push(ScopeBlock, "")
	_ = table.Define(&Symbol{Name: "b", Kind: SymbolVariable})
	table.Pop()
	table.Pop()
	_ = table.Define(&Symbol{Name: "h", Kind: SymbolVariable})
	a.MarkUsed()

	var got []string
	for _, s := range table.Unused() {
		got = append(got, s.Name)
	}
	if strings.Join(got, ",") != "g,b,h" {
		t.Errorf("Unused() = %v, want [g b h]", got)
	}
}

func TestScope_DebugString(t *testing.T) {
	table := NewTable()
	_ = table.Define(&Symbol{Name: "g", Kind: SymbolVariable})
	table.Push(ScopeFunction, "main")
	_ = table.Define(&Symbol{Name: "x", Kind: SymbolVariable})

	lines := strings.Split(strings.TrimSpace(table.Global().DebugString()), "\n")
	if len(lines) != 4 {
		t.Fatalf("DebugString() = %q, want four lines", lines)
	}
	if !strings.HasPrefix(lines[0], "global scope") || !strings.HasPrefix(lines[2], "  function:main scope") {
		t.Errorf("scope lines = %q, %q", lines[0], lines[2])
	}
	if !strings.HasPrefix(lines[3], "    ") || !strings.Contains(lines[3], " x: ") {
		t.Errorf("symbol line = %q, want x indented under main", lines[3])
	}
}

func TestTable_DuplicateIsNotCounted(t *testing.T) {
	table := NewTable()
	_ = table.Define(&Symbol{Name: "x"})
	if err := table.Define(&Symbol{Name: "x"}); err == nil {
		t.Fatal("Expected redeclaration error")
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

// Declaring x in two functions yields two entries, and each function's
// scope resolves its own.
func TestTable_ScopeIsolation(t *testing.T) {
	table := NewTable()
	for _, fn := range []struct {
		name string
		typ  types.Type
	}{{"f", types.Int}, {"g", types.Float}, {"h", types.Char}} {
		_ = table.Define(&Symbol{Name: fn.name, Kind: SymbolFunction})
		table.Push(ScopeFunction, fn.name)
		if err := table.Define(&Symbol{Name: "x", Kind: SymbolVariable, Type: fn.typ}); err != nil {
			t.Fatalf("Define(x) in %s: %v", fn.name, err)
		}
		table.Pop()
	}

	count := 0
	for _, s := range table.Symbols() {
		if s.Name == "x" {
			count++
		}
	}
	if count != 3 {
		t.Errorf("x entries = %d, want 3", count)
	}

	tests := []struct {
		fn       string
		expected types.Type
	}{
		{"f", types.Int},
		{"g", types.Float},
		{"h", types.Char},
	}
	for _, tt := range tests {
		scope := table.FunctionScope(tt.fn)
		if scope == nil {
			t.Fatalf("FunctionScope(%s) = nil", tt.fn)
		}
		x := table.LookupIn(scope, "x")
		if x == nil || x.Type != tt.expected {
			t.Errorf("x in %s = %v, want type %s", tt.fn, x, tt.expected)
		}
		if x != nil && x.ScopeName() != "function:"+tt.fn {
			t.Errorf("x in %s has scope %q", tt.fn, x.ScopeName())
		}
	}
	if table.Global().Lookup("x") != nil {
		t.Error("Expected no x visible from the global scope")
	}
}
