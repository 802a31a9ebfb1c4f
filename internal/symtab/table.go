package symtab

import (
	"sort"
)

// Table is a symbol table with a scope stack. The analyzer pushes a scope
// on entering a function, block, loop or switch and pops it on leaving;
// the popped scopes stay reachable from the global scope so lookups can be
// replayed after the walk.
type Table struct {
	global  *Scope
	current *Scope
	count   int
}

// NewTable returns a table whose current scope is the global scope.
func NewTable() *Table {
	global := NewScope(ScopeGlobal, nil)
	return &Table{global: global, current: global}
}

// Global returns the global scope.
func (t *Table) Global() *Scope { return t.global }

// Current returns the innermost open scope.
func (t *Table) Current() *Scope { return t.current }

// Push opens a scope of the given kind inside the current one. owner names
// the function or class for function and class scopes.
func (t *Table) Push(kind ScopeKind, owner string) *Scope {
	t.current = NewScope(kind, t.current)
	t.current.Owner = owner
	return t.current
}

// Pop closes the current scope. Popping the global scope is a no-op.
func (t *Table) Pop() {
	if t.current.Parent != nil {
		t.current = t.current.Parent
	}
}

// Define declares a symbol in the current scope.
func (t *Table) Define(symbol *Symbol) error {
	return t.DefineIn(t.current, symbol)
}

// DefineIn declares a symbol in an explicit scope.
func (t *Table) DefineIn(scope *Scope, symbol *Symbol) error {
	if err := scope.Define(symbol); err != nil {
		return err
	}
	symbol.Index = t.count
	t.count++
	return nil
}

// Lookup resolves a name from the current scope outward.
func (t *Table) Lookup(name string) *Symbol {
	return t.current.Lookup(name)
}

// Len returns the number of symbols declared.
func (t *Table) Len() int { return t.count }

// Symbols returns every symbol in declaration order.
func (t *Table) Symbols() []*Symbol {
	all := t.global.AllSymbols()
	sort.SliceStable(all, func(i, j int) bool { return all[i].Index < all[j].Index })
	return all
}

// Names returns the declared names in declaration order, duplicates
// across scopes included.
func (t *Table) Names() []string {
	symbols := t.Symbols()
	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = s.Name
	}
	return names
}

// Unused returns every variable never read, in declaration order.
func (t *Table) Unused() []*Symbol {
	var unused []*Symbol
	var walk func(s *Scope)
	walk = func(s *Scope) {
		unused = append(unused, s.UnusedSymbols()...)
		for _, child := range s.Children {
			walk(child)
		}
	}
	walk(t.global)
	sort.SliceStable(unused, func(i, j int) bool { return unused[i].Index < unused[j].Index })
	return unused
}

// FunctionScope returns the scope opened for the named function, or nil.
func (t *Table) FunctionScope(name string) *Scope {
	for _, child := range t.global.Children {
		if child.Kind == ScopeFunction && child.Owner == name {
			return child
		}
	}
	return nil
}

// LookupIn resolves a name as if the current scope were scope.
func (t *Table) LookupIn(scope *Scope, name string) *Symbol {
	if scope == nil {
		return nil
	}
	return scope.Lookup(name)
}
