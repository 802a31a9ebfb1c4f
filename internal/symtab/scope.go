package symtab

import (
	"fmt"
	"strings"
)

// ScopeKind represents the kind of scope.
//
// Kinds decide which statements are legal inside: break needs a loop or
// switch, continue needs a loop.
type ScopeKind int

const (
	// ScopeGlobal is the translation unit
	ScopeGlobal ScopeKind = iota

	// ScopeFunction holds parameters and the outermost locals of a function
	ScopeFunction

	// ScopeBlock is a compound statement ({ ... })
	ScopeBlock

	// ScopeLoop is the body of while, do and for
	ScopeLoop

	// ScopeSwitch is a switch body
	ScopeSwitch

	// ScopeClass holds class attributes
	ScopeClass
)

// String returns a human-readable representation of the scope kind.
func (sk ScopeKind) String() string {
	switch sk {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeLoop:
		return "loop"
	case ScopeSwitch:
		return "switch"
	case ScopeClass:
		return "class"
	default:
		return "unknown"
	}
}

// Scope represents a lexical scope in the program.
//
//	int x = 1;          // global scope
//	int foo() {         // function scope (can see x)
//	    int y = 2;      // can see x and y
//	    if (y) {        // block scope
//	        int z = 3;  // can see x, y and z
//	    }
//	    // can see x and y, but not z
//	}
type Scope struct {
	Kind ScopeKind

	// Owner names the function or class a function/class scope belongs to.
	Owner string

	// Parent is the enclosing scope (nil for global scope)
	Parent *Scope

	// Symbols maps names to symbols declared directly in this scope.
	Symbols map[string]*Symbol

	// order keeps declaration order for deterministic listing.
	order []*Symbol

	Children []*Scope

	// Depth is the nesting level (0 for global)
	Depth int
}

// NewScope creates a new scope.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	scope := &Scope{
		Kind:    kind,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
	}
	if parent != nil {
		scope.Depth = parent.Depth + 1
		parent.Children = append(parent.Children, scope)
	}
	return scope
}

// Name returns the scope's display name: "global", "function:<owner>",
// "class:<owner>", or the kind for anonymous scopes.
func (s *Scope) Name() string {
	switch {
	case s.Kind == ScopeFunction && s.Owner != "":
		return "function:" + s.Owner
	case s.Kind == ScopeClass && s.Owner != "":
		return "class:" + s.Owner
	}
	return s.Kind.String()
}

// Define adds a symbol to this scope. It fails if the name is already
// declared here; shadowing an outer declaration is allowed.
func (s *Scope) Define(symbol *Symbol) error {
	if existing, ok := s.Symbols[symbol.Name]; ok {
		return fmt.Errorf("symbol '%s' already declared in %s scope at line %d", symbol.Name, s.Name(), existing.Line())
	}
	symbol.Scope = s
	s.Symbols[symbol.Name] = symbol
	s.order = append(s.order, symbol)
	return nil
}

// Lookup searches this scope and its ancestors. It does not mark the
// symbol used; reads do that explicitly.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if symbol, ok := scope.Symbols[name]; ok {
			return symbol
		}
	}
	return nil
}

// LookupLocal searches only this scope.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// IsGlobal returns true if this is the global scope.
func (s *Scope) IsGlobal() bool {
	return s.Kind == ScopeGlobal
}

// FindEnclosingFunction returns the nearest function scope, or nil.
func (s *Scope) FindEnclosingFunction() *Scope {
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.Kind == ScopeFunction {
			return scope
		}
	}
	return nil
}

// FindEnclosingLoop returns the nearest loop scope inside the current
// function, or nil.
func (s *Scope) FindEnclosingLoop() *Scope {
	for scope := s; scope != nil && scope.Kind != ScopeFunction; scope = scope.Parent {
		if scope.Kind == ScopeLoop {
			return scope
		}
	}
	return nil
}

// FindEnclosingLoopOrSwitch returns the nearest loop or switch scope inside
// the current function, or nil.
func (s *Scope) FindEnclosingLoopOrSwitch() *Scope {
	for scope := s; scope != nil && scope.Kind != ScopeFunction; scope = scope.Parent {
		if scope.Kind == ScopeLoop || scope.Kind == ScopeSwitch {
			return scope
		}
	}
	return nil
}

// LocalSymbols returns the symbols of this scope in declaration order.
func (s *Scope) LocalSymbols() []*Symbol {
	out := make([]*Symbol, len(s.order))
	copy(out, s.order)
	return out
}

// AllSymbols returns the symbols of this scope and all its descendants,
// scope by scope, depth first.
func (s *Scope) AllSymbols() []*Symbol {
	symbols := s.LocalSymbols()
	for _, child := range s.Children {
		symbols = append(symbols, child.AllSymbols()...)
	}
	return symbols
}

// UnusedSymbols returns the variables in this scope that were never read.
func (s *Scope) UnusedSymbols() []*Symbol {
	var unused []*Symbol
	for _, symbol := range s.order {
		if symbol.Kind == SymbolVariable && !symbol.Used {
			unused = append(unused, symbol)
		}
	}
	return unused
}

func (s *Scope) String() string {
	return fmt.Sprintf("%s scope (depth %d, %d symbols)", s.Name(), s.Depth, len(s.Symbols))
}

// DebugString returns the scope tree with its symbols, one per line.
func (s *Scope) DebugString() string {
	var sb strings.Builder
	s.debugStringIndent(&sb, 0)
	return sb.String()
}

func (s *Scope) debugStringIndent(sb *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	sb.WriteString(prefix + s.String() + "\n")
	for _, symbol := range s.order {
		sb.WriteString(prefix + "  " + symbol.String() + "\n")
	}
	for _, child := range s.Children {
		child.debugStringIndent(sb, indent+1)
	}
}
