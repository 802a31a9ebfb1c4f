// Package symtab implements symbol table management for name resolution and scoping.
//
// The table records every named entity of a C translation unit (variables,
// functions, parameters, classes and their attributes) in a tree of lexical
// scopes. Inner scopes shadow outer ones. A name may be declared only once
// per scope.
package symtab

import (
	"fmt"

	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/semantic/types"
)

// SymbolKind represents the kind of symbol.
type SymbolKind int

const (
	// SymbolVariable represents a variable (int x = 1;)
	SymbolVariable SymbolKind = iota

	// SymbolFunction represents a function or method
	SymbolFunction

	// SymbolParameter represents a function parameter
	SymbolParameter

	// SymbolClass represents a class declared in interactive mode
	SymbolClass

	// SymbolAttribute represents a class attribute
	SymbolAttribute
)

// String returns a human-readable representation of the symbol kind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolVariable:
		return "variable"
	case SymbolFunction:
		return "function"
	case SymbolParameter:
		return "parameter"
	case SymbolClass:
		return "class"
	case SymbolAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// Symbol represents a named entity in the program.
type Symbol struct {
	Name string
	Kind SymbolKind

	// Type is the declared type; for functions, the return type.
	Type types.Type

	// Pos is where the symbol was declared.
	Pos lexer.Position

	// Scope is the scope the symbol was declared in.
	Scope *Scope

	// Used is set on the first read reference.
	Used bool

	// Initialized is set when the declaration carries an initializer or the
	// symbol is a parameter.
	Initialized bool

	Constant bool

	// Params holds a function's parameters in order.
	Params []*Symbol

	// Variadic marks functions declared with a trailing "...".
	Variadic bool

	// Attributes holds a class's attributes in order.
	Attributes []*Symbol

	// Index is the declaration order within the whole table.
	Index int
}

// String returns a human-readable representation of the symbol.
func (s *Symbol) String() string {
	return fmt.Sprintf("%s %s: %s at %s", s.Kind, s.Name, s.Type, s.Pos)
}

// Line returns the declaration line.
func (s *Symbol) Line() int { return s.Pos.Line }

// ScopeName returns the name of the declaring scope ("global",
// "function:main", "class:Shape", "block").
func (s *Symbol) ScopeName() string {
	if s.Scope == nil {
		return "global"
	}
	return s.Scope.Name()
}

// IsGlobal returns true if this symbol is declared in global scope.
func (s *Symbol) IsGlobal() bool {
	return s.Scope != nil && s.Scope.Kind == ScopeGlobal
}

// IsLocal returns true if this symbol is declared inside a function.
func (s *Symbol) IsLocal() bool {
	return s.Scope != nil && s.Scope.FindEnclosingFunction() != nil
}

// CanAssign returns true if this symbol can appear on the left of '='.
func (s *Symbol) CanAssign() bool {
	switch s.Kind {
	case SymbolVariable, SymbolParameter, SymbolAttribute:
		return !s.Constant
	}
	return false
}

// MarkUsed marks this symbol as used.
func (s *Symbol) MarkUsed() {
	s.Used = true
}

// LookupAttribute finds an attribute of a class symbol.
func (s *Symbol) LookupAttribute(name string) *Symbol {
	if s.Kind != SymbolClass {
		return nil
	}
	for _, a := range s.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}
