// Package ast defines the syntax tree built by the grammar-mode parser.
//
// Every node reports the name of the grammar production it was built from
// (translation_unit, function_definition, selection_statement, ...) so tree
// dumps read like the C grammar. Parents own their children and the tree is
// acyclic.
package ast

import (
	"github.com/hassan/ccompiler/internal/lexer"
)

// Node is implemented by every syntax tree node.
type Node interface {
	// Pos returns the position of the node's first token.
	Pos() lexer.Position

	// Production returns the grammar production name of the node.
	Production() string
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// File is the root of a parsed translation unit.
type File struct {
	// Directives holds preprocessor lines. They are kept but not expanded.
	Directives []lexer.Token

	Decls []Decl

	Filename string
}

func (f *File) Pos() lexer.Position {
	if len(f.Decls) > 0 {
		return f.Decls[0].Pos()
	}
	return lexer.Position{Filename: f.Filename, Line: 1, Column: 1}
}

func (f *File) Production() string { return "translation_unit" }

// Functions returns the function definitions of the file in source order.
func (f *File) Functions() []*FuncDecl {
	var out []*FuncDecl
	for _, d := range f.Decls {
		if fn, ok := d.(*FuncDecl); ok && fn.Body != nil {
			out = append(out, fn)
		}
	}
	return out
}

// TypeSpec is a declaration's type: qualifiers, base type and pointer depth.
type TypeSpec struct {
	TypePos lexer.Position

	// Qualifiers holds storage classes and qualifiers in source order
	// (static, const, unsigned, ...). Signedness words are folded into Name.
	Qualifiers []string

	// Name is the base type, e.g. "int", "unsigned long", "char", "bool".
	Name string

	Pointer int
}

func (t *TypeSpec) Pos() lexer.Position { return t.TypePos }
func (t *TypeSpec) Production() string  { return "declaration_specifiers" }

// String renders the type the way the type checker names it: "int",
// "char*", "const char*".
func (t *TypeSpec) String() string {
	s := t.Name
	for _, q := range t.Qualifiers {
		if q == "const" {
			s = "const " + s
			break
		}
	}
	for i := 0; i < t.Pointer; i++ {
		s += "*"
	}
	return s
}

// WithPointer returns a copy of t with extra levels of indirection.
func (t *TypeSpec) WithPointer(n int) *TypeSpec {
	c := *t
	c.Qualifiers = append([]string(nil), t.Qualifiers...)
	c.Pointer += n
	return &c
}

// IsVoid reports whether t is plain void.
func (t *TypeSpec) IsVoid() bool {
	return t != nil && t.Name == "void" && t.Pointer == 0
}
