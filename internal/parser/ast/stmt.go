package ast

import (
	"github.com/hassan/ccompiler/internal/lexer"
)

// BlockStmt is `{ ... }`.
type BlockStmt struct {
	LeftBrace  lexer.Token
	Statements []Stmt
	RightBrace lexer.Token
}

func (b *BlockStmt) Pos() lexer.Position { return b.LeftBrace.Position }
func (b *BlockStmt) Production() string  { return "compound_statement" }
func (b *BlockStmt) stmtNode()           {}

// ExprStmt is an expression followed by ';'. A nil Expression is the empty
// statement.
type ExprStmt struct {
	Semi       lexer.Token
	Expression Expr
}

func (e *ExprStmt) Pos() lexer.Position {
	if e.Expression != nil {
		return e.Expression.Pos()
	}
	return e.Semi.Position
}
func (e *ExprStmt) Production() string { return "expression_statement" }
func (e *ExprStmt) stmtNode()          {}

// IfStmt is `if (cond) then [else else]`.
type IfStmt struct {
	IfPos lexer.Position
	Cond  Expr
	Then  Stmt
	Else  Stmt
}

func (i *IfStmt) Pos() lexer.Position { return i.IfPos }
func (i *IfStmt) Production() string  { return "selection_statement" }
func (i *IfStmt) stmtNode()           {}

// SwitchStmt is `switch (tag) { case ...: ... default: ... }`.
type SwitchStmt struct {
	SwitchPos lexer.Position
	Tag       Expr
	Cases     []*CaseClause
}

func (s *SwitchStmt) Pos() lexer.Position { return s.SwitchPos }
func (s *SwitchStmt) Production() string  { return "selection_statement" }
func (s *SwitchStmt) stmtNode()           {}

// CaseClause is one `case value:` or `default:` label with the statements
// that follow it up to the next label.
type CaseClause struct {
	CasePos lexer.Position
	Value   Expr // nil for default
	Body    []Stmt
}

func (c *CaseClause) Pos() lexer.Position { return c.CasePos }
func (c *CaseClause) Production() string  { return "labeled_statement" }
func (c *CaseClause) stmtNode()           {}

// IsDefault reports whether the clause is the default label.
func (c *CaseClause) IsDefault() bool { return c.Value == nil }

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	WhilePos lexer.Position
	Cond     Expr
	Body     Stmt
}

func (w *WhileStmt) Pos() lexer.Position { return w.WhilePos }
func (w *WhileStmt) Production() string  { return "iteration_statement" }
func (w *WhileStmt) stmtNode()           {}

// DoWhileStmt is `do body while (cond);`.
type DoWhileStmt struct {
	DoPos lexer.Position
	Body  Stmt
	Cond  Expr
}

func (d *DoWhileStmt) Pos() lexer.Position { return d.DoPos }
func (d *DoWhileStmt) Production() string  { return "iteration_statement" }
func (d *DoWhileStmt) stmtNode()           {}

// ForStmt is `for (init; cond; post) body`. Init is a *VarDecl, an
// *ExprStmt or nil; Cond and Post may be nil.
type ForStmt struct {
	ForPos lexer.Position
	Init   Stmt
	Cond   Expr
	Post   Expr
	Body   Stmt
}

func (f *ForStmt) Pos() lexer.Position { return f.ForPos }
func (f *ForStmt) Production() string  { return "iteration_statement" }
func (f *ForStmt) stmtNode()           {}

// ReturnStmt is `return [value];`.
type ReturnStmt struct {
	ReturnPos lexer.Position
	Value     Expr
}

func (r *ReturnStmt) Pos() lexer.Position { return r.ReturnPos }
func (r *ReturnStmt) Production() string  { return "jump_statement" }
func (r *ReturnStmt) stmtNode()           {}

// BreakStmt is `break;`.
type BreakStmt struct {
	BreakPos lexer.Position
}

func (b *BreakStmt) Pos() lexer.Position { return b.BreakPos }
func (b *BreakStmt) Production() string  { return "jump_statement" }
func (b *BreakStmt) stmtNode()           {}

// ContinueStmt is `continue;`.
type ContinueStmt struct {
	ContinuePos lexer.Position
}

func (c *ContinueStmt) Pos() lexer.Position { return c.ContinuePos }
func (c *ContinueStmt) Production() string  { return "jump_statement" }
func (c *ContinueStmt) stmtNode()           {}

// GotoStmt is `goto label;`.
type GotoStmt struct {
	GotoPos lexer.Position
	Label   *Ident
}

func (g *GotoStmt) Pos() lexer.Position { return g.GotoPos }
func (g *GotoStmt) Production() string  { return "jump_statement" }
func (g *GotoStmt) stmtNode()           {}

// LabeledStmt is `label: stmt`.
type LabeledStmt struct {
	Label *Ident
	Stmt  Stmt
}

func (l *LabeledStmt) Pos() lexer.Position { return l.Label.Pos() }
func (l *LabeledStmt) Production() string  { return "labeled_statement" }
func (l *LabeledStmt) stmtNode()           {}

// BadStmt stands in for a statement that failed to parse.
type BadStmt struct {
	From lexer.Position
}

func (b *BadStmt) Pos() lexer.Position { return b.From }
func (b *BadStmt) Production() string  { return "error" }
func (b *BadStmt) stmtNode()           {}
func (b *BadStmt) declNode()           {}

// VarDecl declares one or more variables sharing a base type:
// `int a = 1, *p, buf[10];`. It is both a top-level declaration and a
// block statement.
type VarDecl struct {
	Type  *TypeSpec
	Specs []*VarSpec
}

func (v *VarDecl) Pos() lexer.Position { return v.Type.Pos() }
func (v *VarDecl) Production() string  { return "declaration" }
func (v *VarDecl) stmtNode()           {}
func (v *VarDecl) declNode()           {}

// VarSpec is one declarator of a VarDecl.
type VarSpec struct {
	Name *Ident

	// Type is the base type with this declarator's pointer depth applied.
	Type *TypeSpec

	// ArrayLen is set for `name[len]`; Array marks `name[]` too.
	Array    bool
	ArrayLen Expr

	Init Expr

	// InitList holds a brace initializer `{1, 2, 3}`.
	InitList []Expr
}

func (v *VarSpec) Pos() lexer.Position { return v.Name.Pos() }
func (v *VarSpec) Production() string  { return "init_declarator" }

// Param is one function parameter. Name is nil for unnamed parameters.
type Param struct {
	Type *TypeSpec
	Name *Ident
}

func (p *Param) Pos() lexer.Position { return p.Type.Pos() }
func (p *Param) Production() string  { return "parameter_declaration" }

// FuncDecl is a function definition, or a prototype when Body is nil.
type FuncDecl struct {
	ReturnType *TypeSpec
	Name       *Ident
	Params     []*Param
	Variadic   bool
	Body       *BlockStmt
}

func (f *FuncDecl) Pos() lexer.Position { return f.ReturnType.Pos() }
func (f *FuncDecl) Production() string {
	if f.Body == nil {
		return "declaration"
	}
	return "function_definition"
}
func (f *FuncDecl) declNode() {}
