package ast

import (
	"github.com/hassan/ccompiler/internal/lexer"
)

// Ident is a name reference.
type Ident struct {
	Token lexer.Token
	Name  string
}

func (i *Ident) Pos() lexer.Position { return i.Token.Position }
func (i *Ident) Production() string  { return "primary_expression" }
func (i *Ident) exprNode()           {}

// LiteralKind classifies literal values.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitChar
	LitString
	LitBool
	LitNull
)

// Literal is a constant written in the source. Value keeps the exact
// source text, quotes included.
type Literal struct {
	Token lexer.Token
	Kind  LiteralKind
	Value string
}

func (l *Literal) Pos() lexer.Position { return l.Token.Position }
func (l *Literal) Production() string {
	if l.Kind == LitString {
		return "string_literal"
	}
	return "constant"
}
func (l *Literal) exprNode() {}

// BinaryExpr is a two-operand operation, including && and ||.
type BinaryExpr struct {
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

func (b *BinaryExpr) Pos() lexer.Position { return b.Left.Pos() }
func (b *BinaryExpr) exprNode()           {}

// Production names the precedence level the operator belongs to.
func (b *BinaryExpr) Production() string {
	switch b.Operator.Type {
	case lexer.TokenLOr:
		return "logical_or_expression"
	case lexer.TokenLAnd:
		return "logical_and_expression"
	case lexer.TokenOr:
		return "inclusive_or_expression"
	case lexer.TokenXor:
		return "exclusive_or_expression"
	case lexer.TokenAnd:
		return "and_expression"
	case lexer.TokenEQ, lexer.TokenNE:
		return "equality_expression"
	case lexer.TokenLT, lexer.TokenLE, lexer.TokenGT, lexer.TokenGE:
		return "relational_expression"
	case lexer.TokenLShift, lexer.TokenRShift:
		return "shift_expression"
	case lexer.TokenPlus, lexer.TokenMinus:
		return "additive_expression"
	default:
		return "multiplicative_expression"
	}
}

// Op returns the operator spelling.
func (b *BinaryExpr) Op() string { return b.Operator.Lexeme }

// UnaryExpr is a prefix or postfix operator applied to one operand:
// - + ! ~ * & ++ --.
type UnaryExpr struct {
	Operator  lexer.Token
	Operand   Expr
	IsPostfix bool
}

func (u *UnaryExpr) Pos() lexer.Position {
	if u.IsPostfix {
		return u.Operand.Pos()
	}
	return u.Operator.Position
}

func (u *UnaryExpr) Production() string {
	if u.IsPostfix {
		return "postfix_expression"
	}
	return "unary_expression"
}
func (u *UnaryExpr) exprNode() {}

// Op returns the operator spelling.
func (u *UnaryExpr) Op() string { return u.Operator.Lexeme }

// AssignExpr is `target op value` where op is = or a compound assignment.
type AssignExpr struct {
	Target   Expr
	Operator lexer.Token
	Value    Expr
}

func (a *AssignExpr) Pos() lexer.Position { return a.Target.Pos() }
func (a *AssignExpr) Production() string  { return "assignment_expression" }
func (a *AssignExpr) exprNode()           {}

// Op returns the operator spelling.
func (a *AssignExpr) Op() string { return a.Operator.Lexeme }

// IsCompound reports whether the assignment is +=, -=, ...
func (a *AssignExpr) IsCompound() bool { return a.Operator.Type != lexer.TokenEquals }

// BaseOp returns the arithmetic operator of a compound assignment
// ("+" for "+="), or "" for plain assignment.
func (a *AssignExpr) BaseOp() string {
	if !a.IsCompound() {
		return ""
	}
	op := a.Operator.Lexeme
	return op[:len(op)-1]
}

// CondExpr is the ternary `cond ? then : else`.
type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (c *CondExpr) Pos() lexer.Position { return c.Cond.Pos() }
func (c *CondExpr) Production() string  { return "conditional_expression" }
func (c *CondExpr) exprNode()           {}

// CommaExpr evaluates each expression in turn and yields the last.
type CommaExpr struct {
	List []Expr
}

func (c *CommaExpr) Pos() lexer.Position { return c.List[0].Pos() }
func (c *CommaExpr) Production() string  { return "expression" }
func (c *CommaExpr) exprNode()           {}

// CallExpr is a function call.
type CallExpr struct {
	Callee    Expr
	LeftParen lexer.Token
	Args      []Expr
}

func (c *CallExpr) Pos() lexer.Position { return c.Callee.Pos() }
func (c *CallExpr) Production() string  { return "postfix_expression" }
func (c *CallExpr) exprNode()           {}

// Name returns the callee name when the callee is a plain identifier.
func (c *CallExpr) Name() string {
	if id, ok := c.Callee.(*Ident); ok {
		return id.Name
	}
	return ""
}

// IndexExpr is `object[index]`.
type IndexExpr struct {
	Object Expr
	Index  Expr
}

func (i *IndexExpr) Pos() lexer.Position { return i.Object.Pos() }
func (i *IndexExpr) Production() string  { return "postfix_expression" }
func (i *IndexExpr) exprNode()           {}

// MemberExpr is `object.member` or, with Arrow set, `object->member`.
type MemberExpr struct {
	Object Expr
	Member *Ident
	Arrow  bool
}

func (m *MemberExpr) Pos() lexer.Position { return m.Object.Pos() }
func (m *MemberExpr) Production() string  { return "postfix_expression" }
func (m *MemberExpr) exprNode()           {}

// CastExpr is `(type) operand`.
type CastExpr struct {
	LeftParen lexer.Token
	Type      *TypeSpec
	Operand   Expr
}

func (c *CastExpr) Pos() lexer.Position { return c.LeftParen.Position }
func (c *CastExpr) Production() string  { return "cast_expression" }
func (c *CastExpr) exprNode()           {}

// SizeofExpr is `sizeof expr` or `sizeof(type)`; exactly one of Operand and
// Type is set.
type SizeofExpr struct {
	SizeofPos lexer.Position
	Operand   Expr
	Type      *TypeSpec
}

func (s *SizeofExpr) Pos() lexer.Position { return s.SizeofPos }
func (s *SizeofExpr) Production() string  { return "unary_expression" }
func (s *SizeofExpr) exprNode()           {}

// BadExpr stands in for an expression that failed to parse.
type BadExpr struct {
	At lexer.Position
}

func (b *BadExpr) Pos() lexer.Position { return b.At }
func (b *BadExpr) Production() string  { return "error" }
func (b *BadExpr) exprNode()           {}
