package semantic

import (
	"strconv"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/parser/ast"
)

// Overflow heuristics: both literal operands above the threshold.
const (
	addOverflowThreshold = 1_000_000
	mulOverflowThreshold = 1_000
)

// VerifyExpressions reports division by a literal zero, literal sums and
// products likely to overflow int, and self-assignment.
func (a *Analyzer) VerifyExpressions(file *ast.File) diag.List {
	if file == nil {
		return nil
	}
	v := &verifier{src: a.src}
	ast.Inspect(file, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.BinaryExpr:
			right, rok := literalNumber(e.Right)
			left, lok := literalNumber(e.Left)
			v.binary(e.Pos(), ast.ExprString(e), e.Op(), left, lok, right, rok)
		case *ast.AssignExpr:
			if e.IsCompound() {
				if right, ok := literalNumber(e.Value); ok && (e.BaseOp() == "/" || e.BaseOp() == "%") && right == 0 {
					v.divisionByZero(e.Pos(), ast.ExprString(e))
				}
				break
			}
			t, tok := e.Target.(*ast.Ident)
			s, sok := e.Value.(*ast.Ident)
			if tok && sok && t.Name == s.Name {
				v.selfAssignment(e.Pos(), t.Name)
			}
		}
		return true
	})
	return v.diags
}

// VerifyControlFlow reports if, while and for statements whose condition is
// a constant, and conditions that are a plain '=' assignment.
func (a *Analyzer) VerifyControlFlow(file *ast.File) diag.List {
	if file == nil {
		return nil
	}
	v := &verifier{src: a.src}
	ast.Inspect(file, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.IfStmt:
			v.condition("if", s.Cond)
		case *ast.WhileStmt:
			v.condition("while", s.Cond)
		case *ast.ForStmt:
			v.condition("for", s.Cond)
		case *ast.DoWhileStmt:
			v.assignmentInCondition("do-while", s.Cond)
		}
		return true
	})
	return v.diags
}

func (v *verifier) condition(keyword string, cond ast.Expr) {
	if cond == nil {
		return
	}
	if lit, ok := cond.(*ast.Literal); ok {
		if value, ok := constantCondition(lit.Value); ok {
			v.constantCondition(cond.Pos(), keyword, value)
		}
		return
	}
	v.assignmentInCondition(keyword, cond)
}

func (v *verifier) assignmentInCondition(keyword string, cond ast.Expr) {
	if as, ok := cond.(*ast.AssignExpr); ok && !as.IsCompound() {
		v.assignInCond(as.Pos(), keyword, ast.ExprString(as))
	}
}

// verifier holds the diagnostics shared by the tree and graph checks.
type verifier struct {
	src   *diag.Source
	diags diag.List
}

func (v *verifier) add(d diag.Diagnostic, suggestion string) {
	v.diags = append(v.diags, d.WithSuggestion(suggestion).WithExcerpt(v.src))
}

// binary applies the literal-operand checks to `left op right`.
func (v *verifier) binary(pos lexer.Position, text, op string, left float64, lok bool, right float64, rok bool) {
	switch {
	case (op == "/" || op == "%") && rok && right == 0:
		v.divisionByZero(pos, text)
	case op == "+" && lok && rok && left > addOverflowThreshold && right > addOverflowThreshold:
		v.overflow(pos, text)
	case op == "*" && lok && rok && left > mulOverflowThreshold && right > mulOverflowThreshold:
		v.overflow(pos, text)
	}
}

func (v *verifier) divisionByZero(pos lexer.Position, text string) {
	v.add(diag.Errorf(diag.KindSemantic, pos.Line, pos.Column, "division by zero in '%s'", text).
		WithCode(CodeDivisionByZero), "make sure the divisor can never be zero")
}

func (v *verifier) overflow(pos lexer.Position, text string) {
	v.add(diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, "possible integer overflow in '%s'", text).
		WithCode(CodeOverflow), "use a wider type such as 'long long' or check the operands first")
}

func (v *verifier) selfAssignment(pos lexer.Position, name string) {
	v.add(diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, "variable '%s' is assigned to itself", name).
		WithCode(CodeSelfAssignment), "remove the assignment or assign a different value")
}

func (v *verifier) constantCondition(pos lexer.Position, keyword string, value bool) {
	var d diag.Diagnostic
	var hint string
	switch {
	case keyword == "if" && value:
		d = diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, "condition of 'if' is always true")
		hint = "the else branch can never run; remove the test"
	case keyword == "if":
		d = diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, "condition of 'if' is always false")
		hint = "the body can never run; remove it or fix the condition"
	case value:
		d = diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, "possible infinite loop: condition of '%s' is always true", keyword)
		hint = "make sure the body leaves the loop with break or return"
	default:
		d = diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, "body of '%s' never executes: condition is always false", keyword)
		hint = "remove the loop or fix the condition"
	}
	v.add(d.WithCode(CodeConstantCond), hint)
}

func (v *verifier) assignInCond(pos lexer.Position, keyword, text string) {
	v.add(diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, "assignment '%s' used as the condition of '%s'", text, keyword).
		WithCode(CodeAssignmentInCond), "did you mean '=='?")
}

// constantCondition reports the truth value of a condition spelled as a
// constant: true, false, 0 or 1.
func constantCondition(text string) (value, ok bool) {
	switch strings.TrimSpace(text) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// literalNumber returns the value of an integer or floating literal,
// looking through a leading minus.
func literalNumber(e ast.Expr) (float64, bool) {
	switch n := e.(type) {
	case *ast.Literal:
		if n.Kind != ast.LitInt && n.Kind != ast.LitFloat {
			return 0, false
		}
		return parseNumber(n.Value)
	case *ast.UnaryExpr:
		if n.Op() == "-" && !n.IsPostfix {
			if v, ok := literalNumber(n.Operand); ok {
				return -v, true
			}
		}
	}
	return 0, false
}

// parseNumber reads a C numeric literal, suffixes and hex included.
func parseNumber(text string) (float64, bool) {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseUint(strings.TrimRight(t[2:], "uUlL"), 16, 64)
		return float64(n), err == nil
	}
	t = strings.TrimRight(t, "uUlLfF")
	f, err := strconv.ParseFloat(t, 64)
	return f, err == nil
}
