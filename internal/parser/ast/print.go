package ast

import (
	"strings"
)

// binaryPrec orders binary operators from loosest to tightest binding.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// ExprString renders e as C source with single spaces around binary
// operators, adding parentheses only where precedence requires them.
func ExprString(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e, 0)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr, outer int) {
	switch n := e.(type) {
	case nil:
	case *Ident:
		b.WriteString(n.Name)
	case *Literal:
		b.WriteString(n.Value)
	case *BinaryExpr:
		p := binaryPrec[n.Op()]
		if p < outer {
			b.WriteByte('(')
		}
		writeExpr(b, n.Left, p)
		b.WriteString(" " + n.Op() + " ")
		writeExpr(b, n.Right, p+1)
		if p < outer {
			b.WriteByte(')')
		}
	case *UnaryExpr:
		if n.IsPostfix {
			writeExpr(b, n.Operand, 12)
			b.WriteString(n.Op())
			return
		}
		b.WriteString(n.Op())
		writeExpr(b, n.Operand, 11)
	case *AssignExpr:
		if outer > 0 {
			b.WriteByte('(')
		}
		writeExpr(b, n.Target, 0)
		b.WriteString(" " + n.Op() + " ")
		writeExpr(b, n.Value, 0)
		if outer > 0 {
			b.WriteByte(')')
		}
	case *CondExpr:
		if outer > 0 {
			b.WriteByte('(')
		}
		writeExpr(b, n.Cond, 1)
		b.WriteString(" ? ")
		writeExpr(b, n.Then, 0)
		b.WriteString(" : ")
		writeExpr(b, n.Else, 0)
		if outer > 0 {
			b.WriteByte(')')
		}
	case *CommaExpr:
		for i, x := range n.List {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, x, 0)
		}
	case *CallExpr:
		writeExpr(b, n.Callee, 12)
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a, 0)
		}
		b.WriteByte(')')
	case *IndexExpr:
		writeExpr(b, n.Object, 12)
		b.WriteByte('[')
		writeExpr(b, n.Index, 0)
		b.WriteByte(']')
	case *MemberExpr:
		writeExpr(b, n.Object, 12)
		if n.Arrow {
			b.WriteString("->")
		} else {
			b.WriteByte('.')
		}
		b.WriteString(n.Member.Name)
	case *CastExpr:
		b.WriteString("(" + n.Type.String() + ") ")
		writeExpr(b, n.Operand, 11)
	case *SizeofExpr:
		if n.Type != nil {
			b.WriteString("sizeof(" + n.Type.String() + ")")
			return
		}
		b.WriteString("sizeof ")
		writeExpr(b, n.Operand, 11)
	case *BadExpr:
		b.WriteString("<error>")
	}
}
