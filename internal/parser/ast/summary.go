package ast

import (
	"strings"

	"github.com/hassan/ccompiler/internal/graph"
)

// Summarize lists the constructs of f as {type, value} elements, in source
// order, using the same element types as the interactive parser.
func Summarize(f *File) graph.Elements {
	var out graph.Elements
	add := func(typ, value string, n Node) {
		out = append(out, graph.Element{Type: typ, Value: value, Line: n.Pos().Line})
	}

	Inspect(f, func(n Node) bool {
		switch n := n.(type) {
		case *FuncDecl:
			if n.Body != nil {
				add(graph.ElementMethod, Signature(n), n)
			}
		case *VarDecl:
			for _, s := range n.Specs {
				v := s.Type.String() + " " + s.Name.Name
				if s.Init != nil {
					v += " = " + ExprString(s.Init)
				}
				add(graph.ElementVariable, v, s)
			}
		case *ExprStmt:
			if a, ok := n.Expression.(*AssignExpr); ok {
				add(graph.ElementAssignment, ExprString(a), n)
			}
		case *IfStmt:
			add(graph.ElementIf, "if ("+ExprString(n.Cond)+")", n)
			if n.Else != nil {
				out = append(out, graph.Element{Type: graph.ElementElse, Value: "else", Line: n.Else.Pos().Line})
			}
		case *WhileStmt:
			add(graph.ElementWhile, "while ("+ExprString(n.Cond)+")", n)
		case *DoWhileStmt:
			add(graph.ElementDoWhile, "do ... while ("+ExprString(n.Cond)+")", n)
		case *ForStmt:
			add(graph.ElementFor, "for ("+forClause(n)+")", n)
		case *SwitchStmt:
			add(graph.ElementSwitch, "switch ("+ExprString(n.Tag)+")", n)
		case *CaseClause:
			if n.IsDefault() {
				add(graph.ElementDefault, "default:", n)
			} else {
				add(graph.ElementCase, "case "+ExprString(n.Value)+":", n)
			}
		}
		return true
	})
	return out
}

// Signature renders "int name(int a, char* b)".
func Signature(fn *FuncDecl) string {
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		s := p.Type.String()
		if p.Name != nil {
			s += " " + p.Name.Name
		}
		params = append(params, s)
	}
	if fn.Variadic {
		params = append(params, "...")
	}
	return fn.ReturnType.String() + " " + fn.Name.Name + "(" + strings.Join(params, ", ") + ")"
}

func forClause(f *ForStmt) string {
	var init string
	switch s := f.Init.(type) {
	case *VarDecl:
		parts := make([]string, 0, len(s.Specs))
		for _, sp := range s.Specs {
			p := sp.Name.Name
			if sp.Init != nil {
				p += " = " + ExprString(sp.Init)
			}
			parts = append(parts, p)
		}
		init = s.Type.String() + " " + strings.Join(parts, ", ")
	case *ExprStmt:
		init = ExprString(s.Expression)
	}
	return init + "; " + ExprString(f.Cond) + "; " + ExprString(f.Post)
}
