package graph

import (
	"strings"
	"testing"
)

func TestGraph_AddNodeMergesByKey(t *testing.T) {
	g := New()
	a := g.AddNode("x", KindVariable, Node{DataType: "int", Line: 1})
	b := g.AddNode("x", KindOperand, Node{})

	if a != b {
		t.Fatalf("AddNode with the same key returned %d and %d, want one id", a, b)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
	n := g.Node(a)
	if n.Kind != KindOperand {
		t.Errorf("Kind = %v, want operand", n.Kind)
	}
	if n.DataType != "int" || n.Line != 1 {
		t.Errorf("merge lost fields: %+v", *n)
	}
}

func TestGraph_Edges(t *testing.T) {
	g := New()
	ifID := g.AddNode("if_5", KindIfStatement, Node{})
	cond := g.AddNode("cond_5", KindCondition, Node{Text: "x > 0"})
	then := g.AddNode("body_6", KindIfBody, Node{})
	g.AddEdge(ifID, cond, LabelCondition)
	g.AddEdge(ifID, then, LabelThen)

	if got := g.Child(ifID, LabelCondition); got == nil || got.Text != "x > 0" {
		t.Errorf("Child(condition) = %v, want the condition node", got)
	}
	if got := g.Child(ifID, LabelElse); got != nil {
		t.Errorf("Child(else) = %v, want nil", got)
	}
	if got := len(g.Out(ifID)); got != 2 {
		t.Errorf("len(Out) = %d, want 2", got)
	}

	g.AddEdge(ifID, then, LabelBody)
	if got := len(g.Edges()); got != 2 {
		t.Errorf("re-adding an edge should replace it, have %d edges", got)
	}
}

func TestGraph_AssignEdgeRendersOperator(t *testing.T) {
	g := New()
	v := g.AddNode("x", KindVariable, Node{})
	e := g.AddNode("expr_0", KindExpression, Node{Text: "a + b"})
	g.AddAssignEdge(v, e, "+=")

	out := g.String()
	if !strings.Contains(out, "x(variable) -[+=]-> expr_0(expression)") {
		t.Errorf("String() = %q", out)
	}
}

func TestGraph_Lookup(t *testing.T) {
	g := New()
	id := g.AddNode("Shape", KindClass, Node{})
	if got, ok := g.Lookup("Shape"); !ok || got != id {
		t.Errorf("Lookup(Shape) = %d, %v", got, ok)
	}
	if _, ok := g.Lookup("Circle"); ok {
		t.Error("Lookup(Circle) should fail")
	}
	if g.Node(NoNode) != nil || g.Node(99) != nil {
		t.Error("Node() with an invalid id should be nil")
	}
}

func TestNodeKindAndLabelNames(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{KindBinaryExpr.String(), "binary_expr"},
		{KindDoWhileLoop.String(), "do_while_loop"},
		{NodeKind(999).String(), "unknown"},
		{LabelInitializedTo.String(), "initialized_to"},
		{LabelInherits.String(), "inherits"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestElements_MarkNested(t *testing.T) {
	es := Elements{
		{Type: ElementMethod, Start: 0, End: 20},
		{Type: ElementVariable, Start: 6, End: 11},
		{Type: ElementVariable, Start: 21, End: 25},
		{Type: ElementAssignment, Start: 21, End: 25},
	}
	es.MarkNested()

	want := []bool{false, true, false, true}
	for i, w := range want {
		if es[i].Nested != w {
			t.Errorf("element %d Nested = %v, want %v", i, es[i].Nested, w)
		}
	}
	if got := len(es.TopLevel()); got != 2 {
		t.Errorf("len(TopLevel()) = %d, want 2", got)
	}
	if got := es.Count(ElementVariable); got != 2 {
		t.Errorf("Count(Variable) = %d, want 2", got)
	}
}
