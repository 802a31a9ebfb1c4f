package graph

// Element types reported by both parser modes.
const (
	ElementVariable   = "Variable Declaration"
	ElementAssignment = "Assignment Expression"
	ElementBinary     = "Binary Expression"
	ElementUnary      = "Unary Expression"
	ElementIf         = "If Statement"
	ElementElse       = "Else Statement"
	ElementFor        = "For Loop"
	ElementWhile      = "While Loop"
	ElementDoWhile    = "Do-While Loop"
	ElementSwitch     = "Switch Statement"
	ElementCase       = "Case"
	ElementDefault    = "Default Case"
	ElementMethod     = "Method Declaration"
	ElementClass      = "Class Declaration"
	ElementAttribute  = "Class Attribute"
)

// Element is a flat {type, value} summary of one recognised construct.
type Element struct {
	Type  string
	Value string
	Line  int

	// Node is the graph node the element produced, or NoNode.
	Node NodeID

	// Start and End delimit the element's tokens, [Start, End).
	Start int
	End   int

	// Nested is set when the element lies inside the span of an earlier
	// element, e.g. a declaration inside a method body.
	Nested bool
}

// Elements is an ordered element list.
type Elements []Element

// OfType returns the elements with the given type.
func (es Elements) OfType(typ string) Elements {
	var out Elements
	for _, e := range es {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many elements have the given type.
func (es Elements) Count(typ string) int {
	return len(es.OfType(typ))
}

// MarkNested flags every element whose token span lies inside the span of
// another element that starts earlier or encloses it.
func (es Elements) MarkNested() {
	for i := range es {
		es[i].Nested = false
		for j := range es {
			if i == j || es[j].End <= es[j].Start {
				continue
			}
			inside := es[i].Start >= es[j].Start && es[i].End <= es[j].End
			strictly := es[i].Start > es[j].Start || es[i].End < es[j].End || j < i
			if inside && strictly {
				es[i].Nested = true
				break
			}
		}
	}
}

// TopLevel returns the elements that are not nested.
func (es Elements) TopLevel() Elements {
	var out Elements
	for _, e := range es {
		if !e.Nested {
			out = append(out, e)
		}
	}
	return out
}
