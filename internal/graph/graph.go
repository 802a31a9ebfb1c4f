// Package graph holds the program graph built by the interactive parser.
//
// Nodes live in an arena and are addressed by NodeID. Each node also has a
// string key (a variable name or a synthetic id such as "binexpr_4"); adding a
// node with a key that already exists updates that node instead of creating a
// second one, so synthetic keys must be unique per occurrence.
package graph

import (
	"fmt"
	"sort"
	"strings"
)

// NodeID addresses a node in a Graph. The zero value is never a valid id.
type NodeID int

// NoNode is returned by lookups that find nothing.
const NoNode NodeID = 0

// NodeKind tags what a node represents.
type NodeKind int

const (
	KindVariable NodeKind = iota + 1
	KindValue
	KindExpression
	KindBinaryExpr
	KindUnaryExpr
	KindOperand
	KindIfStatement
	KindCondition
	KindIfBody
	KindElseBody
	KindForLoop
	KindInitialization
	KindIncrement
	KindForBody
	KindWhileLoop
	KindWhileBody
	KindDoWhileLoop
	KindDoBody
	KindSwitchStatement
	KindCase
	KindDefaultCase
	KindMethod
	KindParameter
	KindMethodBody
	KindClass
	KindAttribute
)

var kindNames = map[NodeKind]string{
	KindVariable:        "variable",
	KindValue:           "value",
	KindExpression:      "expression",
	KindBinaryExpr:      "binary_expr",
	KindUnaryExpr:       "unary_expr",
	KindOperand:         "operand",
	KindIfStatement:     "if_statement",
	KindCondition:       "condition",
	KindIfBody:          "if_body",
	KindElseBody:        "else_body",
	KindForLoop:         "for_loop",
	KindInitialization:  "initialization",
	KindIncrement:       "increment",
	KindForBody:         "for_body",
	KindWhileLoop:       "while_loop",
	KindWhileBody:       "while_body",
	KindDoWhileLoop:     "do_while_loop",
	KindDoBody:          "do_body",
	KindSwitchStatement: "switch_statement",
	KindCase:            "case",
	KindDefaultCase:     "default_case",
	KindMethod:          "method",
	KindParameter:       "parameter",
	KindMethodBody:      "method_body",
	KindClass:           "class",
	KindAttribute:       "attribute",
}

func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// EdgeLabel names the relation an edge expresses.
type EdgeLabel int

const (
	LabelCondition EdgeLabel = iota + 1
	LabelThen
	LabelElse
	LabelLeft
	LabelRight
	LabelOperand
	LabelExpression
	LabelParameter
	LabelInherits
	LabelInitializedTo
	LabelAttribute
	LabelBody
	LabelInit
	LabelIncrement
	LabelCase
	LabelDefault
	// LabelAssign links a variable to the expression assigned to it; the
	// edge's Operator holds "=", "+=", ...
	LabelAssign
)

var labelNames = map[EdgeLabel]string{
	LabelCondition:     "condition",
	LabelThen:          "then",
	LabelElse:          "else",
	LabelLeft:          "left",
	LabelRight:         "right",
	LabelOperand:       "operand",
	LabelExpression:    "expression",
	LabelParameter:     "parameter",
	LabelInherits:      "inherits",
	LabelInitializedTo: "initialized_to",
	LabelAttribute:     "attribute",
	LabelBody:          "body",
	LabelInit:          "init",
	LabelIncrement:     "increment",
	LabelCase:          "case",
	LabelDefault:       "default",
	LabelAssign:        "assign",
}

func (l EdgeLabel) String() string {
	if s, ok := labelNames[l]; ok {
		return s
	}
	return "unknown"
}

// Node is one vertex of the program graph.
type Node struct {
	ID   NodeID
	Key  string
	Kind NodeKind

	// DataType is the declared type of a variable, parameter or attribute,
	// or the return type of a method.
	DataType string

	// Operator is set on binary and unary expression nodes.
	Operator string

	// Text is the source text of an expression, condition, loop clause or
	// case value.
	Text string

	// Name is the declared name of a parameter or attribute.
	Name string

	Line int
}

// Edge is a labelled, directed link between two nodes.
type Edge struct {
	From     NodeID
	To       NodeID
	Label    EdgeLabel
	Operator string
}

func (e Edge) String() string {
	if e.Label == LabelAssign {
		return e.Operator
	}
	return e.Label.String()
}

// Graph is an arena of nodes plus the edges between them.
type Graph struct {
	nodes []*Node
	keys  map[string]NodeID
	edges []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{keys: make(map[string]NodeID)}
}

// AddNode inserts a node under key and returns its id. If key is already
// present the existing node takes the new kind and any non-empty fields of n.
func (g *Graph) AddNode(key string, kind NodeKind, n Node) NodeID {
	if id, ok := g.keys[key]; ok {
		existing := g.nodes[id-1]
		existing.Kind = kind
		if n.DataType != "" {
			existing.DataType = n.DataType
		}
		if n.Operator != "" {
			existing.Operator = n.Operator
		}
		if n.Text != "" {
			existing.Text = n.Text
		}
		if n.Name != "" {
			existing.Name = n.Name
		}
		if n.Line != 0 {
			existing.Line = n.Line
		}
		return id
	}
	n.ID = NodeID(len(g.nodes) + 1)
	n.Key = key
	n.Kind = kind
	g.nodes = append(g.nodes, &n)
	g.keys[key] = n.ID
	return n.ID
}

// AddEdge links from to to. Adding the same (from, to) pair again replaces
// the earlier edge's label.
func (g *Graph) AddEdge(from, to NodeID, label EdgeLabel) {
	g.addEdge(Edge{From: from, To: to, Label: label})
}

// AddAssignEdge links a variable to the expression assigned with op.
func (g *Graph) AddAssignEdge(from, to NodeID, op string) {
	g.addEdge(Edge{From: from, To: to, Label: LabelAssign, Operator: op})
}

func (g *Graph) addEdge(e Edge) {
	for i := range g.edges {
		if g.edges[i].From == e.From && g.edges[i].To == e.To {
			g.edges[i] = e
			return
		}
	}
	g.edges = append(g.edges, e)
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	if id <= 0 || int(id) > len(g.nodes) {
		return nil
	}
	return g.nodes[id-1]
}

// Lookup finds a node by key.
func (g *Graph) Lookup(key string) (NodeID, bool) {
	id, ok := g.keys[key]
	return id, ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NodesOfKind returns the nodes of one kind in insertion order.
func (g *Graph) NodesOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Out returns the edges leaving id.
func (g *Graph) Out(id NodeID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Child returns the first node reached from id over an edge with label.
func (g *Graph) Child(id NodeID, label EdgeLabel) *Node {
	for _, e := range g.edges {
		if e.From == id && e.Label == label {
			return g.Node(e.To)
		}
	}
	return nil
}

// Children returns every node reached from id over edges with label.
func (g *Graph) Children(id NodeID, label EdgeLabel) []*Node {
	var out []*Node
	for _, e := range g.edges {
		if e.From == id && e.Label == label {
			out = append(out, g.Node(e.To))
		}
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// String renders one line per edge, "from -[label]-> to", sorted for stable
// output, followed by isolated nodes.
func (g *Graph) String() string {
	var lines []string
	linked := make(map[NodeID]bool)
	for _, e := range g.edges {
		from, to := g.Node(e.From), g.Node(e.To)
		lines = append(lines, fmt.Sprintf("%s(%s) -[%s]-> %s(%s)", from.Key, from.Kind, e, to.Key, to.Kind))
		linked[e.From], linked[e.To] = true, true
	}
	sort.Strings(lines)
	for _, n := range g.nodes {
		if !linked[n.ID] {
			lines = append(lines, fmt.Sprintf("%s(%s)", n.Key, n.Kind))
		}
	}
	return strings.Join(lines, "\n")
}
