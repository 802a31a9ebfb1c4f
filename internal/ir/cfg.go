package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
)

// CFG is the control-flow graph of a program. It owns its blocks; Entry is
// the first block and Exit the first block without successors.
//
// Two builders produce it: BuildCFG cuts a finished program at its leaders,
// and CFGBuilder grows the graph one instruction at a time while code is
// emitted. Both follow the same rules, so their results compare Equal:
//
//   - every LABEL starts a block;
//   - the instruction after a GOTO, IF_FALSE_GOTO, IF_TRUE_GOTO or RETURN
//     starts a block, except FUNC_END, which stays with the block it closes;
//   - a block that does not end in GOTO or RETURN falls through to the next;
//   - a block ending in a jump is linked to the block its label heads.
type CFG struct {
	Blocks []*BasicBlock
	Entry  *BasicBlock
	Exit   *BasicBlock

	// Unresolved lists jump targets that name no LABEL.
	Unresolved []string
}

// BuildCFG derives the graph from the leaders of prog.
func BuildCFG(prog Program) *CFG {
	cfg := &CFG{}
	if len(prog) == 0 {
		return cfg
	}

	leaders := map[int]bool{0: true}
	for i, in := range prog {
		switch {
		case in.Op == OpLabel:
			leaders[i] = true
		case in.EndsBlock():
			j := i + 1
			for j < len(prog) && prog[j].Op == OpFuncEnd {
				j++
			}
			if j < len(prog) {
				leaders[j] = true
			}
		}
	}
	starts := make([]int, 0, len(leaders))
	for i := range leaders {
		starts = append(starts, i)
	}
	sort.Ints(starts)

	for k, start := range starts {
		end := len(prog)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		label := ""
		if prog[start].Op == OpLabel {
			label = prog[start].Arg1
		}
		b := cfg.newBlock(label, start)
		b.Instructions = append(b.Instructions, prog[start:end]...)
	}

	for k, b := range cfg.Blocks {
		if b.FallsThrough() && k+1 < len(cfg.Blocks) {
			b.AddSuccessor(cfg.Blocks[k+1])
		}
		if t := b.Terminator(); t != nil && t.IsJump() {
			cfg.link(b, t.Target())
		}
	}
	cfg.finish()
	return cfg
}

func (c *CFG) newBlock(label string, start int) *BasicBlock {
	b := NewBasicBlock(label)
	b.Index = len(c.Blocks)
	b.Start = start
	c.Blocks = append(c.Blocks, b)
	return b
}

func (c *CFG) link(from *BasicBlock, label string) {
	if to := c.Block(label); to != nil {
		from.AddSuccessor(to)
		return
	}
	c.Unresolved = append(c.Unresolved, label)
}

func (c *CFG) finish() {
	if len(c.Blocks) == 0 {
		return
	}
	c.Entry = c.Blocks[0]
	c.Exit = nil
	for _, b := range c.Blocks {
		if len(b.Successors) == 0 {
			c.Exit = b
			break
		}
	}
}

// Block returns the block headed by LABEL label, or nil.
func (c *CFG) Block(label string) *BasicBlock {
	for _, b := range c.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Reachable returns the blocks reachable from Entry in discovery order.
func (c *CFG) Reachable() []*BasicBlock {
	if c.Entry == nil {
		return nil
	}
	seen := map[*BasicBlock]bool{c.Entry: true}
	queue := []*BasicBlock{c.Entry}
	for i := 0; i < len(queue); i++ {
		for _, s := range queue[i].Successors {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return queue
}

// Equal reports whether two graphs have the same block boundaries, labels
// and edges.
func (c *CFG) Equal(other *CFG) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.Blocks) != len(other.Blocks) {
		return false
	}
	for i, a := range c.Blocks {
		b := other.Blocks[i]
		if a.Start != b.Start || a.Label != b.Label || len(a.Instructions) != len(b.Instructions) {
			return false
		}
		if !sameIndices(a.Successors, b.Successors) || !sameIndices(a.Predecessors, b.Predecessors) {
			return false
		}
	}
	return true
}

func sameIndices(a, b []*BasicBlock) bool {
	if len(a) != len(b) {
		return false
	}
	ia, ib := indices(a), indices(b)
	for i := range ia {
		if ia[i] != ib[i] {
			return false
		}
	}
	return true
}

func indices(bs []*BasicBlock) []int {
	out := make([]int, len(bs))
	for i, b := range bs {
		out[i] = b.Index
	}
	sort.Ints(out)
	return out
}

// Verify reports internal defects: jumps to labels that do not exist and
// labels heading more than one block.
func (c *CFG) Verify() diag.List {
	var diags diag.List
	for _, label := range c.Unresolved {
		diags = append(diags, diag.Errorf(diag.KindInternal, 0, 0, "jump target '%s' does not resolve to a label", label).
			WithCode("unresolved-label"))
	}
	owners := make(map[string]int)
	for _, b := range c.Blocks {
		if b.Label != "" {
			owners[b.Label]++
		}
	}
	labels := make([]string, 0, len(owners))
	for l, n := range owners {
		if n > 1 {
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	for _, l := range labels {
		diags = append(diags, diag.Errorf(diag.KindInternal, 0, 0, "label '%s' heads %d blocks", l, owners[l]).
			WithCode("duplicate-label"))
	}
	return diags
}

// String renders every block with its successors.
func (c *CFG) String() string {
	var sb strings.Builder
	for _, b := range c.Blocks {
		sb.WriteString(b.String())
		if len(b.Successors) > 0 {
			names := make([]string, len(b.Successors))
			for i, s := range b.Successors {
				names[i] = s.Name()
			}
			fmt.Fprintf(&sb, "  ; successors: %s\n", strings.Join(names, ", "))
		}
	}
	return sb.String()
}

// CFGBuilder grows a CFG as instructions are emitted.
type CFGBuilder struct {
	cfg *CFG

	// cur is the open block; nil after a jump or return until the next
	// instruction arrives.
	cur  *BasicBlock
	last *BasicBlock
	n    int

	pending []pendingEdge
}

type pendingEdge struct {
	from  *BasicBlock
	label string
}

// NewCFGBuilder returns an empty builder.
func NewCFGBuilder() *CFGBuilder {
	return &CFGBuilder{cfg: &CFG{}}
}

// Add appends one instruction to the graph.
func (b *CFGBuilder) Add(in Instruction) {
	idx := b.n
	b.n++

	if in.Op == OpFuncEnd && b.cur == nil && b.last != nil {
		b.last.AddInstruction(in)
		return
	}
	if in.Op == OpLabel || b.cur == nil {
		label := ""
		if in.Op == OpLabel {
			label = in.Arg1
		}
		blk := b.cfg.newBlock(label, idx)
		if b.last != nil && b.last.FallsThrough() {
			b.last.AddSuccessor(blk)
		}
		b.cur, b.last = blk, blk
	}
	b.cur.AddInstruction(in)
	if in.EndsBlock() {
		if in.IsJump() {
			b.pending = append(b.pending, pendingEdge{from: b.cur, label: in.Target()})
		}
		b.cur = nil
	}
}

// Finish resolves jump targets and returns the graph.
func (b *CFGBuilder) Finish() *CFG {
	for _, e := range b.pending {
		b.cfg.link(e.from, e.label)
	}
	b.pending = nil
	b.cfg.finish()
	return b.cfg
}
