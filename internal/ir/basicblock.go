package ir

import (
	"strconv"
	"strings"
)

// BasicBlock is a straight-line run of instructions with one entry and one
// exit: only its first instruction may be a jump target, and only its last
// may transfer control.
//
// Successor and predecessor lists are kept in sync by AddSuccessor. Start
// is the index of the block's first instruction in the program it was cut
// from, so two views of the same program can be compared block by block.
type BasicBlock struct {
	// Label is the name of the LABEL heading the block, or "" when the block
	// starts after a jump or at the top of the program.
	Label string

	Instructions []Instruction

	Successors   []*BasicBlock
	Predecessors []*BasicBlock

	// Index is the position in the graph's block list.
	Index int

	Start int
}

// NewBasicBlock creates an empty block.
func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label}
}

// AddInstruction appends instr to the block.
func (bb *BasicBlock) AddInstruction(instr Instruction) {
	bb.Instructions = append(bb.Instructions, instr)
}

// AddSuccessor links bb to succ in both directions, ignoring duplicates.
func (bb *BasicBlock) AddSuccessor(succ *BasicBlock) {
	for _, s := range bb.Successors {
		if s == succ {
			return
		}
	}
	bb.Successors = append(bb.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, bb)
}

// Terminator returns the instruction that decides where control goes after
// the block: its last jump or return, skipping trailing FUNC_END markers
// and comments. It returns nil when the block falls through.
func (bb *BasicBlock) Terminator() *Instruction {
	for i := len(bb.Instructions) - 1; i >= 0; i-- {
		in := &bb.Instructions[i]
		switch {
		case in.Op == OpFuncEnd || in.Op == OpComment:
			continue
		case in.EndsBlock():
			return in
		}
		return nil
	}
	return nil
}

// FallsThrough reports whether control can run off the end of the block
// into the next one.
func (bb *BasicBlock) FallsThrough() bool {
	t := bb.Terminator()
	return t == nil || t.FallsThrough()
}

// Name returns the block's label, or B<index> for an unlabelled block.
func (bb *BasicBlock) Name() string {
	if bb.Label != "" {
		return bb.Label
	}
	return "B" + strconv.Itoa(bb.Index)
}

// String renders the block with its predecessors and instructions.
func (bb *BasicBlock) String() string {
	var sb strings.Builder

	sb.WriteString(bb.Name())
	sb.WriteString(":\n")

	if len(bb.Predecessors) > 0 {
		sb.WriteString("  ; predecessors: ")
		for i, pred := range bb.Predecessors {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(pred.Name())
		}
		sb.WriteString("\n")
	}

	for _, instr := range bb.Instructions {
		sb.WriteString("  ")
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}

	return sb.String()
}
