// Package ir implements the intermediate representation of the compiler:
// three-address code (TAC) over named operands.
//
// Every instruction has an opcode and up to three operand slots, and renders
// to one canonical line of text:
//
//	t0 = a + b
//	x = t0
//	IF_FALSE_GOTO t1, L2
//	t2 = CALL add, 2
//
// Operands are plain strings: variable names, temporaries (t0, t1, ...) and
// literals. The text form can be parsed back with Parse, so passes may work
// on either form.
//
// Basic blocks and the control-flow graph live in cfg.go; lowering from the
// syntax tree and from the program graph lives in builder.go and graphgen.go.
package ir

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Opcode identifies the operation an instruction performs.
type Opcode int

const (
	OpInvalid Opcode = iota

	// OpAssign copies Arg1 into Result.
	OpAssign

	// Binary operators: Result = Arg1 op Arg2.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	// Unary operators: Result = op Arg1.
	OpNeg
	OpNot
	OpBitNot
	OpAddr
	OpDeref

	OpSizeof    // Result = SIZEOF Arg1
	OpCast      // Result = CAST Arg1, Arg2 (type)
	OpIndex     // Result = Arg1[Arg2]
	OpMember    // Result = Arg1.Arg2
	OpPtrMember // Result = Arg1->Arg2
	OpString    // Result = STRING Arg1 (quoted)
	OpCall      // [Result =] CALL Arg1, Arg2 (argument count)

	// Stores through an lvalue that is not a plain name.
	OpStore          // *Result = Arg1
	OpIndexStore     // Result[Arg1] = Arg2
	OpMemberStore    // Result.Arg1 = Arg2
	OpPtrMemberStore // Result->Arg1 = Arg2

	OpLabel        // LABEL Arg1
	OpGoto         // GOTO Arg1
	OpIfFalseGoto  // IF_FALSE_GOTO Arg1, Arg2 (condition, label)
	OpIfTrueGoto   // IF_TRUE_GOTO Arg1, Arg2
	OpReturn       // RETURN [Arg1]
	OpParam        // PARAM Arg1
	OpDecl         // DECL Arg1 (type) Arg2 (name)
	OpFuncBegin    // FUNC_BEGIN Arg1
	OpFuncEnd      // FUNC_END Arg1
	OpCheckDivZero // CHECK_DIVZERO Arg1
	OpComment      // # Arg1
)

var binarySymbols = map[Opcode]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpEq:     "==",
	OpNe:     "!=",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpAnd:    "&&",
	OpOr:     "||",
	OpBitAnd: "&",
	OpBitOr:  "|",
	OpBitXor: "^",
	OpShl:    "<<",
	OpShr:    ">>",
}

var unarySymbols = map[Opcode]string{
	OpNeg:    "-",
	OpNot:    "!",
	OpBitNot: "~",
	OpAddr:   "&",
	OpDeref:  "*",
}

var keywords = map[Opcode]string{
	OpAssign:         "ASSIGN",
	OpSizeof:         "SIZEOF",
	OpCast:           "CAST",
	OpIndex:          "INDEX",
	OpMember:         "MEMBER",
	OpPtrMember:      "PTR_MEMBER",
	OpString:         "STRING",
	OpCall:           "CALL",
	OpStore:          "STORE",
	OpIndexStore:     "INDEX_STORE",
	OpMemberStore:    "MEMBER_STORE",
	OpPtrMemberStore: "PTR_MEMBER_STORE",
	OpLabel:          "LABEL",
	OpGoto:           "GOTO",
	OpIfFalseGoto:    "IF_FALSE_GOTO",
	OpIfTrueGoto:     "IF_TRUE_GOTO",
	OpReturn:         "RETURN",
	OpParam:          "PARAM",
	OpDecl:           "DECL",
	OpFuncBegin:      "FUNC_BEGIN",
	OpFuncEnd:        "FUNC_END",
	OpCheckDivZero:   "CHECK_DIVZERO",
	OpComment:        "#",
}

var symbolOps = func() map[string]Opcode {
	m := make(map[string]Opcode, len(binarySymbols))
	for op, s := range binarySymbols {
		m[s] = op
	}
	return m
}()

// String returns the operator symbol of binary and unary opcodes and the
// keyword of every other opcode.
func (op Opcode) String() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	switch op {
	case OpNeg:
		return "NEG"
	case OpNot:
		return "NOT"
	case OpBitNot:
		return "BITNOT"
	case OpAddr:
		return "ADDR"
	case OpDeref:
		return "DEREF"
	}
	if s, ok := keywords[op]; ok {
		return s
	}
	return "INVALID"
}

// BinaryOp returns the opcode for a binary operator symbol such as "+".
func BinaryOp(symbol string) (Opcode, bool) {
	op, ok := symbolOps[symbol]
	return op, ok
}

// UnaryOp returns the opcode for a prefix operator symbol.
func UnaryOp(symbol string) (Opcode, bool) {
	for op, s := range unarySymbols {
		if s == symbol {
			return op, true
		}
	}
	return OpInvalid, false
}

// IsBinary reports whether op is a binary operator.
func (op Opcode) IsBinary() bool { return op >= OpAdd && op <= OpShr }

// IsUnary reports whether op is a prefix unary operator.
func (op Opcode) IsUnary() bool { return op >= OpNeg && op <= OpDeref }

// IsArithmetic reports whether op is + - * / or %.
func (op Opcode) IsArithmetic() bool { return op >= OpAdd && op <= OpMod }

// IsComparison reports whether op is one of == != < <= > >=.
func (op Opcode) IsComparison() bool { return op >= OpEq && op <= OpGe }

// Symbol returns the operator spelling of a binary or unary opcode, or "".
func (op Opcode) Symbol() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return unarySymbols[op]
}

// Instruction is one TAC instruction. Which slots are meaningful depends on
// Op; see the opcode list. Comment is an optional trailing annotation.
type Instruction struct {
	Op      Opcode
	Result  string
	Arg1    string
	Arg2    string
	Comment string
}

// Constructors for the common shapes.

func Assign(dst, src string) Instruction { return Instruction{Op: OpAssign, Result: dst, Arg1: src} }

func Binary(op Opcode, dst, left, right string) Instruction {
	return Instruction{Op: op, Result: dst, Arg1: left, Arg2: right}
}

func Unary(op Opcode, dst, operand string) Instruction {
	return Instruction{Op: op, Result: dst, Arg1: operand}
}

func Label(name string) Instruction { return Instruction{Op: OpLabel, Arg1: name} }

func Goto(label string) Instruction { return Instruction{Op: OpGoto, Arg1: label} }

func IfFalseGoto(cond, label string) Instruction {
	return Instruction{Op: OpIfFalseGoto, Arg1: cond, Arg2: label}
}

func IfTrueGoto(cond, label string) Instruction {
	return Instruction{Op: OpIfTrueGoto, Arg1: cond, Arg2: label}
}

func Return(value string) Instruction { return Instruction{Op: OpReturn, Arg1: value} }

func Comment(text string) Instruction { return Instruction{Op: OpComment, Arg1: text} }

// String renders the canonical text form.
func (in Instruction) String() string {
	s := in.text()
	if in.Comment != "" && in.Op != OpComment {
		s += "  # " + in.Comment
	}
	return s
}

func (in Instruction) text() string {
	switch {
	case in.Op == OpAssign:
		return fmt.Sprintf("%s = %s", in.Result, in.Arg1)
	case in.Op.IsBinary():
		return fmt.Sprintf("%s = %s %s %s", in.Result, in.Arg1, binarySymbols[in.Op], in.Arg2)
	case in.Op.IsUnary():
		return fmt.Sprintf("%s = %s%s", in.Result, unarySymbols[in.Op], in.Arg1)
	}

	switch in.Op {
	case OpSizeof:
		return fmt.Sprintf("%s = SIZEOF %s", in.Result, in.Arg1)
	case OpCast:
		return fmt.Sprintf("%s = CAST %s, %s", in.Result, in.Arg1, in.Arg2)
	case OpIndex:
		return fmt.Sprintf("%s = %s[%s]", in.Result, in.Arg1, in.Arg2)
	case OpMember:
		return fmt.Sprintf("%s = %s.%s", in.Result, in.Arg1, in.Arg2)
	case OpPtrMember:
		return fmt.Sprintf("%s = %s->%s", in.Result, in.Arg1, in.Arg2)
	case OpString:
		return fmt.Sprintf("%s = STRING %s", in.Result, in.Arg1)
	case OpCall:
		if in.Result == "" {
			return fmt.Sprintf("CALL %s, %s", in.Arg1, in.Arg2)
		}
		return fmt.Sprintf("%s = CALL %s, %s", in.Result, in.Arg1, in.Arg2)
	case OpStore:
		return fmt.Sprintf("*%s = %s", in.Result, in.Arg1)
	case OpIndexStore:
		return fmt.Sprintf("%s[%s] = %s", in.Result, in.Arg1, in.Arg2)
	case OpMemberStore:
		return fmt.Sprintf("%s.%s = %s", in.Result, in.Arg1, in.Arg2)
	case OpPtrMemberStore:
		return fmt.Sprintf("%s->%s = %s", in.Result, in.Arg1, in.Arg2)
	case OpIfFalseGoto, OpIfTrueGoto:
		return fmt.Sprintf("%s %s, %s", keywords[in.Op], in.Arg1, in.Arg2)
	case OpReturn:
		if in.Arg1 == "" {
			return "RETURN"
		}
		return "RETURN " + in.Arg1
	case OpDecl:
		return fmt.Sprintf("DECL %s %s", in.Arg1, in.Arg2)
	case OpComment:
		return "# " + in.Arg1
	case OpLabel, OpGoto, OpParam, OpFuncBegin, OpFuncEnd, OpCheckDivZero:
		return keywords[in.Op] + " " + in.Arg1
	}
	return "INVALID"
}

// IsJump reports whether the instruction transfers control to a label.
func (in Instruction) IsJump() bool {
	return in.Op == OpGoto || in.Op == OpIfFalseGoto || in.Op == OpIfTrueGoto
}

// IsConditionalJump reports whether the instruction is IF_FALSE_GOTO or
// IF_TRUE_GOTO.
func (in Instruction) IsConditionalJump() bool {
	return in.Op == OpIfFalseGoto || in.Op == OpIfTrueGoto
}

// EndsBlock reports whether the instruction closes a basic block.
func (in Instruction) EndsBlock() bool {
	return in.IsJump() || in.Op == OpReturn
}

// FallsThrough reports whether control can reach the next instruction.
func (in Instruction) FallsThrough() bool {
	return in.Op != OpGoto && in.Op != OpReturn
}

// Target returns the label a jump transfers to, or "".
func (in Instruction) Target() string {
	switch in.Op {
	case OpGoto:
		return in.Arg1
	case OpIfFalseGoto, OpIfTrueGoto:
		return in.Arg2
	}
	return ""
}

// Defines returns the name the instruction assigns, or "".
func (in Instruction) Defines() string {
	if in.Op >= OpAssign && in.Op <= OpCall {
		return in.Result
	}
	return ""
}

// Uses returns the names the instruction reads. Literals, labels, types,
// member names and callees are not included.
func (in Instruction) Uses() []string {
	var out []string
	for _, slot := range in.useSlots() {
		if IsName(*slot) {
			out = append(out, *slot)
		}
	}
	return out
}

// useSlots returns pointers to the operand slots holding read values.
func (in *Instruction) useSlots() []*string {
	switch {
	case in.Op == OpAssign, in.Op.IsUnary():
		return []*string{&in.Arg1}
	case in.Op.IsBinary():
		return []*string{&in.Arg1, &in.Arg2}
	}
	switch in.Op {
	case OpSizeof, OpCast, OpMember, OpPtrMember, OpReturn, OpParam, OpCheckDivZero:
		return []*string{&in.Arg1}
	case OpIndex:
		return []*string{&in.Arg1, &in.Arg2}
	case OpIfFalseGoto, OpIfTrueGoto:
		return []*string{&in.Arg1}
	case OpStore:
		return []*string{&in.Result, &in.Arg1}
	case OpIndexStore:
		return []*string{&in.Result, &in.Arg1, &in.Arg2}
	case OpMemberStore, OpPtrMemberStore:
		return []*string{&in.Result, &in.Arg2}
	}
	return nil
}

// ReplaceUses returns a copy of the instruction with every read of name
// replaced by value, and whether anything changed.
func (in Instruction) ReplaceUses(name, value string) (Instruction, bool) {
	out := in
	changed := false
	for _, slot := range out.useSlots() {
		if *slot == name {
			*slot = value
			changed = true
		}
	}
	return out, changed
}

// RHS returns the right-hand side of a value-producing instruction as
// text, e.g. "a + b" for "t0 = a + b". It is empty for other instructions.
func (in Instruction) RHS() string {
	if in.Defines() == "" {
		return ""
	}
	s := in.text()
	if i := strings.Index(s, " = "); i >= 0 {
		return s[i+3:]
	}
	return ""
}

// Program is an ordered list of instructions.
type Program []Instruction

// String renders one instruction per line.
func (p Program) String() string {
	var sb strings.Builder
	for i, in := range p {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(in.String())
	}
	return sb.String()
}

// Lines renders each instruction to its own string.
func (p Program) Lines() []string {
	out := make([]string, len(p))
	for i, in := range p {
		out[i] = in.String()
	}
	return out
}

// Operand classification

var (
	tempPattern  = regexp.MustCompile(`^t[0-9]+$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// IsTemp reports whether name is a compiler temporary such as t3.
func IsTemp(name string) bool { return tempPattern.MatchString(name) }

// IsName reports whether s is a variable or temporary name rather than a
// literal.
func IsName(s string) bool { return namePattern.MatchString(s) }

// IsConstant reports whether s is a numeric, character or string literal.
func IsConstant(s string) bool {
	if _, ok := NumericValue(s); ok {
		return true
	}
	return len(s) >= 2 && (s[0] == '\'' && s[len(s)-1] == '\'' || s[0] == '"' && s[len(s)-1] == '"')
}

// NumericValue parses an integer or floating literal, hex and suffixes
// included. Integers read as in C, so 010 is 8.
func NumericValue(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if IsIntegerLiteral(t) {
		if n, ok := IntegerValue(t); ok {
			return float64(n), true
		}
	}
	neg := false
	if strings.HasPrefix(t, "-") {
		neg, t = true, t[1:]
	}
	if t == "" || !(t[0] >= '0' && t[0] <= '9' || t[0] == '.') {
		return 0, false
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseUint(strings.TrimRight(t[2:], "uUlL"), 16, 64)
		if err != nil {
			return 0, false
		}
		return signed(float64(n), neg), true
	}
	if !strings.ContainsAny(t, ".eE") {
		t = strings.TrimRight(t, "uUlL")
	} else {
		t = strings.TrimRight(t, "fFlL")
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return signed(f, neg), true
}

func signed(f float64, neg bool) float64 {
	if neg {
		return -f
	}
	return f
}

// IntegerValue parses an integer literal exactly: a leading 0 means octal
// and 0x hex, suffixes are ignored. Values outside int64 fail.
func IntegerValue(s string) (int64, bool) {
	t := strings.TrimSpace(s)
	if !IsIntegerLiteral(t) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimRight(t, "uUlL"), 0, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsIntegerLiteral reports whether s is written as an integer literal:
// decimal, octal or hex digits with an optional sign and u/l suffixes.
func IsIntegerLiteral(s string) bool {
	t := strings.TrimPrefix(strings.TrimSpace(s), "-")
	t = strings.TrimRight(t, "uUlL")
	digits := "0123456789"
	if len(t) > 2 && (strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X")) {
		t, digits = t[2:], "0123456789abcdefABCDEF"
	} else if len(t) > 1 && t[0] == '0' {
		digits = "01234567"
	}
	if t == "" {
		return false
	}
	for _, r := range t {
		if !strings.ContainsRune(digits, r) {
			return false
		}
	}
	return true
}
