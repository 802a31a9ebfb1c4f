package ir

import (
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
)

// CodeBadInstruction marks a line Parse could not read.
const CodeBadInstruction = "malformed-instruction"

// Parse reads the canonical text form, one instruction per line. Blank
// lines are skipped; a line that fits no instruction shape is reported and
// skipped. A negated literal such as "x = -5" reads back as an assignment of
// the literal.
func Parse(text string) (Program, diag.List) {
	var prog Program
	var diags diag.List
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		in, ok := ParseLine(line)
		if !ok {
			diags = append(diags, diag.Errorf(diag.KindCodegen, i+1, 1, "cannot parse instruction '%s'", line).
				WithCode(CodeBadInstruction).
				WithSuggestion("use the form 'x = a op b', 'OPCODE arg' or 'LABEL name'"))
			continue
		}
		prog = append(prog, in)
	}
	return prog, diags
}

// ParseLine reads a single instruction.
func ParseLine(line string) (Instruction, bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return Comment(strings.TrimSpace(strings.TrimPrefix(line, "#"))), true
	}
	body, note := splitComment(line)
	in, ok := parseBody(body)
	in.Comment = note
	return in, ok
}

// splitComment separates a trailing "  # note" that is not inside quotes.
func splitComment(line string) (body, note string) {
	quote := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#' && i > 0 && line[i-1] == ' ':
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
		}
	}
	return line, ""
}

func parseBody(s string) (Instruction, bool) {
	keyword, rest, _ := strings.Cut(s, " ")
	rest = strings.TrimSpace(rest)
	switch keyword {
	case "LABEL", "GOTO":
		if !labelPattern.MatchString(rest) {
			return Instruction{}, false
		}
		if keyword == "LABEL" {
			return Label(rest), true
		}
		return Goto(rest), true
	case "IF_FALSE_GOTO", "IF_TRUE_GOTO":
		args := splitArgs(rest)
		if len(args) != 2 || !labelPattern.MatchString(args[1]) {
			return Instruction{}, false
		}
		if keyword == "IF_FALSE_GOTO" {
			return IfFalseGoto(args[0], args[1]), true
		}
		return IfTrueGoto(args[0], args[1]), true
	case "RETURN":
		return Return(rest), true
	case "PARAM", "FUNC_BEGIN", "FUNC_END", "CHECK_DIVZERO":
		if rest == "" {
			return Instruction{}, false
		}
		op := map[string]Opcode{"PARAM": OpParam, "FUNC_BEGIN": OpFuncBegin, "FUNC_END": OpFuncEnd, "CHECK_DIVZERO": OpCheckDivZero}[keyword]
		return Instruction{Op: op, Arg1: rest}, true
	case "DECL":
		i := strings.LastIndex(rest, " ")
		if i < 0 {
			return Instruction{}, false
		}
		return Instruction{Op: OpDecl, Arg1: rest[:i], Arg2: rest[i+1:]}, true
	case "CALL":
		args := splitArgs(rest)
		if len(args) != 2 {
			return Instruction{}, false
		}
		return Instruction{Op: OpCall, Arg1: args[0], Arg2: args[1]}, true
	}

	lhs, rhs, ok := cutAssign(s)
	if !ok {
		return Instruction{}, false
	}
	switch {
	case strings.HasPrefix(lhs, "*"):
		return Instruction{Op: OpStore, Result: lhs[1:], Arg1: rhs}, IsName(lhs[1:])
	case strings.HasSuffix(lhs, "]"):
		base, idx, ok := cutIndex(lhs)
		return Instruction{Op: OpIndexStore, Result: base, Arg1: idx, Arg2: rhs}, ok
	case strings.Contains(lhs, "->"):
		obj, field, _ := strings.Cut(lhs, "->")
		return Instruction{Op: OpPtrMemberStore, Result: obj, Arg1: field, Arg2: rhs}, IsName(obj) && IsName(field)
	case strings.Contains(lhs, "."):
		obj, field, _ := strings.Cut(lhs, ".")
		return Instruction{Op: OpMemberStore, Result: obj, Arg1: field, Arg2: rhs}, IsName(obj) && IsName(field)
	case !IsName(lhs):
		return Instruction{}, false
	}
	return parseRHS(lhs, rhs)
}

func parseRHS(dst, rhs string) (Instruction, bool) {
	keyword, rest, _ := strings.Cut(rhs, " ")
	switch keyword {
	case "CALL":
		args := splitArgs(rest)
		if len(args) != 2 {
			return Instruction{}, false
		}
		return Instruction{Op: OpCall, Result: dst, Arg1: args[0], Arg2: args[1]}, true
	case "CAST":
		args := splitArgs(rest)
		if len(args) != 2 {
			return Instruction{}, false
		}
		return Instruction{Op: OpCast, Result: dst, Arg1: args[0], Arg2: args[1]}, true
	case "SIZEOF":
		return Instruction{Op: OpSizeof, Result: dst, Arg1: strings.TrimSpace(rest)}, rest != ""
	case "STRING":
		return Instruction{Op: OpString, Result: dst, Arg1: strings.TrimSpace(rest)}, rest != ""
	}

	fields := splitFields(rhs)
	switch len(fields) {
	case 3:
		op, ok := BinaryOp(fields[1])
		if !ok || !isOperand(fields[0]) || !isOperand(fields[2]) {
			return Instruction{}, false
		}
		return Binary(op, dst, fields[0], fields[2]), true
	case 1:
		return parseSingle(dst, fields[0])
	}
	return Instruction{}, false
}

func parseSingle(dst, f string) (Instruction, bool) {
	if isOperand(f) {
		return Assign(dst, f), true
	}
	if op, ok := UnaryOp(f[:1]); ok && isOperand(f[1:]) {
		return Unary(op, dst, f[1:]), true
	}
	if strings.HasSuffix(f, "]") {
		base, idx, ok := cutIndex(f)
		return Instruction{Op: OpIndex, Result: dst, Arg1: base, Arg2: idx}, ok
	}
	if obj, field, ok := strings.Cut(f, "->"); ok {
		return Instruction{Op: OpPtrMember, Result: dst, Arg1: obj, Arg2: field}, IsName(obj) && IsName(field)
	}
	if obj, field, ok := strings.Cut(f, "."); ok {
		return Instruction{Op: OpMember, Result: dst, Arg1: obj, Arg2: field}, IsName(obj) && IsName(field)
	}
	return Instruction{}, false
}

func isOperand(s string) bool { return IsName(s) || IsConstant(s) }

// cutAssign splits "lhs = rhs" at the first " = " outside quotes.
func cutAssign(s string) (lhs, rhs string, ok bool) {
	quote := byte(0)
	for i := 0; i+2 < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ' ' && s[i+1] == '=' && s[i+2] == ' ':
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+3:]), true
		}
	}
	return "", "", false
}

func cutIndex(s string) (base, idx string, ok bool) {
	open := strings.Index(s, "[")
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	base, idx = s[:open], s[open+1:len(s)-1]
	return base, idx, IsName(base) && isOperand(idx)
}

// splitArgs splits "a, b" at commas outside quotes.
func splitArgs(s string) []string {
	var out []string
	quote := byte(0)
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" || len(out) > 0 {
		out = append(out, rest)
	}
	return out
}

// splitFields splits at spaces outside quotes.
func splitFields(s string) []string {
	var out []string
	quote := byte(0)
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if start < 0 && c != ' ' {
			start = i
		}
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ' ' && start >= 0:
			out = append(out, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
