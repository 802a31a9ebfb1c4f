// Package codegen lowers three-address code to assembly text for x86,
// x86_64 and ARM.
//
// The output is illustrative rather than assembled and linked: each target
// has a register pool, a template per machine operation and a fixed
// prologue, and values are kept in registers by a first-come allocator that
// spills the earliest-bound variable to the stack when the pool runs out.
package codegen

import (
	"fmt"
	"strings"

	"github.com/hassan/ccompiler/internal/ir"
)

// Arch names a target architecture.
type Arch string

const (
	X86    Arch = "x86"
	X86_64 Arch = "x86_64"
	ARM    Arch = "ARM"
)

// Archs lists the supported targets.
func Archs() []Arch { return []Arch{X86, X86_64, ARM} }

// ParseArch accepts the canonical names and a few common aliases, ignoring
// case.
func ParseArch(name string) (Arch, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "x86", "i386", "i686":
		return X86, true
	case "x86_64", "x86-64", "amd64", "x64":
		return X86_64, true
	case "arm", "arm32":
		return ARM, true
	}
	return "", false
}

// FrameSize is the fixed number of bytes every prologue reserves.
const FrameSize = 16

type target struct {
	arch Arch

	// pool is the allocatable registers in allocation order.
	pool []string

	// acc and aux are never allocated: acc receives return values and
	// quotients, aux remainders. Both double as scratch registers.
	acc, aux string

	// sp is the stack pointer.
	sp string

	// word is the operand size keyword used with memory operands.
	// wordBytes is also the size of one spill slot.
	word      string
	wordBytes int

	comment   string
	templates map[string]string
	cc        map[ir.Opcode]string

	header []string
	exit   []string
	trap   []string
	data   string
}

var targets = map[Arch]*target{
	X86: {
		arch:      X86,
		pool:      []string{"ebx", "ecx", "esi", "edi"},
		acc:       "eax",
		aux:       "edx",
		sp:        "esp",
		word:      "dword",
		wordBytes: 4,
		comment:   ";",
		templates: intelTemplates("ebp", "esp", "cdq"),
		cc:        intelConditions,
		header:    []string{"; x86 assembly", "section .text", "global _start"},
		exit:      []string{"mov eax, 1", "xor ebx, ebx", "int 0x80"},
		trap:      []string{"mov eax, 1", "mov ebx, 1", "int 0x80"},
		data:      "section .data",
	},
	X86_64: {
		arch:      X86_64,
		pool:      []string{"rbx", "rcx", "rsi", "rdi", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"},
		acc:       "rax",
		aux:       "rdx",
		sp:        "rsp",
		word:      "qword",
		wordBytes: 8,
		comment:   ";",
		templates: intelTemplates("rbp", "rsp", "cqo"),
		cc:        intelConditions,
		header:    []string{"; x86_64 assembly", "section .text", "global _start"},
		exit:      []string{"mov rax, 60", "xor rdi, rdi", "syscall"},
		trap:      []string{"mov rax, 60", "mov rdi, 1", "syscall"},
		data:      "section .data",
	},
	ARM: {
		arch:      ARM,
		pool:      []string{"r4", "r5", "r6", "r7", "r8", "r9", "r10"},
		acc:       "r0",
		aux:       "r1",
		sp:        "sp",
		wordBytes: 4,
		comment:   "@",
		templates: map[string]string{
			"ASSIGN":   "mov {dest}, {src}",
			"ADD":      "add {dest}, {dest}, {src}",
			"SUB":      "sub {dest}, {dest}, {src}",
			"MUL":      "mul {dest}, {dest}, {src}",
			"AND":      "and {dest}, {dest}, {src}",
			"OR":       "orr {dest}, {dest}, {src}",
			"XOR":      "eor {dest}, {dest}, {src}",
			"SHL":      "lsl {dest}, {dest}, {src}",
			"SHR":      "asr {dest}, {dest}, {src}",
			"NEG":      "rsb {dest}, {dest}, #0",
			"NOT":      "mvn {dest}, {dest}",
			"DIV":      "sdiv {dest}, {left}, {right}",
			"MOD":      "sdiv ip, {left}, {right}\nmls {dest}, ip, {right}, {left}",
			"CMP":      "cmp {left}, {right}",
			"SET":      "mov {dest}, #0\nmov{cc} {dest}, #1",
			"JMP":      "b {label}",
			"JZ":       "beq {label}",
			"JNZ":      "bne {label}",
			"CALL":     "bl {func}",
			"RET":      "bx lr",
			"PUSH":     "push {{src}}",
			"DROP":     "add sp, sp, #{n}",
			"LOAD":     "ldr {dest}, {mem}",
			"STORE":    "str {src}, {mem}",
			"LEA":      "sub {dest}, fp, #{offset}",
			"ADDRESS":  "ldr {dest}, ={label}",
			"PROLOGUE": "push {fp, lr}\nmov fp, sp\nsub sp, sp, #{frame}",
			"EPILOGUE": "mov sp, fp\npop {fp, lr}",
		},
		cc: map[ir.Opcode]string{
			ir.OpEq: "eq", ir.OpNe: "ne",
			ir.OpLt: "lt", ir.OpLe: "le",
			ir.OpGt: "gt", ir.OpGe: "ge",
		},
		header: []string{"@ ARM assembly", ".text", ".global _start"},
		exit:   []string{"mov r0, #0", "mov r7, #1", "svc 0"},
		trap:   []string{"mov r0, #1", "mov r7, #1", "svc 0"},
		data:   ".data",
	},
}

func intelTemplates(bp, sp, signExtend string) map[string]string {
	return map[string]string{
		"ASSIGN":   "mov {dest}, {src}",
		"ADD":      "add {dest}, {src}",
		"SUB":      "sub {dest}, {src}",
		"MUL":      "imul {dest}, {src}",
		"AND":      "and {dest}, {src}",
		"OR":       "or {dest}, {src}",
		"XOR":      "xor {dest}, {src}",
		"SHL":      "shl {dest}, {src}",
		"SHR":      "sar {dest}, {src}",
		"NEG":      "neg {dest}",
		"NOT":      "not {dest}",
		"SIGNEXT":  signExtend,
		"IDIV":     "idiv {src}",
		"CMP":      "cmp {left}, {right}",
		"SET":      "mov {dest}, 0\nmov {scratch}, 1\ncmov{cc} {dest}, {scratch}",
		"JMP":      "jmp {label}",
		"JZ":       "je {label}",
		"JNZ":      "jne {label}",
		"CALL":     "call {func}",
		"RET":      "ret",
		"PUSH":     "push {src}",
		"DROP":     "add " + sp + ", {n}",
		"LOAD":     "mov {dest}, {mem}",
		"STORE":    "mov {mem}, {src}",
		"LEA":      "lea {dest}, {mem}",
		"ADDRESS":  "mov {dest}, {label}",
		"PROLOGUE": "push " + bp + "\nmov " + bp + ", " + sp + "\nsub " + sp + ", {frame}",
		"EPILOGUE": "mov " + sp + ", " + bp + "\npop " + bp,
	}
}

var intelConditions = map[ir.Opcode]string{
	ir.OpEq: "e", ir.OpNe: "ne",
	ir.OpLt: "l", ir.OpLe: "le",
	ir.OpGt: "g", ir.OpGe: "ge",
}

// render fills the named template. Placeholders are passed as key, value
// pairs without braces.
func (t *target) render(op string, kv ...string) []string {
	tmpl, ok := t.templates[op]
	if !ok {
		return []string{fmt.Sprintf("%s no template for %s", t.comment, op)}
	}
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.Split(strings.NewReplacer(pairs...).Replace(tmpl), "\n")
}

// imm renders a literal as an immediate operand.
func (t *target) imm(v string) string {
	if t.arch == ARM {
		return "#" + v
	}
	return v
}

// slot renders the frame-relative address of a spill slot.
func (t *target) slot(offset int) string {
	switch t.arch {
	case ARM:
		return fmt.Sprintf("[fp, #-%d]", offset)
	case X86_64:
		return fmt.Sprintf("[rbp-%d]", offset)
	}
	return fmt.Sprintf("[ebp-%d]", offset)
}

// deref renders a memory operand through a pointer held in reg.
func (t *target) deref(reg string) string {
	if t.word == "" {
		return "[" + reg + "]"
	}
	return t.word + " [" + reg + "]"
}

// indexed renders base[idx] for word-sized elements.
func (t *target) indexed(base, idx string) string {
	lit := ir.IsIntegerLiteral(idx)
	if t.arch == ARM {
		if lit {
			n, _ := ir.NumericValue(idx)
			return fmt.Sprintf("[%s, #%d]", base, int(n)*t.wordBytes)
		}
		return fmt.Sprintf("[%s, %s, lsl #2]", base, idx)
	}
	if lit {
		n, _ := ir.NumericValue(idx)
		return fmt.Sprintf("%s [%s+%d]", t.word, base, int(n)*t.wordBytes)
	}
	return fmt.Sprintf("%s [%s+%s*%d]", t.word, base, idx, t.wordBytes)
}

// field renders obj.name with the field name standing in for its offset.
func (t *target) field(obj, name string) string {
	if t.arch == ARM {
		return fmt.Sprintf("[%s, #%s]", obj, name)
	}
	return fmt.Sprintf("%s [%s+%s]", t.word, obj, name)
}

// stringData renders the data-section entry for a quoted string literal.
func (t *target) stringData(name, quoted string) string {
	if t.arch == ARM {
		return fmt.Sprintf("%s: .asciz %s", name, quoted)
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(quoted, `"`), `"`)
	return fmt.Sprintf("%s db `%s`, 0", name, inner)
}

// sizeOf returns the byte size of a C type name on this target.
func (t *target) sizeOf(typ string) int {
	typ = strings.TrimSpace(typ)
	if strings.HasSuffix(typ, "*") {
		return t.wordBytes
	}
	switch strings.TrimPrefix(strings.TrimPrefix(typ, "unsigned "), "const ") {
	case "char", "bool":
		return 1
	case "short":
		return 2
	case "long":
		return t.wordBytes
	case "double", "long long":
		return 8
	}
	return 4
}
