// Package types names C types and decides operator compatibility.
//
// Types are identified by their canonical spelling ("int", "unsigned long",
// "const char*"). A single rule table classifies operators into arithmetic,
// assignment, comparison, logical and bitwise families and decides whether
// two operand types may meet under each. Some combinations are accepted with
// a warning (narrowing assignment, ordering strings by pointer).
package types

import (
	"fmt"
	"strings"
)

// Type is a C type in canonical spelling.
type Type string

// Types the analyzer produces itself. Declared types may be any spelling
// Normalize accepts.
const (
	Unknown Type = "unknown"
	Void    Type = "void"
	Int     Type = "int"
	Long    Type = "long"
	Short   Type = "short"
	Char    Type = "char"
	Float   Type = "float"
	Double  Type = "double"
	Bool    Type = "bool"
	String  Type = "string"

	// Pointer is the type of NULL and nullptr.
	Pointer Type = "pointer"
)

func (t Type) String() string { return string(t) }

// Equals reports whether t and other name the same type.
func (t Type) Equals(other Type) bool { return Normalize(string(t)) == Normalize(string(other)) }

// Known reports whether t was resolved.
func (t Type) Known() bool { return t != "" && t != Unknown }

// dropped are storage classes and qualifiers that do not affect
// compatibility. const is kept on pointers so "const char*" stays distinct.
var dropped = map[string]bool{
	"static": true, "extern": true, "volatile": true, "register": true, "auto": true, "signed": true,
}

// Normalize returns the canonical spelling of a type name: single spaces,
// stars attached to the base ("char *" becomes "char*"), storage classes
// removed, "signed"/"int" suffixes folded ("long int" becomes "long",
// "unsigned" becomes "unsigned int").
func Normalize(name string) Type {
	name = strings.TrimSpace(name)
	if name == "" {
		return Unknown
	}
	stars := strings.Count(name, "*")
	arrays := strings.Count(name, "[]")
	base := strings.NewReplacer("*", " ", "[]", " ").Replace(name)

	var words []string
	isConst := false
	for _, w := range strings.Fields(base) {
		switch {
		case dropped[w]:
		case w == "const":
			isConst = true
		default:
			words = append(words, w)
		}
	}
	switch {
	case len(words) == 0:
		if strings.Contains(name, "unsigned") || strings.Contains(name, "signed") {
			words = []string{"int"}
		} else {
			return Unknown
		}
	case len(words) == 1 && words[0] == "unsigned":
		words = append(words, "int")
	case len(words) > 1 && words[len(words)-1] == "int" && words[len(words)-2] != "unsigned":
		// long int, short int
		words = words[:len(words)-1]
	}

	s := strings.Join(words, " ")
	if isConst && stars > 0 {
		s = "const " + s
	}
	s += strings.Repeat("*", stars) + strings.Repeat("[]", arrays)
	return Type(s)
}

// Category groups types for the rule table.
type Category int

const (
	CatUnknown Category = iota
	CatVoid
	CatInteger
	CatFloating
	CatBool
	CatString
	CatPointer
	CatOther
)

var integerNames = map[Type]bool{
	Int: true, Long: true, Short: true, Char: true, "long long": true,
	"unsigned int": true, "unsigned long": true, "unsigned short": true, "unsigned char": true,
	"unsigned long long": true,
}

var stringNames = map[Type]bool{
	"char*": true, String: true, "const char*": true, "char[]": true,
}

// CategoryOf classifies t.
func CategoryOf(t Type) Category {
	t = Normalize(string(t))
	switch {
	case t == Unknown:
		return CatUnknown
	case t == Void:
		return CatVoid
	case integerNames[t]:
		return CatInteger
	case t == Float || t == Double || t == "long double":
		return CatFloating
	case t == Bool:
		return CatBool
	case stringNames[t]:
		return CatString
	case t == Pointer || strings.HasSuffix(string(t), "*") || strings.HasSuffix(string(t), "[]"):
		return CatPointer
	}
	return CatOther
}

// IsNumeric reports whether t is an integer or floating type; char counts.
func IsNumeric(t Type) bool {
	c := CategoryOf(t)
	return c == CatInteger || c == CatFloating
}

// IsInteger reports whether t is an integer type.
func IsInteger(t Type) bool { return CategoryOf(t) == CatInteger }

// IsFloating reports whether t is float or double.
func IsFloating(t Type) bool { return CategoryOf(t) == CatFloating }

// IsString reports whether t is one of the string spellings.
func IsString(t Type) bool { return CategoryOf(t) == CatString }

// IsPointer reports whether t is a non-string pointer or array, or NULL.
func IsPointer(t Type) bool { return CategoryOf(t) == CatPointer }

// IsBoolean reports whether t can be used as a truth value.
func IsBoolean(t Type) bool {
	switch CategoryOf(t) {
	case CatBool, CatInteger, CatFloating, CatPointer, CatString:
		return true
	}
	return false
}

// PointerTo returns the type of &x for x of type t.
func PointerTo(t Type) Type {
	if !t.Known() {
		return Unknown
	}
	return Normalize(string(t) + "*")
}

// Elem returns the type *p or p[i] yields for p of type t.
func Elem(t Type) Type {
	n := Normalize(string(t))
	switch {
	case n == String:
		return Char
	case strings.HasSuffix(string(n), "[]"):
		return Normalize(strings.TrimSuffix(string(n), "[]"))
	case strings.HasSuffix(string(n), "*"):
		return Normalize(strings.TrimSuffix(string(n), "*"))
	}
	return Unknown
}

// Arithmetic returns the result type of an arithmetic operator: double
// beats float beats the integers, a string sum stays a string, and pointer
// arithmetic keeps the pointer.
func Arithmetic(left, right Type) Type {
	l, r := CategoryOf(left), CategoryOf(right)
	switch {
	case l == CatString && r == CatString:
		return String
	case l == CatPointer:
		return Normalize(string(left))
	case r == CatPointer:
		return Normalize(string(right))
	case Normalize(string(left)) == Double || Normalize(string(right)) == Double:
		return Double
	case l == CatFloating || r == CatFloating:
		return Float
	case l == CatInteger && r == CatInteger:
		if n := Normalize(string(left)); n == Long || n == "unsigned long" {
			return n
		}
		if n := Normalize(string(right)); n == Long || n == "unsigned long" {
			return n
		}
		return Int
	}
	return Unknown
}

// Family is the operator class a rule applies to.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyArithmetic
	FamilyAssignment
	FamilyEquality
	FamilyOrdering
	FamilyLogical
	FamilyBitwise
)

// FamilyOf classifies an operator spelling.
func FamilyOf(op string) Family {
	switch op {
	case "+", "-", "*", "/", "%":
		return FamilyArithmetic
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return FamilyAssignment
	case "==", "!=":
		return FamilyEquality
	case "<", ">", "<=", ">=":
		return FamilyOrdering
	case "&&", "||", "!":
		return FamilyLogical
	case "&", "|", "^", "~", "<<", ">>":
		return FamilyBitwise
	}
	return FamilyUnknown
}

// IsComparison reports whether op yields a truth value.
func IsComparison(op string) bool {
	f := FamilyOf(op)
	return f == FamilyEquality || f == FamilyOrdering || f == FamilyLogical
}

// Compatibility is the verdict of the rule table. Warning is set for
// combinations that are accepted but suspicious; Details explains a
// rejection.
type Compatibility struct {
	OK      bool
	Warning string
	Details string
}

func ok() Compatibility { return Compatibility{OK: true} }

func warn(format string, args ...any) Compatibility {
	return Compatibility{OK: true, Warning: fmt.Sprintf(format, args...)}
}

func reject(format string, args ...any) Compatibility {
	return Compatibility{Details: fmt.Sprintf(format, args...)}
}

// Check decides whether operands of types left and right may meet under op.
// For assignment operators left is the target. Unknown operand types are
// always accepted, since the analyzer has already reported why they are
// unknown.
func Check(left, right Type, op string) Compatibility {
	if !left.Known() || !right.Known() {
		return ok()
	}
	l, r := Normalize(string(left)), Normalize(string(right))
	lc, rc := CategoryOf(l), CategoryOf(r)

	switch FamilyOf(op) {
	case FamilyArithmetic:
		switch {
		case IsNumeric(l) && IsNumeric(r):
			return ok()
		case lc == CatString && rc == CatString && op == "+":
			return ok()
		case lc == CatPointer && IsInteger(r) && (op == "+" || op == "-"):
			return ok()
		case lc == CatPointer && rc == CatPointer && l == r && op == "-":
			return ok()
		}
		c := reject("types '%s' and '%s' are not compatible for arithmetic operator '%s'", l, r, op)
		if lc == CatString || rc == CatString {
			if op != "+" {
				c.Details += fmt.Sprintf("; strings only support '+' for concatenation, not '%s'", op)
			} else {
				c.Details += "; both operands must be strings to concatenate"
			}
		}
		return c

	case FamilyAssignment:
		if op != "=" {
			base := strings.TrimSuffix(op, "=")
			c := Check(l, r, base)
			if !c.OK {
				c.Details = fmt.Sprintf("incompatible types for operator '%s': %s", op, c.Details)
			}
			return c
		}
		return assign(l, r)

	case FamilyEquality:
		switch {
		case l == r, IsNumeric(l) && IsNumeric(r), lc == CatString && rc == CatString:
			return ok()
		case (lc == CatPointer || lc == CatString) && (rc == CatPointer || rc == CatString):
			return ok()
		case lc == CatBool && (rc == CatBool || IsNumeric(r)), rc == CatBool && IsNumeric(l):
			return ok()
		}
		return reject("values of types '%s' and '%s' cannot be compared with '%s'", l, r, op)

	case FamilyOrdering:
		switch {
		case IsNumeric(l) && IsNumeric(r):
			return ok()
		case lc == CatString && rc == CatString:
			return warn("comparing strings with '%s' compares the pointers, not the contents", op)
		case lc == CatPointer && rc == CatPointer:
			return ok()
		}
		c := reject("ordering operator '%s' cannot be used with types '%s' and '%s'", op, l, r)
		if lc == CatString || rc == CatString {
			c.Details += "; for strings use a function such as strcmp()"
		}
		return c

	case FamilyLogical:
		if IsBoolean(l) && IsBoolean(r) {
			return ok()
		}
		return reject("logical operator '%s' needs numeric or boolean operands, not '%s' and '%s'", op, l, r)

	case FamilyBitwise:
		if IsInteger(l) && IsInteger(r) {
			return ok()
		}
		return reject("bitwise operator '%s' only works on integer types, not '%s' and '%s'", op, l, r)
	}
	return reject("operation '%s' is not supported between types '%s' and '%s'", op, l, r)
}

// assign applies the plain '=' row: target type t accepts source type s.
func assign(t, s Type) Compatibility {
	tc, sc := CategoryOf(t), CategoryOf(s)
	switch {
	case t == s:
		return ok()
	case IsNumeric(t) && IsNumeric(s):
		if Narrowing(t, s) {
			return warn("possible loss of precision assigning '%s' to '%s'", s, t)
		}
		return ok()
	case tc == CatBool && (IsNumeric(s) || sc == CatBool), IsNumeric(t) && sc == CatBool:
		return ok()
	case tc == CatString && sc == CatString:
		return ok()
	case (tc == CatPointer || tc == CatString) && (sc == CatPointer || sc == CatString):
		if s != Pointer && tc != sc && !strings.HasPrefix(string(s), "void") && !strings.HasPrefix(string(t), "void") {
			return warn("assigning '%s' to '%s' mixes pointer types", s, t)
		}
		return ok()
	}
	return reject("cannot assign a value of type '%s' to a variable of type '%s'", s, t)
}

// Narrowing reports whether assigning source to target may lose precision.
func Narrowing(target, source Type) bool {
	t, s := Normalize(string(target)), Normalize(string(source))
	switch t {
	case Int, Long, Short, Char:
		if IsFloating(s) {
			return true
		}
	}
	return t == Int && s == Long
}

// InferLiteral returns the type of a literal spelling, or Unknown if text is
// not a literal.
func InferLiteral(text string) Type {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return Unknown
	case text == "true" || text == "false":
		return Bool
	case text == "NULL" || text == "nullptr":
		return Pointer
	case len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"':
		return String
	case len(text) >= 3 && text[0] == '\'' && text[len(text)-1] == '\'':
		return Char
	}
	digits := strings.TrimPrefix(text, "-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		if len(digits) > 2 && strings.Trim(digits[2:], "0123456789abcdefABCDEF") == "" {
			return Int
		}
		return Unknown
	}
	digits = strings.TrimRight(digits, "uUlLfF")
	if digits == "" || strings.Trim(digits, "0123456789.eE+-") != "" || digits[0] < '0' && digits[0] != '.' || digits[0] > '9' {
		return Unknown
	}
	if strings.ContainsAny(digits, ".eE") {
		return Float
	}
	return Int
}
