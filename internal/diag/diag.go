// Package diag defines the structured diagnostics shared by every compiler stage.
//
// A diagnostic is a record rather than a bare string so that a presentation
// layer can render any stage's problems uniformly: a one-line headline in the
// shape "{category}: {problem} at line {L}, position {P}", an optional source
// excerpt with a caret under the offending column, and an optional suggestion.
package diag

import (
	"fmt"
	"strings"
)

// Kind classifies which part of the pipeline produced a diagnostic.
type Kind int

const (
	KindLexical Kind = iota
	KindSyntax
	KindSemantic
	KindPipeline
	KindCodegen
	// KindInternal marks compiler defects (for example an unresolved jump
	// target in generated code), never user mistakes.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "Lexical"
	case KindSyntax:
		return "Syntax"
	case KindSemantic:
		return "Semantic"
	case KindPipeline:
		return "Pipeline"
	case KindCodegen:
		return "Codegen"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Severity separates blocking errors from advisory warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one problem found while compiling.
type Diagnostic struct {
	Kind     Kind
	Severity Severity

	// Message is the problem statement without category or location.
	Message string

	// Line and Position are 1-based; zero means the location is unknown.
	Line     int
	Position int

	// Excerpt is the offending source line followed by a caret line.
	Excerpt string

	// Suggestion is a human hint for fixing the problem.
	Suggestion string

	// Code names the sub-kind of the problem, e.g. "invalid-identifier".
	// Empty when the kind alone is specific enough.
	Code string
}

// Errorf builds an error-severity diagnostic.
func Errorf(kind Kind, line, pos int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Position: pos,
	}
}

// Warnf builds a warning-severity diagnostic.
func Warnf(kind Kind, line, pos int, format string, args ...any) Diagnostic {
	d := Errorf(kind, line, pos, format, args...)
	d.Severity = SeverityWarning
	return d
}

// WithSuggestion returns a copy of d carrying the given suggestion.
func (d Diagnostic) WithSuggestion(s string) Diagnostic {
	d.Suggestion = s
	return d
}

// WithCode returns a copy of d tagged with a sub-kind code.
func (d Diagnostic) WithCode(code string) Diagnostic {
	d.Code = code
	return d
}

// WithExcerpt returns a copy of d with an excerpt cut from src at d's location.
func (d Diagnostic) WithExcerpt(src *Source) Diagnostic {
	if src != nil {
		d.Excerpt = src.Excerpt(d.Line, d.Position)
	}
	return d
}

// IsError reports whether d blocks the stage that produced it.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Category is the leading label of the headline, e.g. "Syntax error".
func (d Diagnostic) Category() string {
	return d.Kind.String() + " " + d.Severity.String()
}

// Headline renders "{category}: {problem} at line {L}, position {P}".
func (d Diagnostic) Headline() string {
	if d.Line <= 0 {
		return d.Category() + ": " + d.Message
	}
	return fmt.Sprintf("%s: %s at line %d, position %d", d.Category(), d.Message, d.Line, d.Position)
}

// Error lets a Diagnostic travel as a Go error at I/O boundaries.
func (d Diagnostic) Error() string {
	return d.Headline()
}

// String renders the headline, excerpt and suggestion on separate lines.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Headline())
	if d.Excerpt != "" {
		b.WriteString("\n")
		b.WriteString(d.Excerpt)
	}
	if d.Suggestion != "" {
		b.WriteString("\nSuggestion: ")
		b.WriteString(d.Suggestion)
	}
	return b.String()
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// HasErrors reports whether any entry has error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity entries.
func (l List) Errors() List {
	return l.filter(SeverityError)
}

// Warnings returns only the warning-severity entries.
func (l List) Warnings() List {
	return l.filter(SeverityWarning)
}

func (l List) filter(s Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Messages returns the headline of every entry, in order.
func (l List) Messages() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.Headline()
	}
	return out
}
