// Package lexer turns C source text into a stream of tokens plus structured
// lexical diagnostics. It never fails on malformed input: every problem is
// recorded and scanning resumes after the offending span.
package lexer

import "strconv"

// Position represents a location in the source code.
type Position struct {
	Filename string

	// Line is 1-based; zero means "no position".
	Line int

	// Column is 1-based and counted in runes, not bytes.
	Column int

	// Offset is the 0-based byte offset from the start of the input.
	Offset int
}

// String returns "filename:line:column", or "line:column" without a filename.
func (p Position) String() string {
	lc := strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
	if p.Filename == "" {
		return lc
	}
	return p.Filename + ":" + lc
}

// Span represents the half-open range [Start, End) of a token.
type Span struct {
	Start Position
	End   Position
}
