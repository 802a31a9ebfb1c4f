package diag

import (
	"fmt"
	"strings"
)

// Source indexes program text by line so excerpts can be cut cheaply.
type Source struct {
	lines []string
}

// NewSource splits text into lines. A trailing "\r" is dropped from each line.
func NewSource(text string) *Source {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &Source{lines: lines}
}

// Line returns the 1-based line n, or "" when n is out of range.
func (s *Source) Line(n int) string {
	if s == nil || n < 1 || n > len(s.lines) {
		return ""
	}
	return s.lines[n-1]
}

// LineCount returns the number of lines in the source.
func (s *Source) LineCount() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Excerpt renders line n with a caret under 1-based column col:
//
//	3 | int 2x = 5;
//	  |     ^
//
// Tabs in the prefix are preserved in the caret line so the caret stays aligned.
func (s *Source) Excerpt(n, col int) string {
	text := s.Line(n)
	if text == "" && (n < 1 || n > s.LineCount()) {
		return ""
	}
	gutter := fmt.Sprintf("%4d | ", n)
	pad := strings.Repeat(" ", len(gutter)-2) + "| "

	if col < 1 {
		col = 1
	}
	var caret strings.Builder
	for i, r := range []rune(text) {
		if i >= col-1 {
			break
		}
		if r == '\t' {
			caret.WriteRune('\t')
		} else {
			caret.WriteRune(' ')
		}
	}
	for i := len([]rune(text)); i < col-1; i++ {
		caret.WriteRune(' ')
	}
	caret.WriteRune('^')
	return gutter + text + "\n" + pad + caret.String()
}
