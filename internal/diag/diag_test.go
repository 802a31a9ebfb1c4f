package diag

import (
	"strings"
	"testing"
)

func TestDiagnostic_Headline(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "located error",
			d:    Errorf(KindSyntax, 3, 7, "missing semicolon"),
			want: "Syntax error: missing semicolon at line 3, position 7",
		},
		{
			name: "located warning",
			d:    Warnf(KindSemantic, 1, 5, "unused variable 'x'"),
			want: "Semantic warning: unused variable 'x' at line 1, position 5",
		},
		{
			name: "no location",
			d:    Errorf(KindPipeline, 0, 0, "parser skipped because lexer failed"),
			want: "Pipeline error: parser skipped because lexer failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Headline(); got != tt.want {
				t.Errorf("Headline() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSource_Excerpt(t *testing.T) {
	src := NewSource("int a = 1;\nint 2x = 5;\n")
	got := src.Excerpt(2, 5)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("Excerpt() produced %d lines, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[0], "int 2x = 5;") {
		t.Errorf("first line = %q, want source line", lines[0])
	}
	caretCol := strings.Index(lines[1], "^")
	srcCol := strings.Index(lines[0], "2x")
	if caretCol != srcCol {
		t.Errorf("caret at %d, want %d", caretCol, srcCol)
	}
	if src.Excerpt(9, 1) != "" {
		t.Error("Excerpt() for missing line should be empty")
	}
}

func TestList_Filters(t *testing.T) {
	l := List{
		Errorf(KindLexical, 1, 1, "bad"),
		Warnf(KindLexical, 1, 2, "meh"),
	}
	if !l.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	if len(l.Errors()) != 1 || len(l.Warnings()) != 1 {
		t.Errorf("Errors()/Warnings() = %d/%d, want 1/1", len(l.Errors()), len(l.Warnings()))
	}
	if (List{Warnf(KindSemantic, 0, 0, "w")}).HasErrors() {
		t.Error("warnings alone must not count as errors")
	}
}

func TestDiagnostic_String(t *testing.T) {
	d := Errorf(KindLexical, 1, 5, "invalid identifier '2x'").
		WithExcerpt(NewSource("int 2x = 5;")).
		WithSuggestion("identifiers must start with a letter or underscore")
	s := d.String()
	for _, want := range []string{"Lexical error:", "int 2x = 5;", "^", "Suggestion: identifiers"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q in %q", want, s)
		}
	}
}
