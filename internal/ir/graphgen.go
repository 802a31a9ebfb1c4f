package ir

import (
	"strings"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/graph"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/parser"
	"github.com/hassan/ccompiler/internal/parser/ast"
	"github.com/hassan/ccompiler/internal/semantic"
)

// GenerateGraph lowers an interactive-mode program. Each top-level element
// is re-read from its token span and lowered the same way as in grammar
// mode, so both front ends share one instruction model. Class methods
// become functions named <Class>_<method>. Elements whose span cannot be
// read as a declaration or statement are reported as warnings and skipped.
func GenerateGraph(p *semantic.GraphProgram, res *semantic.Result) *Result {
	if p == nil || p.Graph == nil {
		return &Result{Diags: diag.List{
			diag.Errorf(diag.KindPipeline, 0, 0, "no program graph to lower"),
		}}
	}
	b := NewBuilder(res)
	covered := 0
	for _, e := range p.Elements {
		if e.Nested || e.End <= e.Start || e.Start < covered {
			continue
		}
		if e.Type == graph.ElementClass {
			b.emit(Comment(e.Value))
			b.buildMethods(p, e)
			covered = e.End
			continue
		}
		end := elementEnd(p.Tokens, e)
		covered = end
		b.buildSnippet(p.Tokens[e.Start:end], e)
	}
	return b.Finish()
}

// buildMethods lowers the method definitions inside the span of class.
func (b *Builder) buildMethods(p *semantic.GraphProgram, class graph.Element) {
	owner := strings.TrimPrefix(class.Value, "class ")
	for _, e := range p.Elements {
		if e.Type != graph.ElementMethod || e.Start <= class.Start || e.End > class.End || e.End > len(p.Tokens) {
			continue
		}
		for _, n := range b.parseElement(p.Tokens[e.Start:e.End], e) {
			if fn, ok := n.(*ast.FuncDecl); ok {
				fn.Name.Name = owner + "_" + fn.Name.Name
				b.buildFunction(fn)
			}
		}
	}
}

// parseElement re-reads the tokens of e, warning and returning nothing when
// they do not parse.
func (b *Builder) parseElement(tokens []lexer.Token, e graph.Element) []ast.Node {
	nodes, diags := parser.New(tokens, "").ParseSnippet()
	if diags.HasErrors() {
		b.diags = append(b.diags, diag.Warnf(diag.KindCodegen, e.Line, 0,
			"%s '%s' could not be lowered", e.Type, e.Value).WithCode("element-skipped"))
		return nil
	}
	return nodes
}

func (b *Builder) buildSnippet(tokens []lexer.Token, e graph.Element) {
	for _, n := range b.parseElement(tokens, e) {
		switch n := n.(type) {
		case ast.Decl:
			b.buildDecl(n)
		case ast.Stmt:
			b.buildStmt(n)
		}
	}
}

// elementEnd widens a span so it parses on its own: declarations run to
// the ';' closing the whole declarator list, and expressions take their
// terminating ';'.
func elementEnd(tokens []lexer.Token, e graph.Element) int {
	end := e.End
	if end > len(tokens) {
		end = len(tokens)
	}
	switch e.Type {
	case graph.ElementVariable:
		depth := 0
		for end < len(tokens) && tokens[end].Type != lexer.TokenEOF {
			if depth == 0 && tokens[end-1].Type == lexer.TokenSemi {
				break
			}
			switch tokens[end].Type {
			case lexer.TokenLParen, lexer.TokenLBrace:
				depth++
			case lexer.TokenRParen, lexer.TokenRBrace:
				depth--
			}
			end++
		}
	case graph.ElementAssignment, graph.ElementBinary, graph.ElementUnary:
		if end < len(tokens) && tokens[end].Type == lexer.TokenSemi && tokens[end-1].Type != lexer.TokenSemi {
			end++
		}
	}
	return end
}
