package prose

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/yaklabco/docqa/pkg/model"
)

// Run is a stretch of prose inside one block. Start is its byte offset in the
// document; Text is the raw source, so match offsets map back by adding Start.
type Run struct {
	Start int
	Text  string
}

// proseRuns parses doc and returns the prose runs of its text nodes. Code spans,
// raw HTML and autolinks are skipped; code blocks carry no text nodes. Adjacent
// text nodes of the same block are joined when only whitespace separates them.
func proseRuns(md goldmark.Markdown, doc string) []Run {
	src := []byte(doc)
	root := md.Parser().Parse(text.NewReader(src))

	type piece struct {
		span  model.Span
		block ast.Node
	}
	var pieces []piece

	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.CodeSpan, *ast.RawHTML, *ast.AutoLink:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			seg := n.Segment
			if seg.Stop > seg.Start {
				pieces = append(pieces, piece{
					span:  model.Span{Start: seg.Start, End: seg.Stop},
					block: enclosingBlock(n),
				})
			}
		}
		return ast.WalkContinue, nil
	})

	var runs []model.Span
	var lastBlock ast.Node
	for _, p := range pieces {
		if len(runs) > 0 && p.block == lastBlock {
			last := &runs[len(runs)-1]
			if p.span.Start >= last.End && onlySpace(doc[last.End:p.span.Start]) {
				last.End = p.span.End
				continue
			}
		}
		runs = append(runs, p.span)
		lastBlock = p.block
	}

	out := make([]Run, 0, len(runs))
	for _, span := range runs {
		out = append(out, Run{Start: span.Start, Text: doc[span.Start:span.End]})
	}
	return out
}

func enclosingBlock(node ast.Node) ast.Node {
	for n := node.Parent(); n != nil; n = n.Parent() {
		if n.Type() == ast.TypeBlock {
			return n
		}
	}
	return nil
}

func onlySpace(s string) bool {
	for idx := range len(s) {
		if !isSpace(s[idx]) {
			return false
		}
	}
	return true
}
