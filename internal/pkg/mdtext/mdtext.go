// Package mdtext extracts plain text from markdown.
package mdtext

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var engine = goldmark.New(goldmark.WithExtensions(extension.GFM))

func parse(source []byte) ast.Node {
	return engine.Parser().Parse(text.NewReader(source))
}

// PlainText flattens markdown to text with one line per block. Table rows are
// joined with " | " and fenced code keeps its lines verbatim.
func PlainText(markdown string) string {
	source := []byte(markdown)
	var lines []string
	_ = ast.Walk(parse(source), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.TableHeader, *gmast.TableRow:
			cells := make([]string, 0, node.ChildCount())
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				cells = append(cells, strings.TrimSpace(inlineText(c, source)))
			}
			lines = append(lines, strings.Join(cells, " | "))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines = append(lines, strings.TrimRight(blockLines(node, source), "\n"))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		if isLeafBlock(n) {
			if line := strings.TrimSpace(inlineText(n, source)); line != "" {
				lines = append(lines, line)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(lines, "\n")
}

// FirstHeading returns the text of the first heading, or "" when there is none.
func FirstHeading(markdown string) string {
	source := []byte(markdown)
	var heading string
	_ = ast.Walk(parse(source), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			heading = strings.TrimSpace(inlineText(h, source))
			if heading != "" {
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return heading
}

// FirstLine returns the first non-empty line of PlainText.
func FirstLine(markdown string) string {
	for _, line := range strings.Split(PlainText(markdown), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func isLeafBlock(n ast.Node) bool {
	if n.Type() != ast.TypeBlock {
		return false
	}
	first := n.FirstChild()
	return first == nil || first.Type() == ast.TypeInline
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := child.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockLines(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}
