// internal/script/markdown.go
package script

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

var blankRuns = regexp.MustCompile(`\n{3,}`)

// MarkdownToText drops markdown syntax and keeps the readable text.
// Blocks are separated by blank lines and list items start with "- ".
func MarkdownToText(src []byte) string {
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(src))
				if node.HardLineBreak() || node.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.Label(src))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
				buf.WriteString("\n")
				return ast.WalkSkipChildren, nil
			}
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				buf.WriteString("- ")
			} else {
				buf.WriteString("\n")
			}
		case *ast.Paragraph, *ast.Heading, *ast.List, *ast.Blockquote, *ast.ThematicBreak:
			if !entering {
				buf.WriteString("\n\n")
			}
		case *ast.TextBlock:
			// tight list item content; the ListItem adds the newline
		}
		return ast.WalkContinue, nil
	})

	out := blankRuns.ReplaceAllString(buf.String(), "\n\n")
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
