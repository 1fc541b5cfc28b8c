package indexer

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// IsMarkdown reports whether name looks like a markdown file.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Flattener turns markdown into plain text with one line per block, heading
// or soft line, which is the shape the legal chunker reads.
type Flattener struct {
	parser goldmark.Markdown
}

// NewFlattener creates a new markdown flattener.
func NewFlattener() *Flattener {
	return &Flattener{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Flatten returns the text content of a markdown document. Markup such as
// heading markers, emphasis and list bullets is dropped.
func (f *Flattener) Flatten(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	doc := f.parser.Parser().Parse(text.NewReader(content))

	var lines []string
	flattenBlock(doc, content, &lines)
	return strings.Join(lines, "\n")
}

func flattenBlock(n ast.Node, src []byte, lines *[]string) {
	switch v := n.(type) {
	case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
		for _, l := range strings.Split(inlineText(v, src), "\n") {
			if l = strings.TrimSpace(l); l != "" {
				*lines = append(*lines, l)
			}
		}
		return
	case *east.TableHeader, *east.TableRow:
		var cells []string
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.TrimSpace(inlineText(c, src)))
		}
		*lines = append(*lines, strings.Join(cells, " | "))
		return
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		segs := v.Lines()
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			if l := strings.TrimSpace(string(seg.Value(src))); l != "" {
				*lines = append(*lines, l)
			}
		}
		return
	case *ast.HTMLBlock, *ast.ThematicBreak:
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		flattenBlock(c, src, lines)
	}
}

// inlineText concatenates the text under n, keeping line breaks.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(src))
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
