package loader

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown flattens a markdown document to plain text: markup is
// dropped, every block becomes its own paragraph and code is kept verbatim.
func extractMarkdown(data []byte) (string, error) {
	source, err := extractText(data)
	if err != nil {
		return "", err
	}
	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	f := &flattener{}
	err = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := node.(type) {
		case *ast.Text:
			if entering {
				f.write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					f.write([]byte{'\n'})
				}
			}
		case *ast.String:
			if entering {
				f.write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				f.write(n.Label(src))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			if entering {
				var code bytes.Buffer
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					code.Write(seg.Value(src))
				}
				f.write(bytes.TrimRight(code.Bytes(), "\n"))
				f.endBlock()
			}
			return ast.WalkSkipChildren, nil
		default:
			if !entering && node.Type() == ast.TypeBlock {
				f.endBlock()
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(f.sb.String()), nil
}

// flattener joins block contents with exactly one blank line between blocks.
type flattener struct {
	sb      strings.Builder
	pending bool
}

func (f *flattener) write(b []byte) {
	if len(b) == 0 {
		return
	}
	if f.pending && f.sb.Len() > 0 {
		f.sb.WriteString("\n\n")
	}
	f.pending = false
	f.sb.Write(b)
}

func (f *flattener) endBlock() { f.pending = true }
