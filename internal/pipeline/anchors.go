package pipeline

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// tocMaxLevel is the deepest heading level listed in the table of contents.
const tocMaxLevel = 3

// TOCEntry is one heading in a page's table of contents.
type TOCEntry struct {
	Level int
	ID    string
	Text  string
}

var (
	tocKey   = parser.NewContextKey()
	titleKey = parser.NewContextKey()
)

// headingTransformer collects the table of contents and the first level one
// heading, then prepends a self-link to every heading that has an id.
type headingTransformer struct{}

func (headingTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			headings = append(headings, h)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	var toc []TOCEntry
	for _, h := range headings {
		label := plainText(h, source)
		if h.Level == 1 && pc.Get(titleKey) == nil && label != "" {
			pc.Set(titleKey, label)
		}

		raw, ok := h.AttributeString("id")
		if !ok {
			continue
		}
		id, ok := raw.([]byte)
		if !ok || len(id) == 0 {
			continue
		}

		if h.Level <= tocMaxLevel {
			toc = append(toc, TOCEntry{Level: h.Level, ID: string(id), Text: label})
		}

		link := ast.NewLink()
		link.Destination = append([]byte("#"), id...)
		link.SetAttributeString("class", []byte("anchor"))
		link.AppendChild(link, ast.NewString([]byte("#")))
		if first := h.FirstChild(); first != nil {
			h.InsertBefore(h, first, link)
		} else {
			h.AppendChild(h, link)
		}
	}
	pc.Set(tocKey, toc)
}

// plainText concatenates the literal text below n.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			if t.IsCode() {
				buf.WriteString(html.UnescapeString(string(t.Value)))
			} else {
				buf.Write(t.Value)
			}
		}
		return ast.WalkContinue, nil
	})
	return string(bytes.TrimSpace(buf.Bytes()))
}

func tocFrom(pc parser.Context) []TOCEntry {
	toc, _ := pc.Get(tocKey).([]TOCEntry)
	return toc
}

func titleFrom(pc parser.Context) string {
	title, _ := pc.Get(titleKey).(string)
	return title
}
