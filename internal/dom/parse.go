package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses HTML content, handling both full documents and fragments.
// Fragments are parsed in a body context and wrapped in a fresh document
// (html, head, body) so the result is always a complete tree that a browser
// can lay out.
func Parse(content string) (*html.Node, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		return html.Parse(strings.NewReader(content))
	}

	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	doc := NewDocument()
	body := Body(doc)
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return doc, nil
}

// NewDocument returns an empty HTML5 document: doctype, html, head, body.
func NewDocument() *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := newElement(atom.Html)
	root.AppendChild(newElement(atom.Head))
	root.AppendChild(newElement(atom.Body))
	doc.AppendChild(root)
	return doc
}

// Render serializes n (and its subtree) to a string.
func Render(n *html.Node) (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Body returns the body element of doc, or nil.
func Body(doc *html.Node) *html.Node {
	return First(doc, "body")
}

// Head returns the head element of doc, or nil.
func Head(doc *html.Node) *html.Node {
	return First(doc, "head")
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
