package pipeline

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-vaultshot/internal/dom"
)

// CSSInjector defines the contract for CSS injection into a document tree.
type CSSInjector interface {
	InjectCSS(ctx context.Context, doc *html.Node, cssContent string)
}

// CSSInjection appends a <style> element to the document head.
type CSSInjection struct{}

// InjectCSS adds a <style> block at the end of <head>, creating the head
// when the tree has none. Empty CSS and cancelled contexts leave doc as is.
// CSS content is sanitized to prevent breaking out of the style element.
func (s *CSSInjection) InjectCSS(ctx context.Context, doc *html.Node, cssContent string) {
	if cssContent == "" || doc == nil {
		return
	}

	// Check for cancellation
	if ctx.Err() != nil {
		return
	}

	style := &html.Node{Type: html.ElementNode, DataAtom: atom.Style, Data: "style"}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: sanitizeCSS(cssContent)})
	ensureHead(doc).AppendChild(style)
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
// Prevents CSS injection by escaping </style> and similar closing sequences.
func sanitizeCSS(css string) string {
	// Escape </ sequences to prevent closing the style tag prematurely
	return strings.ReplaceAll(css, "</", `<\/`)
}

// SetTitle replaces the document <title> text, creating the element when
// missing. The title is stored as a text node so markup in it stays inert.
func SetTitle(doc *html.Node, title string) {
	if doc == nil {
		return
	}
	head := ensureHead(doc)
	el := dom.First(head, "title")
	if el == nil {
		el = &html.Node{Type: html.ElementNode, DataAtom: atom.Title, Data: "title"}
		dom.Prepend(head, el)
	}
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

// SetCharset makes sure the document declares UTF-8, so file:// loads in
// Chrome do not fall back to Latin-1.
func SetCharset(doc *html.Node) {
	head := ensureHead(doc)
	for _, m := range dom.FindAll(head, "meta") {
		if _, ok := dom.GetAttr(m, "charset"); ok {
			return
		}
	}
	meta := &html.Node{Type: html.ElementNode, DataAtom: atom.Meta, Data: "meta"}
	dom.SetAttr(meta, "charset", "utf-8")
	dom.Prepend(head, meta)
}

// ensureHead returns the head element of doc, inserting one before the body
// when the parser produced none.
func ensureHead(doc *html.Node) *html.Node {
	if head := dom.Head(doc); head != nil {
		return head
	}
	head := &html.Node{Type: html.ElementNode, DataAtom: atom.Head, Data: "head"}
	root := dom.First(doc, "html")
	if root == nil {
		dom.Prepend(doc, head)
		return head
	}
	dom.Prepend(root, head)
	return head
}

// Compile-time interface check.
var _ CSSInjector = (*CSSInjection)(nil)
