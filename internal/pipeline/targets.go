package pipeline

import (
	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/dom"
)

// SelectTargets returns the elements of doc's body to capture, in document
// order. Elements nested inside another match are skipped, and so are
// elements with no text and no images (an empty <pre> renders as a blank
// strip).
func SelectTargets(doc *html.Node, tags []string) []*html.Node {
	body := dom.Body(doc)
	if body == nil {
		body = doc
	}
	var out []*html.Node
	for _, el := range dom.FindAll(body, tags...) {
		if isBlank(el) {
			continue
		}
		out = append(out, el)
	}
	return out
}

func isBlank(el *html.Node) bool {
	if dom.First(el, "img") != nil {
		return false
	}
	for _, r := range dom.TextContent(el) {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
