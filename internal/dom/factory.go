package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names the publishing target expects on image placeholders.
const (
	PlaceholderClass = "aspectRatioPlaceholder"
	LockedClass      = "is-locked"
	CaptionClass     = "imageCaption"
)

// NewImagePlaceholder builds
//
//	<div class="aspectRatioPlaceholder is-locked">
//	  <img src="..." alt="...">
//	  <figcaption class="imageCaption"></figcaption>
//	</div>
func NewImagePlaceholder(src, alt string) *html.Node {
	div := newElement(atom.Div)
	SetAttr(div, "class", PlaceholderClass+" "+LockedClass)

	img := newElement(atom.Img)
	SetAttr(img, "src", src)
	SetAttr(img, "alt", alt)

	caption := newElement(atom.Figcaption)
	SetAttr(caption, "class", CaptionClass)

	div.AppendChild(img)
	div.AppendChild(caption)
	return div
}

// NewHeading builds an h1 whose only child is a text node holding text.
// The text is never parsed, so markup in it is rendered literally.
func NewHeading(text string) *html.Node {
	h := newElement(atom.H1)
	h.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return h
}

// NewLink builds an anchor. Links whose text looks like a URL open in a new
// tab.
func NewLink(href, text string) *html.Node {
	a := newElement(atom.A)
	SetAttr(a, "href", href)
	target := "_self"
	if strings.Contains(text, "http") {
		target = "_blank"
	}
	SetAttr(a, "target", target)
	a.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return a
}

var entityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeText escapes the five HTML-significant characters for use in
// hand-built markup.
func EscapeText(text string) string {
	return entityReplacer.Replace(text)
}
