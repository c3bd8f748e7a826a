package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans untrusted HTML before it is loaded in the browser.
type Sanitizer interface {
	Sanitize(content string) string
}

// HTMLSanitizer removes scripts, event handlers and unsafe URLs from raw
// HTML notes while keeping what a snapshot needs: inline styles, classes,
// tables, images (including data: URIs and file:// sources) and
// highlighted code spans.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

// NewHTMLSanitizer builds the note sanitizing policy on top of bluemonday's
// user-generated-content policy.
func NewHTMLSanitizer() *HTMLSanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").Globally()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\- ]+$`)).Globally()
	p.AllowElements("figure", "figcaption", "mark", "span", "div")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")
	p.AllowDataURIImages()
	p.AllowURLSchemes("mailto", "http", "https", "file")
	return &HTMLSanitizer{policy: p}
}

// Sanitize returns the cleaned HTML fragment.
func (s *HTMLSanitizer) Sanitize(content string) string {
	return s.policy.Sanitize(content)
}

// Compile-time interface check.
var _ Sanitizer = (*HTMLSanitizer)(nil)
