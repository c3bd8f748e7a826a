package dom

import (
	"sort"
	"strings"
	"unicode"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Style is a set of CSS declarations keyed by property name. Keys may be
// written in CSS form ("font-weight") or in camelCase ("fontWeight").
type Style map[string]string

// declaration is one property/value pair of an inline style attribute.
type declaration struct {
	property  string
	value     string
	important bool
}

// boldWeight is forced onto strong and b descendants after every merge.
var boldWeight = []declaration{{property: "font-weight", value: "bold"}}

// ApplyStyle merges patch into the inline style of every element below el,
// depth first. Patch values replace same-named inline properties; other
// properties are kept in their original order. el itself is left untouched,
// as are text and comment nodes.
//
// Strong and b elements always end up with font-weight: bold, whatever the
// patch says.
func ApplyStyle(el *html.Node, patch Style) {
	if el == nil {
		return
	}
	applyStyle(el, patch.declarations())
}

func applyStyle(n *html.Node, patch []declaration) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		mergeStyle(c, patch)
		applyStyle(c, patch)
		if c.DataAtom == atom.Strong || c.DataAtom == atom.B {
			mergeStyle(c, boldWeight)
		}
	}
}

// mergeStyle rewrites the style attribute of n with patch applied.
func mergeStyle(n *html.Node, patch []declaration) {
	if len(patch) == 0 {
		return
	}
	current, _ := GetAttr(n, "style")
	decls := parseInlineStyle(current)

	index := make(map[string]int, len(decls))
	for i, d := range decls {
		index[d.property] = i
	}
	for _, p := range patch {
		if i, ok := index[p.property]; ok {
			decls[i] = p
			continue
		}
		index[p.property] = len(decls)
		decls = append(decls, p)
	}
	SetAttr(n, "style", formatDeclarations(decls))
}

// InlineStyle returns the declarations of n's style attribute as a Style.
func InlineStyle(n *html.Node) Style {
	current, _ := GetAttr(n, "style")
	out := Style{}
	for _, d := range parseInlineStyle(current) {
		out[d.property] = d.value
	}
	return out
}

// parseInlineStyle parses the content of a style attribute. Each declaration
// is parsed on its own: empty and malformed ones are skipped, the rest are
// kept in order.
func parseInlineStyle(text string) []declaration {
	var out []declaration
	for _, raw := range splitDeclarations(text) {
		if d, ok := parseDeclaration(raw); ok {
			out = append(out, d)
		}
	}
	return out
}

// splitDeclarations splits text on semicolons outside quotes, parentheses,
// brackets and braces. Blank segments are dropped.
func splitDeclarations(text string) []string {
	var (
		out   []string
		depth int
		quote rune
		start int
	)
	flush := func(end int) {
		if seg := strings.TrimSpace(text[start:end]); seg != "" {
			out = append(out, seg)
		}
	}
	escaped := false
	for i, r := range text {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			flush(i)
			start = i + 1
		}
	}
	flush(len(text))
	return out
}

// parseDeclaration parses a single "property: value" pair. Custom properties
// keep their raw value, which may hold any balanced token sequence.
func parseDeclaration(raw string) (declaration, bool) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return declaration{}, false
	}
	if strings.HasPrefix(name, "--") {
		value, important := cutImportant(strings.TrimSpace(value))
		return declaration{property: name, value: value, important: important}, true
	}

	parsed, err := parser.ParseDeclarations(raw + ";")
	if err != nil || len(parsed) != 1 || parsed[0].Property == "" || parsed[0].Value == "" {
		return declaration{}, false
	}
	return declaration{
		property:  strings.ToLower(parsed[0].Property),
		value:     parsed[0].Value,
		important: parsed[0].Important,
	}, true
}

// cutImportant strips a trailing !important flag from value.
func cutImportant(value string) (string, bool) {
	const flag = "!important"
	if len(value) >= len(flag) && strings.EqualFold(value[len(value)-len(flag):], flag) {
		return strings.TrimSpace(value[:len(value)-len(flag)]), true
	}
	return value, false
}

// declarations returns the patch as declarations sorted by property, so the
// attribute text is deterministic.
func (s Style) declarations() []declaration {
	out := make([]declaration, 0, len(s))
	for k, v := range s {
		prop := PropertyName(k)
		if prop == "" {
			continue
		}
		out = append(out, declaration{property: prop, value: strings.TrimSpace(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].property < out[j].property })
	return out
}

// PropertyName normalizes a property key to its CSS form:
// "fontWeight" -> "font-weight", " Color " -> "color". Vendor keys in
// camelCase get their leading dash back: "WebkitTransform" ->
// "-webkit-transform", "msFlex" -> "-ms-flex".
func PropertyName(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "--") {
		return key // custom properties are case-sensitive
	}
	var b strings.Builder
	if isVendorKey(key) {
		b.WriteByte('-')
	}
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isVendorKey reports whether key is a camelCase vendor-prefixed property
// such as "MozAppearance" or "msTransform". A lone capitalized word like
// "Color" is not.
func isVendorKey(key string) bool {
	if strings.HasPrefix(key, "ms") && len(key) > 2 && unicode.IsUpper(rune(key[2])) {
		return true
	}
	if key == "" || !unicode.IsUpper(rune(key[0])) {
		return false
	}
	return strings.IndexFunc(key[1:], unicode.IsUpper) >= 0
}

func formatDeclarations(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		s := d.property + ": " + d.value
		if d.important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
