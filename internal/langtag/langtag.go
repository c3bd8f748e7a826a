// Package langtag canonicalizes code-fence language identifiers to the
// names understood by the syntax highlighter.
package langtag

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// aliases maps free-form identifiers to canonical highlighter names.
// Keys are lower case.
var aliases = map[string]string{
	"js":    "javascript",
	"ts":    "typescript",
	"sh":    "bash",
	"shell": "bash",
	"py":    "python",
	"c++":   "cpp",
	"cs":    "csharp",
	"rb":    "ruby",
	"kt":    "kotlin",
	"tomi":  "ini",
	"html":  "xml",
	"md":    "markdown",
	"objc":  "objectivec",
	"pl":    "perl",
	"txt":   "plaintext",
	"vb":    "vbnet",
	"yml":   "yaml",
	"rs":    "rust",
	"rust":  "rust",
}

// canonical is the allow-list of names the highlighter accepts.
var canonical = map[string]struct{}{
	"javascript":   {},
	"typescript":   {},
	"bash":         {},
	"python":       {},
	"java":         {},
	"c":            {},
	"cpp":          {},
	"csharp":       {},
	"go":           {},
	"ruby":         {},
	"swift":        {},
	"kotlin":       {},
	"dart":         {},
	"diff":         {},
	"graphql":      {},
	"ini":          {},
	"json":         {},
	"less":         {},
	"lua":          {},
	"makefile":     {},
	"xml":          {},
	"markdown":     {},
	"objectivec":   {},
	"perl":         {},
	"php":          {},
	"php-template": {},
	"plaintext":    {},
	"python-repl":  {},
	"r":            {},
	"scss":         {},
	"shell":        {},
	"sql":          {},
	"vbnet":        {},
	"wasm":         {},
	"yaml":         {},
	"rust":         {},
}

// chromaNames covers canonical names that chroma registers under another alias.
var chromaNames = map[string]string{
	"objectivec":   "objective-c",
	"vbnet":        "vb.net",
	"plaintext":    "plaintext",
	"php-template": "php",
	"python-repl":  "python",
	"wasm":         "wat",
}

// Convert maps a language identifier to its canonical highlighter name.
// Matching is case-insensitive; unknown identifiers are returned lower-cased.
func Convert(language string) string {
	language = strings.ToLower(language)
	if name, ok := aliases[language]; ok {
		return name
	}
	return language
}

// IsValid reports whether language is a canonical highlighter name.
// The check is exact: callers normally pass the result of Convert.
func IsValid(language string) bool {
	_, ok := canonical[language]
	return ok
}

// HighlighterName converts language and then maps the few canonical names
// chroma registers differently ("objectivec" -> "objective-c").
func HighlighterName(language string) string {
	name := Convert(language)
	if alias, ok := chromaNames[name]; ok {
		return alias
	}
	return name
}

// Lexer resolves a language identifier to a chroma lexer.
// Unknown languages fall back to the plaintext lexer, so the result is never nil.
func Lexer(language string) chroma.Lexer {
	if l := lexers.Get(HighlighterName(language)); l != nil {
		return l
	}
	return lexers.Fallback
}
