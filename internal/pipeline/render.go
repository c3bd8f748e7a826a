package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/dom"
)

// ErrUnsupportedNote indicates a note whose extension the renderer does not handle.
var ErrUnsupportedNote = errors.New("unsupported note type")

// NoteExtensions lists the file extensions Render accepts.
var NoteExtensions = []string{".md", ".markdown", ".html", ".htm"}

// Note is a source document to render.
type Note struct {
	Path    string // Used for the extension, the title fallback and relative paths
	Content string
}

// Renderer turns notes into complete HTML document trees.
type Renderer struct {
	preprocessor MarkdownPreprocessor
	converter    HTMLConverter
	sanitizer    Sanitizer
	cssInjector  CSSInjector
	css          string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithCSS sets the stylesheet injected into every rendered document.
func WithCSS(css string) RendererOption {
	return func(r *Renderer) {
		r.css = css
	}
}

// WithHTMLConverter replaces the Markdown converter.
func WithHTMLConverter(c HTMLConverter) RendererOption {
	return func(r *Renderer) {
		r.converter = c
	}
}

// WithSanitizer replaces the raw HTML sanitizer.
func WithSanitizer(s Sanitizer) RendererOption {
	return func(r *Renderer) {
		r.sanitizer = s
	}
}

// NewRenderer creates a Renderer with the default goldmark converter and
// bluemonday sanitizer.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		preprocessor: &CommonMarkPreprocessor{},
		converter:    NewGoldmarkConverter(DefaultHighlightStyle),
		sanitizer:    NewHTMLSanitizer(),
		cssInjector:  &CSSInjection{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsNote reports whether path has an extension Render accepts.
func IsNote(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range NoteExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Render converts note into a full document tree: Markdown goes through
// goldmark, raw HTML through the sanitizer. Relative paths are resolved
// against the note's directory and the stylesheet is injected.
func (r *Renderer) Render(ctx context.Context, note Note) (*html.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fragment string
	switch strings.ToLower(filepath.Ext(note.Path)) {
	case ".md", ".markdown":
		md := r.preprocessor.PreprocessMarkdown(ctx, note.Content)
		out, err := r.converter.ToHTML(ctx, md)
		if err != nil {
			return nil, err
		}
		fragment = ConvertMarkPlaceholders(out)
	case ".html", ".htm":
		fragment = r.sanitizer.Sanitize(note.Content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedNote, note.Path)
	}

	doc, err := dom.Parse(fragment)
	if err != nil {
		return nil, fmt.Errorf("parsing rendered note: %w", err)
	}

	if err := RewriteRelativePaths(doc, filepath.Dir(note.Path)); err != nil {
		return nil, fmt.Errorf("rewriting paths: %w", err)
	}
	SetTitle(doc, NoteTitle(note.Path))
	SetCharset(doc)
	r.cssInjector.InjectCSS(ctx, doc, r.css)
	return doc, nil
}

// NoteTitle derives a display title from a note path: the base name
// without extension.
func NoteTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
