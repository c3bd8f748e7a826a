package pipeline

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/fileutil"
)

// RewriteRelativePaths converts relative image and link paths in doc to
// absolute file:// URLs, so a note rendered from a temp file still finds
// the attachments sitting next to it. If sourceDir is empty, doc is left
// unchanged.
//
// Rewrites:
//   - img[src]: relative paths to images
//   - a[href]: relative file paths (not anchors, not URLs)
//
// Does NOT rewrite:
//   - srcset attributes
//   - CSS url() references
//   - script[src]
//   - Absolute paths or URLs (already resolved)
//   - Paths that climb out of sourceDir
func RewriteRelativePaths(doc *html.Node, sourceDir string) error {
	if sourceDir == "" || doc == nil {
		return nil
	}

	// Make sourceDir absolute for consistent path resolution
	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return err
	}

	rewriteNode(doc, absSourceDir)
	return nil
}

// rewriteNode traverses the DOM and rewrites relative paths.
func rewriteNode(n *html.Node, sourceDir string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img":
			rewriteAttr(n, "src", sourceDir)
		case "a":
			rewriteAttr(n, "href", sourceDir)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, sourceDir)
	}
}

// rewriteAttr rewrites a single attribute if it's a relative path.
func rewriteAttr(n *html.Node, attrName, sourceDir string) {
	for i, attr := range n.Attr {
		if attr.Key != attrName {
			continue
		}
		if !isRelativePath(attr.Val) {
			continue
		}

		absPath := filepath.Join(sourceDir, attr.Val)

		// Security: validate path is under sourceDir (prevent traversal)
		if !isPathUnderDir(absPath, sourceDir) {
			continue // Skip rewriting, leave original path
		}

		n.Attr[i].Val = fileutil.FileURL(absPath)
	}
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}

	// Skip URLs (http, https, file, data, mailto, protocol-relative)
	if fileutil.IsURL(path) ||
		fileutil.IsDataURI(path) ||
		strings.HasPrefix(path, "file://") ||
		strings.HasPrefix(path, "mailto:") ||
		strings.HasPrefix(path, "//") {
		return false
	}

	// Skip anchors
	if strings.HasPrefix(path, "#") {
		return false
	}

	// Skip absolute paths
	if filepath.IsAbs(path) {
		return false
	}

	return true
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	// Ensure dir ends with separator for correct prefix matching
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	// Path is under dir if it starts with dir/ or equals dir
	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}
