package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Clone deep-copies the document that contains n and returns the copy
// together with the node corresponding to n inside it. The original tree is
// not modified. If n is not attached to a document node, the returned
// document is nil.
func Clone(n *html.Node) (doc, target *html.Node) {
	root := Document(n)
	if root == nil {
		return nil, nil
	}
	doc = cloneTree(root, n, &target)
	return doc, target
}

// cloneTree copies src recursively. When the node being copied is want, the
// copy is stored in *found.
func cloneTree(src, want *html.Node, found **html.Node) *html.Node {
	dst := &html.Node{
		Type:      src.Type,
		DataAtom:  src.DataAtom,
		Data:      src.Data,
		Namespace: src.Namespace,
	}
	if len(src.Attr) > 0 {
		dst.Attr = make([]html.Attribute, len(src.Attr))
		copy(dst.Attr, src.Attr)
	}
	if src == want {
		*found = dst
	}
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		dst.AppendChild(cloneTree(c, want, found))
	}
	return dst
}

// Document walks up from n and returns the enclosing document node, or nil
// when n is detached.
func Document(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return p
		}
	}
	return nil
}

// PathOf returns the child indexes leading from the root of n's tree down
// to n. NodeAt(root, PathOf(n)) == n, and applied to a Clone of the tree it
// returns the copy of n.
func PathOf(n *html.Node) []int {
	var path []int
	for p := n; p != nil && p.Parent != nil; p = p.Parent {
		i := 0
		for c := p.Parent.FirstChild; c != p; c = c.NextSibling {
			i++
		}
		path = append(path, i)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// NodeAt follows path from root and returns the node it designates, or nil
// when the path does not exist in root.
func NodeAt(root *html.Node, path []int) *html.Node {
	n := root
	for _, i := range path {
		if n == nil {
			return nil
		}
		c := n.FirstChild
		for ; c != nil && i > 0; i-- {
			c = c.NextSibling
		}
		n = c
	}
	return n
}

// IsElement reports whether n is an element with the given tag name.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// First returns the first element below n (depth first) whose tag name is
// tag, or nil.
func First(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tag) {
			return c
		}
		if found := First(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns, in document order, every element below n whose tag name
// is one of tags. Matches are not descended into, so a table nested inside
// a captured table is not reported twice.
func FindAll(n *html.Node, tags ...string) []*html.Node {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}

	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && want[c.Data] {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// GetAttr returns the value of attribute key on n.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on n, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key from n if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// Replace puts repl where old is in the tree. old is detached.
func Replace(old, repl *html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
}

// Prepend inserts child as the first child of parent.
func Prepend(parent, child *html.Node) {
	if parent.FirstChild == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, parent.FirstChild)
}

// TextContent concatenates the text nodes below n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		if p.Type == html.TextNode {
			b.WriteString(p.Data)
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
