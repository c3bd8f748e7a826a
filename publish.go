package vaultshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/dom"
)

// ErrNoTargets is returned by Publish when there is nothing to capture.
var ErrNoTargets = errors.New("no capture targets")

// PublishOptions configures Publish.
type PublishOptions struct {
	Directory   string    // vault folder snapshots are stored in (required)
	BaseName    string    // snapshot file name stem; files are <BaseName>-<n>.png (required)
	Title       string    // heading prepended to the published document (optional)
	SourceLink  string    // link appended at the end of the document (optional)
	ImageBase   string    // prefix of placeholder image URLs (optional)
	Style       dom.Style // style patch applied to each target's clone (optional)
	ProbeImages bool      // fill missing <img> width/height attributes
}

// Snapshot describes one stored capture.
type Snapshot struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Dimensions
}

// Publication is the result of Publish.
type Publication struct {
	// Document is a copy of the input with every captured element replaced by
	// an image placeholder.
	Document  *html.Node
	Snapshots []Snapshot
	// Failed counts targets whose export failed; they are left in place.
	Failed int
}

// Publish exports each target of doc to the vault, then returns a copy of doc
// where the captured elements are replaced by image placeholders pointing at
// the stored snapshots. doc itself is not modified. Export failures are
// logged and counted; the matching element stays in the published copy.
func (e *Exporter) Publish(ctx context.Context, doc *html.Node, targets []*html.Node, opts PublishOptions) (*Publication, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if strings.TrimSpace(opts.BaseName) == "" {
		return nil, fmt.Errorf("%w: empty base name", ErrInvalidFileName)
	}

	var prepare PrepareFunc
	if len(opts.Style) > 0 {
		style := opts.Style
		prepare = func(_, root *html.Node) {
			dom.ApplyStyle(root, style)
		}
	}

	// Capture everything before touching the copy, so that a placeholder
	// never ends up inside a later capture.
	pub := &Publication{}
	paths := make(map[int][]int, len(targets))
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s-%d.png", opts.BaseName, i+1)
		dims, err := e.ExportErr(ctx, opts.Directory, RenderTarget{Root: t, Prepare: prepare}, name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Error("export failed", "dir", opts.Directory, "file", name, "err", err)
			pub.Failed++
			continue
		}

		_, path, _ := resolveTarget(opts.Directory, RenderTarget{Root: t}, name)
		pub.Snapshots = append(pub.Snapshots, Snapshot{Index: i, Path: path, Dimensions: *dims})
		paths[i] = dom.PathOf(t)
	}

	copyDoc, _ := dom.Clone(doc)
	if copyDoc == nil {
		return nil, ErrDetachedTarget
	}

	// Resolve every node before editing the copy.
	nodes := make([]*html.Node, len(pub.Snapshots))
	for i, s := range pub.Snapshots {
		nodes[i] = dom.NodeAt(copyDoc, paths[s.Index])
	}
	for i, s := range pub.Snapshots {
		if nodes[i] == nil {
			continue
		}
		dom.Replace(nodes[i], placeholder(opts.ImageBase, s))
	}

	body := dom.Body(copyDoc)
	if body != nil && opts.Title != "" {
		dom.Prepend(body, dom.NewHeading(opts.Title))
	}
	if body != nil && opts.SourceLink != "" {
		p := &html.Node{Type: html.ElementNode, Data: "p"}
		p.AppendChild(dom.NewLink(opts.SourceLink, opts.SourceLink))
		body.AppendChild(p)
	}

	if opts.ProbeImages {
		e.fillImageSizes(ctx, copyDoc)
	}

	pub.Document = copyDoc
	return pub, nil
}

// placeholder builds the image placeholder for s, sized with its stored
// dimensions.
func placeholder(base string, s Snapshot) *html.Node {
	src := s.Path
	if base != "" {
		src = strings.TrimRight(base, "/") + "/" + s.Path
	}
	alt := fmt.Sprintf("snapshot %d", s.Index+1)

	div := dom.NewImagePlaceholder(src, alt)
	img := dom.First(div, "img")
	dom.SetAttr(img, "width", strconv.Itoa(s.Width))
	dom.SetAttr(img, "height", strconv.Itoa(s.Height))
	return div
}

// fillImageSizes sets width and height on every image of doc that lacks
// either, using ProbeImage. Images that cannot be probed are left as is.
func (e *Exporter) fillImageSizes(ctx context.Context, doc *html.Node) {
	for _, img := range dom.FindAll(doc, "img") {
		_, hasW := dom.GetAttr(img, "width")
		_, hasH := dom.GetAttr(img, "height")
		if hasW && hasH {
			continue
		}
		src, ok := dom.GetAttr(img, "src")
		if !ok || src == "" {
			continue
		}

		dims, err := ProbeImage(ctx, src)
		if err != nil {
			e.logger.Warn("image size unavailable", "err", err)
			continue
		}
		dom.SetAttr(img, "width", strconv.Itoa(dims.Width))
		dom.SetAttr(img, "height", strconv.Itoa(dims.Height))
	}
}
