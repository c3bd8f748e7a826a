package vaultshot

// Notes:
// - Publish is tested with a mock rasterizer that still runs prepareClone, so
//   the style hook is applied to a real clone exactly as in production
// - The input document must come back unchanged; only the returned copy holds
//   placeholders

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-vaultshot/internal/dom"
	"github.com/alnah/go-vaultshot/internal/vault"
)

const publishDoc = `<p>intro</p>
<table id="first"><tr><td><b>1</b></td></tr></table>
<p>middle</p>
<pre id="code">fmt.Println()</pre>
<table id="second"><tr><td>2</td></tr></table>`

// cloningRasterizer serializes the prepared clone of each target and returns a
// 200x100 image. Calls listed in failOn fail.
type cloningRasterizer struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]bool
	clones []string
}

func (r *cloningRasterizer) Rasterize(ctx context.Context, target RenderTarget, opts RasterOptions) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.failOn[r.calls] {
		return nil, errors.New("capture failed")
	}
	content, err := prepareClone(target, opts)
	if err != nil {
		return nil, err
	}
	r.clones = append(r.clones, content)
	return solidImage(200, 100, red), nil
}

func (r *cloningRasterizer) Close() error { return nil }

// ---------------------------------------------------------------------------
// TestPublish_Success - Placeholders Replace Captured Elements
// ---------------------------------------------------------------------------

func TestPublish_Success(t *testing.T) {
	t.Parallel()

	doc, err := dom.Parse(publishDoc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	before, _ := dom.Render(doc)

	store := vault.NewMemStore()
	raster := &cloningRasterizer{}
	exp := NewExporter(store, withRasterizer(raster))

	pub, err := exp.Publish(context.Background(), doc, dom.FindAll(doc, "table", "pre"), PublishOptions{
		Directory:  "snapshots/report",
		BaseName:   "report",
		Title:      "Q3 <Report>",
		SourceLink: "https://example.com/report",
		ImageBase:  "https://cdn.example.com/vault/",
		Style:      dom.Style{"color": "red"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// Snapshots
	wantPaths := []string{
		"snapshots/report/report-1.png",
		"snapshots/report/report-2.png",
		"snapshots/report/report-3.png",
	}
	if len(pub.Snapshots) != len(wantPaths) || pub.Failed != 0 {
		t.Fatalf("Publish() snapshots = %+v failed = %d", pub.Snapshots, pub.Failed)
	}
	for i, s := range pub.Snapshots {
		if s.Path != wantPaths[i] || s.Index != i {
			t.Errorf("snapshot %d = %+v, want path %s", i, s, wantPaths[i])
		}
		if s.Dimensions != (Dimensions{Width: 1920, Height: 960}) {
			t.Errorf("snapshot %d dimensions = %+v, want 1920x960", i, s.Dimensions)
		}
	}
	if files := store.Files(); len(files) != 3 {
		t.Errorf("Files() = %v, want 3", files)
	}

	// Style hook ran on each clone
	for i, c := range raster.clones {
		if !strings.Contains(c, "color: red") {
			t.Errorf("clone %d missing style patch", i)
		}
	}

	// Published copy
	out, err := dom.Render(pub.Document)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "<table") || strings.Contains(out, "<pre") {
		t.Errorf("captured elements still present:\n%s", out)
	}
	for _, want := range []string{
		`src="https://cdn.example.com/vault/snapshots/report/report-1.png"`,
		`width="1920"`,
		`height="960"`,
		`class="aspectRatioPlaceholder is-locked"`,
		"<h1>Q3 &lt;Report&gt;</h1>",
		`<a href="https://example.com/report" target="_blank">`,
		"<p>middle</p>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("published document missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, dom.PlaceholderClass) != 3 {
		t.Errorf("placeholder count = %d, want 3", strings.Count(out, dom.PlaceholderClass))
	}
	body := dom.Body(pub.Document)
	if !dom.IsElement(body.FirstChild, "h1") {
		t.Errorf("first body child = %v, want h1", body.FirstChild)
	}

	// Input untouched
	after, _ := dom.Render(doc)
	if after != before {
		t.Error("input document was modified")
	}
}

// ---------------------------------------------------------------------------
// TestPublish_PartialFailure - Failed Targets Stay in Place
// ---------------------------------------------------------------------------

func TestPublish_PartialFailure(t *testing.T) {
	t.Parallel()

	doc, err := dom.Parse(publishDoc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	store := vault.NewMemStore()
	exp := NewExporter(store, withRasterizer(&cloningRasterizer{failOn: map[int]bool{2: true}}))

	pub, err := exp.Publish(context.Background(), doc, dom.FindAll(doc, "table", "pre"), PublishOptions{
		Directory: "out",
		BaseName:  "note",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if pub.Failed != 1 || len(pub.Snapshots) != 2 {
		t.Fatalf("Publish() failed = %d snapshots = %d, want 1 and 2", pub.Failed, len(pub.Snapshots))
	}
	if pub.Snapshots[1].Path != "out/note-3.png" {
		t.Errorf("second snapshot path = %q, want out/note-3.png", pub.Snapshots[1].Path)
	}

	out, _ := dom.Render(pub.Document)
	if !strings.Contains(out, `<pre id="code">`) {
		t.Errorf("failed target not kept:\n%s", out)
	}
	if !strings.Contains(out, `src="out/note-1.png"`) {
		t.Errorf("placeholder src without base is not the vault path:\n%s", out)
	}
	if strings.Contains(out, "<h1>") {
		t.Error("heading added without a title")
	}
}

// ---------------------------------------------------------------------------
// TestPublish_ProbeImages - Missing Image Sizes Filled In
// ---------------------------------------------------------------------------

func TestPublish_ProbeImages(t *testing.T) {
	t.Parallel()

	pngData := base64.StdEncoding.EncodeToString(encodeWith(t, "png", 800, 600))
	doc, err := dom.Parse(`<table><tr><td>1</td></tr></table>` +
		`<img id="inline" src="data:image/png;base64,` + pngData + `">` +
		`<img id="broken" src="missing-file.png">` +
		`<img id="sized" src="missing-file.png" width="5" height="6">`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	exp := NewExporter(vault.NewMemStore(), withRasterizer(&cloningRasterizer{}))
	pub, err := exp.Publish(context.Background(), doc, dom.FindAll(doc, "table"), PublishOptions{
		Directory:   "out",
		BaseName:    "n",
		ProbeImages: true,
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	want := map[string][2]string{
		"inline": {"800", "600"},
		"broken": {"", ""},
		"sized":  {"5", "6"},
	}
	for _, img := range dom.FindAll(pub.Document, "img") {
		id, ok := dom.GetAttr(img, "id")
		if !ok {
			continue // snapshot placeholder
		}
		w, _ := dom.GetAttr(img, "width")
		h, _ := dom.GetAttr(img, "height")
		if got := [2]string{w, h}; got != want[id] {
			t.Errorf("img %s size = %v, want %v", id, got, want[id])
		}
	}
}

// ---------------------------------------------------------------------------
// TestPublish_Validation - Input Errors
// ---------------------------------------------------------------------------

func TestPublish_Validation(t *testing.T) {
	t.Parallel()

	doc, err := dom.Parse(publishDoc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	exp := NewExporter(vault.NewMemStore(), withRasterizer(&cloningRasterizer{}))

	tests := []struct {
		name    string
		targets int
		opts    PublishOptions
		wantErr error
	}{
		{"no targets", 0, PublishOptions{Directory: "d", BaseName: "n"}, ErrNoTargets},
		{"empty base name", 1, PublishOptions{Directory: "d"}, ErrInvalidFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			targets := dom.FindAll(doc, "table")[:tt.targets]
			if _, err := exp.Publish(context.Background(), doc, targets, tt.opts); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := exp.Publish(ctx, doc, dom.FindAll(doc, "table"), PublishOptions{Directory: "d", BaseName: "n"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Publish() error = %v, want context.Canceled", err)
		}
	})
}
