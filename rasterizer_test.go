package vaultshot

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/dom"
)

// ---------------------------------------------------------------------------
// TestPrepareClone - Pre-Capture Document
// ---------------------------------------------------------------------------

func TestPrepareClone(t *testing.T) {
	t.Parallel()

	t.Run("hook edits the clone once and the live tree is untouched", func(t *testing.T) {
		t.Parallel()

		target := testTarget(t, `<p class="hide">intro</p><table><tr><td><b>x</b></td></tr></table>`, "table")
		live, err := dom.Render(dom.Document(target.Root))
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}

		calls := 0
		var gotRoot *html.Node
		content, err := prepareClone(target, RasterOptions{
			OnClone: func(doc, root *html.Node) {
				calls++
				gotRoot = root
				dom.ApplyStyle(root, dom.Style{"color": "red"})
				for _, p := range dom.FindAll(doc, "p") {
					dom.SetAttr(p, "hidden", "")
				}
			},
		})
		if err != nil {
			t.Fatalf("prepareClone() error = %v", err)
		}

		if calls != 1 {
			t.Errorf("hook called %d times, want 1", calls)
		}
		if gotRoot == target.Root {
			t.Error("hook received the live root")
		}
		if !dom.IsElement(gotRoot, "table") {
			t.Errorf("hook root = %v, want the cloned table", gotRoot)
		}
		for _, want := range []string{targetAttr, "color: red", "hidden", "font-weight: bold"} {
			if !strings.Contains(content, want) {
				t.Errorf("serialized clone missing %q:\n%s", want, content)
			}
		}

		after, _ := dom.Render(dom.Document(target.Root))
		if after != live {
			t.Errorf("live tree changed:\nbefore %s\nafter  %s", live, after)
		}
	})

	t.Run("marker is on the target only", func(t *testing.T) {
		t.Parallel()

		target := testTarget(t, `<pre>a</pre><pre>b</pre>`, "pre")
		content, err := prepareClone(target, RasterOptions{})
		if err != nil {
			t.Fatalf("prepareClone() error = %v", err)
		}
		if n := strings.Count(content, targetAttr); n != 1 {
			t.Errorf("marker count = %d, want 1", n)
		}
		if !strings.Contains(content, `<pre `+targetAttr+`="">a</pre>`) {
			t.Errorf("marker not on the first pre:\n%s", content)
		}
	})

	t.Run("detached root", func(t *testing.T) {
		t.Parallel()

		root := &html.Node{Type: html.ElementNode, Data: "table"}
		if _, err := prepareClone(RenderTarget{Root: root}, RasterOptions{}); !errors.Is(err, ErrDetachedTarget) {
			t.Errorf("prepareClone() error = %v, want ErrDetachedTarget", err)
		}
	})

	t.Run("nil root", func(t *testing.T) {
		t.Parallel()

		if _, err := prepareClone(RenderTarget{}, RasterOptions{}); !errors.Is(err, ErrTargetNotFound) {
			t.Errorf("prepareClone() error = %v, want ErrTargetNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRequestCORS - Remote Images Fetched in CORS Mode
// ---------------------------------------------------------------------------

func TestRequestCORS(t *testing.T) {
	t.Parallel()

	doc, err := dom.Parse(`<img id="remote" src="https://example.com/a.png">` +
		`<img id="local" src="file:///tmp/a.png">` +
		`<img id="inline" src="data:image/png;base64,AAAA">` +
		`<img id="explicit" src="http://example.com/b.png" crossorigin="use-credentials">`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	requestCORS(doc)

	want := map[string]string{
		"remote":   "anonymous",
		"local":    "",
		"inline":   "",
		"explicit": "use-credentials",
	}
	for _, img := range dom.FindAll(doc, "img") {
		id, _ := dom.GetAttr(img, "id")
		got, _ := dom.GetAttr(img, "crossorigin")
		if got != want[id] {
			t.Errorf("img %s crossorigin = %q, want %q", id, got, want[id])
		}
	}
}
