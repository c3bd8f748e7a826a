package main

// Notes:
// - Test infrastructure shared by the command tests: a recording Publisher,
//   a Pool around it, and an Environment writing to buffers.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/net/html"

	vaultshot "github.com/alnah/go-vaultshot"
)

// ---------------------------------------------------------------------------
// Mock Implementations - Publisher and Pool
// ---------------------------------------------------------------------------

// mockPublisher records calls and returns 1920x540 snapshots without a
// browser. The last `failed` targets of every Publish call fail.
type mockPublisher struct {
	mu         sync.Mutex
	publishErr error
	exportErr  error
	failed     int
	publishes  []vaultshot.PublishOptions
	exports    []string // directory/fileName
	prepared   []*html.Node
}

func (m *mockPublisher) Publish(_ context.Context, doc *html.Node, targets []*html.Node, opts vaultshot.PublishOptions) (*vaultshot.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.publishes = append(m.publishes, opts)
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	ok := max(len(targets)-m.failed, 0)
	snaps := make([]vaultshot.Snapshot, 0, ok)
	for i := range ok {
		snaps = append(snaps, vaultshot.Snapshot{
			Index:      i,
			Path:       path.Join(opts.Directory, fmt.Sprintf("%s-%d.png", opts.BaseName, i+1)),
			Dimensions: vaultshot.Dimensions{Width: 1920, Height: 540},
		})
	}
	return &vaultshot.Publication{Document: doc, Snapshots: snaps, Failed: len(targets) - ok}, nil
}

func (m *mockPublisher) ExportErr(_ context.Context, directory string, target vaultshot.RenderTarget, fileName string) (*vaultshot.Dimensions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exports = append(m.exports, path.Join(directory, fileName))
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	if target.Prepare != nil {
		target.Prepare(nil, target.Root)
		m.prepared = append(m.prepared, target.Root)
	}
	return &vaultshot.Dimensions{Width: 1920, Height: 540}, nil
}

func (m *mockPublisher) publishCalls() []vaultshot.PublishOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vaultshot.PublishOptions(nil), m.publishes...)
}

func (m *mockPublisher) exportCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.exports...)
}

// mockPool hands out the same publisher up to size times concurrently.
type mockPool struct {
	pub    Publisher
	size   int
	sem    chan struct{}
	mu     sync.Mutex
	closed bool
	store  vaultshot.Store
	opts   []vaultshot.Option
}

func newMockPool(pub Publisher, size int) *mockPool {
	return &mockPool{pub: pub, size: size, sem: make(chan struct{}, size)}
}

func (p *mockPool) Acquire() Publisher {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil
	}
	p.sem <- struct{}{}
	return p.pub
}

func (p *mockPool) Release(Publisher) { <-p.sem }

func (p *mockPool) Size() int { return p.size }

func (p *mockPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *mockPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// testEnv returns an Environment whose pool factory records its arguments
// into pool and always returns it.
func testEnv(pool *mockPool) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Stdout: &stdout,
		Stderr: &stderr,
		NewPool: func(size int, store vaultshot.Store, opts ...vaultshot.Option) Pool {
			pool.size = size
			pool.sem = make(chan struct{}, size)
			pool.store = store
			pool.opts = opts
			return pool
		},
		Probe: vaultshot.ProbeImage,
	}
	return env, &stdout, &stderr
}

// writeTree creates files under a new temp directory and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return dir
}

// tableNote is a Markdown note with one table and one code block.
const tableNote = "# Report\n\n| Quarter | Revenue |\n|---|---|\n| Q3 | 12 |\n\n```go\nfmt.Println(\"hi\")\n```\n"
