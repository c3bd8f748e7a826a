package vaultshot

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/vault"
)

// Output geometry.
const (
	// OutputWidth is the width in pixels of every exported image.
	OutputWidth = 1920

	// RasterScale is the oversampling factor used when capturing a target.
	RasterScale = 3

	// maxOutputHeight bounds the canvas allocated for one export.
	maxOutputHeight = 32767
)

// Store is the vault the exporter writes to. Implementations live in
// internal/vault (directory, SQLite, in-memory).
type Store = vault.Store

// File is a handle on a file stored in the vault.
type File = vault.File

// PrepareFunc edits a disposable clone of the document right before it is
// captured. root is the clone of RenderTarget.Root inside doc.
type PrepareFunc func(doc, root *html.Node)

// RenderTarget designates the subtree to capture.
type RenderTarget struct {
	Root    *html.Node  // element to capture, attached to a document (required)
	Prepare PrepareFunc // pre-capture hook (optional)
}

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// RasterOptions controls a single rasterization.
type RasterOptions struct {
	Scale      float64     // oversampling factor
	UseCORS    bool        // request cross-origin images with CORS
	AllowTaint bool        // allow cross-origin content without CORS headers
	Logging    bool        // emit rasterizer diagnostics
	OnClone    PrepareFunc // called once on the cloned document
}

// Rasterizer turns a render target into pixels.
type Rasterizer interface {
	Rasterize(ctx context.Context, target RenderTarget, opts RasterOptions) (image.Image, error)
	Close() error
}

// Option configures an Exporter.
type Option func(*Exporter)

// exporterConfig holds internal configuration for Exporter.
type exporterConfig struct {
	timeout       time.Duration
	browserBin    string
	noSandbox     bool
	rasterLogging bool
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the page load timeout used during rasterization.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("vaultshot: WithTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.timeout = d
	}
}

// WithLogger sets the logger export failures and warnings are reported to.
// A nil logger is ignored.
func WithLogger(l *log.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBrowserBin sets the Chrome binary to launch. It takes precedence over
// the ROD_BROWSER_BIN environment variable.
func WithBrowserBin(path string) Option {
	return func(e *Exporter) {
		e.cfg.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, as required in most containers.
func WithNoSandbox(enable bool) Option {
	return func(e *Exporter) {
		e.cfg.noSandbox = enable
	}
}

// WithRasterLogging turns on rasterizer diagnostics (browser tracing and
// per-capture debug lines).
func WithRasterLogging(enable bool) Option {
	return func(e *Exporter) {
		e.cfg.rasterLogging = enable
	}
}

// WithPathLocker shares a PathLocker between exporters, so that exports of
// the same vault path are serialized across all of them.
func WithPathLocker(l *PathLocker) Option {
	return func(e *Exporter) {
		if l != nil {
			e.locker = l
		}
	}
}

// discardLogger returns a logger that writes nowhere.
func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
