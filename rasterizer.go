package vaultshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/dom"
	"github.com/alnah/go-vaultshot/internal/fileutil"
	"github.com/alnah/go-vaultshot/internal/process"
)

// targetAttr marks the element to capture inside the cloned document.
const targetAttr = "data-vaultshot-target"

// Page layout.
const (
	viewportWidth  = 1280
	viewportHeight = 800
)

// boxScript locates the marked element once fonts are loaded and returns its
// box in document coordinates.
const boxScript = `async (sel) => {
	if (document.fonts && document.fonts.ready) {
		await document.fonts.ready;
	}
	const el = document.querySelector(sel);
	if (!el) {
		return { found: false };
	}
	const r = el.getBoundingClientRect();
	return {
		found: true,
		x: r.left + window.scrollX,
		y: r.top + window.scrollY,
		width: r.width,
		height: r.height,
	};
}`

// elementBox is the decoded result of boxScript.
type elementBox struct {
	Found  bool    `json:"found"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// rodRasterizer implements Rasterizer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRasterizer struct {
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	timeout   time.Duration
	bin       string
	noSandbox bool
	logger    *log.Logger
}

// newRodRasterizer creates a rodRasterizer from the exporter configuration.
func newRodRasterizer(cfg exporterConfig, logger *log.Logger) *rodRasterizer {
	return &rodRasterizer{
		timeout:   cfg.timeout,
		bin:       cfg.browserBin,
		noSandbox: cfg.noSandbox,
		logger:    logger,
	}
}

// ensureBrowser lazily launches and connects to the browser. The options of
// the first rasterization decide the launch flags.
func (r *rodRasterizer) ensureBrowser(opts RasterOptions) error {
	if r.browser != nil {
		return nil
	}

	// Configure launcher
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := r.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if r.noSandbox || os.Getenv("CI") == "true" || bin != "" {
		l = l.NoSandbox(true)
	}

	// Cross-origin images may be drawn without CORS headers
	if opts.AllowTaint {
		l = l.Set("disable-web-security")
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if opts.Logging {
		browser = browser.Logger(r.logger.StandardLog()).Trace(true)
	} else {
		browser = browser.Logger(utils.LoggerQuiet)
	}

	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	r.launcher = l
	return nil
}

// Close releases browser resources.
func (r *rodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil

	// Renderer and GPU helpers can outlive the browser process.
	if r.launcher != nil {
		process.KillProcessGroup(r.launcher.PID())
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}

// Rasterize clones the target's document, lets opts.OnClone edit the clone,
// loads it in headless Chrome and screenshots the target's box at
// opts.Scale device pixels per CSS pixel.
func (r *rodRasterizer) Rasterize(ctx context.Context, target RenderTarget, opts RasterOptions) (image.Image, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := prepareClone(target, opts)
	if err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(content, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureBrowser(opts); err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: fileutil.FileURL(tmpPath)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Timeout(timeout)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	// Check context after page load
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := page.Eval(boxScript, "["+targetAttr+"]")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	var box elementBox
	if err := res.Value.Unmarshal(&box); err != nil {
		return nil, fmt.Errorf("%w: decoding element box: %v", ErrPageLoad, err)
	}
	if !box.Found {
		return nil, ErrTargetNotFound
	}
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("%w: element box is %.0fx%.0f", ErrEmptyImage, box.Width, box.Height)
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	shot, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  scale,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}

	if opts.Logging {
		b := img.Bounds()
		r.logger.Debug("target rasterized", "width", b.Dx(), "height", b.Dy(), "scale", scale, "elapsed", time.Since(start))
	}
	return img, nil
}

// prepareClone clones the document holding target.Root, runs the pre-capture
// hook on the clone, marks the cloned root and serializes the result. The
// caller's tree is never modified.
func prepareClone(target RenderTarget, opts RasterOptions) (string, error) {
	if target.Root == nil {
		return "", ErrTargetNotFound
	}
	doc, root := dom.Clone(target.Root)
	if doc == nil {
		return "", ErrDetachedTarget
	}

	if opts.OnClone != nil {
		opts.OnClone(doc, root)
	}
	if opts.UseCORS {
		requestCORS(doc)
	}
	dom.SetAttr(root, targetAttr, "")

	content, err := dom.Render(doc)
	if err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	return content, nil
}

// requestCORS asks the browser to fetch remote images in CORS mode.
func requestCORS(doc *html.Node) {
	for _, img := range dom.FindAll(doc, "img") {
		src, _ := dom.GetAttr(img, "src")
		if !fileutil.IsURL(src) {
			continue
		}
		if _, ok := dom.GetAttr(img, "crossorigin"); !ok {
			dom.SetAttr(img, "crossorigin", "anonymous")
		}
	}
}
