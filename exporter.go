package vaultshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-vaultshot/internal/vault"
)

// Compile-time interface implementation checks.
var (
	_ Rasterizer = (*rodRasterizer)(nil)
	_ scaler     = catmullRomScaler{}
)

// Exporter captures render targets and stores them as PNG files in a vault.
// Create with NewExporter, use Export or ExportErr, and Close when done.
// An Exporter is safe for sequential use; see ExporterPool for parallelism.
type Exporter struct {
	cfg        exporterConfig
	store      Store
	logger     *log.Logger
	locker     *PathLocker
	rasterizer Rasterizer
	scaler     scaler
}

// NewExporter creates an Exporter writing to store.
// Panics if store is nil (programmer error).
func NewExporter(store Store, opts ...Option) *Exporter {
	if store == nil {
		panic("vaultshot: nil Store in NewExporter")
	}

	e := &Exporter{
		cfg:    exporterConfig{timeout: defaultTimeout},
		store:  store,
		logger: discardLogger(),
		scaler: catmullRomScaler{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.locker == nil {
		e.locker = NewPathLocker()
	}

	// Create rasterizer if not injected (e.g., by tests)
	if e.rasterizer == nil {
		e.rasterizer = newRodRasterizer(e.cfg, e.logger)
	}

	return e
}

// Export captures target, normalizes it to OutputWidth pixels wide, encodes
// it as PNG and stores it at directory/fileName. It returns the stored
// image's dimensions, or nil on failure. Failures are logged, never returned.
func (e *Exporter) Export(ctx context.Context, directory string, target RenderTarget, fileName string) *Dimensions {
	dims, err := e.ExportErr(ctx, directory, target, fileName)
	if err != nil {
		e.logger.Error("export failed", "dir", directory, "file", fileName, "err", err)
		return nil
	}
	return dims
}

// ExportErr is Export with the failure returned to the caller instead of
// logged. Recovers from internal panics to prevent crashes from propagating
// to callers.
func (e *Exporter) ExportErr(ctx context.Context, directory string, target RenderTarget, fileName string) (dims *Dimensions, err error) {
	defer func() {
		if r := recover(); r != nil {
			dims = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	dir, path, err := resolveTarget(directory, target, fileName)
	if err != nil {
		return nil, err
	}

	unlock, err := e.locker.Lock(ctx, path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Rasterize
	img, err := e.rasterizer.Rasterize(ctx, target, RasterOptions{
		Scale:      RasterScale,
		UseCORS:    true,
		AllowTaint: true,
		Logging:    e.cfg.rasterLogging,
		OnClone:    target.Prepare,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRasterization, err)
	}

	// Rescale
	canvas, err := e.normalize(img)
	if err != nil {
		return nil, err
	}

	// Encode
	data, err := encodePNG(canvas)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Persist
	if err := e.persist(ctx, dir, path, data); err != nil {
		return nil, err
	}

	b := canvas.Bounds()
	return &Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}

// Close releases resources (headless Chrome browser).
func (e *Exporter) Close() error {
	if e.rasterizer != nil {
		return e.rasterizer.Close()
	}
	return nil
}

// normalize draws img onto a canvas OutputWidth pixels wide. When the scaler
// reports that no drawing context is available, the blank canvas is kept
// and a warning is logged.
func (e *Exporter) normalize(img image.Image) (*image.RGBA, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %w: %dx%d", ErrRasterization, ErrEmptyImage, b.Dx(), b.Dy())
	}

	w, h := targetSize(b.Dx(), b.Dy())
	if h > maxOutputHeight {
		return nil, fmt.Errorf("%w: height %d exceeds %d", ErrImageTooLarge, h, maxOutputHeight)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := e.scaler.Scale(canvas, img); err != nil {
		if !errors.Is(err, ErrCanvasContext) {
			return nil, err
		}
		e.logger.Warn("canvas context unavailable, storing blank image", "width", w, "height", h, "err", err)
	}
	return canvas, nil
}

// persist writes data at path, creating dir first when it does not exist.
// An existing file is overwritten in place; otherwise a new one is created.
func (e *Exporter) persist(ctx context.Context, dir, path string, data []byte) error {
	exists, err := e.store.FolderExists(ctx, dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreIO, err)
	}
	if !exists {
		if err := e.store.CreateFolder(ctx, dir); err != nil {
			return fmt.Errorf("%w: creating folder %q: %w", ErrStoreIO, dir, err)
		}
	}

	f, err := e.store.GetFile(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreIO, err)
	}

	if f != nil {
		if err := e.store.ModifyBinary(ctx, f, data); err != nil {
			return fmt.Errorf("%w: updating %q: %w", ErrStoreIO, path, err)
		}
		e.logger.Debug("snapshot updated", "path", path, "bytes", len(data))
		return nil
	}

	if _, err := e.store.CreateBinary(ctx, path, data); err != nil {
		return fmt.Errorf("%w: creating %q: %w", ErrStoreIO, path, err)
	}
	e.logger.Debug("snapshot created", "path", path, "bytes", len(data))
	return nil
}

// resolveTarget validates the export inputs and returns the normalized
// directory and file paths.
func resolveTarget(directory string, target RenderTarget, fileName string) (dir, path string, err error) {
	if strings.TrimSpace(directory) == "" {
		return "", "", ErrEmptyDirectory
	}
	if strings.TrimSpace(fileName) == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidFileName)
	}
	if strings.ContainsAny(fileName, `/\`) {
		return "", "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidFileName, fileName)
	}
	if target.Root == nil {
		return "", "", fmt.Errorf("%w: nil root", ErrTargetNotFound)
	}

	dir, err = vault.NormalizePath(directory)
	if err != nil {
		return "", "", err
	}
	path, err = vault.Join(dir, fileName)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidFileName, err)
	}
	return dir, path, nil
}
