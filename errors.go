package vaultshot

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrRasterization  = errors.New("rasterization failed")
	ErrCanvasContext  = errors.New("canvas context unavailable")
	ErrStoreIO        = errors.New("vault write failed")
	ErrResourceLoad   = errors.New("failed to load resource")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Capture target errors.
	ErrTargetNotFound = errors.New("capture target not found in page")
	ErrDetachedTarget = errors.New("capture target is not attached to a document")
	ErrEmptyImage     = errors.New("rasterized image is empty")
	ErrImageTooLarge  = errors.New("normalized image is too large")

	// Export input validation errors.
	ErrEmptyDirectory  = errors.New("directory cannot be empty")
	ErrInvalidFileName = errors.New("invalid file name")
)

// maxSrcInError caps how much of an image source is echoed in error
// messages. Data URIs can be megabytes long.
const maxSrcInError = 80

// ResourceLoadError reports an image source that could not be loaded or
// decoded. It matches ErrResourceLoad with errors.Is.
type ResourceLoadError struct {
	Src string
	Err error
}

func (e *ResourceLoadError) Error() string {
	src := e.Src
	if len(src) > maxSrcInError {
		src = src[:maxSrcInError] + "..."
	}
	return fmt.Sprintf("%v: %q: %v", ErrResourceLoad, src, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResourceLoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrResourceLoad.
func (e *ResourceLoadError) Is(target error) bool {
	return target == ErrResourceLoad
}
