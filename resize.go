package vaultshot

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// scaler draws src onto the whole of dst, resampling as needed.
type scaler interface {
	Scale(dst *image.RGBA, src image.Image) error
}

// catmullRomScaler resamples with the Catmull-Rom kernel, the slowest and
// sharpest interpolator in x/image/draw.
type catmullRomScaler struct{}

// Scale implements scaler. A destination without pixel storage, or a source
// whose pixels cannot be read, is reported as ErrCanvasContext.
func (catmullRomScaler) Scale(dst *image.RGBA, src image.Image) (err error) {
	if dst == nil || len(dst.Pix) == 0 {
		return fmt.Errorf("%w: destination has no pixel buffer", ErrCanvasContext)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCanvasContext, r)
		}
	}()

	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return nil
}

// targetSize returns the normalized size for a w x h source: OutputWidth
// wide, with the height scaled by the same ratio and rounded to the nearest
// pixel. The height is at least 1.
func targetSize(w, h int) (width, height int) {
	height = int(math.Round(float64(h) * OutputWidth / float64(w)))
	if height < 1 {
		height = 1
	}
	return OutputWidth, height
}
