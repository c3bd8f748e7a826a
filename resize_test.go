package vaultshot

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

// panicImage fails on pixel access, like a source whose backing buffer is
// gone.
type panicImage struct{}

func (panicImage) ColorModel() color.Model { return color.RGBAModel }
func (panicImage) Bounds() image.Rectangle { return image.Rect(0, 0, 4, 4) }
func (panicImage) At(x, y int) color.Color { panic("pixel buffer released") }

func TestCatmullRomScaler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dst     *image.RGBA
		src     image.Image
		wantErr error
	}{
		{
			name: "solid source fills destination",
			dst:  image.NewRGBA(image.Rect(0, 0, 64, 32)),
			src:  solidImage(8, 4, red),
		},
		{
			name:    "nil destination",
			dst:     nil,
			src:     solidImage(8, 4, red),
			wantErr: ErrCanvasContext,
		},
		{
			name:    "destination without pixels",
			dst:     &image.RGBA{},
			src:     solidImage(8, 4, red),
			wantErr: ErrCanvasContext,
		},
		{
			name:    "unreadable source",
			dst:     image.NewRGBA(image.Rect(0, 0, 8, 8)),
			src:     panicImage{},
			wantErr: ErrCanvasContext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := catmullRomScaler{}.Scale(tt.dst, tt.src)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Scale() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Scale() error = %v", err)
			}
			for _, p := range []image.Point{{0, 0}, {32, 16}, {63, 31}} {
				if !sameColor(tt.dst.At(p.X, p.Y), red) {
					t.Errorf("pixel %v = %v, want red", p, tt.dst.At(p.X, p.Y))
				}
			}
		})
	}
}

func TestEncodePNG(t *testing.T) {
	t.Parallel()

	data, err := encodePNG(solidImage(12, 7, blue))
	if err != nil {
		t.Fatalf("encodePNG() error = %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if format != "png" || cfg.Width != 12 || cfg.Height != 7 {
		t.Errorf("encoded %s %dx%d, want png 12x7", format, cfg.Width, cfg.Height)
	}
}
