package vaultshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// pngEncoder favours size over speed: snapshots are written once and read
// many times.
var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

// encodePNG returns img as PNG bytes.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
