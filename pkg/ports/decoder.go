package ports

import (
	"image"
)

// Detection is a successfully decoded code.
type Detection struct {
	Text string
	// Points are the finder pattern centers in frame coordinates.
	Points []image.Point
}

// CodeDecoder locates and decodes a single QR code in a raster.
// Implementations hold no per-call state: the same input always yields the same output,
// and malformed input is reported as a miss, never as a panic.
type CodeDecoder interface {
	Decode(img image.Image) (Detection, bool)
}
