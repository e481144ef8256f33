package ports

import (
	"image"
	"image/color"
)

// Renderer draws diagnostic overlays on sampled frames and encodes them.
type Renderer interface {
	// Annotate returns a copy of img with the viewfinder outline and detection markers.
	Annotate(img image.Image, overlay Overlay) image.Image

	// EncodePNG encodes an image as PNG.
	EncodePNG(img image.Image) ([]byte, error)

	// Fit scales img to fit within maxWidth x maxHeight, keeping the aspect ratio.
	Fit(img image.Image, maxWidth, maxHeight int) image.Image
}

// Overlay describes what Annotate draws.
type Overlay struct {
	// Viewfinder is the fraction of the frame covered by the centered guide box (0 disables it).
	Viewfinder float64
	// Points are marked with small circles.
	Points      []image.Point
	Caption     string
	StrokeColor color.Color
	MarkerColor color.Color
}

// DefaultOverlay returns the 70% white guide box used by the scanning view.
func DefaultOverlay() Overlay {
	return Overlay{
		Viewfinder:  0.7,
		StrokeColor: color.RGBA{R: 255, G: 255, B: 255, A: 180},
		MarkerColor: color.RGBA{R: 76, G: 175, B: 80, A: 255},
	}
}
