package mocks

import (
	"image"

	"github.com/user/certscan/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	AnnotateFunc  func(img image.Image, overlay ports.Overlay) image.Image
	EncodePNGFunc func(img image.Image) ([]byte, error)
	FitFunc       func(img image.Image, maxWidth, maxHeight int) image.Image

	Overlays []ports.Overlay
}

func (m *Renderer) Annotate(img image.Image, overlay ports.Overlay) image.Image {
	m.Overlays = append(m.Overlays, overlay)
	if m.AnnotateFunc != nil {
		return m.AnnotateFunc(img, overlay)
	}
	return img
}

func (m *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	if m.EncodePNGFunc != nil {
		return m.EncodePNGFunc(img)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (m *Renderer) Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	if m.FitFunc != nil {
		return m.FitFunc(img, maxWidth, maxHeight)
	}
	return img
}

var _ ports.Renderer = (*Renderer)(nil)
