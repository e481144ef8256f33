// Package ggrenderer implements ports.Renderer with the gg drawing library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/certscan/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Annotate draws the viewfinder, the detection markers and the caption onto an
// RGBA copy of img. The area outside the viewfinder is dimmed like the scanning
// view does.
func (r *Renderer) Annotate(img image.Image, overlay ports.Overlay) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	if overlay.Viewfinder > 0 {
		box := viewfinder(b.Dx(), b.Dy(), overlay.Viewfinder)
		x, y := float64(box.Min.X), float64(box.Min.Y)
		bw, bh := float64(box.Dx()), float64(box.Dy())

		// Four bands around the box, so the inside keeps its original pixels.
		dc.SetColor(color.RGBA{A: 96})
		dc.DrawRectangle(0, 0, w, y)
		dc.DrawRectangle(0, y+bh, w, h-y-bh)
		dc.DrawRectangle(0, y, x, bh)
		dc.DrawRectangle(x+bw, y, w-x-bw, bh)
		dc.Fill()

		dc.SetColor(colorOr(overlay.StrokeColor, color.White))
		dc.SetLineWidth(max(2, w/200))
		dc.DrawRoundedRectangle(x, y, bw, bh, bw/20)
		dc.Stroke()
	}

	if len(overlay.Points) > 0 {
		dc.SetColor(colorOr(overlay.MarkerColor, color.RGBA{G: 200, A: 255}))
		radius := max(3, w/120)
		for _, p := range overlay.Points {
			dc.DrawCircle(float64(p.X-b.Min.X), float64(p.Y-b.Min.Y), radius)
			dc.Fill()
		}
	}

	if overlay.Caption != "" {
		dc.SetColor(color.RGBA{A: 160})
		dc.DrawRectangle(0, h-20, w, 20)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(overlay.Caption, w/2, h-10, 0.5, 0.5)
	}

	return dc.Image()
}

// viewfinder returns the centered square guide box covering fraction of the
// shorter side.
func viewfinder(width, height int, fraction float64) image.Rectangle {
	side := int(math.Round(float64(min(width, height)) * fraction))
	x := (width - side) / 2
	y := (height - side) / 2
	return image.Rect(x, y, x+side, y+side)
}

func colorOr(c, fallback color.Color) color.Color {
	if c == nil {
		return fallback
	}
	return c
}

// EncodePNG encodes an image as PNG.
func (r *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales img down to fit within maxWidth x maxHeight. Smaller images are
// returned unchanged.
func (r *Renderer) Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || maxHeight <= 0 || (b.Dx() <= maxWidth && b.Dy() <= maxHeight) {
		return img
	}
	scale := min(float64(maxWidth)/float64(b.Dx()), float64(maxHeight)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

var _ ports.Renderer = (*Renderer)(nil)
