// Package filesink writes debug frames and activation reports to a directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/certscan/pkg/ports"
)

// DefaultMaxSize bounds the saved frame dimensions.
const DefaultMaxSize = 960

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	maxSize  int
}

// New creates a file sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		maxSize:  DefaultMaxSize,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame annotates and saves a sampled frame. Decoded frames carry the payload
// as caption and a -hit suffix.
func (s *Sink) SaveFrame(tick int, img image.Image, detection *ports.Detection) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}

	overlay := ports.DefaultOverlay()
	name := fmt.Sprintf("frame-%05d.png", tick)
	if detection != nil {
		overlay.Points = detection.Points
		overlay.Caption = detection.Text
		name = fmt.Sprintf("frame-%05d-hit.png", tick)
	}

	annotated := s.renderer.Fit(s.renderer.Annotate(img, overlay), s.maxSize, s.maxSize)
	data, err := s.renderer.EncodePNG(annotated)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", tick, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, name), data)
}

// SaveReport saves the activation report as report.json.
func (s *Sink) SaveReport(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "report.json"), data)
}

var _ ports.DebugSink = (*Sink)(nil)
