// Package nullsink provides a debug sink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/certscan/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers skip building debug output at all.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveFrame(tick int, img image.Image, detection *ports.Detection) error {
	return nil
}

func (s *Sink) SaveReport(data []byte) error {
	return nil
}

var _ ports.DebugSink = (*Sink)(nil)
