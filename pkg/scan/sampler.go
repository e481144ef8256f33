package scan

import (
	"context"
	"image"

	"github.com/user/certscan/pkg/ports"
)

// FrameBuffer is the raster captured by one tick. Its pixels are only valid until
// the next Sample call.
type FrameBuffer struct {
	Image *image.Gray
	Tick  int
}

// FrameSampler copies the current frame of a stream into a reusable gray buffer.
type FrameSampler struct {
	buf   *image.Gray
	ticks int
}

// NewFrameSampler creates a sampler with no buffer allocated yet.
func NewFrameSampler() *FrameSampler {
	return &FrameSampler{}
}

// Sample performs the capture half of a tick. It returns false when the stream
// has not buffered enough data yet; the caller reschedules in that case.
func (s *FrameSampler) Sample(ctx context.Context, stream ports.CaptureStream) (FrameBuffer, bool, error) {
	s.ticks++
	if stream == nil || !stream.Ready(ctx) {
		return FrameBuffer{}, false, nil
	}
	w, h := stream.Size()
	if w <= 0 || h <= 0 {
		return FrameBuffer{}, false, nil
	}

	if s.buf == nil || s.buf.Rect.Dx() != w || s.buf.Rect.Dy() != h {
		s.buf = image.NewGray(image.Rect(0, 0, w, h))
	}
	if err := stream.Snapshot(ctx, s.buf); err != nil {
		return FrameBuffer{}, false, err
	}
	return FrameBuffer{Image: s.buf, Tick: s.ticks}, true, nil
}

// Ticks returns how many ticks were sampled since the last Reset.
func (s *FrameSampler) Ticks() int {
	return s.ticks
}

// Reset drops the buffer and the tick count for a new activation.
func (s *FrameSampler) Reset() {
	s.buf = nil
	s.ticks = 0
}
