// Package imagecamera replays still images as a capture device. It stands in
// for a camera in scripted runs, demos and tests.
package imagecamera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/certscan/pkg/ports"
)

// Options configures the replay.
type Options struct {
	// Patterns are file paths or glob patterns, expanded in order.
	Patterns []string

	// Hold is how many snapshots each image is shown for (default 1).
	Hold int

	// Loop restarts from the first image instead of ending the stream.
	Loop bool

	// RequireGesture makes the first Play of every stream fail with
	// ports.ErrGestureRequired, like a browser with a strict autoplay policy.
	RequireGesture bool
}

// Device implements ports.CaptureDevice over a list of image files.
type Device struct {
	opts   Options
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates an image replay device reading through fs.
func New(opts Options, fs ports.FileSystem, logger ports.Logger) *Device {
	if opts.Hold <= 0 {
		opts.Hold = 1
	}
	return &Device{opts: opts, fs: fs, logger: logger.WithComponent("images")}
}

func (d *Device) Name() string {
	return "image"
}

// Available reports whether any image source was configured.
func (d *Device) Available() bool {
	return len(d.opts.Patterns) > 0
}

// Acquire loads and converts every image up front. Images larger than the ideal
// size are scaled down to fit it.
func (d *Device) Acquire(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
	var paths []string
	for _, pattern := range d.opts.Patterns {
		matches, err := d.fs.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ports.ErrDevice, pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images match %v", ports.ErrDevice, d.opts.Patterns)
	}

	frames := make([]*image.Gray, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := d.fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ports.ErrDevice, err)
		}
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", ports.ErrDevice, path, err)
		}
		frame := ToGray(img, c.IdealWidth, c.IdealHeight)
		d.logger.Debug("Loaded %s (%s, %dx%d)", path, format, frame.Rect.Dx(), frame.Rect.Dy())
		frames = append(frames, frame)
	}

	return &Stream{frames: frames, hold: d.opts.Hold, loop: d.opts.Loop, gate: d.opts.RequireGesture}, nil
}

// ToGray converts img to a gray frame at the origin, scaled down to fit within
// maxWidth x maxHeight when both are positive.
func ToGray(img image.Image, maxWidth, maxHeight int) *image.Gray {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxWidth, maxHeight)
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func fit(w, h, maxW, maxH int) (int, int) {
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}

// Stream serves the loaded frames in order.
type Stream struct {
	mu      sync.Mutex
	frames  []*image.Gray
	hold    int
	loop    bool
	gate    bool
	playing bool
	stopped bool
	shown   int
}

// Play starts the replay. With RequireGesture the first call is refused.
func (s *Stream) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ports.ErrStreamEnded
	}
	if s.gate {
		s.gate = false
		return ports.ErrGestureRequired
	}
	s.playing = true
	return nil
}

func (s *Stream) Ready(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && !s.stopped
}

func (s *Stream) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.current()
	if f == nil {
		// Exhausted: keep the last size so the next Snapshot reports the end.
		f = s.frames[len(s.frames)-1]
	}
	return f.Rect.Dx(), f.Rect.Dy()
}

// Snapshot copies the current image and advances the replay.
func (s *Stream) Snapshot(ctx context.Context, dst *image.Gray) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.current()
	if s.stopped || f == nil {
		return ports.ErrStreamEnded
	}
	if dst.Rect.Dx() != f.Rect.Dx() || dst.Rect.Dy() != f.Rect.Dy() {
		return fmt.Errorf("snapshot buffer is %v, frame is %v", dst.Rect.Size(), f.Rect.Size())
	}
	copy(dst.Pix, f.Pix)
	s.shown++
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.playing = false
	return nil
}

// current returns the frame for the next snapshot, or nil once a non-looping
// replay is exhausted.
func (s *Stream) current() *image.Gray {
	i := s.shown / s.hold
	if i >= len(s.frames) {
		if !s.loop {
			return nil
		}
		i %= len(s.frames)
	}
	return s.frames[i]
}

var (
	_ ports.CaptureDevice = (*Device)(nil)
	_ ports.CaptureStream = (*Stream)(nil)
)
