//go:build gocv

package gocvcamera

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"github.com/user/certscan/pkg/ports"
)

// Available is true when OpenCV was compiled in.
func (d *Device) Available() bool {
	return true
}

// Acquire opens the camera and starts a reader goroutine that keeps the latest
// gray frame.
func (d *Device) Acquire(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
	var id interface{} = d.opts.DeviceID
	if n, err := strconv.Atoi(d.opts.DeviceID); err == nil {
		id = n
	}
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ports.ErrDevice, d.opts.DeviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: camera %s did not open", ports.ErrDevice, d.opts.DeviceID)
	}
	if c.IdealWidth > 0 && c.IdealHeight > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.IdealWidth))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.IdealHeight))
	}
	d.logger.Debug("Opened camera %s, facing %s is not selectable", d.opts.DeviceID, c.Facing)

	s := &Stream{vc: vc, constraints: c, done: make(chan struct{}), stop: make(chan struct{})}
	go s.readLoop()
	return s, nil
}

// Stream is an open OpenCV capture.
type Stream struct {
	vc          *gocv.VideoCapture
	constraints ports.Constraints
	stop        chan struct{}
	done        chan struct{}

	mu      sync.Mutex
	latest  *image.Gray
	playing bool
	ended   bool

	stopOnce sync.Once
}

func (s *Stream) readLoop() {
	defer close(s.done)
	frame := gocv.NewMat()
	defer frame.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	for {
		select {
		case <-s.stop:
			return
		default:
		}
		if ok := s.vc.Read(&frame); !ok {
			s.mu.Lock()
			s.ended = true
			s.mu.Unlock()
			return
		}
		if frame.Empty() {
			continue
		}
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
		w, h := gray.Cols(), gray.Rows()
		pix := gray.ToBytes()
		if len(pix) < w*h {
			continue
		}

		img := &image.Gray{Pix: append([]byte(nil), pix[:w*h]...), Stride: w, Rect: image.Rect(0, 0, w, h)}
		s.mu.Lock()
		s.latest = img
		s.mu.Unlock()
	}
}

// Play is immediate: native capture has no autoplay policy.
func (s *Stream) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
	return nil
}

func (s *Stream) Ready(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && (s.latest != nil || s.ended)
}

func (s *Stream) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return frameSize(s.latest, s.constraints)
}

func (s *Stream) Snapshot(ctx context.Context, dst *image.Gray) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return fmt.Errorf("%w: camera stopped delivering frames", ports.ErrStreamEnded)
	}
	if s.latest == nil || s.latest.Rect.Size() != dst.Rect.Size() {
		return fmt.Errorf("snapshot buffer is %v, frame is not available at that size", dst.Rect.Size())
	}
	copy(dst.Pix, s.latest.Pix)
	return nil
}

func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.vc.Close()
		s.mu.Lock()
		s.ended = true
		s.playing = false
		s.mu.Unlock()
	})
	return nil
}

var _ ports.CaptureStream = (*Stream)(nil)
