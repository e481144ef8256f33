// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/user/certscan/pkg/ports"
)

// CaptureDevice is a mock implementation of ports.CaptureDevice that counts
// acquisitions and hands out Stream values.
type CaptureDevice struct {
	mu sync.Mutex

	AvailableFunc func() bool
	AcquireFunc   func(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error)

	// Stream is returned by Acquire when AcquireFunc is nil.
	Stream *Stream

	acquires    int
	constraints []ports.Constraints
}

// NewCaptureDevice creates a device whose Acquire returns a ready 64x48 stream.
func NewCaptureDevice() *CaptureDevice {
	return &CaptureDevice{Stream: NewStream(64, 48)}
}

func (m *CaptureDevice) Name() string {
	return "mock"
}

func (m *CaptureDevice) Available() bool {
	if m.AvailableFunc != nil {
		return m.AvailableFunc()
	}
	return true
}

func (m *CaptureDevice) Acquire(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
	m.mu.Lock()
	m.constraints = append(m.constraints, c)
	m.mu.Unlock()

	var stream ports.CaptureStream
	var err error
	if m.AcquireFunc != nil {
		stream, err = m.AcquireFunc(ctx, c)
	} else {
		stream = m.Stream
	}
	if err == nil {
		m.mu.Lock()
		m.acquires++
		m.mu.Unlock()
	}
	return stream, err
}

// Acquires returns the number of successful Acquire calls.
func (m *CaptureDevice) Acquires() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquires
}

// Constraints returns the constraints passed to each Acquire call.
func (m *CaptureDevice) Constraints() []ports.Constraints {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Constraints(nil), m.constraints...)
}

var _ ports.CaptureDevice = (*CaptureDevice)(nil)

// Stream is a mock implementation of ports.CaptureStream.
type Stream struct {
	mu sync.Mutex

	Width  int
	Height int

	PlayFunc     func(ctx context.Context) error
	ReadyFunc    func() bool
	SnapshotFunc func(dst *image.Gray) error

	plays     int
	snapshots int
	stops     int
}

// NewStream creates a ready stream of the given size that fills snapshots with white.
func NewStream(width, height int) *Stream {
	return &Stream{Width: width, Height: height}
}

func (m *Stream) Play(ctx context.Context) error {
	m.mu.Lock()
	m.plays++
	m.mu.Unlock()
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx)
	}
	return nil
}

func (m *Stream) Ready(ctx context.Context) bool {
	if m.ReadyFunc != nil {
		return m.ReadyFunc()
	}
	return true
}

func (m *Stream) Size() (int, int) {
	return m.Width, m.Height
}

func (m *Stream) Snapshot(ctx context.Context, dst *image.Gray) error {
	m.mu.Lock()
	m.snapshots++
	m.mu.Unlock()
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(dst)
	}
	for i := range dst.Pix {
		dst.Pix[i] = 0xFF
	}
	return nil
}

func (m *Stream) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

// Plays returns the number of Play calls.
func (m *Stream) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

// Snapshots returns the number of Snapshot calls.
func (m *Stream) Snapshots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots
}

// Stops returns the number of Stop calls.
func (m *Stream) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

var _ ports.CaptureStream = (*Stream)(nil)
