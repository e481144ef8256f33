package mocks

import (
	"image"
	"sync"

	"github.com/user/certscan/pkg/ports"
)

// DebugSink records what the controller saves.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Frames     map[int]image.Image
	Detections map[int]*ports.Detection
	Report     []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:    enabled,
		Frames:     make(map[int]image.Image),
		Detections: make(map[int]*ports.Detection),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveFrame(tick int, img image.Image, detection *ports.Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[tick] = img
	m.Detections[tick] = detection
	return nil
}

func (m *DebugSink) SaveReport(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Report = data
	return nil
}

// FrameCount returns how many frames were saved.
func (m *DebugSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
