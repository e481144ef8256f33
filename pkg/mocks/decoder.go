package mocks

import (
	"image"
	"sync"

	"github.com/user/certscan/pkg/ports"
)

// Decoder is a mock implementation of ports.CodeDecoder.
type Decoder struct {
	mu sync.Mutex

	DecodeFunc func(img image.Image) (ports.Detection, bool)

	calls int
}

// NewSequenceDecoder returns a decoder that answers from results, one per call.
// An empty string is a miss; calls past the end of results miss as well.
func NewSequenceDecoder(results ...string) *Decoder {
	d := &Decoder{}
	d.DecodeFunc = func(image.Image) (ports.Detection, bool) {
		i := d.calls - 1
		if i >= len(results) || results[i] == "" {
			return ports.Detection{}, false
		}
		return ports.Detection{Text: results[i]}, true
	}
	return d
}

func (m *Decoder) Decode(img image.Image) (ports.Detection, bool) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.DecodeFunc != nil {
		return m.DecodeFunc(img)
	}
	return ports.Detection{}, false
}

// Calls returns the number of Decode calls.
func (m *Decoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ ports.CodeDecoder = (*Decoder)(nil)
