package gocvcamera

import (
	"image"
	"testing"

	"github.com/user/certscan/pkg/ports"
)

func TestFrameSize(t *testing.T) {
	tests := []struct {
		name   string
		latest *image.Gray
		c      ports.Constraints
		wantW  int
		wantH  int
	}{
		{"latest frame", image.NewGray(image.Rect(0, 0, 320, 240)), ports.DefaultConstraints(), 320, 240},
		{"no frame yet", nil, ports.Constraints{IdealWidth: 640, IdealHeight: 480}, 640, 480},
		{"no frame and no constraints", nil, ports.Constraints{}, 1280, 720},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := frameSize(tt.latest, tt.c)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("frameSize() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
