// Package gocvcamera captures from a local camera through OpenCV. The OpenCV
// binding needs cgo and an installed OpenCV, so it is only compiled with the
// gocv build tag; without it the device reports itself unavailable.
package gocvcamera

import (
	"image"

	"github.com/user/certscan/pkg/ports"
)

// Options configures the OpenCV capture.
type Options struct {
	// DeviceID is the camera index or a device path / stream URL.
	DeviceID string
}

// Device implements ports.CaptureDevice with gocv.VideoCapture.
type Device struct {
	opts   Options
	logger ports.Logger
}

// New creates an OpenCV capture device.
func New(opts Options, logger ports.Logger) *Device {
	if opts.DeviceID == "" {
		opts.DeviceID = "0"
	}
	return &Device{opts: opts, logger: logger.WithComponent("gocv")}
}

func (d *Device) Name() string {
	return "gocv"
}

var _ ports.CaptureDevice = (*Device)(nil)

// frameSize returns the size of the latest frame, or the requested size while no
// frame has arrived. A camera that ends early still has a size to snapshot at.
func frameSize(latest *image.Gray, c ports.Constraints) (int, int) {
	if latest != nil {
		return latest.Rect.Dx(), latest.Rect.Dy()
	}
	if c.IdealWidth <= 0 || c.IdealHeight <= 0 {
		c = ports.DefaultConstraints()
	}
	return c.IdealWidth, c.IdealHeight
}
