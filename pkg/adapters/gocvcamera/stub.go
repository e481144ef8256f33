//go:build !gocv

package gocvcamera

import (
	"context"
	"fmt"

	"github.com/user/certscan/pkg/ports"
)

// Available is false in builds without the gocv tag.
func (d *Device) Available() bool {
	return false
}

func (d *Device) Acquire(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
	return nil, fmt.Errorf("%w: built without OpenCV support (use -tags gocv)", ports.ErrUnsupported)
}
