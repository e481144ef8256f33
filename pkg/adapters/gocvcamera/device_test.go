//go:build !gocv

package gocvcamera

import (
	"context"
	"errors"
	"testing"

	"github.com/user/certscan/pkg/adapters/logger"
	"github.com/user/certscan/pkg/ports"
)

func TestDevice_WithoutOpenCV(t *testing.T) {
	d := New(Options{}, logger.NewNoop())
	if d.Available() {
		t.Error("device should be unavailable without the gocv tag")
	}
	if d.opts.DeviceID != "0" {
		t.Errorf("DeviceID = %q, want first camera", d.opts.DeviceID)
	}
	if _, err := d.Acquire(context.Background(), ports.DefaultConstraints()); !errors.Is(err, ports.ErrUnsupported) {
		t.Errorf("Acquire() error = %v, want ErrUnsupported", err)
	}
}
