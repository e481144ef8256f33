package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/user/certscan/pkg/adapters/logger"
	"github.com/user/certscan/pkg/mocks"
	"github.com/user/certscan/pkg/ports"
)

func TestCaptureResource_AcquireAndRelease(t *testing.T) {
	device := mocks.NewCaptureDevice()
	r := NewCaptureResource(device, "https://certs.example.com", logger.NewNoop())
	ctx := context.Background()

	if err := r.Acquire(ctx, ports.DefaultConstraints()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := r.Acquire(ctx, ports.DefaultConstraints()); err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	if device.Acquires() != 1 {
		t.Errorf("Acquires = %d, want 1", device.Acquires())
	}
	if got := device.Constraints()[0]; got.Facing != ports.FacingEnvironment {
		t.Errorf("Facing = %v, want environment", got.Facing)
	}

	if err := r.BindAndPlay(ctx); err != nil {
		t.Fatalf("BindAndPlay() error = %v", err)
	}
	if err := r.BindAndPlay(ctx); err != nil {
		t.Fatalf("second BindAndPlay() error = %v", err)
	}
	if device.Stream.Plays() != 1 {
		t.Errorf("Plays = %d, want 1", device.Stream.Plays())
	}
	if !r.Held() || !r.Active() {
		t.Error("resource should be held and active")
	}

	r.Release()
	r.Release()
	if device.Stream.Stops() != 1 {
		t.Errorf("Stops = %d, want 1", device.Stream.Stops())
	}
	if r.Held() || r.Active() || r.Stream() != nil {
		t.Error("resource should be empty after Release")
	}
}

func TestCaptureResource_Preconditions(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		device := mocks.NewCaptureDevice()
		device.AvailableFunc = func() bool { return false }
		r := NewCaptureResource(device, "https://certs.example.com", logger.NewNoop())

		err := r.Acquire(context.Background(), ports.DefaultConstraints())
		if !errors.Is(err, ports.ErrUnsupported) {
			t.Errorf("error = %v, want ErrUnsupported", err)
		}
		if device.Acquires() != 0 || len(device.Constraints()) != 0 {
			t.Error("device should not be asked for a stream")
		}
	})

	t.Run("insecure origin", func(t *testing.T) {
		device := mocks.NewCaptureDevice()
		r := NewCaptureResource(device, "http://certs.example.com", logger.NewNoop())

		err := r.Acquire(context.Background(), ports.DefaultConstraints())
		if !errors.Is(err, ports.ErrInsecureContext) {
			t.Errorf("error = %v, want ErrInsecureContext", err)
		}
		if len(device.Constraints()) != 0 {
			t.Error("device should not be asked for a stream")
		}
	})

	t.Run("play without stream", func(t *testing.T) {
		r := NewCaptureResource(mocks.NewCaptureDevice(), "https://certs.example.com", logger.NewNoop())
		if err := r.BindAndPlay(context.Background()); !errors.Is(err, ports.ErrDevice) {
			t.Errorf("error = %v, want ErrDevice", err)
		}
	})
}

func TestCaptureResource_ClassifiesDeviceErrors(t *testing.T) {
	device := mocks.NewCaptureDevice()
	device.AcquireFunc = func(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
		return nil, errors.New("v4l2: device busy")
	}
	r := NewCaptureResource(device, "http://localhost", logger.NewNoop())

	err := r.Acquire(context.Background(), ports.DefaultConstraints())
	if !errors.Is(err, ports.ErrDevice) {
		t.Errorf("error = %v, want ErrDevice", err)
	}
	if r.Held() {
		t.Error("failed acquire should not hold a stream")
	}

	device.AcquireFunc = func(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
		return nil, ports.ErrPermissionDenied
	}
	err = r.Acquire(context.Background(), ports.DefaultConstraints())
	if Classify(err) != KindPermissionDenied {
		t.Errorf("Classify() = %s, want permission_denied", Classify(err))
	}
}

func TestCaptureResource_DeviceWithoutStream(t *testing.T) {
	device := mocks.NewCaptureDevice()
	device.AcquireFunc = func(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
		return nil, nil
	}
	r := NewCaptureResource(device, "http://localhost", logger.NewNoop())

	if err := r.Acquire(context.Background(), ports.DefaultConstraints()); !errors.Is(err, ports.ErrDevice) {
		t.Errorf("error = %v, want ErrDevice", err)
	}
	if r.Held() {
		t.Error("a missing stream must not be held")
	}
	r.Release()
}
