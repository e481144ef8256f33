package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/certscan/pkg/ports"
)

// CaptureResource owns the stream of one controller. Once Acquire succeeds the
// stream stays held until Release, which the controller calls on every exit path.
type CaptureResource struct {
	device ports.CaptureDevice
	origin string
	logger ports.Logger

	stream ports.CaptureStream
	active bool
}

// NewCaptureResource creates a resource for device, requested from origin.
func NewCaptureResource(device ports.CaptureDevice, origin string, logger ports.Logger) *CaptureResource {
	return &CaptureResource{
		device: device,
		origin: origin,
		logger: logger.WithComponent("capture"),
	}
}

// Acquire checks the preconditions and requests a stream. It is a no-op while a
// stream is already held.
func (r *CaptureResource) Acquire(ctx context.Context, c ports.Constraints) error {
	if r.stream != nil {
		return nil
	}
	if !r.device.Available() {
		return fmt.Errorf("%w: no %s capture on this platform", ports.ErrUnsupported, r.device.Name())
	}
	if err := CheckOrigin(r.origin); err != nil {
		return err
	}

	r.logger.Debug("Acquiring %s camera (%s, %dx%d)", r.device.Name(), c.Facing, c.IdealWidth, c.IdealHeight)
	stream, err := r.device.Acquire(ctx, c)
	if err != nil {
		return classified(fmt.Errorf("acquire %s: %w", r.device.Name(), err))
	}
	if stream == nil {
		return fmt.Errorf("%w: %s returned no stream", ports.ErrDevice, r.device.Name())
	}
	r.stream = stream

	w, h := stream.Size()
	r.logger.Debug("Camera acquired: %dx%d", w, h)
	return nil
}

// BindAndPlay starts playback on the held stream. A stream that is already
// playing is left alone.
func (r *CaptureResource) BindAndPlay(ctx context.Context) error {
	if r.stream == nil {
		return fmt.Errorf("%w: play without an acquired stream", ports.ErrDevice)
	}
	if r.active {
		return nil
	}
	if err := r.stream.Play(ctx); err != nil {
		return classified(fmt.Errorf("play: %w", err))
	}
	r.active = true
	return nil
}

// Release stops the held stream. It is idempotent.
func (r *CaptureResource) Release() {
	if r.stream == nil {
		return
	}
	if err := r.stream.Stop(); err != nil {
		r.logger.Warn("Failed to stop camera: %s", err)
	}
	r.stream = nil
	r.active = false
	r.logger.Debug("Camera released")
}

// Held reports whether a stream is currently owned.
func (r *CaptureResource) Held() bool {
	return r.stream != nil
}

// Active reports whether the held stream is playing.
func (r *CaptureResource) Active() bool {
	return r.active
}

// Stream returns the held stream, or nil.
func (r *CaptureResource) Stream() ports.CaptureStream {
	return r.stream
}

// classified makes sure err carries one of the capture sentinels.
func classified(err error) error {
	for _, known := range []error{
		ports.ErrUnsupported,
		ports.ErrInsecureContext,
		ports.ErrPermissionDenied,
		ports.ErrGestureRequired,
		ports.ErrDevice,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ports.ErrDevice, err)
}
