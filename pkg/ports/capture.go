// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"image"
)

// FacingMode selects which camera a device should prefer.
type FacingMode string

const (
	// FacingEnvironment prefers the rear (world-facing) camera.
	FacingEnvironment FacingMode = "environment"
	// FacingUser prefers the front (selfie) camera.
	FacingUser FacingMode = "user"
)

// Constraints declares the stream a caller would like to receive.
// Devices treat the dimensions as ideal values, not hard requirements.
type Constraints struct {
	Facing      FacingMode
	IdealWidth  int
	IdealHeight int
}

// DefaultConstraints returns the rear camera at 1280x720.
func DefaultConstraints() Constraints {
	return Constraints{
		Facing:      FacingEnvironment,
		IdealWidth:  1280,
		IdealHeight: 720,
	}
}

// CaptureDevice abstracts a platform video capture facility.
type CaptureDevice interface {
	// Name identifies the device implementation in logs and reports.
	Name() string

	// Available reports whether the platform offers this capture capability at all.
	Available() bool

	// Acquire requests a live stream matching the constraints.
	// It blocks until the platform grants or denies access.
	Acquire(ctx context.Context, c Constraints) (CaptureStream, error)
}

// CaptureStream is an acquired live video stream. It is owned by exactly one
// caller, which must call Stop on every exit path.
type CaptureStream interface {
	// Play attaches the stream to the device's rendering sink and starts playback.
	// It returns ErrGestureRequired when playback needs a user gesture first.
	Play(ctx context.Context) error

	// Ready reports whether enough frame data is buffered to take a snapshot.
	// A stream that has ended reports true, so the next Snapshot returns the end.
	Ready(ctx context.Context) bool

	// Size returns the native frame dimensions of the stream.
	Size() (width, height int)

	// Snapshot copies the most recent frame into dst, which has Size() bounds.
	// An error wrapping ErrStreamEnded means the stream can never produce frames again.
	Snapshot(ctx context.Context, dst *image.Gray) error

	// Stop stops all tracks and frees the handle. It is safe to call more than once.
	Stop() error
}
