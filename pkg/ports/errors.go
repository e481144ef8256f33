package ports

import "errors"

// Capture and verification failures shared by devices, clients and the scan engine.
// Adapters wrap these with fmt.Errorf("%w: ...") so callers can classify with errors.Is.
var (
	// ErrUnsupported is returned when the platform has no capture capability.
	ErrUnsupported = errors.New("capture unsupported")

	// ErrInsecureContext is returned when capture is requested from an untrusted origin.
	ErrInsecureContext = errors.New("insecure context")

	// ErrPermissionDenied is returned when the user or platform declines camera access.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrGestureRequired is returned when playback needs an explicit user gesture.
	ErrGestureRequired = errors.New("user gesture required")

	// ErrDevice covers every other acquisition or playback failure.
	ErrDevice = errors.New("capture device error")

	// ErrStreamEnded is returned by Snapshot once a stream can no longer produce frames.
	ErrStreamEnded = errors.New("capture stream ended")

	// ErrVerify is returned when the verification service rejects or cannot be reached.
	ErrVerify = errors.New("verification failed")
)
