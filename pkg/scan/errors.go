package scan

import (
	"errors"

	"github.com/ideamans/go-l10n"

	"github.com/user/certscan/pkg/ports"
)

// Kind classifies why an activation failed.
type Kind int

const (
	KindNone Kind = iota
	KindUnsupported
	KindInsecureContext
	KindPermissionDenied
	KindGestureRequired
	KindDevice
	KindVerify
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnsupported:
		return "unsupported"
	case KindInsecureContext:
		return "insecure_context"
	case KindPermissionDenied:
		return "permission_denied"
	case KindGestureRequired:
		return "gesture_required"
	case KindDevice:
		return "device_error"
	case KindVerify:
		return "verify_error"
	default:
		return "unknown"
	}
}

// Classify maps an error onto the taxonomy. Unrecognized errors are device errors.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ports.ErrVerify):
		return KindVerify
	case errors.Is(err, ports.ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ports.ErrInsecureContext):
		return KindInsecureContext
	case errors.Is(err, ports.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ports.ErrGestureRequired):
		return KindGestureRequired
	default:
		return KindDevice
	}
}

// Message returns the localized text shown to the user for the kind.
func (k Kind) Message() string {
	switch k {
	case KindUnsupported:
		return l10n.T(msgUnsupported)
	case KindInsecureContext:
		return l10n.T(msgInsecureContext)
	case KindPermissionDenied:
		return l10n.T(msgPermissionDenied)
	case KindGestureRequired:
		return l10n.T(msgGestureRequired)
	case KindVerify:
		return l10n.T(msgVerifyFailed)
	case KindNone:
		return ""
	default:
		return l10n.T(msgDeviceError)
	}
}
