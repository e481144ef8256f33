// Package scan implements the capture-decode-handoff engine: it owns the camera
// stream for one activation, samples frames on the refresh cadence, decodes them and
// hands the first decoded code to the verifier exactly once.
package scan

import "fmt"

// Status is the user-visible phase of an activation.
type Status int

const (
	// StatusInit is the state before acquisition starts, or after playback was
	// blocked pending a user gesture.
	StatusInit Status = iota
	// StatusLoading covers camera acquisition and playback start.
	StatusLoading
	// StatusReady means frames are being sampled and decoded.
	StatusReady
	// StatusProcessing means a code was decoded and is being verified.
	StatusProcessing
	// StatusError is terminal for the activation; only Restart leaves it.
	StatusError
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusInit:
		return "init"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusProcessing:
		return "processing"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is the single value a presentation layer renders.
type State struct {
	Status Status

	// PermissionGatePending is set in StatusInit when playback needs a user gesture.
	PermissionGatePending bool

	// Done is set in StatusProcessing once the handoff resolved and the capture was released.
	Done bool

	// Message is the localized, user-facing text for the state (error text in StatusError).
	Message string

	// Err is the cause of StatusError.
	Err error
}

// Terminal reports whether the activation can only continue through Restart.
func (s State) Terminal() bool {
	return s.Status == StatusError || (s.Status == StatusProcessing && s.Done)
}

// transitions is the state machine. Same-status updates (Processing -> Processing
// when the handoff resolves) are not listed; Restart replaces the state wholesale.
var transitions = map[Status][]Status{
	StatusInit:       {StatusLoading},
	StatusLoading:    {StatusReady, StatusInit, StatusError},
	StatusReady:      {StatusProcessing, StatusError},
	StatusProcessing: {StatusError},
	StatusError:      {},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to State) bool {
	if from.Status == to.Status {
		return from.Status == StatusProcessing && !from.Done && to.Done
	}
	for _, next := range transitions[from.Status] {
		if next != to.Status {
			continue
		}
		// Loading only falls back to Init to show the gesture affordance.
		if from.Status == StatusLoading && to.Status == StatusInit {
			return to.PermissionGatePending
		}
		return true
	}
	return false
}
