package ports

import "time"

// Scheduler hands out one sampling tick at a time, aligned to the host's refresh cadence.
type Scheduler interface {
	// Schedule arranges for a single tick after the next refresh.
	Schedule() Tick
}

// Tick is a pending sampling tick and its cancellation token.
type Tick interface {
	// C delivers the tick. Nothing is delivered after Cancel returns.
	C() <-chan time.Time

	// Cancel withdraws the tick. It is safe to call after the tick fired.
	Cancel()
}
