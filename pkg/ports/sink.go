package ports

import (
	"image"
)

// DebugSink stores intermediate scanning results for troubleshooting.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves a sampled frame, annotated with the detection if there is one.
	SaveFrame(tick int, img image.Image, detection *Detection) error

	// SaveReport saves the JSON description of a finished activation.
	SaveReport(data []byte) error
}
