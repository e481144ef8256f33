package scan

import (
	"time"

	"github.com/user/certscan/pkg/ports"
)

// DefaultRefreshRate is the display cadence assumed when none is configured.
const DefaultRefreshRate = 60.0

// FrameClock schedules one tick per refresh interval with a one-shot timer.
type FrameClock struct {
	interval time.Duration
}

// NewFrameClock creates a clock ticking at hz. Non-positive rates use DefaultRefreshRate.
func NewFrameClock(hz float64) *FrameClock {
	if hz <= 0 {
		hz = DefaultRefreshRate
	}
	return &FrameClock{interval: time.Duration(float64(time.Second) / hz)}
}

// Interval returns the time between ticks.
func (c *FrameClock) Interval() time.Duration {
	return c.interval
}

// Schedule arms a timer for the next refresh.
func (c *FrameClock) Schedule() ports.Tick {
	return &timerTick{timer: time.NewTimer(c.interval)}
}

type timerTick struct {
	timer *time.Timer
}

func (t *timerTick) C() <-chan time.Time {
	return t.timer.C
}

// Cancel stops the timer. Since Go 1.23 a stopped timer never delivers a stale value.
func (t *timerTick) Cancel() {
	t.timer.Stop()
}

var _ ports.Scheduler = (*FrameClock)(nil)
