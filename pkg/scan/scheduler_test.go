package scan

import (
	"testing"
	"time"
)

func TestFrameClock_Interval(t *testing.T) {
	if got := NewFrameClock(50).Interval(); got != 20*time.Millisecond {
		t.Errorf("Interval() = %v, want 20ms", got)
	}
	if got := NewFrameClock(0).Interval(); got != time.Second/60 {
		t.Errorf("default Interval() = %v", got)
	}
}

func TestFrameClock_Fires(t *testing.T) {
	tick := NewFrameClock(200).Schedule()
	select {
	case <-tick.C():
	case <-time.After(time.Second):
		t.Fatal("tick did not fire")
	}
}

func TestFrameClock_CancelledTickNeverFires(t *testing.T) {
	tick := NewFrameClock(200).Schedule()
	tick.Cancel()
	select {
	case <-tick.C():
		t.Fatal("cancelled tick fired")
	case <-time.After(50 * time.Millisecond):
	}
}
