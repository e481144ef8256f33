package mocks

import (
	"sync"
	"time"

	"github.com/user/certscan/pkg/ports"
)

// Scheduler is a manual ports.Scheduler: ticks fire only when the test calls Fire.
type Scheduler struct {
	mu        sync.Mutex
	pending   *ManualTick
	scheduled int
	cancelled int
}

// NewScheduler creates a manual scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Schedule() ports.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ManualTick{owner: s, c: make(chan time.Time, 1)}
	s.pending = t
	s.scheduled++
	return t
}

// Fire waits up to timeout for a tick to be pending and fires it. It reports
// whether a tick fired.
func (s *Scheduler) Fire(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		t := s.pending
		if t != nil {
			s.pending = nil
			t.c <- time.Now()
			s.mu.Unlock()
			return true
		}
		s.mu.Unlock()
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Pending reports whether a tick is scheduled and not yet fired or cancelled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Scheduled returns the number of Schedule calls.
func (s *Scheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// Cancelled returns the number of ticks cancelled before firing.
func (s *Scheduler) Cancelled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// ManualTick is a tick issued by Scheduler.
type ManualTick struct {
	owner *Scheduler
	c     chan time.Time
}

func (t *ManualTick) C() <-chan time.Time {
	return t.c
}

func (t *ManualTick) Cancel() {
	s := t.owner
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == t {
		s.pending = nil
		s.cancelled++
	}
}

var _ ports.Scheduler = (*Scheduler)(nil)
