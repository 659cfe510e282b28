// Package virtualtest provides a manually advanced Scheduler for tests.
package virtualtest

import (
	"sort"
	"sync"
	"time"

	"howhite/internal/virtual"
)

// Scheduler is a virtual clock. Callbacks only run inside Advance or Flush,
// on the calling goroutine.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*timer
}

var _ virtual.Scheduler = (*Scheduler)(nil)

type timer struct {
	s       *Scheduler
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// New returns a scheduler at virtual time zero.
func New() *Scheduler { return &Scheduler{} }

// AfterFunc schedules fn at Now()+d.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) virtual.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &timer{s: s, due: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// Now returns the virtual time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of timers that have neither fired nor stopped.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d, running due callbacks in deadline
// order. Callbacks scheduled while advancing run too if they fall due.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.nextDueLocked(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.due
		t.fired = true
		s.mu.Unlock()

		t.fn()
	}
}

// Flush runs every callback due at the current time, including zero-delay
// ones posted from other goroutines.
func (s *Scheduler) Flush() { s.Advance(0) }

func (s *Scheduler) nextDueLocked(target time.Duration) *timer {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	if len(s.timers) == 0 || s.timers[0].due > target {
		return nil
	}
	return s.timers[0]
}
