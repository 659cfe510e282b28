package ui

import (
	"sync"
	"sync/atomic"
	"time"

	"howhite/internal/logging"
	"howhite/internal/virtual"

	tea "github.com/charmbracelet/bubbletea"
)

// timerFiredMsg carries a scheduler callback into Update.
type timerFiredMsg struct {
	timer *programTimer
}

// ProgramScheduler is a virtual.Scheduler whose callbacks run inside the
// bubbletea Update loop. Expired timers are queued on a channel that Listen
// drains one message at a time; the model must re-issue Listen after each
// timerFiredMsg.
type ProgramScheduler struct {
	fired chan *programTimer
	done  chan struct{}
	once  sync.Once
}

// NewProgramScheduler creates a scheduler with room for a burst of timers.
func NewProgramScheduler() *ProgramScheduler {
	return &ProgramScheduler{
		fired: make(chan *programTimer, 64),
		done:  make(chan struct{}),
	}
}

type programTimer struct {
	fn      func()
	stopped atomic.Bool
	t       *time.Timer
}

func (t *programTimer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	if t.t != nil {
		t.t.Stop()
	}
	return true
}

// AfterFunc implements virtual.Scheduler.
func (s *ProgramScheduler) AfterFunc(d time.Duration, fn func()) virtual.Timer {
	pt := &programTimer{fn: fn}
	pt.t = time.AfterFunc(max(d, 0), func() {
		select {
		case s.fired <- pt:
		case <-s.done:
		}
	})
	return pt
}

// Listen returns a command that waits for the next expired timer.
func (s *ProgramScheduler) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case pt := <-s.fired:
			return timerFiredMsg{timer: pt}
		case <-s.done:
			return nil
		}
	}
}

// Run executes a fired timer unless it was stopped after expiring. It is
// called from Update.
func (s *ProgramScheduler) Run(msg timerFiredMsg) {
	if msg.timer == nil || !msg.timer.stopped.CompareAndSwap(false, true) {
		logging.UIDebug("Dropping stopped timer")
		return
	}
	msg.timer.fn()
}

// Close releases pending senders and ends Listen.
func (s *ProgramScheduler) Close() {
	s.once.Do(func() { close(s.done) })
}
