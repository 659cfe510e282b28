package observe

import (
	"errors"
	"sync"

	"howhite/internal/logging"
)

// ErrDetached is returned when removing a sentinel that is no longer attached
// to its container.
var ErrDetached = errors.New("observe: sentinel already detached")

// Sentinel is a zero-size marker placed after the last rendered item. It is
// treated as one unit high for intersection purposes.
type Sentinel struct {
	mu       sync.Mutex
	top      float64
	attached bool
	nextID   int
	watchers map[int]func()
}

// Top returns the sentinel position in content coordinates.
func (s *Sentinel) Top() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top
}

// Height is the extent used for intersection ratios.
func (s *Sentinel) Height() float64 { return 1 }

// Attached reports whether the sentinel is still in its container.
func (s *Sentinel) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// SetTop moves the sentinel and lets observers of it re-check.
func (s *Sentinel) SetTop(y float64) {
	y = Sanitize(y)
	s.mu.Lock()
	if y == s.top {
		s.mu.Unlock()
		return
	}
	s.top = y
	ws := s.watchersLocked()
	s.mu.Unlock()

	for _, fn := range ws {
		fn()
	}
}

func (s *Sentinel) watch(fn func()) (unwatch func()) {
	s.mu.Lock()
	if s.watchers == nil {
		s.watchers = make(map[int]func())
	}
	s.nextID++
	id := s.nextID
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Sentinel) watchersLocked() []func() {
	out := make([]func(), 0, len(s.watchers))
	for id := 1; id <= s.nextID; id++ {
		if fn, ok := s.watchers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Container owns the sentinels placed in one scrollable list.
type Container struct {
	mu        sync.Mutex
	viewport  *Viewport
	sentinels []*Sentinel
}

// NewContainer creates a container whose proximity observers measure against vp.
func NewContainer(vp *Viewport) *Container {
	return &Container{viewport: vp}
}

// Viewport returns the scroll container the sentinels live in.
func (c *Container) Viewport() *Viewport { return c.viewport }

// AppendSentinel attaches a new sentinel at position 0.
func (c *Container) AppendSentinel() *Sentinel {
	s := &Sentinel{attached: true}
	c.mu.Lock()
	c.sentinels = append(c.sentinels, s)
	c.mu.Unlock()
	logging.ObserveDebug("sentinel appended (%d attached)", c.Len())
	return s
}

// RemoveSentinel detaches s. Removing a sentinel twice returns ErrDetached.
func (c *Container) RemoveSentinel(s *Sentinel) error {
	c.mu.Lock()
	idx := -1
	for i, cur := range c.sentinels {
		if cur == s {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return ErrDetached
	}
	c.sentinels = append(c.sentinels[:idx:idx], c.sentinels[idx+1:]...)
	c.mu.Unlock()

	s.mu.Lock()
	s.attached = false
	ws := s.watchersLocked()
	s.mu.Unlock()
	for _, fn := range ws {
		fn()
	}
	return nil
}

// Len returns the number of attached sentinels.
func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sentinels)
}

// NewObserver creates a proximity observer measured against the container's
// viewport.
func (c *Container) NewObserver(opts ProximityOptions, fn func(Entry)) *Proximity {
	return NewProximity(c.viewport, opts, fn)
}
