package virtual

import (
	"math"
	"sync"
	"time"

	"howhite/internal/logging"
	"howhite/internal/observe"
)

const (
	// DefaultOverscan is the number of extra items rendered on each side.
	DefaultOverscan = 3
	// DefaultScrollingDelay is the quiet period after which IsScrolling resets.
	DefaultScrollingDelay = 150 * time.Millisecond
)

// VirtualItem is one rendered entry of a Window.
type VirtualItem[T any] struct {
	Index     int
	Item      T
	OffsetTop float64
	Height    float64
}

// Window is the contiguous index range that should currently be rendered.
// An empty window has StartIndex 0 and EndIndex -1.
type Window[T any] struct {
	StartIndex  int
	EndIndex    int
	Items       []VirtualItem[T]
	TotalHeight float64
}

// Empty reports whether nothing should be rendered.
func (w Window[T]) Empty() bool { return len(w.Items) == 0 }

// Len returns the number of rendered entries.
func (w Window[T]) Len() int { return len(w.Items) }

// ComputeWindow derives the visible window for a fixed item height. Negative
// and non-finite offsets and heights are treated as 0. For a non-empty
// collection the window always holds at least one item, even when the offset
// lies past the end of the content.
func ComputeWindow[T any](items []T, itemHeight float64, overscan int, scrollOffset, viewportHeight float64) Window[T] {
	n := len(items)
	if n == 0 || !validHeight(itemHeight) {
		return Window[T]{StartIndex: 0, EndIndex: -1}
	}
	if overscan < 0 {
		overscan = 0
	}
	scrollOffset = observe.Sanitize(scrollOffset)
	viewportHeight = observe.Sanitize(viewportHeight)

	last := float64(n - 1)
	first := math.Floor(scrollOffset/itemHeight) - float64(overscan)
	lastVisible := math.Floor((scrollOffset+viewportHeight)/itemHeight) + float64(overscan)

	start := int(math.Max(0, math.Min(first, last)))
	end := int(math.Min(last, lastVisible))
	if start > end {
		start = end
	}

	vis := make([]VirtualItem[T], 0, end-start+1)
	for i := start; i <= end; i++ {
		vis = append(vis, VirtualItem[T]{
			Index:     i,
			Item:      items[i],
			OffsetTop: float64(i) * itemHeight,
			Height:    itemHeight,
		})
	}
	return Window[T]{
		StartIndex:  start,
		EndIndex:    end,
		Items:       vis,
		TotalHeight: float64(n) * itemHeight,
	}
}

func validHeight(h float64) bool {
	return h > 0 && !math.IsInf(h, 1)
}

// ScrollOption configures a Scroll.
type ScrollOption func(*scrollSettings)

type scrollSettings struct {
	overscan int
	delay    time.Duration
}

// WithOverscan sets the number of items rendered beyond each visible edge.
func WithOverscan(n int) ScrollOption {
	return func(s *scrollSettings) { s.overscan = n }
}

// WithScrollingDelay sets the quiet period that ends a scroll burst.
func WithScrollingDelay(d time.Duration) ScrollOption {
	return func(s *scrollSettings) { s.delay = d }
}

// ViewportSource supplies scroll offset and viewport height samples.
// *observe.Viewport implements it.
type ViewportSource interface {
	Sample() observe.Sample
	ObserveSize(fn func(observe.Sample)) (unsubscribe func())
	OnScroll(fn func(observe.Sample)) (unsubscribe func())
}

// Scroll is a fixed-height virtual scroll over items. The window always
// reflects the latest samples; only the IsScrolling flag is debounced.
type Scroll[T any] struct {
	mu         sync.Mutex
	items      []T
	itemHeight float64
	overscan   int
	delay      time.Duration
	sched      Scheduler

	offset    float64
	viewport  float64
	scrolling bool
	settle    Timer
	burst     uint64
	closed    bool

	nextID    int
	listeners map[int]func(Window[T])
	releases  []func()
}

// NewScroll validates the configuration and returns a Scroll with an
// unmeasured (zero height) viewport.
func NewScroll[T any](items []T, itemHeight float64, sched Scheduler, opts ...ScrollOption) (*Scroll[T], error) {
	settings := scrollSettings{overscan: DefaultOverscan, delay: DefaultScrollingDelay}
	for _, opt := range opts {
		opt(&settings)
	}

	if !validHeight(itemHeight) {
		return nil, &ConfigError{Field: "itemHeight", Value: itemHeight, Err: ErrInvalidItemHeight}
	}
	if settings.overscan < 0 {
		return nil, &ConfigError{Field: "overscan", Value: settings.overscan, Err: ErrInvalidOverscan}
	}
	if settings.delay < 0 {
		return nil, &ConfigError{Field: "scrollingDelay", Value: settings.delay, Err: ErrInvalidDelay}
	}
	if sched == nil {
		return nil, &ConfigError{Field: "scheduler", Value: nil, Err: ErrNilScheduler}
	}

	return &Scroll[T]{
		items:      items,
		itemHeight: itemHeight,
		overscan:   settings.overscan,
		delay:      settings.delay,
		sched:      sched,
		listeners:  make(map[int]func(Window[T])),
	}, nil
}

// Window returns the window for the latest samples.
func (s *Scroll[T]) Window() Window[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowLocked()
}

func (s *Scroll[T]) windowLocked() Window[T] {
	return ComputeWindow(s.items, s.itemHeight, s.overscan, s.offset, s.viewport)
}

// HandleScroll records a scroll sample. IsScrolling becomes true immediately
// and returns to false once no scroll arrives for the scrolling delay.
func (s *Scroll[T]) HandleScroll(offset float64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.offset = observe.Sanitize(offset)
	s.scrolling = true
	if s.settle != nil {
		s.settle.Stop()
	}
	s.burst++
	burst := s.burst
	s.settle = s.sched.AfterFunc(s.delay, func() { s.endScroll(burst) })
	w := s.windowLocked()
	fns := s.listenersLocked()
	s.mu.Unlock()

	notify(fns, w)
}

func (s *Scroll[T]) endScroll(burst uint64) {
	s.mu.Lock()
	if s.closed || burst != s.burst {
		s.mu.Unlock()
		return
	}
	s.scrolling = false
	s.settle = nil
	offset := s.offset
	w := s.windowLocked()
	fns := s.listenersLocked()
	s.mu.Unlock()

	logging.VirtualDebug("scroll settled at offset %.1f (items %d..%d)", offset, w.StartIndex, w.EndIndex)
	notify(fns, w)
}

// HandleResize records a new viewport height. The window follows at once.
func (s *Scroll[T]) HandleResize(height float64) {
	s.update(func() { s.viewport = observe.Sanitize(height) })
}

// SetItems replaces the backing collection.
func (s *Scroll[T]) SetItems(items []T) {
	s.update(func() { s.items = items })
}

// SetItemHeight changes the row height. Invalid heights are rejected.
func (s *Scroll[T]) SetItemHeight(h float64) error {
	if !validHeight(h) {
		return &ConfigError{Field: "itemHeight", Value: h, Err: ErrInvalidItemHeight}
	}
	s.update(func() { s.itemHeight = h })
	return nil
}

func (s *Scroll[T]) update(mutate func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	mutate()
	w := s.windowLocked()
	fns := s.listenersLocked()
	s.mu.Unlock()

	notify(fns, w)
}

// IsScrolling reports whether a scroll burst is in progress.
func (s *Scroll[T]) IsScrolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolling
}

// TotalHeight returns len(items) * itemHeight.
func (s *Scroll[T]) TotalHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(len(s.items)) * s.itemHeight
}

// ItemHeight returns the configured row height.
func (s *Scroll[T]) ItemHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemHeight
}

// Sample returns the latest recorded offset and viewport height.
func (s *Scroll[T]) Sample() (offset, viewportHeight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, s.viewport
}

// OnChange registers fn to run after every recomputation.
func (s *Scroll[T]) OnChange(fn func(Window[T])) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Scroll[T]) listenersLocked() []func(Window[T]) {
	fns := make([]func(Window[T]), 0, len(s.listeners))
	for id := 1; id <= s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func notify[T any](fns []func(Window[T]), w Window[T]) {
	for _, fn := range fns {
		fn(w)
	}
}

// Bind seeds the current sample from src and follows its size and scroll
// notifications until the returned release is called. Seeding does not count
// as a scroll. Release is idempotent and also ends any scroll burst.
func (s *Scroll[T]) Bind(src ViewportSource) (release func()) {
	sample := src.Sample()
	s.update(func() {
		s.offset = sample.ScrollOffset
		s.viewport = sample.ViewportHeight
	})

	unsubSize := src.ObserveSize(func(smp observe.Sample) { s.HandleResize(smp.ViewportHeight) })
	unsubScroll := src.OnScroll(func(smp observe.Sample) { s.HandleScroll(smp.ScrollOffset) })

	var once sync.Once
	release = func() {
		once.Do(func() {
			unsubSize()
			unsubScroll()
			s.stopBurst()
		})
	}

	s.mu.Lock()
	s.releases = append(s.releases, release)
	s.mu.Unlock()
	return release
}

func (s *Scroll[T]) stopBurst() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
	s.burst++
	s.scrolling = false
}

// Close releases every binding and ignores later events.
func (s *Scroll[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	releases := s.releases
	s.releases = nil
	s.mu.Unlock()

	for _, release := range releases {
		release()
	}
	s.stopBurst()

	s.mu.Lock()
	s.closed = true
	s.listeners = make(map[int]func(Window[T]))
	s.mu.Unlock()
}
