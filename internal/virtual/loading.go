package virtual

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
	"unsafe"

	"howhite/internal/logging"
	"howhite/internal/observe"
)

// Loader defaults.
const (
	DefaultInitialItems = 5
	DefaultIncrement    = 5
	DefaultThreshold    = 200
	DefaultLatency      = 500 * time.Millisecond

	// proximityRatio is the minimum sentinel overlap that counts as visible.
	proximityRatio = 0.1
)

// FetchFunc is awaited by LoadMore in place of the fixed latency. It returns
// the collection to continue with: nil keeps the current items, a non-nil
// slice replaces them without resetting the cursor (a server page appended to
// the previous ones). On success the cursor advances by the increment.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// LoadingOption configures a Loader.
type LoadingOption func(*loadingSettings)

type loadingSettings struct {
	initial      int
	increment    int
	threshold    float64
	latency      time.Duration
	onEndReached func()
	fetch        any
}

// WithInitialItems sets how many items are visible before any growth.
func WithInitialItems(n int) LoadingOption {
	return func(s *loadingSettings) { s.initial = n }
}

// WithIncrement sets how many items each growth adds.
func WithIncrement(n int) LoadingOption {
	return func(s *loadingSettings) { s.increment = n }
}

// WithThreshold sets the trailing margin of the proximity check.
func WithThreshold(margin float64) LoadingOption {
	return func(s *loadingSettings) { s.threshold = margin }
}

// WithLatency sets the simulated fetch delay used when no FetchFunc is set.
func WithLatency(d time.Duration) LoadingOption {
	return func(s *loadingSettings) { s.latency = d }
}

// WithOnEndReached registers a callback for each transition into exhaustion.
func WithOnEndReached(fn func()) LoadingOption {
	return func(s *loadingSettings) { s.onEndReached = fn }
}

// WithFetch makes LoadMore await fn instead of the fixed latency. The item
// type of fn must match the Loader's.
func WithFetch[T any](fn FetchFunc[T]) LoadingOption {
	return func(s *loadingSettings) { s.fetch = fn }
}

// ProximitySource hosts the sentinel and its observer. *observe.Container
// implements it.
type ProximitySource interface {
	AppendSentinel() *observe.Sentinel
	RemoveSentinel(s *observe.Sentinel) error
	NewObserver(opts observe.ProximityOptions, fn func(observe.Entry)) *observe.Proximity
}

type mount struct {
	src      ProximitySource
	sentinel *observe.Sentinel
	observer *observe.Proximity
	once     sync.Once
}

// Loader exposes a growing prefix of items. At most one growth is in flight;
// completions that arrive after Close or after the collection was replaced
// are dropped.
type Loader[T any] struct {
	mu           sync.Mutex
	items        []T
	initial      int
	increment    int
	threshold    float64
	latency      time.Duration
	onEndReached func()
	fetch        FetchFunc[T]
	sched        Scheduler

	visibleCount int
	loading      bool
	exhausted    bool
	generation   uint64
	closed       bool
	pending      Timer
	cancelFetch  context.CancelFunc
	mount        *mount

	nextID    int
	listeners map[int]func()
	fetches   sync.WaitGroup
}

// NewLoader validates the configuration and evaluates exhaustion once, so an
// empty or short collection reports onEndReached immediately.
func NewLoader[T any](items []T, sched Scheduler, opts ...LoadingOption) (*Loader[T], error) {
	settings := loadingSettings{
		initial:   DefaultInitialItems,
		increment: DefaultIncrement,
		threshold: DefaultThreshold,
		latency:   DefaultLatency,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	switch {
	case settings.initial <= 0:
		return nil, &ConfigError{Field: "initialItemsToLoad", Value: settings.initial, Err: ErrInvalidInitial}
	case settings.increment <= 0:
		return nil, &ConfigError{Field: "incrementAmount", Value: settings.increment, Err: ErrInvalidIncrement}
	case !validThreshold(settings.threshold):
		return nil, &ConfigError{Field: "threshold", Value: settings.threshold, Err: ErrInvalidThreshold}
	case settings.latency < 0:
		return nil, &ConfigError{Field: "latency", Value: settings.latency, Err: ErrInvalidDelay}
	case sched == nil:
		return nil, &ConfigError{Field: "scheduler", Value: nil, Err: ErrNilScheduler}
	}
	var fetch FetchFunc[T]
	if settings.fetch != nil {
		f, ok := settings.fetch.(FetchFunc[T])
		if !ok {
			return nil, &ConfigError{Field: "fetch", Value: fmt.Sprintf("%T", settings.fetch), Err: ErrFetchType}
		}
		fetch = f
	}

	l := &Loader[T]{
		items:        items,
		initial:      settings.initial,
		increment:    settings.increment,
		threshold:    settings.threshold,
		latency:      settings.latency,
		onEndReached: settings.onEndReached,
		fetch:        fetch,
		sched:        sched,
		visibleCount: settings.initial,
		listeners:    make(map[int]func()),
	}

	l.mu.Lock()
	fire := l.checkExhaustionLocked()
	l.mu.Unlock()
	if fire {
		l.endReached()
	}
	return l, nil
}

func validThreshold(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// VisibleItems returns items[0:VisibleCount()].
func (l *Loader[T]) VisibleItems() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items[:l.countLocked()]
}

// VisibleCount returns the number of visible items.
func (l *Loader[T]) VisibleCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countLocked()
}

func (l *Loader[T]) countLocked() int {
	if l.visibleCount > len(l.items) {
		return len(l.items)
	}
	return l.visibleCount
}

// Len returns the size of the backing collection.
func (l *Loader[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// HasMoreItems reports whether items remain beyond the visible prefix.
func (l *Loader[T]) HasMoreItems() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visibleCount < len(l.items)
}

// IsLoading reports whether a growth is in flight.
func (l *Loader[T]) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// LoadMore starts one growth if more items exist and none is in flight. It
// reports whether a growth was started. The cursor advances later, on the
// scheduler, after the latency or the FetchFunc completes.
func (l *Loader[T]) LoadMore() bool {
	l.mu.Lock()
	if l.closed || l.loading || l.visibleCount >= len(l.items) {
		l.mu.Unlock()
		return false
	}
	l.loading = true
	gen := l.generation

	if l.fetch != nil {
		ctx, cancel := context.WithCancel(context.Background())
		l.cancelFetch = cancel
		fetch := l.fetch
		l.fetches.Add(1)
		go func() {
			defer l.fetches.Done()
			items, err := fetch(ctx)
			l.sched.AfterFunc(0, func() { l.complete(gen, items, err) })
		}()
	} else {
		l.pending = l.sched.AfterFunc(l.latency, func() { l.complete(gen, nil, nil) })
	}
	from := l.countLocked()
	fns := l.listenersLocked()
	l.mu.Unlock()

	logging.VirtualDebug("load more started at %d items", from)
	l.notifyAll(fns)
	return true
}

func (l *Loader[T]) complete(gen uint64, items []T, err error) {
	l.mu.Lock()
	if l.closed || gen != l.generation {
		l.mu.Unlock()
		logging.VirtualDebug("dropping stale load completion (generation %d)", gen)
		return
	}
	l.pending = nil
	if l.cancelFetch != nil {
		l.cancelFetch()
		l.cancelFetch = nil
	}
	l.loading = false
	if err != nil {
		fns := l.listenersLocked()
		l.mu.Unlock()
		logging.VirtualWarn("load more failed: %v", err)
		// No re-arm: a sentinel still in range would retry at once.
		l.notifyAll(fns)
		return
	}
	if items != nil {
		l.items = items
	}

	next := l.visibleCount + l.increment
	if next > len(l.items) {
		next = len(l.items)
	}
	if next > l.visibleCount {
		l.visibleCount = next
	}
	count := l.countLocked()
	fire := l.checkExhaustionLocked()
	fns := l.listenersLocked()
	l.mu.Unlock()

	logging.VirtualDebug("load more completed: %d items visible", count)
	l.changed(fns, fire)
}

// changed notifies listeners and re-arms the proximity observation, which
// lets a sentinel that is still in range trigger the next growth.
func (l *Loader[T]) changed(fns []func(), fire bool) {
	if fire {
		l.endReached()
	}
	l.notifyAll(fns)
	l.rearm()
}

func (l *Loader[T]) notifyAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// checkExhaustionLocked reports whether this evaluation is a transition into
// exhaustion.
func (l *Loader[T]) checkExhaustionLocked() bool {
	exhausted := l.visibleCount >= len(l.items)
	fire := exhausted && !l.exhausted
	l.exhausted = exhausted
	return fire
}

func (l *Loader[T]) endReached() {
	logging.VirtualDebug("end of collection reached")
	if l.onEndReached != nil {
		l.onEndReached()
	}
}

// SetItems replaces the backing collection. A slice sharing the old backing
// array (the collection grown in place) keeps the cursor and any in-flight
// growth; a different collection resets the cursor to the initial count and
// drops the in-flight growth. Zero-size element types have no usable
// identity, so for them every call resets.
func (l *Loader[T]) SetItems(items []T) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if !sameBacking(l.items, items) {
		l.generation++
		l.visibleCount = l.initial
		l.exhausted = false
		l.stopInFlightLocked()
	}
	l.items = items
	fire := l.checkExhaustionLocked()
	fns := l.listenersLocked()
	l.mu.Unlock()

	l.changed(fns, fire)
}

func sameBacking[T any](a, b []T) bool {
	// Distinct zero-size values may share an address.
	if unsafe.Sizeof(*new(T)) == 0 {
		return false
	}
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	return &a[0] == &b[0]
}

func (l *Loader[T]) stopInFlightLocked() {
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
	if l.cancelFetch != nil {
		l.cancelFetch()
		l.cancelFetch = nil
	}
	l.loading = false
}

// Threshold returns the trailing margin of the proximity check.
func (l *Loader[T]) Threshold() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.threshold
}

// SetThreshold changes the trailing margin and re-creates the observation.
func (l *Loader[T]) SetThreshold(margin float64) error {
	if !validThreshold(margin) {
		return &ConfigError{Field: "threshold", Value: margin, Err: ErrInvalidThreshold}
	}
	l.mu.Lock()
	l.threshold = margin
	m := l.mount
	l.mu.Unlock()

	if m != nil {
		m.observer.Disconnect()
		m.observer = m.src.NewObserver(l.proximityOptions(), l.onIntersect)
		m.observer.Observe(m.sentinel)
	}
	return nil
}

func (l *Loader[T]) proximityOptions() observe.ProximityOptions {
	return observe.ProximityOptions{RootMargin: l.Threshold(), Threshold: proximityRatio}
}

// Mount creates the sentinel at content position at (just after the last
// rendered item) and starts its proximity observation in src. A second Mount
// releases the first. The returned release is idempotent.
func (l *Loader[T]) Mount(src ProximitySource, at float64) (release func()) {
	l.mu.Lock()
	prev := l.mount
	l.mu.Unlock()
	if prev != nil {
		l.unmount(prev)
	}

	m := &mount{src: src, sentinel: src.AppendSentinel()}
	m.sentinel.SetTop(at)
	m.observer = src.NewObserver(l.proximityOptions(), l.onIntersect)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.unmount(m)
		return func() {}
	}
	l.mount = m
	l.mu.Unlock()

	m.observer.Observe(m.sentinel)
	return func() { l.unmount(m) }
}

func (l *Loader[T]) unmount(m *mount) {
	m.once.Do(func() {
		l.mu.Lock()
		if l.mount == m {
			l.mount = nil
		}
		l.mu.Unlock()

		m.observer.Disconnect()
		if err := m.src.RemoveSentinel(m.sentinel); err != nil {
			logging.VirtualWarn("sentinel cleanup: %v", err)
		}
	})
}

// Sentinel returns the mounted sentinel, or nil when not mounted.
func (l *Loader[T]) Sentinel() *observe.Sentinel {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mount == nil {
		return nil
	}
	return l.mount.sentinel
}

// PlaceSentinel moves the sentinel to y, the content position just after the
// last rendered item.
func (l *Loader[T]) PlaceSentinel(y float64) {
	if s := l.Sentinel(); s != nil {
		s.SetTop(y)
	}
}

func (l *Loader[T]) onIntersect(e observe.Entry) {
	if !e.IsIntersecting {
		return
	}
	if l.HasMoreItems() && !l.IsLoading() {
		logging.VirtualDebug("sentinel in range (ratio %.2f)", e.Ratio)
		l.LoadMore()
	}
}

func (l *Loader[T]) rearm() {
	l.mu.Lock()
	m := l.mount
	l.mu.Unlock()
	if m == nil {
		return
	}
	m.observer.Disconnect()
	m.observer.Observe(m.sentinel)
}

// OnChange registers fn to run after every state transition.
func (l *Loader[T]) OnChange(fn func()) (unsubscribe func()) {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

func (l *Loader[T]) listenersLocked() []func() {
	fns := make([]func(), 0, len(l.listeners))
	for id := 1; id <= l.nextID; id++ {
		if fn, ok := l.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Close tears the loader down: the sentinel is removed, any in-flight growth
// is cancelled and its completion dropped. Close waits for a running
// FetchFunc to return.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.generation++
	l.stopInFlightLocked()
	m := l.mount
	l.listeners = make(map[int]func())
	l.mu.Unlock()

	if m != nil {
		l.unmount(m)
	}
	l.fetches.Wait()
}
