// Package observe provides the leaf observers the windowing components consume:
// a Viewport that publishes scroll offset and viewport height samples, and a
// Proximity observer that reports when a sentinel enters the viewport extended
// by a trailing margin.
//
// Coordinates are abstract units (pixels in a browser, lines in a terminal).
// All values are kept finite and non-negative.
package observe

import (
	"math"
	"sync"
)

// Sample is one observation of a scroll container.
type Sample struct {
	ScrollOffset   float64
	ViewportHeight float64
	Seq            uint64 // strictly increasing per Viewport
}

type listener struct {
	id int
	fn func(Sample)
}

// Viewport is a scroll container: it owns the scroll offset and the measured
// viewport height, and notifies size observers and scroll listeners.
// Listeners run synchronously on the caller's goroutine, outside the lock.
type Viewport struct {
	mu            sync.Mutex
	offset        float64
	height        float64
	contentHeight float64 // 0 = unbounded
	seq           uint64
	nextID        int
	sizeObs       []listener
	scrollObs     []listener
}

// NewViewport creates a viewport with the given measured height.
// A height of 0 means "not yet measured".
func NewViewport(height float64) *Viewport {
	return &Viewport{height: Sanitize(height)}
}

// Sanitize maps NaN, infinities and negatives to 0.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Sample returns the current observation.
func (v *Viewport) Sample() Sample {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sampleLocked()
}

func (v *Viewport) sampleLocked() Sample {
	return Sample{ScrollOffset: v.offset, ViewportHeight: v.height, Seq: v.seq}
}

// ObserveSize registers fn for viewport height changes.
func (v *Viewport) ObserveSize(fn func(Sample)) (unsubscribe func()) {
	return v.subscribe(&v.sizeObs, fn)
}

// OnScroll registers fn for scroll offset changes.
func (v *Viewport) OnScroll(fn func(Sample)) (unsubscribe func()) {
	return v.subscribe(&v.scrollObs, fn)
}

func (v *Viewport) subscribe(list *[]listener, fn func(Sample)) func() {
	v.mu.Lock()
	v.nextID++
	id := v.nextID
	*list = append(*list, listener{id: id, fn: fn})
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, l := range *list {
				if l.id == id {
					*list = append((*list)[:i:i], (*list)[i+1:]...)
					return
				}
			}
		})
	}
}

// ListenerCount reports registered size observers and scroll listeners.
func (v *Viewport) ListenerCount() (size, scroll int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.sizeObs), len(v.scrollObs)
}

// Resize records a new measured height and notifies size observers when it
// changed. The offset is re-clamped against the content height.
func (v *Viewport) Resize(height float64) {
	height = Sanitize(height)

	v.mu.Lock()
	if height == v.height {
		v.mu.Unlock()
		return
	}
	v.height = height
	scrolled := v.clampLocked()
	v.seq++
	s := v.sampleLocked()
	size := snapshot(v.sizeObs)
	var scroll []listener
	if scrolled {
		scroll = snapshot(v.scrollObs)
	}
	v.mu.Unlock()

	emit(size, s)
	emit(scroll, s)
}

// ScrollTo moves the offset, clamped to [0, MaxOffset], and notifies scroll
// listeners when it changed. +Inf scrolls to the end of bounded content and
// leaves an unbounded viewport where it is.
func (v *Viewport) ScrollTo(offset float64) {
	v.mu.Lock()
	prev := v.offset
	if math.IsInf(offset, 1) {
		offset = v.maxOffsetLocked()
		if math.IsInf(offset, 1) {
			offset = prev
		}
	}
	offset = Sanitize(offset)
	v.offset = offset
	v.clampLocked()
	if v.offset == prev {
		v.mu.Unlock()
		return
	}
	v.seq++
	s := v.sampleLocked()
	scroll := snapshot(v.scrollObs)
	v.mu.Unlock()

	emit(scroll, s)
}

// ScrollBy moves the offset by delta.
func (v *Viewport) ScrollBy(delta float64) {
	v.mu.Lock()
	target := v.offset + delta
	v.mu.Unlock()
	if math.IsNaN(target) {
		return
	}
	if target < 0 {
		target = 0
	}
	v.ScrollTo(target)
}

// SetContentHeight sets the scrollable extent. 0 removes the bound.
func (v *Viewport) SetContentHeight(h float64) {
	h = Sanitize(h)

	v.mu.Lock()
	v.contentHeight = h
	if !v.clampLocked() {
		v.mu.Unlock()
		return
	}
	v.seq++
	s := v.sampleLocked()
	scroll := snapshot(v.scrollObs)
	v.mu.Unlock()

	emit(scroll, s)
}

// MaxOffset returns the largest valid offset, or +Inf when unbounded.
func (v *Viewport) MaxOffset() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxOffsetLocked()
}

func (v *Viewport) maxOffsetLocked() float64 {
	if v.contentHeight == 0 {
		return math.Inf(1)
	}
	return math.Max(0, v.contentHeight-v.height)
}

// clampLocked reports whether the offset moved.
func (v *Viewport) clampLocked() bool {
	max := v.maxOffsetLocked()
	if v.offset > max {
		v.offset = max
		return true
	}
	return false
}

func snapshot(ls []listener) []listener {
	if len(ls) == 0 {
		return nil
	}
	out := make([]listener, len(ls))
	copy(out, ls)
	return out
}

func emit(ls []listener, s Sample) {
	for _, l := range ls {
		l.fn(s)
	}
}
