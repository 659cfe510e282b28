package observe

import (
	"math"
	"sync"
)

// ProximityOptions configures a Proximity observer.
type ProximityOptions struct {
	// RootMargin extends the viewport on its trailing (bottom) edge.
	RootMargin float64
	// Threshold is the minimum intersection ratio in (0, 1]. Zero means any
	// overlap counts.
	Threshold float64
}

// Entry reports the intersection state of an observed sentinel.
type Entry struct {
	Target         *Sentinel
	IsIntersecting bool
	Ratio          float64
}

// Proximity reports when a sentinel intersects the viewport extended by a
// trailing margin. Like a browser IntersectionObserver it emits one entry as
// soon as a target is observed and afterwards only when the intersecting
// state flips.
type Proximity struct {
	mu        sync.Mutex
	viewport  *Viewport
	opts      ProximityOptions
	fn        func(Entry)
	target    *Sentinel
	last      bool
	connected bool
	releases  []func()
}

// NewProximity creates an observer measured against vp. fn runs synchronously
// on whichever goroutine moved the viewport or the sentinel.
func NewProximity(vp *Viewport, opts ProximityOptions, fn func(Entry)) *Proximity {
	opts.RootMargin = Sanitize(opts.RootMargin)
	opts.Threshold = math.Min(Sanitize(opts.Threshold), 1)
	return &Proximity{viewport: vp, opts: opts, fn: fn}
}

// Observe starts watching s, replacing any previous target, and emits the
// initial entry.
func (p *Proximity) Observe(s *Sentinel) {
	p.Disconnect()

	check := func(Sample) { p.Check() }
	releases := []func(){
		p.viewport.OnScroll(check),
		p.viewport.ObserveSize(check),
		s.watch(p.Check),
	}

	p.mu.Lock()
	p.target = s
	p.connected = true
	p.releases = releases
	entry := p.measureLocked()
	p.last = entry.IsIntersecting
	p.mu.Unlock()

	if p.fn != nil {
		p.fn(entry)
	}
}

// Disconnect stops observing. It is safe to call repeatedly and before Observe.
func (p *Proximity) Disconnect() {
	p.mu.Lock()
	releases := p.releases
	p.releases = nil
	p.connected = false
	p.target = nil
	p.mu.Unlock()

	for _, release := range releases {
		release()
	}
}

// Connected reports whether a target is being observed.
func (p *Proximity) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Check re-measures the target and emits an entry if the intersecting state
// changed since the last emission.
func (p *Proximity) Check() {
	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return
	}
	entry := p.measureLocked()
	if entry.IsIntersecting == p.last {
		p.mu.Unlock()
		return
	}
	p.last = entry.IsIntersecting
	p.mu.Unlock()

	if p.fn != nil {
		p.fn(entry)
	}
}

func (p *Proximity) measureLocked() Entry {
	entry := Entry{Target: p.target}
	if p.target == nil || !p.target.Attached() {
		return entry
	}
	s := p.viewport.Sample()
	ratio := IntersectionRatio(s, p.opts.RootMargin, p.target.Top(), p.target.Height())
	entry.Ratio = ratio
	entry.IsIntersecting = ratio > 0 && ratio >= p.opts.Threshold
	return entry
}

// IntersectionRatio returns the visible fraction of the extent [top, top+height)
// inside [offset, offset+viewportHeight+margin].
func IntersectionRatio(s Sample, margin, top, height float64) float64 {
	if height <= 0 {
		return 0
	}
	rootTop := s.ScrollOffset
	rootBottom := s.ScrollOffset + s.ViewportHeight + margin
	overlap := math.Min(rootBottom, top+height) - math.Max(rootTop, top)
	if overlap <= 0 {
		return 0
	}
	return math.Min(overlap/height, 1)
}
