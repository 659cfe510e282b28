package observe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewport_ScrollNotifiesOnlyOnChange(t *testing.T) {
	vp := NewViewport(10)
	var got []Sample
	unsub := vp.OnScroll(func(s Sample) { got = append(got, s) })

	vp.ScrollTo(5)
	vp.ScrollTo(5)
	vp.ScrollBy(-10)

	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].ScrollOffset)
	assert.Equal(t, 0.0, got[1].ScrollOffset)
	assert.Less(t, got[0].Seq, got[1].Seq)

	unsub()
	unsub()
	vp.ScrollTo(3)
	assert.Len(t, got, 2)
}

func TestViewport_SanitizesInput(t *testing.T) {
	vp := NewViewport(math.NaN())
	assert.Equal(t, 0.0, vp.Sample().ViewportHeight)

	vp.ScrollTo(math.Inf(-1))
	assert.Equal(t, 0.0, vp.Sample().ScrollOffset)

	vp.Resize(-4)
	assert.Equal(t, 0.0, vp.Sample().ViewportHeight)
}

func TestViewport_ScrollToInfinity(t *testing.T) {
	vp := NewViewport(10)
	vp.ScrollTo(7)

	// unbounded: there is no end to jump to
	vp.ScrollTo(vp.MaxOffset())
	assert.Equal(t, 7.0, vp.Sample().ScrollOffset)
	vp.ScrollBy(math.Inf(1))
	assert.Equal(t, 7.0, vp.Sample().ScrollOffset)

	vp.SetContentHeight(50)
	vp.ScrollTo(math.Inf(1))
	assert.Equal(t, 40.0, vp.Sample().ScrollOffset)

	vp.ScrollTo(0)
	vp.ScrollBy(math.Inf(1))
	assert.Equal(t, 40.0, vp.Sample().ScrollOffset)
	vp.ScrollTo(math.NaN())
	assert.Equal(t, 0.0, vp.Sample().ScrollOffset)
}

func TestViewport_ContentHeightClampsOffset(t *testing.T) {
	vp := NewViewport(10)
	vp.ScrollTo(100)
	assert.Equal(t, 100.0, vp.Sample().ScrollOffset)

	var scrolled int
	vp.OnScroll(func(Sample) { scrolled++ })
	vp.SetContentHeight(50)
	assert.Equal(t, 40.0, vp.Sample().ScrollOffset)
	assert.Equal(t, 1, scrolled)
	assert.Equal(t, 40.0, vp.MaxOffset())

	// Growing the viewport pulls the offset back again.
	var sized int
	vp.ObserveSize(func(Sample) { sized++ })
	vp.Resize(20)
	assert.Equal(t, 30.0, vp.Sample().ScrollOffset)
	assert.Equal(t, 1, sized)
	assert.Equal(t, 2, scrolled)
}

func TestViewport_ListenerCount(t *testing.T) {
	vp := NewViewport(1)
	a := vp.ObserveSize(func(Sample) {})
	b := vp.OnScroll(func(Sample) {})
	size, scroll := vp.ListenerCount()
	assert.Equal(t, 1, size)
	assert.Equal(t, 1, scroll)
	a()
	b()
	size, scroll = vp.ListenerCount()
	assert.Zero(t, size)
	assert.Zero(t, scroll)
}

func TestContainer_RemoveTwiceIsDetached(t *testing.T) {
	c := NewContainer(NewViewport(10))
	s := c.AppendSentinel()
	assert.True(t, s.Attached())
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.RemoveSentinel(s))
	assert.False(t, s.Attached())
	assert.ErrorIs(t, c.RemoveSentinel(s), ErrDetached)
	assert.Zero(t, c.Len())
}

func TestIntersectionRatio(t *testing.T) {
	s := Sample{ScrollOffset: 100, ViewportHeight: 50}
	tests := []struct {
		name   string
		margin float64
		top    float64
		want   float64
	}{
		{"inside", 0, 120, 1},
		{"below without margin", 0, 160, 0},
		{"below within margin", 20, 160, 1},
		{"straddling bottom edge", 0, 149.5, 0.5},
		{"above viewport", 0, 50, 0},
		{"exactly at bottom edge", 0, 150, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IntersectionRatio(s, tt.margin, tt.top, 1), 1e-9)
		})
	}
}

func TestProximity_EmitsInitialThenTransitions(t *testing.T) {
	vp := NewViewport(10)
	c := NewContainer(vp)
	s := c.AppendSentinel()
	s.SetTop(30)

	var entries []Entry
	p := c.NewObserver(ProximityOptions{RootMargin: 5, Threshold: 0.1}, func(e Entry) {
		entries = append(entries, e)
	})
	p.Observe(s)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsIntersecting)
	assert.Same(t, s, entries[0].Target)

	vp.ScrollTo(10) // root now [10, 25]
	assert.Len(t, entries, 1)

	vp.ScrollTo(16) // root [16, 31] covers the sentinel
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsIntersecting)

	vp.ScrollTo(17) // still intersecting: no new entry
	assert.Len(t, entries, 2)

	s.SetTop(100)
	require.Len(t, entries, 3)
	assert.False(t, entries[2].IsIntersecting)
}

func TestProximity_DetachedTargetNeverIntersects(t *testing.T) {
	vp := NewViewport(10)
	c := NewContainer(vp)
	s := c.AppendSentinel()

	var entries []Entry
	p := c.NewObserver(ProximityOptions{}, func(e Entry) { entries = append(entries, e) })
	p.Observe(s)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsIntersecting)

	require.NoError(t, c.RemoveSentinel(s))
	require.Len(t, entries, 2)
	assert.False(t, entries[1].IsIntersecting)
}

func TestProximity_DisconnectReconnect(t *testing.T) {
	vp := NewViewport(10)
	c := NewContainer(vp)
	s := c.AppendSentinel()

	var n int
	p := c.NewObserver(ProximityOptions{}, func(Entry) { n++ })
	p.Disconnect() // before Observe
	p.Observe(s)
	assert.True(t, p.Connected())
	p.Disconnect()
	p.Disconnect()
	assert.False(t, p.Connected())

	size, scroll := vp.ListenerCount()
	assert.Zero(t, size)
	assert.Zero(t, scroll)

	s.SetTop(50)
	vp.ScrollTo(45)
	assert.Equal(t, 1, n)

	p.Observe(s)
	assert.Equal(t, 2, n)
}
