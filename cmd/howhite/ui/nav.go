package ui

import (
	"math"

	"howhite/internal/observe"
)

// listNav keeps a row cursor and the viewport offset consistent for a list
// of fixed-height rows. Offsets are whole lines.
type listNav struct {
	vp        *observe.Viewport
	rowHeight int
	cursor    int
}

func (n *listNav) offset() int {
	return int(math.Floor(n.vp.Sample().ScrollOffset))
}

func (n *listNav) height() int {
	return int(n.vp.Sample().ViewportHeight)
}

// rowsPerPage is at least one.
func (n *listNav) rowsPerPage() int {
	return max(1, n.height()/n.rowHeight)
}

func (n *listNav) clamp(count int) {
	if count == 0 {
		n.cursor = 0
		return
	}
	n.cursor = min(max(n.cursor, 0), count-1)
}

// ensureVisible scrolls the least amount that shows the whole cursor row.
func (n *listNav) ensureVisible() {
	top := n.cursor * n.rowHeight
	off, h := n.offset(), n.height()
	switch {
	case top < off:
		n.vp.ScrollTo(float64(top))
	case top+n.rowHeight > off+h:
		n.vp.ScrollTo(float64(top + n.rowHeight - h))
	}
}

func (n *listNav) move(delta, count int) {
	n.cursor += delta
	n.clamp(count)
	n.ensureVisible()
}

func (n *listNav) page(dir, count int) {
	n.vp.ScrollBy(float64(dir * n.height()))
	n.cursor += dir * n.rowsPerPage()
	n.clamp(count)
	n.ensureVisible()
}

func (n *listNav) top() {
	n.cursor = 0
	n.vp.ScrollTo(0)
}

func (n *listNav) bottom(count int) {
	n.cursor = count - 1
	n.clamp(count)
	n.vp.ScrollTo(n.vp.MaxOffset())
	n.ensureVisible()
}

// wheel scrolls by whole rows and drags the cursor into view.
func (n *listNav) wheel(rows, count int) {
	n.vp.ScrollBy(float64(rows * n.rowHeight))
	off, h := n.offset(), n.height()
	first := (off + n.rowHeight - 1) / n.rowHeight
	last := (off+h)/n.rowHeight - 1
	if last < first {
		last = first
	}
	n.cursor = min(max(n.cursor, first), last)
	n.clamp(count)
}
