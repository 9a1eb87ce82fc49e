package engine

import (
	"cmp"
	"slices"

	"github.com/equipdraw/equipdraw/internal/document"
)

// BringForward swaps the primary selection with the element directly above it.
func (e *Engine) BringForward() {
	e.step(1)
}

// SendBackward swaps the primary selection with the element directly below it.
func (e *Engine) SendBackward() {
	e.step(-1)
}

// BringToFront stacks the selection above every element: a single element
// gets max+1; several keep their relative order from max+1 upward.
func (e *Engine) BringToFront() {
	targets := e.selectedUnlocked()
	if len(targets) == 0 {
		return
	}
	_, top := e.zRange()
	slices.SortStableFunc(targets, func(a, b *document.Element) int { return cmp.Compare(a.ZIndex, b.ZIndex) })
	for i, el := range targets {
		el.ZIndex = top + 1 + i
	}
	e.commit()
}

// SendToBack stacks the selection below every element: a single element gets
// min-1; several keep their relative order from min-1 downward.
func (e *Engine) SendToBack() {
	targets := e.selectedUnlocked()
	if len(targets) == 0 {
		return
	}
	bottom, _ := e.zRange()
	slices.SortStableFunc(targets, func(a, b *document.Element) int { return cmp.Compare(b.ZIndex, a.ZIndex) })
	for i, el := range targets {
		el.ZIndex = bottom - 1 - i
	}
	e.commit()
}

func (e *Engine) step(dir int) {
	if len(e.selection) == 0 {
		return
	}
	el := e.selection[len(e.selection)-1]
	if el.Locked {
		return
	}

	order := e.sortedByZ()
	i := slices.Index(order, el)
	j := i + dir
	if j < 0 || j >= len(order) {
		return
	}

	other := order[j]
	if other.ZIndex == el.ZIndex {
		// Tied values: nudge past the neighbour instead of a no-op swap.
		el.ZIndex += dir
	} else {
		el.ZIndex, other.ZIndex = other.ZIndex, el.ZIndex
	}
	e.commit()
}

func (e *Engine) zRange() (lo, hi int) {
	for i, el := range e.elements {
		if i == 0 {
			lo, hi = el.ZIndex, el.ZIndex
			continue
		}
		lo = min(lo, el.ZIndex)
		hi = max(hi, el.ZIndex)
	}
	return lo, hi
}
