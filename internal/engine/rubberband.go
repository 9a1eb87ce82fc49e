package engine

import "github.com/equipdraw/equipdraw/internal/geometry"

type rubberband struct {
	origin  geometry.Point
	current geometry.Point
}

// StartRubberbandSelection begins a marquee drag at origin (canvas space).
// It reports whether a gesture started.
func (e *Engine) StartRubberbandSelection(origin geometry.Point) bool {
	if e.pointerBusy() || e.text != nil {
		return false
	}
	e.rubber = &rubberband{origin: origin, current: origin}
	e.commit()
	return true
}

// UpdateRubberbandSelection tracks the live marquee. Elements are untouched
// until the marquee finishes.
func (e *Engine) UpdateRubberbandSelection(p geometry.Point) {
	if e.rubber == nil {
		e.violation("UpdateRubberbandSelection", "no rubberband in progress")
		return
	}
	e.rubber.current = p
	e.commit()
}

// RubberbandRect returns the live marquee rectangle.
func (e *Engine) RubberbandRect() (geometry.Rect, bool) {
	if e.rubber == nil {
		return geometry.Rect{}, false
	}
	return geometry.RectFromPoints(e.rubber.origin, e.rubber.current), true
}

// FinishRubberbandSelection replaces the selection with every unlocked
// element intersecting the marquee, bottom to top.
func (e *Engine) FinishRubberbandSelection() {
	if e.rubber == nil {
		e.violation("FinishRubberbandSelection", "no rubberband in progress")
		return
	}
	r, _ := e.RubberbandRect()
	e.rubber = nil

	e.clearSelection()
	for _, el := range e.sortedByZ() {
		if el.Locked {
			continue
		}
		if r.Intersects(el.Bounds()) {
			e.addSelected(el)
		}
	}
	e.commit()
}
