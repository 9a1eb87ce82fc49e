package engine

import (
	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/geometry"
)

// ComputeGroupBounds returns the minimal axis-aligned rectangle covering
// every element. ok is false for an empty input and the rect must not be used.
func ComputeGroupBounds(elements []document.Element) (bounds geometry.Rect, ok bool) {
	rects := make([]geometry.Rect, len(elements))
	for i := range elements {
		rects[i] = elements[i].Bounds()
	}
	return geometry.UnionAll(rects)
}

// ElementAt returns the top-most element whose bounds contain p.
func (e *Engine) ElementAt(p geometry.Point) (document.Element, bool) {
	order := e.sortedByZ()
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Bounds().Contains(p) {
			return *order[i], true
		}
	}
	return document.Element{}, false
}
