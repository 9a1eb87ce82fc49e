package engine

import "github.com/equipdraw/equipdraw/internal/geometry"

// PanContext is the state of one pan gesture.
type PanContext struct {
	DragStartPoint       geometry.Point `json:"dragStartPoint"`
	OriginalScrollOffset geometry.Point `json:"originalScrollOffset"`
	ZoomScale            float64        `json:"zoomScale"`
}

// CalculatePan maps the pointer position to a scroll offset. The drag delta
// is applied 1:1 in screen pixels and each axis is clamped at zero, since
// content cannot scroll past the canvas origin. ZoomScale is carried for the
// host but does not enter the arithmetic.
func CalculatePan(ctx PanContext, current geometry.Point) geometry.Point {
	delta := current.Sub(ctx.DragStartPoint)
	return geometry.Point{
		X: max(ctx.OriginalScrollOffset.X-delta.X, 0),
		Y: max(ctx.OriginalScrollOffset.Y-delta.Y, 0),
	}
}

// StartPan begins a pan from a screen point. Only the pan tool pans.
func (e *Engine) StartPan(pointer geometry.Point, zoom float64) bool {
	if e.tool != ToolPan || e.pointerBusy() || e.text != nil {
		return false
	}
	e.pan = &PanContext{
		DragStartPoint:       pointer,
		OriginalScrollOffset: e.scroll,
		ZoomScale:            zoom,
	}
	e.commit()
	return true
}

// UpdatePan scrolls for the pointer position and returns the new offset.
func (e *Engine) UpdatePan(pointer geometry.Point) geometry.Point {
	if e.pan == nil {
		e.violation("UpdatePan", "no pan in progress")
		return e.scroll
	}
	e.scroll = CalculatePan(*e.pan, pointer)
	e.commit()
	return e.scroll
}

// EndPan finishes the gesture. Like StartPan it only acts under the pan tool.
func (e *Engine) EndPan() {
	if e.tool != ToolPan || e.pan == nil {
		return
	}
	e.pan = nil
	e.commit()
}
