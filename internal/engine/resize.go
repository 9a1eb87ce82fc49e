package engine

import (
	"fmt"
	"math"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/geometry"
)

// Handle is one of the eight drag points around a shape.
type Handle int

const (
	HandleTopLeft Handle = iota
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
	HandleTop
	HandleBottom
	HandleLeft
	HandleRight
)

var handleNames = [...]string{
	HandleTopLeft:     "TopLeft",
	HandleTopRight:    "TopRight",
	HandleBottomLeft:  "BottomLeft",
	HandleBottomRight: "BottomRight",
	HandleTop:         "Top",
	HandleBottom:      "Bottom",
	HandleLeft:        "Left",
	HandleRight:       "Right",
}

func (h Handle) String() string {
	if !h.Valid() {
		return fmt.Sprintf("Handle(%d)", int(h))
	}
	return handleNames[h]
}

func (h Handle) Valid() bool {
	return h >= HandleTopLeft && h <= HandleRight
}

// ParseHandle maps a handle name ("TopLeft", "Right", ...) to its Handle.
func ParseHandle(s string) (Handle, error) {
	for i, name := range handleNames {
		if name == s {
			return Handle(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resize handle %q", s)
}

// axes returns which edge the handle drags on each axis: +1 the right/bottom
// edge, -1 the left/top edge, 0 neither.
func (h Handle) axes() (hx, hy int) {
	switch h {
	case HandleTopLeft:
		return -1, -1
	case HandleTopRight:
		return 1, -1
	case HandleBottomLeft:
		return -1, 1
	case HandleBottomRight:
		return 1, 1
	case HandleTop:
		return 0, -1
	case HandleBottom:
		return 0, 1
	case HandleLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

// ResizeContext is the per-gesture resize state. TrueOriginalBounds is
// captured once at gesture start and every frame is computed from it, so
// scale never compounds and never explodes after a flip.
type ResizeContext struct {
	Handle             Handle         `json:"handle"`
	TrueOriginalBounds geometry.Rect  `json:"trueOriginalBounds"`
	Anchor             geometry.Point `json:"anchor"`
	StartPointer       geometry.Point `json:"startPointer"`

	IsFlippedHorizontally bool `json:"isFlippedHorizontally"`
	IsFlippedVertically   bool `json:"isFlippedVertically"`
}

// NewResizeContext snapshots bounds and derives the anchor for the handle:
// the opposite edge on each dragged axis and the center on an undragged one.
func NewResizeContext(h Handle, bounds geometry.Rect, pointer geometry.Point) ResizeContext {
	hx, hy := h.axes()
	return ResizeContext{
		Handle:             h,
		TrueOriginalBounds: bounds,
		Anchor: geometry.Point{
			X: edge(bounds.X, bounds.Width, -hx),
			Y: edge(bounds.Y, bounds.Height, -hy),
		},
		StartPointer: pointer,
	}
}

// edge returns the start edge (side < 0), the end edge (side > 0) or the
// midpoint (side == 0) of a span.
func edge(start, length float64, side int) float64 {
	switch {
	case side < 0:
		return start
	case side > 0:
		return start + length
	default:
		return start + length/2
	}
}

// grip is where the dragged handle sat on the original bounds.
func (c *ResizeContext) grip() geometry.Point {
	hx, hy := c.Handle.axes()
	o := c.TrueOriginalBounds
	return geometry.Point{X: edge(o.X, o.Width, hx), Y: edge(o.Y, o.Height, hy)}
}

// Resize computes the bounds for the pointer position and records whether
// the drag has crossed the anchor on either axis. The pointer's offset from
// the handle at gesture start is preserved, so an unmoved pointer yields the
// original bounds.
func (c *ResizeContext) Resize(pointer geometry.Point, maintainAspectRatio bool) geometry.Rect {
	o := c.TrueOriginalBounds
	hx, hy := c.Handle.axes()
	handlePos := c.grip().Add(pointer.Sub(c.StartPointer))

	w, h := o.Width, o.Height
	c.IsFlippedHorizontally, c.IsFlippedVertically = false, false
	if hx != 0 {
		dx := (handlePos.X - c.Anchor.X) * float64(hx)
		c.IsFlippedHorizontally = dx < 0
		w = math.Abs(dx)
	}
	if hy != 0 {
		dy := (handlePos.Y - c.Anchor.Y) * float64(hy)
		c.IsFlippedVertically = dy < 0
		h = math.Abs(dy)
	}

	if maintainAspectRatio {
		s := c.scale(w, h)
		w, h = o.Width*s, o.Height*s
	} else {
		w, h = max(w, document.MinSize), max(h, document.MinSize)
	}

	return geometry.Rect{
		X:      c.place(c.Anchor.X, w, hx, c.IsFlippedHorizontally),
		Y:      c.place(c.Anchor.Y, h, hy, c.IsFlippedVertically),
		Width:  w,
		Height: h,
	}
}

// scale derives the single aspect-locked scale factor from the dimension the
// handle controls; corners use whichever axis changed more. The factor is
// raised so neither dimension drops below MinSize.
func (c *ResizeContext) scale(w, h float64) float64 {
	o := c.TrueOriginalBounds
	hx, hy := c.Handle.axes()
	sx, sy := w/o.Width, h/o.Height

	var s float64
	switch {
	case hy == 0:
		s = sx
	case hx == 0:
		s = sy
	case math.Abs(sx-1) >= math.Abs(sy-1):
		s = sx
	default:
		s = sy
	}
	return max(s, document.MinSize/o.Width, document.MinSize/o.Height)
}

// place positions a span of the given length against the anchor coordinate.
// An undragged axis is centered on the anchor; a dragged one extends from
// the anchor toward wherever the handle currently is.
func (c *ResizeContext) place(anchor, length float64, side int, flipped bool) float64 {
	switch {
	case side == 0:
		return anchor - length/2
	case (side > 0) != flipped:
		return anchor
	default:
		return anchor - length
	}
}

type memberSnapshot struct {
	el     *document.Element
	bounds geometry.Rect
}

type resizeGesture struct {
	ctx     ResizeContext
	members []memberSnapshot
}

// StartResize begins resizing the selection's unlocked members from the
// given handle. With several members the group bounds are resized and each
// member follows proportionally. It reports whether a gesture started.
func (e *Engine) StartResize(h Handle, pointer geometry.Point) bool {
	if !h.Valid() || e.pointerBusy() || e.text != nil {
		return false
	}
	targets := e.selectedUnlocked()
	if len(targets) == 0 {
		return false
	}

	members := make([]memberSnapshot, len(targets))
	for i, el := range targets {
		members[i] = memberSnapshot{el: el, bounds: el.Bounds()}
	}
	bounds, _ := geometry.UnionAll(boundsOf(targets))

	e.resize = &resizeGesture{
		ctx:     NewResizeContext(h, bounds, pointer),
		members: members,
	}
	e.commit()
	return true
}

// UpdateResize applies one pointer-move frame of the active resize.
func (e *Engine) UpdateResize(pointer geometry.Point, maintainAspectRatio bool) {
	if e.resize == nil {
		e.violation("UpdateResize", "no resize in progress")
		return
	}

	g := e.resize
	nb := g.ctx.Resize(pointer, maintainAspectRatio)

	if len(g.members) == 1 {
		g.members[0].el.SetBounds(nb)
		e.commit()
		return
	}

	ob := g.ctx.TrueOriginalBounds
	sx, sy := nb.Width/ob.Width, nb.Height/ob.Height
	for _, m := range g.members {
		relX := m.bounds.X - ob.X
		if g.ctx.IsFlippedHorizontally {
			relX = ob.Right() - m.bounds.Right()
		}
		relY := m.bounds.Y - ob.Y
		if g.ctx.IsFlippedVertically {
			relY = ob.Bottom() - m.bounds.Bottom()
		}
		m.el.SetBounds(geometry.Rect{
			X:      nb.X + relX*sx,
			Y:      nb.Y + relY*sy,
			Width:  m.bounds.Width * sx,
			Height: m.bounds.Height * sy,
		})
	}
	e.commit()
}

// EndResize finishes the gesture; the mode settles back on the selection.
func (e *Engine) EndResize() {
	if e.resize == nil {
		e.violation("EndResize", "no resize in progress")
		return
	}
	e.resize = nil
	e.commit()
}

// ActiveResize returns a copy of the running gesture's context.
func (e *Engine) ActiveResize() (ResizeContext, bool) {
	if e.resize == nil {
		return ResizeContext{}, false
	}
	return e.resize.ctx, true
}
