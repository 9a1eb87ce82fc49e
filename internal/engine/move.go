package engine

import "github.com/equipdraw/equipdraw/internal/geometry"

type moveGesture struct {
	start   geometry.Point
	members []memberSnapshot
}

// StartMove begins dragging the selection's unlocked members. It reports
// whether a gesture started.
func (e *Engine) StartMove(pointer geometry.Point) bool {
	if e.pointerBusy() || e.text != nil {
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
	e.move = &moveGesture{start: pointer, members: members}
	e.commit()
	return true
}

// UpdateMove offsets every moved element by the pointer delta since StartMove.
func (e *Engine) UpdateMove(pointer geometry.Point) {
	if e.move == nil {
		e.violation("UpdateMove", "no move in progress")
		return
	}
	delta := pointer.Sub(e.move.start)
	for _, m := range e.move.members {
		m.el.X = m.bounds.X + delta.X
		m.el.Y = m.bounds.Y + delta.Y
	}
	e.commit()
}

func (e *Engine) EndMove() {
	if e.move == nil {
		e.violation("EndMove", "no move in progress")
		return
	}
	e.move = nil
	e.commit()
}
