package engine

import (
	"strings"

	"github.com/equipdraw/equipdraw/internal/document"
)

type textSession struct {
	el       *document.Element
	original string
}

// TryStartTextEditing opens an in-place text edit on the element. It fails
// for unknown or locked elements and while a move, resize or pan is running.
// On success the whole selection is cleared first so no selection overlay
// remains during editing. Starting on another element commits the previous
// session with its current text.
func (e *Engine) TryStartTextEditing(id string) bool {
	el := e.find(id)
	if el == nil || el.Locked || e.gestureActive() {
		return false
	}
	if e.text != nil {
		if e.text.el == el {
			return true
		}
		e.finishText(e.text.el.Text)
	}

	e.clearSelection()
	e.text = &textSession{el: el, original: el.Text}
	e.commit()
	return true
}

// CommitTextEditing stores the edited text. A text box committed empty or
// whitespace-only is removed from the canvas.
func (e *Engine) CommitTextEditing(newText string) {
	if e.text == nil {
		e.violation("CommitTextEditing", "no text edit in progress")
		return
	}
	e.finishText(newText)
	e.commit()
}

// CancelTextEditing restores the pre-edit text. An element whose text was
// empty before the edit is removed instead, whatever its shape.
func (e *Engine) CancelTextEditing() {
	if e.text == nil {
		e.violation("CancelTextEditing", "no text edit in progress")
		return
	}
	s := e.text
	e.text = nil
	if s.original == "" {
		e.removeElement(s.el)
	} else {
		s.el.Text = s.original
	}
	e.commit()
}

// TextEditingElement returns the element currently being edited.
func (e *Engine) TextEditingElement() (document.Element, bool) {
	if e.text == nil {
		return document.Element{}, false
	}
	return *e.text.el, true
}

func (e *Engine) finishText(newText string) {
	el := e.text.el
	e.text = nil
	if el.ShapeType.AutoDeletesWhenEmpty() && strings.TrimSpace(newText) == "" {
		e.removeElement(el)
		return
	}
	el.Text = newText
}
