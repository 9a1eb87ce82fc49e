package engine

import (
	"cmp"
	"slices"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/geometry"
)

// clipEntry is one copied element and its offset from the first copied one.
type clipEntry struct {
	offset  geometry.Point
	element document.Element
}

// CopyToClipboard snapshots the selection, replacing the previous clipboard.
// It returns the number of elements copied.
func (e *Engine) CopyToClipboard() int {
	if len(e.selection) == 0 {
		return 0
	}
	e.clipboard, e.clipboardAnchor = snapshot(e.selection)
	return len(e.clipboard)
}

// ClipboardSize is the number of elements waiting to be pasted.
func (e *Engine) ClipboardSize() int { return len(e.clipboard) }

// PasteFromClipboard creates fresh copies of the clipboard at the paste
// offset, keeping their relative layout, and makes them the selection.
// It returns the new ids.
func (e *Engine) PasteFromClipboard() []string {
	if len(e.clipboard) == 0 || e.selectionFrozen() {
		return nil
	}
	return e.materialize(e.clipboard, e.clipboardAnchor.Add(e.pasteOffset))
}

// Duplicate copies the live selection at the paste offset without touching
// the clipboard. It returns the new ids.
func (e *Engine) Duplicate() []string {
	if len(e.selection) == 0 || e.selectionFrozen() {
		return nil
	}
	entries, anchor := snapshot(e.selection)
	return e.materialize(entries, anchor.Add(e.pasteOffset))
}

func snapshot(els []*document.Element) ([]clipEntry, geometry.Point) {
	anchor := geometry.Pt(els[0].X, els[0].Y)
	entries := make([]clipEntry, len(els))
	for i, el := range els {
		c := *el
		c.Selected = false
		entries[i] = clipEntry{
			offset:  geometry.Pt(el.X, el.Y).Sub(anchor),
			element: c,
		}
	}
	return entries, anchor
}

// materialize adds one new element per entry at origin+offset, stacked above
// everything while keeping the entries' relative z-order.
func (e *Engine) materialize(entries []clipEntry, origin geometry.Point) []string {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(entries[a].element.ZIndex, entries[b].element.ZIndex)
	})

	z := e.nextZ()
	created := make([]*document.Element, len(entries))
	for _, i := range order {
		el := entries[i].element
		el.ID = e.newID()
		el.X = origin.X + entries[i].offset.X
		el.Y = origin.Y + entries[i].offset.Y
		el.ZIndex = z
		el.Locked = false
		z++

		e.elements = append(e.elements, &el)
		created[i] = &el
	}

	// Select in clipboard order so the first copied element stays first.
	e.clearSelection()
	ids := make([]string, len(created))
	for i, el := range created {
		e.addSelected(el)
		ids[i] = el.ID
	}

	e.commit()
	return ids
}
