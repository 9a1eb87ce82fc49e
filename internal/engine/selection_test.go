package engine_test

import (
	"slices"
	"testing"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/engine"
	"github.com/equipdraw/equipdraw/internal/geometry"
)

func locked(el document.Element) document.Element {
	el.Locked = true
	return el
}

func selectedIDs(e *engine.Engine) []string {
	var ids []string
	for _, el := range e.SelectedElements() {
		ids = append(ids, el.ID)
	}
	return ids
}

// ───────────────────────────────────────────────────────────────
// Mode mapping
// ───────────────────────────────────────────────────────────────

func TestModeFollowsSelectionCount(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10), box("c", 40, 0, 10, 10))

	steps := []struct {
		name  string
		do    func()
		count int
		mode  engine.EditMode
	}{
		{"initial", func() {}, 0, engine.ModeNone},
		{"select a", func() { e.SelectElement("a") }, 1, engine.ModeSelected},
		{"add b", func() { e.AddToSelection("b") }, 2, engine.ModeMultiSelected},
		{"add c", func() { e.AddToSelection("c") }, 3, engine.ModeMultiSelected},
		{"toggle b", func() { e.ToggleSelection("b") }, 2, engine.ModeMultiSelected},
		{"toggle c", func() { e.ToggleSelection("c") }, 1, engine.ModeSelected},
		{"clear", func() { e.ClearAllSelections() }, 0, engine.ModeNone},
	}
	for _, s := range steps {
		s.do()
		if got := e.SelectionCount(); got != s.count {
			t.Errorf("%s: expected count %d, got %d", s.name, s.count, got)
		}
		if got := e.Mode(); got != s.mode {
			t.Errorf("%s: expected mode %s, got %s", s.name, s.mode, got)
		}
		if got := e.IsMultiSelectionMode(); got != (s.count >= 2) {
			t.Errorf("%s: expected multi=%v, got %v", s.name, s.count >= 2, got)
		}
	}
}

// ───────────────────────────────────────────────────────────────
// Select / add / toggle
// ───────────────────────────────────────────────────────────────

func TestSelectElement_ReplacesSelection(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	e.SelectElement("a")
	e.SelectElement("b")

	if got := selectedIDs(e); !slices.Equal(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}
	a, _ := e.Element("a")
	if a.Selected {
		t.Error("expected a to be deselected")
	}
}

func TestSelectElement_IgnoresLockedAndUnknown(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), locked(box("b", 20, 0, 10, 10)))
	e.SelectElement("a")
	e.SelectElement("b")
	e.SelectElement("nope")
	e.SelectElement("")

	if got := selectedIDs(e); !slices.Equal(got, []string{"a"}) {
		t.Errorf("expected [a], got %v", got)
	}
}

func TestAddToSelection_IsIdempotent(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	e.AddToSelection("a")
	e.AddToSelection("b")
	e.AddToSelection("a")
	e.AddToSelection("b")

	if got := selectedIDs(e); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestAddToSelection_IgnoresLockedAndUnknown(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), locked(box("b", 20, 0, 10, 10)))
	e.AddToSelection("a")
	e.AddToSelection("b")
	e.AddToSelection("")
	e.AddToSelection("ghost")

	if got := e.SelectionCount(); got != 1 {
		t.Errorf("expected 1 selected, got %d", got)
	}
}

func TestToggleSelection_RoundTrip(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	e.SelectElement("a")
	before := selectedIDs(e)

	e.ToggleSelection("b")
	if got := selectedIDs(e); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
	e.ToggleSelection("b")

	if got := selectedIDs(e); !slices.Equal(got, before) {
		t.Errorf("expected %v after double toggle, got %v", before, got)
	}
}

func TestToggleSelection_RemovesLockedMember(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	e.SelectElement("a")
	e.AddToSelection("b")
	e.LockSelectedElements()

	e.ToggleSelection("b")
	if got := selectedIDs(e); !slices.Equal(got, []string{"a"}) {
		t.Errorf("expected [a], got %v", got)
	}
	// Locked and unselected: cannot be toggled back in.
	e.ToggleSelection("b")
	if got := selectedIDs(e); !slices.Equal(got, []string{"a"}) {
		t.Errorf("expected [a], got %v", got)
	}
}

func TestSelectedElement_IsMostRecent(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	if _, ok := e.SelectedElement(); ok {
		t.Error("expected no primary selection")
	}
	e.AddToSelection("a")
	e.AddToSelection("b")

	el, ok := e.SelectedElement()
	if !ok || el.ID != "b" {
		t.Errorf("expected primary b, got %q (ok=%v)", el.ID, ok)
	}
}

func TestSelectionFrozenDuringGesture(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	e.SelectElement("a")
	e.StartMove(geometry.Pt(5, 5))

	e.AddToSelection("b")
	e.ClearAllSelections()
	if got := selectedIDs(e); !slices.Equal(got, []string{"a"}) {
		t.Errorf("expected selection frozen at [a], got %v", got)
	}

	e.EndMove()
	e.AddToSelection("b")
	if got := e.SelectionCount(); got != 2 {
		t.Errorf("expected 2 after gesture ended, got %d", got)
	}
}

func TestSelectionSuspendedWhileTextEditing(t *testing.T) {
	e := newTestEngine(textbox("a", "x"), box("b", 20, 0, 10, 10), box("c", 40, 0, 10, 10))
	e.SelectElement("b")
	e.CopyToClipboard()
	if !e.TryStartTextEditing("a") {
		t.Fatal("expected text edit to start")
	}

	e.SelectElement("b")
	e.AddToSelection("c")
	e.ToggleSelection("c")
	if ids := e.PasteFromClipboard(); ids != nil {
		t.Errorf("expected paste refused while editing, got %v", ids)
	}
	if e.StartRubberbandSelection(geometry.Pt(0, 0)) {
		t.Error("expected rubberband refused while editing")
	}
	if e.SelectionCount() != 0 || e.Mode() != engine.ModeTextEditing {
		t.Errorf("expected no selection in %s, got %d in %s", engine.ModeTextEditing, e.SelectionCount(), e.Mode())
	}
	for _, el := range e.Elements() {
		if el.Selected {
			t.Errorf("expected %s not flagged selected during edit", el.ID)
		}
	}

	e.CommitTextEditing("x")
	e.SelectElement("b")
	if e.SelectionCount() != 1 {
		t.Errorf("expected selection to resume after the edit, got %d", e.SelectionCount())
	}
}

func TestSelectionSuspendedWhilePanning(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	e.SetTool(engine.ToolPan)
	if !e.StartPan(geometry.Pt(0, 0), 1) {
		t.Fatal("expected pan to start")
	}

	e.SelectElement("a")
	e.AddToSelection("b")
	if e.SelectionCount() != 0 || e.Mode() != engine.ModePanning {
		t.Errorf("expected no selection in %s, got %d in %s", engine.ModePanning, e.SelectionCount(), e.Mode())
	}

	e.EndPan()
	e.SelectElement("a")
	e.AddToSelection("b")
	if e.SelectionCount() != 2 {
		t.Errorf("expected 2 after pan ended, got %d", e.SelectionCount())
	}
}

// ───────────────────────────────────────────────────────────────
// Group bounds
// ───────────────────────────────────────────────────────────────

func TestGroupBounds(t *testing.T) {
	e := newTestEngine(box("a", 10, 10, 20, 20), box("b", 50, 0, 10, 100))
	if _, ok := e.GroupBounds(); ok {
		t.Error("expected no group bounds for empty selection")
	}

	e.SelectElement("a")
	gb, ok := e.GroupBounds()
	if !ok || gb != (geometry.Rect{X: 10, Y: 10, Width: 20, Height: 20}) {
		t.Errorf("single: got %+v (ok=%v)", gb, ok)
	}

	e.AddToSelection("b")
	gb, _ = e.GroupBounds()
	if gb != (geometry.Rect{X: 10, Y: 0, Width: 50, Height: 100}) {
		t.Errorf("multi: got %+v", gb)
	}
}

func TestComputeGroupBounds_Empty(t *testing.T) {
	if _, ok := engine.ComputeGroupBounds(nil); ok {
		t.Error("expected ok=false for no elements")
	}
}

// ───────────────────────────────────────────────────────────────
// Delete / lock
// ───────────────────────────────────────────────────────────────

func TestDeleteSelected_RemovesOnlySelection(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), locked(box("b", 20, 0, 10, 10)), box("c", 40, 0, 10, 10))
	e.SelectElement("c")
	e.AddToSelection("a")

	if n := e.DeleteSelected(); n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if _, ok := e.Element("b"); !ok {
		t.Error("expected unselected b to survive")
	}
	if got := len(e.Elements()); got != 1 {
		t.Errorf("expected 1 element left, got %d", got)
	}
	if e.SelectionCount() != 0 || e.Mode() != engine.ModeNone {
		t.Errorf("expected empty selection and None, got %d / %s", e.SelectionCount(), e.Mode())
	}
}

func TestDeleteSelected_KeepsLockedSelectedElement(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	e.SelectElement("a")
	e.AddToSelection("b")
	e.ToggleSelection("a")
	e.LockSelectedElements() // b locked while selected
	e.AddToSelection("a")

	if n := e.DeleteSelected(); n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if _, ok := e.Element("b"); !ok {
		t.Error("expected locked b to remain on the canvas")
	}
	if _, ok := e.Element("a"); ok {
		t.Error("expected a to be removed")
	}
}

func TestLockUnlock(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10), box("b", 20, 0, 10, 10))
	if e.IsAllSelectedLocked() {
		t.Error("expected false for empty selection")
	}

	e.SelectElement("a")
	e.AddToSelection("b")
	e.LockSelectedElements()
	if !e.IsAllSelectedLocked() {
		t.Error("expected all selected locked")
	}
	if e.SelectionCount() != 2 {
		t.Errorf("expected membership unchanged, got %d", e.SelectionCount())
	}

	e.ToggleSelection("b")
	e.UnlockSelectedElements()
	if e.IsAllSelectedLocked() {
		t.Error("expected a unlocked")
	}
	b, _ := e.Element("b")
	if !b.Locked {
		t.Error("expected b to stay locked")
	}
}

// ───────────────────────────────────────────────────────────────
// Rubberband
// ───────────────────────────────────────────────────────────────

func TestRubberband_SelectsIntersectingUnlocked(t *testing.T) {
	e := newTestEngine(
		box("a", 0, 0, 10, 10),
		locked(box("b", 20, 0, 10, 10)),
		box("c", 40, 0, 10, 10),
		box("far", 500, 500, 10, 10),
	)
	e.SelectElement("far")

	e.StartRubberbandSelection(geometry.Pt(45, 5))
	e.UpdateRubberbandSelection(geometry.Pt(5, 20))
	r, ok := e.RubberbandRect()
	if !ok || r != (geometry.Rect{X: 5, Y: 5, Width: 40, Height: 15}) {
		t.Errorf("expected normalized marquee, got %+v (ok=%v)", r, ok)
	}
	if e.SelectionCount() != 1 {
		t.Error("expected selection untouched until finish")
	}
	e.FinishRubberbandSelection()

	if got := selectedIDs(e); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", got)
	}
	if _, ok := e.RubberbandRect(); ok {
		t.Error("expected marquee cleared")
	}
}

func TestRubberband_EmptyResultClearsSelection(t *testing.T) {
	e := newTestEngine(box("a", 0, 0, 10, 10))
	e.SelectElement("a")
	e.StartRubberbandSelection(geometry.Pt(100, 100))
	e.UpdateRubberbandSelection(geometry.Pt(200, 200))
	e.FinishRubberbandSelection()

	if e.SelectionCount() != 0 || e.Mode() != engine.ModeNone {
		t.Errorf("expected empty selection, got %d / %s", e.SelectionCount(), e.Mode())
	}
}

func TestElementAt_ReturnsTopmost(t *testing.T) {
	low := box("low", 0, 0, 100, 100)
	high := box("high", 50, 50, 100, 100)
	high.ZIndex = 3
	e := newTestEngine(high, low)

	el, ok := e.ElementAt(geometry.Pt(75, 75))
	if !ok || el.ID != "high" {
		t.Errorf("expected high, got %q (ok=%v)", el.ID, ok)
	}
	el, ok = e.ElementAt(geometry.Pt(10, 10))
	if !ok || el.ID != "low" {
		t.Errorf("expected low, got %q (ok=%v)", el.ID, ok)
	}
	if _, ok := e.ElementAt(geometry.Pt(-5, -5)); ok {
		t.Error("expected miss outside every element")
	}
}
