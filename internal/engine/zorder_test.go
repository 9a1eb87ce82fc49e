package engine_test

import (
	"testing"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/engine"
)

func stacked(zs ...int) *engine.Engine {
	ids := []string{"a", "b", "c", "d", "e"}
	els := make([]document.Element, len(zs))
	for i, z := range zs {
		els[i] = box(ids[i], float64(i*20), 0, 10, 10)
		els[i].ZIndex = z
	}
	return newTestEngine(els...)
}

func zOf(t *testing.T, e *engine.Engine, id string) int {
	t.Helper()
	el, ok := e.Element(id)
	if !ok {
		t.Fatalf("element %q not found", id)
	}
	return el.ZIndex
}

func TestSendToBack_MinMinusOne(t *testing.T) {
	e := stacked(5, 10, 15)
	e.SelectElement("c")
	e.SendToBack()

	if got := zOf(t, e, "c"); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func TestBringToFront_MaxPlusOne(t *testing.T) {
	e := stacked(5, 10, 15)
	e.SelectElement("a")
	e.BringToFront()

	if got := zOf(t, e, "a"); got != 16 {
		t.Errorf("expected 16, got %d", got)
	}
}

func TestBringToFront_MultiKeepsRelativeOrder(t *testing.T) {
	e := stacked(5, 10, 15, 20)
	e.SelectElement("b")
	e.AddToSelection("a")
	e.BringToFront()

	a, b := zOf(t, e, "a"), zOf(t, e, "b")
	if a != 21 || b != 22 {
		t.Errorf("expected a=21 b=22, got a=%d b=%d", a, b)
	}
}

func TestSendToBack_MultiKeepsRelativeOrder(t *testing.T) {
	e := stacked(5, 10, 15, 20)
	e.SelectElement("c")
	e.AddToSelection("d")
	e.SendToBack()

	c, d := zOf(t, e, "c"), zOf(t, e, "d")
	if c != 3 || d != 4 {
		t.Errorf("expected c=3 d=4, got c=%d d=%d", c, d)
	}
}

func TestBringForward_SwapsWithNeighbour(t *testing.T) {
	e := stacked(5, 10, 15)
	e.SelectElement("a")
	e.BringForward()

	if a, b := zOf(t, e, "a"), zOf(t, e, "b"); a != 10 || b != 5 {
		t.Errorf("expected a=10 b=5, got a=%d b=%d", a, b)
	}

	// Already on top: no change.
	e.SelectElement("c")
	e.BringForward()
	if got := zOf(t, e, "c"); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}
}

func TestSendBackward_SwapsWithNeighbour(t *testing.T) {
	e := stacked(5, 10, 15)
	e.SelectElement("c")
	e.SendBackward()

	if b, c := zOf(t, e, "b"), zOf(t, e, "c"); b != 15 || c != 10 {
		t.Errorf("expected b=15 c=10, got b=%d c=%d", b, c)
	}
}

func TestBringForward_TiedValuesNudge(t *testing.T) {
	e := stacked(3, 3)
	e.SelectElement("a")
	e.BringForward()

	if a := zOf(t, e, "a"); a != 4 {
		t.Errorf("expected a to move above the tie, got %d", a)
	}
}

func TestZOrder_LockedUntouched(t *testing.T) {
	e := stacked(5, 10, 15)
	e.SelectElement("a")
	e.LockSelectedElements()

	e.BringToFront()
	e.BringForward()
	if got := zOf(t, e, "a"); got != 5 {
		t.Errorf("expected locked element to keep z 5, got %d", got)
	}
}

func TestZOrder_NoSelectionIsNoOp(t *testing.T) {
	e := stacked(5, 10)
	e.BringToFront()
	e.SendToBack()
	e.BringForward()
	e.SendBackward()

	if zOf(t, e, "a") != 5 || zOf(t, e, "b") != 10 {
		t.Error("expected z-order unchanged")
	}
}

func TestAddElement_StacksOnTop(t *testing.T) {
	e := stacked(5, 10)
	id := e.AddElement(box("", 0, 0, 10, 10))
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if got := zOf(t, e, id); got != 11 {
		t.Errorf("expected 11, got %d", got)
	}
}
