package document

import (
	"testing"

	"github.com/equipdraw/equipdraw/internal/geometry"
)

func TestShapeType_AutoDeletesWhenEmpty(t *testing.T) {
	tests := []struct {
		shape ShapeType
		want  bool
	}{
		{ShapeTextbox, true},
		{ShapeRectangle, false},
		{ShapeDevice, false},
		{ShapeEquipment, false},
	}
	for _, tt := range tests {
		if got := tt.shape.AutoDeletesWhenEmpty(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.shape, tt.want, got)
		}
	}
}

func TestElement_SetBoundsClampsToMinSize(t *testing.T) {
	var e Element
	e.SetBounds(geometry.Rect{X: 5, Y: 6, Width: 0.2, Height: -3})
	if e.X != 5 || e.Y != 6 {
		t.Errorf("expected origin (5, 6), got (%v, %v)", e.X, e.Y)
	}
	if e.Width != MinSize || e.Height != MinSize {
		t.Errorf("expected %vx%v, got %vx%v", MinSize, MinSize, e.Width, e.Height)
	}
}

func TestCanvas_Normalize(t *testing.T) {
	c := &Canvas{Elements: []Element{{ID: "a", Width: 0, Height: 10, Selected: true}}}
	c.Normalize()

	if c.Viewport.Zoom != 1 {
		t.Errorf("expected zoom 1, got %v", c.Viewport.Zoom)
	}
	if c.Elements[0].Width != MinSize {
		t.Errorf("expected width clamped to %v, got %v", MinSize, c.Elements[0].Width)
	}
	if c.Elements[0].Selected {
		t.Error("expected selection flag to be cleared")
	}
}

func TestNewSampleCanvas_UniqueIDsAndOrdering(t *testing.T) {
	c := NewSampleCanvas("cnv_sample")
	if len(c.Elements) == 0 {
		t.Fatal("expected sample elements")
	}
	seen := map[string]bool{}
	for i, e := range c.Elements {
		if seen[e.ID] {
			t.Errorf("duplicate id %q", e.ID)
		}
		seen[e.ID] = true
		if e.ZIndex != i {
			t.Errorf("expected zIndex %d for %q, got %d", i, e.Text, e.ZIndex)
		}
	}
}
