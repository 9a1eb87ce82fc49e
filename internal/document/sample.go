package document

import (
	"time"

	"github.com/equipdraw/equipdraw/internal/geometry"
	"github.com/equipdraw/equipdraw/internal/typeid"
)

// NewSampleCanvas returns a small Equipment→System→Unit→Device diagram with
// a free text annotation, used by the playground and the wasm host.
func NewSampleCanvas(canvasID string) *Canvas {
	now := time.Now().UTC().Format(time.RFC3339)

	box := func(kind ShapeType, text string, x, y, w, h float64, z int, fill string) Element {
		return Element{
			ID:        typeid.NewElementID(),
			ShapeType: kind,
			X:         x,
			Y:         y,
			Width:     w,
			Height:    h,
			ZIndex:    z,
			Text:      text,
			Style: Style{
				Fill:        fill,
				Stroke:      "#1f2937",
				StrokeWidth: 1,
				FontSize:    14,
			},
		}
	}

	return &Canvas{
		ID:        canvasID,
		Name:      "Sample equipment",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Viewport:  geometry.Viewport{Zoom: 1},
		Elements: []Element{
			box(ShapeEquipment, "Radar Set AN-1", 40, 40, 720, 420, 0, "#eef2ff"),
			box(ShapeSystem, "Transmitter", 70, 100, 320, 320, 1, "#e0f2fe"),
			box(ShapeSystem, "Receiver", 410, 100, 320, 320, 2, "#dcfce7"),
			box(ShapeUnit, "Power Amplifier", 90, 160, 280, 110, 3, "#fef9c3"),
			box(ShapeDevice, "TWT", 110, 200, 110, 50, 4, "#ffffff"),
			box(ShapeDevice, "HV Supply", 240, 200, 110, 50, 5, "#ffffff"),
			box(ShapeUnit, "IF Strip", 430, 160, 280, 110, 6, "#fef9c3"),
			box(ShapeTextbox, "Serials pending", 430, 300, 160, 30, 7, ""),
		},
	}
}
