package document

import "github.com/equipdraw/equipdraw/internal/geometry"

// MinSize is the smallest width or height an element may have.
const MinSize = 1.0

type ShapeType string

const (
	ShapeRectangle ShapeType = "Rectangle"
	ShapeEllipse   ShapeType = "Ellipse"
	ShapeDiamond   ShapeType = "Diamond"
	ShapeTextbox   ShapeType = "Textbox"

	// Hierarchy nodes: Equipment contains Systems, Systems contain Units,
	// Units contain Devices.
	ShapeEquipment ShapeType = "Equipment"
	ShapeSystem    ShapeType = "System"
	ShapeUnit      ShapeType = "Unit"
	ShapeDevice    ShapeType = "Device"
)

// AutoDeletesWhenEmpty reports whether an element of this kind is removed
// from the canvas once its text is committed empty. Only free-floating text
// boxes behave this way.
func (s ShapeType) AutoDeletesWhenEmpty() bool {
	return s == ShapeTextbox
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	FontSize    float64 `json:"fontSize,omitempty"`
}

// Element is a freeform shape on the diagram canvas.
type Element struct {
	ID        string    `json:"id"`
	ShapeType ShapeType `json:"shapeType"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	ZIndex    int       `json:"zIndex"`
	Text      string    `json:"text"`
	Style     Style     `json:"style"`
	Locked    bool      `json:"locked"`
	Selected  bool      `json:"-"`
}

func (e *Element) Bounds() geometry.Rect {
	return geometry.Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// SetBounds assigns geometry, clamping both dimensions to MinSize.
func (e *Element) SetBounds(r geometry.Rect) {
	e.X = r.X
	e.Y = r.Y
	e.Width = max(r.Width, MinSize)
	e.Height = max(r.Height, MinSize)
}

type Canvas struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	OwnerID   string            `json:"ownerId"`
	Version   int               `json:"version"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
	Viewport  geometry.Viewport `json:"viewport"`
	Elements  []Element         `json:"elements"`
}

// NewEmptyCanvas creates an empty canvas document for a new diagram
func NewEmptyCanvas(canvasID, name, ownerID string) *Canvas {
	return &Canvas{
		ID:        canvasID,
		Name:      name,
		OwnerID:   ownerID,
		Version:   1,
		CreatedAt: "", // Will be set by caller
		UpdatedAt: "",
		Viewport:  geometry.Viewport{Zoom: 1},
		Elements:  []Element{},
	}
}

// Normalize enforces the MinSize invariant on every element and fills in
// a zero zoom. Used on documents coming from outside the engine.
func (c *Canvas) Normalize() {
	if c.Viewport.Zoom <= 0 {
		c.Viewport.Zoom = 1
	}
	if c.Elements == nil {
		c.Elements = []Element{}
	}
	for i := range c.Elements {
		c.Elements[i].SetBounds(c.Elements[i].Bounds())
		c.Elements[i].Selected = false
	}
}
