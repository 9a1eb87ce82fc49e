package geometry

import "math"

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// Apply transforms a point.
func (m Matrix2D) Apply(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// ApplyRect transforms a rectangle and returns its axis-aligned bounding box.
func (m Matrix2D) ApplyRect(r Rect) Rect {
	p0 := m.Apply(Point{X: r.X, Y: r.Y})
	p1 := m.Apply(Point{X: r.Right(), Y: r.Y})
	p2 := m.Apply(Point{X: r.Right(), Y: r.Bottom()})
	p3 := m.Apply(Point{X: r.X, Y: r.Bottom()})

	minX := min(p0.X, p1.X, p2.X, p3.X)
	minY := min(p0.Y, p1.Y, p2.Y, p3.Y)
	maxX := max(p0.X, p1.X, p2.X, p3.X)
	maxY := max(p0.Y, p1.Y, p2.Y, p3.Y)

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Determinant returns the determinant of the matrix.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}

// Viewport is the visible window onto the infinite canvas: a scroll offset in
// screen pixels and a zoom factor.
type Viewport struct {
	Scroll Point   `json:"scroll"`
	Zoom   float64 `json:"zoom"`
}

// CanvasToScreen returns the matrix mapping canvas space to screen space:
// Translate(-scroll) * Scale(zoom).
func (v Viewport) CanvasToScreen() Matrix2D {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return Translate(-v.Scroll.X, -v.Scroll.Y).Multiply(Scale(zoom, zoom))
}

// ToCanvas converts a screen point into canvas space.
func (v Viewport) ToCanvas(p Point) Point {
	return v.CanvasToScreen().Invert().Apply(p)
}

// ToScreen converts a canvas point into screen space.
func (v Viewport) ToScreen(p Point) Point {
	return v.CanvasToScreen().Apply(p)
}
