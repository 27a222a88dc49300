// Package geom provides the planar geometry shared by the circuit model,
// the renderers and the exporters: points, sizes, bounding boxes and exact
// quarter-turn rotations.
package geom

import "math"

// Point is a position or offset in canvas units. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size holds the width and height of a component body.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// BoundingBox represents a rectangular boundary.
type BoundingBox struct {
	Min Point // top-left
	Max Point // bottom-right
}

// NewBoundingBox creates an empty bounding box that grows with Expand.
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Point{X: 1e9, Y: 1e9},
		Max: Point{X: -1e9, Y: -1e9},
	}
}

// RectAround returns the box of the given size centered on c.
func RectAround(c Point, s Size) BoundingBox {
	return BoundingBox{
		Min: Point{X: c.X - s.W/2, Y: c.Y - s.H/2},
		Max: Point{X: c.X + s.W/2, Y: c.Y + s.H/2},
	}
}

// IsEmpty reports whether nothing has been added to the box.
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand grows the box to include p.
func (bb *BoundingBox) Expand(p Point) {
	bb.Min.X = math.Min(bb.Min.X, p.X)
	bb.Min.Y = math.Min(bb.Min.Y, p.Y)
	bb.Max.X = math.Max(bb.Max.X, p.X)
	bb.Max.Y = math.Max(bb.Max.Y, p.Y)
}

// ExpandBox grows the box to include other.
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if other.IsEmpty() {
		return
	}
	bb.Expand(other.Min)
	bb.Expand(other.Max)
}

// Inset shrinks (or, for negative d, grows) the box on every side.
func (bb BoundingBox) Inset(d float64) BoundingBox {
	return BoundingBox{
		Min: Point{X: bb.Min.X + d, Y: bb.Min.Y + d},
		Max: Point{X: bb.Max.X - d, Y: bb.Max.Y - d},
	}
}

func (bb BoundingBox) Width() float64  { return bb.Max.X - bb.Min.X }
func (bb BoundingBox) Height() float64 { return bb.Max.Y - bb.Min.Y }

// Center returns the center point of the bounding box.
func (bb BoundingBox) Center() Point {
	return Point{X: (bb.Min.X + bb.Max.X) / 2, Y: (bb.Min.Y + bb.Max.Y) / 2}
}

// Contains checks if p is within the bounding box, edges included.
func (bb BoundingBox) Contains(p Point) bool {
	return p.X >= bb.Min.X && p.X <= bb.Max.X &&
		p.Y >= bb.Min.Y && p.Y <= bb.Max.Y
}

// Intersects checks if two bounding boxes overlap.
func (bb BoundingBox) Intersects(other BoundingBox) bool {
	return bb.Min.X <= other.Max.X && bb.Max.X >= other.Min.X &&
		bb.Min.Y <= other.Max.Y && bb.Max.Y >= other.Min.Y
}
