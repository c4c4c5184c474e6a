// Package geometry provides the numeric primitives the detection and
// recognition pipelines share: points, oriented quadrilaterals, convex
// hulls, minimum-area rectangles, polygon offsetting and perspective
// transforms. All routines are value-in value-out and degrade to empty
// results on malformed input rather than panicking, so a single bad region
// cannot abort an otherwise successful pipeline run.
package geometry

import "math"

// Point is a 2-D coordinate in original-image pixels.
type Point struct {
	X float64
	Y float64
}

// Box is an axis-aligned bounding box in float coordinates.
type Box struct {
	Left, Top, Right, Bottom float64
}

// NewBox builds a Box from two opposite corners, normalizing ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{Left: x1, Top: y1, Right: x2, Bottom: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.Right - b.Left }

// Height returns the box height.
func (b Box) Height() float64 { return b.Bottom - b.Top }

// BoundingBox returns the axis-aligned bounding box of a point set.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{Left: minX, Top: minY, Right: maxX, Bottom: maxY}
}

// ScalePoints scales every point by (sx, sy).
func ScalePoints(pts []Point, sx, sy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// ClampPoints clamps every point into [0, maxX] x [0, maxY].
func ClampPoints(pts []Point, maxX, maxY float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: clamp(p.X, 0, maxX), Y: clamp(p.Y, 0, maxY)}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// signedArea2 returns twice the signed area of a polygon (positive for CCW).
func signedArea2(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum
}

// Perimeter returns the perimeter of a closed polygon.
func Perimeter(pts []Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var p float64
	for i := range n {
		j := (i + 1) % n
		p += math.Hypot(pts[j].X-pts[i].X, pts[j].Y-pts[i].Y)
	}
	return p
}

// PolygonArea returns the unsigned area of a closed polygon.
func PolygonArea(pts []Point) float64 {
	return math.Abs(signedArea2(pts)) / 2
}
