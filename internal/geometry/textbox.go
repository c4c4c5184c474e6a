package geometry

import "math"

// TextBox is an oriented quadrilateral: exactly 4 points, clockwise from
// top-left. The ordering invariant is restored whenever the box is rebuilt
// via NewTextBox or OrderPointsClockwise.
type TextBox struct {
	Points [4]Point
}

// NewTextBox builds a TextBox from 4 points, reordering them clockwise
// starting at the top-left corner.
func NewTextBox(pts []Point) (TextBox, bool) {
	if len(pts) != 4 {
		return TextBox{}, false
	}
	ordered := OrderPointsClockwise(pts)
	var tb TextBox
	copy(tb.Points[:], ordered)
	return tb, true
}

// Rect is the axis-aligned bounding box derived from a TextBox.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// ToRect returns the axis-aligned bounding rectangle of a TextBox.
func (tb TextBox) ToRect() Rect {
	b := BoundingBox(tb.Points[:])
	return Rect{Left: b.Left, Top: b.Top, Right: b.Right, Bottom: b.Bottom}
}

// OrderPointsClockwise orders exactly 4 points clockwise, starting from the
// point with minimum x+y ("top-left"). Inputs of any other length are
// returned unchanged.
func OrderPointsClockwise(points []Point) []Point {
	if len(points) != 4 {
		return points
	}

	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4

	type ptAngle struct {
		p     Point
		angle float64
	}
	withAngle := make([]ptAngle, 4)
	for i, p := range points {
		withAngle[i] = ptAngle{p: p, angle: math.Atan2(p.Y-cy, p.X-cx)}
	}
	// Insertion sort by angle ascending (n=4, stability doesn't matter).
	for i := 1; i < len(withAngle); i++ {
		v := withAngle[i]
		j := i - 1
		for j >= 0 && withAngle[j].angle > v.angle {
			withAngle[j+1] = withAngle[j]
			j--
		}
		withAngle[j+1] = v
	}

	ordered := make([]Point, 4)
	for i, pa := range withAngle {
		ordered[i] = pa.p
	}

	// Find the top-left point (minimum x+y) and rotate the cyclic list so
	// it becomes index 0.
	tlIdx := 0
	best := ordered[0].X + ordered[0].Y
	for i := 1; i < 4; i++ {
		s := ordered[i].X + ordered[i].Y
		if s < best {
			best = s
			tlIdx = i
		}
	}

	out := make([]Point, 4)
	for i := range 4 {
		out[i] = ordered[(tlIdx+i)%4]
	}
	return out
}

// IsPointInsideQuad reports whether (x, y) lies inside or on the oriented
// quadrilateral quad, using the sign of the cross product along every edge.
func IsPointInsideQuad(x, y float64, quad [4]Point) bool {
	var sign int
	for i := range 4 {
		a := quad[i]
		b := quad[(i+1)%4]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if cross == 0 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}
