package geometry

import "math"

// OffsetPolygon performs a Clipper-style outward offset: for every vertex,
// the two adjacent edges are offset by `offset` along their outward normal
// and the new vertex is their intersection. The outward direction is
// determined from the polygon's signed area (orientation). Parallel edges
// degrade to returning the original vertex unchanged for that corner.
func OffsetPolygon(polygon []Point, offset float64) []Point {
	n := len(polygon)
	if n < 3 {
		return append([]Point(nil), polygon...)
	}

	orientation := 1.0
	if signedArea2(polygon) < 0 {
		orientation = -1.0
	}

	out := make([]Point, n)
	for i := range n {
		prev := polygon[(i-1+n)%n]
		cur := polygon[i]
		next := polygon[(i+1)%n]

		tPrev, okPrev := unitTangent(prev, cur)
		tNext, okNext := unitTangent(cur, next)

		if !okPrev || !okNext {
			out[i] = cur
			continue
		}

		nPrev := outwardNormal(tPrev, orientation)
		nNext := outwardNormal(tNext, orientation)

		// Line 1: point (prev + offset*nPrev) direction tPrev, through cur's incoming edge.
		p1 := Point{X: prev.X + offset*nPrev.X, Y: prev.Y + offset*nPrev.Y}
		p2 := Point{X: cur.X + offset*nPrev.X, Y: cur.Y + offset*nPrev.Y}
		p3 := Point{X: cur.X + offset*nNext.X, Y: cur.Y + offset*nNext.Y}
		p4 := Point{X: next.X + offset*nNext.X, Y: next.Y + offset*nNext.Y}

		if ip, ok := lineIntersect(p1, p2, p3, p4); ok {
			out[i] = ip
		} else {
			out[i] = cur
		}
	}
	return out
}

func unitTangent(a, b Point) (Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Point{}, false
	}
	return Point{X: dx / length, Y: dy / length}, true
}

// outwardNormal rotates a tangent 90 degrees, choosing the sign so it points
// away from the polygon interior given its orientation.
func outwardNormal(t Point, orientation float64) Point {
	if orientation >= 0 {
		return Point{X: t.Y, Y: -t.X}
	}
	return Point{X: -t.Y, Y: t.X}
}

// lineIntersect finds the intersection of line (p1,p2) and line (p3,p4).
// Returns ok=false for parallel (or near-parallel) lines.
func lineIntersect(p1, p2, p3, p4 Point) (Point, bool) {
	d1x, d1y := p2.X-p1.X, p2.Y-p1.Y
	d2x, d2y := p4.X-p3.X, p4.Y-p3.Y
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	t := ((p3.X-p1.X)*d2y - (p3.Y-p1.Y)*d2x) / denom
	return Point{X: p1.X + t*d1x, Y: p1.Y + t*d1y}, true
}

// UnclipBox expands a quadrilateral outward by offset = |area|*ratio/perimeter,
// the standard DB "unclip" step used to recover the text extent shrunk by the
// detection training target. Zero perimeter returns an empty slice; zero
// resulting offset returns the polygon unchanged.
func UnclipBox(box []Point, ratio float64) []Point {
	if len(box) < 3 {
		return nil
	}
	perimeter := Perimeter(box)
	if perimeter == 0 {
		return nil
	}
	area := PolygonArea(box)
	offset := area * ratio / perimeter
	if offset == 0 {
		return append([]Point(nil), box...)
	}
	return OffsetPolygon(box, offset)
}
