package geometry

import "math"

// MinimumAreaRectangle computes the minimum-area enclosing rectangle of a
// point set, equivalent to rotating calipers over the convex hull. When
// pointsAreConvex is true the input is assumed to already be a convex hull
// (the caller's responsibility) and is used directly, skipping the hull
// computation. Falls back to the axis-aligned bounding box when no hull
// edge yields a rectangle whose width and height both exceed 1e-3.
// Returns 4 points in clockwise order (via OrderPointsClockwise), or nil
// for degenerate input.
func MinimumAreaRectangle(points []Point, pointsAreConvex bool) []Point {
	if len(points) == 0 {
		return nil
	}
	hull := points
	if !pointsAreConvex {
		hull = ConvexHull(points)
	}
	if len(hull) < 3 {
		bb := BoundingBox(points)
		return axisAlignedQuad(bb)
	}

	const minSide = 1e-3
	bestArea := math.Inf(1)
	var best []Point

	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length
		vx, vy := -uy, ux

		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			minS = math.Min(minS, s)
			maxS = math.Max(maxS, s)
			minT = math.Min(minT, t)
			maxT = math.Max(maxT, t)
		}
		w := maxS - minS
		h := maxT - minT
		if w <= minSide || h <= minSide {
			continue
		}
		area := w * h
		if area < bestArea {
			bestArea = area
			best = []Point{
				{X: ux*minS + vx*minT, Y: uy*minS + vy*minT},
				{X: ux*maxS + vx*minT, Y: uy*maxS + vy*minT},
				{X: ux*maxS + vx*maxT, Y: uy*maxS + vy*maxT},
				{X: ux*minS + vx*maxT, Y: uy*minS + vy*maxT},
			}
		}
	}

	if best == nil {
		bb := BoundingBox(hull)
		return axisAlignedQuad(bb)
	}
	return OrderPointsClockwise(best)
}

func axisAlignedQuad(b Box) []Point {
	if b.Width() <= 0 || b.Height() <= 0 {
		return nil
	}
	return OrderPointsClockwise([]Point{
		{X: b.Left, Y: b.Top},
		{X: b.Right, Y: b.Top},
		{X: b.Right, Y: b.Bottom},
		{X: b.Left, Y: b.Bottom},
	})
}
