package detector

import (
	"math"
	"sort"

	"github.com/dvocr/dvocr/internal/geometry"
)

// Region is one detected text region: an oriented quadrilateral in original
// image coordinates, plus the detector's confidence for it.
type Region struct {
	Box        geometry.TextBox
	Confidence float64
}

// postprocess turns a raw probability map into scored, unclipped text
// regions in original-image coordinates. scaleX/scaleY map detector-space
// pixels back onto the source image (see resizeForDetection).
func postprocess(prob []float32, w, h int, scaleX, scaleY float64, cfg Config) []Region {
	mask := binarize(prob, w, h, cfg.ProbThresh)
	comps := connectedComponents(mask, w, h)

	comps = filterSmall(comps, cfg.MinPixels)
	sortByCountDesc(comps)
	if len(comps) > cfg.MaxRegions {
		comps = comps[:cfg.MaxRegions]
	}

	regions := make([]Region, 0, len(comps))
	for _, c := range comps {
		region, ok := scoreAndUnclip(c, prob, w, h, scaleX, scaleY, cfg)
		if ok {
			regions = append(regions, region)
		}
	}

	sortReadingOrder(regions)
	return regions
}

func sortByCountDesc(comps []component) {
	sort.Slice(comps, func(i, j int) bool { return len(comps[i].points) > len(comps[j].points) })
}

func filterSmall(comps []component, minPixels int) []component {
	out := comps[:0]
	for _, c := range comps {
		if len(c.points) >= minPixels {
			out = append(out, c)
		}
	}
	return out
}

// scoreAndUnclip builds a hull and minimum-area rectangle from a component's
// pixels, scores the rectangle by mean probability inside it, discards
// low-confidence regions, then unclips the surviving box outward and
// recomputes its minimum-area rectangle before scaling into image space.
func scoreAndUnclip(c component, prob []float32, w, h int, scaleX, scaleY float64, cfg Config) (Region, bool) {
	pts := make([]geometry.Point, len(c.points))
	for i, p := range c.points {
		pts[i] = geometry.Point{X: float64(p.x), Y: float64(p.y)}
	}

	hull := geometry.ConvexHull(pts)
	rect := geometry.MinimumAreaRectangle(hull, true)
	if len(rect) != 4 {
		return Region{}, false
	}

	score := meanProbInside(rect, prob, w, h)
	if score < cfg.BoxThresh {
		return Region{}, false
	}

	unclipped := geometry.UnclipBox(rect, cfg.UnclipRatio)
	if len(unclipped) < 3 {
		return Region{}, false
	}
	finalRect := geometry.MinimumAreaRectangle(unclipped, false)
	if len(finalRect) != 4 {
		return Region{}, false
	}

	if shorterSide(finalRect) < cfg.MinSidePx {
		return Region{}, false
	}

	clamped := geometry.ClampPoints(finalRect, float64(w), float64(h))
	scaled := geometry.ScalePoints(clamped, scaleX, scaleY)
	ordered := geometry.OrderPointsClockwise(scaled)
	tb, ok := geometry.NewTextBox(ordered)
	if !ok {
		return Region{}, false
	}
	return Region{Box: tb, Confidence: score}, true
}

// meanProbInside averages the probability map over the pixels whose centers
// fall inside the oriented rectangle, restricted to the rectangle's
// bounding box for efficiency.
func meanProbInside(rect []geometry.Point, prob []float32, w, h int) float64 {
	if len(rect) != 4 {
		return 0
	}
	var quad [4]geometry.Point
	copy(quad[:], rect)

	bb := geometry.BoundingBox(rect)
	minX := clampInt(int(math.Floor(bb.Left)), 0, w-1)
	maxX := clampInt(int(math.Ceil(bb.Right)), 0, w-1)
	minY := clampInt(int(math.Floor(bb.Top)), 0, h-1)
	maxY := clampInt(int(math.Ceil(bb.Bottom)), 0, h-1)

	var sum float64
	var count int
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !geometry.IsPointInsideQuad(float64(x)+0.5, float64(y)+0.5, quad) {
				continue
			}
			sum += float64(prob[y*w+x])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func shorterSide(rect []geometry.Point) float64 {
	if len(rect) != 4 {
		return 0
	}
	side := func(a, b geometry.Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }
	s1 := side(rect[0], rect[1])
	s2 := side(rect[1], rect[2])
	if s1 < s2 {
		return s1
	}
	return s2
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sortReadingOrder orders regions top-to-bottom, left-to-right: regions
// whose top edges fall within 10px of each other are treated as the same
// line and ordered by left x; lines themselves are ordered by top y.
const lineGroupTolerance = 10.0

func sortReadingOrder(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		topI := minY(regions[i].Box)
		topJ := minY(regions[j].Box)
		if math.Abs(topI-topJ) > lineGroupTolerance {
			return topI < topJ
		}
		return minX(regions[i].Box) < minX(regions[j].Box)
	})
}

func minY(tb geometry.TextBox) float64 {
	m := tb.Points[0].Y
	for _, p := range tb.Points[1:] {
		if p.Y < m {
			m = p.Y
		}
	}
	return m
}

func minX(tb geometry.TextBox) float64 {
	m := tb.Points[0].X
	for _, p := range tb.Points[1:] {
		if p.X < m {
			m = p.X
		}
	}
	return m
}
