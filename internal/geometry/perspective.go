package geometry

import (
	"image"
	"image/color"
	"math"
)

// PerspectiveTransform holds the 8 homography coefficients solved by
// ComputePerspectiveTransform, such that for a source point (x, y):
//
//	x' = (a*x + b*y + c) / (g*x + h*y + 1)
//	y' = (d*x + e*y + f) / (g*x + h*y + 1)
type PerspectiveTransform struct {
	A, B, C, D, E, F, G, H float64
	valid                  bool
}

// ComputePerspectiveTransform solves the 8-unknown homography mapping the 4
// src points onto the 4 dst points, via Gaussian elimination with partial
// pivoting on an 8x9 augmented matrix.
func ComputePerspectiveTransform(src, dst [4]Point) PerspectiveTransform {
	// Build the 8x9 augmented matrix for:
	// a*x + b*y + c - g*x*x' - h*y*x' = x'
	// d*x + e*y + f - g*x*y' - h*y*y' = y'
	var m [8][9]float64
	for i := range 4 {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y

		row := 2 * i
		m[row] = [9]float64{x, y, 1, 0, 0, 0, -x * xp, -y * xp, xp}
		m[row+1] = [9]float64{0, 0, 0, x, y, 1, -x * yp, -y * yp, yp}
	}

	coeffs, ok := solveLinearSystem(m)
	if !ok {
		return PerspectiveTransform{}
	}
	return PerspectiveTransform{
		A: coeffs[0], B: coeffs[1], C: coeffs[2],
		D: coeffs[3], E: coeffs[4], F: coeffs[5],
		G: coeffs[6], H: coeffs[7],
		valid: true,
	}
}

// solveLinearSystem performs Gaussian elimination with partial pivoting on
// an 8x9 augmented matrix, returning the 8 unknowns.
func solveLinearSystem(m [8][9]float64) ([8]float64, bool) {
	const n = 8
	for col := range n {
		pivot := col
		best := math.Abs(m[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(m[r][col]); v > best {
				pivot = r
				best = v
			}
		}
		if best < 1e-12 {
			return [8]float64{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		pivotVal := m[col][col]
		for c := col; c < n+1; c++ {
			m[col][c] /= pivotVal
		}
		for r := range n {
			if r == col {
				continue
			}
			factor := m[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n+1; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}
	var out [8]float64
	for i := range n {
		out[i] = m[i][n]
	}
	return out, true
}

// Apply maps a source point through the homography.
func (t PerspectiveTransform) Apply(p Point) (Point, bool) {
	if !t.valid {
		return Point{}, false
	}
	denom := t.G*p.X + t.H*p.Y + 1
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	x := (t.A*p.X + t.B*p.Y + t.C) / denom
	y := (t.D*p.X + t.E*p.Y + t.F) / denom
	return Point{X: x, Y: y}, true
}

// Invert computes the inverse homography by solving the same system with
// src and dst swapped.
func Invert(srcPts, dstPts [4]Point) PerspectiveTransform {
	return ComputePerspectiveTransform(dstPts, srcPts)
}

// PerspectiveWarp samples `src` through the inverse of the homography that
// maps srcPts onto dstPts, producing a destination image of size (w, h).
// Destination pixels are filled by inverting the forward transform (mapping
// dst -> src) and bilinear-sampling src; pixels whose source falls outside
// src's bounds are left transparent. The 4 immediate neighbors must all be
// in-bounds for bilinear sampling; otherwise nearest-neighbor is used at the
// edge.
func PerspectiveWarp(src image.Image, srcPts, dstPts [4]Point, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return out
	}
	inv := ComputePerspectiveTransform(dstPts, srcPts)
	if !inv.valid {
		return out
	}

	bounds := src.Bounds()
	for y := range h {
		for x := range w {
			sp, ok := inv.Apply(Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			if !ok {
				continue
			}
			c, ok := sampleBilinear(src, bounds, sp.X, sp.Y)
			if !ok {
				continue
			}
			out.Set(x, y, c)
		}
	}
	return out
}

// sampleBilinear samples src at floating point coordinates (x, y), using
// bilinear interpolation when all 4 neighbors are in-bounds, nearest
// neighbor at the edge, and reports false when the sample falls entirely
// outside the image.
func sampleBilinear(src image.Image, bounds image.Rectangle, x, y float64) (color.Color, bool) {
	// Convert to pixel-center-relative coordinates.
	fx := x - 0.5
	fy := y - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := x0 + 1
	y1 := y0 + 1

	inBounds := func(px, py int) bool {
		return px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y
	}

	if !inBounds(x0, y0) && !inBounds(x1, y0) && !inBounds(x0, y1) && !inBounds(x1, y1) {
		return nil, false
	}

	if inBounds(x0, y0) && inBounds(x1, y0) && inBounds(x0, y1) && inBounds(x1, y1) {
		tx := fx - float64(x0)
		ty := fy - float64(y0)
		return bilerp(src, x0, y0, x1, y1, tx, ty), true
	}

	// Nearest neighbor at the edge.
	nx := clampInt(int(math.Round(x-0.5)), bounds.Min.X, bounds.Max.X-1)
	ny := clampInt(int(math.Round(y-0.5)), bounds.Min.Y, bounds.Max.Y-1)
	return src.At(nx, ny), true
}

func bilerp(src image.Image, x0, y0, x1, y1 int, tx, ty float64) color.Color {
	c00 := src.At(x0, y0)
	c10 := src.At(x1, y0)
	c01 := src.At(x0, y1)
	c11 := src.At(x1, y1)

	r00, g00, b00, a00 := c00.RGBA()
	r10, g10, b10, a10 := c10.RGBA()
	r01, g01, b01, a01 := c01.RGBA()
	r11, g11, b11, a11 := c11.RGBA()

	lerp := func(a, b uint32, t float64) float64 { return float64(a) + (float64(b)-float64(a))*t }

	r0 := lerp(r00, r10, tx)
	r1 := lerp(r01, r11, tx)
	r := lerp(uint32(r0), uint32(r1), ty)

	g0 := lerp(g00, g10, tx)
	g1 := lerp(g01, g11, tx)
	g := lerp(uint32(g0), uint32(g1), ty)

	b0 := lerp(b00, b10, tx)
	b1 := lerp(b01, b11, tx)
	b := lerp(uint32(b0), uint32(b1), ty)

	a0 := lerp(a00, a10, tx)
	a1 := lerp(a01, a11, tx)
	a := lerp(uint32(a0), uint32(a1), ty)

	return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: uint16(a)}
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
