package geometry

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPointsClockwiseStartsTopLeft(t *testing.T) {
	square := []Point{{X: 10, Y: 10}, {X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	ordered := OrderPointsClockwise(square)
	require.Len(t, ordered, 4)
	assert.Equal(t, Point{X: 0, Y: 0}, ordered[0], "first point should be top-left")
	// Clockwise in image coordinates (y down): TL, TR, BR, BL.
	assert.Equal(t, Point{X: 10, Y: 0}, ordered[1])
	assert.Equal(t, Point{X: 10, Y: 10}, ordered[2])
	assert.Equal(t, Point{X: 0, Y: 10}, ordered[3])
}

func TestOrderPointsClockwiseIsInvariantToStartingPoint(t *testing.T) {
	base := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	rotated := []Point{{X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}, {X: 10, Y: 0}}
	assert.Equal(t, OrderPointsClockwise(base), OrderPointsClockwise(rotated))
}

func TestConvexHullDropsInteriorPoints(t *testing.T) {
	pts := []Point{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
		{X: 2, Y: 2}, // interior, must not appear in hull
	}
	hull := ConvexHull(pts)
	for _, p := range hull {
		assert.NotEqual(t, Point{X: 2, Y: 2}, p)
	}
	assert.GreaterOrEqual(t, len(hull), 3)
}

func TestMinimumAreaRectangleAxisAlignedSquare(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	rect := MinimumAreaRectangle(pts, true)
	require.Len(t, rect, 4)
	area := PolygonArea(rect)
	assert.InDelta(t, 100.0, area, 1e-6)
}

func TestUnclipBoxExpandsArea(t *testing.T) {
	box := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	expanded := UnclipBox(box, 1.5)
	require.NotEmpty(t, expanded)
	assert.Greater(t, math.Abs(PolygonArea(expanded)), math.Abs(PolygonArea(box)))
}

func TestIsPointInsideQuad(t *testing.T) {
	quad := [4]Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.True(t, IsPointInsideQuad(5, 5, quad))
	assert.False(t, IsPointInsideQuad(15, 5, quad))
}

func TestPerspectiveTransformRoundTrip(t *testing.T) {
	src := [4]Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}}
	dst := [4]Point{{X: 5, Y: 5}, {X: 105, Y: 10}, {X: 95, Y: 55}, {X: 2, Y: 50}}

	forward := ComputePerspectiveTransform(src, dst)
	inverse := Invert(src, dst)

	for _, p := range src {
		mapped, ok := forward.Apply(p)
		require.True(t, ok)
		back, ok := inverse.Apply(mapped)
		require.True(t, ok)
		assert.InDelta(t, p.X, back.X, 1e-6)
		assert.InDelta(t, p.Y, back.Y, 1e-6)
	}
}

func TestPerspectiveWarpProducesRequestedDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 0, A: 255})
		}
	}
	src := [4]Point{{X: 0, Y: 0}, {X: 19, Y: 0}, {X: 19, Y: 19}, {X: 0, Y: 19}}
	dst := [4]Point{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}}
	warped := PerspectiveWarp(img, src, dst, 10, 10)
	require.NotNil(t, warped)
	assert.Equal(t, 10, warped.Bounds().Dx())
	assert.Equal(t, 10, warped.Bounds().Dy())
}
