package ocr

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/dvocr/dvocr/internal/geometry"
)

// warpCrop perspective-warps box out of img into an upright rectangle sized
// by its longer top/bottom edge (width) and longer left/right edge (height),
// then rotates 90 degrees when the result is noticeably taller than wide.
// Returns the crop and whether the 90-degree rotation was applied.
func warpCrop(img image.Image, box geometry.TextBox) (image.Image, bool, error) {
	p := box.Points
	topLen := dist(p[0], p[1])
	bottomLen := dist(p[3], p[2])
	leftLen := dist(p[0], p[3])
	rightLen := dist(p[1], p[2])

	destW := clampDim(math.Max(topLen, bottomLen))
	destH := clampDim(math.Max(leftLen, rightLen))
	w, h := int(math.Round(destW)), int(math.Round(destH))

	dst := [4]geometry.Point{
		{X: 0, Y: 0},
		{X: destW, Y: 0},
		{X: destW, Y: destH},
		{X: 0, Y: destH},
	}
	warped := geometry.PerspectiveWarp(img, p, dst, w, h)

	if destW > 0 && destH/destW >= tallCropRotateThreshold {
		return imaging.Rotate90(warped), true, nil
	}
	return warped, false, nil
}

func dist(a, b geometry.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func clampDim(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > maxWarpDim {
		return maxWarpDim
	}
	return v
}

func aspectRatio(b image.Rectangle) float64 {
	if b.Dy() == 0 {
		return 1
	}
	return float64(b.Dx()) / float64(b.Dy())
}
