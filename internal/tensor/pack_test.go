package tensor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPackCHWChannelOrderBGR(t *testing.T) {
	// Pure red pixel, no normalization, so channel 0 should carry whichever
	// source channel BGR maps to position 0: blue.
	img := solidImage(2, 2, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	params := Params{Order: BGR, Mean: [3]float32{0, 0, 0}, Std: [3]float32{1, 1, 1}}

	buf, err := NewCHW(img, 2, 2, params)
	require.NoError(t, err)

	plane := 2 * 2
	assert.InDelta(t, 0.0, buf[0*plane], 1e-6, "BGR channel 0 (blue) should be 0 for a pure red pixel")
	assert.InDelta(t, 0.0, buf[1*plane], 1e-6, "BGR channel 1 (green) should be 0")
	assert.InDelta(t, 1.0, buf[2*plane], 1e-6, "BGR channel 2 (red) should be 1 for a pure red pixel")
}

func TestPackCHWNormalization(t *testing.T) {
	img := solidImage(1, 1, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	params := Params{Order: RGB, Mean: [3]float32{0.5, 0.5, 0.5}, Std: [3]float32{0.5, 0.5, 0.5}}
	buf, err := NewCHW(img, 1, 1, params)
	require.NoError(t, err)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 0.003921, float64(buf[c]), 1e-3)
	}
}

func TestPackCHWRejectsUndersizedBuffer(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{A: 255})
	buf := make([]float32, 3)
	err := PackCHW(img, buf, 0, 4, 4, DefaultParams())
	require.Error(t, err)
}

func TestPackCHWRejectsNilImage(t *testing.T) {
	buf := make([]float32, 12)
	err := PackCHW(nil, buf, 0, 2, 2, DefaultParams())
	require.Error(t, err)
}

func TestShape4D(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 48, 192}, Shape4D(1, 3, 48, 192))
}
