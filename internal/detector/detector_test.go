package detector

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvocr/dvocr/internal/geometry"
	"github.com/dvocr/dvocr/internal/mocksession"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

func whiteImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ModelPath = "unused"
	cfg.MaxImageSize = 128 // larger than the 64x64 test image, so no downscale
	cfg.MinSidePx = 1
	cfg.MinPixels = 1
	return cfg
}

func sessionReturning(view onnxsession.TensorView) *mocksession.Session {
	return mocksession.NewFixed([]string{"x"}, []string{"prob"}, []onnxsession.TensorView{view})
}

func TestDetectFindsCenteredBlob(t *testing.T) {
	session := sessionReturning(mocksession.CenteredBlobMap(64, 64, 0.95, 8))
	// A Gaussian blob's mean probability inside its minimum-area rectangle is
	// about 0.52, under the default 0.6 box threshold, so this test lowers it.
	cfg := testConfig()
	cfg.BoxThresh = 0.5
	det := NewWithSession(cfg, session)
	defer det.Close()

	regions, err := det.Detect(context.Background(), whiteImage(64, 64))
	require.NoError(t, err)
	require.NotEmpty(t, regions)
	assert.Greater(t, regions[0].Confidence, 0.0)
}

func TestDetectReturnsNoRegionsForUniformLowMap(t *testing.T) {
	session := sessionReturning(mocksession.UniformMap(64, 64, 0.05))
	det := NewWithSession(testConfig(), session)
	defer det.Close()

	regions, err := det.Detect(context.Background(), whiteImage(64, 64))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestDetectOrdersRegionsInReadingOrder(t *testing.T) {
	// Four horizontal stripes of bright pixels stacked vertically should
	// come back ordered top to bottom.
	session := sessionReturning(mocksession.TextStripeMap(64, 96, 8, 16, 0.95, 0.02))
	det := NewWithSession(testConfig(), session)
	defer det.Close()

	regions, err := det.Detect(context.Background(), whiteImage(64, 96))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(regions), 2)

	for i := 1; i < len(regions); i++ {
		prevTop := minYOf(regions[i-1].Box)
		curTop := minYOf(regions[i].Box)
		assert.LessOrEqual(t, prevTop, curTop+1e-6, "regions should be in top-to-bottom reading order")
	}
}

func TestDetectWithSinkCanStopEarly(t *testing.T) {
	session := sessionReturning(mocksession.TextStripeMap(64, 96, 8, 16, 0.95, 0.02))
	det := NewWithSession(testConfig(), session)
	defer det.Close()

	var seen int
	err := det.DetectWithSink(context.Background(), whiteImage(64, 96), func(Region) bool {
		seen++
		return seen < 1
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestDetectClampsRegionsToImageBounds(t *testing.T) {
	// A blob centered two pixels from the top-left corner unclips (at the
	// default 1.5x ratio) well past x=0 and y=0; the returned box must be
	// clamped into the image instead of carrying negative coordinates.
	session := sessionReturning(cornerBlobMap(64, 64, 0.95, 6))
	det := NewWithSession(testConfig(), session)
	defer det.Close()

	regions, err := det.Detect(context.Background(), whiteImage(64, 64))
	require.NoError(t, err)
	require.NotEmpty(t, regions)

	for _, p := range regions[0].Box.Points {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.X, 64.0)
		assert.LessOrEqual(t, p.Y, 64.0)
	}
}

func cornerBlobMap(w, h int, peak float32, sigma float64) onnxsession.TensorView {
	data := make([]float32, w*h)
	cx, cy := 2.0, 2.0
	inv2s2 := 1.0 / (2.0 * sigma * sigma)
	for y := range h {
		for x := range w {
			dx := float64(x) - cx
			dy := float64(y) - cy
			v := float32(float64(peak) * math.Exp(-(dx*dx+dy*dy)*inv2s2))
			data[y*w+x] = v
		}
	}
	return onnxsession.TensorView{Data: data, Shape: []int64{1, 1, int64(h), int64(w)}}
}

func TestDetectRejectsNilImage(t *testing.T) {
	session := sessionReturning(mocksession.UniformMap(64, 64, 0.5))
	det := NewWithSession(testConfig(), session)
	defer det.Close()

	_, err := det.Detect(context.Background(), nil)
	require.Error(t, err)
}

func minYOf(tb geometry.TextBox) float64 {
	m := tb.Points[0].Y
	for _, p := range tb.Points[1:] {
		if p.Y < m {
			m = p.Y
		}
	}
	return m
}
