package detector

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/dvocr/dvocr/internal/ocrerrors"
	"github.com/dvocr/dvocr/internal/tensor"
)

// resizeForDetection scales img down (never up) so its longest side fits
// maxSize, then rounds both dimensions down to a multiple of 32 so the
// detector's stride-32 backbone sees a compatible input. Returns the
// resized image along with the scale factors needed to map detector-space
// coordinates back onto the original image.
func resizeForDetection(img image.Image, maxSize int) (image.Image, float64, float64, error) {
	if img == nil {
		return nil, 0, 0, ocrerrors.NewArgumentError("detector.resize", errors.New("nil image"))
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, ocrerrors.NewArgumentError("detector.resize", errors.New("image has zero area"))
	}

	scale := math.Min(float64(maxSize)/float64(width), float64(maxSize)/float64(height))
	if scale > 1.0 {
		scale = 1.0
	}

	newWidth := roundToMultipleOf32(int(float64(width) * scale))
	newHeight := roundToMultipleOf32(int(float64(height) * scale))
	if newWidth < 32 {
		newWidth = 32
	}
	if newHeight < 32 {
		newHeight = 32
	}

	resized := imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	scaleX := float64(width) / float64(newWidth)
	scaleY := float64(height) / float64(newHeight)
	return resized, scaleX, scaleY, nil
}

func roundToMultipleOf32(v int) int {
	return (v / 32) * 32
}

// packInput normalizes and packs the resized image into an NCHW tensor
// using ImageNet-style per-channel statistics, the convention the detection
// backbone was trained with.
func packInput(img image.Image) ([]float32, int, int, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	params := tensor.Params{
		Order: tensor.BGR,
		Mean:  [3]float32{0.485, 0.456, 0.406},
		Std:   [3]float32{0.229, 0.224, 0.225},
	}
	data, err := tensor.NewCHW(img, w, h, params)
	if err != nil {
		return nil, 0, 0, err
	}
	return data, w, h, nil
}
