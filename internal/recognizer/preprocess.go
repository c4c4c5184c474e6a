package recognizer

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/dvocr/dvocr/internal/tensor"
)

// batchPlan groups the caller's original crop indices into consecutive
// ascending-aspect-ratio groups of at most batchSize, preserving reference
// back to the original request order.
type batchPlan struct {
	// originalIndex[i] is this group's i-th crop's index in the caller's
	// input slice.
	originalIndex []int
	ratios        []float64
}

// planBatches sorts crops by width/height ascending and slices the result
// into groups of at most batchSize, so padding within a batch stays small.
func planBatches(crops []image.Image) []batchPlan {
	type entry struct {
		index int
		ratio float64
	}
	entries := make([]entry, len(crops))
	for i, img := range crops {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		ratio := 1.0
		if h > 0 {
			ratio = float64(w) / float64(h)
		}
		entries[i] = entry{index: i, ratio: ratio}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ratio < entries[j].ratio })

	var plans []batchPlan
	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		group := entries[start:end]
		plan := batchPlan{
			originalIndex: make([]int, len(group)),
			ratios:        make([]float64, len(group)),
		}
		for i, e := range group {
			plan.originalIndex[i] = e.index
			plan.ratios[i] = e.ratio
		}
		plans = append(plans, plan)
	}
	return plans
}

// packedWidthFor returns the shared packed width for a batch of aspect
// ratios, per the width-packing rule: widest-in-batch (or the 320/48
// baseline, whichever is larger) determines how wide every member of the
// batch is padded to.
func packedWidthFor(ratios []float64) int {
	maxRatio := baseWhRatio
	for _, r := range ratios {
		if r > maxRatio {
			maxRatio = r
		}
	}
	w := int(math.Ceil(recHeight * maxRatio))
	if w < 1 {
		w = 1
	}
	if w > maxPackedW {
		w = maxPackedW
	}
	return w
}

// packBatch resizes each crop in the batch to height 48 at its own aspect
// ratio (clamped to packedWidth), pads the remainder with black, and packs
// the result into a single NCHW tensor. Returns the tensor data alongside
// each image's content width in pixels (the unpadded resized width).
func packBatch(crops []image.Image, originalIndex []int, packedWidth int) ([]float32, []int, error) {
	n := len(originalIndex)
	data := make([]float32, n*3*recHeight*packedWidth)
	contentWidths := make([]int, n)
	params := tensor.Params{
		Order: tensor.BGR,
		Mean:  [3]float32{0.5, 0.5, 0.5},
		Std:   [3]float32{0.5, 0.5, 0.5},
	}

	for i, origIdx := range originalIndex {
		img := crops[origIdx]
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		ratio := 1.0
		if h > 0 {
			ratio = float64(w) / float64(h)
		}
		contentWidth := int(math.Ceil(recHeight * ratio))
		if contentWidth < 1 {
			contentWidth = 1
		}
		if contentWidth > packedWidth {
			contentWidth = packedWidth
		}
		contentWidths[i] = contentWidth

		resized := imaging.Resize(img, contentWidth, recHeight, imaging.Lanczos)
		canvas := image.Image(resized)
		if contentWidth != packedWidth {
			padded := imaging.New(packedWidth, recHeight, color.Black)
			canvas = imaging.Paste(padded, resized, image.Pt(0, 0))
		}

		offset := i * 3 * recHeight * packedWidth
		if err := tensor.PackCHW(canvas, data, offset, packedWidth, recHeight, params); err != nil {
			return nil, nil, err
		}
	}
	return data, contentWidths, nil
}
