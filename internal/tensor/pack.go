// Package tensor packs decoded images into the row-major CHW float32 layout
// ONNX Runtime expects, with configurable per-channel mean/std normalization
// and channel ordering.
package tensor

import (
	"errors"
	"image"

	"github.com/dvocr/dvocr/internal/ocrerrors"
)

// ChannelOrder selects which image channel is written to tensor channel 0.
type ChannelOrder int

const (
	// RGB writes red to channel 0, green to channel 1, blue to channel 2.
	RGB ChannelOrder = iota
	// BGR writes blue to channel 0, green to channel 1, red to channel 2.
	BGR
)

// Params configures how pixels are normalized before they are written into
// the tensor buffer. Mean and Std are applied per channel, in the tensor's
// channel order (index 0 is whatever Order puts first), as:
//
//	out = (pixel/255 - Mean[c]) / Std[c]
type Params struct {
	Order ChannelOrder
	Mean  [3]float32
	Std   [3]float32
}

// DefaultParams matches the recognizer/classifier convention in this
// pipeline: BGR order, (v/255 - 0.5) / 0.5 per channel.
func DefaultParams() Params {
	return Params{
		Order: BGR,
		Mean:  [3]float32{0.5, 0.5, 0.5},
		Std:   [3]float32{0.5, 0.5, 0.5},
	}
}

// PackCHW writes img into buf at the given element offset, in CHW order
// (channel-major, then row, then column), for a tensor region of C=3,
// height x width. buf must have capacity for at least offset+3*height*width
// elements; PackCHW does not grow it. Returns an ArgumentError if img is nil
// or the buffer is too small.
func PackCHW(img image.Image, buf []float32, offset int, width, height int, p Params) error {
	if img == nil {
		return ocrerrors.NewArgumentError("pack_chw", errors.New("nil image"))
	}
	needed := offset + 3*width*height
	if len(buf) < needed {
		return ocrerrors.NewArgumentError("pack_chw", errors.New("buffer too small for requested tensor region"))
	}

	bounds := img.Bounds()
	plane := width * height

	var ch [3]int
	switch p.Order {
	case BGR:
		ch = [3]int{2, 1, 0}
	default:
		ch = [3]int{0, 1, 2}
	}

	for y := range height {
		for x := range width {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rf := float32(r>>8) / 255.0
			gf := float32(g>>8) / 255.0
			bf := float32(b>>8) / 255.0

			idx := y*width + x
			rf = (rf - p.Mean[ch[0]]) / p.Std[ch[0]]
			gf = (gf - p.Mean[ch[1]]) / p.Std[ch[1]]
			bf = (bf - p.Mean[ch[2]]) / p.Std[ch[2]]

			buf[offset+ch[0]*plane+idx] = rf
			buf[offset+ch[1]*plane+idx] = gf
			buf[offset+ch[2]*plane+idx] = bf
		}
	}
	return nil
}

// NewCHW allocates a fresh buffer and packs a single image of size width x
// height into it, returning the buffer; Shape4D builds its NCHW shape.
func NewCHW(img image.Image, width, height int, p Params) ([]float32, error) {
	buf := make([]float32, 3*width*height)
	if err := PackCHW(img, buf, 0, width, height, p); err != nil {
		return nil, err
	}
	return buf, nil
}

// Shape4D returns the NCHW int64 shape ONNX Runtime tensors expect.
func Shape4D(n, c, h, w int) []int64 {
	return []int64{int64(n), int64(c), int64(h), int64(w)}
}
