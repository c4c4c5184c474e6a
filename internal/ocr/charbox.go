package ocr

import (
	"github.com/dvocr/dvocr/internal/geometry"
	"github.com/dvocr/dvocr/internal/recognizer"
)

// projectCharacterBoxes interpolates each character span along the text
// box's top edge (TL->TR) and bottom edge (BL->BR), producing one oriented
// quadrilateral per character. When rotated is true the span's ratios are
// mirrored first, since the recognized crop's reading direction runs
// opposite the box's original top-edge direction.
func projectCharacterBoxes(box geometry.TextBox, spans []recognizer.CharacterSpan, rotated bool) []CharacterBox {
	p := box.Points
	topStart, topEnd := p[0], p[1]
	bottomStart, bottomEnd := p[3], p[2]

	boxes := make([]CharacterBox, 0, len(spans))
	for _, s := range spans {
		start, end := s.StartRatio, s.EndRatio
		if rotated {
			start, end = 1-s.EndRatio, 1-s.StartRatio
		}
		if end-start < 1e-4 {
			continue
		}

		boxes = append(boxes, CharacterBox{
			Text:       s.Text,
			Confidence: s.Confidence,
			Points: [4]geometry.Point{
				lerpPoint(topStart, topEnd, start),
				lerpPoint(topStart, topEnd, end),
				lerpPoint(bottomStart, bottomEnd, end),
				lerpPoint(bottomStart, bottomEnd, start),
			},
		})
	}
	return boxes
}

func lerpPoint(a, b geometry.Point, t float64) geometry.Point {
	return geometry.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}
