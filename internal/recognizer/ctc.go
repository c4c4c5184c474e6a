package recognizer

import (
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/dvocr/dvocr/internal/dictionary"
)

// decodeCTCGreedy runs CTC greedy decoding over one batch item's [T, V]
// logits (or already-softmaxed probabilities), producing emitted text and
// character spans expressed as fractions of the content region's width.
//
// scale = max(1, packedWidth/contentWidth) maps timestep-space ratios
// (relative to the padded strip) onto the unpadded content region, since
// padding columns contribute no visual signal but still occupy timesteps.
func decodeCTCGreedy(logits []float32, t, v int, dict *dictionary.Dictionary, packedWidth, contentWidth int) Result {
	if t <= 0 || v <= 0 {
		return Result{}
	}

	scale := 1.0
	if contentWidth > 0 {
		scale = math.Max(1.0, float64(packedWidth)/float64(contentWidth))
	}
	minSpan := math.Max(minSpanBase, (1.0/float64(t))*scale)

	type run struct {
		class      int
		start      int
		end        int // exclusive
		probSum    float64
		probCount  int
	}

	var runs []run
	var current *run
	for step := 0; step < t; step++ {
		row := logits[step*v : (step+1)*v]
		idx, _ := argmaxF32(row)
		prob := softmaxProbOfIndex(row, idx)

		if idx == dict.BlankIndex() {
			current = nil
			continue
		}
		if current != nil && current.class == idx {
			current.end = step + 1
			current.probSum += prob
			current.probCount++
			continue
		}
		runs = append(runs, run{class: idx, start: step, end: step + 1, probSum: prob, probCount: 1})
		current = &runs[len(runs)-1]
	}

	spans := make([]CharacterSpan, 0, len(runs))
	var confSum float64
	var sb []byte
	for _, r := range runs {
		token := dict.Token(r.class)
		if token == "" {
			continue
		}

		start := (float64(r.start) / float64(t)) * scale
		end := (float64(r.end) / float64(t)) * scale
		if start < 0 {
			start = 0
		}
		if end > 1 {
			end = 1
		}
		if end-start < minSpan {
			start = end - minSpan
			if start < 0 {
				start = 0
				end = math.Min(1, minSpan)
			}
		}

		confidence := r.probSum / float64(r.probCount)
		spans = append(spans, CharacterSpan{
			Text:       token,
			Confidence: confidence,
			StartRatio: start,
			EndRatio:   end,
		})
		sb = append(sb, token...)
		confSum += confidence
	}

	// NFC-normalize so combining marks carried by non-ASCII dictionary
	// tokens compose predictably regardless of how the dictionary file
	// decomposed them.
	result := Result{Text: norm.NFC.String(string(sb)), Spans: spans}
	if len(spans) > 0 {
		result.Confidence = confSum / float64(len(spans))
	}
	return result
}

func argmaxF32(v []float32) (int, float32) {
	idx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			idx = i
		}
	}
	return idx, maxVal
}

// softmaxProbOfIndex returns the probability mass at v[idx]. If v already
// looks like a probability distribution (sums to ~1, all in [0,1]), it is
// used directly; otherwise a numerically stable softmax is computed.
func softmaxProbOfIndex(v []float32, idx int) float64 {
	if isProbabilityDistribution(v) {
		return float64(v[idx])
	}
	m := v[0]
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - m))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-m)) / denom
}

func isProbabilityDistribution(v []float32) bool {
	var sum float64
	minV, maxV := v[0], v[0]
	for _, x := range v {
		sum += float64(x)
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	return sum > 0.99 && sum < 1.01 && minV >= 0 && maxV <= 1
}
