package detector

import "github.com/dvocr/dvocr/internal/mempool"

// component accumulates the pixel coordinates belonging to one connected
// region of the binarized probability map.
type component struct {
	points []point
}

type point struct{ x, y int }

var neighborOffsets = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// binarize thresholds the probability map into a boolean mask, pooling the
// backing buffer since this runs once per detector call on a hot path.
func binarize(prob []float32, w, h int, thresh float32) []bool {
	mask := mempool.GetBool(w * h)
	for i, p := range prob {
		mask[i] = p >= thresh
	}
	return mask
}

// connectedComponents traces 8-connected regions of the mask using an
// iterative (explicit-stack) DFS, avoiding recursion depth limits on large
// text blobs.
func connectedComponents(mask []bool, w, h int) []component {
	visited := mempool.GetBool(w * h)
	defer mempool.PutBool(visited)

	var comps []component
	stack := make([]point, 0, 256)

	for y := range h {
		for x := range w {
			idx := y*w + x
			if !mask[idx] || visited[idx] {
				continue
			}

			stack = stack[:0]
			stack = append(stack, point{x, y})
			visited[idx] = true
			var comp component

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				comp.points = append(comp.points, p)

				for _, off := range neighborOffsets {
					nx, ny := p.x+off[0], p.y+off[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if !mask[ni] || visited[ni] {
						continue
					}
					visited[ni] = true
					stack = append(stack, point{nx, ny})
				}
			}
			comps = append(comps, comp)
		}
	}
	return comps
}
