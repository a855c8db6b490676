package detect

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/artbench/go-peopleart/metrics"
)

// decodeOutput turns the raw [4+classes, anchors] model output into
// detections in original-image pixel space. Row layout: cx, cy, w, h in
// input pixels, then one score row per class.
func decodeOutput(out []float32, classes, anchors int, lb letterbox, confidence float32) []metrics.Detection {
	if len(out) < (4+classes)*anchors {
		return nil
	}

	dets := make([]metrics.Detection, 0, 64)
	for i := 0; i < anchors; i++ {
		best := 0
		score := float32(0)
		for c := 0; c < classes; c++ {
			if s := out[(4+c)*anchors+i]; s > score {
				score = s
				best = c
			}
		}
		if score < confidence {
			continue
		}

		cx := out[i]
		cy := out[anchors+i]
		w := out[2*anchors+i]
		h := out[3*anchors+i]

		x1 := (cx - w/2 - float32(lb.padX)) / lb.scale
		y1 := (cy - h/2 - float32(lb.padY)) / lb.scale
		x2 := (cx + w/2 - float32(lb.padX)) / lb.scale
		y2 := (cy + h/2 - float32(lb.padY)) / lb.scale

		dets = append(dets, metrics.Detection{
			Box: metrics.Box{
				X1: math32.Max(0, math32.Min(x1, float32(lb.srcW))),
				Y1: math32.Max(0, math32.Min(y1, float32(lb.srcH))),
				X2: math32.Max(0, math32.Min(x2, float32(lb.srcW))),
				Y2: math32.Max(0, math32.Min(y2, float32(lb.srcH))),
			},
			Score: score,
			Class: best,
		})
	}
	return dets
}

// greedyNMS suppresses overlapping same-class detections, keeping the
// highest-scoring box of each cluster.
func greedyNMS(dets []metrics.Detection, iouThreshold float32) []metrics.Detection {
	n := len(dets)
	if n == 0 {
		return nil
	}

	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Score > dets[j].Score
	})

	kept := make([]metrics.Detection, 0, n)
	used := make([]bool, n)
	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		anchor := dets[i]
		kept = append(kept, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] || dets[j].Class != anchor.Class {
				continue
			}
			if anchor.Box.IoU(dets[j].Box) > iouThreshold {
				used[j] = true
			}
		}
	}
	return kept
}
