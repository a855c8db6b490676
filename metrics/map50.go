package metrics

import "sort"

// MatchThreshold is the IoU at which a prediction counts as a true positive.
const MatchThreshold = 0.5

// AP50 computes single-class average precision at IoU 0.5.
//
// preds and truth are keyed by item identifier. Predictions are matched
// greedily in descending confidence order, at most one prediction per
// ground-truth box; AP is the area under the monotone precision envelope of
// the resulting precision-recall curve. No ground truth at all yields 0.
func AP50(preds map[string][]Detection, truth map[string][]Box) float64 {
	totalTruth := 0
	for _, boxes := range truth {
		totalTruth += len(boxes)
	}
	if totalTruth == 0 {
		return 0
	}

	type scored struct {
		id  string
		det Detection
	}
	var all []scored
	for id, dets := range preds {
		for _, d := range dets {
			all = append(all, scored{id: id, det: d})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].det.Score != all[j].det.Score {
			return all[i].det.Score > all[j].det.Score
		}
		return all[i].id < all[j].id
	})

	claimed := make(map[string][]bool, len(truth))
	for id, boxes := range truth {
		claimed[id] = make([]bool, len(boxes))
	}

	tp := make([]int, len(all))
	running := 0
	for i, s := range all {
		boxes := truth[s.id]
		taken := claimed[s.id]
		best := -1
		bestIoU := float32(MatchThreshold)
		for j, gt := range boxes {
			if taken[j] {
				continue
			}
			if iou := s.det.Box.IoU(gt); iou >= bestIoU {
				bestIoU = iou
				best = j
			}
		}
		if best >= 0 {
			taken[best] = true
			running++
		}
		tp[i] = running
	}

	if len(all) == 0 {
		return 0
	}

	precision := make([]float64, len(all))
	recall := make([]float64, len(all))
	for i := range all {
		precision[i] = float64(tp[i]) / float64(i+1)
		recall[i] = float64(tp[i]) / float64(totalTruth)
	}
	// Monotone envelope from the right.
	for i := len(precision) - 2; i >= 0; i-- {
		if precision[i] < precision[i+1] {
			precision[i] = precision[i+1]
		}
	}

	ap := 0.0
	prev := 0.0
	for i := range all {
		ap += (recall[i] - prev) * precision[i]
		prev = recall[i]
	}
	return ap
}
