package detect

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	rtreeDimensions  = 2

	// Zero-extent boxes still need a valid index rectangle.
	minRectSide = 1e-9
)

// nmsItem wraps a detection index to implement rtreego.Spatial.
type nmsItem struct {
	idx  int
	rect *rtreego.Rect
}

func (it *nmsItem) Bounds() *rtreego.Rect {
	return it.rect
}

// Suppress performs global non-maximum suppression over detections from all
// tiles. Detections are stable-sorted by confidence descending (original
// order breaks ties, so the result is deterministic for a given input set);
// the highest-confidence box of each overlap cluster is kept and every
// remaining same-class box whose IoU with it exceeds iouThreshold is
// suppressed into it. The kept box keeps the maximum observed confidence
// and accumulates the suppressed confidences in Contributing; averaging
// happens later, in the filter stage.
//
// Running Suppress on its own output returns the same set: no two kept
// same-class boxes overlap above the threshold.
func Suppress(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) == 0 {
		return nil
	}

	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dets[order[a]].Confidence > dets[order[b]].Confidence
	})

	// Index every box so overlap candidates are found without an O(n²) scan.
	tree := rtreego.NewTree(rtreeDimensions, rtreeMinChildren, rtreeMaxChildren)
	for i, d := range dets {
		tree.Insert(&nmsItem{idx: i, rect: boxRect(d.Box)})
	}

	suppressed := make([]bool, len(dets))
	kept := make([]Detection, 0, len(dets))

	for _, i := range order {
		if suppressed[i] {
			continue
		}
		suppressed[i] = true

		keep := dets[i]
		if len(keep.Contributing) == 0 {
			keep.Contributing = []float64{keep.Confidence}
		}

		candidates := tree.SearchIntersect(boxRect(keep.Box))
		neighbors := make([]int, 0, len(candidates))
		for _, c := range candidates {
			neighbors = append(neighbors, c.(*nmsItem).idx)
		}
		// The spatial index returns candidates in tree order; visit them in
		// confidence order so Contributing is deterministic.
		sort.SliceStable(neighbors, func(a, b int) bool {
			return dets[neighbors[a]].Confidence > dets[neighbors[b]].Confidence
		})

		for _, j := range neighbors {
			if suppressed[j] || dets[j].Class != keep.Class {
				continue
			}
			if keep.Box.IoU(dets[j].Box) > iouThreshold {
				suppressed[j] = true
				keep.Contributing = append(keep.Contributing, dets[j].Confidence)
			}
		}

		kept = append(kept, keep)
	}

	return kept
}

func boxRect(b Box) *rtreego.Rect {
	w := b.Width()
	if w < minRectSide {
		w = minRectSide
	}
	h := b.Height()
	if h < minRectSide {
		h = minRectSide
	}
	rect, err := rtreego.NewRect(rtreego.Point{b.X1, b.Y1}, []float64{w, h})
	if err != nil {
		// Only reachable with NaN coordinates; fall back to a point rect at
		// the origin so the detection still participates in suppression.
		rect, _ = rtreego.NewRect(rtreego.Point{0, 0}, []float64{minRectSide, minRectSide})
	}
	return rect
}
