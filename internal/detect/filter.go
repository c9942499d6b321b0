package detect

import "sort"

// FilterParams bound what counts as a plausible vehicle detection.
type FilterParams struct {
	GSD           float64 // meters per pixel of the coordinate space the boxes live in
	MinAreaM2     float64 // smallest plausible vehicle footprint
	MaxAreaM2     float64 // largest plausible vehicle footprint
	MinAspect     float64 // width/height lower bound
	MaxAspect     float64 // width/height upper bound
	MaxDetections int     // safety cap; exceeding it truncates and flags
}

// Filter removes implausible detections and caps the result.
//
// Rules, in order: drop boxes whose real-world footprint (pixel area scaled
// by GSD²) falls outside the plausible vehicle range; drop boxes whose
// aspect ratio falls outside the plausible band (road markings and shadows
// come out elongated); replace each kept confidence with the mean of its
// contributing tile-level observations; if more than MaxDetections remain,
// keep the top ones by confidence and report truncation.
func Filter(dets []Detection, p FilterParams) (kept []Detection, truncated bool) {
	kept = make([]Detection, 0, len(dets))

	for _, d := range dets {
		w := d.Box.Width()
		h := d.Box.Height()
		if w <= 0 || h <= 0 {
			continue
		}

		areaM2 := d.Box.Area() * p.GSD * p.GSD
		if areaM2 < p.MinAreaM2 || areaM2 > p.MaxAreaM2 {
			continue
		}

		aspect := w / h
		if aspect < p.MinAspect || aspect > p.MaxAspect {
			continue
		}

		if len(d.Contributing) > 0 {
			d.Confidence = Mean(d.Contributing)
		}
		kept = append(kept, d)
	}

	if p.MaxDetections > 0 && len(kept) > p.MaxDetections {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Confidence > kept[j].Confidence
		})
		kept = kept[:p.MaxDetections]
		truncated = true
	}

	return kept, truncated
}
