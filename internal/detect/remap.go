package detect

// Remap translates tile-local detections into mosaic coordinates by adding
// the tile's pixel offset. Confidence, class and relative ordering are
// preserved; the input slice is not modified.
func Remap(dets []Detection, x0, y0 int) []Detection {
	if len(dets) == 0 {
		return nil
	}

	dx := float64(x0)
	dy := float64(y0)

	out := make([]Detection, len(dets))
	for i, d := range dets {
		d.Box.X1 += dx
		d.Box.Y1 += dy
		d.Box.X2 += dx
		d.Box.Y2 += dy
		out[i] = d
	}
	return out
}

// Downscale divides all box coordinates by factor, mapping detections made
// on an upscaled mosaic back into the original pixel space.
func Downscale(dets []Detection, factor int) []Detection {
	if factor <= 1 || len(dets) == 0 {
		return dets
	}

	f := float64(factor)
	out := make([]Detection, len(dets))
	for i, d := range dets {
		d.Box.X1 /= f
		d.Box.Y1 /= f
		d.Box.X2 /= f
		d.Box.Y2 /= f
		out[i] = d
	}
	return out
}
