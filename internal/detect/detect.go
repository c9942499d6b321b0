// Package detect implements the detection half of the pipeline: invoking a
// vehicle detector per tile, remapping tile-local boxes into mosaic
// coordinates, cross-tile non-maximum suppression and plausibility filtering.
package detect

import (
	"context"
	"image"
)

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Width returns the box width in pixels.
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the box height in pixels.
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// IoU returns the intersection-over-union overlap with another box.
func (b Box) IoU(o Box) float64 {
	x1 := max(b.X1, o.X1)
	y1 := max(b.Y1, o.Y1)
	x2 := min(b.X2, o.X2)
	y2 := min(b.Y2, o.Y2)

	iw := x2 - x1
	ih := y2 - y1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	intersection := iw * ih
	union := b.Area() + o.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// Detection is one detected vehicle. Coordinates are tile-local as returned
// by a Detector and mosaic-global after remapping.
type Detection struct {
	Box        Box
	Confidence float64
	Class      string

	// Contributing holds the confidence of every tile-level observation
	// merged into this detection by cross-tile suppression. Empty until
	// the detection has passed through Suppress.
	Contributing []float64
}

// Detector is the seam to the external detection model. Implementations take
// the pixel data of one tile and return detections in tile-local coordinates.
// An empty result is valid and carries no error.
type Detector interface {
	Detect(ctx context.Context, tile image.Image, confidence float64) ([]Detection, error)
}
