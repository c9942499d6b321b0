// Package raster models an in-memory aerial mosaic and its partitioning into
// overlapping detector tiles.
package raster

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Raster is a fetched aerial mosaic with its geo metadata. Immutable once
// fetched for a given zoom level.
type Raster struct {
	Image        image.Image
	GSD          float64    // ground-sample-distance, meters per pixel
	GeoTransform [6]float64 // pixel -> lon/lat affine transform
	Zoom         int        // tile zoom the mosaic was assembled at

	// LowResolution is set when the GSD still exceeds the configured maximum
	// after zoom escalation. The region is processed anyway with a forced low
	// confidence level.
	LowResolution bool
}

// Width returns the mosaic width in pixels.
func (r *Raster) Width() int {
	return r.Image.Bounds().Dx()
}

// Height returns the mosaic height in pixels.
func (r *Raster) Height() int {
	return r.Image.Bounds().Dy()
}

// Crop returns the pixel data of one tile.
func (r *Raster) Crop(t Tile) image.Image {
	return imaging.Crop(r.Image, image.Rect(t.X0, t.Y0, t.X0+t.W, t.Y0+t.H))
}

// Upscale returns a copy of the raster resampled by an integer factor.
// Small mosaics are upscaled before detection so vehicles cover enough
// pixels for the model; detections are mapped back by dividing by the
// same factor.
func (r *Raster) Upscale(factor int) *Raster {
	if factor <= 1 {
		return r
	}

	resized := transform.Resize(r.Image, r.Width()*factor, r.Height()*factor, transform.CatmullRom)

	gt := r.GeoTransform
	gt[1] /= float64(factor)
	gt[2] /= float64(factor)
	gt[4] /= float64(factor)
	gt[5] /= float64(factor)

	return &Raster{
		Image:         resized,
		GSD:           r.GSD / float64(factor),
		GeoTransform:  gt,
		Zoom:          r.Zoom,
		LowResolution: r.LowResolution,
	}
}
