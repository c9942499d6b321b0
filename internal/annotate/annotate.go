// Package annotate renders detection overlays on aerial mosaics for visual
// inspection of a run.
package annotate

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"parkscan/internal/detect"
)

const boxThickness = 2

// Draw returns a copy of the mosaic with one rectangle per detection. Box
// color encodes confidence: red at 0 through yellow to green at 1.
func Draw(img image.Image, dets []detect.Detection) *image.NRGBA {
	out := imaging.Clone(img)
	for _, d := range dets {
		drawRect(out, d.Box, confidenceColor(d.Confidence))
	}
	return out
}

// Save writes an annotated mosaic to path; the format follows the extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save annotated image: %w", err)
	}
	return nil
}

func confidenceColor(conf float64) colorful.Color {
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	// Hue 0 (red) to 120 (green).
	return colorful.Hsv(120*conf, 1, 1)
}

func drawRect(img *image.NRGBA, b detect.Box, c colorful.Color) {
	r, g, bl := c.RGB255()
	bounds := img.Bounds()

	x1, y1 := int(b.X1), int(b.Y1)
	x2, y2 := int(b.X2), int(b.Y2)

	set := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			i := img.PixOffset(x, y)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = bl
			img.Pix[i+3] = 0xff
		}
	}

	for t := 0; t < boxThickness; t++ {
		for x := x1; x <= x2; x++ {
			set(x, y1+t)
			set(x, y2-t)
		}
		for y := y1; y <= y2; y++ {
			set(x1+t, y)
			set(x2-t, y)
		}
	}
}
