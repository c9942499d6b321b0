package raster

import (
	"fmt"

	"parkscan/internal/geo"
)

// Tile is a sub-rectangle of a raster, identified by its pixel offset and
// size. Adjacent tiles share an overlap margin so that no object smaller
// than the margin is split across tiles without appearing whole in at
// least one of them.
type Tile struct {
	X0 int
	Y0 int
	W  int
	H  int
}

// Tiles partitions a width x height raster into overlapping tileSize tiles
// with the given margin. Every pixel is covered by at least one tile;
// horizontally or vertically adjacent tiles overlap by exactly margin
// pixels, except that the last tile of each row and column is clipped to
// the raster boundary instead of padded. A raster no larger than one tile
// yields exactly one tile.
func Tiles(width, height, tileW, tileH, margin int) ([]Tile, error) {
	if tileW <= 0 || tileH <= 0 {
		return nil, fmt.Errorf("%w: tile size %dx%d must be positive", geo.ErrInvalidGeometry, tileW, tileH)
	}
	if margin < 0 || margin >= tileW || margin >= tileH {
		return nil, fmt.Errorf("%w: overlap margin %d must be in [0, min(%d, %d))", geo.ErrInvalidGeometry, margin, tileW, tileH)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: raster size %dx%d must be positive", geo.ErrInvalidGeometry, width, height)
	}

	stepX := tileW - margin
	stepY := tileH - margin

	tiles := make([]Tile, 0)
	for y0 := 0; ; y0 += stepY {
		h := min(tileH, height-y0)
		for x0 := 0; ; x0 += stepX {
			w := min(tileW, width-x0)
			tiles = append(tiles, Tile{X0: x0, Y0: y0, W: w, H: h})
			if x0+tileW >= width {
				break
			}
		}
		if y0+tileH >= height {
			break
		}
	}

	return tiles, nil
}
