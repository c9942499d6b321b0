// Package imagery assembles aerial mosaics from an XYZ tile provider and
// enforces the minimum ground-resolution contract before detection runs.
package imagery

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // tile decoders
	_ "image/png"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"parkscan/internal/geo"
	"parkscan/internal/raster"
)

const (
	tileSizePx     = 256
	fetchUserAgent = "parkscan/1.0 (parking capacity estimation)"
)

// Fetcher downloads map tiles from an XYZ provider and pastes them into one
// mosaic per region.
type Fetcher struct {
	urlTemplate string // contains {z}, {x} and {y} placeholders
	client      *http.Client
}

// NewFetcher returns a fetcher for the given XYZ URL template.
func NewFetcher(urlTemplate string) *Fetcher {
	return &Fetcher{
		urlTemplate: urlTemplate,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Mosaic fetches all tiles covering the bounding box at one zoom level and
// assembles them into a raster with its GSD and geotransform.
func (f *Fetcher) Mosaic(ctx context.Context, box geo.BBox, zoom int) (*raster.Raster, error) {
	nwX, nwY := geo.TileXY(box.West, box.North, zoom)
	seX, seY := geo.TileXY(box.East, box.South, zoom)

	tx0, ty0 := int(math.Floor(nwX)), int(math.Floor(nwY))
	tx1, ty1 := int(math.Floor(seX)), int(math.Floor(seY))
	if tx1 < tx0 || ty1 < ty0 {
		return nil, fmt.Errorf("empty tile range for bbox %+v at zoom %d", box, zoom)
	}

	cols := tx1 - tx0 + 1
	rows := ty1 - ty0 + 1
	mosaic := imaging.New(cols*tileSizePx, rows*tileSizePx, color.NRGBA{})

	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			tile, err := f.fetchTile(ctx, zoom, tx, ty)
			if err != nil {
				return nil, fmt.Errorf("fetch tile %d/%d/%d: %w", zoom, tx, ty, err)
			}
			mosaic = imaging.Paste(mosaic, tile, image.Pt((tx-tx0)*tileSizePx, (ty-ty0)*tileSizePx))
		}
	}

	// Affine transform anchored at the mosaic's NW corner. Longitude per
	// pixel is exact; latitude per pixel is linearized over the mosaic
	// extent, accurate enough at parking-lot scale.
	lonNW, latNW := geo.TileLonLat(float64(tx0), float64(ty0), zoom)
	lonSE, latSE := geo.TileLonLat(float64(tx1+1), float64(ty1+1), zoom)
	widthPx := float64(cols * tileSizePx)
	heightPx := float64(rows * tileSizePx)

	centerLat := (latNW + latSE) / 2
	return &raster.Raster{
		Image: mosaic,
		GSD:   geo.MetersPerPixel(zoom, centerLat),
		GeoTransform: [6]float64{
			lonNW, (lonSE - lonNW) / widthPx, 0,
			latNW, 0, (latSE - latNW) / heightPx,
		},
		Zoom: zoom,
	}, nil
}

// FetchValidated applies the resolution-escalation contract: starting at
// baseZoom, the zoom is raised until the mosaic's GSD is at or below maxGSD
// or maxZoom is reached. A mosaic that is still too coarse at maxZoom is
// returned with LowResolution set rather than rejected.
func (f *Fetcher) FetchValidated(ctx context.Context, box geo.BBox, baseZoom, maxZoom int, maxGSD float64) (*raster.Raster, error) {
	zoom := baseZoom
	centerLat := (box.South + box.North) / 2

	for zoom < maxZoom && geo.MetersPerPixel(zoom, centerLat) > maxGSD {
		zoom++
	}

	r, err := f.Mosaic(ctx, box, zoom)
	if err != nil {
		return nil, err
	}
	if r.GSD > maxGSD {
		r.LowResolution = true
	}
	return r, nil
}

func (f *Fetcher) fetchTile(ctx context.Context, zoom, tx, ty int) (image.Image, error) {
	url := strings.NewReplacer(
		"{z}", strconv.Itoa(zoom),
		"{x}", strconv.Itoa(tx),
		"{y}", strconv.Itoa(ty),
	).Replace(f.urlTemplate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tile, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tile: %w", err)
	}
	return tile, nil
}
