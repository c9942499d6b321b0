// Package geo provides the coordinate math shared by the imagery, OSM and
// detection packages: GDAL-style affine geotransforms, web-mercator slippy-map
// tile arithmetic and planar polygon areas.
package geo

import (
	"errors"
	"math"
)

// ErrInvalidGeometry marks malformed region polygons and invalid tiling
// parameters. Fatal for the region it concerns, never for the whole run.
var ErrInvalidGeometry = errors.New("invalid geometry")

const (
	// EarthCircumference is the equatorial circumference in meters (web mercator).
	EarthCircumference = 40075016.686

	tilePixels = 256
)

// PixelToLonLat converts pixel coordinates to lon/lat using a GDAL-style
// affine geotransform.
func PixelToLonLat(gt [6]float64, px, py float64) (lon, lat float64) {
	lon = gt[0] + px*gt[1] + py*gt[2]
	lat = gt[3] + px*gt[4] + py*gt[5]
	return lon, lat
}

// LonLatToPixel inverts a north-up geotransform (no rotation terms).
func LonLatToPixel(gt [6]float64, lon, lat float64) (px, py float64) {
	px = (lon - gt[0]) / gt[1]
	py = (lat - gt[3]) / gt[5]
	return px, py
}

// MetersPerPixel returns the ground-sample-distance of a web-mercator tile
// pyramid at the given zoom and latitude.
func MetersPerPixel(zoom int, lat float64) float64 {
	return EarthCircumference * math.Cos(lat*math.Pi/180) / float64(tilePixels) / math.Exp2(float64(zoom))
}

// TileXY returns the slippy-map tile column and row containing lon/lat at zoom,
// as fractional coordinates.
func TileXY(lon, lat float64, zoom int) (x, y float64) {
	n := math.Exp2(float64(zoom))
	x = (lon + 180.0) / 360.0 * n
	latRad := lat * math.Pi / 180
	y = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n
	return x, y
}

// TileLonLat returns the lon/lat of the north-west corner of the given
// fractional tile coordinates at zoom.
func TileLonLat(x, y float64, zoom int) (lon, lat float64) {
	n := math.Exp2(float64(zoom))
	lon = x/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*y/n)))
	lat = latRad * 180 / math.Pi
	return lon, lat
}

// BBox is a WGS84 bounding box.
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Around returns a bounding box spanning radiusM meters around a point.
func Around(lat, lon float64, radiusM float64) BBox {
	dLat := radiusM / (EarthCircumference / 360.0)
	dLon := dLat / math.Cos(lat*math.Pi/180)
	return BBox{
		West:  lon - dLon,
		South: lat - dLat,
		East:  lon + dLon,
		North: lat + dLat,
	}
}

// RingAreaM2 returns the planar area in square meters of a closed lon/lat
// ring. The ring is projected to web mercator and the shoelace area is
// corrected for the mercator scale factor at the ring's mean latitude.
func RingAreaM2(lons, lats []float64) float64 {
	n := len(lons)
	if n < 3 || len(lats) != n {
		return 0
	}

	meanLat := 0.0
	for _, lat := range lats {
		meanLat += lat
	}
	meanLat /= float64(n)

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = mercX(lons[i])
		ys[i] = mercY(lats[i])
	}

	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += xs[i]*ys[j] - xs[j]*ys[i]
	}
	area = math.Abs(area) / 2

	// Mercator inflates lengths by 1/cos(lat), so areas by 1/cos²(lat).
	scale := math.Cos(meanLat * math.Pi / 180)
	return area * scale * scale
}

func mercX(lon float64) float64 {
	return lon * math.Pi / 180 * earthRadius
}

func mercY(lat float64) float64 {
	return math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * earthRadius
}

const earthRadius = EarthCircumference / (2 * math.Pi)
