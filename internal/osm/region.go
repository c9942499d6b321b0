// Package osm supplies the geospatial inputs of a run: geocoded place
// coordinates and parking regions queried from OpenStreetMap.
package osm

import (
	"fmt"
	"sort"

	"parkscan/internal/geo"
)

// Region is one parking area: a closed polygon ring with its planar area and
// parking-type tag.
type Region struct {
	ID          int64
	Name        string
	Lons        []float64 // closed ring, first vertex repeated last
	Lats        []float64
	AreaM2      float64
	ParkingType string // surface | multi-storey | underground | "" when untagged
}

// BBox returns the WGS84 bounding box of the region polygon.
func (r Region) BBox() geo.BBox {
	box := geo.BBox{West: r.Lons[0], East: r.Lons[0], South: r.Lats[0], North: r.Lats[0]}
	for i := range r.Lons {
		if r.Lons[i] < box.West {
			box.West = r.Lons[i]
		}
		if r.Lons[i] > box.East {
			box.East = r.Lons[i]
		}
		if r.Lats[i] < box.South {
			box.South = r.Lats[i]
		}
		if r.Lats[i] > box.North {
			box.North = r.Lats[i]
		}
	}
	return box
}

// Validate rejects rings that cannot form a parking polygon.
func (r Region) Validate() error {
	if len(r.Lons) != len(r.Lats) {
		return fmt.Errorf("%w: ring has %d lons and %d lats", geo.ErrInvalidGeometry, len(r.Lons), len(r.Lats))
	}
	// A closed ring needs at least a triangle plus the repeated vertex.
	if len(r.Lons) < 4 {
		return fmt.Errorf("%w: ring has %d vertices", geo.ErrInvalidGeometry, len(r.Lons))
	}
	if r.Lons[0] != r.Lons[len(r.Lons)-1] || r.Lats[0] != r.Lats[len(r.Lats)-1] {
		return fmt.Errorf("%w: ring is not closed", geo.ErrInvalidGeometry)
	}
	if r.AreaM2 <= 0 {
		return fmt.Errorf("%w: ring area is %v m²", geo.ErrInvalidGeometry, r.AreaM2)
	}
	return nil
}

// TopByArea returns the k largest regions, area descending, region ID as a
// deterministic tiebreak. The input slice is not modified.
func TopByArea(regions []Region, k int) []Region {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AreaM2 != sorted[j].AreaM2 {
			return sorted[i].AreaM2 > sorted[j].AreaM2
		}
		return sorted[i].ID < sorted[j].ID
	})
	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
