package osm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/serjvanilla/go-overpass"

	"parkscan/internal/geo"
)

// ParkingSource queries OpenStreetMap for parking polygons via Overpass.
type ParkingSource struct {
	client  *overpass.Client
	timeout time.Duration
}

// NewParkingSource returns a source backed by the given Overpass endpoint.
func NewParkingSource(endpoint string, timeout time.Duration) *ParkingSource {
	httpClient := &http.Client{Timeout: timeout}
	client := overpass.NewWithSettings(endpoint, 1, httpClient)
	return &ParkingSource{
		client:  &client,
		timeout: timeout,
	}
}

// Regions returns the parking polygons within radiusM meters of a point.
// Ways carrying amenity=parking, landuse=parking or an explicit parking=*
// type tag are matched; open or degenerate rings are dropped and counted
// in skipped rather than failing the query.
func (s *ParkingSource) Regions(ctx context.Context, lat, lon float64, radiusM float64) (regions []Region, skipped int, err error) {
	box := geo.Around(lat, lon, radiusM)
	bbox := fmt.Sprintf("%f,%f,%f,%f", box.South, box.West, box.North, box.East)

	query := fmt.Sprintf(`
		[out:json];
		(
			way["amenity"="parking"](%s);
			way["landuse"="parking"](%s);
			way["parking"~"surface|multi-storey|underground"](%s);
		);
		out body;
		>;
		out skel qt;
	`, bbox, bbox, bbox)

	result, err := s.executeQuery(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("overpass parking query: %w", err)
	}

	regions = make([]Region, 0, len(result.Ways))
	for id, way := range result.Ways {
		if way == nil {
			continue
		}
		lons := make([]float64, 0, len(way.Nodes))
		lats := make([]float64, 0, len(way.Nodes))
		for _, node := range way.Nodes {
			if node == nil {
				continue
			}
			lons = append(lons, node.Lon)
			lats = append(lats, node.Lat)
		}

		region, err := RegionFromRing(id, lons, lats, way.Tags)
		if err != nil {
			skipped++
			continue
		}
		regions = append(regions, region)
	}

	// Overpass results arrive as a map; order them for reproducible runs.
	sort.Slice(regions, func(i, j int) bool { return regions[i].ID < regions[j].ID })
	return regions, skipped, nil
}

func (s *ParkingSource) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.Query(query)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}
	return &result, nil
}

// RegionFromRing builds a Region from a way's vertex ring and tags. The ring
// is closed if OSM delivered it open by one vertex.
func RegionFromRing(id int64, lons, lats []float64, tags map[string]string) (Region, error) {
	if len(lons) != len(lats) || len(lons) < 3 {
		return Region{}, fmt.Errorf("%w: way %d has %d vertices", geo.ErrInvalidGeometry, id, len(lons))
	}

	if lons[0] != lons[len(lons)-1] || lats[0] != lats[len(lats)-1] {
		lons = append(lons, lons[0])
		lats = append(lats, lats[0])
	}

	region := Region{
		ID:          id,
		Name:        tags["name"],
		Lons:        lons,
		Lats:        lats,
		AreaM2:      geo.RingAreaM2(lons[:len(lons)-1], lats[:len(lats)-1]),
		ParkingType: tags["parking"],
	}
	if err := region.Validate(); err != nil {
		return Region{}, err
	}
	return region, nil
}
