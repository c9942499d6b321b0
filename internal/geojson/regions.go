package geojson

import (
	"parkscan/internal/detect"
	"parkscan/internal/estimate"
	"parkscan/internal/geo"
	"parkscan/internal/osm"
)

// BuildRegionFC builds the feature collection for one analyzed region: the
// parking polygon carrying its capacity estimate, followed by one polygon
// per detected vehicle. Detection boxes are converted from mosaic pixels to
// lon/lat with the raster geotransform.
func BuildRegionFC(region osm.Region, est estimate.CapacityEstimate, dets []detect.Detection, gt [6]float64) FeatureCollection {
	features := make([]Feature, 0, len(dets)+1)

	ring := make([][]float64, 0, len(region.Lons))
	for i := range region.Lons {
		ring = append(ring, []float64{region.Lons[i], region.Lats[i]})
	}

	props := map[string]interface{}{
		"osm_id":            region.ID,
		"area_m2":           region.AreaM2,
		"capacity":          est.Capacity,
		"capacity_low":      est.CapacityLow,
		"capacity_high":     est.CapacityHigh,
		"vehicles_detected": est.VehiclesDetected,
		"occupied":          est.Occupied,
		"free":              est.Free,
		"confidence_level":  string(est.Confidence),
	}
	if region.Name != "" {
		props["name"] = region.Name
	}
	if region.ParkingType != "" {
		props["parking_type"] = region.ParkingType
	}
	if est.OccupancyDefined {
		props["occupancy_pct"] = est.OccupancyPct
	}

	features = append(features, Feature{
		Type: featureType,
		Geometry: Geometry{
			Type:        geometryPolygonType,
			Coordinates: [][][]float64{ring},
		},
		Properties: props,
	})

	for _, d := range dets {
		features = append(features, Feature{
			Type: featureType,
			Geometry: Geometry{
				Type:        geometryPolygonType,
				Coordinates: [][][]float64{boxRing(d.Box, gt)},
			},
			Properties: map[string]interface{}{
				"kind":       "detection",
				"class":      d.Class,
				"confidence": d.Confidence,
			},
		})
	}

	return FeatureCollection{
		Type:     featureCollectionType,
		Features: features,
	}
}

func boxRing(b detect.Box, gt [6]float64) [][]float64 {
	corners := [][2]float64{
		{b.X1, b.Y1},
		{b.X2, b.Y1},
		{b.X2, b.Y2},
		{b.X1, b.Y2},
		{b.X1, b.Y1},
	}
	ring := make([][]float64, 0, len(corners))
	for _, c := range corners {
		lon, lat := geo.PixelToLonLat(gt, c[0], c[1])
		ring = append(ring, []float64{lon, lat})
	}
	return ring
}
