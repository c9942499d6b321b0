// Package config holds the tunable surface of the parkscan pipeline.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config collects every tunable knob of the pipeline. Defaults come from
// Default(); env vars override defaults and CLI flags override both.
type Config struct {
	// External collaborators
	NominatimURL string // geocoding endpoint
	OverpassURL  string // OSM query endpoint

	// Imagery
	TileProviderURL string  // XYZ tile URL template with {z}/{x}/{y} placeholders
	BaseZoom        int     // initial imagery zoom level
	MaxZoom         int     // zoom ceiling for resolution escalation
	MaxGSD          float64 // max acceptable ground-sample-distance, m/px
	UpscaleMinSide  int     // mosaics with min(W,H) below this are upscaled 2x

	// Tiling
	TileSize    int // detector tile width/height, px
	TileOverlap int // overlap margin between adjacent tiles, px

	// Detection
	DetectorURL   string  // inference service endpoint
	Confidence    float64 // detector confidence threshold
	NMSIoU        float64 // IoU above which same-class boxes are suppressed
	Workers       int     // tile worker pool size
	MaxDetections int     // detection cap per region; exceeding sets the truncated flag

	// Plausibility filters (real-world units)
	MinVehicleAreaM2 float64 // reject boxes smaller than this footprint
	MaxVehicleAreaM2 float64 // reject boxes larger than this footprint
	MinAspect        float64 // width/height lower bound
	MaxAspect        float64 // width/height upper bound

	// Estimation
	AreaPerSpotSurface     float64 // m² per spot, surface lots (aisle overhead)
	AreaPerSpotStructured  float64 // m² per spot, multi-storey and underground
	AssumedOccupancy       float64 // fraction of spots occupied at acquisition time, (0,1]
	CoverageThreshold      int     // min vehicles for the detection estimate to count
	DetectionWeight        float64 // C_det blend weight when coverage met, not truncated
	TruncatedWeight        float64 // C_det blend weight when the cap was hit
	UncertaintyFloor       int     // minimum ± spots on every estimate
	UncertaintyFactor      float64 // extra ± spots per unit of |C_area - C_det|
	DisagreementTolerance  float64 // relative estimator disagreement still rated high
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		NominatimURL: "https://nominatim.openstreetmap.org/search",
		OverpassURL:  "https://overpass-api.de/api/interpreter",

		TileProviderURL: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		BaseZoom:        19,
		MaxZoom:         20,
		MaxGSD:          0.5,
		UpscaleMinSide:  2048,

		TileSize:    1024,
		TileOverlap: 256,

		DetectorURL:   "http://localhost:5000/predict",
		Confidence:    0.05,
		NMSIoU:        0.35,
		Workers:       4,
		MaxDetections: 5000,

		MinVehicleAreaM2: 4.0,
		MaxVehicleAreaM2: 60.0,
		MinAspect:        0.25,
		MaxAspect:        4.0,

		AreaPerSpotSurface:    30.0,
		AreaPerSpotStructured: 25.0,
		AssumedOccupancy:      0.6,
		CoverageThreshold:     5,
		DetectionWeight:       0.6,
		TruncatedWeight:       0.3,
		UncertaintyFloor:      1,
		UncertaintyFactor:     0.5,
		DisagreementTolerance: 0.5,
	}
}

// Load returns the default configuration with environment overrides applied.
func Load() Config {
	cfg := Default()
	cfg.NominatimURL = getEnv("PARKSCAN_NOMINATIM_URL", cfg.NominatimURL)
	cfg.OverpassURL = getEnv("PARKSCAN_OVERPASS_URL", cfg.OverpassURL)
	cfg.TileProviderURL = getEnv("PARKSCAN_TILE_URL", cfg.TileProviderURL)
	cfg.DetectorURL = getEnv("PARKSCAN_DETECTOR_URL", cfg.DetectorURL)
	cfg.BaseZoom = getEnvInt("PARKSCAN_ZOOM", cfg.BaseZoom)
	cfg.Workers = getEnvInt("PARKSCAN_WORKERS", cfg.Workers)
	return cfg
}

// Validate rejects nonsensical parameter combinations. A validation error is
// fatal at startup; nothing downstream re-checks these.
func (c Config) Validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	}
	if c.TileOverlap < 0 || c.TileOverlap >= c.TileSize {
		return fmt.Errorf("tile overlap %d must be in [0, tile size %d)", c.TileOverlap, c.TileSize)
	}
	if c.NMSIoU <= 0 || c.NMSIoU >= 1 {
		return fmt.Errorf("nms iou threshold %v must be in (0, 1)", c.NMSIoU)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence threshold %v must be in [0, 1]", c.Confidence)
	}
	if c.AssumedOccupancy <= 0 || c.AssumedOccupancy > 1 {
		return fmt.Errorf("assumed occupancy %v must be in (0, 1]", c.AssumedOccupancy)
	}
	if c.AreaPerSpotSurface <= 0 || c.AreaPerSpotStructured <= 0 {
		return fmt.Errorf("area per spot must be positive")
	}
	if c.MinVehicleAreaM2 <= 0 || c.MaxVehicleAreaM2 <= c.MinVehicleAreaM2 {
		return fmt.Errorf("vehicle area range [%v, %v] is invalid", c.MinVehicleAreaM2, c.MaxVehicleAreaM2)
	}
	if c.MinAspect <= 0 || c.MaxAspect <= c.MinAspect {
		return fmt.Errorf("aspect ratio range [%v, %v] is invalid", c.MinAspect, c.MaxAspect)
	}
	if c.MaxDetections <= 0 {
		return fmt.Errorf("detection cap must be positive, got %d", c.MaxDetections)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	if c.DetectionWeight < 0 || c.DetectionWeight > 1 || c.TruncatedWeight < 0 || c.TruncatedWeight > 1 {
		return fmt.Errorf("blend weights must be in [0, 1]")
	}
	if c.MaxGSD <= 0 {
		return fmt.Errorf("max gsd must be positive, got %v", c.MaxGSD)
	}
	if c.BaseZoom < 1 || c.MaxZoom < c.BaseZoom {
		return fmt.Errorf("zoom range [%d, %d] is invalid", c.BaseZoom, c.MaxZoom)
	}
	if c.UncertaintyFloor < 0 || c.UncertaintyFactor < 0 {
		return fmt.Errorf("uncertainty parameters must be non-negative")
	}
	if c.CoverageThreshold < 0 {
		return fmt.Errorf("coverage threshold must be non-negative, got %d", c.CoverageThreshold)
	}
	return nil
}

// AreaPerSpot returns the per-spot footprint for a parking type tag.
// Surface lots carry more aisle overhead than structured parking.
func (c Config) AreaPerSpot(parkingType string) float64 {
	switch parkingType {
	case "multi-storey", "underground":
		return c.AreaPerSpotStructured
	default:
		return c.AreaPerSpotSurface
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
