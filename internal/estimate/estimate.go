// Package estimate reconciles two independent capacity signals for a parking
// region: an area-derived estimate and a detection-derived estimate.
package estimate

import "math"

// Level is the three-way confidence classification of an estimate.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Params are the tunable estimation constants, taken from configuration.
type Params struct {
	AreaPerSpot           float64 // m² per spot for the region's parking type
	AssumedOccupancy      float64 // fraction of spots occupied at acquisition time, (0,1]
	CoverageThreshold     int     // min detected vehicles for the detection estimate to count
	DetectionWeight       float64 // C_det weight when coverage is met and nothing truncated
	TruncatedWeight       float64 // C_det weight when the detection cap was hit
	UncertaintyFloor      int     // minimum ± spots
	UncertaintyFactor     float64 // ± spots per unit of estimator disagreement
	DisagreementTolerance float64 // relative disagreement still rated high
}

// Inputs are the per-region facts feeding one estimate.
type Inputs struct {
	AreaM2           float64
	VehiclesDetected int
	Truncated        bool
	LowResolution    bool
	Degraded         bool // partial tile failure during detection
}

// CapacityEstimate is the derived result for one region. Rebuilt from current
// inputs on every run, never mutated in place.
type CapacityEstimate struct {
	Capacity         int
	CapacityLow      int
	CapacityHigh     int
	VehiclesDetected int
	Occupied         int
	Free             int
	OccupancyPct     float64
	OccupancyDefined bool
	Confidence       Level
}

// Estimate blends the area-based and detection-based capacity estimates.
//
// C_area = area / areaPerSpot. C_det = vehicles / assumedOccupancy, undefined
// when no vehicles were detected. Below the coverage threshold the detection
// signal is too noisy to trust, so its weight drops to zero and the result
// degrades to the pure area estimate with a low confidence level; a truncated
// detection set shifts weight toward C_area. The reported uncertainty widens
// with the disagreement between the two estimators, never narrows.
func Estimate(in Inputs, p Params) CapacityEstimate {
	cArea := in.AreaM2 / p.AreaPerSpot

	detDefined := in.VehiclesDetected > 0
	coverageMet := detDefined && in.VehiclesDetected >= p.CoverageThreshold

	var cDet float64
	if detDefined {
		cDet = float64(in.VehiclesDetected) / p.AssumedOccupancy
	}

	wDet := 0.0
	if coverageMet {
		wDet = p.DetectionWeight
		if in.Truncated {
			wDet = p.TruncatedWeight
		}
	}

	capacity := int(math.Round(wDet*cDet + (1-wDet)*cArea))
	if capacity < 0 {
		capacity = 0
	}

	disagreement := 0.0
	if detDefined {
		disagreement = math.Abs(cArea - cDet)
	}
	u := p.UncertaintyFloor + int(math.Round(p.UncertaintyFactor*disagreement))

	occupied := in.VehiclesDetected
	if occupied > capacity {
		occupied = capacity
	}
	free := capacity - occupied
	if free < 0 {
		free = 0
	}

	est := CapacityEstimate{
		Capacity:         capacity,
		CapacityLow:      maxInt(capacity-u, 0),
		CapacityHigh:     capacity + u,
		VehiclesDetected: in.VehiclesDetected,
		Occupied:         occupied,
		Free:             free,
	}
	if capacity > 0 {
		est.OccupancyPct = float64(occupied) / float64(capacity) * 100
		est.OccupancyDefined = true
	}

	est.Confidence = classify(in, p, coverageMet, cArea, cDet, detDefined)
	return est
}

func classify(in Inputs, p Params, coverageMet bool, cArea, cDet float64, detDefined bool) Level {
	if in.LowResolution || !coverageMet {
		return LevelLow
	}
	if in.Truncated || in.Degraded {
		return LevelMedium
	}
	if detDefined {
		ref := math.Max(cArea, cDet)
		if ref > 0 && math.Abs(cArea-cDet)/ref > p.DisagreementTolerance {
			return LevelMedium
		}
	}
	return LevelHigh
}

// Totals aggregates estimates across all processed regions of a run.
type Totals struct {
	Capacity     int
	Vehicles     int
	Free         int
	OccupancyPct float64
}

// Sum accumulates run totals. Overall occupancy is total occupied over total
// capacity, zero when no capacity was estimated.
func Sum(estimates []CapacityEstimate) Totals {
	var t Totals
	occupied := 0
	for _, e := range estimates {
		t.Capacity += e.Capacity
		t.Vehicles += e.VehiclesDetected
		t.Free += e.Free
		occupied += e.Occupied
	}
	if t.Capacity > 0 {
		t.OccupancyPct = float64(occupied) / float64(t.Capacity) * 100
	}
	return t
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
