package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		AreaPerSpot:           25,
		AssumedOccupancy:      0.6,
		CoverageThreshold:     5,
		DetectionWeight:       0.6,
		TruncatedWeight:       0.3,
		UncertaintyFloor:      1,
		UncertaintyFactor:     0.5,
		DisagreementTolerance: 0.5,
	}
}

func TestAreaOnlyCapacity(t *testing.T) {
	// 1000 m² at 25 m²/spot with no detections: pure area estimate of 40.
	est := Estimate(Inputs{AreaM2: 1000}, testParams())

	assert.Equal(t, 40, est.Capacity)
	assert.Equal(t, 0, est.VehiclesDetected)
	assert.Equal(t, 0, est.Occupied)
	assert.Equal(t, 40, est.Free)
	assert.Equal(t, LevelLow, est.Confidence)

	// Undefined C_det contributes nothing to uncertainty either.
	assert.Equal(t, 39, est.CapacityLow)
	assert.Equal(t, 41, est.CapacityHigh)
}

func TestBlendedCapacity(t *testing.T) {
	// C_area = 1500/25 = 60, C_det = 30/0.6 = 50.
	// capacity = round(0.6*50 + 0.4*60) = 54.
	est := Estimate(Inputs{AreaM2: 1500, VehiclesDetected: 30}, testParams())

	assert.Equal(t, 54, est.Capacity)
	assert.Equal(t, 30, est.Occupied)
	assert.Equal(t, 24, est.Free)
	require.True(t, est.OccupancyDefined)
	assert.InDelta(t, 100.0*30/54, est.OccupancyPct, 1e-9)
	assert.Equal(t, LevelHigh, est.Confidence)

	// u = floor 1 + 0.5 * |60-50| = 6.
	assert.Equal(t, 48, est.CapacityLow)
	assert.Equal(t, 60, est.CapacityHigh)
}

func TestBelowCoverageFallsBackToArea(t *testing.T) {
	est := Estimate(Inputs{AreaM2: 2000, VehiclesDetected: 1}, testParams())

	assert.Equal(t, 80, est.Capacity) // 2000/25, detection weight forced to 0
	assert.Equal(t, LevelLow, est.Confidence)
}

func TestTruncationShiftsWeightAndCapsConfidence(t *testing.T) {
	p := testParams()
	in := Inputs{AreaM2: 1500, VehiclesDetected: 30}

	full := Estimate(in, p)
	in.Truncated = true
	truncated := Estimate(in, p)

	// C_det (50) < C_area (60): less detection weight pulls the blend up.
	assert.Greater(t, truncated.Capacity, full.Capacity)
	assert.Equal(t, LevelMedium, truncated.Confidence)
	assert.NotEqual(t, LevelHigh, truncated.Confidence)
}

func TestUncertaintyMonotonicInDisagreement(t *testing.T) {
	p := testParams()
	prevWidth := -1

	// Fixed detection count, growing area: |C_area - C_det| grows and the
	// uncertainty band must never narrow.
	for area := 1250.0; area <= 5000; area += 250 {
		est := Estimate(Inputs{AreaM2: area, VehiclesDetected: 30}, p)
		width := est.CapacityHigh - est.CapacityLow
		assert.GreaterOrEqual(t, width, prevWidth, "area %v", area)
		prevWidth = width
	}
}

func TestLowResolutionForcesLow(t *testing.T) {
	est := Estimate(Inputs{AreaM2: 1500, VehiclesDetected: 30, LowResolution: true}, testParams())
	assert.Equal(t, LevelLow, est.Confidence)
}

func TestDegradedCapsConfidence(t *testing.T) {
	est := Estimate(Inputs{AreaM2: 1500, VehiclesDetected: 30, Degraded: true}, testParams())
	assert.Equal(t, LevelMedium, est.Confidence)
}

func TestLargeDisagreementCapsConfidence(t *testing.T) {
	// C_area = 400, C_det = 50: relative disagreement 0.875 > 0.5.
	est := Estimate(Inputs{AreaM2: 10000, VehiclesDetected: 30}, testParams())
	assert.Equal(t, LevelMedium, est.Confidence)
}

func TestOccupiedNeverExceedsCapacity(t *testing.T) {
	p := testParams()
	p.CoverageThreshold = 1

	// Tiny area, many vehicles: capacity blends low, occupied clamps to it.
	est := Estimate(Inputs{AreaM2: 50, VehiclesDetected: 40}, p)
	assert.LessOrEqual(t, est.Occupied, est.Capacity)
	assert.GreaterOrEqual(t, est.Free, 0)
	if est.OccupancyDefined {
		assert.LessOrEqual(t, est.OccupancyPct, 100.0)
	}
}

func TestZeroCapacityOccupancyUndefined(t *testing.T) {
	est := Estimate(Inputs{AreaM2: 0}, testParams())
	assert.Equal(t, 0, est.Capacity)
	assert.False(t, est.OccupancyDefined)
	assert.Zero(t, est.OccupancyPct)
}

func TestSumTotals(t *testing.T) {
	estimates := []CapacityEstimate{
		{Capacity: 100, VehiclesDetected: 60, Occupied: 60, Free: 40},
		{Capacity: 50, VehiclesDetected: 10, Occupied: 10, Free: 40},
	}

	totals := Sum(estimates)
	assert.Equal(t, 150, totals.Capacity)
	assert.Equal(t, 70, totals.Vehicles)
	assert.Equal(t, 80, totals.Free)
	assert.InDelta(t, 100.0*70/150, totals.OccupancyPct, 1e-9)

	assert.Zero(t, Sum(nil).OccupancyPct)
}
