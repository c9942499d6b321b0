package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkscan/internal/estimate"
	"parkscan/internal/osm"
)

func TestWriteSummaryTable(t *testing.T) {
	regions := []osm.Region{
		{ID: 42, ParkingType: "multi-storey", AreaM2: 1500},
		{ID: 7, AreaM2: 900},
	}
	estimates := []estimate.CapacityEstimate{
		{
			Capacity: 60, CapacityLow: 54, CapacityHigh: 66,
			VehiclesDetected: 30, Occupied: 30, Free: 30,
			OccupancyPct: 50, OccupancyDefined: true,
			Confidence: estimate.LevelHigh,
		},
		{
			Capacity: 0, VehiclesDetected: 0,
			Confidence: estimate.LevelLow,
		},
	}

	var sb strings.Builder
	require.NoError(t, writeSummaryTable(&sb, regions, estimates))

	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "osm_id")
	assert.Contains(t, lines[1], "multi-storey")
	assert.Contains(t, lines[1], "60 (±6)")
	assert.Contains(t, lines[1], "50.0%")
	assert.Contains(t, lines[1], "high")

	// Missing parking type defaults to surface; zero capacity leaves
	// occupancy undefined.
	assert.Contains(t, lines[2], "surface")
	assert.Contains(t, lines[2], "n/a")
	assert.Contains(t, lines[2], "low")
}

func TestWriteTotals(t *testing.T) {
	var sb strings.Builder
	writeTotals(&sb, estimate.Totals{Capacity: 100, Vehicles: 40, Free: 60, OccupancyPct: 40})

	assert.Contains(t, sb.String(), "capacity 100, vehicles 40, free 60, occupancy 40.0%")
}
