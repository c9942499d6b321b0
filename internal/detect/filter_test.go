package detect

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plausibleParams() FilterParams {
	// 0.3 m/px: a 10x15px box is 4.05 m², well inside [4, 60].
	return FilterParams{
		GSD:           0.3,
		MinAreaM2:     4,
		MaxAreaM2:     60,
		MinAspect:     0.25,
		MaxAspect:     4,
		MaxDetections: 200,
	}
}

func carAt(x, y, conf float64) Detection {
	return Detection{
		Box:        Box{X1: x, Y1: y, X2: x + 15, Y2: y + 10},
		Confidence: conf,
		Class:      "car",
	}
}

func TestFilterSize(t *testing.T) {
	p := plausibleParams()

	tiny := Detection{Box: Box{X1: 0, Y1: 0, X2: 3, Y2: 3}, Confidence: 0.9}    // 0.81 m²
	huge := Detection{Box: Box{X1: 0, Y1: 0, X2: 90, Y2: 90}, Confidence: 0.9}  // 729 m²
	empty := Detection{Box: Box{X1: 5, Y1: 5, X2: 5, Y2: 9}, Confidence: 0.9}   // zero width
	ok := carAt(0, 0, 0.9)

	kept, truncated := Filter([]Detection{tiny, huge, empty, ok}, p)
	require.Len(t, kept, 1)
	assert.False(t, truncated)
	assert.Equal(t, ok.Box, kept[0].Box)
}

func TestFilterAspectRatio(t *testing.T) {
	p := plausibleParams()

	// 50x2 px at 0.3 m/px is 9 m² (size-plausible) but aspect 25.
	marking := Detection{Box: Box{X1: 0, Y1: 0, X2: 50, Y2: 2}, Confidence: 0.9}
	kept, _ := Filter([]Detection{marking, carAt(0, 0, 0.8)}, p)
	require.Len(t, kept, 1)
	assert.Equal(t, 0.8, kept[0].Confidence)
}

func TestFilterConfidenceAveraging(t *testing.T) {
	d := carAt(0, 0, 0.9)
	d.Contributing = []float64{0.9, 0.7, 0.5}

	kept, _ := Filter([]Detection{d}, plausibleParams())
	require.Len(t, kept, 1)
	assert.InDelta(t, 0.7, kept[0].Confidence, 1e-12)
}

func TestFilterCap(t *testing.T) {
	p := plausibleParams()
	p.MaxDetections = 200

	dets := make([]Detection, 0, 500)
	for i := 0; i < 500; i++ {
		dets = append(dets, carAt(float64(i*20), 0, float64(i%100)/100))
	}

	kept, truncated := Filter(dets, p)
	assert.Len(t, kept, 200)
	assert.True(t, truncated)

	// Top-N by confidence survived.
	for _, d := range kept {
		assert.GreaterOrEqual(t, d.Confidence, 0.60)
	}
}

func TestFilterCapDisabled(t *testing.T) {
	p := plausibleParams()
	p.MaxDetections = 0

	dets := []Detection{carAt(0, 0, 0.5), carAt(100, 0, 0.6)}
	kept, truncated := Filter(dets, p)
	assert.Len(t, kept, 2)
	assert.False(t, truncated)
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5, mean, 1e-12)
	assert.InDelta(t, 2, std, 1e-12)

	mean, std = MeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 0.8, Mean([]float64{0.9, 0.7}), 1e-12)
}

func ExampleFilter() {
	dets := []Detection{
		{Box: Box{X1: 0, Y1: 0, X2: 15, Y2: 10}, Confidence: 0.9, Class: "car", Contributing: []float64{0.9, 0.7}},
	}
	kept, _ := Filter(dets, FilterParams{GSD: 0.3, MinAreaM2: 4, MaxAreaM2: 60, MinAspect: 0.25, MaxAspect: 4})
	fmt.Printf("%d detection, confidence %.2f\n", len(kept), kept[0].Confidence)
	// Output: 1 detection, confidence 0.80
}
