package detect

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIoU(t *testing.T) {
	a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
	assert.InDelta(t, 1.0, a.IoU(a), 1e-12)
	assert.Zero(t, a.IoU(Box{X1: 20, Y1: 20, X2: 30, Y2: 30}))

	// 10x10 boxes offset by 5: intersection 50, union 150.
	b := Box{X1: 5, Y1: 0, X2: 15, Y2: 10}
	assert.InDelta(t, 50.0/150.0, a.IoU(b), 1e-12)

	// Touching edges is not overlap.
	assert.Zero(t, a.IoU(Box{X1: 10, Y1: 0, X2: 20, Y2: 10}))
}

func TestSuppressKeepsHighestConfidence(t *testing.T) {
	// Two boxes with IoU 0.6 above a 0.5 threshold: only the stronger one
	// survives, carrying both confidences.
	a := Detection{Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.9, Class: "car"}
	b := Detection{Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 7.5}, Confidence: 0.7, Class: "car"} // IoU 0.75

	require.Greater(t, a.Box.IoU(b.Box), 0.5)

	kept := Suppress([]Detection{b, a}, 0.5)
	require.Len(t, kept, 1)
	assert.Equal(t, 0.9, kept[0].Confidence)
	assert.Equal(t, []float64{0.9, 0.7}, kept[0].Contributing)
}

func TestSuppressCrossClassNotSuppressed(t *testing.T) {
	a := Detection{Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.9, Class: "car"}
	b := Detection{Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.5, Class: "truck"}

	kept := Suppress([]Detection{a, b}, 0.5)
	assert.Len(t, kept, 2)
}

func TestSuppressIdempotent(t *testing.T) {
	dets := []Detection{
		{Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.9, Class: "car"},
		{Box: Box{X1: 1, Y1: 1, X2: 11, Y2: 11}, Confidence: 0.8, Class: "car"},
		{Box: Box{X1: 50, Y1: 50, X2: 60, Y2: 60}, Confidence: 0.7, Class: "car"},
		{Box: Box{X1: 52, Y1: 50, X2: 62, Y2: 60}, Confidence: 0.6, Class: "car"},
		{Box: Box{X1: 100, Y1: 0, X2: 110, Y2: 10}, Confidence: 0.5, Class: "van"},
	}

	once := Suppress(dets, 0.4)
	twice := Suppress(once, 0.4)
	assert.Equal(t, once, twice)
}

func TestSuppressDeterministicAcrossInputOrder(t *testing.T) {
	base := make([]Detection, 0, 40)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 40; i++ {
		x := float64(rng.Intn(200))
		y := float64(rng.Intn(200))
		// Unique confidences: with ties, which of two equal boxes survives
		// legitimately depends on input order.
		base = append(base, Detection{
			Box:        Box{X1: x, Y1: y, X2: x + 10 + float64(rng.Intn(5)), Y2: y + 10 + float64(rng.Intn(5))},
			Confidence: float64(i+1) / 50.0,
			Class:      "car",
		})
	}

	want := canonical(Suppress(base, 0.45))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]Detection, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := canonical(Suppress(shuffled, 0.45))
		assert.Equal(t, want, got)
	}
}

func TestSuppressEqualConfidenceStableTieBreak(t *testing.T) {
	// Equal confidences: the earlier input wins and absorbs the later one.
	a := Detection{Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.5, Class: "car"}
	b := Detection{Box: Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.5, Class: "car"}
	b.Box.X2 = 10.5

	kept := Suppress([]Detection{a, b}, 0.5)
	require.Len(t, kept, 1)
	assert.Equal(t, a.Box, kept[0].Box)
}

func TestSuppressEmpty(t *testing.T) {
	assert.Nil(t, Suppress(nil, 0.5))
}

// canonical sorts kept detections into a stable comparison order. For boxes
// produced from random shuffles only the set matters, not the slice order.
func canonical(dets []Detection) []Detection {
	out := make([]Detection, len(dets))
	copy(out, dets)
	for i := range out {
		sort.Sort(sort.Reverse(sort.Float64Slice(out[i].Contributing)))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Box.X1 != out[j].Box.X1 {
			return out[i].Box.X1 < out[j].Box.X1
		}
		if out[i].Box.Y1 != out[j].Box.Y1 {
			return out[i].Box.Y1 < out[j].Box.Y1
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
