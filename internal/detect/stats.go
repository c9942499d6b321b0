package detect

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (mean, std float64) {
	count := 0
	m2 := 0.0

	for _, v := range values {
		count++
		delta := v - mean
		mean += delta / float64(count)
		delta2 := v - mean
		m2 += delta * delta2
	}

	if count == 0 {
		return 0, 0
	}
	return mean, math.Sqrt(m2 / float64(count))
}
